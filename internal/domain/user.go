package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role type to distinguish between user roles
type Role string

const (
	RoleCoach  Role = "coach"
	RoleClient Role = "client"
)

// UserStatus marks whether a user still takes part in coaching.
type UserStatus string

const (
	StatusActive   UserStatus = "active"
	StatusInactive UserStatus = "inactive"
)

// User represents a user in the system (either a Coach or a Client).
// AuthID is the subject issued by the external identity provider.
type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AuthID    string             `bson:"authId" json:"-"`
	Name      string             `bson:"name" json:"name"`
	Email     string             `bson:"email" json:"email"` // Should be unique
	Role      Role               `bson:"role" json:"role"`
	Status    UserStatus         `bson:"status" json:"status"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`

	// --- Coach-specific ---
	ClientIDs []primitive.ObjectID `bson:"clientIds,omitempty" json:"clientIds,omitempty"`

	// --- Client-specific ---
	CoachID *primitive.ObjectID `bson:"coachId,omitempty" json:"coachId,omitempty"`
}

func (u *User) IsCoach() bool {
	return u.Role == RoleCoach
}

func (u *User) IsClient() bool {
	return u.Role == RoleClient
}

// IsActive treats a missing status as active; older records predate the field.
func (u *User) IsActive() bool {
	return u.Status != StatusInactive
}

// OwnerID returns the coach that owns this user's data.
func (u *User) OwnerID() primitive.ObjectID {
	if u.IsCoach() {
		return u.ID
	}
	if u.CoachID != nil {
		return *u.CoachID
	}
	return primitive.NilObjectID
}
