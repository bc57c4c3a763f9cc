package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Supplement struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	CoachID   primitive.ObjectID `bson:"coachId" json:"coachId"`
	Name      string             `bson:"name" json:"name"`
	Dosage    string             `bson:"dosage,omitempty" json:"dosage,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

type SupplementCompletion struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID       primitive.ObjectID `bson:"userId" json:"userId"`
	SupplementID primitive.ObjectID `bson:"supplementId" json:"supplementId"`
	CompletedAt  time.Time          `bson:"completedAt" json:"completedAt"`
}

// WeightLog is a body-weight check-in.
type WeightLog struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID   primitive.ObjectID `bson:"userId" json:"userId"`
	WeightKg float64            `bson:"weightKg" json:"weightKg"`
	LoggedAt time.Time          `bson:"loggedAt" json:"loggedAt"`
}
