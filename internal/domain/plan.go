package domain

import "time"

// Activation holds the fields shared by every plan kind that can be switched
// on and off for a client. Only one plan of a kind is active per client.
type Activation struct {
	IsActive      bool       `bson:"isActive" json:"isActive"`
	IsTemplate    bool       `bson:"isTemplate" json:"isTemplate"`
	ActivatedAt   *time.Time `bson:"activatedAt,omitempty" json:"activatedAt,omitempty"`     // nil on legacy rows
	DeactivatedAt *time.Time `bson:"deactivatedAt,omitempty" json:"deactivatedAt,omitempty"` // set when another plan took over
}

// ActivationState exposes the activation fields to plan resolution.
func (a Activation) ActivationState() Activation {
	return a
}
