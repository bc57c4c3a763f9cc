package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MealPlan is a nutrition plan a coach builds for a client.
type MealPlan struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CoachID     primitive.ObjectID `bson:"coachId" json:"coachId"`
	ClientID    primitive.ObjectID `bson:"clientId" json:"clientId"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`

	Activation `bson:",inline"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Meal is one row of a meal plan. Rows sharing Name and Time are options
// (A/B) of the same meal and count as a single group.
type Meal struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	MealPlanID primitive.ObjectID `bson:"mealPlanId" json:"mealPlanId"`
	Name       string             `bson:"name" json:"name"` // e.g., "Breakfast"
	Time       string             `bson:"time" json:"time"` // "HH:MM"
	Option     string             `bson:"option,omitempty" json:"option,omitempty"`
	Sequence   int                `bson:"sequence" json:"sequence"`
	Foods      []Food             `bson:"foods,omitempty" json:"foods,omitempty"`
	Notes      string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}

type Food struct {
	Name     string  `bson:"name" json:"name"`
	Quantity string  `bson:"quantity,omitempty" json:"quantity,omitempty"`
	Calories float64 `bson:"calories,omitempty" json:"calories,omitempty"`
}

// MealCompletion records that a client ate a meal on a given day.
type MealCompletion struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID `bson:"userId" json:"userId"`
	MealID      primitive.ObjectID `bson:"mealId" json:"mealId"`
	CompletedAt time.Time          `bson:"completedAt" json:"completedAt"` // truncated to the day
}
