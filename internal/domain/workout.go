package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ScheduleMode decides how workout days map onto the calendar.
type ScheduleMode string

const (
	ScheduleFixed    ScheduleMode = "fixed"    // day N of the plan is weekday N
	ScheduleFlexible ScheduleMode = "flexible" // client picks any day in any order
)

// WorkoutPlan represents a structured weekly plan assigned to a client by a coach.
type WorkoutPlan struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CoachID      primitive.ObjectID `bson:"coachId" json:"coachId"`
	ClientID     primitive.ObjectID `bson:"clientId" json:"clientId"`
	Name         string             `bson:"name" json:"name"` // e.g., "Phase 1: Hypertrophy"
	Description  string             `bson:"description,omitempty" json:"description,omitempty"`
	ScheduleMode ScheduleMode       `bson:"scheduleMode" json:"scheduleMode"`

	Activation `bson:",inline"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// WorkoutDay is one day of a workout plan.
type WorkoutDay struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkoutPlanID primitive.ObjectID `bson:"workoutPlanId" json:"workoutPlanId"`
	DayOfWeek     int                `bson:"dayOfWeek" json:"dayOfWeek"` // 0 (Sun) - 6 (Sat), matches time.Weekday
	Name          string             `bson:"name,omitempty" json:"name,omitempty"`
	IsRest        bool               `bson:"isRest" json:"isRest"`
	Groups        []ExerciseGroup    `bson:"groups,omitempty" json:"groups,omitempty"`
}

// ExerciseGroup is a block of exercises (superset, circuit, ...) the client
// ticks off as a unit.
type ExerciseGroup struct {
	ID        string     `bson:"id" json:"id"`
	Name      string     `bson:"name" json:"name"`
	Exercises []Exercise `bson:"exercises,omitempty" json:"exercises,omitempty"`
}

type Exercise struct {
	Name  string  `bson:"name" json:"name"`
	Sets  *int    `bson:"sets,omitempty" json:"sets,omitempty"`
	Reps  *string `bson:"reps,omitempty" json:"reps,omitempty"`
	Rest  *string `bson:"rest,omitempty" json:"rest,omitempty"`
	Notes string  `bson:"notes,omitempty" json:"notes,omitempty"`
}

// WorkoutCompletion records a day of training. An empty CompletedGroupIDs
// means the client logged a rest day.
type WorkoutCompletion struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID            primitive.ObjectID `bson:"userId" json:"userId"`
	WorkoutPlanID     primitive.ObjectID `bson:"workoutPlanId" json:"workoutPlanId"`
	WorkoutDayID      primitive.ObjectID `bson:"workoutDayId,omitempty" json:"workoutDayId,omitempty"`
	CompletedDate     time.Time          `bson:"completedDate" json:"completedDate"` // truncated to the day
	CompletedGroupIDs []string           `bson:"completedGroupIds" json:"completedGroupIds"`
}

func (c *WorkoutCompletion) IsRestDay() bool {
	return len(c.CompletedGroupIDs) == 0
}
