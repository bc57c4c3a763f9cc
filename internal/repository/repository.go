package repository

import (
	"alcyxob/coach-tracker/internal/domain"
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound      = RepositoryError("not found")
	ErrDuplicate     = RepositoryError("duplicate record")
	ErrUpdateFailed  = RepositoryError("update failed")
	ErrDeleteFailed  = RepositoryError("delete failed")
	ErrInvalidRecord = RepositoryError("invalid record")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	GetByAuthID(ctx context.Context, authID string) (*domain.User, error)
	AddClientIDToCoach(ctx context.Context, coachID, clientID primitive.ObjectID) error
	GetClientsByCoachID(ctx context.Context, coachID primitive.ObjectID) ([]domain.User, error)
	SetCoachForClient(ctx context.Context, clientID, coachID primitive.ObjectID) error
	SetStatus(ctx context.Context, id primitive.ObjectID, status domain.UserStatus) error
}

// MealPlanRepository covers meal plans and their meal rows.
type MealPlanRepository interface {
	Create(ctx context.Context, plan *domain.MealPlan, meals []domain.Meal) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.MealPlan, error)
	// GetByClientID returns every non-template plan of the client, newest first.
	GetByClientID(ctx context.Context, clientID primitive.ObjectID) ([]domain.MealPlan, error)
	GetMeals(ctx context.Context, planID primitive.ObjectID) ([]domain.Meal, error)
	GetMealByID(ctx context.Context, id primitive.ObjectID) (*domain.Meal, error)
	// Activate marks planID active at `at` and deactivates the client's other active plans.
	Activate(ctx context.Context, planID, clientID primitive.ObjectID, at time.Time) error
}

// WorkoutPlanRepository covers workout plans and their days.
type WorkoutPlanRepository interface {
	Create(ctx context.Context, plan *domain.WorkoutPlan, days []domain.WorkoutDay) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutPlan, error)
	GetByClientID(ctx context.Context, clientID primitive.ObjectID) ([]domain.WorkoutPlan, error)
	GetDays(ctx context.Context, planID primitive.ObjectID) ([]domain.WorkoutDay, error)
	Activate(ctx context.Context, planID, clientID primitive.ObjectID, at time.Time) error
}

// CompletionRepository stores the date-granular completion rows the
// compliance aggregator consumes. Ranges are [from, to).
type CompletionRepository interface {
	UpsertMealCompletion(ctx context.Context, c *domain.MealCompletion) error
	GetMealCompletions(ctx context.Context, userID primitive.ObjectID, from, to time.Time) ([]domain.MealCompletion, error)

	UpsertWorkoutCompletion(ctx context.Context, c *domain.WorkoutCompletion) error
	GetWorkoutCompletions(ctx context.Context, userID primitive.ObjectID, from, to time.Time) ([]domain.WorkoutCompletion, error)

	UpsertSupplementCompletion(ctx context.Context, c *domain.SupplementCompletion) error
	GetSupplementCompletions(ctx context.Context, userID primitive.ObjectID, from, to time.Time) ([]domain.SupplementCompletion, error)
}

type SupplementRepository interface {
	Create(ctx context.Context, s *domain.Supplement) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Supplement, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.Supplement, error)
}

type WeightRepository interface {
	Create(ctx context.Context, w *domain.WeightLog) (primitive.ObjectID, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID, from, to time.Time) ([]domain.WeightLog, error)
}

type MessageRepository interface {
	Create(ctx context.Context, m *domain.Message) (primitive.ObjectID, error)
	// GetThread returns the conversation between a coach and a client, oldest first.
	GetThread(ctx context.Context, coachID, clientID primitive.ObjectID, limit int64) ([]domain.Message, error)
	MarkRead(ctx context.Context, coachID, clientID, readerID primitive.ObjectID, at time.Time) error
}

// PhotoRepository defines the interface for interacting with progress photo metadata.
type PhotoRepository interface {
	Create(ctx context.Context, photo *domain.ProgressPhoto) (primitive.ObjectID, error)
	GetByClientID(ctx context.Context, clientID primitive.ObjectID) ([]domain.ProgressPhoto, error)
}
