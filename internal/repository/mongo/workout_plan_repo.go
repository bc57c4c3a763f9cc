package mongo

import (
	"alcyxob/coach-tracker/internal/domain"
	"alcyxob/coach-tracker/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	workoutPlanCollectionName = "workout_plans"
	workoutDayCollectionName  = "workout_days"
)

var workoutPlanIndexes = planIndexes

var workoutDayIndexes = []mongo.IndexModel{
	{
		Keys:    bson.D{{Key: "workoutPlanId", Value: 1}, {Key: "dayOfWeek", Value: 1}},
		Options: options.Index(),
	},
}

type mongoWorkoutPlanRepository struct {
	plans *mongo.Collection
	days  *mongo.Collection
}

// NewMongoWorkoutPlanRepository creates a workout plan repository.
func NewMongoWorkoutPlanRepository(db *mongo.Database) repository.WorkoutPlanRepository {
	return &mongoWorkoutPlanRepository{
		plans: db.Collection(workoutPlanCollectionName),
		days:  db.Collection(workoutDayCollectionName),
	}
}

func (r *mongoWorkoutPlanRepository) Create(ctx context.Context, plan *domain.WorkoutPlan, days []domain.WorkoutDay) (primitive.ObjectID, error) {
	if plan.ClientID.IsZero() || plan.CoachID.IsZero() || plan.Name == "" {
		return primitive.NilObjectID, errors.New("workout plan client, coach, and name are required")
	}
	for _, d := range days {
		if d.DayOfWeek < 0 || d.DayOfWeek > 6 {
			return primitive.NilObjectID, repository.ErrInvalidRecord
		}
	}

	plan.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	plan.CreatedAt = now
	plan.UpdatedAt = now
	if plan.ScheduleMode == "" {
		plan.ScheduleMode = domain.ScheduleFixed
	}

	result, err := r.plans.InsertOne(ctx, plan)
	if err != nil {
		return primitive.NilObjectID, err
	}
	planID, err := insertedObjectID(result)
	if err != nil {
		return primitive.NilObjectID, err
	}
	if len(days) == 0 {
		return planID, nil
	}

	docs := make([]interface{}, len(days))
	for i := range days {
		days[i].ID = primitive.NewObjectID()
		days[i].WorkoutPlanID = planID
		for j := range days[i].Groups {
			if days[i].Groups[j].ID == "" {
				days[i].Groups[j].ID = primitive.NewObjectID().Hex()
			}
		}
		docs[i] = days[i]
	}
	if _, err := r.days.InsertMany(ctx, docs); err != nil {
		return planID, err
	}
	return planID, nil
}

func (r *mongoWorkoutPlanRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutPlan, error) {
	return findOne[domain.WorkoutPlan](ctx, r.plans, bson.M{"_id": id})
}

func (r *mongoWorkoutPlanRepository) GetByClientID(ctx context.Context, clientID primitive.ObjectID) ([]domain.WorkoutPlan, error) {
	filter, opts := clientPlansFilter(clientID)
	return findAll[domain.WorkoutPlan](ctx, r.plans, filter, opts)
}

func (r *mongoWorkoutPlanRepository) GetDays(ctx context.Context, planID primitive.ObjectID) ([]domain.WorkoutDay, error) {
	opts := options.Find().SetSort(bson.D{{Key: "dayOfWeek", Value: 1}})
	return findAll[domain.WorkoutDay](ctx, r.days, bson.M{"workoutPlanId": planID}, opts)
}

func (r *mongoWorkoutPlanRepository) Activate(ctx context.Context, planID, clientID primitive.ObjectID, at time.Time) error {
	return activatePlan(ctx, r.plans, planID, clientID, at)
}
