package mongo

import (
	"alcyxob/coach-tracker/internal/domain"
	"alcyxob/coach-tracker/internal/repository"
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	mealCompletionCollectionName       = "meal_completions"
	workoutCompletionCollectionName    = "workout_completions"
	supplementCompletionCollectionName = "supplement_completions"
)

// Completion dates are stored truncated to the day, so the unique indexes
// make one row per entity per day.
var (
	mealCompletionIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "mealId", Value: 1}, {Key: "completedAt", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	workoutCompletionIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "completedDate", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	supplementCompletionIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "supplementId", Value: 1}, {Key: "completedAt", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
)

type mongoCompletionRepository struct {
	meals       *mongo.Collection
	workouts    *mongo.Collection
	supplements *mongo.Collection
}

// NewMongoCompletionRepository creates the repository for all completion rows.
func NewMongoCompletionRepository(db *mongo.Database) repository.CompletionRepository {
	return &mongoCompletionRepository{
		meals:       db.Collection(mealCompletionCollectionName),
		workouts:    db.Collection(workoutCompletionCollectionName),
		supplements: db.Collection(supplementCompletionCollectionName),
	}
}

// upsert inserts the row on first completion of the day and leaves an
// existing row's id untouched.
func upsert(ctx context.Context, coll *mongo.Collection, filter, set bson.M) error {
	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"_id": primitive.NewObjectID()},
	}
	_, err := coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		// Lost a race with a concurrent upsert of the same row; the row exists.
		return nil
	}
	return err
}

func rangeFilter(userID primitive.ObjectID, field string, from, to time.Time) bson.M {
	return bson.M{
		"userId": userID,
		field:    bson.M{"$gte": from.UTC(), "$lt": to.UTC()},
	}
}

func (r *mongoCompletionRepository) UpsertMealCompletion(ctx context.Context, c *domain.MealCompletion) error {
	if c.UserID.IsZero() || c.MealID.IsZero() {
		return repository.ErrInvalidRecord
	}
	filter := bson.M{"userId": c.UserID, "mealId": c.MealID, "completedAt": c.CompletedAt.UTC()}
	return upsert(ctx, r.meals, filter, bson.M{"completedAt": c.CompletedAt.UTC()})
}

func (r *mongoCompletionRepository) GetMealCompletions(ctx context.Context, userID primitive.ObjectID, from, to time.Time) ([]domain.MealCompletion, error) {
	return findAll[domain.MealCompletion](ctx, r.meals, rangeFilter(userID, "completedAt", from, to))
}

func (r *mongoCompletionRepository) UpsertWorkoutCompletion(ctx context.Context, c *domain.WorkoutCompletion) error {
	if c.UserID.IsZero() {
		return repository.ErrInvalidRecord
	}
	groups := c.CompletedGroupIDs
	if groups == nil {
		groups = []string{}
	}
	filter := bson.M{"userId": c.UserID, "completedDate": c.CompletedDate.UTC()}
	set := bson.M{
		"workoutPlanId":     c.WorkoutPlanID,
		"completedGroupIds": groups,
	}
	if !c.WorkoutDayID.IsZero() {
		set["workoutDayId"] = c.WorkoutDayID
	}
	return upsert(ctx, r.workouts, filter, set)
}

func (r *mongoCompletionRepository) GetWorkoutCompletions(ctx context.Context, userID primitive.ObjectID, from, to time.Time) ([]domain.WorkoutCompletion, error) {
	return findAll[domain.WorkoutCompletion](ctx, r.workouts, rangeFilter(userID, "completedDate", from, to))
}

func (r *mongoCompletionRepository) UpsertSupplementCompletion(ctx context.Context, c *domain.SupplementCompletion) error {
	if c.UserID.IsZero() || c.SupplementID.IsZero() {
		return repository.ErrInvalidRecord
	}
	filter := bson.M{"userId": c.UserID, "supplementId": c.SupplementID, "completedAt": c.CompletedAt.UTC()}
	return upsert(ctx, r.supplements, filter, bson.M{"completedAt": c.CompletedAt.UTC()})
}

func (r *mongoCompletionRepository) GetSupplementCompletions(ctx context.Context, userID primitive.ObjectID, from, to time.Time) ([]domain.SupplementCompletion, error) {
	return findAll[domain.SupplementCompletion](ctx, r.supplements, rangeFilter(userID, "completedAt", from, to))
}
