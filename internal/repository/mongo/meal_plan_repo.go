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
	mealPlanCollectionName = "meal_plans"
	mealCollectionName     = "meals"
)

var mealPlanIndexes = planIndexes

var mealIndexes = []mongo.IndexModel{
	{
		Keys:    bson.D{{Key: "mealPlanId", Value: 1}, {Key: "sequence", Value: 1}},
		Options: options.Index(),
	},
}

type mongoMealPlanRepository struct {
	plans *mongo.Collection
	meals *mongo.Collection
}

// NewMongoMealPlanRepository creates a meal plan repository backed by the
// meal_plans and meals collections.
func NewMongoMealPlanRepository(db *mongo.Database) repository.MealPlanRepository {
	return &mongoMealPlanRepository{
		plans: db.Collection(mealPlanCollectionName),
		meals: db.Collection(mealCollectionName),
	}
}

// Create inserts the plan and then its meals. Meals get the new plan id.
func (r *mongoMealPlanRepository) Create(ctx context.Context, plan *domain.MealPlan, meals []domain.Meal) (primitive.ObjectID, error) {
	if plan.ClientID.IsZero() || plan.CoachID.IsZero() || plan.Name == "" {
		return primitive.NilObjectID, errors.New("meal plan client, coach, and name are required")
	}

	plan.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	plan.CreatedAt = now
	plan.UpdatedAt = now

	result, err := r.plans.InsertOne(ctx, plan)
	if err != nil {
		return primitive.NilObjectID, err
	}
	planID, err := insertedObjectID(result)
	if err != nil {
		return primitive.NilObjectID, err
	}
	if len(meals) == 0 {
		return planID, nil
	}

	docs := make([]interface{}, len(meals))
	for i := range meals {
		meals[i].ID = primitive.NewObjectID()
		meals[i].MealPlanID = planID
		meals[i].CreatedAt = now
		docs[i] = meals[i]
	}
	if _, err := r.meals.InsertMany(ctx, docs); err != nil {
		return planID, err
	}
	return planID, nil
}

func (r *mongoMealPlanRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.MealPlan, error) {
	return findOne[domain.MealPlan](ctx, r.plans, bson.M{"_id": id})
}

func (r *mongoMealPlanRepository) GetByClientID(ctx context.Context, clientID primitive.ObjectID) ([]domain.MealPlan, error) {
	filter, opts := clientPlansFilter(clientID)
	return findAll[domain.MealPlan](ctx, r.plans, filter, opts)
}

func (r *mongoMealPlanRepository) GetMeals(ctx context.Context, planID primitive.ObjectID) ([]domain.Meal, error) {
	opts := options.Find().SetSort(bson.D{{Key: "sequence", Value: 1}})
	return findAll[domain.Meal](ctx, r.meals, bson.M{"mealPlanId": planID}, opts)
}

func (r *mongoMealPlanRepository) GetMealByID(ctx context.Context, id primitive.ObjectID) (*domain.Meal, error) {
	return findOne[domain.Meal](ctx, r.meals, bson.M{"_id": id})
}

func (r *mongoMealPlanRepository) Activate(ctx context.Context, planID, clientID primitive.ObjectID, at time.Time) error {
	return activatePlan(ctx, r.plans, planID, clientID, at)
}
