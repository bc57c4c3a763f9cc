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
	supplementCollectionName = "supplements"
	weightCollectionName     = "weight_logs"
)

var supplementIndexes = []mongo.IndexModel{
	{
		Keys:    bson.D{{Key: "userId", Value: 1}},
		Options: options.Index(),
	},
}

var weightIndexes = []mongo.IndexModel{
	{
		Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "loggedAt", Value: 1}},
		Options: options.Index(),
	},
}

type mongoSupplementRepository struct {
	collection *mongo.Collection
}

func NewMongoSupplementRepository(db *mongo.Database) repository.SupplementRepository {
	return &mongoSupplementRepository{collection: db.Collection(supplementCollectionName)}
}

func (r *mongoSupplementRepository) Create(ctx context.Context, s *domain.Supplement) (primitive.ObjectID, error) {
	if s.UserID.IsZero() || s.Name == "" {
		return primitive.NilObjectID, errors.New("supplement user and name are required")
	}
	s.ID = primitive.NewObjectID()
	s.CreatedAt = time.Now().UTC()

	result, err := r.collection.InsertOne(ctx, s)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return insertedObjectID(result)
}

func (r *mongoSupplementRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Supplement, error) {
	return findOne[domain.Supplement](ctx, r.collection, bson.M{"_id": id})
}

func (r *mongoSupplementRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.Supplement, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	return findAll[domain.Supplement](ctx, r.collection, bson.M{"userId": userID}, opts)
}

type mongoWeightRepository struct {
	collection *mongo.Collection
}

func NewMongoWeightRepository(db *mongo.Database) repository.WeightRepository {
	return &mongoWeightRepository{collection: db.Collection(weightCollectionName)}
}

func (r *mongoWeightRepository) Create(ctx context.Context, w *domain.WeightLog) (primitive.ObjectID, error) {
	if w.UserID.IsZero() || w.WeightKg <= 0 {
		return primitive.NilObjectID, repository.ErrInvalidRecord
	}
	w.ID = primitive.NewObjectID()
	if w.LoggedAt.IsZero() {
		w.LoggedAt = time.Now()
	}
	w.LoggedAt = w.LoggedAt.UTC()

	result, err := r.collection.InsertOne(ctx, w)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return insertedObjectID(result)
}

// GetByUserID returns the logs in [from, to), oldest first.
func (r *mongoWeightRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID, from, to time.Time) ([]domain.WeightLog, error) {
	opts := options.Find().SetSort(bson.D{{Key: "loggedAt", Value: 1}})
	return findAll[domain.WeightLog](ctx, r.collection, rangeFilter(userID, "loggedAt", from, to), opts)
}
