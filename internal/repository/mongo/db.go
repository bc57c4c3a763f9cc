package mongo

import (
	"alcyxob/coach-tracker/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Default connection timeout
const defaultTimeout = 10 * time.Second

// ConnectDB establishes a connection to MongoDB using the provided URI.
func ConnectDB(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	// Connect succeeds lazily; ping so an unreachable server fails startup.
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()

	if err = client.Ping(pingCtx, readpref.Primary()); err != nil {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx)
		return nil, err
	}
	return client, nil
}

// DisconnectDB gracefully disconnects the MongoDB client.
func DisconnectDB(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes of every collection. It keeps going
// after a failure and returns the failures keyed by collection.
func EnsureIndexes(ctx context.Context, db *mongo.Database) map[string]error {
	failures := make(map[string]error)
	for name, models := range map[string][]mongo.IndexModel{
		userCollectionName:                 userIndexes,
		mealPlanCollectionName:             mealPlanIndexes,
		mealCollectionName:                 mealIndexes,
		workoutPlanCollectionName:          workoutPlanIndexes,
		workoutDayCollectionName:           workoutDayIndexes,
		mealCompletionCollectionName:       mealCompletionIndexes,
		workoutCompletionCollectionName:    workoutCompletionIndexes,
		supplementCompletionCollectionName: supplementCompletionIndexes,
		supplementCollectionName:           supplementIndexes,
		weightCollectionName:               weightIndexes,
		messageCollectionName:              messageIndexes,
		photoCollectionName:                photoIndexes,
	} {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			failures[name] = err
		}
	}
	return failures
}

// insertedObjectID unwraps the id returned by InsertOne.
func insertedObjectID(result *mongo.InsertOneResult) (primitive.ObjectID, error) {
	id, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return id, nil
}

// findAll runs a query and decodes every document into a slice, never nil.
func findAll[T any](ctx context.Context, coll *mongo.Collection, filter any, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []T{}
	if err = cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// findOne decodes a single document, mapping no-documents to ErrNotFound.
func findOne[T any](ctx context.Context, coll *mongo.Collection, filter any) (*T, error) {
	var doc T
	if err := coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}
