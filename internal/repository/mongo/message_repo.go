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

const messageCollectionName = "messages"

var messageIndexes = []mongo.IndexModel{
	{
		Keys:    bson.D{{Key: "coachId", Value: 1}, {Key: "clientId", Value: 1}, {Key: "createdAt", Value: -1}},
		Options: options.Index(),
	},
}

type mongoMessageRepository struct {
	collection *mongo.Collection
}

func NewMongoMessageRepository(db *mongo.Database) repository.MessageRepository {
	return &mongoMessageRepository{collection: db.Collection(messageCollectionName)}
}

func (r *mongoMessageRepository) Create(ctx context.Context, m *domain.Message) (primitive.ObjectID, error) {
	if m.CoachID.IsZero() || m.ClientID.IsZero() || m.SenderID.IsZero() || m.Body == "" {
		return primitive.NilObjectID, repository.ErrInvalidRecord
	}
	m.ID = primitive.NewObjectID()
	m.CreatedAt = time.Now().UTC()

	result, err := r.collection.InsertOne(ctx, m)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return insertedObjectID(result)
}

// GetThread fetches the newest `limit` messages and returns them oldest first.
func (r *mongoMessageRepository) GetThread(ctx context.Context, coachID, clientID primitive.ObjectID, limit int64) ([]domain.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	msgs, err := findAll[domain.Message](ctx, r.collection, bson.M{"coachId": coachID, "clientId": clientID}, opts)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// MarkRead stamps every unread message the reader received in the thread.
func (r *mongoMessageRepository) MarkRead(ctx context.Context, coachID, clientID, readerID primitive.ObjectID, at time.Time) error {
	filter := bson.M{
		"coachId":  coachID,
		"clientId": clientID,
		"senderId": bson.M{"$ne": readerID},
		"readAt":   bson.M{"$exists": false},
	}
	_, err := r.collection.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"readAt": at.UTC()}})
	return err
}
