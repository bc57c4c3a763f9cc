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

const photoCollectionName = "progress_photos"

var photoIndexes = []mongo.IndexModel{
	{
		Keys:    bson.D{{Key: "clientId", Value: 1}, {Key: "uploadedAt", Value: -1}},
		Options: options.Index(),
	},
	{
		Keys:    bson.D{{Key: "s3ObjectKey", Value: 1}},
		Options: options.Index().SetUnique(true),
	},
}

// mongoPhotoRepository implements repository.PhotoRepository using MongoDB.
type mongoPhotoRepository struct {
	collection *mongo.Collection
}

// NewMongoPhotoRepository creates a new repository for progress photo metadata.
func NewMongoPhotoRepository(db *mongo.Database) repository.PhotoRepository {
	return &mongoPhotoRepository{collection: db.Collection(photoCollectionName)}
}

// Create inserts metadata for a photo whose upload to S3 has been confirmed.
func (r *mongoPhotoRepository) Create(ctx context.Context, photo *domain.ProgressPhoto) (primitive.ObjectID, error) {
	if photo.ClientID.IsZero() || photo.S3ObjectKey == "" || photo.ContentType == "" {
		return primitive.NilObjectID, errors.New("photo client, object key, and content type are required")
	}
	photo.ID = primitive.NewObjectID()
	photo.UploadedAt = time.Now().UTC()

	result, err := r.collection.InsertOne(ctx, photo)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}
	return insertedObjectID(result)
}

// GetByClientID lists a client's photos, newest first.
func (r *mongoPhotoRepository) GetByClientID(ctx context.Context, clientID primitive.ObjectID) ([]domain.ProgressPhoto, error) {
	opts := options.Find().SetSort(bson.D{{Key: "uploadedAt", Value: -1}})
	return findAll[domain.ProgressPhoto](ctx, r.collection, bson.M{"clientId": clientID}, opts)
}
