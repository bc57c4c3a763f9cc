package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"alcyxob/coach-tracker/internal/repository"
)

// activatePlan switches the client's active plan in coll to planID. The
// previously active plan keeps its history through deactivatedAt.
func activatePlan(ctx context.Context, coll *mongo.Collection, planID, clientID primitive.ObjectID, at time.Time) error {
	at = at.UTC()
	deactivate := bson.M{
		"clientId": clientID,
		"isActive": true,
		"_id":      bson.M{"$ne": planID},
	}
	if _, err := coll.UpdateMany(ctx, deactivate, bson.M{
		"$set": bson.M{"isActive": false, "deactivatedAt": at, "updatedAt": at},
	}); err != nil {
		return err
	}

	target := bson.M{"_id": planID, "clientId": clientID, "isTemplate": bson.M{"$ne": true}}
	result, err := coll.UpdateOne(ctx, target, bson.M{
		"$set":   bson.M{"isActive": true, "activatedAt": at, "updatedAt": at},
		"$unset": bson.M{"deactivatedAt": ""},
	})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// clientPlansFilter lists a client's plans, templates excluded, newest first.
func clientPlansFilter(clientID primitive.ObjectID) (bson.M, *options.FindOptions) {
	filter := bson.M{"clientId": clientID, "isTemplate": bson.M{"$ne": true}}
	return filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
}

var planIndexes = []mongo.IndexModel{
	{
		// Finding the active plan of a client
		Keys:    bson.D{{Key: "clientId", Value: 1}, {Key: "isActive", Value: 1}},
		Options: options.Index(),
	},
	{
		Keys:    bson.D{{Key: "coachId", Value: 1}},
		Options: options.Index(),
	},
}
