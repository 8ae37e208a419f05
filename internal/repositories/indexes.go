package repositories

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/videotube/backend/internal/db"
)

// EnsureIndexes creates the indexes the service relies on. The unique indexes
// on likes and subscriptions are load-bearing: the toggle mutators depend on
// duplicate-key failures to stay race-free, not on check-then-act reads.
func EnsureIndexes(ctx context.Context, store *db.Store) error {
	specs := map[string][]mongo.IndexModel{
		db.UsersCollection: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		db.VideosCollection: {
			{Keys: bson.D{{Key: "owner", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "isPublished", Value: 1}}},
		},
		db.CommentsCollection: {
			{Keys: bson.D{{Key: "video", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		db.LikesCollection: {
			{
				Keys:    bson.D{{Key: "kind", Value: 1}, {Key: "target", Value: 1}, {Key: "likedBy", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "likedBy", Value: 1}}},
		},
		db.TweetsCollection: {
			{Keys: bson.D{{Key: "owner", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		db.PlaylistsCollection: {
			{Keys: bson.D{{Key: "owner", Value: 1}}},
		},
		db.SubscriptionsCollection: {
			{
				Keys:    bson.D{{Key: "subscriber", Value: 1}, {Key: "channel", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "channel", Value: 1}}},
		},
	}

	for collection, models := range specs {
		if _, err := store.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes for %s: %w", collection, err)
		}
	}

	return nil
}
