package repositories

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/videotube/backend/internal/db"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/pipeline"
)

// LikeRepository defines the data access contract for the presence-based
// like relation.
type LikeRepository interface {
	Toggle(ctx context.Context, kind models.LikeKind, target, likedBy primitive.ObjectID) (bool, error)
	LikedVideos(ctx context.Context, likedBy primitive.ObjectID) ([]LikedVideo, error)
}

// MongoLikeRepository provides MongoDB-backed persistence for likes.
type MongoLikeRepository struct {
	likes *mongo.Collection
}

// NewMongoLikeRepository constructs a like repository over the likes collection.
func NewMongoLikeRepository(store *db.Store) *MongoLikeRepository {
	return &MongoLikeRepository{likes: store.Collection(db.LikesCollection)}
}

// Toggle flips the like state for (kind, target, likedBy) and reports the
// resulting state: true when the like now exists, false when it was removed.
// Deleting first makes the common un-toggle path one round trip; the insert
// path relies on the unique index, so two concurrent toggle-on requests
// cannot produce duplicate rows. The loser's duplicate-key failure is the
// benign "already liked" outcome.
func (r *MongoLikeRepository) Toggle(ctx context.Context, kind models.LikeKind, target, likedBy primitive.ObjectID) (bool, error) {
	key := bson.D{
		{Key: "kind", Value: kind},
		{Key: "target", Value: target},
		{Key: "likedBy", Value: likedBy},
	}

	res, err := r.likes.DeleteOne(ctx, key)
	if err != nil {
		return false, fmt.Errorf("delete like: %w", err)
	}
	if res.DeletedCount > 0 {
		return false, nil
	}

	_, err = r.likes.InsertOne(ctx, models.Like{
		Kind:      kind,
		Target:    target,
		LikedBy:   likedBy,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return false, fmt.Errorf("insert like: %w", err)
	}
	return true, nil
}

// LikedVideos lists the videos the user has liked, enriched with owner
// profiles. Likes whose video has since been deleted are dropped.
func (r *MongoLikeRepository) LikedVideos(ctx context.Context, likedBy primitive.ObjectID) ([]LikedVideo, error) {
	videoPipeline := pipeline.New().
		Lookup(pipeline.Lookup{
			From:         db.UsersCollection,
			LocalField:   "owner",
			ForeignField: "_id",
			As:           "owner",
			Pipeline: mongo.Pipeline{
				bson.D{{Key: "$project", Value: ownerProjection()}},
			},
		}).
		Derive("owner", pipeline.First("owner")).
		Project(bson.D{
			{Key: "title", Value: 1},
			{Key: "description", Value: 1},
			{Key: "thumbnail", Value: 1},
			{Key: "duration", Value: 1},
			{Key: "views", Value: 1},
			{Key: "owner", Value: 1},
		}).
		Build()

	pl := pipeline.New().
		Match(bson.D{
			{Key: "likedBy", Value: likedBy},
			{Key: "kind", Value: models.LikeKindVideo},
		}).
		Lookup(pipeline.Lookup{
			From:         db.VideosCollection,
			LocalField:   "target",
			ForeignField: "_id",
			As:           "video",
			Pipeline:     videoPipeline,
		}).
		Sort("createdAt", true).
		Build()

	// Unwinding drops likes pointing at deleted videos, then each like row
	// is replaced by the video it references.
	pl = append(pl,
		bson.D{{Key: "$unwind", Value: "$video"}},
		bson.D{{Key: "$replaceRoot", Value: bson.D{{Key: "newRoot", Value: "$video"}}}},
	)

	cursor, err := r.likes.Aggregate(ctx, pl)
	if err != nil {
		return nil, fmt.Errorf("aggregate liked videos: %w", err)
	}

	var videos []LikedVideo
	if err := cursor.All(ctx, &videos); err != nil {
		return nil, fmt.Errorf("decode liked videos: %w", err)
	}
	return videos, nil
}

var _ LikeRepository = (*MongoLikeRepository)(nil)
