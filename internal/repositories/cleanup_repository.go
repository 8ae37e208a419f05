package repositories

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/videotube/backend/internal/db"
	"github.com/videotube/backend/internal/models"
)

// CleanupRepository removes documents left dangling after an entity is
// deleted. Its methods are idempotent so a retried job does no harm.
type CleanupRepository interface {
	// DeleteVideoComments removes every comment on the video and returns the
	// ids of the removed comments so their likes can be purged too.
	DeleteVideoComments(ctx context.Context, videoID primitive.ObjectID) ([]primitive.ObjectID, error)
	DeleteLikes(ctx context.Context, kind models.LikeKind, targets []primitive.ObjectID) (int64, error)
	// DetachVideo pulls the video out of every watch history and playlist.
	DetachVideo(ctx context.Context, videoID primitive.ObjectID) error
}

// MongoCleanupRepository implements cascade deletion over the related
// collections.
type MongoCleanupRepository struct {
	comments  *mongo.Collection
	likes     *mongo.Collection
	users     *mongo.Collection
	playlists *mongo.Collection
}

// NewMongoCleanupRepository constructs a cleanup repository.
func NewMongoCleanupRepository(store *db.Store) *MongoCleanupRepository {
	return &MongoCleanupRepository{
		comments:  store.Collection(db.CommentsCollection),
		likes:     store.Collection(db.LikesCollection),
		users:     store.Collection(db.UsersCollection),
		playlists: store.Collection(db.PlaylistsCollection),
	}
}

func (r *MongoCleanupRepository) DeleteVideoComments(ctx context.Context, videoID primitive.ObjectID) ([]primitive.ObjectID, error) {
	filter := bson.D{{Key: "video", Value: videoID}}

	opts := options.Find().SetProjection(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.comments.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find video comments: %w", err)
	}

	var rows []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode video comments: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	ids := make([]primitive.ObjectID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}

	if _, err := r.comments.DeleteMany(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}}); err != nil {
		return nil, fmt.Errorf("delete video comments: %w", err)
	}
	return ids, nil
}

func (r *MongoCleanupRepository) DeleteLikes(ctx context.Context, kind models.LikeKind, targets []primitive.ObjectID) (int64, error) {
	if len(targets) == 0 {
		return 0, nil
	}
	res, err := r.likes.DeleteMany(ctx, bson.D{
		{Key: "kind", Value: kind},
		{Key: "target", Value: bson.D{{Key: "$in", Value: targets}}},
	})
	if err != nil {
		return 0, fmt.Errorf("delete likes: %w", err)
	}
	return res.DeletedCount, nil
}

func (r *MongoCleanupRepository) DetachVideo(ctx context.Context, videoID primitive.ObjectID) error {
	_, err := r.users.UpdateMany(ctx,
		bson.D{{Key: "watchHistory", Value: videoID}},
		bson.D{{Key: "$pull", Value: bson.D{{Key: "watchHistory", Value: videoID}}}},
	)
	if err != nil {
		return fmt.Errorf("pull video from watch histories: %w", err)
	}

	_, err = r.playlists.UpdateMany(ctx,
		bson.D{{Key: "videos", Value: videoID}},
		bson.D{{Key: "$pull", Value: bson.D{{Key: "videos", Value: videoID}}}},
	)
	if err != nil {
		return fmt.Errorf("pull video from playlists: %w", err)
	}
	return nil
}

var _ CleanupRepository = (*MongoCleanupRepository)(nil)
