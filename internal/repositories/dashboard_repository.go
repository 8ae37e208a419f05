package repositories

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/videotube/backend/internal/db"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/pipeline"
)

// DashboardRepository defines the data access contract for channel analytics.
type DashboardRepository interface {
	ChannelStats(ctx context.Context, channel primitive.ObjectID) (models.ChannelStats, error)
}

// MongoDashboardRepository computes channel statistics with a single
// aggregation over the users collection, so a brand-new channel still yields
// one row of zeroes.
type MongoDashboardRepository struct {
	users *mongo.Collection
}

// NewMongoDashboardRepository constructs a dashboard repository.
func NewMongoDashboardRepository(store *db.Store) *MongoDashboardRepository {
	return &MongoDashboardRepository{users: store.Collection(db.UsersCollection)}
}

// ChannelStats returns the channel's totals across videos, subscriptions,
// tweets, comments and likes. Absent related documents fold to zero.
func (r *MongoDashboardRepository) ChannelStats(ctx context.Context, channel primitive.ObjectID) (models.ChannelStats, error) {
	idOnly := mongo.Pipeline{
		bson.D{{Key: "$project", Value: bson.D{{Key: "_id", Value: 1}}}},
	}

	pl := pipeline.New().
		Match(bson.D{{Key: "_id", Value: channel}}).
		Lookup(pipeline.Lookup{
			From:         db.VideosCollection,
			LocalField:   "_id",
			ForeignField: "owner",
			As:           "videos",
			Pipeline: mongo.Pipeline{
				bson.D{{Key: "$project", Value: bson.D{
					{Key: "_id", Value: 1},
					{Key: "views", Value: 1},
				}}},
			},
		}).
		Lookup(pipeline.Lookup{
			From:         db.SubscriptionsCollection,
			LocalField:   "_id",
			ForeignField: "channel",
			As:           "subscribers",
		}).
		Lookup(pipeline.Lookup{
			From:         db.SubscriptionsCollection,
			LocalField:   "_id",
			ForeignField: "subscriber",
			As:           "subscriptions",
		}).
		Lookup(pipeline.Lookup{
			From:         db.TweetsCollection,
			LocalField:   "_id",
			ForeignField: "owner",
			As:           "tweets",
			Pipeline:     idOnly,
		}).
		Lookup(pipeline.Lookup{
			From:         db.CommentsCollection,
			LocalField:   "videos._id",
			ForeignField: "video",
			As:           "comments",
			Pipeline:     idOnly,
		}).
		Lookup(pipeline.Lookup{
			From:         db.LikesCollection,
			LocalField:   "videos._id",
			ForeignField: "target",
			As:           "videoLikes",
			Pipeline:     kindFilter(models.LikeKindVideo),
		}).
		Lookup(pipeline.Lookup{
			From:         db.LikesCollection,
			LocalField:   "comments._id",
			ForeignField: "target",
			As:           "commentLikes",
			Pipeline:     kindFilter(models.LikeKindComment),
		}).
		Lookup(pipeline.Lookup{
			From:         db.LikesCollection,
			LocalField:   "tweets._id",
			ForeignField: "target",
			As:           "tweetLikes",
			Pipeline:     kindFilter(models.LikeKindTweet),
		}).
		Derive("totalVideos", pipeline.Size("videos")).
		Derive("totalViews", pipeline.SumOrZero("videos.views")).
		Derive("totalSubscribers", pipeline.Size("subscribers")).
		Derive("totalSubscriptions", pipeline.Size("subscriptions")).
		Derive("totalTweets", pipeline.Size("tweets")).
		Derive("totalComments", pipeline.Size("comments")).
		Derive("videoLikes", pipeline.Size("videoLikes")).
		Derive("commentLikes", pipeline.Size("commentLikes")).
		Derive("tweetLikes", pipeline.Size("tweetLikes")).
		Derive("totalLikes", bson.M{"$add": bson.A{
			pipeline.Size("videoLikes"),
			pipeline.Size("commentLikes"),
			pipeline.Size("tweetLikes"),
		}}).
		Project(bson.D{
			{Key: "_id", Value: 0},
			{Key: "totalVideos", Value: 1},
			{Key: "totalViews", Value: 1},
			{Key: "totalSubscribers", Value: 1},
			{Key: "totalSubscriptions", Value: 1},
			{Key: "totalTweets", Value: 1},
			{Key: "totalComments", Value: 1},
			{Key: "videoLikes", Value: 1},
			{Key: "commentLikes", Value: 1},
			{Key: "tweetLikes", Value: 1},
			{Key: "totalLikes", Value: 1},
		}).
		Build()

	cursor, err := r.users.Aggregate(ctx, pl)
	if err != nil {
		return models.ChannelStats{}, fmt.Errorf("aggregate channel stats: %w", err)
	}

	var stats []models.ChannelStats
	if err := cursor.All(ctx, &stats); err != nil {
		return models.ChannelStats{}, fmt.Errorf("decode channel stats: %w", err)
	}
	if len(stats) == 0 {
		return models.ChannelStats{}, ErrNotFound
	}
	return stats[0], nil
}

func kindFilter(kind models.LikeKind) mongo.Pipeline {
	return mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.D{{Key: "kind", Value: kind}}}},
		bson.D{{Key: "$project", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
}

var _ DashboardRepository = (*MongoDashboardRepository)(nil)
