package repositories

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/videotube/backend/internal/db"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/pipeline"
)

// TweetRepository defines the data access contract for tweets.
type TweetRepository interface {
	Create(ctx context.Context, tweet models.Tweet) (models.Tweet, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (models.Tweet, error)
	UpdateContent(ctx context.Context, id primitive.ObjectID, content string) (models.Tweet, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	ForUser(ctx context.Context, owner, viewer primitive.ObjectID, req pipeline.PageRequest) (pipeline.Page[TweetListing], error)
}

// MongoTweetRepository provides MongoDB-backed persistence for tweets.
type MongoTweetRepository struct {
	tweets *mongo.Collection
}

// NewMongoTweetRepository constructs a tweet repository over the tweets collection.
func NewMongoTweetRepository(store *db.Store) *MongoTweetRepository {
	return &MongoTweetRepository{tweets: store.Collection(db.TweetsCollection)}
}

// Create stores a new tweet.
func (r *MongoTweetRepository) Create(ctx context.Context, tweet models.Tweet) (models.Tweet, error) {
	now := time.Now().UTC()
	tweet.CreatedAt = now
	tweet.UpdatedAt = now

	res, err := r.tweets.InsertOne(ctx, tweet)
	if err != nil {
		return models.Tweet{}, fmt.Errorf("insert tweet: %w", err)
	}
	tweet.ID = res.InsertedID.(primitive.ObjectID)
	return tweet, nil
}

// FindByID fetches a raw tweet document.
func (r *MongoTweetRepository) FindByID(ctx context.Context, id primitive.ObjectID) (models.Tweet, error) {
	var tweet models.Tweet
	if err := r.tweets.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&tweet); err != nil {
		return models.Tweet{}, translateError(err)
	}
	return tweet, nil
}

// UpdateContent replaces the tweet text.
func (r *MongoTweetRepository) UpdateContent(ctx context.Context, id primitive.ObjectID, content string) (models.Tweet, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var tweet models.Tweet
	err := r.tweets.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "content", Value: content},
			{Key: "updatedAt", Value: time.Now().UTC()},
		}}},
		opts,
	).Decode(&tweet)
	if err != nil {
		return models.Tweet{}, translateError(err)
	}
	return tweet, nil
}

// Delete removes the tweet. Its likes are cleaned up asynchronously.
func (r *MongoTweetRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.tweets.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("delete tweet: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ForUser lists a user's tweets newest first with owner profile, like count
// and the viewer's like state.
func (r *MongoTweetRepository) ForUser(ctx context.Context, owner, viewer primitive.ObjectID, req pipeline.PageRequest) (pipeline.Page[TweetListing], error) {
	pl := pipeline.New().
		Match(bson.D{{Key: "owner", Value: owner}}).
		Lookup(pipeline.Lookup{
			From:         db.UsersCollection,
			LocalField:   "owner",
			ForeignField: "_id",
			As:           "owner",
			Pipeline: mongo.Pipeline{
				bson.D{{Key: "$project", Value: ownerProjection()}},
			},
		}).
		Lookup(likesLookup(models.LikeKindTweet)).
		Derive("owner", pipeline.First("owner")).
		Derive("likesCount", pipeline.Size("likes")).
		Derive("isLiked", pipeline.MemberOf(viewer, "likes.likedBy")).
		Sort("createdAt", true).
		Project(bson.D{
			{Key: "content", Value: 1},
			{Key: "createdAt", Value: 1},
			{Key: "owner", Value: 1},
			{Key: "likesCount", Value: 1},
			{Key: "isLiked", Value: 1},
		}).
		Build()

	return pipeline.Paginate[TweetListing](ctx, r.tweets, pl, req)
}

var _ TweetRepository = (*MongoTweetRepository)(nil)
