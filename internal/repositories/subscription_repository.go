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

// SubscriptionRepository defines the data access contract for channel
// subscriptions.
type SubscriptionRepository interface {
	// Toggle flips the subscription of subscriber to channel. The returned
	// bool is true when the call resulted in a subscription.
	Toggle(ctx context.Context, subscriber, channel primitive.ObjectID) (bool, error)
	ChannelSubscribers(ctx context.Context, channel primitive.ObjectID) ([]Subscriber, error)
	SubscribedChannels(ctx context.Context, subscriber primitive.ObjectID) ([]SubscribedChannel, error)
}

// MongoSubscriptionRepository provides MongoDB-backed persistence for
// subscriptions.
type MongoSubscriptionRepository struct {
	subscriptions *mongo.Collection
}

// NewMongoSubscriptionRepository constructs a subscription repository over the
// subscriptions collection.
func NewMongoSubscriptionRepository(store *db.Store) *MongoSubscriptionRepository {
	return &MongoSubscriptionRepository{subscriptions: store.Collection(db.SubscriptionsCollection)}
}

// Toggle deletes an existing subscription or creates one. The unique index on
// (subscriber, channel) makes the insert race safe: a concurrent duplicate
// insert surfaces as a duplicate-key error, which means the desired state
// already holds.
func (r *MongoSubscriptionRepository) Toggle(ctx context.Context, subscriber, channel primitive.ObjectID) (bool, error) {
	filter := bson.D{
		{Key: "subscriber", Value: subscriber},
		{Key: "channel", Value: channel},
	}

	res, err := r.subscriptions.DeleteOne(ctx, filter)
	if err != nil {
		return false, fmt.Errorf("delete subscription: %w", err)
	}
	if res.DeletedCount > 0 {
		return false, nil
	}

	_, err = r.subscriptions.InsertOne(ctx, models.Subscription{
		Subscriber: subscriber,
		Channel:    channel,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return true, nil
		}
		return false, fmt.Errorf("insert subscription: %w", err)
	}
	return true, nil
}

// ChannelSubscribers lists the users subscribed to channel, each annotated
// with their own subscriber count and whether the channel subscribes back.
func (r *MongoSubscriptionRepository) ChannelSubscribers(ctx context.Context, channel primitive.ObjectID) ([]Subscriber, error) {
	pl := pipeline.New().
		Match(bson.D{{Key: "channel", Value: channel}}).
		Lookup(pipeline.Lookup{
			From:         db.SubscriptionsCollection,
			LocalField:   "subscriber",
			ForeignField: "channel",
			As:           "subscribedTo",
		}).
		Lookup(pipeline.Lookup{
			From:         db.UsersCollection,
			LocalField:   "subscriber",
			ForeignField: "_id",
			As:           "subscriber",
			Pipeline: mongo.Pipeline{
				bson.D{{Key: "$project", Value: ownerProjection()}},
			},
		}).
		Derive("subscriber", pipeline.First("subscriber")).
		Derive("subscribersCount", pipeline.Size("subscribedTo")).
		Derive("subscribedToSubscriber", pipeline.MemberOf(channel, "subscribedTo.subscriber")).
		Build()

	pl = append(pl, bson.D{{Key: "$replaceRoot", Value: bson.D{
		{Key: "newRoot", Value: bson.M{"$mergeObjects": bson.A{
			"$subscriber",
			bson.M{
				"subscribersCount":       "$subscribersCount",
				"subscribedToSubscriber": "$subscribedToSubscriber",
			},
		}}},
	}}})

	cursor, err := r.subscriptions.Aggregate(ctx, pl)
	if err != nil {
		return nil, fmt.Errorf("aggregate subscribers: %w", err)
	}

	subscribers := []Subscriber{}
	if err := cursor.All(ctx, &subscribers); err != nil {
		return nil, fmt.Errorf("decode subscribers: %w", err)
	}
	return subscribers, nil
}

// latestVideoPipeline shapes each channel's most recent published video like
// a listing row: the $limit runs before the owner join so only one video's
// owner is resolved, and the projection strips the raw owner id that would
// otherwise ride along undecodeable.
func latestVideoPipeline() mongo.Pipeline {
	pl := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.D{{Key: "isPublished", Value: true}}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
		bson.D{{Key: "$limit", Value: 1}},
	}
	return append(pl, pipeline.New().
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
			{Key: "createdAt", Value: 1},
			{Key: "owner", Value: 1},
		}).
		Build()...)
}

func subscribedChannelsPipeline(subscriber primitive.ObjectID) mongo.Pipeline {
	pl := pipeline.New().
		Match(bson.D{{Key: "subscriber", Value: subscriber}}).
		Lookup(pipeline.Lookup{
			From:         db.VideosCollection,
			LocalField:   "channel",
			ForeignField: "owner",
			As:           "latestVideo",
			Pipeline:     latestVideoPipeline(),
		}).
		Lookup(pipeline.Lookup{
			From:         db.UsersCollection,
			LocalField:   "channel",
			ForeignField: "_id",
			As:           "channel",
			Pipeline: mongo.Pipeline{
				bson.D{{Key: "$project", Value: ownerProjection()}},
			},
		}).
		Derive("channel", pipeline.First("channel")).
		Derive("latestVideo", pipeline.First("latestVideo")).
		Build()

	return append(pl, bson.D{{Key: "$replaceRoot", Value: bson.D{
		{Key: "newRoot", Value: bson.M{"$mergeObjects": bson.A{
			"$channel",
			bson.M{"latestVideo": "$latestVideo"},
		}}},
	}}})
}

// SubscribedChannels lists the channels subscriber follows, each with its most
// recent published video attached when one exists.
func (r *MongoSubscriptionRepository) SubscribedChannels(ctx context.Context, subscriber primitive.ObjectID) ([]SubscribedChannel, error) {
	cursor, err := r.subscriptions.Aggregate(ctx, subscribedChannelsPipeline(subscriber))
	if err != nil {
		return nil, fmt.Errorf("aggregate subscribed channels: %w", err)
	}

	channels := []SubscribedChannel{}
	if err := cursor.All(ctx, &channels); err != nil {
		return nil, fmt.Errorf("decode subscribed channels: %w", err)
	}
	return channels, nil
}

var _ SubscriptionRepository = (*MongoSubscriptionRepository)(nil)
