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

// UserRepository defines the data access contract for user accounts.
type UserRepository interface {
	Create(ctx context.Context, user models.User) (models.User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
	FindByLogin(ctx context.Context, identifier string) (models.User, error)
	UpdateAccount(ctx context.Context, id primitive.ObjectID, fullName, email string) (models.User, error)
	UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error
	SetRefreshToken(ctx context.Context, id primitive.ObjectID, token string) error
	UpdateAvatar(ctx context.Context, id primitive.ObjectID, asset models.MediaAsset) (models.User, error)
	UpdateCoverImage(ctx context.Context, id primitive.ObjectID, asset models.MediaAsset) (models.User, error)
	ChannelProfile(ctx context.Context, username string, viewer primitive.ObjectID) (ChannelProfile, error)
	WatchHistory(ctx context.Context, id primitive.ObjectID) ([]WatchHistoryEntry, error)
	RecordView(ctx context.Context, id, videoID primitive.ObjectID) (bool, error)
}

// MongoUserRepository provides MongoDB-backed persistence for users.
type MongoUserRepository struct {
	users *mongo.Collection
}

// NewMongoUserRepository constructs a user repository over the users collection.
func NewMongoUserRepository(store *db.Store) *MongoUserRepository {
	return &MongoUserRepository{users: store.Collection(db.UsersCollection)}
}

// Create persists a new user. The unique indexes on username and email turn
// duplicate registrations into ErrConflict.
func (r *MongoUserRepository) Create(ctx context.Context, user models.User) (models.User, error) {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.WatchHistory == nil {
		user.WatchHistory = []primitive.ObjectID{}
	}

	res, err := r.users.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.User{}, ErrConflict
		}
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}

	user.ID = res.InsertedID.(primitive.ObjectID)
	return user, nil
}

// FindByID fetches a user by identifier.
func (r *MongoUserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	var user models.User
	err := r.users.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&user)
	if err != nil {
		return models.User{}, translateError(err)
	}
	return user, nil
}

// FindByLogin fetches a user by email or username; identifier is expected to
// be lowercased by the caller.
func (r *MongoUserRepository) FindByLogin(ctx context.Context, identifier string) (models.User, error) {
	filter := bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "email", Value: identifier}},
		bson.D{{Key: "username", Value: identifier}},
	}}}

	var user models.User
	if err := r.users.FindOne(ctx, filter).Decode(&user); err != nil {
		return models.User{}, translateError(err)
	}
	return user, nil
}

// UpdateAccount modifies the mutable profile fields and returns the updated user.
func (r *MongoUserRepository) UpdateAccount(ctx context.Context, id primitive.ObjectID, fullName, email string) (models.User, error) {
	set := bson.D{{Key: "updatedAt", Value: time.Now().UTC()}}
	if fullName != "" {
		set = append(set, bson.E{Key: "fullName", Value: fullName})
	}
	if email != "" {
		set = append(set, bson.E{Key: "email", Value: email})
	}
	return r.findOneAndUpdate(ctx, id, bson.D{{Key: "$set", Value: set}})
}

// UpdatePassword replaces the stored credential hash.
func (r *MongoUserRepository) UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error {
	res, err := r.users.UpdateByID(ctx, id, bson.D{{Key: "$set", Value: bson.D{
		{Key: "passwordHash", Value: passwordHash},
		{Key: "updatedAt", Value: time.Now().UTC()},
	}}})
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetRefreshToken stores the current session refresh token; an empty token
// clears it (logout).
func (r *MongoUserRepository) SetRefreshToken(ctx context.Context, id primitive.ObjectID, token string) error {
	var update bson.D
	if token == "" {
		update = bson.D{{Key: "$unset", Value: bson.D{{Key: "refreshToken", Value: 1}}}}
	} else {
		update = bson.D{{Key: "$set", Value: bson.D{{Key: "refreshToken", Value: token}}}}
	}

	res, err := r.users.UpdateByID(ctx, id, update)
	if err != nil {
		return fmt.Errorf("set refresh token: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateAvatar swaps the avatar reference.
func (r *MongoUserRepository) UpdateAvatar(ctx context.Context, id primitive.ObjectID, asset models.MediaAsset) (models.User, error) {
	return r.findOneAndUpdate(ctx, id, bson.D{{Key: "$set", Value: bson.D{
		{Key: "avatar", Value: asset},
		{Key: "updatedAt", Value: time.Now().UTC()},
	}}})
}

// UpdateCoverImage swaps the cover image reference.
func (r *MongoUserRepository) UpdateCoverImage(ctx context.Context, id primitive.ObjectID, asset models.MediaAsset) (models.User, error) {
	return r.findOneAndUpdate(ctx, id, bson.D{{Key: "$set", Value: bson.D{
		{Key: "coverImage", Value: asset},
		{Key: "updatedAt", Value: time.Now().UTC()},
	}}})
}

func (r *MongoUserRepository) findOneAndUpdate(ctx context.Context, id primitive.ObjectID, update bson.D) (models.User, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user models.User
	err := r.users.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: id}}, update, opts).Decode(&user)
	if err != nil {
		return models.User{}, translateError(err)
	}
	return user, nil
}

// ChannelProfile resolves the public channel page for username as seen by
// viewer: subscriber counts both directions plus whether the viewer is among
// the channel's subscribers.
func (r *MongoUserRepository) ChannelProfile(ctx context.Context, username string, viewer primitive.ObjectID) (ChannelProfile, error) {
	pl := pipeline.New().
		Match(bson.D{{Key: "username", Value: username}}).
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
			As:           "subscribedTo",
		}).
		Derive("subscribersCount", pipeline.Size("subscribers")).
		Derive("channelsSubscribedToCount", pipeline.Size("subscribedTo")).
		Derive("isSubscribed", pipeline.MemberOf(viewer, "subscribers.subscriber")).
		Project(bson.D{
			{Key: "username", Value: 1},
			{Key: "fullName", Value: 1},
			{Key: "avatar", Value: 1},
			{Key: "coverImage", Value: 1},
			{Key: "subscribersCount", Value: 1},
			{Key: "channelsSubscribedToCount", Value: 1},
			{Key: "isSubscribed", Value: 1},
		}).
		Build()

	cursor, err := r.users.Aggregate(ctx, pl)
	if err != nil {
		return ChannelProfile{}, fmt.Errorf("aggregate channel profile: %w", err)
	}

	var profiles []ChannelProfile
	if err := cursor.All(ctx, &profiles); err != nil {
		return ChannelProfile{}, fmt.Errorf("decode channel profile: %w", err)
	}
	if len(profiles) == 0 {
		return ChannelProfile{}, ErrNotFound
	}
	return profiles[0], nil
}

// WatchHistory returns the viewer's watched videos enriched with owner profiles.
func (r *MongoUserRepository) WatchHistory(ctx context.Context, id primitive.ObjectID) ([]WatchHistoryEntry, error) {
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
			{Key: "thumbnail", Value: 1},
			{Key: "duration", Value: 1},
			{Key: "views", Value: 1},
			{Key: "owner", Value: 1},
		}).
		Build()

	// The join lands in a separate field so the stored id array survives to
	// drive the reordering: lookup output order is not the array's order.
	pl := pipeline.New().
		Match(bson.D{{Key: "_id", Value: id}}).
		Lookup(pipeline.Lookup{
			From:         db.VideosCollection,
			LocalField:   "watchHistory",
			ForeignField: "_id",
			As:           "watchedVideos",
			Pipeline:     videoPipeline,
		}).
		Derive("watchHistory", pipeline.ReorderByIDs("watchedVideos", "watchHistory")).
		Project(bson.D{{Key: "watchHistory", Value: 1}}).
		Build()

	cursor, err := r.users.Aggregate(ctx, pl)
	if err != nil {
		return nil, fmt.Errorf("aggregate watch history: %w", err)
	}

	var rows []struct {
		WatchHistory []WatchHistoryEntry `bson:"watchHistory"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode watch history: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0].WatchHistory, nil
}

// RecordView appends videoID to the user's watch history and reports whether
// this was the first time the user watched it. The filter-and-push update is
// atomic so concurrent requests cannot record the same first view twice.
func (r *MongoUserRepository) RecordView(ctx context.Context, id, videoID primitive.ObjectID) (bool, error) {
	res, err := r.users.UpdateOne(ctx,
		bson.D{
			{Key: "_id", Value: id},
			{Key: "watchHistory", Value: bson.D{{Key: "$ne", Value: videoID}}},
		},
		bson.D{{Key: "$push", Value: bson.D{{Key: "watchHistory", Value: videoID}}}},
	)
	if err != nil {
		return false, fmt.Errorf("record view: %w", err)
	}
	return res.ModifiedCount > 0, nil
}

var _ UserRepository = (*MongoUserRepository)(nil)
