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

// PlaylistRepository defines the data access contract for playlists.
type PlaylistRepository interface {
	Create(ctx context.Context, playlist models.Playlist) (models.Playlist, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (models.Playlist, error)
	Update(ctx context.Context, id primitive.ObjectID, name, description string) (models.Playlist, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	AddVideo(ctx context.Context, id, videoID primitive.ObjectID) error
	RemoveVideo(ctx context.Context, id, videoID primitive.ObjectID) error
	Detail(ctx context.Context, id primitive.ObjectID) (PlaylistDetail, error)
	ForUser(ctx context.Context, owner primitive.ObjectID) ([]PlaylistDetail, error)
}

// MongoPlaylistRepository provides MongoDB-backed persistence for playlists.
type MongoPlaylistRepository struct {
	playlists *mongo.Collection
}

// NewMongoPlaylistRepository constructs a playlist repository over the playlists collection.
func NewMongoPlaylistRepository(store *db.Store) *MongoPlaylistRepository {
	return &MongoPlaylistRepository{playlists: store.Collection(db.PlaylistsCollection)}
}

// Create stores a new playlist.
func (r *MongoPlaylistRepository) Create(ctx context.Context, playlist models.Playlist) (models.Playlist, error) {
	now := time.Now().UTC()
	playlist.CreatedAt = now
	playlist.UpdatedAt = now
	if playlist.Videos == nil {
		playlist.Videos = []primitive.ObjectID{}
	}

	res, err := r.playlists.InsertOne(ctx, playlist)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("insert playlist: %w", err)
	}
	playlist.ID = res.InsertedID.(primitive.ObjectID)
	return playlist, nil
}

// FindByID fetches a raw playlist document.
func (r *MongoPlaylistRepository) FindByID(ctx context.Context, id primitive.ObjectID) (models.Playlist, error) {
	var playlist models.Playlist
	if err := r.playlists.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&playlist); err != nil {
		return models.Playlist{}, translateError(err)
	}
	return playlist, nil
}

// Update modifies the playlist name and/or description.
func (r *MongoPlaylistRepository) Update(ctx context.Context, id primitive.ObjectID, name, description string) (models.Playlist, error) {
	set := bson.D{{Key: "updatedAt", Value: time.Now().UTC()}}
	if name != "" {
		set = append(set, bson.E{Key: "name", Value: name})
	}
	if description != "" {
		set = append(set, bson.E{Key: "description", Value: description})
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var playlist models.Playlist
	err := r.playlists.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: id}}, bson.D{{Key: "$set", Value: set}}, opts).Decode(&playlist)
	if err != nil {
		return models.Playlist{}, translateError(err)
	}
	return playlist, nil
}

// Delete removes the playlist.
func (r *MongoPlaylistRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.playlists.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("delete playlist: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AddVideo appends videoID to the playlist. The filter excludes playlists
// already containing the video, so a duplicate add reports ErrConflict
// without a separate read.
func (r *MongoPlaylistRepository) AddVideo(ctx context.Context, id, videoID primitive.ObjectID) error {
	res, err := r.playlists.UpdateOne(ctx,
		bson.D{
			{Key: "_id", Value: id},
			{Key: "videos", Value: bson.D{{Key: "$ne", Value: videoID}}},
		},
		bson.D{
			{Key: "$push", Value: bson.D{{Key: "videos", Value: videoID}}},
			{Key: "$set", Value: bson.D{{Key: "updatedAt", Value: time.Now().UTC()}}},
		},
	)
	if err != nil {
		return fmt.Errorf("add video to playlist: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrConflict
	}
	return nil
}

// RemoveVideo pulls videoID from the playlist; ErrNotFound when the video is
// not in it.
func (r *MongoPlaylistRepository) RemoveVideo(ctx context.Context, id, videoID primitive.ObjectID) error {
	res, err := r.playlists.UpdateOne(ctx,
		bson.D{
			{Key: "_id", Value: id},
			{Key: "videos", Value: videoID},
		},
		bson.D{
			{Key: "$pull", Value: bson.D{{Key: "videos", Value: videoID}}},
			{Key: "$set", Value: bson.D{{Key: "updatedAt", Value: time.Now().UTC()}}},
		},
	)
	if err != nil {
		return fmt.Errorf("remove video from playlist: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Detail resolves one playlist with its videos, their owners, and the
// playlist owner's profile.
func (r *MongoPlaylistRepository) Detail(ctx context.Context, id primitive.ObjectID) (PlaylistDetail, error) {
	details, err := r.aggregate(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return PlaylistDetail{}, err
	}
	if len(details) == 0 {
		return PlaylistDetail{}, ErrNotFound
	}
	return details[0], nil
}

// ForUser lists all playlists owned by owner with their videos attached.
func (r *MongoPlaylistRepository) ForUser(ctx context.Context, owner primitive.ObjectID) ([]PlaylistDetail, error) {
	return r.aggregate(ctx, bson.D{{Key: "owner", Value: owner}})
}

func (r *MongoPlaylistRepository) aggregate(ctx context.Context, filter bson.D) ([]PlaylistDetail, error) {
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
			{Key: "videoFile", Value: 1},
			{Key: "duration", Value: 1},
			{Key: "views", Value: 1},
			{Key: "owner", Value: 1},
		}).
		Build()

	// The join lands in videoDocs so the stored videos array keeps the
	// playlist's insertion order for the reordering step.
	pl := pipeline.New().
		Match(filter).
		Lookup(pipeline.Lookup{
			From:         db.VideosCollection,
			LocalField:   "videos",
			ForeignField: "_id",
			As:           "videoDocs",
			Pipeline:     videoPipeline,
		}).
		Lookup(pipeline.Lookup{
			From:         db.UsersCollection,
			LocalField:   "owner",
			ForeignField: "_id",
			As:           "owner",
			Pipeline: mongo.Pipeline{
				bson.D{{Key: "$project", Value: ownerProjection()}},
			},
		}).
		Derive("totalVideos", pipeline.Size("videoDocs")).
		Derive("videos", pipeline.ReorderByIDs("videoDocs", "videos")).
		Derive("owner", pipeline.First("owner")).
		Sort("createdAt", true).
		Project(bson.D{
			{Key: "name", Value: 1},
			{Key: "description", Value: 1},
			{Key: "createdAt", Value: 1},
			{Key: "updatedAt", Value: 1},
			{Key: "videos", Value: 1},
			{Key: "totalVideos", Value: 1},
			{Key: "owner", Value: 1},
		}).
		Build()

	cursor, err := r.playlists.Aggregate(ctx, pl)
	if err != nil {
		return nil, fmt.Errorf("aggregate playlists: %w", err)
	}

	var details []PlaylistDetail
	if err := cursor.All(ctx, &details); err != nil {
		return nil, fmt.Errorf("decode playlists: %w", err)
	}
	return details, nil
}

var _ PlaylistRepository = (*MongoPlaylistRepository)(nil)
