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

// videoSortKeys is the allow-list for feed sorting; anything else falls back
// to creation time.
var videoSortKeys = []string{"createdAt", "views", "duration", "title"}

// VideoQuery captures the filters of a video feed request.
type VideoQuery struct {
	// Search is a free-text term matched against title and description as a
	// literal substring.
	Search string
	// Owner restricts the feed to one uploader when non-zero.
	Owner primitive.ObjectID
	// Viewer is the authenticated principal issuing the query.
	Viewer   primitive.ObjectID
	SortBy   string
	SortType string
}

// VideoRepository defines the data access contract for videos.
type VideoRepository interface {
	Create(ctx context.Context, video models.Video) (models.Video, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (models.Video, error)
	Search(ctx context.Context, q VideoQuery, req pipeline.PageRequest) (pipeline.Page[VideoListing], error)
	Detail(ctx context.Context, id, viewer primitive.ObjectID) (VideoDetail, error)
	IncrementViews(ctx context.Context, id primitive.ObjectID) error
	UpdateDetails(ctx context.Context, id primitive.ObjectID, title, description string, thumbnail *models.MediaAsset) (models.Video, error)
	SetPublished(ctx context.Context, id primitive.ObjectID, published bool) (models.Video, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	ChannelVideos(ctx context.Context, owner primitive.ObjectID, req pipeline.PageRequest) (pipeline.Page[ChannelVideo], error)
}

// MongoVideoRepository provides MongoDB-backed persistence for videos.
type MongoVideoRepository struct {
	videos *mongo.Collection
}

// NewMongoVideoRepository constructs a video repository over the videos collection.
func NewMongoVideoRepository(store *db.Store) *MongoVideoRepository {
	return &MongoVideoRepository{videos: store.Collection(db.VideosCollection)}
}

// Create stores a new video document.
func (r *MongoVideoRepository) Create(ctx context.Context, video models.Video) (models.Video, error) {
	now := time.Now().UTC()
	video.CreatedAt = now
	video.UpdatedAt = now

	res, err := r.videos.InsertOne(ctx, video)
	if err != nil {
		return models.Video{}, fmt.Errorf("insert video: %w", err)
	}
	video.ID = res.InsertedID.(primitive.ObjectID)
	return video, nil
}

// FindByID fetches a raw video document.
func (r *MongoVideoRepository) FindByID(ctx context.Context, id primitive.ObjectID) (models.Video, error) {
	var video models.Video
	if err := r.videos.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&video); err != nil {
		return models.Video{}, translateError(err)
	}
	return video, nil
}

// Search runs the paginated feed query: filter, owner/likes joins, derived
// counts, allow-listed sort and projection, in that order.
func (r *MongoVideoRepository) Search(ctx context.Context, q VideoQuery, req pipeline.PageRequest) (pipeline.Page[VideoListing], error) {
	filter := bson.D{}
	if q.Search != "" {
		filter = append(filter, bson.E{Key: "$or", Value: bson.A{
			bson.D{{Key: "title", Value: pipeline.SearchRegex(q.Search)}},
			bson.D{{Key: "description", Value: pipeline.SearchRegex(q.Search)}},
		}})
	}
	if !q.Owner.IsZero() {
		filter = append(filter, bson.E{Key: "owner", Value: q.Owner})
	}
	// Unpublished videos are visible only when the owner scopes the feed to
	// their own uploads.
	if q.Owner.IsZero() || q.Owner != q.Viewer {
		filter = append(filter, bson.E{Key: "isPublished", Value: true})
	}

	sortKey := pipeline.SortKey(q.SortBy, "createdAt", videoSortKeys...)

	pl := pipeline.New().
		Match(filter).
		Lookup(pipeline.Lookup{
			From:         db.UsersCollection,
			LocalField:   "owner",
			ForeignField: "_id",
			As:           "owner",
			Pipeline: mongo.Pipeline{
				bson.D{{Key: "$project", Value: ownerProjection()}},
			},
		}).
		Lookup(likesLookup(models.LikeKindVideo)).
		Derive("owner", pipeline.First("owner")).
		Derive("likesCount", pipeline.Size("likes")).
		Sort(sortKey, pipeline.SortDescending(q.SortType)).
		Project(bson.D{
			{Key: "title", Value: 1},
			{Key: "description", Value: 1},
			{Key: "thumbnail", Value: 1},
			{Key: "duration", Value: 1},
			{Key: "views", Value: 1},
			{Key: "createdAt", Value: 1},
			{Key: "owner", Value: 1},
			{Key: "likesCount", Value: 1},
		}).
		Build()

	return pipeline.Paginate[VideoListing](ctx, r.videos, pl, req)
}

// Detail resolves one video enriched with its owner, like state and the
// owner's subscriber counts as seen by viewer.
func (r *MongoVideoRepository) Detail(ctx context.Context, id, viewer primitive.ObjectID) (VideoDetail, error) {
	pl := pipeline.New().
		Match(bson.D{{Key: "_id", Value: id}}).
		Lookup(likesLookup(models.LikeKindVideo)).
		Lookup(pipeline.Lookup{
			From:         db.SubscriptionsCollection,
			LocalField:   "owner",
			ForeignField: "channel",
			As:           "subscribers",
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
		Derive("owner", pipeline.First("owner")).
		Derive("likesCount", pipeline.Size("likes")).
		Derive("isLiked", pipeline.MemberOf(viewer, "likes.likedBy")).
		Derive("subscribersCount", pipeline.Size("subscribers")).
		Derive("isSubscribed", pipeline.MemberOf(viewer, "subscribers.subscriber")).
		Project(bson.D{
			{Key: "title", Value: 1},
			{Key: "description", Value: 1},
			{Key: "videoFile", Value: 1},
			{Key: "thumbnail", Value: 1},
			{Key: "duration", Value: 1},
			{Key: "views", Value: 1},
			{Key: "isPublished", Value: 1},
			{Key: "createdAt", Value: 1},
			{Key: "owner", Value: 1},
			{Key: "likesCount", Value: 1},
			{Key: "isLiked", Value: 1},
			{Key: "subscribersCount", Value: 1},
			{Key: "isSubscribed", Value: 1},
		}).
		Build()

	cursor, err := r.videos.Aggregate(ctx, pl)
	if err != nil {
		return VideoDetail{}, fmt.Errorf("aggregate video detail: %w", err)
	}

	var details []VideoDetail
	if err := cursor.All(ctx, &details); err != nil {
		return VideoDetail{}, fmt.Errorf("decode video detail: %w", err)
	}
	if len(details) == 0 {
		return VideoDetail{}, ErrNotFound
	}
	return details[0], nil
}

// IncrementViews bumps the view counter by one.
func (r *MongoVideoRepository) IncrementViews(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.videos.UpdateByID(ctx, id, bson.D{{Key: "$inc", Value: bson.D{{Key: "views", Value: 1}}}})
	if err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateDetails modifies title, description and/or the thumbnail reference.
func (r *MongoVideoRepository) UpdateDetails(ctx context.Context, id primitive.ObjectID, title, description string, thumbnail *models.MediaAsset) (models.Video, error) {
	set := bson.D{{Key: "updatedAt", Value: time.Now().UTC()}}
	if title != "" {
		set = append(set, bson.E{Key: "title", Value: title})
	}
	if description != "" {
		set = append(set, bson.E{Key: "description", Value: description})
	}
	if thumbnail != nil {
		set = append(set, bson.E{Key: "thumbnail", Value: *thumbnail})
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var video models.Video
	err := r.videos.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: id}}, bson.D{{Key: "$set", Value: set}}, opts).Decode(&video)
	if err != nil {
		return models.Video{}, translateError(err)
	}
	return video, nil
}

// SetPublished flips the publish flag.
func (r *MongoVideoRepository) SetPublished(ctx context.Context, id primitive.ObjectID, published bool) (models.Video, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var video models.Video
	err := r.videos.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "isPublished", Value: published},
			{Key: "updatedAt", Value: time.Now().UTC()},
		}}},
		opts,
	).Decode(&video)
	if err != nil {
		return models.Video{}, translateError(err)
	}
	return video, nil
}

// Delete removes the video document. Dependent likes, comments, playlist and
// watch-history references are cleaned up asynchronously by the cleanup worker.
func (r *MongoVideoRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.videos.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ChannelVideos lists a channel's own uploads, unpublished included, with
// like and comment counts.
func (r *MongoVideoRepository) ChannelVideos(ctx context.Context, owner primitive.ObjectID, req pipeline.PageRequest) (pipeline.Page[ChannelVideo], error) {
	pl := pipeline.New().
		Match(bson.D{{Key: "owner", Value: owner}}).
		Lookup(likesLookup(models.LikeKindVideo)).
		Lookup(pipeline.Lookup{
			From:         db.CommentsCollection,
			LocalField:   "_id",
			ForeignField: "video",
			As:           "comments",
		}).
		Derive("likesCount", pipeline.Size("likes")).
		Derive("commentsCount", pipeline.Size("comments")).
		Sort("createdAt", true).
		Project(bson.D{
			{Key: "title", Value: 1},
			{Key: "description", Value: 1},
			{Key: "thumbnail", Value: 1},
			{Key: "duration", Value: 1},
			{Key: "views", Value: 1},
			{Key: "isPublished", Value: 1},
			{Key: "createdAt", Value: 1},
			{Key: "likesCount", Value: 1},
			{Key: "commentsCount", Value: 1},
		}).
		Build()

	return pipeline.Paginate[ChannelVideo](ctx, r.videos, pl, req)
}

// likesLookup joins the likes collection for one target kind, keeping rows
// with zero likes via left-outer semantics.
func likesLookup(kind models.LikeKind) pipeline.Lookup {
	return pipeline.Lookup{
		From:         db.LikesCollection,
		LocalField:   "_id",
		ForeignField: "target",
		As:           "likes",
		Pipeline: mongo.Pipeline{
			bson.D{{Key: "$match", Value: bson.D{{Key: "kind", Value: kind}}}},
		},
	}
}

var _ VideoRepository = (*MongoVideoRepository)(nil)
