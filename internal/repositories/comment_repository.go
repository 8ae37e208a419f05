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

// CommentRepository defines the data access contract for video comments.
type CommentRepository interface {
	Create(ctx context.Context, comment models.Comment) (models.Comment, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (models.Comment, error)
	UpdateContent(ctx context.Context, id primitive.ObjectID, content string) (models.Comment, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	ForVideo(ctx context.Context, videoID, viewer primitive.ObjectID, req pipeline.PageRequest) (pipeline.Page[CommentListing], error)
}

// MongoCommentRepository provides MongoDB-backed persistence for comments.
type MongoCommentRepository struct {
	comments *mongo.Collection
}

// NewMongoCommentRepository constructs a comment repository over the comments collection.
func NewMongoCommentRepository(store *db.Store) *MongoCommentRepository {
	return &MongoCommentRepository{comments: store.Collection(db.CommentsCollection)}
}

// Create stores a new comment.
func (r *MongoCommentRepository) Create(ctx context.Context, comment models.Comment) (models.Comment, error) {
	now := time.Now().UTC()
	comment.CreatedAt = now
	comment.UpdatedAt = now

	res, err := r.comments.InsertOne(ctx, comment)
	if err != nil {
		return models.Comment{}, fmt.Errorf("insert comment: %w", err)
	}
	comment.ID = res.InsertedID.(primitive.ObjectID)
	return comment, nil
}

// FindByID fetches a raw comment document.
func (r *MongoCommentRepository) FindByID(ctx context.Context, id primitive.ObjectID) (models.Comment, error) {
	var comment models.Comment
	if err := r.comments.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&comment); err != nil {
		return models.Comment{}, translateError(err)
	}
	return comment, nil
}

// UpdateContent replaces the comment text.
func (r *MongoCommentRepository) UpdateContent(ctx context.Context, id primitive.ObjectID, content string) (models.Comment, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var comment models.Comment
	err := r.comments.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "content", Value: content},
			{Key: "updatedAt", Value: time.Now().UTC()},
		}}},
		opts,
	).Decode(&comment)
	if err != nil {
		return models.Comment{}, translateError(err)
	}
	return comment, nil
}

// Delete removes the comment. Its likes are cleaned up asynchronously.
func (r *MongoCommentRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.comments.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ForVideo lists a video's comments newest first, enriched with the owner
// profile, like count and the viewer's like state.
func (r *MongoCommentRepository) ForVideo(ctx context.Context, videoID, viewer primitive.ObjectID, req pipeline.PageRequest) (pipeline.Page[CommentListing], error) {
	pl := pipeline.New().
		Match(bson.D{{Key: "video", Value: videoID}}).
		Lookup(pipeline.Lookup{
			From:         db.UsersCollection,
			LocalField:   "owner",
			ForeignField: "_id",
			As:           "owner",
			Pipeline: mongo.Pipeline{
				bson.D{{Key: "$project", Value: ownerProjection()}},
			},
		}).
		Lookup(likesLookup(models.LikeKindComment)).
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

	return pipeline.Paginate[CommentListing](ctx, r.comments, pl, req)
}

var _ CommentRepository = (*MongoCommentRepository)(nil)
