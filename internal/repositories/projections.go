package repositories

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/videotube/backend/internal/models"
)

// OwnerSummary is the denormalised slice of a user document attached to
// videos, comments and tweets by the lookup stages.
type OwnerSummary struct {
	ID       primitive.ObjectID `bson:"_id" json:"_id"`
	Username string             `bson:"username" json:"username"`
	FullName string             `bson:"fullName" json:"fullName"`
	Avatar   models.MediaAsset  `bson:"avatar" json:"avatar"`
}

// ownerProjection is the sub-pipeline applied inside owner lookups so only
// the allow-listed profile fields travel with each row.
func ownerProjection() bson.D {
	return bson.D{
		{Key: "_id", Value: 1},
		{Key: "username", Value: 1},
		{Key: "fullName", Value: 1},
		{Key: "avatar", Value: 1},
	}
}

// VideoListing is one row of a paginated video feed.
type VideoListing struct {
	ID          primitive.ObjectID `bson:"_id" json:"_id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Thumbnail   models.MediaAsset  `bson:"thumbnail" json:"thumbnail"`
	Duration    float64            `bson:"duration" json:"duration"`
	Views       int64              `bson:"views" json:"views"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	Owner       *OwnerSummary      `bson:"owner" json:"owner"`
	LikesCount  int64              `bson:"likesCount" json:"likesCount"`
}

// VideoDetail is the enriched single-video projection.
type VideoDetail struct {
	VideoListing     `bson:",inline"`
	VideoFile        models.MediaAsset `bson:"videoFile" json:"videoFile"`
	IsPublished      bool              `bson:"isPublished" json:"isPublished"`
	IsLiked          bool              `bson:"isLiked" json:"isLiked"`
	SubscribersCount int64             `bson:"subscribersCount" json:"subscribersCount"`
	IsSubscribed     bool              `bson:"isSubscribed" json:"isSubscribed"`
}

// ChannelVideo is one row of the dashboard's own-videos listing; unpublished
// videos are included because the owner is the viewer.
type ChannelVideo struct {
	ID            primitive.ObjectID `bson:"_id" json:"_id"`
	Title         string             `bson:"title" json:"title"`
	Description   string             `bson:"description" json:"description"`
	Thumbnail     models.MediaAsset  `bson:"thumbnail" json:"thumbnail"`
	Duration      float64            `bson:"duration" json:"duration"`
	Views         int64              `bson:"views" json:"views"`
	IsPublished   bool               `bson:"isPublished" json:"isPublished"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	LikesCount    int64              `bson:"likesCount" json:"likesCount"`
	CommentsCount int64              `bson:"commentsCount" json:"commentsCount"`
}

// CommentListing is one row of a paginated comment feed.
type CommentListing struct {
	ID         primitive.ObjectID `bson:"_id" json:"_id"`
	Content    string             `bson:"content" json:"content"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	Owner      *OwnerSummary      `bson:"owner" json:"owner"`
	LikesCount int64              `bson:"likesCount" json:"likesCount"`
	IsLiked    bool               `bson:"isLiked" json:"isLiked"`
}

// TweetListing is one row of a user's tweet feed.
type TweetListing struct {
	ID         primitive.ObjectID `bson:"_id" json:"_id"`
	Content    string             `bson:"content" json:"content"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	Owner      *OwnerSummary      `bson:"owner" json:"owner"`
	LikesCount int64              `bson:"likesCount" json:"likesCount"`
	IsLiked    bool               `bson:"isLiked" json:"isLiked"`
}

// LikedVideo is one entry of the liked-videos listing.
type LikedVideo struct {
	ID          primitive.ObjectID `bson:"_id" json:"_id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Thumbnail   models.MediaAsset  `bson:"thumbnail" json:"thumbnail"`
	Duration    float64            `bson:"duration" json:"duration"`
	Views       int64              `bson:"views" json:"views"`
	Owner       *OwnerSummary      `bson:"owner" json:"owner"`
}

// ChannelProfile is the public channel page projection for a viewer.
type ChannelProfile struct {
	ID                        primitive.ObjectID `bson:"_id" json:"_id"`
	Username                  string             `bson:"username" json:"username"`
	FullName                  string             `bson:"fullName" json:"fullName"`
	Avatar                    models.MediaAsset  `bson:"avatar" json:"avatar"`
	CoverImage                *models.MediaAsset `bson:"coverImage" json:"coverImage,omitempty"`
	SubscribersCount          int64              `bson:"subscribersCount" json:"subscribersCount"`
	ChannelsSubscribedToCount int64              `bson:"channelsSubscribedToCount" json:"channelsSubscribedToCount"`
	IsSubscribed              bool               `bson:"isSubscribed" json:"isSubscribed"`
}

// Subscriber is one row of a channel's subscriber listing.
type Subscriber struct {
	ID                      primitive.ObjectID `bson:"_id" json:"_id"`
	Username                string             `bson:"username" json:"username"`
	FullName                string             `bson:"fullName" json:"fullName"`
	Avatar                  models.MediaAsset  `bson:"avatar" json:"avatar"`
	SubscribersCount        int64              `bson:"subscribersCount" json:"subscribersCount"`
	SubscribedToSubscriber  bool               `bson:"subscribedToSubscriber" json:"subscribedToSubscriber"`
}

// SubscribedChannel is one row of a user's subscriptions listing.
type SubscribedChannel struct {
	ID          primitive.ObjectID `bson:"_id" json:"_id"`
	Username    string             `bson:"username" json:"username"`
	FullName    string             `bson:"fullName" json:"fullName"`
	Avatar      models.MediaAsset  `bson:"avatar" json:"avatar"`
	LatestVideo *VideoListing      `bson:"latestVideo" json:"latestVideo,omitempty"`
}

// PlaylistVideo is a video row embedded in a playlist projection.
type PlaylistVideo struct {
	ID          primitive.ObjectID `bson:"_id" json:"_id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Thumbnail   models.MediaAsset  `bson:"thumbnail" json:"thumbnail"`
	VideoFile   models.MediaAsset  `bson:"videoFile" json:"videoFile"`
	Duration    float64            `bson:"duration" json:"duration"`
	Views       int64              `bson:"views" json:"views"`
	Owner       *OwnerSummary      `bson:"owner" json:"owner"`
}

// PlaylistDetail is a playlist with its videos and owner attached.
type PlaylistDetail struct {
	ID          primitive.ObjectID `bson:"_id" json:"_id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description" json:"description"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
	Videos      []PlaylistVideo    `bson:"videos" json:"videos"`
	TotalVideos int64              `bson:"totalVideos" json:"totalVideos"`
	Owner       *OwnerSummary      `bson:"owner" json:"owner"`
}

// WatchHistoryEntry is one video of a user's watch history.
type WatchHistoryEntry struct {
	ID        primitive.ObjectID `bson:"_id" json:"_id"`
	Title     string             `bson:"title" json:"title"`
	Thumbnail models.MediaAsset  `bson:"thumbnail" json:"thumbnail"`
	Duration  float64            `bson:"duration" json:"duration"`
	Views     int64              `bson:"views" json:"views"`
	Owner     *OwnerSummary      `bson:"owner" json:"owner"`
}
