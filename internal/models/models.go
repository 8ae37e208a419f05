package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MediaAsset references a file stored on the external media host. PublicID is
// the opaque identifier the host expects when the asset is later deleted.
type MediaAsset struct {
	URL      string `bson:"url" json:"url"`
	PublicID string `bson:"publicId" json:"publicId,omitempty"`
}

// User represents an account within the VideoTube platform.
type User struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Username     string               `bson:"username" json:"username"`
	Email        string               `bson:"email" json:"email"`
	FullName     string               `bson:"fullName" json:"fullName"`
	Avatar       *MediaAsset          `bson:"avatar" json:"avatar"`
	CoverImage   *MediaAsset          `bson:"coverImage,omitempty" json:"coverImage,omitempty"`
	WatchHistory []primitive.ObjectID `bson:"watchHistory" json:"-"`
	PasswordHash string               `bson:"passwordHash" json:"-"`
	RefreshToken string               `bson:"refreshToken,omitempty" json:"-"`
	CreatedAt    time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// Video is an uploaded video owned by a user. Views only ever increments and
// IsPublished is toggled by the owner alone.
type Video struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	VideoFile   MediaAsset         `bson:"videoFile" json:"videoFile"`
	Thumbnail   MediaAsset         `bson:"thumbnail" json:"thumbnail"`
	Duration    float64            `bson:"duration" json:"duration"`
	Views       int64              `bson:"views" json:"views"`
	IsPublished bool               `bson:"isPublished" json:"isPublished"`
	Owner       primitive.ObjectID `bson:"owner" json:"owner"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Comment is a user comment attached to a video.
type Comment struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Content   string             `bson:"content" json:"content"`
	Video     primitive.ObjectID `bson:"video" json:"video"`
	Owner     primitive.ObjectID `bson:"owner" json:"owner"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// LikeKind discriminates the target a Like points at. Exactly one kind is set
// per document and the (kind, target, likedBy) triple is unique.
type LikeKind string

const (
	LikeKindVideo   LikeKind = "video"
	LikeKindComment LikeKind = "comment"
	LikeKindTweet   LikeKind = "tweet"
)

// Valid reports whether k is one of the known like targets.
func (k LikeKind) Valid() bool {
	switch k {
	case LikeKindVideo, LikeKindComment, LikeKindTweet:
		return true
	}
	return false
}

// Like records that a user liked a single target. Existence of the document
// is the "liked" state; there is no counter field anywhere.
type Like struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Kind      LikeKind           `bson:"kind" json:"kind"`
	Target    primitive.ObjectID `bson:"target" json:"target"`
	LikedBy   primitive.ObjectID `bson:"likedBy" json:"likedBy"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// Tweet is a short text post owned by a user.
type Tweet struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Content   string             `bson:"content" json:"content"`
	Owner     primitive.ObjectID `bson:"owner" json:"owner"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Playlist is an ordered collection of video references owned by a user.
type Playlist struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Name        string               `bson:"name" json:"name"`
	Description string               `bson:"description" json:"description"`
	Videos      []primitive.ObjectID `bson:"videos" json:"videos"`
	Owner       primitive.ObjectID   `bson:"owner" json:"owner"`
	CreatedAt   time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// Subscription is a directed follows edge: subscriber follows channel. At
// most one document exists per (subscriber, channel) pair.
type Subscription struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Subscriber primitive.ObjectID `bson:"subscriber" json:"subscriber"`
	Channel    primitive.ObjectID `bson:"channel" json:"channel"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}

// ChannelStats aggregates a channel's totals across related collections. All
// fields are plain integers so an empty channel reports zeroes, never nulls.
type ChannelStats struct {
	TotalVideos        int64 `bson:"totalVideos" json:"totalVideos"`
	TotalViews         int64 `bson:"totalViews" json:"totalViews"`
	TotalSubscribers   int64 `bson:"totalSubscribers" json:"totalSubscribers"`
	TotalSubscriptions int64 `bson:"totalSubscriptions" json:"totalSubscriptions"`
	TotalTweets        int64 `bson:"totalTweets" json:"totalTweets"`
	TotalComments      int64 `bson:"totalComments" json:"totalComments"`
	VideoLikes         int64 `bson:"videoLikes" json:"videoLikes"`
	CommentLikes       int64 `bson:"commentLikes" json:"commentLikes"`
	TweetLikes         int64 `bson:"tweetLikes" json:"tweetLikes"`
	TotalLikes         int64 `bson:"totalLikes" json:"totalLikes"`
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}
