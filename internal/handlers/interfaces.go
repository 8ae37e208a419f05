package handlers

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/videotube/backend/internal/models"
)

// TokenIssuer issues and verifies the session token pair.
type TokenIssuer interface {
	Issue(userID, username string) (models.SessionTokens, error)
	VerifyRefresh(token string) (string, error)
}

// CleanupQueue schedules best-effort cascade deletions after an entity or a
// media asset goes away.
type CleanupQueue interface {
	VideoDeleted(ctx context.Context, videoID primitive.ObjectID, assetIDs ...string) error
	CommentDeleted(ctx context.Context, commentID primitive.ObjectID) error
	TweetDeleted(ctx context.Context, tweetID primitive.ObjectID) error
	AssetReplaced(ctx context.Context, assetIDs ...string) error
}
