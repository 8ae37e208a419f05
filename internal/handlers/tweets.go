package handlers

import (
	"errors"
	"net/http"

	"github.com/videotube/backend/internal/logging"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/repositories"
)

// TweetHandler implements tweet endpoints.
type TweetHandler struct {
	Tweets  repositories.TweetRepository
	Cleanup CleanupQueue
}

// Create handles POST /api/v1/tweets.
func (h TweetHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := principal(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	content, err := decodeContent(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	tweet, err := h.Tweets.Create(ctx, models.Tweet{
		Content: content,
		Owner:   user.ID,
	})
	if err != nil {
		respondError(ctx, w, internal("failed to create tweet", err))
		return
	}

	respondJSON(ctx, w, http.StatusCreated, tweet, "tweet created successfully")
}

// ForUser handles GET /api/v1/tweets/user/{userId}.
func (h TweetHandler) ForUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	viewer, err := principal(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	owner, err := pathID(r, "userId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	page, err := h.Tweets.ForUser(ctx, owner, viewer.ID, pageRequest(r))
	if err != nil {
		respondError(ctx, w, internal("failed to fetch tweets", err))
		return
	}

	respondJSON(ctx, w, http.StatusOK, page, "tweets fetched successfully")
}

// Update handles PATCH /api/v1/tweets/{tweetId}.
func (h TweetHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tweet, err := h.ownedTweet(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	content, err := decodeContent(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	updated, err := h.Tweets.UpdateContent(ctx, tweet.ID, content)
	if err != nil {
		respondError(ctx, w, internal("failed to update tweet", err))
		return
	}

	respondJSON(ctx, w, http.StatusOK, updated, "tweet updated successfully")
}

// Delete handles DELETE /api/v1/tweets/{tweetId}.
func (h TweetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tweet, err := h.ownedTweet(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := h.Tweets.Delete(ctx, tweet.ID); err != nil {
		respondError(ctx, w, internal("failed to delete tweet", err))
		return
	}

	if h.Cleanup != nil {
		if err := h.Cleanup.TweetDeleted(ctx, tweet.ID); err != nil {
			logging.FromContext(ctx).Warn("queue tweet cleanup", "tweetId", tweet.ID.Hex(), "error", err)
		}
	}

	respondJSON(ctx, w, http.StatusOK, nil, "tweet deleted successfully")
}

func (h TweetHandler) ownedTweet(r *http.Request) (models.Tweet, error) {
	ctx := r.Context()

	user, err := principal(ctx)
	if err != nil {
		return models.Tweet{}, err
	}

	tweetID, err := pathID(r, "tweetId")
	if err != nil {
		return models.Tweet{}, err
	}

	tweet, err := h.Tweets.FindByID(ctx, tweetID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Tweet{}, notFound("no tweet found")
		}
		return models.Tweet{}, internal("failed to fetch tweet", err)
	}
	if tweet.Owner != user.ID {
		return models.Tweet{}, forbidden("you do not own this tweet")
	}
	return tweet, nil
}
