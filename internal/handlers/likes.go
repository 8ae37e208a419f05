package handlers

import (
	"net/http"

	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/repositories"
)

// LikeHandler implements like toggle and listing endpoints.
type LikeHandler struct {
	Likes repositories.LikeRepository
}

// ToggleVideo handles POST /api/v1/likes/toggle/v/{videoId}.
func (h LikeHandler) ToggleVideo(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, models.LikeKindVideo, "videoId")
}

// ToggleComment handles POST /api/v1/likes/toggle/c/{commentId}.
func (h LikeHandler) ToggleComment(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, models.LikeKindComment, "commentId")
}

// ToggleTweet handles POST /api/v1/likes/toggle/t/{tweetId}.
func (h LikeHandler) ToggleTweet(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, models.LikeKindTweet, "tweetId")
}

func (h LikeHandler) toggle(w http.ResponseWriter, r *http.Request, kind models.LikeKind, param string) {
	ctx := r.Context()

	user, err := principal(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	target, err := pathID(r, param)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	liked, err := h.Likes.Toggle(ctx, kind, target, user.ID)
	if err != nil {
		respondError(ctx, w, internal("failed to toggle like", err))
		return
	}

	message := "like removed"
	if liked {
		message = "liked"
	}
	respondJSON(ctx, w, http.StatusOK, map[string]bool{"liked": liked}, message)
}

// LikedVideos handles GET /api/v1/likes/videos.
func (h LikeHandler) LikedVideos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := principal(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	videos, err := h.Likes.LikedVideos(ctx, user.ID)
	if err != nil {
		respondError(ctx, w, internal("failed to fetch liked videos", err))
		return
	}
	if videos == nil {
		videos = []repositories.LikedVideo{}
	}

	respondJSON(ctx, w, http.StatusOK, videos, "liked videos fetched successfully")
}
