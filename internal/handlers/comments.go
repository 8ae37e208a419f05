package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/videotube/backend/internal/logging"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/repositories"
)

// CommentHandler implements video comment endpoints.
type CommentHandler struct {
	Comments repositories.CommentRepository
	Videos   repositories.VideoRepository
	Cleanup  CleanupQueue
}

// List handles GET /api/v1/comments/{videoId}.
func (h CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	viewer, err := principal(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	videoID, err := pathID(r, "videoId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	page, err := h.Comments.ForVideo(ctx, videoID, viewer.ID, pageRequest(r))
	if err != nil {
		respondError(ctx, w, internal("failed to fetch comments", err))
		return
	}

	respondJSON(ctx, w, http.StatusOK, page, "comments fetched successfully")
}

// Add handles POST /api/v1/comments/{videoId}.
func (h CommentHandler) Add(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := principal(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	videoID, err := pathID(r, "videoId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	content, err := decodeContent(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if _, err := h.Videos.FindByID(ctx, videoID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, notFound("no video found"))
			return
		}
		respondError(ctx, w, internal("failed to fetch video", err))
		return
	}

	comment, err := h.Comments.Create(ctx, models.Comment{
		Content: content,
		Video:   videoID,
		Owner:   user.ID,
	})
	if err != nil {
		respondError(ctx, w, internal("failed to add comment", err))
		return
	}

	respondJSON(ctx, w, http.StatusCreated, comment, "comment added successfully")
}

// Update handles PATCH /api/v1/comments/c/{commentId}.
func (h CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	comment, err := h.ownedComment(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	content, err := decodeContent(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	updated, err := h.Comments.UpdateContent(ctx, comment.ID, content)
	if err != nil {
		respondError(ctx, w, internal("failed to update comment", err))
		return
	}

	respondJSON(ctx, w, http.StatusOK, updated, "comment updated successfully")
}

// Delete handles DELETE /api/v1/comments/c/{commentId}.
func (h CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	comment, err := h.ownedComment(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := h.Comments.Delete(ctx, comment.ID); err != nil {
		respondError(ctx, w, internal("failed to delete comment", err))
		return
	}

	if h.Cleanup != nil {
		if err := h.Cleanup.CommentDeleted(ctx, comment.ID); err != nil {
			logging.FromContext(ctx).Warn("queue comment cleanup", "commentId", comment.ID.Hex(), "error", err)
		}
	}

	respondJSON(ctx, w, http.StatusOK, nil, "comment deleted successfully")
}

func (h CommentHandler) ownedComment(r *http.Request) (models.Comment, error) {
	ctx := r.Context()

	user, err := principal(ctx)
	if err != nil {
		return models.Comment{}, err
	}

	commentID, err := pathID(r, "commentId")
	if err != nil {
		return models.Comment{}, err
	}

	comment, err := h.Comments.FindByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Comment{}, notFound("no comment found")
		}
		return models.Comment{}, internal("failed to fetch comment", err)
	}
	if comment.Owner != user.ID {
		return models.Comment{}, forbidden("you do not own this comment")
	}
	return comment, nil
}

// decodeContent reads the {"content": "..."} body shared by comment and tweet
// mutations.
func decodeContent(r *http.Request) (string, error) {
	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return "", badRequest("invalid request body")
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return "", badRequest("content is required")
	}
	return content, nil
}
