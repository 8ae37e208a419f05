package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/repositories"
)

// PlaylistHandler implements playlist endpoints.
type PlaylistHandler struct {
	Playlists repositories.PlaylistRepository
	Videos    repositories.VideoRepository
}

// Create handles POST /api/v1/playlist.
func (h PlaylistHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := principal(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, badRequest("invalid request body"))
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		respondError(ctx, w, badRequest("name is required"))
		return
	}

	playlist, err := h.Playlists.Create(ctx, models.Playlist{
		Name:        req.Name,
		Description: strings.TrimSpace(req.Description),
		Owner:       user.ID,
	})
	if err != nil {
		respondError(ctx, w, internal("failed to create playlist", err))
		return
	}

	respondJSON(ctx, w, http.StatusCreated, playlist, "playlist created successfully")
}

// Get handles GET /api/v1/playlist/{playlistId}.
func (h PlaylistHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if _, err := principal(ctx); err != nil {
		respondError(ctx, w, err)
		return
	}

	playlistID, err := pathID(r, "playlistId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	detail, err := h.Playlists.Detail(ctx, playlistID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, notFound("no playlist found"))
			return
		}
		respondError(ctx, w, internal("failed to fetch playlist", err))
		return
	}

	respondJSON(ctx, w, http.StatusOK, detail, "playlist fetched successfully")
}

// ForUser handles GET /api/v1/playlist/user/{userId}.
func (h PlaylistHandler) ForUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if _, err := principal(ctx); err != nil {
		respondError(ctx, w, err)
		return
	}

	owner, err := pathID(r, "userId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	playlists, err := h.Playlists.ForUser(ctx, owner)
	if err != nil {
		respondError(ctx, w, internal("failed to fetch playlists", err))
		return
	}
	if playlists == nil {
		playlists = []repositories.PlaylistDetail{}
	}

	respondJSON(ctx, w, http.StatusOK, playlists, "playlists fetched successfully")
}

// Update handles PATCH /api/v1/playlist/{playlistId}.
func (h PlaylistHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	playlist, err := h.ownedPlaylist(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, badRequest("invalid request body"))
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if req.Name == "" && req.Description == "" {
		respondError(ctx, w, badRequest("name or description is required"))
		return
	}

	updated, err := h.Playlists.Update(ctx, playlist.ID, req.Name, req.Description)
	if err != nil {
		respondError(ctx, w, internal("failed to update playlist", err))
		return
	}

	respondJSON(ctx, w, http.StatusOK, updated, "playlist updated successfully")
}

// Delete handles DELETE /api/v1/playlist/{playlistId}.
func (h PlaylistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	playlist, err := h.ownedPlaylist(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := h.Playlists.Delete(ctx, playlist.ID); err != nil {
		respondError(ctx, w, internal("failed to delete playlist", err))
		return
	}

	respondJSON(ctx, w, http.StatusOK, nil, "playlist deleted successfully")
}

// AddVideo handles PATCH /api/v1/playlist/add/{videoId}/{playlistId}.
func (h PlaylistHandler) AddVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	playlist, videoID, err := h.ownedPlaylistAndVideo(r)
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

	if err := h.Playlists.AddVideo(ctx, playlist.ID, videoID); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			respondError(ctx, w, conflict("video already in playlist"))
			return
		}
		respondError(ctx, w, internal("failed to add video to playlist", err))
		return
	}

	respondJSON(ctx, w, http.StatusOK, nil, "video added to playlist")
}

// RemoveVideo handles PATCH /api/v1/playlist/remove/{videoId}/{playlistId}.
func (h PlaylistHandler) RemoveVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	playlist, videoID, err := h.ownedPlaylistAndVideo(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := h.Playlists.RemoveVideo(ctx, playlist.ID, videoID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, notFound("video not in playlist"))
			return
		}
		respondError(ctx, w, internal("failed to remove video from playlist", err))
		return
	}

	respondJSON(ctx, w, http.StatusOK, nil, "video removed from playlist")
}

func (h PlaylistHandler) ownedPlaylist(r *http.Request) (models.Playlist, error) {
	ctx := r.Context()

	user, err := principal(ctx)
	if err != nil {
		return models.Playlist{}, err
	}

	playlistID, err := pathID(r, "playlistId")
	if err != nil {
		return models.Playlist{}, err
	}

	playlist, err := h.Playlists.FindByID(ctx, playlistID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Playlist{}, notFound("no playlist found")
		}
		return models.Playlist{}, internal("failed to fetch playlist", err)
	}
	if playlist.Owner != user.ID {
		return models.Playlist{}, forbidden("you do not own this playlist")
	}
	return playlist, nil
}

func (h PlaylistHandler) ownedPlaylistAndVideo(r *http.Request) (models.Playlist, primitive.ObjectID, error) {
	playlist, err := h.ownedPlaylist(r)
	if err != nil {
		return models.Playlist{}, primitive.NilObjectID, err
	}
	videoID, err := pathID(r, "videoId")
	if err != nil {
		return models.Playlist{}, primitive.NilObjectID, err
	}
	return playlist, videoID, nil
}
