package handlers

import (
	"net/http"

	"github.com/videotube/backend/internal/repositories"
	"github.com/videotube/backend/internal/stats"
)

// DashboardHandler implements channel analytics endpoints for the principal's
// own channel.
type DashboardHandler struct {
	Provider  stats.Provider
	VideoRepo repositories.VideoRepository
}

// Stats handles GET /api/v1/dashboard/stats.
func (h DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := principal(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	channelStats, err := h.Provider.ChannelStats(ctx, user.ID)
	if err != nil {
		respondError(ctx, w, internal("failed to fetch channel stats", err))
		return
	}

	respondJSON(ctx, w, http.StatusOK, channelStats, "channel stats fetched successfully")
}

// Videos handles GET /api/v1/dashboard/videos.
func (h DashboardHandler) Videos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := principal(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	page, err := h.VideoRepo.ChannelVideos(ctx, user.ID, pageRequest(r))
	if err != nil {
		respondError(ctx, w, internal("failed to fetch channel videos", err))
		return
	}

	respondJSON(ctx, w, http.StatusOK, page, "channel videos fetched successfully")
}
