package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/videotube/backend/internal/logging"
	"github.com/videotube/backend/internal/media"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/repositories"
)

// VideoHandler implements video upload, feed and lifecycle endpoints.
type VideoHandler struct {
	Videos  repositories.VideoRepository
	Users   repositories.UserRepository
	Media   media.Host
	Cleanup CleanupQueue
}

// List handles GET /api/v1/videos.
func (h VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	viewer, err := principal(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	q := r.URL.Query()
	query := repositories.VideoQuery{
		Search:   strings.TrimSpace(q.Get("query")),
		Viewer:   viewer.ID,
		SortBy:   q.Get("sortBy"),
		SortType: q.Get("sortType"),
	}
	if userID := q.Get("userId"); userID != "" {
		owner, err := primitive.ObjectIDFromHex(userID)
		if err != nil {
			respondError(ctx, w, badRequest("invalid userId"))
			return
		}
		query.Owner = owner
	}

	page, err := h.Videos.Search(ctx, query, pageRequest(r))
	if err != nil {
		respondError(ctx, w, internal("failed to fetch videos", err))
		return
	}

	respondJSON(ctx, w, http.StatusOK, page, "videos fetched successfully")
}

// Publish handles POST /api/v1/videos.
func (h VideoHandler) Publish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := principal(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(ctx, w, badRequest("invalid multipart payload"))
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	description := strings.TrimSpace(r.FormValue("description"))
	if title == "" || description == "" {
		respondError(ctx, w, badRequest("title and description are required"))
		return
	}

	duration, err := strconv.ParseFloat(r.FormValue("duration"), 64)
	if err != nil || duration < 0 {
		duration = 0
	}

	videoFile, videoName, err := formFile(r, "videoFile", true)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	defer closeQuietly(videoFile)

	thumbFile, thumbName, err := formFile(r, "thumbnail", true)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	defer closeQuietly(thumbFile)

	videoAsset, err := h.Media.Upload(ctx, "videos", videoName, videoFile)
	if err != nil {
		respondError(ctx, w, internal("failed to upload video file", err))
		return
	}
	thumbAsset, err := h.Media.Upload(ctx, "thumbnails", thumbName, thumbFile)
	if err != nil {
		respondError(ctx, w, internal("failed to upload thumbnail", err))
		return
	}

	video, err := h.Videos.Create(ctx, models.Video{
		Title:       title,
		Description: description,
		VideoFile:   videoAsset,
		Thumbnail:   thumbAsset,
		Duration:    duration,
		IsPublished: true,
		Owner:       user.ID,
	})
	if err != nil {
		respondError(ctx, w, internal("failed to publish video", err))
		return
	}

	logging.FromContext(ctx).Info("video published", "videoId", video.ID.Hex(), "userId", user.ID.Hex())
	respondJSON(ctx, w, http.StatusCreated, video, "video published successfully")
}

// Get handles GET /api/v1/videos/{videoId}. The first view per account
// increments the view counter and appends the video to the viewer's watch
// history; repeat views change nothing.
func (h VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
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

	detail, err := h.Videos.Detail(ctx, videoID, viewer.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, notFound("no video found"))
			return
		}
		respondError(ctx, w, internal("failed to fetch video", err))
		return
	}

	// The view counts only after the video is known to exist, so a guessed id
	// never lands a dangling entry in the viewer's watch history.
	firstView, err := h.Users.RecordView(ctx, viewer.ID, videoID)
	if err != nil {
		logging.FromContext(ctx).Warn("record view", "videoId", videoID.Hex(), "error", err)
	} else if firstView {
		if err := h.Videos.IncrementViews(ctx, videoID); err != nil {
			logging.FromContext(ctx).Warn("increment views", "videoId", videoID.Hex(), "error", err)
		} else {
			detail.Views++
		}
	}

	respondJSON(ctx, w, http.StatusOK, detail, "video fetched successfully")
}

// Update handles PATCH /api/v1/videos/{videoId}.
func (h VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	video, user, err := h.ownedVideo(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var (
		title       string
		description string
		thumbnail   *models.MediaAsset
	)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			respondError(ctx, w, badRequest("invalid multipart payload"))
			return
		}
		title = strings.TrimSpace(r.FormValue("title"))
		description = strings.TrimSpace(r.FormValue("description"))

		if file, filename, err := formFile(r, "thumbnail", false); err == nil && file != nil {
			defer closeQuietly(file)
			asset, err := h.Media.Upload(ctx, "thumbnails", filename, file)
			if err != nil {
				respondError(ctx, w, internal("failed to upload thumbnail", err))
				return
			}
			thumbnail = &asset
		}
	} else {
		var req struct {
			Title       string `json:"title"`
			Description string `json:"description"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(ctx, w, badRequest("invalid request body"))
			return
		}
		title = strings.TrimSpace(req.Title)
		description = strings.TrimSpace(req.Description)
	}

	if title == "" && description == "" && thumbnail == nil {
		respondError(ctx, w, badRequest("nothing to update"))
		return
	}

	updated, err := h.Videos.UpdateDetails(ctx, video.ID, title, description, thumbnail)
	if err != nil {
		respondError(ctx, w, internal("failed to update video", err))
		return
	}

	if thumbnail != nil && video.Thumbnail.PublicID != "" && h.Cleanup != nil {
		if err := h.Cleanup.AssetReplaced(ctx, video.Thumbnail.PublicID); err != nil {
			logging.FromContext(ctx).Warn("queue old thumbnail cleanup", "asset", video.Thumbnail.PublicID, "error", err)
		}
	}

	logging.FromContext(ctx).Info("video updated", "videoId", video.ID.Hex(), "userId", user.ID.Hex())
	respondJSON(ctx, w, http.StatusOK, updated, "video updated successfully")
}

// Delete handles DELETE /api/v1/videos/{videoId}. The document goes first;
// dependent rows and media files follow asynchronously.
func (h VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	video, user, err := h.ownedVideo(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := h.Videos.Delete(ctx, video.ID); err != nil {
		respondError(ctx, w, internal("failed to delete video", err))
		return
	}

	if h.Cleanup != nil {
		err := h.Cleanup.VideoDeleted(ctx, video.ID, video.VideoFile.PublicID, video.Thumbnail.PublicID)
		if err != nil {
			logging.FromContext(ctx).Warn("queue video cleanup", "videoId", video.ID.Hex(), "error", err)
		}
	}

	logging.FromContext(ctx).Info("video deleted", "videoId", video.ID.Hex(), "userId", user.ID.Hex())
	respondJSON(ctx, w, http.StatusOK, nil, "video deleted successfully")
}

// TogglePublish handles PATCH /api/v1/videos/toggle/publish/{videoId}.
func (h VideoHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	video, _, err := h.ownedVideo(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	updated, err := h.Videos.SetPublished(ctx, video.ID, !video.IsPublished)
	if err != nil {
		respondError(ctx, w, internal("failed to toggle publish state", err))
		return
	}

	message := "video unpublished"
	if updated.IsPublished {
		message = "video published"
	}
	respondJSON(ctx, w, http.StatusOK, updated, message)
}

// ownedVideo loads the path video and verifies the principal owns it.
func (h VideoHandler) ownedVideo(r *http.Request) (models.Video, models.User, error) {
	ctx := r.Context()

	user, err := principal(ctx)
	if err != nil {
		return models.Video{}, models.User{}, err
	}

	videoID, err := pathID(r, "videoId")
	if err != nil {
		return models.Video{}, models.User{}, err
	}

	video, err := h.Videos.FindByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Video{}, models.User{}, notFound("no video found")
		}
		return models.Video{}, models.User{}, internal("failed to fetch video", err)
	}
	if video.Owner != user.ID {
		return models.Video{}, models.User{}, forbidden("you do not own this video")
	}
	return video, user, nil
}
