package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/videotube/backend/internal/models"
)

func testVideo(owner primitive.ObjectID) models.Video {
	return models.Video{
		ID:          primitive.NewObjectID(),
		Title:       "gophers in the wild",
		Description: "field footage",
		VideoFile:   models.MediaAsset{URL: "https://cdn.test/videos/a", PublicID: "videos/a"},
		Thumbnail:   models.MediaAsset{URL: "https://cdn.test/thumbnails/a", PublicID: "thumbnails/a"},
		IsPublished: true,
		Owner:       owner,
	}
}

func TestVideoPublish(t *testing.T) {
	user := testUser(t, "ada", "correct-horse")
	videos := newFakeVideoRepo()
	media := &fakeMedia{}
	h := VideoHandler{Videos: videos, Users: newFakeUserRepo(user), Media: media}

	body, contentType := multipartBody(t,
		map[string]string{"title": "gophers", "description": "field footage", "duration": "12.5"},
		map[string]string{"videoFile": "clip.mp4", "thumbnail": "frame.png"})
	req := authedRequest(httptest.NewRequest(http.MethodPost, "/api/v1/videos", body), user)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.Publish(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	if len(media.uploads) != 2 {
		t.Fatalf("uploads = %d, want 2", len(media.uploads))
	}
	if len(videos.videos) != 1 {
		t.Fatalf("videos = %d, want 1", len(videos.videos))
	}
	for _, video := range videos.videos {
		if !video.IsPublished {
			t.Error("new video not published")
		}
		if video.Duration != 12.5 {
			t.Errorf("duration = %v, want 12.5", video.Duration)
		}
		if video.Owner != user.ID {
			t.Errorf("owner = %s, want %s", video.Owner.Hex(), user.ID.Hex())
		}
	}
}

func TestVideoPublishMissingFields(t *testing.T) {
	user := testUser(t, "ada", "correct-horse")
	h := VideoHandler{Videos: newFakeVideoRepo(), Users: newFakeUserRepo(user), Media: &fakeMedia{}}

	body, contentType := multipartBody(t,
		map[string]string{"title": "gophers"},
		map[string]string{"videoFile": "clip.mp4", "thumbnail": "frame.png"})
	req := authedRequest(httptest.NewRequest(http.MethodPost, "/api/v1/videos", body), user)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.Publish(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestVideoGetCountsFirstViewOnce(t *testing.T) {
	viewer := testUser(t, "ada", "correct-horse")
	video := testVideo(primitive.NewObjectID())
	videos := newFakeVideoRepo(video)
	users := newFakeUserRepo(viewer)
	h := VideoHandler{Videos: videos, Users: users}

	for i := 0; i < 3; i++ {
		req := authedRequest(httptest.NewRequest(http.MethodGet, "/api/v1/videos/"+video.ID.Hex(), nil), viewer)
		req.SetPathValue("videoId", video.ID.Hex())
		rec := httptest.NewRecorder()

		h.Get(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
	}

	if got := videos.views[video.ID]; got != 1 {
		t.Errorf("views = %d after 3 gets by one viewer, want 1", got)
	}
}

func TestVideoGetNotFound(t *testing.T) {
	viewer := testUser(t, "ada", "correct-horse")
	users := newFakeUserRepo(viewer)
	h := VideoHandler{Videos: newFakeVideoRepo(), Users: users}

	id := primitive.NewObjectID()
	req := authedRequest(httptest.NewRequest(http.MethodGet, "/api/v1/videos/"+id.Hex(), nil), viewer)
	req.SetPathValue("videoId", id.Hex())
	rec := httptest.NewRecorder()

	h.Get(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if got := len(users.viewed[viewer.ID]); got != 0 {
		t.Errorf("watch history has %d entries after fetching a missing video, want 0", got)
	}
}

func TestVideoUpdateForbiddenForNonOwner(t *testing.T) {
	owner := testUser(t, "ada", "correct-horse")
	intruder := testUser(t, "mallory", "correct-horse")
	video := testVideo(owner.ID)
	h := VideoHandler{Videos: newFakeVideoRepo(video), Users: newFakeUserRepo(owner, intruder), Media: &fakeMedia{}}

	req := authedRequest(httptest.NewRequest(http.MethodPatch, "/api/v1/videos/"+video.ID.Hex(),
		strings.NewReader(`{"title":"hijacked"}`)), intruder)
	req.SetPathValue("videoId", video.ID.Hex())
	rec := httptest.NewRecorder()

	h.Update(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestVideoUpdateJSON(t *testing.T) {
	owner := testUser(t, "ada", "correct-horse")
	video := testVideo(owner.ID)
	videos := newFakeVideoRepo(video)
	h := VideoHandler{Videos: videos, Users: newFakeUserRepo(owner), Media: &fakeMedia{}}

	req := authedRequest(httptest.NewRequest(http.MethodPatch, "/api/v1/videos/"+video.ID.Hex(),
		strings.NewReader(`{"title":"gophers revisited"}`)), owner)
	req.SetPathValue("videoId", video.ID.Hex())
	rec := httptest.NewRecorder()

	h.Update(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if got := videos.videos[video.ID].Title; got != "gophers revisited" {
		t.Errorf("title = %q, want %q", got, "gophers revisited")
	}
}

func TestVideoUpdateNothingToUpdate(t *testing.T) {
	owner := testUser(t, "ada", "correct-horse")
	video := testVideo(owner.ID)
	h := VideoHandler{Videos: newFakeVideoRepo(video), Users: newFakeUserRepo(owner), Media: &fakeMedia{}}

	req := authedRequest(httptest.NewRequest(http.MethodPatch, "/api/v1/videos/"+video.ID.Hex(),
		strings.NewReader(`{}`)), owner)
	req.SetPathValue("videoId", video.ID.Hex())
	rec := httptest.NewRecorder()

	h.Update(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestVideoDeleteQueuesCascade(t *testing.T) {
	owner := testUser(t, "ada", "correct-horse")
	video := testVideo(owner.ID)
	videos := newFakeVideoRepo(video)
	queue := &fakeCleanup{}
	h := VideoHandler{Videos: videos, Users: newFakeUserRepo(owner), Cleanup: queue}

	req := authedRequest(httptest.NewRequest(http.MethodDelete, "/api/v1/videos/"+video.ID.Hex(), nil), owner)
	req.SetPathValue("videoId", video.ID.Hex())
	rec := httptest.NewRecorder()

	h.Delete(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if len(videos.deleted) != 1 || videos.deleted[0] != video.ID {
		t.Fatalf("deleted = %v, want [%s]", videos.deleted, video.ID.Hex())
	}
	if len(queue.videos) != 1 || queue.videos[0] != video.ID {
		t.Errorf("cascade queued for %v, want [%s]", queue.videos, video.ID.Hex())
	}
	if len(queue.assets) != 2 {
		t.Errorf("queued assets = %v, want video file and thumbnail", queue.assets)
	}
}

func TestVideoTogglePublish(t *testing.T) {
	owner := testUser(t, "ada", "correct-horse")
	video := testVideo(owner.ID)
	videos := newFakeVideoRepo(video)
	h := VideoHandler{Videos: videos, Users: newFakeUserRepo(owner)}

	req := authedRequest(httptest.NewRequest(http.MethodPatch, "/api/v1/videos/toggle/publish/"+video.ID.Hex(), nil), owner)
	req.SetPathValue("videoId", video.ID.Hex())
	rec := httptest.NewRecorder()

	h.TogglePublish(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if videos.videos[video.ID].IsPublished {
		t.Error("video still published after toggle")
	}
}

func TestVideoListInvalidUserID(t *testing.T) {
	viewer := testUser(t, "ada", "correct-horse")
	h := VideoHandler{Videos: newFakeVideoRepo(), Users: newFakeUserRepo(viewer)}

	req := authedRequest(httptest.NewRequest(http.MethodGet, "/api/v1/videos?userId=nope", nil), viewer)
	rec := httptest.NewRecorder()

	h.List(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
