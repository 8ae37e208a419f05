package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/videotube/backend/internal/models"
)

type stubStatsProvider struct {
	stats map[primitive.ObjectID]models.ChannelStats
}

func (s stubStatsProvider) ChannelStats(_ context.Context, channel primitive.ObjectID) (models.ChannelStats, error) {
	return s.stats[channel], nil
}

func TestDashboardStats(t *testing.T) {
	user := testUser(t, "ada", "correct-horse")
	provider := stubStatsProvider{stats: map[primitive.ObjectID]models.ChannelStats{
		user.ID: {TotalVideos: 3, TotalViews: 42, TotalLikes: 7},
	}}
	h := DashboardHandler{Provider: provider, VideoRepo: newFakeVideoRepo()}

	req := authedRequest(httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/stats", nil), user)
	rec := httptest.NewRecorder()

	h.Stats(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var body struct {
		Data models.ChannelStats `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Data.TotalVideos != 3 || body.Data.TotalViews != 42 {
		t.Errorf("stats = %+v, want totals 3/42", body.Data)
	}
}

func TestDashboardStatsEmptyChannel(t *testing.T) {
	user := testUser(t, "ada", "correct-horse")
	h := DashboardHandler{Provider: stubStatsProvider{}, VideoRepo: newFakeVideoRepo()}

	req := authedRequest(httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/stats", nil), user)
	rec := httptest.NewRecorder()

	h.Stats(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var body struct {
		Data models.ChannelStats `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Data != (models.ChannelStats{}) {
		t.Errorf("stats = %+v, want all zeroes", body.Data)
	}
}

func TestDashboardVideosOnlyOwn(t *testing.T) {
	user := testUser(t, "ada", "correct-horse")
	other := primitive.NewObjectID()
	mine := testVideo(user.ID)
	theirs := testVideo(other)
	h := DashboardHandler{Provider: stubStatsProvider{}, VideoRepo: newFakeVideoRepo(mine, theirs)}

	req := authedRequest(httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/videos", nil), user)
	rec := httptest.NewRecorder()

	h.Videos(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var body struct {
		Data struct {
			Items []struct {
				ID string `json:"_id"`
			} `json:"items"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body.Data.Items) != 1 || body.Data.Items[0].ID != mine.ID.Hex() {
		t.Errorf("items = %+v, want only %s", body.Data.Items, mine.ID.Hex())
	}
}
