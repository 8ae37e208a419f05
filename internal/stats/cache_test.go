package stats

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/videotube/backend/internal/models"
)

type stubProvider struct {
	stats models.ChannelStats
	err   error
	calls int
}

func (s *stubProvider) ChannelStats(context.Context, primitive.ObjectID) (models.ChannelStats, error) {
	s.calls++
	if s.err != nil {
		return models.ChannelStats{}, s.err
	}
	return s.stats, nil
}

func TestCachingProviderChannelStats(t *testing.T) {
	base := &stubProvider{stats: models.ChannelStats{TotalVideos: 3, TotalViews: 42}}
	cache := NewCachingProvider(base, time.Minute)
	channel := primitive.NewObjectID()

	ctx := context.Background()

	stats, err := cache.ChannelStats(ctx, channel)
	if err != nil {
		t.Fatalf("channel stats: %v", err)
	}
	if stats.TotalVideos != 3 || stats.TotalViews != 42 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if base.calls != 1 {
		t.Fatalf("expected base called once got %d", base.calls)
	}

	if _, err := cache.ChannelStats(ctx, channel); err != nil {
		t.Fatalf("channel stats: %v", err)
	}
	if base.calls != 1 {
		t.Fatalf("expected cached result got %d calls", base.calls)
	}

	if _, err := cache.ChannelStats(ctx, primitive.NewObjectID()); err != nil {
		t.Fatalf("channel stats: %v", err)
	}
	if base.calls != 2 {
		t.Fatalf("expected per-channel entries got %d calls", base.calls)
	}
}

func TestCachingProviderErrorsAreNotCached(t *testing.T) {
	base := &stubProvider{err: errors.New("boom")}
	cache := NewCachingProvider(base, time.Minute)
	channel := primitive.NewObjectID()

	if _, err := cache.ChannelStats(context.Background(), channel); err == nil {
		t.Fatal("expected error")
	}
	if _, err := cache.ChannelStats(context.Background(), channel); err == nil {
		t.Fatal("expected error")
	}
	if base.calls != 2 {
		t.Fatalf("expected errors to bypass cache got %d calls", base.calls)
	}
}

func TestCachingProviderExpiry(t *testing.T) {
	base := &stubProvider{stats: models.ChannelStats{TotalVideos: 1}}
	cache := NewCachingProvider(base, time.Millisecond)
	channel := primitive.NewObjectID()

	if _, err := cache.ChannelStats(context.Background(), channel); err != nil {
		t.Fatalf("channel stats: %v", err)
	}

	time.Sleep(2 * time.Millisecond)

	if _, err := cache.ChannelStats(context.Background(), channel); err != nil {
		t.Fatalf("channel stats: %v", err)
	}
	if base.calls != 2 {
		t.Fatalf("expected cache miss after expiry got %d calls", base.calls)
	}
}

func TestCachingProviderDefaultTTL(t *testing.T) {
	cache := NewCachingProvider(&stubProvider{}, 0)
	if cache.ttl <= 0 {
		t.Fatalf("expected ttl to default positive got %v", cache.ttl)
	}
}
