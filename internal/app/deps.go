package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/cleanup"
	"github.com/videotube/backend/internal/config"
	"github.com/videotube/backend/internal/db"
	"github.com/videotube/backend/internal/handlers"
	"github.com/videotube/backend/internal/media"
	"github.com/videotube/backend/internal/middleware"
	"github.com/videotube/backend/internal/repositories"
	"github.com/videotube/backend/internal/stats"
)

// buildDependencies wires together concrete implementations used by the HTTP
// handlers, plus the cleanup worker whose lifecycle the caller owns.
func buildDependencies(ctx context.Context, store *db.Store, cfg config.Config, logger *slog.Logger) (handlers.Dependencies, *cleanup.Worker, error) {
	host, err := media.NewS3Host(ctx, cfg.ObjectStore)
	if err != nil {
		return handlers.Dependencies{}, nil, err
	}

	worker := cleanup.NewWorker(
		repositories.NewMongoCleanupRepository(store),
		host,
		cleanup.Config{QueueSize: cfg.CleanupQueueSize, Workers: cfg.CleanupWorkers},
		logger,
	)

	tokens := auth.NewTokenManager(cfg.AccessTokenSecret, cfg.RefreshTokenSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	deps := handlers.Dependencies{
		Users:         repositories.NewMongoUserRepository(store),
		Videos:        repositories.NewMongoVideoRepository(store),
		Comments:      repositories.NewMongoCommentRepository(store),
		Likes:         repositories.NewMongoLikeRepository(store),
		Tweets:        repositories.NewMongoTweetRepository(store),
		Playlists:     repositories.NewMongoPlaylistRepository(store),
		Subscriptions: repositories.NewMongoSubscriptionRepository(store),
		Stats:         stats.NewCachingProvider(repositories.NewMongoDashboardRepository(store), cfg.StatsCacheTTL),

		Tokens:   tokens,
		Verifier: tokens,
		Media:    host,
		Cleanup:  worker,
		Limiter:  middleware.NewIPRateLimiter(cfg.AuthRateLimit, cfg.AuthRateWindow, cfg.AuthRateLimit, 5*time.Minute),
	}
	return deps, worker, nil
}
