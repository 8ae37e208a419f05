package cleanup

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/videotube/backend/internal/logging"
	"github.com/videotube/backend/internal/media"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/repositories"
)

// Config controls the concurrency characteristics of the worker.
type Config struct {
	QueueSize int
	Workers   int
}

// Worker removes the documents and media files orphaned by a deletion. Jobs
// run off the request path so a delete responds as soon as the primary
// document is gone.
type Worker struct {
	store repositories.CleanupRepository
	host  media.Host
	log   *slog.Logger

	jobs   chan job
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

type job struct {
	kind    models.LikeKind
	target  primitive.ObjectID
	cascade bool
	assets  []string
}

var errWorkerClosed = errors.New("cleanup worker closed")

// NewWorker constructs a background worker pool for cascade deletions.
func NewWorker(store repositories.CleanupRepository, host media.Host, cfg Config, log *slog.Logger) *Worker {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if log == nil {
		log = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	w := &Worker{
		store:  store,
		host:   host,
		log:    log,
		jobs:   make(chan job, cfg.QueueSize),
		ctx:    ctx,
		cancel: cancel,
	}

	w.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go w.worker()
	}

	return w
}

// VideoDeleted schedules removal of everything hanging off a deleted video:
// its comments and their likes, its own likes, its watch history and playlist
// references, and its stored media files.
func (w *Worker) VideoDeleted(ctx context.Context, videoID primitive.ObjectID, assetIDs ...string) error {
	return w.enqueue(ctx, job{kind: models.LikeKindVideo, target: videoID, cascade: true, assets: assetIDs})
}

// CommentDeleted schedules removal of a deleted comment's likes.
func (w *Worker) CommentDeleted(ctx context.Context, commentID primitive.ObjectID) error {
	return w.enqueue(ctx, job{kind: models.LikeKindComment, target: commentID})
}

// TweetDeleted schedules removal of a deleted tweet's likes.
func (w *Worker) TweetDeleted(ctx context.Context, tweetID primitive.ObjectID) error {
	return w.enqueue(ctx, job{kind: models.LikeKindTweet, target: tweetID})
}

// AssetReplaced schedules deletion of a media file that is no longer
// referenced, such as a previous avatar.
func (w *Worker) AssetReplaced(ctx context.Context, assetIDs ...string) error {
	return w.enqueue(ctx, job{assets: assetIDs})
}

func (w *Worker) enqueue(ctx context.Context, j job) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-w.ctx.Done():
		return errWorkerClosed
	default:
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-w.ctx.Done():
		return errWorkerClosed
	case w.jobs <- j:
		return nil
	}
}

// Shutdown waits for the worker pool to drain outstanding jobs.
func (w *Worker) Shutdown(ctx context.Context) error {
	w.once.Do(func() {
		w.cancel()
		close(w.jobs)
	})

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// worker drains the queue until it is closed, so jobs accepted before
// Shutdown still run to completion.
func (w *Worker) worker() {
	defer w.wg.Done()

	for j := range w.jobs {
		w.handle(j)
	}
}

// handle runs with its own deadline: jobs outlive the request that queued
// them and must still finish during graceful shutdown.
func (w *Worker) handle(j job) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	ctx, span := logging.StartSpan(logging.WithLogger(ctx, w.log), spanName(j))
	defer span.End()

	if !j.target.IsZero() {
		if j.cascade {
			w.cascadeVideo(ctx, j.target)
		} else if _, err := w.store.DeleteLikes(ctx, j.kind, []primitive.ObjectID{j.target}); err != nil {
			w.log.Error("delete likes", "kind", j.kind, "target", j.target.Hex(), "error", err)
		}
	}

	w.deleteAssets(ctx, j.assets)
}

func spanName(j job) string {
	switch {
	case j.cascade:
		return "cleanup.video"
	case !j.target.IsZero():
		return "cleanup." + string(j.kind) + "_likes"
	default:
		return "cleanup.assets"
	}
}

func (w *Worker) cascadeVideo(ctx context.Context, videoID primitive.ObjectID) {
	commentIDs, err := w.store.DeleteVideoComments(ctx, videoID)
	if err != nil {
		w.log.Error("delete video comments", "video", videoID.Hex(), "error", err)
	}
	if len(commentIDs) > 0 {
		if _, err := w.store.DeleteLikes(ctx, models.LikeKindComment, commentIDs); err != nil {
			w.log.Error("delete comment likes", "video", videoID.Hex(), "error", err)
		}
	}

	if _, err := w.store.DeleteLikes(ctx, models.LikeKindVideo, []primitive.ObjectID{videoID}); err != nil {
		w.log.Error("delete video likes", "video", videoID.Hex(), "error", err)
	}

	if err := w.store.DetachVideo(ctx, videoID); err != nil {
		w.log.Error("detach video", "video", videoID.Hex(), "error", err)
	}
}

func (w *Worker) deleteAssets(ctx context.Context, assetIDs []string) {
	if w.host == nil {
		return
	}
	for _, id := range assetIDs {
		if id == "" {
			continue
		}
		if err := w.host.Delete(ctx, id); err != nil {
			w.log.Error("delete media asset", "asset", id, "error", err)
		}
	}
}
