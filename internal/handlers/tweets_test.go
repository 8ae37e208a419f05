package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/pipeline"
	"github.com/videotube/backend/internal/repositories"
)

type fakeTweetRepo struct {
	tweets map[primitive.ObjectID]models.Tweet
}

func newFakeTweetRepo(tweets ...models.Tweet) *fakeTweetRepo {
	repo := &fakeTweetRepo{tweets: make(map[primitive.ObjectID]models.Tweet)}
	for _, tw := range tweets {
		repo.tweets[tw.ID] = tw
	}
	return repo
}

func (f *fakeTweetRepo) Create(_ context.Context, tweet models.Tweet) (models.Tweet, error) {
	tweet.ID = primitive.NewObjectID()
	tweet.CreatedAt = time.Now().UTC()
	f.tweets[tweet.ID] = tweet
	return tweet, nil
}

func (f *fakeTweetRepo) FindByID(_ context.Context, id primitive.ObjectID) (models.Tweet, error) {
	tweet, ok := f.tweets[id]
	if !ok {
		return models.Tweet{}, repositories.ErrNotFound
	}
	return tweet, nil
}

func (f *fakeTweetRepo) UpdateContent(_ context.Context, id primitive.ObjectID, content string) (models.Tweet, error) {
	tweet, ok := f.tweets[id]
	if !ok {
		return models.Tweet{}, repositories.ErrNotFound
	}
	tweet.Content = content
	f.tweets[id] = tweet
	return tweet, nil
}

func (f *fakeTweetRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := f.tweets[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.tweets, id)
	return nil
}

func (f *fakeTweetRepo) ForUser(_ context.Context, owner, _ primitive.ObjectID, req pipeline.PageRequest) (pipeline.Page[repositories.TweetListing], error) {
	var items []repositories.TweetListing
	for _, tweet := range f.tweets {
		if tweet.Owner == owner {
			items = append(items, repositories.TweetListing{ID: tweet.ID, Content: tweet.Content})
		}
	}
	return pipeline.NewPage(items, int64(len(items)), req), nil
}

func TestTweetCreate(t *testing.T) {
	user := testUser(t, "ada", "correct-horse")
	tweets := newFakeTweetRepo()
	h := TweetHandler{Tweets: tweets}

	req := authedRequest(httptest.NewRequest(http.MethodPost, "/api/v1/tweets",
		strings.NewReader(`{"content":"shipping today"}`)), user)
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	for _, tweet := range tweets.tweets {
		if tweet.Owner != user.ID {
			t.Errorf("owner = %s, want %s", tweet.Owner.Hex(), user.ID.Hex())
		}
	}
}

func TestTweetUpdateForbiddenForNonOwner(t *testing.T) {
	owner := testUser(t, "ada", "correct-horse")
	intruder := testUser(t, "mallory", "correct-horse")
	tweet := models.Tweet{ID: primitive.NewObjectID(), Content: "original", Owner: owner.ID}
	h := TweetHandler{Tweets: newFakeTweetRepo(tweet)}

	req := authedRequest(httptest.NewRequest(http.MethodPatch, "/api/v1/tweets/"+tweet.ID.Hex(),
		strings.NewReader(`{"content":"hijacked"}`)), intruder)
	req.SetPathValue("tweetId", tweet.ID.Hex())
	rec := httptest.NewRecorder()

	h.Update(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestTweetDeleteQueuesCleanup(t *testing.T) {
	owner := testUser(t, "ada", "correct-horse")
	tweet := models.Tweet{ID: primitive.NewObjectID(), Content: "original", Owner: owner.ID}
	tweets := newFakeTweetRepo(tweet)
	queue := &fakeCleanup{}
	h := TweetHandler{Tweets: tweets, Cleanup: queue}

	req := authedRequest(httptest.NewRequest(http.MethodDelete, "/api/v1/tweets/"+tweet.ID.Hex(), nil), owner)
	req.SetPathValue("tweetId", tweet.ID.Hex())
	rec := httptest.NewRecorder()

	h.Delete(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if len(queue.tweets) != 1 || queue.tweets[0] != tweet.ID {
		t.Errorf("cleanup queued for %v, want [%s]", queue.tweets, tweet.ID.Hex())
	}
}

func TestTweetForUser(t *testing.T) {
	owner := testUser(t, "ada", "correct-horse")
	tweet := models.Tweet{ID: primitive.NewObjectID(), Content: "hello", Owner: owner.ID}
	h := TweetHandler{Tweets: newFakeTweetRepo(tweet)}

	req := authedRequest(httptest.NewRequest(http.MethodGet, "/api/v1/tweets/user/"+owner.ID.Hex(), nil), owner)
	req.SetPathValue("userId", owner.ID.Hex())
	rec := httptest.NewRecorder()

	h.ForUser(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
}
