package repositories

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/videotube/backend/internal/models"
)

// The latest-video join must hand back rows shaped like a listing: the raw
// owner id has to be replaced by the looked-up profile before decoding, or
// cursor.All fails for every subscriber of a channel with a published video.
func TestSubscribedChannelRowDecodes(t *testing.T) {
	channelID := primitive.NewObjectID()
	videoID := primitive.NewObjectID()
	avatar := bson.D{{Key: "url", Value: "https://cdn.test/avatars/grace"}, {Key: "publicId", Value: "avatars/grace"}}
	ownerDoc := bson.D{
		{Key: "_id", Value: channelID},
		{Key: "username", Value: "grace"},
		{Key: "fullName", Value: "Grace Hopper"},
		{Key: "avatar", Value: avatar},
	}

	row := bson.D{
		{Key: "_id", Value: channelID},
		{Key: "username", Value: "grace"},
		{Key: "fullName", Value: "Grace Hopper"},
		{Key: "avatar", Value: avatar},
		{Key: "latestVideo", Value: bson.D{
			{Key: "_id", Value: videoID},
			{Key: "title", Value: "compilers"},
			{Key: "description", Value: "a talk"},
			{Key: "thumbnail", Value: bson.D{{Key: "url", Value: "https://cdn.test/thumbnails/c"}, {Key: "publicId", Value: "thumbnails/c"}}},
			{Key: "duration", Value: 12.5},
			{Key: "views", Value: int64(3)},
			{Key: "createdAt", Value: time.Now().UTC().Truncate(time.Millisecond)},
			{Key: "owner", Value: ownerDoc},
		}},
	}

	cursor, err := mongo.NewCursorFromDocuments([]interface{}{row}, nil, nil)
	if err != nil {
		t.Fatalf("NewCursorFromDocuments: %v", err)
	}

	channels := []SubscribedChannel{}
	if err := cursor.All(t.Context(), &channels); err != nil {
		t.Fatalf("decode subscribed channels: %v", err)
	}
	if len(channels) != 1 {
		t.Fatalf("rows = %d, want 1", len(channels))
	}

	got := channels[0]
	if got.LatestVideo == nil {
		t.Fatal("latestVideo not decoded")
	}
	if got.LatestVideo.Owner == nil || got.LatestVideo.Owner.Username != "grace" {
		t.Errorf("latestVideo.owner = %+v, want profile for grace", got.LatestVideo.Owner)
	}
	if got.LatestVideo.Views != 3 {
		t.Errorf("latestVideo.views = %d, want 3", got.LatestVideo.Views)
	}
	if (got.Avatar != models.MediaAsset{URL: "https://cdn.test/avatars/grace", PublicID: "avatars/grace"}) {
		t.Errorf("avatar = %+v, want cdn asset", got.Avatar)
	}
}

func TestLatestVideoPipelineResolvesOwner(t *testing.T) {
	pl := latestVideoPipeline()

	limitIdx, lookupIdx, projectIdx := -1, -1, -1
	var lookupSpec bson.D
	var projectFields bson.D
	for i, stage := range pl {
		switch stage[0].Key {
		case "$limit":
			limitIdx = i
		case "$lookup":
			lookupIdx = i
			lookupSpec = stage[0].Value.(bson.D)
		case "$project":
			projectIdx = i
			projectFields = stage[0].Value.(bson.D)
		}
	}

	if lookupIdx == -1 {
		t.Fatal("no owner lookup stage")
	}
	if limitIdx == -1 || limitIdx > lookupIdx {
		t.Errorf("$limit at %d, $lookup at %d: only one video's owner should be joined", limitIdx, lookupIdx)
	}
	for _, field := range lookupSpec {
		if field.Key == "as" && field.Value != "owner" {
			t.Errorf("lookup as = %v, want owner", field.Value)
		}
	}

	if projectIdx == -1 || projectIdx < lookupIdx {
		t.Fatal("owner projection must follow the lookup")
	}
	found := false
	for _, field := range projectFields {
		if field.Key == "owner" {
			found = true
		}
	}
	if !found {
		t.Error("projection drops the resolved owner")
	}
}
