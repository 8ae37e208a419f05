package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names used across the service. Repositories and pipeline
// lookups must agree on these, so they live in one place.
const (
	UsersCollection         = "users"
	VideosCollection        = "videos"
	CommentsCollection      = "comments"
	LikesCollection         = "likes"
	TweetsCollection        = "tweets"
	PlaylistsCollection     = "playlists"
	SubscriptionsCollection = "subscriptions"
)

const connectTimeout = 10 * time.Second

// Store owns the MongoDB client lifecycle and exposes the service database.
type Store struct {
	client   *mongo.Client
	database *mongo.Database
}

// Connect establishes a MongoDB connection and verifies it with a ping.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	return &Store{
		client:   client,
		database: client.Database(database),
	}, nil
}

// NewStore wraps an existing client. Connect is the usual entry point; this
// exists for tests that bring their own client.
func NewStore(client *mongo.Client, database string) *Store {
	return &Store{
		client:   client,
		database: client.Database(database),
	}
}

// Database returns the underlying service database.
func (s *Store) Database() *mongo.Database {
	return s.database
}

// Collection returns a handle for the named collection.
func (s *Store) Collection(name string) *mongo.Collection {
	return s.database.Collection(name)
}

// Close disconnects the underlying client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
