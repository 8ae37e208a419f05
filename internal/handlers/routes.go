package handlers

import (
	"net/http"

	"github.com/videotube/backend/internal/media"
	"github.com/videotube/backend/internal/middleware"
	"github.com/videotube/backend/internal/repositories"
	"github.com/videotube/backend/internal/stats"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users         repositories.UserRepository
	Videos        repositories.VideoRepository
	Comments      repositories.CommentRepository
	Likes         repositories.LikeRepository
	Tweets        repositories.TweetRepository
	Playlists     repositories.PlaylistRepository
	Subscriptions repositories.SubscriptionRepository
	Stats         stats.Provider

	Tokens   TokenIssuer
	Verifier middleware.TokenVerifier
	Media    media.Host
	Cleanup  CleanupQueue
	Limiter  RateLimiter
}

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	users := UserHandler{Users: deps.Users, Tokens: deps.Tokens, Media: deps.Media, Cleanup: deps.Cleanup, Limiter: deps.Limiter}
	videos := VideoHandler{Videos: deps.Videos, Users: deps.Users, Media: deps.Media, Cleanup: deps.Cleanup}
	comments := CommentHandler{Comments: deps.Comments, Videos: deps.Videos, Cleanup: deps.Cleanup}
	likes := LikeHandler{Likes: deps.Likes}
	tweets := TweetHandler{Tweets: deps.Tweets, Cleanup: deps.Cleanup}
	playlists := PlaylistHandler{Playlists: deps.Playlists, Videos: deps.Videos}
	subscriptions := SubscriptionHandler{Subscriptions: deps.Subscriptions}
	dashboard := DashboardHandler{Provider: deps.Stats, VideoRepo: deps.Videos}

	requireAuth := middleware.RequireAuth(deps.Verifier, deps.Users, func(w http.ResponseWriter, r *http.Request, message string) {
		respondError(r.Context(), w, unauthorized(message))
	})
	protected := func(h http.HandlerFunc) http.Handler {
		return requireAuth(h)
	}

	mux.HandleFunc("GET /healthz", health.Handle)

	mux.HandleFunc("POST /api/v1/users/register", users.Register)
	mux.HandleFunc("POST /api/v1/users/login", users.Login)
	mux.HandleFunc("POST /api/v1/users/refresh-token", users.RefreshToken)
	mux.Handle("POST /api/v1/users/logout", protected(users.Logout))
	mux.Handle("POST /api/v1/users/change-password", protected(users.ChangePassword))
	mux.Handle("GET /api/v1/users/current-user", protected(users.CurrentUser))
	mux.Handle("PATCH /api/v1/users/update-account", protected(users.UpdateAccount))
	mux.Handle("PATCH /api/v1/users/avatar", protected(users.UpdateAvatar))
	mux.Handle("PATCH /api/v1/users/cover-image", protected(users.UpdateCoverImage))
	mux.Handle("GET /api/v1/users/c/{username}", protected(users.ChannelProfile))
	mux.Handle("GET /api/v1/users/history", protected(users.WatchHistory))

	mux.Handle("GET /api/v1/videos", protected(videos.List))
	mux.Handle("POST /api/v1/videos", protected(videos.Publish))
	mux.Handle("GET /api/v1/videos/{videoId}", protected(videos.Get))
	mux.Handle("PATCH /api/v1/videos/{videoId}", protected(videos.Update))
	mux.Handle("DELETE /api/v1/videos/{videoId}", protected(videos.Delete))
	mux.Handle("PATCH /api/v1/videos/toggle/publish/{videoId}", protected(videos.TogglePublish))

	mux.Handle("GET /api/v1/comments/{videoId}", protected(comments.List))
	mux.Handle("POST /api/v1/comments/{videoId}", protected(comments.Add))
	mux.Handle("PATCH /api/v1/comments/c/{commentId}", protected(comments.Update))
	mux.Handle("DELETE /api/v1/comments/c/{commentId}", protected(comments.Delete))

	mux.Handle("POST /api/v1/likes/toggle/v/{videoId}", protected(likes.ToggleVideo))
	mux.Handle("POST /api/v1/likes/toggle/c/{commentId}", protected(likes.ToggleComment))
	mux.Handle("POST /api/v1/likes/toggle/t/{tweetId}", protected(likes.ToggleTweet))
	mux.Handle("GET /api/v1/likes/videos", protected(likes.LikedVideos))

	mux.Handle("POST /api/v1/tweets", protected(tweets.Create))
	mux.Handle("GET /api/v1/tweets/user/{userId}", protected(tweets.ForUser))
	mux.Handle("PATCH /api/v1/tweets/{tweetId}", protected(tweets.Update))
	mux.Handle("DELETE /api/v1/tweets/{tweetId}", protected(tweets.Delete))

	mux.Handle("POST /api/v1/playlist", protected(playlists.Create))
	mux.Handle("GET /api/v1/playlist/{playlistId}", protected(playlists.Get))
	mux.Handle("PATCH /api/v1/playlist/{playlistId}", protected(playlists.Update))
	mux.Handle("DELETE /api/v1/playlist/{playlistId}", protected(playlists.Delete))
	mux.Handle("GET /api/v1/playlist/user/{userId}", protected(playlists.ForUser))
	mux.Handle("PATCH /api/v1/playlist/add/{videoId}/{playlistId}", protected(playlists.AddVideo))
	mux.Handle("PATCH /api/v1/playlist/remove/{videoId}/{playlistId}", protected(playlists.RemoveVideo))

	mux.Handle("POST /api/v1/subscriptions/c/{channelId}", protected(subscriptions.Toggle))
	mux.Handle("GET /api/v1/subscriptions/c/{channelId}", protected(subscriptions.Subscribers))
	mux.Handle("GET /api/v1/subscriptions/u/{subscriberId}", protected(subscriptions.SubscribedChannels))

	mux.Handle("GET /api/v1/dashboard/stats", protected(dashboard.Stats))
	mux.Handle("GET /api/v1/dashboard/videos", protected(dashboard.Videos))
}
