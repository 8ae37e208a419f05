package handlers

import (
	"net/http"

	"github.com/videotube/backend/internal/repositories"
)

// SubscriptionHandler implements channel subscription endpoints.
type SubscriptionHandler struct {
	Subscriptions repositories.SubscriptionRepository
}

// Toggle handles POST /api/v1/subscriptions/c/{channelId}.
func (h SubscriptionHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := principal(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	channelID, err := pathID(r, "channelId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if channelID == user.ID {
		respondError(ctx, w, badRequest("you cannot subscribe to your own channel"))
		return
	}

	subscribed, err := h.Subscriptions.Toggle(ctx, user.ID, channelID)
	if err != nil {
		respondError(ctx, w, internal("failed to toggle subscription", err))
		return
	}

	message := "unsubscribed"
	if subscribed {
		message = "subscribed"
	}
	respondJSON(ctx, w, http.StatusOK, map[string]bool{"subscribed": subscribed}, message)
}

// Subscribers handles GET /api/v1/subscriptions/c/{channelId}.
func (h SubscriptionHandler) Subscribers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if _, err := principal(ctx); err != nil {
		respondError(ctx, w, err)
		return
	}

	channelID, err := pathID(r, "channelId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	subscribers, err := h.Subscriptions.ChannelSubscribers(ctx, channelID)
	if err != nil {
		respondError(ctx, w, internal("failed to fetch subscribers", err))
		return
	}

	respondJSON(ctx, w, http.StatusOK, subscribers, "subscribers fetched successfully")
}

// SubscribedChannels handles GET /api/v1/subscriptions/u/{subscriberId}.
func (h SubscriptionHandler) SubscribedChannels(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if _, err := principal(ctx); err != nil {
		respondError(ctx, w, err)
		return
	}

	subscriberID, err := pathID(r, "subscriberId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	channels, err := h.Subscriptions.SubscribedChannels(ctx, subscriberID)
	if err != nil {
		respondError(ctx, w, internal("failed to fetch subscribed channels", err))
		return
	}

	respondJSON(ctx, w, http.StatusOK, channels, "subscribed channels fetched successfully")
}
