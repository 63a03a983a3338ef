package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/dmitrijs2005/subtrack/internal/client/client"
	"github.com/dmitrijs2005/subtrack/internal/client/models"
	"github.com/dmitrijs2005/subtrack/internal/client/repositories/subscriptions"
	"github.com/dmitrijs2005/subtrack/internal/logging"
)

var (
	// ErrServedFromCache accompanies a List result that came from the local
	// cache because the server could not be reached or refused the call.
	ErrServedFromCache = errors.New("showing cached subscriptions")
	// ErrMissingID means the server accepted a subscription but returned no id.
	ErrMissingID = errors.New("response contains no subscription id")
)

// SubscriptionService drives the dashboard: remote calls plus the local
// cache that keeps the list available offline.
type SubscriptionService interface {
	// List returns the user's subscriptions: the server's list followed by
	// cached entries the server did not return. When the server call fails
	// the cached list is returned together with an error wrapping both
	// ErrServedFromCache and the cause.
	List(ctx context.Context, userID string) ([]models.Subscription, error)
	// Create validates sub, creates it remotely and caches the result.
	Create(ctx context.Context, userID string, sub *models.Subscription) (*models.Subscription, error)
	// Cancel cancels remotely and mirrors the new status into the cache.
	Cancel(ctx context.Context, id string) (*models.Subscription, error)
	// Remove hides a subscription from the dashboard. The server copy is
	// untouched and later List calls keep it hidden.
	Remove(ctx context.Context, id string) error
	// ClearCache forgets every cached subscription.
	ClearCache(ctx context.Context) error
}

type subscriptionService struct {
	api  client.API
	repo subscriptions.Repository
	log  logging.Logger
}

func NewSubscriptionService(api client.API, repo subscriptions.Repository, log logging.Logger) SubscriptionService {
	return &subscriptionService{
		api:  api,
		repo: repo,
		log:  logging.OrNop(log).With("component", "subscriptions"),
	}
}

func (s *subscriptionService) List(ctx context.Context, userID string) ([]models.Subscription, error) {
	if userID == "" {
		return nil, ErrNoSession
	}

	remote, rerr := s.fetch(ctx, userID)
	if rerr != nil {
		s.log.Warn(ctx, "list subscriptions failed, using cache", "status", client.StatusCode(rerr), "error", rerr)
		cached, cerr := s.repo.GetAll(ctx, userID)
		if cerr != nil {
			s.log.Error(ctx, "read subscription cache", "error", cerr)
			return nil, rerr
		}
		return cached, fmt.Errorf("%w: %w", ErrServedFromCache, rerr)
	}

	hidden, err := s.repo.HiddenIDs(ctx, userID)
	if err != nil {
		s.log.Error(ctx, "read hidden subscriptions", "error", err)
	}

	known := make(map[string]struct{}, len(remote))
	result := make([]models.Subscription, 0, len(remote))
	for i := range remote {
		known[remote[i].ID] = struct{}{}
		if remote[i].ID != "" {
			if err := s.repo.Upsert(ctx, userID, &remote[i]); err != nil {
				s.log.Warn(ctx, "cache subscription", "id", remote[i].ID, "error", err)
			}
		}
		if _, ok := hidden[remote[i].ID]; !ok {
			result = append(result, remote[i])
		}
	}

	cached, err := s.repo.GetAll(ctx, userID)
	if err != nil {
		s.log.Error(ctx, "read subscription cache", "error", err)
		return result, nil
	}

	for _, c := range cached {
		if _, ok := known[c.ID]; !ok {
			result = append(result, c)
		}
	}
	return result, nil
}

func (s *subscriptionService) fetch(ctx context.Context, userID string) ([]models.Subscription, error) {
	var raw json.RawMessage
	if err := s.api.Get(ctx, "/v1/subscriptions/user/"+url.PathEscape(userID), &raw); err != nil {
		return nil, err
	}

	data, err := client.UnwrapEnvelope(raw, "Failed to load subscriptions")
	if err != nil {
		return nil, err
	}

	var subs []models.Subscription
	if len(data) == 0 {
		return subs, nil
	}
	if err := json.Unmarshal(data, &subs); err != nil {
		return nil, &client.Error{Message: "Malformed response from server", Kind: client.ErrDecode, Cause: err}
	}
	return subs, nil
}

func (s *subscriptionService) Create(ctx context.Context, userID string, sub *models.Subscription) (*models.Subscription, error) {
	if sub.Status == "" {
		sub.Status = models.StatusActive
	}
	if err := sub.Validate(); err != nil {
		return nil, err
	}

	var raw json.RawMessage
	if err := s.api.Post(ctx, "/v1/subscriptions", sub, &raw); err != nil {
		return nil, err
	}

	created, err := decodeSubscription(raw, "Failed to create subscription")
	if err != nil {
		return nil, err
	}
	if created.ID == "" {
		return nil, ErrMissingID
	}

	if err := s.repo.Upsert(ctx, userID, created); err != nil {
		s.log.Warn(ctx, "cache subscription", "id", created.ID, "error", err)
	}
	return created, nil
}

func (s *subscriptionService) Cancel(ctx context.Context, id string) (*models.Subscription, error) {
	var raw json.RawMessage
	if err := s.api.Put(ctx, "/v1/subscriptions/"+url.PathEscape(id)+"/cancel", nil, &raw); err != nil {
		return nil, err
	}

	cancelled, err := decodeSubscription(raw, "Failed to cancel subscription")
	if err != nil {
		return nil, err
	}
	if cancelled.ID == "" {
		cancelled.ID = id
	}
	if cancelled.Status == "" {
		cancelled.Status = models.StatusCancelled
	}
	// A bare acknowledgement is completed from the cached copy.
	if cancelled.Name == "" {
		if cached, err := s.repo.GetByID(ctx, id); err == nil {
			cached.Status = cancelled.Status
			cancelled = cached
		}
	}

	err = s.repo.UpdateStatus(ctx, id, cancelled.Status)
	if err != nil && !errors.Is(err, subscriptions.ErrNotFound) {
		s.log.Warn(ctx, "update cached status", "id", id, "error", err)
	}
	return cancelled, nil
}

func (s *subscriptionService) Remove(ctx context.Context, id string) error {
	if err := s.repo.Hide(ctx, id); err != nil {
		return fmt.Errorf("remove subscription %s: %w", id, err)
	}
	return nil
}

func (s *subscriptionService) ClearCache(ctx context.Context) error {
	return s.repo.Clear(ctx)
}

func decodeSubscription(raw json.RawMessage, fallback string) (*models.Subscription, error) {
	data, err := client.UnwrapEnvelope(raw, fallback)
	if err != nil {
		return nil, err
	}

	sub := &models.Subscription{}
	if len(data) == 0 {
		return sub, nil
	}

	// Some endpoints nest the record: {"subscription": {...}}.
	var wrapped struct {
		Subscription *models.Subscription `json:"subscription"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.Subscription != nil {
		return wrapped.Subscription, nil
	}

	if err := json.Unmarshal(data, sub); err != nil {
		return nil, &client.Error{Message: "Malformed response from server", Kind: client.ErrDecode, Cause: err}
	}
	return sub, nil
}
