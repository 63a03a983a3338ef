package subscriptions

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/subtrack/internal/client/models"
)

// ErrNotFound is returned when no cached subscription has the given id.
var ErrNotFound = errors.New("subscription not found")

// Repository is the local dashboard cache of subscriptions.
type Repository interface {
	// Upsert stores sub under its ID, replacing any previous copy.
	Upsert(ctx context.Context, userID string, sub *models.Subscription) error

	// GetAll returns the visible cached subscriptions of userID, oldest first.
	GetAll(ctx context.Context, userID string) ([]models.Subscription, error)

	// GetByID returns a cached subscription, hidden or not.
	GetByID(ctx context.Context, id string) (*models.Subscription, error)

	// UpdateStatus rewrites the status of a cached subscription.
	UpdateStatus(ctx context.Context, id string, status models.Status) error

	// Hide keeps the row but takes it off the dashboard. Later upserts of
	// the same id stay hidden.
	Hide(ctx context.Context, id string) error

	// HiddenIDs returns the ids of userID's hidden subscriptions.
	HiddenIDs(ctx context.Context, userID string) (map[string]struct{}, error)

	// Clear drops the whole cache.
	Clear(ctx context.Context) error
}
