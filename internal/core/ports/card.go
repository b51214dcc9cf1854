package ports

import (
	"context"

	"github.com/paradoks/streeplijst-backend/internal/core/domain"
)

// AssociationRepository persists username to card-UID associations.
type AssociationRepository interface {
	// Get returns the association for username, or domain.ErrAssociationNotFound.
	Get(ctx context.Context, username string) (*domain.Association, error)
	// Upsert creates or overwrites the association for username. It fails
	// with domain.ErrCardUIDConflict when cardUID already belongs to a
	// different username. Re-posting the same username replaces that
	// user's own card.
	Upsert(ctx context.Context, username, cardUID string) (*domain.Association, error)
	// Delete removes the association, or returns domain.ErrAssociationNotFound.
	Delete(ctx context.Context, username string) error
	// ListAll returns every association in a stable order.
	ListAll(ctx context.Context) ([]domain.Association, error)
}

// CardObserver receives card events from a CardMonitor. Both methods are
// invoked from the monitor's goroutine, never concurrently with each other.
type CardObserver interface {
	// CardInserted is called with the card UID in vendor hex form,
	// e.g. "04 A2 24 5B 12 63 80".
	CardInserted(uid string)
	// CardRemoved is called when the previously inserted card is pulled.
	CardRemoved()
}

// CardMonitor blocks on a hardware card reader and delivers insert/remove
// events to an observer. Watch returns when ctx is cancelled or on a
// monitor-level failure; the caller is expected to restart it.
type CardMonitor interface {
	Watch(ctx context.Context, obs CardObserver) error
}
