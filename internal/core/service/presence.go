package service

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/paradoks/streeplijst-backend/internal/api/metrics"
	"github.com/paradoks/streeplijst-backend/internal/core/domain"
)

// subscriberBuffer bounds each subscriber channel. A slow subscriber drops
// updates instead of blocking the watcher.
const subscriberBuffer = 8

// PresenceTracker is the single-slot store for the card presence fact. The
// card watcher is its only writer; request handlers and websocket
// subscribers read it concurrently. The fact is replaced wholesale under
// the lock, so readers never observe a half-updated fact.
//
// PresenceTracker implements ports.CardObserver.
type PresenceTracker struct {
	mu   sync.RWMutex
	fact *domain.CardPresence // nil until the first card is seen

	subMu sync.Mutex
	subs  map[chan domain.CardPresence]struct{}

	now func() time.Time
	log zerolog.Logger
}

func NewPresenceTracker(log zerolog.Logger) *PresenceTracker {
	return &PresenceTracker{
		subs: make(map[chan domain.CardPresence]struct{}),
		now:  time.Now,
		log:  log.With().Str("component", "presence").Logger(),
	}
}

// CardInserted replaces the presence fact with the newly seen card. The
// previous fact, if any, is overwritten; connected_at is the insertion
// time of the new card.
func (t *PresenceTracker) CardInserted(uid string) {
	fact := domain.CardPresence{
		CardUID:     uid,
		Connected:   true,
		ConnectedAt: t.now(),
	}

	t.mu.Lock()
	t.fact = &fact
	t.mu.Unlock()

	metrics.CardEventsTotal.WithLabelValues("inserted").Inc()
	t.log.Info().Str("card_uid", uid).Msg("card inserted")
	t.publish(fact)
}

// CardRemoved soft-marks the current fact as disconnected. The UID and
// connected_at are kept so "last seen" queries keep working; removal
// without a prior insertion is a no-op.
func (t *PresenceTracker) CardRemoved() {
	t.mu.Lock()
	if t.fact == nil {
		t.mu.Unlock()
		return
	}
	updated := *t.fact
	updated.Connected = false
	t.fact = &updated
	t.mu.Unlock()

	metrics.CardEventsTotal.WithLabelValues("removed").Inc()
	t.log.Info().Str("card_uid", updated.CardUID).Msg("card removed")
	t.publish(updated)
}

// Current returns a snapshot of the presence fact and whether one exists.
func (t *PresenceTracker) Current() (domain.CardPresence, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.fact == nil {
		return domain.CardPresence{}, false
	}
	return *t.fact, true
}

// WasRecentlyConnected reports whether the last seen card is recent enough.
// A nil maxAgeSeconds means any card ever seen qualifies. Recency is about
// "last seen", not "currently inserted": the connected flag is deliberately
// not consulted, so a card pulled two seconds ago still reads as recent.
func (t *PresenceTracker) WasRecentlyConnected(maxAgeSeconds *int) bool {
	fact, ok := t.Current()
	if !ok {
		return false
	}
	if maxAgeSeconds == nil {
		return true
	}
	maxAge := time.Duration(*maxAgeSeconds) * time.Second
	return t.now().Sub(fact.ConnectedAt) <= maxAge
}

// LastConnected returns the presence fact when it passes the recency check,
// or domain.ErrNoRecentCard.
func (t *PresenceTracker) LastConnected(maxAgeSeconds *int) (domain.CardPresence, error) {
	fact, ok := t.Current()
	if !ok || !t.WasRecentlyConnected(maxAgeSeconds) {
		return domain.CardPresence{}, domain.ErrNoRecentCard
	}
	return fact, nil
}

// Subscribe registers a channel that receives every subsequent presence
// change. The returned cancel func unregisters and closes the channel.
func (t *PresenceTracker) Subscribe() (<-chan domain.CardPresence, func()) {
	ch := make(chan domain.CardPresence, subscriberBuffer)

	t.subMu.Lock()
	t.subs[ch] = struct{}{}
	t.subMu.Unlock()

	cancel := func() {
		t.subMu.Lock()
		if _, ok := t.subs[ch]; ok {
			delete(t.subs, ch)
			close(ch)
		}
		t.subMu.Unlock()
	}
	return ch, cancel
}

func (t *PresenceTracker) publish(fact domain.CardPresence) {
	t.subMu.Lock()
	defer t.subMu.Unlock()
	for ch := range t.subs {
		select {
		case ch <- fact:
		default:
			t.log.Warn().Msg("presence subscriber is not keeping up, update dropped")
		}
	}
}
