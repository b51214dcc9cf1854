package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/paradoks/streeplijst-backend/internal/api/metrics"
	"github.com/paradoks/streeplijst-backend/internal/core/ports"
)

const defaultRestartDelay = 5 * time.Second

// CardWatcher supervises the hardware card monitor. It keeps the monitor
// running for the lifetime of the process: when the monitor fails it logs
// the failure and restarts it after a delay, so the system is never left
// permanently blind to card events. Monitor failures stay inside the
// watcher; they never reach request handling.
type CardWatcher struct {
	monitor      ports.CardMonitor
	observer     ports.CardObserver
	restartDelay time.Duration
	log          zerolog.Logger
}

func NewCardWatcher(monitor ports.CardMonitor, observer ports.CardObserver, log zerolog.Logger) *CardWatcher {
	return &CardWatcher{
		monitor:      monitor,
		observer:     observer,
		restartDelay: defaultRestartDelay,
		log:          log.With().Str("component", "card_watcher").Logger(),
	}
}

// Run blocks until ctx is cancelled, restarting the monitor on every
// unexpected return. It is intended to be started as a goroutine from main;
// on shutdown it is safe to abandon an in-flight hardware wait.
func (w *CardWatcher) Run(ctx context.Context) {
	w.log.Info().Msg("card watcher starting")
	for {
		err := w.monitor.Watch(ctx, w.observer)
		if ctx.Err() != nil {
			w.log.Info().Msg("card watcher stopped")
			return
		}
		if err == nil {
			err = errors.New("monitor returned without error")
		}
		metrics.MonitorRestartsTotal.Inc()
		w.log.Error().Err(err).Dur("restart_delay", w.restartDelay).
			Msg("card monitor failed, restarting")

		select {
		case <-ctx.Done():
			w.log.Info().Msg("card watcher stopped")
			return
		case <-time.After(w.restartDelay):
		}
	}
}
