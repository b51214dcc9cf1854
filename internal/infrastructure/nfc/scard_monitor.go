// Package nfc implements ports.CardMonitor on top of PC/SC (pcscd) via the
// scard binding. The first available reader is used; no configuration is
// required.
package nfc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ebfe/scard"
	"github.com/rs/zerolog"

	"github.com/paradoks/streeplijst-backend/internal/api/metrics"
	"github.com/paradoks/streeplijst-backend/internal/core/ports"
)

// getUID is the APDU transmitted to read the card UID.
var getUID = []byte{0xFF, 0xCA, 0x00, 0x00, 0x00}

// statusPollTimeout bounds each GetStatusChange wait so cancellation of the
// watch context is noticed promptly.
const statusPollTimeout = time.Second

// Monitor watches the first available PC/SC reader for card insertions and
// removals. Failures to read an inserted card are logged and the event is
// dropped; only monitor-level failures (context, reader enumeration, status
// wait) end the watch and are left to the supervisor to recover.
type Monitor struct {
	log zerolog.Logger
}

var _ ports.CardMonitor = (*Monitor)(nil)

func NewMonitor(log zerolog.Logger) *Monitor {
	return &Monitor{log: log.With().Str("component", "scard").Logger()}
}

// Watch blocks delivering insert/remove events to obs until ctx is
// cancelled or the PC/SC layer fails.
func (m *Monitor) Watch(ctx context.Context, obs ports.CardObserver) error {
	sctx, err := scard.EstablishContext()
	if err != nil {
		return fmt.Errorf("nfc: establish context: %w", err)
	}
	defer sctx.Release()

	readers, err := sctx.ListReaders()
	if err != nil {
		return fmt.Errorf("nfc: list readers: %w", err)
	}
	if len(readers) == 0 {
		return errors.New("nfc: no card readers available")
	}
	reader := readers[0]
	m.log.Info().Str("reader", reader).Msg("watching card reader")

	states := []scard.ReaderState{{Reader: reader, CurrentState: scard.StateUnaware}}
	present := false

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := sctx.GetStatusChange(states, statusPollTimeout)
		if errors.Is(err, scard.ErrTimeout) {
			continue
		}
		if err != nil {
			return fmt.Errorf("nfc: wait for status change: %w", err)
		}
		states[0].CurrentState = states[0].EventState

		nowPresent := states[0].EventState&scard.StatePresent != 0
		switch {
		case nowPresent && !present:
			present = true
			uid, err := m.readUID(sctx, reader)
			if err != nil {
				// Drop the event, keep observing.
				metrics.CardEventsTotal.WithLabelValues("read_failed").Inc()
				m.log.Warn().Err(err).Msg("failed to read inserted card, event dropped")
				continue
			}
			obs.CardInserted(uid)
		case !nowPresent && present:
			present = false
			obs.CardRemoved()
		}
	}
}

// readUID opens a transient connection to the inserted card, transmits the
// get-UID APDU, and formats the answer as vendor hex.
func (m *Monitor) readUID(sctx *scard.Context, reader string) (string, error) {
	card, err := sctx.Connect(reader, scard.ShareShared, scard.ProtocolAny)
	if err != nil {
		return "", fmt.Errorf("connect card: %w", err)
	}
	defer card.Disconnect(scard.LeaveCard)

	resp, err := card.Transmit(getUID)
	if err != nil {
		return "", fmt.Errorf("transmit get-uid: %w", err)
	}
	// The response is the UID followed by the SW1/SW2 status word.
	if len(resp) < 2 {
		return "", fmt.Errorf("short get-uid response: % X", resp)
	}
	sw1, sw2 := resp[len(resp)-2], resp[len(resp)-1]
	if sw1 != 0x90 || sw2 != 0x00 {
		return "", fmt.Errorf("get-uid rejected: SW %02X %02X", sw1, sw2)
	}
	return toHexString(resp[:len(resp)-2]), nil
}

// toHexString renders bytes the way the reader vendor tooling does:
// uppercase hex, space separated, e.g. "04 A2 24 5B 12 63 80".
func toHexString(b []byte) string {
	parts := make([]string, len(b))
	for i, v := range b {
		parts[i] = fmt.Sprintf("%02X", v)
	}
	return strings.Join(parts, " ")
}
