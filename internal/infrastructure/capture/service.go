// Package capture extracts the current selection from the foreground
// application via the clipboard, without permanently disturbing it.
package capture

import (
	"context"
	"fmt"
	"time"

	"github.com/scribeapp/scribe/internal/domain"
	"github.com/scribeapp/scribe/internal/ports"
)

// Sentinel written to the clipboard before the synthetic copy. Distinct from
// the empty string so "the selection was empty" (clipboard changed to "")
// is distinguishable from "nothing copied at all" (clipboard still holds the
// sentinel).
const sentinel = "⁣scribe:capture-pending⁣"

// Service implements ports.Capturer with the snapshot / sentinel / copy /
// poll / restore protocol. The whole protocol runs under the bridge lock so
// a concurrent paste cannot interleave.
type Service struct {
	Bridge   ports.ClipboardBridge
	Settings domain.CaptureSettings
	Logger   ports.Logger

	// sleep is swappable in tests.
	sleep func(time.Duration)
}

// NewService builds a capture service around the shared clipboard bridge.
func NewService(bridge ports.ClipboardBridge, settings domain.CaptureSettings, log ports.Logger) *Service {
	return &Service{Bridge: bridge, Settings: settings, Logger: log, sleep: time.Sleep}
}

// Capture runs the protocol within the configured wall-clock budget. The
// original clipboard snapshot is restored on every exit path. A clipboard
// change to a blank value is an empty selection; no change within the
// budget is a timeout, never an empty selection.
func (s *Service) Capture(ctx context.Context) (domain.CaptureResult, error) {
	s.Bridge.Lock()
	defer s.Bridge.Unlock()

	snapshot, err := s.Bridge.ReadAll()
	if err != nil {
		return domain.CaptureResult{Status: domain.CaptureTimeout}, fmt.Errorf("snapshot: %w", err)
	}
	defer func() {
		if restoreErr := s.Bridge.WriteAll(snapshot); restoreErr != nil {
			s.Logger.Warn("clipboard restore failed", map[string]interface{}{"error": restoreErr.Error()})
		}
	}()

	deadline := time.Now().Add(s.Settings.CaptureTimeout())
	ctx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	attempts := s.Settings.MaxAttempts
	for attempt := 0; attempt < attempts; attempt++ {
		text, ok, err := s.attempt(ctx, attempt)
		if err != nil {
			return domain.CaptureResult{Status: domain.CaptureTimeout}, err
		}
		if ok {
			result := domain.CaptureResult{Text: text, Status: domain.CaptureOK}
			if !result.HasText() {
				result.Status = domain.CaptureEmptySelection
			}
			return result, nil
		}
		if ctx.Err() != nil {
			break
		}
		s.Logger.Debug("capture attempt produced no clipboard change", map[string]interface{}{
			"attempt": attempt + 1,
		})
	}
	return domain.CaptureResult{Status: domain.CaptureTimeout}, nil
}

// attempt performs one sentinel/copy/poll round. The poll interval grows
// with the attempt number because a slow copy handler in the foreground
// application often responds on the second, more patient round.
func (s *Service) attempt(ctx context.Context, attempt int) (string, bool, error) {
	if err := s.Bridge.WriteAll(sentinel); err != nil {
		return "", false, fmt.Errorf("write sentinel: %w", err)
	}
	if err := s.Bridge.PressCopy(); err != nil {
		return "", false, fmt.Errorf("synthetic copy: %w", err)
	}

	interval := s.Settings.PollInterval() * time.Duration(attempt+1)
	// Per-attempt slice of the overall budget so a dead first attempt
	// leaves room for the retry.
	budget := s.Settings.CaptureTimeout() / time.Duration(s.Settings.MaxAttempts)
	attemptDeadline := time.Now().Add(budget)

	for {
		text, err := s.Bridge.ReadAll()
		if err != nil {
			return "", false, fmt.Errorf("poll clipboard: %w", err)
		}
		if text != sentinel {
			return text, true, nil
		}
		if ctx.Err() != nil || time.Now().After(attemptDeadline) {
			return "", false, nil
		}
		s.sleep(interval)
	}
}

var _ ports.Capturer = (*Service)(nil)
