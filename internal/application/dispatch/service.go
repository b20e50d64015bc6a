// Package dispatch turns hotkey triggers into scheduled capability calls.
package dispatch

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/scribeapp/scribe/internal/application/chat"
	"github.com/scribeapp/scribe/internal/domain"
	"github.com/scribeapp/scribe/internal/ports"
)

// Trigger spam guard: this many triggers inside the window ignores the rest.
const (
	spamTriggerCount  = 3
	spamTriggerWindow = 1500 * time.Millisecond
)

// Dispatcher drives the capture-pick-submit path. The provider snapshot is
// held behind an atomic pointer so a settings reload swaps it without
// pausing in-flight requests.
type Dispatcher struct {
	capturer ports.Capturer
	picker   ports.OperationPicker
	core     ports.ExecutionCore
	chats    *chat.Manager
	surface  ports.Surface
	notifier ports.Notifier
	log      ports.Logger

	operations []domain.Operation
	defaultOp  domain.Operation
	hasDefault bool
	state      atomic.Pointer[domain.ProviderState]

	mu       sync.Mutex
	triggers []time.Time
	lastCorr string
	now      func() time.Time
	newID    func() string
}

// NewDispatcher wires the trigger pipeline.
func NewDispatcher(
	capturer ports.Capturer,
	picker ports.OperationPicker,
	core ports.ExecutionCore,
	chats *chat.Manager,
	surface ports.Surface,
	notifier ports.Notifier,
	cfg domain.Config,
	state domain.ProviderState,
	log ports.Logger,
) *Dispatcher {
	d := &Dispatcher{
		capturer:   capturer,
		picker:     picker,
		core:       core,
		chats:      chats,
		surface:    surface,
		notifier:   notifier,
		log:        log,
		operations: cfg.Operations,
		now:        time.Now,
		newID:      uuid.NewString,
	}
	d.defaultOp, d.hasDefault = cfg.DefaultOperation()
	d.state.Store(&state)
	return d
}

// ReplaceProviderState installs a new capability snapshot. Requests already
// submitted keep the snapshot they were built from.
func (d *Dispatcher) ReplaceProviderState(state domain.ProviderState) {
	d.state.Store(&state)
}

// HandleTrigger runs one hotkey activation end to end: capture, operation
// choice, submission. It returns the chat session id when the trigger opened
// one, so the interactive loop can direct follow-up input there.
func (d *Dispatcher) HandleTrigger(ctx context.Context) (sessionID string, err error) {
	if d.spamGuard() {
		d.log.Debug("trigger ignored by spam guard", nil)
		if corr := d.pendingCorrelation(); corr != "" {
			d.core.CancelCorrelation(corr)
		}
		return "", nil
	}

	captured, err := d.capturer.Capture(ctx)
	if err != nil {
		d.notifier.Notify("Capture failed", err.Error())
		return "", err
	}
	if captured.Status == domain.CaptureTimeout || !captured.HasText() {
		return d.openDefaultChat()
	}

	op, change, ok, err := d.picker.Pick(ctx, d.operations, captured)
	if err != nil {
		d.notifier.Notify("Operation selection failed", err.Error())
		return "", err
	}
	if !ok {
		return "", nil
	}
	return d.Dispatch(op, captured, change)
}

// openDefaultChat starts an empty chat session when the trigger captured
// nothing. No capability call happens until the user types.
func (d *Dispatcher) openDefaultChat() (string, error) {
	if !d.hasDefault {
		d.notifier.Notify("Nothing selected", "Select text before triggering, or configure a default chat operation.")
		return "", nil
	}
	session := d.chats.StartSession("", d.defaultOp.Name)
	d.surface.OpenSession(session)
	return session.ID, nil
}

// Dispatch schedules one operation against the captured text. For window
// operations it opens the backing session; replace operations are one-shot.
func (d *Dispatcher) Dispatch(op domain.Operation, captured domain.CaptureResult, change string) (string, error) {
	if op.Mode == domain.DeliveryReplace && !captured.HasText() {
		d.notifier.Notify(op.Name, domain.ErrEmptySelectionOnReplace.Error())
		return "", nil
	}

	prompt, err := op.RenderPrompt(captured.Text, change)
	if err != nil {
		d.notifier.Notify(op.Name, "Bad operation template: "+err.Error())
		return "", err
	}

	state := d.state.Load()
	req := domain.OperationRequest{
		OperationName:     op.Name,
		SystemInstruction: d.buildSystemInstruction(op, *state),
		Prompt:            prompt,
		Model:             state.ModelFor(op.Mode),
		Mode:              op.Mode,
	}
	if op.Mode == domain.DeliveryWindow {
		req.ReasoningEffort = state.ReasoningEffort
	}

	var sessionID string
	if op.Mode == domain.DeliveryWindow {
		session := d.chats.StartSession(captured.Text, op.Name)
		d.surface.OpenSession(session)
		sessionID = session.ID
		req.CorrelationID = session.ID
		req.SessionID = session.ID
	} else {
		req.CorrelationID = d.newID()
	}

	d.rememberCorrelation(req.CorrelationID)
	d.core.Submit(req)
	return sessionID, nil
}

// ChatSend submits a follow-up question on an open session. The new turn
// supersedes any in-flight request for the same session.
func (d *Dispatcher) ChatSend(sessionID, question string) error {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil
	}
	prompt, err := d.chats.ContinuationPrompt(sessionID, question)
	if err != nil {
		return err
	}
	turn, err := d.chats.AppendUser(sessionID, question)
	if err != nil {
		return err
	}
	d.surface.AppendTurn(sessionID, turn)

	state := d.state.Load()
	d.rememberCorrelation(sessionID)
	d.core.Submit(domain.OperationRequest{
		CorrelationID:     sessionID,
		SessionID:         sessionID,
		SystemInstruction: d.chatSystemInstruction(*state),
		Prompt:            prompt,
		Model:             state.ChatModel,
		ReasoningEffort:   state.ReasoningEffort,
		Mode:              domain.DeliveryWindow,
		Supersede:         true,
	})
	return nil
}

func (d *Dispatcher) rememberCorrelation(id string) {
	d.mu.Lock()
	d.lastCorr = id
	d.mu.Unlock()
}

func (d *Dispatcher) pendingCorrelation() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastCorr
}

// spamGuard reports whether this trigger should be swallowed. Holding the
// hotkey or mashing it fires many activations; only the window's first few
// proceed. A tripped guard also cancels whatever the previous trigger
// submitted, since a runaway repeat means the user no longer wants it.
func (d *Dispatcher) spamGuard() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	kept := d.triggers[:0]
	for _, t := range d.triggers {
		if now.Sub(t) < spamTriggerWindow {
			kept = append(kept, t)
		}
	}
	d.triggers = append(kept, now)
	return len(d.triggers) > spamTriggerCount
}

// buildSystemInstruction frames the request with ambient facts the model
// otherwise guesses wrong: date, host platform, model name and where the
// output will land.
func (d *Dispatcher) buildSystemInstruction(op domain.Operation, state domain.ProviderState) string {
	if op.Mode == domain.DeliveryWindow {
		return d.chatSystemInstruction(state)
	}
	var b strings.Builder
	b.WriteString(op.Instruction)
	fmt.Fprintf(&b, "\n\nToday's date is %s. You are the %s model on %s. Your output replaces the user's selection directly (delivery mode: replace), so output only the transformed text, with no preamble or explanation.",
		d.now().Format("2006-01-02"), state.TransformModel.Name, runtime.GOOS)
	return b.String()
}

func (d *Dispatcher) chatSystemInstruction(state domain.ProviderState) string {
	var b strings.Builder
	b.WriteString("You are a helpful assistant embedded in a desktop writing tool.")
	fmt.Fprintf(&b, " Today's date is %s. You are the %s model on %s, answering in a chat window (delivery mode: window).",
		d.now().Format("2006-01-02"), state.ChatModel.Name, runtime.GOOS)
	if state.ReasoningEffort != 0 {
		b.WriteString(" Think through the request before answering.")
	}
	b.WriteString(" Use Markdown formatting when it helps readability.")
	return b.String()
}
