// Package route consumes completed capability calls and lands each result
// where its operation promised: pasted over the selection or appended to a
// chat session.
package route

import (
	"context"
	"strings"

	"github.com/scribeapp/scribe/internal/application/chat"
	"github.com/scribeapp/scribe/internal/domain"
	"github.com/scribeapp/scribe/internal/ports"
)

// Router is the single consumer of the execution core's delivery stream.
// Staleness is decided here, at the consuming end: a delivery whose sequence
// number is no longer current for its correlation is dropped before any
// side effect.
type Router struct {
	core     ports.ExecutionCore
	bridge   ports.ClipboardBridge
	chats    *chat.Manager
	surface  ports.Surface
	notifier ports.Notifier
	log      ports.Logger
}

// NewRouter wires the delivery consumer.
func NewRouter(core ports.ExecutionCore, bridge ports.ClipboardBridge, chats *chat.Manager, surface ports.Surface, notifier ports.Notifier, log ports.Logger) *Router {
	return &Router{
		core:     core,
		bridge:   bridge,
		chats:    chats,
		surface:  surface,
		notifier: notifier,
		log:      log,
	}
}

// Run consumes deliveries until ctx is cancelled or the stream closes.
func (r *Router) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-r.core.Deliveries():
			if !ok {
				return
			}
			r.Deliver(d)
		}
	}
}

// Deliver lands one completed request.
func (r *Router) Deliver(d domain.Delivery) {
	if current := r.core.Current(d.Request.CorrelationID); d.Seq != current {
		r.log.Debug("dropping stale delivery", map[string]interface{}{
			"operation": d.Request.OperationName,
			"seq":       d.Seq,
			"current":   current,
		})
		return
	}
	if d.Err != nil {
		r.deliverError(d)
		return
	}
	switch d.Request.Mode {
	case domain.DeliveryReplace:
		r.deliverReplace(d)
	case domain.DeliveryWindow:
		r.deliverWindow(d)
	}
}

func (r *Router) deliverError(d domain.Delivery) {
	kind := domain.KindOf(d.Err)
	if kind == domain.ErrKindCancelled {
		// Superseded or shut down; the user already moved on.
		return
	}
	r.log.Error("capability request failed", d.Err, map[string]interface{}{
		"operation": d.Request.OperationName,
		"kind":      string(kind),
	})
	if d.Request.Mode == domain.DeliveryWindow {
		r.surface.ShowError(d.Request.SessionID, kind, userMessage(kind, d.Err))
		return
	}
	r.notifier.Notify(d.Request.OperationName, userMessage(kind, d.Err))
}

// deliverReplace pastes the result over the original selection. The bridge
// stays locked for the whole write-and-paste so a concurrent capture cannot
// interleave. The clipboard is deliberately not restored afterwards: the
// paste needs the result to still be on it. The paste lands in whatever
// window has focus at that moment, which may not be where the text was
// captured.
func (r *Router) deliverReplace(d domain.Delivery) {
	text := strings.TrimRight(d.Text, "\n")
	if strings.Contains(text, domain.IncompatibleOutputMarker) {
		r.notifier.Notify(d.Request.OperationName, domain.ErrIncompatibleTransformation.Error())
		return
	}
	if text == "" {
		r.notifier.Notify(d.Request.OperationName, "The model returned nothing to paste.")
		return
	}

	r.bridge.Lock()
	defer r.bridge.Unlock()
	if err := r.bridge.WriteAll(text); err != nil {
		r.log.Error("clipboard write failed", err, nil)
		r.notifier.Notify(d.Request.OperationName, "Could not write the result to the clipboard.")
		return
	}
	if err := r.bridge.PressPaste(); err != nil {
		r.log.Error("paste keystroke failed", err, nil)
		r.notifier.Notify(d.Request.OperationName, "The result is on the clipboard; paste it manually.")
	}
}

func (r *Router) deliverWindow(d domain.Delivery) {
	turn, err := r.chats.AppendAssistant(d.Request.SessionID, d.Text)
	if err != nil {
		r.log.Error("session append failed", err, map[string]interface{}{"session": d.Request.SessionID})
		return
	}
	r.surface.AppendTurn(d.Request.SessionID, turn)
	op := d.Request.OperationName
	r.chats.SaveAsync(d.Request.SessionID, func(err error) {
		if err != nil {
			r.notifier.Notify(op, userMessage(domain.KindOf(err), err))
		}
	})
}

func userMessage(kind domain.ErrorKind, err error) string {
	switch kind {
	case domain.ErrKindTransient:
		return "The AI backend is temporarily unavailable. Try again in a moment."
	case domain.ErrKindFatal:
		return "The AI request failed: " + err.Error()
	case domain.ErrKindPersistence:
		return "The result arrived but could not be saved."
	default:
		return err.Error()
	}
}
