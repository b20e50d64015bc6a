// Package ports defines the interfaces (ports) for the hexagonal architecture.
//
// This package establishes the contract between the application core and
// external adapters (infrastructure). Following the Ports and Adapters
// pattern, these interfaces keep the dispatch pipeline independent of the
// concrete clipboard, hotkey, AI backend and storage implementations.
package ports

import (
	"context"

	"github.com/scribeapp/scribe/internal/domain"
)

// ConfigProvider loads the latest configuration from persistent storage.
// Implementations typically read from ~/.scribe/config.yaml.
type ConfigProvider interface {
	Load(context.Context) (domain.Config, error)
}

// Provider is the AI capability boundary: one inference backend invoked with
// a system instruction and a prompt. Exactly one provider serves any given
// request; failures are classified via domain.CapabilityError.
type Provider interface {
	Name() string
	Model() domain.ModelDefinition
	Invoke(context.Context, InvokeRequest) (string, error)
}

// InvokeRequest carries everything a provider needs for one generation.
type InvokeRequest struct {
	SystemInstruction string
	Prompt            string
	ReasoningEffort   int
}

// ProviderFactory builds provider instances from model definitions. The
// factory infers the wire adapter from the endpoint.
type ProviderFactory interface {
	ForModel(domain.ModelDefinition) (Provider, error)
}

// ClipboardBridge is the single exclusive-access path to the OS clipboard
// and to synthetic copy/paste keystrokes in the focused application. The OS
// clipboard is one global resource: callers hold the lock for the whole of a
// multi-step protocol (capture's snapshot..restore, or the final
// write-and-paste) so two operations can never interleave on it.
type ClipboardBridge interface {
	Lock()
	Unlock()
	ReadAll() (string, error)
	WriteAll(text string) error
	PressCopy() error
	PressPaste() error
}

// Capturer extracts the current selection from the foreground application.
// The call is synchronous and bounded by the configured capture budget.
type Capturer interface {
	Capture(context.Context) (domain.CaptureResult, error)
}

// HotkeyListener owns the process-wide trigger combination. Rebind
// atomically swaps the active binding; a failed registration leaves no
// binding active and is reported, not fatal.
type HotkeyListener interface {
	Rebind(binding string) error
	Triggers() <-chan struct{}
	Close() error
}

// ExecutionCore schedules capability calls on background workers and hands
// results back through Deliveries. Per correlation id, Current reports the
// latest issued sequence number so consumers can drop stale completions.
type ExecutionCore interface {
	Submit(domain.OperationRequest) uint64
	CancelCorrelation(id string)
	Deliveries() <-chan domain.Delivery
	Current(correlationID string) uint64
}

// SessionRepository persists conversation sessions keyed by session id.
// List returns summaries newest-first for history browsing.
type SessionRepository interface {
	Save(domain.ConversationSession) error
	Get(id string) (domain.ConversationSession, error)
	List() ([]domain.ConversationSession, error)
	Delete(id string) error
	ExportJSON(dest string) error
}

// Surface is the display boundary for window deliveries. Implementations
// must tolerate out-of-order events across sessions; within one session
// events arrive in order.
type Surface interface {
	OpenSession(session domain.ConversationSession)
	AppendTurn(sessionID string, turn domain.Turn)
	ShowError(sessionID string, kind domain.ErrorKind, message string)
}

// OperationPicker asks the user which catalog operation to run against the
// captured text. ok is false when the user dismissed the choice.
type OperationPicker interface {
	Pick(ctx context.Context, ops []domain.Operation, captured domain.CaptureResult) (op domain.Operation, change string, ok bool, err error)
}

// Notifier surfaces short user-visible notices (failures, no-op refusals)
// without involving any application window.
type Notifier interface {
	Notify(title, message string)
}

// Logger provides structured logging abstraction for the application layer.
// Implementations can route to different backends (stdout, zap, files).
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error, fields map[string]interface{})
}
