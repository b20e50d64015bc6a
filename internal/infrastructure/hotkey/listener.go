package hotkey

import (
	"fmt"
	"sync"
	"time"

	xhotkey "golang.design/x/hotkey"

	"github.com/scribeapp/scribe/internal/ports"
)

// holdDebounce collapses the repeated key-down events an OS emits while the
// combination is held into a single trigger.
const holdDebounce = 250 * time.Millisecond

// Listener registers exactly one global key combination and raises one
// event per activation on its own goroutine.
type Listener struct {
	mu       sync.Mutex
	hk       *xhotkey.Hotkey
	binding  string
	done     chan struct{}
	triggers chan struct{}
	log      ports.Logger
}

// NewListener builds an unbound listener; call Rebind to activate it.
func NewListener(log ports.Logger) *Listener {
	return &Listener{
		triggers: make(chan struct{}, 1),
		log:      log,
	}
}

// Rebind swaps the active binding for a new one. The old binding is always
// unregistered before the new one is registered, under one lock, so there is
// no window in which both are active. If the new registration fails (the
// combination is claimed elsewhere) the listener is left unbound and the
// error is returned for reporting; the caller retries on the next settings
// save.
func (l *Listener) Rebind(binding string) error {
	mods, key, err := ParseBinding(binding)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.unregisterLocked()

	hk := xhotkey.New(mods, key)
	if err := hk.Register(); err != nil {
		return fmt.Errorf("register hotkey %q: %w", binding, err)
	}

	l.hk = hk
	l.binding = binding
	l.done = make(chan struct{})
	go l.watch(hk, l.done)

	l.log.Info("hotkey registered", map[string]interface{}{"binding": binding})
	return nil
}

// Triggers returns the channel trigger events arrive on. The channel has a
// one-slot buffer: presses during an unconsumed trigger coalesce instead of
// queueing.
func (l *Listener) Triggers() <-chan struct{} {
	return l.triggers
}

// Binding returns the currently active binding string, empty when unbound.
func (l *Listener) Binding() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.binding
}

// Close unregisters the active binding, if any.
func (l *Listener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.unregisterLocked()
	return nil
}

func (l *Listener) unregisterLocked() {
	if l.hk == nil {
		return
	}
	close(l.done)
	if err := l.hk.Unregister(); err != nil {
		l.log.Warn("hotkey unregister failed", map[string]interface{}{
			"binding": l.binding,
			"error":   err.Error(),
		})
	}
	l.hk = nil
	l.binding = ""
}

func (l *Listener) watch(hk *xhotkey.Hotkey, done chan struct{}) {
	var last time.Time
	for {
		select {
		case <-done:
			return
		case <-hk.Keydown():
			now := time.Now()
			if now.Sub(last) < holdDebounce {
				continue
			}
			last = now
			select {
			case l.triggers <- struct{}{}:
			default:
			}
		}
	}
}

var _ ports.HotkeyListener = (*Listener)(nil)
