// Package clipboard implements the exclusive-access bridge to the OS
// clipboard and to synthetic copy/paste keystrokes.
package clipboard

import (
	"fmt"
	"runtime"
	"sync"

	atotto "github.com/atotto/clipboard"
	"github.com/micmonay/keybd_event"

	"github.com/scribeapp/scribe/internal/ports"
)

// Bridge serializes every clipboard interaction in the process through one
// mutex. Capture holds the lock for its whole snapshot..restore protocol and
// the router holds it for write-and-paste, so the two can never interleave.
type Bridge struct {
	mu sync.Mutex
	kb keybd_event.KeyBonding
}

// NewBridge builds the bridge and prepares the keyboard event backend.
func NewBridge() (*Bridge, error) {
	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return nil, fmt.Errorf("keyboard backend: %w", err)
	}
	return &Bridge{kb: kb}, nil
}

func (b *Bridge) Lock()   { b.mu.Lock() }
func (b *Bridge) Unlock() { b.mu.Unlock() }

// ReadAll returns the current clipboard text.
func (b *Bridge) ReadAll() (string, error) {
	text, err := atotto.ReadAll()
	if err != nil {
		return "", fmt.Errorf("clipboard read: %w", err)
	}
	return text, nil
}

// WriteAll replaces the clipboard contents.
func (b *Bridge) WriteAll(text string) error {
	if err := atotto.WriteAll(text); err != nil {
		return fmt.Errorf("clipboard write: %w", err)
	}
	return nil
}

// PressCopy simulates the platform copy keystroke in the focused
// application.
func (b *Bridge) PressCopy() error {
	return b.press(keybd_event.VK_C)
}

// PressPaste simulates the platform paste keystroke in the focused
// application.
func (b *Bridge) PressPaste() error {
	return b.press(keybd_event.VK_V)
}

func (b *Bridge) press(key int) error {
	kb := b.kb
	kb.SetKeys(key)
	if runtime.GOOS == "darwin" {
		kb.HasSuper(true)
	} else {
		kb.HasCTRL(true)
	}
	if err := kb.Launching(); err != nil {
		return fmt.Errorf("synthetic keystroke: %w", err)
	}
	return nil
}

var _ ports.ClipboardBridge = (*Bridge)(nil)
