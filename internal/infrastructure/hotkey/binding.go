// Package hotkey owns the process-wide trigger key combination.
package hotkey

import (
	"fmt"
	"strings"

	xhotkey "golang.design/x/hotkey"
)

// ParseBinding converts a "mod+mod+key" binding string into the platform
// modifier and key values. Modifier names are case-insensitive; the key is
// always the last element.
func ParseBinding(binding string) ([]xhotkey.Modifier, xhotkey.Key, error) {
	parts := strings.Split(binding, "+")
	if len(parts) < 2 {
		return nil, 0, fmt.Errorf("invalid binding %q (need modifier+key)", binding)
	}

	mods := make([]xhotkey.Modifier, 0, len(parts)-1)
	for _, name := range parts[:len(parts)-1] {
		mod, ok := modifierByName[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, 0, fmt.Errorf("unknown modifier %q in binding %q", name, binding)
		}
		mods = append(mods, mod)
	}

	keyName := strings.ToLower(strings.TrimSpace(parts[len(parts)-1]))
	key, ok := keyByName[keyName]
	if !ok {
		return nil, 0, fmt.Errorf("unknown key %q in binding %q", keyName, binding)
	}
	return mods, key, nil
}

var keyByName = map[string]xhotkey.Key{
	"space":  xhotkey.KeySpace,
	"return": xhotkey.KeyReturn,
	"enter":  xhotkey.KeyReturn,
	"escape": xhotkey.KeyEscape,
	"tab":    xhotkey.KeyTab,
	"delete": xhotkey.KeyDelete,
	"up":     xhotkey.KeyUp,
	"down":   xhotkey.KeyDown,
	"left":   xhotkey.KeyLeft,
	"right":  xhotkey.KeyRight,

	"0": xhotkey.Key0, "1": xhotkey.Key1, "2": xhotkey.Key2, "3": xhotkey.Key3,
	"4": xhotkey.Key4, "5": xhotkey.Key5, "6": xhotkey.Key6, "7": xhotkey.Key7,
	"8": xhotkey.Key8, "9": xhotkey.Key9,

	"a": xhotkey.KeyA, "b": xhotkey.KeyB, "c": xhotkey.KeyC, "d": xhotkey.KeyD,
	"e": xhotkey.KeyE, "f": xhotkey.KeyF, "g": xhotkey.KeyG, "h": xhotkey.KeyH,
	"i": xhotkey.KeyI, "j": xhotkey.KeyJ, "k": xhotkey.KeyK, "l": xhotkey.KeyL,
	"m": xhotkey.KeyM, "n": xhotkey.KeyN, "o": xhotkey.KeyO, "p": xhotkey.KeyP,
	"q": xhotkey.KeyQ, "r": xhotkey.KeyR, "s": xhotkey.KeyS, "t": xhotkey.KeyT,
	"u": xhotkey.KeyU, "v": xhotkey.KeyV, "w": xhotkey.KeyW, "x": xhotkey.KeyX,
	"y": xhotkey.KeyY, "z": xhotkey.KeyZ,

	"f1": xhotkey.KeyF1, "f2": xhotkey.KeyF2, "f3": xhotkey.KeyF3,
	"f4": xhotkey.KeyF4, "f5": xhotkey.KeyF5, "f6": xhotkey.KeyF6,
	"f7": xhotkey.KeyF7, "f8": xhotkey.KeyF8, "f9": xhotkey.KeyF9,
	"f10": xhotkey.KeyF10, "f11": xhotkey.KeyF11, "f12": xhotkey.KeyF12,
}
