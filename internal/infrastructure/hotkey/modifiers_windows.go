//go:build windows

package hotkey

import xhotkey "golang.design/x/hotkey"

var modifierByName = map[string]xhotkey.Modifier{
	"ctrl":    xhotkey.ModCtrl,
	"control": xhotkey.ModCtrl,
	"shift":   xhotkey.ModShift,
	"alt":     xhotkey.ModAlt,
	"super":   xhotkey.ModWin,
	"win":     xhotkey.ModWin,
	"cmd":     xhotkey.ModWin,
}
