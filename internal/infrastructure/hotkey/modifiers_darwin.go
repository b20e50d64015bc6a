//go:build darwin

package hotkey

import xhotkey "golang.design/x/hotkey"

var modifierByName = map[string]xhotkey.Modifier{
	"ctrl":    xhotkey.ModCtrl,
	"control": xhotkey.ModCtrl,
	"shift":   xhotkey.ModShift,
	"alt":     xhotkey.ModOption,
	"option":  xhotkey.ModOption,
	"super":   xhotkey.ModCmd,
	"cmd":     xhotkey.ModCmd,
}
