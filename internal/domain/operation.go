package domain

import (
	"bytes"
	"fmt"
	"text/template"
)

// IncompatibleOutputMarker is the literal a replace operation's instruction
// tells the model to emit when the selection cannot take the requested
// change. A result carrying it is surfaced as a notice instead of pasted.
const IncompatibleOutputMarker = "ERROR_TEXT_INCOMPATIBLE_WITH_REQUEST"

// DeliveryMode decides where an operation's result ends up.
type DeliveryMode string

const (
	// DeliveryReplace pastes the result over the original selection.
	DeliveryReplace DeliveryMode = "replace"
	// DeliveryWindow routes the result into a conversation surface.
	DeliveryWindow DeliveryMode = "window"
)

// Operation is one named text transformation from the catalog. Operations
// are loaded once at startup and treated as immutable afterwards.
type Operation struct {
	Name string `yaml:"name"`
	// Instruction is the system instruction sent alongside the prompt.
	Instruction string `yaml:"instruction"`
	// Template is a text/template body with {{.Text}} for the captured
	// selection and {{.Change}} for a user-typed custom instruction.
	Template string       `yaml:"template"`
	Mode     DeliveryMode `yaml:"mode"`
	// CustomChange marks operations that require a user-typed instruction
	// (the "describe your change" flow).
	CustomChange bool `yaml:"custom_change,omitempty"`
	// NoSelectionDefault marks the operation used when a trigger captures
	// nothing; it must deliver to a window.
	NoSelectionDefault bool `yaml:"no_selection_default,omitempty"`
}

// Validate checks the catalog invariants for a single operation.
func (o Operation) Validate() error {
	if o.Name == "" {
		return fmt.Errorf("operation with empty name")
	}
	switch o.Mode {
	case DeliveryReplace, DeliveryWindow:
	default:
		return fmt.Errorf("operation %q: invalid delivery mode %q", o.Name, o.Mode)
	}
	if o.NoSelectionDefault && o.Mode != DeliveryWindow {
		return fmt.Errorf("operation %q: no-selection default must deliver to a window", o.Name)
	}
	if _, err := template.New(o.Name).Parse(o.Template); err != nil {
		return fmt.Errorf("operation %q: bad template: %w", o.Name, err)
	}
	return nil
}

// promptData is the template context for Operation.RenderPrompt.
type promptData struct {
	Text   string
	Change string
}

// RenderPrompt expands the operation template with the captured text and an
// optional custom change description.
func (o Operation) RenderPrompt(text, change string) (string, error) {
	tmpl, err := template.New(o.Name).Parse(o.Template)
	if err != nil {
		return "", fmt.Errorf("operation %q: %w", o.Name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, promptData{Text: text, Change: change}); err != nil {
		return "", fmt.Errorf("operation %q: %w", o.Name, err)
	}
	return buf.String(), nil
}
