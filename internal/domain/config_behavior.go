package domain

import (
	"fmt"
	"strings"
	"time"
)

// Defaults applied by Normalize when the config leaves a knob unset.
const (
	DefaultCaptureTimeout      = 600 * time.Millisecond
	DefaultCapturePollInterval = 20 * time.Millisecond
	DefaultCaptureAttempts     = 2
	DefaultHistoryWindow       = 12
	DefaultTitleTurnLimit      = 4
	DefaultWorkerPoolSize      = 4
	DefaultHotkey              = "ctrl+space"
)

// Normalize fills unset fields with defaults. It returns a copy.
func (c Config) Normalize() Config {
	if c.Hotkey == "" {
		c.Hotkey = DefaultHotkey
	}
	if c.Capture.TimeoutMS <= 0 {
		c.Capture.TimeoutMS = int(DefaultCaptureTimeout / time.Millisecond)
	}
	if c.Capture.PollIntervalMS <= 0 {
		c.Capture.PollIntervalMS = int(DefaultCapturePollInterval / time.Millisecond)
	}
	if c.Capture.MaxAttempts <= 0 {
		c.Capture.MaxAttempts = DefaultCaptureAttempts
	}
	if c.Chat.HistoryWindow <= 0 {
		c.Chat.HistoryWindow = DefaultHistoryWindow
	}
	if c.Chat.TitleTurnLimit <= 0 {
		c.Chat.TitleTurnLimit = DefaultTitleTurnLimit
	}
	if c.Workers.PoolSize <= 0 {
		c.Workers.PoolSize = DefaultWorkerPoolSize
	}
	if c.Provider.TransformModel == "" && len(c.Provider.Models) > 0 {
		c.Provider.TransformModel = c.Provider.Models[0].Name
	}
	if c.Provider.ChatModel == "" {
		c.Provider.ChatModel = c.Provider.TransformModel
	}
	return c
}

// Validate reports structural problems that would make the pipeline
// misbehave at runtime.
func (c Config) Validate() error {
	if len(c.Provider.Models) == 0 {
		return fmt.Errorf("config: no models declared")
	}
	if _, err := c.ModelByName(c.Provider.TransformModel); err != nil {
		return fmt.Errorf("config: transform_model: %w", err)
	}
	if _, err := c.ModelByName(c.Provider.ChatModel); err != nil {
		return fmt.Errorf("config: chat_model: %w", err)
	}
	seen := make(map[string]bool, len(c.Operations))
	defaults := 0
	for _, op := range c.Operations {
		if err := op.Validate(); err != nil {
			return err
		}
		key := strings.ToLower(op.Name)
		if seen[key] {
			return fmt.Errorf("config: duplicate operation %q", op.Name)
		}
		seen[key] = true
		if op.NoSelectionDefault {
			defaults++
		}
	}
	if defaults > 1 {
		return fmt.Errorf("config: more than one operation marked as the no-selection default")
	}
	return nil
}

// ModelByName finds a model definition by its configured name.
func (c Config) ModelByName(name string) (ModelDefinition, error) {
	for _, m := range c.Provider.Models {
		if strings.EqualFold(m.Name, name) {
			return m, nil
		}
	}
	return ModelDefinition{}, fmt.Errorf("model %q not found", name)
}

// OperationByName finds an operation by name, case-insensitively.
func (c Config) OperationByName(name string) (Operation, error) {
	for _, op := range c.Operations {
		if strings.EqualFold(op.Name, name) {
			return op, nil
		}
	}
	return Operation{}, fmt.Errorf("operation %q not found", name)
}

// DefaultOperation returns the operation marked as the no-selection default,
// if any.
func (c Config) DefaultOperation() (Operation, bool) {
	for _, op := range c.Operations {
		if op.NoSelectionDefault {
			return op, true
		}
	}
	return Operation{}, false
}

// CaptureTimeout returns the capture budget as a duration.
func (c CaptureSettings) CaptureTimeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// PollInterval returns the clipboard poll interval as a duration.
func (c CaptureSettings) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}
