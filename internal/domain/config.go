// Package domain defines core business entities and value objects for scribe.
//
// The domain layer is independent of infrastructure concerns and represents
// pure business logic and data structures.
package domain

// Config mirrors ~/.scribe/config.yaml.
type Config struct {
	ConfigFormatVersion string          `yaml:"config_format_version"`
	Hotkey              string          `yaml:"hotkey"`
	Provider            ProviderConfig  `yaml:"provider"`
	Capture             CaptureSettings `yaml:"capture"`
	Chat                ChatSettings    `yaml:"chat"`
	Workers             WorkerSettings  `yaml:"workers"`
	Operations          []Operation     `yaml:"operations"`
}

// ProviderConfig selects the active AI backend and its two model roles.
type ProviderConfig struct {
	TransformModel string            `yaml:"transform_model"`
	ChatModel      string            `yaml:"chat_model"`
	Models         []ModelDefinition `yaml:"models"`
}

// CaptureSettings bounds the clipboard capture protocol.
type CaptureSettings struct {
	TimeoutMS      int `yaml:"timeout_ms"`
	PollIntervalMS int `yaml:"poll_interval_ms"`
	MaxAttempts    int `yaml:"max_attempts"`
}

// ChatSettings controls conversation behavior.
type ChatSettings struct {
	// HistoryWindow is the number of trailing turns included when a
	// continuation prompt is built.
	HistoryWindow int `yaml:"history_window"`
	// TitleTurnLimit stops title auto-generation once a session has grown
	// past this many turns.
	TitleTurnLimit int `yaml:"title_turn_limit"`
	// ReasoningEffort is passed through to the capability for chat requests.
	// 0 disables reasoning, -1 lets the backend decide.
	ReasoningEffort int `yaml:"reasoning_effort"`
}

// WorkerSettings bounds the background execution pool.
type WorkerSettings struct {
	PoolSize int `yaml:"pool_size"`
}
