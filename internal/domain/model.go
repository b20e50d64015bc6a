package domain

// ModelDefinition describes one AI backend declared in the config file.
// The endpoint decides which wire adapter is used; credentials are read from
// the named environment variable at request time.
type ModelDefinition struct {
	Name       string `yaml:"name"`
	Endpoint   string `yaml:"endpoint"`
	AuthEnvVar string `yaml:"auth_env_var"`
	OrgEnvVar  string `yaml:"org_env_var,omitempty"`
	ModelID    string `yaml:"model_id"`
	MaxTokens  int    `yaml:"max_tokens"`
}

// ProviderState is the immutable process-wide snapshot of the active
// capability selection. Settings changes build a replacement snapshot rather
// than mutating the current one, so a half-applied credential or model swap
// can never be observed by an in-flight request.
type ProviderState struct {
	TransformModel  ModelDefinition
	ChatModel       ModelDefinition
	ReasoningEffort int
}

// NewProviderState resolves the configured model names into a snapshot.
func NewProviderState(cfg Config) (ProviderState, error) {
	transform, err := cfg.ModelByName(cfg.Provider.TransformModel)
	if err != nil {
		return ProviderState{}, err
	}
	chat, err := cfg.ModelByName(cfg.Provider.ChatModel)
	if err != nil {
		return ProviderState{}, err
	}
	return ProviderState{
		TransformModel:  transform,
		ChatModel:       chat,
		ReasoningEffort: cfg.Chat.ReasoningEffort,
	}, nil
}

// ModelFor picks the model role for a delivery mode: window operations use
// the chat model, replace operations the transform model.
func (s ProviderState) ModelFor(mode DeliveryMode) ModelDefinition {
	if mode == DeliveryWindow {
		return s.ChatModel
	}
	return s.TransformModel
}
