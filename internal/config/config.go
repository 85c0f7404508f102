package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	AI       AIConfig       `mapstructure:"ai"       validate:"required"`
	Search   SearchConfig   `mapstructure:"search"   validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
// The URL is optional: without one, session history falls back to the
// in-memory store.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"omitempty,url"`
}

// AIConfig selects the enhancement backend and its operating limits.
//
// Backend chooses which provider executes AI operations. Credential
// requirements are cross-field (gemini needs GeminiAPIKey, hfapi needs
// HFAPIKey) and are enforced by backend.Resolve rather than here, so
// that a local-only deployment never has to set either key.
type AIConfig struct {
	Backend              string `mapstructure:"backend" validate:"required,oneof=local gemini hfapi"`
	GeminiAPIKey         string `mapstructure:"gemini_api_key"`
	GeminiModelID        string `mapstructure:"gemini_model_id" validate:"required"`
	HFAPIKey             string `mapstructure:"hf_api_key"`
	SummarizationModelID string `mapstructure:"summarization_model_id" validate:"required"`
	GenerationModelID    string `mapstructure:"generation_model_id" validate:"required"`
	QAModelID            string `mapstructure:"qa_model_id" validate:"required"`
	MaxSearchEntities    int    `mapstructure:"max_search_entities" validate:"required,gt=0"`
	MaxLinksForQnA       int    `mapstructure:"max_links_for_qna" validate:"required,gt=0"`
	MaxQuestions         int    `mapstructure:"max_questions" validate:"required,gt=0"`
}

// SearchConfig contains web search and page fetch settings.
type SearchConfig struct {
	UserAgent      string `mapstructure:"user_agent" validate:"required"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	MaxResults     int    `mapstructure:"max_results" validate:"required,gt=0"`
}
