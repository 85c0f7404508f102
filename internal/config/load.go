package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Optional config.yaml in the working directory; absence is not an error.
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Environment variables use the NOTEWISE_ prefix with underscores for
	// nesting, e.g. NOTEWISE_AI_BACKEND overrides ai.backend.
	v.SetEnvPrefix("NOTEWISE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	// Empty defaults so AutomaticEnv sees these keys during Unmarshal.
	v.SetDefault("database.url", "")
	v.SetDefault("ai.gemini_api_key", "")
	v.SetDefault("ai.hf_api_key", "")

	v.SetDefault("ai.backend", "local")
	v.SetDefault("ai.gemini_model_id", "gemini-2.0-flash")
	v.SetDefault("ai.summarization_model_id", "facebook/bart-large-cnn")
	v.SetDefault("ai.generation_model_id", "gpt2")
	v.SetDefault("ai.qa_model_id", "deepset/roberta-base-squad2")
	v.SetDefault("ai.max_search_entities", 3)
	v.SetDefault("ai.max_links_for_qna", 3)
	v.SetDefault("ai.max_questions", 3)

	v.SetDefault("search.user_agent", "notewise/1.0 (+https://github.com/notewise)")
	v.SetDefault("search.timeout_seconds", 15)
	v.SetDefault("search.max_results", 5)
}
