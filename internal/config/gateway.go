package config

import (
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/quillfin/quill/internal/embedding"
	"github.com/quillfin/quill/internal/tokenizer"
)

// LoadTokenizerConfig assembles the tokenizer gateway configuration.
// Precedence: viper (config file or QUILL_ env vars), then the
// OPENAI_API_KEY environment variable for the key, then defaults.
func LoadTokenizerConfig() tokenizer.Config {
	cfg := tokenizer.Config{
		Provider: viper.GetString("tokenizer.provider"),
		BaseURL:  viper.GetString("tokenizer.base_url"),
		APIKey:   viper.GetString("tokenizer.api_key"),
		Model:    viper.GetString("tokenizer.model"),
		Timeout:  viper.GetDuration("tokenizer.timeout"),
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return cfg
}

// LoadEmbeddingConfig assembles the embedding gateway configuration with
// the same precedence as LoadTokenizerConfig.
func LoadEmbeddingConfig() embedding.Config {
	cfg := embedding.Config{
		Provider: viper.GetString("embedding.provider"),
		BaseURL:  viper.GetString("embedding.base_url"),
		APIKey:   viper.GetString("embedding.api_key"),
		Model:    viper.GetString("embedding.model"),
		Timeout:  viper.GetDuration("embedding.timeout"),
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return cfg
}
