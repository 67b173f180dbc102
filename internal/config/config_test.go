package config

import (
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandPath(t *testing.T) {
	t.Setenv("QUILL_TEST_DIR", "/var/data")

	home, err := filepath.Abs(t.TempDir())
	require.NoError(t, err)
	t.Setenv("HOME", home)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "plain", in: "/tmp/quill.db", want: "/tmp/quill.db"},
		{name: "tilde", in: "~/quill.db", want: filepath.Join(home, "quill.db")},
		{name: "bare tilde", in: "~", want: home},
		{name: "env var", in: "$QUILL_TEST_DIR/quill.db", want: "/var/data/quill.db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.in))
		})
	}
}

func TestLoadTokenizerConfigDefaults(t *testing.T) {
	viper.Reset()
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg := LoadTokenizerConfig()
	assert.Equal(t, "sk-test", cfg.APIKey)
	assert.Positive(t, cfg.Timeout)
	assert.Empty(t, cfg.Provider, "empty provider selects the heuristic cleaner")
}

func TestLoadEmbeddingConfigFromViper(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("embedding.provider", "openai")
	viper.Set("embedding.model", "text-embedding-3-large")
	viper.Set("embedding.api_key", "sk-viper")

	cfg := LoadEmbeddingConfig()
	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, "text-embedding-3-large", cfg.Model)
	assert.Equal(t, "sk-viper", cfg.APIKey)
}
