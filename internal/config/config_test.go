package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		DatabasePath:  "/tmp/kbase.db",
		ChunkSize:     800,
		ChunkOverlap:  100,
		TopK:          4,
		MaxFileSize:   1 << 20,
		MaxFileCount:  10,
		MaxUploadSize: 2 << 20,
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	viper.Reset()
	t.Setenv("DATABASE_PATH", "/tmp/test-kbase.db")
	t.Setenv("TOP_K", "7")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.AppPort)
	assert.Equal(t, "/tmp/test-kbase.db", cfg.DatabasePath)
	assert.Equal(t, 7, cfg.TopK)
	assert.Equal(t, "gpt-3.5-turbo", cfg.OpenAIModel)
	assert.Equal(t, int64(5<<20), cfg.MaxFileSize)
}

func TestConfig_Validate(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		cfg := validConfig()
		assert.NoError(t, cfg.Validate())
	})

	t.Run("Overlap not smaller than chunk", func(t *testing.T) {
		cfg := validConfig()
		cfg.ChunkOverlap = cfg.ChunkSize
		assert.ErrorContains(t, cfg.Validate(), "CHUNK_OVERLAP")
	})

	t.Run("File size above upload size", func(t *testing.T) {
		cfg := validConfig()
		cfg.MaxFileSize = cfg.MaxUploadSize + 1
		assert.ErrorContains(t, cfg.Validate(), "MAX_FILE_SIZE")
	})

	t.Run("Empty database path", func(t *testing.T) {
		cfg := validConfig()
		cfg.DatabasePath = ""
		assert.ErrorContains(t, cfg.Validate(), "DATABASE_PATH")
	})
}
