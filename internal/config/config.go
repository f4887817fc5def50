package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	AppPort             int    `mapstructure:"APP_PORT"`
	DatabasePath        string `mapstructure:"DATABASE_PATH"`
	OllamaURL           string `mapstructure:"OLLAMA_URL"`
	WaitForOllama       bool   `mapstructure:"WAIT_FOR_OLLAMA"`
	AnswerModel         string `mapstructure:"ANSWER_MODEL"`
	EmbeddingModel      string `mapstructure:"EMBEDDING_MODEL"`
	OpenAIModel         string `mapstructure:"OPENAI_MODEL"`
	OpenAIBaseURL       string `mapstructure:"OPENAI_BASE_URL"`
	InitialSystemPrompt string `mapstructure:"INITIAL_SYSTEM_PROMPT"`
	LogLevel            string `mapstructure:"LOG_LEVEL"`

	ChunkSize    int `mapstructure:"CHUNK_SIZE"`
	ChunkOverlap int `mapstructure:"CHUNK_OVERLAP"`
	TopK         int `mapstructure:"TOP_K"`

	MaxFileSize   int64 `mapstructure:"MAX_FILE_SIZE"`   // bytes, per file
	MaxFileCount  int   `mapstructure:"MAX_FILE_COUNT"`  // files per batch
	MaxUploadSize int64 `mapstructure:"MAX_UPLOAD_SIZE"` // bytes, whole multipart body
}

func LoadConfig() (*Config, error) {
	viper.SetDefault("APP_PORT", 8000)
	viper.SetDefault("DATABASE_PATH", "/data/kbase.db")
	viper.SetDefault("OLLAMA_URL", "http://ollama:11434")
	viper.SetDefault("WAIT_FOR_OLLAMA", true)
	viper.SetDefault("ANSWER_MODEL", "llama3.2")
	viper.SetDefault("EMBEDDING_MODEL", "nomic-embed-text")
	viper.SetDefault("OPENAI_MODEL", "gpt-3.5-turbo")
	viper.SetDefault("OPENAI_BASE_URL", "")
	viper.SetDefault("INITIAL_SYSTEM_PROMPT", "You are a helpful assistant. Answer the question using only the provided context.")
	viper.SetDefault("LOG_LEVEL", "INFO")
	viper.SetDefault("CHUNK_SIZE", 800)
	viper.SetDefault("CHUNK_OVERLAP", 100)
	viper.SetDefault("TOP_K", 4)
	viper.SetDefault("MAX_FILE_SIZE", 5<<20)
	viper.SetDefault("MAX_FILE_COUNT", 64)
	viper.SetDefault("MAX_UPLOAD_SIZE", 32<<20)

	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks the values that would otherwise break chunking or uploads at runtime.
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH cannot be empty")
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("CHUNK_SIZE must be > 0, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("CHUNK_OVERLAP must be in [0, CHUNK_SIZE), got %d", c.ChunkOverlap)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("TOP_K must be > 0, got %d", c.TopK)
	}
	if c.MaxFileCount <= 0 {
		return fmt.Errorf("MAX_FILE_COUNT must be > 0, got %d", c.MaxFileCount)
	}
	if c.MaxFileSize <= 0 || c.MaxUploadSize < c.MaxFileSize {
		return fmt.Errorf("MAX_FILE_SIZE must be > 0 and not exceed MAX_UPLOAD_SIZE")
	}
	return nil
}
