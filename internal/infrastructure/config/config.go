package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	LLM struct {
		Provider    string        `yaml:"provider"`
		Endpoint    string        `yaml:"endpoint"`
		Model       string        `yaml:"model"`
		APIKey      string        `yaml:"api_key"`
		OpenAIKey   string        `yaml:"openai_key"`
		OpenAIModel string        `yaml:"openai_model"`
		Timeout     time.Duration `yaml:"timeout"`
	} `yaml:"llm"`
	Retry struct {
		MaxAttempts int           `yaml:"max_attempts"`
		BaseDelay   time.Duration `yaml:"base_delay"`
		MaxJitter   time.Duration `yaml:"max_jitter"`
	} `yaml:"retry"`
	Gmail struct {
		CredentialsPath string `yaml:"credentials_path"`
		TokenPath       string `yaml:"token_path"`
		ApplyLabels     bool   `yaml:"apply_labels"`
	} `yaml:"gmail"`
	PubSub struct {
		Project        string `yaml:"project"`
		SubscriptionID string `yaml:"subscription_id"`
		Topic          string `yaml:"topic"`
	} `yaml:"pubsub"`
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	NumWorkers           int   `yaml:"num_workers"`
	InitialEmailsToFetch int64 `yaml:"initial_emails_to_fetch"`

	dotEnvLoaded bool
}

func Default() Config {
	var cfg Config
	cfg.LLM.Provider = "gemini"
	cfg.LLM.Endpoint = "https://generativelanguage.googleapis.com/v1beta/models"
	cfg.LLM.Model = "gemini-2.5-flash-preview-05-20"
	cfg.LLM.OpenAIModel = "gpt-4o-mini"
	cfg.LLM.Timeout = 30 * time.Second
	cfg.Retry.MaxAttempts = 5
	cfg.Retry.BaseDelay = time.Second
	cfg.Retry.MaxJitter = time.Second
	cfg.Gmail.CredentialsPath = "credentials.json"
	cfg.Gmail.TokenPath = "token.json"
	cfg.Gmail.ApplyLabels = true
	cfg.HTTP.Addr = ":8080"
	cfg.Log.Level = "info"
	cfg.NumWorkers = 5
	cfg.InitialEmailsToFetch = 20
	return cfg
}

// Load reads .env (if present), then the YAML file at path (if it exists), then the
// process environment. Later sources win.
func Load(path string) (Config, error) {
	cfg := Default()
	cfg.dotEnvLoaded = godotenv.Load() == nil

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("read config: %w", err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(&cfg)

	if cfg.PubSub.Topic == "" && cfg.PubSub.Project != "" {
		cfg.PubSub.Topic = fmt.Sprintf("projects/%s/topics/gmail-topic", cfg.PubSub.Project)
	}

	return cfg, nil
}

// DotEnvLoaded reports whether Load found and applied a .env file.
func (c Config) DotEnvLoaded() bool {
	return c.dotEnvLoaded
}

// Credential returns the key for the selected provider.
func (c Config) Credential() string {
	if c.LLM.Provider == "openai" {
		return c.LLM.OpenAIKey
	}
	return c.LLM.APIKey
}

// Model returns the model name for the selected provider.
func (c Config) Model() string {
	if c.LLM.Provider == "openai" {
		return c.LLM.OpenAIModel
	}
	return c.LLM.Model
}

// Endpoint returns the base URL for the selected provider. For openai it is empty so the
// SDK default (and its OPENAI_BASE_URL override) applies.
func (c Config) Endpoint() string {
	if c.LLM.Provider == "openai" {
		return ""
	}
	return c.LLM.Endpoint
}

// MaxRetryAttempts bounds RETRY_MAX_ATTEMPTS.
const MaxRetryAttempts = 10

// ValidateRetry checks the retry policy shared by every command that calls the model.
func (c Config) ValidateRetry() error {
	if c.Retry.MaxAttempts < 1 || c.Retry.MaxAttempts > MaxRetryAttempts {
		return fmt.Errorf("RETRY_MAX_ATTEMPTS must be between 1 and %d, got %d", MaxRetryAttempts, c.Retry.MaxAttempts)
	}
	if c.Retry.BaseDelay <= 0 {
		return fmt.Errorf("RETRY_BASE_DELAY must be positive, got %v", c.Retry.BaseDelay)
	}
	if c.Retry.MaxJitter < 0 {
		return fmt.Errorf("retry max_jitter must not be negative, got %v", c.Retry.MaxJitter)
	}
	return nil
}

func (c Config) ValidateServe() error {
	if err := c.ValidateRetry(); err != nil {
		return err
	}
	if c.HTTP.Addr == "" {
		return errors.New("HTTP_ADDR is required")
	}
	return nil
}

func (c Config) ValidateWatch() error {
	if err := c.ValidateRetry(); err != nil {
		return err
	}
	if c.Credential() == "" {
		if c.LLM.Provider == "openai" {
			return errors.New("OPENAI_API_KEY is required")
		}
		return errors.New("GEMINI_API_KEY is required")
	}
	if c.PubSub.Project == "" {
		return errors.New("GOOGLE_CLOUD_PROJECT is required")
	}
	if c.PubSub.SubscriptionID == "" {
		return errors.New("SUBSCRIPTION_ID is required")
	}
	if c.NumWorkers < 1 {
		return fmt.Errorf("NUM_WORKERS must be positive, got %d", c.NumWorkers)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := os.Getenv("GEMINI_ENDPOINT"); v != "" {
		cfg.LLM.Endpoint = v
	}
	if v := os.Getenv("MODEL_NAME"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.LLM.OpenAIKey = v
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		cfg.LLM.OpenAIModel = v
	}
	if v := os.Getenv("HTTP_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.LLM.Timeout = d
		}
	}
	if v := os.Getenv("RETRY_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Retry.MaxAttempts = n
		}
	}
	if v := os.Getenv("RETRY_BASE_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Retry.BaseDelay = d
		}
	}
	if v := os.Getenv("GMAIL_CREDENTIALS_PATH"); v != "" {
		cfg.Gmail.CredentialsPath = v
	}
	if v := os.Getenv("GMAIL_TOKEN_PATH"); v != "" {
		cfg.Gmail.TokenPath = v
	}
	if v := os.Getenv("GMAIL_APPLY_LABELS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Gmail.ApplyLabels = b
		}
	}
	if v := os.Getenv("GOOGLE_CLOUD_PROJECT"); v != "" {
		cfg.PubSub.Project = v
	}
	if v := os.Getenv("SUBSCRIPTION_ID"); v != "" {
		cfg.PubSub.SubscriptionID = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("NUM_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.NumWorkers = n
		}
	}
	if v := os.Getenv("INITIAL_EMAILS_TO_FETCH"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.InitialEmailsToFetch = n
		}
	}
}
