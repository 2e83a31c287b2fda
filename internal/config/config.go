package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config holds all application configuration
type Config struct {
	General       GeneralConfig       `toml:"general"`
	LLM           LLMConfig           `toml:"llm"`
	Workflow      WorkflowConfig      `toml:"workflow"`
	Schedule      ScheduleConfig      `toml:"schedule"`
	Notifications NotificationsConfig `toml:"notifications"`
	Web           WebConfig           `toml:"web"`
}

// GeneralConfig holds general settings
type GeneralConfig struct {
	DatabasePath string `toml:"database_path"`
	PromptDir    string `toml:"prompt_dir"`
}

// LLMConfig holds LLM provider settings. Style selects the wire protocol:
// "openai" for /chat/completions endpoints, "ollama" for /api/generate.
type LLMConfig struct {
	BaseURL   string `toml:"base_url"`
	Model     string `toml:"model"`
	APIKey    string `toml:"api_key"`
	Style     string `toml:"style"`
	MaxTokens int    `toml:"max_tokens"`
	TimeoutS  int    `toml:"timeout_seconds"`
}

// WorkflowConfig holds the retry and concurrency policy
type WorkflowConfig struct {
	MaxRetries    int `toml:"max_retries"`
	RetryDelayS   int `toml:"retry_delay_seconds"`
	MaxConcurrent int `toml:"max_concurrent"`
}

// ScheduleConfig holds the auto-start sweep settings
type ScheduleConfig struct {
	Enabled  bool   `toml:"enabled"`
	CronExpr string `toml:"cron"`
}

// NotificationsConfig holds notification settings
type NotificationsConfig struct {
	Desktop      bool   `toml:"desktop"`
	SlackWebhook string `toml:"slack_webhook"`
}

// WebConfig holds HTTP API settings
type WebConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

// Default returns a Config with sensible defaults
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		General: GeneralConfig{
			DatabasePath: filepath.Join(home, ".launch-orchestrator", "launches.db"),
			PromptDir:    filepath.Join(home, ".config", "launch-orchestrator", "prompts"),
		},
		LLM: LLMConfig{
			BaseURL:   "http://localhost:11434",
			Model:     "llama3.1",
			Style:     "ollama",
			MaxTokens: 1024,
			TimeoutS:  60,
		},
		Workflow: WorkflowConfig{
			MaxRetries:    2,
			RetryDelayS:   2,
			MaxConcurrent: 3,
		},
		Schedule: ScheduleConfig{
			Enabled:  false,
			CronExpr: "@every 1m",
		},
		Notifications: NotificationsConfig{
			Desktop: true,
		},
		Web: WebConfig{
			Port: 8080,
			Host: "127.0.0.1",
		},
	}
}

// Load reads configuration from a TOML file, falling back to defaults
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	// Environment wins over the file for the secret
	if key := os.Getenv("LLM_API_KEY"); key != "" {
		cfg.LLM.APIKey = key
	}

	cfg.General.DatabasePath = ExpandPath(cfg.General.DatabasePath)
	cfg.General.PromptDir = ExpandPath(cfg.General.PromptDir)

	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	switch c.LLM.Style {
	case "openai", "ollama":
	default:
		return fmt.Errorf("llm.style must be \"openai\" or \"ollama\", got %q", c.LLM.Style)
	}
	if c.Workflow.MaxRetries < 0 {
		return fmt.Errorf("workflow.max_retries must not be negative")
	}
	if c.Workflow.MaxConcurrent < 1 {
		return fmt.Errorf("workflow.max_concurrent must be at least 1")
	}
	return nil
}

// LLMTimeout returns the per-invocation timeout as a duration
func (c *LLMConfig) LLMTimeout() time.Duration {
	return time.Duration(c.TimeoutS) * time.Second
}

// RetryDelay returns the delay between agent attempts as a duration
func (c *WorkflowConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayS) * time.Second
}

// ExpandPath expands ~ to the user's home directory
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// DefaultConfigPath returns the default config file location
func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "launch-orchestrator", "config.toml")
}
