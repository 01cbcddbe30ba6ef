package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultSlackAPIURL   = "https://slack.com/api/"
	DefaultModel         = "gpt-3.5-turbo"
	DefaultPort          = 8080
	DefaultShutdownGrace = 30 * time.Second
)

// Environment bindings. Values found here win over the config file.
const (
	EnvSlackToken     = "SLACK_BOT_USER_OAUTH_TOKEN"
	EnvOpenAIKey      = "OPENAI_API_SECRET_KEY"
	EnvOpenAIEndpoint = "OPENAI_API_ENDPOINT"
	EnvPrompt         = "PROMPT"
	EnvOpenAIModel    = "OPENAI_MODEL"
)

type Config struct {
	Slack  SlackConfig  `yaml:"slack"`
	OpenAI OpenAIConfig `yaml:"openai"`
	Serve  ServeConfig  `yaml:"serve"`
}

type SlackConfig struct {
	Token  string `yaml:"token"`
	APIURL string `yaml:"api_url"`
}

type OpenAIConfig struct {
	APIKey   string `yaml:"api_key"`
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
	Prompt   string `yaml:"prompt"`
}

type ServeConfig struct {
	Port          int           `yaml:"port"`
	ListenAddr    string        `yaml:"listen_addr"`
	ShutdownGrace time.Duration `yaml:"shutdown_grace"`
	// HTTPTimeout bounds each outbound call. Zero means no timeout.
	HTTPTimeout time.Duration `yaml:"http_timeout"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	return &cfg, nil
}

// LoadDotEnv loads variables from the given .env files into the process
// environment without overriding variables that are already set. Missing
// files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overlays environment bindings onto cfg.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvSlackToken); v != "" {
		c.Slack.Token = v
	}
	if v := getenv(EnvOpenAIKey); v != "" {
		c.OpenAI.APIKey = v
	}
	if v := getenv(EnvOpenAIEndpoint); v != "" {
		c.OpenAI.Endpoint = v
	}
	if v := getenv(EnvPrompt); v != "" {
		c.OpenAI.Prompt = v
	}
	if v := getenv(EnvOpenAIModel); v != "" {
		c.OpenAI.Model = v
	}
}

func (c *Config) ApplyDefaults() {
	if c.Slack.APIURL == "" {
		c.Slack.APIURL = DefaultSlackAPIURL
	}
	if !strings.HasSuffix(c.Slack.APIURL, "/") {
		c.Slack.APIURL += "/"
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = DefaultModel
	}
	c.OpenAI.Endpoint = strings.TrimRight(c.OpenAI.Endpoint, "/")
	if c.Serve.Port <= 0 {
		c.Serve.Port = DefaultPort
	}
	if c.Serve.ShutdownGrace <= 0 {
		c.Serve.ShutdownGrace = DefaultShutdownGrace
	}
}

// Validate reports every missing required value at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Slack.Token == "" {
		errs = append(errs, fmt.Errorf("%s environment variable is required", EnvSlackToken))
	}
	if c.OpenAI.APIKey == "" {
		errs = append(errs, fmt.Errorf("%s environment variable is required", EnvOpenAIKey))
	}
	if c.OpenAI.Endpoint == "" {
		errs = append(errs, fmt.Errorf("%s environment variable is required", EnvOpenAIEndpoint))
	}
	return errors.Join(errs...)
}

// Resolve builds the effective configuration: optional YAML file, then
// environment, then defaults.
func Resolve(path string, getenv func(string) string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if cfg == nil {
		cfg = &Config{}
	}

	cfg.ApplyEnv(getenv)
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
