// Package config loads runtime settings from .env, an optional YAML tuning
// file and the environment, in increasing order of precedence.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/vthunder/postbot/internal/bot"
	"github.com/vthunder/postbot/internal/twitter"
	"github.com/vthunder/postbot/internal/types"
)

// Config holds all configuration for the application
type Config struct {
	Credentials twitter.Credentials `yaml:"-"`

	Port       string `yaml:"port"`
	Debug      bool   `yaml:"debug"`
	LogFormat  string `yaml:"log_format"`
	TwitterURL string `yaml:"twitter_url"`

	// Model artifacts
	ModelBucket string `yaml:"model_bucket"`
	ModelDir    string `yaml:"model_dir"` // local store root; disables GCS when set
	ScratchDir  string `yaml:"scratch_dir"`
	OllamaURL   string `yaml:"ollama_url"`

	// Pipeline tuning
	FetchLimit      int           `yaml:"fetch_limit"`
	GenerateRetries int           `yaml:"generate_retries"`
	APIDelay        time.Duration `yaml:"api_delay"`

	// Optional publish mirror
	DiscordToken     string `yaml:"-"`
	DiscordChannelID string `yaml:"discord_channel_id"`

	ProfileLevel string `yaml:"profile_level"`
	ProfileLog   string `yaml:"profile_log"`
}

// Defaults returns the production settings without credentials
func Defaults() *Config {
	b := bot.DefaultConfig()
	return &Config{
		Port:            "8080",
		ModelBucket:     "tweets-ai-text-gen-plus-models",
		ScratchDir:      "/tmp",
		OllamaURL:       "http://localhost:11434",
		FetchLimit:      b.FetchLimit,
		GenerateRetries: b.GenerateRetries,
		APIDelay:        b.APIDelay,
		ProfileLevel:    "off",
	}
}

// Load reads configuration. Missing platform credentials are a
// configuration error.
func Load() (*Config, error) {
	// Load .env file if it exists (for development)
	_ = godotenv.Load()

	cfg := Defaults()
	if path := os.Getenv("POSTBOT_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if missing := cfg.Credentials.Missing(); len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", types.ErrConfiguration, strings.Join(missing, ", "))
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", types.ErrConfiguration, path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("%w: parse %s: %v", types.ErrConfiguration, path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.Credentials = twitter.Credentials{
		ConsumerKey:       os.Getenv("CONSUMER_KEY"),
		ConsumerSecret:    os.Getenv("CONSUMER_SECRET"),
		AccessToken:       os.Getenv("ACCESS_TOKEN"),
		AccessTokenSecret: os.Getenv("ACCESS_TOKEN_SECRET"),
	}
	c.Port = getEnv("PORT", c.Port)
	c.Debug = getEnv("DEBUG", strconv.FormatBool(c.Debug)) == "true"
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
	c.TwitterURL = getEnv("TWITTER_URL", c.TwitterURL)
	c.ModelBucket = getEnv("MODEL_BUCKET", c.ModelBucket)
	c.ModelDir = getEnv("MODEL_DIR", c.ModelDir)
	c.ScratchDir = getEnv("SCRATCH_DIR", c.ScratchDir)
	c.OllamaURL = getEnv("OLLAMA_URL", c.OllamaURL)
	c.DiscordToken = getEnv("DISCORD_TOKEN", c.DiscordToken)
	c.DiscordChannelID = getEnv("DISCORD_CHANNEL_ID", c.DiscordChannelID)
	c.ProfileLevel = getEnv("PROFILE_LEVEL", c.ProfileLevel)
	c.ProfileLog = getEnv("PROFILE_LOG", c.ProfileLog)

	var err error
	if c.FetchLimit, err = getInt("FETCH_LIMIT", c.FetchLimit); err != nil {
		return err
	}
	if c.GenerateRetries, err = getInt("GENERATE_RETRIES", c.GenerateRetries); err != nil {
		return err
	}
	if v := os.Getenv("API_DELAY"); v != "" {
		d, perr := time.ParseDuration(v)
		if perr != nil || d < 0 {
			return fmt.Errorf("%w: API_DELAY=%q", types.ErrConfiguration, v)
		}
		c.APIDelay = d
	}
	return nil
}

// Bot returns the pipeline tuning
func (c *Config) Bot() bot.Config {
	b := bot.DefaultConfig()
	b.FetchLimit = c.FetchLimit
	b.GenerateRetries = c.GenerateRetries
	b.APIDelay = c.APIDelay
	return b
}

// DiscordEnabled reports whether published posts are mirrored to Discord
func (c *Config) DiscordEnabled() bool {
	return c.DiscordToken != "" && c.DiscordChannelID != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %s=%q", types.ErrConfiguration, key, v)
	}
	return n, nil
}
