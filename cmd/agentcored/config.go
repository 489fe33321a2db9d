package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config is the process-level configuration for agentcored, layered
// env > file > defaults the way andymwolf-agentium's and
// vanducng-goclaw's cobra entrypoints do.
type Config struct {
	// Provider selects the model adapter: "anthropic", "bedrock", or
	// "openai".
	Provider string `mapstructure:"provider"`
	// Model is the provider-qualified model identifier handed to the root
	// TaskManager's metadata.
	Model string `mapstructure:"model"`
	// APIKey authenticates the anthropic/openai adapters. Unused for
	// bedrock, which relies on the ambient AWS credential chain.
	APIKey string `mapstructure:"api_key"`

	// RedisAddr, when set, backs the session store with session/redis
	// instead of the in-memory default.
	RedisAddr string `mapstructure:"redis_addr"`
	// SessionID names the durable session new agents' run metadata is
	// recorded under.
	SessionID string `mapstructure:"session_id"`

	// Verbose enables debug-level logging.
	Verbose bool `mapstructure:"verbose"`
}

func loadConfig(cfgFile string) (Config, error) {
	v := viper.New()
	v.SetDefault("provider", "anthropic")
	v.SetDefault("model", "anthropic:claude-sonnet-4")
	v.SetDefault("session_id", "default")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".agentcored")
	}

	v.SetEnvPrefix("AGENTCORED")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfgFile != "" {
			return Config{}, fmt.Errorf("agentcored: reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("agentcored: decoding config: %w", err)
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("AGENTCORED_API_KEY")
	}
	return cfg, nil
}
