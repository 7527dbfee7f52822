package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	configPath   = "./"
	configName   = "config"
	configFormat = "yaml"
)

type Config struct {
	Server ServerConfig `yaml:"server"`

	Rules     RulesConfig     `yaml:"rules"`
	Actions   ActionsConfig   `yaml:"actions"`
	Seed      SeedConfig      `yaml:"seed"`
	Share     ShareConfig     `yaml:"share"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`

	LogLevel string `yaml:"logLevel"`
}

type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

type RulesConfig struct {
	BlockClaimAfterExpiry bool   `yaml:"blockClaimAfterExpiry"`
	ReferralBaseURL       string `yaml:"referralBaseURL"`
}

type ActionsConfig struct {
	CodeDelay         time.Duration `yaml:"codeDelay"`
	EvidenceDelay     time.Duration `yaml:"evidenceDelay"`
	ToolDelay         time.Duration `yaml:"toolDelay"`
	EvidenceMinLength int           `yaml:"evidenceMinLength"`
}

type SeedConfig struct {
	// Path to a JSON seed file. The built-in mock data is used when empty.
	Path string `yaml:"path"`
}

type ShareConfig struct {
	TelegramBotToken string `yaml:"telegramBotToken"`
	TelegramChatID   int64  `yaml:"telegramChatID"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.shutdownTimeout", 10*time.Second)
	v.SetDefault("logLevel", "info")

	v.SetDefault("rules.blockClaimAfterExpiry", false)
	v.SetDefault("rules.referralBaseURL", "https://yourapp.com")

	v.SetDefault("actions.codeDelay", time.Second)
	v.SetDefault("actions.evidenceDelay", 2*time.Second)
	v.SetDefault("actions.toolDelay", 500*time.Millisecond)
	v.SetDefault("actions.evidenceMinLength", 500)

	v.SetDefault("seed.path", "")
	v.SetDefault("share.telegramBotToken", "")
	v.SetDefault("share.telegramChatID", 0)

	v.SetDefault("rateLimit.rps", 5)
	v.SetDefault("rateLimit.burst", 30)
}

// LoadConfig reads config.yaml from dir. A missing file is not an error:
// defaults and APP_ environment variables still apply.
func LoadConfig(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(configName)
	v.AddConfigPath(dir)
	v.SetConfigType(configFormat)

	v.AutomaticEnv()
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
