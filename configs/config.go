package configs

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config struct
type Config struct {
	App        `mapstructure:"app"`
	Log        `mapstructure:"log"`
	Telemetry  `mapstructure:"telemetry"`
	Storage    `mapstructure:"storage"`
	Postgres   `mapstructure:"postgres"`
	Sqlite     `mapstructure:"sqlite"`
	Line       `mapstructure:"line"`
	Telegram   `mapstructure:"telegram"`
	LMStudio   `mapstructure:"lmstudio"`
	Session    `mapstructure:"session"`
	Normalizer `mapstructure:"normalizer"`
}

// App struct
type App struct {
	Debug      bool   `mapstructure:"debug"`
	Env        string `mapstructure:"env"`
	Port       string `mapstructure:"port"`
	DonateText string `mapstructure:"donate_text"`
}

// Log struct
type Log struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"` // Empty disables the rotated log file
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

// Telemetry struct
type Telemetry struct {
	Enabled     bool   `mapstructure:"enabled"`
	Dir         string `mapstructure:"dir"`
	ServiceName string `mapstructure:"service_name"`
	Interval    int    `mapstructure:"interval"` // Metric export interval, seconds
}

// Storage struct
type Storage struct {
	Driver string `mapstructure:"driver"` // memory, postgres or sqlite
}

// Postgres struct
type Postgres struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DbName   string `mapstructure:"database"`
	SSLMode  bool   `mapstructure:"sslmode"`
}

// Sqlite struct
type Sqlite struct {
	Path string `mapstructure:"path"`
}

// Line struct
type Line struct {
	Enabled       bool   `mapstructure:"enabled"`
	ChannelSecret string `mapstructure:"channel_secret"`
	ChannelToken  string `mapstructure:"channel_token"`
}

// Telegram struct
type Telegram struct {
	Enabled       bool   `mapstructure:"enabled"`
	Token         string `mapstructure:"token"`
	Mode          string `mapstructure:"mode"` // polling or webhook
	WebhookSecret string `mapstructure:"webhook_secret"`
	ServerURL     string `mapstructure:"server_url"` // Bot API server, empty for api.telegram.org
	PollTimeout   int    `mapstructure:"poll_timeout"`
}

// LMStudio struct
type LMStudio struct {
	BaseURL      string `mapstructure:"base_url"`
	Model        string `mapstructure:"model"`
	Timeout      int    `mapstructure:"timeout"` // Seconds
	SystemPrompt string `mapstructure:"system_prompt"`
}

// Session struct
type Session struct {
	MaxHistoryMessages int     `mapstructure:"max_history_messages"`
	MaxHistoryChars    int     `mapstructure:"max_history_chars"`
	MaxTrackedMessages int     `mapstructure:"max_tracked_messages"`
	MaxNameLength      int     `mapstructure:"max_name_length"`
	DefaultTemperature float64 `mapstructure:"default_temperature"`
	DefaultMaxTokens   int     `mapstructure:"default_max_tokens"`
}

// Normalizer struct
type Normalizer struct {
	Enabled bool   `mapstructure:"enabled"`
	Script  string `mapstructure:"script"`
}

var config Config

// InitViper func
func InitViper(path, env string) error {
	return getConfig(path, env)
}

// GetViper func
func GetViper() *Config {
	return &config
}

// Every key needs a default so AutomaticEnv overrides reach Unmarshal
func setDefaults() {
	viper.SetDefault("app.debug", false)
	viper.SetDefault("app.env", "")
	viper.SetDefault("app.port", "9089")
	viper.SetDefault("app.donate_text", "Thank you for considering a donation!")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.file", "")
	viper.SetDefault("log.max_size", 10)
	viper.SetDefault("log.max_backups", 3)
	viper.SetDefault("log.max_age", 28)
	viper.SetDefault("telemetry.enabled", false)
	viper.SetDefault("telemetry.dir", "logs")
	viper.SetDefault("telemetry.service_name", "gptbot")
	viper.SetDefault("telemetry.interval", 10)
	viper.SetDefault("storage.driver", "memory")
	viper.SetDefault("postgres.host", "localhost")
	viper.SetDefault("postgres.port", "5432")
	viper.SetDefault("postgres.username", "")
	viper.SetDefault("postgres.password", "")
	viper.SetDefault("postgres.database", "")
	viper.SetDefault("postgres.sslmode", false)
	viper.SetDefault("sqlite.path", "data/gptbot.db")
	viper.SetDefault("line.enabled", false)
	viper.SetDefault("line.channel_secret", "")
	viper.SetDefault("line.channel_token", "")
	viper.SetDefault("telegram.enabled", true)
	viper.SetDefault("telegram.token", "")
	viper.SetDefault("telegram.mode", "polling")
	viper.SetDefault("telegram.webhook_secret", "")
	viper.SetDefault("telegram.server_url", "")
	viper.SetDefault("telegram.poll_timeout", 30)
	viper.SetDefault("lmstudio.base_url", "http://localhost:1234")
	viper.SetDefault("lmstudio.model", "local-model")
	viper.SetDefault("lmstudio.timeout", 60)
	viper.SetDefault("lmstudio.system_prompt", "You are a helpful assistant.")
	viper.SetDefault("session.max_history_messages", 200)
	viper.SetDefault("session.max_history_chars", 24000)
	viper.SetDefault("session.max_tracked_messages", 700)
	viper.SetDefault("session.max_name_length", 64)
	viper.SetDefault("session.default_temperature", 0.7)
	viper.SetDefault("session.default_max_tokens", 1024)
	viper.SetDefault("normalizer.enabled", true)
	viper.SetDefault("normalizer.script", "Cyrillic")
}

func getConfig(path, env string) error {
	viper.Reset()
	setDefaults()
	viper.SetConfigName("config")
	viper.AddConfigPath(path)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
		logrus.Warnf("No config file in %s, using defaults and environment", path)
	}

	if env != "" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return fmt.Errorf("failed to merge %s config: %w", env, err)
			}
		}
	}

	viper.OnConfigChange(func(e fsnotify.Event) {
		logrus.Infof("Config file has changed: %s", e.Name)
	})
	if viper.ConfigFileUsed() != "" {
		viper.WatchConfig()
	}

	config = Config{}
	if err := viper.Unmarshal(&config); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if env != "" {
		config.App.Env = env
	}
	return nil
}
