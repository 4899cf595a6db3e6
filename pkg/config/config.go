package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Telegram     TelegramConfig     `mapstructure:"telegram"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Classifier   ClassifierConfig   `mapstructure:"classifier"`
	OpenAI       OpenAIConfig       `mapstructure:"openai"`
	Gemini       GeminiConfig       `mapstructure:"gemini"`
	Intelligence IntelligenceConfig `mapstructure:"intelligence"`
	Forum        ForumConfig        `mapstructure:"forum"`
	Metrics      MetricsConfig      `mapstructure:"metrics"`
}

type TelegramConfig struct {
	Token string `mapstructure:"token"`
}

// DatabaseConfig locates the moderation journal
type DatabaseConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	DBName      string `mapstructure:"dbname"`
	SSLMode     string `mapstructure:"sslmode"`
	UseInMemory bool   `mapstructure:"use_in_memory"`
}

type ClassifierConfig struct {
	MaxTags int `mapstructure:"max_tags"`
}

type OpenAIConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Model       string  `mapstructure:"model"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

type GeminiConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Model       string  `mapstructure:"model"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

type IntelligenceConfig struct {
	// Backend is one of "openai", "gemini" or "local"
	Backend           string        `mapstructure:"backend"`
	Timeout           time.Duration `mapstructure:"timeout"`
	BotReplyDelay     time.Duration `mapstructure:"bot_reply_delay"`
	MaxInFlight       int           `mapstructure:"max_in_flight"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
}

type ForumConfig struct {
	BotName   string `mapstructure:"bot_name"`
	BotAvatar string `mapstructure:"bot_avatar"`
	// Admins lists Telegram user ids granted moderation rights
	Admins   []int64 `mapstructure:"admins"`
	SeedDemo bool    `mapstructure:"seed_demo"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

func parseDatabaseURL(dbURL string) (DatabaseConfig, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return DatabaseConfig{}, err
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return DatabaseConfig{}, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	password, _ := u.User.Password()
	port := 5432 // default PostgreSQL port
	if u.Port() != "" {
		fmt.Sscanf(u.Port(), "%d", &port)
	}

	sslMode := u.Query().Get("sslmode")
	if sslMode == "" {
		sslMode = "disable"
	}

	return DatabaseConfig{
		Host:     u.Hostname(),
		Port:     port,
		User:     u.User.Username(),
		Password: password,
		DBName:   strings.TrimPrefix(u.Path, "/"),
		SSLMode:  sslMode,
	}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.use_in_memory", true)
	v.SetDefault("classifier.max_tags", 4)
	v.SetDefault("openai.model", "gpt-3.5-turbo")
	v.SetDefault("openai.max_tokens", 150)
	v.SetDefault("openai.temperature", 0.7)
	v.SetDefault("gemini.model", "gemini-2.0-flash")
	v.SetDefault("gemini.max_tokens", 256)
	v.SetDefault("gemini.temperature", 0.7)
	v.SetDefault("intelligence.backend", "openai")
	v.SetDefault("intelligence.timeout", 15*time.Second)
	v.SetDefault("intelligence.bot_reply_delay", 1500*time.Millisecond)
	v.SetDefault("intelligence.max_in_flight", 8)
	v.SetDefault("intelligence.requests_per_minute", 60)
	v.SetDefault("forum.bot_name", "Nova (AI)")
	v.SetDefault("forum.bot_avatar", "https://i.pravatar.cc/150?u=nova")
	v.SetDefault("forum.seed_demo", true)
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Enable environment variable support
	v.AutomaticEnv()

	// Read the config file
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Check for DATABASE_URL environment variable
	if dbURL := v.GetString("DATABASE_URL"); dbURL != "" {
		dbConfig, err := parseDatabaseURL(dbURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
		}
		config.Database = dbConfig
	}

	if token := v.GetString("TELEGRAM_TOKEN"); token != "" {
		config.Telegram.Token = token
	}
	if apiKey := v.GetString("OPENAI_API_KEY"); apiKey != "" {
		config.OpenAI.APIKey = apiKey
	}
	if apiKey := v.GetString("GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}

	return &config, nil
}

// IsAdmin reports whether a Telegram user id is listed in forum.admins
func (c ForumConfig) IsAdmin(userID int64) bool {
	for _, id := range c.Admins {
		if id == userID {
			return true
		}
	}
	return false
}
