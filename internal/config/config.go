package config

import (
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	AppPort      int    `mapstructure:"APP_PORT"`
	DatabasePath string `mapstructure:"DATABASE_PATH"`
	RedisAddr    string `mapstructure:"REDIS_ADDR"`
	LogLevel     string `mapstructure:"LOG_LEVEL"`

	// Provider endpoints and credentials. Keys are optional: a provider with
	// no credential is still registered but will fail upstream if called.
	OllamaBaseURL   string `mapstructure:"OLLAMA_BASE_URL"`
	DeepSeekBaseURL string `mapstructure:"DEEPSEEK_BASE_URL"`
	DeepSeekAPIKey  string `mapstructure:"DEEPSEEK_API_KEY"`
	GeminiAPIKey    string `mapstructure:"GEMINI_API_KEY"`

	SystemPrompt string `mapstructure:"SYSTEM_PROMPT"`

	// Token signing.
	JWTSecret       string `mapstructure:"JWT_SECRET"`
	JWTAlgorithm    string `mapstructure:"JWT_ALGORITHM"`
	TokenTTLMinutes int    `mapstructure:"TOKEN_TTL_MINUTES"`

	FrontendURL    string `mapstructure:"FRONTEND_URL"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`

	DataRetentionDays int `mapstructure:"DATA_RETENTION_DAYS"`

	// Mail relay for password reset links.
	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUser     string `mapstructure:"SMTP_USER"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	SMTPFrom     string `mapstructure:"SMTP_FROM"`
}

func LoadConfig() (*Config, error) {
	viper.SetDefault("APP_PORT", 8000)
	viper.SetDefault("DATABASE_PATH", "/data/chatrelay.db")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("LOG_LEVEL", "INFO")
	viper.SetDefault("OLLAMA_BASE_URL", "http://ollama:11434")
	viper.SetDefault("DEEPSEEK_BASE_URL", "https://api.deepseek.com")
	viper.SetDefault("SYSTEM_PROMPT",
		"You are a helpful AI assistant. Provide accurate, concise, and friendly responses. "+
			"If you don't know something, admit it rather than guessing.")
	viper.SetDefault("JWT_ALGORITHM", "HS256")
	viper.SetDefault("TOKEN_TTL_MINUTES", 1440)
	viper.SetDefault("FRONTEND_URL", "http://localhost:3000")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("DATA_RETENTION_DAYS", 30)
	viper.SetDefault("SMTP_HOST", "smtp.gmail.com")
	viper.SetDefault("SMTP_PORT", 587)

	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./backend")

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

	return &cfg, nil
}
