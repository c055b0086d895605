package app

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"

	"chatrelay/backend/internal/api"
	"chatrelay/backend/internal/auth"
	"chatrelay/backend/internal/config"
	"chatrelay/backend/internal/database"
	"chatrelay/backend/internal/llm"
	"chatrelay/backend/internal/mail"
	"chatrelay/backend/internal/repository"
	"chatrelay/backend/internal/service"
)

func Run() int {
	cfg, err := config.LoadConfig()
	if err != nil {
		// slog is not yet configured, so use the default logger for this critical error.
		slog.Error("Failed to load configuration", "error", err)
		return 1
	}

	setupLogger(cfg.LogLevel)

	logConfigSource()

	db, err := database.InitDB(cfg.DatabasePath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		return 1
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.Error("Failed to close database connection", "error", err)
		}
	}()
	slog.Info("Successfully connected to SQLite database.")

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	slog.Info("Connected to Redis", "addr", cfg.RedisAddr)

	repo := repository.NewSQLiteRepository(db)

	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTAlgorithm, time.Duration(cfg.TokenTTLMinutes)*time.Minute)
	if err != nil {
		slog.Error("Failed to configure token signing", "error", err)
		return 1
	}
	resets := auth.NewResetStore(rdb)
	mailer := mail.NewSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPFrom)

	modelRouter := llm.NewRouter(
		llm.NewGeminiProvider(cfg.GeminiAPIKey),
		llm.NewDeepSeekProvider(cfg.DeepSeekBaseURL, cfg.DeepSeekAPIKey),
		llm.NewOllamaProvider(cfg.OllamaBaseURL),
	)

	authService := service.NewAuthService(repo, tokens, resets, mailer, cfg.FrontendURL)
	conversationService := service.NewConversationService(repo)
	chatService := service.NewChatService(repo, modelRouter, cfg.SystemPrompt)

	authHandler := api.NewAuthHandler(authService)
	conversationHandler := api.NewConversationHandler(conversationService)
	chatHandler := api.NewChatHandler(chatService)

	router := api.NewRouter(authService, authHandler, conversationHandler, chatHandler, splitOrigins(cfg.AllowedOrigins))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.AppPort),
		Handler:           router,
		ReadHeaderTimeout: 20 * time.Second,
		WriteTimeout:      0, // Disabled for streaming endpoints
		IdleTimeout:       120 * time.Second,
	}

	slog.Info("Starting server", "port", cfg.AppPort)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server failed", "error", err)
		return 1
	}

	return 0
}

func logConfigSource() {
	configFileUsed := viper.ConfigFileUsed()
	if configFileUsed != "" {
		slog.Info("Successfully loaded configuration from file.", "file", configFileUsed)
	} else {
		slog.Info("Configuration file not found. Using environment variables and defaults.")
	}
}

func setupLogger(logLevel string) {
	var level slog.Level
	switch strings.ToUpper(logLevel) {
	case "DEBUG":
		level = slog.LevelDebug
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
}

func splitOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
