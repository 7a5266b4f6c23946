package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"companion/internal/auth"
	"companion/internal/config"
	"companion/internal/handler"
	"companion/internal/llm/openai"
	"companion/internal/middleware"
	"companion/internal/repository/postgres"
	"companion/internal/service"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	prompt, err := config.LoadPrompt()
	if err != nil {
		log.Fatalf("Failed to load prompt config: %v", err)
	}

	tokens, err := auth.NewTokenIssuer(cfg.SecretKey, time.Duration(cfg.TokenExpiryMinutes)*time.Minute)
	if err != nil {
		log.Fatalf("Failed to create token issuer: %v", err)
	}

	// Create pgx connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected")

	// Create repositories
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: postgres.NewTableNames(cfg.TablePrefix),
		Logger: logger,
	}
	userRepo := postgres.NewUserRepository(repoConfig)
	convRepo := postgres.NewConversationRepository(repoConfig)
	jobRepo := postgres.NewFineTuneRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool)

	// OpenAI provider. A missing key disables fine-tuning submissions;
	// the services report it per-request.
	if cfg.OpenAIAPIKey == "" {
		logger.Warn("OPENAI_API_KEY not set - completion and fine-tune calls will fail")
	}
	provider := openai.NewProvider(cfg.OpenAIAPIKey)

	// Create services
	authService := service.NewAuthService(userRepo, tokens, logger)
	userService := service.NewUserService(userRepo, logger)
	fineTuneService := service.NewFineTuneService(jobRepo, txManager, provider, service.FineTuneConfig{
		APIKeyConfigured:   cfg.OpenAIAPIKey != "",
		BaseModel:          cfg.DefaultModel,
		TrainingDataPath:   cfg.TrainingDataPath,
		ValidationDataPath: cfg.ValidationDataPath,
	}, logger)
	chatService := service.NewChatService(convRepo, txManager, provider, fineTuneService, prompt, logger)

	// Create handlers
	authHandler := handler.NewAuthHandler(authService, logger)
	userHandler := handler.NewUserHandler(userService, logger)
	chatHandler := handler.NewChatHandler(chatService, logger)
	fineTuneHandler := handler.NewFineTuneHandler(fineTuneService, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Auth routes
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/token", authHandler.Login)

	// User routes
	mux.HandleFunc("GET /api/users/me", userHandler.Me)
	mux.HandleFunc("PUT /api/users/me", userHandler.UpdateMe)

	// Chat routes
	mux.HandleFunc("POST /api/chat/conversations", chatHandler.CreateConversation)
	mux.HandleFunc("GET /api/chat/conversations", chatHandler.ListConversations)
	mux.HandleFunc("GET /api/chat/conversations/{id}/messages", chatHandler.GetMessages)
	mux.HandleFunc("POST /api/chat/conversations/{id}/messages", chatHandler.SendMessage)
	mux.HandleFunc("PATCH /api/chat/conversations/{id}/name", chatHandler.RenameConversation)
	mux.HandleFunc("DELETE /api/chat/conversations/{id}", chatHandler.DeleteConversation)

	// Fine-tune routes (no auth required; see middleware.Auth public prefixes)
	mux.HandleFunc("POST /api/fine-tune", fineTuneHandler.Submit)
	mux.HandleFunc("GET /api/fine-tune/{id}/status", fineTuneHandler.Status)

	// Build middleware chain
	// Order: CORS → RequestID → Recovery → Auth → Routes
	var root http.Handler = mux

	root = middleware.Auth(tokens, userRepo, []string{
		"/health",
		"/api/auth/",
		"/api/fine-tune",
	})(root)
	root = middleware.Recovery(logger)(root)
	root = middleware.RequestID(logger)(root)

	// CORS - Must be outermost to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	root = corsHandler.Handler(root)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
