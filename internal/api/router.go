package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"
	"github.com/velaphi/legal-assist/internal/api/handler"
	customMiddleware "github.com/velaphi/legal-assist/internal/api/middleware"
	"github.com/velaphi/legal-assist/internal/config"
	"github.com/velaphi/legal-assist/internal/kvstore"
	kvredis "github.com/velaphi/legal-assist/internal/kvstore/redis"
	"github.com/velaphi/legal-assist/internal/llm/gemini"
	"github.com/velaphi/legal-assist/internal/security"
	"github.com/velaphi/legal-assist/internal/service"
	"github.com/velaphi/legal-assist/internal/store"
)

// NewRouter creates and configures the HTTP router. rateLimiter may be nil
// when the configured backend is not redis.
func NewRouter(cfg *config.Config, kv kvstore.Store, rateLimiter *kvredis.RateLimiter) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.Server.MiddlewareTimeout))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize security components
	jwtManager := security.NewJWTManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenTTL,
		cfg.Auth.RefreshTokenTTL,
	)

	// Credential encryption key is derived from the JWT secret
	encryptionKey := []byte(cfg.Auth.JWTSecret)
	if len(encryptionKey) > 32 {
		encryptionKey = encryptionKey[:32]
	} else if len(encryptionKey) < 32 {
		padded := make([]byte, 32)
		copy(padded, encryptionKey)
		encryptionKey = padded
	}
	encryptor, err := security.NewEncryptor(encryptionKey)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize encryptor")
	}

	// Initialize stores
	credentialStore := store.NewCredentialStore(kv, encryptor)
	knowledgeStore := store.NewKnowledgeStore(kv)
	historyStore := store.NewHistoryStore(kv)

	// Per-user completers
	completers := gemini.NewFactory(cfg.LLM.Gemini)

	// Initialize services
	authService := service.NewAuthService(credentialStore, jwtManager)
	chatService := service.NewChatService(
		credentialStore,
		knowledgeStore,
		historyStore,
		completers,
		cfg.LLM.RequestTimeout,
	)
	educationService := service.NewEducationService(
		credentialStore,
		knowledgeStore,
		completers,
		cfg.LLM.RequestTimeout,
	)
	exportService := service.NewExportService(
		chatService,
		credentialStore,
		completers,
		cfg.LLM.RequestTimeout,
	)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	chatHandler := handler.NewChatHandler(chatService, exportService)
	historyHandler := handler.NewHistoryHandler(historyStore)
	knowledgeHandler := handler.NewKnowledgeHandler(knowledgeStore)
	educationHandler := handler.NewEducationHandler(educationService)

	authMiddleware := customMiddleware.NewAuthMiddleware(jwtManager)
	rateLimitMiddleware := customMiddleware.NewRateLimitMiddleware(rateLimiter)

	r.Route("/api/v1", func(r chi.Router) {
		// Health check
		r.Get("/health", handler.HealthCheck)
		r.Get("/ready", handler.ReadyCheck(kv))

		// Auth routes (public)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			r.Use(rateLimitMiddleware.Limit)

			r.Get("/me", authHandler.Me)
			r.Patch("/me/settings", authHandler.UpdateSettings)

			r.Get("/agents", handler.ListAgents)

			r.Route("/chat", func(r chi.Router) {
				r.Get("/", chatHandler.Current)
				r.Post("/new", chatHandler.New)
				r.Post("/message", chatHandler.Send)
				r.Post("/select", chatHandler.Select)
				r.Post("/export", chatHandler.Export)
			})

			r.Route("/history", func(r chi.Router) {
				r.Get("/", historyHandler.List)
				r.Delete("/{conversationID}", historyHandler.Delete)
			})

			r.Route("/knowledge", func(r chi.Router) {
				r.Get("/{agentID}", knowledgeHandler.ListForAgent)
				r.Delete("/{agentID}/{entryID}", knowledgeHandler.Delete)
			})

			r.Route("/education", func(r chi.Router) {
				r.Post("/url", educationHandler.SubmitURL)
				r.Post("/file", educationHandler.SubmitFile)
				r.Get("/current", educationHandler.Current)
				r.Post("/approve", educationHandler.Approve)
				r.Post("/reject", educationHandler.Reject)
			})
		})
	})

	return r
}
