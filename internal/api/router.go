package api

import (
	"net/http"
	"time"

	// This blank import is required by swaggo to find the API definitions.
	_ "chatrelay/backend/docs"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"chatrelay/backend/internal/interfaces"
)

// NewRouter creates and configures a new chi router with all the application's routes.
func NewRouter(
	authService interfaces.AuthService,
	authHandler *AuthHandler,
	conversationHandler *ConversationHandler,
	chatHandler *ChatHandler,
	allowedOrigins []string,
) *chi.Mux {
	r := chi.NewRouter()

	// --- Global Middleware ---
	// These are applied to every request.
	r.Use(middleware.RequestID) // Injects a unique request ID into the context.
	r.Use(middleware.RealIP)    // Sets the remote address to the real IP from proxy headers.
	r.Use(middleware.Logger)    // Logs the start and end of each request with useful info.
	r.Use(middleware.Recoverer) // Recovers from panics and returns a 500 error.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// --- Public Routes ---
	// Routes that don't require authentication or versioning.

	// Serves the auto-generated Swagger UI for API documentation.
	r.Get("/api/swagger/*", httpSwagger.WrapHandler)

	// A simple health check endpoint. Crucial for container orchestration systems
	// like Kubernetes to perform liveness and readiness probes.
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		// The response body itself is not critical, but a 200 OK status is.
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// --- API Version 1 Routes ---
	// All primary API endpoints are grouped under the /api/v1 prefix.
	r.Route("/api/v1", func(r chi.Router) {

		// --- Auth ---
		// Signup, login, and the password reset flow are the only
		// endpoints reachable without a token.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			r.Post("/auth/signup", authHandler.HandleSignup)
			r.Post("/auth/login", authHandler.HandleLogin)
			r.Post("/auth/forgot-password", authHandler.HandleForgotPassword)
			r.Post("/auth/reset-password", authHandler.HandleResetPassword)
		})

		// Group for standard JSON API routes that should have a request timeout
		// to prevent client connections from hanging indefinitely.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))
			r.Use(RequireAuth(authService))

			r.Get("/auth/me", authHandler.HandleMe)
			r.Post("/auth/logout", authHandler.HandleLogout)

			// --- Conversations ---
			r.Get("/conversations", conversationHandler.HandleList)
			r.Post("/conversations", conversationHandler.HandleCreate)
			r.Get("/conversations/{conversationID}", conversationHandler.HandleGet)
			r.Put("/conversations/{conversationID}", conversationHandler.HandleUpdateTitle)
			r.Delete("/conversations/{conversationID}", conversationHandler.HandleDelete)

			// --- Models ---
			r.Get("/models", chatHandler.HandleListModels)

			r.Get("/chat/{conversationID}/history", chatHandler.HandleHistory)
		})

		// Group for long-running, streaming endpoints. These routes must NOT have a timeout,
		// as they are designed to hold a connection open for an extended period.
		r.Group(func(r chi.Router) {
			r.Use(RequireAuth(authService))

			r.Post("/chat/{conversationID}/stream", chatHandler.HandleStream)
		})
	})

	return r
}
