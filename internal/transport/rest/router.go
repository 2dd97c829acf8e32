package rest

import (
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"journeybot/internal/service"
	"journeybot/internal/transport/rest/handler"
	"journeybot/internal/transport/rest/middleware"
	"journeybot/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService         *service.AuthService
	CatalogService      *service.CatalogService
	ConversationService *service.ConversationService
	WSHub               *ws.Hub
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService)
	catalogHandler := handler.NewCatalogHandler(c.CatalogService, c.ConversationService)
	convHandler := handler.NewConversationHandler(c.ConversationService)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware)

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	v1.HandleFunc("/conversations/{childId}/start", convHandler.Start).Methods("POST", "OPTIONS")
	v1.HandleFunc("/catalog/metadata", catalogHandler.Metadata).Methods("GET", "OPTIONS")

	// WebSocket route (public with token in query param)
	v1.HandleFunc("/ws/conversations", wsHandler.CaregiverWS).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Caregiver routes (require caregiver auth)
	caregiverRoutes := v1.NewRoute().Subrouter()
	caregiverRoutes.Use(authMW.RequireCaregiver)

	caregiverRoutes.HandleFunc("/conversations/state", convHandler.GetState).Methods("GET", "OPTIONS")
	caregiverRoutes.HandleFunc("/conversations/answer", convHandler.SubmitAnswer).Methods("POST", "OPTIONS")
	caregiverRoutes.HandleFunc("/conversations/advance", convHandler.Advance).Methods("POST", "OPTIONS")
	caregiverRoutes.HandleFunc("/conversations/back", convHandler.Retreat).Methods("POST", "OPTIONS")
	caregiverRoutes.HandleFunc("/conversations/retry", convHandler.RetryCurrent).Methods("POST", "OPTIONS")
	caregiverRoutes.HandleFunc("/conversations/close", convHandler.Close).Methods("POST", "OPTIONS")

	// Admin routes (require admin auth)
	adminRoutes := v1.NewRoute().Subrouter()
	adminRoutes.Use(authMW.RequireAdmin)

	adminRoutes.HandleFunc("/modules", catalogHandler.Create).Methods("POST", "OPTIONS")
	adminRoutes.HandleFunc("/modules", catalogHandler.List).Methods("GET", "OPTIONS")
	adminRoutes.HandleFunc("/modules/{moduleId}", catalogHandler.Get).Methods("GET", "OPTIONS")
	adminRoutes.HandleFunc("/modules/{moduleId}", catalogHandler.Update).Methods("PUT", "OPTIONS")
	adminRoutes.HandleFunc("/modules/{moduleId}", catalogHandler.Delete).Methods("DELETE", "OPTIONS")
	adminRoutes.HandleFunc("/children", catalogHandler.CreateChild).Methods("POST", "OPTIONS")
	adminRoutes.HandleFunc("/children/{childId}", catalogHandler.GetChild).Methods("GET", "OPTIONS")

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
		if allowedOrigins == "" {
			allowedOrigins = "*"
		}

		allowedMethods := os.Getenv("CORS_ALLOWED_METHODS")
		if allowedMethods == "" {
			allowedMethods = "GET, POST, PUT, DELETE, OPTIONS"
		}

		allowedHeaders := os.Getenv("CORS_ALLOWED_HEADERS")
		if allowedHeaders == "" {
			allowedHeaders = "Content-Type, Authorization"
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
		w.Header().Set("Access-Control-Allow-Methods", allowedMethods)
		w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
