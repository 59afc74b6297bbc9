package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/rankrocket/calendar-stacker/cmd/stacker-server/auth"
	"github.com/rankrocket/calendar-stacker/cmd/stacker-server/handlers"
	"github.com/rankrocket/calendar-stacker/internal/config"
	"github.com/rankrocket/calendar-stacker/internal/google"
	"github.com/rankrocket/calendar-stacker/internal/oauthstate"
	"github.com/rankrocket/calendar-stacker/internal/queue"
	"github.com/rankrocket/calendar-stacker/internal/storage"
)

const ServiceVersion = "v1.0.0"

func init() {
	// Load environment variables FIRST from project root or current dir
	config.LoadEnv("../../.env")
}

func main() {
	fmt.Printf("Starting Stacker Server %s...\n", ServiceVersion)

	cfg := config.LoadServiceConfig(os.Getenv("SERVICE_CONFIG_PATH"))

	// Persistence (Postgres or JSON file)
	store, err := storage.NewStoreFromEnv()
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize store: %v", err))
	}
	defer store.Close()

	// Pending OAuth flows (Redis or in-memory)
	states, err := oauthstate.NewStoreFromEnv()
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize OAuth state store: %v", err))
	}
	defer states.Close()

	// Admin authentication
	adminAuth := auth.NewAdminAuth()
	if adminAuth == nil {
		fmt.Println("Warning: authentication not configured (JWT_SECRET not set)")
		fmt.Println("Running in development mode without authentication")
	}

	// Google clients
	oauthClient := google.NewOAuthClient(cfg.GoogleTimeout())
	calendarService := google.NewCalendarService(store, oauthClient, cfg.GoogleTimeout())

	// Work queue for async stack jobs
	var publisher handlers.Publisher
	queueConn, err := queue.Connect()
	if err != nil {
		fmt.Printf("Warning: RabbitMQ unavailable, stack requests disabled: %v\n", err)
		publisher = handlers.PublisherFunc(func(ctx context.Context, body []byte) error {
			return fmt.Errorf("work queue not connected")
		})
	} else {
		defer queueConn.Close()
		if err := queueConn.DeclareQueue(cfg.Queues.StackRequests); err != nil {
			panic(fmt.Sprintf("Failed to declare queue: %v", err))
		}
		stackQueue := cfg.Queues.StackRequests
		publisher = handlers.PublisherFunc(func(ctx context.Context, body []byte) error {
			return queueConn.Publish(ctx, stackQueue, body)
		})
	}

	// Create handlers
	loginHandler := handlers.NewLoginHandler(adminAuth)
	clientHandler := handlers.NewClientHandler(store)
	oauthHandler := handlers.NewOAuthHandler(store, states, oauthClient)
	calendarHandler := handlers.NewCalendarHandler(calendarService, publisher)

	// Setup router
	mux := http.NewServeMux()

	mux.HandleFunc("/api/login", loginHandler.HandleLogin)

	// OAuth consent callback is hit by the browser after Google redirects;
	// it carries its own state token and never a session token.
	mux.HandleFunc("/oauth/callback", oauthHandler.HandleCallback)

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := store.Ping(); err != nil {
			http.Error(w, fmt.Sprintf("store unavailable: %v", err), http.StatusServiceUnavailable)
			return
		}
		fmt.Fprintln(w, "ok")
	})

	if adminAuth != nil {
		authMiddleware := auth.RequireAuth(adminAuth)
		mux.HandleFunc("/api/clients", authMiddleware.HandlerFunc(clientHandler.HandleClients))
		mux.HandleFunc("/api/clients/", authMiddleware.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isCalendarPath(r.URL.Path) {
				calendarHandler.HandleClientCalendars(w, r)
				return
			}
			clientHandler.HandleClientByID(w, r)
		}))
		mux.HandleFunc("/api/oauth", authMiddleware.HandlerFunc(oauthHandler.HandleCredentials))
		mux.HandleFunc("/api/oauth/", authMiddleware.HandlerFunc(oauthHandler.HandleCredentialByID))
	} else {
		// Dev mode
		mux.HandleFunc("/api/clients", clientHandler.HandleClients)
		mux.HandleFunc("/api/clients/", func(w http.ResponseWriter, r *http.Request) {
			if isCalendarPath(r.URL.Path) {
				calendarHandler.HandleClientCalendars(w, r)
				return
			}
			clientHandler.HandleClientByID(w, r)
		})
		mux.HandleFunc("/api/oauth", oauthHandler.HandleCredentials)
		mux.HandleFunc("/api/oauth/", oauthHandler.HandleCredentialByID)
	}

	// Apply CORS to everything
	handlerWithCors := corsMiddleware(mux)

	port := config.EnvInt("PORT", 8080)
	fmt.Printf("Stacker Server listening on port %d...\n", port)
	fmt.Printf("   - API:      http://localhost:%d/api/clients\n", port)
	fmt.Printf("   - OAuth:    http://localhost:%d/oauth/callback\n", port)

	if err := http.ListenAndServe(fmt.Sprintf(":%d", port), handlerWithCors); err != nil {
		panic(fmt.Sprintf("Failed to start server: %v", err))
	}
}

func isCalendarPath(path string) bool {
	return strings.Contains(path, "/calendars")
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
