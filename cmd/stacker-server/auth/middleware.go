package auth

import (
	"context"
	"fmt"
	"net/http"
	"os"
)

// AuthMiddleware creates HTTP middleware for authentication
type AuthMiddleware struct {
	adminAuth *AdminAuth
	optional  bool
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(adminAuth *AdminAuth, optional bool) *AuthMiddleware {
	return &AuthMiddleware{
		adminAuth: adminAuth,
		optional:  optional,
	}
}

// Handler wraps an HTTP handler with authentication
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Allow OPTIONS requests (CORS preflight) to pass through without auth
		if r.Method == "OPTIONS" {
			next.ServeHTTP(w, r)
			return
		}

		token := ExtractTokenFromHeader(r)
		if token == "" {
			token = ExtractTokenFromQuery(r)
		}

		if token == "" {
			if !m.optional {
				http.Error(w, "Unauthorized: missing authentication token", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		// Static service token for machine callers (CLI, sync workers)
		serviceToken := os.Getenv("STACKER_SERVICE_TOKEN")
		if serviceToken != "" && token == serviceToken {
			ctx := context.WithValue(r.Context(), UserContextKey, &UserContext{Username: "service_account"})
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		userCtx, err := m.adminAuth.VerifyToken(token)
		if err != nil {
			if !m.optional {
				http.Error(w, fmt.Sprintf("Unauthorized: %v", err), http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, userCtx)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// HandlerFunc wraps an HTTP handler function with authentication
func (m *AuthMiddleware) HandlerFunc(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m.Handler(next).ServeHTTP(w, r)
	}
}

// RequireAuth creates middleware that requires authentication
func RequireAuth(adminAuth *AdminAuth) *AuthMiddleware {
	return NewAuthMiddleware(adminAuth, false)
}

// OptionalAuth creates middleware that allows optional authentication
func OptionalAuth(adminAuth *AdminAuth) *AuthMiddleware {
	return NewAuthMiddleware(adminAuth, true)
}
