package auth

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Context keys for storing user information
type contextKey string

const (
	UserContextKey contextKey = "user"
)

// DefaultTokenLifetime is how long an issued admin session token stays valid.
const DefaultTokenLifetime = 12 * time.Hour

// AdminAuth issues and verifies the dashboard's HS256 session tokens.
type AdminAuth struct {
	secret        []byte
	adminUsername string
	passwordHash  string
	tokenLifetime time.Duration
}

// UserContext represents authenticated user information
type UserContext struct {
	Username string
}

// AdminClaims represents the JWT claims issued at login
type AdminClaims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
}

// NewAdminAuth creates an auth handler from the environment. Returns nil when
// JWT_SECRET is not set, which puts the server into unauthenticated dev mode.
func NewAdminAuth() *AdminAuth {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil
	}

	username := os.Getenv("ADMIN_USERNAME")
	if username == "" {
		username = "admin"
	}

	return &AdminAuth{
		secret:        []byte(secret),
		adminUsername: username,
		passwordHash:  os.Getenv("ADMIN_PASSWORD_HASH"),
		tokenLifetime: DefaultTokenLifetime,
	}
}

// CheckPassword verifies a login attempt against the configured admin account.
func (a *AdminAuth) CheckPassword(username, password string) error {
	if a == nil {
		return fmt.Errorf("authentication not configured")
	}
	if username != a.adminUsername {
		return fmt.Errorf("invalid username or password")
	}
	if a.passwordHash == "" {
		return fmt.Errorf("ADMIN_PASSWORD_HASH not configured")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.passwordHash), []byte(password)); err != nil {
		return fmt.Errorf("invalid username or password")
	}
	return nil
}

// IssueToken creates a signed session token for the given username.
func (a *AdminAuth) IssueToken(username string) (string, error) {
	if a == nil {
		return "", fmt.Errorf("authentication not configured")
	}

	now := time.Now()
	claims := AdminClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.tokenLifetime)),
		},
		Username: username,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// VerifyToken verifies a session token and returns its user context.
func (a *AdminAuth) VerifyToken(tokenString string) (*UserContext, error) {
	if a == nil {
		return nil, fmt.Errorf("authentication not configured")
	}

	token, err := jwt.ParseWithClaims(tokenString, &AdminClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("token verification failed: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(*AdminClaims)
	if !ok {
		return nil, fmt.Errorf("invalid claims type")
	}

	username := claims.Username
	if username == "" {
		username = claims.Subject
	}
	return &UserContext{Username: username}, nil
}

// ExtractUserFromContext extracts user context from request context
func ExtractUserFromContext(ctx context.Context) (*UserContext, bool) {
	user, ok := ctx.Value(UserContextKey).(*UserContext)
	return user, ok
}

// ExtractTokenFromHeader extracts JWT token from Authorization header
func ExtractTokenFromHeader(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	// Expected format: "Bearer <token>"
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}

	return parts[1]
}

// ExtractTokenFromQuery extracts JWT token from query parameter
func ExtractTokenFromQuery(r *http.Request) string {
	return r.URL.Query().Get("token")
}
