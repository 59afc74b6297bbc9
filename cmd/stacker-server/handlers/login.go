package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rankrocket/calendar-stacker/cmd/stacker-server/auth"
)

// LoginHandler exchanges admin credentials for a session token.
type LoginHandler struct {
	adminAuth *auth.AdminAuth
}

// NewLoginHandler creates a new login handler
func NewLoginHandler(adminAuth *auth.AdminAuth) *LoginHandler {
	return &LoginHandler{adminAuth: adminAuth}
}

// LoginRequest is the POST /api/auth/login body.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HandleLogin handles POST /api/auth/login
func (h *LoginHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "'username' and 'password' are required.")
		return
	}

	if err := h.adminAuth.CheckPassword(req.Username, req.Password); err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	token, err := h.adminAuth.IssueToken(req.Username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}
