package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rankrocket/calendar-stacker/internal/models"
	"github.com/rankrocket/calendar-stacker/internal/storage"
)

// ClientHandler handles the managed-client CRUD endpoints.
type ClientHandler struct {
	store storage.Store
}

// NewClientHandler creates a new client handler
func NewClientHandler(store storage.Store) *ClientHandler {
	return &ClientHandler{store: store}
}

// HandleClients handles GET and POST on /api/clients
func (h *ClientHandler) HandleClients(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleList(w, r)
	case http.MethodPost:
		h.handleCreate(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// HandleClientByID handles GET, PUT and DELETE on /api/clients/{id}
func (h *ClientHandler) HandleClientByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDSegment(w, r.URL.Path, "/api/clients/")
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		client, err := h.store.GetClient(id)
		if err != nil {
			h.clientNotFound(w, id, err)
			return
		}
		writeJSON(w, http.StatusOK, client)
	case http.MethodPut:
		h.handleUpdate(w, r, id)
	case http.MethodDelete:
		h.handleDelete(w, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *ClientHandler) handleList(w http.ResponseWriter, r *http.Request) {
	clients, err := h.store.ListClients()
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to list clients: %v", err))
		return
	}
	if clients == nil {
		clients = []models.Client{}
	}
	writeData(w, http.StatusOK, clients)
}

func (h *ClientHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var client models.Client
	if err := json.NewDecoder(r.Body).Decode(&client); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if client.Name == "" {
		writeError(w, http.StatusBadRequest, "'name' is required.")
		return
	}
	if err := validateEmail(client.Email); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	client.ID = 0
	client.CreatedAt = time.Now().UTC()
	client.UpdatedAt = client.CreatedAt
	if err := h.store.CreateClient(&client); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to create client: %v", err))
		return
	}
	writeJSON(w, http.StatusCreated, client)
}

func (h *ClientHandler) handleUpdate(w http.ResponseWriter, r *http.Request, id int64) {
	existing, err := h.store.GetClient(id)
	if err != nil {
		h.clientNotFound(w, id, err)
		return
	}

	var update models.Client
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if update.Name == "" {
		writeError(w, http.StatusBadRequest, "'name' is required.")
		return
	}
	if err := validateEmail(update.Email); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	existing.Name = update.Name
	existing.Email = update.Email
	existing.GoogleAccountEmail = update.GoogleAccountEmail
	existing.UpdatedAt = time.Now().UTC()
	if err := h.store.UpdateClient(existing); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to update client: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, existing)
}

func (h *ClientHandler) handleDelete(w http.ResponseWriter, id int64) {
	if _, err := h.store.GetClient(id); err != nil {
		h.clientNotFound(w, id, err)
		return
	}
	if err := h.store.DeleteClient(id); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to delete client: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": fmt.Sprintf("Client %d deleted.", id)})
}

func (h *ClientHandler) clientNotFound(w http.ResponseWriter, id int64, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Client %d not found.", id))
		return
	}
	writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load client: %v", err))
}

func validateEmail(email string) error {
	if email == "" {
		return errors.New("'email' is required.")
	}
	if !strings.Contains(email, "@") {
		return errors.New("'email' must be a valid email address.")
	}
	return nil
}

// parseIDSegment extracts the numeric id that directly follows prefix in path.
// Trailing subpaths ("/42/authorize") are left to the caller.
func parseIDSegment(w http.ResponseWriter, path, prefix string) (int64, bool) {
	rest := strings.TrimPrefix(path, prefix)
	segment := rest
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		segment = rest[:i]
	}
	id, err := strconv.ParseInt(segment, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid id %q", segment))
		return 0, false
	}
	return id, true
}
