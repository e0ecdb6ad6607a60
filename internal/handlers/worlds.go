package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tbranagh/storyloom/internal/storage"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// WorldsHandler serves the world catalog.
// Routes:
// GET /v1/worlds            - List available worlds
// GET /v1/worlds/{filename} - Read a world document
type WorldsHandler struct {
	storage storage.Storage
	logger  *slog.Logger
}

func NewWorldsHandler(logger *slog.Logger, storage storage.Storage) *WorldsHandler {
	return &WorldsHandler{
		storage: storage,
		logger:  logger,
	}
}

func (h *WorldsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		h.logger.Warn("Method not allowed for worlds endpoint", "method", r.Method)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET")
		return
	}

	filename := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/worlds"), "/")
	if filename == "" {
		h.handleList(w, r)
		return
	}
	h.handleGet(w, r, filename)
}

func (h *WorldsHandler) handleList(w http.ResponseWriter, r *http.Request) {
	worlds, err := h.storage.ListWorlds(r.Context())
	if err != nil {
		h.logger.Error("Failed to list worlds", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to list worlds")
		return
	}

	if err := json.NewEncoder(w).Encode(worlds); err != nil {
		h.logger.Error("Failed to encode worlds response", "error", err)
	}
}

func (h *WorldsHandler) handleGet(w http.ResponseWriter, r *http.Request, filename string) {
	doc, err := h.storage.GetWorld(r.Context(), filename)
	if err != nil {
		h.logger.Warn("World not found", "filename", filename, "error", err)
		writeError(w, h.logger, http.StatusNotFound, "World not found")
		return
	}

	if err := json.NewEncoder(w).Encode(doc); err != nil {
		h.logger.Error("Failed to encode world response", "error", err)
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, msg string) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: msg}); err != nil {
		logger.Error("Failed to encode error response", "error", err)
	}
}
