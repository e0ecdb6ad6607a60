package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/tbranagh/storyloom/internal/storage"
	"github.com/tbranagh/storyloom/pkg/engine"
	"github.com/tbranagh/storyloom/pkg/session"
	"github.com/tbranagh/storyloom/pkg/turn"
	"github.com/tbranagh/storyloom/pkg/vocab"
	"github.com/tbranagh/storyloom/pkg/world"
)

// CreateSessionRequest starts a new session from a world file. Sheet is
// optional; when set, the named character sheet seeds the player actor.
type CreateSessionRequest struct {
	World string `json:"world"`
	Sheet string `json:"sheet,omitempty"`
}

// ValidationResponse carries the full violation list back to the author.
type ValidationResponse struct {
	Error      string            `json:"error"`
	Violations []world.Violation `json:"violations"`
}

// CommandRequest is one turn's input.
type CommandRequest struct {
	Verb   string         `json:"verb"`
	Object string         `json:"object,omitempty"`
	Extra  map[string]any `json:"extra,omitempty"`
}

// CommandResponse is one turn's output.
type CommandResponse struct {
	SessionID     uuid.UUID `json:"session_id"`
	Turn          int       `json:"turn"`
	Success       bool      `json:"success"`
	Message       string    `json:"message"`
	PhaseMessages []string  `json:"phase_messages,omitempty"`
}

// SessionsHandler manages running sessions.
// Routes:
// POST /v1/sessions              - Create a session from a world
// GET /v1/sessions/{id}          - Read a session record
// DELETE /v1/sessions/{id}       - End a session
// POST /v1/sessions/{id}/command - Execute one command
type SessionsHandler struct {
	storage  storage.Storage
	registry *vocab.Registry
	logger   *slog.Logger
}

func NewSessionsHandler(logger *slog.Logger, registry *vocab.Registry, storage storage.Storage) *SessionsHandler {
	return &SessionsHandler{
		storage:  storage,
		registry: registry,
		logger:   logger,
	}
}

func (h *SessionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/sessions"), "/")

	if path == "" {
		if r.Method != http.MethodPost {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Use POST to create a session")
			return
		}
		h.handleCreate(w, r)
		return
	}

	idStr, rest, _ := strings.Cut(path, "/")
	id, err := uuid.Parse(idStr)
	if err != nil {
		h.logger.Warn("Invalid session ID", "id", idStr, "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid session ID format")
		return
	}

	switch {
	case rest == "command" && r.Method == http.MethodPost:
		h.handleCommand(w, r, id)
	case rest == "" && r.Method == http.MethodGet:
		h.handleRead(w, r, id)
	case rest == "" && r.Method == http.MethodDelete:
		h.handleDelete(w, r, id)
	default:
		h.logger.Warn("Method not allowed for sessions endpoint", "method", r.Method, "path", r.URL.Path)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *SessionsHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.World == "" {
		writeError(w, h.logger, http.StatusBadRequest, "Request body must name a world")
		return
	}

	doc, err := h.storage.GetWorld(r.Context(), req.World)
	if err != nil {
		h.logger.Warn("World not found for session", "world", req.World, "error", err)
		writeError(w, h.logger, http.StatusNotFound, "World not found")
		return
	}

	if req.Sheet != "" {
		s, err := h.storage.GetSheet(r.Context(), req.Sheet)
		if err != nil {
			h.logger.Warn("Sheet not found for session", "sheet", req.Sheet, "error", err)
			writeError(w, h.logger, http.StatusNotFound, "Sheet not found")
			return
		}
		player, ok := doc.Actors[world.PlayerID]
		if !ok {
			writeError(w, h.logger, http.StatusUnprocessableEntity, "World has no player actor to seed")
			return
		}
		if err := s.Seed(player); err != nil {
			h.logger.Error("Failed to seed player from sheet", "sheet", req.Sheet, "error", err)
			writeError(w, h.logger, http.StatusInternalServerError, "Failed to seed player")
			return
		}
	}

	sess, err := session.New(req.World, doc, h.registry, h.logger)
	if err != nil {
		var verr *world.ValidationError
		if errors.As(err, &verr) {
			h.logger.Warn("World failed validation", "world", req.World, "problems", len(verr.Violations))
			w.WriteHeader(http.StatusUnprocessableEntity)
			resp := ValidationResponse{Error: "World failed validation", Violations: verr.Violations}
			if err := json.NewEncoder(w).Encode(resp); err != nil {
				h.logger.Error("Failed to encode validation response", "error", err)
			}
			return
		}
		h.logger.Error("Failed to create session", "world", req.World, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to create session")
		return
	}

	rec := sess.Snapshot()
	if err := h.storage.SaveSession(r.Context(), sess.ID, rec); err != nil {
		h.logger.Error("Failed to save session", "uuid", sess.ID, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to save session")
		return
	}

	h.logger.Info("Session created", "uuid", sess.ID, "world", req.World)
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(rec); err != nil {
		h.logger.Error("Failed to encode session response", "error", err)
	}
}

func (h *SessionsHandler) handleRead(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	rec, err := h.storage.LoadSession(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to load session", "uuid", id, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load session")
		return
	}
	if rec == nil {
		writeError(w, h.logger, http.StatusNotFound, "Session not found")
		return
	}

	if err := json.NewEncoder(w).Encode(rec); err != nil {
		h.logger.Error("Failed to encode session response", "error", err)
	}
}

func (h *SessionsHandler) handleDelete(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	rec, err := h.storage.LoadSession(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to load session", "uuid", id, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to delete session")
		return
	}
	if rec == nil {
		writeError(w, h.logger, http.StatusNotFound, "Session not found")
		return
	}

	if err := h.storage.DeleteSession(r.Context(), id); err != nil {
		h.logger.Error("Failed to delete session", "uuid", id, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to delete session")
		return
	}

	h.logger.Info("Session deleted", "uuid", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionsHandler) handleCommand(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req CommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Verb == "" {
		writeError(w, h.logger, http.StatusBadRequest, "Request body must carry a verb")
		return
	}

	rec, err := h.storage.LoadSession(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to load session", "uuid", id, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load session")
		return
	}
	if rec == nil {
		writeError(w, h.logger, http.StatusNotFound, "Session not found")
		return
	}

	sess, err := session.Restore(rec, h.registry, h.logger)
	if err != nil {
		h.logger.Error("Failed to restore session", "uuid", id, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to restore session")
		return
	}

	result, err := sess.Execute(turn.Command{
		Verb:   req.Verb,
		Object: req.Object,
		Extra:  req.Extra,
	})
	if err != nil {
		h.logger.Error("Command execution failed", "uuid", id, "verb", req.Verb, "error", err)
		// A turn-phase fault leaves the primary action and every earlier
		// phase applied; persist that partial state so it isn't rolled
		// back by the error response. A primary-handler fault mutated
		// nothing worth keeping, so the record stays as loaded.
		var pf *engine.PhaseFault
		if errors.As(err, &pf) {
			if saveErr := h.storage.SaveSession(r.Context(), sess.ID, sess.Snapshot()); saveErr != nil {
				h.logger.Error("Failed to save session after phase fault", "uuid", id, "error", saveErr)
			}
		}
		writeError(w, h.logger, http.StatusInternalServerError, "Command execution failed")
		return
	}

	if err := h.storage.SaveSession(r.Context(), sess.ID, sess.Snapshot()); err != nil {
		h.logger.Error("Failed to save session after command", "uuid", id, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to save session")
		return
	}

	resp := CommandResponse{
		SessionID:     sess.ID,
		Turn:          sess.Turns,
		Success:       result.Success,
		Message:       result.PrimaryMessage,
		PhaseMessages: result.TurnPhaseMessages,
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("Failed to encode command response", "error", err)
	}
}
