package workflow

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/medilink/platform/internal/shared/errors"
)

// Handler provides HTTP handlers for the workflow module
type Handler struct {
	client *Client
}

// NewHandler creates a new workflow handler
func NewHandler(client *Client) *Handler {
	return &Handler{client: client}
}

// Routes registers the workflow routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/trigger", h.TriggerWorkflow)
	return r
}

// TriggerWorkflow invokes an arbitrary workflow by id
func (h *Handler) TriggerWorkflow(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WorkflowID string         `json:"workflow_id"`
		Data       map[string]any `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}
	if req.WorkflowID == "" {
		writeError(w, errors.Validation("validation failed", map[string]string{
			"workflow_id": "workflow_id is required",
		}))
		return
	}

	result := h.client.Trigger(r.Context(), req.WorkflowID, req.Data)
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")

	if appErr, ok := err.(*errors.AppError); ok {
		w.WriteHeader(appErr.HTTPStatus)
		json.NewEncoder(w).Encode(map[string]any{
			"error":   appErr.Message,
			"code":    appErr.Code,
			"details": appErr.Details,
		})
		return
	}

	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{"error": "internal server error"})
}
