package identify

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/medilink/platform/internal/shared/errors"
)

// Handler provides HTTP handlers for patient identification
type Handler struct {
	matcher *Matcher
}

// NewHandler creates a new identify handler
func NewHandler(matcher *Matcher) *Handler {
	return &Handler{matcher: matcher}
}

// Routes registers the identify routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.IdentifyPatient)
	return r
}

// IdentifyPatient matches a submitted face descriptor against the
// patient roster. Malformed descriptors produce a match_found=false
// body rather than an error status, so demo clients never hard-fail.
func (h *Handler) IdentifyPatient(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FaceDescriptor []float64 `json:"face_descriptor"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	outcome, err := h.matcher.Identify(r.Context(), req.FaceDescriptor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
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
