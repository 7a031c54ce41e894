package patient

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/medilink/platform/internal/shared/errors"
)

// Handler provides HTTP handlers for the patient module
type Handler struct {
	store   Store
	service *Service
}

// NewHandler creates a new patient handler
func NewHandler(store Store, service *Service) *Handler {
	return &Handler{store: store, service: service}
}

// Routes registers the patient routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListPatients)
	r.Post("/register", h.RegisterPatient)
	return r
}

// ListPatients lists all patients without raw descriptors
func (h *Handler) ListPatients(w http.ResponseWriter, r *http.Request) {
	patients, err := h.store.ListPatients(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]Patient, len(patients))
	for i, p := range patients {
		out[i] = p.Public()
	}
	writeJSON(w, http.StatusOK, out)
}

// RegisterPatient creates a patient, or updates a reserved demo record
// in place when the name matches one
func (h *Handler) RegisterPatient(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	result, err := h.service.Register(r.Context(), req)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   "registration failed: " + err.Error(),
			"patient": nil,
		})
		return
	}

	resp := map[string]any{
		"success": true,
		"patient": result.Patient.Public(),
	}
	if result.Updated {
		resp["updated"] = true
	}
	writeJSON(w, http.StatusOK, resp)
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
