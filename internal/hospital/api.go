package hospital

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/medilink/platform/internal/shared/errors"
)

// Handler provides HTTP handlers for the hospital module
type Handler struct {
	store Store
}

// NewHandler creates a new hospital handler
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// Routes registers the hospital routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListHospitals)
	r.Get("/{hospitalID}", h.GetHospital)
	return r
}

// ListHospitals lists all hospitals with live bed and blood state
func (h *Handler) ListHospitals(w http.ResponseWriter, r *http.Request) {
	hospitals, err := h.store.ListHospitals(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hospitals)
}

// GetHospital gets a hospital by ID
func (h *Handler) GetHospital(w http.ResponseWriter, r *http.Request) {
	hospital, err := h.store.GetHospital(r.Context(), chi.URLParam(r, "hospitalID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hospital)
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
