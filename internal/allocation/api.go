package allocation

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/medilink/platform/internal/hospital"
	"github.com/medilink/platform/internal/patient"
	"github.com/medilink/platform/internal/shared/errors"
)

// Handler provides HTTP handlers for the allocation module
type Handler struct {
	service   *Service
	patients  patient.Store
	hospitals hospital.Store
}

// NewHandler creates a new allocation handler
func NewHandler(service *Service, patients patient.Store, hospitals hospital.Store) *Handler {
	return &Handler{service: service, patients: patients, hospitals: hospitals}
}

// Routes registers the emergency routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/allocate", h.AllocateEmergency)
	r.Post("/share-medical-history", h.ShareMedicalHistory)
	return r
}

// AllocateEmergency allocates a patient to the best-scored hospital
func (h *Handler) AllocateEmergency(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	if req.PatientID != "" {
		if _, err := strconv.Atoi(req.PatientID); err != nil {
			writeError(w, errors.Validation("validation failed", map[string]string{
				"patient_id": "must be a numeric id",
			}))
			return
		}
	}
	switch req.Severity {
	case "", SeverityCritical, SeverityUrgent, SeverityMild:
	default:
		writeError(w, errors.Validation("validation failed", map[string]string{
			"severity": "must be one of critical, urgent, mild",
		}))
		return
	}

	result, err := h.service.Allocate(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ShareMedicalHistory hands a patient's history to an allocated
// hospital and returns a share receipt
func (h *Handler) ShareMedicalHistory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PatientID  string `json:"patient_id"`
		HospitalID string `json:"hospital_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	details := map[string]string{}
	if req.PatientID == "" {
		details["patient_id"] = "patient_id is required"
	}
	if req.HospitalID == "" {
		details["hospital_id"] = "hospital_id is required"
	}
	if len(details) > 0 {
		writeError(w, errors.Validation("validation failed", details))
		return
	}

	p, err := h.patients.GetPatient(r.Context(), req.PatientID)
	if err != nil {
		writeError(w, err)
		return
	}
	hosp, err := h.hospitals.GetHospital(r.Context(), req.HospitalID)
	if err != nil {
		writeError(w, err)
		return
	}

	shared := map[string]any{
		"receipt_id":      uuid.NewString(),
		"patient_id":      p.ID,
		"patient_name":    p.Name,
		"blood_type":      p.BloodType,
		"age":             p.Age,
		"medical_history": p.MedicalHistory,
		"hospital":        hosp.Name,
		"timestamp":       time.Now().UTC().Format(time.RFC3339),
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"shared":  shared,
		"message": "Medical history shared with " + hosp.Name,
	})
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
