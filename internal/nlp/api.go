package nlp

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/medilink/platform/internal/shared/errors"
)

// Handler provides HTTP handlers for the chat and jargon endpoints
type Handler struct {
	chat       *ChatService
	translator *Translator
}

// NewHandler creates a new nlp handler
func NewHandler(chat *ChatService, translator *Translator) *Handler {
	return &Handler{chat: chat, translator: translator}
}

// Routes registers the chat and jargon routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/chat/query", h.ChatQuery)
	r.Post("/jargon/translate", h.TranslateJargon)
	return r
}

// ChatQuery answers a free-text emergency query with an allocation
// and a natural-language summary
func (h *Handler) ChatQuery(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, errors.Validation("validation failed", map[string]string{
			"query": "query is required",
		}))
		return
	}

	resp, err := h.chat.Query(r.Context(), req.Query)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// TranslateJargon converts clinical language to plain text
func (h *Handler) TranslateJargon(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, errors.Validation("validation failed", map[string]string{
			"text": "text is required",
		}))
		return
	}

	writeJSON(w, http.StatusOK, h.translator.Translate(r.Context(), strings.TrimSpace(req.Text)))
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
