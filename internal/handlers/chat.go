package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ukydev/engineeye/internal/apperr"
	"github.com/ukydev/engineeye/internal/assistant"
	"github.com/ukydev/engineeye/internal/models"
	"github.com/ukydev/engineeye/internal/validation"
)

// Assistant answers vehicle questions.
type Assistant interface {
	Ask(ctx context.Context, prompt string) (*models.ChatResponse, error)
	ListModels(ctx context.Context) ([]assistant.ModelInfo, error)
}

// ChatHandler serves /chat.
type ChatHandler struct {
	assistant Assistant
	validate  *validation.Validator
	limit     func(http.Handler) http.Handler
}

// NewChatHandler creates a chat handler. limit wraps the ask endpoint and
// may be nil.
func NewChatHandler(a Assistant, v *validation.Validator, limit func(http.Handler) http.Handler) *ChatHandler {
	return &ChatHandler{assistant: a, validate: v, limit: limit}
}

// Routes registers the chat routes.
func (h *ChatHandler) Routes(r chi.Router) {
	r.Route("/chat", func(r chi.Router) {
		ask := r
		if h.limit != nil {
			ask = r.With(h.limit)
		}
		ask.Post("/", h.ask)
		r.Get("/models", h.listModels)
	})
}

func (h *ChatHandler) ask(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		apperr.Write(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		apperr.Write(w, r, err)
		return
	}

	resp, err := h.assistant.Ask(r.Context(), req.Prompt)
	if err != nil {
		apperr.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *ChatHandler) listModels(w http.ResponseWriter, r *http.Request) {
	list, err := h.assistant.ListModels(r.Context())
	if err != nil {
		apperr.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}
