// Package rest exposes the pull side of the chat core over HTTP:
// conversation history for the caller and a named counterpart.
package rest

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/samber/lo"

	"alumnet/auth"
	"alumnet/domain"
	"alumnet/errors"
	"alumnet/services"
)

type Handler struct {
	log      *slog.Logger
	chat     services.IChatService
	verifier auth.Verifier
}

func NewHandler(log *slog.Logger, chat services.IChatService, verifier auth.Verifier) *Handler {
	return &Handler{log: log, chat: chat, verifier: verifier}
}

// SetupRouter configures and returns the HTTP router.
func (h *Handler) SetupRouter() *mux.Router {
	r := mux.NewRouter()
	r.Handle("/api/v1/chat/{contactId}",
		auth.Middleware(h.verifier, http.HandlerFunc(h.GetHistory))).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)
	return r
}

type messageResponse struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender_id"`
	Receiver  string    `json:"receiver_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// GetHistory handles GET /api/v1/chat/{contactId}.
// The caller's own identity comes from the verified token; the counterpart
// from the URL. The result is the full ordered log between the pair,
// oldest first, re-read from the store on every call.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	me, ok := auth.ParticipantFromContext(r.Context())
	if !ok {
		h.writeError(w, errors.ErrMissingToken)
		return
	}
	contact := domain.ParticipantID(mux.Vars(r)["contactId"])

	messages, err := h.chat.History(domain.HistoryQuery{A: me, B: contact})
	if err != nil {
		h.log.Error("history fetch failed",
			"participant", string(me), "contact", string(contact), "error", err)
		h.writeError(w, err)
		return
	}

	response := lo.Map(messages, func(m domain.Message, _ int) messageResponse {
		return messageResponse{
			ID:        m.ID.String(),
			Sender:    string(m.Sender),
			Receiver:  string(m.Receiver),
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		}
	})

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(response)
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(errors.MapToHTTPStatus(err))
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
