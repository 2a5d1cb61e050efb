package handlers

import (
	"net/http"

	"github.com/Freeeeeet/tuition_market/internal/service"
	"github.com/go-chi/chi/v5"
)

func (h *Handlers) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	msg, err := h.messageService.Send(r.Context(), currentUser(r).ID, service.SendMessageInput{
		TuitionID:  req.TuitionID,
		ReceiverID: req.ReceiverID,
		Content:    req.Content,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondData(w, http.StatusCreated, msg)
}

// GetConversation последние сообщения переписки, от старых к новым
func (h *Handlers) GetConversation(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationId")

	messages, pagination, err := h.messageService.Conversation(r.Context(), conversationID, currentUser(r).ID,
		queryPage(r, service.DefaultMessageLimit))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondList(w, messages, pagination)
}

func (h *Handlers) MarkMessageRead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	msg, err := h.messageService.MarkRead(r.Context(), id, currentUser(r).ID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondData(w, http.StatusOK, msg)
}
