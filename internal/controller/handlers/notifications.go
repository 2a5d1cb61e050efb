package handlers

import (
	"net/http"

	"github.com/Freeeeeet/tuition_market/internal/model"
)

// ListNotifications GET /api/notifications?read=false
func (h *Handlers) ListNotifications(w http.ResponseWriter, r *http.Request) {
	read, err := queryBool(r, "read")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	items, pagination, err := h.notificationService.List(r.Context(), model.NotificationFilter{
		UserID: currentUser(r).ID,
		Read:   read,
		Page:   queryPage(r, model.DefaultPageLimit),
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondList(w, items, pagination)
}

func (h *Handlers) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	n, err := h.notificationService.MarkRead(r.Context(), id, currentUser(r).ID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondData(w, http.StatusOK, n)
}

func (h *Handlers) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	if err := h.notificationService.MarkAllRead(r.Context(), currentUser(r).ID); err != nil {
		h.respondError(w, r, err)
		return
	}

	respondMessage(w, http.StatusOK, "All notifications marked as read")
}
