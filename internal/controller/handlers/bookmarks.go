package handlers

import (
	"net/http"

	"github.com/Freeeeeet/tuition_market/internal/model"
)

func (h *Handlers) CreateBookmark(w http.ResponseWriter, r *http.Request) {
	var req bookmarkRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	target, err := model.ParseBookmarkTarget(req.Type, req.TargetID)
	if err != nil {
		h.respondError(w, r, badRequest("Invalid bookmark type"))
		return
	}

	bookmark, err := h.bookmarkService.Create(r.Context(), currentUser(r).ID, target)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondData(w, http.StatusCreated, bookmark)
}

func (h *Handlers) ListBookmarks(w http.ResponseWriter, r *http.Request) {
	bookmarks, err := h.bookmarkService.List(r.Context(), currentUser(r).ID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondData(w, http.StatusOK, bookmarks)
}

func (h *Handlers) DeleteBookmark(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.bookmarkService.Delete(r.Context(), id, currentUser(r).ID); err != nil {
		h.respondError(w, r, err)
		return
	}

	respondMessage(w, http.StatusOK, "Bookmark removed")
}
