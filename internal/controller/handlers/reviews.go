package handlers

import (
	"net/http"

	"github.com/Freeeeeet/tuition_market/internal/model"
	"github.com/Freeeeeet/tuition_market/internal/service"
)

func (h *Handlers) CreateReview(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	review, err := h.reviewService.Create(r.Context(), currentUser(r).ID, service.ReviewInput{
		TutorID:   req.TutorID,
		TuitionID: req.TuitionID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondData(w, http.StatusCreated, review)
}

// ListTutorReviews GET /api/reviews/tutor/{tutorId}, публичный
func (h *Handlers) ListTutorReviews(w http.ResponseWriter, r *http.Request) {
	tutorID, err := pathID(r, "tutorId")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	reviews, pagination, err := h.reviewService.ListForTutor(r.Context(), tutorID, queryPage(r, model.DefaultPageLimit))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondList(w, reviews, pagination)
}
