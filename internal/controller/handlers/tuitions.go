package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/Freeeeeet/tuition_market/internal/model"
	"github.com/Freeeeeet/tuition_market/internal/service"
)

// ListTuitions GET /api/tuitions, публичный каталог
func (h *Handlers) ListTuitions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	sort := model.TuitionSort(q.Get("sort"))
	switch sort {
	case "", model.TuitionSortDateDesc, model.TuitionSortDateAsc, model.TuitionSortBudgetAsc, model.TuitionSortBudgetDesc:
	default:
		h.respondError(w, r, badRequest("Invalid sort"))
		return
	}

	tuitions, pagination, err := h.tuitionService.ListPublic(r.Context(), model.TuitionFilter{
		ClassLevel: strings.TrimSpace(q.Get("class")),
		Subject:    strings.TrimSpace(q.Get("subject")),
		Location:   strings.TrimSpace(q.Get("location")),
		Query:      strings.TrimSpace(q.Get("q")),
		Sort:       sort,
		Page:       queryPage(r, model.DefaultPageLimit),
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondList(w, tuitions, pagination)
}

func (h *Handlers) GetTuition(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	tuition, err := h.tuitionService.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondData(w, http.StatusOK, tuition)
}

func (h *Handlers) CreateTuition(w http.ResponseWriter, r *http.Request) {
	var req tuitionRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	mode := model.TuitionMode(req.Mode)
	if mode == "" {
		mode = model.TuitionModeOffline
	}

	tuition, err := h.tuitionService.Create(r.Context(), currentUser(r).ID, service.TuitionInput{
		Subject:     req.Subject,
		ClassLevel:  req.ClassLevel,
		Location:    req.Location,
		Budget:      req.Budget,
		Schedule:    req.Schedule,
		Mode:        mode,
		Description: req.Description,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondData(w, http.StatusCreated, tuition)
}

func (h *Handlers) UpdateTuition(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var req updateTuitionRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	in := service.UpdateTuitionInput{
		Subject:     req.Subject,
		ClassLevel:  req.ClassLevel,
		Location:    req.Location,
		Budget:      req.Budget,
		Schedule:    req.Schedule,
		Description: req.Description,
	}
	if req.Mode != nil {
		mode := model.TuitionMode(*req.Mode)
		in.Mode = &mode
	}

	tuition, err := h.tuitionService.Update(r.Context(), id, currentUser(r).ID, in)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondData(w, http.StatusOK, tuition)
}

// DeleteTuition владелец или админ, вместе с заявками и платежами
func (h *Handlers) DeleteTuition(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.tuitionService.Delete(r.Context(), id, currentUser(r)); err != nil {
		h.respondError(w, r, err)
		return
	}

	respondMessage(w, http.StatusOK, "Tuition deleted")
}

func (h *Handlers) ListMyTuitions(w http.ResponseWriter, r *http.Request) {
	status := model.TuitionStatus(r.URL.Query().Get("status"))

	tuitions, pagination, err := h.tuitionService.ListForStudent(r.Context(), currentUser(r).ID, status, queryPage(r, model.DefaultPageLimit))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondList(w, tuitions, pagination)
}

func (h *Handlers) ListAllTuitions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	tuitions, pagination, err := h.tuitionService.ListAll(r.Context(),
		model.TuitionStatus(q.Get("status")),
		strings.TrimSpace(q.Get("search")),
		queryPage(r, model.DefaultPageLimit),
	)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondList(w, tuitions, pagination)
}

func (h *Handlers) ApproveTuition(w http.ResponseWriter, r *http.Request) {
	h.moderateTuition(w, r, h.tuitionService.Approve)
}

func (h *Handlers) RejectTuition(w http.ResponseWriter, r *http.Request) {
	h.moderateTuition(w, r, h.tuitionService.Reject)
}

func (h *Handlers) moderateTuition(w http.ResponseWriter, r *http.Request, action func(ctx context.Context, id int64) (*model.Tuition, error)) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	tuition, err := action(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondData(w, http.StatusOK, tuition)
}
