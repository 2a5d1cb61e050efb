package handlers

import (
	"net/http"

	"github.com/Freeeeeet/tuition_market/internal/model"
	"github.com/Freeeeeet/tuition_market/internal/service"
)

// CreateApplication POST /api/applications (репетитор)
func (h *Handlers) CreateApplication(w http.ResponseWriter, r *http.Request) {
	var req applicationRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	app, err := h.applicationService.Apply(r.Context(), currentUser(r).ID, service.ApplyInput{
		TuitionID:      req.TuitionID,
		Qualifications: req.Qualifications,
		Experience:     req.Experience,
		ExpectedSalary: req.ExpectedSalary,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondData(w, http.StatusCreated, app)
}

// ListStudentApplications заявки на объявления текущего студента
func (h *Handlers) ListStudentApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := h.applicationService.ListForStudent(r.Context(), currentUser(r).ID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondData(w, http.StatusOK, apps)
}

func (h *Handlers) ListTutorApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := h.applicationService.ListForTutor(r.Context(), currentUser(r).ID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondData(w, http.StatusOK, apps)
}

// UpdateApplicationStatus PATCH /api/applications/{id}: одобрение или отказ владельцем объявления
func (h *Handlers) UpdateApplicationStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var req applicationStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	app, err := h.applicationService.UpdateStatus(r.Context(), id, currentUser(r).ID, model.ApplicationStatus(req.Status))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondData(w, http.StatusOK, app)
}

func (h *Handlers) UpdateApplication(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var req updateApplicationRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	app, err := h.applicationService.Update(r.Context(), id, currentUser(r).ID, service.UpdateApplicationInput{
		Qualifications: req.Qualifications,
		Experience:     req.Experience,
		ExpectedSalary: req.ExpectedSalary,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondData(w, http.StatusOK, app)
}

func (h *Handlers) DeleteApplication(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.applicationService.Delete(r.Context(), id, currentUser(r)); err != nil {
		h.respondError(w, r, err)
		return
	}

	respondMessage(w, http.StatusOK, "Application deleted")
}
