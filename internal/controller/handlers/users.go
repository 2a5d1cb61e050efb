package handlers

import (
	"net/http"
	"strings"

	"github.com/Freeeeeet/tuition_market/internal/model"
	"github.com/Freeeeeet/tuition_market/internal/service"
)

func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	users, pagination, err := h.userService.List(r.Context(), model.UserFilter{
		Role:   model.Role(q.Get("role")),
		Search: strings.TrimSpace(q.Get("search")),
		Page:   queryPage(r, model.DefaultPageLimit),
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondList(w, users, pagination)
}

func (h *Handlers) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	user, err := h.userService.GetByID(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondData(w, http.StatusOK, user)
}

// UpdateUser PUT /api/users/{id}, только свой профиль
func (h *Handlers) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), currentUser(r), id, service.UpdateProfileInput{
		Name:            req.Name,
		Phone:           req.Phone,
		PhotoURL:        req.PhotoURL,
		City:            req.City,
		TelegramChatID:  req.TelegramChatID,
		Qualifications:  req.Qualifications,
		ExperienceYears: req.ExperienceYears,
		Subjects:        req.Subjects,
		ClassLevels:     req.ClassLevels,
		IsAvailable:     req.IsAvailable,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondData(w, http.StatusOK, user)
}

func (h *Handlers) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var req roleRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	user, err := h.userService.UpdateRole(r.Context(), id, model.Role(req.Role))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondData(w, http.StatusOK, user)
}

// ToggleUserVerified PATCH /api/users/{id}/verify
func (h *Handlers) ToggleUserVerified(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	user, err := h.userService.ToggleVerified(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondData(w, http.StatusOK, user)
}

func (h *Handlers) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.userService.Delete(r.Context(), id); err != nil {
		h.respondError(w, r, err)
		return
	}

	respondMessage(w, http.StatusOK, "User deleted")
}
