package handlers

import (
	"net/http"

	"github.com/Freeeeeet/tuition_market/internal/model"
	"github.com/Freeeeeet/tuition_market/internal/service"
)

// Register POST /api/auth/register
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	result, err := h.userService.Register(r.Context(), service.RegisterInput{
		IDToken: req.IDToken,
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Role:    model.Role(req.Role),
		City:    req.City,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondData(w, http.StatusCreated, result)
}

// Login POST /api/auth/login
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	result, err := h.userService.Login(r.Context(), req.IDToken)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondData(w, http.StatusOK, result)
}

// Me GET /api/auth/me
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	respondData(w, http.StatusOK, currentUser(r))
}
