package handlers

import (
	"io"
	"net/http"

	"github.com/Freeeeeet/tuition_market/internal/model"
)

const maxWebhookBytes = 64 << 10

// CreatePaymentIntent POST /api/payments/create-intent
func (h *Handlers) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req applicationRefRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	intent, err := h.paymentService.CreateIntent(r.Context(), req.ApplicationID, currentUser(r).ID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondData(w, http.StatusOK, intent)
}

// PaymentWebhook POST /api/payments/webhook. Тело читается как есть:
// подпись считается по сырым байтам.
func (h *Handlers) PaymentWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
	if err != nil {
		h.respondError(w, r, badRequest("Failed to read webhook body"))
		return
	}

	if err := h.paymentService.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
		h.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

// CreateManualPayment POST /api/payments/manual
func (h *Handlers) CreateManualPayment(w http.ResponseWriter, r *http.Request) {
	var req manualPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	payment, err := h.paymentService.CreateManual(r.Context(), req.ApplicationID, currentUser(r).ID, model.PaymentMethod(req.Method))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondData(w, http.StatusCreated, payment)
}

// ApprovePayment PUT /api/payments/{id}/approve (админ)
func (h *Handlers) ApprovePayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	payment, err := h.paymentService.Approve(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondData(w, http.StatusOK, payment)
}

func (h *Handlers) ListStudentPayments(w http.ResponseWriter, r *http.Request) {
	filter, err := paymentFilter(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	payments, pagination, err := h.paymentService.ListForStudent(r.Context(), currentUser(r).ID, filter)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondList(w, payments, pagination)
}

func (h *Handlers) ListTutorPayments(w http.ResponseWriter, r *http.Request) {
	filter, err := paymentFilter(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	payments, pagination, err := h.paymentService.ListForTutor(r.Context(), currentUser(r).ID, filter)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondList(w, payments, pagination)
}

func (h *Handlers) ListAllPayments(w http.ResponseWriter, r *http.Request) {
	filter, err := paymentFilter(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	payments, pagination, err := h.paymentService.ListAll(r.Context(), filter)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondList(w, payments, pagination)
}

func paymentFilter(r *http.Request) (model.PaymentFilter, error) {
	from, err := queryDate(r, "from", false)
	if err != nil {
		return model.PaymentFilter{}, err
	}
	to, err := queryDate(r, "to", true)
	if err != nil {
		return model.PaymentFilter{}, err
	}
	return model.PaymentFilter{From: from, To: to, Page: queryPage(r, model.DefaultPageLimit)}, nil
}
