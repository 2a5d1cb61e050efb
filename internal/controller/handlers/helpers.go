package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Freeeeeet/tuition_market/internal/model"
	"github.com/Freeeeeet/tuition_market/internal/service"
	"github.com/Freeeeeet/tuition_market/internal/validation"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

type envelope struct {
	Success    bool                    `json:"success"`
	Message    string                  `json:"message,omitempty"`
	Code       string                  `json:"code,omitempty"`
	Data       any                     `json:"data,omitempty"`
	Pagination *model.Pagination       `json:"pagination,omitempty"`
	Errors     []validation.FieldError `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// respondData успешный ответ с данными
func respondData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

// respondList страница списка с метаданными пагинации
func respondList(w http.ResponseWriter, data any, pagination model.Pagination) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: data, Pagination: &pagination})
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: true, Message: message})
}

func statusFor(kind service.Kind) int {
	switch kind {
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindConflict:
		return http.StatusConflict
	case service.KindValidation, service.KindInvalidSignature:
		return http.StatusBadRequest
	case service.KindUnavailable:
		return http.StatusServiceUnavailable
	case service.KindUnauthenticated:
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

// respondError переводит ошибку сервиса в HTTP-ответ. Внутренние ошибки
// логируются, клиенту уходит общее сообщение.
func (h *Handlers) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.RequestValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, envelope{
			Message: verr.Error(),
			Code:    service.KindValidation.String(),
			Errors:  verr.Fields,
		})
		return
	}

	kind := service.KindOf(err)
	if kind == service.KindInternal {
		h.logger.Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, envelope{
			Message: "Internal server error",
			Code:    kind.String(),
		})
		return
	}

	writeJSON(w, statusFor(kind), envelope{Message: err.Error(), Code: kind.String()})
}

func badRequest(message string) error {
	return &service.Error{Kind: service.KindValidation, Message: message}
}

// decodeJSON читает тело запроса и проверяет теги validate
func decodeJSON(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return badRequest("Failed to read request body")
	}
	if len(body) == 0 {
		return badRequest("Request body is required")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return badRequest("Invalid JSON body")
	}
	if verr := validation.ValidateStruct(dst); verr != nil {
		return verr
	}
	return nil
}

// pathID числовой параметр маршрута
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("Invalid " + name)
	}
	return id, nil
}

func queryPage(r *http.Request, defaultLimit int) model.Page {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	return model.NewPage(page, limit, defaultLimit)
}

// queryDate принимает YYYY-MM-DD или RFC3339. Дата без времени в "to"
// включает весь день.
func queryDate(r *http.Request, name string, endOfDay bool) (*time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, badRequest("Invalid '" + name + "' date")
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func queryBool(r *http.Request, name string) (*bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, badRequest("Invalid '" + name + "' flag")
	}
	return &v, nil
}
