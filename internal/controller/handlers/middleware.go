package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/Freeeeeet/tuition_market/internal/model"
	"github.com/Freeeeeet/tuition_market/internal/service"
)

type userKey struct{}

func unauthenticated(message string) error {
	return &service.Error{Kind: service.KindUnauthenticated, Message: message}
}

// Authenticate проверяет Bearer-токен и кладёт пользователя в контекст
func (h *Handlers) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			h.respondError(w, r, unauthenticated("No token provided"))
			return
		}

		claims, err := h.sessions.Parse(strings.TrimSpace(raw))
		if err != nil {
			h.respondError(w, r, unauthenticated("Invalid or expired token"))
			return
		}

		userID, err := claims.UserID()
		if err != nil {
			h.respondError(w, r, unauthenticated("Invalid or expired token"))
			return
		}

		user, err := h.userService.GetByID(r.Context(), userID)
		if err != nil {
			if service.KindOf(err) == service.KindNotFound {
				h.respondError(w, r, unauthenticated("User not found"))
				return
			}
			h.respondError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey{}, user)))
	})
}

// RequireRole пропускает только перечисленные роли
func (h *Handlers) RequireRole(roles ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := currentUser(r)
			if user == nil {
				h.respondError(w, r, unauthenticated("Authentication required"))
				return
			}
			for _, role := range roles {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			h.respondError(w, r, &service.Error{
				Kind:    service.KindForbidden,
				Message: "Access denied for role " + string(user.Role),
			})
		})
	}
}

// currentUser пользователь, проверенный Authenticate
func currentUser(r *http.Request) *model.User {
	user, _ := r.Context().Value(userKey{}).(*model.User)
	return user
}
