// Package me отдает профиль текущего пользователя.
package me

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/tracker-saas/internal/http/middlewarectx"
	"github.com/magabrotheeeer/tracker-saas/internal/http/response"
	"github.com/magabrotheeeer/tracker-saas/internal/lib/sl"
	"github.com/magabrotheeeer/tracker-saas/internal/services/auth"
)

// Service возвращает профиль пользователя.
type Service interface {
	Me(ctx context.Context, userID string) (*auth.Profile, error)
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Текущий пользователь
// @Description Профиль пользователя с тарифом и числом устройств.
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]any "Профиль"
// @Failure 401 {object} response.ErrorResponse "Нет токена"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Router /auth/me [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.me"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID, ok := middlewarectx.UserIDFrom(r.Context())
	if !ok {
		log.Error("user id not found in context")
		response.Fail(w, r, http.StatusUnauthorized, "Access token required")
		return
	}

	profile, err := h.service.Me(r.Context(), userID)
	if err != nil {
		log.Error("failed to load profile", sl.Err(err))
		response.FailWith(w, r, err, "Failed to load profile")
		return
	}

	render.JSON(w, r, response.OK(response.Payload{"user": profile}))
}
