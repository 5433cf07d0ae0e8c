// Package login реализует HTTP-обработчик входа по e-mail и паролю.
package login

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/tracker-saas/internal/http/response"
	"github.com/magabrotheeeer/tracker-saas/internal/lib/sl"
	"github.com/magabrotheeeer/tracker-saas/internal/lib/validation"
	"github.com/magabrotheeeer/tracker-saas/internal/services/auth"
)

// Request данные для входа
type Request struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Service описывает проверку учетных данных.
type Service interface {
	Login(ctx context.Context, email, password string) (*auth.Result, error)
}

// Handler обрабатывает вход пользователя.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validation.New(),
	}
}

// ServeHTTP godoc
// @Summary Авторизация пользователя
// @Description Проверяет e-mail и пароль и возвращает токен доступа.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body Request true "Учетные данные"
// @Success 200 {object} map[string]any "Успешный вход"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Неверные учетные данные"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /auth/login [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.login"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.Fail(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Warn("validation failed", sl.Err(err))
		response.Invalid(w, r, err)
		return
	}

	res, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		log.Warn("login failed", sl.Err(err))
		response.FailWith(w, r, err, "Login failed")
		return
	}

	log.Info("user logged in", slog.String("user_id", res.User.ID))
	render.JSON(w, r, response.OK(response.Payload{
		"message": "Login successful",
		"token":   res.Token,
		"user":    res.User,
	}))
}
