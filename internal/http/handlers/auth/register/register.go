// Package register реализует HTTP-обработчик регистрации пользователя.
//
// Новый пользователь получает тариф по умолчанию и токен доступа в ответе.
package register

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

// Request входные данные для регистрации
type Request struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// Service описывает регистрацию пользователя.
type Service interface {
	Register(ctx context.Context, name, email, password string) (*auth.Result, error)
}

// Handler обрабатывает запросы на регистрацию.
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
// @Summary Регистрация пользователя
// @Description Создает пользователя на тарифе по умолчанию и возвращает токен доступа.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body Request true "Данные пользователя"
// @Success 201 {object} map[string]any "Пользователь создан"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или пользователь уже существует"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /auth/register [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.register"

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

	res, err := h.service.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		log.Error("registration failed", sl.Err(err))
		response.FailWith(w, r, err, "Registration failed")
		return
	}

	log.Info("user registered", slog.String("user_id", res.User.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OK(response.Payload{
		"message": "User registered successfully",
		"token":   res.Token,
		"user":    res.User,
	}))
}
