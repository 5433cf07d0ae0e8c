// Package middlewarectx содержит HTTP middleware приложения: проверку JWT,
// ограничение доступа по роли и ограничение частоты запросов.
//
// JWTMiddleware проверяет токен в заголовке Authorization и кладет в контекст
// id пользователя и его роль. Обработчики достают их через UserIDFrom и RoleFrom.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/tracker-saas/internal/http/response"
	"github.com/magabrotheeeer/tracker-saas/internal/lib/jwt"
	"github.com/magabrotheeeer/tracker-saas/internal/lib/sl"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// UserID ключ для id пользователя в контексте
	UserID Key = "user_id"
	// Role ключ для роли пользователя в контексте
	Role Key = "role"
)

// TokenParser разбирает токен доступа. Реализуется jwt.MakerImpl.
type TokenParser interface {
	ParseToken(tokenStr string) (*jwt.CustomClaims, error)
}

// JWTMiddleware возвращает middleware, который пропускает только запросы
// с действительным Bearer-токеном.
func JWTMiddleware(parser TokenParser, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Warn("missing or invalid authorization header")
				response.Fail(w, r, http.StatusUnauthorized, "Access token required")
				return
			}

			claims, err := parser.ParseToken(strings.TrimPrefix(authHeader, "Bearer "))
			if err != nil {
				log.Warn("invalid or expired token", sl.Err(err))
				response.Fail(w, r, http.StatusForbidden, "Invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), UserID, claims.UserID)
			ctx = context.WithValue(ctx, Role, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFrom возвращает id пользователя, положенный JWTMiddleware.
func UserIDFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(UserID).(string)
	return id, ok && id != ""
}

// RoleFrom возвращает роль пользователя из контекста.
func RoleFrom(ctx context.Context) string {
	role, _ := ctx.Value(Role).(string)
	return role
}

// WithUser кладет в контекст id и роль пользователя.
func WithUser(ctx context.Context, userID, role string) context.Context {
	ctx = context.WithValue(ctx, UserID, userID)
	return context.WithValue(ctx, Role, role)
}
