package middlewarectx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/tracker-saas/internal/http/response"
	"github.com/magabrotheeeer/tracker-saas/internal/models"
)

// AdminOnly пропускает только пользователей с ролью администратора.
// Должен стоять после JWTMiddleware.
func AdminOnly(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if RoleFrom(r.Context()) != models.RoleAdmin {
				log.Warn("admin access denied",
					slog.String("op", "middlewarectx.AdminOnly"),
					slog.String("request_id", middleware.GetReqID(r.Context())),
				)
				response.Fail(w, r, http.StatusForbidden, "Admin access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
