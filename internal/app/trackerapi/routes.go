// Package trackerapi собирает HTTP API трекер-сервиса: маршруты, middleware и зависимости.
package trackerapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/tracker-saas/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/tracker-saas/internal/http/handlers/auth/me"
	"github.com/magabrotheeeer/tracker-saas/internal/http/handlers/auth/register"
	deviceadminlist "github.com/magabrotheeeer/tracker-saas/internal/http/handlers/device/adminlist"
	devicecreate "github.com/magabrotheeeer/tracker-saas/internal/http/handlers/device/create"
	devicelist "github.com/magabrotheeeer/tracker-saas/internal/http/handlers/device/list"
	"github.com/magabrotheeeer/tracker-saas/internal/http/handlers/device/position"
	deviceremove "github.com/magabrotheeeer/tracker-saas/internal/http/handlers/device/remove"
	"github.com/magabrotheeeer/tracker-saas/internal/http/handlers/device/route"
	notificationlist "github.com/magabrotheeeer/tracker-saas/internal/http/handlers/notification/list"
	notificationread "github.com/magabrotheeeer/tracker-saas/internal/http/handlers/notification/read"
	"github.com/magabrotheeeer/tracker-saas/internal/http/handlers/notification/readall"
	orderadminlist "github.com/magabrotheeeer/tracker-saas/internal/http/handlers/payment/adminlist"
	"github.com/magabrotheeeer/tracker-saas/internal/http/handlers/payment/history"
	"github.com/magabrotheeeer/tracker-saas/internal/http/handlers/payment/ordercancel"
	"github.com/magabrotheeeer/tracker-saas/internal/http/handlers/payment/ordercreate"
	"github.com/magabrotheeeer/tracker-saas/internal/http/handlers/payment/orderread"
	"github.com/magabrotheeeer/tracker-saas/internal/http/handlers/payment/webhook"
	plancreate "github.com/magabrotheeeer/tracker-saas/internal/http/handlers/plan/create"
	planlist "github.com/magabrotheeeer/tracker-saas/internal/http/handlers/plan/list"
	planread "github.com/magabrotheeeer/tracker-saas/internal/http/handlers/plan/read"
	planremove "github.com/magabrotheeeer/tracker-saas/internal/http/handlers/plan/remove"
	planstats "github.com/magabrotheeeer/tracker-saas/internal/http/handlers/plan/stats"
	planupdate "github.com/magabrotheeeer/tracker-saas/internal/http/handlers/plan/update"
	publicstats "github.com/magabrotheeeer/tracker-saas/internal/http/handlers/public/stats"
	"github.com/magabrotheeeer/tracker-saas/internal/http/handlers/subscription/current"
	"github.com/magabrotheeeer/tracker-saas/internal/http/middlewarectx"
	"github.com/magabrotheeeer/tracker-saas/internal/services/auth"
	"github.com/magabrotheeeer/tracker-saas/internal/services/device"
	"github.com/magabrotheeeer/tracker-saas/internal/services/notification"
	"github.com/magabrotheeeer/tracker-saas/internal/services/order"
	"github.com/magabrotheeeer/tracker-saas/internal/services/plan"
	"github.com/magabrotheeeer/tracker-saas/internal/services/reconciler"
	"github.com/magabrotheeeer/tracker-saas/internal/services/subscription"
)

// Services бизнес-логика, на которую опираются обработчики.
type Services struct {
	Auth          *auth.AuthService
	Plans         *plan.PlanService
	Subscriptions *subscription.SubscriptionService
	Devices       *device.DeviceService
	Orders        *order.OrderService
	Reconciler    *reconciler.Reconciler
	Notifications *notification.NotificationService
}

// RouteOptions параметры middleware и служебных маршрутов.
type RouteOptions struct {
	Tokens    middlewarectx.TokenParser
	Health    http.Handler
	Metrics   http.Handler
	RateLimit float64
	RateBurst int
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, svc Services, opts RouteOptions) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewarectx.RateLimitMiddleware(logger, opts.RateLimit, opts.RateBurst))

		// Открытые конечные точки
		r.Post("/auth/register", register.New(logger, svc.Auth).ServeHTTP)
		r.Post("/auth/login", login.New(logger, svc.Auth).ServeHTTP)
		r.Get("/plans", planlist.New(logger, svc.Plans).ServeHTTP)
		r.Get("/plans/{id}", planread.New(logger, svc.Plans).ServeHTTP)
		r.Get("/public/stats", publicstats.New(logger, svc.Subscriptions).ServeHTTP)

		// Уведомления Telebirr проверяются по подписи, а не по токену
		r.Post("/payments/notify", webhook.New(logger, svc.Reconciler).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(opts.Tokens, logger))

			r.Get("/auth/me", me.New(logger, svc.Auth).ServeHTTP)
			r.Get("/subscription", current.New(logger, svc.Subscriptions).ServeHTTP)

			r.Get("/devices", devicelist.New(logger, svc.Devices).ServeHTTP)
			r.Post("/devices", devicecreate.New(logger, svc.Devices).ServeHTTP)
			r.Delete("/devices/{id}", deviceremove.New(logger, svc.Devices).ServeHTTP)
			r.Get("/devices/{id}/position", position.New(logger, svc.Devices).ServeHTTP)
			r.Get("/devices/{id}/route", route.New(logger, svc.Devices).ServeHTTP)

			r.Post("/payments/orders", ordercreate.New(logger, svc.Orders).ServeHTTP)
			r.Get("/payments/orders", history.New(logger, svc.Orders).ServeHTTP)
			r.Get("/payments/orders/{id}", orderread.New(logger, svc.Orders).ServeHTTP)
			r.Patch("/payments/orders/{id}/cancel", ordercancel.New(logger, svc.Orders).ServeHTTP)

			r.Get("/notifications", notificationlist.New(logger, svc.Notifications).ServeHTTP)
			r.Patch("/notifications/read-all", readall.New(logger, svc.Notifications).ServeHTTP)
			r.Patch("/notifications/{id}/read", notificationread.New(logger, svc.Notifications).ServeHTTP)

			// Администрирование
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.AdminOnly(logger))

				r.Post("/plans", plancreate.New(logger, svc.Plans).ServeHTTP)
				r.Patch("/plans/{id}", planupdate.New(logger, svc.Plans).ServeHTTP)
				r.Delete("/plans/{id}", planremove.New(logger, svc.Plans).ServeHTTP)
				r.Get("/plans/{id}/stats", planstats.New(logger, svc.Plans).ServeHTTP)
				r.Get("/admin/devices", deviceadminlist.New(logger, svc.Devices).ServeHTTP)
				r.Get("/admin/orders", orderadminlist.New(logger, svc.Orders).ServeHTTP)
			})
		})
	})

	if opts.Health != nil {
		r.Handle("/health", opts.Health)
	}
	if opts.Metrics == nil {
		opts.Metrics = promhttp.Handler()
	}
	r.Handle("/metrics", opts.Metrics)
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
