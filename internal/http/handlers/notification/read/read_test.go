package read

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/tracker-saas/internal/http/middlewarectx"
	"github.com/magabrotheeeer/tracker-saas/internal/models"
)

type ServiceMock struct{ mock.Mock }

func (m *ServiceMock) MarkRead(ctx context.Context, userID, id string) error {
	return m.Called(ctx, userID, id).Error(0)
}

func TestReadHandler_ServeHTTP(t *testing.T) {
	const id = "c1d2e3f4-a5b6-4c7d-8e9f-0a1b2c3d4e5f"

	tests := []struct {
		name       string
		id         string
		setupMocks func(m *ServiceMock)
		wantStatus int
		wantBody   string
	}{
		{
			name: "marked",
			id:   id,
			setupMocks: func(m *ServiceMock) {
				m.On("MarkRead", mock.Anything, "u-1", id).Return(nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `{"success":true,"message":"Notification marked as read"}`,
		},
		{
			name: "foreign notification",
			id:   id,
			setupMocks: func(m *ServiceMock) {
				m.On("MarkRead", mock.Anything, "u-1", id).
					Return(fmt.Errorf("services.notification.MarkRead: %w", models.ErrNotificationNotFound))
			},
			wantStatus: http.StatusNotFound,
			wantBody:   `{"success":false,"error":"Notification not found"}`,
		},
		{
			name:       "bad id",
			id:         "7",
			setupMocks: func(*ServiceMock) {},
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"success":false,"error":"Invalid notification id"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			tt.setupMocks(svc)

			req := httptest.NewRequest(http.MethodPatch, "/api/v1/notifications/"+tt.id+"/read", nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.id)
			ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
			req = req.WithContext(middlewarectx.WithUser(ctx, "u-1", models.RoleUser))
			w := httptest.NewRecorder()

			New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
			svc.AssertExpectations(t)
		})
	}
}
