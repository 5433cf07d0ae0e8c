package history

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/tracker-saas/internal/http/middlewarectx"
	"github.com/magabrotheeeer/tracker-saas/internal/models"
)

type ServiceMock struct{ mock.Mock }

func (m *ServiceMock) History(ctx context.Context, userID string, page, limit int) (*models.OrderPage, error) {
	args := m.Called(ctx, userID, page, limit)
	res, _ := args.Get(0).(*models.OrderPage)
	return res, args.Error(1)
}

func TestHistoryHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		setupMocks func(m *ServiceMock)
		wantStatus int
		wantBody   string
	}{
		{
			name:  "second page",
			query: "?page=2&limit=5",
			setupMocks: func(m *ServiceMock) {
				m.On("History", mock.Anything, "u-1", 2, 5).Return(&models.OrderPage{
					Orders:     []*models.Order{},
					Pagination: models.NewPagination(2, 5, 7),
				}, nil)
			},
			wantStatus: http.StatusOK,
			wantBody: `{"success":true,"orders":[],"pagination":{"page":2,"limit":5,"totalCount":7,` +
				`"totalPages":2,"hasNext":false,"hasPrev":true}}`,
		},
		{
			name:       "negative page",
			query:      "?page=-1",
			setupMocks: func(*ServiceMock) {},
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"success":false,"error":"Invalid pagination parameters"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			tt.setupMocks(svc)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/orders"+tt.query, nil)
			req = req.WithContext(middlewarectx.WithUser(req.Context(), "u-1", models.RoleUser))
			w := httptest.NewRecorder()

			New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
			svc.AssertExpectations(t)
		})
	}
}
