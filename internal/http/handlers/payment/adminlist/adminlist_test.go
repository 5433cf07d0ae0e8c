package adminlist

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/tracker-saas/internal/models"
	"github.com/magabrotheeeer/tracker-saas/internal/services/order"
)

type ServiceMock struct{ mock.Mock }

func (m *ServiceMock) AdminList(ctx context.Context, status models.OrderStatus, page, limit int) (*models.OrderPage, error) {
	args := m.Called(ctx, status, page, limit)
	if p := args.Get(0); p != nil {
		return p.(*models.OrderPage), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestAdminListHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		setupMocks func(m *ServiceMock)
		wantStatus int
	}{
		{
			name:  "status is normalized",
			query: "?status=pending&page=2&limit=5",
			setupMocks: func(m *ServiceMock) {
				m.On("AdminList", mock.Anything, models.OrderPending, 2, 5).Return(&models.OrderPage{
					Orders:     []*models.Order{},
					Pagination: models.NewPagination(2, 5, 6),
				}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:  "unknown status",
			query: "?status=refunded",
			setupMocks: func(m *ServiceMock) {
				m.On("AdminList", mock.Anything, models.OrderStatus("REFUNDED"), 0, 0).
					Return(nil, fmt.Errorf("services.order.AdminList: %w", order.ErrInvalidStatus))
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "bad page",
			query:      "?page=first",
			setupMocks: func(*ServiceMock) {},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			tt.setupMocks(svc)

			w := httptest.NewRecorder()
			New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc).
				ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders"+tt.query, nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			svc.AssertExpectations(t)
		})
	}
}
