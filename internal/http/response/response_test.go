package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/tracker-saas/internal/lib/validation"
	"github.com/magabrotheeeer/tracker-saas/internal/models"
)

func TestOK_FlattensPayload(t *testing.T) {
	body, err := json.Marshal(OK(Payload{"plans": []string{"Free"}}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"plans":["Free"]}`, string(body))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"wrapped not found", fmt.Errorf("services.device.Delete: %w", models.ErrDeviceNotFound), http.StatusNotFound, "Device not found"},
		{"pending order", fmt.Errorf("op: %w", models.ErrPendingOrderNotFound), http.StatusNotFound, "Pending order not found"},
		{"device limit", fmt.Errorf("op: %w", &models.DeviceLimitError{PlanName: "Free", Limit: 1}), http.StatusBadRequest,
			"Device limit reached. Your Free plan allows 1 devices."},
		{"credentials", models.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid credentials"},
		{"order not ready", fmt.Errorf("op: %w", models.ErrOrderNotReady), http.StatusConflict, "Order is not ready for confirmation"},
		{"unknown", errors.New("connection reset"), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, msg := StatusFor(tt.err, "Internal server error")
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantMsg, msg)
		})
	}
}

func TestInvalid_ListsFields(t *testing.T) {
	type request struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=8"`
	}
	err := validation.New().Struct(request{Email: "nope", Password: "short"})
	require.Error(t, err)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", nil)
	Invalid(w, r, err)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "field Email must be a valid email, field Password must be at least 8", resp.Error)
}
