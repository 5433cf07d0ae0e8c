package sender

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/magabrotheeeer/tracker-saas/internal/config"
	"github.com/magabrotheeeer/tracker-saas/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/tracker-saas/internal/metrics"
	"github.com/magabrotheeeer/tracker-saas/internal/models"
)

type MailerMock struct{ mock.Mock }

func (m *MailerMock) DialAndSend(msgs ...*gomail.Message) error {
	return m.Called(msgs).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func render(t *testing.T, msg *gomail.Message) string {
	t.Helper()
	var buf bytes.Buffer
	_, err := msg.WriteTo(&buf)
	require.NoError(t, err)
	return buf.String()
}

func event(t *testing.T, e models.NotificationEvent) []byte {
	t.Helper()
	b, err := json.Marshal(e)
	require.NoError(t, err)
	return b
}

func TestSenderService_HandleMessage(t *testing.T) {
	expired := models.NotificationEvent{
		NotificationID: "n-1",
		UserID:         "u-1",
		Email:          "alice@example.com",
		Name:           "Alice",
		Type:           models.NotificationExpired,
		Title:          "Subscription Expired",
		Message:        "Your Basic subscription has expired. You have been moved to the Free plan.",
		CreatedAt:      time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC),
	}

	tests := []struct {
		name         string
		body         func(t *testing.T) []byte
		setupMocks   func(m *MailerMock)
		wantDrop     bool
		wantError    bool
		wantResult   string
		checkMessage func(t *testing.T, raw string)
	}{
		{
			name: "sent",
			body: func(t *testing.T) []byte { return event(t, expired) },
			setupMocks: func(m *MailerMock) {
				m.On("DialAndSend", mock.Anything).Return(nil)
			},
			wantResult: "sent",
			checkMessage: func(t *testing.T, raw string) {
				assert.Contains(t, raw, "Subject: Your subscription has expired")
				assert.Contains(t, raw, `To: "Alice" <alice@example.com>`)
				assert.Contains(t, raw, "From: noreply@tracker.example")
				assert.Contains(t, raw, "Hello, Alice!")
			},
		},
		{
			name: "smtp failure is retried",
			body: func(t *testing.T) []byte { return event(t, expired) },
			setupMocks: func(m *MailerMock) {
				m.On("DialAndSend", mock.Anything).Return(errors.New("421 service not available"))
			},
			wantError:  true,
			wantResult: "failed",
		},
		{
			name:       "garbage is dropped",
			body:       func(*testing.T) []byte { return []byte("{not json") },
			setupMocks: func(*MailerMock) {},
			wantDrop:   true,
			wantResult: "dropped",
		},
		{
			name: "no recipient is dropped",
			body: func(t *testing.T) []byte {
				e := expired
				e.Email = ""
				return event(t, e)
			},
			setupMocks: func(*MailerMock) {},
			wantDrop:   true,
			wantResult: "dropped",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mailer := new(MailerMock)
			tt.setupMocks(mailer)
			reg := prometheus.NewRegistry()
			s := NewSenderService(mailer, "noreply@tracker.example", metrics.New(reg), newNoopLogger())

			err := s.HandleMessage(context.Background(), tt.body(t))

			switch {
			case tt.wantDrop:
				assert.ErrorIs(t, err, rabbitmq.ErrDrop)
				mailer.AssertNotCalled(t, "DialAndSend", mock.Anything)
			case tt.wantError:
				require.Error(t, err)
				assert.NotErrorIs(t, err, rabbitmq.ErrDrop)
			default:
				require.NoError(t, err)
			}
			if tt.checkMessage != nil {
				msgs := mailer.Calls[0].Arguments.Get(0).([]*gomail.Message)
				require.Len(t, msgs, 1)
				tt.checkMessage(t, render(t, msgs[0]))
			}
			expected := `
# HELP tracker_emails_total Notification e-mails by delivery result.
# TYPE tracker_emails_total counter
tracker_emails_total{result="` + tt.wantResult + `"} 1
`
			assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "tracker_emails_total"))
			mailer.AssertExpectations(t)
		})
	}
}

func TestSubjectPerType(t *testing.T) {
	tests := []struct {
		typ  models.NotificationType
		want string
	}{
		{models.NotificationExpiryWarning, "Your subscription is expiring soon"},
		{models.NotificationPaymentSuccess, "Payment received"},
		{models.NotificationPaymentFailed, "Payment failed"},
		{models.NotificationDeviceLimitExceeded, "Device limit reached"},
		{models.NotificationType("CUSTOM"), "Custom title"},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			assert.Equal(t, tt.want, subject(&models.NotificationEvent{Type: tt.typ, Title: "Custom title"}))
		})
	}
}

func TestNewDialer(t *testing.T) {
	d := NewDialer(config.SMTP{SMTPHost: "smtp.example.com", SMTPPort: 2525, SMTPUser: "bot", SMTPPassword: "pw"})
	assert.Equal(t, "smtp.example.com", d.Host)
	assert.Equal(t, 2525, d.Port)
	assert.Equal(t, "bot", d.Username)
}
