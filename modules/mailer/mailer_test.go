package mailer

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"github.com/go-monolith/mono/pkg/types"
	"github.com/keighl/postmark"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLogger implements types.Logger for testing
type mockLogger struct {
	infos []string
}

func (m *mockLogger) Debug(_ string, _ ...any)         {}
func (m *mockLogger) Info(msg string, _ ...any)        { m.infos = append(m.infos, msg) }
func (m *mockLogger) Warn(_ string, _ ...any)          {}
func (m *mockLogger) Error(_ string, _ ...any)         {}
func (m *mockLogger) With(_ ...any) types.Logger       { return m }
func (m *mockLogger) WithError(_ error) types.Logger   { return m }
func (m *mockLogger) WithModule(_ string) types.Logger { return m }

func TestNew(t *testing.T) {
	logger := &mockLogger{}

	tests := []struct {
		name    string
		cfg     Config
		want    any
		wantErr bool
	}{
		{"default is log", Config{}, &LogTransport{}, false},
		{"log", Config{Transport: "log"}, &LogTransport{}, false},
		{"smtp", Config{Transport: "SMTP", SMTPHost: "localhost", SMTPPort: 1025}, &SMTPTransport{}, false},
		{"smtp without host", Config{Transport: "smtp"}, nil, true},
		{"postmark", Config{Transport: "postmark", PostmarkToken: "token"}, &PostmarkTransport{}, false},
		{"postmark without token", Config{Transport: "postmark"}, nil, true},
		{"unknown", Config{Transport: "pigeon"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New(tt.cfg, logger)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, got)
		})
	}
}

func TestNew_UnknownTransport(t *testing.T) {
	_, err := New(Config{Transport: "pigeon"}, &mockLogger{})
	assert.ErrorIs(t, err, ErrUnknownTransport)
}

func TestLogTransport_Send(t *testing.T) {
	logger := &mockLogger{}
	tr := NewLogTransport(logger)

	require.NoError(t, tr.Send(context.Background(), "a@example.com", "Hi", "<p>body</p>"))
	assert.Equal(t, []string{"Email sent"}, logger.infos)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, tr.Send(ctx, "a@example.com", "Hi", "body"), context.Canceled)
}

func TestSMTPTransport_Send(t *testing.T) {
	tr := NewSMTPTransport(Config{
		From:         "shop@example.com",
		SMTPHost:     "mail.example.com",
		SMTPPort:     587,
		SMTPUsername: "user",
		SMTPPassword: "pass",
	})

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg string
	tr.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, string(msg)
		assert.NotNil(t, a)
		return nil
	}

	require.NoError(t, tr.Send(context.Background(), "ann@example.com", "Order Confirmation", "<b>thanks</b>"))
	assert.Equal(t, "mail.example.com:587", gotAddr)
	assert.Equal(t, "shop@example.com", gotFrom)
	assert.Equal(t, []string{"ann@example.com"}, gotTo)
	assert.Contains(t, gotMsg, "Subject: Order Confirmation\r\n")
	assert.Contains(t, gotMsg, "Content-Type: text/html; charset=utf-8\r\n")
	assert.True(t, strings.HasSuffix(gotMsg, "\r\n\r\n<b>thanks</b>"))
}

func TestSMTPTransport_NoAuthWithoutUsername(t *testing.T) {
	tr := NewSMTPTransport(Config{SMTPHost: "localhost", SMTPPort: 1025})
	assert.Nil(t, tr.auth)
}

func TestSMTPTransport_SendError(t *testing.T) {
	tr := NewSMTPTransport(Config{SMTPHost: "localhost", SMTPPort: 1025})
	tr.send = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("connection refused")
	}

	err := tr.Send(context.Background(), "ann@example.com", "Hi", "body")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestSMTPTransport_RejectsHeaderInjection(t *testing.T) {
	tr := NewSMTPTransport(Config{SMTPHost: "localhost", SMTPPort: 1025})
	tr.send = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("send must not be called")
		return nil
	}

	err := tr.Send(context.Background(), "ann@example.com\r\nBcc: x@example.com", "Hi", "body")
	assert.ErrorIs(t, err, ErrInvalidHeader)
}

type fakePostmark struct {
	sent []postmark.Email
	resp postmark.EmailResponse
	err  error
}

func (f *fakePostmark) SendEmail(email postmark.Email) (postmark.EmailResponse, error) {
	f.sent = append(f.sent, email)
	return f.resp, f.err
}

func TestPostmarkTransport_Send(t *testing.T) {
	fake := &fakePostmark{}
	tr := &PostmarkTransport{client: fake, from: "shop@example.com"}

	require.NoError(t, tr.Send(context.Background(), "ann@example.com", "Order Confirmation", "<b>thanks</b>"))
	require.Len(t, fake.sent, 1)
	assert.Equal(t, "shop@example.com", fake.sent[0].From)
	assert.Equal(t, "ann@example.com", fake.sent[0].To)
	assert.Equal(t, "<b>thanks</b>", fake.sent[0].HtmlBody)
}

func TestPostmarkTransport_Errors(t *testing.T) {
	fake := &fakePostmark{err: errors.New("timeout")}
	tr := &PostmarkTransport{client: fake, from: "shop@example.com"}
	assert.Error(t, tr.Send(context.Background(), "ann@example.com", "Hi", "body"))

	fake = &fakePostmark{resp: postmark.EmailResponse{ErrorCode: 300, Message: "Invalid email request"}}
	tr = &PostmarkTransport{client: fake, from: "shop@example.com"}
	err := tr.Send(context.Background(), "ann@example.com", "Hi", "body")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid email request")
}
