// Package mailer delivers notification emails over SMTP, the Postmark API,
// or the application log.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-monolith/mono/pkg/types"
)

// Transport names accepted by New.
const (
	TransportLog      = "log"
	TransportSMTP     = "smtp"
	TransportPostmark = "postmark"
)

var (
	// ErrUnknownTransport is returned by New for an unsupported transport name.
	ErrUnknownTransport = errors.New("unknown mail transport")
	// ErrInvalidHeader is returned when an address or subject contains a line break.
	ErrInvalidHeader = errors.New("invalid mail header value")
)

// Transport sends a single HTML email.
type Transport interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Config selects and configures a transport.
type Config struct {
	Transport     string
	From          string
	SMTPHost      string
	SMTPPort      int
	SMTPUsername  string
	SMTPPassword  string
	PostmarkToken string
}

// New builds the transport named by cfg.Transport.
func New(cfg Config, logger types.Logger) (Transport, error) {
	switch strings.ToLower(cfg.Transport) {
	case "", TransportLog:
		return NewLogTransport(logger), nil
	case TransportSMTP:
		if cfg.SMTPHost == "" {
			return nil, fmt.Errorf("smtp transport: SMTP_HOST is required")
		}
		return NewSMTPTransport(cfg), nil
	case TransportPostmark:
		if cfg.PostmarkToken == "" {
			return nil, fmt.Errorf("postmark transport: POSTMARK_SERVER_TOKEN is required")
		}
		return NewPostmarkTransport(cfg.PostmarkToken, cfg.From), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTransport, cfg.Transport)
	}
}

// LogTransport writes emails to the logger instead of sending them.
type LogTransport struct {
	logger types.Logger
}

// NewLogTransport creates a transport for local development.
func NewLogTransport(logger types.Logger) *LogTransport {
	return &LogTransport{logger: logger}
}

// Send logs the email.
func (t *LogTransport) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.logger.Info("Email sent", "transport", TransportLog, "to", to, "subject", subject, "body_bytes", len(body))
	return nil
}

func checkHeader(values ...string) error {
	for _, v := range values {
		if strings.ContainsAny(v, "\r\n") {
			return ErrInvalidHeader
		}
	}
	return nil
}
