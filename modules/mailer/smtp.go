package mailer

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
)

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPTransport sends email through an SMTP relay.
type SMTPTransport struct {
	addr string
	host string
	from string
	auth smtp.Auth
	send sendFunc
}

// NewSMTPTransport creates an SMTP transport. Authentication is skipped when
// no username is configured (e.g. MailHog).
func NewSMTPTransport(cfg Config) *SMTPTransport {
	t := &SMTPTransport{
		addr: net.JoinHostPort(cfg.SMTPHost, strconv.Itoa(cfg.SMTPPort)),
		host: cfg.SMTPHost,
		from: cfg.From,
		send: smtp.SendMail,
	}
	if cfg.SMTPUsername != "" {
		t.auth = smtp.PlainAuth("", cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPHost)
	}
	return t
}

// Send delivers the message. smtp.SendMail does not take a context, so the
// send runs in a goroutine and Send returns early if ctx is done.
func (t *SMTPTransport) Send(ctx context.Context, to, subject, body string) error {
	if err := checkHeader(to, subject); err != nil {
		return err
	}

	msg := buildMessage(t.from, to, subject, body)

	done := make(chan error, 1)
	go func() {
		done <- t.send(t.addr, t.auth, t.from, []string{to}, msg)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send email via smtp: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
