package mailer

import (
	"context"
	"fmt"

	"github.com/keighl/postmark"
)

type postmarkSender interface {
	SendEmail(email postmark.Email) (postmark.EmailResponse, error)
}

// PostmarkTransport sends email through the Postmark API.
type PostmarkTransport struct {
	client postmarkSender
	from   string
}

// NewPostmarkTransport creates a transport using a Postmark server token.
func NewPostmarkTransport(serverToken, from string) *PostmarkTransport {
	return &PostmarkTransport{
		client: postmark.NewClient(serverToken, ""),
		from:   from,
	}
}

// Send delivers the message as both HTML and text body.
func (t *PostmarkTransport) Send(ctx context.Context, to, subject, body string) error {
	if err := checkHeader(to, subject); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	resp, err := t.client.SendEmail(postmark.Email{
		From:     t.from,
		To:       to,
		Subject:  subject,
		HtmlBody: body,
		TextBody: body,
	})
	if err != nil {
		return fmt.Errorf("failed to send email via postmark: %w", err)
	}
	if resp.ErrorCode != 0 {
		return fmt.Errorf("postmark rejected email: %d %s", resp.ErrorCode, resp.Message)
	}
	return nil
}
