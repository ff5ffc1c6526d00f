package provider

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridProvider delivers email through the SendGrid v3 API.
type SendGridProvider struct {
	client    *sendgrid.Client
	fromName  string
	fromEmail string
}

func NewSendGridProvider(apiKey, fromName, fromEmail string) *SendGridProvider {
	return &SendGridProvider{
		client:    sendgrid.NewSendClient(apiKey),
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

// Send submits the message and returns SendGrid's X-Message-Id header.
// Any non-2xx response is an error carrying the response body for the
// notification log's error_message column.
func (p *SendGridProvider) Send(ctx context.Context, msg Message) (string, error) {
	from := mail.NewEmail(p.fromName, p.fromEmail)
	to := mail.NewEmail(msg.ToName, msg.ToEmail)
	email := mail.NewSingleEmail(from, msg.Subject, to, "", msg.HTML)

	resp, err := p.client.SendWithContext(ctx, email)
	if err != nil {
		return "", fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("sendgrid status %d: %s", resp.StatusCode, resp.Body)
	}

	ids := resp.Headers["X-Message-Id"]
	if len(ids) == 0 {
		return "", nil
	}
	return ids[0], nil
}

// compile-time check that SendGridProvider implements EmailProvider
var _ EmailProvider = (*SendGridProvider)(nil)
