package provider

import "context"

// Message is one outbound transactional email.
type Message struct {
	ToName  string
	ToEmail string
	Subject string
	HTML    string
}

// EmailProvider abstracts the external transactional-email service.
// Send returns the provider's message id on success. Mocking this interface
// in tests gives full control over provider behaviour without network calls.
type EmailProvider interface {
	Send(ctx context.Context, msg Message) (string, error)
}
