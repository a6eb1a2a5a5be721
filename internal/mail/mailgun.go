package mail

import (
	"context"
	"time"

	"github.com/mailgun/mailgun-go/v4"
)

const sendTimeout = 10 * time.Second

// Email is a single outbound message. Template and TemplateVars select a
// template managed on the mailgun side. All account messages are
// templated, so there is no plain-body path.
type Email struct {
	Subject      string
	From         string
	To           []string
	Template     string
	TemplateVars map[string]any
}

type Mailer interface {
	SendTemplatedMail(e *Email) error
}

// Mailgun delivers mail through the mailgun HTTP API.
type Mailgun struct {
	client *mailgun.MailgunImpl
}

func NewMailer(domain, apiKey, apiBase string) *Mailgun {
	client := mailgun.NewMailgun(domain, apiKey)
	if apiBase != "" {
		client.SetAPIBase(apiBase)
	}

	return &Mailgun{client: client}
}

func (m *Mailgun) SendTemplatedMail(e *Email) error {
	message := mailgun.NewMessage(e.From, e.Subject, "", e.To...)
	message.SetTemplate(e.Template)

	for k, v := range e.TemplateVars {
		message.AddTemplateVariable(k, v)
	}

	return m.send(message)
}

func (m *Mailgun) send(message *mailgun.Message) error {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	_, _, err := m.client.Send(ctx, message)
	return err
}
