package notification

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type SendGridConfig struct {
	APIKey      string
	SenderEmail string
	SenderName  string
}

type SendGridRepository struct {
	cfg    SendGridConfig
	client *sendgrid.Client
}

func NewSendGridRepository(cfg SendGridConfig) *SendGridRepository {
	return &SendGridRepository{
		cfg:    cfg,
		client: sendgrid.NewSendClient(cfg.APIKey),
	}
}

func (r *SendGridRepository) SendEmail(ctx context.Context, toName, toEmail, subject, message string) error {
	if r.cfg.APIKey == "" {
		return fmt.Errorf("sendgrid api key is empty")
	}
	if toEmail == "" {
		return fmt.Errorf("to address is empty")
	}

	msg := mail.NewSingleEmail(
		mail.NewEmail(r.cfg.SenderName, r.cfg.SenderEmail),
		subject,
		mail.NewEmail(toName, toEmail),
		message,
		htmlBody(message),
	)

	response, err := r.client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("sendgrid send error: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send failed: status=%d, body=%s", response.StatusCode, response.Body)
	}

	return nil
}
