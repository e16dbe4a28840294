package notification

import (
	"context"
	"fmt"
	"net/smtp"

	integrationdomain "github.com/smallbiznis/cobranca/internal/integration/domain"
)

// sendMail is swapped in tests; net/smtp offers no transport seam.
var sendMail = smtp.SendMail

type emailSender struct{}

func (e *emailSender) send(ctx context.Context, cfg integrationdomain.EmailConfig, to, subject, body string) error {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.SMTPHost)
	}
	addr := fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort)

	msg := []byte(fmt.Sprintf(
		"To: %s\r\nFrom: %s\r\nSubject: %s\r\nMIME-version: 1.0;\r\nContent-Type: text/plain; charset=\"UTF-8\";\r\n\r\n%s",
		to, cfg.From, subject, body,
	))

	if err := sendMail(addr, auth, cfg.From, []string{to}, msg); err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	return nil
}

func (e *emailSender) test(ctx context.Context, cfg integrationdomain.EmailConfig) error {
	addr := fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort)
	client, err := smtp.Dial(addr)
	if err != nil {
		return err
	}
	return client.Close()
}
