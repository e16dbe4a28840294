package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	integrationdomain "github.com/smallbiznis/cobranca/internal/integration/domain"
)

type whatsAppSender struct {
	client *http.Client
}

type whatsAppPayload struct {
	From string `json:"from"`
	To   string `json:"to"`
	Body string `json:"body"`
}

func (w *whatsAppSender) send(ctx context.Context, cfg integrationdomain.WhatsAppConfig, to, body string) error {
	payload, err := json.Marshal(whatsAppPayload{
		From: cfg.SenderPhone,
		To:   to,
		Body: body,
	})
	if err != nil {
		return err
	}

	url := strings.TrimRight(cfg.BaseURL, "/") + "/v1/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%w: whatsapp api returned %d", ErrDeliveryFailed, resp.StatusCode)
	}
	return nil
}

func (w *whatsAppSender) test(ctx context.Context, cfg integrationdomain.WhatsAppConfig) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(cfg.BaseURL, "/"), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("whatsapp api returned %d", resp.StatusCode)
	}
	return nil
}
