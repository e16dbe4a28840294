package notification

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"

	integrationdomain "github.com/smallbiznis/cobranca/internal/integration/domain"
)

// SignatureHeader carries the hex HMAC-SHA256 of the request body,
// keyed with the configured webhook secret.
const SignatureHeader = "X-Cobranca-Signature"

type webhookSender struct {
	client *http.Client
}

func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func (w *webhookSender) post(ctx context.Context, cfg integrationdomain.WebhookConfig, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, Sign(cfg.Secret, payload))
	for name, value := range cfg.Headers {
		req.Header.Set(name, value)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%w: webhook returned %d", ErrDeliveryFailed, resp.StatusCode)
	}
	return nil
}

func (w *webhookSender) send(ctx context.Context, cfg integrationdomain.WebhookConfig, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return w.post(ctx, cfg, payload)
}

func (w *webhookSender) test(ctx context.Context, cfg integrationdomain.WebhookConfig) error {
	payload, _ := json.Marshal(map[string]string{"event": "ping"})
	return w.post(ctx, cfg, payload)
}
