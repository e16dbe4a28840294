package notification

import (
	"context"
	"errors"

	integrationdomain "github.com/smallbiznis/cobranca/internal/integration/domain"
)

// Channel selects the delivery medium of a message.
type Channel string

const (
	ChannelWhatsApp Channel = "whatsapp"
	ChannelEmail    Channel = "email"
	ChannelWebhook  Channel = "webhook"
)

type Message struct {
	Recipient string  `json:"recipient"`
	Channel   Channel `json:"channel"`
	Subject   string  `json:"subject,omitempty"`
	Body      string  `json:"body"`
}

// Provider delivers a message through its channel. Callers treat a
// returned error as final; there are no retries.
type Provider interface {
	Send(ctx context.Context, msg Message) error
}

var (
	ErrUnknownChannel      = errors.New("unknown_notification_channel")
	ErrChannelInactive     = errors.New("notification_channel_inactive")
	ErrChannelUnconfigured = errors.New("notification_channel_unconfigured")
	ErrDeliveryFailed      = errors.New("notification_delivery_failed")
)

func settingKind(ch Channel) (integrationdomain.Kind, bool) {
	switch ch {
	case ChannelWhatsApp:
		return integrationdomain.KindWhatsApp, true
	case ChannelEmail:
		return integrationdomain.KindEmail, true
	case ChannelWebhook:
		return integrationdomain.KindWebhook, true
	}
	return "", false
}
