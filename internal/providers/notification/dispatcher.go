package notification

import (
	"context"
	"fmt"
	"net/http"
	"time"

	integrationdomain "github.com/smallbiznis/cobranca/internal/integration/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const notionAPIVersion = "2022-06-28"

type Params struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo integrationdomain.Repository
}

// Dispatcher routes a message to its channel sender, resolving the
// channel configuration from the stored integration settings at send
// time so configuration changes apply without a restart.
type Dispatcher struct {
	db       *gorm.DB
	log      *zap.Logger
	repo     integrationdomain.Repository
	client   *http.Client
	whatsapp *whatsAppSender
	email    *emailSender
	webhook  *webhookSender
}

func NewDispatcher(p Params) *Dispatcher {
	client := &http.Client{Timeout: 15 * time.Second}
	return &Dispatcher{
		db:       p.DB,
		log:      p.Log.Named("notification.dispatcher"),
		repo:     p.Repo,
		client:   client,
		whatsapp: &whatsAppSender{client: client},
		email:    &emailSender{},
		webhook:  &webhookSender{client: client},
	}
}

func (d *Dispatcher) Send(ctx context.Context, msg Message) error {
	kind, ok := settingKind(msg.Channel)
	if !ok {
		return ErrUnknownChannel
	}

	setting, err := d.repo.FindByKind(ctx, d.db, kind)
	if err != nil {
		return err
	}
	if setting == nil {
		return ErrChannelUnconfigured
	}
	if !setting.Active {
		return ErrChannelInactive
	}

	switch msg.Channel {
	case ChannelWhatsApp:
		cfg, err := setting.DecodeWhatsApp()
		if err != nil {
			return err
		}
		return d.whatsapp.send(ctx, cfg, msg.Recipient, msg.Body)
	case ChannelEmail:
		cfg, err := setting.DecodeEmail()
		if err != nil {
			return err
		}
		return d.email.send(ctx, cfg, msg.Recipient, msg.Subject, msg.Body)
	case ChannelWebhook:
		cfg, err := setting.DecodeWebhook()
		if err != nil {
			return err
		}
		return d.webhook.send(ctx, cfg, msg)
	}
	return ErrUnknownChannel
}

// Test implements integrationdomain.ConnectionTester.
func (d *Dispatcher) Test(ctx context.Context, setting *integrationdomain.Setting) error {
	switch setting.Kind {
	case integrationdomain.KindWhatsApp:
		cfg, err := setting.DecodeWhatsApp()
		if err != nil {
			return err
		}
		return d.whatsapp.test(ctx, cfg)
	case integrationdomain.KindEmail:
		cfg, err := setting.DecodeEmail()
		if err != nil {
			return err
		}
		return d.email.test(ctx, cfg)
	case integrationdomain.KindWebhook:
		cfg, err := setting.DecodeWebhook()
		if err != nil {
			return err
		}
		return d.webhook.test(ctx, cfg)
	case integrationdomain.KindNotion:
		cfg, err := setting.DecodeNotion()
		if err != nil {
			return err
		}
		return d.testNotion(ctx, cfg)
	}
	return integrationdomain.ErrInvalidKind
}

func (d *Dispatcher) testNotion(ctx context.Context, cfg integrationdomain.NotionConfig) error {
	url := "https://api.notion.com/v1/databases/" + cfg.DatabaseID
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+cfg.Token)
	req.Header.Set("Notion-Version", notionAPIVersion)

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("notion api returned %d", resp.StatusCode)
	}
	return nil
}
