package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Kind identifies an external channel the back office talks to.
type Kind string

const (
	KindWhatsApp Kind = "whatsapp"
	KindEmail    Kind = "email"
	KindWebhook  Kind = "webhook"
	KindNotion   Kind = "notion"
)

func ValidKind(k Kind) bool {
	switch k {
	case KindWhatsApp, KindEmail, KindWebhook, KindNotion:
		return true
	}
	return false
}

// Setting stores the configuration of one channel. One row per kind.
type Setting struct {
	ID        snowflake.ID   `gorm:"primaryKey" json:"id"`
	Kind      Kind           `gorm:"not null;uniqueIndex" json:"kind"`
	Config    datatypes.JSON `gorm:"not null" json:"config"`
	Active    bool           `gorm:"not null" json:"active"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
}

func (Setting) TableName() string {
	return "integration_settings"
}

type WhatsAppConfig struct {
	BaseURL     string `json:"base_url"`
	APIKey      string `json:"api_key"`
	SenderPhone string `json:"sender_phone"`
}

type EmailConfig struct {
	SMTPHost string `json:"smtp_host"`
	SMTPPort int    `json:"smtp_port"`
	Username string `json:"username"`
	Password string `json:"password"`
	From     string `json:"from"`
}

type WebhookConfig struct {
	URL     string            `json:"url"`
	Secret  string            `json:"secret"`
	Headers map[string]string `json:"headers,omitempty"`
}

type NotionConfig struct {
	Token      string `json:"token"`
	DatabaseID string `json:"database_id"`
}

// ValidateConfig decodes raw into the typed variant for kind and checks
// the required fields.
func ValidateConfig(kind Kind, raw json.RawMessage) error {
	switch kind {
	case KindWhatsApp:
		var cfg WhatsAppConfig
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		return requireFields(map[string]string{
			"base_url":     cfg.BaseURL,
			"api_key":      cfg.APIKey,
			"sender_phone": cfg.SenderPhone,
		})
	case KindEmail:
		var cfg EmailConfig
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		if cfg.SMTPPort <= 0 {
			return fmt.Errorf("%w: smtp_port", ErrMissingField)
		}
		return requireFields(map[string]string{
			"smtp_host": cfg.SMTPHost,
			"from":      cfg.From,
		})
	case KindWebhook:
		var cfg WebhookConfig
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		return requireFields(map[string]string{
			"url":    cfg.URL,
			"secret": cfg.Secret,
		})
	case KindNotion:
		var cfg NotionConfig
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		return requireFields(map[string]string{
			"token":       cfg.Token,
			"database_id": cfg.DatabaseID,
		})
	}
	return ErrInvalidKind
}

func requireFields(fields map[string]string) error {
	var missing []string
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("%w: %s", ErrMissingField, strings.Join(missing, ", "))
	}
	return nil
}

// DecodeWhatsApp and friends decode a setting into its typed variant.
func (s *Setting) DecodeWhatsApp() (WhatsAppConfig, error) {
	var cfg WhatsAppConfig
	err := json.Unmarshal(s.Config, &cfg)
	return cfg, err
}

func (s *Setting) DecodeEmail() (EmailConfig, error) {
	var cfg EmailConfig
	err := json.Unmarshal(s.Config, &cfg)
	return cfg, err
}

func (s *Setting) DecodeWebhook() (WebhookConfig, error) {
	var cfg WebhookConfig
	err := json.Unmarshal(s.Config, &cfg)
	return cfg, err
}

func (s *Setting) DecodeNotion() (NotionConfig, error) {
	var cfg NotionConfig
	err := json.Unmarshal(s.Config, &cfg)
	return cfg, err
}
