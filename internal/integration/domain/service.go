package domain

import (
	"context"
	"encoding/json"
	"errors"
)

type UpsertSettingRequest struct {
	Kind   Kind
	Config json.RawMessage
	Active *bool
}

type Service interface {
	Upsert(ctx context.Context, req UpsertSettingRequest) (*Setting, error)
	Get(ctx context.Context, kind Kind) (*Setting, error)
	List(ctx context.Context) ([]*Setting, error)
	Delete(ctx context.Context, kind Kind) error
	// TestConnection pings the channel with the stored configuration.
	TestConnection(ctx context.Context, kind Kind) error
}

// ConnectionTester probes a channel endpoint. Implemented by the
// notification providers so the settings module stays transport-free.
type ConnectionTester interface {
	Test(ctx context.Context, setting *Setting) error
}

var (
	ErrSettingNotFound = errors.New("integration_setting_not_found")
	ErrInvalidKind     = errors.New("invalid_integration_kind")
	ErrInvalidConfig   = errors.New("invalid_integration_config")
	ErrMissingField    = errors.New("missing_required_field")
	ErrSettingInactive = errors.New("integration_setting_inactive")
	ErrConnectionTest  = errors.New("connection_test_failed")
)
