package authorization

import (
	"context"
	"errors"
)

// Service answers "may this operator role perform this action on this
// object". Roles arrive on every request via the X-Operator-Role header
// and are matched against the seeded casbin policy.
type Service interface {
	Authorize(ctx context.Context, actor, role, object, action string) error
}

var (
	ErrForbidden     = errors.New("forbidden")
	ErrInvalidActor  = errors.New("invalid_actor")
	ErrInvalidRole   = errors.New("invalid_role")
	ErrInvalidObject = errors.New("invalid_object")
	ErrInvalidAction = errors.New("invalid_action")
)
