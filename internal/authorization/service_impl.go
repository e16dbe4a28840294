package authorization

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	auditdomain "github.com/smallbiznis/cobranca/internal/audit/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	RoleOperator = "operador"
	RoleManager  = "gestor"
	RoleLegal    = "juridico"
	RoleSystem   = "sistema"
)

const (
	ObjectUnit        = "unit"
	ObjectDebt        = "debt"
	ObjectAgreement   = "agreement"
	ObjectPriority    = "priority"
	ObjectBlock       = "block"
	ObjectKanban      = "kanban"
	ObjectNotice      = "notice"
	ObjectIntegration = "integration"
	ObjectAuditLog    = "audit_log"
)

const (
	ActionView   = "view"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"

	ActionAgreementAccept      = "agreement.accept"
	ActionAgreementBreak       = "agreement.break"
	ActionAgreementCancel      = "agreement.cancel"
	ActionAgreementRenegotiate = "agreement.renegotiate"

	ActionPriorityOverride = "priority.override"
	ActionPrioritySweep    = "priority.sweep"
	ActionPriorityResolve  = "priority.resolve"

	ActionBlockCreate  = "block.create"
	ActionBlockUnblock = "block.unblock"
	ActionBlockSweep   = "block.sweep"

	ActionIntegrationManage = "integration.manage"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
	AuditSvc auditdomain.Service `optional:"true"`
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
	auditSvc auditdomain.Service
}

func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	enforcer.BuildRoleLinks()
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
		auditSvc: p.AuditSvc,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, actor, role, object, action string) error {
	actor = strings.TrimSpace(actor)
	role = strings.ToLower(strings.TrimSpace(role))
	object = strings.TrimSpace(object)
	action = strings.TrimSpace(action)
	if role == "" {
		return ErrInvalidRole
	}
	if object == "" {
		return ErrInvalidObject
	}
	if action == "" {
		return ErrInvalidAction
	}
	if !validRole(role) {
		s.auditDenied(ctx, actor, role, object, action)
		return ErrInvalidRole
	}

	subject := fmt.Sprintf("role:%s", role)
	allowed, err := s.enforcer.Enforce(subject, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.auditDenied(ctx, actor, role, object, action)
		return ErrForbidden
	}
	return nil
}

func validRole(role string) bool {
	switch role {
	case RoleOperator, RoleManager, RoleLegal, RoleSystem:
		return true
	}
	return false
}

func (s *ServiceImpl) auditDenied(ctx context.Context, actor, role, object, action string) {
	if s.auditSvc == nil {
		return
	}
	var actorID *string
	if actor != "" {
		actorID = &actor
	}
	targetID := object
	_ = s.auditSvc.Record(ctx, string(auditdomain.ActorTypeOperator), actorID,
		"authorization.denied", "authorization", &targetID,
		auditdomain.RiskTierMedium, map[string]any{
			"role":   role,
			"object": object,
			"action": action,
		})
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	viewAll := []string{
		ObjectUnit, ObjectDebt, ObjectAgreement, ObjectPriority,
		ObjectBlock, ObjectKanban, ObjectNotice, ObjectIntegration,
	}

	policies := [][]string{
		// Operador: day-to-day collection work.
		{"role:operador", ObjectUnit, ActionCreate},
		{"role:operador", ObjectUnit, ActionUpdate},
		{"role:operador", ObjectDebt, ActionCreate},
		{"role:operador", ObjectDebt, ActionUpdate},
		{"role:operador", ObjectAgreement, ActionCreate},
		{"role:operador", ObjectAgreement, ActionAgreementAccept},
		{"role:operador", ObjectKanban, ActionCreate},
		{"role:operador", ObjectKanban, ActionUpdate},
		{"role:operador", ObjectPriority, ActionUpdate},
		{"role:operador", ObjectNotice, ActionCreate},

		// Gestor: everything the operator does plus the sensitive calls.
		{"role:gestor", ObjectAgreement, ActionAgreementBreak},
		{"role:gestor", ObjectAgreement, ActionAgreementCancel},
		{"role:gestor", ObjectAgreement, ActionAgreementRenegotiate},
		{"role:gestor", ObjectPriority, ActionPriorityOverride},
		{"role:gestor", ObjectPriority, ActionPrioritySweep},
		{"role:gestor", ObjectPriority, ActionPriorityResolve},
		{"role:gestor", ObjectBlock, ActionBlockCreate},
		{"role:gestor", ObjectBlock, ActionBlockUnblock},
		{"role:gestor", ObjectBlock, ActionBlockSweep},
		{"role:gestor", ObjectNotice, ActionUpdate},
		{"role:gestor", ObjectNotice, ActionDelete},
		{"role:gestor", ObjectIntegration, ActionIntegrationManage},
		{"role:gestor", ObjectAuditLog, ActionView},

		// Juridico: reads everything, resolves legal pending actions and
		// owns the extrajudicial notices.
		{"role:juridico", ObjectAuditLog, ActionView},
		{"role:juridico", ObjectPriority, ActionPriorityResolve},
		{"role:juridico", ObjectNotice, ActionCreate},
		{"role:juridico", ObjectNotice, ActionUpdate},
		{"role:juridico", ObjectAgreement, ActionAgreementBreak},

		// Sistema: automated sweeps and internal callers.
		{"role:sistema", ObjectPriority, ActionPrioritySweep},
		{"role:sistema", ObjectBlock, ActionBlockSweep},
		{"role:sistema", ObjectBlock, ActionBlockCreate},
		{"role:sistema", ObjectAuditLog, ActionView},
	}

	for _, role := range []string{"role:operador", "role:gestor", "role:juridico", "role:sistema"} {
		for _, object := range viewAll {
			policies = append(policies, []string{role, object, ActionView})
		}
	}

	// Gestor inherits the operator grants.
	if _, err := enforcer.AddGroupingPolicy("role:gestor", "role:operador"); err != nil {
		return err
	}

	for _, policy := range policies {
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}
	return nil
}
