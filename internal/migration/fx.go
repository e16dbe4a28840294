package migration

import (
	agreementdomain "github.com/smallbiznis/cobranca/internal/agreement/domain"
	auditdomain "github.com/smallbiznis/cobranca/internal/audit/domain"
	blockingdomain "github.com/smallbiznis/cobranca/internal/blocking/domain"
	"github.com/smallbiznis/cobranca/internal/config"
	debtdomain "github.com/smallbiznis/cobranca/internal/debt/domain"
	franchiseedomain "github.com/smallbiznis/cobranca/internal/franchisee/domain"
	integrationdomain "github.com/smallbiznis/cobranca/internal/integration/domain"
	kanbandomain "github.com/smallbiznis/cobranca/internal/kanban/domain"
	noticedomain "github.com/smallbiznis/cobranca/internal/notice/domain"
	prioritydomain "github.com/smallbiznis/cobranca/internal/priority/domain"
	"github.com/smallbiznis/cobranca/internal/seed"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// Non-postgres databases are for local development only.
			if err := conn.AutoMigrate(
				&franchiseedomain.Unit{},
				&debtdomain.Debt{},
				&agreementdomain.Agreement{},
				&prioritydomain.Priority{},
				&prioritydomain.EscalationLog{},
				&prioritydomain.PendingAction{},
				&blockingdomain.Block{},
				&kanbandomain.Card{},
				&kanbandomain.Tratativa{},
				&noticedomain.Template{},
				&integrationdomain.Setting{},
				&auditdomain.AuditLog{},
			); err != nil {
				return err
			}
		}

		return seed.EnsureDefaultTemplates(conn)
	}),
)
