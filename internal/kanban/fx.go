package kanban

import (
	"github.com/smallbiznis/cobranca/internal/kanban/repository"
	"github.com/smallbiznis/cobranca/internal/kanban/service"
	"go.uber.org/fx"
)

var Module = fx.Module("kanban.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
