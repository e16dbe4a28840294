package franchisee

import (
	"github.com/smallbiznis/cobranca/internal/franchisee/repository"
	"github.com/smallbiznis/cobranca/internal/franchisee/service"
	"go.uber.org/fx"
)

var Module = fx.Module("franchisee.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
