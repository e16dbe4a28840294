package integration

import (
	"github.com/smallbiznis/cobranca/internal/integration/repository"
	"github.com/smallbiznis/cobranca/internal/integration/service"
	"go.uber.org/fx"
)

var Module = fx.Module("integration.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
