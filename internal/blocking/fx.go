package blocking

import (
	"github.com/smallbiznis/cobranca/internal/blocking/repository"
	"github.com/smallbiznis/cobranca/internal/blocking/service"
	"go.uber.org/fx"
)

var Module = fx.Module("blocking.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
