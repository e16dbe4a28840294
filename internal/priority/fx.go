package priority

import (
	"github.com/smallbiznis/cobranca/internal/priority/repository"
	"github.com/smallbiznis/cobranca/internal/priority/service"
	"go.uber.org/fx"
)

var Module = fx.Module("priority.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
