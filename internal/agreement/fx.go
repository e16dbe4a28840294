package agreement

import (
	"github.com/smallbiznis/cobranca/internal/agreement/repository"
	"github.com/smallbiznis/cobranca/internal/agreement/service"
	"go.uber.org/fx"
)

var Module = fx.Module("agreement.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
