package notice

import (
	"github.com/smallbiznis/cobranca/internal/notice/repository"
	"github.com/smallbiznis/cobranca/internal/notice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("notice.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
