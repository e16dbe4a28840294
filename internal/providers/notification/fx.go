package notification

import (
	integrationdomain "github.com/smallbiznis/cobranca/internal/integration/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("providers.notification",
	fx.Provide(
		NewDispatcher,
		func(d *Dispatcher) Provider { return d },
		func(d *Dispatcher) integrationdomain.ConnectionTester { return d },
	),
)
