package checkout

import "go.uber.org/fx"

// Module exposes the checkout service via Fx.
var Module = fx.Options(
	fx.Provide(
		NewService,
		func(s *Service) Manager { return s },
	),
	fx.Invoke(RegisterOutboxHandlers),
)
