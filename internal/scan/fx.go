package scan

import (
	"github.com/scanbase/scanbase/internal/scan/service"
	"go.uber.org/fx"
)

var Module = fx.Module("scan.service",
	fx.Provide(service.NewService),
)
