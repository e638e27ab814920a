package manifest

import (
	"github.com/scanbase/scanbase/internal/manifest/service"
	"go.uber.org/fx"
)

var Module = fx.Module("manifest.service",
	fx.Provide(service.NewService),
)
