// Package providers wires the external resolution clients.
package providers

import (
	"github.com/scanbase/scanbase/internal/providers/productdata"
	"github.com/scanbase/scanbase/internal/providers/scantask"
	"github.com/scanbase/scanbase/internal/providers/upcdb"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	scantask.Module,
	productdata.Module,
	upcdb.Module,
)
