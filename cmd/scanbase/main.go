package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/scanbase/scanbase/internal/auth"
	"github.com/scanbase/scanbase/internal/billing"
	"github.com/scanbase/scanbase/internal/catalog"
	"github.com/scanbase/scanbase/internal/clock"
	"github.com/scanbase/scanbase/internal/config"
	"github.com/scanbase/scanbase/internal/ledger"
	"github.com/scanbase/scanbase/internal/manifest"
	"github.com/scanbase/scanbase/internal/migration"
	"github.com/scanbase/scanbase/internal/observability"
	"github.com/scanbase/scanbase/internal/providers"
	"github.com/scanbase/scanbase/internal/quota"
	"github.com/scanbase/scanbase/internal/ratelimit"
	"github.com/scanbase/scanbase/internal/scan"
	"github.com/scanbase/scanbase/internal/server"
	"github.com/scanbase/scanbase/internal/tenant"
	"github.com/scanbase/scanbase/internal/user"
	"github.com/scanbase/scanbase/pkg/db"
	"github.com/scanbase/scanbase/pkg/log"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		log.Module,
		clock.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,

		// Domains
		tenant.Module,
		user.Module,
		auth.Module,
		billing.Module,
		catalog.Module,
		manifest.Module,
		ledger.Module,
		quota.Module,
		providers.Module,
		ratelimit.Module,
		scan.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
