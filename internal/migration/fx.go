package migration

import (
	authdomain "github.com/scanbase/scanbase/internal/auth/domain"
	catalogdomain "github.com/scanbase/scanbase/internal/catalog/domain"
	"github.com/scanbase/scanbase/internal/config"
	ledgerdomain "github.com/scanbase/scanbase/internal/ledger/domain"
	manifestdomain "github.com/scanbase/scanbase/internal/manifest/domain"
	tenantdomain "github.com/scanbase/scanbase/internal/tenant/domain"
	userdomain "github.com/scanbase/scanbase/internal/user/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			return RunMigrations(sqlDB)
		}

		// sqlite and mysql deployments are dev/self-hosted, schema
		// drift is acceptable there.
		return conn.AutoMigrate(
			&tenantdomain.Tenant{},
			&userdomain.User{},
			&authdomain.APIToken{},
			&catalogdomain.Entry{},
			&manifestdomain.Item{},
			&ledgerdomain.ScanRecord{},
		)
	}),
)
