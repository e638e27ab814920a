package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/scanbase/scanbase/internal/auth"
	authdomain "github.com/scanbase/scanbase/internal/auth/domain"
	billingdomain "github.com/scanbase/scanbase/internal/billing/domain"
	"github.com/scanbase/scanbase/internal/config"
	ledgerdomain "github.com/scanbase/scanbase/internal/ledger/domain"
	manifestdomain "github.com/scanbase/scanbase/internal/manifest/domain"
	obsmetrics "github.com/scanbase/scanbase/internal/observability/metrics"
	obstracing "github.com/scanbase/scanbase/internal/observability/tracing"
	quotadomain "github.com/scanbase/scanbase/internal/quota/domain"
	"github.com/scanbase/scanbase/internal/ratelimit"
	scandomain "github.com/scanbase/scanbase/internal/scan/domain"
	userdomain "github.com/scanbase/scanbase/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(metrics *obsmetrics.Metrics, registry *prometheus.Registry) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(metrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	return r
}

func registerGin(metrics *obsmetrics.Metrics, registry *prometheus.Registry) *gin.Engine {
	return NewEngine(metrics, registry)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine      *gin.Engine
	cfg         config.Config
	log         *zap.Logger
	scanSvc     scandomain.Service
	quotaSvc    quotadomain.Service
	ledgerSvc   ledgerdomain.Service
	manifestSvc manifestdomain.Service
	userSvc     userdomain.Service
	billingSvc  billingdomain.Service
	authSvc     authdomain.Service
	metrics     *obsmetrics.Metrics
	limiter     *ratelimit.ScanLimiter
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	Log         *zap.Logger
	ScanSvc     scandomain.Service
	QuotaSvc    quotadomain.Service
	LedgerSvc   ledgerdomain.Service
	ManifestSvc manifestdomain.Service
	UserSvc     userdomain.Service
	BillingSvc  billingdomain.Service
	AuthSvc     authdomain.Service
	Metrics     *obsmetrics.Metrics    `optional:"true"`
	Limiter     *ratelimit.ScanLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		log:         p.Log.Named("http.server"),
		scanSvc:     p.ScanSvc,
		quotaSvc:    p.QuotaSvc,
		ledgerSvc:   p.LedgerSvc,
		manifestSvc: p.ManifestSvc,
		userSvc:     p.UserSvc,
		billingSvc:  p.BillingSvc,
		authSvc:     p.AuthSvc,
		metrics:     p.Metrics,
		limiter:     p.Limiter,
	}

	s.registerAPIRoutes()

	return s
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api/v1", auth.IdentityMiddleware(s.authSvc))

	api.POST("/scan", s.ScanRateLimit(), s.HandleScan)
	api.GET("/history", s.ListHistory)
	api.GET("/quota", s.GetQuota)

	api.GET("/inventory", s.ListInventory)
	api.POST("/inventory/import", s.ImportInventory)

	api.POST("/users", s.CreateUser)

	// Webhooks authenticate by provider, not by API token.
	api.POST("/billing/webhooks/:provider", s.HandleBillingWebhook)
}
