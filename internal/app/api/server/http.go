package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/superstar643/PITCHINVEST-sub001/docs"
	"github.com/superstar643/PITCHINVEST-sub001/internal/app/api/handlers"
	mw "github.com/superstar643/PITCHINVEST-sub001/internal/app/api/middleware"
	"github.com/superstar643/PITCHINVEST-sub001/internal/app/service/checkout"
	"github.com/superstar643/PITCHINVEST-sub001/internal/app/service/outbox"
	"github.com/superstar643/PITCHINVEST-sub001/internal/app/service/statistics"
	subsvc "github.com/superstar643/PITCHINVEST-sub001/internal/app/service/subscription"
	"github.com/superstar643/PITCHINVEST-sub001/internal/platform/db"
	cfgpkg "github.com/superstar643/PITCHINVEST-sub001/pkg/config"
	"github.com/superstar643/PITCHINVEST-sub001/pkg/metrics"
)

type routeDeps struct {
	fx.In

	Log      *zap.SugaredLogger
	Cfg      *cfgpkg.Config
	DB       *gorm.DB
	Checkout checkout.Manager
	Sub      *subsvc.Service
	Stats    *statistics.Service
	Outbox   *outbox.Worker
	Prom     *metrics.Prometheus
}

func newEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	// request logger & access log are attached per group in registerRoutes
	r.Use(mw.TraceMiddleware())
	return r
}

func newPrometheus(cfg *cfgpkg.Config, log *zap.SugaredLogger) *metrics.Prometheus {
	if cfg == nil || cfg.MetricsAddr == "" {
		return nil
	}
	return metrics.NewPrometheus(metrics.NewPrometheusOptions{
		ReqCntURLLabelMappingFn: func(c *gin.Context) string {
			if fp := c.FullPath(); fp != "" {
				return fp
			}
			return c.Request.URL.Path
		},
		Logger: log,
	})
}

func registerRoutes(r *gin.Engine, d routeDeps) {
	if d.Prom != nil {
		r.Use(d.Prom.HandlerFunc())
	}
	logged := []gin.HandlerFunc{mw.RequestLoggerMiddleware(d.Log), mw.AccessLogMiddleware(d.Log)}

	pub := r.Group("/")
	pub.Use(logged...)
	handlers.RegisterHealthRoutes(pub, func(ctx context.Context) error { return db.Ping(ctx, d.DB) })
	docs.SwaggerInfo.BasePath = "/"
	pub.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Browser-facing checkout functions.
	fn := r.Group("/functions/v1")
	fn.Use(logged...)
	fn.Use(mw.CORSMiddleware(d.Cfg.CORS.AllowOrigin))
	if d.Cfg.Auth.JWTSecret != "" {
		fn.Use(mw.AuthMiddleware(d.Cfg.Auth.JWTSecret, d.Log))
	} else {
		d.Log.Warnw("auth.jwt_secret is empty, checkout routes are unauthenticated")
	}
	handlers.RegisterCheckoutRoutes(fn, d.Checkout)

	apiV1 := r.Group("/api/v1")
	apiV1.Use(logged...)
	handlers.RegisterAdminRoutes(apiV1.Group("/admin"), d.Sub, d.Stats, d.Outbox)
	handlers.RegisterUserRoutes(apiV1, d.Sub)

	apiV2Payment := r.Group("/api/v2/payment")
	apiV2Payment.Use(logged...)
	handlers.RegisterWebhookRoutes(apiV2Payment, d.Checkout)
}

func runServer(lc fx.Lifecycle, log *zap.SugaredLogger, cfg *cfgpkg.Config, r *gin.Engine) {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting HTTP server", "addr", addr)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Errorf("server error: %v", err)
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Infow("stopping HTTP server")
			shutdownCtx, cancel := context.WithTimeout(ctx, 120*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

func runMetricsServer(lc fx.Lifecycle, log *zap.SugaredLogger, cfg *cfgpkg.Config, p *metrics.Prometheus) {
	if p == nil {
		return
	}
	srv := &http.Server{Addr: cfg.MetricsAddr, Handler: p.Engine(), ReadHeaderTimeout: 5 * time.Second}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("metrics started", "addr", cfg.MetricsAddr, "path", p.MetricsPath)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Errorf("metrics server error: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

var Module = fx.Options(
	fx.Provide(newEngine, newPrometheus),
	fx.Invoke(registerRoutes),
	fx.Invoke(runServer),
	fx.Invoke(runMetricsServer),
)
