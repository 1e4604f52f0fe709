package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/faceflowai/ledger/docs"
	"github.com/faceflowai/ledger/internal/app/api/handlers"
	mw "github.com/faceflowai/ledger/internal/app/api/middleware"
	checkoutsvc "github.com/faceflowai/ledger/internal/app/service/checkout"
	ledgersvc "github.com/faceflowai/ledger/internal/app/service/ledger"
	"github.com/faceflowai/ledger/internal/app/service/paymentevent"
	"github.com/faceflowai/ledger/internal/app/service/statistics"
	cfgpkg "github.com/faceflowai/ledger/pkg/config"
	"github.com/faceflowai/ledger/pkg/metrics"
)

func newEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	// Add request tracing middleware only; request logger & access log are attached per group in registerRoutes
	r.Use(mw.TraceMiddleware())
	return r
}

func registerRoutes(
	r *gin.Engine,
	log *zap.SugaredLogger,
	cfg *cfgpkg.Config,
	exporter *metrics.Exporter,
	ledger *ledgersvc.Service,
	checkout *checkoutsvc.Service,
	webhook *paymentevent.Handler,
	stats *statistics.Service,
) {
	// Prometheus metrics on a dedicated listener
	if cfg.MetricsAddr != "" {
		r.Use(exporter.Middleware())
		exporter.Serve(cfg.MetricsAddr)
		log.Infow("metrics started", "addr", cfg.MetricsAddr)
	}

	// Public group: request logger + access log
	pub := r.Group("/")
	pub.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware())
	handlers.RegisterHealthRoutes(pub)
	// Swagger UI
	docs.SwaggerInfo.BasePath = "/"
	pub.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Webhook: signature-verified, never bearer-authenticated
	pub.POST("/api/v1/webhook/stripe", handlers.ApiStripeWebhook(webhook, exporter))

	// User-facing group behind JWT auth
	apiV1 := r.Group("/api/v1")
	apiV1.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware(), mw.AuthMiddleware(cfg))
	apiV1.POST("/consume", handlers.ApiConsume(ledger, exporter))
	apiV1.GET("/account", handlers.ApiGetAccount(ledger))
	apiV1.GET("/credits", handlers.ApiGetCredits(ledger))
	apiV1.GET("/catalog", handlers.ApiGetCatalog(cfg))
	apiV1.POST("/checkout", handlers.ApiStartCheckout(checkout))
	apiV1.POST("/billing/portal", handlers.ApiBillingPortal(checkout))

	// Admin group behind the static token
	admin := r.Group("/api/v1/admin")
	admin.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware(), mw.AdminMiddleware(cfg))
	handlers.RegisterAdminRoutes(admin, ledger, stats)
}

func runServer(lc fx.Lifecycle, log *zap.SugaredLogger, cfg *cfgpkg.Config, r *gin.Engine) {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting HTTP server", "addr", addr)
			go func() {
				if err := srv.ListenAndServe(); err != nil {
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

var Module = fx.Options(
	fx.Provide(newEngine),
	fx.Provide(metrics.NewExporter),
	fx.Invoke(registerRoutes),
	fx.Invoke(runServer),
)
