package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/pos-api/internal/application/accounting"
	"github.com/jhoicas/pos-api/internal/application/billing"
	"github.com/jhoicas/pos-api/internal/application/catalog"
	"github.com/jhoicas/pos-api/internal/application/inventory"
	"github.com/jhoicas/pos-api/internal/application/ledger"
	"github.com/jhoicas/pos-api/internal/application/order"
	"github.com/jhoicas/pos-api/internal/application/ports"
	"github.com/jhoicas/pos-api/internal/application/returns"
	"github.com/jhoicas/pos-api/internal/domain/repository"
	"github.com/jhoicas/pos-api/internal/infrastructure/memory"
	"github.com/jhoicas/pos-api/internal/infrastructure/metrics"
	"github.com/jhoicas/pos-api/internal/infrastructure/notify"
	infrapdf "github.com/jhoicas/pos-api/internal/infrastructure/pdf"
	"github.com/jhoicas/pos-api/internal/infrastructure/postgres"
	infraredis "github.com/jhoicas/pos-api/internal/infrastructure/redis"
	"github.com/jhoicas/pos-api/internal/infrastructure/xlsx"
	httpRouter "github.com/jhoicas/pos-api/internal/interfaces/http"
	"github.com/jhoicas/pos-api/pkg/config"
	"github.com/jhoicas/pos-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.App.Store).
		Msg("iniciando aplicación")

	ctx := context.Background()

	var (
		tx    repository.TxRunner
		repos repository.Repositories
	)
	switch cfg.App.Store {
	case config.StoreMemory:
		store := memory.NewStore()
		tx, repos = store, store.Repositories()
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
	default:
		if cfg.DB.AutoMigrate {
			mg, err := postgres.NewMigrator(cfg.DB, log.Component("migrate"))
			if err != nil {
				log.Fatal().Err(err).Msg("preparar migraciones")
			}
			if err := mg.Up(); err != nil {
				log.Fatal().Err(err).Msg("aplicar migraciones")
			}
			if err := mg.Close(); err != nil {
				log.Warn().Err(err).Msg("cerrar migrador")
			}
		}
		pool, err := postgres.NewPool(ctx, cfg.DB, log.Component("postgres"))
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		tx, repos = postgres.NewTxRunner(pool), postgres.Repositories(pool)
	}

	// Redis es opcional: lock por cliente y canal de avisos de stock bajo.
	var (
		locker   ports.CustomerLocker   = ports.NopLocker{}
		notifier ports.LowStockNotifier = notify.NewLogNotifier(log.Component("alerts"))
	)
	if cfg.Redis.Enabled() {
		rdb, err := infraredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis no disponible, se continúa sin él")
		} else {
			defer rdb.Close()
			locker = infraredis.NewCustomerLocker(rdb, 0, 0, log.Component("locker"))
			notifier = infraredis.NewAlertPublisher(rdb, 0, log.Component("alerts"))
		}
	}
	notifier = notify.NewRateLimited(notifier, cfg.POS.AlertRatePerMinute)

	promMetrics := metrics.New()

	ledgerSvc := ledger.NewService(tx, repos, locker, xlsx.NewStatementExporter(), log.Component("ledger"))
	accountingSvc := accounting.NewService(repos, log.Component("accounting"))
	inventorySvc := inventory.NewService(tx, notifier, promMetrics, cfg.POS.AlertTimeout, log.Component("inventory"))
	invoiceSvc := billing.NewInvoiceService(
		tx, repos, ledgerSvc, accountingSvc,
		infrapdf.NewInvoiceRenderer(cfg.App.Name),
		promMetrics, cfg.POS.InvoiceDueDays,
		log.Component("billing"),
	)
	customerSvc := billing.NewCustomerService(tx, repos, cfg.POS.PhoneRegion)
	orderSvc := order.NewService(
		tx, repos, customerSvc, inventorySvc, invoiceSvc, ledgerSvc, accountingSvc,
		promMetrics, log.Component("orders"),
	)
	returnSvc := returns.NewService(
		tx, repos, inventorySvc, invoiceSvc, ledgerSvc, accountingSvc,
		promMetrics, cfg.POS.ReturnWindow, log.Component("returns"),
	)
	catalogSvc := catalog.NewService(repos, inventorySvc)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: cfg.HTTP.RequestTimeout + 5*time.Second,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "POS API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Orders:         orderSvc,
		Returns:        returnSvc,
		Invoices:       invoiceSvc,
		Customers:      customerSvc,
		Ledger:         ledgerSvc,
		Accounting:     accountingSvc,
		Catalog:        catalogSvc,
		Metrics:        promMetrics.Handler(),
		JWTSecret:      cfg.JWT.Secret,
		RequestTimeout: cfg.HTTP.RequestTimeout,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
