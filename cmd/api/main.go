package main

import (
	"context"
	"errors"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	appanalytics "github.com/jhoicas/slipstream/internal/application/analytics"
	"github.com/jhoicas/slipstream/internal/application/billing"
	"github.com/jhoicas/slipstream/internal/application/reconcile"
	"github.com/jhoicas/slipstream/internal/infrastructure/cache"
	"github.com/jhoicas/slipstream/internal/infrastructure/idgen"
	"github.com/jhoicas/slipstream/internal/infrastructure/metrics"
	infrapdf "github.com/jhoicas/slipstream/internal/infrastructure/pdf"
	"github.com/jhoicas/slipstream/internal/infrastructure/postgres"
	"github.com/jhoicas/slipstream/internal/infrastructure/qr"
	"github.com/jhoicas/slipstream/internal/infrastructure/yodl"
	httpRouter "github.com/jhoicas/slipstream/internal/interfaces/http"
	"github.com/jhoicas/slipstream/pkg/config"
	"github.com/jhoicas/slipstream/pkg/jwt"
	"github.com/jhoicas/slipstream/pkg/logger"
)

const swaggerFile = "./docs/swagger.json"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.Log.Level,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("base_url", cfg.App.BaseURL).
		Msg("iniciando aplicación")

	ctx := context.Background()
	baseURL, err := url.Parse(cfg.App.BaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("APP_BASE_URL inválida")
	}

	appMetrics := metrics.New(prometheus.DefaultRegisterer, metrics.Config{
		ServiceName: cfg.App.Name,
		Environment: cfg.App.Env,
	})

	// Caché de preferencias: Redis si está configurado, si no en memoria.
	var prefsCache cache.Cache[billing.Preferences] = cache.NewTTLCache[billing.Preferences]()
	if cfg.Redis.URL != "" {
		rdb, err := cache.Connect(ctx, cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer rdb.Close()
		prefsCache = cache.NewRedisCache[billing.Preferences](rdb, "slipstream:")
	}

	yodlClient, err := yodl.NewClient(yodl.Config{
		APIURL:         cfg.Yodl.APIURL,
		PaymentTimeout: cfg.Yodl.PaymentTimeout,
		PreferencesTTL: cfg.Redis.PreferencesTTL,
	},
		yodl.WithPreferencesCache(prefsCache),
		yodl.WithObserver(appMetrics),
		yodl.WithLogger(log.Zerolog()),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("cliente del proveedor de pagos")
	}

	// Sin clave pública todas las identidades quedan como no verificadas.
	var verifier *jwt.Verifier
	if cfg.Yodl.PublicKey != "" {
		verifier, err = jwt.NewVerifier(cfg.Yodl.PublicKey, cfg.Yodl.ENSName)
		if err != nil {
			log.Fatal().Err(err).Msg("clave pública del proveedor")
		}
	} else {
		log.Warn().Msg("YODL_PUBLIC_KEY vacío: los tokens del proveedor no se verifican")
	}

	reconciler := reconcile.NewReconciler(reconcile.SystemClock{}, reconcile.NewOriginGuard(cfg.Yodl.Origin),
		reconcile.WithRecorder(appMetrics),
		reconcile.WithLogger(log.Component("reconcile")),
	)
	sessions := reconcile.NewRegistry(reconciler, reconcile.SystemClock{}, reconcile.Timings{
		OverlayClose: cfg.Reconcile.OverlayClose,
		Reload:       cfg.Reconcile.Reload,
	}, log.Component("session"),
		reconcile.WithIdleTTL(cfg.Reconcile.SessionIdle),
		reconcile.WithMaxSessions(cfg.Reconcile.MaxSessions),
	)
	appMetrics.RegisterOpenSessions(sessions.Len)

	pdfUC, err := billing.NewPDFUseCase(infrapdf.NewMarotoPDFGenerator(), qr.NewGenerator(), cfg.App.BaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("generador de PDF")
	}

	deps := httpRouter.RouterDeps{
		Editor:        billing.NewEditorUseCase(),
		View:          billing.NewViewUseCase(reconciler),
		Link:          billing.NewPaymentLinkBuilder(cfg.Yodl.PayURL),
		Payment:       billing.NewPaymentUseCase(yodlClient, log.Component("payment")),
		PDF:           pdfUC,
		Identity:      billing.NewIdentityUseCase(verifier, yodlClient),
		Sessions:      sessions,
		TrustedOrigin: cfg.Yodl.Origin,
		BaseURL:       baseURL,
		Ready:         yodlClient.Health,
		Metrics:       promhttp.Handler(),
		Log:           log.Zerolog(),
	}

	// Persistencia opcional de facturas por short id.
	if cfg.DB.Enabled {
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("esquema de PostgreSQL")
		}
		ids, err := idgen.NewSnowflake(cfg.App.NodeID)
		if err != nil {
			log.Fatal().Err(err).Msg("generador de short ids")
		}
		invoiceRepo := postgres.NewInvoiceRepository(pool)
		deps.Stored = billing.NewStoredInvoiceUseCase(invoiceRepo, ids)
		deps.Dashboard = appanalytics.NewDashboardUseCase(invoiceRepo)
		deps.Ready = func(ctx context.Context) error {
			return errors.Join(yodlClient.Health(ctx), pool.Ping(ctx))
		}
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		// /api/invoices/pay espera la confirmación del usuario hasta YODL_PAYMENT_TIMEOUT_SECONDS.
		WriteTimeout: cfg.Yodl.PaymentTimeout + 10*time.Second,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Slipstream API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, deps)

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
	// Desmonta las sesiones: listeners y timers pendientes.
	sessions.CloseAll()

	log.Info().Msg("aplicación detenida")
}
