package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/marketplace-api/internal/application/finance"
	"github.com/jhoicas/marketplace-api/internal/application/inventory"
	"github.com/jhoicas/marketplace-api/internal/application/order"
	"github.com/jhoicas/marketplace-api/internal/application/ports"
	"github.com/jhoicas/marketplace-api/internal/application/shift"
	"github.com/jhoicas/marketplace-api/internal/infrastructure/memory"
	"github.com/jhoicas/marketplace-api/internal/infrastructure/messaging"
	"github.com/jhoicas/marketplace-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/marketplace-api/internal/interfaces/http"
	"github.com/jhoicas/marketplace-api/pkg/config"
	"github.com/jhoicas/marketplace-api/pkg/kafka"
	"github.com/jhoicas/marketplace-api/pkg/logger"
	"github.com/jhoicas/marketplace-api/pkg/metrics"
	"github.com/jhoicas/marketplace-api/pkg/outbox"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("db_driver", cfg.DB.Driver).
		Bool("kafka", cfg.Kafka.Enabled()).
		Msg("iniciando aplicación")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.NewServerMetrics("api")

	// Persistencia: postgres (pgx) o memoria para desarrollo local.
	var (
		txRunner    ports.TxRunner
		outboxStore outbox.Store
	)
	switch cfg.DB.Driver {
	case "memory":
		txRunner = memory.NewStore()
		outboxStore = memory.NewOutboxStore()
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		if err := postgres.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("migraciones")
		}
		txRunner = postgres.NewTxRunner(pool, m)
		outboxStore = postgres.NewOutboxRepository(pool)
	}

	// Eventos: sin brokers solo se registran en el log. Con postgres pasan por el outbox y el relay;
	// en memoria se publican directo.
	var events ports.EventSink = messaging.NewLogSink(m, log.Component("events"))
	client := kafka.NewClient(cfg.Kafka.Brokers, cfg.Kafka.TopicPrefix)
	if client.Enabled() {
		writer, err := client.NewWriter()
		if err != nil {
			log.Fatal().Err(err).Msg("writer de Kafka")
		}
		defer func() {
			if err := writer.Close(); err != nil {
				log.Error().Err(err).Msg("cerrar writer de Kafka")
			}
		}()
		if cfg.DB.Driver == "memory" {
			events = messaging.NewKafkaSink(client, writer, m, log.Component("events"))
		} else {
			events = messaging.NewOutboxSink(outboxStore, client, m)
			relay := messaging.NewRelay(outboxStore, writer, messaging.RelayConfig{
				Interval:  time.Duration(cfg.Kafka.OutboxPollInterval) * time.Millisecond,
				BatchSize: cfg.Kafka.OutboxBatchSize,
			}, m, log.Component("outbox"))
			go relay.Run(ctx)
		}
	}

	zl := log.Zerolog()
	ledger := inventory.NewStockLedger()
	shiftUC := shift.NewUseCase(txRunner, events, zl, shift.Config{MaxEvents: cfg.Shifts.MaxEvents})
	inventoryUC := inventory.NewUseCase(txRunner, events, ledger, zl, inventory.Config{})
	financeUC := finance.NewUseCase(txRunner, events, zl, finance.Config{})
	orderUC := order.NewUseCase(txRunner, events, ledger, financeUC, zl, order.Config{
		MinWeightDifferencePercentage: cfg.Orders.MinWeightDifferencePercentage,
		SystemTaxRate:                 cfg.Orders.SystemTaxRate,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	httpRouter.Router(app, httpRouter.RouterDeps{
		ShiftUC:     shiftUC,
		InventoryUC: inventoryUC,
		OrderUC:     orderUC,
		FinanceUC:   financeUC,
		Metrics:     m,
		Log:         log.Component("http"),
		ServiceName: cfg.App.Name,
		JWTSecret:   cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
