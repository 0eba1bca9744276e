package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/rentably/rent-collection/internal/auth"
	authpostgres "github.com/rentably/rent-collection/internal/auth/postgres"
	"github.com/rentably/rent-collection/internal/core/events"
	"github.com/rentably/rent-collection/internal/fees"
	"github.com/rentably/rent-collection/internal/paymentmethod"
	paymentmethodpostgres "github.com/rentably/rent-collection/internal/paymentmethod/postgres"
	"github.com/rentably/rent-collection/internal/processor"
	"github.com/rentably/rent-collection/internal/reconcile"
	"github.com/rentably/rent-collection/internal/rentpayment"
	rentpaymentpostgres "github.com/rentably/rent-collection/internal/rentpayment/postgres"
	tenantpostgres "github.com/rentably/rent-collection/internal/tenant/postgres"
	"github.com/rentably/rent-collection/pkg/logger"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
	Long:  `Start background workers: the reconciliation sweep for stale pending payments and the settlement event consumer.`,
}

var reconcileWorkerCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Start the reconciliation sweeper",
	Long:  `Periodically resolve rent payments stuck in pending against the processor's record.`,
	Run: func(cmd *cobra.Command, args []string) {
		startReconcileWorker()
	},
}

var eventWorkerCmd = &cobra.Command{
	Use:   "events",
	Short: "Start the settlement event consumer",
	Long:  `Consume ledger lifecycle events for notification fan-out.`,
	Run: func(cmd *cobra.Command, args []string) {
		startEventWorker()
	},
}

var (
	sweepInterval time.Duration
	pendingAge    time.Duration
	batchSize     int
	maxWorkers    int
)

func startReconcileWorker() {
	config, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(os.Getenv("APP_ENV"), config.Observability.Logging.Level)
	lg := logger.LoggerWrapper()

	sqlxDB, err := initDB(config.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize database: %v\n", err)
		os.Exit(1)
	}

	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: sqlxDB.DB}), &gorm.Config{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize orm: %v\n", err)
		os.Exit(1)
	}

	reconcileCfg := config.Reconcile
	if sweepInterval > 0 {
		reconcileCfg.Interval = sweepInterval
	}
	if pendingAge > 0 {
		reconcileCfg.PendingAge = pendingAge
	}
	if batchSize > 0 {
		reconcileCfg.BatchSize = batchSize
	}
	if maxWorkers > 0 {
		reconcileCfg.MaxWorkers = maxWorkers
	}

	eventBus := events.NewEventBus(lg)
	processorClient := processor.NewClient(config.Processor, lg)
	schedule := fees.NewSchedule(config.Fees)

	authRepo := authpostgres.NewRepository(gormDB)
	tokenGen := auth.NewJWTTokenGenerator(config.Security)
	authService := auth.NewService(authRepo, tokenGen, config.Security.BCryptCost)
	tenantRepo := tenantpostgres.NewTenantRepository(gormDB)
	gate := auth.NewGate(authService, tenantRepo, lg)

	methodRepo := paymentmethodpostgres.NewPaymentMethodRepository(gormDB)
	methodService := paymentmethod.NewService(methodRepo, processorClient, tenantRepo, gate, lg)

	paymentRepo := rentpaymentpostgres.NewRentPaymentRepository(gormDB)
	ledger := rentpayment.NewService(paymentRepo, gate, methodService, schedule, eventBus, lg)

	sweeper := reconcile.NewSweeper(reconcileCfg, ledger, processorClient, lg)
	sweeper.Start()

	lg.Info("reconciliation worker is running. Press Ctrl+C to stop.")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	lg.Info("received signal, shutting down reconciliation worker", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	shutdownDone := make(chan struct{})
	go func() {
		sweeper.Shutdown()
		close(shutdownDone)
	}()

	select {
	case <-shutdownDone:
		lg.Info("reconciliation worker shutdown complete")
	case <-ctx.Done():
		lg.Warn("shutdown timeout reached, forcing exit")
	}
}

func startEventWorker() {
	config, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(os.Getenv("APP_ENV"), config.Observability.Logging.Level)
	lg := logger.LoggerWrapper()

	eventBus := events.NewEventBus(lg)

	// Notification fan-out is not built yet; the consumer records every
	// lifecycle event so operators can tail settlements in the log.
	for _, eventType := range []string{
		events.EventTypeRentPaymentSettled,
		events.EventTypeRentPaymentReturned,
		events.EventTypeRentPaymentFailed,
	} {
		eventBus.Subscribe(eventType, func(ctx context.Context, event events.Event) error {
			lg.Info("settlement lifecycle event",
				"event_id", event.EventID(),
				"event_type", event.EventType(),
				"payload", event.Payload())
			return nil
		})
	}

	lg.Info("event worker is running. Press Ctrl+C to stop.")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	lg.Info("received signal, shutting down event worker", "signal", sig)
	lg.Info("event worker shutdown complete")
}

func init() {
	reconcileWorkerCmd.Flags().DurationVar(&sweepInterval, "interval", 0, "Sweep interval (overrides config)")
	reconcileWorkerCmd.Flags().DurationVar(&pendingAge, "pending-age", 0, "Age before a pending payment is considered stale (overrides config)")
	reconcileWorkerCmd.Flags().IntVar(&batchSize, "batch-size", 0, "Stale payments per sweep (overrides config)")
	reconcileWorkerCmd.Flags().IntVar(&maxWorkers, "max-workers", 0, "Resolution workers (overrides config)")

	workerCmd.AddCommand(reconcileWorkerCmd)
	workerCmd.AddCommand(eventWorkerCmd)

	rootCmd.AddCommand(workerCmd)
}
