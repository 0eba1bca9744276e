package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/rentably/rent-collection/internal"
	"github.com/rentably/rent-collection/internal/auth"
	authpostgres "github.com/rentably/rent-collection/internal/auth/postgres"
	"github.com/rentably/rent-collection/internal/core/events"
	"github.com/rentably/rent-collection/internal/fees"
	"github.com/rentably/rent-collection/internal/landlord"
	landlordpostgres "github.com/rentably/rent-collection/internal/landlord/postgres"
	"github.com/rentably/rent-collection/internal/paymentmethod"
	paymentmethodpostgres "github.com/rentably/rent-collection/internal/paymentmethod/postgres"
	"github.com/rentably/rent-collection/internal/processor"
	"github.com/rentably/rent-collection/internal/rentpayment"
	rentpaymentpostgres "github.com/rentably/rent-collection/internal/rentpayment/postgres"
	"github.com/rentably/rent-collection/internal/settlement"
	tenantpostgres "github.com/rentably/rent-collection/internal/tenant/postgres"
	"github.com/rentably/rent-collection/internal/transport/rest"
	"github.com/rentably/rent-collection/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	DB       *sqlx.DB
	GormDB   *gorm.DB
	Router   *chi.Mux
	Handlers rest.Handlers
	Logger   *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	rest.RegisterAllRoutes(deps.Router, deps.Config, deps.DB.DB, deps.Handlers, deps.Logger)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(os.Getenv("APP_ENV"), config.Observability.Logging.Level)
	lg := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize orm: %w", err)
	}

	handlers := buildHandlers(config, gormDB, lg)

	return &Dependencies{
		Config:   config,
		Logger:   lg,
		DB:       db,
		GormDB:   gormDB,
		Router:   chi.NewRouter(),
		Handlers: handlers,
	}, nil
}

func buildHandlers(config *internal.Config, gormDB *gorm.DB, lg *slog.Logger) rest.Handlers {
	eventBus := events.NewEventBus(lg)
	processorClient := processor.NewClient(config.Processor, lg)
	schedule := fees.NewSchedule(config.Fees)

	authRepo := authpostgres.NewRepository(gormDB)
	tokenGen := auth.NewJWTTokenGenerator(config.Security)
	authService := auth.NewService(authRepo, tokenGen, config.Security.BCryptCost)

	tenantRepo := tenantpostgres.NewTenantRepository(gormDB)
	gate := auth.NewGate(authService, tenantRepo, lg)

	landlordRepo := landlordpostgres.NewLandlordRepository(gormDB)
	landlordService := landlord.NewService(landlordRepo, lg)

	methodRepo := paymentmethodpostgres.NewPaymentMethodRepository(gormDB)
	methodService := paymentmethod.NewService(methodRepo, processorClient, tenantRepo, gate, lg)

	paymentRepo := rentpaymentpostgres.NewRentPaymentRepository(gormDB)
	ledger := rentpayment.NewService(paymentRepo, gate, methodService, schedule, eventBus, lg)

	coordinator := settlement.NewCoordinator(ledger, processorClient, methodService, lg)

	return rest.Handlers{
		Auth:          auth.NewHandler(authService),
		Landlord:      landlord.NewHandler(landlordService),
		PaymentMethod: paymentmethod.NewHandler(methodService),
		RentPayment:   rentpayment.NewHandler(ledger, coordinator),
		Webhook:       settlement.NewWebhookHandler(coordinator, config.Processor.WebhookSecret),
	}
}

// initDB opens the shared pgx-backed connection pool.
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
