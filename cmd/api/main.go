package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/erp-backend-go/internal/config"
	"github.com/cmlabs-hris/erp-backend-go/internal/domain/auth"
	appHTTP "github.com/cmlabs-hris/erp-backend-go/internal/handler/http"
	"github.com/cmlabs-hris/erp-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/erp-backend-go/internal/pkg/dedup"
	"github.com/cmlabs-hris/erp-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/erp-backend-go/internal/pkg/metrics"
	"github.com/cmlabs-hris/erp-backend-go/internal/repository/postgresql"
	serviceAuth "github.com/cmlabs-hris/erp-backend-go/internal/service/auth"
	commissionService "github.com/cmlabs-hris/erp-backend-go/internal/service/commission"
	salesService "github.com/cmlabs-hris/erp-backend-go/internal/service/sales"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	logger := appHTTP.NewLogger(os.Stdout, cfg.SlogLevel(),
		slog.String("app", "cmlabs-erp"),
		slog.String("version", "v1.0.0"),
		slog.String("env", cfg.App.Env),
	)
	slog.SetDefault(logger)

	db, err := database.NewPostgreSQLDB(cfg.DatabaseURL(), database.PoolConfig{
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		logger.Error("Error connecting to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(context.Background()); err != nil {
		logger.Error("Error applying schema", slog.Any("error", err))
		os.Exit(1)
	}

	metrics.Init()

	userRepo := postgresql.NewUserRepository(db)
	salesRecordRepo := postgresql.NewSalesRecordRepository(db)
	salesClientRepo := postgresql.NewSalesClientRepository(db)
	miscRepo := postgresql.NewMiscCommissionRepository(db)
	statementRepo := postgresql.NewCommissionStatementRepository(db)
	transactor := postgresql.NewTransactor(db)

	JWTService, err := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	if err != nil {
		logger.Error("Error configuring JWT", slog.Any("error", err))
		os.Exit(1)
	}

	gate := commissionService.NewConfirmationGate(statementRepo, logger)
	authService := serviceAuth.NewAuthService(userRepo, JWTService, logger)
	commissionSvc := commissionService.NewCommissionService(
		transactor,
		statementRepo,
		miscRepo,
		salesRecordRepo,
		salesClientRepo,
		userRepo,
		gate,
		cfg.Commission.DefaultRate,
		logger,
	)
	salesSvc := salesService.NewSalesService(
		transactor,
		salesRecordRepo,
		salesClientRepo,
		userRepo,
		gate,
		dedup.NewNormalizer(cfg.Commission.PhoneRegion),
		logger,
	)

	if cfg.Bootstrap.Enabled() {
		err := authService.EnsureOwner(context.Background(), auth.BootstrapOwnerRequest{
			Email:    cfg.Bootstrap.OwnerEmail,
			Name:     cfg.Bootstrap.OwnerName,
			Password: cfg.Bootstrap.OwnerPassword,
		})
		if err != nil {
			logger.Error("Error creating bootstrap owner", slog.Any("error", err))
			os.Exit(1)
		}
	}

	authHandler := appHTTP.NewAuthHandler(authService)
	commissionHandler := appHTTP.NewCommissionHandler(commissionSvc)
	salesHandler := appHTTP.NewSalesHandler(salesSvc)

	router := appHTTP.NewRouter(
		appHTTP.RouterConfig{
			AllowedOrigins: cfg.App.AllowedOrigins,
			Logger:         logger,
			LogLevel:       cfg.SlogLevel(),
		},
		JWTService,
		authHandler,
		commissionHandler,
		salesHandler,
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("Server running", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", slog.Any("error", err))
	}
}
