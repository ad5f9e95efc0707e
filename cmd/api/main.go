package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ledgerline/crm-api/docs"
	"github.com/ledgerline/crm-api/internal/auth"
	"github.com/ledgerline/crm-api/internal/cache"
	"github.com/ledgerline/crm-api/internal/config"
	"github.com/ledgerline/crm-api/internal/database"
	"github.com/ledgerline/crm-api/internal/datawarehouse"
	"github.com/ledgerline/crm-api/internal/http/handler"
	"github.com/ledgerline/crm-api/internal/http/middleware"
	"github.com/ledgerline/crm-api/internal/http/router"
	"github.com/ledgerline/crm-api/internal/jobs"
	"github.com/ledgerline/crm-api/internal/logger"
	"github.com/ledgerline/crm-api/internal/repository"
	"github.com/ledgerline/crm-api/internal/service"
	"github.com/ledgerline/crm-api/internal/storage"
	"github.com/ledgerline/crm-api/internal/tracing"
	"go.uber.org/zap"
)

// @title Ledgerline CRM API
// @version 1.0
// @description Multi-tenant CRM API for clients, leads, vendors, requirements, quotes, sales orders, expenses and users
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@ledgerline.io

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Session token from /auth/signin

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name x-api-key
// @description API Key for system operations
// @Security BearerAuth
// @Security ApiKeyAuth

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load basic configuration first (for logging setup)
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	if basicCfg.App.Environment == "development" {
		docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", basicCfg.App.Port)
	} else {
		docs.SwaggerInfo.Host = ""
	}

	// In development secrets come from the environment,
	// in staging/production from Azure Key Vault when enabled
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}
	if cfg.Auth.JWTSecret == "" {
		return errors.New("auth.jwtSecret (JWT_SECRET) is required")
	}

	shutdownTracing, err := tracing.Init(ctx, &cfg.Tracing, cfg.App.Environment, log)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}

	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	responseCache, closeCache, err := cache.New(&cfg.Cache, log)
	if err != nil {
		return fmt.Errorf("failed to initialize response cache: %w", err)
	}
	log.Info("Response cache initialized",
		zap.String("backend", cfg.Cache.Backend),
		zap.Duration("ttl", cfg.Cache.TTLDuration()),
	)

	fileStorage, err := storage.NewStorage(&cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	log.Info("Storage initialized", zap.String("mode", cfg.Storage.Mode))

	// The ERP warehouse is optional; vendor import candidates answer 503 without it
	var dwClient *datawarehouse.Client
	if cfg.DataWarehouse.Enabled {
		dwClient, err = datawarehouse.NewClient(&cfg.DataWarehouse, log)
		if err != nil {
			log.Warn("Data warehouse connection failed, continuing without it", zap.Error(err))
			dwClient = nil
		} else if dwClient != nil {
			log.Info("Data warehouse connected successfully",
				zap.Int("max_open_conns", cfg.DataWarehouse.MaxOpenConns),
				zap.Int("query_timeout_seconds", cfg.DataWarehouse.QueryTimeout),
			)
		}
	} else {
		log.Info("Data warehouse not configured, skipping")
	}

	// Repositories
	codeSequenceRepo := repository.NewCodeSequenceRepository(db)
	clientRepo := repository.NewClientRepository(db)
	leadRepo := repository.NewLeadRepository(db)
	vendorRepo := repository.NewVendorRepository(db)
	requirementRepo := repository.NewRequirementRepository(db)
	quoteRepo := repository.NewQuoteRepository(db)
	salesOrderRepo := repository.NewSalesOrderRepository(db)
	expenseRepo := repository.NewExpenseRepository(db)
	userRepo := repository.NewUserRepository(db)

	// Services
	codes := service.NewCodeGenerator(codeSequenceRepo, service.CodeStrategy(cfg.Codes.Strategy), log)
	log.Info("Code generator initialized", zap.String("strategy", string(codes.Strategy())))

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTLDuration())
	receiptService := service.NewReceiptService(fileStorage, cfg.Storage.MaxUploadSizeMB<<20, log)

	clientService := service.NewClientService(clientRepo, codes, log).WithMaxAttempts(cfg.Codes.MaxCreateAttempts)
	leadService := service.NewLeadService(leadRepo, log)
	vendorService := service.NewVendorService(vendorRepo, codes, dwClient, log)
	vendorService.WithMaxAttempts(cfg.Codes.MaxCreateAttempts)
	requirementService := service.NewRequirementService(requirementRepo, log)
	quoteService := service.NewQuoteService(quoteRepo, codes, log).WithMaxAttempts(cfg.Codes.MaxCreateAttempts)
	salesOrderService := service.NewSalesOrderService(salesOrderRepo, codes, log).WithMaxAttempts(cfg.Codes.MaxCreateAttempts)
	expenseService := service.NewExpenseService(expenseRepo, receiptService, log)
	userService := service.NewUserService(userRepo, cfg.Auth.BcryptCost, log)
	authService := service.NewAuthService(userRepo, tokens, log)

	// Middleware
	authMiddleware := auth.NewMiddleware(&cfg.Auth, tokens, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	// Handlers
	cacheControl := cfg.Cache.CacheControl()
	handlers := router.Handlers{
		Auth:         handler.NewAuthHandler(authService, log),
		Clients:      handler.NewClientHandler(clientService, responseCache, cacheControl, log),
		Leads:        handler.NewLeadHandler(leadService, responseCache, cacheControl, log),
		Vendors:      handler.NewVendorHandler(vendorService, responseCache, cacheControl, log),
		Requirements: handler.NewRequirementHandler(requirementService, responseCache, cacheControl, log),
		Quotes:       handler.NewQuoteHandler(quoteService, responseCache, cacheControl, log),
		SalesOrders:  handler.NewSalesOrderHandler(salesOrderService, responseCache, cacheControl, log),
		Expenses:     handler.NewExpenseHandler(expenseService, receiptService, responseCache, cacheControl, log),
		Users:        handler.NewUserHandler(userService, responseCache, cacheControl, log),
	}

	rt := router.NewRouter(cfg, log, db, authMiddleware, rateLimiter, handlers)
	if pinger, ok := cache.Unwrap(responseCache).(router.Pinger); ok {
		rt.AddReadinessCheck("cache", pinger)
	}
	if dwClient != nil {
		rt.AddReadinessCheck("data_warehouse", dwClient)
	}

	var scheduler *jobs.Scheduler
	if cfg.Jobs.Enabled {
		scheduler = jobs.NewScheduler(log, cfg.Jobs.JobTimeout())
		reconcileCron := cfg.Jobs.SequenceReconcile
		if codes.Strategy() != service.CodeStrategySequence {
			reconcileCron = ""
		}
		if err := jobs.RegisterMaintenanceJobs(
			scheduler,
			reconcileCron,
			cfg.Jobs.CacheSweep,
			responseCache,
			log,
			clientService, vendorService, quoteService, salesOrderService,
		); err != nil {
			log.Error("Failed to register maintenance jobs", zap.Error(err))
		} else {
			scheduler.Start()
			log.Info("Scheduler started", zap.Strings("jobs", scheduler.GetJobNames()))
		}
	} else {
		log.Info("Background jobs disabled")
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		if scheduler != nil {
			<-scheduler.Stop().Done()
			log.Info("Scheduler stopped")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		if err := closeCache(); err != nil {
			log.Warn("Error closing response cache", zap.Error(err))
		}
		if dwClient != nil {
			if err := dwClient.Close(); err != nil {
				log.Warn("Error closing data warehouse connection", zap.Error(err))
			}
		}
		if err := shutdownTracing(ctx); err != nil {
			log.Warn("Error flushing traces", zap.Error(err))
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
