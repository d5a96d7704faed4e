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

	"go.uber.org/zap"

	"depot-backend/internal/auth"
	"depot-backend/internal/cache"
	"depot-backend/internal/config"
	"depot-backend/internal/database"
	"depot-backend/internal/db"
	"depot-backend/internal/handlers"
	"depot-backend/internal/health"
	httpapi "depot-backend/internal/http"
	"depot-backend/internal/logger"
	"depot-backend/internal/middleware"
	"depot-backend/internal/realtime"
	"depot-backend/internal/repositories"
	"depot-backend/internal/services"
	"depot-backend/internal/storage"
	"depot-backend/internal/timeutil"
	"depot-backend/migrations"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "depot-backend: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(logger.Config{
		Development: cfg.IsDevelopment(),
		Level:       cfg.Log.Level,
		Encoding:    cfg.Log.Encoding,
	})
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer log.Sync()

	if err := timeutil.SetZone(cfg.Business.Timezone); err != nil {
		log.Warn("unknown business timezone, using UTC", zap.String("timezone", cfg.Business.Timezone))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()
	log.Info("database connected", zap.String("host", cfg.Database.Host), zap.String("name", cfg.Database.Name))

	migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	applied, err := database.NewMigrator(pool, migrations.FS, log).RunMigrations(migrateCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	log.Info("migrations complete", zap.Int("applied", applied))

	// Redis is optional; every cache call degrades to a no-op without it
	if err := cache.Init(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB); err != nil {
		log.Warn("cache unavailable", zap.Error(err))
	} else {
		log.Info("cache connected", zap.String("addr", cfg.Redis.Addr))
	}
	defer cache.Close()

	images, err := storage.NewS3Store(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	if !images.Enabled() {
		log.Info("image storage disabled, receivable uploads will be refused")
	}

	hub := realtime.NewHub(log)
	go hub.Run(ctx)

	jwtManager := auth.NewJWTManager(cfg)

	// Repositories
	userRepo := repositories.NewUserRepository(pool)
	customerRepo := repositories.NewCustomerRepository(pool)
	customerTypeRepo := repositories.NewCustomerTypeRepository(pool)
	productRepo := repositories.NewProductRepository(pool)
	orderRepo := repositories.NewOrderRepository(pool)
	warehouseRepo := repositories.NewWarehouseOrderRepository(pool)
	emptiesRepo := repositories.NewEmptiesRepository(pool)
	inventoryRepo := repositories.NewInventoryRepository(pool)
	requestLogRepo := repositories.NewRequestLogRepository(pool)

	// Services
	business := services.Business{Name: cfg.Business.Name, CurrencySymbol: cfg.Business.CurrencySymbol}
	userService := services.NewUserService(userRepo, requestLogRepo, jwtManager, cfg.Business.Name)
	customerService := services.NewCustomerService(customerRepo, customerTypeRepo)
	productService := services.NewProductService(productRepo)
	orderService := services.NewOrderService(pool, orderRepo, warehouseRepo, customerRepo, productRepo, emptiesRepo, hub, log)
	emptiesService := services.NewEmptiesService(pool, emptiesRepo, customerRepo, productRepo)
	inventoryService := services.NewInventoryService(pool, inventoryRepo, productRepo, images, log)
	reportService := services.NewReportService(inventoryRepo, orderService, business)
	dashboardService := services.NewDashboardService(orderRepo, warehouseRepo, productRepo, customerRepo)
	paymentService := services.NewPaymentService(orderRepo, cfg.Payments.KeyID, cfg.Payments.KeySecret, cfg.Payments.Currency, log)
	if !paymentService.Enabled() {
		log.Info("online payments disabled, gateway keys not set")
	}

	authMiddleware := middleware.NewAuthMiddleware(jwtManager, userRepo)
	router := httpapi.NewRouter(httpapi.Handlers{
		Auth:      handlers.NewAuthHandler(userService, !cfg.IsDevelopment(), log),
		Users:     handlers.NewUserHandler(userService, log),
		Customers: handlers.NewCustomerHandler(customerService, log),
		Products:  handlers.NewProductHandler(productService, log),
		Empties:   handlers.NewEmptiesHandler(emptiesService, log),
		POS:       handlers.NewPOSHandler(orderService, reportService, paymentService, log),
		Warehouse: handlers.NewWarehouseHandler(orderService, inventoryService, reportService, log),
		Dashboard: handlers.NewDashboardHandler(dashboardService, log),
		Health:    handlers.NewHealthHandler(health.NewHealthChecker(pool)),
		LiveBoard: http.HandlerFunc(hub.ServeWS),
	}, authMiddleware)

	requestLogger := middleware.NewRequestLogger(requestLogRepo, log)
	defer requestLogger.Close()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           httpapi.Chain(router, middleware.NewCORS(cfg), middleware.PanicRecovery(log), requestLogger.Handler),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", server.Addr), zap.String("env", cfg.Server.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
