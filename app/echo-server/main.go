package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"justEatMore/app/echo-server/metrics"
	"justEatMore/app/echo-server/router"
	"justEatMore/business/allocation"
	"justEatMore/business/bundle"
	"justEatMore/business/catalog"
	"justEatMore/business/inventory"
	"justEatMore/business/orders"
	"justEatMore/business/payments"
	userService "justEatMore/business/user"
	"justEatMore/internal/middleware"
	"justEatMore/internal/repository/memory"
	"justEatMore/internal/repository/notification"
	psqlRepo "justEatMore/internal/repository/postgres"
	redisRepo "justEatMore/internal/repository/redis"
	"justEatMore/internal/repository/xendit"
	"justEatMore/internal/rest"
	"justEatMore/pkg/config"
	"justEatMore/pkg/database"
	redisClient "justEatMore/pkg/database/redis"
	"justEatMore/pkg/logger"
	allocationMetrics "justEatMore/pkg/metrics"
	"justEatMore/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.App.Environment); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()
	logger.Info("Starting Just Eat More", "version", cfg.App.Version)

	utils.InitJWT(cfg.JWT.SecretKey, cfg.JWT.TTL)
	allocationMetrics.Init()
	metrics.Init()

	db, err := database.InitPostgres(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}

	logger.Info("Database connected successfully")

	// Login attempts go to Redis when it answers, otherwise stay in process.
	var limiter userService.LoginLimiter
	rdb, err := redisClient.NewRedisClient(context.Background(), cfg.Redis)
	if err != nil {
		logger.Warn("Redis unavailable, using in-memory login limiter", "error", err.Error())
		limiter = memory.NewLoginLimiter(cfg.Login.MaxAttempts, cfg.Login.Lockout)
	} else {
		defer redisClient.CloseRedisClient(rdb)
		limiter = redisRepo.NewLoginLimiter(rdb, cfg.Login.MaxAttempts, cfg.Login.Lockout)
	}

	dispatcher := notification.NewDispatcher(emailSender(cfg), notification.Recipient{
		Name:  cfg.Notification.AdminName,
		Email: cfg.Notification.AdminEmail,
	}, 128)

	// Init validate
	validate := validator.New()

	// Init repo
	userRepo := psqlRepo.NewUserRepository(db)
	itemRepo := psqlRepo.NewItemRepository(db)
	bundleTypeRepo := psqlRepo.NewBundleTypeRepository(db)
	ordersRepo := psqlRepo.NewOrdersRepository(db)
	paymentsRepo := psqlRepo.NewPaymentsRepository(db)

	// Init service
	inventoryService := inventory.NewInventoryService(itemRepo)
	catalogService := catalog.NewCatalogService(bundleTypeRepo)
	bundleService := bundle.NewBundleService(
		inventoryService,
		allocation.NewSolver(allocation.Config{
			Timeout:  cfg.Allocation.SolverTimeout,
			MaxNodes: cfg.Allocation.SolverMaxNodes,
		}),
		cfg.Allocation.TargetMargin,
	)

	var invoicer orders.Invoicer
	if cfg.Xendit.XenditSecretKey != "" {
		invoicer = payments.NewInvoiceService(paymentsRepo, xendit.NewXenditRepository(
			xendit.XenditConfig{
				XenditApi:          cfg.Xendit.XenditSecretKey,
				XenditUrl:          cfg.Xendit.XenditUrl,
				SuccessRedirectUrl: cfg.Xendit.RedirectUrl,
				FailureRedirectUrl: cfg.Xendit.RedirectUrl,
			},
		))
	} else {
		logger.Warn("Xendit secret key not set, orders will not get payment links")
	}

	ordersService := orders.NewOrdersService(ordersRepo, itemRepo, bundleService, catalogService, dispatcher, invoicer, orders.Config{
		PaymentDeadline: cfg.Allocation.PaymentDeadline,
		PackagingCost:   cfg.Allocation.PackagingCost,
	})
	paymentsService := payments.NewPaymentsService(paymentsRepo, ordersService, cfg.Xendit.XenditWebhookVerificationToken)
	usersService := userService.NewUserService(userRepo, validate, limiter)

	seedCtx, seedCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := catalogService.Seed(seedCtx, catalog.DefaultBundleTypes()); err != nil {
		logger.Error("Failed to seed bundle types", err)
	}
	seedCancel()

	// Init handler
	userHandler := rest.NewUserHandler(usersService)
	ordersHandler := rest.NewOrdersHandler(ordersService)
	inventoryHandler := rest.NewInventoryHandler(inventoryService)
	catalogHandler := rest.NewCatalogHandler(catalogService)
	bundleHandler := rest.NewBundleHandler(bundleService, catalogService)
	webhookHandler := rest.NewWebhookController(paymentsService)
	dashboardHandler := rest.NewDashboardHandler(ordersService, inventoryService)

	// Init echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// HTTP error handler
	e.HTTPErrorHandler = middleware.ErrorHandler

	// Global middleware
	e.Use(echomiddleware.Recover())
	e.Use(middleware.Metrics(metrics.HTTPRequestDuration))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: []string{"http://localhost:3000", cfg.App.AppDeploymentUrl},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Auth middleware
	authRequired := middleware.AuthMiddleware()
	adminOnly := middleware.AdminOnly()

	// Setup routes
	api := e.Group("/api/v1")
	router.SetupUserRoutes(api, userHandler, authRequired, adminOnly)
	router.SetupCatalogRoutes(api, catalogHandler, authRequired, adminOnly)
	router.SetBundleRoutes(api, bundleHandler)
	router.SetupInventoryRoutes(api, inventoryHandler, authRequired, adminOnly)
	router.SetOrdersRoutes(api, ordersHandler, authRequired, adminOnly)
	router.SetWebhookHandler(api, webhookHandler)
	router.SetupAdminRoutes(api, dashboardHandler, authRequired, adminOnly)

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	go sweepOverdue(sweepCtx, ordersService, cfg.Allocation.SweepInterval)

	// Goroutine server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server starting", "address", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	stopSweep()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown server
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", err)
	}

	dispatcher.Close()
	logger.Info("Server stopped")
}

// emailSender picks the configured provider. A nil sender makes the
// dispatcher log notifications instead.
func emailSender(cfg *config.Config) notification.EmailSender {
	switch cfg.Notification.Provider {
	case "mailjet":
		return notification.NewMailjetRepository(notification.MailjetConfig{
			MailjetBaseURL:           cfg.Mailjet.MailjetBaseUrl,
			MailjetBasicAuthUsername: cfg.Mailjet.MailjetBasicAuthUsername,
			MailjetBasicAuthPassword: cfg.Mailjet.MailjetBasicAuthPassword,
			MailjetSenderEmail:       cfg.Mailjet.MailjetSenderEmail,
			MailjetSenderName:        cfg.Mailjet.MailjetSenderName,
		})
	case "sendgrid":
		return notification.NewSendGridRepository(notification.SendGridConfig{
			APIKey:      cfg.SendGrid.APIKey,
			SenderEmail: cfg.SendGrid.SenderEmail,
			SenderName:  cfg.SendGrid.SenderName,
		})
	default:
		return nil
	}
}

func sweepOverdue(ctx context.Context, svc *orders.OrdersService, interval time.Duration) {
	if interval <= 0 {
		logger.Warn("Payment deadline sweep disabled", "interval", interval.String())
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			runCtx, cancel := context.WithTimeout(ctx, interval)
			n, err := svc.ExpireOverdue(runCtx, now)
			cancel()
			if err != nil {
				logger.Error("Payment deadline sweep failed", err)
				continue
			}
			metrics.OrdersExpired.Add(float64(n))
		}
	}
}
