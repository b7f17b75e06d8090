// Command payment-sweeper cancels approved orders whose payment deadline has
// passed. It runs once and exits, for use from cron.
package main

import (
	"context"
	"log"
	"time"

	"justEatMore/business/allocation"
	"justEatMore/business/bundle"
	"justEatMore/business/catalog"
	"justEatMore/business/inventory"
	"justEatMore/business/orders"
	"justEatMore/internal/repository/notification"
	psqlRepo "justEatMore/internal/repository/postgres"
	"justEatMore/pkg/config"
	"justEatMore/pkg/database"
	"justEatMore/pkg/logger"
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

	db, err := database.InitPostgres(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}

	var sender notification.EmailSender
	switch cfg.Notification.Provider {
	case "mailjet":
		sender = notification.NewMailjetRepository(notification.MailjetConfig{
			MailjetBaseURL:           cfg.Mailjet.MailjetBaseUrl,
			MailjetBasicAuthUsername: cfg.Mailjet.MailjetBasicAuthUsername,
			MailjetBasicAuthPassword: cfg.Mailjet.MailjetBasicAuthPassword,
			MailjetSenderEmail:       cfg.Mailjet.MailjetSenderEmail,
			MailjetSenderName:        cfg.Mailjet.MailjetSenderName,
		})
	case "sendgrid":
		sender = notification.NewSendGridRepository(notification.SendGridConfig{
			APIKey:      cfg.SendGrid.APIKey,
			SenderEmail: cfg.SendGrid.SenderEmail,
			SenderName:  cfg.SendGrid.SenderName,
		})
	}
	dispatcher := notification.NewDispatcher(sender, notification.Recipient{
		Name:  cfg.Notification.AdminName,
		Email: cfg.Notification.AdminEmail,
	}, 256)
	defer dispatcher.Close()

	itemRepo := psqlRepo.NewItemRepository(db)
	bundleService := bundle.NewBundleService(
		inventory.NewInventoryService(itemRepo),
		allocation.NewSolver(allocation.Config{
			Timeout:  cfg.Allocation.SolverTimeout,
			MaxNodes: cfg.Allocation.SolverMaxNodes,
		}),
		cfg.Allocation.TargetMargin,
	)
	ordersService := orders.NewOrdersService(
		psqlRepo.NewOrdersRepository(db),
		itemRepo,
		bundleService,
		catalog.NewCatalogService(psqlRepo.NewBundleTypeRepository(db)),
		dispatcher,
		nil,
		orders.Config{
			PaymentDeadline: cfg.Allocation.PaymentDeadline,
			PackagingCost:   cfg.Allocation.PackagingCost,
		},
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	n, err := ordersService.ExpireOverdue(ctx, time.Now())
	if err != nil {
		logger.Error("Payment deadline sweep failed", err)
		return
	}

	logger.Info("Payment deadline sweep finished", "expired", n)
}
