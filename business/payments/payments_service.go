package payments

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"justEatMore/domain"
	"justEatMore/pkg/logger"

	"github.com/google/uuid"
)

type PaymentsRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	FindByExternalID(ctx context.Context, externalID string) (domain.Payment, error)
	FindByOrderID(ctx context.Context, orderID uint64) ([]domain.Payment, error)
	UpdateStatus(ctx context.Context, payment *domain.Payment) error
}

// Gateway creates hosted invoices.
type Gateway interface {
	CreateInvoice(ctx context.Context, invoice domain.XenditInvoice) (domain.XenditInvoice, error)
}

// OrderLifecycle is the slice of the order service a settled payment drives.
type OrderLifecycle interface {
	GetOrder(ctx context.Context, id uint64) (domain.Order, error)
	MarkPaymentUploaded(ctx context.Context, id uint64) (domain.Order, error)
	VerifyPayment(ctx context.Context, id uint64) (domain.Order, error)
}

// InvoiceService issues payment links for approved orders.
type InvoiceService struct {
	paymentRepo PaymentsRepository
	gateway     Gateway
}

func NewInvoiceService(paymentRepo PaymentsRepository, gateway Gateway) *InvoiceService {
	return &InvoiceService{
		paymentRepo: paymentRepo,
		gateway:     gateway,
	}
}

// ExternalID ties a gateway invoice back to an order reference.
func ExternalID(reference string) string {
	return reference + "|" + strings.ToUpper(uuid.NewString()[:8])
}

func (s *InvoiceService) CreateInvoice(ctx context.Context, order domain.Order) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("context error: %w", err)
	}

	amount := order.SellingPrice.Ceil().IntPart()
	if amount <= 0 {
		return "", domain.InvalidInput("selling_price", "order has no price to invoice")
	}

	invoice := domain.XenditInvoice{
		ExternalID: ExternalID(order.Reference),
		Amount:     amount,
		Description: fmt.Sprintf("%s %s: %d snacks, %d juices",
			order.Reference, order.BundleName, order.Count(domain.CategorySnack), order.Count(domain.CategoryJuice)),
		Currency: "IDR",
		Items: []domain.XenditItem{{
			Name:     order.BundleName,
			Quantity: 1,
			Price:    amount,
			Category: string(order.Kind),
		}},
		Customer: domain.XenditPayer{
			GivenNames:   order.CustomerName,
			Email:        order.CustomerEmail,
			MobileNumber: order.CustomerPhone,
		},
		Metadata: domain.XenditPickup{PickupSpot: order.PickupSpot},
	}
	if order.PaymentDeadline != nil {
		invoice.ExpiryDate = *order.PaymentDeadline
	}

	created, err := s.gateway.CreateInvoice(ctx, invoice)
	if err != nil {
		logger.Error("failed to create gateway invoice", err, "order_ref", order.Reference)
		return "", fmt.Errorf("failed to create invoice: %w", err)
	}

	payment := domain.Payment{
		OrderID:    order.ID,
		ExternalID: invoice.ExternalID,
		InvoiceURL: created.InvoiceURL,
		Status:     domain.PaymentPending,
		Amount:     order.SellingPrice,
	}
	if err := s.paymentRepo.Create(ctx, &payment); err != nil {
		logger.Error("failed to save payment", err, "order_ref", order.Reference)
		return "", fmt.Errorf("failed to save payment: %w", err)
	}

	logger.Info("payment invoice created", "order_ref", order.Reference, "external_id", invoice.ExternalID)
	return created.InvoiceURL, nil
}

// WebhookEvent is the part of the gateway callback the service reads.
type WebhookEvent struct {
	ExternalID string
	Status     string
	PaidAt     *time.Time
}

type PaymentsService struct {
	paymentRepo   PaymentsRepository
	orders        OrderLifecycle
	callbackToken string
}

func NewPaymentsService(paymentRepo PaymentsRepository, orders OrderLifecycle, callbackToken string) *PaymentsService {
	return &PaymentsService{
		paymentRepo:   paymentRepo,
		orders:        orders,
		callbackToken: callbackToken,
	}
}

// HandleWebhook records the gateway status. A settled payment moves the order
// through payment_uploaded to payment_verified, which commits stock. Replays
// of an already applied callback are accepted and change nothing.
func (s *PaymentsService) HandleWebhook(ctx context.Context, token string, event WebhookEvent) (domain.Payment, error) {
	if s.callbackToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(s.callbackToken)) != 1 {
		logger.Warn("rejected payment webhook", "external_id", event.ExternalID)
		return domain.Payment{}, domain.ErrInvalidWebhookToken
	}

	if err := ctx.Err(); err != nil {
		return domain.Payment{}, fmt.Errorf("context error: %w", err)
	}

	payment, err := s.paymentRepo.FindByExternalID(ctx, event.ExternalID)
	if err != nil {
		logger.Error("payment not found for webhook", err, "external_id", event.ExternalID)
		return domain.Payment{}, err
	}

	status := strings.ToUpper(strings.TrimSpace(event.Status))
	if status == "" {
		return domain.Payment{}, domain.InvalidInput("status", "is required")
	}

	if payment.Status != status {
		payment.Status = status
		if domain.Settled(status) && payment.PaidAt == nil {
			paidAt := time.Now()
			if event.PaidAt != nil {
				paidAt = *event.PaidAt
			}
			payment.PaidAt = &paidAt
		}
		if err := s.paymentRepo.UpdateStatus(ctx, &payment); err != nil {
			logger.Error("failed to update payment status", err)
			return domain.Payment{}, fmt.Errorf("failed to update payment: %w", err)
		}
	}

	if !domain.Settled(status) {
		logger.Info("payment webhook recorded", "external_id", payment.ExternalID, "status", status)
		return payment, nil
	}

	if err := s.settle(ctx, payment.OrderID); err != nil {
		return domain.Payment{}, err
	}
	return payment, nil
}

func (s *PaymentsService) settle(ctx context.Context, orderID uint64) error {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		logger.Error("failed to load order for payment", err)
		return err
	}

	if order.Status == domain.StatusApproved {
		order, err = s.orders.MarkPaymentUploaded(ctx, orderID)
		if err != nil && !errors.Is(err, domain.ErrInvalidTransition) {
			logger.Error("failed to mark payment uploaded", err, "order_ref", order.Reference)
			return err
		}
		if err != nil {
			if order, err = s.orders.GetOrder(ctx, orderID); err != nil {
				return err
			}
		}
	}

	if order.Status != domain.StatusPaymentUploaded {
		// Already verified, or cancelled before the money arrived.
		logger.Info("payment webhook left order unchanged", "order_ref", order.Reference, "status", string(order.Status))
		return nil
	}

	if _, err := s.orders.VerifyPayment(ctx, orderID); err != nil && !errors.Is(err, domain.ErrInvalidTransition) {
		logger.Error("failed to verify payment", err, "order_ref", order.Reference)
		return err
	}
	return nil
}
