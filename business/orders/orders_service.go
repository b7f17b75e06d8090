package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"justEatMore/business/bundle"
	"justEatMore/domain"
	"justEatMore/pkg/logger"
	"justEatMore/pkg/metrics"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrdersRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id uint64) (domain.Order, error)
	FindByReference(ctx context.Context, reference string) (domain.Order, error)
	FindAll(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error)
	FindOverdue(ctx context.Context, now time.Time) ([]domain.Order, error)
	// UpdateItems replaces the order lines and the financial summary.
	UpdateItems(ctx context.Context, order *domain.Order) error
	// UpdateStatus persists status, stock flag, deadline, payment link and cancel reason.
	UpdateStatus(ctx context.Context, order *domain.Order) error
}

type StockAdjuster interface {
	AdjustStock(ctx context.Context, id uint64, delta int) (domain.Item, error)
}

type BundleQuoter interface {
	Quote(ctx context.Context, req domain.BundleRequest) (domain.BundleSummary, error)
	TargetMargin() decimal.Decimal
}

type BundleTypeReader interface {
	FindByID(ctx context.Context, id uint64) (domain.BundleType, error)
}

// Notifier receives order events. Delivery failures stay inside the notifier.
type Notifier interface {
	Notify(ctx context.Context, event domain.OrderEvent)
}

// Invoicer issues a payment link for an approved order.
type Invoicer interface {
	CreateInvoice(ctx context.Context, order domain.Order) (string, error)
}

// errNoLongerOverdue marks an order that left approval or got a new deadline
// while the sweep was running.
var errNoLongerOverdue = errors.New("order is no longer overdue")

// commitStatuses are the statuses in which payment has arrived and stock may
// be taken.
var commitStatuses = map[domain.OrderStatus]bool{
	domain.StatusPaymentUploaded: true,
	domain.StatusPaymentVerified: true,
	domain.StatusProcessing:      true,
}

type Config struct {
	PaymentDeadline time.Duration
	PackagingCost   decimal.Decimal
}

type OrdersService struct {
	orderRepo OrdersRepository
	stock     StockAdjuster
	bundles   BundleQuoter
	catalog   BundleTypeReader
	notifier  Notifier
	invoicer  Invoicer
	locks     *keyedMutex
	deadline  time.Duration
	packaging decimal.Decimal
	now       func() time.Time
}

// NewOrdersService wires the lifecycle. invoicer may be nil when no payment
// gateway is configured.
func NewOrdersService(orderRepo OrdersRepository, stock StockAdjuster, bundles BundleQuoter, catalog BundleTypeReader, notifier Notifier, invoicer Invoicer, cfg Config) *OrdersService {
	deadline := cfg.PaymentDeadline
	if deadline <= 0 {
		deadline = 24 * time.Hour
	}
	return &OrdersService{
		orderRepo: orderRepo,
		stock:     stock,
		bundles:   bundles,
		catalog:   catalog,
		notifier:  notifier,
		invoicer:  invoicer,
		locks:     newKeyedMutex(),
		deadline:  deadline,
		packaging: cfg.PackagingCost,
		now:       time.Now,
	}
}

type CreateOrderInput struct {
	CustomerName  string
	CustomerPhone string
	CustomerEmail string
	PickupSpot    string
	BundleTypeID  *uint64
	SnackCount    int
	JuiceCount    int
	Favorites     []uint64
	AllowList     []uint64
	TargetMargin  decimal.Decimal
}

// NewReference returns an order reference such as JEM-1A2B3C4D.
func NewReference() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "JEM-" + strings.ToUpper(id[:8])
}

func (s *OrdersService) CreateOrder(ctx context.Context, input CreateOrderInput) (domain.Order, error) {
	if err := ctx.Err(); err != nil {
		logger.Error("context error when creating order")
		return domain.Order{}, fmt.Errorf("context error: %w", err)
	}

	if strings.TrimSpace(input.CustomerName) == "" {
		logger.Error("Invalid order data: customer name is required")
		return domain.Order{}, domain.InvalidInput("customer_name", "is required")
	}

	req := domain.BundleRequest{
		Kind:          domain.BundleCustom,
		SnackCount:    input.SnackCount,
		JuiceCount:    input.JuiceCount,
		PackagingCost: s.packaging,
		TargetMargin:  input.TargetMargin,
		Favorites:     input.Favorites,
		AllowList:     input.AllowList,
	}
	order := domain.Order{
		Reference:     NewReference(),
		CustomerName:  strings.TrimSpace(input.CustomerName),
		CustomerPhone: input.CustomerPhone,
		CustomerEmail: input.CustomerEmail,
		PickupSpot:    input.PickupSpot,
		AllowListMode: len(input.AllowList) > 0,
		Status:        domain.StatusPendingApproval,
		BundleName:    "Custom bundle",
	}

	if input.BundleTypeID != nil {
		bt, err := s.catalog.FindByID(ctx, *input.BundleTypeID)
		if err != nil {
			logger.Error("failed to find bundle type", err)
			return domain.Order{}, err
		}
		if !bt.IsActive {
			return domain.Order{}, domain.InvalidInput("bundle_type_id", "bundle type is not available")
		}
		req.Kind = domain.BundlePredefined
		req.SellingPrice = bt.SellingPrice
		req.SnackCount = bt.RequiredSnacks
		req.JuiceCount = bt.RequiredJuices
		req.PackagingCost = bt.PackagingCost
		order.BundleTypeID = &bt.ID
		order.BundleName = bt.Name
	}

	summary, err := s.bundles.Quote(ctx, req)
	if err != nil {
		logger.Error("failed to allocate bundle for order", err)
		return domain.Order{}, err
	}
	order = bundle.ApplySummary(order, summary)

	if order.Kind == domain.BundlePredefined && summary.MarginMet {
		order.Status = domain.StatusApproved
		deadline := s.now().Add(s.deadline)
		order.PaymentDeadline = &deadline
	}

	if err := s.orderRepo.Create(ctx, &order); err != nil {
		logger.Error("failed to create order", err)
		return domain.Order{}, fmt.Errorf("failed to create order: %w", err)
	}

	if order.Status == domain.StatusApproved {
		s.attachPaymentLink(ctx, &order)
	}

	logger.Info("order created",
		"order_ref", order.Reference,
		"status", string(order.Status),
		"margin_met", order.MarginMet,
	)
	s.notify(ctx, domain.EventOrderCreated, order, summary.Allocation.Message)
	if !order.MarginMet {
		s.notify(ctx, domain.EventMarginNotMet, order, summary.Allocation.Message)
	}

	return order, nil
}

func (s *OrdersService) GetOrder(ctx context.Context, id uint64) (domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return domain.Order{}, fmt.Errorf("context error: %w", err)
	}
	return s.orderRepo.FindByID(ctx, id)
}

func (s *OrdersService) GetOrderByReference(ctx context.Context, reference string) (domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return domain.Order{}, fmt.Errorf("context error: %w", err)
	}
	return s.orderRepo.FindByReference(ctx, strings.ToUpper(strings.TrimSpace(reference)))
}

func (s *OrdersService) ListOrders(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if status != "" && !status.Valid() {
		return nil, domain.InvalidInput("status", fmt.Sprintf("unknown status %q", status))
	}
	return s.orderRepo.FindAll(ctx, status)
}

func (s *OrdersService) Approve(ctx context.Context, id uint64) (domain.Order, error) {
	return s.transition(ctx, id, domain.StatusApproved, "")
}

func (s *OrdersService) MarkPaymentUploaded(ctx context.Context, id uint64) (domain.Order, error) {
	return s.transition(ctx, id, domain.StatusPaymentUploaded, "")
}

// VerifyPayment commits the order's quantities against live stock.
func (s *OrdersService) VerifyPayment(ctx context.Context, id uint64) (domain.Order, error) {
	return s.transition(ctx, id, domain.StatusPaymentVerified, "")
}

func (s *OrdersService) StartProcessing(ctx context.Context, id uint64) (domain.Order, error) {
	return s.transition(ctx, id, domain.StatusProcessing, "")
}

func (s *OrdersService) Complete(ctx context.Context, id uint64) (domain.Order, error) {
	return s.transition(ctx, id, domain.StatusCompleted, "")
}

// Cancel releases committed stock when there is any.
func (s *OrdersService) Cancel(ctx context.Context, id uint64, reason string) (domain.Order, error) {
	return s.transition(ctx, id, domain.StatusCancelled, reason)
}

// CommitStock decrements stock for a paid order once. Later calls are no-ops.
// Orders that are not yet paid, or already closed, are rejected with a
// TransitionError.
func (s *OrdersService) CommitStock(ctx context.Context, id uint64) (domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return domain.Order{}, fmt.Errorf("context error: %w", err)
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	if !commitStatuses[order.Status] {
		logger.Warn("rejected stock commit", "order_ref", order.Reference, "status", string(order.Status))
		return domain.Order{}, &domain.TransitionError{From: order.Status, To: domain.StatusPaymentVerified}
	}
	if order.StockCommitted {
		return order, nil
	}
	if err := s.commitStock(ctx, order); err != nil {
		s.notify(ctx, domain.EventStockCommitFailed, order, err.Error())
		return domain.Order{}, err
	}

	order.StockCommitted = true
	if err := s.orderRepo.UpdateStatus(ctx, &order); err != nil {
		s.rollback(ctx, order, lines(order))
		return domain.Order{}, fmt.Errorf("failed to save stock commit: %w", err)
	}
	return order, nil
}

func (s *OrdersService) transition(ctx context.Context, id uint64, to domain.OrderStatus, reason string) (domain.Order, error) {
	return s.transitionIf(ctx, id, to, reason, nil)
}

// transitionIf moves the order only when guard accepts it as read under the
// order lock. A nil guard accepts every order.
func (s *OrdersService) transitionIf(ctx context.Context, id uint64, to domain.OrderStatus, reason string, guard func(domain.Order) error) (domain.Order, error) {
	if err := ctx.Err(); err != nil {
		logger.Error("context error when changing order status")
		return domain.Order{}, fmt.Errorf("context error: %w", err)
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		logger.Error("failed to find order", err)
		return domain.Order{}, err
	}

	from := order.Status
	if err := checkTransition(from, to); err != nil {
		logger.Warn("rejected order transition", "order_ref", order.Reference, "from", string(from), "to", string(to))
		return domain.Order{}, err
	}
	if guard != nil {
		if err := guard(order); err != nil {
			return domain.Order{}, err
		}
	}

	committed, restored := false, false
	switch to {
	case domain.StatusPaymentVerified:
		if !order.StockCommitted {
			if err := s.commitStock(ctx, order); err != nil {
				s.notify(ctx, domain.EventStockCommitFailed, order, err.Error())
				return domain.Order{}, err
			}
			order.StockCommitted = true
			committed = true
		}
	case domain.StatusCancelled:
		if order.StockCommitted {
			if err := s.restoreStock(ctx, order); err != nil {
				return domain.Order{}, err
			}
			order.StockCommitted = false
			restored = true
		}
		order.CancelReason = reason
	case domain.StatusApproved:
		deadline := s.now().Add(s.deadline)
		order.PaymentDeadline = &deadline
	}

	order.Status = to
	if err := s.orderRepo.UpdateStatus(ctx, &order); err != nil {
		logger.Error("failed to update order status", err, "order_ref", order.Reference)
		switch {
		case committed:
			s.rollback(ctx, order, lines(order))
		case restored:
			order.Status = from
			order.StockCommitted = true
			if cerr := s.commitStock(ctx, order); cerr != nil {
				_ = s.dropCommit(ctx, order, cerr)
			}
		}
		return domain.Order{}, fmt.Errorf("failed to update order status: %w", err)
	}

	if to == domain.StatusApproved {
		s.attachPaymentLink(ctx, &order)
	}

	metrics.OrderTransitions.WithLabelValues(string(to)).Inc()
	logger.Info("order status changed", "order_ref", order.Reference, "from", string(from), "to", string(to))

	s.notify(ctx, domain.EventStatusChanged, order, fmt.Sprintf("Order %s is now %s.", order.Reference, to))
	if restored {
		s.notify(ctx, domain.EventStockRestored, order, "Stock restored after cancellation.")
	}

	return order, nil
}

// ExpireOverdue cancels approved orders whose payment deadline has passed and
// returns how many were cancelled.
func (s *OrdersService) ExpireOverdue(ctx context.Context, now time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("context error: %w", err)
	}

	overdue, err := s.orderRepo.FindOverdue(ctx, now)
	if err != nil {
		logger.Error("failed to find overdue orders", err)
		return 0, err
	}

	stillOverdue := func(o domain.Order) error {
		if !o.Overdue(now) {
			return errNoLongerOverdue
		}
		return nil
	}

	expired := 0
	for _, o := range overdue {
		order, err := s.transitionIf(ctx, o.ID, domain.StatusCancelled, "payment deadline elapsed", stillOverdue)
		if err != nil {
			if errors.Is(err, errNoLongerOverdue) || errors.Is(err, domain.ErrInvalidTransition) {
				logger.Info("skipped expiry, order moved on", "order_ref", o.Reference)
				continue
			}
			logger.Error("failed to expire order", err, "order_ref", o.Reference)
			continue
		}
		expired++
		s.notify(ctx, domain.EventOrderExpired, order, "Payment deadline elapsed; order cancelled.")
	}

	if expired > 0 {
		logger.Info("expired overdue orders", "count", expired)
	}
	return expired, nil
}

// RerunAllocation allocates the order again with a new target margin. Orders
// created from an allow-list stay on their current items; the rest may draw
// from the whole catalog. Committed stock is swapped old for new.
func (s *OrdersService) RerunAllocation(ctx context.Context, id uint64, targetMargin decimal.Decimal) (domain.Order, error) {
	if err := ctx.Err(); err != nil {
		logger.Error("context error when re-running allocation")
		return domain.Order{}, fmt.Errorf("context error: %w", err)
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	if order.Status == domain.StatusCancelled || order.Status == domain.StatusCompleted {
		return domain.Order{}, domain.InvalidInput("status", fmt.Sprintf("cannot re-run allocation on a %s order", order.Status))
	}

	req := domain.BundleRequest{
		Kind:          order.Kind,
		SnackCount:    order.Count(domain.CategorySnack),
		JuiceCount:    order.Count(domain.CategoryJuice),
		PackagingCost: order.PackagingCost,
		TargetMargin:  targetMargin,
	}
	if order.Kind == domain.BundlePredefined {
		req.SellingPrice = order.SellingPrice
	}
	for _, it := range order.Items {
		if it.IsStarred {
			req.Favorites = append(req.Favorites, it.ItemID)
		}
		if order.AllowListMode {
			req.AllowList = append(req.AllowList, it.ItemID)
		}
	}

	committed := order.StockCommitted
	if committed {
		if err := s.restoreStock(ctx, order); err != nil {
			return domain.Order{}, err
		}
	}
	// recommitOld takes the previous quantities again after a failed swap. When
	// that fails too the order is saved as uncommitted and the re-commit error
	// is returned instead of cause.
	recommitOld := func(cause error) error {
		if !committed {
			return cause
		}
		if err := s.commitStock(ctx, order); err != nil {
			return s.dropCommit(ctx, order, err)
		}
		return cause
	}

	summary, err := s.bundles.Quote(ctx, req)
	if err != nil {
		logger.Error("re-run allocation failed", err, "order_ref", order.Reference)
		return domain.Order{}, recommitOld(err)
	}

	updated := bundle.ApplySummary(order, summary)
	if committed {
		if err := s.commitStock(ctx, updated); err != nil {
			s.notify(ctx, domain.EventStockCommitFailed, order, err.Error())
			return domain.Order{}, recommitOld(err)
		}
	}

	if err := s.orderRepo.UpdateItems(ctx, &updated); err != nil {
		logger.Error("failed to save re-run allocation", err)
		err = fmt.Errorf("failed to update order items: %w", err)
		if committed {
			if rerr := s.restoreStock(ctx, updated); rerr != nil {
				logger.Error("failed to release new allocation", rerr, "order_ref", order.Reference)
				return domain.Order{}, err
			}
			return domain.Order{}, recommitOld(err)
		}
		return domain.Order{}, err
	}

	logger.Info("allocation re-run",
		"order_ref", updated.Reference,
		"target_margin", summary.TargetMargin.String(),
		"margin_met", updated.MarginMet,
	)
	if !updated.MarginMet {
		s.notify(ctx, domain.EventMarginNotMet, updated, summary.Allocation.Message)
	}

	return updated, nil
}

// dropCommit records that the order no longer holds stock after a lost
// re-commit, so a later cancel gives nothing back.
func (s *OrdersService) dropCommit(ctx context.Context, order domain.Order, cause error) error {
	logger.Error("failed to re-commit stock", cause, "order_ref", order.Reference)

	order.StockCommitted = false
	if err := s.orderRepo.UpdateStatus(context.WithoutCancel(ctx), &order); err != nil {
		logger.Error("failed to clear stock commit flag", err, "order_ref", order.Reference)
	}
	s.notify(ctx, domain.EventStockCommitFailed, order, "Stock is no longer held for this order: "+cause.Error())
	return fmt.Errorf("failed to re-commit stock: %w", cause)
}

// Stats sums completed orders for the dashboard.
func (s *OrdersService) Stats(ctx context.Context) (domain.OrderStats, error) {
	completed, err := s.orderRepo.FindAll(ctx, domain.StatusCompleted)
	if err != nil {
		logger.Error("failed to load completed orders", err)
		return domain.OrderStats{}, err
	}

	stats := domain.OrderStats{
		Revenue:       decimal.Zero,
		Cost:          decimal.Zero,
		NetProfit:     decimal.Zero,
		AverageMargin: decimal.Zero,
	}
	marginSum := decimal.Zero
	for _, o := range completed {
		stats.CompletedOrders++
		stats.Revenue = stats.Revenue.Add(o.SellingPrice)
		stats.Cost = stats.Cost.Add(o.TotalCost).Add(o.PackagingCost)
		stats.NetProfit = stats.NetProfit.Add(o.NetProfit)
		marginSum = marginSum.Add(o.ProfitMargin)
	}
	if stats.CompletedOrders > 0 {
		stats.AverageMargin = marginSum.Div(decimal.NewFromInt(int64(stats.CompletedOrders))).Round(4)
	}
	return stats, nil
}

func (s *OrdersService) attachPaymentLink(ctx context.Context, order *domain.Order) {
	if s.invoicer == nil || order.PaymentLink != "" {
		return
	}
	link, err := s.invoicer.CreateInvoice(ctx, *order)
	if err != nil {
		logger.Warn("failed to create payment invoice", "order_ref", order.Reference, "error", err.Error())
		return
	}
	order.PaymentLink = link
	if err := s.orderRepo.UpdateStatus(ctx, order); err != nil {
		logger.Warn("failed to save payment link", "order_ref", order.Reference, "error", err.Error())
	}
}

func (s *OrdersService) notify(ctx context.Context, kind domain.OrderEventKind, order domain.Order, message string) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, domain.OrderEvent{
		Kind:       kind,
		OrderID:    order.ID,
		Reference:  order.Reference,
		Customer:   order.CustomerName,
		Email:      order.CustomerEmail,
		Status:     order.Status,
		Message:    message,
		OccurredAt: s.now(),
	})
}
