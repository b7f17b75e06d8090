package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"justEatMore/domain"
)

type OrdersRepository struct {
	mu         sync.Mutex
	orders     map[uint64]domain.Order
	nextID     uint64
	nextLineID uint64
}

func NewOrdersRepository() *OrdersRepository {
	return &OrdersRepository{orders: make(map[uint64]domain.Order)}
}

// clone detaches the stored order from the caller's slices.
func clone(o domain.Order) domain.Order {
	o.Items = append([]domain.OrderItem(nil), o.Items...)
	if o.Diagnostics != nil {
		d := make(map[string]interface{}, len(o.Diagnostics))
		for k, v := range o.Diagnostics {
			d[k] = v
		}
		o.Diagnostics = d
	}
	if o.PaymentDeadline != nil {
		t := *o.PaymentDeadline
		o.PaymentDeadline = &t
	}
	return o
}

func (r *OrdersRepository) numberLines(o *domain.Order) {
	for i := range o.Items {
		o.Items[i].OrderID = o.ID
		if o.Items[i].ID == 0 {
			r.nextLineID++
			o.Items[i].ID = r.nextLineID
		}
	}
}

func (r *OrdersRepository) Create(ctx context.Context, order *domain.Order) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, o := range r.orders {
		if o.Reference == order.Reference {
			return fmt.Errorf("order reference %s already exists", order.Reference)
		}
	}

	r.nextID++
	order.ID = r.nextID
	now := time.Now()
	order.CreatedAt, order.UpdatedAt = now, now
	r.numberLines(order)
	r.orders[order.ID] = clone(*order)
	return nil
}

func (r *OrdersRepository) FindByID(ctx context.Context, id uint64) (domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return domain.Order{}, fmt.Errorf("context error: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return clone(o), nil
}

func (r *OrdersRepository) FindByReference(ctx context.Context, reference string) (domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return domain.Order{}, fmt.Errorf("context error: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, o := range r.orders {
		if strings.EqualFold(o.Reference, reference) {
			return clone(o), nil
		}
	}
	return domain.Order{}, domain.ErrOrderNotFound
}

func (r *OrdersRepository) FindAll(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	return r.filter(ctx, func(o domain.Order) bool { return status == "" || o.Status == status })
}

func (r *OrdersRepository) FindOverdue(ctx context.Context, now time.Time) ([]domain.Order, error) {
	return r.filter(ctx, func(o domain.Order) bool { return o.Overdue(now) })
}

func (r *OrdersRepository) filter(ctx context.Context, keep func(domain.Order) bool) ([]domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.Order, 0)
	for _, o := range r.orders {
		if keep(o) {
			out = append(out, clone(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *OrdersRepository) UpdateItems(ctx context.Context, order *domain.Order) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.orders[order.ID]
	if !ok {
		return domain.ErrOrderNotFound
	}

	for i := range order.Items {
		order.Items[i].ID = 0
	}
	r.numberLines(order)

	existing.Items = order.Items
	existing.Kind = order.Kind
	existing.SellingPrice = order.SellingPrice
	existing.PackagingCost = order.PackagingCost
	existing.TotalCost = order.TotalCost
	existing.NetProfit = order.NetProfit
	existing.ProfitMargin = order.ProfitMargin
	existing.TargetMargin = order.TargetMargin
	existing.MarginMet = order.MarginMet
	existing.AllocationMessage = order.AllocationMessage
	existing.Diagnostics = order.Diagnostics
	existing.UpdatedAt = time.Now()
	r.orders[order.ID] = clone(existing)
	return nil
}

func (r *OrdersRepository) UpdateStatus(ctx context.Context, order *domain.Order) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.orders[order.ID]
	if !ok {
		return domain.ErrOrderNotFound
	}

	existing.Status = order.Status
	existing.StockCommitted = order.StockCommitted
	existing.PaymentDeadline = order.PaymentDeadline
	existing.PaymentLink = order.PaymentLink
	existing.CancelReason = order.CancelReason
	existing.UpdatedAt = time.Now()
	r.orders[order.ID] = clone(existing)
	return nil
}
