package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"justEatMore/domain"
)

type PaymentsRepository struct {
	mu       sync.Mutex
	payments map[uint64]domain.Payment
	nextID   uint64
}

func NewPaymentsRepository() *PaymentsRepository {
	return &PaymentsRepository{payments: make(map[uint64]domain.Payment)}
}

func (r *PaymentsRepository) Create(ctx context.Context, payment *domain.Payment) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.payments {
		if p.ExternalID == payment.ExternalID {
			return fmt.Errorf("payment %q already exists", payment.ExternalID)
		}
	}
	r.nextID++
	payment.ID = r.nextID
	now := time.Now()
	payment.CreatedAt, payment.UpdatedAt = now, now
	r.payments[payment.ID] = *payment
	return nil
}

func (r *PaymentsRepository) FindByExternalID(ctx context.Context, externalID string) (domain.Payment, error) {
	if err := ctx.Err(); err != nil {
		return domain.Payment{}, fmt.Errorf("context error: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.payments {
		if p.ExternalID == externalID {
			return p, nil
		}
	}
	return domain.Payment{}, domain.ErrPaymentNotFound
}

func (r *PaymentsRepository) FindByOrderID(ctx context.Context, orderID uint64) ([]domain.Payment, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.Payment
	for id := uint64(1); id <= r.nextID; id++ {
		if p, ok := r.payments[id]; ok && p.OrderID == orderID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *PaymentsRepository) UpdateStatus(ctx context.Context, payment *domain.Payment) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.payments[payment.ID]
	if !ok {
		return domain.ErrPaymentNotFound
	}
	existing.Status = payment.Status
	existing.PaidAt = payment.PaidAt
	existing.UpdatedAt = time.Now()
	r.payments[payment.ID] = existing
	*payment = existing
	return nil
}
