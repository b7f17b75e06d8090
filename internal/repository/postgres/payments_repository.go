package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"justEatMore/domain"

	"gorm.io/gorm"
)

type PaymentsRepository struct {
	DB *gorm.DB
}

func NewPaymentsRepository(db *gorm.DB) *PaymentsRepository {
	return &PaymentsRepository{
		DB: db,
	}
}

func (r *PaymentsRepository) Create(ctx context.Context, payment *domain.Payment) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := r.DB.WithContext(ctx).Create(payment).Error; err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}

	return nil
}

func (r *PaymentsRepository) FindByExternalID(ctx context.Context, externalID string) (domain.Payment, error) {
	if err := ctx.Err(); err != nil {
		return domain.Payment{}, fmt.Errorf("context error: %w", err)
	}

	var payment domain.Payment
	err := r.DB.WithContext(ctx).Where("external_id = ?", externalID).First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Payment{}, domain.ErrPaymentNotFound
		}
		return domain.Payment{}, fmt.Errorf("failed to find payment: %w", err)
	}

	return payment, nil
}

func (r *PaymentsRepository) FindByOrderID(ctx context.Context, orderID uint64) ([]domain.Payment, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var payments []domain.Payment
	err := r.DB.WithContext(ctx).Where("order_id = ?", orderID).Order("id").Find(&payments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find payments: %w", err)
	}

	return payments, nil
}

func (r *PaymentsRepository) UpdateStatus(ctx context.Context, payment *domain.Payment) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	payment.UpdatedAt = time.Now()
	result := r.DB.WithContext(ctx).Model(&domain.Payment{}).Where("id = ?", payment.ID).Updates(map[string]interface{}{
		"status":     payment.Status,
		"paid_at":    payment.PaidAt,
		"updated_at": payment.UpdatedAt,
	})
	if result.Error != nil {
		return fmt.Errorf("failed to update payment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrPaymentNotFound
	}

	return nil
}
