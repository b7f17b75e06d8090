package postgres

import (
	"context"
	"errors"
	"fmt"

	"justEatMore/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BundleTypeRepository struct {
	DB *gorm.DB
}

func NewBundleTypeRepository(db *gorm.DB) *BundleTypeRepository {
	return &BundleTypeRepository{
		DB: db,
	}
}

func (r *BundleTypeRepository) Create(ctx context.Context, bt *domain.BundleType) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	// Select all columns so an inactive template is not flipped by the column default.
	if err := r.DB.WithContext(ctx).Select("*").Omit("id").Create(bt).Error; err != nil {
		return fmt.Errorf("failed to create bundle type: %w", err)
	}

	return nil
}

func (r *BundleTypeRepository) FindByID(ctx context.Context, id uint64) (domain.BundleType, error) {
	if err := ctx.Err(); err != nil {
		return domain.BundleType{}, fmt.Errorf("context error: %w", err)
	}

	var bt domain.BundleType
	if err := r.DB.WithContext(ctx).First(&bt, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.BundleType{}, domain.ErrBundleTypeNotFound
		}
		return domain.BundleType{}, fmt.Errorf("failed to find bundle type: %w", err)
	}

	return bt, nil
}

func (r *BundleTypeRepository) FindAll(ctx context.Context, activeOnly bool) ([]domain.BundleType, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	q := r.DB.WithContext(ctx).Order("id")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}

	var bundleTypes []domain.BundleType
	if err := q.Find(&bundleTypes).Error; err != nil {
		return nil, fmt.Errorf("failed to find bundle types: %w", err)
	}

	return bundleTypes, nil
}

func (r *BundleTypeRepository) Update(ctx context.Context, bt *domain.BundleType) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	updateData := map[string]interface{}{
		"name":            bt.Name,
		"description":     bt.Description,
		"required_snacks": bt.RequiredSnacks,
		"required_juices": bt.RequiredJuices,
		"selling_price":   bt.SellingPrice,
		"packaging_cost":  bt.PackagingCost,
		"is_active":       bt.IsActive,
	}

	result := r.DB.WithContext(ctx).Model(&domain.BundleType{}).Where("id = ?", bt.ID).Updates(updateData)
	if result.Error != nil {
		return fmt.Errorf("failed to update bundle type: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrBundleTypeNotFound
	}

	return nil
}

func (r *BundleTypeRepository) Delete(ctx context.Context, id uint64) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	result := r.DB.WithContext(ctx).Delete(&domain.BundleType{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete bundle type: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrBundleTypeNotFound
	}

	return nil
}

func (r *BundleTypeRepository) Upsert(ctx context.Context, bt *domain.BundleType) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	err := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"description", "required_snacks", "required_juices", "selling_price", "packaging_cost", "is_active",
		}),
	}).Select("*").Omit("id").Create(bt).Error
	if err != nil {
		return fmt.Errorf("failed to upsert bundle type: %w", err)
	}

	return nil
}
