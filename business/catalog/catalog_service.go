package catalog

import (
	"context"
	"fmt"
	"strings"

	"justEatMore/domain"
	"justEatMore/pkg/logger"

	"github.com/shopspring/decimal"
)

// BundleTypeRepository contract interface
type BundleTypeRepository interface {
	Create(ctx context.Context, bt *domain.BundleType) error
	FindByID(ctx context.Context, id uint64) (domain.BundleType, error)
	FindAll(ctx context.Context, activeOnly bool) ([]domain.BundleType, error)
	Update(ctx context.Context, bt *domain.BundleType) error
	Delete(ctx context.Context, id uint64) error
	// Upsert inserts or updates by name.
	Upsert(ctx context.Context, bt *domain.BundleType) error
}

type catalogService struct {
	bundleRepo BundleTypeRepository
}

func NewCatalogService(bundleRepo BundleTypeRepository) *catalogService {
	return &catalogService{
		bundleRepo: bundleRepo,
	}
}

func (s *catalogService) ListBundleTypes(ctx context.Context, activeOnly bool) ([]domain.BundleType, error) {
	if err := ctx.Err(); err != nil {
		logger.Error("context error when listing bundle types")
		return nil, fmt.Errorf("context error: %w", err)
	}

	bundleTypes, err := s.bundleRepo.FindAll(ctx, activeOnly)
	if err != nil {
		logger.Error("Failed to find bundle types", err)
		return nil, err
	}

	return bundleTypes, nil
}

func (s *catalogService) ListActive(ctx context.Context) ([]domain.BundleType, error) {
	return s.ListBundleTypes(ctx, true)
}

func (s *catalogService) GetBundleType(ctx context.Context, id uint64) (domain.BundleType, error) {
	if err := ctx.Err(); err != nil {
		logger.Error("context error when get bundle type by id")
		return domain.BundleType{}, fmt.Errorf("context error: %w", err)
	}

	if id == 0 {
		return domain.BundleType{}, domain.InvalidInput("id", "must be positive")
	}

	bt, err := s.bundleRepo.FindByID(ctx, id)
	if err != nil {
		logger.Error("Failed to find bundle type", err)
		return domain.BundleType{}, err
	}

	return bt, nil
}

// FindByID lets the order lifecycle read templates through the service.
func (s *catalogService) FindByID(ctx context.Context, id uint64) (domain.BundleType, error) {
	return s.GetBundleType(ctx, id)
}

func (s *catalogService) CreateBundleType(ctx context.Context, bt *domain.BundleType) (*domain.BundleType, error) {
	if err := ctx.Err(); err != nil {
		logger.Error("context error when create bundle type")
		return nil, fmt.Errorf("context error: %w", err)
	}

	if err := validateBundleType(bt); err != nil {
		logger.Error("Invalid bundle type data", err)
		return nil, err
	}

	if err := s.bundleRepo.Create(ctx, bt); err != nil {
		logger.Error("failed to create bundle type", err)
		return nil, fmt.Errorf("failed to create bundle type: %w", err)
	}

	logger.Info("bundle type created", "name", bt.Name)

	return bt, nil
}

func (s *catalogService) UpdateBundleType(ctx context.Context, bt *domain.BundleType) (*domain.BundleType, error) {
	if err := ctx.Err(); err != nil {
		logger.Error("context error when updating bundle type")
		return nil, fmt.Errorf("context error: %w", err)
	}

	if bt.ID == 0 {
		return nil, domain.InvalidInput("id", "is required")
	}

	if err := validateBundleType(bt); err != nil {
		logger.Error("Invalid bundle type data", err)
		return nil, err
	}

	if _, err := s.bundleRepo.FindByID(ctx, bt.ID); err != nil {
		logger.Error("bundle type not found", err)
		return nil, err
	}

	if err := s.bundleRepo.Update(ctx, bt); err != nil {
		logger.Error("failed to update bundle type", err)
		return nil, fmt.Errorf("failed to update bundle type: %w", err)
	}

	updated, err := s.bundleRepo.FindByID(ctx, bt.ID)
	if err != nil {
		logger.Error("failed to fetch updated bundle type", err)
		return nil, fmt.Errorf("failed to fetch updated bundle type: %w", err)
	}

	logger.Info("bundle type updated", "name", updated.Name)

	return &updated, nil
}

func (s *catalogService) DeleteBundleType(ctx context.Context, id uint64) error {
	if id == 0 {
		return domain.InvalidInput("id", "must be positive")
	}

	if err := ctx.Err(); err != nil {
		logger.Error("context error when deleting bundle type")
		return fmt.Errorf("context error: %w", err)
	}

	if _, err := s.bundleRepo.FindByID(ctx, id); err != nil {
		logger.Error("bundle type not found", err)
		return err
	}

	if err := s.bundleRepo.Delete(ctx, id); err != nil {
		logger.Error("failed to delete bundle type", err)
		return fmt.Errorf("failed to delete bundle type: %w", err)
	}

	logger.Info("bundle type deleted", "id", id)

	return nil
}

// Seed upserts each template by name. Invalid templates abort the seed.
func (s *catalogService) Seed(ctx context.Context, bundleTypes []domain.BundleType) error {
	for i := range bundleTypes {
		bt := bundleTypes[i]
		if err := validateBundleType(&bt); err != nil {
			return fmt.Errorf("seed %q: %w", bt.Name, err)
		}
		if err := s.bundleRepo.Upsert(ctx, &bt); err != nil {
			logger.Error("failed to seed bundle type", err, "name", bt.Name)
			return fmt.Errorf("failed to seed bundle type %q: %w", bt.Name, err)
		}
	}

	logger.Info("bundle catalog seeded", "count", len(bundleTypes))
	return nil
}

func validateBundleType(bt *domain.BundleType) error {
	bt.Name = strings.TrimSpace(bt.Name)
	if bt.Name == "" {
		return domain.InvalidInput("name", "is required")
	}
	if bt.RequiredSnacks < 0 || bt.RequiredJuices < 0 {
		return domain.InvalidInput("required_items", "counts cannot be negative")
	}
	if bt.TotalItems() == 0 {
		return domain.InvalidInput("required_items", "bundle must hold at least one item")
	}
	if !bt.SellingPrice.IsPositive() {
		return domain.InvalidInput("selling_price", "must be positive")
	}
	if bt.PackagingCost.IsNegative() {
		return domain.InvalidInput("packaging_cost", "cannot be negative")
	}
	return nil
}

// DefaultBundleTypes is the starter catalog loaded on first boot.
func DefaultBundleTypes() []domain.BundleType {
	return []domain.BundleType{
		{
			Name:           "Snack Attack",
			Description:    "Ten snacks for the office drawer.",
			RequiredSnacks: 10,
			SellingPrice:   decimal.NewFromInt(1000),
			PackagingCost:  decimal.NewFromInt(20),
			IsActive:       true,
		},
		{
			Name:           "Study Buddy",
			Description:    "Snacks and juices for a long night.",
			RequiredSnacks: 15,
			RequiredJuices: 5,
			SellingPrice:   decimal.NewFromInt(2000),
			PackagingCost:  decimal.NewFromInt(30),
			IsActive:       true,
		},
		{
			Name:           "Party Pack",
			Description:    "A crowd-sized mix.",
			RequiredSnacks: 30,
			RequiredJuices: 10,
			SellingPrice:   decimal.NewFromInt(4000),
			PackagingCost:  decimal.NewFromInt(50),
			IsActive:       true,
		},
	}
}
