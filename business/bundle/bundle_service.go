package bundle

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"justEatMore/business/allocation"
	"justEatMore/business/margin"
	"justEatMore/domain"
	"justEatMore/pkg/logger"

	"github.com/shopspring/decimal"
)

// MinimumCustomCount is the smallest non-zero category size a custom bundle accepts.
const MinimumCustomCount = 10

// InventoryReader provides the snapshot a bundle is allocated against.
type InventoryReader interface {
	ListAvailableItems(ctx context.Context, category domain.Category, includeEmpty bool) ([]domain.Item, error)
}

type Allocator interface {
	Solve(ctx context.Context, items []domain.Item, req domain.BundleRequest, mode allocation.Mode) (domain.AllocationResult, error)
}

type BundleService struct {
	inventory    InventoryReader
	allocator    Allocator
	targetMargin decimal.Decimal
}

func NewBundleService(inventory InventoryReader, allocator Allocator, targetMargin decimal.Decimal) *BundleService {
	return &BundleService{
		inventory:    inventory,
		allocator:    allocator,
		targetMargin: margin.ClampTarget(targetMargin),
	}
}

// TargetMargin is the configured margin after the business floor is applied.
func (s *BundleService) TargetMargin() decimal.Decimal {
	return s.targetMargin
}

// Quote reads the current inventory and allocates req without persisting
// anything or touching stock.
func (s *BundleService) Quote(ctx context.Context, req domain.BundleRequest) (domain.BundleSummary, error) {
	if err := ctx.Err(); err != nil {
		logger.Error("context error when quoting bundle")
		return domain.BundleSummary{}, fmt.Errorf("context error: %w", err)
	}

	items, err := s.inventory.ListAvailableItems(ctx, "", req.IgnoreStock)
	if err != nil {
		logger.Error("failed to load inventory snapshot", err)
		return domain.BundleSummary{}, err
	}

	return s.Build(ctx, items, req)
}

// Build allocates req over an inventory snapshot.
//
// Predefined bundles are solved with the cost ceiling first; when that pass is
// infeasible or times out they are re-solved without it and flagged for manual
// approval. Custom bundles have no price yet, so a cost-only pass prices the
// bundle and a second pass locks the allocation in at that price.
func (s *BundleService) Build(ctx context.Context, items []domain.Item, req domain.BundleRequest) (domain.BundleSummary, error) {
	req.TargetMargin = s.resolveTarget(req.TargetMargin)

	var (
		res  domain.AllocationResult
		pass string
		err  error
	)
	switch req.Kind {
	case domain.BundleCustom:
		res, req, pass, err = s.custom(ctx, items, req)
	case domain.BundlePredefined, "":
		req.Kind = domain.BundlePredefined
		res, pass, err = s.predefined(ctx, items, req)
	default:
		return domain.BundleSummary{}, domain.InvalidInput("kind", fmt.Sprintf("unknown bundle kind %q", req.Kind))
	}
	if err != nil {
		logger.Warn("bundle allocation failed", "kind", string(req.Kind), "error", err.Error())
		return domain.BundleSummary{}, err
	}

	summary := summarize(items, req, res, pass)
	logger.Info("bundle allocated",
		"kind", string(req.Kind),
		"pass", pass,
		"selling_price", summary.SellingPrice.String(),
		"total_cost", summary.TotalCost.String(),
		"margin", margin.Percent(summary.ProfitMargin),
		"margin_met", summary.MarginMet,
	)
	return summary, nil
}

func (s *BundleService) resolveTarget(requested decimal.Decimal) decimal.Decimal {
	if requested.IsZero() {
		return s.targetMargin
	}
	return margin.ClampTarget(requested)
}

func (s *BundleService) predefined(ctx context.Context, items []domain.Item, req domain.BundleRequest) (domain.AllocationResult, string, error) {
	if !req.SellingPrice.IsPositive() {
		return domain.AllocationResult{}, "", domain.InvalidInput("selling_price", "predefined bundles need a selling price")
	}

	res, err := s.allocator.Solve(ctx, items, req, allocation.EnforceMargin)
	if err == nil {
		return res, domain.PassMarginEnforced, nil
	}
	if !canRelax(err) {
		return domain.AllocationResult{}, "", err
	}

	logger.Info("margin-enforced pass failed, relaxing margin", "reason", err.Error())
	res, err = s.allocator.Solve(ctx, items, req, allocation.RelaxMargin)
	if err != nil {
		return domain.AllocationResult{}, "", hardFailure(err)
	}
	return res, domain.PassMarginRelaxed, nil
}

func (s *BundleService) custom(ctx context.Context, items []domain.Item, req domain.BundleRequest) (domain.AllocationResult, domain.BundleRequest, string, error) {
	if err := ValidateCustomCounts(req.SnackCount, req.JuiceCount); err != nil {
		return domain.AllocationResult{}, req, "", err
	}

	estimate := req
	estimate.SellingPrice = decimal.Zero
	first, err := s.allocator.Solve(ctx, items, estimate, allocation.RelaxMargin)
	if err != nil {
		return domain.AllocationResult{}, req, "", hardFailure(err)
	}

	price, err := margin.PriceForTargetMargin(first.TotalCost.Add(req.PackagingCost), req.TargetMargin)
	if err != nil {
		return domain.AllocationResult{}, req, "", err
	}
	req.SellingPrice = price

	res, err := s.allocator.Solve(ctx, items, req, allocation.EnforceMargin)
	if err == nil {
		return res, req, domain.PassMarginEnforced, nil
	}
	if !canRelax(err) {
		return domain.AllocationResult{}, req, "", err
	}

	logger.Warn("custom bundle could not be locked at its suggested price, keeping estimate",
		"selling_price", price.String(), "reason", err.Error())
	first.AchievedMargin = margin.AchievedMargin(price, first.TotalCost.Add(req.PackagingCost))
	ceiling, _ := margin.MaxAllowedCost(price, req.TargetMargin, req.PackagingCost)
	first.MarginMet = first.TotalCost.LessThanOrEqual(ceiling)
	return first, req, domain.PassMarginRelaxed, nil
}

// ValidateCustomCounts enforces the bulk rule: each category is either empty
// or holds at least MinimumCustomCount items, and one of them is not empty.
func ValidateCustomCounts(snacks, juices int) error {
	if snacks < 0 || juices < 0 {
		return domain.InvalidInput("counts", "must not be negative")
	}
	if snacks == 0 && juices == 0 {
		return domain.InvalidInput("counts", "bundle must contain at least one item")
	}
	if (snacks != 0 && snacks < MinimumCustomCount) || (juices != 0 && juices < MinimumCustomCount) {
		return domain.InvalidInput("counts", fmt.Sprintf("each category must be 0 or at least %d", MinimumCustomCount))
	}
	return nil
}

// canRelax reports whether a margin-enforced failure may fall back to the
// relaxed pass. Stock shortfalls fail the same way without the ceiling.
func canRelax(err error) bool {
	var shortfall *domain.ShortfallError
	if errors.As(err, &shortfall) {
		return false
	}
	return errors.Is(err, domain.ErrInfeasible) || errors.Is(err, domain.ErrSolverTimeout)
}

func hardFailure(err error) error {
	if errors.Is(err, domain.ErrSolverTimeout) {
		return fmt.Errorf("%w: %w", domain.ErrInfeasible, err)
	}
	return err
}

func summarize(items []domain.Item, req domain.BundleRequest, res domain.AllocationResult, pass string) domain.BundleSummary {
	favorites := make(map[uint64]struct{}, len(req.Favorites))
	for _, id := range req.Favorites {
		favorites[id] = struct{}{}
	}

	lines := make([]domain.BundleLine, 0, len(res.Quantities))
	for _, it := range items {
		q, ok := res.Quantities[it.ID]
		if !ok || q <= 0 {
			continue
		}
		_, fav := favorites[it.ID]
		lines = append(lines, domain.BundleLine{
			ItemID:   it.ID,
			Name:     it.Name,
			Category: it.Category,
			Quantity: q,
			UnitCost: it.UnitCost,
			Favorite: fav,
		})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ItemID < lines[j].ItemID })

	profit := margin.AchievedMargin(req.SellingPrice, res.TotalCost.Add(req.PackagingCost))
	res.AchievedMargin = profit
	res.Message = Message(profit, req.TargetMargin, res.MarginMet)

	return domain.BundleSummary{
		Kind:          req.Kind,
		Allocation:    res,
		Lines:         lines,
		SellingPrice:  req.SellingPrice,
		PackagingCost: req.PackagingCost,
		TotalCost:     res.TotalCost,
		NetProfit:     margin.NetProfit(req.SellingPrice, res.TotalCost, req.PackagingCost),
		ProfitMargin:  profit,
		TargetMargin:  req.TargetMargin,
		MarginMet:     res.MarginMet,
		NeedsApproval: !res.MarginMet,
		Pass:          pass,
	}
}

// Message is the customer-facing line attached to an allocation.
func Message(achieved, target decimal.Decimal, met bool) string {
	if met {
		return fmt.Sprintf("Bundle generated successfully with %s%% profit margin.", margin.Percent(achieved))
	}
	return fmt.Sprintf("Could only achieve %s%% margin (target: %s%%). Consider adjusting favorites or pricing.",
		margin.Percent(achieved), margin.Percent(target))
}
