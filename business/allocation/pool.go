package allocation

import (
	"fmt"
	"sort"

	"justEatMore/domain"
)

// candidatePool keeps the items the solver may assign quantity to: right
// category, inside the allow-list when one is given, in stock unless stock is
// ignored. The result is ordered by id so every solve walks items the same way.
func candidatePool(items []domain.Item, req domain.BundleRequest) []domain.Item {
	allowed := make(map[uint64]struct{}, len(req.AllowList))
	for _, id := range req.AllowList {
		allowed[id] = struct{}{}
	}

	seen := make(map[uint64]struct{}, len(items))
	pool := make([]domain.Item, 0, len(items))
	for _, it := range items {
		if !it.Category.Valid() || req.Required(it.Category) <= 0 {
			continue
		}
		if req.AllowListMode() {
			if _, ok := allowed[it.ID]; !ok {
				continue
			}
		}
		if !req.IgnoreStock && it.Stock <= 0 {
			continue
		}
		if _, dup := seen[it.ID]; dup {
			continue
		}
		seen[it.ID] = struct{}{}
		pool = append(pool, it)
	}

	sort.Slice(pool, func(i, j int) bool { return pool[i].ID < pool[j].ID })
	return pool
}

// preflight rejects requests that no solver could satisfy before any model is
// built: an empty category or a category whose summed stock is short.
func preflight(pool []domain.Item, req domain.BundleRequest) error {
	for _, c := range domain.Categories {
		need := req.Required(c)
		if need <= 0 {
			continue
		}

		count, stock := 0, 0
		for _, it := range pool {
			if it.Category != c {
				continue
			}
			count++
			stock += it.Stock
		}

		if count == 0 {
			return &domain.ShortfallError{
				Category: c,
				Need:     need,
				Reason:   fmt.Sprintf("need %d %s, none available", need, c.Plural()),
			}
		}
		if !req.IgnoreStock && stock < need {
			return &domain.ShortfallError{Category: c, Need: need, Have: stock}
		}
	}
	return nil
}

func validateRequest(req domain.BundleRequest) error {
	if req.SnackCount < 0 {
		return domain.InvalidInput("snack_count", "must not be negative")
	}
	if req.JuiceCount < 0 {
		return domain.InvalidInput("juice_count", "must not be negative")
	}
	if req.SnackCount == 0 && req.JuiceCount == 0 {
		return domain.InvalidInput("counts", "bundle must contain at least one item")
	}
	if req.SellingPrice.IsNegative() {
		return domain.InvalidInput("selling_price", "must not be negative")
	}
	if req.PackagingCost.IsNegative() {
		return domain.InvalidInput("packaging_cost", "must not be negative")
	}
	return nil
}
