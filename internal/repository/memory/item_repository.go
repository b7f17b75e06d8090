// Package memory holds process-local repositories. Service tests run on them
// and the login limiter falls back to them when Redis is down.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"justEatMore/domain"
)

type ItemRepository struct {
	mu     sync.Mutex
	items  map[uint64]domain.Item
	nextID uint64
}

func NewItemRepository(seed ...domain.Item) *ItemRepository {
	r := &ItemRepository{items: make(map[uint64]domain.Item)}
	for _, it := range seed {
		_ = r.Create(context.Background(), &it)
	}
	return r
}

func (r *ItemRepository) Create(ctx context.Context, item *domain.Item) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if item.ID == 0 {
		r.nextID++
		item.ID = r.nextID
	} else if item.ID > r.nextID {
		r.nextID = item.ID
	}
	now := time.Now()
	item.CreatedAt, item.UpdatedAt = now, now
	r.items[item.ID] = *item
	return nil
}

func (r *ItemRepository) FindByID(ctx context.Context, id uint64) (domain.Item, error) {
	if err := ctx.Err(); err != nil {
		return domain.Item{}, fmt.Errorf("context error: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	it, ok := r.items[id]
	if !ok {
		return domain.Item{}, domain.ErrItemNotFound
	}
	return it, nil
}

func (r *ItemRepository) FindAll(ctx context.Context, category domain.Category) ([]domain.Item, error) {
	return r.filter(ctx, func(it domain.Item) bool {
		return category == "" || it.Category == category
	})
}

func (r *ItemRepository) FindAvailable(ctx context.Context, category domain.Category, includeEmpty bool) ([]domain.Item, error) {
	return r.filter(ctx, func(it domain.Item) bool {
		return (category == "" || it.Category == category) && (includeEmpty || it.Stock > 0)
	})
}

func (r *ItemRepository) FindLowStock(ctx context.Context, threshold int) ([]domain.Item, error) {
	return r.filter(ctx, func(it domain.Item) bool { return it.Stock < threshold })
}

func (r *ItemRepository) filter(ctx context.Context, keep func(domain.Item) bool) ([]domain.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.Item, 0, len(r.items))
	for _, it := range r.items {
		if keep(it) {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *ItemRepository) Update(ctx context.Context, item *domain.Item) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.items[item.ID]
	if !ok {
		return domain.ErrItemNotFound
	}
	item.CreatedAt = existing.CreatedAt
	item.UpdatedAt = time.Now()
	r.items[item.ID] = *item
	return nil
}

func (r *ItemRepository) Delete(ctx context.Context, id uint64) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return domain.ErrItemNotFound
	}
	delete(r.items, id)
	return nil
}

// AdjustStock is a compare-and-set under the repository lock.
func (r *ItemRepository) AdjustStock(ctx context.Context, id uint64, delta int) (domain.Item, error) {
	if err := ctx.Err(); err != nil {
		return domain.Item{}, fmt.Errorf("context error: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	it, ok := r.items[id]
	if !ok {
		return domain.Item{}, domain.ErrItemNotFound
	}
	if it.Stock+delta < 0 {
		return domain.Item{}, &domain.StockShortageError{
			ItemID:    id,
			ItemName:  it.Name,
			Requested: -delta,
			Available: it.Stock,
		}
	}
	it.Stock += delta
	it.UpdatedAt = time.Now()
	r.items[id] = it
	return it, nil
}
