package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"justEatMore/domain"
)

type BundleTypeRepository struct {
	mu      sync.Mutex
	bundles map[uint64]domain.BundleType
	nextID  uint64
}

func NewBundleTypeRepository(seed ...domain.BundleType) *BundleTypeRepository {
	r := &BundleTypeRepository{bundles: make(map[uint64]domain.BundleType)}
	for _, bt := range seed {
		_ = r.Create(context.Background(), &bt)
	}
	return r
}

func (r *BundleTypeRepository) Create(ctx context.Context, bt *domain.BundleType) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.bundles {
		if existing.Name == bt.Name {
			return fmt.Errorf("bundle type %q already exists", bt.Name)
		}
	}
	r.insert(bt)
	return nil
}

func (r *BundleTypeRepository) insert(bt *domain.BundleType) {
	if bt.ID == 0 {
		r.nextID++
		bt.ID = r.nextID
	} else if bt.ID > r.nextID {
		r.nextID = bt.ID
	}
	bt.CreatedAt = time.Now()
	r.bundles[bt.ID] = *bt
}

func (r *BundleTypeRepository) FindByID(ctx context.Context, id uint64) (domain.BundleType, error) {
	if err := ctx.Err(); err != nil {
		return domain.BundleType{}, fmt.Errorf("context error: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	bt, ok := r.bundles[id]
	if !ok {
		return domain.BundleType{}, domain.ErrBundleTypeNotFound
	}
	return bt, nil
}

func (r *BundleTypeRepository) FindAll(ctx context.Context, activeOnly bool) ([]domain.BundleType, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.BundleType, 0, len(r.bundles))
	for _, bt := range r.bundles {
		if activeOnly && !bt.IsActive {
			continue
		}
		out = append(out, bt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *BundleTypeRepository) Update(ctx context.Context, bt *domain.BundleType) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.bundles[bt.ID]
	if !ok {
		return domain.ErrBundleTypeNotFound
	}
	bt.CreatedAt = existing.CreatedAt
	r.bundles[bt.ID] = *bt
	return nil
}

func (r *BundleTypeRepository) Delete(ctx context.Context, id uint64) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.bundles[id]; !ok {
		return domain.ErrBundleTypeNotFound
	}
	delete(r.bundles, id)
	return nil
}

func (r *BundleTypeRepository) Upsert(ctx context.Context, bt *domain.BundleType) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for id, existing := range r.bundles {
		if existing.Name == bt.Name {
			bt.ID = id
			bt.CreatedAt = existing.CreatedAt
			r.bundles[id] = *bt
			return nil
		}
	}
	r.insert(bt)
	return nil
}
