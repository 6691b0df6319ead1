package memory

import (
	"context"
	"sort"
	"time"

	"github.com/KerenDoz/Event-Planner/internal/domain/category"
)

type CategoriesRepo struct {
	s *Store
}

func (r *CategoriesRepo) List(ctx context.Context) ([]category.Category, error) {
	r.s.mu.RLock()
	out := make([]category.Category, 0, len(r.s.categories))
	for _, c := range r.s.categories {
		out = append(out, c)
	}
	r.s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})

	return out, nil
}

func (r *CategoriesRepo) Count(ctx context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return len(r.s.categories), nil
}

func (r *CategoriesRepo) GetByID(ctx context.Context, id int64) (category.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.categories[id]
	if !ok {
		return category.Category{}, category.ErrNotFound
	}
	return c, nil
}

func (r *CategoriesRepo) NameExists(ctx context.Context, name string, excludeID int64) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.nameTaken(name, excludeID), nil
}

func (r *CategoriesRepo) Create(ctx context.Context, name string) (category.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.nameTaken(name, 0) {
		return category.Category{}, category.ErrDuplicateName
	}

	r.s.nextCategoryID++
	now := time.Now().UTC()
	c := category.Category{ID: r.s.nextCategoryID, Name: name, CreatedAt: now, UpdatedAt: now}
	r.s.categories[c.ID] = c

	return c, nil
}

func (r *CategoriesRepo) Update(ctx context.Context, id int64, name string) (category.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.categories[id]
	if !ok {
		return category.Category{}, category.ErrNotFound
	}

	if r.nameTaken(name, id) {
		return category.Category{}, category.ErrDuplicateName
	}

	c.Name = name
	c.UpdatedAt = time.Now().UTC()
	r.s.categories[id] = c

	return c, nil
}

func (r *CategoriesRepo) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.categories[id]; !ok {
		return category.ErrNotFound
	}

	if r.s.categoryInUse(id) {
		return category.ErrInUse
	}

	delete(r.s.categories, id)
	return nil
}

func (r *CategoriesRepo) InUse(ctx context.Context, id int64) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.s.categoryInUse(id), nil
}

// case-exact, like the UNIQUE(name) constraint
func (r *CategoriesRepo) nameTaken(name string, excludeID int64) bool {
	for id, c := range r.s.categories {
		if id != excludeID && c.Name == name {
			return true
		}
	}
	return false
}
