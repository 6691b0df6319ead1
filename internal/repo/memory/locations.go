package memory

import (
	"context"
	"sort"
	"time"

	"github.com/KerenDoz/Event-Planner/internal/domain/location"
)

type LocationsRepo struct {
	s *Store
}

func (r *LocationsRepo) List(ctx context.Context) ([]location.Location, error) {
	r.s.mu.RLock()
	out := make([]location.Location, 0, len(r.s.locations))
	for _, l := range r.s.locations {
		out = append(out, l)
	}
	r.s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].City != out[j].City {
			return out[i].City < out[j].City
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})

	return out, nil
}

func (r *LocationsRepo) Count(ctx context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return len(r.s.locations), nil
}

func (r *LocationsRepo) GetByID(ctx context.Context, id int64) (location.Location, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	l, ok := r.s.locations[id]
	if !ok {
		return location.Location{}, location.ErrNotFound
	}
	return l, nil
}

func (r *LocationsRepo) Create(ctx context.Context, l location.Location) (location.Location, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.nextLocationID++
	now := time.Now().UTC()
	l.ID = r.s.nextLocationID
	l.CreatedAt = now
	l.UpdatedAt = now
	r.s.locations[l.ID] = l

	return l, nil
}

func (r *LocationsRepo) Update(ctx context.Context, l location.Location) (location.Location, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.locations[l.ID]
	if !ok {
		return location.Location{}, location.ErrNotFound
	}

	existing.Name = l.Name
	existing.City = l.City
	existing.Address = l.Address
	existing.UpdatedAt = time.Now().UTC()
	r.s.locations[l.ID] = existing

	return existing, nil
}

func (r *LocationsRepo) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.locations[id]; !ok {
		return location.ErrNotFound
	}

	if r.s.locationInUse(id) {
		return location.ErrInUse
	}

	delete(r.s.locations, id)
	return nil
}

func (r *LocationsRepo) InUse(ctx context.Context, id int64) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.s.locationInUse(id), nil
}
