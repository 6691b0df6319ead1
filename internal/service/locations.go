package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/KerenDoz/Event-Planner/internal/cache"
	"github.com/KerenDoz/Event-Planner/internal/domain/location"
	"github.com/KerenDoz/Event-Planner/internal/domain/validation"
)

// LocationInUseMessage is the notice shown when a delete is refused.
const LocationInUseMessage = "Cannot delete this location because it is used by at least one event."

type LocationStore interface {
	List(ctx context.Context) ([]location.Location, error)
	GetByID(ctx context.Context, id int64) (location.Location, error)
	Create(ctx context.Context, l location.Location) (location.Location, error)
	Update(ctx context.Context, l location.Location) (location.Location, error)
	Delete(ctx context.Context, id int64) error
	InUse(ctx context.Context, id int64) (bool, error)
}

type Locations struct {
	store LocationStore
	lists *cache.Lists
}

func NewLocations(store LocationStore, lists *cache.Lists) *Locations {
	return &Locations{store: store, lists: lists}
}

// List is ordered by city, then name.
func (s *Locations) List(ctx context.Context) ([]location.Location, error) {
	return cache.Load(ctx, s.lists, cache.KeyLocations, s.store.List)
}

func (s *Locations) Get(ctx context.Context, id int64) (location.Location, error) {
	return s.store.GetByID(ctx, id)
}

func (s *Locations) Create(ctx context.Context, req location.FormRequest) (location.Location, error) {
	l, err := normalizeLocation(req)
	if err != nil {
		return location.Location{}, err
	}

	out, err := s.store.Create(ctx, l)
	if err != nil {
		return location.Location{}, fmt.Errorf("create location: %w", err)
	}

	s.lists.Invalidate(ctx, cache.KeyLocations)
	return out, nil
}

func (s *Locations) Update(ctx context.Context, id int64, req location.FormRequest) (location.Location, error) {
	if _, err := s.store.GetByID(ctx, id); err != nil {
		return location.Location{}, err
	}

	l, err := normalizeLocation(req)
	if err != nil {
		return location.Location{}, err
	}
	l.ID = id

	out, err := s.store.Update(ctx, l)
	if err != nil {
		if errors.Is(err, location.ErrNotFound) {
			return location.Location{}, err
		}
		return location.Location{}, fmt.Errorf("update location: %w", err)
	}

	s.lists.Invalidate(ctx, cache.KeyLocations)
	return out, nil
}

// Delete refuses with location.ErrInUse while any event references id.
func (s *Locations) Delete(ctx context.Context, id int64) error {
	if _, err := s.store.GetByID(ctx, id); err != nil {
		return err
	}

	used, err := s.store.InUse(ctx, id)
	if err != nil {
		return fmt.Errorf("check location usage: %w", err)
	}
	if used {
		return location.ErrInUse
	}

	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, location.ErrInUse) || errors.Is(err, location.ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete location: %w", err)
	}

	s.lists.Invalidate(ctx, cache.KeyLocations)
	return nil
}

// normalizeLocation trims every field and stores a blank address as NULL.
func normalizeLocation(req location.FormRequest) (location.Location, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.City = strings.TrimSpace(req.City)
	req.Address = strings.TrimSpace(req.Address)

	if err := validation.Struct(req); err != nil {
		return location.Location{}, err
	}

	l := location.Location{Name: req.Name, City: req.City}
	if req.Address != "" {
		addr := req.Address
		l.Address = &addr
	}
	return l, nil
}
