// Package service holds the business rules behind each controller:
// uniqueness, ownership and referential guards on top of the stores.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/KerenDoz/Event-Planner/internal/cache"
	"github.com/KerenDoz/Event-Planner/internal/domain/category"
	"github.com/KerenDoz/Event-Planner/internal/domain/validation"
)

const msgCategoryDuplicate = "This category already exists."

// CategoryInUseMessage is the notice shown when a delete is refused.
const CategoryInUseMessage = "Cannot delete this category because it is used by at least one event."

type CategoryStore interface {
	List(ctx context.Context) ([]category.Category, error)
	GetByID(ctx context.Context, id int64) (category.Category, error)
	NameExists(ctx context.Context, name string, excludeID int64) (bool, error)
	Create(ctx context.Context, name string) (category.Category, error)
	Update(ctx context.Context, id int64, name string) (category.Category, error)
	Delete(ctx context.Context, id int64) error
	InUse(ctx context.Context, id int64) (bool, error)
}

type Categories struct {
	store CategoryStore
	lists *cache.Lists
}

func NewCategories(store CategoryStore, lists *cache.Lists) *Categories {
	return &Categories{store: store, lists: lists}
}

// List returns every category ordered by name.
func (s *Categories) List(ctx context.Context) ([]category.Category, error) {
	return cache.Load(ctx, s.lists, cache.KeyCategories, s.store.List)
}

func (s *Categories) Get(ctx context.Context, id int64) (category.Category, error) {
	return s.store.GetByID(ctx, id)
}

func (s *Categories) Create(ctx context.Context, req category.FormRequest) (category.Category, error) {
	req.Name = strings.TrimSpace(req.Name)

	if err := s.validate(ctx, req, 0); err != nil {
		return category.Category{}, err
	}

	c, err := s.store.Create(ctx, req.Name)
	if err != nil {
		if errors.Is(err, category.ErrDuplicateName) {
			return category.Category{}, duplicateCategory()
		}
		return category.Category{}, fmt.Errorf("create category: %w", err)
	}

	s.lists.Invalidate(ctx, cache.KeyCategories)
	return c, nil
}

// Update renames a category. Any authenticated user may do this; categories
// have no owner.
func (s *Categories) Update(ctx context.Context, id int64, req category.FormRequest) (category.Category, error) {
	if _, err := s.store.GetByID(ctx, id); err != nil {
		return category.Category{}, err
	}

	req.Name = strings.TrimSpace(req.Name)

	if err := s.validate(ctx, req, id); err != nil {
		return category.Category{}, err
	}

	c, err := s.store.Update(ctx, id, req.Name)
	if err != nil {
		if errors.Is(err, category.ErrDuplicateName) {
			return category.Category{}, duplicateCategory()
		}
		if errors.Is(err, category.ErrNotFound) {
			return category.Category{}, err
		}
		return category.Category{}, fmt.Errorf("update category: %w", err)
	}

	s.lists.Invalidate(ctx, cache.KeyCategories)
	return c, nil
}

// Delete refuses with category.ErrInUse while any event references id.
func (s *Categories) Delete(ctx context.Context, id int64) error {
	if _, err := s.store.GetByID(ctx, id); err != nil {
		return err
	}

	used, err := s.store.InUse(ctx, id)
	if err != nil {
		return fmt.Errorf("check category usage: %w", err)
	}
	if used {
		return category.ErrInUse
	}

	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, category.ErrInUse) || errors.Is(err, category.ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete category: %w", err)
	}

	s.lists.Invalidate(ctx, cache.KeyCategories)
	return nil
}

// the exists pre-check only gives a friendly error; UNIQUE(name) is authoritative
func (s *Categories) validate(ctx context.Context, req category.FormRequest, excludeID int64) error {
	if err := validation.Struct(req); err != nil {
		return err
	}

	exists, err := s.store.NameExists(ctx, req.Name, excludeID)
	if err != nil {
		return fmt.Errorf("check category name: %w", err)
	}
	if exists {
		return duplicateCategory()
	}
	return nil
}

func duplicateCategory() error {
	return validation.Field("name", "duplicate", msgCategoryDuplicate)
}
