package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/KerenDoz/Event-Planner/internal/domain/category"
	"github.com/KerenDoz/Event-Planner/internal/domain/location"
)

type CategorySeeder interface {
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, name string) (category.Category, error)
}

type LocationSeeder interface {
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, l location.Location) (location.Location, error)
}

var seedCategories = []string{"Meetup", "Workshop", "Concert", "Sport"}

func seedLocations() []location.Location {
	addr := func(s string) *string { return &s }
	return []location.Location{
		{Name: "Tech Hub", City: "Sofia", Address: addr("Main street 1")},
		{Name: "City Hall", City: "Plovdiv", Address: addr("Center")},
	}
}

// SeedReferenceData fills the categories and locations tables, each only when
// it is empty, so an operator's edits are never overwritten.
func SeedReferenceData(ctx context.Context, cats CategorySeeder, locs LocationSeeder, log *slog.Logger) error {
	n, err := cats.Count(ctx)
	if err != nil {
		return fmt.Errorf("count categories: %w", err)
	}
	if n == 0 {
		for _, name := range seedCategories {
			if _, err := cats.Create(ctx, name); err != nil {
				return fmt.Errorf("seed category %q: %w", name, err)
			}
		}
		log.Info("seeded_categories", "count", len(seedCategories))
	}

	n, err = locs.Count(ctx)
	if err != nil {
		return fmt.Errorf("count locations: %w", err)
	}
	if n == 0 {
		seeds := seedLocations()
		for _, l := range seeds {
			if _, err := locs.Create(ctx, l); err != nil {
				return fmt.Errorf("seed location %q: %w", l.Name, err)
			}
		}
		log.Info("seeded_locations", "count", len(seeds))
	}

	return nil
}
