package service

import (
	"context"
	"testing"
	"time"

	"github.com/KerenDoz/Event-Planner/internal/auth"
	"github.com/KerenDoz/Event-Planner/internal/cache"
	"github.com/KerenDoz/Event-Planner/internal/domain/category"
	"github.com/KerenDoz/Event-Planner/internal/domain/event"
	"github.com/KerenDoz/Event-Planner/internal/domain/location"
	"github.com/KerenDoz/Event-Planner/internal/domain/user"
	"github.com/KerenDoz/Event-Planner/internal/domain/validation"
	"github.com/KerenDoz/Event-Planner/internal/identity"
	"github.com/KerenDoz/Event-Planner/internal/repo/memory"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

type fixture struct {
	store      *memory.Store
	categories *Categories
	locations  *Locations
	events     *Events
	accounts   *Accounts
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	lists := cache.NewLists(cache.New(time.Minute), nil, nil)

	ids := identity.NewService(store.Users())
	sessions := identity.NewSessions(auth.NewManager("test-secret", time.Hour, 24*time.Hour), store.Users(), store.RefreshTokens())

	events := NewEvents(store.Events(), store.Categories(), store.Locations(), nil)
	events.now = func() time.Time { return testNow }

	return &fixture{
		store:      store,
		categories: NewCategories(store.Categories(), lists),
		locations:  NewLocations(store.Locations(), lists),
		events:     events,
		accounts:   NewAccounts(ids, sessions, nil),
	}
}

func (f *fixture) user(t *testing.T, username string) user.User {
	t.Helper()
	u, _, err := f.accounts.Register(context.Background(), user.RegisterRequest{
		Username:        username,
		Email:           username + "@example.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	})
	require.NoError(t, err)
	return u
}

func (f *fixture) category(t *testing.T, name string) category.Category {
	t.Helper()
	c, err := f.categories.Create(context.Background(), category.FormRequest{Name: name})
	require.NoError(t, err)
	return c
}

func (f *fixture) location(t *testing.T, name, city string) location.Location {
	t.Helper()
	l, err := f.locations.Create(context.Background(), location.FormRequest{Name: name, City: city})
	require.NoError(t, err)
	return l
}

func eventForm(title string, categoryID, locationID int64, start time.Time, public bool) event.FormRequest {
	return event.FormRequest{
		Title:       title,
		Description: "A long enough description for the event.",
		StartDate:   start,
		EndDate:     start.Add(2 * time.Hour),
		Capacity:    50,
		IsPublic:    &public,
		CategoryID:  categoryID,
		LocationID:  locationID,
	}
}

// requireFieldError asserts err is a validation failure on field with rule.
func requireFieldError(t *testing.T, err error, field, rule string) {
	t.Helper()

	verr, ok := validation.As(err)
	require.Truef(t, ok, "expected validation error, got %v", err)

	for _, f := range verr.Fields {
		if f.Field == field {
			if rule != "" {
				require.Equal(t, rule, f.Rule, "rule for %s", field)
			}
			return
		}
	}
	t.Fatalf("no error for field %q in %+v", field, verr.Fields)
}
