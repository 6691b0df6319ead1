// Package memory is a map-backed implementation of every store interface.
// It serves tests and STORE_DRIVER=memory and mirrors the constraints the
// postgres schema enforces.
package memory

import (
	"sync"

	"github.com/KerenDoz/Event-Planner/internal/domain/category"
	"github.com/KerenDoz/Event-Planner/internal/domain/event"
	"github.com/KerenDoz/Event-Planner/internal/domain/location"
	"github.com/KerenDoz/Event-Planner/internal/domain/session"
	"github.com/KerenDoz/Event-Planner/internal/domain/user"
)

type Store struct {
	mu sync.RWMutex

	users      map[string]user.User
	categories map[int64]category.Category
	locations  map[int64]location.Location
	events     map[int64]event.Event
	refresh    map[string]session.RefreshToken

	nextCategoryID int64
	nextLocationID int64
	nextEventID    int64
}

func NewStore() *Store {
	return &Store{
		users:      make(map[string]user.User),
		categories: make(map[int64]category.Category),
		locations:  make(map[int64]location.Location),
		events:     make(map[int64]event.Event),
		refresh:    make(map[string]session.RefreshToken),
	}
}

func (s *Store) Users() *UsersRepo                 { return &UsersRepo{s: s} }
func (s *Store) Categories() *CategoriesRepo       { return &CategoriesRepo{s: s} }
func (s *Store) Locations() *LocationsRepo         { return &LocationsRepo{s: s} }
func (s *Store) Events() *EventsRepo               { return &EventsRepo{s: s} }
func (s *Store) RefreshTokens() *RefreshTokensRepo { return &RefreshTokensRepo{s: s} }

func (s *Store) categoryInUse(id int64) bool {
	for _, e := range s.events {
		if e.CategoryID == id {
			return true
		}
	}
	return false
}

func (s *Store) locationInUse(id int64) bool {
	for _, e := range s.events {
		if e.LocationID == id {
			return true
		}
	}
	return false
}
