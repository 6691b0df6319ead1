package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/KerenDoz/Event-Planner/internal/domain/category"
	"github.com/KerenDoz/Event-Planner/internal/domain/event"
	"github.com/KerenDoz/Event-Planner/internal/domain/location"
	"github.com/KerenDoz/Event-Planner/internal/domain/user"
)

type EventsRepo struct {
	s *Store
}

func (r *EventsRepo) Create(ctx context.Context, e event.Event) (event.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.checkReferences(e); err != nil {
		return event.Event{}, err
	}

	r.s.nextEventID++
	now := time.Now().UTC()
	e.ID = r.s.nextEventID
	e.CreatedAt = now
	e.UpdatedAt = now
	r.s.events[e.ID] = e

	return e, nil
}

func (r *EventsRepo) GetByID(ctx context.Context, id int64) (event.Event, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	e, ok := r.s.events[id]
	if !ok {
		return event.Event{}, event.ErrNotFound
	}
	return e, nil
}

func (r *EventsRepo) GetDetails(ctx context.Context, id int64) (event.Details, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	e, ok := r.s.events[id]
	if !ok {
		return event.Details{}, event.ErrNotFound
	}

	c := r.s.categories[e.CategoryID]
	l := r.s.locations[e.LocationID]
	organizer := r.s.users[e.OrganizerID]

	return event.Details{
		ID:                e.ID,
		Title:             e.Title,
		Description:       e.Description,
		StartDate:         e.StartDate,
		EndDate:           e.EndDate,
		Capacity:          e.Capacity,
		IsPublic:          e.IsPublic,
		CategoryName:      c.Name,
		LocationName:      l.Name,
		City:              l.City,
		Address:           l.Address,
		OrganizerID:       e.OrganizerID,
		OrganizerUsername: organizer.Username,
	}, nil
}

func (r *EventsRepo) Update(ctx context.Context, e event.Event) (event.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.events[e.ID]
	if !ok {
		return event.Event{}, event.ErrNotFound
	}

	if err := r.checkReferences(e); err != nil {
		return event.Event{}, err
	}

	e.OrganizerID = existing.OrganizerID
	e.CreatedAt = existing.CreatedAt
	e.UpdatedAt = time.Now().UTC()
	r.s.events[e.ID] = e

	return e, nil
}

func (r *EventsRepo) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.events[id]; !ok {
		return event.ErrNotFound
	}

	delete(r.s.events, id)
	return nil
}

func (r *EventsRepo) ListPublic(ctx context.Context, f event.ListFilter, now time.Time) ([]event.Summary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	matches := make([]event.Event, 0)
	for _, e := range r.s.events {
		if !e.IsPublic {
			continue
		}
		if f.UpcomingOnly && e.StartDate.Before(now) {
			continue
		}
		if f.Search != nil && !strings.Contains(e.Title, *f.Search) {
			continue
		}
		if f.CategoryID != nil && e.CategoryID != *f.CategoryID {
			continue
		}
		matches = append(matches, e)
	}

	return r.summaries(matches), nil
}

func (r *EventsRepo) ListByOrganizer(ctx context.Context, organizerID string) ([]event.Summary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	matches := make([]event.Event, 0)
	for _, e := range r.s.events {
		if e.OrganizerID == organizerID {
			matches = append(matches, e)
		}
	}

	return r.summaries(matches), nil
}

// caller holds the lock
func (r *EventsRepo) summaries(events []event.Event) []event.Summary {
	sort.Slice(events, func(i, j int) bool {
		if !events[i].StartDate.Equal(events[j].StartDate) {
			return events[i].StartDate.Before(events[j].StartDate)
		}
		return events[i].ID < events[j].ID
	})

	out := make([]event.Summary, 0, len(events))
	for _, e := range events {
		out = append(out, event.Summary{
			ID:           e.ID,
			Title:        e.Title,
			StartDate:    e.StartDate,
			CategoryName: r.s.categories[e.CategoryID].Name,
			City:         r.s.locations[e.LocationID].City,
			IsPublic:     e.IsPublic,
		})
	}
	return out
}

// mirrors the foreign keys; caller holds the lock
func (r *EventsRepo) checkReferences(e event.Event) error {
	if _, ok := r.s.categories[e.CategoryID]; !ok {
		return category.ErrNotFound
	}
	if _, ok := r.s.locations[e.LocationID]; !ok {
		return location.ErrNotFound
	}
	if _, ok := r.s.users[e.OrganizerID]; !ok {
		return user.ErrNotFound
	}
	return nil
}
