package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/KerenDoz/Event-Planner/internal/domain/category"
	"github.com/KerenDoz/Event-Planner/internal/domain/event"
	"github.com/KerenDoz/Event-Planner/internal/domain/location"
	"github.com/KerenDoz/Event-Planner/internal/domain/validation"
	"github.com/KerenDoz/Event-Planner/internal/observability"
)

const (
	msgCategoryMissing = "Selected category does not exist."
	msgLocationMissing = "Selected location does not exist."
)

type EventStore interface {
	Create(ctx context.Context, e event.Event) (event.Event, error)
	GetByID(ctx context.Context, id int64) (event.Event, error)
	GetDetails(ctx context.Context, id int64) (event.Details, error)
	Update(ctx context.Context, e event.Event) (event.Event, error)
	Delete(ctx context.Context, id int64) error
	ListPublic(ctx context.Context, f event.ListFilter, now time.Time) ([]event.Summary, error)
	ListByOrganizer(ctx context.Context, organizerID string) ([]event.Summary, error)
}

type CategoryGetter interface {
	GetByID(ctx context.Context, id int64) (category.Category, error)
}

type LocationGetter interface {
	GetByID(ctx context.Context, id int64) (location.Location, error)
}

type Events struct {
	events     EventStore
	categories CategoryGetter
	locations  LocationGetter
	prom       *observability.Prom
	now        func() time.Time
}

func NewEvents(events EventStore, categories CategoryGetter, locations LocationGetter, prom *observability.Prom) *Events {
	return &Events{
		events:     events,
		categories: categories,
		locations:  locations,
		prom:       prom,
		now:        time.Now,
	}
}

// List returns public event summaries. A blank search is ignored.
func (s *Events) List(ctx context.Context, f event.ListFilter) ([]event.Summary, error) {
	if f.Search != nil {
		search := strings.TrimSpace(*f.Search)
		if search == "" {
			f.Search = nil
		} else {
			f.Search = &search
		}
	}

	return s.events.ListPublic(ctx, f, s.now().UTC())
}

// Details hides private events from anonymous viewers (viewerID == "").
// Any signed-in viewer may see them.
func (s *Events) Details(ctx context.Context, id int64, viewerID string) (event.Details, error) {
	d, err := s.events.GetDetails(ctx, id)
	if err != nil {
		return event.Details{}, err
	}

	if !d.IsPublic && viewerID == "" {
		return event.Details{}, event.ErrNotFound
	}

	d.IsOwner = viewerID != "" && viewerID == d.OrganizerID
	return d, nil
}

// Create stores a new event organized by organizerID. Any organizer in the
// request body is ignored; the form type has no such field.
func (s *Events) Create(ctx context.Context, organizerID string, req event.FormRequest) (event.Event, error) {
	req = normalizeEventForm(req)

	if err := s.validate(ctx, req); err != nil {
		s.prom.EventResult("create", "invalid")
		return event.Event{}, err
	}

	e := event.Event{OrganizerID: organizerID}
	req.Apply(&e)

	out, err := s.events.Create(ctx, e)
	if err != nil {
		if verr := referenceError(err); verr != nil {
			s.prom.EventResult("create", "invalid")
			return event.Event{}, verr
		}
		s.prom.EventResult("create", "error")
		return event.Event{}, fmt.Errorf("create event: %w", err)
	}

	s.prom.EventResult("create", "ok")
	return out, nil
}

// GetOwned loads id for a mutation by callerID. A missing event is
// event.ErrNotFound; someone else's is event.ErrForbidden.
func (s *Events) GetOwned(ctx context.Context, id int64, callerID string) (event.Event, error) {
	e, err := s.events.GetByID(ctx, id)
	if err != nil {
		return event.Event{}, err
	}

	if e.OrganizerID != callerID {
		return event.Event{}, event.ErrForbidden
	}
	return e, nil
}

// Update re-runs the create validation against current reference data.
func (s *Events) Update(ctx context.Context, id int64, callerID string, req event.FormRequest) (event.Event, error) {
	e, err := s.GetOwned(ctx, id, callerID)
	if err != nil {
		s.prom.EventResult("edit", outcome(err))
		return event.Event{}, err
	}

	req = normalizeEventForm(req)

	if err := s.validate(ctx, req); err != nil {
		s.prom.EventResult("edit", "invalid")
		return event.Event{}, err
	}

	req.Apply(&e)

	out, err := s.events.Update(ctx, e)
	if err != nil {
		if verr := referenceError(err); verr != nil {
			s.prom.EventResult("edit", "invalid")
			return event.Event{}, verr
		}
		if errors.Is(err, event.ErrNotFound) {
			s.prom.EventResult("edit", "not_found")
			return event.Event{}, err
		}
		s.prom.EventResult("edit", "error")
		return event.Event{}, fmt.Errorf("update event: %w", err)
	}

	s.prom.EventResult("edit", "ok")
	return out, nil
}

// Delete is unconditional for the organizer; nothing references an event.
func (s *Events) Delete(ctx context.Context, id int64, callerID string) error {
	if _, err := s.GetOwned(ctx, id, callerID); err != nil {
		s.prom.EventResult("delete", outcome(err))
		return err
	}

	if err := s.events.Delete(ctx, id); err != nil {
		if errors.Is(err, event.ErrNotFound) {
			s.prom.EventResult("delete", "not_found")
			return err
		}
		s.prom.EventResult("delete", "error")
		return fmt.Errorf("delete event: %w", err)
	}

	s.prom.EventResult("delete", "ok")
	return nil
}

// MyEvents lists every event organized by callerID, public or not, past or upcoming.
func (s *Events) MyEvents(ctx context.Context, callerID string) ([]event.Summary, error) {
	return s.events.ListByOrganizer(ctx, callerID)
}

func (s *Events) validate(ctx context.Context, req event.FormRequest) error {
	err := req.Validate(s.now().UTC())

	verr, ok := validation.As(err)
	if err != nil && !ok {
		return err
	}

	if req.CategoryID > 0 && !verr.Has("categoryId") {
		_, err := s.categories.GetByID(ctx, req.CategoryID)
		switch {
		case errors.Is(err, category.ErrNotFound):
			verr = verr.Add("categoryId", "exists", msgCategoryMissing)
		case err != nil:
			return fmt.Errorf("load category: %w", err)
		}
	}

	if req.LocationID > 0 && !verr.Has("locationId") {
		_, err := s.locations.GetByID(ctx, req.LocationID)
		switch {
		case errors.Is(err, location.ErrNotFound):
			verr = verr.Add("locationId", "exists", msgLocationMissing)
		case err != nil:
			return fmt.Errorf("load location: %w", err)
		}
	}

	return verr.Err()
}

func normalizeEventForm(req event.FormRequest) event.FormRequest {
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	return req
}

// referenceError turns a reference that vanished between validation and
// write into the same field error validation would have produced.
func referenceError(err error) error {
	switch {
	case errors.Is(err, category.ErrNotFound):
		return validation.Field("categoryId", "exists", msgCategoryMissing)
	case errors.Is(err, location.ErrNotFound):
		return validation.Field("locationId", "exists", msgLocationMissing)
	}
	return nil
}

func outcome(err error) string {
	switch {
	case errors.Is(err, event.ErrNotFound):
		return "not_found"
	case errors.Is(err, event.ErrForbidden):
		return "forbidden"
	}
	return "error"
}
