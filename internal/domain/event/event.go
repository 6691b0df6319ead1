package event

import (
	"errors"
	"time"

	"github.com/KerenDoz/Event-Planner/internal/domain/validation"
)

type Event struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
	Capacity    int       `json:"capacity"`
	IsPublic    bool      `json:"isPublic"`
	CategoryID  int64     `json:"categoryId"`
	LocationID  int64     `json:"locationId"`
	OrganizerID string    `json:"organizerId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Summary is the listing projection.
type Summary struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	StartDate    time.Time `json:"startDate"`
	CategoryName string    `json:"categoryName"`
	City         string    `json:"city"`
	IsPublic     bool      `json:"isPublic"`
}

type Details struct {
	ID                int64     `json:"id"`
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	StartDate         time.Time `json:"startDate"`
	EndDate           time.Time `json:"endDate"`
	Capacity          int       `json:"capacity"`
	IsPublic          bool      `json:"isPublic"`
	CategoryName      string    `json:"categoryName"`
	LocationName      string    `json:"locationName"`
	City              string    `json:"city"`
	Address           *string   `json:"address,omitempty"`
	OrganizerID       string    `json:"-"`
	OrganizerUsername string    `json:"organizerUsername"`
	IsOwner           bool      `json:"isOwner"`
}

// ListFilter is applied in field order: visibility, upcoming, search, category.
type ListFilter struct {
	Search       *string
	CategoryID   *int64
	UpcomingOnly bool
}

var (
	ErrNotFound = errors.New("event not found")
	// the caller is not the organizer
	ErrForbidden = errors.New("only the organizer can change this event")
)

// how far in the past a start date may be when submitted
const StartSkew = time.Minute

const (
	MinCapacity = 1
	MaxCapacity = 5000
)

// FormRequest is shared by create and edit. The organizer is never part of
// the payload.
type FormRequest struct {
	Title       string    `json:"title" binding:"required,min=5,max=80"`
	Description string    `json:"description" binding:"required,min=20,max=800"`
	StartDate   time.Time `json:"startDate" binding:"required"`
	EndDate     time.Time `json:"endDate" binding:"required"`
	Capacity    int       `json:"capacity" binding:"min=1,max=5000"`
	IsPublic    *bool     `json:"isPublic"`
	CategoryID  int64     `json:"categoryId" binding:"required,min=1"`
	LocationID  int64     `json:"locationId" binding:"required,min=1"`
}

// Public defaults to true when the field was omitted.
func (r FormRequest) Public() bool {
	if r.IsPublic == nil {
		return true
	}
	return *r.IsPublic
}

// Validate runs field bounds and the date rules against now.
func (r FormRequest) Validate(now time.Time) error {
	var verr *validation.Error

	if err := validation.Struct(r); err != nil {
		fields, ok := validation.As(err)
		if !ok {
			return err
		}
		verr = fields
	}

	if !r.StartDate.IsZero() && r.StartDate.Before(now.Add(-StartSkew)) {
		verr = verr.Add("startDate", "future", "Start date must be in the future.")
	}

	if !r.StartDate.IsZero() && !r.EndDate.IsZero() && !r.EndDate.After(r.StartDate) {
		verr = verr.Add("endDate", "after_start", "End date must be after start date.")
	}

	return verr.Err()
}

// Apply copies the submitted fields onto e. ID and organizer are untouched.
func (r FormRequest) Apply(e *Event) {
	e.Title = r.Title
	e.Description = r.Description
	e.StartDate = r.StartDate.UTC()
	e.EndDate = r.EndDate.UTC()
	e.Capacity = r.Capacity
	e.IsPublic = r.Public()
	e.CategoryID = r.CategoryID
	e.LocationID = r.LocationID
}

// FormFromEvent pre-fills the edit form.
func FormFromEvent(e Event) FormRequest {
	public := e.IsPublic
	return FormRequest{
		Title:       e.Title,
		Description: e.Description,
		StartDate:   e.StartDate,
		EndDate:     e.EndDate,
		Capacity:    e.Capacity,
		IsPublic:    &public,
		CategoryID:  e.CategoryID,
		LocationID:  e.LocationID,
	}
}
