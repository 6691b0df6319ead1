package location

import (
	"errors"
	"time"
)

type Location struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	City      string    `json:"city"`
	Address   *string   `json:"address,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

var (
	ErrNotFound = errors.New("location not found")
	ErrInUse    = errors.New("location is in use")
)

type FormRequest struct {
	Name    string `json:"name" binding:"required,min=3,max=60"`
	City    string `json:"city" binding:"required,min=2,max=40"`
	Address string `json:"address" binding:"omitempty,max=80"`
}

// Label is the dropdown text used by the event form.
func (l Location) Label() string {
	return l.City + " - " + l.Name
}
