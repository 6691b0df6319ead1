package category

import (
	"errors"
	"time"
)

type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

var (
	ErrNotFound      = errors.New("category not found")
	ErrDuplicateName = errors.New("category name already exists")
	// referenced by at least one event
	ErrInUse = errors.New("category is in use")
)

type FormRequest struct {
	Name string `json:"name" binding:"required,min=3,max=30"`
}
