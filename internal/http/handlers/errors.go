package handlers

import (
	"errors"
	"strconv"

	"github.com/KerenDoz/Event-Planner/internal/domain/category"
	"github.com/KerenDoz/Event-Planner/internal/domain/event"
	"github.com/KerenDoz/Event-Planner/internal/domain/location"
	"github.com/KerenDoz/Event-Planner/internal/domain/session"
	"github.com/KerenDoz/Event-Planner/internal/domain/user"
	"github.com/KerenDoz/Event-Planner/internal/domain/validation"
	"github.com/KerenDoz/Event-Planner/internal/service"
	"github.com/gin-gonic/gin"
)

// respondServiceError maps domain errors onto the error envelope. Anything
// unrecognised is attached to the gin context for the request logger and
// answered with a generic 500 carrying fallback.
func respondServiceError(ctx *gin.Context, err error, fallback string) {
	if verr, ok := validation.As(err); ok {
		RespondValidation(ctx, verr)
		return
	}

	switch {
	case errors.Is(err, event.ErrNotFound):
		RespondNotFound(ctx, "Event not found")
	case errors.Is(err, category.ErrNotFound):
		RespondNotFound(ctx, "Category not found")
	case errors.Is(err, location.ErrNotFound):
		RespondNotFound(ctx, "Location not found")
	case errors.Is(err, user.ErrNotFound):
		RespondNotFound(ctx, "User not found")
	case errors.Is(err, event.ErrForbidden):
		RespondForbidden(ctx, "Only the organizer can change this event.")
	case errors.Is(err, user.ErrInvalidLogin):
		RespondUnauthorized(ctx, "invalid_login", service.InvalidLoginMessage)
	case errors.Is(err, session.ErrInvalidSession):
		RespondUnauthorized(ctx, "invalid_session", "Session expired. Please log in again.")
	default:
		_ = ctx.Error(err)
		RespondInternal(ctx, fallback)
	}
}

// pathID reads the :id segment. Anything that is not a positive integer
// cannot name a row, so it is a 404 like an unknown id.
func pathID(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		RespondNotFound(ctx, "Not found")
		return 0, false
	}
	return id, true
}
