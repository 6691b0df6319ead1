package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/KerenDoz/Event-Planner/internal/config"
	"github.com/KerenDoz/Event-Planner/internal/domain/category"
	"github.com/KerenDoz/Event-Planner/internal/domain/event"
	"github.com/KerenDoz/Event-Planner/internal/domain/location"
	"github.com/KerenDoz/Event-Planner/internal/domain/validation"
	"github.com/KerenDoz/Event-Planner/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type EventService interface {
	List(ctx context.Context, f event.ListFilter) ([]event.Summary, error)
	Details(ctx context.Context, id int64, viewerID string) (event.Details, error)
	Create(ctx context.Context, organizerID string, req event.FormRequest) (event.Event, error)
	GetOwned(ctx context.Context, id int64, callerID string) (event.Event, error)
	Update(ctx context.Context, id int64, callerID string, req event.FormRequest) (event.Event, error)
	Delete(ctx context.Context, id int64, callerID string) error
	MyEvents(ctx context.Context, callerID string) ([]event.Summary, error)
}

type CategoryLister interface {
	List(ctx context.Context) ([]category.Category, error)
}

type LocationLister interface {
	List(ctx context.Context) ([]location.Location, error)
}

type EventsHandler struct {
	events     EventService
	categories CategoryLister
	locations  LocationLister
}

func NewEventsHandler(events EventService, categories CategoryLister, locations LocationLister) *EventsHandler {
	return &EventsHandler{events: events, categories: categories, locations: locations}
}

// Option is one dropdown entry.
type Option struct {
	Value int64  `json:"value"`
	Label string `json:"label"`
}

type listFilterResponse struct {
	Search       string `json:"search,omitempty"`
	CategoryID   *int64 `json:"categoryId,omitempty"`
	UpcomingOnly bool   `json:"upcomingOnly"`
}

// List serves the public listing. upcomingOnly defaults to true.
func (h *EventsHandler) List(ctx *gin.Context) {
	filter, ok := parseListFilter(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), crudTimeout)
	defer cancel()

	items, err := h.events.List(cctx, filter)
	if err != nil {
		respondServiceError(ctx, err, "Could not list events")
		return
	}

	options, err := h.categoryOptions(cctx)
	if err != nil {
		respondServiceError(ctx, err, "Could not list events")
		return
	}

	echo := listFilterResponse{CategoryID: filter.CategoryID, UpcomingOnly: filter.UpcomingOnly}
	if filter.Search != nil {
		echo.Search = *filter.Search
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{
		"items":      items,
		"count":      len(items),
		"categories": options,
		"filter":     echo,
	})
}

func parseListFilter(ctx *gin.Context) (event.ListFilter, bool) {
	f := event.ListFilter{UpcomingOnly: true}
	var verr *validation.Error

	if s := strings.TrimSpace(ctx.Query("search")); s != "" {
		f.Search = &s
	}

	if raw := strings.TrimSpace(ctx.Query("categoryId")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			verr = verr.Add("categoryId", "type", "must be a positive integer")
		} else {
			f.CategoryID = &id
		}
	}

	if raw := strings.TrimSpace(ctx.Query("upcomingOnly")); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			verr = verr.Add("upcomingOnly", "type", "must be true or false")
		} else {
			f.UpcomingOnly = b
		}
	}

	if verr != nil {
		RespondBadRequest(ctx, "Invalid query parameters", gin.H{"fields": verr.Fields})
		return event.ListFilter{}, false
	}
	return f, true
}

// Details hides private events from anonymous viewers.
func (h *EventsHandler) Details(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}

	viewerID, _ := middlewares.UserIDFromContext(ctx)

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), crudTimeout)
	defer cancel()

	d, err := h.events.Details(cctx, id, viewerID)
	if err != nil {
		respondServiceError(ctx, err, "Could not fetch event")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, d)
}

func (h *EventsHandler) CreateForm(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), crudTimeout)
	defer cancel()

	public := true
	start := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Hour)
	form := event.FormRequest{
		StartDate: start,
		EndDate:   start.Add(2 * time.Hour),
		Capacity:  event.MinCapacity,
		IsPublic:  &public,
	}

	h.respondForm(cctx, ctx, gin.H{"form": form})
}

func (h *EventsHandler) Create(ctx *gin.Context) {
	callerID, ok := callerFrom(ctx)
	if !ok {
		return
	}

	var req event.FormRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), crudTimeout)
	defer cancel()

	e, err := h.events.Create(cctx, callerID, req)
	if err != nil {
		respondServiceError(ctx, err, "Could not create event")
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"id":         e.ID,
		"event":      e,
		"redirectTo": detailsPath(e.ID),
	})
}

func (h *EventsHandler) EditForm(ctx *gin.Context) {
	e, ok := h.owned(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), crudTimeout)
	defer cancel()

	h.respondForm(cctx, ctx, gin.H{"id": e.ID, "form": event.FormFromEvent(e)})
}

// Edit resolves NotFound and Forbidden before looking at the body, so only
// the organizer ever sees field errors.
func (h *EventsHandler) Edit(ctx *gin.Context) {
	existing, ok := h.owned(ctx)
	if !ok {
		return
	}

	var req event.FormRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), crudTimeout)
	defer cancel()

	e, err := h.events.Update(cctx, existing.ID, existing.OrganizerID, req)
	if err != nil {
		respondServiceError(ctx, err, "Could not update event")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"event": e, "redirectTo": detailsPath(e.ID)})
}

func (h *EventsHandler) DeleteForm(ctx *gin.Context) {
	e, ok := h.owned(ctx)
	if !ok {
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"event": e})
}

func (h *EventsHandler) DeleteConfirmed(ctx *gin.Context) {
	callerID, ok := callerFrom(ctx)
	if !ok {
		return
	}

	id, ok := pathID(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), crudTimeout)
	defer cancel()

	if err := h.events.Delete(cctx, id, callerID); err != nil {
		respondServiceError(ctx, err, "Could not delete event")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"redirectTo": "/events/myevents"})
}

// MyEvents lists public and private events organized by the caller.
func (h *EventsHandler) MyEvents(ctx *gin.Context) {
	callerID, ok := callerFrom(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), crudTimeout)
	defer cancel()

	items, err := h.events.MyEvents(cctx, callerID)
	if err != nil {
		respondServiceError(ctx, err, "Could not list events")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

// owned loads the :id event for a mutation by the caller.
func (h *EventsHandler) owned(ctx *gin.Context) (event.Event, bool) {
	callerID, ok := callerFrom(ctx)
	if !ok {
		return event.Event{}, false
	}

	id, ok := pathID(ctx)
	if !ok {
		return event.Event{}, false
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), crudTimeout)
	defer cancel()

	e, err := h.events.GetOwned(cctx, id, callerID)
	if err != nil {
		respondServiceError(ctx, err, "Could not fetch event")
		return event.Event{}, false
	}
	return e, true
}

// respondForm adds the category and location dropdowns to payload.
func (h *EventsHandler) respondForm(cctx context.Context, ctx *gin.Context, payload gin.H) {
	categories, err := h.categoryOptions(cctx)
	if err != nil {
		respondServiceError(ctx, err, "Could not load form")
		return
	}

	locations, err := h.locationOptions(cctx)
	if err != nil {
		respondServiceError(ctx, err, "Could not load form")
		return
	}

	payload["categories"] = categories
	payload["locations"] = locations

	ctx.JSON(http.StatusOK, payload)
}

func (h *EventsHandler) categoryOptions(ctx context.Context) ([]Option, error) {
	items, err := h.categories.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Option, 0, len(items))
	for _, c := range items {
		out = append(out, Option{Value: c.ID, Label: c.Name})
	}
	return out, nil
}

// already ordered by city then name
func (h *EventsHandler) locationOptions(ctx context.Context) ([]Option, error) {
	items, err := h.locations.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Option, 0, len(items))
	for _, l := range items {
		out = append(out, Option{Value: l.ID, Label: l.Label()})
	}
	return out, nil
}

func callerFrom(ctx *gin.Context) (string, bool) {
	id, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Authentication required")
		return "", false
	}
	return id, true
}

func detailsPath(id int64) string {
	return "/events/details/" + strconv.FormatInt(id, 10)
}
