package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/KerenDoz/Event-Planner/internal/config"
	"github.com/KerenDoz/Event-Planner/internal/domain/location"
	"github.com/KerenDoz/Event-Planner/internal/service"
	"github.com/gin-gonic/gin"
)

const locationsPath = "/locations"

type LocationService interface {
	List(ctx context.Context) ([]location.Location, error)
	Get(ctx context.Context, id int64) (location.Location, error)
	Create(ctx context.Context, req location.FormRequest) (location.Location, error)
	Update(ctx context.Context, id int64, req location.FormRequest) (location.Location, error)
	Delete(ctx context.Context, id int64) error
}

type LocationsHandler struct {
	locations LocationService
}

func NewLocationsHandler(locations LocationService) *LocationsHandler {
	return &LocationsHandler{locations: locations}
}

func (h *LocationsHandler) List(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), crudTimeout)
	defer cancel()

	items, err := h.locations.List(cctx)
	if err != nil {
		respondServiceError(ctx, err, "Could not list locations")
		return
	}

	resp := gin.H{"locations": items}
	if notice := takeFlash(ctx); notice != "" {
		resp["notice"] = notice
	}

	ctx.JSON(http.StatusOK, resp)
}

func (h *LocationsHandler) CreateForm(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"form": location.FormRequest{}})
}

func (h *LocationsHandler) Create(ctx *gin.Context) {
	var req location.FormRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), crudTimeout)
	defer cancel()

	l, err := h.locations.Create(cctx, req)
	if err != nil {
		respondServiceError(ctx, err, "Could not create location")
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"location": l, "redirectTo": locationsPath})
}

func (h *LocationsHandler) EditForm(ctx *gin.Context) {
	l, ok := h.load(ctx)
	if !ok {
		return
	}

	form := location.FormRequest{Name: l.Name, City: l.City}
	if l.Address != nil {
		form.Address = *l.Address
	}

	ctx.JSON(http.StatusOK, gin.H{"location": l, "form": form})
}

func (h *LocationsHandler) Edit(ctx *gin.Context) {
	existing, ok := h.load(ctx)
	if !ok {
		return
	}

	var req location.FormRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), crudTimeout)
	defer cancel()

	l, err := h.locations.Update(cctx, existing.ID, req)
	if err != nil {
		respondServiceError(ctx, err, "Could not update location")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"location": l, "redirectTo": locationsPath})
}

func (h *LocationsHandler) DeleteForm(ctx *gin.Context) {
	l, ok := h.load(ctx)
	if !ok {
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"location": l})
}

func (h *LocationsHandler) DeleteConfirmed(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), crudTimeout)
	defer cancel()

	err := h.locations.Delete(cctx, id)
	if errors.Is(err, location.ErrInUse) {
		setFlash(ctx, service.LocationInUseMessage)
		RespondConflict(ctx, "location_in_use", service.LocationInUseMessage, gin.H{"redirectTo": locationsPath})
		return
	}
	if err != nil {
		respondServiceError(ctx, err, "Could not delete location")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"redirectTo": locationsPath})
}

func (h *LocationsHandler) load(ctx *gin.Context) (location.Location, bool) {
	id, ok := pathID(ctx)
	if !ok {
		return location.Location{}, false
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), crudTimeout)
	defer cancel()

	l, err := h.locations.Get(cctx, id)
	if err != nil {
		respondServiceError(ctx, err, "Could not load location")
		return location.Location{}, false
	}
	return l, true
}
