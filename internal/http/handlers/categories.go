package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/KerenDoz/Event-Planner/internal/config"
	"github.com/KerenDoz/Event-Planner/internal/domain/category"
	"github.com/KerenDoz/Event-Planner/internal/service"
	"github.com/gin-gonic/gin"
)

const (
	categoriesPath = "/categories"
	crudTimeout    = 2 * time.Second
)

type CategoryService interface {
	List(ctx context.Context) ([]category.Category, error)
	Get(ctx context.Context, id int64) (category.Category, error)
	Create(ctx context.Context, req category.FormRequest) (category.Category, error)
	Update(ctx context.Context, id int64, req category.FormRequest) (category.Category, error)
	Delete(ctx context.Context, id int64) error
}

type CategoriesHandler struct {
	categories CategoryService
}

func NewCategoriesHandler(categories CategoryService) *CategoriesHandler {
	return &CategoriesHandler{categories: categories}
}

// List includes the notice left by a refused delete, once.
func (h *CategoriesHandler) List(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), crudTimeout)
	defer cancel()

	items, err := h.categories.List(cctx)
	if err != nil {
		respondServiceError(ctx, err, "Could not list categories")
		return
	}

	resp := gin.H{"categories": items}
	if notice := takeFlash(ctx); notice != "" {
		resp["notice"] = notice
	}

	ctx.JSON(http.StatusOK, resp)
}

func (h *CategoriesHandler) CreateForm(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"form": category.FormRequest{}})
}

func (h *CategoriesHandler) Create(ctx *gin.Context) {
	var req category.FormRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), crudTimeout)
	defer cancel()

	c, err := h.categories.Create(cctx, req)
	if err != nil {
		respondServiceError(ctx, err, "Could not create category")
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"category": c, "redirectTo": categoriesPath})
}

func (h *CategoriesHandler) EditForm(ctx *gin.Context) {
	c, ok := h.load(ctx)
	if !ok {
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"category": c,
		"form":     category.FormRequest{Name: c.Name},
	})
}

func (h *CategoriesHandler) Edit(ctx *gin.Context) {
	existing, ok := h.load(ctx)
	if !ok {
		return
	}

	var req category.FormRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), crudTimeout)
	defer cancel()

	c, err := h.categories.Update(cctx, existing.ID, req)
	if err != nil {
		respondServiceError(ctx, err, "Could not update category")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"category": c, "redirectTo": categoriesPath})
}

// DeleteForm returns what the confirmation prompt shows.
func (h *CategoriesHandler) DeleteForm(ctx *gin.Context) {
	c, ok := h.load(ctx)
	if !ok {
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"category": c})
}

func (h *CategoriesHandler) DeleteConfirmed(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), crudTimeout)
	defer cancel()

	err := h.categories.Delete(cctx, id)
	if errors.Is(err, category.ErrInUse) {
		setFlash(ctx, service.CategoryInUseMessage)
		RespondConflict(ctx, "category_in_use", service.CategoryInUseMessage, gin.H{"redirectTo": categoriesPath})
		return
	}
	if err != nil {
		respondServiceError(ctx, err, "Could not delete category")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"redirectTo": categoriesPath})
}

func (h *CategoriesHandler) load(ctx *gin.Context) (category.Category, bool) {
	id, ok := pathID(ctx)
	if !ok {
		return category.Category{}, false
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), crudTimeout)
	defer cancel()

	c, err := h.categories.Get(cctx, id)
	if err != nil {
		respondServiceError(ctx, err, "Could not load category")
		return category.Category{}, false
	}
	return c, true
}
