package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/remotelyhq/jobradar/internal/api/dto"
	"github.com/remotelyhq/jobradar/internal/refresh"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// SearchJobs handles GET /api/v1/jobs
// Aggregates postings across sources with filtering and ranking
func (h *JobHandler) SearchJobs(c *gin.Context) {
	var req dto.SearchJobsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.Error("Invalid query parameters", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid query parameters",
		})
		return
	}

	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = defaultPageSize
	}
	if req.PageSize > maxPageSize {
		req.PageSize = maxPageSize
	}

	h.logger.Info("SearchJobs called",
		slog.String("query", req.Query),
		slog.Int("page", req.Page),
		slog.Int("page_size", req.PageSize),
	)

	result := h.loader.Load(c.Request.Context(), req.Query, req.Filters(), req.Page, req.PageSize)
	c.JSON(http.StatusOK, result)
}

// ForceRefresh handles POST /api/v1/refresh
// Kicks off a refresh cycle; an overlapping request is rejected
func (h *JobHandler) ForceRefresh(c *gin.Context) {
	h.logger.Info("ForceRefresh called")

	if err := h.refresher.ForceRefresh(c.Request.Context()); err != nil {
		if errors.Is(err, refresh.ErrRefreshInProgress) {
			c.JSON(http.StatusConflict, gin.H{
				"error": "refresh already in progress",
			})
			return
		}
		h.logger.Error("Refresh failed", slog.String("error", err.Error()))
		c.JSON(http.StatusBadGateway, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, h.refresher.Status())
}

// RefreshStatus handles GET /api/v1/refresh/status
func (h *JobHandler) RefreshStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.refresher.Status())
}

// GetCategories handles GET /api/v1/categories
// Buckets the current snapshot into role categories
func (h *JobHandler) GetCategories(c *gin.Context) {
	snapshot := h.refresher.Current()
	categories := h.ranker.Categorize(snapshot)

	out := make([]dto.CategoryDTO, len(categories))
	for i, cat := range categories {
		out[i] = dto.CategoryDTO{ID: cat.ID, Label: cat.Label, Count: cat.Count}
	}

	c.JSON(http.StatusOK, dto.CategoriesResponse{
		Categories: out,
		Total:      len(snapshot),
	})
}

// GetStats handles GET /api/v1/stats
func (h *JobHandler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"cache":   h.cache.Stats(),
		"refresh": h.refresher.Status(),
	})
}
