package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"property-appraisal/internal/history"
	"property-appraisal/internal/models"
	"property-appraisal/internal/pipeline"
	"property-appraisal/internal/ratelimit"
	"property-appraisal/internal/search"
	"property-appraisal/internal/store"

	"github.com/gin-gonic/gin"
)

// PropertyHandler handles property digitization and query requests
type PropertyHandler struct {
	pipeline *pipeline.Pipeline
	store    store.Store
	history  *history.Service
	search   *search.SearchClient
	limiter  *ratelimit.RateLimiter
}

// NewPropertyHandler creates a new property handler. search and limiter
// may be nil.
func NewPropertyHandler(p *pipeline.Pipeline, s store.Store, h *history.Service, sc *search.SearchClient, rl *ratelimit.RateLimiter) *PropertyHandler {
	return &PropertyHandler{
		pipeline: p,
		store:    s,
		history:  h,
		search:   sc,
		limiter:  rl,
	}
}

// Digitize runs the full digitization pipeline synchronously and returns
// the completed record with its reports.
func (h *PropertyHandler) Digitize(c *gin.Context) {
	if h.limiter != nil && !h.limiter.AllowRequest() {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded, please retry later"})
		return
	}

	var req pipeline.DigitizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.pipeline.Digitize(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, pipeline.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		var stageErr *pipeline.StageError
		if errors.As(err, &stageErr) {
			log.Printf("Handlers: digitization failed at stage %s: %v", stageErr.Stage, stageErr.Err)
			c.JSON(http.StatusBadGateway, gin.H{
				"error": "digitization failed",
				"stage": stageErr.Stage,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, result)
}

// Revalue recomputes a completed property's appraisal
func (h *PropertyHandler) Revalue(c *gin.Context) {
	if h.limiter != nil && !h.limiter.AllowRequest() {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded, please retry later"})
		return
	}

	var req pipeline.RevalueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.pipeline.Revalue(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		switch {
		case errors.Is(err, pipeline.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "property not found"})
		case errors.Is(err, pipeline.ErrNotCompleted):
			c.JSON(http.StatusConflict, gin.H{"error": "property has not completed digitization"})
		default:
			var stageErr *pipeline.StageError
			if errors.As(err, &stageErr) {
				log.Printf("Handlers: revaluation failed at stage %s: %v", stageErr.Stage, stageErr.Err)
				c.JSON(http.StatusBadGateway, gin.H{
					"error": "revaluation failed",
					"stage": stageErr.Stage,
				})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetProperty returns a property with its components
func (h *PropertyHandler) GetProperty(c *gin.Context) {
	id := c.Param("id")

	property, err := h.store.GetProperty(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "property not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	components, err := h.store.ComponentsByProperty(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"property":   property,
		"components": components,
	})
}

// GetReports returns all reports for a property
func (h *PropertyHandler) GetReports(c *gin.Context) {
	id := c.Param("id")

	if _, err := h.store.GetProperty(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "property not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	reports, err := h.store.ReportsByProperty(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"property_id": id,
		"reports":     reports,
		"count":       len(reports),
	})
}

// GetReportByType returns a single report selected by its type
func (h *PropertyHandler) GetReportByType(c *gin.Context) {
	id := c.Param("id")
	reportType := c.Param("type")

	if models.ReportType(reportType) != models.ReportTypeInspection && models.ReportType(reportType) != models.ReportTypeAppraisal {
		c.JSON(http.StatusBadRequest, gin.H{"error": "report type must be inspection or appraisal"})
		return
	}

	report, err := h.store.ReportByType(id, reportType)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, report)
}

// GetHistory returns the valuation history for a property
func (h *PropertyHandler) GetHistory(c *gin.Context) {
	id := c.Param("id")

	if _, err := h.store.GetProperty(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "property not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	entries, err := h.history.History(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"property_id": id,
		"history":     entries,
		"count":       len(entries),
	})
}

// Search queries the property search index
func (h *PropertyHandler) Search(c *gin.Context) {
	if h.search == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "search is not configured"})
		return
	}

	query := c.Query("q")
	limitStr := c.DefaultQuery("limit", "20")
	limit, err := strconv.ParseInt(limitStr, 10, 64)
	if err != nil || limit <= 0 {
		limit = 20
	}

	req := search.SearchRequest{
		Query: query,
		Limit: limit,
	}
	if classification := c.Query("classification"); classification != "" {
		req.Filter = append(req.Filter, "classification = "+strconv.Quote(classification))
	}
	if propertyType := c.Query("property_type"); propertyType != "" {
		req.Filter = append(req.Filter, "property_type = "+strconv.Quote(propertyType))
	}
	if sort := c.Query("sort"); sort != "" {
		switch sort {
		case "value_asc":
			req.Sort = []string{"appraised_value:asc"}
		case "value_desc":
			req.Sort = []string{"appraised_value:desc"}
		case "newest":
			req.Sort = []string{"created_at:desc"}
		}
	}
	req.Filter = append(req.Filter, "status = "+strconv.Quote(string(models.PropertyStatusCompleted)))

	result, err := h.search.AdvancedSearch(req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"hits":               result.Hits,
		"total_hits":         result.TotalHits,
		"processing_time_ms": result.ProcessingTime,
	})
}
