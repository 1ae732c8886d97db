package handlers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"property-appraisal/internal/cleanup"
	"property-appraisal/internal/inference"
	"property-appraisal/internal/models"
	"property-appraisal/internal/ratelimit"
	"property-appraisal/internal/scheduler"
	"property-appraisal/internal/store"

	"github.com/gin-gonic/gin"
)

// AdminHandler handles admin-related requests
type AdminHandler struct {
	store          store.Store
	scheduler      *scheduler.Scheduler
	cleanupService *cleanup.Service
	breaker        *inference.CircuitBreaker
	limiter        *ratelimit.RateLimiter
}

// NewAdminHandler creates a new admin handler. scheduler, breaker and
// limiter may be nil.
func NewAdminHandler(s store.Store, sched *scheduler.Scheduler, cleanupService *cleanup.Service, breaker *inference.CircuitBreaker, limiter *ratelimit.RateLimiter) *AdminHandler {
	return &AdminHandler{
		store:          s,
		scheduler:      sched,
		cleanupService: cleanupService,
		breaker:        breaker,
		limiter:        limiter,
	}
}

// GetStats returns system statistics
func (h *AdminHandler) GetStats(c *gin.Context) {
	stats := make(map[string]interface{})

	total, err := h.store.CountProperties()
	if err != nil {
		log.Printf("Admin: failed to count properties: %v", err)
	}
	stats["properties"] = map[string]interface{}{
		"total": total,
	}

	runs, err := h.store.RecentRuns(100)
	if err != nil {
		log.Printf("Admin: failed to load recent runs: %v", err)
	} else {
		var running, completed, failed int
		for _, run := range runs {
			switch run.Status {
			case models.RunStatusRunning:
				running++
			case models.RunStatusCompleted:
				completed++
			case models.RunStatusFailed:
				failed++
			}
		}
		stats["recent_runs"] = map[string]interface{}{
			"sampled":   len(runs),
			"running":   running,
			"completed": completed,
			"failed":    failed,
		}
	}

	if h.breaker != nil {
		isOpen, failures, totalRequests := h.breaker.GetStatus()
		stats["inference"] = map[string]interface{}{
			"breaker_open":   isOpen,
			"failures":       failures,
			"total_requests": totalRequests,
		}
	}

	if h.limiter != nil {
		stats["rate_limit"] = h.limiter.GetStats()
	}

	c.JSON(http.StatusOK, stats)
}

// GetRecentRuns returns recent pipeline runs
func (h *AdminHandler) GetRecentRuns(c *gin.Context) {
	limitStr := c.DefaultQuery("limit", "50")
	limit, _ := strconv.Atoi(limitStr)

	runs, err := h.store.RecentRuns(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"runs":  runs,
		"count": len(runs),
	})
}

// GetOrphans lists processing properties older than the retention window
// without deleting anything
func (h *AdminHandler) GetOrphans(c *gin.Context) {
	retention := cleanup.DefaultSweepConfig().Retention
	if hoursStr := c.Query("retention_hours"); hoursStr != "" {
		hours, err := strconv.Atoi(hoursStr)
		if err != nil || hours < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "retention_hours must be a non-negative integer"})
			return
		}
		retention = time.Duration(hours) * time.Hour
	}

	orphans, err := h.cleanupService.FindOrphans(retention)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orphans":         orphans,
		"count":           len(orphans),
		"retention_hours": retention.Hours(),
	})
}

// TriggerSweep manually triggers the orphan sweep
func (h *AdminHandler) TriggerSweep(c *gin.Context) {
	if h.scheduler == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "scheduler not available"})
		return
	}

	log.Println("Admin: manual sweep trigger requested")

	// Run in goroutine to avoid blocking
	go func() {
		if result, err := h.scheduler.RunNow(); err != nil {
			log.Printf("Admin: manual sweep failed: %v", err)
		} else {
			log.Printf("Admin: manual sweep completed: %d/%d deleted", result.DeletedCount, result.TargetCount)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"message": "Sweep started",
		"status":  "running",
	})
}

// RunCleanup executes the orphan sweep with custom parameters
func (h *AdminHandler) RunCleanup(c *gin.Context) {
	var req struct {
		RetentionHours   int  `json:"retention_hours"`    // Hours before a processing property counts as orphaned
		MaxDeletionCount int  `json:"max_deletion_count"` // Safety limit
		DryRun           bool `json:"dry_run"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	config := cleanup.DefaultSweepConfig()
	if req.RetentionHours > 0 {
		config.Retention = time.Duration(req.RetentionHours) * time.Hour
	}
	if req.MaxDeletionCount > 0 {
		config.MaxDeletionCount = req.MaxDeletionCount
	}
	config.DryRun = req.DryRun

	log.Printf("Admin: running sweep (retention: %v, max: %d, dry-run: %v)",
		config.Retention, config.MaxDeletionCount, config.DryRun)

	result, err := h.cleanupService.Sweep(config)
	if err != nil {
		log.Printf("Admin: sweep failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	log.Printf("Admin: sweep completed: %d/%d deleted (dry-run: %v)",
		result.DeletedCount, result.TargetCount, result.DryRun)

	c.JSON(http.StatusOK, result)
}

// GetDeleteLogs returns recent delete log entries
func (h *AdminHandler) GetDeleteLogs(c *gin.Context) {
	limitStr := c.DefaultQuery("limit", "100")
	limit, _ := strconv.Atoi(limitStr)

	logs, err := h.cleanupService.GetRecentDeleteLogs(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"logs":  logs,
		"count": len(logs),
	})
}

// GetInferenceStatus returns the circuit breaker state
func (h *AdminHandler) GetInferenceStatus(c *gin.Context) {
	if h.breaker == nil {
		c.JSON(http.StatusOK, gin.H{"breaker_open": false, "message": "circuit breaker not configured"})
		return
	}

	isOpen, failures, total := h.breaker.GetStatus()
	c.JSON(http.StatusOK, gin.H{
		"breaker_open":   isOpen,
		"failures":       failures,
		"total_requests": total,
	})
}

// GetRateLimitStats returns rate limiter statistics
func (h *AdminHandler) GetRateLimitStats(c *gin.Context) {
	if h.limiter == nil {
		c.JSON(http.StatusOK, ratelimit.Stats{Enabled: false})
		return
	}
	c.JSON(http.StatusOK, h.limiter.GetStats())
}
