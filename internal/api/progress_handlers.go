package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"sdgtrack/internal/engine"
	"sdgtrack/internal/report"
	"sdgtrack/internal/tracker"
)

func parseUintParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Invalid " + name}})
		return 0, false
	}
	return uint(id), true
}

// Dates on trend queries are plain days, e.g. ?from=2020-01-01.
func parseDateQuery(c *gin.Context, name string, fallback time.Time) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, true
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Invalid " + name + " date, expected YYYY-MM-DD"}})
		return time.Time{}, false
	}
	return t, true
}

// GET /goals/:id/progress
func GoalProgressHandler(svc *tracker.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		goalID, ok := parseUintParam(c, "id")
		if !ok {
			return
		}
		progress, err := svc.GoalProgress(c.Request.Context(), goalID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"message": "Goal not found"}})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": err.Error()}})
			return
		}
		c.JSON(http.StatusOK, progress)
	}
}

// GET /goals/:id/indicators/:gi/tree
func IndicatorTreeHandler(svc *tracker.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		goalID, ok := parseUintParam(c, "id")
		if !ok {
			return
		}
		bindingID, ok := parseUintParam(c, "gi")
		if !ok {
			return
		}
		tree, err := svc.IndicatorTree(c.Request.Context(), goalID, bindingID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"message": "Goal indicator not found"}})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": err.Error()}})
			return
		}
		c.JSON(http.StatusOK, tree)
	}
}

// GET /goals/:id/indicators/:gi/trend?granularity=year|month&from=...&to=...
func IndicatorTrendHandler(svc *tracker.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		goalID, ok := parseUintParam(c, "id")
		if !ok {
			return
		}
		bindingID, ok := parseUintParam(c, "gi")
		if !ok {
			return
		}

		var g engine.Granularity
		switch c.DefaultQuery("granularity", "year") {
		case "year":
			g = engine.GranularityYear
		case "month":
			g = engine.GranularityMonth
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "granularity must be year or month"}})
			return
		}
		from, ok := parseDateQuery(c, "from", time.Time{})
		if !ok {
			return
		}
		to, ok := parseDateQuery(c, "to", time.Now())
		if !ok {
			return
		}

		trend, err := svc.GoalIndicatorTrend(c.Request.Context(), goalID, bindingID, g, from, to)
		if err != nil {
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"message": "Goal indicator not found"}})
			case errors.Is(err, engine.ErrNoTemporalData):
				c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"message": "No observations in range"}})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": err.Error()}})
			}
			return
		}
		c.JSON(http.StatusOK, trend)
	}
}

// GET /projects/:id/progress
func ProjectProgressHandler(svc *tracker.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID, ok := parseUintParam(c, "id")
		if !ok {
			return
		}
		progress, err := svc.ProjectProgress(c.Request.Context(), projectID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"message": "Project not found"}})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": err.Error()}})
			return
		}
		c.JSON(http.StatusOK, progress)
	}
}

// POST /goals/:id/report
func GoalReportHandler(gen *report.Generator) gin.HandlerFunc {
	return func(c *gin.Context) {
		goalID, ok := parseUintParam(c, "id")
		if !ok {
			return
		}
		path, err := gen.GoalReport(c.Request.Context(), goalID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"message": "Goal not found"}})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": err.Error()}})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"file": path})
	}
}
