package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/richd0tcom/sensoria/internal/domain"
	"github.com/richd0tcom/sensoria/internal/repo"
)

func (s *Server) handleCreate(c *gin.Context, t domain.SensorType) {
	var in domain.NewRecord
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "invalid request body",
			"error":   err.Error(),
		})
		return
	}

	rec, err := s.sensors.Create(c.Request.Context(), t, in)
	if err != nil {
		s.fail(c, "failed to create sensor reading", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "sensor reading created",
		"data":    rec,
	})
}

func (s *Server) handleList(c *gin.Context, t domain.SensorType) {
	opts, err := listOptions(c, t)
	if err != nil {
		s.fail(c, "invalid query parameters", err)
		return
	}

	page, err := s.sensors.FindAll(c.Request.Context(), opts)
	if err != nil {
		s.fail(c, "failed to list sensor readings", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    "sensor readings retrieved",
		"count":      len(page.Records),
		"data":       page.Records,
		"pagination": page.Pagination,
	})
}

func (s *Server) handleGet(c *gin.Context, t domain.SensorType) {
	rec, err := s.sensors.FindByID(c.Request.Context(), c.Param("id"), t)
	if err != nil {
		s.fail(c, "failed to get sensor reading", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "sensor reading retrieved",
		"data":    rec,
	})
}

// handleFind probes every enumerated collection for the id.
func (s *Server) handleFind(c *gin.Context) {
	s.handleGet(c, "")
}

func (s *Server) handleUpdate(c *gin.Context, t domain.SensorType) {
	var patch domain.RecordPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "invalid request body",
			"error":   err.Error(),
		})
		return
	}

	rec, err := s.sensors.Update(c.Request.Context(), t, c.Param("id"), patch)
	if err != nil {
		s.fail(c, "failed to update sensor reading", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "sensor reading updated",
		"data":    rec,
	})
}

func (s *Server) handleDelete(c *gin.Context, t domain.SensorType) {
	rec, err := s.sensors.Delete(c.Request.Context(), t, c.Param("id"))
	if err != nil {
		s.fail(c, "failed to delete sensor reading", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "sensor reading deleted",
		"data":    rec,
	})
}

func (s *Server) handleStats(c *gin.Context, t domain.SensorType) {
	stats, err := s.sensors.Stats(c.Request.Context(), t)
	if err != nil {
		s.fail(c, "failed to compute sensor statistics", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "sensor statistics retrieved",
		"data":    stats,
	})
}

// fail maps the error taxonomy onto the response envelope. Validation and
// not-found surface as client errors, anything else as a server error.
func (s *Server) fail(c *gin.Context, message string, err error) {
	var verr *domain.ValidationError
	var nf *domain.NotFoundError
	var dup *domain.DuplicateKeyError

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "validation failed",
			"errors":  verr.Fields,
		})
	case errors.As(err, &nf):
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": nf.Error(),
		})
	case errors.As(err, &dup):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "duplicate data",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": message,
			"error":   err.Error(),
		})
	}
}

func listOptions(c *gin.Context, t domain.SensorType) (repo.ListOptions, error) {
	opts := repo.ListOptions{
		SensorType: t,
		SortField:  c.DefaultQuery("sortBy", domain.SortByTimestamp),
		Ascending:  c.DefaultQuery("sortOrder", "desc") == "asc",
	}

	var verr domain.ValidationError

	opts.Page = queryInt(c, "page", 1, &verr)
	opts.Limit = queryInt(c, "limit", 10, &verr)

	if raw := c.Query("startDate"); raw != "" {
		start, err := parseDate(raw)
		if err != nil {
			verr.Add("startDate", "is not a valid date")
		} else {
			opts.Start = &start
		}
	}
	if raw := c.Query("endDate"); raw != "" {
		end, err := parseDate(raw)
		if err != nil {
			verr.Add("endDate", "is not a valid date")
		} else {
			opts.End = &end
		}
	}

	if len(verr.Fields) > 0 {
		return repo.ListOptions{}, &verr
	}
	return opts, nil
}

func queryInt(c *gin.Context, name string, fallback int64, verr *domain.ValidationError) int64 {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value < 1 {
		verr.Add(name, "must be a positive integer")
		return fallback
	}
	return value
}

func parseDate(raw string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts, nil
	}
	return time.Parse("2006-01-02", raw)
}
