package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"catalogsync/internal/database"
	"catalogsync/internal/logger"
	"catalogsync/internal/models"

	"github.com/gin-gonic/gin"
)

type RunStore interface {
	ListRuns(ctx context.Context, filter database.RunFilter) ([]models.JobRun, int64, error)
	GetRun(ctx context.Context, id string) (*models.JobRun, error)
}

type RunHandler struct {
	store  RunStore
	logger *logger.Logger
}

func NewRunHandler(store RunStore, logger *logger.Logger) *RunHandler {
	return &RunHandler{
		store:  store,
		logger: logger,
	}
}

func (h *RunHandler) List(c *gin.Context) {
	// Pagination
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(database.DefaultPageSize)))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > database.MaxPageSize {
		limit = database.DefaultPageSize
	}

	runs, total, err := h.store.ListRuns(c.Request.Context(), database.RunFilter{
		Kind:   c.Query("kind"),
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		h.logger.Error("Failed to list runs: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch runs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": runs,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

func (h *RunHandler) Get(c *gin.Context) {
	run, err := h.store.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, database.ErrRunNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Run not found"})
			return
		}
		h.logger.Error("Failed to get run: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch run"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": run})
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
