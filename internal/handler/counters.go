package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/hn-links/internal/logger"
	"github.com/jonesrussell/hn-links/internal/middleware"
	"github.com/jonesrussell/hn-links/internal/storage"
)

// CounterHandler serves click tracking and like toggling.
type CounterHandler struct {
	counters *storage.CounterRepository
	log      logger.Logger
}

// NewCounterHandler creates a CounterHandler.
func NewCounterHandler(counters *storage.CounterRepository, log logger.Logger) *CounterHandler {
	return &CounterHandler{counters: counters, log: log}
}

// urlRequest is the JSON body for counter mutations.
type urlRequest struct {
	URL string `json:"url"`
}

// bindURL parses the request body and rejects a missing url before any
// store access.
func bindURL(c *gin.Context) (string, bool) {
	var req urlRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.URL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return "", false
	}
	return req.URL, true
}

// TrackClick records one click for the given URL.
func (h *CounterHandler) TrackClick(c *gin.Context) {
	url, ok := bindURL(c)
	if !ok {
		return
	}

	if err := h.counters.TrackClick(c.Request.Context(), url); err != nil {
		h.log.Error("Failed to track click", logger.Error(err), logger.String("url", url))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to track click"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// GetClicks returns total clicks for the requested URLs.
func (h *CounterHandler) GetClicks(c *gin.Context) {
	urls := c.QueryArray("url")

	counts, err := h.counters.ClickCounts(c.Request.Context(), urls)
	if err != nil {
		h.log.Error("Failed to load click counts", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load click counts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"clicks": counts})
}

// ToggleLike flips the calling visitor's like for the given URL and
// returns the resulting state.
func (h *CounterHandler) ToggleLike(c *gin.Context) {
	url, ok := bindURL(c)
	if !ok {
		return
	}

	visitorID := middleware.VisitorID(c)
	if visitorID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "visitor id is required"})
		return
	}

	state, err := h.counters.ToggleLike(c.Request.Context(), url, visitorID)
	if err != nil {
		h.log.Error("Failed to toggle like", logger.Error(err), logger.String("url", url))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to toggle like"})
		return
	}

	c.JSON(http.StatusOK, state)
}

// GetLikes returns like totals and the calling visitor's membership for
// the requested URLs.
func (h *CounterHandler) GetLikes(c *gin.Context) {
	urls := c.QueryArray("url")

	counts, err := h.counters.LikeCounts(c.Request.Context(), urls)
	if err != nil {
		h.log.Error("Failed to load like counts", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load like counts"})
		return
	}

	liked, err := h.counters.UserLikes(c.Request.Context(), urls, middleware.VisitorID(c))
	if err != nil {
		h.log.Error("Failed to load visitor likes", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load like counts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"likes": counts, "user_likes": liked})
}
