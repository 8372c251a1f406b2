// Package handler implements the HTTP handlers for the link directory.
package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/hn-links/internal/domain"
	"github.com/jonesrussell/hn-links/internal/logger"
	"github.com/jonesrussell/hn-links/internal/middleware"
	"github.com/jonesrussell/hn-links/internal/storage"
)

// Listing defaults.
const (
	defaultPage    = 1
	defaultPerPage = 50
	maxPerPage     = 200
)

// csvExportName is the attachment filename for the CSV export.
const csvExportName = "hn_links.csv"

// LinksHandler serves the link listing, CSV export, and fishtank feed.
type LinksHandler struct {
	links    *storage.LinkRepository
	counters *storage.CounterRepository
	log      logger.Logger
}

// NewLinksHandler creates a LinksHandler.
func NewLinksHandler(
	links *storage.LinkRepository,
	counters *storage.CounterRepository,
	log logger.Logger,
) *LinksHandler {
	return &LinksHandler{links: links, counters: counters, log: log}
}

// List returns one page of the searchable, sortable link listing.
func (h *LinksHandler) List(c *gin.Context) {
	opts, err := parseListOptions(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	page, err := h.links.List(c.Request.Context(), opts)
	if err != nil {
		h.log.Error("Failed to list links", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list links"})
		return
	}

	urls := make([]string, 0, len(page.Links))
	for _, l := range page.Links {
		urls = append(urls, l.ExtractedLink)
	}

	liked, err := h.counters.UserLikes(c.Request.Context(), urls, middleware.VisitorID(c))
	if err != nil {
		h.log.Error("Failed to load visitor likes", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list links"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"links":       page.Links,
		"clicks":      page.Clicks,
		"likes":       page.Likes,
		"user_likes":  liked,
		"page":        opts.Page,
		"per_page":    opts.PerPage,
		"total":       page.Total,
		"total_pages": page.TotalPages,
	})
}

// parseListOptions reads paging, search, and sort parameters. Unrecognized
// sort fields and orders are rejected here, before any store access.
func parseListOptions(c *gin.Context) (domain.ListOptions, error) {
	sortField, err := domain.ParseSortField(c.Query("sort"))
	if err != nil {
		return domain.ListOptions{}, err
	}

	sortOrder, err := domain.ParseSortOrder(c.Query("order"))
	if err != nil {
		return domain.ListOptions{}, err
	}

	return domain.ListOptions{
		Page:    intQuery(c, "page", defaultPage),
		PerPage: clampPerPage(intQuery(c, "per_page", defaultPerPage)),
		Search:  strings.TrimSpace(c.Query("q")),
		Sort:    sortField,
		Order:   sortOrder,
	}, nil
}

// intQuery parses an integer query parameter, falling back to def when
// absent or unparseable.
func intQuery(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return def
	}
	return v
}

func clampPerPage(perPage int) int {
	if perPage > maxPerPage {
		return maxPerPage
	}
	return perPage
}

// ExportCSV streams the full link corpus as CSV and bumps the export
// counter. Every field is double-quoted with internal quotes doubled.
func (h *LinksHandler) ExportCSV(c *gin.Context) {
	links, err := h.links.GetAll(c.Request.Context())
	if err != nil {
		h.log.Error("Failed to export links", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to export links"})
		return
	}

	urls := make([]string, 0, len(links))
	for _, l := range links {
		urls = append(urls, l.ExtractedLink)
	}

	clicks, err := h.counters.ClickCounts(c.Request.Context(), urls)
	if err != nil {
		h.log.Error("Failed to load click counts for export", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to export links"})
		return
	}

	likes, err := h.counters.LikeCounts(c.Request.Context(), urls)
	if err != nil {
		h.log.Error("Failed to load like counts for export", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to export links"})
		return
	}

	if trackErr := h.counters.TrackExport(c.Request.Context()); trackErr != nil {
		// Export proceeds even if the counter bump fails.
		h.log.Warn("Failed to track export", logger.Error(trackErr))
	}

	c.Header("Content-Disposition", "attachment; filename="+csvExportName)
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Status(http.StatusOK)

	writeCSV(c, links, clicks, likes)
}

// writeCSV streams the export rows to the response.
func writeCSV(
	c *gin.Context,
	links []domain.StoredLink,
	clicks, likes map[string]int,
) {
	var sb strings.Builder
	sb.WriteString("author,comment_url,extracted_link,clicks,likes\n")

	for _, l := range links {
		sb.WriteString(csvField(l.Author))
		sb.WriteByte(',')
		sb.WriteString(csvField(l.CommentURL))
		sb.WriteByte(',')
		sb.WriteString(csvField(l.ExtractedLink))
		sb.WriteByte(',')
		sb.WriteString(csvField(strconv.Itoa(clicks[l.ExtractedLink])))
		sb.WriteByte(',')
		sb.WriteString(csvField(strconv.Itoa(likes[l.ExtractedLink])))
		sb.WriteByte('\n')

		// Flush in chunks to keep memory flat on large corpora.
		if sb.Len() >= 32*1024 {
			_, _ = c.Writer.WriteString(sb.String())
			sb.Reset()
		}
	}

	_, _ = c.Writer.WriteString(sb.String())
}

// csvField double-quotes a field and doubles any internal quotes.
func csvField(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// Fishtank returns one page of the deduplicated URL feed backing the
// embedded browsing mode.
func (h *LinksHandler) Fishtank(c *gin.Context) {
	page := intQuery(c, "page", defaultPage)
	perPage := intQuery(c, "per_page", storage.DefaultFishtankPerPage)

	feed, err := h.links.DistinctLinks(c.Request.Context(), page, perPage)
	if err != nil {
		h.log.Error("Failed to load fishtank feed", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load feed"})
		return
	}

	c.JSON(http.StatusOK, feed)
}

// Stats reports corpus-level totals.
func (h *LinksHandler) Stats(c *gin.Context) {
	total, err := h.links.TotalCount(c.Request.Context())
	if err != nil {
		h.log.Error("Failed to count links", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stats"})
		return
	}

	authors, err := h.links.UniqueAuthorCount(c.Request.Context())
	if err != nil {
		h.log.Error("Failed to count authors", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stats"})
		return
	}

	exports, err := h.counters.ExportCount(c.Request.Context())
	if err != nil {
		h.log.Error("Failed to read export count", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total_links":    total,
		"unique_authors": authors,
		"export_count":   exports,
	})
}
