// Package domain defines the core types shared across the service.
package domain

import (
	"encoding/base64"
	"time"
)

// UnknownAuthor is recorded when a comment row carries no user link.
const UnknownAuthor = "unknown"

// Link is a single outbound URL extracted from a top-level comment.
// Links are transient scrape output; deduplication happens at persistence.
type Link struct {
	Author        string `json:"author"`
	CommentURL    string `json:"comment_url"`
	ExtractedLink string `json:"extracted_link"`
}

// ID returns the deterministic identifier for this comment/link pair.
// The same pair always encodes to the same id, which doubles as the
// natural dedup key in storage.
func (l Link) ID() string {
	return base64.RawURLEncoding.EncodeToString([]byte(l.CommentURL + ":" + l.ExtractedLink))
}

// StoredLink is a persisted link row.
type StoredLink struct {
	ID            string    `db:"id"             json:"id"`
	Author        string    `db:"author"         json:"author"`
	CommentURL    string    `db:"comment_url"    json:"comment_url"`
	ExtractedLink string    `db:"extracted_link" json:"extracted_link"`
	CreatedAt     time.Time `db:"created_at"     json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"     json:"updated_at"`
}

// ScrapeResult summarizes a completed scrape cycle.
type ScrapeResult struct {
	NewCount   int `json:"new_count"`
	TotalCount int `json:"total_count"`
}
