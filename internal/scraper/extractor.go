// Package scraper fetches the Hacker News discussion thread and extracts
// outbound links from its top-level comments.
package scraper

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/hn-links/internal/domain"
)

// Selectors for the Hacker News comment tree markup.
const (
	commentRowSelector  = "tr.athing.comtr"
	indentImgSelector   = "td.ind img"
	authorSelector      = "a.hnuser"
	commentTextSelector = "div.commtext"
)

// Extractor parses a thread page and extracts links from top-level comments.
type Extractor struct {
	baseURL string
}

// NewExtractor creates an Extractor that absolutizes relative hrefs
// against the given site origin.
func NewExtractor(baseURL string) *Extractor {
	return &Extractor{baseURL: strings.TrimRight(baseURL, "/")}
}

// Extract parses the thread HTML and returns one Link per outbound anchor
// found in a top-level comment, in document order. Malformed rows and
// anchors are skipped, never fatal; the only error is an unparseable
// document.
func (e *Extractor) Extract(body []byte) ([]domain.Link, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var links []domain.Link

	doc.Find(commentRowSelector).Each(func(_ int, row *goquery.Selection) {
		if !isTopLevel(row) {
			return
		}

		commentText := row.Find(commentTextSelector).First()
		if commentText.Length() == 0 {
			return
		}

		commentURL := e.commentPermalink(row)
		author := extractAuthor(row)

		commentText.Find("a[href]").Each(func(_ int, anchor *goquery.Selection) {
			href := e.normalizeHref(anchor.AttrOr("href", ""))
			if href == "" {
				return
			}

			links = append(links, domain.Link{
				Author:        author,
				CommentURL:    commentURL,
				ExtractedLink: href,
			})
		})
	})

	return links, nil
}

// isTopLevel reports whether the comment row has zero indentation.
// The indent image's width attribute encodes nesting depth in pixels;
// rows without the image are malformed and skipped.
func isTopLevel(row *goquery.Selection) bool {
	img := row.Find(indentImgSelector).First()
	if img.Length() == 0 {
		return false
	}

	width, err := strconv.Atoi(img.AttrOr("width", "0"))
	if err != nil {
		return false
	}

	return width == 0
}

// commentPermalink derives the comment's permalink from the row id.
// Rows without an id yield an empty string.
func (e *Extractor) commentPermalink(row *goquery.Selection) string {
	id, ok := row.Attr("id")
	if !ok || id == "" {
		return ""
	}
	return fmt.Sprintf("%s/item?id=%s", e.baseURL, id)
}

// extractAuthor reads the comment author from the user link.
func extractAuthor(row *goquery.Selection) string {
	author := row.Find(authorSelector).First()
	if author.Length() == 0 {
		return domain.UnknownAuthor
	}
	return author.Text()
}

// normalizeHref filters site-internal affordances and absolutizes
// root-relative hrefs. Returns "" for anchors that should be skipped.
func (e *Extractor) normalizeHref(href string) string {
	if strings.HasPrefix(href, "reply?") || strings.HasPrefix(href, "user?") {
		return ""
	}

	if strings.HasPrefix(href, "/") {
		href = e.baseURL + href
	}

	if href == "" || href == "#" {
		return ""
	}

	return href
}
