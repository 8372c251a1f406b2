package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/hn-links/internal/domain"
)

// DefaultFishtankPerPage is the distinct-URL feed's default page size.
const DefaultFishtankPerPage = 200

// CounterReader is the counter lookup the link listing joins against.
type CounterReader interface {
	ClickCounts(ctx context.Context, urls []string) (map[string]int, error)
	LikeCounts(ctx context.Context, urls []string) (map[string]int, error)
}

// LinkRepository handles database operations for scraped links.
type LinkRepository struct {
	db       *sqlx.DB
	counters CounterReader
}

// NewLinkRepository creates a new link repository.
func NewLinkRepository(db *sqlx.DB, counters CounterReader) *LinkRepository {
	return &LinkRepository{db: db, counters: counters}
}

// SaveLinks upserts a batch of scraped links in a single transaction.
// A pair seen for the first time is inserted; a known pair only has its
// updated_at touched. Any mid-batch failure rolls back the whole batch.
// Returns the number of genuinely new links.
func (r *LinkRepository) SaveLinks(ctx context.Context, links []domain.Link) (int, error) {
	if len(links) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	newCount := 0
	for _, link := range links {
		inserted, saveErr := saveLink(ctx, tx, link)
		if saveErr != nil {
			return 0, saveErr
		}
		if inserted {
			newCount++
		}
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return 0, fmt.Errorf("commit links: %w", commitErr)
	}

	return newCount, nil
}

// saveLink inserts one link, degrading to a timestamp touch when the
// (comment_url, extracted_link) pair already exists. ON CONFLICT DO
// NOTHING doubles as the backstop for concurrent scrapes racing on the
// same pair.
func saveLink(ctx context.Context, tx *sqlx.Tx, link domain.Link) (bool, error) {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO links (id, author, comment_url, extracted_link, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (comment_url, extracted_link) DO NOTHING`,
		link.ID(), link.Author, link.CommentURL, link.ExtractedLink,
	)
	if err != nil {
		return false, fmt.Errorf("insert link: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if rows > 0 {
		return true, nil
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE links SET updated_at = NOW()
		WHERE comment_url = $1 AND extracted_link = $2`,
		link.CommentURL, link.ExtractedLink,
	)
	if err != nil {
		return false, fmt.Errorf("touch link: %w", err)
	}

	return false, nil
}

// List returns one page of links matching the given options. The filter
// is applied in SQL; sorting happens in memory so click and like totals
// can participate as sort keys for the filtered set.
func (r *LinkRepository) List(ctx context.Context, opts domain.ListOptions) (domain.LinkPage, error) {
	filtered, err := r.selectFiltered(ctx, opts.Search)
	if err != nil {
		return domain.LinkPage{}, err
	}

	urls := distinctURLs(filtered)

	clicks, err := r.counters.ClickCounts(ctx, urls)
	if err != nil {
		return domain.LinkPage{}, fmt.Errorf("load click counts: %w", err)
	}

	likes, err := r.counters.LikeCounts(ctx, urls)
	if err != nil {
		return domain.LinkPage{}, fmt.Errorf("load like counts: %w", err)
	}

	sortLinks(filtered, opts.Sort, opts.Order, clicks, likes)

	total := len(filtered)
	page := paginate(filtered, opts.Page, opts.PerPage)

	return domain.LinkPage{
		Links:      page,
		Clicks:     restrictCounts(clicks, page),
		Likes:      restrictCounts(likes, page),
		Total:      total,
		TotalPages: totalPages(total, opts.PerPage),
	}, nil
}

// selectFiltered loads the link set, optionally filtered by a
// case-insensitive substring match against author or extracted link.
func (r *LinkRepository) selectFiltered(ctx context.Context, search string) ([]domain.StoredLink, error) {
	links := []domain.StoredLink{}

	if search == "" {
		if err := r.db.SelectContext(ctx, &links,
			`SELECT id, author, comment_url, extracted_link, created_at, updated_at
			 FROM links ORDER BY id`,
		); err != nil {
			return nil, fmt.Errorf("select links: %w", err)
		}
		return links, nil
	}

	pattern := "%" + escapeLike(search) + "%"
	if err := r.db.SelectContext(ctx, &links,
		`SELECT id, author, comment_url, extracted_link, created_at, updated_at
		 FROM links
		 WHERE author ILIKE $1 ESCAPE '\' OR extracted_link ILIKE $1 ESCAPE '\'
		 ORDER BY id`,
		pattern,
	); err != nil {
		return nil, fmt.Errorf("search links: %w", err)
	}

	return links, nil
}

// escapeLike escapes LIKE pattern metacharacters in user-supplied search
// input.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// sortLinks orders links by the requested field. sort.SliceStable keeps
// ties in their pre-sort order.
func sortLinks(
	links []domain.StoredLink,
	field domain.SortField,
	order domain.SortOrder,
	clicks, likes map[string]int,
) {
	less := lessFunc(links, field, clicks, likes)
	if order == domain.SortDesc {
		inner := less
		less = func(i, j int) bool { return inner(j, i) }
	}
	sort.SliceStable(links, less)
}

// lessFunc returns the ascending comparator for the given sort field.
func lessFunc(
	links []domain.StoredLink,
	field domain.SortField,
	clicks, likes map[string]int,
) func(i, j int) bool {
	switch field {
	case domain.SortByAuthor:
		return func(i, j int) bool {
			return strings.ToLower(links[i].Author) < strings.ToLower(links[j].Author)
		}
	case domain.SortByClicks:
		return func(i, j int) bool {
			return clicks[links[i].ExtractedLink] < clicks[links[j].ExtractedLink]
		}
	case domain.SortByLikes:
		return func(i, j int) bool {
			return likes[links[i].ExtractedLink] < likes[links[j].ExtractedLink]
		}
	default:
		return func(i, j int) bool {
			return links[i].UpdatedAt.Before(links[j].UpdatedAt)
		}
	}
}

// paginate slices one 1-indexed page out of the sorted set. Out-of-range
// pages yield an empty slice.
func paginate(links []domain.StoredLink, page, perPage int) []domain.StoredLink {
	start := (page - 1) * perPage
	if start < 0 || start >= len(links) {
		return []domain.StoredLink{}
	}

	end := start + perPage
	if end > len(links) {
		end = len(links)
	}

	return links[start:end]
}

// totalPages returns ceil(total/perPage), never less than 1.
func totalPages(total, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 1
	}
	pages := (total + perPage - 1) / perPage
	if pages < 1 {
		return 1
	}
	return pages
}

// distinctURLs collects the unique extracted links, preserving order.
func distinctURLs(links []domain.StoredLink) []string {
	seen := make(map[string]struct{}, len(links))
	urls := make([]string, 0, len(links))
	for _, l := range links {
		if _, ok := seen[l.ExtractedLink]; ok {
			continue
		}
		seen[l.ExtractedLink] = struct{}{}
		urls = append(urls, l.ExtractedLink)
	}
	return urls
}

// restrictCounts narrows a counts map to the URLs on the returned page.
func restrictCounts(counts map[string]int, page []domain.StoredLink) map[string]int {
	out := make(map[string]int, len(page))
	for _, l := range page {
		out[l.ExtractedLink] = counts[l.ExtractedLink]
	}
	return out
}

// GetAll returns every stored link ordered by id, for CSV export and
// full-corpus feeds.
func (r *LinkRepository) GetAll(ctx context.Context) ([]domain.StoredLink, error) {
	links := []domain.StoredLink{}
	if err := r.db.SelectContext(ctx, &links,
		`SELECT id, author, comment_url, extracted_link, created_at, updated_at
		 FROM links ORDER BY id`,
	); err != nil {
		return nil, fmt.Errorf("select all links: %w", err)
	}
	return links, nil
}

// TotalCount returns the number of stored links.
func (r *LinkRepository) TotalCount(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM links`); err != nil {
		return 0, fmt.Errorf("count links: %w", err)
	}
	return count, nil
}

// UniqueAuthorCount returns the number of distinct comment authors.
func (r *LinkRepository) UniqueAuthorCount(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(DISTINCT author) FROM links`); err != nil {
		return 0, fmt.Errorf("count authors: %w", err)
	}
	return count, nil
}

// DistinctLinks returns one page of the deduplicated URL set that feeds
// the fishtank browsing mode.
func (r *LinkRepository) DistinctLinks(ctx context.Context, page, perPage int) (domain.FishtankPage, error) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = DefaultFishtankPerPage
	}

	var total int
	if err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(DISTINCT extracted_link) FROM links`,
	); err != nil {
		return domain.FishtankPage{}, fmt.Errorf("count distinct links: %w", err)
	}

	urls := []string{}
	if err := r.db.SelectContext(ctx, &urls,
		`SELECT DISTINCT extracted_link FROM links
		 ORDER BY extracted_link
		 LIMIT $1 OFFSET $2`,
		perPage, (page-1)*perPage,
	); err != nil {
		return domain.FishtankPage{}, fmt.Errorf("select distinct links: %w", err)
	}

	return domain.FishtankPage{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages(total, perPage),
		URLs:       urls,
	}, nil
}
