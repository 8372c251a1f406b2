package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// urlHashLength is the number of hex characters kept from the SHA-256
// digest. Truncation bounds key size on arbitrary-length URLs.
const urlHashLength = 16

// exportCountKey is the meta-table key for the CSV export counter.
const exportCountKey = "export_count"

// HashURL returns the fixed-length storage key for a URL-keyed counter.
func HashURL(url string) string {
	h := sha256.Sum256([]byte(url))
	return hex.EncodeToString(h[:])[:urlHashLength]
}

// LikeState is the outcome of a like toggle.
type LikeState struct {
	Liked bool `json:"liked"`
	Count int  `json:"count"`
}

// CounterRepository handles click, like, and meta counters, all keyed by
// the truncated URL hash rather than the raw URL.
type CounterRepository struct {
	db *sqlx.DB
}

// NewCounterRepository creates a new counter repository.
func NewCounterRepository(db *sqlx.DB) *CounterRepository {
	return &CounterRepository{db: db}
}

// TrackClick increments the URL's running total and today's daily count
// in one transaction, creating either row on first sight.
func (r *CounterRepository) TrackClick(ctx context.Context, url string) error {
	hash := HashURL(url)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO clicks (url_hash, url, total)
		VALUES ($1, $2, 1)
		ON CONFLICT (url_hash) DO UPDATE SET total = clicks.total + 1`,
		hash, url,
	); err != nil {
		return fmt.Errorf("increment click total: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO clicks_daily (url_hash, day, count)
		VALUES ($1, CURRENT_DATE, 1)
		ON CONFLICT (url_hash, day) DO UPDATE SET count = clicks_daily.count + 1`,
		hash,
	); err != nil {
		return fmt.Errorf("increment daily click count: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit click: %w", err)
	}

	return nil
}

// ClickCounts returns total clicks per URL. URLs with no counter row map
// to 0. An empty input returns an empty map without a store round-trip.
func (r *CounterRepository) ClickCounts(ctx context.Context, urls []string) (map[string]int, error) {
	return r.countsByHash(ctx, urls,
		`SELECT url_hash, total FROM clicks WHERE url_hash = ANY($1)`)
}

// LikeCounts returns total likes per URL, with the same zero-fill and
// empty-input behavior as ClickCounts.
func (r *CounterRepository) LikeCounts(ctx context.Context, urls []string) (map[string]int, error) {
	return r.countsByHash(ctx, urls,
		`SELECT url_hash, total FROM likes WHERE url_hash = ANY($1)`)
}

// countsByHash runs a batch counter lookup keyed by URL hash and maps the
// results back onto the input URLs.
func (r *CounterRepository) countsByHash(
	ctx context.Context,
	urls []string,
	query string,
) (map[string]int, error) {
	counts := make(map[string]int, len(urls))
	if len(urls) == 0 {
		return counts, nil
	}

	byHash := make(map[string]string, len(urls))
	hashes := make([]string, 0, len(urls))
	for _, url := range urls {
		hash := HashURL(url)
		if _, ok := byHash[hash]; ok {
			continue
		}
		byHash[hash] = url
		hashes = append(hashes, hash)
	}

	rows := []struct {
		URLHash string `db:"url_hash"`
		Total   int    `db:"total"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(hashes)); err != nil {
		return nil, fmt.Errorf("select counts: %w", err)
	}

	for _, url := range urls {
		counts[url] = 0
	}
	for _, row := range rows {
		if url, ok := byHash[row.URLHash]; ok {
			counts[url] = row.Total
		}
	}

	return counts, nil
}

// ToggleLike flips the visitor's like for a URL. The check-then-act
// sequence runs in one transaction with the counter row locked, so two
// concurrent toggles from the same visitor still leave total and
// membership consistent. The total is clamped at zero on decrement.
func (r *CounterRepository) ToggleLike(ctx context.Context, url, visitorID string) (LikeState, error) {
	hash := HashURL(url)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return LikeState{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO likes (url_hash, total) VALUES ($1, 0)
		ON CONFLICT (url_hash) DO NOTHING`,
		hash,
	); err != nil {
		return LikeState{}, fmt.Errorf("ensure like row: %w", err)
	}

	// Lock the counter row to serialize concurrent toggles for this URL.
	var total int
	if err = tx.GetContext(ctx, &total,
		`SELECT total FROM likes WHERE url_hash = $1 FOR UPDATE`, hash,
	); err != nil {
		return LikeState{}, fmt.Errorf("lock like row: %w", err)
	}

	var liked bool
	if err = tx.GetContext(ctx, &liked, `
		SELECT EXISTS(
			SELECT 1 FROM liked_by WHERE url_hash = $1 AND visitor_id = $2
		)`,
		hash, visitorID,
	); err != nil {
		return LikeState{}, fmt.Errorf("check like membership: %w", err)
	}

	state := LikeState{}
	if liked {
		state, err = unlike(ctx, tx, hash, visitorID)
	} else {
		state, err = like(ctx, tx, hash, visitorID)
	}
	if err != nil {
		return LikeState{}, err
	}

	if err = tx.Commit(); err != nil {
		return LikeState{}, fmt.Errorf("commit like toggle: %w", err)
	}

	return state, nil
}

// like records membership and increments the total.
func like(ctx context.Context, tx *sqlx.Tx, hash, visitorID string) (LikeState, error) {
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO liked_by (url_hash, visitor_id) VALUES ($1, $2)`,
		hash, visitorID,
	); err != nil {
		return LikeState{}, fmt.Errorf("insert like membership: %w", err)
	}

	var total int
	if err := tx.GetContext(ctx, &total,
		`UPDATE likes SET total = total + 1 WHERE url_hash = $1 RETURNING total`, hash,
	); err != nil {
		return LikeState{}, fmt.Errorf("increment like total: %w", err)
	}

	return LikeState{Liked: true, Count: total}, nil
}

// unlike removes membership and decrements the total, clamped at zero.
func unlike(ctx context.Context, tx *sqlx.Tx, hash, visitorID string) (LikeState, error) {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM liked_by WHERE url_hash = $1 AND visitor_id = $2`,
		hash, visitorID,
	); err != nil {
		return LikeState{}, fmt.Errorf("delete like membership: %w", err)
	}

	var total int
	if err := tx.GetContext(ctx, &total,
		`UPDATE likes SET total = GREATEST(total - 1, 0) WHERE url_hash = $1 RETURNING total`, hash,
	); err != nil {
		return LikeState{}, fmt.Errorf("decrement like total: %w", err)
	}

	return LikeState{Liked: false, Count: total}, nil
}

// UserLikes returns the subset of urls the visitor has liked.
func (r *CounterRepository) UserLikes(
	ctx context.Context,
	urls []string,
	visitorID string,
) (map[string]bool, error) {
	liked := make(map[string]bool, len(urls))
	if len(urls) == 0 {
		return liked, nil
	}

	byHash := make(map[string]string, len(urls))
	hashes := make([]string, 0, len(urls))
	for _, url := range urls {
		hash := HashURL(url)
		if _, ok := byHash[hash]; ok {
			continue
		}
		byHash[hash] = url
		hashes = append(hashes, hash)
	}

	rows := []string{}
	if err := r.db.SelectContext(ctx, &rows,
		`SELECT url_hash FROM liked_by WHERE visitor_id = $1 AND url_hash = ANY($2)`,
		visitorID, pq.Array(hashes),
	); err != nil {
		return nil, fmt.Errorf("select user likes: %w", err)
	}

	for _, hash := range rows {
		if url, ok := byHash[hash]; ok {
			liked[url] = true
		}
	}

	return liked, nil
}

// TrackExport atomically increments the CSV export counter.
func (r *CounterRepository) TrackExport(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO meta (key, value) VALUES ($1, 1)
		ON CONFLICT (key) DO UPDATE SET value = meta.value + 1`,
		exportCountKey,
	); err != nil {
		return fmt.Errorf("increment export count: %w", err)
	}
	return nil
}

// ExportCount returns the number of CSV exports served.
func (r *CounterRepository) ExportCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COALESCE(
			(SELECT value FROM meta WHERE key = $1), 0
		)`,
		exportCountKey,
	)
	if err != nil {
		return 0, fmt.Errorf("read export count: %w", err)
	}
	return count, nil
}
