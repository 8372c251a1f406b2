package storage_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jonesrussell/hn-links/internal/storage"
)

const (
	testURL     = "https://alice.dev"
	testVisitor = "visitor-uuid-1"
)

func newCounterRepo(t *testing.T) (*storage.CounterRepository, sqlmock.Sqlmock, func()) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	db := sqlx.NewDb(mockDB, "postgres")
	repo := storage.NewCounterRepository(db)

	return repo, mock, func() { mockDB.Close() }
}

func TestHashURL_Deterministic(t *testing.T) {
	first := storage.HashURL(testURL)
	second := storage.HashURL(testURL)

	if first != second {
		t.Fatalf("expected stable hash, got %q and %q", first, second)
	}
	if len(first) != 16 {
		t.Fatalf("expected 16-character hash, got %d", len(first))
	}
	if first == storage.HashURL("https://other.example") {
		t.Fatal("expected different URLs to hash differently")
	}
}

func TestTrackClick_IncrementsTotalAndDailyInOneTx(t *testing.T) {
	repo, mock, cleanup := newCounterRepo(t)
	defer cleanup()

	hash := storage.HashURL(testURL)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO clicks ").
		WithArgs(hash, testURL).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO clicks_daily").
		WithArgs(hash).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.TrackClick(context.Background(), testURL); err != nil {
		t.Fatalf("TrackClick() error = %v", err)
	}

	expectationsMet(t, mock)
}

func TestTrackClick_RollsBackWhenDailyInsertFails(t *testing.T) {
	repo, mock, cleanup := newCounterRepo(t)
	defer cleanup()

	hash := storage.HashURL(testURL)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO clicks ").
		WithArgs(hash, testURL).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO clicks_daily").
		WithArgs(hash).
		WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	if err := repo.TrackClick(context.Background(), testURL); err == nil {
		t.Fatal("expected error when daily increment fails")
	}

	expectationsMet(t, mock)
}

func TestClickCounts_EmptyInputSkipsStore(t *testing.T) {
	repo, mock, cleanup := newCounterRepo(t)
	defer cleanup()

	counts, err := repo.ClickCounts(context.Background(), nil)
	if err != nil {
		t.Fatalf("ClickCounts() error = %v", err)
	}
	if len(counts) != 0 {
		t.Errorf("expected empty map, got %v", counts)
	}

	// No store round-trip expected.
	expectationsMet(t, mock)
}

func TestClickCounts_MissingRowsMapToZero(t *testing.T) {
	repo, mock, cleanup := newCounterRepo(t)
	defer cleanup()

	tracked := "https://tracked.example"
	untracked := "https://untracked.example"
	hashes := []string{storage.HashURL(tracked), storage.HashURL(untracked)}

	mock.ExpectQuery("SELECT url_hash, total FROM clicks").
		WithArgs(pq.Array(hashes)).
		WillReturnRows(sqlmock.NewRows([]string{"url_hash", "total"}).
			AddRow(storage.HashURL(tracked), 7))

	counts, err := repo.ClickCounts(context.Background(), []string{tracked, untracked})
	if err != nil {
		t.Fatalf("ClickCounts() error = %v", err)
	}

	if counts[tracked] != 7 {
		t.Errorf("expected 7 clicks for tracked url, got %d", counts[tracked])
	}
	if counts[untracked] != 0 {
		t.Errorf("expected 0 clicks for untracked url, got %d", counts[untracked])
	}

	expectationsMet(t, mock)
}

func TestToggleLike_FirstToggleLikes(t *testing.T) {
	repo, mock, cleanup := newCounterRepo(t)
	defer cleanup()

	hash := storage.HashURL(testURL)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO likes").
		WithArgs(hash).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT total FROM likes").
		WithArgs(hash).
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(0))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(hash, testVisitor).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec("INSERT INTO liked_by").
		WithArgs(hash, testVisitor).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("UPDATE likes SET total").
		WithArgs(hash).
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(1))
	mock.ExpectCommit()

	state, err := repo.ToggleLike(context.Background(), testURL, testVisitor)
	if err != nil {
		t.Fatalf("ToggleLike() error = %v", err)
	}

	if !state.Liked {
		t.Error("expected liked=true on first toggle")
	}
	if state.Count != 1 {
		t.Errorf("expected count 1, got %d", state.Count)
	}

	expectationsMet(t, mock)
}

func TestToggleLike_SecondToggleUnlikes(t *testing.T) {
	repo, mock, cleanup := newCounterRepo(t)
	defer cleanup()

	hash := storage.HashURL(testURL)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO likes").
		WithArgs(hash).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT total FROM likes").
		WithArgs(hash).
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(1))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(hash, testVisitor).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectExec("DELETE FROM liked_by").
		WithArgs(hash, testVisitor).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("UPDATE likes SET total").
		WithArgs(hash).
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(0))
	mock.ExpectCommit()

	state, err := repo.ToggleLike(context.Background(), testURL, testVisitor)
	if err != nil {
		t.Fatalf("ToggleLike() error = %v", err)
	}

	if state.Liked {
		t.Error("expected liked=false on second toggle")
	}
	if state.Count != 0 {
		t.Errorf("expected count back to 0, got %d", state.Count)
	}

	expectationsMet(t, mock)
}

func TestUserLikes_MapsHashesBackToURLs(t *testing.T) {
	repo, mock, cleanup := newCounterRepo(t)
	defer cleanup()

	liked := "https://liked.example"
	other := "https://other.example"
	hashes := []string{storage.HashURL(liked), storage.HashURL(other)}

	mock.ExpectQuery("SELECT url_hash FROM liked_by").
		WithArgs(testVisitor, pq.Array(hashes)).
		WillReturnRows(sqlmock.NewRows([]string{"url_hash"}).
			AddRow(storage.HashURL(liked)))

	got, err := repo.UserLikes(context.Background(), []string{liked, other}, testVisitor)
	if err != nil {
		t.Fatalf("UserLikes() error = %v", err)
	}

	if !got[liked] {
		t.Error("expected liked url in membership set")
	}
	if got[other] {
		t.Error("expected other url excluded from membership set")
	}

	expectationsMet(t, mock)
}

func TestTrackExport_And_ExportCount(t *testing.T) {
	repo, mock, cleanup := newCounterRepo(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO meta").
		WithArgs("export_count").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT COALESCE").
		WithArgs("export_count").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(3))

	if err := repo.TrackExport(context.Background()); err != nil {
		t.Fatalf("TrackExport() error = %v", err)
	}

	count, err := repo.ExportCount(context.Background())
	if err != nil {
		t.Fatalf("ExportCount() error = %v", err)
	}
	if count != 3 {
		t.Errorf("expected export count 3, got %d", count)
	}

	expectationsMet(t, mock)
}
