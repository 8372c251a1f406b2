package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jonesrussell/hn-links/internal/domain"
	"github.com/jonesrussell/hn-links/internal/logger"
)

// LinkStore is the subset of the link repository the scraper needs.
type LinkStore interface {
	SaveLinks(ctx context.Context, links []domain.Link) (int, error)
	TotalCount(ctx context.Context) (int, error)
	UniqueAuthorCount(ctx context.Context) (int, error)
}

// Service orchestrates scrape cycles: fetch, extract, persist, report.
type Service struct {
	fetcher   *Fetcher
	extractor *Extractor
	links     LinkStore
	log       logger.Logger
	interval  time.Duration
	cron      *cron.Cron
}

// NewService creates a scrape orchestrator.
func NewService(
	fetcher *Fetcher,
	extractor *Extractor,
	links LinkStore,
	log logger.Logger,
	interval time.Duration,
) *Service {
	return &Service{
		fetcher:   fetcher,
		extractor: extractor,
		links:     links,
		log:       log,
		interval:  interval,
	}
}

// Run executes one scrape cycle. Any failure is logged and converted into
// a zero result so an unattended scheduled scrape can never crash the
// process. Overlapping runs are tolerated: the store's uniqueness
// constraint makes concurrent inserts of the same pair converge on a
// single row.
func (s *Service) Run(ctx context.Context) domain.ScrapeResult {
	s.log.Info("Starting scrape")

	result, err := s.scrape(ctx)
	if err != nil {
		s.log.Error("Scrape failed", logger.Error(err))
		return domain.ScrapeResult{}
	}

	s.log.Info("Scrape complete",
		logger.Int("new_links", result.NewCount),
		logger.Int("total_links", result.TotalCount),
	)

	if authors, authorErr := s.links.UniqueAuthorCount(ctx); authorErr == nil {
		s.log.Info("Unique authors", logger.Int("count", authors))
	}

	return result
}

// scrape performs the fetch-extract-persist pipeline.
func (s *Service) scrape(ctx context.Context) (domain.ScrapeResult, error) {
	body, err := s.fetcher.FetchThread(ctx)
	if err != nil {
		return domain.ScrapeResult{}, err
	}

	links, err := s.extractor.Extract(body)
	if err != nil {
		return domain.ScrapeResult{}, err
	}

	newCount, err := s.links.SaveLinks(ctx, links)
	if err != nil {
		return domain.ScrapeResult{}, fmt.Errorf("save links: %w", err)
	}

	total, err := s.links.TotalCount(ctx)
	if err != nil {
		return domain.ScrapeResult{}, fmt.Errorf("count links: %w", err)
	}

	return domain.ScrapeResult{NewCount: newCount, TotalCount: total}, nil
}

// Start runs an initial scrape when the store is empty, then schedules
// recurring scrapes at the configured interval for the life of the
// process. The schedule fires regardless of whether a previous run is
// still in flight.
func (s *Service) Start(ctx context.Context) error {
	total, err := s.links.TotalCount(ctx)
	if err != nil {
		return fmt.Errorf("check store: %w", err)
	}

	if total == 0 {
		s.Run(ctx)
	} else {
		s.log.Info("Store already populated, skipping startup scrape",
			logger.Int("total_links", total),
		)
	}

	s.cron = cron.New()
	spec := fmt.Sprintf("@every %s", s.interval)
	if _, addErr := s.cron.AddFunc(spec, func() {
		s.Run(context.Background())
	}); addErr != nil {
		return fmt.Errorf("schedule scrape: %w", addErr)
	}
	s.cron.Start()

	s.log.Info("Scrape schedule started", logger.Duration("interval", s.interval))
	return nil
}

// Stop halts the recurring schedule. In-flight runs complete on their own.
func (s *Service) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}
