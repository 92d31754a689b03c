package pagination

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wpbrowse/wp-listing-client/pkg/resource"
)

// Config holds batch fetcher configuration.
type Config struct {
	// MaxConcurrency is the maximum number of parallel page requests.
	MaxConcurrency int

	// Timeout per page fetch.
	Timeout time.Duration
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 4,
		Timeout:        15 * time.Second,
	}
}

// PageFetcher fetches a single page of the current query. The listing
// controller implements it; the returned Data carries the total page count
// the fetcher uses to plan the remaining work.
type PageFetcher interface {
	FetchPage(ctx context.Context, pageNum int) ([]resource.Resource, Data, error)
}

// pageResult is one worker's outcome for a page.
type pageResult struct {
	pageNum int
	items   []resource.Resource
	err     error
}

// BatchFetcher retrieves every page of a listing query through a worker pool.
type BatchFetcher struct {
	fetcher PageFetcher
	config  Config
}

// NewBatchFetcher creates a batch fetcher. Zero config fields fall back to
// defaults.
func NewBatchFetcher(fetcher PageFetcher, config Config) *BatchFetcher {
	def := DefaultConfig()
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = def.MaxConcurrency
	}
	if config.Timeout <= 0 {
		config.Timeout = def.Timeout
	}
	return &BatchFetcher{fetcher: fetcher, config: config}
}

// FetchAll fetches every page of the query and returns the resources in page
// order. Page 1 runs first to learn the page count; the rest run in
// parallel. A failed page cancels the outstanding work, and the pages
// already fetched come back alongside the error.
func (bf *BatchFetcher) FetchAll(ctx context.Context) ([]resource.Resource, error) {
	start := time.Now()

	firstItems, data, err := bf.fetcher.FetchPage(ctx, 1)
	if err != nil {
		return nil, fmt.Errorf("fetch first page: %w", err)
	}

	totalPages := data.TotalPages
	log.Info().
		Int("total_pages", totalPages).
		Int("total_items", data.Total).
		Msg("Starting batch page fetch")

	if totalPages <= 1 {
		return firstItems, nil
	}

	byPage := make(map[int][]resource.Resource, totalPages)
	byPage[1] = firstItems

	pageQueue := make(chan int, totalPages)
	results := make(chan pageResult, totalPages)

	for pageNum := 2; pageNum <= totalPages; pageNum++ {
		pageQueue <- pageNum
	}
	close(pageQueue)

	workerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < bf.config.MaxConcurrency; i++ {
		wg.Add(1)
		go bf.worker(workerCtx, pageQueue, results, &wg)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var firstErr error
	fetched := 1
	for result := range results {
		if result.err != nil {
			log.Warn().
				Err(result.err).
				Int("page", result.pageNum).
				Msg("Page fetch failed")
			if firstErr == nil {
				firstErr = result.err
				cancel()
			}
			continue
		}
		byPage[result.pageNum] = result.items
		fetched++
	}

	items := make([]resource.Resource, 0, len(firstItems)*fetched)
	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		items = append(items, byPage[pageNum]...)
	}

	if firstErr != nil {
		return items, fmt.Errorf("batch fetch incomplete (%d/%d pages): %w", fetched, totalPages, firstErr)
	}

	log.Info().
		Int("pages", fetched).
		Int("items", len(items)).
		Dur("duration", time.Since(start)).
		Msg("Batch fetch complete")

	return items, nil
}

// worker drains the page queue until it closes or the context ends.
func (bf *BatchFetcher) worker(ctx context.Context, pageQueue <-chan int, results chan<- pageResult, wg *sync.WaitGroup) {
	defer wg.Done()

	for pageNum := range pageQueue {
		select {
		case <-ctx.Done():
			return
		default:
		}

		pageCtx, cancel := context.WithTimeout(ctx, bf.config.Timeout)
		items, _, err := bf.fetcher.FetchPage(pageCtx, pageNum)
		cancel()

		select {
		case results <- pageResult{pageNum: pageNum, items: items, err: err}:
		case <-ctx.Done():
			return
		}
	}
}
