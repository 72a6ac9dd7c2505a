package paging

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// BatchConfig holds batch fetcher configuration.
type BatchConfig struct {
	// MaxConcurrency is the maximum number of parallel requests.
	// The demo tier allows 50 requests per hour, so keep this small.
	MaxConcurrency int

	// Timeout per page fetch.
	Timeout time.Duration
}

// DefaultBatchConfig returns a conservative configuration.
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{
		MaxConcurrency: 4,
		Timeout:        15 * time.Second,
	}
}

// PageFetcher fetches one page and reports the total page count.
type PageFetcher[T any] interface {
	FetchPage(ctx context.Context, page int) (items []T, totalPages int, err error)
}

// PageFetcherFunc adapts a function to PageFetcher.
type PageFetcherFunc[T any] func(ctx context.Context, page int) ([]T, int, error)

// FetchPage calls fn(ctx, page).
func (fn PageFetcherFunc[T]) FetchPage(ctx context.Context, page int) ([]T, int, error) {
	return fn(ctx, page)
}

type pageResult[T any] struct {
	page  int
	items []T
	err   error
}

// BatchFetcher fetches pages in parallel with a bounded worker pool.
type BatchFetcher[T any] struct {
	fetcher PageFetcher[T]
	config  BatchConfig
}

// NewBatchFetcher creates a batch fetcher.
func NewBatchFetcher[T any](fetcher PageFetcher[T], config BatchConfig) *BatchFetcher[T] {
	defaults := DefaultBatchConfig()
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = defaults.MaxConcurrency
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}

	return &BatchFetcher[T]{
		fetcher: fetcher,
		config:  config,
	}
}

// FetchAllPages fetches the first page to learn the page count, then the
// rest in parallel. It returns page -> items for every successful page. On
// failure the successful pages are returned together with the first error.
func (bf *BatchFetcher[T]) FetchAllPages(ctx context.Context) (map[int][]T, error) {
	return bf.fetch(ctx, StartingPage, 0)
}

// FetchRange fetches pages first..last inclusive. last is capped at the
// page count reported by the first fetched page.
func (bf *BatchFetcher[T]) FetchRange(ctx context.Context, first, last int) (map[int][]T, error) {
	if first < StartingPage || last < first {
		return nil, fmt.Errorf("invalid page range %d..%d", first, last)
	}
	return bf.fetch(ctx, first, last)
}

func (bf *BatchFetcher[T]) fetch(ctx context.Context, first, last int) (map[int][]T, error) {
	start := time.Now()
	defer func() {
		batchDuration.Observe(time.Since(start).Seconds())
	}()

	firstCtx, cancel := context.WithTimeout(ctx, bf.config.Timeout)
	firstItems, totalPages, err := bf.fetcher.FetchPage(firstCtx, first)
	cancel()
	if err != nil {
		batchPages.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("fetch first page %d: %w", first, err)
	}
	batchPages.WithLabelValues("ok").Inc()

	if last == 0 || last > totalPages {
		last = totalPages
	}

	results := map[int][]T{first: firstItems}

	log.Info().
		Int("first", first).
		Int("last", last).
		Int("total_pages", totalPages).
		Msg("Starting parallel page fetch")

	if last <= first {
		log.Info().
			Int("pages", 1).
			Dur("duration", time.Since(start)).
			Msg("Fetch complete (single page)")
		return results, nil
	}

	remaining := last - first
	pageQueue := make(chan int, remaining)
	pageResults := make(chan pageResult[T], remaining)

	for page := first + 1; page <= last; page++ {
		pageQueue <- page
	}
	close(pageQueue)

	workers := bf.config.MaxConcurrency
	if workers > remaining {
		workers = remaining
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go bf.worker(ctx, pageQueue, pageResults, &wg, i)
	}

	go func() {
		wg.Wait()
		close(pageResults)
	}()

	var firstErr error
	failed := 0
	for result := range pageResults {
		if result.err != nil {
			failed++
			batchPages.WithLabelValues("error").Inc()
			if firstErr == nil {
				firstErr = fmt.Errorf("page %d: %w", result.page, result.err)
			}
			continue
		}
		batchPages.WithLabelValues("ok").Inc()
		results[result.page] = result.items
	}

	want := last - first + 1
	if firstErr == nil && ctx.Err() != nil && len(results) < want {
		firstErr = ctx.Err()
	}

	if firstErr != nil {
		log.Warn().
			Err(firstErr).
			Int("fetched_pages", len(results)).
			Int("failed_pages", failed).
			Int("wanted_pages", want).
			Msg("Batch fetch incomplete - returning partial results")
		return results, fmt.Errorf("partial data %d/%d pages: %w", len(results), want, firstErr)
	}

	log.Info().
		Int("pages", len(results)).
		Dur("duration", time.Since(start)).
		Msg("Fetch complete")

	return results, nil
}

// worker processes pages from the queue until it is drained or ctx ends.
func (bf *BatchFetcher[T]) worker(ctx context.Context, pageQueue <-chan int, results chan<- pageResult[T], wg *sync.WaitGroup, workerID int) {
	defer wg.Done()
	processed := 0

	for page := range pageQueue {
		if ctx.Err() != nil {
			log.Debug().
				Int("worker_id", workerID).
				Int("pages_processed", processed).
				Msg("Worker stopping (context cancelled)")
			return
		}

		pageCtx, cancel := context.WithTimeout(ctx, bf.config.Timeout)
		items, _, err := bf.fetcher.FetchPage(pageCtx, page)
		cancel()

		if err != nil {
			log.Warn().
				Err(err).
				Int("worker_id", workerID).
				Int("page", page).
				Msg("Page fetch failed")
		}

		// Buffered to the number of queued pages; never blocks.
		results <- pageResult[T]{page: page, items: items, err: err}
		processed++
	}

	if processed > 0 {
		log.Debug().
			Int("worker_id", workerID).
			Int("pages_processed", processed).
			Msg("Worker completed")
	}
}

// Flatten concatenates batch results in page order.
func Flatten[T any](pages map[int][]T) []T {
	keys := make([]int, 0, len(pages))
	n := 0
	for k, items := range pages {
		keys = append(keys, k)
		n += len(items)
	}
	sort.Ints(keys)

	out := make([]T, 0, n)
	for _, k := range keys {
		out = append(out, pages[k]...)
	}
	return out
}
