// Package paging turns a "fetch page N" call into a bidirectionally paged,
// retry-capable stream.
//
// A Source wraps one FetchFunc. Load resolves the page key (nil means
// StartingPage), calls the fetch step and converts the outcome into a
// LoadResult: either a Page with its neighbouring keys or a classified
// LoadError. Load never returns a Go error and never panics.
//
//	src := paging.NewSource("photos", func(ctx context.Context, page int) ([]unsplash.Photo, error) {
//		list, err := api.ListPhotos(ctx, page, paging.DefaultPageSize)
//		if err != nil {
//			return nil, err
//		}
//		return list.Items, nil
//	}, paging.Config{Recorder: recorder})
//
//	res := src.Load(ctx, paging.LoadParams{LoadSize: paging.DefaultPageSize})
//
// Server errors and empty bodies are handed to the telemetry Recorder,
// tagged with the source name and page. Client and network errors are only
// logged.
//
// A Pager owns the loaded pages of one stream. It allows one load at a
// time, tracks the NotLoading/Loading/Error state separately for refresh,
// prepend and append, and publishes a Snapshot after every transition.
// Refresh reloads around the anchor position using RefreshKey so the
// reader keeps their place. Nothing retries on its own: Retry repeats the
// last failed load when the caller asks for it.
//
// BatchFetcher fetches many pages concurrently with a bounded worker pool
// and returns partial results when some pages fail.
package paging
