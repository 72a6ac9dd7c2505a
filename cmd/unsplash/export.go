package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/Sternrassler/unsplash-client/pkg/paging"
	"github.com/Sternrassler/unsplash-client/pkg/unsplash"
	"github.com/spf13/cobra"
)

type exportOptions struct {
	output      string
	concurrency int
	first       int
	last        int
}

func newExportCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export complete listings as JSON lines",
	}
	cmd.AddCommand(newExportCollectionCommand(a))
	return cmd
}

func newExportCollectionCommand(a *app) *cobra.Command {
	var opts exportOptions

	cmd := &cobra.Command{
		Use:   "collection <id>",
		Short: "Export all photos of a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}

			id := args[0]
			fetch := unsplash.BatchPages(func(ctx context.Context, page, perPage int) (*unsplash.List[unsplash.Photo], error) {
				return api.CollectionPhotos(ctx, id, page, perPage)
			}, a.cfg.API.PerPage)

			return exportPages(cmd, a, fetch, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", paging.DefaultBatchConfig().MaxConcurrency, "parallel page requests")
	cmd.Flags().IntVar(&opts.first, "from", paging.StartingPage, "first page")
	cmd.Flags().IntVar(&opts.last, "to", 0, "last page (default: all)")
	return cmd
}

// exportPages fetches the pages in parallel and writes the items in page
// order. Partial results are written before the error is returned.
func exportPages[T any](cmd *cobra.Command, a *app, fetch paging.PageFetcher[T], opts exportOptions) error {
	batch := paging.NewBatchFetcher(fetch, paging.BatchConfig{
		MaxConcurrency: opts.concurrency,
		Timeout:        a.cfg.API.Timeout,
	})

	var (
		pages map[int][]T
		err   error
	)
	if opts.last == 0 && opts.first == paging.StartingPage {
		pages, err = batch.FetchAllPages(cmd.Context())
	} else {
		last := opts.last
		if last == 0 {
			last = math.MaxInt
		}
		pages, err = batch.FetchRange(cmd.Context(), opts.first, last)
	}

	items := paging.Flatten(pages)
	if len(items) > 0 {
		if werr := writeJSONLines(cmd.OutOrStdout(), opts.output, items); werr != nil {
			return werr
		}
	}

	a.logger.Info().
		Int("pages", len(pages)).
		Int("items", len(items)).
		Str("output", opts.output).
		Msg("Export finished")

	if err != nil {
		return fmt.Errorf("export incomplete after %d pages: %s", len(pages), a.formatter.Format(err))
	}
	return nil
}

func writeJSONLines[T any](stdout io.Writer, path string, items []T) error {
	if path == "" {
		return printItems(stdout, items, true, nil)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := printItems(f, items, true, nil); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
