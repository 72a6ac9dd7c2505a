package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Sternrassler/unsplash-client/pkg/client"
	"github.com/Sternrassler/unsplash-client/pkg/paging"
	"github.com/Sternrassler/unsplash-client/pkg/unsplash"
	"github.com/spf13/cobra"
)

// browseOptions are the flags shared by all listing commands.
type browseOptions struct {
	page    int
	pages   int
	json    bool
	retries int
}

func (o *browseOptions) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&o.page, "page", paging.StartingPage, "first page to show")
	cmd.Flags().IntVar(&o.pages, "pages", 1, "number of pages to show")
	cmd.Flags().BoolVar(&o.json, "json", false, "print one JSON document per line")
	cmd.Flags().IntVar(&o.retries, "retries", 1, "retries of a page that failed with a server or network error")
}

func (o browseOptions) validate() error {
	if o.page < paging.StartingPage {
		return fmt.Errorf("--page must be >= %d", paging.StartingPage)
	}
	if o.pages < 1 {
		return fmt.Errorf("--pages must be >= 1")
	}
	if o.retries < 0 {
		return fmt.Errorf("--retries must be >= 0")
	}
	return nil
}

// retryable reports whether repeating the failed load can help.
func retryable(err error) bool {
	switch client.Classify(err) {
	case client.ErrorClassNetwork, client.ErrorClassServer, client.ErrorClassEmptyBody:
		return true
	default:
		return false
	}
}

// browse pages through src and prints the items. Items loaded before a
// failure are printed before the error is returned.
func browse[T any](cmd *cobra.Command, a *app, src *paging.Source[T], opts browseOptions, render func(io.Writer, T)) error {
	ctx := cmd.Context()
	pager := paging.NewPagerAt(src, opts.page)
	defer pager.Close()

	var loadErr error
	for i := 0; i < opts.pages; i++ {
		load := pager.Append
		if i == 0 {
			load = pager.Refresh
		} else if pager.Snapshot().Append.EndReached {
			break
		}

		err := load(ctx)
		for attempt := 0; err != nil && attempt < opts.retries && retryable(err); attempt++ {
			a.logger.Debug().Err(err).Int("attempt", attempt+1).Msg("Retrying page")
			err = pager.Retry(ctx)
		}
		if err != nil {
			loadErr = err
			break
		}
	}

	out := cmd.OutOrStdout()
	snap := pager.Snapshot()
	if err := printItems(out, snap.Items, opts.json, render); err != nil {
		return err
	}

	if loadErr != nil {
		return errors.New(a.formatter.Format(loadErr))
	}
	if len(snap.Items) == 0 && !opts.json {
		fmt.Fprintln(out, "No results.")
	}
	return nil
}

func printItems[T any](w io.Writer, items []T, asJSON bool, render func(io.Writer, T)) error {
	if !asJSON {
		for _, item := range items {
			render(w, item)
		}
		return nil
	}

	enc := json.NewEncoder(w)
	for _, item := range items {
		if err := enc.Encode(item); err != nil {
			return fmt.Errorf("encode item: %w", err)
		}
	}
	return nil
}

func renderPhoto(w io.Writer, p unsplash.Photo) {
	author := "-"
	if p.User != nil {
		author = p.User.Username
	}
	desc := p.Description
	if desc == "" {
		desc = p.AltDescription
	}
	fmt.Fprintf(w, "%s\t%dx%d\t%d likes\t@%s\t%s\n", p.ID, p.Width, p.Height, p.Likes, author, oneLine(desc))
}

func renderCollection(w io.Writer, c unsplash.Collection) {
	fmt.Fprintf(w, "%s\t%d photos\t%s\n", c.ID, c.TotalPhotos, oneLine(c.Title))
}

func renderTopic(w io.Writer, t unsplash.Topic) {
	fmt.Fprintf(w, "%s\t%d photos\t%s\n", t.Slug, t.TotalPhotos, oneLine(t.Title))
}

func renderUser(w io.Writer, u unsplash.User) {
	fmt.Fprintf(w, "@%s\t%d photos\t%s\n", u.Username, u.TotalPhotos, oneLine(u.Name))
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// listCommand builds a listing command. source is called after the API is
// connected, with the positional arguments.
func listCommand[T any](a *app, use, short string, args cobra.PositionalArgs, source func(api *unsplash.API, args []string) *paging.Source[T], render func(io.Writer, T)) *cobra.Command {
	var opts browseOptions

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.validate(); err != nil {
				return err
			}
			api, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			return browse(cmd, a, source(api, args), opts, render)
		},
	}
	opts.register(cmd)
	return cmd
}

func newPhotosCommand(a *app) *cobra.Command {
	return listCommand(a, "photos", "List the editorial photo feed", cobra.NoArgs,
		func(api *unsplash.API, _ []string) *paging.Source[unsplash.Photo] {
			return api.PhotosSource(a.sourceConfig())
		}, renderPhoto)
}

func newTopicsCommand(a *app) *cobra.Command {
	return listCommand(a, "topics", "List topics", cobra.NoArgs,
		func(api *unsplash.API, _ []string) *paging.Source[unsplash.Topic] {
			return api.TopicsSource(a.sourceConfig())
		}, renderTopic)
}

func newTopicCommand(a *app) *cobra.Command {
	return listCommand(a, "topic <id-or-slug>", "List the photos of a topic", cobra.ExactArgs(1),
		func(api *unsplash.API, args []string) *paging.Source[unsplash.Photo] {
			return api.TopicPhotosSource(args[0], a.sourceConfig())
		}, renderPhoto)
}

func newCollectionsCommand(a *app) *cobra.Command {
	return listCommand(a, "collections", "List featured collections", cobra.NoArgs,
		func(api *unsplash.API, _ []string) *paging.Source[unsplash.Collection] {
			return api.CollectionsSource(a.sourceConfig())
		}, renderCollection)
}

func newCollectionCommand(a *app) *cobra.Command {
	return listCommand(a, "collection <id>", "List the photos of a collection", cobra.ExactArgs(1),
		func(api *unsplash.API, args []string) *paging.Source[unsplash.Photo] {
			return api.CollectionPhotosSource(args[0], a.sourceConfig())
		}, renderPhoto)
}

func newUserCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "List the photos, likes or collections of a user",
	}

	cmd.AddCommand(
		listCommand(a, "photos <username>", "List the photos of a user", cobra.ExactArgs(1),
			func(api *unsplash.API, args []string) *paging.Source[unsplash.Photo] {
				return api.UserPhotosSource(args[0], a.sourceConfig())
			}, renderPhoto),
		listCommand(a, "likes <username>", "List the photos a user liked", cobra.ExactArgs(1),
			func(api *unsplash.API, args []string) *paging.Source[unsplash.Photo] {
				return api.UserLikesSource(args[0], a.sourceConfig())
			}, renderPhoto),
		listCommand(a, "collections <username>", "List the collections of a user", cobra.ExactArgs(1),
			func(api *unsplash.API, args []string) *paging.Source[unsplash.Collection] {
				return api.UserCollectionsSource(args[0], a.sourceConfig())
			}, renderCollection),
	)
	return cmd
}

func newSearchCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search photos, collections or users",
	}

	query := func(args []string) string {
		return strings.Join(args, " ")
	}

	cmd.AddCommand(
		listCommand(a, "photos <query>", "Search photos", cobra.MinimumNArgs(1),
			func(api *unsplash.API, args []string) *paging.Source[unsplash.Photo] {
				return api.SearchPhotosSource(query(args), a.sourceConfig())
			}, renderPhoto),
		listCommand(a, "collections <query>", "Search collections", cobra.MinimumNArgs(1),
			func(api *unsplash.API, args []string) *paging.Source[unsplash.Collection] {
				return api.SearchCollectionsSource(query(args), a.sourceConfig())
			}, renderCollection),
		listCommand(a, "users <query>", "Search users", cobra.MinimumNArgs(1),
			func(api *unsplash.API, args []string) *paging.Source[unsplash.User] {
				return api.SearchUsersSource(query(args), a.sourceConfig())
			}, renderUser),
	)
	return cmd
}
