package unsplash

import (
	"context"
	"fmt"

	"github.com/Sternrassler/unsplash-client/pkg/paging"
)

// Telemetry keys of the paging sources.
const (
	SourcePhotos            = "photos"
	SourceTopics            = "topics"
	SourceTopicPhotos       = "topic_photos"
	SourceCollections       = "collections"
	SourceCollectionPhotos  = "collection_photos"
	SourceUserPhotos        = "user_photos"
	SourceUserLikes         = "user_likes"
	SourceUserCollections   = "user_collections"
	SourceSearchPhotos      = "search_photos"
	SourceSearchCollections = "search_collections"
	SourceSearchUsers       = "search_users"
)

// PageFunc fetches one page of a list endpoint.
type PageFunc[T any] func(ctx context.Context, page, perPage int) (*List[T], error)

func perPage(cfg paging.Config) int {
	if cfg.PageSize > 0 {
		return cfg.PageSize
	}
	return paging.DefaultPageSize
}

// NewSource binds fn to a paging source named name.
func NewSource[T any](name string, fn PageFunc[T], cfg paging.Config) *paging.Source[T] {
	size := perPage(cfg)
	cfg.PageSize = size
	return paging.NewSource(name, func(ctx context.Context, page int) ([]T, error) {
		l, err := fn(ctx, page, size)
		if err != nil {
			return nil, err
		}
		return l.Items, nil
	}, cfg)
}

// BatchPages adapts fn to a paging.PageFetcher for parallel export. It fails
// when the endpoint does not report a total.
func BatchPages[T any](fn PageFunc[T], perPage int) paging.PageFetcherFunc[T] {
	if perPage <= 0 {
		perPage = paging.DefaultPageSize
	}
	return func(ctx context.Context, page int) ([]T, int, error) {
		l, err := fn(ctx, page, perPage)
		if err != nil {
			return nil, 0, err
		}
		if l.TotalPages < 0 {
			return nil, 0, fmt.Errorf("endpoint did not report a total")
		}
		return l.Items, l.TotalPages, nil
	}
}

// PhotosSource pages the editorial feed.
func (a *API) PhotosSource(cfg paging.Config) *paging.Source[Photo] {
	return NewSource(SourcePhotos, a.ListPhotos, cfg)
}

// TopicsSource pages the topic list.
func (a *API) TopicsSource(cfg paging.Config) *paging.Source[Topic] {
	return NewSource(SourceTopics, a.ListTopics, cfg)
}

// TopicPhotosSource pages the photos of a topic.
func (a *API) TopicPhotosSource(idOrSlug string, cfg paging.Config) *paging.Source[Photo] {
	return NewSource(SourceTopicPhotos, func(ctx context.Context, page, perPage int) (*List[Photo], error) {
		return a.TopicPhotos(ctx, idOrSlug, page, perPage)
	}, cfg)
}

// CollectionsSource pages the featured collections.
func (a *API) CollectionsSource(cfg paging.Config) *paging.Source[Collection] {
	return NewSource(SourceCollections, a.ListCollections, cfg)
}

// CollectionPhotosSource pages the photos of a collection.
func (a *API) CollectionPhotosSource(id string, cfg paging.Config) *paging.Source[Photo] {
	return NewSource(SourceCollectionPhotos, func(ctx context.Context, page, perPage int) (*List[Photo], error) {
		return a.CollectionPhotos(ctx, id, page, perPage)
	}, cfg)
}

// UserPhotosSource pages a user's photos.
func (a *API) UserPhotosSource(username string, cfg paging.Config) *paging.Source[Photo] {
	return NewSource(SourceUserPhotos, func(ctx context.Context, page, perPage int) (*List[Photo], error) {
		return a.UserPhotos(ctx, username, page, perPage)
	}, cfg)
}

// UserLikesSource pages the photos a user liked.
func (a *API) UserLikesSource(username string, cfg paging.Config) *paging.Source[Photo] {
	return NewSource(SourceUserLikes, func(ctx context.Context, page, perPage int) (*List[Photo], error) {
		return a.UserLikes(ctx, username, page, perPage)
	}, cfg)
}

// UserCollectionsSource pages a user's collections.
func (a *API) UserCollectionsSource(username string, cfg paging.Config) *paging.Source[Collection] {
	return NewSource(SourceUserCollections, func(ctx context.Context, page, perPage int) (*List[Collection], error) {
		return a.UserCollections(ctx, username, page, perPage)
	}, cfg)
}

// SearchPhotosSource pages photo search results.
func (a *API) SearchPhotosSource(query string, cfg paging.Config) *paging.Source[Photo] {
	return NewSource(SourceSearchPhotos, func(ctx context.Context, page, perPage int) (*List[Photo], error) {
		return a.SearchPhotos(ctx, query, page, perPage)
	}, cfg)
}

// SearchCollectionsSource pages collection search results.
func (a *API) SearchCollectionsSource(query string, cfg paging.Config) *paging.Source[Collection] {
	return NewSource(SourceSearchCollections, func(ctx context.Context, page, perPage int) (*List[Collection], error) {
		return a.SearchCollections(ctx, query, page, perPage)
	}, cfg)
}

// SearchUsersSource pages user search results.
func (a *API) SearchUsersSource(query string, cfg paging.Config) *paging.Source[User] {
	return NewSource(SourceSearchUsers, func(ctx context.Context, page, perPage int) (*List[User], error) {
		return a.SearchUsers(ctx, query, page, perPage)
	}, cfg)
}
