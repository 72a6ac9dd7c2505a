// Package unsplash binds the Unsplash REST API to the paging engine.
//
// API wraps a client.Client with one method per endpoint. The Source
// constructors bind the list endpoints to paging.Source with the fixed page
// size of 30 and a stable telemetry key per source.
package unsplash

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Sternrassler/unsplash-client/pkg/client"
)

// Getter is the subset of client.Client used by API.
type Getter interface {
	GetJSON(ctx context.Context, ep client.Endpoint, out any) (http.Header, error)
}

// API exposes the Unsplash endpoints.
type API struct {
	client Getter
}

// NewAPI creates an API on c.
func NewAPI(c Getter) *API {
	return &API{client: c}
}

func pageQuery(page, perPage int) url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))
	return q
}

// list fetches a JSON array endpoint. Totals come from the X-Total header.
func list[T any](ctx context.Context, c Getter, route, path string, q url.Values) (*List[T], error) {
	var items []T
	header, err := c.GetJSON(ctx, client.Endpoint{Route: route, Path: path, Query: q}, &items)
	if err != nil {
		return nil, err
	}

	perPage, _ := strconv.Atoi(q.Get("per_page"))
	return &List[T]{
		Items:      items,
		Total:      totalFrom(header),
		TotalPages: pagesFor(totalFrom(header), perPage),
	}, nil
}

// search fetches a search endpoint with its {total, total_pages, results} envelope.
func search[T any](ctx context.Context, c Getter, route string, q url.Values) (*List[T], error) {
	var res SearchResult[T]
	if _, err := c.GetJSON(ctx, client.Endpoint{Route: route, Path: route, Query: q}, &res); err != nil {
		return nil, err
	}
	if res.Results == nil {
		res.Results = []T{}
	}
	return &List[T]{Items: res.Results, Total: res.Total, TotalPages: res.TotalPages}, nil
}

func get[T any](ctx context.Context, c Getter, route, path string) (*T, error) {
	var out T
	if _, err := c.GetJSON(ctx, client.Endpoint{Route: route, Path: path}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func totalFrom(h http.Header) int {
	n, err := strconv.Atoi(strings.TrimSpace(h.Get("X-Total")))
	if err != nil || n < 0 {
		return -1
	}
	return n
}

func pagesFor(total, perPage int) int {
	if total < 0 || perPage <= 0 {
		return -1
	}
	return (total + perPage - 1) / perPage
}

func escape(segment string) string {
	return url.PathEscape(segment)
}

// ListPhotos returns a page of the editorial feed.
func (a *API) ListPhotos(ctx context.Context, page, perPage int) (*List[Photo], error) {
	return list[Photo](ctx, a.client, "/photos", "/photos", pageQuery(page, perPage))
}

// GetPhoto returns a single photo.
func (a *API) GetPhoto(ctx context.Context, id string) (*Photo, error) {
	return get[Photo](ctx, a.client, "/photos/{id}", "/photos/"+escape(id))
}

// ListTopics returns a page of topics.
func (a *API) ListTopics(ctx context.Context, page, perPage int) (*List[Topic], error) {
	return list[Topic](ctx, a.client, "/topics", "/topics", pageQuery(page, perPage))
}

// GetTopic returns a topic by slug or id.
func (a *API) GetTopic(ctx context.Context, idOrSlug string) (*Topic, error) {
	return get[Topic](ctx, a.client, "/topics/{id_or_slug}", "/topics/"+escape(idOrSlug))
}

// TopicPhotos returns a page of a topic's photos.
func (a *API) TopicPhotos(ctx context.Context, idOrSlug string, page, perPage int) (*List[Photo], error) {
	return list[Photo](ctx, a.client, "/topics/{id_or_slug}/photos", "/topics/"+escape(idOrSlug)+"/photos", pageQuery(page, perPage))
}

// ListCollections returns a page of featured collections.
func (a *API) ListCollections(ctx context.Context, page, perPage int) (*List[Collection], error) {
	return list[Collection](ctx, a.client, "/collections", "/collections", pageQuery(page, perPage))
}

// GetCollection returns a single collection.
func (a *API) GetCollection(ctx context.Context, id string) (*Collection, error) {
	return get[Collection](ctx, a.client, "/collections/{id}", "/collections/"+escape(id))
}

// CollectionPhotos returns a page of a collection's photos.
func (a *API) CollectionPhotos(ctx context.Context, id string, page, perPage int) (*List[Photo], error) {
	return list[Photo](ctx, a.client, "/collections/{id}/photos", "/collections/"+escape(id)+"/photos", pageQuery(page, perPage))
}

// GetUser returns a public profile.
func (a *API) GetUser(ctx context.Context, username string) (*User, error) {
	return get[User](ctx, a.client, "/users/{username}", "/users/"+escape(username))
}

// UserPhotos returns a page of a user's photos.
func (a *API) UserPhotos(ctx context.Context, username string, page, perPage int) (*List[Photo], error) {
	return list[Photo](ctx, a.client, "/users/{username}/photos", "/users/"+escape(username)+"/photos", pageQuery(page, perPage))
}

// UserLikes returns a page of the photos a user liked.
func (a *API) UserLikes(ctx context.Context, username string, page, perPage int) (*List[Photo], error) {
	return list[Photo](ctx, a.client, "/users/{username}/likes", "/users/"+escape(username)+"/likes", pageQuery(page, perPage))
}

// UserCollections returns a page of a user's collections.
func (a *API) UserCollections(ctx context.Context, username string, page, perPage int) (*List[Collection], error) {
	return list[Collection](ctx, a.client, "/users/{username}/collections", "/users/"+escape(username)+"/collections", pageQuery(page, perPage))
}

// Me returns the profile of the logged-in user. It requires a user token.
func (a *API) Me(ctx context.Context) (*User, error) {
	return get[User](ctx, a.client, "/me", "/me")
}

func searchQuery(query string, page, perPage int) (url.Values, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search query is required")
	}
	q := pageQuery(page, perPage)
	q.Set("query", query)
	return q, nil
}

// SearchPhotos returns a page of photos matching query.
func (a *API) SearchPhotos(ctx context.Context, query string, page, perPage int) (*List[Photo], error) {
	q, err := searchQuery(query, page, perPage)
	if err != nil {
		return nil, err
	}
	return search[Photo](ctx, a.client, "/search/photos", q)
}

// SearchCollections returns a page of collections matching query.
func (a *API) SearchCollections(ctx context.Context, query string, page, perPage int) (*List[Collection], error) {
	q, err := searchQuery(query, page, perPage)
	if err != nil {
		return nil, err
	}
	return search[Collection](ctx, a.client, "/search/collections", q)
}

// SearchUsers returns a page of users matching query.
func (a *API) SearchUsers(ctx context.Context, query string, page, perPage int) (*List[User], error) {
	q, err := searchQuery(query, page, perPage)
	if err != nil {
		return nil, err
	}
	return search[User](ctx, a.client, "/search/users", q)
}
