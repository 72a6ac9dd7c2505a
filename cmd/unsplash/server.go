package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/unsplash-client/pkg/client"
	"github.com/Sternrassler/unsplash-client/pkg/errmsg"
	"github.com/Sternrassler/unsplash-client/pkg/logging"
	"github.com/Sternrassler/unsplash-client/pkg/metrics"
	"github.com/Sternrassler/unsplash-client/pkg/paging"
	"github.com/Sternrassler/unsplash-client/pkg/unsplash"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const (
	requestIDHeader = "X-Request-Id"
	shutdownTimeout = 10 * time.Second

	// statusClientClosedRequest is the nginx status for callers that went away.
	statusClientClosedRequest = 499
)

// server exposes the paging sources over HTTP.
type server struct {
	api    *unsplash.API
	paging paging.Config
	ready  func(ctx context.Context) error
	logger zerolog.Logger
}

// pageResponse is one loaded page. Keys are null at the ends.
type pageResponse[T any] struct {
	Data    []T  `json:"data"`
	PrevKey *int `json:"prev_key"`
	NextKey *int `json:"next_key"`
}

type errorResponse struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

type ctxKeyRequestID struct{}

func requestIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyRequestID{}).(string)
	return v
}

// requestIDMiddleware propagates or assigns X-Request-Id.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if rid == "" {
			rid = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, rid)
		ctx := context.WithValue(r.Context(), ctxKeyRequestID{}, rid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// accessLog logs one line per request.
func (s *server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", requestIDFromContext(r.Context())).
			Msg("Request served")
	})
}

func (s *server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", healthHandler)
	r.Get("/readyz", s.readyHandler)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/photos", pageHandler(s, func(_ *http.Request) (*paging.Source[unsplash.Photo], error) {
			return s.api.PhotosSource(s.paging), nil
		}))
		r.Get("/topics", pageHandler(s, func(_ *http.Request) (*paging.Source[unsplash.Topic], error) {
			return s.api.TopicsSource(s.paging), nil
		}))
		r.Get("/topics/{slug}/photos", pageHandler(s, func(r *http.Request) (*paging.Source[unsplash.Photo], error) {
			return s.api.TopicPhotosSource(chi.URLParam(r, "slug"), s.paging), nil
		}))
		r.Get("/collections", pageHandler(s, func(_ *http.Request) (*paging.Source[unsplash.Collection], error) {
			return s.api.CollectionsSource(s.paging), nil
		}))
		r.Get("/collections/{id}/photos", pageHandler(s, func(r *http.Request) (*paging.Source[unsplash.Photo], error) {
			return s.api.CollectionPhotosSource(chi.URLParam(r, "id"), s.paging), nil
		}))
		r.Get("/users/{username}/photos", pageHandler(s, func(r *http.Request) (*paging.Source[unsplash.Photo], error) {
			return s.api.UserPhotosSource(chi.URLParam(r, "username"), s.paging), nil
		}))
		r.Get("/users/{username}/likes", pageHandler(s, func(r *http.Request) (*paging.Source[unsplash.Photo], error) {
			return s.api.UserLikesSource(chi.URLParam(r, "username"), s.paging), nil
		}))
		r.Get("/users/{username}/collections", pageHandler(s, func(r *http.Request) (*paging.Source[unsplash.Collection], error) {
			return s.api.UserCollectionsSource(chi.URLParam(r, "username"), s.paging), nil
		}))
		r.Get("/search/photos", pageHandler(s, func(r *http.Request) (*paging.Source[unsplash.Photo], error) {
			q, err := searchQuery(r)
			if err != nil {
				return nil, err
			}
			return s.api.SearchPhotosSource(q, s.paging), nil
		}))
		r.Get("/search/collections", pageHandler(s, func(r *http.Request) (*paging.Source[unsplash.Collection], error) {
			q, err := searchQuery(r)
			if err != nil {
				return nil, err
			}
			return s.api.SearchCollectionsSource(q, s.paging), nil
		}))
		r.Get("/search/users", pageHandler(s, func(r *http.Request) (*paging.Source[unsplash.User], error) {
			q, err := searchQuery(r)
			if err != nil {
				return nil, err
			}
			return s.api.SearchUsersSource(q, s.paging), nil
		}))
	})

	return r
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

func (s *server) readyHandler(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("Readiness check failed")
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

// badRequest is a request error detected before any upstream call.
type badRequest struct {
	code    string
	message string
}

func (e *badRequest) Error() string { return e.message }

func searchQuery(r *http.Request) (string, error) {
	q := strings.TrimSpace(r.URL.Query().Get("query"))
	if q == "" {
		return "", &badRequest{code: "MISSING_QUERY", message: "query is required"}
	}
	return q, nil
}

// pageKey reads ?page=. A missing parameter loads the first page.
func pageKey(r *http.Request) (*int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("page"))
	if raw == "" {
		return nil, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil {
		return nil, &badRequest{code: "INVALID_PAGE", message: fmt.Sprintf("page %q is not a number", raw)}
	}
	return &page, nil
}

// pageHandler loads one page of the source built for the request.
func pageHandler[T any](s *server, build func(r *http.Request) (*paging.Source[T], error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := requestIDFromContext(r.Context())

		key, err := pageKey(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		src, err := build(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		res := src.Load(r.Context(), paging.LoadParams{
			Key:      key,
			LoadSize: src.PageSize(),
			Kind:     paging.LoadRefresh,
		})
		if res.Err != nil {
			s.logger.Debug().Err(res.Err).Str("request_id", rid).Msg("Page load failed")
			s.writeError(w, r, res.Err)
			return
		}

		data := res.Page.Data
		if data == nil {
			data = []T{}
		}
		writeJSON(w, http.StatusOK, pageResponse[T]{
			Data:    data,
			PrevKey: res.Page.PrevKey,
			NextKey: res.Page.NextKey,
		})
	}
}

// errorStatus maps a failure to the response status and error code.
func errorStatus(err error) (int, string) {
	var bad *badRequest
	if errors.As(err, &bad) {
		return http.StatusBadRequest, bad.code
	}
	if errors.Is(err, paging.ErrInvalidKey) {
		return http.StatusBadRequest, "INVALID_PAGE"
	}

	switch client.Classify(err) {
	case client.ErrorClassClient:
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return http.StatusNotFound, "NOT_FOUND"
		}
		return http.StatusBadGateway, "UPSTREAM_REJECTED"
	case client.ErrorClassServer:
		return http.StatusBadGateway, "UPSTREAM_ERROR"
	case client.ErrorClassEmptyBody:
		return http.StatusBadGateway, "UPSTREAM_EMPTY_BODY"
	case client.ErrorClassNetwork:
		if client.IsTimeout(err) {
			return http.StatusGatewayTimeout, "UPSTREAM_TIMEOUT"
		}
		return http.StatusBadGateway, "UPSTREAM_UNAVAILABLE"
	case client.ErrorClassRateLimit:
		return http.StatusTooManyRequests, "RATE_LIMITED"
	case client.ErrorClassCanceled:
		return statusClientClosedRequest, "CANCELED"
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}

// writeError writes the error envelope. The message is localized for the
// caller's Accept-Language.
func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorStatus(err)

	message := err.Error()
	var bad *badRequest
	if !errors.As(err, &bad) {
		message = errmsg.New(r.Header.Get("Accept-Language")).Format(err)
	}

	writeJSON(w, status, errorResponse{Error: apiError{
		Code:      code,
		Message:   message,
		RequestID: requestIDFromContext(r.Context()),
	}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newServeCommand(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the paged listings as JSON over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			api, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			if addr == "" {
				addr = a.cfg.Server.Addr
			}

			s := &server{
				api:    api,
				paging: a.sourceConfig(),
				ready:  a.client.Ping,
				logger: logging.NewLogger("server"),
			}
			return s.listenAndServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: server.addr)")
	return cmd
}

// listenAndServe serves until ctx ends, then shuts down gracefully.
func (s *server) listenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("HTTP server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info().Msg("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
