package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Sternrassler/unsplash-client/internal/config"
	"github.com/Sternrassler/unsplash-client/pkg/client"
	"github.com/Sternrassler/unsplash-client/pkg/errmsg"
	"github.com/Sternrassler/unsplash-client/pkg/logging"
	"github.com/Sternrassler/unsplash-client/pkg/paging"
	"github.com/Sternrassler/unsplash-client/pkg/prefs"
	"github.com/Sternrassler/unsplash-client/pkg/telemetry"
	"github.com/Sternrassler/unsplash-client/pkg/unsplash"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// flushTimeout bounds the wait for buffered telemetry on exit.
const flushTimeout = 2 * time.Second

// app holds the wired dependencies of one command invocation. Everything
// past the configuration is created on demand, so commands that only touch
// preferences never need an access key.
type app struct {
	configPath string
	logLevel   string
	locale     string

	cfg       *config.Config
	logger    zerolog.Logger
	formatter *errmsg.Formatter

	store    prefs.Store
	session  *prefs.Session
	recorder telemetry.Recorder
	redis    *redis.Client
	client   *client.Client
	api      *unsplash.API
}

// load reads the configuration and installs the logger. Flags win over the
// file and the environment.
func (a *app) load(stderr io.Writer) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	if a.locale != "" {
		cfg.Locale = a.locale
	}
	if _, err := logging.ParseLevel(cfg.Logging.Level); err != nil {
		return err
	}

	logging.Setup(logging.Config{
		Level:   logging.LogLevel(cfg.Logging.Level),
		Pretty:  cfg.Logging.Pretty,
		Output:  stderr,
		Service: "unsplash",
	})

	a.cfg = cfg
	a.logger = logging.NewLogger("cli")
	a.formatter = errmsg.New(cfg.Locale)
	return nil
}

// openSession opens the preference store and the login session. A locale
// saved with the locale command applies unless --locale was given.
func (a *app) openSession() (*prefs.Session, error) {
	if a.session != nil {
		return a.session, nil
	}

	store, err := prefs.OpenBolt(a.cfg.Prefs.Path)
	if err != nil {
		return nil, err
	}
	session, err := prefs.NewSession(store)
	if err != nil {
		store.Close()
		return nil, err
	}

	if a.locale == "" {
		saved, err := store.Get(prefs.KeyLocale)
		switch {
		case err == nil:
			a.formatter = errmsg.New(saved, a.cfg.Locale)
		case !errors.Is(err, prefs.ErrNotFound):
			a.logger.Warn().Err(err).Msg("Failed to read saved locale")
		}
	}

	a.store = store
	a.session = session
	return session, nil
}

// connect wires telemetry, the optional Redis backend and the API client.
func (a *app) connect(ctx context.Context) (*unsplash.API, error) {
	if a.api != nil {
		return a.api, nil
	}
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}

	session, err := a.openSession()
	if err != nil {
		return nil, err
	}

	recorder, err := telemetry.InitSentry(telemetry.Options{
		DSN:         a.cfg.Telemetry.SentryDSN,
		ServerName:  "unsplash",
		Release:     a.cfg.Telemetry.Release,
		Environment: a.cfg.Telemetry.Environment,
	})
	if err != nil {
		// Telemetry never blocks browsing.
		a.logger.Warn().Err(err).Msg("Sentry disabled")
		recorder = telemetry.Nop
	}
	a.recorder = recorder

	if a.cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     a.cfg.Redis.Addr,
			Password: a.cfg.Redis.Password,
			DB:       a.cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, fmt.Errorf("connect to redis at %s: %w", a.cfg.Redis.Addr, err)
		}
		a.logger.Debug().Str("addr", a.cfg.Redis.Addr).Msg("Connected to Redis")
		a.redis = rdb
	}

	state := session.State()
	c, err := client.New(client.Config{
		BaseURL:   a.cfg.API.BaseURL,
		AccessKey: a.cfg.API.AccessKey,
		UserToken: session.AccessToken(),
		UserAgent: a.cfg.API.UserAgent,
		Timeout:   a.cfg.API.Timeout,
		Redis:     a.redis,
		Scope:     state.Username,
	})
	if err != nil {
		return nil, err
	}

	a.client = c
	a.api = unsplash.NewAPI(c)
	return a.api, nil
}

// sourceConfig is the paging configuration shared by all sources.
func (a *app) sourceConfig() paging.Config {
	recorder := a.recorder
	if recorder == nil {
		recorder = telemetry.Nop
	}
	return paging.Config{PageSize: a.cfg.API.PerPage, Recorder: recorder}
}

// close releases everything connect and openSession created.
func (a *app) close() {
	if a.client != nil {
		a.client.Close()
	}
	if a.redis != nil {
		a.redis.Close()
	}
	if a.session != nil {
		a.session.Close()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("Failed to close preference store")
		}
	}
	if _, ok := a.recorder.(*telemetry.SentryRecorder); ok {
		telemetry.Flush(flushTimeout)
	}
}
