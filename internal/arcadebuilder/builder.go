package arcadebuilder

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/park285/pixelcv-arcade/internal/adapter/arcadepresenter"
	"github.com/park285/pixelcv-arcade/internal/arcade"
	"github.com/park285/pixelcv-arcade/internal/backend"
	"github.com/park285/pixelcv-arcade/internal/config"
	"github.com/park285/pixelcv-arcade/internal/feed"
	"github.com/park285/pixelcv-arcade/internal/msgcat"
	"github.com/park285/pixelcv-arcade/internal/render"

	_ "github.com/park285/pixelcv-arcade/internal/game/checkers"
	_ "github.com/park285/pixelcv-arcade/internal/game/chess"
	_ "github.com/park285/pixelcv-arcade/internal/game/tictactoe"
)

const (
	feedReconnectAttempts = 5
	feedConnectTimeout    = 10 * time.Second
)

type Deps struct {
	Service   *arcade.Service
	Presenter *arcadepresenter.Presenter
	Catalog   *msgcat.Catalog
	Feed      *feed.Publisher
}

// New wires the arcade service from cfg. Redis and Postgres are optional;
// without them sessions and results stay in process memory.
func New(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cat, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}

	opts := arcade.Options{
		AIDelay:            cfg.AIDelay,
		DefaultDifficulty:  cfg.DefaultDifficulty,
		MaxSessionsPerUser: cfg.MaxSessionsPerUser,
	}

	// Session store
	if strings.TrimSpace(cfg.RedisURL) != "" {
		store, err := arcade.NewRedisStore(cfg.RedisURL, cfg.SessionTTL)
		if err != nil {
			return nil, fmt.Errorf("init session store: %w", err)
		}
		opts.Store = store
	} else {
		logger.Warn("session_store_memory", zap.String("reason", "REDIS_URL not set"))
	}

	// Repository
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		repo, err := arcade.NewPostgresRepository(cfg.DatabaseURL)
		if err != nil {
			return nil, multierr.Append(fmt.Errorf("init repository: %w", err), closeStore(opts.Store))
		}
		opts.Repository = repo
	} else {
		logger.Warn("repository_memory", zap.String("reason", "DATABASE_URL not set"))
	}

	// Scoring backend
	if cfg.BackendBaseURL != "" {
		client := backend.NewClient(cfg.BackendBaseURL, backend.WithTimeout(cfg.BackendTimeout))
		opts.Tuner = backend.NewTuner(client)
		if cfg.BackendToken != "" {
			opts.Reporter = backend.NewReporter(client, cfg.BackendToken)
		} else {
			logger.Warn("backend_reporting_disabled", zap.String("reason", "BACKEND_TOKEN not set"))
		}
	}

	// Live feed
	var pub *feed.Publisher
	if cfg.FeedWSURL != "" {
		ws := feed.NewWebSocket(cfg.FeedWSURL, feedReconnectAttempts, time.Second)
		if cfg.FeedToken != "" {
			token := cfg.FeedToken
			ws.SetHeaderProvider(func() map[string]string {
				return map[string]string{"Authorization": "Bearer " + token}
			})
		}
		pub = feed.NewPublisher(ws, cfg.FeedDryRun, logger.Named("feed"))
		if !cfg.FeedDryRun {
			cctx, cancel := context.WithTimeout(ctx, feedConnectTimeout)
			if err := ws.Connect(cctx); err != nil {
				// the client keeps retrying in the background
				logger.Warn("feed_connect_failed", zap.String("url", cfg.FeedWSURL), zap.Error(err))
			}
			cancel()
		}
		opts.Publisher = pub
	}

	svc, err := arcade.NewService(opts, logger.Named("arcade"))
	if err != nil {
		return nil, err
	}

	logger.Info("arcade_ready",
		zap.Bool("redis", opts.Store != nil),
		zap.Bool("postgres", opts.Repository != nil),
		zap.Bool("backend", opts.Reporter != nil),
		zap.Bool("feed", pub != nil),
		zap.String("default_difficulty", cfg.DefaultDifficulty),
	)

	return &Deps{
		Service:   svc,
		Presenter: arcadepresenter.NewPresenter(render.NewBoardRenderer(), arcadepresenter.NewFormatter(cat)),
		Catalog:   cat,
		Feed:      pub,
	}, nil
}

// Close tears down the service, then the feed.
func (d *Deps) Close(ctx context.Context) error {
	if d == nil {
		return nil
	}
	var err error
	if d.Service != nil {
		err = multierr.Append(err, d.Service.Close())
	}
	if d.Feed != nil {
		err = multierr.Append(err, d.Feed.Close(ctx))
	}
	return err
}

func closeStore(s arcade.SessionStore) error {
	if s == nil {
		return nil
	}
	return s.Close()
}
