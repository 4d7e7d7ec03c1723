// Package server wires configuration, storage, the data gateway and the HTTP
// API together and runs them until the process is signalled.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/fplassistant/internal/logging"
	"github.com/dmitrijs2005/fplassistant/internal/netx"
	"github.com/dmitrijs2005/fplassistant/internal/server/config"
	"github.com/dmitrijs2005/fplassistant/internal/server/fixtures"
	"github.com/dmitrijs2005/fplassistant/internal/server/fpl"
	"github.com/dmitrijs2005/fplassistant/internal/server/news"
	"github.com/dmitrijs2005/fplassistant/internal/server/password"
	"github.com/dmitrijs2005/fplassistant/internal/server/predictions"
	"github.com/dmitrijs2005/fplassistant/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/fplassistant/internal/server/rest"
	"github.com/dmitrijs2005/fplassistant/internal/server/services"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	repomanager repomanager.RepositoryManager
	http        *rest.Server
}

// newRepositoryManager is a seam for tests.
var newRepositoryManager = func(ctx context.Context, dsn string) (repomanager.RepositoryManager, error) {
	return repomanager.NewPostgresRepositoryManager(ctx, dsn)
}

// NewApp builds every component from c. Without a database DSN accounts are
// kept in memory.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	var rm repomanager.RepositoryManager
	if c.DatabaseDSN == "" {
		logger.Warn(ctx, "no database configured, accounts are kept in memory")
		rm = repomanager.NewMemoryRepositoryManager()
	} else {
		var err error
		rm, err = newRepositoryManager(ctx, c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		if err := rm.RunMigrations(ctx); err != nil {
			_ = rm.Close()
			return nil, fmt.Errorf("db migration error: %w", err)
		}
	}

	net := netx.NewClient(&http.Client{}, c.UserAgent)
	league := fpl.NewClient(net, c.FPLBaseURL, c.UpstreamTimeout)
	teams := fpl.NewTeamNames(league, c.TeamCacheTTL, logger.With("module", "team_names"))

	feeds := make([]news.Feed, 0, len(c.NewsFeeds))
	for _, f := range c.NewsFeeds {
		feeds = append(feeds, news.Feed{Name: f.Name, URL: f.URL})
	}

	users := services.NewUserService(rm, password.NewHasher(password.DefaultParams), c, logger.With("module", "users"))
	managers := services.NewManagerService(rm, league, logger.With("module", "manager_history"))

	fixtureService := fixtures.NewService(league, teams, net, fixtures.Options{
		ArchiveURL:     c.FixturesArchiveURL,
		Season:         c.Season,
		LastGameweek:   c.LastGameweek,
		ArchiveTimeout: c.ArchiveTimeout,
	}, logger.With("module", "fixtures"))

	store := predictions.NewStore(predictions.Settings{
		Bucket:       c.PredictionsBucket,
		Key:          c.PredictionsKey,
		Region:       c.S3Region,
		AccessKey:    c.S3AccessKey,
		SecretKey:    c.S3SecretKey,
		BaseEndpoint: c.S3BaseEndpoint,
	}, logger.With("module", "predictions"))

	srv := rest.NewServer(rest.Deps{
		Users:       users,
		Managers:    managers,
		League:      league,
		Fixtures:    fixtureService,
		News:        news.NewAggregator(feeds, net, c.FeedTimeout, c.NewsCacheTTL, logger.With("module", "news")),
		Predictions: store,
	}, rest.Options{
		Addr:          c.HTTPAddr,
		ClientOrigin:  c.ClientOrigin,
		WebDir:        c.WebDir,
		AuthRateLimit: c.AuthRateLimit,
		AuthRateBurst: c.AuthRateBurst,
		TrustProxy:    c.TrustProxyHeaders,
	}, logger)

	return &App{config: c, logger: logger, repomanager: rm, http: srv}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves HTTP until ctx is cancelled or a termination signal arrives,
// then closes the database.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	err := app.http.Run(ctx)

	if cerr := app.repomanager.Close(); cerr != nil {
		app.logger.Error(ctx, "closing database failed", "error", cerr)
	}
	app.logger.Info(ctx, "App stopped")
	return err
}
