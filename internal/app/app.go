package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/KRTNP/line-fire-alert-system/internal/config"
	"github.com/KRTNP/line-fire-alert-system/internal/dispatch"
	"github.com/KRTNP/line-fire-alert-system/internal/line"
	"github.com/KRTNP/line-fire-alert-system/internal/store"
)

// App wires the store, the LINE client, the dispatcher and the router
// behind one HTTP server.
type App struct {
	cfg    config.Config
	log    *zap.Logger
	client *line.Client

	repo       *store.SQLStore
	bc         *dispatch.Broadcaster
	dispatcher *dispatch.Service
	router     *line.Router
	httpSrv    *http.Server
}

// New creates the application shell; storage is opened in Run.
func New(cfg config.Config, log *zap.Logger) (*App, error) {
	client, err := line.NewClient(cfg.ChannelToken, cfg.APIBase)
	if err != nil {
		return nil, err
	}
	return &App{
		cfg:    cfg,
		log:    log,
		client: client,
	}, nil
}

// Run opens the store, wires the components and serves until the context is
// canceled or a termination signal arrives.
func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting fire-alert-system",
		zap.String("driver", a.cfg.DBDriver),
		zap.String("http", a.cfg.HTTPAddr),
	)

	repo, err := store.Open(ctx, a.cfg.DBDriver, a.cfg.DBDSN)
	if err != nil {
		a.log.Error("open store failed", zap.Error(err))
		return err
	}
	a.repo = repo
	a.log.Info("store ready")

	a.bc = dispatch.NewBroadcaster(a.client, a.log, a.cfg.BroadcastWorkers, a.cfg.BroadcastPerSec)
	a.dispatcher = dispatch.New(repo, a.bc, a.log)
	a.router = line.NewRouter(a.client, repo, a.dispatcher, a.log)

	a.httpSrv = &http.Server{
		Addr:         a.cfg.HTTPAddr,
		Handler:      newMux(a.log, a.cfg.ChannelSecret, a.router, a.dispatcher),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		a.log.Error("http server error", zap.Error(err))
		a.shutdown()
		return err
	case <-ctx.Done():
		a.log.Info("shutdown signal received")
		a.shutdown()
		return nil
	}
}

// shutdown stops the HTTP server, drains queued broadcasts and closes the
// store, in that order.
func (a *App) shutdown() {
	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err := a.httpSrv.Shutdown(shCtx)
	cancel()
	if err != nil {
		a.log.Warn("http server shutdown error", zap.Error(err))
	}

	if a.bc != nil {
		a.bc.Close()
	}
	if a.repo != nil {
		_ = a.repo.Close()
	}
}
