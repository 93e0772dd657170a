package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jekabolt/grbpwr-reports/config"
	httpapi "github.com/jekabolt/grbpwr-reports/internal/api/http"
	"github.com/jekabolt/grbpwr-reports/internal/cache"
	"github.com/jekabolt/grbpwr-reports/internal/dependency"
	"github.com/jekabolt/grbpwr-reports/internal/report"
	"github.com/jekabolt/grbpwr-reports/internal/store"
	"github.com/jekabolt/grbpwr-reports/internal/store/memstore"
)

// App is the main application
type App struct {
	hs   *httpapi.Server
	db   dependency.Repository
	c    *config.Config
	once sync.Once
	done chan struct{}
}

// New returns a new instance of App
func New(c *config.Config) *App {
	return &App{
		c:    c,
		done: make(chan struct{}),
	}
}

// Start starts the app
func (a *App) Start(ctx context.Context) error {
	var err error
	slog.Default().InfoContext(ctx, "starting report service", slog.Bool("demo", a.c.Demo))

	if err = a.c.Report.Validate(); err != nil {
		return fmt.Errorf("invalid report config: %w", err)
	}

	if a.c.Demo {
		a.db = memstore.Demo(time.Now())
	} else {
		a.db, err = store.New(ctx, a.c.DB)
		if err != nil {
			slog.Default().ErrorContext(ctx, "couldn't connect to mysql",
				slog.String("err", err.Error()),
			)
			return err
		}
	}

	labels, err := cache.NewLabelCache(ctx, a.db.FieldLabels())
	if err != nil {
		return err
	}

	engine, err := report.New(a.db.Records(), labels, a.c.Report)
	if err != nil {
		slog.Default().ErrorContext(ctx, "failed create report engine",
			slog.String("err", err.Error()),
		)
		return err
	}

	// start API server
	a.hs = httpapi.New(&a.c.HTTP, a.db, engine)
	if err = a.hs.Start(ctx); err != nil {
		slog.Default().ErrorContext(ctx, "cannot start http server",
			slog.String("err", err.Error()),
		)
		return err
	}

	go func() {
		<-a.hs.Done()
		a.shutdown()
	}()

	return nil
}

// Stop stops the application and waits for all services to exit
func (a *App) Stop(ctx context.Context) {
	if a.hs != nil {
		if err := a.hs.Stop(ctx); err != nil {
			slog.Default().ErrorContext(ctx, "http server shutdown failed",
				slog.String("err", err.Error()),
			)
		}
		<-a.done
		return
	}
	a.shutdown()
}

func (a *App) shutdown() {
	a.once.Do(func() {
		if a.db != nil {
			a.db.Close()
		}
		close(a.done)
	})
}

// Done returns a channel that is closed after the application has exited
func (a *App) Done() chan struct{} {
	return a.done
}
