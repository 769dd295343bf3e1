package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/levelup/internal/app"
	"github.com/abhisek/levelup/internal/bank"
	"github.com/abhisek/levelup/internal/config"
	"github.com/abhisek/levelup/internal/events"
	"github.com/abhisek/levelup/internal/lessons"
	"github.com/abhisek/levelup/internal/metrics"
	"github.com/abhisek/levelup/internal/session"
	"github.com/abhisek/levelup/internal/store"
)

// openProgress opens the configured progress store. The returned func
// releases it.
func openProgress(ctx context.Context, cmd *cobra.Command, rt *runtime) (store.ProgressRepo, func(), error) {
	switch rt.cfg.Store.Driver {
	case config.DriverMongo:
		ms, err := store.OpenMongo(ctx, rt.cfg.Store.MongoURI, rt.cfg.Store.MongoDatabase)
		if err != nil {
			return nil, nil, fmt.Errorf("open mongo store: %w", err)
		}
		rt.log.Info("progress store ready", zap.String("driver", config.DriverMongo))
		return ms.ProgressRepo(), func() {
			if err := ms.Close(context.Background()); err != nil {
				rt.log.Warn("close mongo store", zap.Error(err))
			}
		}, nil
	default:
		dbPath, err := resolveDBPath(cmd, rt.cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve DB path: %w", err)
		}
		st, err := store.Open(dbPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open store: %w", err)
		}
		rt.log.Info("progress store ready", zap.String("driver", config.DriverSQLite), zap.String("path", dbPath))
		return st.ProgressRepo(), func() { st.Close() }, nil
	}
}

// services are the wired components of a conversation frontend.
type services struct {
	service   *app.Service
	engine    *session.Engine
	publisher events.Publisher
	closers   []func()
}

func (s *services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// buildServices loads the bank and wires the quiz engine, the progress store
// and the event publisher. m may be nil.
func buildServices(ctx context.Context, cmd *cobra.Command, rt *runtime, m *metrics.Metrics) (*services, error) {
	b := bank.LoadOrEmpty(rt.cfg.Bank.Path, rt.log)

	progress, closeStore, err := openProgress(ctx, cmd, rt)
	if err != nil {
		return nil, err
	}
	s := &services{closers: []func(){closeStore}}

	pub, err := events.NewAMQPPublisher(ctx, rt.cfg.Events.RabbitMQURI, rt.cfg.Events.Exchange, rt.log)
	if err != nil {
		// Events are optional; run without them.
		rt.log.Warn("event publishing disabled", zap.Error(err))
		pub = events.Nop{}
	}
	s.publisher = pub
	s.closers = append(s.closers, func() {
		if err := pub.Close(); err != nil {
			rt.log.Warn("close event publisher", zap.Error(err))
		}
	})

	s.engine = session.NewEngine(session.Config{
		Bank:      b,
		Progress:  progress,
		Publisher: pub,
		Metrics:   m,
		Logger:    rt.log.Named("session"),
	})
	s.service = app.NewService(s.engine, progress, lessons.DefaultCatalog(), rt.log.Named("app"))
	return s, nil
}
