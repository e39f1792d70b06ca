package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/five82/splashwatch/internal/config"
	"github.com/five82/splashwatch/internal/insider"
	"github.com/five82/splashwatch/internal/journal"
	"github.com/five82/splashwatch/internal/logging"
	"github.com/five82/splashwatch/internal/state"
)

const defaultPollInterval = time.Second

// pipeline owns the registry and everything that feeds it.
type pipeline struct {
	store      *state.Store
	dispatcher *state.Dispatcher
	drivers    []*insider.Driver
	sink       journal.Sink
	logger     *zap.Logger
}

// newPipeline builds the registry, its dispatcher and one driver per enabled
// deployment tool. sink may be nil.
func newPipeline(cfg config.Config, logger *zap.Logger, sink journal.Sink) (*pipeline, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	store := &state.Store{}

	opts := []state.DispatcherOption{
		state.WithLogger(logging.For(logger, logging.CategoryRegistry)),
	}
	if sink != nil {
		session := journal.NewSession()
		journalLog := logging.For(logger, logging.CategoryJournal)
		journalLog.Info("journal session started", zap.String("session", session))
		opts = append(opts, state.WithObserver(journal.Observer(sink, session, journalLog)))
	}
	dispatcher, err := state.NewDispatcher(store, opts...)
	if err != nil {
		return nil, fmt.Errorf("init dispatcher: %w", err)
	}

	interval := cfg.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}

	p := &pipeline{
		store:      store,
		dispatcher: dispatcher,
		sink:       sink,
		logger:     logger,
	}
	for _, prov := range providers(cfg) {
		p.drivers = append(p.drivers, insider.New(prov, dispatcher, store,
			insider.WithLogger(logger),
			insider.WithPollInterval(interval)))
	}
	return p, nil
}

// providers returns the deployment tools enabled in cfg.
func providers(cfg config.Config) []insider.Provider {
	var out []insider.Provider
	if !cfg.DisableJamf {
		out = append(out, insider.Jamf(cfg.JamfLog))
	}
	if !cfg.DisableMunki {
		out = append(out, insider.Munki(cfg.MunkiLog))
	}
	return out
}

// start launches the dispatcher and every driver and returns immediately.
// The returned wait blocks until the drivers have stopped after ctx is
// cancelled and the dispatcher has applied everything they queued.
func (p *pipeline) start(ctx context.Context) (wait func()) {
	dispatchCtx, stopDispatch := context.WithCancel(context.WithoutCancel(ctx))
	dispatched := make(chan struct{})
	go func() {
		defer close(dispatched)
		p.dispatcher.Run(dispatchCtx)
	}()

	driven := make(chan struct{})
	go func() {
		defer close(driven)
		insider.RunAll(ctx, p.logger, p.drivers...)
		stopDispatch()
	}()

	return func() {
		<-driven
		<-dispatched
	}
}

// scan classifies the current content of every log once and returns after
// the registry holds all of it.
func (p *pipeline) scan(ctx context.Context) {
	dispatchCtx, stopDispatch := context.WithCancel(ctx)
	dispatched := make(chan struct{})
	go func() {
		defer close(dispatched)
		p.dispatcher.Run(dispatchCtx)
	}()

	appLog := logging.For(p.logger, logging.CategoryApp)
	for _, d := range p.drivers {
		if err := d.Scan(ctx); err != nil {
			appLog.Warn("driver inactive", zap.String("source", d.Name()), zap.Error(err))
		}
	}

	stopDispatch()
	<-dispatched
}

// close releases log handles and journal sinks.
func (p *pipeline) close() error {
	var errs []error
	for _, d := range p.drivers {
		if err := d.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", d.Name(), err))
		}
	}
	if p.sink != nil {
		if err := p.sink.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close journal: %w", err))
		}
	}
	return errors.Join(errs...)
}

// openJournal opens the configured sinks. A sink that fails to open is
// logged and skipped; nil means journaling is off.
func openJournal(cfg config.Config, logger *zap.Logger) journal.Sink {
	journalLog := logging.For(logger, logging.CategoryJournal)
	var sinks journal.Multi
	if cfg.JournalPath != "" {
		db, err := journal.OpenSQLite(cfg.JournalPath)
		if err != nil {
			journalLog.Warn("history journal disabled", zap.String("path", cfg.JournalPath), zap.Error(err))
		} else {
			sinks = append(sinks, db)
		}
	}
	if cfg.EventLog != "" {
		events, err := journal.OpenJSONLines(cfg.EventLog)
		if err != nil {
			journalLog.Warn("event log disabled", zap.String("path", cfg.EventLog), zap.Error(err))
		} else {
			sinks = append(sinks, events)
		}
	}
	if len(sinks) == 0 {
		return nil
	}
	return sinks
}

// watchCompletion logs once each time the registry becomes done, until ctx
// is cancelled. A package that starts installing afterwards re-arms it.
func watchCompletion(ctx context.Context, store *state.Store, logger *zap.Logger) {
	appLog := logging.For(logger, logging.CategoryApp)
	announced := false
	for {
		select {
		case <-ctx.Done():
			return
		case <-store.Changes():
			snap := store.Snapshot()
			done := snap.Done()
			if done && !announced {
				_, success, failed := snap.Counts()
				appLog.Info("deployment finished",
					zap.Int("installed", success),
					zap.Int("failed", failed))
			}
			announced = done
		}
	}
}
