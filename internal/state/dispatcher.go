package state

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/five82/splashwatch/internal/software"
)

const defaultQueueSize = 256

// Observer is called by the dispatcher goroutine after a change was applied.
type Observer func(ctx context.Context, rec software.Record)

// Dispatcher serializes registry writes. Every tailer submits its events to
// one queue; a single goroutine applies them to the Store in arrival order.
type Dispatcher struct {
	store     *Store
	queue     chan software.Event
	observers []Observer
	logger    *zap.Logger
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithObserver registers fn to run after each applied change.
func WithObserver(fn Observer) DispatcherOption {
	return func(d *Dispatcher) {
		if fn != nil {
			d.observers = append(d.observers, fn)
		}
	}
}

// WithLogger sets the dispatcher logger.
func WithLogger(logger *zap.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithQueueSize sets the submit buffer size.
func WithQueueSize(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.queue = make(chan software.Event, n)
		}
	}
}

// NewDispatcher creates a dispatcher writing into store.
func NewDispatcher(store *Store, opts ...DispatcherOption) (*Dispatcher, error) {
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	d := &Dispatcher{
		store:  store,
		queue:  make(chan software.Event, defaultQueueSize),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Submit queues ev for the writer goroutine. It blocks while the queue is
// full and gives up when ctx is done.
func (d *Dispatcher) Submit(ctx context.Context, ev software.Event) error {
	select {
	case d.queue <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run applies queued events until ctx is cancelled. Events already queued at
// cancellation are still applied. Observers never see a cancelled context;
// the writer's lifetime is bounded by this loop, not by their calls.
func (d *Dispatcher) Run(ctx context.Context) {
	applyCtx := context.WithoutCancel(ctx)
	for {
		select {
		case ev := <-d.queue:
			d.apply(applyCtx, ev)
		case <-ctx.Done():
			d.drain(applyCtx)
			return
		}
	}
}

func (d *Dispatcher) drain(ctx context.Context) {
	for {
		select {
		case ev := <-d.queue:
			d.apply(ctx, ev)
		default:
			return
		}
	}
}

func (d *Dispatcher) apply(ctx context.Context, ev software.Event) {
	rec, changed := d.store.Upsert(ev)
	if !changed {
		d.logger.Debug("registry unchanged",
			zap.String("package", ev.Identity.String()),
			zap.Stringer("reported", ev.Status),
			zap.Stringer("current", rec.Status))
		return
	}
	d.logger.Info("package status",
		zap.String("source", rec.Source),
		zap.String("name", rec.Identity.Name),
		zap.String("version", rec.Identity.Version),
		zap.Stringer("status", rec.Status),
		zap.Uint64("seq", rec.Seq))
	for _, fn := range d.observers {
		fn(ctx, rec)
	}
}
