package insider

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/five82/splashwatch/internal/logging"
	"github.com/five82/splashwatch/internal/logtail"
	"github.com/five82/splashwatch/internal/software"
	"github.com/five82/splashwatch/internal/state"
)

// ErrNoRules means none of a tool's patterns compiled; its detection is off.
var ErrNoRules = errors.New("no usable rules")

// Submitter accepts classified events for the registry.
type Submitter interface {
	Submit(ctx context.Context, ev software.Event) error
}

// HealthReporter receives driver health updates.
type HealthReporter interface {
	SetSourceHealth(name string, h state.SourceHealth)
}

// Option configures a Driver.
type Option func(*Driver)

// WithLogger sets the parent logger; the driver derives categorized children.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Driver) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithPollInterval sets the tailer's backstop poll interval.
func WithPollInterval(interval time.Duration) Option {
	return func(d *Driver) {
		d.pollEvery = interval
	}
}

// Driver connects one deployment tool's log to the registry: tailer, then
// classifier, then submitter.
type Driver struct {
	provider  Provider
	submitter Submitter
	health    HealthReporter
	logger    *zap.Logger
	pollEvery time.Duration

	rules software.RuleSet
	tail  *logtail.Tailer
	err   error
}

// New compiles the provider's rules and opens its log. Setup problems are
// logged and reported as source health; they leave the driver inert rather
// than failing, see Err.
func New(p Provider, submitter Submitter, health HealthReporter, opts ...Option) *Driver {
	d := &Driver{
		provider:  p,
		submitter: submitter,
		health:    health,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.setup()
	return d
}

func (d *Driver) setup() {
	name := d.provider.Name()
	path := d.provider.LogPath()
	classifyLog := logging.For(d.logger, logging.CategoryClassify).With(zap.String("source", name))
	tailLog := logging.For(d.logger, logging.CategoryTail).With(zap.String("source", name))

	rules, errs := software.CompileRules(name, d.provider.Rules())
	for _, err := range errs {
		classifyLog.Error("pattern excluded", zap.Error(err))
	}
	d.rules = rules
	if rules.Empty() {
		d.err = fmt.Errorf("%s: %w", name, ErrNoRules)
		classifyLog.Error("every pattern failed to compile, detection disabled")
		d.report(state.SourceHealth{State: state.SourceRulesDisabled, Path: path, Detail: d.err.Error()})
		return
	}

	tail, err := logtail.Open(path, logtail.WithLogger(tailLog), logtail.WithPollInterval(d.pollEvery))
	if err != nil {
		d.err = err
		tailLog.Error("cannot read log", zap.String("path", path), zap.Error(err))
		d.report(state.SourceHealth{State: state.SourceInert, Path: path, Detail: err.Error()})
		return
	}
	d.tail = tail
	d.report(state.SourceHealth{State: state.SourceWatching, Path: path})
}

func (d *Driver) report(h state.SourceHealth) {
	if d.health != nil {
		d.health.SetSourceHealth(d.provider.Name(), h)
	}
}

// Name returns the provider name.
func (d *Driver) Name() string {
	return d.provider.Name()
}

// Err returns the setup error that made the driver inert, if any.
func (d *Driver) Err() error {
	return d.err
}

// Run tails the log until ctx is cancelled. An inert driver returns its
// setup error immediately.
func (d *Driver) Run(ctx context.Context) error {
	if d.err != nil {
		return d.err
	}
	return d.tail.Run(ctx, func(line string) {
		d.HandleLine(ctx, line)
	})
}

// Scan classifies everything currently in the log once and returns.
func (d *Driver) Scan(ctx context.Context) error {
	if d.err != nil {
		return d.err
	}
	lines, err := d.tail.Poll()
	if err != nil {
		return fmt.Errorf("scan %s: %w", d.provider.Name(), err)
	}
	for _, line := range lines {
		d.HandleLine(ctx, line)
	}
	return nil
}

// HandleLine classifies one line and submits any event it carries.
func (d *Driver) HandleLine(ctx context.Context, line string) {
	ev, err := software.Classify(line, d.rules)
	if err != nil {
		var anomaly *software.AnomalyError
		if errors.As(err, &anomaly) {
			logging.For(d.logger, logging.CategoryClassify).Warn("classifier anomaly",
				zap.String("source", d.provider.Name()),
				zap.Error(anomaly))
		}
		return
	}
	// The dispatcher outlives the drivers and drains its queue, so a line
	// read before cancellation is still delivered.
	if err := d.submitter.Submit(context.WithoutCancel(ctx), ev); err != nil {
		logging.For(d.logger, logging.CategoryRegistry).Error("submit failed",
			zap.String("package", ev.Identity.String()),
			zap.Error(err))
	}
}

// Close releases the log handle, if one was opened.
func (d *Driver) Close() error {
	if d.tail == nil {
		return nil
	}
	return d.tail.Close()
}

// RunAll runs every driver on its own goroutine and waits for all of them.
// A failing driver is logged and does not stop the others.
func RunAll(ctx context.Context, logger *zap.Logger, drivers ...*Driver) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var wg sync.WaitGroup
	for _, d := range drivers {
		if d == nil {
			continue
		}
		wg.Add(1)
		go func(d *Driver) {
			defer wg.Done()
			if err := d.Run(ctx); err != nil {
				logging.For(logger, logging.CategoryApp).Warn("driver inactive",
					zap.String("source", d.Name()),
					zap.Error(err))
			}
		}(d)
	}
	wg.Wait()
}
