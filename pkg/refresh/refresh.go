package refresh

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	gfcontext "github.com/sharwell/machinelearning/pkg/common/context"
	gferrors "github.com/sharwell/machinelearning/pkg/common/errors"
	"github.com/sharwell/machinelearning/pkg/common/validation"
	"github.com/sharwell/machinelearning/pkg/data"
	"github.com/sharwell/machinelearning/pkg/estimator"
	"github.com/sharwell/machinelearning/pkg/metrics"
	"github.com/sharwell/machinelearning/pkg/resource/guard"
	"github.com/sharwell/machinelearning/pkg/resource/semaphore"
)

// SourceFunc fetches the training source for one refit.
type SourceFunc[S any] func(ctx context.Context) (S, error)

// Config configures a Refresher.
type Config[S any, T estimator.Transformer] struct {
	// Name labels the refresher in logs and metrics.
	Name string

	// Schedule is a cron expression with an optional leading seconds field,
	// or a descriptor such as "@hourly" or "@every 5m". Empty means refits
	// only happen through RefitNow.
	Schedule string

	// Location is the time zone the schedule is evaluated in. Defaults to time.Local.
	Location *time.Location

	// Estimator is refitted on every run.
	Estimator *estimator.CompositeLoaderEstimator[S, T]

	// Source supplies the training data for each run.
	Source SourceFunc[S]

	// Semaphore, if set, bounds how many refits across refreshers run at once.
	Semaphore guard.Semaphore

	// Timeout bounds a single refit. Zero means no limit.
	Timeout time.Duration

	// OnRefit is called after every refit.
	OnRefit func(Result)

	// Logger receives refit outcomes. Nil discards.
	Logger *slog.Logger

	// Metrics configures refit counters and durations.
	Metrics metrics.Config
}

// Result describes one refit.
type Result struct {
	Name       string
	Generation uint64
	Started    time.Time
	Duration   time.Duration
	Error      error
}

// Refresher keeps a fitted CompositeLoader current by refitting it on a
// schedule. Readers always see a complete loader: a new one is published
// only after its fit succeeds.
type Refresher[S any, T estimator.Transformer] struct {
	config  Config[S, T]
	logger  *slog.Logger
	metrics *metrics.Registry

	cron   *cron.Cron
	entry  cron.EntryID
	serial semaphore.Semaphore

	current    atomic.Pointer[estimator.CompositeLoader[S, T]]
	generation atomic.Uint64

	mu      sync.Mutex
	started bool
	stopped bool
	ctx     context.Context
	cancel  context.CancelFunc
}

var scheduleParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ParseSchedule validates a schedule expression.
func ParseSchedule(expr string) (cron.Schedule, error) {
	return scheduleParser.Parse(expr)
}

// New creates a stopped Refresher.
func New[S any, T estimator.Transformer](config Config[S, T]) (*Refresher[S, T], error) {
	if err := validation.ValidateNotNil("refresh", "estimator", config.Estimator); err != nil {
		return nil, err
	}
	if err := validation.ValidateNotNil("refresh", "source", config.Source); err != nil {
		return nil, err
	}
	if err := validation.ValidateNonNegativeDuration("refresh", "timeout", config.Timeout); err != nil {
		return nil, err
	}
	if config.Name == "" {
		config.Name = config.Estimator.Name()
	}
	if config.Location == nil {
		config.Location = time.Local
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	logger = logger.With(slog.String("refresher", config.Name))

	serial, err := semaphore.New(1)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &Refresher[S, T]{
		config:  config,
		logger:  logger,
		metrics: metrics.For(config.Metrics),
		serial:  serial,
		ctx:     ctx,
		cancel:  cancel,
	}
	r.cron = cron.New(
		cron.WithParser(scheduleParser),
		cron.WithLocation(config.Location),
		cron.WithLogger(cronLogger{logger}),
		cron.WithChain(cron.Recover(cronLogger{logger}), cron.SkipIfStillRunning(cronLogger{logger})),
	)

	if config.Schedule != "" {
		schedule, err := ParseSchedule(config.Schedule)
		if err != nil {
			cancel()
			return nil, gferrors.NewValidationError("refresh", "schedule", config.Schedule, err.Error()).
				WithHint("use five fields, six with seconds, or a descriptor like @hourly")
		}
		r.entry = r.cron.Schedule(schedule, cron.FuncJob(r.scheduled))
	}
	return r, nil
}

// Name returns the refresher name.
func (r *Refresher[S, T]) Name() string {
	return r.config.Name
}

// Start begins scheduled refits. It does not refit immediately; call
// RefitNow first for an initial loader. Start after Stop returns ErrClosed.
func (r *Refresher[S, T]) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return gferrors.ErrClosed
	}
	if r.started {
		return nil
	}
	r.started = true
	r.cron.Start()
	r.logger.Info("refresher started", slog.String("schedule", r.config.Schedule))
	return nil
}

// Stop halts the schedule, cancels a running scheduled refit and waits for
// it to return or for ctx to be done. The current loader stays available.
func (r *Refresher[S, T]) Stop(ctx context.Context) error {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return nil
	}
	r.stopped = true
	r.mu.Unlock()

	done := r.cron.Stop()
	r.cancel()
	select {
	case <-done.Done():
		r.logger.Info("refresher stopped")
		return nil
	case <-ctx.Done():
		return gfcontext.Err(ctx)
	}
}

// Next returns the next scheduled refit, or the zero time when the refresher
// is not running on a schedule.
func (r *Refresher[S, T]) Next() time.Time {
	if r.config.Schedule == "" {
		return time.Time{}
	}
	return r.cron.Entry(r.entry).Next
}

// Current returns the most recently published loader, or nil before the
// first successful refit.
func (r *Refresher[S, T]) Current() *estimator.CompositeLoader[S, T] {
	return r.current.Load()
}

// Generation returns the number of successful refits.
func (r *Refresher[S, T]) Generation() uint64 {
	return r.generation.Load()
}

// Load loads source with the current loader. It returns ErrNotCompleted
// before the first successful refit.
func (r *Refresher[S, T]) Load(ctx context.Context, source S) (data.View, error) {
	loader := r.Current()
	if loader == nil {
		return nil, gferrors.NewOperationError("refresh", "load", gferrors.ErrNotCompleted).
			WithContext(r.config.Name)
	}
	return loader.Load(ctx, source)
}

// RefitNow fetches the source, fits the estimator and publishes the result.
// Refits of one Refresher never overlap; a call waits for a running refit
// first. On failure the previous loader is kept.
func (r *Refresher[S, T]) RefitNow(ctx context.Context) (*estimator.CompositeLoader[S, T], error) {
	var loader *estimator.CompositeLoader[S, T]
	err := guard.Do(ctx, r.serial, func(ctx context.Context) error {
		var err error
		loader, err = r.refit(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return loader, nil
}

func (r *Refresher[S, T]) scheduled() {
	// Errors are reported through logs, metrics and OnRefit.
	_, _ = r.RefitNow(r.ctx)
}

func (r *Refresher[S, T]) refit(ctx context.Context) (*estimator.CompositeLoader[S, T], error) {
	ctx, cancel := gfcontext.WithOptionalTimeout(ctx, r.config.Timeout)
	defer cancel()

	start := time.Now()
	var loader *estimator.CompositeLoader[S, T]
	fit := func(ctx context.Context) error {
		source, err := r.config.Source(ctx)
		if err != nil {
			return gferrors.NewOperationError("refresh", "source", err).WithContext(r.config.Name)
		}
		loader, err = r.config.Estimator.FitAsync(ctx, source).Await(ctx)
		return err
	}

	var err error
	if r.config.Semaphore != nil {
		err = guard.Do(ctx, r.config.Semaphore, fit)
	} else {
		err = fit(ctx)
	}

	res := Result{
		Name:     r.config.Name,
		Started:  start,
		Duration: time.Since(start),
		Error:    err,
	}
	if err == nil {
		r.current.Store(loader)
		res.Generation = r.generation.Add(1)
	} else {
		res.Generation = r.generation.Load()
	}
	r.report(res)

	if err != nil {
		return nil, err
	}
	return loader, nil
}

func (r *Refresher[S, T]) report(res Result) {
	if r.metrics != nil {
		r.metrics.Refits.WithLabelValues(res.Name, outcome(res.Error)).Inc()
		r.metrics.RefitDuration.WithLabelValues(res.Name).Observe(res.Duration.Seconds())
	}
	if res.Error != nil {
		r.logger.Warn("refit failed, keeping previous loader",
			slog.Uint64("generation", res.Generation),
			slog.Any("error", res.Error))
	} else {
		r.logger.Info("refit completed",
			slog.Uint64("generation", res.Generation),
			slog.Duration("duration", res.Duration))
	}
	if r.config.OnRefit != nil {
		r.config.OnRefit(res)
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case gferrors.IsCanceled(err):
		return "canceled"
	case gferrors.IsSchemaError(err):
		return "schema"
	default:
		return "error"
	}
}

// cronLogger routes cron's own messages to slog.
type cronLogger struct {
	l *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error(fmt.Sprintf("cron: %s", msg), append(keysAndValues, "error", err)...)
}
