package estimator

import (
	"io"
	"log/slog"
	"time"

	"github.com/sharwell/machinelearning/pkg/metrics"
)

// StageResult describes one stage of one fit.
type StageResult struct {
	// Chain is the name of the chain the stage belongs to.
	Chain string

	// Name is the stage name.
	Name string

	// Index is the position of the stage in the chain.
	Index int

	// Duration covers fitting the stage and applying its transformer.
	Duration time.Duration

	// Error is the stage failure, if any.
	Error error
}

// Hooks observe chain fits. Hooks run on the goroutine that completes the
// stage and must not block.
type Hooks struct {
	// OnStageStart is called before a stage is fitted.
	OnStageStart func(chain string, index int, name string)

	// OnStageComplete is called after every stage, failed or not.
	OnStageComplete func(result StageResult)

	// OnError is called for the stage that aborted the fit.
	OnError func(result StageResult)
}

// Option configures a Chain.
type Option func(*options)

type options struct {
	name    string
	hooks   Hooks
	logger  *slog.Logger
	metrics *metrics.Registry
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func defaultOptions() options {
	return options{
		name:   "chain",
		logger: discardLogger,
	}
}

// WithName labels the chain in logs, metrics and errors.
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithHooks installs fit callbacks.
func WithHooks(hooks Hooks) Option {
	return func(o *options) {
		o.hooks = hooks
	}
}

// WithLogger sets the logger. A nil logger discards.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = discardLogger
		}
		o.logger = logger
	}
}

// WithMetrics reports fits and schema checks to registry. A nil registry
// disables reporting.
func WithMetrics(registry *metrics.Registry) Option {
	return func(o *options) {
		o.metrics = registry
	}
}
