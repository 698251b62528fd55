package transforms

import (
	"context"
	"math"

	"github.com/sharwell/machinelearning/pkg/async"
	gfcontext "github.com/sharwell/machinelearning/pkg/common/context"
	gferrors "github.com/sharwell/machinelearning/pkg/common/errors"
	"github.com/sharwell/machinelearning/pkg/common/validation"
	"github.com/sharwell/machinelearning/pkg/data"
	"github.com/sharwell/machinelearning/pkg/estimator"
	"github.com/sharwell/machinelearning/pkg/schema"
)

// NormKind selects the norm a vector is divided by.
type NormKind int

const (
	// L2 is the Euclidean norm.
	L2 NormKind = iota
	// StdDev is the standard deviation of the items.
	StdDev
	// L1 is the sum of absolute values.
	L1
	// Infinity is the largest absolute value.
	Infinity
)

func (k NormKind) String() string {
	switch k {
	case L2:
		return "L2"
	case StdDev:
		return "StdDev"
	case L1:
		return "L1"
	case Infinity:
		return "Infinity"
	}
	return "unknown"
}

// ContrastConfig configures global contrast normalization.
type ContrastConfig struct {
	// SubMean subtracts the vector mean before normalizing.
	SubMean bool

	// UseStdDev divides by the standard deviation instead of the L2 norm.
	UseStdDev bool

	// Scale multiplies every normalized item.
	Scale float64
}

// DefaultContrastConfig returns the usual global contrast settings.
func DefaultContrastConfig() ContrastConfig {
	return ContrastConfig{
		SubMean:   true,
		UseStdDev: false,
		Scale:     1,
	}
}

// LpNormalizerTransformer rescales float vectors to unit norm.
type LpNormalizerTransformer struct {
	pairs   []ColumnPair
	kind    NormKind
	subMean bool
	scale   float64
}

// Kind returns the norm used.
func (t *LpNormalizerTransformer) Kind() NormKind {
	return t.kind
}

func (t *LpNormalizerTransformer) requirements() []schema.Requirement {
	reqs := make([]schema.Requirement, len(t.pairs))
	for i, p := range t.pairs {
		reqs[i] = schema.Vector(p.Input, schema.Float)
	}
	return reqs
}

// OutputSchema adds one float vector per pair, sized like its input.
func (t *LpNormalizerTransformer) OutputSchema(input *schema.Schema) (*schema.Schema, error) {
	if err := schema.CheckAll(schema.ShapeOf(input), t.requirements()...); err != nil {
		return nil, err
	}
	out := input
	for _, p := range t.pairs {
		col, _ := input.Find(p.Input)
		out = out.With(schema.Column{Name: p.output(), Kind: schema.Float, Size: col.Size})
	}
	return out, nil
}

// Transform normalizes every row of every input column.
func (t *LpNormalizerTransformer) Transform(ctx context.Context, input data.View) (data.View, error) {
	if err := gfcontext.Err(ctx); err != nil {
		return nil, err
	}
	if _, err := t.OutputSchema(input.Schema()); err != nil {
		return nil, err
	}
	return mapColumns(input, t.pairs, func(_ int, col schema.Column, values []any) (schema.Column, []any, error) {
		out := make([]any, len(values))
		for i, v := range values {
			out[i] = normalize(v.([]float64), t.kind, t.subMean, t.scale)
		}
		return schema.Column{Kind: schema.Float, Size: col.Size}, out, nil
	})
}

func normalize(xs []float64, kind NormKind, subMean bool, scale float64) []float64 {
	out := make([]float64, len(xs))
	if len(xs) == 0 {
		return out
	}

	var mean float64
	if subMean {
		for _, x := range xs {
			mean += x
		}
		mean /= float64(len(xs))
	}

	var norm float64
	switch kind {
	case L2:
		for _, x := range xs {
			norm += (x - mean) * (x - mean)
		}
		norm = math.Sqrt(norm)
	case StdDev:
		for _, x := range xs {
			norm += (x - mean) * (x - mean)
		}
		norm = math.Sqrt(norm / float64(len(xs)))
	case L1:
		for _, x := range xs {
			norm += math.Abs(x - mean)
		}
	case Infinity:
		for _, x := range xs {
			norm = math.Max(norm, math.Abs(x-mean))
		}
	}

	if norm == 0 {
		norm = 1
	}
	for i, x := range xs {
		out[i] = (x - mean) / norm * scale
	}
	return out
}

// LpNormalizer is a trivial estimator: nothing is learned from data.
type LpNormalizer struct {
	estimator.TrivialEstimator[*LpNormalizerTransformer]
	name string
}

// NewLpNormalizer normalizes each input float vector by the given norm,
// optionally subtracting its mean first.
func NewLpNormalizer(pairs []ColumnPair, kind NormKind, subMean bool) (*LpNormalizer, error) {
	if kind < L2 || kind > Infinity {
		return nil, gferrors.NewValidationError("lp-normalize", "kind", int(kind), "unknown norm kind")
	}
	return newLpNormalizer("lp-normalize", pairs, kind, subMean, 1)
}

// NewGlobalContrastNormalizer normalizes each input float vector by its L2
// norm or standard deviation and multiplies by a scale.
func NewGlobalContrastNormalizer(pairs []ColumnPair, config ContrastConfig) (*LpNormalizer, error) {
	if err := validation.ValidatePositiveFloat("gcn", "scale", config.Scale); err != nil {
		return nil, err
	}
	kind := L2
	if config.UseStdDev {
		kind = StdDev
	}
	return newLpNormalizer("global-contrast", pairs, kind, config.SubMean, config.Scale)
}

func newLpNormalizer(name string, pairs []ColumnPair, kind NormKind, subMean bool, scale float64) (*LpNormalizer, error) {
	pairs, err := validatePairs(name, pairs)
	if err != nil {
		return nil, err
	}
	xf := &LpNormalizerTransformer{pairs: pairs, kind: kind, subMean: subMean, scale: scale}
	return &LpNormalizer{TrivialEstimator: estimator.NewTrivialEstimator(xf), name: name}, nil
}

// Name returns the stage name.
func (n *LpNormalizer) Name() string {
	return n.name
}

// OutputSchemaAsync adds one float vector per pair.
func (n *LpNormalizer) OutputSchemaAsync(ctx context.Context, input schema.Shape) async.Awaitable[schema.Shape] {
	xf := n.Transformer()
	if err := schema.CheckAll(input, xf.requirements()...); err != nil {
		return async.FromError[schema.Shape](err)
	}
	out := input
	for _, p := range xf.pairs {
		out = out.With(schema.ColumnShape{Name: p.output(), Kind: schema.Float, IsVector: true})
	}
	return async.FromValue(out)
}
