package transforms

import (
	"context"
	"math/bits"
	"sort"

	"github.com/sharwell/machinelearning/pkg/async"
	gfcontext "github.com/sharwell/machinelearning/pkg/common/context"
	gferrors "github.com/sharwell/machinelearning/pkg/common/errors"
	"github.com/sharwell/machinelearning/pkg/common/validation"
	"github.com/sharwell/machinelearning/pkg/data"
	"github.com/sharwell/machinelearning/pkg/schema"
)

// OutputKind selects how a learned term is encoded.
type OutputKind int

const (
	// Indicator is a float vector with 1 in the slot of each present term.
	Indicator OutputKind = iota
	// Bag is a float vector counting each term.
	Bag
	// Key is the 1-based term index, 0 for unknown terms.
	Key
	// Binary is the key written in binary, most significant bit first.
	Binary
)

func (k OutputKind) String() string {
	switch k {
	case Indicator:
		return "indicator"
	case Bag:
		return "bag"
	case Key:
		return "key"
	case Binary:
		return "binary"
	}
	return "unknown"
}

// KeyOrder selects the order in which learned terms are numbered.
type KeyOrder int

const (
	// ByOccurrence numbers terms in order of first appearance.
	ByOccurrence KeyOrder = iota
	// ByValue numbers terms in sorted order.
	ByValue
)

// OneHotConfig configures a OneHotEncoder.
type OneHotConfig struct {
	Kind  OutputKind
	Order KeyOrder

	// MaxItems caps the vocabulary of each column. Later terms are unknown.
	MaxItems int
}

// DefaultOneHotConfig returns indicator output in occurrence order.
func DefaultOneHotConfig() OneHotConfig {
	return OneHotConfig{
		Kind:     Indicator,
		Order:    ByOccurrence,
		MaxItems: 1000000,
	}
}

// OneHotEncoder learns a vocabulary for each text column.
type OneHotEncoder struct {
	pairs  []ColumnPair
	config OneHotConfig
}

// NewOneHotEncoder creates an encoder for text scalar or text vector columns.
func NewOneHotEncoder(pairs []ColumnPair, config OneHotConfig) (*OneHotEncoder, error) {
	pairs, err := validatePairs("onehot", pairs)
	if err != nil {
		return nil, err
	}
	if config.Kind < Indicator || config.Kind > Binary {
		return nil, gferrors.NewValidationError("onehot", "kind", int(config.Kind), "unknown output kind")
	}
	if err := validation.ValidatePositive("onehot", "max_items", config.MaxItems); err != nil {
		return nil, err
	}
	return &OneHotEncoder{pairs: pairs, config: config}, nil
}

// Name returns the stage name.
func (e *OneHotEncoder) Name() string {
	return "onehot"
}

func textRequirements(pairs []ColumnPair) []schema.Requirement {
	reqs := make([]schema.Requirement, len(pairs))
	for i, p := range pairs {
		reqs[i] = schema.Any(p.Input, schema.Text)
	}
	return reqs
}

// FitAsync scans every input column on its own goroutine and returns the
// learned encoding.
func (e *OneHotEncoder) FitAsync(ctx context.Context, input data.View) async.Awaitable[*OneHotTransformer] {
	if err := schema.CheckAll(schema.ShapeOf(input.Schema()), textRequirements(e.pairs)...); err != nil {
		return async.FromError[*OneHotTransformer](err)
	}
	return async.Run(ctx, func(ctx context.Context) (*OneHotTransformer, error) {
		vocabs := make([]vocabulary, len(e.pairs))
		for i, p := range e.pairs {
			if err := gfcontext.Err(ctx); err != nil {
				return nil, err
			}
			values, err := input.Column(p.Input)
			if err != nil {
				return nil, err
			}
			vocabs[i] = learn(values, e.config)
		}
		return &OneHotTransformer{pairs: e.pairs, kind: e.config.Kind, vocabs: vocabs}, nil
	})
}

// OutputSchemaAsync adds one column per pair. Key counts are only known
// after fitting and are reported as 0.
func (e *OneHotEncoder) OutputSchemaAsync(ctx context.Context, input schema.Shape) async.Awaitable[schema.Shape] {
	if err := schema.CheckAll(input, textRequirements(e.pairs)...); err != nil {
		return async.FromError[schema.Shape](err)
	}
	out := input
	for _, p := range e.pairs {
		in, _ := input.Find(p.Input)
		col := schema.ColumnShape{Name: p.output(), Kind: schema.Float, IsVector: true}
		if e.config.Kind == Key {
			col = schema.ColumnShape{Name: p.output(), Kind: schema.Key, IsVector: in.IsVector}
		}
		out = out.With(col)
	}
	return async.FromValue(out)
}

type vocabulary struct {
	terms []string
	index map[string]uint32
}

func learn(values []any, config OneHotConfig) vocabulary {
	v := vocabulary{index: make(map[string]uint32)}
	add := func(term string) {
		if _, ok := v.index[term]; ok || len(v.terms) >= config.MaxItems {
			return
		}
		v.terms = append(v.terms, term)
		v.index[term] = uint32(len(v.terms))
	}
	for _, value := range values {
		switch x := value.(type) {
		case string:
			add(x)
		case []string:
			for _, term := range x {
				add(term)
			}
		}
	}
	if config.Order == ByValue {
		sort.Strings(v.terms)
		for i, term := range v.terms {
			v.index[term] = uint32(i + 1)
		}
	}
	return v
}

func (v vocabulary) key(term string) uint32 {
	return v.index[term]
}

// OneHotTransformer encodes text with learned vocabularies.
type OneHotTransformer struct {
	pairs  []ColumnPair
	kind   OutputKind
	vocabs []vocabulary
}

// Terms returns the vocabulary learned for the given output column in key
// order, or nil if there is no such column.
func (t *OneHotTransformer) Terms(output string) []string {
	for i, p := range t.pairs {
		if p.output() == output {
			out := make([]string, len(t.vocabs[i].terms))
			copy(out, t.vocabs[i].terms)
			return out
		}
	}
	return nil
}

func (t *OneHotTransformer) outputColumn(i int, in schema.Column) schema.Column {
	n := len(t.vocabs[i].terms)
	switch t.kind {
	case Key:
		size := 0
		if in.IsVector() {
			size = schema.VarSize
		}
		return schema.Column{Kind: schema.Key, Size: size, KeyCount: n}
	case Binary:
		if in.IsVector() {
			return schema.Column{Kind: schema.Float, Size: schema.VarSize}
		}
		return schema.Column{Kind: schema.Float, Size: vectorSize(binaryWidth(n))}
	default:
		return schema.Column{Kind: schema.Float, Size: vectorSize(n)}
	}
}

// vectorSize keeps an empty vocabulary from reading as a scalar column.
func vectorSize(n int) int {
	if n == 0 {
		return schema.VarSize
	}
	return n
}

// OutputSchema adds the encoded column of every pair.
func (t *OneHotTransformer) OutputSchema(input *schema.Schema) (*schema.Schema, error) {
	if err := schema.CheckAll(schema.ShapeOf(input), textRequirements(t.pairs)...); err != nil {
		return nil, err
	}
	out := input
	for i, p := range t.pairs {
		in, _ := input.Find(p.Input)
		col := t.outputColumn(i, in)
		col.Name = p.output()
		out = out.With(col)
	}
	return out, nil
}

// Transform encodes every row of every input column.
func (t *OneHotTransformer) Transform(ctx context.Context, input data.View) (data.View, error) {
	if err := gfcontext.Err(ctx); err != nil {
		return nil, err
	}
	if _, err := t.OutputSchema(input.Schema()); err != nil {
		return nil, err
	}
	return mapColumns(input, t.pairs, func(i int, in schema.Column, values []any) (schema.Column, []any, error) {
		out := make([]any, len(values))
		for row, v := range values {
			out[row] = t.encode(i, v)
		}
		return t.outputColumn(i, in), out, nil
	})
}

func (t *OneHotTransformer) encode(i int, value any) any {
	vocab := t.vocabs[i]
	var terms []string
	scalar := false
	switch x := value.(type) {
	case string:
		terms = []string{x}
		scalar = true
	case []string:
		terms = x
	}

	switch t.kind {
	case Key:
		if scalar {
			return vocab.key(terms[0])
		}
		keys := make([]uint32, len(terms))
		for j, term := range terms {
			keys[j] = vocab.key(term)
		}
		return keys
	case Binary:
		width := binaryWidth(len(vocab.terms))
		out := make([]float64, 0, width*len(terms))
		for _, term := range terms {
			out = appendBits(out, vocab.key(term), width)
		}
		return out
	default:
		out := make([]float64, len(vocab.terms))
		for _, term := range terms {
			k := vocab.key(term)
			if k == 0 {
				continue
			}
			if t.kind == Bag {
				out[k-1]++
			} else {
				out[k-1] = 1
			}
		}
		return out
	}
}

// binaryWidth is the number of bits needed for keys 0..n.
func binaryWidth(n int) int {
	return bits.Len(uint(n))
}

func appendBits(out []float64, key uint32, width int) []float64 {
	for b := width - 1; b >= 0; b-- {
		out = append(out, float64((key>>uint(b))&1))
	}
	return out
}
