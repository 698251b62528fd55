package transforms

import (
	"context"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"

	"github.com/sharwell/machinelearning/pkg/async"
	gfcontext "github.com/sharwell/machinelearning/pkg/common/context"
	"github.com/sharwell/machinelearning/pkg/common/validation"
	"github.com/sharwell/machinelearning/pkg/data"
	"github.com/sharwell/machinelearning/pkg/estimator"
	"github.com/sharwell/machinelearning/pkg/schema"
)

// MaxHashBits bounds the output width of a TextHasher to 2^20 slots.
// Output vectors are dense, so every row costs 8<<bits bytes per pair
// (8 MiB at the maximum).
const MaxHashBits = 20

// TextHashTransformer counts hashed word tokens into a fixed-size vector.
type TextHashTransformer struct {
	pairs []ColumnPair
	bits  int
}

// Bits returns the number of hash bits; the output has 2^Bits slots.
func (t *TextHashTransformer) Bits() int {
	return t.bits
}

func (t *TextHashTransformer) size() int {
	return 1 << t.bits
}

// OutputSchema adds one float vector of 2^Bits items per pair.
func (t *TextHashTransformer) OutputSchema(input *schema.Schema) (*schema.Schema, error) {
	if err := schema.CheckAll(schema.ShapeOf(input), textRequirements(t.pairs)...); err != nil {
		return nil, err
	}
	out := input
	for _, p := range t.pairs {
		out = out.With(schema.Column{Name: p.output(), Kind: schema.Float, Size: t.size()})
	}
	return out, nil
}

// Transform hashes every row of every input column.
func (t *TextHashTransformer) Transform(ctx context.Context, input data.View) (data.View, error) {
	if err := gfcontext.Err(ctx); err != nil {
		return nil, err
	}
	if _, err := t.OutputSchema(input.Schema()); err != nil {
		return nil, err
	}
	mask := uint64(t.size() - 1)
	return mapColumns(input, t.pairs, func(_ int, _ schema.Column, values []any) (schema.Column, []any, error) {
		out := make([]any, len(values))
		for row, v := range values {
			counts := make([]float64, t.size())
			switch x := v.(type) {
			case string:
				countTokens(counts, x, mask)
			case []string:
				for _, s := range x {
					countTokens(counts, s, mask)
				}
			}
			out[row] = counts
		}
		return schema.Column{Kind: schema.Float, Size: t.size()}, out, nil
	})
}

func countTokens(counts []float64, text string, mask uint64) {
	for _, token := range Tokenize(text) {
		counts[xxhash.Sum64String(token)&mask]++
	}
}

// Tokenize splits text into lower-case runs of letters and digits.
func Tokenize(text string) []string {
	tokens := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for i, tok := range tokens {
		tokens[i] = strings.ToLower(tok)
	}
	return tokens
}

// TextHasher is a trivial estimator producing hashed bag-of-words vectors.
type TextHasher struct {
	estimator.TrivialEstimator[*TextHashTransformer]
}

// NewTextHasher creates a hasher writing 2^bits slots per pair.
func NewTextHasher(pairs []ColumnPair, bits int) (*TextHasher, error) {
	pairs, err := validatePairs("text-hash", pairs)
	if err != nil {
		return nil, err
	}
	if err := validation.ValidateRange("text-hash", "bits", bits, 1, MaxHashBits); err != nil {
		return nil, err
	}
	xf := &TextHashTransformer{pairs: pairs, bits: bits}
	return &TextHasher{TrivialEstimator: estimator.NewTrivialEstimator(xf)}, nil
}

// Name returns the stage name.
func (h *TextHasher) Name() string {
	return "text-hash"
}

// OutputSchemaAsync adds one float vector per pair.
func (h *TextHasher) OutputSchemaAsync(ctx context.Context, input schema.Shape) async.Awaitable[schema.Shape] {
	xf := h.Transformer()
	if err := schema.CheckAll(input, textRequirements(xf.pairs)...); err != nil {
		return async.FromError[schema.Shape](err)
	}
	out := input
	for _, p := range xf.pairs {
		out = out.With(schema.ColumnShape{Name: p.output(), Kind: schema.Float, IsVector: true})
	}
	return async.FromValue(out)
}
