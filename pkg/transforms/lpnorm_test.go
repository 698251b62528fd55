package transforms

import (
	"context"
	"math"
	"testing"

	"github.com/sharwell/machinelearning/internal/testutil"
	gferrors "github.com/sharwell/machinelearning/pkg/common/errors"
	"github.com/sharwell/machinelearning/pkg/schema"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		in      []float64
		kind    NormKind
		subMean bool
		scale   float64
		want    []float64
	}{
		{"l2", []float64{3, 4}, L2, false, 1, []float64{0.6, 0.8}},
		{"l1", []float64{1, -3}, L1, false, 1, []float64{0.25, -0.75}},
		{"infinity", []float64{1, -4}, Infinity, false, 1, []float64{0.25, -1}},
		{"stddev centered", []float64{1, 3}, StdDev, true, 1, []float64{-1, 1}},
		{"l2 centered scaled", []float64{1, 3}, L2, true, 2, []float64{-math.Sqrt2, math.Sqrt2}},
		{"zero vector", []float64{0, 0}, L2, false, 1, []float64{0, 0}},
		{"constant centered", []float64{5, 5, 5}, L1, true, 1, []float64{0, 0, 0}},
		{"empty", nil, L2, false, 1, []float64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertFloats(t, normalize(tt.in, tt.kind, tt.subMean, tt.scale), tt.want)
		})
	}
}

func TestNewLpNormalizerValidation(t *testing.T) {
	tests := []struct {
		name  string
		pairs []ColumnPair
		kind  NormKind
	}{
		{"no pairs", nil, L2},
		{"empty input", []ColumnPair{{Output: "X"}}, L2},
		{"duplicate output", []ColumnPair{Pair("A", "X"), Pair("B", "X")}, L2},
		{"unknown kind", Same("V"), NormKind(9)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLpNormalizer(tt.pairs, tt.kind, false)
			testutil.AssertEqual(t, gferrors.IsValidationError(err), true)
		})
	}

	_, err := NewGlobalContrastNormalizer(Same("V"), ContrastConfig{Scale: 0})
	testutil.AssertEqual(t, gferrors.IsValidationError(err), true)
}

func TestLpNormalizerTransform(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	norm, err := NewLpNormalizer([]ColumnPair{Pair("V", "N")}, L2, false)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, norm.Name(), "lp-normalize")
	testutil.AssertEqual(t, norm.Transformer().Kind(), L2)

	input := vectors(t, []float64{3, 4}, []float64{0, 2})
	xf, err := norm.FitAsync(ctx, input).Await(ctx)
	testutil.AssertNoError(t, err)

	out, err := xf.Transform(ctx, input)
	testutil.AssertNoError(t, err)

	col, ok := out.Schema().Find("N")
	testutil.AssertEqual(t, ok, true)
	testutil.AssertEqual(t, col.Size, 2)

	rows := column[[]float64](t, out, "N")
	assertFloats(t, rows[0], []float64{0.6, 0.8})
	assertFloats(t, rows[1], []float64{0, 1})

	// The source column is untouched.
	assertFloats(t, column[[]float64](t, out, "V")[0], []float64{3, 4})
}

func TestGlobalContrastNormalizerInPlace(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	cfg := DefaultContrastConfig()
	cfg.UseStdDev = true
	gcn, err := NewGlobalContrastNormalizer(Same("V"), cfg)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, gcn.Name(), "global-contrast")
	testutil.AssertEqual(t, gcn.Transformer().Kind(), StdDev)

	input := vectors(t, []float64{1, 3})
	xf, err := gcn.FitAsync(ctx, input).Await(ctx)
	testutil.AssertNoError(t, err)
	out, err := xf.Transform(ctx, input)
	testutil.AssertNoError(t, err)

	testutil.AssertEqual(t, out.Schema().Len(), 1)
	assertFloats(t, column[[]float64](t, out, "V")[0], []float64{-1, 1})
}

func TestLpNormalizerSchema(t *testing.T) {
	ctx := context.Background()
	norm, err := NewLpNormalizer([]ColumnPair{Pair("V", "N")}, L1, true)
	testutil.AssertNoError(t, err)

	good := schema.NewShape(schema.ColumnShape{Name: "V", Kind: schema.Float, IsVector: true})
	shape, err := norm.OutputSchemaAsync(ctx, good).Result()
	testutil.AssertNoError(t, err)
	col, ok := shape.Find("N")
	testutil.AssertEqual(t, ok, true)
	testutil.AssertEqual(t, col.IsVector, true)

	bad := schema.NewShape(schema.ColumnShape{Name: "V", Kind: schema.Float})
	_, err = norm.OutputSchemaAsync(ctx, bad).Result()
	testutil.AssertEqual(t, gferrors.IsSchemaError(err), true)

	_, err = norm.FitAsync(ctx, texts(t, "a")).Result()
	testutil.AssertEqual(t, gferrors.IsSchemaError(err), true)
}
