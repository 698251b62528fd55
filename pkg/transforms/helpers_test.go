package transforms

import (
	"math"
	"testing"

	"github.com/sharwell/machinelearning/pkg/data"
	"github.com/sharwell/machinelearning/pkg/schema"
)

func vectors(t *testing.T, rows ...[]float64) *data.Table {
	t.Helper()
	values := make([]any, len(rows))
	for i, r := range rows {
		values[i] = r
	}
	size := schema.VarSize
	if len(rows) > 0 {
		size = len(rows[0])
	}
	table, err := data.NewTable(
		schema.New(schema.Column{Name: "V", Kind: schema.Float, Size: size}),
		map[string][]any{"V": values},
	)
	if err != nil {
		t.Fatalf("vectors: %v", err)
	}
	return table
}

func texts(t *testing.T, rows ...string) *data.Table {
	t.Helper()
	values := make([]any, len(rows))
	for i, r := range rows {
		values[i] = r
	}
	table, err := data.NewTable(
		schema.New(schema.Column{Name: "Text", Kind: schema.Text}),
		map[string][]any{"Text": values},
	)
	if err != nil {
		t.Fatalf("texts: %v", err)
	}
	return table
}

func termLists(t *testing.T, rows ...[]string) *data.Table {
	t.Helper()
	values := make([]any, len(rows))
	for i, r := range rows {
		values[i] = r
	}
	table, err := data.NewTable(
		schema.New(schema.Column{Name: "Terms", Kind: schema.Text, Size: schema.VarSize}),
		map[string][]any{"Terms": values},
	)
	if err != nil {
		t.Fatalf("termLists: %v", err)
	}
	return table
}

func column[E any](t *testing.T, v data.View, name string) []E {
	t.Helper()
	values, err := v.Column(name)
	if err != nil {
		t.Fatalf("column %s: %v", name, err)
	}
	out := make([]E, len(values))
	for i, x := range values {
		out[i] = x.(E)
	}
	return out
}

func assertFloats(t *testing.T, got, want []float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range got {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
