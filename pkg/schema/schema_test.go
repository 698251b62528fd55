package schema

import (
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/sharwell/machinelearning/internal/testutil"
	gferrors "github.com/sharwell/machinelearning/pkg/common/errors"
)

func TestSchemaWithReplacesByName(t *testing.T) {
	s := New(
		Column{Name: "Label", Kind: Bool},
		Column{Name: "Text", Kind: Text},
	)
	s2 := s.With(Column{Name: "Label", Kind: Float})

	testutil.AssertEqual(t, strings.Join(s.Names(), ","), "Label,Text")
	testutil.AssertEqual(t, strings.Join(s2.Names(), ","), "Text,Label")

	col, ok := s2.Find("Label")
	testutil.AssertEqual(t, ok, true)
	testutil.AssertEqual(t, col.Kind, Float)

	orig, _ := s.Find("Label")
	testutil.AssertEqual(t, orig.Kind, Bool)
}

func TestNilSchema(t *testing.T) {
	var s *Schema
	testutil.AssertEqual(t, s.Len(), 0)
	_, ok := s.Find("X")
	testutil.AssertEqual(t, ok, false)
	testutil.AssertEqual(t, ShapeOf(s).Len(), 0)
}

func TestShapeOf(t *testing.T) {
	s := New(
		Column{Name: "Features", Kind: Float, Size: 4},
		Column{Name: "Tokens", Kind: Text, Size: VarSize},
		Column{Name: "Category", Kind: Key, KeyCount: 3},
	)
	shape := ShapeOf(s)

	want := NewShape(
		ColumnShape{Name: "Features", Kind: Float, IsVector: true},
		ColumnShape{Name: "Tokens", Kind: Text, IsVector: true},
		ColumnShape{Name: "Category", Kind: Key, KeyCount: 3},
	)
	if !shape.Equal(want) {
		t.Fatalf("ShapeOf() = %v, want %v", shape.Columns(), want.Columns())
	}
}

func TestShapeWithIsNonMutating(t *testing.T) {
	base := NewShape(ColumnShape{Name: "X", Kind: Float})
	derived := base.With(ColumnShape{Name: "Y", Kind: Text})

	testutil.AssertEqual(t, base.Len(), 1)
	testutil.AssertEqual(t, derived.Len(), 2)
	testutil.AssertEqual(t, base.Equal(derived), false)
}

func TestRequirementCheck(t *testing.T) {
	shape := NewShape(
		ColumnShape{Name: "X", Kind: Float},
		ColumnShape{Name: "V", Kind: Float, IsVector: true},
		ColumnShape{Name: "T", Kind: Text},
	)

	tests := []struct {
		name    string
		req     Requirement
		wantErr bool
		message string
	}{
		{"numeric scalar", Scalar("X", Int, Float), false, ""},
		{"any kind scalar", Scalar("T"), false, ""},
		{"vector", Vector("V", Float), false, ""},
		{"any accepts vector", Any("V", Float), false, ""},
		{"missing column", Scalar("Y", Float), true, `schema: column "Y" not found (expected float scalar)`},
		{"wrong kind", Scalar("T", Float), true, `schema: column "T" expected float scalar, got text scalar`},
		{"scalar for vector", Vector("X", Float), true, `schema: column "X" expected float vector, got float scalar`},
		{"vector for scalar", Scalar("V"), true, `schema: column "V" expected any scalar, got float vector`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Check(shape)
			if !tt.wantErr {
				testutil.AssertNoError(t, err)
				return
			}
			if !gferrors.IsSchemaError(err) {
				t.Fatalf("Check() = %v, want SchemaError", err)
			}
			testutil.AssertEqual(t, err.Error(), tt.message)
		})
	}
}

func TestCheckAllReturnsFirstFailure(t *testing.T) {
	shape := NewShape(ColumnShape{Name: "X", Kind: Float})
	err := CheckAll(shape, Scalar("X", Float), Scalar("A"), Scalar("B"))

	var serr *gferrors.SchemaError
	if !asSchemaError(err, &serr) {
		t.Fatalf("CheckAll() = %v, want SchemaError", err)
	}
	testutil.AssertEqual(t, serr.Column, "A")
}

func asSchemaError(err error, target **gferrors.SchemaError) bool {
	serr, ok := err.(*gferrors.SchemaError)
	if ok {
		*target = serr
	}
	return ok
}

func TestParseKind(t *testing.T) {
	for _, name := range []string{"bool", "int", "float", "text", "key", "FLOAT"} {
		if _, err := ParseKind(name); err != nil {
			t.Errorf("ParseKind(%q) = %v", name, err)
		}
	}
	if _, err := ParseKind("tensor"); err == nil {
		t.Error("ParseKind should reject unknown kinds")
	}
	testutil.AssertEqual(t, Float.IsNumeric(), true)
	testutil.AssertEqual(t, Text.IsNumeric(), false)
}

func TestParseYAML(t *testing.T) {
	doc := []byte(`
columns:
  - name: Label
    kind: bool
  - name: Text
    kind: text
  - name: Features
    kind: float
    size: 4
  - name: Category
    kind: key
    key_count: 10
`)
	s, err := ParseYAML(doc)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, strings.Join(s.Names(), ","), "Label,Text,Features,Category")

	features, _ := s.Find("Features")
	testutil.AssertEqual(t, features.Size, 4)
	category, _ := s.Find("Category")
	testutil.AssertEqual(t, category.KeyCount, 10)

	out, err := yaml.Marshal(s)
	testutil.AssertNoError(t, err)
	again, err := ParseYAML(out)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, ShapeOf(again).Equal(ShapeOf(s)), true)
}

func TestParseYAMLErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown kind", "columns:\n  - name: X\n    kind: tensor\n"},
		{"missing name", "columns:\n  - kind: bool\n"},
		{"missing kind", "columns:\n  - name: X\n"},
		{"duplicate", "columns:\n  - name: X\n    kind: bool\n  - name: X\n    kind: text\n"},
		{"bad size", "columns:\n  - name: X\n    kind: float\n    size: -2\n"},
		{"not yaml", "columns: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseYAML([]byte(tt.doc))
			testutil.AssertError(t, err)
		})
	}
}

func TestColumnString(t *testing.T) {
	testutil.AssertEqual(t, Column{Name: "X", Kind: Float}.String(), "X: float")
	testutil.AssertEqual(t, Column{Name: "V", Kind: Float, Size: 3}.String(), "V: vector<float, 3>")
	testutil.AssertEqual(t, Column{Name: "T", Kind: Text, Size: VarSize}.String(), "T: vector<text>")
}
