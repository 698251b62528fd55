package schema

import (
	"strings"

	gferrors "github.com/sharwell/machinelearning/pkg/common/errors"
)

type vectorness int

const (
	anyVectorness vectorness = iota
	scalarOnly
	vectorOnly
)

// Requirement is what a stage needs from one input column.
type Requirement struct {
	Column string
	Kinds  []Kind
	vector vectorness
}

// Scalar requires a scalar column of one of kinds (any kind when empty).
func Scalar(column string, kinds ...Kind) Requirement {
	return Requirement{Column: column, Kinds: kinds, vector: scalarOnly}
}

// Vector requires a vector column of one of kinds (any kind when empty).
func Vector(column string, kinds ...Kind) Requirement {
	return Requirement{Column: column, Kinds: kinds, vector: vectorOnly}
}

// Any requires a scalar or vector column of one of kinds (any kind when empty).
func Any(column string, kinds ...Kind) Requirement {
	return Requirement{Column: column, Kinds: kinds, vector: anyVectorness}
}

// Check returns a *errors.SchemaError if s cannot satisfy r.
func (r Requirement) Check(s Shape) error {
	col, ok := s.Find(r.Column)
	if !ok {
		return gferrors.NewSchemaError(r.Column, r.String(), "")
	}
	if !r.accepts(col) {
		return gferrors.NewSchemaError(r.Column, r.String(), col.String())
	}
	return nil
}

func (r Requirement) accepts(col ColumnShape) bool {
	switch r.vector {
	case scalarOnly:
		if col.IsVector {
			return false
		}
	case vectorOnly:
		if !col.IsVector {
			return false
		}
	}
	if len(r.Kinds) == 0 {
		return true
	}
	for _, k := range r.Kinds {
		if k == col.Kind {
			return true
		}
	}
	return false
}

func (r Requirement) String() string {
	kinds := "any"
	if len(r.Kinds) > 0 {
		names := make([]string, len(r.Kinds))
		for i, k := range r.Kinds {
			names[i] = k.String()
		}
		kinds = strings.Join(names, "|")
	}
	switch r.vector {
	case scalarOnly:
		return kinds + " scalar"
	case vectorOnly:
		return kinds + " vector"
	default:
		return kinds
	}
}

// CheckAll checks every requirement and returns the first failure.
func CheckAll(s Shape, reqs ...Requirement) error {
	for _, r := range reqs {
		if err := r.Check(s); err != nil {
			return err
		}
	}
	return nil
}
