package schema

import (
	"fmt"
	"strings"
)

// Kind is the item type of a column.
type Kind int

const (
	// Bool columns hold bool values.
	Bool Kind = iota + 1
	// Int columns hold int64 values.
	Int
	// Float columns hold float64 values.
	Float
	// Text columns hold string values.
	Text
	// Key columns hold uint32 indices into a dictionary; 0 means missing.
	Key
)

var kindNames = map[Kind]string{
	Bool:  "bool",
	Int:   "int",
	Float: "float",
	Text:  "text",
	Key:   "key",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// IsNumeric reports whether values of this kind can feed numeric transforms.
func (k Kind) IsNumeric() bool {
	return k == Int || k == Float
}

// ParseKind parses the lower-case name of a kind.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if strings.EqualFold(s, name) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("schema: unknown kind %q", s)
}
