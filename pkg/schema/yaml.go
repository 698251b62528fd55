package schema

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// columnDecl is the YAML form of a Column.
//
//	columns:
//	  - name: Label
//	    kind: bool
//	  - name: Features
//	    kind: float
//	    size: 4
type columnDecl struct {
	Name     string `yaml:"name"`
	Kind     Kind   `yaml:"kind"`
	Size     int    `yaml:"size,omitempty"`
	KeyCount int    `yaml:"key_count,omitempty"`
}

type schemaDecl struct {
	Columns []columnDecl `yaml:"columns"`
}

// UnmarshalYAML decodes a kind from its name.
func (k *Kind) UnmarshalYAML(value *yaml.Node) error {
	var name string
	if err := value.Decode(&name); err != nil {
		return err
	}
	parsed, err := ParseKind(name)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// MarshalYAML encodes a kind as its name.
func (k Kind) MarshalYAML() (interface{}, error) {
	return k.String(), nil
}

// ParseYAML decodes a schema declaration.
func ParseYAML(data []byte) (*Schema, error) {
	var decl schemaDecl
	if err := yaml.Unmarshal(data, &decl); err != nil {
		return nil, fmt.Errorf("schema: decode yaml: %w", err)
	}

	cols := make([]Column, 0, len(decl.Columns))
	seen := make(map[string]bool, len(decl.Columns))
	for i, d := range decl.Columns {
		if d.Name == "" {
			return nil, fmt.Errorf("schema: column %d has no name", i)
		}
		if seen[d.Name] {
			return nil, fmt.Errorf("schema: duplicate column %q", d.Name)
		}
		if d.Kind == 0 {
			return nil, fmt.Errorf("schema: column %q has no kind", d.Name)
		}
		if d.Size < VarSize {
			return nil, fmt.Errorf("schema: column %q has invalid size %d", d.Name, d.Size)
		}
		seen[d.Name] = true
		cols = append(cols, Column{Name: d.Name, Kind: d.Kind, Size: d.Size, KeyCount: d.KeyCount})
	}
	return New(cols...), nil
}

// MarshalYAML encodes the schema in the form ParseYAML accepts.
func (s *Schema) MarshalYAML() (interface{}, error) {
	decl := schemaDecl{Columns: make([]columnDecl, 0, s.Len())}
	for _, c := range s.Columns() {
		decl.Columns = append(decl.Columns, columnDecl{Name: c.Name, Kind: c.Kind, Size: c.Size, KeyCount: c.KeyCount})
	}
	return decl, nil
}
