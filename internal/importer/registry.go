package importer

import (
	"fmt"
	"sync"

	"github.com/tbourn/go-pilotlog-backend/internal/domain"
)

// FieldType is the semantic type a raw value is coerced to.
type FieldType int

const (
	TypeString FieldType = iota + 1
	TypeInteger
	TypeBoolean
	TypeFloat
	TypeDate
	TypeDateTime
	TypeUUID
)

func (t FieldType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInteger:
		return "integer"
	case TypeBoolean:
		return "boolean"
	case TypeFloat:
		return "float"
	case TypeDate:
		return "date"
	case TypeDateTime:
		return "datetime"
	case TypeUUID:
		return "uuid"
	default:
		return fmt.Sprintf("FieldType(%d)", int(t))
	}
}

// Field maps one vendor payload key onto a storage column.
//
// Required fields must be present. A required field that is also Nullable
// must be present but may be null. Optional fields default to null.
// EmptyAsNull turns falsy values ("", 0, false) into null before coercion.
type Field struct {
	External    string
	Internal    string
	Type        FieldType
	Required    bool
	Nullable    bool
	EmptyAsNull bool
}

// Reference declares that the value of Field (an internal field name) is the
// code of a row in Target, stored in Column once resolved.
type Reference struct {
	Field  string
	Column string
	Target domain.TableType
}

// Schema describes one logbook table: how its payload is validated and where
// it is stored. Reference fields are validated like any other field but are
// never written directly; the link pass fills their columns.
type Schema struct {
	Table        domain.TableType
	StorageTable string
	Model        any
	Fields       []Field
	References   []Reference

	byExternal   map[string]int
	refFields    map[string]int
	columns      []string
	codeExternal string
}

// CodeField and ModifiedField are the internal names every schema declares.
const (
	CodeField     = "code"
	ModifiedField = "record_modified"
)

// Columns returns the storage columns written on insert, in declaration
// order. Reference fields are excluded.
func (s *Schema) Columns() []string { return s.columns }

// ReferenceColumns returns the storage columns filled by the link pass.
func (s *Schema) ReferenceColumns() []string {
	out := make([]string, 0, len(s.References))
	for _, ref := range s.References {
		out = append(out, ref.Column)
	}
	return out
}

// IsReference reports whether the internal field is a deferred reference.
func (s *Schema) IsReference(internal string) bool {
	_, ok := s.refFields[internal]
	return ok
}

// Field returns the declaration for an external name.
func (s *Schema) Field(external string) (Field, bool) {
	i, ok := s.byExternal[external]
	if !ok {
		return Field{}, false
	}
	return s.Fields[i], true
}

// Registry maps discriminators to schemas. It is never modified after
// NewRegistry returns and is safe for concurrent use.
type Registry struct {
	schemas map[domain.TableType]*Schema
	order   []domain.TableType
}

// NewRegistry checks and indexes the given schemas.
func NewRegistry(schemas ...Schema) (*Registry, error) {
	r := &Registry{schemas: make(map[domain.TableType]*Schema, len(schemas))}
	for i := range schemas {
		s := schemas[i]
		if err := prepare(&s); err != nil {
			return nil, fmt.Errorf("schema %q: %w", s.Table, err)
		}
		if _, dup := r.schemas[s.Table]; dup {
			return nil, fmt.Errorf("schema %q registered twice", s.Table)
		}
		r.schemas[s.Table] = &s
		r.order = append(r.order, s.Table)
	}
	for _, t := range r.order {
		for _, ref := range r.schemas[t].References {
			if _, ok := r.schemas[ref.Target]; !ok {
				return nil, fmt.Errorf("schema %q: reference %s targets unregistered table %q", t, ref.Field, ref.Target)
			}
		}
	}
	return r, nil
}

func prepare(s *Schema) error {
	if !s.Table.Valid() {
		return fmt.Errorf("unknown table type")
	}
	if s.StorageTable == "" || s.Model == nil {
		return fmt.Errorf("storage table and model are required")
	}

	s.Fields = append([]Field(nil), s.Fields...)
	s.References = append([]Reference(nil), s.References...)
	s.byExternal = make(map[string]int, len(s.Fields))
	byInternal := make(map[string]int, len(s.Fields))
	for i, f := range s.Fields {
		if f.External == "" || f.Internal == "" {
			return fmt.Errorf("field %d: external and internal names are required", i)
		}
		if f.Type < TypeString || f.Type > TypeUUID {
			return fmt.Errorf("field %s: invalid type", f.External)
		}
		if _, dup := s.byExternal[f.External]; dup {
			return fmt.Errorf("duplicate external name %q", f.External)
		}
		if _, dup := byInternal[f.Internal]; dup {
			return fmt.Errorf("duplicate internal name %q", f.Internal)
		}
		if f.EmptyAsNull && f.Required && !f.Nullable {
			return fmt.Errorf("field %s: empty-as-null needs a nullable field", f.External)
		}
		s.byExternal[f.External] = i
		byInternal[f.Internal] = i
	}

	code, ok := byInternal[CodeField]
	if !ok {
		return fmt.Errorf("no %q field", CodeField)
	}
	if c := s.Fields[code]; !c.Required || c.Nullable || (c.Type != TypeUUID && c.Type != TypeInteger) {
		return fmt.Errorf("%q must be a required uuid or integer", CodeField)
	}
	s.codeExternal = s.Fields[code].External
	mod, ok := byInternal[ModifiedField]
	if !ok || s.Fields[mod].Type != TypeDateTime {
		return fmt.Errorf("%q must be a datetime field", ModifiedField)
	}

	s.refFields = make(map[string]int, len(s.References))
	cols := make(map[string]bool, len(s.References))
	for i, ref := range s.References {
		fi, ok := byInternal[ref.Field]
		if !ok {
			return fmt.Errorf("reference field %q is not declared", ref.Field)
		}
		if s.Fields[fi].Type != TypeUUID {
			return fmt.Errorf("reference field %q must be a uuid", ref.Field)
		}
		if ref.Column == "" || cols[ref.Column] {
			return fmt.Errorf("reference %q: missing or duplicate column", ref.Field)
		}
		if _, clash := byInternal[ref.Column]; clash {
			return fmt.Errorf("reference column %q clashes with a field", ref.Column)
		}
		if ref.Target == s.Table {
			return fmt.Errorf("reference %q targets its own table", ref.Field)
		}
		cols[ref.Column] = true
		s.refFields[ref.Field] = i
	}

	s.columns = make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		if _, isRef := s.refFields[f.Internal]; !isRef {
			s.columns = append(s.columns, f.Internal)
		}
	}
	return nil
}

// Lookup returns the schema for a normalized discriminator. The returned
// schema is shared and must be treated as read-only.
func (r *Registry) Lookup(t domain.TableType) (*Schema, bool) {
	s, ok := r.schemas[t]
	return s, ok
}

// Tables returns the registered discriminators in registration order.
func (r *Registry) Tables() []domain.TableType {
	return append([]domain.TableType(nil), r.order...)
}

// DefaultRegistry is the process-wide registry of the logbook schemas. It is
// built on first use; an invalid built-in schema is a programming error.
var DefaultRegistry = sync.OnceValue(func() *Registry {
	r, err := NewRegistry(LogbookSchemas()...)
	if err != nil {
		panic(err)
	}
	return r
})
