package schema

import (
	"fmt"
	"sort"
)

// ============================================================================
// SCHEMA CATALOG — Describes the warehouse objects for the engine + translator
// ============================================================================
// Loaded from a YAML catalog file (Load), or inferred from a loaded warehouse
// (Discover). The engine consumes it read-only: field types drive unit-type
// inference, enum fields mark grouping candidates, timestamp priority lists
// drive row-view timestamps, and relationships form the foreign-key graph.
// ============================================================================

// FieldType classifies a warehouse field.
type FieldType string

const (
	TypeID        FieldType = "id"
	TypeString    FieldType = "string"
	TypeNumber    FieldType = "number"
	TypeBoolean   FieldType = "boolean"
	TypeTimestamp FieldType = "timestamp"
	TypeEnum      FieldType = "enum"
)

// Field describes one column of a warehouse object.
type Field struct {
	Name string    `json:"name" koanf:"name"`
	Type FieldType `json:"type" koanf:"type"`

	// Enum lists the allowed values for TypeEnum fields.
	Enum []string `json:"enum,omitempty" koanf:"enum"`

	// Unit tags numeric fields for unit-type algebra: "count", "currency",
	// "volume" or "rate". Empty means no declared unit.
	Unit string `json:"unit,omitempty" koanf:"unit"`
}

// Object describes one entity type held in the warehouse.
type Object struct {
	Label  string  `json:"label" koanf:"label"`
	Fields []Field `json:"fields" koanf:"fields"`

	// Plural is the table name callers may use instead of the object name.
	// Empty means object name + "s".
	Plural string `json:"plural,omitempty" koanf:"plural"`

	// TimestampFields is the priority-ordered list of fields that can serve
	// as a row's canonical timestamp (e.g. a subscription prefers
	// current_period_start over created). Empty falls back to the engine's
	// default priority list.
	TimestampFields []string `json:"timestampFields,omitempty" koanf:"timestampFields"`
}

// Relationship is a declared, directed foreign-key edge between two objects.
// A row of Source carrying SourceField joins the Target row whose TargetField
// matches.
type Relationship struct {
	Source      string `json:"source" koanf:"source"`
	SourceField string `json:"sourceField" koanf:"sourceField"`
	Target      string `json:"target" koanf:"target"`
	TargetField string `json:"targetField" koanf:"targetField"`
}

// Catalog is the full schema for one warehouse.
type Catalog struct {
	Name          string            `json:"name" koanf:"name"`
	Objects       map[string]Object `json:"objects" koanf:"objects"`
	Relationships []Relationship    `json:"relationships,omitempty" koanf:"relationships"`
}

// Accessors tolerate a nil catalog: the engine runs without a schema (e.g.
// over a freshly discovered warehouse) and falls back to defaults.

// Object returns the named object definition.
func (c *Catalog) Object(name string) (Object, bool) {
	if c == nil {
		return Object{}, false
	}
	o, ok := c.Objects[name]
	return o, ok
}

// Field returns a field definition for object.field.
func (c *Catalog) Field(object, field string) (Field, bool) {
	o, ok := c.Object(object)
	if !ok {
		return Field{}, false
	}
	for _, f := range o.Fields {
		if f.Name == field {
			return f, true
		}
	}
	return Field{}, false
}

// FieldUnit returns the declared unit of a field, or "" when undeclared.
func (c *Catalog) FieldUnit(object, field string) string {
	f, ok := c.Field(object, field)
	if !ok {
		return ""
	}
	return f.Unit
}

// Categorical reports whether a field is suitable for grouped breakdowns:
// enums, plain strings and booleans qualify; ids, numbers and timestamps
// do not.
func (c *Catalog) Categorical(object, field string) bool {
	f, ok := c.Field(object, field)
	if !ok {
		return false
	}
	switch f.Type {
	case TypeEnum, TypeString, TypeBoolean:
		return true
	default:
		return false
	}
}

// PluralOf returns the plural table name for an object.
func (c *Catalog) PluralOf(name string) string {
	if o, ok := c.Object(name); ok && o.Plural != "" {
		return o.Plural
	}
	return name + "s"
}

// TimestampPriority returns the priority-ordered timestamp field list for an
// object, falling back to defaults shared by Stripe-like objects.
func (c *Catalog) TimestampPriority(object string) []string {
	if o, ok := c.Object(object); ok && len(o.TimestampFields) > 0 {
		return o.TimestampFields
	}
	return defaultTimestampFields
}

var defaultTimestampFields = []string{"created", "created_at", "date", "timestamp"}

// Validate checks internal consistency: relationships and timestamp priority
// lists must reference declared objects and fields.
func (c *Catalog) Validate() error {
	if c == nil {
		return nil
	}
	for _, r := range c.Relationships {
		if _, ok := c.Objects[r.Source]; !ok {
			return fmt.Errorf("relationship %s.%s -> %s.%s: unknown source object %q",
				r.Source, r.SourceField, r.Target, r.TargetField, r.Source)
		}
		if _, ok := c.Objects[r.Target]; !ok {
			return fmt.Errorf("relationship %s.%s -> %s.%s: unknown target object %q",
				r.Source, r.SourceField, r.Target, r.TargetField, r.Target)
		}
		if _, ok := c.Field(r.Source, r.SourceField); !ok {
			return fmt.Errorf("relationship source field %s.%s is not declared", r.Source, r.SourceField)
		}
		if _, ok := c.Field(r.Target, r.TargetField); !ok {
			return fmt.Errorf("relationship target field %s.%s is not declared", r.Target, r.TargetField)
		}
	}
	for name, o := range c.Objects {
		for _, tf := range o.TimestampFields {
			if _, ok := c.Field(name, tf); !ok {
				return fmt.Errorf("timestamp field %s.%s is not declared", name, tf)
			}
		}
	}
	return nil
}

// ObjectNames returns all object names in a stable order.
func (c *Catalog) ObjectNames() []string {
	if c == nil {
		return nil
	}
	names := make([]string, 0, len(c.Objects))
	for name := range c.Objects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FieldNames returns all field names of one object.
func (c *Catalog) FieldNames(object string) []string {
	o, ok := c.Object(object)
	if !ok {
		return nil
	}
	names := make([]string, len(o.Fields))
	for i, f := range o.Fields {
		names[i] = f.Name
	}
	return names
}
