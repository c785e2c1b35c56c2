// Package models holds the declarative configuration of a migration.
package models

import (
	"errors"
	"fmt"
)

const (
	DefaultTable         = "tt_content"
	DefaultFlexFormField = "pi_flexform"
	DefaultTypeField     = "CType"
	DefaultFalGroup      = "fal"
)

// Where is an extra filter on fetched attachment references. Only "eq" is
// applied.
type Where struct {
	Field string `json:"field" yaml:"field"`
	Type  string `json:"type,omitempty" yaml:"type,omitempty"`
	Value any    `json:"value" yaml:"value"`
}

// FalFetch collects the references of one source field into a named group.
type FalFetch struct {
	SrcField string  `json:"src_field" yaml:"src_field"`
	SrcTable string  `json:"src_table,omitempty" yaml:"src_table,omitempty"`
	DstName  string  `json:"dst_name,omitempty" yaml:"dst_name,omitempty"`
	Wheres   []Where `json:"wheres,omitempty" yaml:"wheres,omitempty"`
}

type SourceConfig struct {
	Table         string         `json:"table" yaml:"table"`
	Filter        map[string]any `json:"fetch_identifier" yaml:"fetch_identifier"`
	FlexFormField string         `json:"flexFormField" yaml:"flexFormField"`
	TypeField     string         `json:"typeField,omitempty" yaml:"typeField,omitempty"`
	FetchFal      []FalFetch     `json:"fetch_fal_images,omitempty" yaml:"fetch_fal_images,omitempty"`
}

type DestinationConfig struct {
	FlexFormField          string `json:"flexFormField" yaml:"flexFormField"`
	ClearFlexFormField     bool   `json:"clearFlexFormField" yaml:"clearFlexFormField"`
	ClearAllFileReferences bool   `json:"clearAllFileReferences" yaml:"clearAllFileReferences"`

	// Change is committed on its own before the full payload; it usually
	// switches the record type.
	Change map[string]any `json:"change" yaml:"change"`
	// Default seeds every destination payload. The value at FlexFormField
	// seeds the destination flexform tree.
	Default map[string]any `json:"default" yaml:"default"`
}

// Definition is the full declarative description of one migration.
type Definition struct {
	Description string            `json:"description" yaml:"description"`
	Source      SourceConfig      `json:"source" yaml:"source"`
	Destination DestinationConfig `json:"destination" yaml:"destination"`
	Mappings    []Descriptor      `json:"mapping" yaml:"mapping"`
}

// NewDefinition returns a definition with the default tables and fields set.
func NewDefinition(description string) Definition {
	return Definition{Description: description}.WithDefaults()
}

// WithDefaults fills unset tables and field names.
func (d Definition) WithDefaults() Definition {
	if d.Source.Table == "" {
		d.Source.Table = DefaultTable
	}
	if d.Source.FlexFormField == "" {
		d.Source.FlexFormField = DefaultFlexFormField
	}
	if d.Source.TypeField == "" {
		d.Source.TypeField = DefaultTypeField
	}
	if d.Destination.FlexFormField == "" {
		d.Destination.FlexFormField = DefaultFlexFormField
	}
	for i := range d.Source.FetchFal {
		f := &d.Source.FetchFal[i]
		if f.SrcTable == "" {
			f.SrcTable = DefaultTable
		}
		if f.DstName == "" {
			f.DstName = DefaultFalGroup
		}
	}
	return d
}

// Validate checks what can be known before any row is fetched.
func (d Definition) Validate() error {
	var errs []error
	if d.Description == "" {
		errs = append(errs, errors.New("description is empty"))
	}
	for i, m := range d.Mappings {
		if !m.Kind.Known() {
			errs = append(errs, fmt.Errorf("mapping %d: unknown mapping type %s", i, m.Kind))
		}
	}
	for i, f := range d.Source.FetchFal {
		if f.SrcField == "" {
			errs = append(errs, fmt.Errorf("fetch_fal_images %d: src_field is empty", i))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("migration %q: %w", d.Description, errors.Join(errs...))
	}
	return nil
}
