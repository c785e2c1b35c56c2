package models

import (
	"fmt"
)

// Kind discriminates mapping rules.
type Kind int

const (
	KindUnknown Kind = iota
	KindSimple
	KindValueTransform
	KindRtePrepareToSimple
	KindCollectedFalToFal
)

var kindNames = map[Kind]string{
	KindSimple:             "simple",
	KindValueTransform:     "valueTransform",
	KindRtePrepareToSimple: "rtePrepareToSimple",
	KindCollectedFalToFal:  "collectedFalToFal",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Known reports whether k names a mapping rule.
func (k Kind) Known() bool {
	_, ok := kindNames[k]
	return ok
}

// ParseKind resolves the text form used in definition files.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return KindUnknown, fmt.Errorf("unknown mapping type %q", s)
}

func (k Kind) MarshalText() ([]byte, error) {
	if !k.Known() {
		return nil, fmt.Errorf("unknown mapping type %d", int(k))
	}
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Descriptor configures one field-level mapping step. Src and Dst are
// addresses of the form "<row|flex|fal>/<path>".
type Descriptor struct {
	Kind Kind   `json:"mapping_type" yaml:"mapping_type"`
	Src  string `json:"src" yaml:"src"`
	Dst  string `json:"dst" yaml:"dst"`

	// valueTransform
	Map     map[string]any `json:"map,omitempty" yaml:"map,omitempty"`
	Default any            `json:"default,omitempty" yaml:"default,omitempty"`

	// rtePrepareToSimple
	Fieldname       string `json:"fieldname,omitempty" yaml:"fieldname,omitempty"`
	RichTextProfile string `json:"richtextConfiguration,omitempty" yaml:"richtextConfiguration,omitempty"`

	// collectedFalToFal
	SrcTable  string           `json:"srcTable,omitempty" yaml:"srcTable,omitempty"`
	DstTable  string           `json:"dstTable,omitempty" yaml:"dstTable,omitempty"`
	Overrides []map[string]any `json:"overrides,omitempty" yaml:"overrides,omitempty"`
}

// Simple copies a value unchanged.
func Simple(src, dst string) Descriptor {
	return Descriptor{Kind: KindSimple, Src: src, Dst: dst}
}

// ValueTransform looks the source value up in m, falling back to def.
func ValueTransform(src, dst string, m map[string]any, def any) Descriptor {
	return Descriptor{Kind: KindValueTransform, Src: src, Dst: dst, Map: m, Default: def}
}

// RtePrepareToSimple normalizes rich text markup with the named profile.
func RtePrepareToSimple(src, dst, fieldname, profile string) Descriptor {
	return Descriptor{
		Kind:            KindRtePrepareToSimple,
		Src:             src,
		Dst:             dst,
		Fieldname:       fieldname,
		RichTextProfile: profile,
	}
}

// CollectedFalToFal re-attaches collected source files to a destination field.
func CollectedFalToFal(src, dst, srcTable, dstTable string) Descriptor {
	return Descriptor{
		Kind:     KindCollectedFalToFal,
		Src:      src,
		Dst:      dst,
		SrcTable: srcTable,
		DstTable: dstTable,
	}
}

// WithOverrides sets per-index reference metadata for collectedFalToFal.
func (d Descriptor) WithOverrides(o ...map[string]any) Descriptor {
	d.Overrides = o
	return d
}
