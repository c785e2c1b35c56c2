// Package mapping applies declarative mapping descriptors to a row: each rule
// reads one address of the source view and writes one address of the
// destination view.
package mapping

import (
	"context"

	"github.com/BartekS5/contentmigrate/internal/record"
	"github.com/BartekS5/contentmigrate/internal/richtext"
	"github.com/BartekS5/contentmigrate/internal/tree"
	"github.com/BartekS5/contentmigrate/pkg/models"
)

// Diagnostics receives "[E] ..." lines for descriptors that cannot apply.
type Diagnostics interface {
	Writeln(s string)
}

// Schema answers whether the destination declares a column.
type Schema interface {
	HasColumn(ctx context.Context, table, column string) bool
}

// Env carries the collaborators rules may call.
type Env struct {
	Out      Diagnostics
	Schema   Schema
	RichText richtext.Normalizer
}

func (e Env) diag(s string) {
	if e.Out != nil {
		e.Out.Writeln(s)
	}
}

func (e Env) hasColumn(ctx context.Context, table, column string) bool {
	return e.Schema != nil && e.Schema.HasColumn(ctx, table, column)
}

// Rule processes one descriptor. Configuration problems are reported through
// env and leave dst untouched; only collaborator failures are returned.
type Rule interface {
	Name() string
	Process(ctx context.Context, env Env, d models.Descriptor, src SourceView, dst *DestinationView, it *record.Item) error
}

// addresses holds a descriptor's resolved source value and destination.
type addresses struct {
	srcSpace Space
	srcPath  string
	dstSpace Space
	dstPath  string
	value    any
}

// resolve runs the checks shared by all rules, in order, and reports the
// first failure.
func resolve(env Env, name string, d models.Descriptor, src SourceView) (addresses, bool) {
	srcType, srcPath, _ := tree.Split(d.Src)
	dstType, dstPath, _ := tree.Split(d.Dst)

	switch {
	case srcType == "":
		env.diag("[E] " + name + " Mapping Source Type not defined (row or flex)")
	case dstType == "":
		env.diag("[E] " + name + " Mapping Destination Type not defined (row or flex)")
	case srcPath == "":
		env.diag("[E] " + name + " Mapping Source Path not defined")
	case dstPath == "":
		env.diag("[E] " + name + " Mapping Destination Path not defined")
	default:
		value, ok := src.Lookup(Space(srcType), srcPath)
		if !ok {
			env.diag("[E] " + name + " Mapping Source Path not existing.")
			return addresses{}, false
		}
		return addresses{
			srcSpace: Space(srcType),
			srcPath:  srcPath,
			dstSpace: Space(dstType),
			dstPath:  dstPath,
			value:    value,
		}, true
	}
	return addresses{}, false
}

// write stores value at the destination address, reporting unwritable spaces.
func write(env Env, name string, a addresses, dst *DestinationView, value any) {
	if !dst.Set(a.dstSpace, a.dstPath, value) {
		env.diag("[E] " + name + " Mapping Destination Type " + string(a.dstSpace) + " not writable (row or flex)")
	}
}
