package mapping

import (
	"github.com/BartekS5/contentmigrate/internal/record"
	"github.com/BartekS5/contentmigrate/internal/tree"
)

// Space names an address space of a view.
type Space string

const (
	SpaceRow  Space = "row"
	SpaceFlex Space = "flex"
	SpaceFal  Space = "fal"
)

// SourceView is the read-only projection of a row's source state.
type SourceView struct {
	row   tree.Tree
	flex  tree.Tree
	fal   tree.Tree
	table string
	pid   int64
}

// NewSourceView projects it. Attachments are only visible when withFal is set.
func NewSourceView(it *record.Item, withFal bool) SourceView {
	v := SourceView{
		row:   it.Source,
		flex:  it.Flex,
		table: it.SrcTable,
		pid:   it.SrcPID,
	}
	if withFal {
		v.fal = it.FalTree()
	}
	return v
}

func (v SourceView) space(s Space) (tree.Tree, bool) {
	switch s {
	case SpaceRow:
		return v.row, true
	case SpaceFlex:
		return v.flex, true
	case SpaceFal:
		return v.fal, v.fal != nil
	}
	return nil, false
}

// Lookup resolves path inside the named space.
func (v SourceView) Lookup(s Space, path string) (any, bool) {
	t, ok := v.space(s)
	if !ok {
		return nil, false
	}
	return tree.Lookup(t, path, tree.Delimiter)
}

// Row returns a copy of the flat source row.
func (v SourceView) Row() tree.Tree { return tree.Clone(v.row) }

// Flex returns a copy of the parsed source flexform.
func (v SourceView) Flex() tree.Tree { return tree.Clone(v.flex) }

func (v SourceView) Table() string { return v.table }

func (v SourceView) PID() int64 { return v.pid }

// DestinationView accumulates writes for the row and flexform payloads.
// Writes never alias the row context until WriteBack.
type DestinationView struct {
	row  tree.Tree
	flex tree.Tree
}

func NewDestinationView(it *record.Item) *DestinationView {
	return &DestinationView{
		row:  it.Destination.Data,
		flex: it.Destination.Flex,
	}
}

// Lookup reads back a destination value.
func (v *DestinationView) Lookup(s Space, path string) (any, bool) {
	switch s {
	case SpaceRow:
		return tree.Lookup(v.row, path, tree.Delimiter)
	case SpaceFlex:
		return tree.Lookup(v.flex, path, tree.Delimiter)
	}
	return nil, false
}

// Set writes value at path. Only row and flex are writable.
func (v *DestinationView) Set(s Space, path string, value any) bool {
	switch s {
	case SpaceRow:
		v.row = tree.Set(v.row, path, value, tree.Delimiter)
	case SpaceFlex:
		v.flex = tree.Set(v.flex, path, value, tree.Delimiter)
	default:
		return false
	}
	return true
}

func (v *DestinationView) Row() tree.Tree { return v.row }

func (v *DestinationView) Flex() tree.Tree { return v.flex }

// WriteBack stores the accumulated payloads in the row context.
func (v *DestinationView) WriteBack(it *record.Item) {
	it.Destination.Data = v.row
	it.Destination.Flex = v.flex
}
