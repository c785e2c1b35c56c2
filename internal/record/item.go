// Package record holds the working state of one source row while it moves
// through the migration pipeline.
package record

import (
	"github.com/BartekS5/contentmigrate/internal/attachment"
	"github.com/BartekS5/contentmigrate/internal/tree"
)

// QueuedReference is an attachment reference to be created on commit.
type QueuedReference struct {
	ID     string
	Fields tree.Tree
}

// Destination is the payload that will be written for the row.
type Destination struct {
	UID   int64
	Table string

	ClearFlexFormField     bool
	ClearAllFileReferences bool

	// Change is committed first, on its own.
	Change tree.Tree
	// Data is the full record payload, seeded with the migration defaults.
	Data tree.Tree
	// Flex is merged into Data at the destination flexform field on commit.
	Flex tree.Tree

	References []QueuedReference
}

// QueueReference appends a new attachment reference and returns its
// placeholder id.
func (d *Destination) QueueReference(fields tree.Tree) string {
	id := attachment.NewPlaceholderID()
	d.References = append(d.References, QueuedReference{ID: id, Fields: fields})
	return id
}

// Item is the row context.
type Item struct {
	SrcUID   int64
	SrcPID   int64
	SrcTable string

	Source tree.Tree
	Flex   tree.Tree
	// SrcFal holds collected source attachments by logical group name.
	SrcFal map[string][]attachment.Item

	Destination Destination

	Updated  bool
	ErrorLog []string

	// Storage is free for migration hooks.
	Storage map[string]any
}

// Fail marks the row as not updated and records errs.
func (it *Item) Fail(errs ...string) {
	it.Updated = false
	it.ErrorLog = append(it.ErrorLog, errs...)
}

// Failed reports whether any error was recorded for the row.
func (it *Item) Failed() bool {
	return len(it.ErrorLog) > 0
}

// FalTree exposes the collected attachment groups as a tree so they can be
// addressed by path ("images", "images/0").
func (it *Item) FalTree() tree.Tree {
	out := make(tree.Tree, len(it.SrcFal))
	for name, items := range it.SrcFal {
		list := make([]any, len(items))
		for i, a := range items {
			list[i] = a
		}
		out[name] = list
	}
	return out
}
