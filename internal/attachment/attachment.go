// Package attachment models stored files and the references that attach them
// to record fields.
package attachment

import (
	"strings"

	"github.com/google/uuid"
)

// Table names of the attachment schema.
const (
	FileTable      = "sys_file"
	ReferenceTable = "sys_file_reference"
)

// Descriptive reference columns copied between references.
var MetadataFields = []string{"title", "description", "alternative", "link"}

// VisibilityField is only copied when the reference schema declares it.
const VisibilityField = "showinpreview"

// Item is a member of a collected attachment group: either a Reference or a
// bare File.
type Item interface {
	OriginalFile() *File
}

// File is a stored file. Attachments never modify it.
type File struct {
	UID        int64
	Properties map[string]any
}

// OriginalFile returns f.
func (f *File) OriginalFile() *File { return f }

// Property returns a column of the sys_file row.
func (f *File) Property(name string) any {
	if f == nil {
		return nil
	}
	return f.Properties[name]
}

// Reference links a File to an owning record field.
type Reference struct {
	UID        int64
	Table      string
	Field      string
	ForeignUID int64
	Sorting    int64
	File       *File
	Properties map[string]any
}

// OriginalFile returns the referenced file.
func (r *Reference) OriginalFile() *File {
	if r == nil {
		return nil
	}
	return r.File
}

// Property returns a column of the sys_file_reference row.
func (r *Reference) Property(name string) any {
	if r == nil {
		return nil
	}
	return r.Properties[name]
}

// NewPlaceholderID returns an id for a reference that does not exist yet.
// The persistence layer replaces it with the real uid on commit.
func NewPlaceholderID() string {
	return "NEW" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}

// IsPlaceholder reports whether id was produced by NewPlaceholderID.
func IsPlaceholder(id string) bool {
	return strings.HasPrefix(id, "NEW")
}
