package etl

import (
	"context"

	"github.com/BartekS5/contentmigrate/internal/attachment"
	"github.com/BartekS5/contentmigrate/internal/mapping"
	"github.com/BartekS5/contentmigrate/internal/record"
	"github.com/BartekS5/contentmigrate/internal/richtext"
	"github.com/BartekS5/contentmigrate/internal/tree"
	"github.com/BartekS5/contentmigrate/pkg/models"
)

// RowSource fetches raw records matching every key/value of filter.
type RowSource interface {
	FetchRows(ctx context.Context, table string, filter map[string]any) ([]tree.Tree, error)
}

// AttachmentStore reads and purges attachment references.
type AttachmentStore interface {
	FindReferences(ctx context.Context, table, field string, uid int64, wheres []models.Where) ([]*attachment.Reference, error)
	DeleteAllReferences(ctx context.Context, table string, uid int64) error
}

// Persister writes a data map in one transaction and returns the
// validation or processing errors it hit. An empty result means success.
type Persister interface {
	Commit(ctx context.Context, data record.DataMap) []string
}

// FlexParser decodes a serialized flexform column.
type FlexParser interface {
	Parse(blob string) (tree.Tree, error)
}

// Journal keeps a durable copy of row outcomes.
type Journal interface {
	Record(ctx context.Context, o Outcome) error
}

// Reporter receives the run transcript.
type Reporter interface {
	Write(s string)
	Writeln(s string)
	Section(s string)
	Note(s string)
	Success(s string)
	Error(s string)
}

// Services bundles the collaborators of a run. Schema, RichText and Journal
// are optional.
type Services struct {
	Rows      RowSource
	Files     AttachmentStore
	Persister Persister
	Flex      FlexParser
	Schema    mapping.Schema
	RichText  richtext.Normalizer
	Journal   Journal
	Out       Reporter
}
