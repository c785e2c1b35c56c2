package etl

import (
	"strings"

	"github.com/BartekS5/contentmigrate/internal/mapping"
	"github.com/BartekS5/contentmigrate/internal/record"
	"github.com/BartekS5/contentmigrate/pkg/models"
)

// Migration describes one source to destination migration. Definition must
// be a pure function; it may be called more than once per run.
//
// A Migration may additionally implement ManualMigrator, BeforeUpdater and
// AfterUpdater.
type Migration interface {
	Definition() models.Definition
}

// ManualMigrator handles transformations the mapping descriptors cannot
// express. Attachments are not visible in src.
type ManualMigrator interface {
	ManualMigration(src mapping.SourceView, dst *mapping.DestinationView, it *record.Item)
}

// BeforeUpdater runs right before the row is committed.
type BeforeUpdater interface {
	BeforeUpdate(it *record.Item)
}

// AfterUpdater runs after the commit, successful or not.
type AfterUpdater interface {
	AfterUpdate(it *record.Item)
}

// Static is a Migration without hooks, as loaded from definition files.
type Static models.Definition

func (s Static) Definition() models.Definition { return models.Definition(s) }

// Identifier derives the selection key of a migration from its description:
// lower case, spaces replaced by dashes.
func Identifier(description string) string {
	id := strings.ReplaceAll(strings.ToLower(description), " ", "-")
	return strings.Trim(id, "-_ ")
}
