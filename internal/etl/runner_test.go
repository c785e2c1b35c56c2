package etl_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/BartekS5/contentmigrate/internal/etl"
	"github.com/BartekS5/contentmigrate/internal/tree"
	"github.com/BartekS5/contentmigrate/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestIdentifier(t *testing.T) {
	assert.Equal(t, "teaser-to-textmedia", etl.Identifier("Teaser to textmedia"))
	assert.Equal(t, "gallery", etl.Identifier(" Gallery_"))
}

func galleryDefinition() models.Definition {
	def := models.NewDefinition("Gallery")
	def.Source.Filter = map[string]any{"CType": "dce_gallery"}
	def.Destination.Change = map[string]any{"CType": "gallery"}
	return def
}

func TestRunSelection(t *testing.T) {
	cms := newFakeCMS()
	seedTeasers(cms)
	cms.rows["tt_content"] = append(cms.rows["tt_content"],
		tree.Tree{"uid": int64(30), "pid": int64(1), "CType": "dce_gallery"})
	var out bytes.Buffer

	sum := etl.NewRunner(services(cms, &out)).Run(context.Background(),
		[]etl.Migration{etl.Static(teaserDefinition()), etl.Static(galleryDefinition())},
		[]string{"gallery"})

	assert.Equal(t, etl.Summary{Migrations: 1, Skipped: 1, Rows: 1, Updated: 1}, sum)
	assert.Empty(t, cms.commitsFor(10))
	assert.Len(t, cms.commitsFor(30), 2)
	assert.Contains(t, out.String(), "Skipping teaser-to-textmedia (not selected)")
}

func TestRunContinuesAfterInvalidAndFailingMigrations(t *testing.T) {
	cms := newFakeCMS()
	seedTeasers(cms)
	var out bytes.Buffer

	broken := teaserDefinition()
	broken.Description = ""
	unfiltered := galleryDefinition()
	unfiltered.Source.Filter = nil

	sum := etl.NewRunner(services(cms, &out)).Run(context.Background(),
		[]etl.Migration{etl.Static(broken), etl.Static(unfiltered), etl.Static(teaserDefinition())}, nil)

	assert.Equal(t, 1, sum.Invalid)
	assert.Equal(t, 2, sum.Migrations)
	assert.Equal(t, 2, sum.Updated)
	assert.Contains(t, out.String(), "description is empty")
	assert.Contains(t, out.String(), "2 migrations run, 0 skipped, 1 invalid")
}

func TestList(t *testing.T) {
	var out bytes.Buffer
	r := etl.NewRunner(services(newFakeCMS(), &out))

	r.List([]etl.Migration{etl.Static(teaserDefinition())})

	assert.Contains(t, out.String(), "                     teaser-to-textmedia : Teaser to textmedia")
	assert.Contains(t, out.String(), "FINISHED")
}

func TestListEmpty(t *testing.T) {
	var out bytes.Buffer

	etl.NewRunner(services(newFakeCMS(), &out)).List(nil)

	assert.Contains(t, out.String(), "No migrations registered.")
}

func TestOutcomeLine(t *testing.T) {
	o := etl.Outcome{SrcUID: 42, SrcType: "dce_a", DstType: "textmedia", Updated: true}
	assert.Equal(t, "[I][ContentUID:      42][dce_a => textmedia] updated", o.Line())

	o.Updated = false
	assert.Equal(t, "[I][ContentUID:      42][dce_a => textmedia] not-updated", o.Line())

	o.Errors = []string{"boom"}
	assert.Equal(t, `[E][ContentUID:      42][dce_a => textmedia] failed : ["boom"]`, o.Line())
}

func TestRunIgnoresInvalidUnselectedMigrations(t *testing.T) {
	cms := newFakeCMS()
	seedTeasers(cms)
	var out bytes.Buffer

	broken := galleryDefinition()
	broken.Mappings = []models.Descriptor{{Src: "row/a", Dst: "row/b"}}

	sum := etl.NewRunner(services(cms, &out)).Run(context.Background(),
		[]etl.Migration{etl.Static(broken), etl.Static(teaserDefinition())},
		[]string{"teaser-to-textmedia"})

	assert.Equal(t, etl.Summary{Migrations: 1, Skipped: 1, Rows: 2, Updated: 2}, sum)
	assert.NotContains(t, out.String(), "unknown mapping type")
	assert.Contains(t, out.String(), "Skipping gallery (not selected)")
}
