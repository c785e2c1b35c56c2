package etl_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/BartekS5/contentmigrate/internal/attachment"
	"github.com/BartekS5/contentmigrate/internal/etl"
	"github.com/BartekS5/contentmigrate/internal/mapping"
	"github.com/BartekS5/contentmigrate/internal/record"
	"github.com/BartekS5/contentmigrate/internal/tree"
	"github.com/BartekS5/contentmigrate/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const teaserFlex = `<?xml version="1.0" encoding="utf-8" standalone="yes" ?>
<T3FlexForms>
    <data>
        <sheet index="sDEF">
            <language index="lDEF">
                <field index="settings.headline">
                    <value index="vDEF">Hello</value>
                </field>
                <field index="settings.layout">
                    <value index="vDEF">wide</value>
                </field>
            </language>
        </sheet>
    </data>
</T3FlexForms>`

func seedTeasers(cms *fakeCMS) {
	cms.rows["tt_content"] = []tree.Tree{
		{"uid": int64(10), "pid": int64(3), "CType": "dce_teaser", "header": "First", "pi_flexform": teaserFlex},
		{"uid": int64(11), "pid": int64(3), "CType": "dce_teaser", "header": "Second", "pi_flexform": teaserFlex},
		{"uid": int64(12), "pid": int64(3), "CType": "text", "header": "Untouched"},
	}
	cms.refs = []*attachment.Reference{
		{UID: 1, Table: "tt_content", Field: "image", ForeignUID: 10, Sorting: 2, File: &attachment.File{UID: 501}},
		{UID: 2, Table: "tt_content", Field: "image", ForeignUID: 10, Sorting: 1, File: &attachment.File{UID: 500}},
	}
}

func teaserDefinition() models.Definition {
	def := models.NewDefinition("Teaser to textmedia")
	def.Source.Filter = map[string]any{"CType": "dce_teaser"}
	def.Source.FetchFal = []models.FalFetch{{SrcField: "image", DstName: "images"}}
	def.Destination.Change = map[string]any{"CType": "textmedia"}
	def.Destination.Default = map[string]any{
		"pi_flexform": map[string]any{"data": map[string]any{"sDEF": map[string]any{"lDEF": map[string]any{
			"layout": map[string]any{"vDEF": "default"},
		}}}},
	}
	def.Mappings = []models.Descriptor{
		models.Simple("flex/data/sDEF/lDEF/settings.headline/vDEF", "row/header"),
		models.ValueTransform("flex/data/sDEF/lDEF/settings.layout/vDEF", "row/layout",
			map[string]any{"wide": 1, "narrow": 2}, 0),
		models.CollectedFalToFal("fal/images", "row/image", "", ""),
	}
	return def
}

func newPipeline(t *testing.T, m etl.Migration, svc etl.Services) *etl.Pipeline {
	t.Helper()
	p, err := etl.NewPipeline(m, svc)
	require.NoError(t, err)
	return p
}

func TestProcessMigratesMatchingRows(t *testing.T) {
	cms := newFakeCMS()
	seedTeasers(cms)
	var out bytes.Buffer

	stats := newPipeline(t, etl.Static(teaserDefinition()), services(cms, &out)).Process(context.Background())

	assert.Equal(t, etl.Stats{Rows: 2, Updated: 2}, stats)
	require.Len(t, cms.commitsFor(10), 2)

	change := cms.commitsFor(10)[0]
	assert.Equal(t, map[string]any{"CType": "textmedia"}, change.Records[0].Fields)
	assert.Empty(t, change.References)

	data := cms.commitsFor(10)[1]
	fields := data.Records[0].Fields
	assert.Equal(t, "Hello", fields["header"])
	assert.Equal(t, 1, fields["layout"])
	assert.Equal(t, "default", tree.Get(fields, "pi_flexform/data/sDEF/lDEF/layout/vDEF", "/"))

	require.Len(t, data.References, 2)
	assert.Equal(t, int64(500), data.References[0].Fields["uid_local"], "references keep source order")
	assert.Equal(t, int64(501), data.References[1].Fields["uid_local"])
	assert.Equal(t, data.References[0].ID+","+data.References[1].ID, fields["image"])
	require.Len(t, data.InlineView, 2)
	assert.Equal(t, data.References[1].ID, data.InlineView[1].ReferenceID)

	assert.Empty(t, cms.commitsFor(12), "rows outside the filter are never touched")
	assert.Contains(t, out.String(), "DONE - 2 source elements")
	assert.Contains(t, out.String(), "[I][ContentUID:      10][dce_teaser => textmedia] updated")
	assert.Contains(t, out.String(), "[OK] Finished")
}

func TestFetchSourceRefusesEmptyFilter(t *testing.T) {
	cms := newFakeCMS()
	seedTeasers(cms)
	var out bytes.Buffer
	def := teaserDefinition()
	def.Source.Filter = nil

	p := newPipeline(t, etl.Static(def), services(cms, &out))

	assert.Nil(t, p.FetchSource(context.Background()))
	assert.Zero(t, cms.queries)
	assert.Contains(t, out.String(), "Source fetch identifier empty")
}

func TestProcessFetchError(t *testing.T) {
	cms := newFakeCMS()
	cms.fetchErr = errDatabaseDown
	var out bytes.Buffer

	stats := newPipeline(t, etl.Static(teaserDefinition()), services(cms, &out)).Process(context.Background())

	assert.Zero(t, stats)
	assert.Empty(t, cms.commits)
	assert.Contains(t, out.String(), "FAILED")
	assert.Contains(t, out.String(), "FetchSource failed: database down")
	assert.Contains(t, out.String(), "Nothing to do")
}

func TestProcessNothingToDo(t *testing.T) {
	cms := newFakeCMS()
	var out bytes.Buffer

	stats := newPipeline(t, etl.Static(teaserDefinition()), services(cms, &out)).Process(context.Background())

	assert.Zero(t, stats)
	assert.Contains(t, out.String(), "DONE - 0 source elements")
	assert.Contains(t, out.String(), "Nothing to do")
}

func TestChangeCommitFailureSkipsDataCommit(t *testing.T) {
	cms := newFakeCMS()
	seedTeasers(cms)
	cms.failCommit = func(dm record.DataMap) []string {
		if dm.Records[0].UID == 10 && dm.Records[0].Fields["CType"] == "textmedia" {
			return []string{"record 10 is locked"}
		}
		return nil
	}
	var out bytes.Buffer
	j := &memJournal{}
	svc := services(cms, &out)
	svc.Journal = j

	stats := newPipeline(t, etl.Static(teaserDefinition()), svc).Process(context.Background())

	assert.Equal(t, etl.Stats{Rows: 2, Updated: 1, Failed: 1}, stats)
	assert.Len(t, cms.commitsFor(10), 1, "the full payload is not written after a failed change")
	assert.Len(t, cms.commitsFor(11), 2)
	assert.Equal(t, 2, cms.countRefs("tt_content", 10), "no references were created for the failed row")

	require.Len(t, j.outcomes, 2)
	assert.False(t, j.outcomes[0].Updated)
	assert.Equal(t, []string{"record 10 is locked"}, j.outcomes[0].Errors)
	assert.True(t, j.outcomes[1].Updated)
	assert.Contains(t, out.String(), "Updating record failed")
	assert.Contains(t, out.String(), `[E][ContentUID:      10][dce_teaser => textmedia] failed : ["record 10 is locked"]`)
}

func TestClearAllFileReferencesIsIdempotent(t *testing.T) {
	cms := newFakeCMS()
	seedTeasers(cms)
	def := teaserDefinition()
	def.Destination.ClearAllFileReferences = true
	var out bytes.Buffer

	p := newPipeline(t, etl.Static(def), services(cms, &out))
	p.Process(context.Background())
	first := cms.countRefs("tt_content", 10)

	p.Process(context.Background())

	assert.Equal(t, 2, first)
	assert.Equal(t, first, cms.countRefs("tt_content", 10))
}

func TestReferencesAccumulateWithoutClear(t *testing.T) {
	cms := newFakeCMS()
	seedTeasers(cms)
	var out bytes.Buffer

	p := newPipeline(t, etl.Static(teaserDefinition()), services(cms, &out))
	p.Process(context.Background())

	assert.Equal(t, 4, cms.countRefs("tt_content", 10))
}

func TestClearFlexFormField(t *testing.T) {
	cms := newFakeCMS()
	seedTeasers(cms)
	def := teaserDefinition()
	def.Destination.ClearFlexFormField = true
	var out bytes.Buffer

	newPipeline(t, etl.Static(def), services(cms, &out)).Process(context.Background())

	data := cms.commitsFor(10)[1]
	v, ok := data.Records[0].Fields["pi_flexform"]
	assert.True(t, ok)
	assert.Nil(t, v)
}

func TestFlexParseFailureMarksRowFailed(t *testing.T) {
	cms := newFakeCMS()
	cms.rows["tt_content"] = []tree.Tree{
		{"uid": int64(20), "pid": int64(1), "CType": "dce_teaser", "pi_flexform": "<T3FlexForms><data>"},
	}
	var out bytes.Buffer

	stats := newPipeline(t, etl.Static(teaserDefinition()), services(cms, &out)).Process(context.Background())

	assert.Equal(t, etl.Stats{Rows: 1, Failed: 1}, stats)
	assert.Empty(t, cms.commits)
	assert.Contains(t, out.String(), "[E][ContentUID:      20]")
}

func TestInvalidDefinition(t *testing.T) {
	def := teaserDefinition()
	def.Mappings = append(def.Mappings, models.Descriptor{Src: "row/a", Dst: "row/b"})

	_, err := etl.NewPipeline(etl.Static(def), etl.Services{})

	assert.ErrorContains(t, err, "unknown mapping type")
}

type hookedTeaser struct {
	calls []string
}

func (h *hookedTeaser) Definition() models.Definition { return teaserDefinition() }

func (h *hookedTeaser) ManualMigration(src mapping.SourceView, dst *mapping.DestinationView, it *record.Item) {
	h.calls = append(h.calls, "manual")
	if _, ok := src.Lookup(mapping.SpaceFal, "images"); ok {
		h.calls = append(h.calls, "fal-visible")
	}
	header, _ := src.Lookup(mapping.SpaceRow, "header")
	dst.Set(mapping.SpaceRow, "subheader", header)
}

func (h *hookedTeaser) BeforeUpdate(it *record.Item) {
	h.calls = append(h.calls, "before")
	it.Destination.Data["bodytext"] = "<p>set before update</p>"
}

func (h *hookedTeaser) AfterUpdate(it *record.Item) {
	if it.Updated {
		h.calls = append(h.calls, "after:updated")
	}
}

func TestHooksRunInOrder(t *testing.T) {
	cms := newFakeCMS()
	seedTeasers(cms)
	cms.rows["tt_content"] = cms.rows["tt_content"][:1]
	var out bytes.Buffer
	m := &hookedTeaser{}

	newPipeline(t, m, services(cms, &out)).Process(context.Background())

	assert.Equal(t, []string{"manual", "before", "after:updated"}, m.calls)
	fields := cms.commitsFor(10)[1].Records[0].Fields
	assert.Equal(t, "First", fields["subheader"])
	assert.Equal(t, "<p>set before update</p>", fields["bodytext"])
}

func TestJournalErrorDoesNotFailRow(t *testing.T) {
	cms := newFakeCMS()
	seedTeasers(cms)
	var out bytes.Buffer
	svc := services(cms, &out)
	svc.Journal = &memJournal{err: errDatabaseDown}

	stats := newPipeline(t, etl.Static(teaserDefinition()), svc).Process(context.Background())

	assert.Equal(t, 2, stats.Updated)
}
