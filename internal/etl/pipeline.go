package etl

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/BartekS5/contentmigrate/internal/attachment"
	"github.com/BartekS5/contentmigrate/internal/mapping"
	"github.com/BartekS5/contentmigrate/internal/record"
	"github.com/BartekS5/contentmigrate/internal/tree"
	"github.com/BartekS5/contentmigrate/pkg/logger"
	"github.com/BartekS5/contentmigrate/pkg/models"
	"github.com/BartekS5/contentmigrate/pkg/utils"
	"github.com/davecgh/go-spew/spew"
)

// Stats counts row results of one migration.
type Stats struct {
	Rows    int
	Updated int
	Failed  int
}

func (s *Stats) add(o Outcome) {
	s.Rows++
	if o.Updated {
		s.Updated++
	}
	if len(o.Errors) > 0 {
		s.Failed++
	}
}

// Pipeline migrates the rows of one migration definition.
type Pipeline struct {
	migration Migration
	def       models.Definition
	svc       Services
	applier   *mapping.Applier
}

// NewPipeline builds and validates the definition of m.
func NewPipeline(m Migration, svc Services) (*Pipeline, error) {
	def := m.Definition().WithDefaults()
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &Pipeline{
		migration: m,
		def:       def,
		svc:       svc,
		applier: mapping.NewApplier(mapping.Env{
			Out:      svc.Out,
			Schema:   svc.Schema,
			RichText: svc.RichText,
		}),
	}, nil
}

// Definition returns the validated definition with defaults applied.
func (p *Pipeline) Definition() models.Definition { return p.def }

// Process fetches all source rows and migrates them one by one.
func (p *Pipeline) Process(ctx context.Context) Stats {
	var stats Stats
	startTime := time.Now()

	items := p.FetchSource(ctx)
	if len(items) == 0 {
		p.svc.Out.Note("Nothing to do")
		p.svc.Out.Writeln("")
		return stats
	}

	for _, it := range items {
		stats.add(p.MigrateRow(ctx, it))
	}

	p.svc.Out.Success("Finished")
	p.svc.Out.Writeln("")
	logger.Infof("Migration %q done. Rows: %d, updated: %d, failed: %d, took %s",
		p.def.Description, stats.Rows, stats.Updated, stats.Failed, time.Since(startTime).Round(time.Millisecond))
	return stats
}

// FetchSource loads the source rows and prepares a row context for each.
// It returns nil when the filter is empty or the query fails.
func (p *Pipeline) FetchSource(ctx context.Context) []*record.Item {
	out := p.svc.Out
	if len(p.def.Source.Filter) == 0 {
		out.Error("Source fetch identifier empty - refusing to fetch the whole table")
		out.Writeln("")
		return nil
	}

	out.Write("Fetch source records for " + p.def.Description + " ... ")
	rows, err := p.svc.Rows.FetchRows(ctx, p.def.Source.Table, p.def.Source.Filter)
	if err != nil {
		out.Writeln("FAILED")
		out.Error("FetchSource failed: " + err.Error())
		out.Writeln("")
		logger.Errorf("Fetching %s for %q failed: %v", p.def.Source.Table, p.def.Description, err)
		return nil
	}
	out.Writeln(fmt.Sprintf("DONE - %d source elements", len(rows)))
	if len(rows) == 0 {
		return nil
	}

	out.Write("Prepare source elements ... ")
	items := make([]*record.Item, 0, len(rows))
	for _, r := range rows {
		items = append(items, p.prepareItem(r))
	}
	out.Writeln("DONE")
	return items
}

func (p *Pipeline) prepareItem(r tree.Tree) *record.Item {
	src, dst := p.def.Source, p.def.Destination
	uid := utils.GetInt64(r["uid"])

	data := tree.Clone(dst.Default)
	if data == nil {
		data = tree.Tree{}
	}
	flexDefault, _ := data[dst.FlexFormField].(map[string]any)
	if flexDefault == nil {
		flexDefault = tree.Tree{}
		data[dst.FlexFormField] = flexDefault
	}

	it := &record.Item{
		SrcUID:   uid,
		SrcPID:   utils.GetInt64(r["pid"]),
		SrcTable: src.Table,
		Source:   r,
		SrcFal:   map[string][]attachment.Item{},
		Destination: record.Destination{
			UID:                    uid,
			Table:                  src.Table,
			ClearFlexFormField:     dst.ClearFlexFormField,
			ClearAllFileReferences: dst.ClearAllFileReferences,
			Change:                 tree.Clone(dst.Change),
			Data:                   data,
			Flex:                   tree.Clone(flexDefault),
		},
		Storage: map[string]any{},
	}

	if blob := utils.ToString(r[src.FlexFormField]); src.FlexFormField != "" && blob != "" && p.svc.Flex != nil {
		flex, err := p.svc.Flex.Parse(blob)
		if err != nil {
			it.Fail(fmt.Sprintf("parse %s.%s: %v", src.Table, src.FlexFormField, err))
		}
		it.Flex = flex
	}
	return it
}

// MigrateRow runs every phase for one row and reports the outcome. Rows that
// already failed before commit skip straight to the report.
func (p *Pipeline) MigrateRow(ctx context.Context, it *record.Item) Outcome {
	if !it.Failed() {
		p.fetchFalImages(ctx, it)
	}
	if !it.Failed() {
		p.processMapping(ctx, it)
	}
	if !it.Failed() {
		p.processMethod(it)
		if h, ok := p.migration.(BeforeUpdater); ok {
			h.BeforeUpdate(it)
		}
		p.processUpdate(ctx, it)
		if h, ok := p.migration.(AfterUpdater); ok {
			h.AfterUpdate(it)
		}
	}
	return p.displayRowState(ctx, it)
}

func (p *Pipeline) fetchFalImages(ctx context.Context, it *record.Item) {
	for _, f := range p.def.Source.FetchFal {
		if _, ok := it.SrcFal[f.DstName]; !ok {
			it.SrcFal[f.DstName] = []attachment.Item{}
		}
		refs, err := p.svc.Files.FindReferences(ctx, f.SrcTable, f.SrcField, it.SrcUID, f.Wheres)
		if err != nil {
			it.Fail(fmt.Sprintf("fetch references %s.%s: %v", f.SrcTable, f.SrcField, err))
			return
		}
		for _, ref := range refs {
			it.SrcFal[f.DstName] = append(it.SrcFal[f.DstName], ref)
		}
	}
}

func (p *Pipeline) processMapping(ctx context.Context, it *record.Item) {
	if len(p.def.Mappings) == 0 {
		return
	}
	src := mapping.NewSourceView(it, true)
	dst := mapping.NewDestinationView(it)
	if err := p.applier.Apply(ctx, p.def.Mappings, src, dst, it); err != nil {
		it.Fail(err.Error())
		return
	}
	dst.WriteBack(it)
}

func (p *Pipeline) processMethod(it *record.Item) {
	h, ok := p.migration.(ManualMigrator)
	if !ok {
		return
	}
	src := mapping.NewSourceView(it, false)
	dst := mapping.NewDestinationView(it)
	h.ManualMigration(src, dst, it)
	dst.WriteBack(it)
}

// processUpdate commits the change payload and then the full payload, each
// in its own transaction.
func (p *Pipeline) processUpdate(ctx context.Context, it *record.Item) {
	d := &it.Destination
	field := p.def.Destination.FlexFormField

	if d.Data == nil {
		d.Data = tree.Tree{}
	}
	base, _ := d.Data[field].(map[string]any)
	d.Data[field] = tree.Merge(base, d.Flex)
	if d.ClearFlexFormField {
		d.Data[field] = nil
	}

	change := it.ChangeMap()
	if logger.DebugEnabled() {
		logger.Debugf("change payload for %s:%d\n%s", d.Table, d.UID, spew.Sdump(change))
	}
	if errs := p.svc.Persister.Commit(ctx, change); len(errs) > 0 {
		p.updateFailed(it, errs)
		return
	}

	if d.ClearAllFileReferences {
		if err := p.svc.Files.DeleteAllReferences(ctx, d.Table, d.UID); err != nil {
			p.updateFailed(it, []string{err.Error()})
			return
		}
	}

	data := it.DataMap()
	if logger.DebugEnabled() {
		logger.Debugf("data payload for %s:%d\n%s", d.Table, d.UID, spew.Sdump(data))
	}
	if errs := p.svc.Persister.Commit(ctx, data); len(errs) > 0 {
		p.updateFailed(it, errs)
		return
	}

	it.Updated = true
}

func (p *Pipeline) updateFailed(it *record.Item, errs []string) {
	out := p.svc.Out
	out.Error("Updating record failed")
	out.Writeln("")
	if b, err := json.MarshalIndent(errs, "", "    "); err == nil {
		out.Writeln(string(b))
	}
	out.Writeln("")
	it.Fail(errs...)
}

func (p *Pipeline) displayRowState(ctx context.Context, it *record.Item) Outcome {
	o := NewOutcome(p.def, it)
	p.svc.Out.Writeln(o.Line())

	if p.svc.Journal != nil {
		if err := p.svc.Journal.Record(ctx, o); err != nil {
			logger.Warnf("Journal write for %s:%d failed: %v", o.SrcTable, o.SrcUID, err)
		}
	}
	return o
}
