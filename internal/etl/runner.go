package etl

import (
	"context"
	"fmt"
	"strings"
)

// Summary aggregates a batch run.
type Summary struct {
	Migrations int
	Skipped    int
	Invalid    int
	Rows       int
	Updated    int
	Failed     int
}

// Runner drives a list of migrations against one set of services.
type Runner struct {
	svc Services
}

func NewRunner(svc Services) *Runner {
	return &Runner{svc: svc}
}

// Run processes every migration whose identifier is in selection, or all of
// them when selection is empty. A failing migration never stops the ones
// after it.
func (r *Runner) Run(ctx context.Context, migrations []Migration, selection []string) Summary {
	var sum Summary
	selected := make(map[string]bool, len(selection))
	for _, s := range selection {
		if s = strings.TrimSpace(s); s != "" {
			selected[s] = true
		}
	}

	for _, m := range migrations {
		desc := m.Definition().Description
		id := Identifier(desc)
		if len(selected) > 0 && !selected[id] {
			r.svc.Out.Note("Skipping " + id + " (not selected)")
			sum.Skipped++
			continue
		}
		p, err := NewPipeline(m, r.svc)
		if err != nil {
			r.svc.Out.Error(err.Error())
			sum.Invalid++
			continue
		}

		r.svc.Out.Section(desc)
		stats := p.Process(ctx)
		sum.Migrations++
		sum.Rows += stats.Rows
		sum.Updated += stats.Updated
		sum.Failed += stats.Failed
	}

	r.svc.Out.Success(fmt.Sprintf("%d migrations run, %d skipped, %d invalid; rows: %d, updated: %d, failed: %d",
		sum.Migrations, sum.Skipped, sum.Invalid, sum.Rows, sum.Updated, sum.Failed))
	return sum
}

// List prints identifier and description of every migration.
func (r *Runner) List(migrations []Migration) {
	r.svc.Out.Section("List of migrations")
	if len(migrations) == 0 {
		r.svc.Out.Note("No migrations registered.")
		r.svc.Out.Writeln("")
		r.svc.Out.Success("FINISHED")
		return
	}
	for _, m := range migrations {
		def := m.Definition()
		r.svc.Out.Writeln(fmt.Sprintf("%40s : %s", Identifier(def.Description), def.Description))
	}
	r.svc.Out.Writeln("")
	r.svc.Out.Success("FINISHED")
}
