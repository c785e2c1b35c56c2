package etl_test

import (
	"bytes"
	"context"
	"errors"
	"sort"

	"github.com/BartekS5/contentmigrate/internal/attachment"
	"github.com/BartekS5/contentmigrate/internal/etl"
	"github.com/BartekS5/contentmigrate/internal/flexform"
	"github.com/BartekS5/contentmigrate/internal/record"
	"github.com/BartekS5/contentmigrate/internal/report"
	"github.com/BartekS5/contentmigrate/internal/richtext"
	"github.com/BartekS5/contentmigrate/internal/tree"
	"github.com/BartekS5/contentmigrate/pkg/models"
	"github.com/BartekS5/contentmigrate/pkg/utils"
)

// fakeCMS keeps rows and references in memory and implements every
// collaborator the pipeline needs.
type fakeCMS struct {
	rows     map[string][]tree.Tree
	refs     []*attachment.Reference
	nextUID  int64
	commits  []record.DataMap
	queries  int
	fetchErr error
	// failCommit returns errors for a data map that should be rejected.
	failCommit func(record.DataMap) []string
}

func newFakeCMS() *fakeCMS {
	return &fakeCMS{rows: map[string][]tree.Tree{}, nextUID: 1000}
}

func (f *fakeCMS) FetchRows(_ context.Context, table string, filter map[string]any) ([]tree.Tree, error) {
	f.queries++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	var out []tree.Tree
	for _, r := range f.rows[table] {
		match := true
		for k, v := range filter {
			if utils.ToString(r[k]) != utils.ToString(v) {
				match = false
				break
			}
		}
		if match {
			out = append(out, tree.Clone(r))
		}
	}
	return out, nil
}

func (f *fakeCMS) FindReferences(_ context.Context, table, field string, uid int64, _ []models.Where) ([]*attachment.Reference, error) {
	var out []*attachment.Reference
	for _, r := range f.refs {
		if r.Table == table && r.Field == field && r.ForeignUID == uid {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Sorting < out[j].Sorting })
	return out, nil
}

func (f *fakeCMS) DeleteAllReferences(_ context.Context, table string, uid int64) error {
	kept := f.refs[:0]
	for _, r := range f.refs {
		if r.Table == table && r.ForeignUID == uid {
			continue
		}
		kept = append(kept, r)
	}
	f.refs = kept
	return nil
}

func (f *fakeCMS) Commit(_ context.Context, dm record.DataMap) []string {
	f.commits = append(f.commits, dm)
	if f.failCommit != nil {
		if errs := f.failCommit(dm); len(errs) > 0 {
			return errs
		}
	}
	for i, q := range dm.References {
		f.nextUID++
		f.refs = append(f.refs, &attachment.Reference{
			UID:        f.nextUID,
			Table:      utils.ToString(q.Fields["tablenames"]),
			Field:      utils.ToString(q.Fields["fieldname"]),
			ForeignUID: utils.GetInt64(q.Fields["uid_foreign"]),
			Sorting:    int64(i + 1),
			File:       &attachment.File{UID: utils.GetInt64(q.Fields["uid_local"])},
			Properties: q.Fields,
		})
	}
	return nil
}

func (f *fakeCMS) countRefs(table string, uid int64) int {
	n := 0
	for _, r := range f.refs {
		if r.Table == table && r.ForeignUID == uid {
			n++
		}
	}
	return n
}

// commitsFor returns the data maps written for one record.
func (f *fakeCMS) commitsFor(uid int64) []record.DataMap {
	var out []record.DataMap
	for _, c := range f.commits {
		if len(c.Records) > 0 && c.Records[0].UID == uid {
			out = append(out, c)
		}
	}
	return out
}

type memJournal struct {
	outcomes []etl.Outcome
	err      error
}

func (j *memJournal) Record(_ context.Context, o etl.Outcome) error {
	j.outcomes = append(j.outcomes, o)
	return j.err
}

var errDatabaseDown = errors.New("database down")

func services(cms *fakeCMS, out *bytes.Buffer) etl.Services {
	return etl.Services{
		Rows:      cms,
		Files:     cms,
		Persister: cms,
		Flex:      flexform.NewCodec(),
		RichText:  richtext.DefaultProfiles(),
		Out:       report.NewConsole(out),
	}
}
