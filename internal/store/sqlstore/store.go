// Package sqlstore reads and writes CMS records in SQL Server.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/BartekS5/contentmigrate/internal/attachment"
	"github.com/BartekS5/contentmigrate/internal/tree"
	"github.com/BartekS5/contentmigrate/pkg/logger"
	"github.com/BartekS5/contentmigrate/pkg/models"
	"github.com/BartekS5/contentmigrate/pkg/utils"
	"github.com/jmoiron/sqlx"
)

// InlineViewTable receives one row per created reference when it exists.
const InlineViewTable = "tx_contentmigrate_inlineview"

// Serializer turns a flexform tree back into its stored text form.
type Serializer interface {
	Serialize(t tree.Tree, addPrologue bool) (string, error)
}

// Store implements row fetching, attachment lookup and commits on one
// database handle.
type Store struct {
	db    *sqlx.DB
	codec Serializer

	mu      sync.Mutex
	columns map[string]map[string]bool
}

func New(db *sqlx.DB, codec Serializer) *Store {
	return &Store{db: db, codec: codec, columns: map[string]map[string]bool{}}
}

// FetchRows returns the rows of table whose columns equal every filter
// value, ordered by uid.
func (s *Store) FetchRows(ctx context.Context, table string, filter map[string]any) ([]tree.Tree, error) {
	query, args, err := selectQuery(table, filter, "uid")
	if err != nil {
		return nil, err
	}
	return s.queryMaps(ctx, s.db.Rebind(query), args...)
}

// FindReferences loads the live references of one record field, in their
// sort order, each with its stored file.
func (s *Store) FindReferences(ctx context.Context, table, field string, uid int64, wheres []models.Where) ([]*attachment.Reference, error) {
	filter := map[string]any{
		"tablenames":  table,
		"fieldname":   field,
		"uid_foreign": uid,
	}
	if s.HasColumn(ctx, attachment.ReferenceTable, "deleted") {
		filter["deleted"] = 0
	}
	for _, w := range wheres {
		if w.Field == "" || w.Value == nil {
			continue
		}
		if w.Type != "" && w.Type != "eq" {
			logger.Warnf("Ignoring %s condition on %s.%s", w.Type, attachment.ReferenceTable, w.Field)
			continue
		}
		filter[w.Field] = w.Value
	}

	query, args, err := selectQuery(attachment.ReferenceTable, filter, "sorting_foreign")
	if err != nil {
		return nil, err
	}
	rows, err := s.queryMaps(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("select references of %s.%s:%d: %w", table, field, uid, err)
	}

	refs := make([]*attachment.Reference, 0, len(rows))
	for _, r := range rows {
		file, err := s.FindFile(ctx, utils.GetInt64(r["uid_local"]))
		if err != nil {
			return nil, err
		}
		refs = append(refs, &attachment.Reference{
			UID:        utils.GetInt64(r["uid"]),
			Table:      utils.ToString(r["tablenames"]),
			Field:      utils.ToString(r["fieldname"]),
			ForeignUID: utils.GetInt64(r["uid_foreign"]),
			Sorting:    utils.GetInt64(r["sorting_foreign"]),
			File:       file,
			Properties: r,
		})
	}
	return refs, nil
}

// FindFile loads one stored file.
func (s *Store) FindFile(ctx context.Context, uid int64) (*attachment.File, error) {
	query, args, err := selectQuery(attachment.FileTable, map[string]any{"uid": uid}, "")
	if err != nil {
		return nil, err
	}
	rows, err := s.queryMaps(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("select file %d: %w", uid, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("file %d: %w", uid, sql.ErrNoRows)
	}
	return &attachment.File{UID: uid, Properties: rows[0]}, nil
}

// DeleteAllReferences removes every reference pointing at the record.
// References are flagged deleted when the table supports it.
func (s *Store) DeleteAllReferences(ctx context.Context, table string, uid int64) error {
	var query string
	if s.HasColumn(ctx, attachment.ReferenceTable, "deleted") {
		query = "UPDATE [sys_file_reference] SET [deleted] = 1 WHERE [tablenames] = ? AND [uid_foreign] = ?"
	} else {
		query = "DELETE FROM [sys_file_reference] WHERE [tablenames] = ? AND [uid_foreign] = ?"
	}
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(query), table, uid); err != nil {
		return fmt.Errorf("delete references of %s:%d: %w", table, uid, err)
	}
	return nil
}

// HasColumn reports whether table declares column. Column lists are loaded
// once per table.
func (s *Store) HasColumn(ctx context.Context, table, column string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	cols, ok := s.columns[table]
	if !ok {
		var names []string
		err := s.db.SelectContext(ctx, &names,
			s.db.Rebind("SELECT COLUMN_NAME FROM INFORMATION_SCHEMA.COLUMNS WHERE TABLE_NAME = ?"), table)
		if err != nil {
			logger.Warnf("Reading columns of %s failed: %v", table, err)
			return false
		}
		cols = make(map[string]bool, len(names))
		for _, n := range names {
			cols[strings.ToLower(n)] = true
		}
		s.columns[table] = cols
	}
	return cols[strings.ToLower(column)]
}

func (s *Store) queryMaps(ctx context.Context, query string, args ...any) ([]tree.Tree, error) {
	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []tree.Tree
	for rows.Next() {
		m := map[string]any{}
		if err := rows.MapScan(m); err != nil {
			return nil, err
		}
		for k, v := range m {
			if b, ok := v.([]byte); ok {
				m[k] = string(b)
			}
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func withTx(ctx context.Context, db *sqlx.DB, fn func(*sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

var errNoRecord = errors.New("record not found")
