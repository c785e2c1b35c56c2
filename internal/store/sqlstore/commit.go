package sqlstore

import (
	"context"
	"fmt"

	"github.com/BartekS5/contentmigrate/internal/attachment"
	"github.com/BartekS5/contentmigrate/internal/record"
	"github.com/BartekS5/contentmigrate/internal/tree"
	"github.com/BartekS5/contentmigrate/pkg/logger"
	"github.com/jmoiron/sqlx"
)

// Commit writes dm in one transaction: queued references first, then the
// record updates with placeholder ids resolved, then the inline view rows.
// Nothing is written when any step fails.
func (s *Store) Commit(ctx context.Context, dm record.DataMap) []string {
	if dm.Empty() {
		return nil
	}
	inline := len(dm.InlineView) > 0 && s.HasColumn(ctx, InlineViewTable, "reference_uid")

	err := withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		ids := make(map[string]int64, len(dm.References))
		for _, ref := range dm.References {
			uid, err := s.insertReference(ctx, tx, ref.Fields)
			if err != nil {
				return fmt.Errorf("insert reference %s: %w", ref.ID, err)
			}
			ids[ref.ID] = uid
		}

		for _, rec := range dm.Records {
			if err := s.updateRecord(ctx, tx, rec, ids); err != nil {
				return err
			}
		}

		if !inline {
			return nil
		}
		for _, e := range dm.InlineView {
			uid, ok := ids[e.ReferenceID]
			if !ok {
				continue
			}
			q := s.db.Rebind("INSERT INTO [" + InlineViewTable + "] ([tablenames], [uid_foreign], [reference_uid]) VALUES (?, ?, ?)")
			if _, err := tx.ExecContext(ctx, q, e.Table, e.UID, uid); err != nil {
				return fmt.Errorf("insert inline view entry for %s:%d: %w", e.Table, e.UID, err)
			}
		}
		return nil
	})
	if err != nil {
		logger.Errorf("Commit failed: %v", err)
		return []string{err.Error()}
	}
	return nil
}

func (s *Store) insertReference(ctx context.Context, tx *sqlx.Tx, fields tree.Tree) (int64, error) {
	q, args, err := insertQuery(attachment.ReferenceTable, fields)
	if err != nil {
		return 0, err
	}
	var uid int64
	if err := tx.QueryRowxContext(ctx, s.db.Rebind(q), args...).Scan(&uid); err != nil {
		return 0, err
	}
	return uid, nil
}

func (s *Store) updateRecord(ctx context.Context, tx *sqlx.Tx, rec record.RecordData, ids map[string]int64) error {
	if len(rec.Fields) == 0 {
		return nil
	}
	fields := make(map[string]any, len(rec.Fields))
	for k, v := range rec.Fields {
		switch x := replaceInTree(v, ids).(type) {
		case map[string]any:
			blob, err := s.codec.Serialize(x, true)
			if err != nil {
				return fmt.Errorf("serialize %s.%s:%d: %w", rec.Table, k, rec.UID, err)
			}
			fields[k] = blob
		default:
			fields[k] = x
		}
	}

	q, args, err := updateQuery(rec.Table, rec.UID, fields)
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, s.db.Rebind(q), args...)
	if err != nil {
		return fmt.Errorf("update %s:%d: %w", rec.Table, rec.UID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update %s:%d: %w", rec.Table, rec.UID, errNoRecord)
	}
	return nil
}
