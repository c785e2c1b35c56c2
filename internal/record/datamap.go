package record

// RecordData is one record update.
type RecordData struct {
	Table  string
	UID    int64
	Fields map[string]any
}

// InlineEntry makes a newly created reference visible in the record's inline
// editing view.
type InlineEntry struct {
	Table       string
	UID         int64
	ReferenceID string
}

// DataMap is everything handed to the persistence layer in one transaction.
// Placeholder ids of References may appear in record field values and are
// replaced with the created uids.
type DataMap struct {
	Records    []RecordData
	References []QueuedReference
	InlineView []InlineEntry
}

// Empty reports whether the data map carries nothing to write.
func (d DataMap) Empty() bool {
	return len(d.Records) == 0 && len(d.References) == 0
}

// ChangeMap returns the data map committed before the full payload.
func (it *Item) ChangeMap() DataMap {
	return DataMap{Records: []RecordData{{
		Table:  it.Destination.Table,
		UID:    it.Destination.UID,
		Fields: it.Destination.Change,
	}}}
}

// DataMap returns the full payload: the record data, queued references and
// inline view entries for them.
func (it *Item) DataMap() DataMap {
	d := it.Destination
	dm := DataMap{
		Records:    []RecordData{{Table: d.Table, UID: d.UID, Fields: d.Data}},
		References: d.References,
	}
	for _, ref := range d.References {
		dm.InlineView = append(dm.InlineView, InlineEntry{
			Table:       d.Table,
			UID:         d.UID,
			ReferenceID: ref.ID,
		})
	}
	return dm
}
