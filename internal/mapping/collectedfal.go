package mapping

import (
	"context"
	"fmt"
	"strings"

	"github.com/BartekS5/contentmigrate/internal/attachment"
	"github.com/BartekS5/contentmigrate/internal/record"
	"github.com/BartekS5/contentmigrate/internal/tree"
	"github.com/BartekS5/contentmigrate/pkg/models"
	"github.com/BartekS5/contentmigrate/pkg/utils"
)

type collectedFalRule struct{}

func (collectedFalRule) Name() string { return "CollectedFalToFal" }

// Process creates one new destination reference per collected source item,
// in source order, pointing at the same stored file.
func (r collectedFalRule) Process(ctx context.Context, env Env, d models.Descriptor, src SourceView, dst *DestinationView, it *record.Item) error {
	a, ok := resolve(env, r.Name(), d, src)
	if !ok {
		return nil
	}
	if a.dstSpace != SpaceRow && a.dstSpace != SpaceFlex {
		return nil
	}

	items := collected(a.value)
	if len(items) == 0 {
		return nil
	}

	dstTable := d.DstTable
	if dstTable == "" {
		dstTable = models.DefaultTable
	}
	field := destinationField(a.dstSpace, a.dstPath)

	for i, raw := range items {
		item, ok := raw.(attachment.Item)
		if !ok || item.OriginalFile() == nil {
			env.diag(fmt.Sprintf("[E] %s Mapping Source item %d is not a file or file reference", r.Name(), i))
			continue
		}
		file := item.OriginalFile()
		ref, isRef := item.(*attachment.Reference)

		meta := tree.Tree{}
		for _, name := range attachment.MetadataFields {
			if isRef {
				meta[name] = ref.Property(name)
			} else {
				meta[name] = ""
			}
		}
		if env.hasColumn(ctx, attachment.ReferenceTable, attachment.VisibilityField) {
			if isRef {
				meta[attachment.VisibilityField] = ref.Property(attachment.VisibilityField)
			} else {
				meta[attachment.VisibilityField] = file.Property(attachment.VisibilityField)
			}
		}
		if i < len(d.Overrides) {
			for k, v := range d.Overrides[i] {
				if env.hasColumn(ctx, attachment.ReferenceTable, k) {
					meta[k] = v
				}
			}
		}

		meta["table_local"] = attachment.FileTable
		meta["uid_local"] = file.UID
		meta["tablenames"] = dstTable
		meta["uid_foreign"] = it.SrcUID
		meta["fieldname"] = field
		meta["pid"] = it.SrcPID

		id := it.Destination.QueueReference(meta)

		switch a.dstSpace {
		case SpaceRow:
			current, _ := dst.Lookup(SpaceRow, field)
			dst.Set(SpaceRow, field, appendID(current, id))
			if dstTable != models.DefaultTable {
				if _, has := dst.Lookup(SpaceRow, "pid"); !has {
					dst.Set(SpaceRow, "pid", it.SrcPID)
				}
			}
		case SpaceFlex:
			current, _ := dst.Lookup(SpaceFlex, a.dstPath)
			dst.Set(SpaceFlex, a.dstPath, appendID(current, id))
		}
	}
	return nil
}

// destinationField derives the reference field name from the destination
// path. Flexform paths end in a value segment (vDEF) that is dropped first;
// dotted field names keep their last part.
func destinationField(space Space, path string) string {
	base := path
	if space == SpaceFlex {
		var ok bool
		if base, ok = tree.RemoveLastSegment(path, tree.Delimiter); !ok {
			return ""
		}
	}
	last, _ := tree.LastSegment(base, tree.Delimiter)
	name, _ := tree.LastSegment(last, ".")
	return name
}

func collected(v any) []any {
	switch list := v.(type) {
	case []any:
		return list
	case []attachment.Item:
		out := make([]any, len(list))
		for i := range list {
			out[i] = list[i]
		}
		return out
	}
	return nil
}

func appendID(current any, id string) string {
	return strings.Trim(utils.ToString(current)+","+id, ",")
}
