package sqlstore

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/BartekS5/contentmigrate/internal/attachment"
	"github.com/BartekS5/contentmigrate/internal/tree"
	"github.com/BartekS5/contentmigrate/pkg/utils"
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// quoteIdent brackets a table or column name. Names come from definition
// files, so anything but plain identifiers is rejected.
func quoteIdent(name string) (string, error) {
	if !identPattern.MatchString(name) {
		return "", fmt.Errorf("invalid identifier %q", name)
	}
	return "[" + name + "]", nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// selectQuery builds an equality filtered SELECT with ? bind vars.
func selectQuery(table string, filter map[string]any, orderBy string) (string, []any, error) {
	t, err := quoteIdent(table)
	if err != nil {
		return "", nil, err
	}
	var b strings.Builder
	b.WriteString("SELECT * FROM " + t)

	args := make([]any, 0, len(filter))
	for i, k := range sortedKeys(filter) {
		col, err := quoteIdent(k)
		if err != nil {
			return "", nil, err
		}
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		b.WriteString(col + " = ?")
		args = append(args, filter[k])
	}

	if orderBy != "" {
		col, err := quoteIdent(orderBy)
		if err != nil {
			return "", nil, err
		}
		b.WriteString(" ORDER BY " + col + " ASC")
	}
	return b.String(), args, nil
}

// insertQuery builds an INSERT returning the created uid.
func insertQuery(table string, fields map[string]any) (string, []any, error) {
	t, err := quoteIdent(table)
	if err != nil {
		return "", nil, err
	}
	keys := sortedKeys(fields)
	cols := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))
	for _, k := range keys {
		col, err := quoteIdent(k)
		if err != nil {
			return "", nil, err
		}
		cols = append(cols, col)
		args = append(args, fields[k])
	}
	q := fmt.Sprintf("INSERT INTO %s (%s) OUTPUT INSERTED.[uid] VALUES (%s)",
		t, strings.Join(cols, ", "), strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", "))
	return q, args, nil
}

// updateQuery builds an UPDATE of one record by uid.
func updateQuery(table string, uid int64, fields map[string]any) (string, []any, error) {
	t, err := quoteIdent(table)
	if err != nil {
		return "", nil, err
	}
	keys := sortedKeys(fields)
	sets := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys)+1)
	for _, k := range keys {
		col, err := quoteIdent(k)
		if err != nil {
			return "", nil, err
		}
		sets = append(sets, col+" = ?")
		args = append(args, fields[k])
	}
	args = append(args, uid)
	return fmt.Sprintf("UPDATE %s SET %s WHERE [uid] = ?", t, strings.Join(sets, ", ")), args, nil
}

// replaceIDs swaps placeholder ids in a comma separated list for the uids
// they were created with. Unknown entries are kept.
func replaceIDs(list string, ids map[string]int64) string {
	if !strings.Contains(list, "NEW") {
		return list
	}
	parts := strings.Split(list, ",")
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if !attachment.IsPlaceholder(p) {
			continue
		}
		if uid, ok := ids[p]; ok {
			parts[i] = utils.ToString(uid)
		}
	}
	return strings.Join(parts, ",")
}

// replaceInTree applies replaceIDs to every string leaf of t.
func replaceInTree(v any, ids map[string]int64) any {
	switch x := v.(type) {
	case string:
		return replaceIDs(x, ids)
	case map[string]any:
		out := make(tree.Tree, len(x))
		for k, child := range x {
			out[k] = replaceInTree(child, ids)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, child := range x {
			out[i] = replaceInTree(child, ids)
		}
		return out
	}
	return v
}
