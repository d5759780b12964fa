package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

// CountAttachmentRefs counts rows of table whose column holds key, ignoring
// the row excludePK. excludePK 0 counts every row.
func (s *Store) CountAttachmentRefs(ctx context.Context, table, column, key string, excludePK int64) (int, error) {
	if err := checkColumn(attachmentColumns, table, column); err != nil {
		return 0, err
	}
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = ? AND id <> ?", table, column)
	var count int
	if err := s.db.QueryRowContext(ctx, query, key, excludePK).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// UpdateAttachmentHashes writes hash column values of one row without
// touching any other column. keys maps attachment columns to the key each
// digest was computed from; the write only lands while the row still holds
// those keys. It reports whether the row was updated.
func (s *Store) UpdateAttachmentHashes(ctx context.Context, table string, id int64, hashes, keys map[string]string) (bool, error) {
	if len(hashes) == 0 {
		return false, nil
	}
	hashNames, err := sortedColumns(hashColumns, table, hashes)
	if err != nil {
		return false, err
	}
	keyNames, err := sortedColumns(attachmentColumns, table, keys)
	if err != nil {
		return false, err
	}

	set := make([]string, 0, len(hashNames)+1)
	args := make([]any, 0, len(hashNames)+len(keyNames)+2)
	for _, column := range hashNames {
		set = append(set, column+" = ?")
		args = append(args, hashes[column])
	}
	set = append(set, "updated_at = ?")
	args = append(args, formatTime(time.Now()), id)

	where := []string{"id = ?"}
	for _, column := range keyNames {
		where = append(where, column+" = ?")
		args = append(args, keys[column])
	}

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s", table, strings.Join(set, ", "), strings.Join(where, " AND "))
	return s.execAffecting(ctx, query, args...)
}

func sortedColumns(allowed map[string][]string, table string, values map[string]string) ([]string, error) {
	names := make([]string, 0, len(values))
	for column := range values {
		if err := checkColumn(allowed, table, column); err != nil {
			return nil, err
		}
		names = append(names, column)
	}
	sort.Strings(names)
	return names, nil
}
