package store

import "fmt"

// attachmentColumns lists, per table, the columns holding blob keys. Reference
// counts and hash updates are only ever built from these names.
var attachmentColumns = map[string][]string{
	"characters": {"image"},
	"abilities":  {"icon"},
	"lightcones": {"image"},
	"relics":     {"icon", "set_icon"},
}

// hashColumns lists, per table, the columns holding attachment digests.
var hashColumns = map[string][]string{
	"characters": {"image_hash"},
	"abilities":  {"icon_hash"},
	"lightcones": {"image_hash"},
	"relics":     {"icon_hash"},
}

func checkColumn(allowed map[string][]string, table, column string) error {
	columns, ok := allowed[table]
	if !ok {
		return fmt.Errorf("unknown attachment table: %s", table)
	}
	for _, c := range columns {
		if c == column {
			return nil
		}
	}
	return fmt.Errorf("unknown column %s.%s", table, column)
}
