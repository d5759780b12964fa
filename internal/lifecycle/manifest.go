// Package lifecycle decides when files attached to catalogue records can be
// removed from the blob store.
//
// Every record type owning attachment fields registers a static manifest once
// at startup. Its services call the returned Binding right before saving or
// deleting a row; the binding deletes old blobs that no surviving row of the
// same type references, skips renames whose content hash is unchanged, and
// stages fresh hash values on the record before it is written.
package lifecycle

import (
	"context"
	"fmt"
	"strings"
)

// HashSuffix names the hash column paired with an attachment column.
const HashSuffix = "_hash"

// Field describes one attachment slot of record type T.
type Field[T any] struct {
	// Name is the attachment column, e.g. "image".
	Name string
	Key  func(*T) string

	// HashOf and SetHash access the "<Name>_hash" column. Both are nil when
	// the type has no hash column for this field.
	HashOf  func(*T) string
	SetHash func(*T, string)
}

// HashName returns the paired hash column name.
func (f Field[T]) HashName() string {
	return f.Name + HashSuffix
}

// HasHash reports whether the field carries a paired hash column.
func (f Field[T]) HasHash() bool {
	return f.HashOf != nil && f.SetHash != nil
}

// Type is the registration manifest of one record type.
type Type[T any] struct {
	// Name identifies the type in logs and metrics, e.g. "character".
	Name string
	// Table is the store table holding rows of this type.
	Table string
	// PK returns the primary key, or 0 for a record that was never saved.
	PK func(*T) int64
	// Load returns the persisted version of a record, or nil when it is gone.
	Load   func(ctx context.Context, pk int64) (*T, error)
	Fields []Field[T]
}

func (t Type[T]) validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("record type name is required")
	}
	if strings.TrimSpace(t.Table) == "" {
		return fmt.Errorf("record type %s: table is required", t.Name)
	}
	if t.PK == nil || t.Load == nil {
		return fmt.Errorf("record type %s: pk and load accessors are required", t.Name)
	}
	if len(t.Fields) == 0 {
		return fmt.Errorf("record type %s: at least one attachment field is required", t.Name)
	}
	seen := make(map[string]struct{}, len(t.Fields))
	for _, f := range t.Fields {
		if strings.TrimSpace(f.Name) == "" || f.Key == nil {
			return fmt.Errorf("record type %s: attachment field needs a name and key accessor", t.Name)
		}
		if (f.HashOf == nil) != (f.SetHash == nil) {
			return fmt.Errorf("record type %s: field %s must define both hash accessors or neither", t.Name, f.Name)
		}
		if _, ok := seen[f.Name]; ok {
			return fmt.Errorf("record type %s: duplicate attachment field %s", t.Name, f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	return nil
}

// supportsHashComparison is true only when every attachment field has a
// paired hash column.
func (t Type[T]) supportsHashComparison() bool {
	for _, f := range t.Fields {
		if !f.HasHash() {
			return false
		}
	}
	return true
}

// FieldNames lists the attachment column names in manifest order.
func (t Type[T]) FieldNames() []string {
	names := make([]string, 0, len(t.Fields))
	for _, f := range t.Fields {
		names = append(names, f.Name)
	}
	return names
}
