package lifecycle

import (
	"context"
	"fmt"
	"strings"
)

// RefCounter counts rows of table whose column equals key, ignoring the row
// with primary key excludePK.
type RefCounter interface {
	CountAttachmentRefs(ctx context.Context, table, column, key string, excludePK int64) (int, error)
}

// ReferenceChecker answers whether a storage key is still used by another row
// of the same record type. Rows of other types are never consulted; keys stay
// unique across types through their type prefix.
type ReferenceChecker struct {
	counter RefCounter
}

// NewReferenceChecker wraps a RefCounter.
func NewReferenceChecker(counter RefCounter) *ReferenceChecker {
	return &ReferenceChecker{counter: counter}
}

// IsReferencedElsewhere reports whether any row of table other than excludePK
// stores key in column. An empty key is never referenced.
func (c *ReferenceChecker) IsReferencedElsewhere(ctx context.Context, table, column, key string, excludePK int64) (bool, error) {
	if strings.TrimSpace(key) == "" {
		return false, nil
	}
	if c == nil || c.counter == nil {
		return false, fmt.Errorf("reference counter is not configured")
	}
	count, err := c.counter.CountAttachmentRefs(ctx, table, column, key, excludePK)
	if err != nil {
		return false, fmt.Errorf("count references to %s in %s.%s: %w", key, table, column, err)
	}
	return count > 0, nil
}
