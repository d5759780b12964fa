package lifecycle

import (
	"context"
	"strings"
)

// Binding carries the save and delete hooks of one registered record type.
// Hooks never return errors: janitor failures are logged and counted, and the
// surrounding write always proceeds.
type Binding[T any] struct {
	manager        *Manager
	spec           Type[T]
	hashComparison bool
}

// Name returns the registered record type name.
func (b *Binding[T]) Name() string { return b.spec.Name }

// Table returns the store table of the record type.
func (b *Binding[T]) Table() string { return b.spec.Table }

// PK returns the primary key of rec.
func (b *Binding[T]) PK(rec *T) int64 { return b.spec.PK(rec) }

// SupportsHashComparison reports whether every attachment field of the type
// has a paired hash column.
func (b *Binding[T]) SupportsHashComparison() bool { return b.hashComparison }

// BeforeSave runs right before rec is inserted or updated. It deletes old
// blobs the update orphans and stages fresh hash values on rec.
func (b *Binding[T]) BeforeSave(ctx context.Context, rec *T) {
	if rec == nil {
		return
	}
	pk := b.spec.PK(rec)
	if pk == 0 {
		b.stageHashes(ctx, rec, nil)
		return
	}

	m := b.manager
	old, err := b.spec.Load(ctx, pk)
	if err != nil {
		m.logger.Error("error loading stored record; skipping file cleanup",
			"record_type", b.spec.Name, "pk", pk, "error", err)
		return
	}
	if old == nil {
		// Deleted concurrently; nothing to reconcile against.
		return
	}

	digests := make(map[string]string)
	for _, f := range b.spec.Fields {
		oldKey := strings.TrimSpace(f.Key(old))
		newKey := strings.TrimSpace(f.Key(rec))
		if oldKey == "" || oldKey == newKey {
			continue
		}

		if b.hashComparison && newKey != "" {
			newHash, ok := b.digest(ctx, f.Name, newKey, digests)
			oldHash := f.HashOf(old)
			if ok && oldHash != "" && newHash == oldHash {
				m.logger.Info("file content unchanged; preserving old file",
					"record_type", b.spec.Name, "field", f.Name, "key", oldKey, "new_key", newKey, "pk", pk)
				m.metrics.observe(b.spec.Name, OutcomePreserved)
				continue
			}
		}

		m.deleteIfUnreferenced(ctx, b.spec.Name, b.spec.Table, f.Name, oldKey, pk)
	}

	b.stageHashes(ctx, rec, digests)
}

// BeforeDelete runs right before rec is removed. Blobs no other row of the
// type references are deleted.
func (b *Binding[T]) BeforeDelete(ctx context.Context, rec *T) {
	if rec == nil {
		return
	}
	pk := b.spec.PK(rec)
	for _, f := range b.spec.Fields {
		key := strings.TrimSpace(f.Key(rec))
		if key == "" {
			continue
		}
		b.manager.deleteIfUnreferenced(ctx, b.spec.Name, b.spec.Table, f.Name, key, pk)
	}
}

// ReleaseUnsaved deletes a freshly uploaded blob whose record write failed,
// unless some stored row of the type already uses the key.
func (b *Binding[T]) ReleaseUnsaved(ctx context.Context, field, key string) {
	key = strings.TrimSpace(key)
	if key == "" {
		return
	}
	b.manager.deleteIfUnreferenced(ctx, b.spec.Name, b.spec.Table, field, key, 0)
}

// RefreshHashes recomputes every hash column of rec from current blob content
// and reports whether any value changed. Types without hash comparison are
// left untouched.
func (b *Binding[T]) RefreshHashes(ctx context.Context, rec *T) bool {
	if rec == nil || !b.hashComparison {
		return false
	}
	before := make([]string, len(b.spec.Fields))
	for i, f := range b.spec.Fields {
		before[i] = f.HashOf(rec)
	}
	b.stageHashes(ctx, rec, nil)
	for i, f := range b.spec.Fields {
		if f.HashOf(rec) != before[i] {
			return true
		}
	}
	return false
}

// HashFields returns the hash column values of rec keyed by column name.
func (b *Binding[T]) HashFields(rec *T) map[string]string {
	out := make(map[string]string)
	if rec == nil {
		return out
	}
	for _, f := range b.spec.Fields {
		if f.HasHash() {
			out[f.HashName()] = f.HashOf(rec)
		}
	}
	return out
}

// HashedKeys returns, keyed by attachment column, the keys that the hash
// columns of rec were computed from.
func (b *Binding[T]) HashedKeys(rec *T) map[string]string {
	out := make(map[string]string)
	if rec == nil {
		return out
	}
	for _, f := range b.spec.Fields {
		if f.HasHash() {
			out[f.Name] = strings.TrimSpace(f.Key(rec))
		}
	}
	return out
}

// stageHashes writes the digest of every populated attachment into its hash
// column. Empty attachments and unreadable blobs stage an empty hash.
func (b *Binding[T]) stageHashes(ctx context.Context, rec *T, cache map[string]string) {
	if !b.hashComparison {
		return
	}
	if cache == nil {
		cache = make(map[string]string)
	}
	for _, f := range b.spec.Fields {
		key := strings.TrimSpace(f.Key(rec))
		if key == "" {
			f.SetHash(rec, "")
			continue
		}
		digest, _ := b.digest(ctx, f.Name, key, cache)
		f.SetHash(rec, digest)
	}
}

func (b *Binding[T]) digest(ctx context.Context, field, key string, cache map[string]string) (string, bool) {
	if d, ok := cache[key]; ok {
		return d, d != ""
	}
	d, ok := b.manager.hash(ctx, b.spec.Name, field, key)
	cache[key] = d
	return d, ok
}
