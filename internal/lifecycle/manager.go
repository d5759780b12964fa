package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"silverrail/internal/blobstore"
	"silverrail/internal/filehash"
)

// Manager owns the shared collaborators of every registered binding.
type Manager struct {
	blobs   blobstore.BlobStore
	refs    *ReferenceChecker
	logger  *slog.Logger
	metrics *Metrics

	mu       sync.Mutex
	bindings map[string]any
}

// NewManager creates a manager. metrics may be nil.
func NewManager(blobs blobstore.BlobStore, counter RefCounter, logger *slog.Logger, metrics *Metrics) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		blobs:    blobs,
		refs:     NewReferenceChecker(counter),
		logger:   logger.With("component", "file_lifecycle"),
		metrics:  metrics,
		bindings: make(map[string]any),
	}
}

// Register installs the save/delete hooks for one record type. Registering
// the same type name again returns the existing binding.
func Register[T any](m *Manager, spec Type[T]) (*Binding[T], error) {
	if m == nil {
		return nil, fmt.Errorf("lifecycle manager is required")
	}
	if err := spec.validate(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.bindings[spec.Name]; ok {
		binding, ok := existing.(*Binding[T])
		if !ok {
			return nil, fmt.Errorf("record type %s already registered with a different record shape", spec.Name)
		}
		return binding, nil
	}

	binding := &Binding[T]{
		manager:        m,
		spec:           spec,
		hashComparison: spec.supportsHashComparison(),
	}
	m.bindings[spec.Name] = binding
	m.logger.Debug("registered record type",
		"record_type", spec.Name,
		"fields", spec.FieldNames(),
		"hash_comparison", binding.hashComparison,
	)
	return binding, nil
}

// RegisteredTypes returns the sorted names of all registered record types.
func (m *Manager) RegisteredTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.bindings))
	for name := range m.bindings {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// hash returns the digest of key, or ok=false when the content is unreadable.
func (m *Manager) hash(ctx context.Context, recordType, field, key string) (string, bool) {
	digest, err := filehash.SumKey(ctx, m.blobs, key)
	if err != nil {
		m.logger.Error("error generating file hash",
			"record_type", recordType, "field", field, "key", key, "error", err)
		m.metrics.observe(recordType, OutcomeHashUnavailable)
		return "", false
	}
	return digest, true
}

// deleteIfUnreferenced removes key from the blob store unless a row of table
// other than excludePK still stores it in column. Failures are logged only.
func (m *Manager) deleteIfUnreferenced(ctx context.Context, recordType, table, column, key string, excludePK int64) Outcome {
	log := m.logger.With("record_type", recordType, "field", column, "key", key, "pk", excludePK)

	referenced, err := m.refs.IsReferencedElsewhere(ctx, table, column, key, excludePK)
	if err != nil {
		log.Error("reference check failed; keeping file", "error", err)
		m.metrics.observe(recordType, OutcomeCheckFailed)
		return OutcomeCheckFailed
	}
	if referenced {
		log.Debug("file still referenced; keeping")
		m.metrics.observe(recordType, OutcomeReferenced)
		return OutcomeReferenced
	}

	exists, err := m.blobs.Exists(ctx, key)
	if err != nil {
		log.Error("error deleting file", "error", err)
		m.metrics.observe(recordType, OutcomeDeleteFailed)
		return OutcomeDeleteFailed
	}
	if !exists {
		log.Warn("file does not exist in storage")
		m.metrics.observe(recordType, OutcomeMissing)
		return OutcomeMissing
	}

	log.Info("deleting unreferenced file")
	if err := m.blobs.Delete(ctx, key); err != nil {
		log.Error("error deleting file", "error", err)
		m.metrics.observe(recordType, OutcomeDeleteFailed)
		return OutcomeDeleteFailed
	}
	m.metrics.observe(recordType, OutcomeDeleted)
	return OutcomeDeleted
}
