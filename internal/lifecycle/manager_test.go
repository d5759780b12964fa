package lifecycle

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"silverrail/internal/blobstore"
	"silverrail/internal/filehash"
)

type memBlobs struct {
	mu         sync.Mutex
	data       map[string][]byte
	failDelete map[string]bool
	failOpen   map[string]bool
	deletes    []string
}

func newMemBlobs() *memBlobs {
	return &memBlobs{data: map[string][]byte{}, failDelete: map[string]bool{}, failOpen: map[string]bool{}}
}

func (b *memBlobs) Put(_ context.Context, key string, r io.Reader) (blobstore.PutResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return blobstore.PutResult{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data[key] = data
	sum, _ := filehash.Sum(bytes.NewReader(data))
	return blobstore.PutResult{Key: key, SHA256: sum, SizeBytes: int64(len(data))}, nil
}

func (b *memBlobs) Open(_ context.Context, key string) (io.ReadCloser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failOpen[key] {
		return nil, errors.New("disk unreadable")
	}
	data, ok := b.data[key]
	if !ok {
		return nil, errors.New("not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (b *memBlobs) Exists(_ context.Context, key string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.data[key]
	return ok, nil
}

func (b *memBlobs) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deletes = append(b.deletes, key)
	if b.failDelete[key] {
		return errors.New("i/o error")
	}
	delete(b.data, key)
	return nil
}

func (b *memBlobs) URL(key string) string { return "/media/" + key }

func (b *memBlobs) has(key string) bool {
	ok, _ := b.Exists(context.Background(), key)
	return ok
}

type portrait struct {
	ID        int64
	Image     string
	ImageHash string
}

type badge struct {
	ID       int64
	Icon     string
	IconHash string
	Banner   string
}

// memRows is a tiny record store for two record types.
type memRows struct {
	mu        sync.Mutex
	portraits map[int64]portrait
	badges    map[int64]badge
	nextID    int64
	countErr  error
	loadErr   error
}

func newMemRows() *memRows {
	return &memRows{portraits: map[int64]portrait{}, badges: map[int64]badge{}}
}

func (r *memRows) CountAttachmentRefs(_ context.Context, table, column, key string, excludePK int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.countErr != nil {
		return 0, r.countErr
	}
	n := 0
	switch table {
	case "portraits":
		for id, p := range r.portraits {
			if id != excludePK && column == "image" && p.Image == key {
				n++
			}
		}
	case "badges":
		for id, b := range r.badges {
			if id == excludePK {
				continue
			}
			if (column == "icon" && b.Icon == key) || (column == "banner" && b.Banner == key) {
				n++
			}
		}
	}
	return n, nil
}

func (r *memRows) loadPortrait(_ context.Context, pk int64) (*portrait, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	p, ok := r.portraits[pk]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *memRows) loadBadge(_ context.Context, pk int64) (*badge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.badges[pk]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func portraitType(rows *memRows) Type[portrait] {
	return Type[portrait]{
		Name:  "portrait",
		Table: "portraits",
		PK:    func(p *portrait) int64 { return p.ID },
		Load:  rows.loadPortrait,
		Fields: []Field[portrait]{{
			Name:    "image",
			Key:     func(p *portrait) string { return p.Image },
			HashOf:  func(p *portrait) string { return p.ImageHash },
			SetHash: func(p *portrait, h string) { p.ImageHash = h },
		}},
	}
}

func badgeType(rows *memRows) Type[badge] {
	return Type[badge]{
		Name:  "badge",
		Table: "badges",
		PK:    func(b *badge) int64 { return b.ID },
		Load:  rows.loadBadge,
		Fields: []Field[badge]{
			{
				Name:    "icon",
				Key:     func(b *badge) string { return b.Icon },
				HashOf:  func(b *badge) string { return b.IconHash },
				SetHash: func(b *badge, h string) { b.IconHash = h },
			},
			{Name: "banner", Key: func(b *badge) string { return b.Banner }},
		},
	}
}

type harness struct {
	blobs     *memBlobs
	rows      *memRows
	logs      *bytes.Buffer
	metrics   *Metrics
	portraits *Binding[portrait]
	badges    *Binding[badge]
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{blobs: newMemBlobs(), rows: newMemRows(), logs: &bytes.Buffer{}}
	logger := slog.New(slog.NewTextHandler(h.logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	h.metrics = NewMetrics(prometheus.NewRegistry())
	m := NewManager(h.blobs, h.rows, logger, h.metrics)

	var err error
	h.portraits, err = Register(m, portraitType(h.rows))
	if err != nil {
		t.Fatalf("register portrait: %v", err)
	}
	h.badges, err = Register(m, badgeType(h.rows))
	if err != nil {
		t.Fatalf("register badge: %v", err)
	}
	return h
}

func (h *harness) put(t *testing.T, key, content string) {
	t.Helper()
	if _, err := h.blobs.Put(context.Background(), key, strings.NewReader(content)); err != nil {
		t.Fatalf("put %s: %v", key, err)
	}
}

func (h *harness) savePortrait(p portrait) portrait {
	ctx := context.Background()
	h.portraits.BeforeSave(ctx, &p)
	h.rows.mu.Lock()
	defer h.rows.mu.Unlock()
	if p.ID == 0 {
		h.rows.nextID++
		p.ID = h.rows.nextID
	}
	h.rows.portraits[p.ID] = p
	return p
}

func (h *harness) deletePortrait(p portrait) {
	h.portraits.BeforeDelete(context.Background(), &p)
	h.rows.mu.Lock()
	defer h.rows.mu.Unlock()
	delete(h.rows.portraits, p.ID)
}

func (h *harness) saveBadge(b badge) badge {
	h.badges.BeforeSave(context.Background(), &b)
	h.rows.mu.Lock()
	defer h.rows.mu.Unlock()
	if b.ID == 0 {
		h.rows.nextID++
		b.ID = h.rows.nextID
	}
	h.rows.badges[b.ID] = b
	return b
}

func (h *harness) decisions(recordType string, outcome Outcome) float64 {
	return testutil.ToFloat64(h.metrics.Decisions().WithLabelValues(recordType, string(outcome)))
}

func TestSharedKeySurvivesUntilLastReferenceDeleted(t *testing.T) {
	h := newHarness(t)
	h.put(t, "portraits/a.jpg", "pixels")

	x := h.savePortrait(portrait{Image: "portraits/a.jpg"})
	y := h.savePortrait(portrait{Image: "portraits/a.jpg"})

	h.deletePortrait(x)
	if !h.blobs.has("portraits/a.jpg") {
		t.Fatal("expected shared file to survive while another record references it")
	}
	if got := h.decisions("portrait", OutcomeReferenced); got != 1 {
		t.Fatalf("expected 1 kept_referenced decision, got %v", got)
	}

	h.deletePortrait(y)
	if h.blobs.has("portraits/a.jpg") {
		t.Fatal("expected file to be deleted with its last reference")
	}
	if got := h.decisions("portrait", OutcomeDeleted); got != 1 {
		t.Fatalf("expected 1 deleted decision, got %v", got)
	}
}

func TestRenameWithSameContentPreservesOldFile(t *testing.T) {
	h := newHarness(t)
	h.put(t, "portraits/v1.jpg", "same bytes")
	h.put(t, "portraits/v2.jpg", "same bytes")
	want, _ := filehash.Sum(strings.NewReader("same bytes"))

	x := h.savePortrait(portrait{Image: "portraits/v1.jpg"})
	if x.ImageHash != want {
		t.Fatalf("expected hash staged on create, got %q", x.ImageHash)
	}

	x.Image = "portraits/v2.jpg"
	x = h.savePortrait(x)

	if !h.blobs.has("portraits/v1.jpg") {
		t.Fatal("expected old file preserved on content-identical rename")
	}
	if x.ImageHash != want {
		t.Fatalf("expected hash %s after rename, got %s", want, x.ImageHash)
	}
	if got := h.decisions("portrait", OutcomePreserved); got != 1 {
		t.Fatalf("expected 1 preserved decision, got %v", got)
	}
	if !strings.Contains(h.logs.String(), "preserving old file") {
		t.Fatalf("expected preservation log, got %s", h.logs.String())
	}
}

func TestChangedContentDeletesOldFile(t *testing.T) {
	h := newHarness(t)
	h.put(t, "portraits/v1.jpg", "first")
	h.put(t, "portraits/v2.jpg", "second")

	x := h.savePortrait(portrait{Image: "portraits/v1.jpg"})
	x.Image = "portraits/v2.jpg"
	x = h.savePortrait(x)

	if h.blobs.has("portraits/v1.jpg") {
		t.Fatal("expected replaced file to be deleted")
	}
	want, _ := filehash.Sum(strings.NewReader("second"))
	if x.ImageHash != want {
		t.Fatalf("expected new hash staged, got %q", x.ImageHash)
	}
}

func TestPartialHashSupportDisablesComparison(t *testing.T) {
	h := newHarness(t)
	if !h.portraits.SupportsHashComparison() {
		t.Fatal("expected portrait to support hash comparison")
	}
	if h.badges.SupportsHashComparison() {
		t.Fatal("expected badge with an unhashed field to disable hash comparison")
	}

	h.put(t, "badges/img.png", "same")
	h.put(t, "badges/img2.png", "same")

	x := h.saveBadge(badge{Icon: "badges/img.png"})
	if x.IconHash != "" {
		t.Fatalf("expected no hash staged without comparison support, got %q", x.IconHash)
	}
	x.Icon = "badges/img2.png"
	h.saveBadge(x)

	if h.blobs.has("badges/img.png") {
		t.Fatal("expected old icon deleted when hash comparison is unsupported")
	}
}

func TestClearingAttachmentDeletesFile(t *testing.T) {
	h := newHarness(t)
	h.put(t, "badges/banner.png", "flag")
	x := h.saveBadge(badge{Banner: "badges/banner.png"})

	x.Banner = ""
	h.saveBadge(x)
	if h.blobs.has("badges/banner.png") {
		t.Fatal("expected cleared attachment to be deleted")
	}
}

func TestUnchangedKeyTakesNoAction(t *testing.T) {
	h := newHarness(t)
	h.put(t, "portraits/a.jpg", "pixels")
	x := h.savePortrait(portrait{Image: "portraits/a.jpg"})
	h.savePortrait(x)
	if len(h.blobs.deletes) != 0 {
		t.Fatalf("expected no deletes, got %v", h.blobs.deletes)
	}
}

func TestDeleteFailureDoesNotBlockRecordDelete(t *testing.T) {
	h := newHarness(t)
	h.put(t, "portraits/broken.jpg", "bytes")
	h.blobs.failDelete["portraits/broken.jpg"] = true

	x := h.savePortrait(portrait{Image: "portraits/broken.jpg"})
	h.deletePortrait(x)

	if _, ok := h.rows.portraits[x.ID]; ok {
		t.Fatal("expected record deleted despite blob delete failure")
	}
	if !strings.Contains(h.logs.String(), "level=ERROR") || !strings.Contains(h.logs.String(), "error deleting file") {
		t.Fatalf("expected error log, got %s", h.logs.String())
	}
	if got := h.decisions("portrait", OutcomeDeleteFailed); got != 1 {
		t.Fatalf("expected 1 delete_failed decision, got %v", got)
	}
}

func TestMissingBlobLogsWarning(t *testing.T) {
	h := newHarness(t)
	x := h.savePortrait(portrait{Image: "portraits/ghost.jpg"})
	h.deletePortrait(x)
	h.deletePortrait(x)

	if !strings.Contains(h.logs.String(), "file does not exist in storage") {
		t.Fatalf("expected missing file warning, got %s", h.logs.String())
	}
	if got := h.decisions("portrait", OutcomeMissing); got != 2 {
		t.Fatalf("expected 2 missing decisions, got %v", got)
	}
}

func TestHashUnavailableFallsBackToReferenceCheck(t *testing.T) {
	h := newHarness(t)
	h.put(t, "portraits/v1.jpg", "same")
	h.put(t, "portraits/v2.jpg", "same")

	x := h.savePortrait(portrait{Image: "portraits/v1.jpg"})
	h.blobs.failOpen["portraits/v2.jpg"] = true
	x.Image = "portraits/v2.jpg"
	x = h.savePortrait(x)

	if h.blobs.has("portraits/v1.jpg") {
		t.Fatal("expected unreadable new content to be treated as changed")
	}
	if x.ImageHash != "" {
		t.Fatalf("expected empty hash when content is unreadable, got %q", x.ImageHash)
	}
	if got := h.decisions("portrait", OutcomeHashUnavailable); got < 1 {
		t.Fatalf("expected hash_unavailable decision, got %v", got)
	}
}

func TestVanishedRecordSkipsReconcile(t *testing.T) {
	h := newHarness(t)
	h.put(t, "portraits/a.jpg", "a")
	h.put(t, "portraits/b.jpg", "b")

	x := h.savePortrait(portrait{Image: "portraits/a.jpg"})
	delete(h.rows.portraits, x.ID)

	x.Image = "portraits/b.jpg"
	x.ImageHash = "stale"
	h.portraits.BeforeSave(context.Background(), &x)

	if !h.blobs.has("portraits/a.jpg") {
		t.Fatal("expected no cleanup when stored record vanished")
	}
	if x.ImageHash != "stale" {
		t.Fatalf("expected hash untouched, got %q", x.ImageHash)
	}
}

func TestReferenceCheckFailureKeepsFile(t *testing.T) {
	h := newHarness(t)
	h.put(t, "portraits/a.jpg", "a")
	x := h.savePortrait(portrait{Image: "portraits/a.jpg"})

	h.rows.countErr = errors.New("database is locked")
	h.deletePortrait(x)

	if !h.blobs.has("portraits/a.jpg") {
		t.Fatal("expected file kept when reference check fails")
	}
	if got := h.decisions("portrait", OutcomeCheckFailed); got != 1 {
		t.Fatalf("expected 1 check_failed decision, got %v", got)
	}
}

func TestLoadFailureSkipsCleanup(t *testing.T) {
	h := newHarness(t)
	h.put(t, "portraits/a.jpg", "a")
	x := h.savePortrait(portrait{Image: "portraits/a.jpg"})

	h.rows.loadErr = errors.New("connection reset")
	x.Image = ""
	h.portraits.BeforeSave(context.Background(), &x)
	if !h.blobs.has("portraits/a.jpg") {
		t.Fatal("expected file kept when stored record cannot be loaded")
	}
}

func TestReleaseUnsaved(t *testing.T) {
	h := newHarness(t)
	h.put(t, "portraits/a.jpg", "a")
	h.put(t, "portraits/b.jpg", "b")
	h.savePortrait(portrait{Image: "portraits/a.jpg"})

	h.portraits.ReleaseUnsaved(context.Background(), "image", "portraits/a.jpg")
	h.portraits.ReleaseUnsaved(context.Background(), "image", "portraits/b.jpg")

	if !h.blobs.has("portraits/a.jpg") {
		t.Fatal("expected stored reference to protect file")
	}
	if h.blobs.has("portraits/b.jpg") {
		t.Fatal("expected orphan upload to be released")
	}
}

func TestRefreshHashes(t *testing.T) {
	h := newHarness(t)
	h.put(t, "portraits/a.jpg", "a")
	p := portrait{ID: 1, Image: "portraits/a.jpg"}

	if !h.portraits.RefreshHashes(context.Background(), &p) {
		t.Fatal("expected refresh to report a change")
	}
	if h.portraits.RefreshHashes(context.Background(), &p) {
		t.Fatal("expected second refresh to be a no-op")
	}
	b := badge{ID: 2, Icon: "badges/a.png"}
	if h.badges.RefreshHashes(context.Background(), &b) {
		t.Fatal("expected refresh to skip types without hash comparison")
	}
	if got := h.portraits.HashFields(&p)["image_hash"]; got != p.ImageHash {
		t.Fatalf("unexpected hash fields: %v", h.portraits.HashFields(&p))
	}
	if got := h.portraits.HashedKeys(&p); len(got) != 1 || got["image"] != "portraits/a.jpg" {
		t.Fatalf("unexpected hashed keys: %v", got)
	}
}

func TestRegisterIsIdempotentPerType(t *testing.T) {
	rows := newMemRows()
	m := NewManager(newMemBlobs(), rows, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)

	first, err := Register(m, portraitType(rows))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	second, err := Register(m, portraitType(rows))
	if err != nil {
		t.Fatalf("register again: %v", err)
	}
	if first != second {
		t.Fatal("expected the same binding for repeated registration")
	}

	clash := badgeType(rows)
	clash.Name = "portrait"
	if _, err := Register(m, clash); err == nil {
		t.Fatal("expected error registering a name with a different record shape")
	}
	if len(m.RegisteredTypes()) != 1 {
		t.Fatalf("expected one registered type, got %v", m.RegisteredTypes())
	}
}

func TestRegisterValidatesManifest(t *testing.T) {
	rows := newMemRows()
	m := NewManager(newMemBlobs(), rows, nil, nil)

	tests := []struct {
		name   string
		mutate func(*Type[portrait])
	}{
		{name: "no name", mutate: func(tp *Type[portrait]) { tp.Name = "" }},
		{name: "no table", mutate: func(tp *Type[portrait]) { tp.Table = " " }},
		{name: "no loader", mutate: func(tp *Type[portrait]) { tp.Load = nil }},
		{name: "no fields", mutate: func(tp *Type[portrait]) { tp.Fields = nil }},
		{name: "half hash", mutate: func(tp *Type[portrait]) { tp.Fields[0].SetHash = nil }},
		{name: "duplicate field", mutate: func(tp *Type[portrait]) { tp.Fields = append(tp.Fields, tp.Fields[0]) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tp := portraitType(rows)
			tt.mutate(&tp)
			if _, err := Register(m, tp); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
