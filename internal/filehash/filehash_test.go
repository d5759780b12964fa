package filehash

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

type mapOpener map[string]string

func (m mapOpener) Open(_ context.Context, key string) (io.ReadCloser, error) {
	content, ok := m[key]
	if !ok {
		return nil, errors.New("not found")
	}
	return io.NopCloser(strings.NewReader(content)), nil
}

type failingReader struct{ after int }

func (r *failingReader) Read(p []byte) (int, error) {
	if r.after <= 0 {
		return 0, errors.New("disk on fire")
	}
	n := len(p)
	if n > r.after {
		n = r.after
	}
	r.after -= n
	return n, nil
}

func TestSumKnownDigest(t *testing.T) {
	got, err := Sum(strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("sum: %v", err)
	}
	want := "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	if got != want {
		t.Fatalf("Sum(hello)=%s want %s", got, want)
	}
}

func TestSumIsStableAndContentOnly(t *testing.T) {
	payload := bytes.Repeat([]byte("0123456789abcdef"), 1000) // spans several chunks

	first, err := Sum(bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("first sum: %v", err)
	}
	second, err := Sum(bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("second sum: %v", err)
	}
	if first != second {
		t.Fatalf("expected identical digests, got %s and %s", first, second)
	}

	changed := append([]byte{}, payload...)
	changed[len(changed)-1] ^= 0xff
	third, err := Sum(bytes.NewReader(changed))
	if err != nil {
		t.Fatalf("third sum: %v", err)
	}
	if third == first {
		t.Fatal("expected different content to produce a different digest")
	}

	opener := mapOpener{"characters/a.png": string(payload), "characters/b.png": string(payload)}
	a, err := SumKey(context.Background(), opener, "characters/a.png")
	if err != nil {
		t.Fatalf("sum key a: %v", err)
	}
	b, err := SumKey(context.Background(), opener, "characters/b.png")
	if err != nil {
		t.Fatalf("sum key b: %v", err)
	}
	if a != b || a != first {
		t.Fatalf("expected digest to ignore storage key: a=%s b=%s", a, b)
	}
}

func TestSumReportsReadErrors(t *testing.T) {
	if _, err := Sum(&failingReader{after: ChunkSize + 10}); err == nil {
		t.Fatal("expected read error")
	}
	if _, err := SumKey(context.Background(), mapOpener{}, "missing.png"); err == nil {
		t.Fatal("expected open error")
	}
	if _, err := Sum(nil); err == nil {
		t.Fatal("expected nil reader error")
	}
}
