package store

import (
	"path/filepath"
	"testing"
	"time"
)

func TestPoolSettingsFromEnv(t *testing.T) {
	intCases := []struct {
		raw  string
		want int
	}{
		{raw: "", want: 3},
		{raw: "4", want: 4},
		{raw: " 6 ", want: 6},
		{raw: "bad", want: 3},
		{raw: "0", want: 3},
		{raw: "-2", want: 3},
	}
	for _, tc := range intCases {
		t.Setenv(maxIdleConnsEnvKey, tc.raw)
		if got := intFromEnv(maxIdleConnsEnvKey, 3); got != tc.want {
			t.Fatalf("intFromEnv(%q)=%d want %d", tc.raw, got, tc.want)
		}
	}

	durationCases := []struct {
		raw  string
		want time.Duration
	}{
		{raw: "", want: time.Minute},
		{raw: "45s", want: 45 * time.Second},
		{raw: "30", want: 30 * time.Second},
		{raw: "0", want: time.Minute},
		{raw: "soon", want: time.Minute},
	}
	for _, tc := range durationCases {
		t.Setenv(connMaxLifetimeEnvKey, tc.raw)
		if got := durationFromEnv(connMaxLifetimeEnvKey, time.Minute); got != tc.want {
			t.Fatalf("durationFromEnv(%q)=%v want %v", tc.raw, got, tc.want)
		}
	}
}

func TestOpenAppliesMaxOpenConnsOverride(t *testing.T) {
	t.Setenv(maxOpenConnsEnvKey, "2")
	st, err := Open(filepath.Join(t.TempDir(), "pool.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()

	if got := st.db.Stats().MaxOpenConnections; got != 2 {
		t.Fatalf("expected max open conns 2, got %d", got)
	}
}
