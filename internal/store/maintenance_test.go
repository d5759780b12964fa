package store

import (
	"context"
	"testing"
	"time"

	"silverrail/internal/models"
)

func TestStoreInfo(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	info, err := st.StoreInfo(ctx)
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	if info.SchemaVersion == 0 {
		t.Fatal("expected non-zero schema version")
	}
	if info.Counts["characters"] != 0 {
		t.Fatalf("expected 0 characters, got %d", info.Counts["characters"])
	}

	mustCharacter(t, st, "Kafka", "")
	mustCharacter(t, st, "Blade", "")
	mustRelic(t, st, "Hat", "head")

	info, err = st.StoreInfo(ctx)
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	if info.Counts["characters"] != 2 {
		t.Fatalf("expected 2 characters, got %d", info.Counts["characters"])
	}
	if info.Counts["relics"] != 1 {
		t.Fatalf("expected 1 relic, got %d", info.Counts["relics"])
	}
	if info.Counts["stats"] != 54 {
		t.Fatalf("expected 54 default stats, got %d", info.Counts["stats"])
	}
}

func TestCleanupSessions(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	user, err := st.CreateUser(ctx, "stelle", "", "hash", models.RoleUser, now)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := st.CreateSession(ctx, user.ID, "expired", now.Add(-time.Hour), now.Add(-2*time.Hour)); err != nil {
		t.Fatalf("create expired: %v", err)
	}
	if err := st.CreateSession(ctx, user.ID, "revoked", now.Add(time.Hour), now.Add(-time.Hour)); err != nil {
		t.Fatalf("create revoked: %v", err)
	}
	if err := st.RevokeSessionByTokenHash(ctx, "revoked", now.Add(-time.Minute)); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if err := st.CreateSession(ctx, user.ID, "live", now.Add(time.Hour), now); err != nil {
		t.Fatalf("create live: %v", err)
	}

	t.Run("dry run", func(t *testing.T) {
		result, err := st.CleanupSessions(ctx, now, true)
		if err != nil {
			t.Fatalf("cleanup dry run: %v", err)
		}
		if result.Count != 2 || !result.DryRun {
			t.Fatalf("unexpected dry run result: %+v", result)
		}
	})

	t.Run("actual cleanup", func(t *testing.T) {
		result, err := st.CleanupSessions(ctx, now, false)
		if err != nil {
			t.Fatalf("cleanup: %v", err)
		}
		if result.Count != 2 || result.DryRun {
			t.Fatalf("unexpected result: %+v", result)
		}
		live, err := st.GetUserBySessionTokenHash(ctx, "live", now)
		if err != nil || live == nil {
			t.Fatalf("expected live session kept, err=%v", err)
		}
	})
}
