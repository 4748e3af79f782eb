package presence

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	s := miniredis.RunT(t)
	store, err := NewRedisStore("redis://" + s.Addr())
	if err != nil {
		t.Fatalf("failed to create redis store: %v", err)
	}
	return store, s
}

func TestNewRedisStore(t *testing.T) {
	s := miniredis.RunT(t)
	defer s.Close()

	store, err := NewRedisStore("redis://" + s.Addr())
	if err != nil {
		t.Fatalf("NewRedisStore failed: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.Ping(ctx); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestSetAndGetPresence(t *testing.T) {
	store, s := setupTestRedis(t)
	defer store.Close()
	defer s.Close()

	ctx := context.Background()

	err := store.SetPresence(ctx, "room-1", "user-123", true, 42)
	if err != nil {
		t.Fatalf("SetPresence failed: %v", err)
	}

	rec, err := store.GetPresence(ctx, "room-1", "user-123")
	if err != nil {
		t.Fatalf("GetPresence failed: %v", err)
	}

	if rec.UserID != "user-123" {
		t.Errorf("expected user-123, got %s", rec.UserID)
	}
	if !rec.Active {
		t.Error("expected active record")
	}
	if rec.Cursor != 42 {
		t.Errorf("expected cursor 42, got %d", rec.Cursor)
	}
}

func TestPresenceExpires(t *testing.T) {
	store, s := setupTestRedis(t)
	defer store.Close()
	defer s.Close()

	ctx := context.Background()

	err := store.SetPresence(ctx, "room-1", "user-456", true, 0)
	if err != nil {
		t.Fatalf("SetPresence failed: %v", err)
	}

	// Fast-forward past the TTL in miniredis
	s.FastForward(61 * time.Second)

	_, err = store.GetPresence(ctx, "room-1", "user-456")
	if err == nil {
		t.Error("expected error for expired presence, got nil")
	}
}

func TestGetNonExistentPresence(t *testing.T) {
	store, s := setupTestRedis(t)
	defer store.Close()
	defer s.Close()

	ctx := context.Background()

	_, err := store.GetPresence(ctx, "room-1", "nobody")
	if err == nil {
		t.Error("expected error for missing presence, got nil")
	}
}

func TestRemovePresence(t *testing.T) {
	store, s := setupTestRedis(t)
	defer store.Close()
	defer s.Close()

	ctx := context.Background()

	err := store.SetPresence(ctx, "room-1", "user-789", true, 5)
	if err != nil {
		t.Fatalf("SetPresence failed: %v", err)
	}

	err = store.RemovePresence(ctx, "room-1", "user-789")
	if err != nil {
		t.Fatalf("RemovePresence failed: %v", err)
	}

	_, err = store.GetPresence(ctx, "room-1", "user-789")
	if err == nil {
		t.Error("expected error after remove, got nil")
	}
}

func TestRemoveNonExistentPresence(t *testing.T) {
	store, s := setupTestRedis(t)
	defer store.Close()
	defer s.Close()

	ctx := context.Background()

	err := store.RemovePresence(ctx, "room-1", "nobody")
	if err != nil {
		t.Errorf("RemovePresence for missing record failed: %v", err)
	}
}

func TestRoomPresenceIsolation(t *testing.T) {
	store, s := setupTestRedis(t)
	defer store.Close()
	defer s.Close()

	ctx := context.Background()

	if err := store.SetPresence(ctx, "room-a", "user-1", true, 0); err != nil {
		t.Fatalf("SetPresence user-1 failed: %v", err)
	}
	if err := store.SetPresence(ctx, "room-a", "user-2", false, 10); err != nil {
		t.Fatalf("SetPresence user-2 failed: %v", err)
	}
	if err := store.SetPresence(ctx, "room-b", "user-3", true, 0); err != nil {
		t.Fatalf("SetPresence user-3 failed: %v", err)
	}

	records, err := store.RoomPresence(ctx, "room-a")
	if err != nil {
		t.Fatalf("RoomPresence failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records in room-a, got %d", len(records))
	}
	for _, rec := range records {
		if rec.RoomID != "room-a" {
			t.Errorf("record leaked from %s", rec.RoomID)
		}
	}
}
