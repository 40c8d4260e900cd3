package middleware

import (
	"testing"
)

func TestInMemIdempotencyStoreLocking(t *testing.T) {
	store := NewInMemIdempotencyStore()

	rec, hit := store.GetOrLock("a:key-1")
	if hit || rec != nil {
		t.Fatalf("first caller should acquire the lock")
	}

	// A concurrent duplicate sees the in-flight record.
	rec, hit = store.GetOrLock("a:key-1")
	if !hit || !rec.Processing {
		t.Fatalf("second caller should observe processing")
	}

	store.Save("a:key-1", 200, []byte(`{"ok":true}`))
	rec, hit = store.GetOrLock("a:key-1")
	if !hit || rec.Processing {
		t.Fatalf("completed record should be returned")
	}
	if rec.Status != 200 || string(rec.Body) != `{"ok":true}` {
		t.Fatalf("unexpected cached record: %+v", rec)
	}
}

func TestInMemIdempotencyStoreUnlock(t *testing.T) {
	store := NewInMemIdempotencyStore()

	store.GetOrLock("a:key-1")
	store.Unlock("a:key-1")

	// After unlock the key is free for retry.
	rec, hit := store.GetOrLock("a:key-1")
	if hit || rec != nil {
		t.Fatalf("unlocked key should be acquirable again")
	}
}

func TestIdempotencyKeysAreActorScoped(t *testing.T) {
	store := NewInMemIdempotencyStore()

	store.Save("actor-1:key", 200, []byte("a"))
	if _, hit := store.GetOrLock("actor-2:key"); hit {
		t.Fatalf("different actor must not hit another actor's record")
	}
}
