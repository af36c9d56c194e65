package respcache

import (
	"testing"
	"time"
)

func TestTTLExpiry(t *testing.T) {
	store, err := New(Config{Root: t.TempDir(), TTL: 30 * time.Millisecond, MaxEntries: 10})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	if err := store.Put("k1", []byte("v1")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, ok, err := store.Get("k1"); err != nil || !ok {
		t.Fatalf("get before expiry: ok=%v err=%v", ok, err)
	}

	time.Sleep(60 * time.Millisecond)
	if _, ok, err := store.Get("k1"); err != nil {
		t.Fatalf("get after expiry: %v", err)
	} else if ok {
		t.Fatalf("expected miss after ttl expiry")
	}
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	store, err := New(Config{Root: t.TempDir(), TTL: time.Minute, MaxEntries: 2})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	if err := store.Put("a", []byte("aa")); err != nil {
		t.Fatalf("put a: %v", err)
	}
	if err := store.Put("b", []byte("bb")); err != nil {
		t.Fatalf("put b: %v", err)
	}
	if _, ok, err := store.Get("a"); err != nil || !ok {
		t.Fatalf("touch a: ok=%v err=%v", ok, err)
	}
	if err := store.Put("c", []byte("cc")); err != nil {
		t.Fatalf("put c: %v", err)
	}

	if _, ok, err := store.Get("b"); err != nil {
		t.Fatalf("get b: %v", err)
	} else if ok {
		t.Fatalf("expected b to be evicted")
	}
	if _, ok, err := store.Get("a"); err != nil || !ok {
		t.Fatalf("expected a to remain: ok=%v err=%v", ok, err)
	}
	if _, ok, err := store.Get("c"); err != nil || !ok {
		t.Fatalf("expected c to remain: ok=%v err=%v", ok, err)
	}
}

func TestRestoresFromIndex(t *testing.T) {
	root := t.TempDir()
	store, err := New(Config{Root: root, TTL: time.Minute, MaxEntries: 10})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := store.Put("persist", []byte("value")); err != nil {
		t.Fatalf("put persist: %v", err)
	}

	store2, err := New(Config{Root: root, TTL: time.Minute, MaxEntries: 10})
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	raw, ok, err := store2.Get("persist")
	if err != nil {
		t.Fatalf("get persist: %v", err)
	}
	if !ok {
		t.Fatalf("expected persisted key to exist")
	}
	if string(raw) != "value" {
		t.Fatalf("unexpected value: %q", string(raw))
	}
}

func TestKeyDistinguishesInputs(t *testing.T) {
	a := Key("model", "prompt", []byte("x"))
	b := Key("model", "prompt", []byte("y"))
	c := Key("model", "promptx", []byte(""))
	if a == b || a == c {
		t.Fatalf("cache keys collide: %q %q %q", a, b, c)
	}
	if a != Key("model", "prompt", []byte("x")) {
		t.Fatalf("cache key not deterministic")
	}
}
