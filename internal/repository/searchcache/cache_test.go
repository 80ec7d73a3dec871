package searchcache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ausaur/saurcours/internal/db"
)

type fakeStore struct {
	data    map[string][]byte
	lastTTL time.Duration
	getErr  error
	setErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string][]byte)}
}

func (f *fakeStore) Get(_ context.Context, key string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	data, ok := f.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return data, nil
}

func (f *fakeStore) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.data[key] = value
	f.lastTTL = ttl
	return nil
}

func TestKey_DeterministicAndPrefixed(t *testing.T) {
	a := Key("abonnement resilier", `category = "Facturation"`, "20")
	b := Key("abonnement resilier", `category = "Facturation"`, "20")
	if a != b {
		t.Errorf("same parts, different keys: %q vs %q", a, b)
	}
	if !strings.HasPrefix(a, "saurcours:search_cache:") {
		t.Errorf("key = %q, missing namespace prefix", a)
	}
	if c := Key("abonnement resilier", "", "20"); c == a {
		t.Error("different parts collided")
	}
	// Part boundaries matter: ("ab", "c") and ("a", "bc") must differ.
	if Key("ab", "c") == Key("a", "bc") {
		t.Error("part boundary ignored in key derivation")
	}
}

func TestGetPut_RoundTrip(t *testing.T) {
	store := newFakeStore()
	cache := New(store, 60*time.Second, nil, zap.NewNop())
	ctx := context.Background()
	key := Key("abonnement")

	if _, ok := cache.Get(ctx, key); ok {
		t.Fatal("hit before any write")
	}

	cache.Put(ctx, key, []byte(`{"hits":[]}`))
	if store.lastTTL != 60*time.Second {
		t.Errorf("ttl = %v, want 60s", store.lastTTL)
	}

	data, ok := cache.Get(ctx, key)
	if !ok || string(data) != `{"hits":[]}` {
		t.Errorf("got %q, %v", data, ok)
	}
}

func TestGet_StoreErrorIsMiss(t *testing.T) {
	store := newFakeStore()
	store.getErr = errors.New("connection refused")
	cache := New(store, time.Minute, nil, zap.NewNop())

	if _, ok := cache.Get(context.Background(), Key("abonnement")); ok {
		t.Error("store error reported as hit")
	}
}

func TestGet_EmptyValueIsMiss(t *testing.T) {
	store := newFakeStore()
	key := Key("abonnement")
	store.data[key] = nil
	cache := New(store, time.Minute, nil, zap.NewNop())

	if _, ok := cache.Get(context.Background(), key); ok {
		t.Error("empty value reported as hit")
	}
}

func TestPut_StoreErrorSwallowed(t *testing.T) {
	store := newFakeStore()
	store.setErr = errors.New("readonly replica")
	cache := New(store, time.Minute, nil, zap.NewNop())

	// Must not panic or surface: the cache is fail-soft.
	cache.Put(context.Background(), Key("abonnement"), []byte("x"))
}
