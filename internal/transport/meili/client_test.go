package meili

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/ausaur/saurcours/internal/domain"
)

// recordedRequest captures one request the fake engine received.
type recordedRequest struct {
	method string
	path   string
	auth   string
	body   []byte
}

// fakeEngine is an httptest-backed Meilisearch stand-in.
type fakeEngine struct {
	mu       sync.Mutex
	requests []recordedRequest
	handler  func(w http.ResponseWriter, r *http.Request)
	server   *httptest.Server
}

func newFakeEngine(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) *fakeEngine {
	t.Helper()
	f := &fakeEngine{handler: handler}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.requests = append(f.requests, recordedRequest{
			method: r.Method,
			path:   r.URL.Path,
			auth:   r.Header.Get("Authorization"),
			body:   body,
		})
		f.mu.Unlock()
		if f.handler != nil {
			f.handler(w, r)
		}
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeEngine) client() *Client {
	return NewClient(&Config{BaseURL: f.server.URL, APIKey: "masterkey", Index: "articles"})
}

func (f *fakeEngine) recorded() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

func TestSearch_RequestShape(t *testing.T) {
	engine := newFakeEngine(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"hits":[{"id":"tarifs","title":"Tarifs"}]}`))
	})

	hits, err := engine.client().Search(context.Background(), "abonnement", 15, `category = "Facturation"`)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].ID != "tarifs" {
		t.Errorf("hits = %v", hits)
	}

	reqs := engine.recorded()
	if len(reqs) != 1 {
		t.Fatalf("got %d requests", len(reqs))
	}
	if reqs[0].method != http.MethodPost || reqs[0].path != "/indexes/articles/search" {
		t.Errorf("request = %s %s", reqs[0].method, reqs[0].path)
	}
	if reqs[0].auth != "Bearer masterkey" {
		t.Errorf("auth header = %q", reqs[0].auth)
	}

	var body map[string]any
	if err := json.Unmarshal(reqs[0].body, &body); err != nil {
		t.Fatal(err)
	}
	if body["q"] != "abonnement" || body["limit"] != float64(15) {
		t.Errorf("body = %v", body)
	}
	if body["matchingStrategy"] != "all" {
		t.Errorf("matchingStrategy = %v, want all", body["matchingStrategy"])
	}
	if body["filter"] != `category = "Facturation"` {
		t.Errorf("filter = %v", body["filter"])
	}
}

func TestSearch_OmitsEmptyFilter(t *testing.T) {
	engine := newFakeEngine(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"hits":[]}`))
	})

	if _, err := engine.client().Search(context.Background(), "abonnement", 15, ""); err != nil {
		t.Fatal(err)
	}

	var body map[string]any
	if err := json.Unmarshal(engine.recorded()[0].body, &body); err != nil {
		t.Fatal(err)
	}
	if _, ok := body["filter"]; ok {
		t.Errorf("empty filter serialized: %v", body)
	}
}

func TestCall_ErrorMapping(t *testing.T) {
	t.Run("404 is index not ready", func(t *testing.T) {
		engine := newFakeEngine(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
		_, err := engine.client().Search(context.Background(), "abonnement", 10, "")
		if !errors.Is(err, domain.ErrIndexNotReady) {
			t.Errorf("error = %v, want ErrIndexNotReady", err)
		}
	})
	t.Run("500 is store unavailable", func(t *testing.T) {
		engine := newFakeEngine(t, func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "internal", http.StatusInternalServerError)
		})
		_, err := engine.client().Search(context.Background(), "abonnement", 10, "")
		if !errors.Is(err, domain.ErrStoreUnavailable) {
			t.Errorf("error = %v, want ErrStoreUnavailable", err)
		}
	})
	t.Run("unreachable engine is store unavailable", func(t *testing.T) {
		c := NewClient(&Config{BaseURL: "http://127.0.0.1:1", Index: "articles"})
		_, err := c.Search(context.Background(), "abonnement", 10, "")
		if !errors.Is(err, domain.ErrStoreUnavailable) {
			t.Errorf("error = %v, want ErrStoreUnavailable", err)
		}
	})
	t.Run("malformed response is store unavailable", func(t *testing.T) {
		engine := newFakeEngine(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("<html>gateway error</html>"))
		})
		_, err := engine.client().Search(context.Background(), "abonnement", 10, "")
		if !errors.Is(err, domain.ErrStoreUnavailable) {
			t.Errorf("error = %v, want ErrStoreUnavailable", err)
		}
	})
}

func TestUpsert_EmptyBatchSkipsEngine(t *testing.T) {
	engine := newFakeEngine(t, nil)
	c := engine.client()

	if err := c.Upsert(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	if err := c.Delete(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	if got := len(engine.recorded()); got != 0 {
		t.Errorf("engine contacted %d times for empty batches", got)
	}
}

func TestDelete_BatchBody(t *testing.T) {
	engine := newFakeEngine(t, nil)

	if err := engine.client().Delete(context.Background(), []string{"tarifs", "contact"}); err != nil {
		t.Fatal(err)
	}

	reqs := engine.recorded()
	if reqs[0].path != "/indexes/articles/documents/delete-batch" {
		t.Errorf("path = %s", reqs[0].path)
	}
	var ids []string
	if err := json.Unmarshal(reqs[0].body, &ids); err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 || ids[0] != "tarifs" || ids[1] != "contact" {
		t.Errorf("ids = %v", ids)
	}
}

func TestEnsureIndex_ExistingIndexOnlyPatchesSettings(t *testing.T) {
	engine := newFakeEngine(t, nil)

	if err := engine.client().EnsureIndex(context.Background()); err != nil {
		t.Fatal(err)
	}

	reqs := engine.recorded()
	if len(reqs) != 2 {
		t.Fatalf("got %d requests, want GET + PATCH", len(reqs))
	}
	if reqs[0].method != http.MethodGet || reqs[0].path != "/indexes/articles" {
		t.Errorf("first = %s %s", reqs[0].method, reqs[0].path)
	}
	if reqs[1].method != http.MethodPatch || reqs[1].path != "/indexes/articles/settings" {
		t.Errorf("second = %s %s", reqs[1].method, reqs[1].path)
	}

	var settings indexSettings
	if err := json.Unmarshal(reqs[1].body, &settings); err != nil {
		t.Fatal(err)
	}
	wantSearchable := []string{"title", "tags", "content"}
	for i, attr := range wantSearchable {
		if settings.SearchableAttributes[i] != attr {
			t.Errorf("searchable = %v, want %v", settings.SearchableAttributes, wantSearchable)
			break
		}
	}
	wantFilterable := []string{"category", "type", "tags"}
	for i, attr := range wantFilterable {
		if settings.FilterableAttributes[i] != attr {
			t.Errorf("filterable = %v, want %v", settings.FilterableAttributes, wantFilterable)
			break
		}
	}
}

func TestEnsureIndex_CreatesMissingIndex(t *testing.T) {
	engine := newFakeEngine(t, nil)
	engine.handler = func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.WriteHeader(http.StatusNotFound)
		}
	}

	if err := engine.client().EnsureIndex(context.Background()); err != nil {
		t.Fatal(err)
	}

	reqs := engine.recorded()
	if len(reqs) != 3 {
		t.Fatalf("got %d requests, want GET + PUT + PATCH", len(reqs))
	}
	if reqs[1].method != http.MethodPut || reqs[1].path != "/indexes/articles" {
		t.Errorf("create = %s %s", reqs[1].method, reqs[1].path)
	}

	var create map[string]string
	if err := json.Unmarshal(reqs[1].body, &create); err != nil {
		t.Fatal(err)
	}
	if create["uid"] != "articles" || create["primaryKey"] != "id" {
		t.Errorf("create body = %v", create)
	}
}

func TestHealth(t *testing.T) {
	engine := newFakeEngine(t, nil)

	if err := engine.client().Health(context.Background()); err != nil {
		t.Fatal(err)
	}
	if reqs := engine.recorded(); reqs[0].path != "/health" {
		t.Errorf("path = %s", reqs[0].path)
	}
}
