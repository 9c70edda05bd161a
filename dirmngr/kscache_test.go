package dirmngr

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

// TestQuickSearchServesFromCacheOnSecondCall covers the --quick
// keyserver result cache: a second identical search under --quick must
// not reach the network again.
func TestQuickSearchServesFromCacheOnSecondCall(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte("pub:FINGERPRINT:1:2048::\n"))
	}))
	defer srv.Close()

	settings := DefaultSettings()
	c := NewController(&settings, Collaborators{})
	c.Quick = true
	_ = c.Keyservers.Add("hkp://" + srv.Listener.Addr().String())
	// ksLookup always builds its own scheme/port from the parsed URI;
	// point it at the httptest server directly via the default client.
	origClient := ksHTTPClient
	ksHTTPClient = srv.Client()
	defer func() { ksHTTPClient = origClient }()

	key := ksQuickCacheKey("index", []string{"alice@example.org"})
	ksQuickCache.Remove(key)

	data1, err := ksSearch(context.Background(), c, []string{"alice@example.org"})
	if err != nil {
		t.Fatalf("first search: %v", err)
	}
	data2, err := ksSearch(context.Background(), c, []string{"alice@example.org"})
	if err != nil {
		t.Fatalf("second search: %v", err)
	}
	if string(data1) != string(data2) {
		t.Fatalf("cached result mismatch: %q vs %q", data1, data2)
	}
	if hits != 1 {
		t.Fatalf("expected exactly one network round trip, got %d", hits)
	}
}

// TestNonQuickSearchBypassesCache ensures only --quick consults the
// cache; ordinary lookups always hit the network.
func TestNonQuickSearchBypassesCache(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte("pub:FINGERPRINT:1:2048::\n"))
	}))
	defer srv.Close()

	settings := DefaultSettings()
	c := NewController(&settings, Collaborators{})
	_ = c.Keyservers.Add("hkp://" + srv.Listener.Addr().String())
	origClient := ksHTTPClient
	ksHTTPClient = srv.Client()
	defer func() { ksHTTPClient = origClient }()

	if _, err := ksSearch(context.Background(), c, []string{"bob@example.org"}); err != nil {
		t.Fatalf("first search: %v", err)
	}
	if _, err := ksSearch(context.Background(), c, []string{"bob@example.org"}); err != nil {
		t.Fatalf("second search: %v", err)
	}
	if hits != 2 {
		t.Fatalf("expected two network round trips without --quick, got %d", hits)
	}
}
