package dirmngr

import "testing"

func TestKeyserverListAddDedups(t *testing.T) {
	l := &KeyserverList{}
	if err := l.Add("hkp://keys.example.org"); err != nil {
		t.Fatalf("first Add: %v", err)
	}
	if err := l.Add("hkp://keys.example.org"); err != nil {
		t.Fatalf("second Add: %v", err)
	}
	if got := l.URIs(); len(got) != 1 {
		t.Fatalf("expected one deduped entry, got %v", got)
	}
}

func TestKeyserverListAddKeepsDistinctEntries(t *testing.T) {
	l := &KeyserverList{}
	_ = l.Add("hkp://a.example.org")
	_ = l.Add("hkp://b.example.org")
	got := l.URIs()
	if len(got) != 2 {
		t.Fatalf("expected two entries, got %v", got)
	}
	// Head-inserted: most recently added appears first.
	if got[0] != "hkp://b.example.org" {
		t.Fatalf("expected head entry hkp://b.example.org, got %q", got[0])
	}
}

func TestEffectiveTimeoutRespectsQuick(t *testing.T) {
	settings := DefaultSettings()
	c := NewController(&settings, Collaborators{})
	if c.effectiveTimeout().Seconds() != float64(DefaultTimeoutSecs) {
		t.Fatalf("expected default timeout, got %v", c.effectiveTimeout())
	}
	c.Quick = true
	if c.effectiveTimeout().Seconds() != float64(DefaultQuickTimeoutSecs) {
		t.Fatalf("expected quick timeout, got %v", c.effectiveTimeout())
	}
}
