package dirmngr

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slices"
)

// KeyserverEntry is one node of the singly linked, head-inserted keyserver
// list described in spec §3.
type KeyserverEntry struct {
	URI    string
	Parsed URI
	Next   *KeyserverEntry
}

// KeyserverList is a singly linked, head-inserted list of configured
// keyserver URIs. Head-insertion matches the teacher's "most recently
// added wins first" iteration order for search/get/fetch.
type KeyserverList struct {
	head *KeyserverEntry
}

// Add parses uri and inserts it at the head of the list, unless an entry
// with the same URI is already configured (KEYSERVER accepts repeated
// ADD-ons idempotently rather than growing an unbounded duplicate chain).
func (l *KeyserverList) Add(uri string) error {
	parsed, err := ParseURI(uri)
	if err != nil {
		return err
	}
	if slices.Contains(l.URIs(), uri) {
		return nil
	}
	l.head = &KeyserverEntry{URI: uri, Parsed: parsed, Next: l.head}
	return nil
}

// Clear empties the list.
func (l *KeyserverList) Clear() {
	l.head = nil
}

// Empty reports whether the list has no entries.
func (l *KeyserverList) Empty() bool {
	return l.head == nil
}

// URIs returns the configured URIs head-to-tail.
func (l *KeyserverList) URIs() []string {
	var out []string
	for e := l.head; e != nil; e = e.Next {
		out = append(out, e.URI)
	}
	return out
}

// Entries returns the configured entries head-to-tail, for iteration by
// ksaction.go's search/get/fetch/put loops.
func (l *KeyserverList) Entries() []*KeyserverEntry {
	var out []*KeyserverEntry
	for e := l.head; e != nil; e = e.Next {
		out = append(out, e)
	}
	return out
}

// Controller is the per-session state of spec §3: allocated on connection
// accept, destroyed on connection close.
type Controller struct {
	ID string

	Keyservers *KeyserverList

	ForceCRLRefresh bool
	HTTPProxy       string
	HTTPNoCRL       bool

	Timeout time.Duration
	Quick   bool

	StopMe bool

	OCSPCerts []*Cert

	settings *Settings

	certCache CertCache
	crlCache  CRLCache
	ocsp      OCSPValidator
	validator ChainValidator
	fetcher   Fetcher
	crypto    CryptoProvider
}

// Collaborators bundles the §6 external collaborators a Controller needs;
// constructed once per process and shared across connections (they hold
// their own internal synchronization, per spec §5).
type Collaborators struct {
	CertCache CertCache
	CRLCache  CRLCache
	OCSP      OCSPValidator
	Validator ChainValidator
	Fetcher   Fetcher
	Crypto    CryptoProvider
}

// NewController allocates a fresh per-connection Controller seeded from
// settings and wired to the given collaborators.
func NewController(settings *Settings, collab Collaborators) *Controller {
	return &Controller{
		ID:         uuid.NewString(),
		Keyservers: &KeyserverList{},
		Timeout:    time.Duration(settings.TimeoutSecs) * time.Second,
		settings:   settings,
		certCache:  collab.CertCache,
		crlCache:   collab.CRLCache,
		ocsp:       collab.OCSP,
		validator:  collab.Validator,
		fetcher:    collab.Fetcher,
		crypto:     collab.Crypto,
	}
}

// effectiveTimeout returns QuickTimeoutSecs when Quick is set, else Timeout.
func (c *Controller) effectiveTimeout() time.Duration {
	if c.Quick {
		return time.Duration(c.settings.QuickTimeoutSecs) * time.Second
	}
	return c.Timeout
}

// resetPerCommandState implements RESET's "clear per-command state but
// retain keyserver list" contract (spec §4.6 step 6).
func (c *Controller) resetPerCommandState() {
	c.ForceCRLRefresh = false
	c.HTTPProxy = ""
	c.HTTPNoCRL = false
	c.Quick = false
	c.OCSPCerts = nil
}

// ensureDefaultKeyserver installs the compile-time default the first time
// the list is consulted while empty (spec §8 property 9).
func (c *Controller) ensureDefaultKeyserver() {
	if c.Keyservers.Empty() {
		_ = c.Keyservers.Add(c.settings.DefaultKeyserver)
	}
}
