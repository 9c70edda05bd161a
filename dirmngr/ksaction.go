package dirmngr

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
)

// ksHTTPClient is the collaborator the ksaction functions use to perform
// HTTP round trips; production wiring is http.DefaultClient with a
// context deadline derived from the controller's effective timeout, the
// same derivation the teacher's Sender.SendKey leaves to net/http's
// context support.
var ksHTTPClient = http.DefaultClient

// lookupPath is the HKP path search/get use, per the hkp/pks "pks/add"
// sibling convention the teacher's SendKey constructs by hand.
const lookupPath = "pks/lookup"
const addPath = "pks/add"

// ksSearch implements spec §4.7's search: try each keyserver in order
// until one yields data or all fail, concatenating the successful
// server's raw response. Under --quick, a recent result for the same
// pattern set is served from ksQuickCache instead of hitting the
// network again.
func ksSearch(ctx context.Context, c *Controller, patterns []string) ([]byte, error) {
	return ksQuickCached(c, "index", patterns, func() ([]byte, error) {
		return ksTryEach(ctx, c, func(ctx context.Context, u URI) ([]byte, error) {
			return ksLookup(ctx, u, "index", patterns)
		})
	})
}

// ksGet implements spec §4.7's get: per-pattern lookup requiring at
// least one keyid/fingerprint or "=name" exact-match pattern.
func ksGet(ctx context.Context, c *Controller, patterns []string) ([]byte, error) {
	if len(patterns) == 0 {
		return nil, newError(KindInvalidArgument, "KS_GET requires at least one pattern")
	}
	return ksQuickCached(c, "get", patterns, func() ([]byte, error) {
		return ksTryEach(ctx, c, func(ctx context.Context, u URI) ([]byte, error) {
			return ksLookup(ctx, u, "get", patterns)
		})
	})
}

// ksQuickCached serves fetch from ksQuickCache when c.Quick is set,
// falling back to fetch and populating the cache on a miss. Outside
// --quick, every lookup goes straight to fetch: dirmngr's ordinary mode
// always wants a fresh answer.
func ksQuickCached(c *Controller, op string, patterns []string, fetch func() ([]byte, error)) ([]byte, error) {
	if !c.Quick {
		return fetch()
	}
	key := ksQuickCacheKey(op, patterns)
	if data, ok := ksQuickCacheGet(key); ok {
		recordKeyserverAction("lookup", "cache_hit")
		return data, nil
	}
	data, err := fetch()
	if err != nil {
		return nil, err
	}
	ksQuickCacheSet(key, data)
	return data, nil
}

// ksTryEach walks the session's configured keyservers head-to-tail,
// returning the first successful result, matching the teacher's
// failover-until-success loop in pks.Sender.run (tried peer by peer,
// next on error).
func ksTryEach(ctx context.Context, c *Controller, try func(context.Context, URI) ([]byte, error)) ([]byte, error) {
	c.ensureDefaultKeyserver()
	entries := c.Keyservers.Entries()
	if len(entries) == 0 {
		return nil, newError(KindInvalidArgument, "no keyserver configured")
	}
	var lastErr error
	for _, e := range entries {
		data, err := try(ctx, e.Parsed)
		if err == nil {
			recordKeyserverAction("lookup", "success")
			return data, nil
		}
		lastErr = err
		recordKeyserverAction("lookup", "failure")
	}
	return nil, wrapError(KindTransport, "all configured keyservers failed", lastErr)
}

// ksLookup performs one HKP "pks/lookup" request against u.
func ksLookup(ctx context.Context, u URI, op string, patterns []string) ([]byte, error) {
	q := url.Values{}
	q.Set("op", op)
	q.Set("options", "mr")
	for _, p := range patterns {
		q.Set("search", p)
	}
	reqURL := fmt.Sprintf("%s://%s:%d/%s?%s", u.Transport(), u.Host, u.Port, lookupPath, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	resp, err := ksHTTPClient.Do(req)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, errors.Errorf("keyserver %s: status %d", reqURL, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// ksFetch implements spec §4.7's fetch: single URL download subject to
// the session's effective timeout.
func ksFetch(ctx context.Context, c *Controller, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, newError(KindInvalidArgument, "malformed fetch URL: "+rawURL)
	}
	resp, err := ksHTTPClient.Do(req)
	if err != nil {
		return nil, wrapError(KindTransport, "fetch failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, newError(KindTransport, fmt.Sprintf("fetch %s: status %d", rawURL, resp.StatusCode))
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, wrapError(KindTransport, "fetch read failed", err)
	}
	return data, nil
}

// ksPut implements spec §4.7's put: submit keyblock to every configured
// keyserver, reporting success if at least one accepts it, mirroring
// the teacher's PKS-to-multiple-peers fan-out in SendKeys (each
// destination attempted, overall status tracked independently).
func ksPut(ctx context.Context, c *Controller, keyblock []byte) error {
	if len(keyblock) == 0 {
		return newError(KindMissingCertificate, "KS_PUT requires a non-empty KEYBLOCK")
	}
	c.ensureDefaultKeyserver()
	entries := c.Keyservers.Entries()
	if len(entries) == 0 {
		return newError(KindInvalidArgument, "no keyserver configured")
	}

	var lastErr error
	succeeded := false
	for _, e := range entries {
		if err := ksPutOne(ctx, e.Parsed, keyblock); err != nil {
			lastErr = err
			recordKeyserverAction("put", "failure")
			continue
		}
		succeeded = true
		recordKeyserverAction("put", "success")
	}
	if !succeeded {
		return wrapError(KindTransport, "KS_PUT failed on all configured keyservers", lastErr)
	}
	return nil
}

// ksPutOne submits keyblock to one keyserver via the HKP "pks/add" form
// post, the same request shape as the teacher's Sender.SendKey.
func ksPutOne(ctx context.Context, u URI, keyblock []byte) error {
	reqURL := fmt.Sprintf("%s://%s:%d/%s", u.Transport(), u.Host, u.Port, addPath)
	form := url.Values{"keytext": {string(keyblock)}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewBufferString(form.Encode()))
	if err != nil {
		return errors.WithStack(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := ksHTTPClient.Do(req)
	if err != nil {
		return errors.WithStack(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return errors.Errorf("keyserver %s: status %d", reqURL, resp.StatusCode)
	}
	return nil
}
