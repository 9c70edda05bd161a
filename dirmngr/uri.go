package dirmngr

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// URI is the permissively parsed form of spec §4.5's grammar:
//
//	scheme ":" ("//" authority)? path ("?" query)?
//
// Host/port defaulting follows the scheme table below, mirroring the
// teacher's host/port regex matching for PKS/HKP addresses.
type URI struct {
	Scheme string
	Host   string
	Port   int
	Path   string
	Query  string
}

// schemeDefaults maps a keyserver URI scheme to its implied transport
// scheme and default port, per spec §4.5.
var schemeDefaults = map[string]struct {
	Transport   string
	DefaultPort int
}{
	"hkp":   {"http", 11371},
	"hkps":  {"https", 443},
	"http":  {"http", 80},
	"https": {"https", 443},
}

// uriMatch splits "scheme://host-or-[v6]:port" into named groups, in the
// same style as the teacher's PKS address regex: a bracketed IPv6
// literal or a bare host/IPv4 literal, followed by an optional port.
var uriMatch = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9+.\-]*)://(([^:/\[]+)|\[([0-9A-Fa-f:]+)\])?(?::(\d+))?(/[^?]*)?(?:\?(.*))?$`)

// uriMatchOpaque handles the no-authority form "scheme:path" (e.g.
// "file:///..." is covered above, but a bare "scheme:opaque" is not).
var uriMatchOpaque = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9+.\-]*):([^/].*)?$`)

// ParseURI parses s against spec §4.5's permissive grammar. It never
// rejects an unrecognized scheme outright; schemeDefaults only supplies
// host/port defaults where applicable, matching the dispatcher's own
// later rejection of schemes a given command does not support.
func ParseURI(s string) (URI, error) {
	if m := uriMatch.FindStringSubmatch(s); m != nil {
		scheme := strings.ToLower(m[1])
		host := m[3]
		if host == "" {
			host = m[4] // bracketed IPv6 literal
		}
		u := URI{Scheme: scheme, Host: host, Path: m[6], Query: m[7]}
		if m[5] != "" {
			port, err := strconv.Atoi(m[5])
			if err != nil {
				return URI{}, errors.Wrapf(err, "uri: invalid port in %q", s)
			}
			u.Port = port
		} else if def, ok := schemeDefaults[scheme]; ok {
			u.Port = def.DefaultPort
		}
		return u, nil
	}
	if m := uriMatchOpaque.FindStringSubmatch(s); m != nil {
		return URI{Scheme: strings.ToLower(m[1]), Path: m[2]}, nil
	}
	return URI{}, errors.Errorf("uri: malformed %q", s)
}

// Transport returns the underlying HTTP(S) scheme a keyserver action
// should use for u, applying the hkp/hkps indirection of spec §4.7.
func (u URI) Transport() string {
	if def, ok := schemeDefaults[u.Scheme]; ok {
		return def.Transport
	}
	return u.Scheme
}

// String renders u back into a URI, for logging and for re-emitting the
// KEYSERVER command's current list.
func (u URI) String() string {
	var b strings.Builder
	b.WriteString(u.Scheme)
	b.WriteString("://")
	if strings.Contains(u.Host, ":") {
		b.WriteByte('[')
		b.WriteString(u.Host)
		b.WriteByte(']')
	} else {
		b.WriteString(u.Host)
	}
	if u.Port != 0 {
		if def, ok := schemeDefaults[u.Scheme]; !ok || def.DefaultPort != u.Port {
			b.WriteByte(':')
			b.WriteString(strconv.Itoa(u.Port))
		}
	}
	b.WriteString(u.Path)
	if u.Query != "" {
		b.WriteByte('?')
		b.WriteString(u.Query)
	}
	return b.String()
}
