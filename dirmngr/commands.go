package dirmngr

import (
	"context"
	"os"
	"strconv"
	"strings"
)

func init() {
	registerCommand("ISVALID", cmdISVALID)
	registerCommand("CHECKCRL", cmdCHECKCRL)
	registerCommand("CHECKOCSP", cmdCHECKOCSP)
	registerCommand("LOOKUP", cmdLOOKUP)
	registerCommand("LOADCRL", cmdLOADCRL)
	registerCommand("LISTCRLS", cmdLISTCRLS)
	registerCommand("CACHECERT", cmdCACHECERT)
	registerCommand("VALIDATE", cmdVALIDATE)
	registerCommand("KEYSERVER", cmdKEYSERVER)
	registerCommand("KS_SEARCH", cmdKS_SEARCH)
	registerCommand("KS_GET", cmdKS_GET)
	registerCommand("KS_FETCH", cmdKS_FETCH)
	registerCommand("KS_PUT", cmdKS_PUT)
	registerCommand("GETINFO", cmdGETINFO)
	registerCommand("RESET", cmdRESET)
	registerCommand("OPTION", cmdOPTION)
}

// splitFlags pulls recognized leading "--flag" tokens off args, returning
// the set present and the remaining argument string, matching the
// "[--flag]... <positional>" shape of several §4.6 command contracts.
func splitFlags(args string, known ...string) (flags map[string]bool, rest string) {
	flags = make(map[string]bool)
	fields := strings.Fields(args)
	i := 0
	for i < len(fields) {
		f := fields[i]
		matched := false
		for _, k := range known {
			if f == k {
				flags[k] = true
				matched = true
				break
			}
		}
		if !matched {
			break
		}
		i++
	}
	return flags, strings.Join(fields[i:], " ")
}

func cmdISVALID(ctx context.Context, s *session, args string) error {
	flags, rest := splitFlags(args, "--only-ocsp", "--force-default-responder")
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return newError(KindInvalidArgument, "ISVALID requires an argument")
	}
	arg, err := parseISVALIDArg(rest)
	if err != nil {
		return err
	}
	return decideISVALID(ctx, s.ctrl, s, flags["--only-ocsp"], flags["--force-default-responder"], arg)
}

func cmdCHECKCRL(ctx context.Context, s *session, args string) error {
	fpr := strings.TrimSpace(args)
	return decideCHECKCRL(ctx, s.ctrl, s, fpr)
}

func cmdCHECKOCSP(ctx context.Context, s *session, args string) error {
	flags, rest := splitFlags(args, "--force-default-responder")
	fpr := strings.TrimSpace(rest)
	return decideCHECKOCSP(ctx, s.ctrl, s, flags["--force-default-responder"], fpr)
}

func cmdLOOKUP(ctx context.Context, s *session, args string) error {
	flags, rest := splitFlags(args, "--url", "--single", "--cache-only")
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return newError(KindInvalidArgument, "LOOKUP requires at least one pattern")
	}

	if flags["--url"] {
		url, err := decodePercentPlus(rest)
		if err != nil {
			return newError(KindInvalidArgument, "malformed LOOKUP URL: "+err.Error())
		}
		data, err := ksFetch(ctx, s.ctrl, url)
		if err != nil {
			return err
		}
		return s.c.writeData(data)
	}

	patterns, err := decodePercentPlusFields(rest)
	if err != nil {
		return newError(KindInvalidArgument, "malformed LOOKUP pattern: "+err.Error())
	}

	var matched int
	var lastErr error
	for _, p := range patterns {
		found := false
		err := s.ctrl.certCache.GetByPattern(ctx, p, func(cert *Cert) error {
			found = true
			return s.c.writeData(cert.DER)
		})
		if err != nil {
			lastErr = err
		}
		if found {
			matched++
			continue
		}
		if flags["--cache-only"] {
			continue
		}
		if flags["--single"] {
			continue
		}
		data, err := ksSearch(ctx, s.ctrl, []string{p})
		if err == nil && len(data) > 0 {
			matched++
			if werr := s.c.writeData(data); werr != nil {
				return werr
			}
		} else {
			lastErr = err
		}
	}
	if matched == 0 {
		if lastErr != nil {
			return wrapError(KindNoData, "LOOKUP found no matches", lastErr)
		}
		return newError(KindNoData, "LOOKUP found no matches")
	}
	if matched < len(patterns) {
		return s.c.writeStatus("TRUNCATED", strconv.Itoa(len(patterns)-matched))
	}
	return nil
}

func cmdLOADCRL(ctx context.Context, s *session, args string) error {
	flags, rest := splitFlags(args, "--url")
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return newError(KindInvalidArgument, "LOADCRL requires a path or URL")
	}
	if flags["--url"] {
		data, err := ksFetch(ctx, s.ctrl, rest)
		if err != nil {
			return err
		}
		return s.ctrl.crlCache.Insert(ctx, rest, strings.NewReader(string(data)))
	}
	path, err := decodePercentPlus(rest)
	if err != nil {
		return newError(KindInvalidArgument, "malformed LOADCRL path: "+err.Error())
	}
	return s.ctrl.crlCache.Load(ctx, path)
}

func cmdLISTCRLS(ctx context.Context, s *session, args string) error {
	return s.ctrl.crlCache.List(crlListWriter{s.c})
}

// crlListWriter adapts conn.writeData to the io.Writer CRLCache.List
// expects.
type crlListWriter struct{ c *conn }

func (w crlListWriter) Write(p []byte) (int, error) {
	if err := w.c.writeData(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func cmdCACHECERT(ctx context.Context, s *session, args string) error {
	data, err := s.inquire(ctx, "TARGETCERT", 0)
	if err != nil {
		return wrapError(KindMissingCertificate, "failed to obtain certificate to cache", err)
	}
	return s.ctrl.certCache.Insert(ctx, &Cert{DER: data})
}

func cmdVALIDATE(ctx context.Context, s *session, args string) error {
	flags, _ := splitFlags(args, "--systrust", "--tls", "--no-crl")
	vflags := ValidateFlags{
		Systrust:   flags["--systrust"],
		TLS:        flags["--tls"],
		NoCRLCheck: flags["--no-crl"],
	}

	var target *Cert
	var intermediates []*Cert
	if vflags.TLS {
		data, err := s.inquire(ctx, "CERTLIST", 0)
		if err != nil {
			return wrapError(KindMissingCertificate, "failed to obtain CERTLIST", err)
		}
		certs := splitPEMList(data)
		if len(certs) == 0 {
			return newError(KindMissingCertificate, "CERTLIST was empty")
		}
		target = &Cert{DER: certs[0]}
		for _, der := range certs[1:] {
			c := &Cert{DER: der}
			intermediates = append(intermediates, c)
			if err := s.ctrl.certCache.Insert(ctx, c); err != nil {
				return wrapError(KindInternal, "failed to cache intermediate certificate", err)
			}
		}
	} else {
		data, err := s.inquire(ctx, "TARGETCERT", 0)
		if err != nil {
			return wrapError(KindMissingCertificate, "failed to obtain target certificate", err)
		}
		target = &Cert{DER: data}
	}

	_, err := s.ctrl.validator.ValidateChain(ctx, target, nil, vflags)
	if err != nil {
		return wrapError(KindNotTrusted, "chain validation failed", err)
	}
	return nil
}

// splitPEMList splits a concatenated sequence of "-----BEGIN...-----" /
// "-----END...-----" blocks into their raw payloads. The base64 body of
// each block is returned undecoded; callers treat it as an opaque DER
// blob alongside the ASN.1 reader external to this core.
func splitPEMList(data []byte) [][]byte {
	const begin = "-----BEGIN"
	const end = "-----END"
	s := string(data)
	var out [][]byte
	for {
		bi := strings.Index(s, begin)
		if bi < 0 {
			break
		}
		s = s[bi:]
		ei := strings.Index(s, end)
		if ei < 0 {
			break
		}
		nl := strings.IndexByte(s[ei:], '\n')
		if nl < 0 {
			out = append(out, []byte(s[:ei]))
			break
		}
		out = append(out, []byte(s[:ei+nl]))
		s = s[ei+nl:]
	}
	return out
}

func cmdKEYSERVER(ctx context.Context, s *session, args string) error {
	flags, rest := splitFlags(args, "--clear", "--help")
	rest = strings.TrimSpace(rest)

	if flags["--help"] {
		return s.c.writeStatus("KEYSERVER", "KEYSERVER [--clear] [--help] [uri]")
	}
	if flags["--clear"] {
		s.ctrl.Keyservers.Clear()
	}
	if rest != "" {
		if err := s.ctrl.Keyservers.Add(rest); err != nil {
			return newError(KindInvalidArgument, "malformed keyserver URI: "+err.Error())
		}
		return nil
	}
	if !flags["--clear"] {
		s.ctrl.ensureDefaultKeyserver()
		for _, uri := range s.ctrl.Keyservers.URIs() {
			if err := s.c.writeStatus("KEYSERVER", uri); err != nil {
				return err
			}
		}
	}
	return nil
}

func cmdKS_SEARCH(ctx context.Context, s *session, args string) error {
	patterns, err := decodePercentPlusFields(args)
	if err != nil || len(patterns) == 0 {
		return newError(KindInvalidArgument, "KS_SEARCH requires at least one pattern")
	}
	data, err := ksSearch(ctx, s.ctrl, patterns)
	if err != nil {
		return err
	}
	return s.c.writeData(data)
}

func cmdKS_GET(ctx context.Context, s *session, args string) error {
	patterns, err := decodePercentPlusFields(args)
	if err != nil {
		return newError(KindInvalidArgument, "malformed KS_GET pattern: "+err.Error())
	}
	data, err := ksGet(ctx, s.ctrl, patterns)
	if err != nil {
		return err
	}
	return s.c.writeData(data)
}

func cmdKS_FETCH(ctx context.Context, s *session, args string) error {
	url := strings.TrimSpace(args)
	if url == "" {
		return newError(KindInvalidArgument, "KS_FETCH requires a URL")
	}
	data, err := ksFetch(ctx, s.ctrl, url)
	if err != nil {
		return err
	}
	return s.c.writeData(data)
}

// keyblockLimit bounds KS_PUT's KEYBLOCK inquiry, per spec §4.6's "bounded
// at 20 MiB".
const keyblockLimit = 20 * 1024 * 1024

func cmdKS_PUT(ctx context.Context, s *session, args string) error {
	keyblock, err := s.inquire(ctx, "KEYBLOCK", keyblockLimit)
	if err != nil {
		return wrapError(KindMissingCertificate, "failed to obtain KEYBLOCK", err)
	}
	if len(keyblock) == 0 {
		return newError(KindMissingCertificate, "KEYBLOCK was empty")
	}
	if _, err := s.inquire(ctx, "KEYBLOCK_INFO", 4096); err != nil {
		return wrapError(KindMissingCertificate, "failed to obtain KEYBLOCK_INFO", err)
	}
	return ksPut(ctx, s.ctrl, keyblock)
}

func cmdGETINFO(ctx context.Context, s *session, args string) error {
	switch strings.TrimSpace(args) {
	case "version":
		return s.c.writeData([]byte(s.ctrl.settings.Version))
	case "pid":
		return s.c.writeData([]byte(strconv.Itoa(os.Getpid())))
	case "tor":
		return newError(KindNotSupported, "onion routing is not enabled")
	default:
		return newError(KindInvalidArgument, "unknown GETINFO target")
	}
}

func cmdRESET(ctx context.Context, s *session, args string) error {
	s.ctrl.resetPerCommandState()
	return nil
}

func cmdOPTION(ctx context.Context, s *session, args string) error {
	args = strings.TrimSpace(args)
	key, value := args, ""
	if i := strings.IndexAny(args, " \t"); i >= 0 {
		key, value = args[:i], strings.TrimSpace(args[i+1:])
	}
	key = strings.TrimPrefix(key, "--")
	value = strings.TrimPrefix(value, "=")
	value = strings.TrimSpace(value)

	switch key {
	case "force-crl-refresh":
		s.ctrl.ForceCRLRefresh = optionFlagTrue(value)
	case "http-proxy":
		if value == "none" || value == "" {
			s.ctrl.HTTPProxy = ""
		} else {
			s.ctrl.HTTPProxy = value
		}
	case "http-crl":
		s.ctrl.HTTPNoCRL = !optionFlagTrue(value)
	default:
		return newError(KindUnknownOption, "unknown option: "+key)
	}
	return nil
}

func optionFlagTrue(value string) bool {
	if value == "" {
		return true
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return false
	}
	return n != 0
}
