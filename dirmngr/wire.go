package dirmngr

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// maxCommandLine is the spec §6 limit on a decoded command line.
const maxCommandLine = 1000

// conn is the minimal line-oriented transport the wire codec rides on: a
// single connection's read and write sides, matching the pipe-between-
// cooperating-processes model of spec §1's Non-goals (no transport
// security, no framing beyond newline-terminated lines).
type conn struct {
	r *bufio.Reader
	w io.Writer
}

func newConn(rw io.ReadWriter) *conn {
	return &conn{r: bufio.NewReader(rw), w: rw}
}

// readLine reads one newline-terminated line and strips the trailing CR/LF.
// Lines longer than maxCommandLine are a protocol error.
func (c *conn) readLine() (string, error) {
	line, err := c.r.ReadString('\n')
	if err != nil {
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")
	if len(line) > maxCommandLine {
		return "", newError(KindParameter, "command line too long")
	}
	return line, nil
}

// escapeData applies the command channel's '%' escaping of '%', CR, and LF
// inside a D line's payload, per spec §6.
func escapeData(b []byte) string {
	var out strings.Builder
	out.Grow(len(b))
	for _, c := range b {
		switch c {
		case '%':
			out.WriteString("%25")
		case '\r':
			out.WriteString("%0D")
		case '\n':
			out.WriteString("%0A")
		default:
			out.WriteByte(c)
		}
	}
	return out.String()
}

// writeOK emits the "OK[ text]" response line.
func (c *conn) writeOK(text string) error {
	if text == "" {
		return c.writeLine("OK")
	}
	return c.writeLine("OK " + text)
}

// writeErr emits an "ERR <code> <description>" response line for e.
func (c *conn) writeErr(e *Error) error {
	return c.writeLine(e.wireLine())
}

// writeStatus emits an "S <keyword>[ args]" status line.
func (c *conn) writeStatus(keyword string, args ...string) error {
	line := "S " + keyword
	if len(args) > 0 {
		line += " " + strings.Join(args, " ")
	}
	return c.writeLine(line)
}

// writeData emits payload as one or more "D <data>" lines, chunked so no
// single line exceeds maxCommandLine after escaping.
func (c *conn) writeData(payload []byte) error {
	const chunk = 250 // conservative: escaping can triple a byte's width
	for i := 0; i < len(payload); i += chunk {
		end := i + chunk
		if end > len(payload) {
			end = len(payload)
		}
		if err := c.writeLine("D " + escapeData(payload[i:end])); err != nil {
			return err
		}
	}
	return nil
}

// writeInquire emits an "INQUIRE <keyword>[ args]" line and records the
// issuance in metrics.
func (c *conn) writeInquire(keyword string, args ...string) error {
	recordInquiry(keyword)
	line := "INQUIRE " + keyword
	if len(args) > 0 {
		line += " " + strings.Join(args, " ")
	}
	return c.writeLine(line)
}

func (c *conn) writeLine(s string) error {
	_, err := fmt.Fprintf(c.w, "%s\n", s)
	if err != nil {
		return errors.WithStack(err)
	}
	return nil
}

// inquiryResult is what readInquiryResponse hands back to a handler that
// issued an INQUIRE: either accumulated D-line payload terminated by END,
// or a CAN/ERR abort.
type inquiryResult struct {
	Data []byte
}

// readInquiryResponse reads the peer's reply to a pending inquiry: a
// sequence of D lines (each unescaped and appended to Data) terminated by
// END, or an immediate CAN (the peer declines to answer) or ERR (the peer
// reports its own failure obtaining the data). maxBytes bounds the
// accumulated payload, per spec §5's memory bounds (e.g. KEYBLOCK at 20
// MiB); exceeding it is a protocol error.
func (c *conn) readInquiryResponse(maxBytes int) (*inquiryResult, error) {
	var data []byte
	for {
		line, err := c.readLine()
		if err != nil {
			return nil, errors.WithStack(err)
		}
		switch {
		case line == "END":
			return &inquiryResult{Data: data}, nil
		case line == "CAN":
			return nil, newError(KindNoData, "peer cancelled inquiry")
		case strings.HasPrefix(line, "ERR"):
			return nil, newError(KindTransport, "peer reported error answering inquiry")
		case strings.HasPrefix(line, "D "):
			chunk := unescapeData(line[2:])
			if len(data)+len(chunk) > maxBytes {
				return nil, newError(KindOutOfMemory, "inquiry response exceeds size bound")
			}
			data = append(data, chunk...)
		default:
			return nil, newError(KindParameter, "unexpected line during inquiry: "+line)
		}
	}
}

func unescapeData(s string) []byte {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) {
			var b byte
			if n, err := fmt.Sscanf(s[i+1:i+3], "%02X", &b); err == nil && n == 1 {
				out = append(out, b)
				i += 2
				continue
			}
		}
		out = append(out, s[i])
	}
	return out
}
