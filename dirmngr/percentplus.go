package dirmngr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// decodePercentPlus reverses the "percent-plus" argument escaping of
// spec §4.6: "%XX" decodes to the byte 0xXX, "+" decodes to a space, every
// other byte is passed through literally. A mid-string NUL produced by
// "%00" is preserved in the output buffer; it is the caller's
// responsibility to reject or accept it per the command's own rules.
func decodePercentPlus(s string) (string, error) {
	var out strings.Builder
	out.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '+':
			out.WriteByte(' ')
		case '%':
			if i+2 >= len(s) {
				return "", errors.Errorf("percent-plus: truncated escape at offset %d", i)
			}
			n, err := strconv.ParseUint(s[i+1:i+3], 16, 8)
			if err != nil {
				return "", errors.Wrapf(err, "percent-plus: invalid escape %q", s[i:i+3])
			}
			out.WriteByte(byte(n))
			i += 2
		default:
			out.WriteByte(c)
		}
	}
	return out.String(), nil
}

// encodePercentPlus escapes s for the command channel: space becomes '+',
// '%' and any byte outside printable ASCII become "%XX".
func encodePercentPlus(s string) string {
	var out strings.Builder
	out.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == ' ':
			out.WriteByte('+')
		case c == '%' || c == '+' || c < 0x20 || c >= 0x7f:
			fmt.Fprintf(&out, "%%%02X", c)
		default:
			out.WriteByte(c)
		}
	}
	return out.String()
}

// decodePercentPlusFields splits an argument string on whitespace and
// percent-plus decodes each field independently, as required for LOOKUP's
// and KS_SEARCH/KS_GET's multi-pattern arguments.
func decodePercentPlusFields(s string) ([]string, error) {
	fields := strings.Fields(s)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		d, err := decodePercentPlus(f)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
