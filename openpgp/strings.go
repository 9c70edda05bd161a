/*
   trustcore - OpenPGP trust-infrastructure core
   Copyright (C) 2012-2025  Hockeypuck Contributors

   This program is free software: you can redistribute it and/or modify
   it under the terms of the GNU Affero General Public License as published by
   the Free Software Foundation, version 3.

   This program is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
   GNU Affero General Public License for more details.

   You should have received a copy of the GNU Affero General Public License
   along with this program.  If not, see <http://www.gnu.org/licenses/>.
*/

package openpgp

import (
	"encoding/hex"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// CleanUTF8 ensures that a string extracted from a raw packet is safe to
// hand to callers: invalid runes become '?', embedded nulls are rejected
// outright, and C0/DEL controls are dropped.
func CleanUTF8(s string) (string, error) {
	if strings.ContainsRune(s, 0) {
		return "", errors.Errorf("null byte found in string")
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r == utf8.RuneError:
			return '?'
		case r < 0x20 || r == 0x7f:
			return -1
		default:
			return r
		}
	}, s), nil
}

// KeyIDString formats an 8-byte issuer key id as upper-case hex, matching
// the conventional OpenPGP long key id presentation.
func KeyIDString(keyID [8]byte) string {
	return strings.ToUpper(hex.EncodeToString(keyID[:]))
}

// FingerprintString formats a 20-byte V4 fingerprint as upper-case hex
// with no separators, matching the form used in ISTRUSTED/SENDCERT_SKI
// inquiries (§6).
func FingerprintString(fpr [20]byte) string {
	return strings.ToUpper(hex.EncodeToString(fpr[:]))
}
