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

// Package openpgp implements a byte-exact RFC 4880 packet codec: header
// framing, multi-precision integers, object identifiers, public-key and
// signature material for every standard algorithm, the closed family of
// signature and user-attribute subpackets, and a lazy stream parser.
//
// Every packet that parses successfully re-serializes to the same bytes
// unless the caller explicitly asks for canonicalization.
package openpgp
