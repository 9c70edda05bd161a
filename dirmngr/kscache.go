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

package dirmngr

import (
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru"
)

// ksQuickCacheSize bounds the quick-connect keyserver result cache so a
// long-lived process answering many --quick lookups cannot grow its
// resident set without bound.
const ksQuickCacheSize = 256

// ksQuickCacheTTL bounds how long a cached search/get result may be
// served before a --quick lookup falls back to the network again.
const ksQuickCacheTTL = 2 * time.Minute

type ksCacheEntry struct {
	data     []byte
	cachedAt time.Time
}

// ksQuickCache is process-wide: every Controller shares it, the same way
// the teacher's collaborators are constructed once and shared across
// connections (spec §5).
var ksQuickCache = newKSQuickCache()

func newKSQuickCache() *lru.Cache {
	c, err := lru.New(ksQuickCacheSize)
	if err != nil {
		// Only non-nil for a non-positive size, which ksQuickCacheSize
		// never is.
		panic(err)
	}
	return c
}

// ksQuickCacheKey builds the cache key for one op ("index" or "get")
// against an ordered pattern set.
func ksQuickCacheKey(op string, patterns []string) string {
	return op + ":" + strings.Join(patterns, ",")
}

func ksQuickCacheGet(key string) ([]byte, bool) {
	v, ok := ksQuickCache.Get(key)
	if !ok {
		return nil, false
	}
	entry := v.(ksCacheEntry)
	if time.Since(entry.cachedAt) > ksQuickCacheTTL {
		ksQuickCache.Remove(key)
		return nil, false
	}
	return entry.data, true
}

func ksQuickCacheSet(key string, data []byte) {
	ksQuickCache.Add(key, ksCacheEntry{data: data, cachedAt: time.Now()})
}
