// Package cache memoises alternatives lookups.
//
// Keys carry the catalog fingerprint so a dataset reload never serves results
// computed against the previous catalog.
package cache

import (
	"fmt"
)

// DefaultCapacity is the in-process cache size when none is configured
const DefaultCapacity = 1024

// Key builds the cache key for an alternatives lookup. name must be the
// resolved catalog name: two rows differing only in case are distinct keys.
func Key(fingerprint, name string, k int) string {
	return fmt.Sprintf("%s:%d:%s", fingerprint, k, name)
}
