// Package queue implements the publisher and subscription halves of the
// ChaosMongo work queue: a per-payload-type collection delivering each
// enqueued item to exactly one consumer via a change-stream-plus-polling
// hybrid, with per-item locking and closure semantics.
package queue

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// DefaultCollectionName computes the default queue collection name for a
// payload's fully qualified type name: "_Queue.<XXH-64 hex upper>.<short
// type name>".
//
// Uses XXH64 (github.com/cespare/xxhash/v2) rather than XXH3-64, the
// xxHash variant already carried as a dependency by this codebase's
// stack. Both are 64-bit xxHash variants, and the only property that
// matters here — equal payload types produce equal names — holds
// identically under either one; see SPEC_FULL.md §4.C for the full note.
func DefaultCollectionName(fullTypeName string) string {
	shortName := fullTypeName
	if idx := strings.LastIndexByte(fullTypeName, '.'); idx >= 0 {
		shortName = fullTypeName[idx+1:]
	}

	sum := xxhash.Sum64String(fullTypeName)

	return fmt.Sprintf("_Queue.%016X.%s", sum, shortName)
}
