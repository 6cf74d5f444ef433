// Package ids issues ULIDs for storage keys. ULIDs sort by creation time,
// which keeps a customer's recent orders adjacent in index scans.
package ids

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	mu  sync.Mutex
	gen = ulid.Monotonic(rand.Reader, 0)
)

// New returns a fresh identifier. Safe for concurrent use; identifiers
// generated within the same millisecond still sort in creation order.
func New() string {
	mu.Lock()
	defer mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now().UTC()), gen).String()
}

// Timestamp extracts the creation time embedded in an identifier.
func Timestamp(id string) (time.Time, error) {
	parsed, err := ulid.ParseStrict(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()).UTC(), nil
}
