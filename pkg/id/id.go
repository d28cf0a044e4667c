// Package id issues time-sortable run identifiers.
package id

import (
	cryptoRand "crypto/rand"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	mu      sync.Mutex
	entropy io.Reader
)

// New returns a ULID stamped with the current time.
func New() string {
	return At(time.Now())
}

// At returns a ULID stamped with t. IDs issued within the same millisecond
// still sort in issue order.
func At(t time.Time) string {
	mu.Lock()
	defer mu.Unlock()
	if entropy == nil {
		entropy = ulid.Monotonic(cryptoRand.Reader, 0)
	}
	return ulid.MustNew(ulid.Timestamp(t.UTC()), entropy).String()
}

// Time recovers the millisecond timestamp encoded in id.
func Time(id string) (time.Time, error) {
	u, err := ulid.ParseStrict(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(u.Time()).UTC(), nil
}
