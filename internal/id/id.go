// Package id generates the time-ordered identifiers used for rules and
// log entries. IDs are ULIDs: lexicographic order follows creation order,
// and a per-millisecond counter keeps them unique under bursts.
package id

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"
)

// Crockford Base32, excludes I, L, O and U.
const encoding = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

var (
	mu      sync.Mutex
	lastMs  int64
	counter uint16
)

// New returns a fresh ULID: 10 characters of millisecond timestamp followed
// by 16 characters of randomness. Two calls within the same millisecond get
// distinct IDs via a counter mixed into the random section.
func New() string {
	mu.Lock()
	defer mu.Unlock()

	now := time.Now().UnixMilli()
	if now == lastMs {
		counter++
		if counter == 0 {
			// Counter wrapped, wait out the millisecond.
			for now == lastMs {
				time.Sleep(time.Millisecond)
				now = time.Now().UnixMilli()
			}
			lastMs = now
		}
	} else {
		lastMs = now
		counter = 0
	}

	return encode(now, counter)
}

func encode(ms int64, ctr uint16) string {
	out := make([]byte, 26)

	// 48-bit timestamp across the first 10 characters, 5 bits each.
	ts := ms
	for i := 9; i >= 0; i-- {
		out[i] = encoding[ts&0x1F]
		ts >>= 5
	}

	random := make([]byte, 10)
	_, _ = rand.Read(random)
	random[0] ^= byte(ctr >> 8)
	random[1] ^= byte(ctr)

	// 80 random bits across the remaining 16 characters.
	var acc uint32
	bits := 0
	pos := 10
	for _, b := range random {
		acc = acc<<8 | uint32(b)
		bits += 8
		for bits >= 5 {
			bits -= 5
			out[pos] = encoding[(acc>>uint(bits))&0x1F]
			pos++
		}
	}

	return string(out)
}

// Time extracts the embedded timestamp from an ID produced by New.
func Time(ulid string) (time.Time, error) {
	if len(ulid) != 26 {
		return time.Time{}, fmt.Errorf("invalid id length: %d", len(ulid))
	}
	var ms int64
	for i := 0; i < 10; i++ {
		v := decodeChar(ulid[i])
		if v < 0 {
			return time.Time{}, fmt.Errorf("invalid id character %q at position %d", ulid[i], i)
		}
		ms = ms<<5 | int64(v)
	}
	return time.UnixMilli(ms), nil
}

func decodeChar(c byte) int {
	for i := 0; i < len(encoding); i++ {
		if encoding[i] == c {
			return i
		}
	}
	return -1
}
