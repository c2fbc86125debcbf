// Package id implements the 128-bit sortable identifier used throughout
// the tree engine for node, page, tuple, and transaction ids.
package id

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"time"
)

// Size is the byte length of an Identifier.
const Size = 16

// Identifier is a 128-bit value whose leading 6 bytes encode a
// wall-clock millisecond timestamp and whose remaining 10 bytes are
// cryptographically random. Total order on the raw bytes is
// approximately insertion order.
type Identifier [Size]byte

// Zero is the absent/unset identifier (all zero bytes). A NodeHeader's
// parent_id and a tree's root_id use Zero to mean "absent" rather than
// a pointer-style nil, since Identifier is a value type.
var Zero Identifier

// New returns a fresh Identifier. The first 6 bytes are the current
// wall-clock millisecond count, big-endian; the remaining 10 bytes are
// random. No two calls in the same process return equal values: ties in
// the millisecond field are broken by the random tail, whose birthday
// collision probability at 80 bits is negligible at any realistic
// insertion rate.
func New() Identifier {
	var out Identifier
	millis := uint64(time.Now().UnixMilli())

	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], millis)
	copy(out[0:6], buf[2:8])

	if _, err := rand.Read(out[6:]); err != nil {
		panic(fmt.Sprintf("id: crypto/rand failed: %v", err))
	}
	return out
}

// IsZero reports whether id is the absent identifier.
func (i Identifier) IsZero() bool {
	return i == Zero
}

// Compare returns -1, 0, or 1 as i is less than, equal to, or greater
// than other, comparing raw bytes lexicographically (equivalently,
// insertion-time order with random tie-breaking).
func (i Identifier) Compare(other Identifier) int {
	for k := 0; k < Size; k++ {
		if i[k] != other[k] {
			if i[k] < other[k] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// Less reports whether i sorts before other. Convenient for sort.Slice
// and other ascending-order comparisons.
func (i Identifier) Less(other Identifier) bool {
	return i.Compare(other) < 0
}

// Bytes returns a copy of the identifier's raw bytes.
func (i Identifier) Bytes() []byte {
	b := make([]byte, Size)
	copy(b, i[:])
	return b
}

// FromBytes reconstructs an Identifier from exactly Size bytes.
func FromBytes(b []byte) (Identifier, error) {
	var out Identifier
	if len(b) != Size {
		return out, fmt.Errorf("id: FromBytes: want %d bytes, got %d", Size, len(b))
	}
	copy(out[:], b)
	return out, nil
}

// String renders the identifier as unpadded base64 URL-safe text.
func (i Identifier) String() string {
	return base64.RawURLEncoding.EncodeToString(i[:])
}

// Parse is the inverse of String.
func Parse(s string) (Identifier, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return Identifier{}, fmt.Errorf("id: Parse: %w", err)
	}
	return FromBytes(b)
}

// Time extracts the millisecond timestamp embedded in the identifier's
// leading bytes. Only meaningful for ids produced by New.
func (i Identifier) Time() time.Time {
	var buf [8]byte
	copy(buf[2:8], i[0:6])
	millis := binary.BigEndian.Uint64(buf[:])
	return time.UnixMilli(int64(millis))
}
