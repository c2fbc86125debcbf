// Package codec defines the byte-conversion contract the tree engine
// uses at its storage boundary, plus a handful of reference codecs.
package codec

// Codec converts values of type T to and from the opaque byte sequences
// the DataStore persists. Whether a nil/absent byte slice is a valid
// input to FromBytes, and whether ToBytes may return nil, is documented
// per concrete codec.
type Codec[T any] interface {
	// ToBytes encodes item. Returns nil only if the codec documents
	// that absent values are representable.
	ToBytes(item T) ([]byte, error)

	// FromBytes decodes b. A nil b is only valid if the codec
	// documents that absent values are representable.
	FromBytes(b []byte) (T, error)
}
