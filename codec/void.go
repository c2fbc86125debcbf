package codec

import "errors"

// ErrNotVoid is returned by VoidCodec.FromBytes when given non-nil
// bytes; the void codec's whole point is that there is never any
// payload to encode (e.g. a key-only set where V carries no data).
var ErrNotVoid = errors.New("codec: void codec rejects non-absent input")

// Void is the unit type VoidCodec operates on.
type Void struct{}

// VoidCodec always encodes to/decodes from an absent (nil) byte slice.
// It exists for trees used as sets rather than maps, where V = Void.
type VoidCodec struct{}

func (VoidCodec) ToBytes(item Void) ([]byte, error) {
	return nil, nil
}

func (VoidCodec) FromBytes(b []byte) (Void, error) {
	if b != nil {
		return Void{}, ErrNotVoid
	}
	return Void{}, nil
}
