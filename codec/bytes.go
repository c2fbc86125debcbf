package codec

// BytesCodec passes byte slices through unchanged (copying, so the
// DataStore and the caller never share backing arrays).
type BytesCodec struct{}

func (BytesCodec) ToBytes(item []byte) ([]byte, error) {
	if item == nil {
		return nil, nil
	}
	out := make([]byte, len(item))
	copy(out, item)
	return out, nil
}

func (BytesCodec) FromBytes(b []byte) ([]byte, error) {
	if b == nil {
		return nil, nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}
