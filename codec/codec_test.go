package codec

import (
	"reflect"
	"testing"
)

func TestStringRoundTrip(t *testing.T) {
	c := StringCodec{}
	b, err := c.ToBytes("hello")
	if err != nil {
		t.Fatalf("ToBytes: %v", err)
	}
	got, err := c.FromBytes(b)
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	if got != "hello" {
		t.Errorf("got %q, want %q", got, "hello")
	}
}

func TestStringFromNilIsEmpty(t *testing.T) {
	c := StringCodec{}
	got, err := c.FromBytes(nil)
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	if got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestBytesRoundTrip(t *testing.T) {
	c := BytesCodec{}
	in := []byte{1, 2, 3, 4}
	b, _ := c.ToBytes(in)
	got, _ := c.FromBytes(b)
	if !reflect.DeepEqual(got, in) {
		t.Errorf("got %v, want %v", got, in)
	}
}

func TestVoidRejectsNonAbsent(t *testing.T) {
	c := VoidCodec{}
	if _, err := c.FromBytes([]byte{1}); err == nil {
		t.Errorf("expected error decoding non-absent bytes")
	}
	b, err := c.ToBytes(Void{})
	if err != nil || b != nil {
		t.Errorf("expected nil, nil; got %v, %v", b, err)
	}
}

func TestFloat32VectorRoundTrip(t *testing.T) {
	c := Float32VectorCodec{}
	in := []float32{1.5, -2.25, 0, 3.125}
	b, err := c.ToBytes(in)
	if err != nil {
		t.Fatalf("ToBytes: %v", err)
	}
	got, err := c.FromBytes(b)
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	if !reflect.DeepEqual(got, in) {
		t.Errorf("got %v, want %v", got, in)
	}
}

func TestFloat64VectorRoundTrip(t *testing.T) {
	c := Float64VectorCodec{}
	in := []float64{1.5, -2.25, 0, 3.125}
	b, err := c.ToBytes(in)
	if err != nil {
		t.Fatalf("ToBytes: %v", err)
	}
	got, err := c.FromBytes(b)
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	if !reflect.DeepEqual(got, in) {
		t.Errorf("got %v, want %v", got, in)
	}
}

func TestFloat32VectorBadLength(t *testing.T) {
	c := Float32VectorCodec{}
	if _, err := c.FromBytes([]byte{1, 2, 3}); err == nil {
		t.Errorf("expected error for truncated buffer")
	}
}
