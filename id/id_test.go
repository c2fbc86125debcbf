package id

import "testing"

func TestNewDistinct(t *testing.T) {
	seen := make(map[Identifier]bool)
	for i := 0; i < 1000; i++ {
		n := New()
		if seen[n] {
			t.Fatalf("duplicate id generated: %v", n)
		}
		seen[n] = true
	}
}

func TestZeroIsZero(t *testing.T) {
	var z Identifier
	if !z.IsZero() {
		t.Errorf("zero value should report IsZero")
	}
	if New().IsZero() {
		t.Errorf("fresh id should not be zero")
	}
}

func TestByteRoundTrip(t *testing.T) {
	want := New()
	got, err := FromBytes(want.Bytes())
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	if got != want {
		t.Errorf("round trip mismatch: got %v want %v", got, want)
	}
}

func TestFromBytesWrongLength(t *testing.T) {
	if _, err := FromBytes([]byte{1, 2, 3}); err == nil {
		t.Errorf("expected error for short byte slice")
	}
}

func TestStringRoundTrip(t *testing.T) {
	want := New()
	got, err := Parse(want.String())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got != want {
		t.Errorf("round trip mismatch: got %v want %v", got, want)
	}
}

func TestCompareTotalOrder(t *testing.T) {
	a := Identifier{0, 0, 0}
	b := Identifier{0, 0, 1}
	if !a.Less(b) {
		t.Errorf("expected a < b")
	}
	if a.Compare(a) != 0 {
		t.Errorf("expected equal identifiers to compare 0")
	}
	if b.Compare(a) != 1 {
		t.Errorf("expected b > a")
	}
}
