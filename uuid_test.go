package ble

import (
	"bytes"
	"testing"
)

func TestUUID16(t *testing.T) {
	if want, got := (UUID{[]byte{0x18, 0x00}}), UUID16(0x1800); !got.Equal(want) {
		t.Errorf("UUID16: got %x, want %x", got.b, want.b)
	}
	if got := UUID16(0x1800).Len(); got != 2 {
		t.Errorf("UUID16 Len: got %d, want 2", got)
	}
}

func TestParseUUID(t *testing.T) {
	cases := []struct {
		s    string
		want UUID
	}{
		{s: "180d", want: UUID16(0x180D)},
		{s: "0000180d", want: UUID32(0x180D)},
		{s: "0000180d-0000-1000-8000-00805f9b34fb", want: UUID16(0x180D).Expand()},
	}
	for _, tt := range cases {
		got, err := ParseUUID(tt.s)
		if err != nil {
			t.Errorf("ParseUUID(%q): %v", tt.s, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseUUID(%q): got %x want %x", tt.s, got.b, tt.want.b)
		}
	}
	if _, err := ParseUUID("not-a-uuid"); err == nil {
		t.Error("ParseUUID on garbage should fail")
	}
}

func TestExpand(t *testing.T) {
	want := "0000180d-0000-1000-8000-00805f9b34fb"
	if got := UUID16(0x180D).Expand().String(); got != want {
		t.Errorf("Expand(0x180D): got %q want %q", got, want)
	}
	want = "12345678-0000-1000-8000-00805f9b34fb"
	if got := UUID32(0x12345678).Expand().String(); got != want {
		t.Errorf("Expand(0x12345678): got %q want %q", got, want)
	}

	// Expanding a 128-bit UUID must be a copy, not an alias.
	u := MustParseUUID("ABABABAB-CDCD-EFEF-0101-232323232323")
	e := u.Expand()
	if !e.Equal(u) {
		t.Errorf("Expand(128-bit) changed value: got %x want %x", e.b, u.b)
	}
	e.b[0] = 0xFF
	if u.b[0] == 0xFF {
		t.Error("Expand(128-bit) aliases its receiver")
	}
}

func TestReduceRoundTrip(t *testing.T) {
	for _, n := range []uint16{0x0000, 0x0001, 0x1800, 0x180D, 0x2A37, 0xFFFF} {
		if got := UUID16(n).Expand().Reduce16(); got != n {
			t.Errorf("Reduce16(Expand(%04x)): got %04x", n, got)
		}
	}
	for _, n := range []uint32{0x00000000, 0x0000180D, 0x12345678, 0xFFFFFFFF} {
		if got := UUID32(n).Expand().Reduce32(); got != n {
			t.Errorf("Reduce32(Expand(%08x)): got %08x", n, got)
		}
	}
}

func TestReduceTruncates(t *testing.T) {
	// Non-base bytes differ: the reduction is a documented truncation
	// of the leading field, never an error.
	u := MustParseUUID("0000180d-1111-2222-3333-444444444444")
	if got := u.Reduce16(); got != 0x180D {
		t.Errorf("Reduce16: got %04x want 180d", got)
	}
	if got := u.Reduce32(); got != 0x0000180D {
		t.Errorf("Reduce32: got %08x want 0000180d", got)
	}
}

func TestReduceZeroUUID(t *testing.T) {
	var u UUID
	if got := u.Reduce32(); got != 0 {
		t.Errorf("Reduce32 of zero UUID: got %08x", got)
	}
	if got := u.Reduce16(); got != 0 {
		t.Errorf("Reduce16 of zero UUID: got %04x", got)
	}
	// Reachable through a service without a leading declaration.
	if got := NewService().UUID().Reduce16(); got != 0 {
		t.Errorf("Reduce16 of empty service UUID: got %04x", got)
	}
}

func TestEqualWidthSensitive(t *testing.T) {
	cases := []struct {
		a, b UUID
		want bool
	}{
		{a: UUID16(0x1234), b: UUID16(0x1234), want: true},
		{a: UUID16(0x1234), b: UUID16(0x1235), want: false},
		{a: UUID16(0x1234), b: UUID32(0x1234), want: false},
		{a: UUID16(0x1234), b: UUID16(0x1234).Expand(), want: false},
		{a: UUID16(0x1234).Expand(), b: UUID32(0x1234).Expand(), want: true},
	}
	for _, tt := range cases {
		if got := tt.a.Equal(tt.b); got != tt.want {
			t.Errorf("Equal(%x, %x): got %v want %v", tt.a.b, tt.b.b, got, tt.want)
		}
	}
}

func TestReverse(t *testing.T) {
	cases := []struct {
		fwd  []byte
		back []byte
	}{
		{fwd: []byte{0, 1}, back: []byte{1, 0}},
		{fwd: []byte{0, 1, 2}, back: []byte{2, 1, 0}},
		{fwd: []byte{0, 1, 2, 3}, back: []byte{3, 2, 1, 0}},
		{
			fwd:  []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15},
			back: []byte{15, 14, 13, 12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1, 0},
		},
	}

	for _, tt := range cases {
		got := reverse(tt.fwd)
		if !bytes.Equal(got, tt.back) {
			t.Errorf("reverse(%x): got %x want %x", tt.fwd, got, tt.back)
		}

		u := UUID{tt.fwd}
		got = u.reverseBytes()
		if !bytes.Equal(got, tt.back) {
			t.Errorf("UUID.reverseBytes(%x): got %x want %x", tt.fwd, got, tt.back)
		}
	}
}

func TestOnAirOrder(t *testing.T) {
	// A 16-bit UUID goes on air as its little-endian value.
	if got := UUID16(0x180D).reverseBytes(); !bytes.Equal(got, []byte{0x0D, 0x18}) {
		t.Errorf("on-air UUID16(0x180D): got %x want 0d18", got)
	}
	// A 128-bit UUID goes on air fully reversed relative to its
	// textual form.
	u := MustParseUUID("00001234-0000-1000-8000-00805f9b34fb")
	want := []byte{
		0xFB, 0x34, 0x9B, 0x5F, 0x80, 0x00, 0x00, 0x80,
		0x00, 0x10, 0x00, 0x00, 0x34, 0x12, 0x00, 0x00,
	}
	if got := u.reverseBytes(); !bytes.Equal(got, want) {
		t.Errorf("on-air 128-bit: got %x want %x", got, want)
	}
}

func BenchmarkReverseBytes16(b *testing.B) {
	u := UUID{make([]byte, 2)}
	for i := 0; i < b.N; i++ {
		u.reverseBytes()
	}
}

func BenchmarkReverseBytes128(b *testing.B) {
	u := UUID{make([]byte, 16)}
	for i := 0; i < b.N; i++ {
		u.reverseBytes()
	}
}
