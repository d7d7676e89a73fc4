package ble

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
)

// baseUUID is the Bluetooth SIG base UUID,
// 00000000-0000-1000-8000-00805F9B34FB, into which all
// 16-bit and 32-bit UUIDs expand.
var baseUUID = [16]byte{
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x10, 0x00,
	0x80, 0x00, 0x00, 0x80, 0x5F, 0x9B, 0x34, 0xFB,
}

// A UUID is a BLE UUID. It holds 2, 4, or 16 bytes in the big-endian
// order of the textual representation. The length is part of the UUID's
// identity: a 16-bit and a 128-bit UUID never compare equal, even when
// the 128-bit one is the expansion of the 16-bit value.
type UUID struct {
	b []byte
}

// UUID16 converts a uint16 (such as 0x1800) to a UUID.
func UUID16(i uint16) UUID {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, i)
	return UUID{b}
}

// UUID32 converts a uint32 (such as 0x12345678) to a UUID.
func UUID32(i uint32) UUID {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, i)
	return UUID{b}
}

// ParseUUID parses a standard-format UUID string, such
// as "1000" or "0000100d-0000-1000-8000-00805f9b34fb".
func ParseUUID(s string) (UUID, error) {
	switch len(s) {
	case 4:
		var n uint16
		if _, err := fmt.Sscanf(s, "%04x", &n); err != nil {
			return UUID{}, err
		}
		return UUID16(n), nil
	case 8:
		var n uint32
		if _, err := fmt.Sscanf(s, "%08x", &n); err != nil {
			return UUID{}, err
		}
		return UUID32(n), nil
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return UUID{}, err
	}
	return FromUUID(u), nil
}

// MustParseUUID parses a standard-format UUID string,
// like ParseUUID, but panics if the string is invalid.
func MustParseUUID(s string) UUID {
	u, err := ParseUUID(s)
	if err != nil {
		panic(err)
	}
	return u
}

// FromUUID converts a 128-bit RFC 4122 UUID value to a BLE UUID.
func FromUUID(u uuid.UUID) UUID {
	b := make([]byte, 16)
	copy(b, u[:])
	return UUID{b}
}

// Len returns the length of the UUID in bytes: 2, 4, or 16.
func (u UUID) Len() int {
	return len(u.b)
}

// String hex-encodes a UUID. 128-bit UUIDs use the
// canonical hyphenated form.
func (u UUID) String() string {
	if len(u.b) == 16 {
		var g uuid.UUID
		copy(g[:], u.b)
		return g.String()
	}
	return fmt.Sprintf("%x", u.b)
}

// Equal reports whether u and v are equal. Equality is width-sensitive:
// UUIDs of different lengths are unequal regardless of their numeric
// value. Callers wanting width-independent equality must Expand both
// sides first.
func (u UUID) Equal(v UUID) bool {
	if len(u.b) != len(v.b) {
		return false
	}
	for i, c := range u.b {
		if c != v.b[i] {
			return false
		}
	}
	return true
}

// Expand returns the 128-bit form of u: the base UUID with the leading
// four bytes replaced by u's numeric value. 128-bit UUIDs are returned
// as a copy of themselves. Expand never fails.
func (u UUID) Expand() UUID {
	b := make([]byte, 16)
	copy(b, baseUUID[:])
	switch len(u.b) {
	case 2:
		copy(b[2:4], u.b)
	case 4:
		copy(b[0:4], u.b)
	case 16:
		copy(b, u.b)
	}
	return UUID{b}
}

// Reduce16 extracts the 16-bit numeric field from u.
// For a 128-bit UUID the remaining bytes are assumed to match the base
// UUID; if they do not, the value is silently truncated. Callers must
// not rely on a particular result in that case.
func (u UUID) Reduce16() uint16 {
	return uint16(u.Reduce32())
}

// Reduce32 extracts the 32-bit numeric field from u, with the same
// truncation caveat as Reduce16. The zero UUID reduces to 0.
func (u UUID) Reduce32() uint32 {
	switch len(u.b) {
	case 2:
		return uint32(binary.BigEndian.Uint16(u.b))
	case 4:
		return binary.BigEndian.Uint32(u.b)
	case 16:
		return binary.BigEndian.Uint32(u.b[0:4])
	default:
		return 0
	}
}

// reverseBytes returns the on-air encoding of u: BLE transmits UUIDs
// in reversed (little-endian) byte order relative to the textual form.
func (u UUID) reverseBytes() []byte {
	return reverse(u.b)
}

// reverse returns a reversed copy of u.
func reverse(u []byte) []byte {
	b := make([]byte, len(u))
	for i := 0; i < len(u); i++ {
		b[i] = u[len(u)-i-1]
	}
	return b
}
