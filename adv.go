package ble

// MaxEIRPacketLength is the maximum allowed advertising-data
// and scan-response-data length for legacy advertising. The codec
// does not enforce it; the host rejects oversize streams.
const MaxEIRPacketLength = 31

// Advertising data field types.
const (
	typeFlags        = 0x01 // flags
	typeSomeUUID16   = 0x02 // more 16-bit UUIDs available
	typeAllUUID16    = 0x03 // complete list of 16-bit UUIDs available
	typeSomeUUID32   = 0x04 // more 32-bit UUIDs available
	typeAllUUID32    = 0x05 // complete list of 32-bit UUIDs available
	typeSomeUUID128  = 0x06 // more 128-bit UUIDs available
	typeAllUUID128   = 0x07 // complete list of 128-bit UUIDs available
	typeShortName    = 0x08 // shortened local name
	typeCompleteName = 0x09 // complete local name
)

// A RawRecord is a single advertising record in the shape the host
// consumes: a type byte and the undecoded value bytes.
type RawRecord struct {
	Type byte
	Data []byte
}

// Marshal encodes r as a TLV record: [type][len][value], where the
// length byte counts the type byte once plus the value bytes, per the
// BLE AD convention used here.
func (r RawRecord) Marshal() []byte {
	b := make([]byte, 0, 2+len(r.Data))
	b = append(b, r.Type, byte(len(r.Data)+1))
	return append(b, r.Data...)
}

// A Field is one typed element of an advertising or scan-response
// payload. The concrete types are Flags, UUIDList, CompleteName,
// ShortenedName, and RawField; the set is closed.
type Field interface {
	// raw lowers the field to its wire records. All fields lower to
	// exactly one record except a UUIDList of mixed widths, which
	// produces one record per run of equal-width UUIDs.
	raw() []RawRecord
}

// Flags is the advertising flags field (discoverability bits).
type Flags AdvFlags

func (f Flags) raw() []RawRecord {
	return []RawRecord{{Type: typeFlags, Data: []byte{byte(f)}}}
}

// A UUIDList advertises service UUIDs. All members should share one
// width; the wire type is selected by member width and by whether the
// list is complete. Member bytes are emitted in on-air (reversed)
// order.
type UUIDList struct {
	UUIDs    []UUID
	Complete bool
}

// uuidListType maps a UUID width to the AD type code for a list of
// that width.
func uuidListType(w int, complete bool) byte {
	var some, all byte
	switch w {
	case 2:
		some, all = typeSomeUUID16, typeAllUUID16
	case 4:
		some, all = typeSomeUUID32, typeAllUUID32
	default:
		some, all = typeSomeUUID128, typeAllUUID128
	}
	if complete {
		return all
	}
	return some
}

func (l UUIDList) raw() []RawRecord {
	var rr []RawRecord
	uu := l.UUIDs
	for len(uu) > 0 {
		w := uu[0].Len()
		var data []byte
		for len(uu) > 0 && uu[0].Len() == w {
			data = append(data, uu[0].reverseBytes()...)
			uu = uu[1:]
		}
		rr = append(rr, RawRecord{Type: uuidListType(w, l.Complete), Data: data})
	}
	if rr == nil {
		rr = []RawRecord{{Type: uuidListType(2, l.Complete)}}
	}
	return rr
}

// CompleteName is the complete local name field.
type CompleteName string

func (n CompleteName) raw() []RawRecord {
	return []RawRecord{{Type: typeCompleteName, Data: []byte(n)}}
}

// ShortenedName is the shortened local name field.
type ShortenedName string

func (n ShortenedName) raw() []RawRecord {
	return []RawRecord{{Type: typeShortName, Data: []byte(n)}}
}

// A RawField preserves a record whose type this package does not
// interpret. Decoding never drops records: unknown types round-trip
// verbatim.
type RawField struct {
	Typ  byte
	Data []byte
}

func (f RawField) raw() []RawRecord {
	return []RawRecord{{Type: f.Typ, Data: f.Data}}
}

// Lower flattens fields into the per-record shape handed to the host.
func Lower(fields []Field) []RawRecord {
	var rr []RawRecord
	for _, f := range fields {
		rr = append(rr, f.raw()...)
	}
	return rr
}

// Marshal encodes fields as a single advertising-data octet stream:
// the concatenation of each field's TLV records with no separators.
// The stream length is not capped here; see MaxEIRPacketLength.
func Marshal(fields []Field) []byte {
	var b []byte
	for _, r := range Lower(fields) {
		b = append(b, r.Marshal()...)
	}
	return b
}

// Unmarshal scans b left to right, decoding one TLV record at a time
// and passing each decoded field to fn. Scanning continues while fn
// returns true, mirroring the host's record-by-record callback
// contract. A record whose declared length overruns the buffer ends
// the scan; everything decoded before it has already been delivered.
func Unmarshal(b []byte, fn func(Field) bool) {
	for len(b) >= 2 {
		typ, l := b[0], int(b[1])
		if l < 1 || len(b) < 1+l {
			return
		}
		f := decodeField(typ, b[2:1+l])
		if !fn(f) {
			return
		}
		b = b[1+l:]
	}
}

// UnmarshalFields decodes every record in b, stopping early only on a
// malformed record. Unknown types are preserved as RawField values.
func UnmarshalFields(b []byte) []Field {
	var ff []Field
	Unmarshal(b, func(f Field) bool {
		ff = append(ff, f)
		return true
	})
	return ff
}

func decodeField(typ byte, d []byte) Field {
	switch typ {
	case typeFlags:
		if len(d) >= 1 {
			return Flags(d[0])
		}
	case typeSomeUUID16, typeSomeUUID32, typeSomeUUID128:
		return UUIDList{UUIDs: uuidList(d, listWidth(typ)), Complete: false}
	case typeAllUUID16, typeAllUUID32, typeAllUUID128:
		return UUIDList{UUIDs: uuidList(d, listWidth(typ)), Complete: true}
	case typeShortName:
		return ShortenedName(d)
	case typeCompleteName:
		return CompleteName(d)
	}
	var data []byte
	if len(d) > 0 {
		data = make([]byte, len(d))
		copy(data, d)
	}
	return RawField{Typ: typ, Data: data}
}

func listWidth(typ byte) int {
	switch typ {
	case typeSomeUUID16, typeAllUUID16:
		return 2
	case typeSomeUUID32, typeAllUUID32:
		return 4
	default:
		return 16
	}
}

// uuidList splits d into UUIDs of width w, undoing the on-air byte
// reversal. A trailing partial chunk is ignored.
func uuidList(d []byte, w int) []UUID {
	var uu []UUID
	for len(d) >= w {
		uu = append(uu, UUID{reverse(d[:w])})
		d = d[w:]
	}
	return uu
}
