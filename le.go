package ble

import "fmt"

// AdvFlags are the discoverability bits carried by the Flags
// advertising field.
type AdvFlags byte

const (
	FlagLimitedDiscoverable AdvFlags = 1 << 0 // LE Limited Discoverable Mode
	FlagGeneralDiscoverable AdvFlags = 1 << 1 // LE General Discoverable Mode
	FlagNoBREDR             AdvFlags = 1 << 2 // BR/EDR not supported
)

// Bits returns the flattened bit representation.
func (f AdvFlags) Bits() byte { return byte(f) }

// AdvOptions select advertising behavior.
type AdvOptions uint32

const (
	AdvOptNone          AdvOptions = 0
	AdvOptConnectable   AdvOptions = 1 << 0
	AdvOptOneTime       AdvOptions = 1 << 1
	AdvOptUseIdentity   AdvOptions = 1 << 2
	AdvOptUseName       AdvOptions = 1 << 3
	AdvOptForceNameInAd AdvOptions = 1 << 12
)

// Bits returns the flattened bit representation.
func (o AdvOptions) Bits() uint32 { return uint32(o) }

// ScanType selects passive or active scanning.
type ScanType byte

const (
	ScanPassive ScanType = 0x00
	ScanActive  ScanType = 0x01
)

// ScanOptions select scanning behavior.
type ScanOptions uint32

const (
	ScanOptNone            ScanOptions = 0
	ScanOptFilterDuplicate ScanOptions = 1 << 0
	ScanOptCoded           ScanOptions = 1 << 1
	ScanOptNo1M            ScanOptions = 1 << 2
)

// Bits returns the flattened bit representation.
func (o ScanOptions) Bits() uint32 { return uint32(o) }

// AddressType is the LE address type of an Address. Values outside the
// four assigned ones are carried through untouched.
type AddressType byte

const (
	AddrPublic   AddressType = 0x00
	AddrRandom   AddressType = 0x01
	AddrPublicID AddressType = 0x02
	AddrRandomID AddressType = 0x03
)

// An Address is a 6-byte LE device address plus its type.
type Address struct {
	Type AddressType
	Addr [6]byte
}

func (a Address) String() string {
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x",
		a.Addr[0], a.Addr[1], a.Addr[2], a.Addr[3], a.Addr[4], a.Addr[5])
}

// ConnectionParams are the LE connection parameters, in the units the
// host uses (1.25 ms intervals, 10 ms timeout). No range validation is
// performed here; out-of-range values are the host's to reject.
type ConnectionParams struct {
	IntervalMin uint16
	IntervalMax uint16
	Latency     uint16
	Timeout     uint16
}

// ConnParamWire is the fixed-layout form of ConnectionParams handed to
// the host.
type ConnParamWire struct {
	IntervalMin uint16
	IntervalMax uint16
	Latency     uint16
	Timeout     uint16
}

// Wire returns the fixed-layout wire form of p.
func (p ConnectionParams) Wire() ConnParamWire {
	return ConnParamWire{
		IntervalMin: p.IntervalMin,
		IntervalMax: p.IntervalMax,
		Latency:     p.Latency,
		Timeout:     p.Timeout,
	}
}

// Params converts the wire form back to ConnectionParams, for host
// callbacks that deliver the wire layout.
func (w ConnParamWire) Params() ConnectionParams {
	return ConnectionParams{
		IntervalMin: w.IntervalMin,
		IntervalMax: w.IntervalMax,
		Latency:     w.Latency,
		Timeout:     w.Timeout,
	}
}

// ScanParams configure a scan request.
type ScanParams struct {
	Type          ScanType
	Options       ScanOptions
	Interval      uint16
	Window        uint16
	Timeout       uint16
	IntervalCoded uint16
	WindowCoded   uint16
}

// ScanParamWire is the fixed-layout form of ScanParams handed to the
// host, with the option bitset flattened.
type ScanParamWire struct {
	Type          byte
	Options       uint32
	Interval      uint16
	Window        uint16
	Timeout       uint16
	IntervalCoded uint16
	WindowCoded   uint16
}

// Wire returns the fixed-layout wire form of p.
func (p ScanParams) Wire() ScanParamWire {
	return ScanParamWire{
		Type:          byte(p.Type),
		Options:       p.Options.Bits(),
		Interval:      p.Interval,
		Window:        p.Window,
		Timeout:       p.Timeout,
		IntervalCoded: p.IntervalCoded,
		WindowCoded:   p.WindowCoded,
	}
}

// AdvertisingParams configure advertising. Peer is optional; it is
// only set for directed advertising.
type AdvertisingParams struct {
	ID               uint8
	SID              uint8
	SecondaryMaxSkip uint8
	Options          AdvOptions
	IntervalMin      uint32
	IntervalMax      uint32
	Peer             *Address
}

// AdvParamWire is the fixed-layout form of AdvertisingParams handed to
// the host. An absent peer address is a nil pointer.
type AdvParamWire struct {
	ID               uint8
	SID              uint8
	SecondaryMaxSkip uint8
	Options          uint32
	IntervalMin      uint32
	IntervalMax      uint32
	Peer             *Address
}

// Wire returns the fixed-layout wire form of p.
func (p AdvertisingParams) Wire() AdvParamWire {
	return AdvParamWire{
		ID:               p.ID,
		SID:              p.SID,
		SecondaryMaxSkip: p.SecondaryMaxSkip,
		Options:          p.Options.Bits(),
		IntervalMin:      p.IntervalMin,
		IntervalMax:      p.IntervalMax,
		Peer:             p.Peer,
	}
}
