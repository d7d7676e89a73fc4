package ble

import "testing"

func TestAddressString(t *testing.T) {
	a := Address{Type: AddrRandom, Addr: [6]byte{0xC0, 0x11, 0x22, 0x33, 0x44, 0x55}}
	if got, want := a.String(), "c0:11:22:33:44:55"; got != want {
		t.Errorf("Address.String: got %q want %q", got, want)
	}
}

func TestConnParamWire(t *testing.T) {
	p := ConnectionParams{IntervalMin: 24, IntervalMax: 40, Latency: 4, Timeout: 400}
	w := p.Wire()
	if w.IntervalMin != 24 || w.IntervalMax != 40 || w.Latency != 4 || w.Timeout != 400 {
		t.Errorf("Wire: got %+v", w)
	}
	if got := w.Params(); got != p {
		t.Errorf("Params round trip: got %+v want %+v", got, p)
	}
}

func TestScanParamWire(t *testing.T) {
	p := ScanParams{
		Type:          ScanActive,
		Options:       ScanOptFilterDuplicate | ScanOptCoded,
		Interval:      0x60,
		Window:        0x30,
		Timeout:       100,
		IntervalCoded: 0x80,
		WindowCoded:   0x40,
	}
	w := p.Wire()
	if w.Type != 0x01 {
		t.Errorf("Wire type: got %02x", w.Type)
	}
	if w.Options != uint32(ScanOptFilterDuplicate|ScanOptCoded) {
		t.Errorf("Wire options: got %08x", w.Options)
	}
	if w.Interval != 0x60 || w.Window != 0x30 || w.Timeout != 100 ||
		w.IntervalCoded != 0x80 || w.WindowCoded != 0x40 {
		t.Errorf("Wire: got %+v", w)
	}
}

func TestAdvParamWire(t *testing.T) {
	p := AdvertisingParams{
		ID:               1,
		SID:              2,
		SecondaryMaxSkip: 3,
		Options:          AdvOptConnectable | AdvOptForceNameInAd,
		IntervalMin:      0xA0,
		IntervalMax:      0xF0,
	}
	w := p.Wire()
	if w.ID != 1 || w.SID != 2 || w.SecondaryMaxSkip != 3 {
		t.Errorf("Wire identity fields: got %+v", w)
	}
	if w.Options != uint32(AdvOptConnectable|AdvOptForceNameInAd) {
		t.Errorf("Wire options: got %08x", w.Options)
	}
	if w.IntervalMin != 0xA0 || w.IntervalMax != 0xF0 {
		t.Errorf("Wire intervals: got %+v", w)
	}
	if w.Peer != nil {
		t.Error("absent peer should stay nil")
	}

	peer := &Address{Type: AddrPublic, Addr: [6]byte{1, 2, 3, 4, 5, 6}}
	p.Peer = peer
	if got := p.Wire().Peer; got != peer {
		t.Errorf("Wire peer: got %v want %v", got, peer)
	}
}

func TestBits(t *testing.T) {
	if got := (FlagLimitedDiscoverable | FlagNoBREDR).Bits(); got != 0x05 {
		t.Errorf("AdvFlags.Bits: got %02x", got)
	}
	if got := (AdvOptUseName | AdvOptForceNameInAd).Bits(); got != 0x1008 {
		t.Errorf("AdvOptions.Bits: got %04x", got)
	}
	if got := ScanOptNo1M.Bits(); got != 0x04 {
		t.Errorf("ScanOptions.Bits: got %02x", got)
	}
}
