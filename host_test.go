package ble

// fakeHost plays the host stack for tests: it assigns handles the way
// the host contract promises (ascending, declaration order) and
// records every call so tests can inspect what crossed the boundary.
type fakeHost struct {
	HostAttrReader

	rc map[string]int // forced status code per entry point

	enabled     bool
	readyStatus int
	name        string
	cb          *ConnectionCallbacks

	nextHandle uint16
	services   []*Service

	advParam AdvParamWire
	ad, sd   []RawRecord
	advStops int

	scanParam ScanParamWire
	scanFn    ScanFunc
	scanStops int

	notified   []*NotifyParams
	discovered []*DiscoverParams
}

func newFakeHost() *fakeHost {
	return &fakeHost{rc: make(map[string]int), nextHandle: 1}
}

func (h *fakeHost) Enable(ready func(status int)) int {
	if rc := h.rc["enable"]; rc != 0 {
		return rc
	}
	h.enabled = true
	if ready != nil {
		ready(h.readyStatus)
	}
	return 0
}

func (h *fakeHost) SetName(name string) int {
	if rc := h.rc["setname"]; rc != 0 {
		return rc
	}
	h.name = name
	return 0
}

func (h *fakeHost) RegisterConnectionCallbacks(cb *ConnectionCallbacks) {
	h.cb = cb
}

func (h *fakeHost) RegisterService(s *Service) int {
	if rc := h.rc["register"]; rc != 0 {
		return rc
	}
	attrs := s.Attributes()
	for _, a := range attrs {
		if a.Handle == 0 {
			a.Handle = h.nextHandle
		}
		h.nextHandle = a.Handle + 1
	}
	for i, a := range attrs {
		if d, ok := a.Value.(*CharacteristicDecl); ok && i+1 < len(attrs) {
			d.ValueHandle = attrs[i+1].Handle
		}
	}
	h.services = append(h.services, s)
	return 0
}

func (h *fakeHost) StartAdvertising(p AdvParamWire, ad, sd []RawRecord) int {
	if rc := h.rc["adv"]; rc != 0 {
		return rc
	}
	h.advParam, h.ad, h.sd = p, ad, sd
	return 0
}

func (h *fakeHost) StopAdvertising() int {
	h.advStops++
	return h.rc["advstop"]
}

func (h *fakeHost) StartScanning(p ScanParamWire, fn ScanFunc) int {
	if rc := h.rc["scan"]; rc != 0 {
		return rc
	}
	h.scanParam, h.scanFn = p, fn
	return 0
}

func (h *fakeHost) StopScanning() int {
	h.scanStops++
	return h.rc["scanstop"]
}

func (h *fakeHost) Discover(c *Conn, p *DiscoverParams) int {
	if rc := h.rc["discover"]; rc != 0 {
		return rc
	}
	h.discovered = append(h.discovered, p)
	return 0
}

func (h *fakeHost) Notify(c *Conn, p *NotifyParams) int {
	if rc := h.rc["notify"]; rc != 0 {
		return rc
	}
	h.notified = append(h.notified, p)
	return 0
}
