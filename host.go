package ble

// Iteration statuses returned by discovery callbacks.
const (
	IterStop     = 0
	IterContinue = 1
)

// Discovery types.
type DiscoverType byte

const (
	DiscoverPrimary DiscoverType = iota
	DiscoverSecondary
	DiscoverInclude
	DiscoverCharacteristic
	DiscoverDescriptor
)

// A DiscoverFunc receives one discovery result at a time. A nil
// attribute marks the end of the procedure. Return IterContinue to
// receive more results or IterStop to end the iteration.
type DiscoverFunc func(c *Conn, a *Attribute, p *DiscoverParams) int

// DiscoverParams drive a GATT discovery procedure on a connection.
type DiscoverParams struct {
	UUID        *UUID // optional filter
	StartHandle uint16
	EndHandle   uint16
	Type        DiscoverType
	Func        DiscoverFunc
}

// NotifyParams describe one notification. Attr (or UUID as a fallback
// lookup key) selects the characteristic value attribute.
type NotifyParams struct {
	UUID *UUID
	Attr *Attribute
	Data []byte
}

// A ScanFunc receives one advertisement report: the advertiser
// address, signal strength, PDU type, and the raw advertising-data
// octet stream (decode it with Unmarshal). The payload is only valid
// for the duration of the call.
type ScanFunc func(addr *Address, rssi int8, advType byte, payload []byte)

// ConnectionCallbacks are the optional connection-event callbacks an
// application may register. Any field may be nil.
type ConnectionCallbacks struct {
	// Connected is called with the HCI status of the connection
	// attempt (0 on success).
	Connected func(c *Conn, status uint8)

	// Disconnected is called with the HCI reason for the disconnect.
	Disconnected func(c *Conn, reason uint8)

	// ParamsRequested is called when the remote asks for a connection
	// parameter update; return false to reject it. The callback may
	// adjust the proposed parameters in place.
	ParamsRequested func(c *Conn, p *ConnectionParams) bool

	// ParamsUpdated is called after the parameters of the connection
	// changed.
	ParamsUpdated func(c *Conn, interval, latency, timeout uint16)
}

// Host is the external BLE host stack this core hands its data shapes
// to. It owns connections, the event loop, and all link-layer state.
// Every status return is a Zephyr-style signed code: 0 for success,
// anything else an error number (sign-insensitive) that the API layer
// folds into the shared taxonomy.
//
// Inbound, the host invokes DispatchRead/DispatchWrite on attribute
// access, the registered ScanFunc on advertisement reports, and the
// ConnectionCallbacks on connection events, all from a single
// serialized event context.
type Host interface {
	// Enable brings up the stack. ready, if non-nil, is invoked once
	// the stack is operational (or failed), with a status code.
	Enable(ready func(status int)) int

	// SetName sets the GAP device name.
	SetName(name string) int

	// RegisterConnectionCallbacks registers the connection-event
	// callback set. The host keeps the reference.
	RegisterConnectionCallbacks(cb *ConnectionCallbacks)

	// RegisterService publishes a service's attribute table, assigning
	// handles to zero-handle attributes in ascending declaration
	// order. The host keeps a reference to the service until process
	// exit; there is no handback.
	RegisterService(s *Service) int

	// StartAdvertising starts advertising with the given parameters
	// and per-record advertising and scan-response data.
	StartAdvertising(p AdvParamWire, ad, sd []RawRecord) int

	// StopAdvertising stops advertising.
	StopAdvertising() int

	// StartScanning starts scanning, reporting each advertisement to
	// fn.
	StartScanning(p ScanParamWire, fn ScanFunc) int

	// StopScanning stops an active scan.
	StopScanning() int

	// Discover runs a GATT discovery procedure against the remote end
	// of c, feeding results to p.Func.
	Discover(c *Conn, p *DiscoverParams) int

	// Notify sends a notification to c, or to every subscribed peer
	// when c is nil.
	Notify(c *Conn, p *NotifyParams) int

	// ReadServiceAttr and ReadChrcAttr are the host's built-in
	// declaration marshalling routines; the built-in declaration read
	// handlers delegate here. See HostAttrReader for the canonical
	// implementation.
	ReadServiceAttr(c *Conn, a *Attribute, buf []byte, offset uint16) int
	ReadChrcAttr(c *Conn, a *Attribute, buf []byte, offset uint16) int
}
