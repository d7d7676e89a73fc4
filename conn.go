package ble

// A Conn is this package's view of a host-owned connection. Host
// backends create one per link and thread it through every callback;
// the core never creates or closes connections itself.
type Conn struct {
	host Host
	peer Address
}

// NewConn wraps a host connection to the given peer. Intended for Host
// implementations.
func NewConn(h Host, peer Address) *Conn {
	return &Conn{host: h, peer: peer}
}

// Destination returns the address of the remote device.
func (c *Conn) Destination() Address {
	return c.peer
}
