package ble

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// ATT error codes surfaced by read/write handlers as negative return
// values, per the host ABI.
const (
	attEcodeSuccess       = 0x00
	attEcodeInvalidHandle = 0x01
	attEcodeReadNotPerm   = 0x02
	attEcodeWriteNotPerm  = 0x03
	attEcodeInvalidOffset = 0x07
	attEcodeUnlikely      = 0x0e
)

// Supported statuses for typed read/write handlers.
const (
	StatusSuccess         = attEcodeSuccess
	StatusInvalidOffset   = attEcodeInvalidOffset
	StatusUnexpectedError = attEcodeUnlikely
)

// Attribute write flags, delivered with each write dispatch.
const (
	WriteFlagPrepare byte = 1 << 0 // queued prepare write
	WriteFlagCmd     byte = 1 << 1 // write command, no response
)

// A ReadHandler handles a GATT read of one attribute. Exactly two
// shapes exist: NativeReadFunc, the host's low-level calling
// convention, and ReadFunc, the typed shape. The shape is selected at
// construction; dispatch matches on it rather than reinterpreting one
// as the other.
type ReadHandler interface {
	serveRead(c *Conn, a *Attribute, buf []byte, offset uint16) int
}

// A WriteHandler handles a GATT write of one attribute, with the same
// two shapes as ReadHandler.
type WriteHandler interface {
	serveWrite(c *Conn, a *Attribute, data []byte, offset uint16, flags byte) int
}

// NativeReadFunc is the host calling convention for reads: fill buf
// starting at offset into the attribute value, returning the number of
// bytes written or a negative ATT error code.
type NativeReadFunc func(c *Conn, a *Attribute, buf []byte, offset uint16) int

func (f NativeReadFunc) serveRead(c *Conn, a *Attribute, buf []byte, offset uint16) int {
	return f(c, a, buf, offset)
}

// NativeWriteFunc is the host calling convention for writes: consume
// data at offset, returning the number of bytes consumed or a negative
// ATT error code.
type NativeWriteFunc func(c *Conn, a *Attribute, data []byte, offset uint16, flags byte) int

func (f NativeWriteFunc) serveWrite(c *Conn, a *Attribute, data []byte, offset uint16, flags byte) int {
	return f(c, a, data, offset, flags)
}

// A ReadRequest is the typed view of an attribute read.
type ReadRequest struct {
	Conn      *Conn
	Attribute *Attribute
	Cap       int // maximum allowed reply length
	Offset    int // request value offset
}

// A ReadResponseWriter collects the reply to a typed read.
type ReadResponseWriter interface {
	// Write writes data to return as the attribute value.
	Write([]byte) (int, error)
	// SetStatus reports the result of the read. See the Status*
	// constants.
	SetStatus(byte)
}

// ReadFunc adapts an ordinary function to the typed ReadHandler shape.
type ReadFunc func(resp ReadResponseWriter, req *ReadRequest)

func (f ReadFunc) serveRead(c *Conn, a *Attribute, buf []byte, offset uint16) int {
	w := newReadResponseWriter(len(buf))
	f(w, &ReadRequest{Conn: c, Attribute: a, Cap: len(buf), Offset: int(offset)})
	if w.status != StatusSuccess {
		return -int(w.status)
	}
	return copy(buf, w.bytes())
}

// A WriteRequest is the typed view of an attribute write. Data is the
// payload as delivered by the host; handlers must not retain it past
// the call.
type WriteRequest struct {
	Conn      *Conn
	Attribute *Attribute
	Data      []byte
	Offset    int
	Flags     byte
}

// WriteFunc adapts an ordinary function to the typed WriteHandler
// shape. Write and write-command requests are presented identically;
// the returned status decides whether the host reports success.
type WriteFunc func(req *WriteRequest) (status byte)

func (f WriteFunc) serveWrite(c *Conn, a *Attribute, data []byte, offset uint16, flags byte) int {
	status := f(&WriteRequest{Conn: c, Attribute: a, Data: data, Offset: int(offset), Flags: flags})
	if status != StatusSuccess {
		return -int(status)
	}
	return len(data)
}

// DispatchRead is the entry point the host invokes on an attribute
// read. The host has already rejected unreadable attributes, so a.Read
// is assumed non-nil.
func DispatchRead(c *Conn, a *Attribute, buf []byte, offset uint16) int {
	return a.Read.serveRead(c, a, buf, offset)
}

// DispatchWrite is the entry point the host invokes on an attribute
// write. The host has already rejected unwritable attributes, so
// a.Write is assumed non-nil.
func DispatchWrite(c *Conn, a *Attribute, data []byte, offset uint16, flags byte) int {
	return a.Write.serveWrite(c, a, data, offset, flags)
}

// readServiceAttr and readChrcAttr are the built-in declaration
// handlers; both delegate to the host's marshalling routine via the
// connection rather than re-implementing it.

func readServiceAttr(c *Conn, a *Attribute, buf []byte, offset uint16) int {
	return c.host.ReadServiceAttr(c, a, buf, offset)
}

func readChrcAttr(c *Conn, a *Attribute, buf []byte, offset uint16) int {
	return c.host.ReadChrcAttr(c, a, buf, offset)
}

// AttrReadBytes copies value[offset:] into buf, the standard
// marshalling step for attribute reads of in-memory values. It returns
// the number of bytes written, or a negative ATT error code when the
// offset is past the end of the value.
func AttrReadBytes(buf []byte, offset uint16, value []byte) int {
	if int(offset) > len(value) {
		return -attEcodeInvalidOffset
	}
	return copy(buf, value[offset:])
}

// HostAttrReader is the canonical implementation of the declaration
// marshalling entry points of the Host interface. Host backends embed
// it.
type HostAttrReader struct{}

// ReadServiceAttr marshals a service declaration: the service's own
// UUID in on-air byte order.
func (HostAttrReader) ReadServiceAttr(c *Conn, a *Attribute, buf []byte, offset uint16) int {
	u, ok := a.Value.(UUID)
	if !ok {
		return -attEcodeUnlikely
	}
	return AttrReadBytes(buf, offset, u.reverseBytes())
}

// ReadChrcAttr marshals a characteristic declaration: properties,
// value handle (little-endian), then the characteristic UUID in on-air
// byte order.
func (HostAttrReader) ReadChrcAttr(c *Conn, a *Attribute, buf []byte, offset uint16) int {
	d, ok := a.Value.(*CharacteristicDecl)
	if !ok {
		return -attEcodeUnlikely
	}
	v := make([]byte, 0, 3+d.UUID.Len())
	v = append(v, byte(d.Properties))
	v = binary.LittleEndian.AppendUint16(v, d.ValueHandle)
	v = append(v, d.UUID.reverseBytes()...)
	return AttrReadBytes(buf, offset, v)
}

// StaticValue returns a read handler that serves b as the attribute
// value, honoring read offsets. The handler references b; it must stay
// alive and unmodified while the attribute is registered.
func StaticValue(b []byte) ReadHandler {
	return NativeReadFunc(func(c *Conn, a *Attribute, buf []byte, offset uint16) int {
		return AttrReadBytes(buf, offset, b)
	})
}

// readResponseWriter is the default implementation of
// ReadResponseWriter.
type readResponseWriter struct {
	capacity int
	buf      *bytes.Buffer
	status   byte
}

func newReadResponseWriter(c int) *readResponseWriter {
	return &readResponseWriter{
		capacity: c,
		buf:      new(bytes.Buffer),
		status:   StatusSuccess,
	}
}

func (w *readResponseWriter) Write(b []byte) (int, error) {
	if avail := w.capacity - w.buf.Len(); avail < len(b) {
		return 0, fmt.Errorf("requested write %d bytes, %d available", len(b), avail)
	}
	return w.buf.Write(b)
}

func (w *readResponseWriter) SetStatus(status byte) { w.status = status }
func (w *readResponseWriter) bytes() []byte         { return w.buf.Bytes() }
