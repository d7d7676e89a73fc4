// Package bluez implements the Host interface on top of the BlueZ
// daemon, reached over the system D-Bus. It exports a GATT application
// and LE advertisements to BlueZ and translates its property-based
// world back into the package ble callback contracts.
package bluez

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/godbus/dbus/v5"
	log "github.com/sirupsen/logrus"

	"github.com/blewire/ble"
)

const (
	bluezBus      = "org.bluez"
	adapterIface  = "org.bluez.Adapter1"
	deviceIface   = "org.bluez.Device1"
	gattMgrIface  = "org.bluez.GattManager1"
	advMgrIface   = "org.bluez.LEAdvertisingManager1"
	gattSvcIface  = "org.bluez.GattService1"
	gattChrcIface = "org.bluez.GattCharacteristic1"
	gattDescIface = "org.bluez.GattDescriptor1"
	propsIface    = "org.freedesktop.DBus.Properties"
	objMgrIface   = "org.freedesktop.DBus.ObjectManager"

	appPath = dbus.ObjectPath("/com/blewire/app")
	advPath = dbus.ObjectPath("/com/blewire/advertisement0")
)

// Host drives one BlueZ adapter (hci0, hci1, ...). It satisfies
// ble.Host; hand it to ble.Enable.
type Host struct {
	ble.HostAttrReader

	adapterID string

	conn    *dbus.Conn
	adapter dbus.BusObject
	signals chan *dbus.Signal

	mu          sync.Mutex
	nextHandle  uint16
	services    []*exportedService
	appUp       bool
	advertising bool
	scanFn      ble.ScanFunc
	scanCache   map[dbus.ObjectPath]map[string]dbus.Variant
	cb          *ble.ConnectionCallbacks
	connected   map[string]*ble.Conn
}

// New returns a Host bound to the named adapter. Nothing touches the
// bus until Enable.
func New(adapterID string) *Host {
	return &Host{
		adapterID:  strings.TrimSpace(adapterID),
		nextHandle: 1,
		scanCache:  make(map[dbus.ObjectPath]map[string]dbus.Variant),
		connected:  make(map[string]*ble.Conn),
	}
}

func (h *Host) adapterPath() dbus.ObjectPath {
	return dbus.ObjectPath("/org/bluez/" + h.adapterID)
}

// Enable connects to the system bus, powers the adapter, and starts the
// signal dispatch loop. ready fires once the adapter is powered.
func (h *Host) Enable(ready func(status int)) int {
	conn, err := dbus.SystemBus()
	if err != nil {
		log.Errorf("bluez: system bus: %v", err)
		return statusFromDBus(err)
	}
	h.conn = conn
	h.adapter = conn.Object(bluezBus, h.adapterPath())

	if err := h.adapter.Call(propsIface+".Set", 0,
		adapterIface, "Powered", dbus.MakeVariant(true)).Err; err != nil {
		log.Errorf("bluez: power %s: %v", h.adapterID, err)
		return statusFromDBus(err)
	}

	if err := conn.AddMatchSignal(
		dbus.WithMatchInterface(propsIface),
		dbus.WithMatchMember("PropertiesChanged"),
	); err != nil {
		return statusFromDBus(err)
	}
	if err := conn.AddMatchSignal(
		dbus.WithMatchInterface(objMgrIface),
		dbus.WithMatchMember("InterfacesAdded"),
	); err != nil {
		return statusFromDBus(err)
	}
	h.signals = make(chan *dbus.Signal, 64)
	conn.Signal(h.signals)
	go h.dispatchSignals()

	log.Debugf("bluez: %s powered", h.adapterID)
	if ready != nil {
		ready(0)
	}
	return 0
}

// SetName sets the adapter alias, which BlueZ advertises as the GAP
// device name.
func (h *Host) SetName(name string) int {
	return statusFromDBus(h.adapter.Call(propsIface+".Set", 0,
		adapterIface, "Alias", dbus.MakeVariant(name)).Err)
}

func (h *Host) RegisterConnectionCallbacks(cb *ble.ConnectionCallbacks) {
	h.mu.Lock()
	h.cb = cb
	h.mu.Unlock()
}

// dispatchSignals fans bus signals out to the scan callback and the
// connection callbacks. It exits when the bus connection closes.
func (h *Host) dispatchSignals() {
	for s := range h.signals {
		switch s.Name {
		case propsIface + ".PropertiesChanged":
			h.onPropertiesChanged(s)
		case objMgrIface + ".InterfacesAdded":
			h.onInterfacesAdded(s)
		}
	}
}

func (h *Host) onPropertiesChanged(s *dbus.Signal) {
	if len(s.Body) < 2 {
		return
	}
	iface, _ := s.Body[0].(string)
	changed, _ := s.Body[1].(map[string]dbus.Variant)
	if iface != deviceIface || changed == nil {
		return
	}

	if v, ok := changed["Connected"]; ok {
		if up, ok := v.Value().(bool); ok {
			h.onConnectedChanged(s.Path, up)
		}
	}

	h.mu.Lock()
	fn := h.scanFn
	props := h.scanCache[s.Path]
	if fn != nil {
		if props == nil {
			props = make(map[string]dbus.Variant)
			h.scanCache[s.Path] = props
		}
		for k, v := range changed {
			props[k] = v
		}
	}
	h.mu.Unlock()

	if fn != nil && props != nil {
		h.reportDevice(fn, props)
	}
}

func (h *Host) onInterfacesAdded(s *dbus.Signal) {
	if len(s.Body) < 2 {
		return
	}
	path, _ := s.Body[0].(dbus.ObjectPath)
	ifaces, _ := s.Body[1].(map[string]map[string]dbus.Variant)
	dev, ok := ifaces[deviceIface]
	if !ok {
		return
	}
	props := make(map[string]dbus.Variant, len(dev))
	for k, v := range dev {
		props[k] = v
	}

	h.mu.Lock()
	fn := h.scanFn
	if fn != nil {
		h.scanCache[path] = props
	}
	h.mu.Unlock()

	if fn != nil {
		h.reportDevice(fn, props)
	}
}

func (h *Host) onConnectedChanged(path dbus.ObjectPath, up bool) {
	addr, ok := addressFromPath(path)
	if !ok {
		return
	}

	h.mu.Lock()
	cb := h.cb
	key := addr.String()
	var c *ble.Conn
	if up {
		c = ble.NewConn(h, addr)
		h.connected[key] = c
	} else {
		c = h.connected[key]
		delete(h.connected, key)
	}
	h.mu.Unlock()

	if cb == nil || c == nil {
		return
	}
	if up {
		if cb.Connected != nil {
			cb.Connected(c, 0)
		}
	} else if cb.Disconnected != nil {
		cb.Disconnected(c, 0)
	}
}

// connFor resolves the peer connection for a GATT operation from the
// BlueZ option map. Operations without a device option get a connection
// with a zero address.
func (h *Host) connFor(options map[string]dbus.Variant) *ble.Conn {
	if v, ok := options["device"]; ok {
		if path, ok := v.Value().(dbus.ObjectPath); ok {
			if addr, ok := addressFromPath(path); ok {
				h.mu.Lock()
				c := h.connected[addr.String()]
				h.mu.Unlock()
				if c != nil {
					return c
				}
				return ble.NewConn(h, addr)
			}
		}
	}
	return ble.NewConn(h, ble.Address{})
}

// addressFromPath recovers the peer address from a BlueZ device object
// path of the form .../dev_AA_BB_CC_DD_EE_FF.
func addressFromPath(path dbus.ObjectPath) (ble.Address, bool) {
	p := string(path)
	i := strings.LastIndex(p, "/dev_")
	if i < 0 {
		return ble.Address{}, false
	}
	return parseAddress(strings.ReplaceAll(p[i+len("/dev_"):], "_", ":"), "")
}

// parseAddress parses a colon-separated address string plus the BlueZ
// AddressType string ("public" or "random").
func parseAddress(s, typ string) (ble.Address, bool) {
	var a ble.Address
	n, err := fmt.Sscanf(strings.ToLower(s), "%02x:%02x:%02x:%02x:%02x:%02x",
		&a.Addr[0], &a.Addr[1], &a.Addr[2], &a.Addr[3], &a.Addr[4], &a.Addr[5])
	if err != nil || n != 6 {
		return ble.Address{}, false
	}
	if typ == "random" {
		a.Type = ble.AddrRandom
	}
	return a, true
}

// statusFromDBus maps a bus error onto the host status codes ble
// understands. Unrecognized errors fold to -5 (I/O error).
func statusFromDBus(err error) int {
	if err == nil {
		return 0
	}
	var derr *dbus.Error
	if errors.As(err, &derr) {
		switch {
		case strings.HasSuffix(derr.Name, ".NotPermitted"),
			strings.HasSuffix(derr.Name, ".NotAuthorized"):
			return -1
		case strings.HasSuffix(derr.Name, ".NotSupported"),
			strings.HasSuffix(derr.Name, ".NotImplemented"):
			return -88
		case strings.HasSuffix(derr.Name, ".NotConnected"):
			return -128
		}
	}
	return -5
}

// attErrToDBus maps a negative dispatcher result onto the BlueZ GATT
// error names.
func attErrToDBus(n int) *dbus.Error {
	switch -n {
	case 0x07:
		return dbus.NewError("org.bluez.Error.InvalidOffset", nil)
	case 0x02, 0x03:
		return dbus.NewError("org.bluez.Error.NotPermitted", nil)
	default:
		return dbus.NewError("org.bluez.Error.Failed", []interface{}{fmt.Sprintf("att error %d", -n)})
	}
}
