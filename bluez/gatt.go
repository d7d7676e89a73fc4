package bluez

import (
	"fmt"
	"sort"
	"strings"

	"github.com/godbus/dbus/v5"
	log "github.com/sirupsen/logrus"

	"github.com/blewire/ble"
)

// exportedService is one registered Service as seen on the bus.
type exportedService struct {
	path    dbus.ObjectPath
	svc     *ble.Service
	primary bool
	uuid    ble.UUID
	chars   []*exportedChar
}

// exportedChar bridges one characteristic value attribute to the BlueZ
// GattCharacteristic1 interface. BlueZ calls ReadValue and WriteValue;
// they run through the shared dispatcher so typed and native handlers
// behave exactly as they do on any other host.
type exportedChar struct {
	host        *Host
	path        dbus.ObjectPath
	servicePath dbus.ObjectPath
	decl        *ble.CharacteristicDecl
	value       *ble.Attribute
	flags       []string
	notifying   bool
}

const dispatchBufSize = 512 // max ATT attribute value length

// ATT codes for attributes the dispatcher must never see: rejecting
// handler-less reads and writes is the host's job, and on this bus the
// host is us.
const (
	attReadNotPerm  = 0x02
	attWriteNotPerm = 0x03
)

func (c *exportedChar) ReadValue(options map[string]dbus.Variant) ([]byte, *dbus.Error) {
	if c.value.Read == nil {
		return nil, attErrToDBus(-attReadNotPerm)
	}
	conn := c.host.connFor(options)
	buf := make([]byte, dispatchBufSize)
	n := ble.DispatchRead(conn, c.value, buf, optionOffset(options))
	if n < 0 {
		return nil, attErrToDBus(n)
	}
	return buf[:n], nil
}

func (c *exportedChar) WriteValue(value []byte, options map[string]dbus.Variant) *dbus.Error {
	if c.value.Write == nil {
		return attErrToDBus(-attWriteNotPerm)
	}
	conn := c.host.connFor(options)
	var flags byte
	if v, ok := options["type"]; ok {
		if s, _ := v.Value().(string); s == "command" {
			flags |= ble.WriteFlagCmd
		}
	}
	n := ble.DispatchWrite(conn, c.value, value, optionOffset(options), flags)
	if n < 0 {
		return attErrToDBus(n)
	}
	return nil
}

// StartNotify and StopNotify run on godbus worker goroutines, not the
// serialized event context, so the flag lives under the host lock.

func (c *exportedChar) StartNotify() *dbus.Error {
	c.host.mu.Lock()
	c.notifying = true
	c.host.mu.Unlock()
	return nil
}

func (c *exportedChar) StopNotify() *dbus.Error {
	c.host.mu.Lock()
	c.notifying = false
	c.host.mu.Unlock()
	return nil
}

func optionOffset(options map[string]dbus.Variant) uint16 {
	if v, ok := options["offset"]; ok {
		if off, ok := v.Value().(uint16); ok {
			return off
		}
	}
	return 0
}

// RegisterService assigns handles, exports the service's objects, and
// (re)registers the GATT application with BlueZ.
func (h *Host) RegisterService(s *ble.Service) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	attrs := s.Attributes()
	if len(attrs) == 0 {
		return -88
	}
	for _, a := range attrs {
		if a.Handle == 0 {
			a.Handle = h.nextHandle
		}
		h.nextHandle = a.Handle + 1
	}
	for i, a := range attrs {
		if d, ok := a.Value.(*ble.CharacteristicDecl); ok && i+1 < len(attrs) {
			d.ValueHandle = attrs[i+1].Handle
		}
	}

	es := &exportedService{
		path:    dbus.ObjectPath(fmt.Sprintf("%s/service%d", appPath, len(h.services))),
		svc:     s,
		primary: true,
		uuid:    s.UUID(),
	}
	for i := 0; i+1 < len(attrs); i++ {
		d, ok := attrs[i].Value.(*ble.CharacteristicDecl)
		if !ok {
			continue
		}
		ec := &exportedChar{
			host:        h,
			path:        dbus.ObjectPath(fmt.Sprintf("%s/char%d", es.path, len(es.chars))),
			servicePath: es.path,
			decl:        d,
			value:       attrs[i+1],
			flags:       chrcFlags(d.Properties),
		}
		es.chars = append(es.chars, ec)
	}
	h.services = append(h.services, es)

	if code := h.exportService(es); code != 0 {
		return code
	}
	return h.registerApplication()
}

// chrcFlags maps the declaration property bits onto BlueZ flag strings.
func chrcFlags(p ble.Props) []string {
	var ff []string
	for _, m := range []struct {
		bit  ble.Props
		name string
	}{
		{ble.PropBroadcast, "broadcast"},
		{ble.PropRead, "read"},
		{ble.PropWriteNR, "write-without-response"},
		{ble.PropWrite, "write"},
		{ble.PropNotify, "notify"},
		{ble.PropIndicate, "indicate"},
	} {
		if p&m.bit != 0 {
			ff = append(ff, m.name)
		}
	}
	return ff
}

func (h *Host) exportService(es *exportedService) int {
	svcProps := map[string]dbus.Variant{
		"UUID":    dbus.MakeVariant(es.uuid.Expand().String()),
		"Primary": dbus.MakeVariant(es.primary),
	}
	if err := h.conn.Export(&propsServer{iface: gattSvcIface, props: svcProps}, es.path, propsIface); err != nil {
		return -5
	}
	for _, ec := range es.chars {
		if err := h.conn.Export(ec, ec.path, gattChrcIface); err != nil {
			return -5
		}
		if err := h.conn.Export(&propsServer{iface: gattChrcIface, props: h.chrcProps(ec)}, ec.path, propsIface); err != nil {
			return -5
		}
	}
	return 0
}

func (h *Host) chrcProps(ec *exportedChar) map[string]dbus.Variant {
	return map[string]dbus.Variant{
		"UUID":    dbus.MakeVariant(ec.decl.UUID.Expand().String()),
		"Service": dbus.MakeVariant(ec.servicePath),
		"Flags":   dbus.MakeVariant(ec.flags),
	}
}

// registerApplication exports the ObjectManager root and registers the
// application. BlueZ allows one live application per sender, so adding
// a service after the first registration re-registers the whole tree.
func (h *Host) registerApplication() int {
	if !h.appUp {
		if err := h.conn.Export(h, appPath, objMgrIface); err != nil {
			return -5
		}
	} else {
		_ = h.adapter.Call(gattMgrIface+".UnregisterApplication", 0, appPath).Err
		h.appUp = false
	}
	err := h.adapter.Call(gattMgrIface+".RegisterApplication", 0,
		appPath, map[string]dbus.Variant{}).Err
	if err != nil {
		log.Errorf("bluez: register application: %v", err)
		return statusFromDBus(err)
	}
	h.appUp = true
	log.Debugf("bluez: application registered with %d services", len(h.services))
	return 0
}

// GetManagedObjects implements org.freedesktop.DBus.ObjectManager for
// the exported GATT application tree. BlueZ calls it during
// RegisterApplication.
func (h *Host) GetManagedObjects() (map[dbus.ObjectPath]map[string]map[string]dbus.Variant, *dbus.Error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make(map[dbus.ObjectPath]map[string]map[string]dbus.Variant)
	for _, es := range h.services {
		out[es.path] = map[string]map[string]dbus.Variant{
			gattSvcIface: {
				"UUID":    dbus.MakeVariant(es.uuid.Expand().String()),
				"Primary": dbus.MakeVariant(es.primary),
			},
		}
		for _, ec := range es.chars {
			out[ec.path] = map[string]map[string]dbus.Variant{
				gattChrcIface: h.chrcProps(ec),
			}
		}
	}
	return out, nil
}

// Notify pushes a new value for a characteristic to its subscribers by
// emitting a PropertiesChanged signal on the exported object. The
// target is matched by attribute first, then by UUID.
func (h *Host) Notify(c *ble.Conn, p *ble.NotifyParams) int {
	h.mu.Lock()
	var target *exportedChar
	for _, es := range h.services {
		for _, ec := range es.chars {
			if p.Attr != nil && ec.value == p.Attr {
				target = ec
			} else if p.Attr == nil && p.UUID != nil && ec.decl.UUID.Equal(*p.UUID) {
				target = ec
			}
		}
	}
	notifying := target != nil && target.notifying
	h.mu.Unlock()

	if target == nil {
		return -88
	}
	if !notifying {
		return -128
	}
	err := h.conn.Emit(target.path, propsIface+".PropertiesChanged",
		gattChrcIface,
		map[string]dbus.Variant{"Value": dbus.MakeVariant(p.Data)},
		[]string{})
	return statusFromDBus(err)
}

// Discover walks BlueZ's resolved GATT database for the peer and feeds
// each matching entry to p.Func. BlueZ resolves the remote database
// itself, so this is a snapshot walk rather than an on-air procedure.
func (h *Host) Discover(c *ble.Conn, p *ble.DiscoverParams) int {
	root := h.conn.Object(bluezBus, "/")
	call := root.Call(objMgrIface+".GetManagedObjects", 0)
	if call.Err != nil {
		return statusFromDBus(call.Err)
	}
	var managed map[dbus.ObjectPath]map[string]map[string]dbus.Variant
	if err := call.Store(&managed); err != nil {
		return -5
	}

	devPrefix := string(h.adapterPath()) + "/dev_" +
		strings.ToUpper(strings.ReplaceAll(c.Destination().String(), ":", "_"))

	var iface string
	switch p.Type {
	case ble.DiscoverPrimary, ble.DiscoverSecondary:
		iface = gattSvcIface
	case ble.DiscoverCharacteristic:
		iface = gattChrcIface
	case ble.DiscoverDescriptor:
		iface = gattDescIface
	default:
		return -88
	}

	paths := make([]string, 0, len(managed))
	for path := range managed {
		paths = append(paths, string(path))
	}
	sort.Strings(paths)

	for _, path := range paths {
		if !strings.HasPrefix(path, devPrefix) {
			continue
		}
		props, ok := managed[dbus.ObjectPath(path)][iface]
		if !ok {
			continue
		}
		s, _ := props["UUID"].Value().(string)
		u, err := ble.ParseUUID(s)
		if err != nil {
			continue
		}
		if p.UUID != nil && !u.Expand().Equal(p.UUID.Expand()) {
			continue
		}
		if p.Func == nil {
			continue
		}
		if p.Func(c, &ble.Attribute{UUID: u}, p) == ble.IterStop {
			break
		}
	}
	return 0
}

// propsServer serves org.freedesktop.DBus.Properties for one exported
// object with a fixed property set.
type propsServer struct {
	iface string
	props map[string]dbus.Variant
}

func (p *propsServer) Get(iface, prop string) (dbus.Variant, *dbus.Error) {
	if iface != p.iface {
		return dbus.Variant{}, dbus.NewError("org.freedesktop.DBus.Error.UnknownInterface", nil)
	}
	v, ok := p.props[prop]
	if !ok {
		return dbus.Variant{}, dbus.NewError("org.freedesktop.DBus.Error.UnknownProperty", nil)
	}
	return v, nil
}

func (p *propsServer) GetAll(iface string) (map[string]dbus.Variant, *dbus.Error) {
	if iface != p.iface {
		return nil, dbus.NewError("org.freedesktop.DBus.Error.UnknownInterface", nil)
	}
	return p.props, nil
}

func (p *propsServer) Set(iface, prop string, value dbus.Variant) *dbus.Error {
	return dbus.NewError("org.freedesktop.DBus.Error.PropertyReadOnly", nil)
}
