package bluez

import (
	"encoding/binary"

	"github.com/godbus/dbus/v5"
	log "github.com/sirupsen/logrus"

	"github.com/blewire/ble"
)

// StartScanning sets a discovery filter from the scan parameters and
// starts BlueZ discovery. Reports arrive from the signal loop as
// devices appear and update; already-known devices are replayed from an
// initial snapshot.
func (h *Host) StartScanning(p ble.ScanParamWire, fn ble.ScanFunc) int {
	if fn == nil {
		return -88
	}
	h.mu.Lock()
	if h.scanFn != nil {
		h.mu.Unlock()
		return -1
	}
	h.scanFn = fn
	h.mu.Unlock()

	filter := map[string]dbus.Variant{
		"Transport": dbus.MakeVariant("le"),
	}
	if p.Options&uint32(ble.ScanOptFilterDuplicate) != 0 {
		filter["DuplicateData"] = dbus.MakeVariant(false)
	}
	_ = h.adapter.Call(adapterIface+".SetDiscoveryFilter", 0, filter).Err

	if err := h.adapter.Call(adapterIface+".StartDiscovery", 0).Err; err != nil {
		h.mu.Lock()
		h.scanFn = nil
		h.mu.Unlock()
		log.Errorf("bluez: start discovery: %v", err)
		return statusFromDBus(err)
	}

	go h.replayKnownDevices(fn)
	return 0
}

// StopScanning stops discovery and clears the filter.
func (h *Host) StopScanning() int {
	h.mu.Lock()
	if h.scanFn == nil {
		h.mu.Unlock()
		return -1
	}
	h.scanFn = nil
	h.scanCache = make(map[dbus.ObjectPath]map[string]dbus.Variant)
	h.mu.Unlock()

	err := h.adapter.Call(adapterIface+".StopDiscovery", 0).Err
	_ = h.adapter.Call(adapterIface+".SetDiscoveryFilter", 0, map[string]dbus.Variant{}).Err
	return statusFromDBus(err)
}

// replayKnownDevices reports devices BlueZ already knows about, so a
// scan started mid-session still sees the neighborhood.
func (h *Host) replayKnownDevices(fn ble.ScanFunc) {
	root := h.conn.Object(bluezBus, "/")
	call := root.Call(objMgrIface+".GetManagedObjects", 0)
	if call.Err != nil {
		return
	}
	var managed map[dbus.ObjectPath]map[string]map[string]dbus.Variant
	if err := call.Store(&managed); err != nil {
		return
	}
	prefix := string(h.adapterPath()) + "/dev_"
	for path, ifaces := range managed {
		if len(path) < len(prefix) || string(path)[:len(prefix)] != prefix {
			continue
		}
		dev, ok := ifaces[deviceIface]
		if !ok {
			continue
		}
		h.mu.Lock()
		if h.scanFn == nil {
			h.mu.Unlock()
			return
		}
		h.scanCache[path] = dev
		h.mu.Unlock()
		h.reportDevice(fn, dev)
	}
}

// reportDevice synthesizes an advertisement report from the Device1
// property set and delivers it.
func (h *Host) reportDevice(fn ble.ScanFunc, props map[string]dbus.Variant) {
	addrStr, _ := variantString(props, "Address")
	if addrStr == "" {
		return
	}
	addrType, _ := variantString(props, "AddressType")
	addr, ok := parseAddress(addrStr, addrType)
	if !ok {
		return
	}

	var rssi int8
	if v, ok := props["RSSI"]; ok {
		if r, ok := v.Value().(int16); ok {
			rssi = int8(r)
		}
	}

	fn(&addr, rssi, 0, devicePayload(props))
}

// devicePayload rebuilds an advertising-data octet stream from the
// decomposed Device1 properties, so scan consumers see the same TLV
// shape a raw controller would deliver.
func devicePayload(props map[string]dbus.Variant) []byte {
	var fields []ble.Field

	if name, ok := variantString(props, "Name"); ok && name != "" {
		fields = append(fields, ble.CompleteName(name))
	}
	if v, ok := props["UUIDs"]; ok {
		if ss, ok := v.Value().([]string); ok {
			var uu []ble.UUID
			for _, s := range ss {
				u, err := ble.ParseUUID(s)
				if err != nil {
					continue
				}
				if n := u.Reduce16(); ble.UUID16(n).Expand().Equal(u.Expand()) {
					u = ble.UUID16(n)
				}
				uu = append(uu, u)
			}
			if len(uu) > 0 {
				fields = append(fields, ble.UUIDList{UUIDs: uu, Complete: true})
			}
		}
	}
	if v, ok := props["ManufacturerData"]; ok {
		if mm, ok := v.Value().(map[uint16]dbus.Variant); ok {
			for company, vv := range mm {
				data, _ := vv.Value().([]byte)
				rec := binary.LittleEndian.AppendUint16(nil, company)
				fields = append(fields, ble.RawField{Typ: 0xFF, Data: append(rec, data...)})
			}
		}
	}

	return ble.Marshal(fields)
}

func variantString(props map[string]dbus.Variant, key string) (string, bool) {
	v, ok := props[key]
	if !ok {
		return "", false
	}
	s, ok := v.Value().(string)
	return s, ok
}
