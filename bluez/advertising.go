package bluez

import (
	"encoding/binary"

	"github.com/godbus/dbus/v5"
	log "github.com/sirupsen/logrus"

	"github.com/blewire/ble"
)

const advIface = "org.bluez.LEAdvertisement1"

// advertisement is the LEAdvertisement1 object exported for the active
// advertising set.
type advertisement struct{}

// Release is called by BlueZ when it drops the advertisement.
func (a *advertisement) Release() *dbus.Error {
	log.Debug("bluez: advertisement released")
	return nil
}

// StartAdvertising reassembles the lowered records into BlueZ
// advertisement properties and registers the set. BlueZ composes the
// on-air stream itself, so the records are decoded rather than passed
// through.
func (h *Host) StartAdvertising(p ble.AdvParamWire, ad, sd []ble.RawRecord) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.advertising {
		return -1
	}

	props := advProperties(p, ad, sd)
	if err := h.conn.Export(&advertisement{}, advPath, advIface); err != nil {
		return -5
	}
	if err := h.conn.Export(&propsServer{iface: advIface, props: props}, advPath, propsIface); err != nil {
		return -5
	}
	err := h.adapter.Call(advMgrIface+".RegisterAdvertisement", 0,
		advPath, map[string]dbus.Variant{}).Err
	if err != nil {
		log.Errorf("bluez: register advertisement: %v", err)
		return statusFromDBus(err)
	}
	h.advertising = true
	return 0
}

// StopAdvertising unregisters the advertisement set.
func (h *Host) StopAdvertising() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.advertising {
		return -1
	}
	h.advertising = false
	return statusFromDBus(h.adapter.Call(advMgrIface+".UnregisterAdvertisement", 0, advPath).Err)
}

// advProperties lifts the record-level advertising and scan-response
// data back into the property map LEAdvertisement1 wants. Unknown
// record types other than manufacturer data (0xFF) and service data
// (0x16) are dropped; BlueZ has no slot for them.
func advProperties(p ble.AdvParamWire, ad, sd []ble.RawRecord) map[string]dbus.Variant {
	typ := "broadcast"
	if p.Options&uint32(ble.AdvOptConnectable) != 0 {
		typ = "peripheral"
	}

	var (
		localName    string
		serviceUUIDs []string
		mfgData      = map[uint16]interface{}{}
		svcData      = map[string]interface{}{}
	)

	var stream []byte
	for _, r := range ad {
		stream = append(stream, r.Marshal()...)
	}
	for _, r := range sd {
		stream = append(stream, r.Marshal()...)
	}
	for _, f := range ble.UnmarshalFields(stream) {
		switch f := f.(type) {
		case ble.CompleteName:
			localName = string(f)
		case ble.ShortenedName:
			if localName == "" {
				localName = string(f)
			}
		case ble.UUIDList:
			for _, u := range f.UUIDs {
				serviceUUIDs = append(serviceUUIDs, u.Expand().String())
			}
		case ble.RawField:
			switch {
			case f.Typ == 0xFF && len(f.Data) >= 2:
				mfgData[binary.LittleEndian.Uint16(f.Data)] = f.Data[2:]
			case f.Typ == 0x16 && len(f.Data) >= 2:
				u := ble.UUID16(binary.LittleEndian.Uint16(f.Data))
				svcData[u.Expand().String()] = f.Data[2:]
			}
		}
	}

	props := map[string]dbus.Variant{
		"Type": dbus.MakeVariant(typ),
	}
	if localName != "" {
		props["LocalName"] = dbus.MakeVariant(localName)
	}
	if len(serviceUUIDs) > 0 {
		props["ServiceUUIDs"] = dbus.MakeVariant(serviceUUIDs)
	}
	if len(mfgData) > 0 {
		props["ManufacturerData"] = dbus.MakeVariant(mfgData)
	}
	if len(svcData) > 0 {
		props["ServiceData"] = dbus.MakeVariant(svcData)
	}
	if p.IntervalMin != 0 {
		props["MinInterval"] = dbus.MakeVariant(intervalMs(p.IntervalMin))
	}
	if p.IntervalMax != 0 {
		props["MaxInterval"] = dbus.MakeVariant(intervalMs(p.IntervalMax))
	}
	return props
}

// intervalMs converts a 0.625 ms advertising interval unit count to the
// millisecond value BlueZ takes.
func intervalMs(units uint32) uint32 {
	return units * 625 / 1000
}
