package bluez

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/godbus/dbus/v5"

	"github.com/blewire/ble"
)

func TestStatusFromDBus(t *testing.T) {
	cases := []struct {
		name string
		want int
	}{
		{name: "org.bluez.Error.NotPermitted", want: -1},
		{name: "org.bluez.Error.NotAuthorized", want: -1},
		{name: "org.bluez.Error.NotSupported", want: -88},
		{name: "org.bluez.Error.NotConnected", want: -128},
		{name: "org.bluez.Error.Failed", want: -5},
		{name: "org.freedesktop.DBus.Error.NoReply", want: -5},
	}
	for _, tt := range cases {
		err := dbus.NewError(tt.name, nil)
		if got := statusFromDBus(err); got != tt.want {
			t.Errorf("statusFromDBus(%s): got %d want %d", tt.name, got, tt.want)
		}
	}
	if got := statusFromDBus(nil); got != 0 {
		t.Errorf("statusFromDBus(nil): got %d", got)
	}
}

func TestAttErrToDBus(t *testing.T) {
	if e := attErrToDBus(-0x07); e.Name != "org.bluez.Error.InvalidOffset" {
		t.Errorf("invalid offset: got %s", e.Name)
	}
	if e := attErrToDBus(-0x02); e.Name != "org.bluez.Error.NotPermitted" {
		t.Errorf("read not permitted: got %s", e.Name)
	}
	if e := attErrToDBus(-0x0e); e.Name != "org.bluez.Error.Failed" {
		t.Errorf("unlikely: got %s", e.Name)
	}
}

func TestAddressFromPath(t *testing.T) {
	path := dbus.ObjectPath("/org/bluez/hci0/dev_C0_11_22_33_44_55")
	addr, ok := addressFromPath(path)
	if !ok {
		t.Fatal("addressFromPath failed")
	}
	if got, want := addr.String(), "c0:11:22:33:44:55"; got != want {
		t.Errorf("address: got %s want %s", got, want)
	}
	if _, ok := addressFromPath("/org/bluez/hci0"); ok {
		t.Error("adapter path should not parse as a device address")
	}
}

func TestParseAddress(t *testing.T) {
	a, ok := parseAddress("C0:11:22:33:44:55", "random")
	if !ok || a.Type != ble.AddrRandom {
		t.Errorf("parseAddress random: a=%+v ok=%v", a, ok)
	}
	a, ok = parseAddress("c0:11:22:33:44:55", "public")
	if !ok || a.Type != ble.AddrPublic {
		t.Errorf("parseAddress public: a=%+v ok=%v", a, ok)
	}
	if _, ok := parseAddress("nonsense", ""); ok {
		t.Error("parseAddress should reject garbage")
	}
}

func TestChrcFlags(t *testing.T) {
	got := chrcFlags(ble.PropRead | ble.PropWrite | ble.PropNotify)
	want := []string{"read", "write", "notify"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("chrcFlags: got %v want %v", got, want)
	}
	if got := chrcFlags(0); got != nil {
		t.Errorf("chrcFlags(0): got %v", got)
	}
}

func TestAdvProperties(t *testing.T) {
	p := ble.AdvertisingParams{
		Options:     ble.AdvOptConnectable,
		IntervalMin: 160, // 100 ms
		IntervalMax: 320, // 200 ms
	}
	ad := []ble.Field{
		ble.Flags(ble.FlagGeneralDiscoverable),
		ble.UUIDList{UUIDs: []ble.UUID{ble.UUID16(0x180D)}, Complete: true},
		ble.RawField{Typ: 0xFF, Data: []byte{0x4C, 0x00, 0x02, 0x15}},
	}
	sd := []ble.Field{ble.CompleteName("gopher")}

	props := advProperties(p.Wire(), ble.Lower(ad), ble.Lower(sd))

	if got := props["Type"].Value(); got != "peripheral" {
		t.Errorf("Type: got %v", got)
	}
	if got := props["LocalName"].Value(); got != "gopher" {
		t.Errorf("LocalName: got %v", got)
	}
	uuids, _ := props["ServiceUUIDs"].Value().([]string)
	if len(uuids) != 1 || uuids[0] != "0000180d-0000-1000-8000-00805f9b34fb" {
		t.Errorf("ServiceUUIDs: got %v", uuids)
	}
	mfg, _ := props["ManufacturerData"].Value().(map[uint16]interface{})
	data, _ := mfg[0x004C].([]byte)
	if !bytes.Equal(data, []byte{0x02, 0x15}) {
		t.Errorf("ManufacturerData: got %v", mfg)
	}
	if got := props["MinInterval"].Value(); got != uint32(100) {
		t.Errorf("MinInterval: got %v", got)
	}
	if got := props["MaxInterval"].Value(); got != uint32(200) {
		t.Errorf("MaxInterval: got %v", got)
	}

	// Non-connectable sets advertise as broadcast.
	props = advProperties(ble.AdvertisingParams{}.Wire(), nil, nil)
	if got := props["Type"].Value(); got != "broadcast" {
		t.Errorf("broadcast Type: got %v", got)
	}
	if _, ok := props["LocalName"]; ok {
		t.Error("empty set should carry no LocalName")
	}
}

func TestDevicePayload(t *testing.T) {
	props := map[string]dbus.Variant{
		"Name":  dbus.MakeVariant("sensor"),
		"UUIDs": dbus.MakeVariant([]string{"0000180d-0000-1000-8000-00805f9b34fb"}),
	}
	fields := ble.UnmarshalFields(devicePayload(props))
	if len(fields) != 2 {
		t.Fatalf("payload fields: got %d want 2", len(fields))
	}
	if fields[0] != ble.CompleteName("sensor") {
		t.Errorf("name field: got %#v", fields[0])
	}
	list, ok := fields[1].(ble.UUIDList)
	if !ok || len(list.UUIDs) != 1 || !list.UUIDs[0].Equal(ble.UUID16(0x180D)) {
		t.Errorf("uuid field: got %#v", fields[1])
	}

	if got := devicePayload(map[string]dbus.Variant{}); len(got) != 0 {
		t.Errorf("empty props: got % x", got)
	}
}

func TestReadWriteValueWithoutHandler(t *testing.T) {
	// A notify-only characteristic carries no read or write handler;
	// peer requests must be refused here, never dispatched.
	ec := &exportedChar{
		host:  New("hci0"),
		value: &ble.Attribute{UUID: ble.UUID16(0x2A37)},
	}
	if _, e := ec.ReadValue(nil); e == nil || e.Name != "org.bluez.Error.NotPermitted" {
		t.Errorf("ReadValue without handler: got %v", e)
	}
	if e := ec.WriteValue([]byte{1}, nil); e == nil || e.Name != "org.bluez.Error.NotPermitted" {
		t.Errorf("WriteValue without handler: got %v", e)
	}
}

func TestNotifyStates(t *testing.T) {
	h := New("hci0")
	ec := &exportedChar{
		host:  h,
		decl:  &ble.CharacteristicDecl{UUID: ble.UUID16(0x2A37)},
		value: &ble.Attribute{},
	}
	h.services = []*exportedService{{chars: []*exportedChar{ec}}}

	u := ble.UUID16(0x2A37)
	if got := h.Notify(nil, &ble.NotifyParams{UUID: &u}); got != -128 {
		t.Errorf("Notify without subscriber: got %d", got)
	}
	other := ble.UUID16(0x2A38)
	if got := h.Notify(nil, &ble.NotifyParams{UUID: &other}); got != -88 {
		t.Errorf("Notify of unknown characteristic: got %d", got)
	}

	ec.StartNotify()
	h.mu.Lock()
	subscribed := ec.notifying
	h.mu.Unlock()
	if !subscribed {
		t.Error("StartNotify did not subscribe")
	}
	ec.StopNotify()
	h.mu.Lock()
	subscribed = ec.notifying
	h.mu.Unlock()
	if subscribed {
		t.Error("StopNotify did not unsubscribe")
	}
}

func TestOptionOffset(t *testing.T) {
	if got := optionOffset(nil); got != 0 {
		t.Errorf("nil options: got %d", got)
	}
	opts := map[string]dbus.Variant{"offset": dbus.MakeVariant(uint16(7))}
	if got := optionOffset(opts); got != 7 {
		t.Errorf("offset option: got %d", got)
	}
}

func TestIntervalMs(t *testing.T) {
	if got := intervalMs(160); got != 100 {
		t.Errorf("intervalMs(160): got %d", got)
	}
	if got := intervalMs(0x0800); got != 1280 {
		t.Errorf("intervalMs(0x0800): got %d", got)
	}
}
