// Package ble implements the data-plane core of a Bluetooth Low
// Energy peripheral: advertising and scan-response payload
// construction and parsing, BLE UUID canonicalization across the
// 16/32/128-bit widths, and the GATT attribute table model exposing
// local services to remote centrals.
//
// The radio, the connections, and the event loop belong to an
// external host stack, abstracted by the Host interface. Applications
// build an attribute table, claim the single enablement capability
// with Enable, and hand the table and parameter records to the host;
// the host calls back into DispatchRead/DispatchWrite on attribute
// access and into the registered callbacks on connection and scan
// events. All callbacks arrive on the host's serialized event context;
// nothing in this package blocks, suspends, or locks.
//
// A typical peripheral:
//
//	hrm := ble.MustParseUUID("180d")
//	attrs := []*ble.Attribute{ble.PrimaryService(hrm)}
//	attrs = append(attrs, ble.Characteristic(
//		ble.MustParseUUID("2a37"),
//		ble.PropRead|ble.PropNotify, ble.PermRead,
//		ble.ReadFunc(func(resp ble.ReadResponseWriter, req *ble.ReadRequest) {
//			resp.Write([]byte{0x00, 72})
//		}),
//		nil, nil)...)
//	svc := ble.NewService(attrs...)
//
//	api, err := ble.Enable(host, nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := api.RegisterService(svc); err != nil {
//		log.Fatal(err)
//	}
//	err = api.StartAdvertising(params,
//		[]ble.Field{ble.Flags(ble.FlagGeneralDiscoverable | ble.FlagNoBREDR),
//			ble.UUIDList{UUIDs: []ble.UUID{hrm}, Complete: true}},
//		[]ble.Field{ble.CompleteName("gopher")})
//
// A registered Service is shared by reference with the host for the
// rest of the process lifetime: keep it alive and do not mutate it.
//
// The bluez subpackage provides a best-effort Host backed by the
// BlueZ D-Bus API on Linux.
package ble
