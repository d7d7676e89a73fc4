package ble

import (
	"errors"
	"strings"
	"sync/atomic"

	log "github.com/sirupsen/logrus"
)

// errContext tags every error raised at the host boundary of this
// package.
const errContext = "bluetooth"

// ErrEnabled is returned by Enable when the enablement capability has
// already been claimed.
var ErrEnabled = errors.New("ble: already enabled")

// apiToken is the arena-of-one guarding enablement: the process holds
// exactly one API capability, and Enable hands it out at most once.
var apiToken atomic.Bool

// An API is the capability to drive an enabled peripheral role. Only
// one instance can ever exist per process; obtain it with Enable.
type API struct {
	host Host
}

// Enable claims the process-wide enablement capability and brings up
// the host stack. ready, if non-nil, is invoked by the host once the
// stack is operational; a non-nil argument reports bring-up failure.
//
// A second call returns ErrEnabled, whether or not the first
// succeeded: like the stack it fronts, the capability is consumed by
// the attempt.
func Enable(h Host, ready func(err error)) (*API, error) {
	if !apiToken.CompareAndSwap(false, true) {
		return nil, ErrEnabled
	}
	var cb func(status int)
	if ready != nil {
		cb = func(status int) { ready(errno(status, errContext)) }
	}
	if err := errno(h.Enable(cb), errContext); err != nil {
		return nil, err
	}
	return &API{host: h}, nil
}

// resetEnableForTest releases the enablement capability. Tests only.
func resetEnableForTest() {
	apiToken.Store(false)
}

// SetName sets the GAP device name. Names containing a NUL byte cannot
// cross the host boundary and are rejected up front.
func (a *API) SetName(name string) error {
	if strings.ContainsRune(name, 0) {
		return &Error{Code: codeNotImplemented, Context: errContext}
	}
	return errno(a.host.SetName(name), errContext)
}

// RegisterConnectionCallbacks registers cb with the host, which holds
// the reference from here on.
func (a *API) RegisterConnectionCallbacks(cb *ConnectionCallbacks) {
	a.host.RegisterConnectionCallbacks(cb)
}

// RegisterService publishes s. Registration is one-shot per Service
// value; registering the same instance twice is rejected here, before
// the host sees it.
func (a *API) RegisterService(s *Service) error {
	if s.registered {
		return &Error{Code: codeNotImplemented, Context: errContext}
	}
	if err := errno(a.host.RegisterService(s), errContext); err != nil {
		return err
	}
	s.registered = true
	return nil
}

// StartAdvertising lowers the advertising and scan-response fields to
// their wire records and starts advertising. Either field slice may be
// nil.
func (a *API) StartAdvertising(p AdvertisingParams, ad, sd []Field) error {
	adRaw := Lower(ad)
	for _, r := range adRaw {
		log.Debugf("adv record type: 0x%02x len: %02d data: % x", r.Type, len(r.Data), r.Data)
	}
	return errno(a.host.StartAdvertising(p.Wire(), adRaw, Lower(sd)), errContext)
}

// StopAdvertising stops advertising.
func (a *API) StopAdvertising() error {
	return errno(a.host.StopAdvertising(), errContext)
}

// StartScanning starts scanning with the given parameters, delivering
// each advertisement report to fn.
func (a *API) StartScanning(p ScanParams, fn ScanFunc) error {
	return errno(a.host.StartScanning(p.Wire(), fn), errContext)
}

// StopScanning stops an active scan.
func (a *API) StopScanning() error {
	return errno(a.host.StopScanning(), errContext)
}

// Discover runs a GATT discovery procedure on c.
func (a *API) Discover(c *Conn, p *DiscoverParams) error {
	return errno(a.host.Discover(c, p), errContext)
}

// Notify sends a notification to c, or to all subscribed peers when c
// is nil.
func (a *API) Notify(c *Conn, p *NotifyParams) error {
	return errno(a.host.Notify(c, p), errContext)
}
