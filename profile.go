package ble

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// A Profile is a declarative advertising setup: parameters plus the
// advertising-data and scan-response fields to broadcast. Feed the
// pieces straight into API.StartAdvertising.
type Profile struct {
	Name     string
	Params   AdvertisingParams
	AdvData  []Field
	ScanData []Field
}

// profileDoc is the YAML shape of a profile. Unknown keys are
// rejected.
type profileDoc struct {
	Name        string   `yaml:"name"`
	Flags       []string `yaml:"flags"`
	Options     []string `yaml:"options"`
	IntervalMin uint32   `yaml:"interval_min"`
	IntervalMax uint32   `yaml:"interval_max"`
	Services    []string `yaml:"services"`
}

var profileFlags = map[string]AdvFlags{
	"limited":  FlagLimitedDiscoverable,
	"general":  FlagGeneralDiscoverable,
	"no-bredr": FlagNoBREDR,
}

var profileOptions = map[string]AdvOptions{
	"connectable":      AdvOptConnectable,
	"one-time":         AdvOptOneTime,
	"use-identity":     AdvOptUseIdentity,
	"use-name":         AdvOptUseName,
	"force-name-in-ad": AdvOptForceNameInAd,
}

// LoadProfile reads a YAML advertising profile. Service UUIDs may be
// 16-bit ("180d"), 32-bit, or full 128-bit strings. The complete UUID
// list and the flags go into the advertising data; the name, when set,
// becomes the scan-response complete local name.
func LoadProfile(r io.Reader) (*Profile, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var doc profileDoc
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("ble: decode profile: %w", err)
	}
	return buildProfile(&doc)
}

func buildProfile(doc *profileDoc) (*Profile, error) {
	var flags AdvFlags
	for _, f := range doc.Flags {
		bit, ok := profileFlags[f]
		if !ok {
			return nil, fmt.Errorf("ble: profile: unknown flag %q", f)
		}
		flags |= bit
	}

	var opts AdvOptions
	for _, o := range doc.Options {
		bit, ok := profileOptions[o]
		if !ok {
			return nil, fmt.Errorf("ble: profile: unknown option %q", o)
		}
		opts |= bit
	}

	var uu []UUID
	for _, s := range doc.Services {
		u, err := ParseUUID(s)
		if err != nil {
			return nil, fmt.Errorf("ble: profile: service %q: %w", s, err)
		}
		uu = append(uu, u)
	}

	p := &Profile{
		Name: doc.Name,
		Params: AdvertisingParams{
			Options:     opts,
			IntervalMin: doc.IntervalMin,
			IntervalMax: doc.IntervalMax,
		},
	}
	if flags != 0 {
		p.AdvData = append(p.AdvData, Flags(flags))
	}
	if len(uu) > 0 {
		p.AdvData = append(p.AdvData, UUIDList{UUIDs: uu, Complete: true})
	}
	if doc.Name != "" {
		p.ScanData = append(p.ScanData, CompleteName(doc.Name))
	}
	return p, nil
}
