// Package deviceconfig contains built-in board descriptions for machines
// whose memory map is fixed, so that no board file is needed for them.
package deviceconfig

import "github.com/gokrazy/zeropage/config"

const (
	kib = 1024
	mib = 1024 * kib
)

// lowMemory is the PC memory layout below 1 MiB: conventional memory, the
// EBDA and the BIOS area.
var lowMemory = []config.Region{
	{Addr: 0, Size: 639 * kib, Type: "ram"},
	{Addr: 639 * kib, Size: 1 * kib, Type: "reserved"},
	{Addr: 0xf0000, Size: 64 * kib, Type: "reserved"},
}

// highReserved are the regions QEMU's PC machines reserve below 4 GiB.
var highReserved = []config.Region{
	{Addr: 0xfeffc000, Size: 16 * kib, Type: "reserved"},
	{Addr: 0xfffc0000, Size: 256 * kib, Type: "reserved"},
}

func qemuPC(ramBytes config.Size) config.Board {
	var regions []config.Region
	regions = append(regions, lowMemory...)
	regions = append(regions, config.Region{Addr: 1 * mib, Size: ramBytes - 1*mib, Type: "ram"})
	regions = append(regions, highReserved...)
	return config.Board{MemoryMap: regions}
}

type DeviceConfig struct {
	Board config.Board
	// Slug is a unique, short string used by gokr-zeropage --board to refer
	// to this device.
	Slug string
}

var (
	// DeviceConfigs maps a human readable machine name to its board
	// description.
	DeviceConfigs = map[string]DeviceConfig{
		"QEMU PC, 256 MiB": {
			Board: qemuPC(256 * mib),
			Slug:  "qemu-256m",
		},
		"QEMU PC, 1 GiB": {
			Board: qemuPC(1024 * mib),
			Slug:  "qemu-1g",
		},
	}
)

func GetDeviceConfigBySlug(slug string) (DeviceConfig, bool) {
	for _, cfg := range DeviceConfigs {
		if cfg.Slug == slug {
			return cfg, true
		}
	}

	return DeviceConfig{}, false
}
