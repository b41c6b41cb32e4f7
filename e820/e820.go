// Package e820 describes BIOS e820 style memory map entries as they are laid
// out in the Linux zero page.
package e820

import (
	"fmt"
	"strconv"
	"strings"
)

// EntrySize is the packed size of an Entry in bytes.
const EntrySize = 20

// Type is the kind of memory an Entry describes.
type Type uint32

const (
	RAM        Type = 1
	Reserved   Type = 2
	ACPI       Type = 3
	NVS        Type = 4
	Unusable   Type = 5
	Disabled   Type = 6
	PMEM       Type = 7
	Unaccepted Type = 8
)

// names match what the kernel prints in its e820 boot log.
var names = map[Type]string{
	RAM:        "usable",
	Reserved:   "reserved",
	ACPI:       "ACPI data",
	NVS:        "ACPI NVS",
	Unusable:   "unusable",
	Disabled:   "disabled",
	PMEM:       "persistent (type 7)",
	Unaccepted: "unaccepted",
}

var shortNames = map[string]Type{
	"ram":        RAM,
	"reserved":   Reserved,
	"acpi":       ACPI,
	"nvs":        NVS,
	"unusable":   Unusable,
	"disabled":   Disabled,
	"pmem":       PMEM,
	"unaccepted": Unaccepted,
}

func (t Type) String() string {
	if name, ok := names[t]; ok {
		return name
	}
	return fmt.Sprintf("type %d", uint32(t))
}

// ParseType converts s into a Type. s may be a short name (ram, reserved,
// acpi, nvs, unusable, disabled, pmem, unaccepted), the name the kernel logs
// (e.g. "ACPI data"), or a decimal type number.
func ParseType(s string) (Type, error) {
	s = strings.TrimSpace(s)
	if t, ok := shortNames[strings.ToLower(s)]; ok {
		return t, nil
	}
	for t, name := range names {
		if strings.EqualFold(name, s) {
			return t, nil
		}
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("unknown e820 type %q", s)
	}
	return Type(n), nil
}

// Entry is a single memory region. Its binary.LittleEndian encoding is the
// packed struct boot_e820_entry.
type Entry struct {
	Addr uint64
	Size uint64
	Type Type
}

// End returns the first address after the region.
func (e Entry) End() uint64 {
	return e.Addr + e.Size
}

// String formats e like the kernel's "BIOS-e820:" boot log lines.
func (e Entry) String() string {
	last := e.End()
	if e.Size > 0 {
		last--
	}
	return fmt.Sprintf("[mem 0x%016x-0x%016x] %s", e.Addr, last, e.Type)
}
