package setupheader

import "fmt"

// ProtocolString formats Version the way the boot protocol documentation
// does, e.g. "2.15".
func (h Header) ProtocolString() string {
	return fmt.Sprintf("%d.%02d", h.Version>>8, h.Version&0xff)
}

// LoadedHigh reports whether the protected-mode code is to be loaded at
// 0x100000.
func (h Header) LoadedHigh() bool {
	return h.Loadflags&LoadedHigh != 0
}

// Is64Bit reports whether the kernel has the legacy 64-bit entry point at
// 0x200.
func (h Header) Is64Bit() bool {
	return h.Xloadflags&XLFKernel64 != 0
}

// Relocatable reports whether the protected-mode kernel may be loaded at any
// address aligned to KernelAlignment.
func (h Header) Relocatable() bool {
	return h.RelocatableKernel != 0
}

// SetupSectors returns the number of 512-byte real-mode setup sectors. For
// historical reasons a value of 0 means 4.
func (h Header) SetupSectors() int {
	if h.SetupSects == 0 {
		return 4
	}
	return int(h.SetupSects)
}

// SetupSize returns the size of the real-mode setup code in bytes.
func (h Header) SetupSize() int {
	return 512 * h.SetupSectors()
}

// PayloadOffsetInImage returns the file offset at which the protected-mode
// kernel starts: after the boot sector and the setup sectors.
func (h Header) PayloadOffsetInImage() int {
	return 512 * (1 + h.SetupSectors())
}
