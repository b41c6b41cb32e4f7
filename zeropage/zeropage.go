// Package zeropage builds the Linux/x86 zero page (struct boot_params), the
// 4 KiB structure a boot loader hands to the kernel at entry.
//
// Only the setup header, the ACPI RSDP address, the unaccepted memory
// address and the e820 table are ever written. Everything else is kept at
// zero so that kernel code paths looking at legacy fields see them unset.
package zeropage

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/gokrazy/zeropage/e820"
	"github.com/gokrazy/zeropage/setupheader"
)

// Size is the size of BootParams in bytes.
const Size = 0x1000

// MaxE820Entries is the capacity of the zero page e820 table
// (E820_MAX_ENTRIES_ZEROPAGE).
const MaxE820Entries = 128

// edd_mbr_sig_buffer starts at this fixed offset, the setup header has to fit
// in front of it.
const eddMBRSigBufferOffset = 0x290

var ErrTableFull = errors.New("e820 table full")

// ErrBufferTooSmall is returned when decoding from fewer than Size bytes.
var ErrBufferTooSmall = setupheader.ErrBufferTooSmall

// Legacy regions. They are never interpreted and only reserve their offset
// and size.
type (
	ScreenInfo    [0x40]byte
	APMBIOSInfo   [0x14]byte
	ISTInfo       [0x10]byte
	SysDescTable  [0x10]byte
	OLPCOFWHeader [0x10]byte
	EDIDInfo      [0x80]byte
	EFIInfo       [0x20]byte
	EDDInfo       [0x52]byte
)

// BootParams is struct boot_params. Its binary.LittleEndian encoding is the
// packed C layout; the comments give each field's offset.
type BootParams struct {
	ScreenInfo          ScreenInfo    // 0x000
	APMBIOSInfo         APMBIOSInfo   // 0x040
	_                   [4]byte       // 0x054
	TbootAddr           uint64        // 0x058
	ISTInfo             ISTInfo       // 0x060
	ACPIRSDPAddr        uint64        // 0x070
	UnacceptedMemory    uint64        // 0x078
	HD0Info             [0x10]byte    // 0x080, obsolete
	HD1Info             [0x10]byte    // 0x090, obsolete
	SysDescTable        SysDescTable  // 0x0a0, obsolete
	OLPCOFWHeader       OLPCOFWHeader // 0x0b0
	ExtRamdiskImage     uint32        // 0x0c0
	ExtRamdiskSize      uint32        // 0x0c4
	ExtCmdLinePtr       uint32        // 0x0c8
	_                   [0x70]byte    // 0x0cc
	CCBlobAddress       uint32        // 0x13c
	EDIDInfo            EDIDInfo      // 0x140
	EFIInfo             EFIInfo       // 0x1c0
	AltMemK             uint32        // 0x1e0
	Scratch             uint32        // 0x1e4
	E820Entries         uint8         // 0x1e8
	EDDBufEntries       uint8         // 0x1e9
	EDDMBRSigBufEntries uint8         // 0x1ea
	KbdStatus           uint8         // 0x1eb
	SecureBoot          uint8         // 0x1ec
	_                   [2]byte       // 0x1ed

	// Sentinel is 0xff in the kernel image. The kernel takes a non-zero
	// value to mean the loader copied more than the setup header and clears
	// parts of boot_params.
	Sentinel uint8 // 0x1ef

	_               [1]byte                                                             // 0x1f0
	Hdr             setupheader.Header                                                  // 0x1f1
	_               [eddMBRSigBufferOffset - setupheader.Offset - setupheader.Size]byte // 0x26c
	EDDMBRSigBuffer [16]uint32                                                          // 0x290
	E820Table       [MaxE820Entries]e820.Entry                                          // 0x2d0
	_               [48]byte                                                            // 0xcd0
	EDDBuf          [6]EDDInfo                                                          // 0xd00
	_               [276]byte                                                           // 0xeec
}

// New returns an all-zero BootParams.
func New() *BootParams {
	bp := new(BootParams)
	bp.Reset()
	return bp
}

// Reset sets every byte of bp, reserved regions included, to zero.
func (bp *BootParams) Reset() {
	*bp = BootParams{}
}

// EmbedSetupHeader copies hdr into bp. Callers are expected to have validated
// hdr, see setupheader.Parse.
func (bp *BootParams) EmbedSetupHeader(hdr setupheader.Header) {
	bp.Hdr = hdr
}

// SetACPIRSDPAddr records the physical address of the ACPI RSDP.
func (bp *BootParams) SetACPIRSDPAddr(addr uint64) {
	bp.ACPIRSDPAddr = addr
}

// SetUnacceptedMemory records the physical address of the unaccepted memory
// bitmap.
func (bp *BootParams) SetUnacceptedMemory(addr uint64) {
	bp.UnacceptedMemory = addr
}

// AppendE820 adds e after the last populated table entry. Once the table
// holds MaxE820Entries entries, AppendE820 returns ErrTableFull and leaves bp
// unchanged.
func (bp *BootParams) AppendE820(e e820.Entry) error {
	n := int(bp.E820Entries)
	if n >= MaxE820Entries {
		return fmt.Errorf("%w: cannot add %v, table holds %d entries", ErrTableFull, e, n)
	}
	bp.E820Table[n] = e
	bp.E820Entries++
	return nil
}

// SetE820Table replaces the e820 table with entries. Slots past
// len(entries) are cleared. If entries does not fit, ErrTableFull is returned
// and bp is left unchanged.
func (bp *BootParams) SetE820Table(entries []e820.Entry) error {
	if len(entries) > MaxE820Entries {
		return fmt.Errorf("%w: %d entries, capacity is %d", ErrTableFull, len(entries), MaxE820Entries)
	}
	bp.E820Table = [MaxE820Entries]e820.Entry{}
	copy(bp.E820Table[:], entries)
	bp.E820Entries = uint8(len(entries))
	return nil
}

// E820 returns a copy of the populated part of the e820 table.
func (bp *BootParams) E820() []e820.Entry {
	n := int(bp.E820Entries)
	if n > MaxE820Entries {
		n = MaxE820Entries
	}
	return append([]e820.Entry(nil), bp.E820Table[:n]...)
}

// MarshalBinary returns the Size byte encoding of bp.
func (bp *BootParams) MarshalBinary() ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, Size))
	// buf.Write never fails
	binary.Write(buf, binary.LittleEndian, bp)
	return buf.Bytes(), nil
}

// UnmarshalBinary decodes a zero page. data must hold at least Size bytes,
// and its e820 entry count must not exceed MaxE820Entries. On error, bp is
// left unchanged.
func (bp *BootParams) UnmarshalBinary(data []byte) error {
	if len(data) < Size {
		return fmt.Errorf("%w: got %d bytes, need %d", ErrBufferTooSmall, len(data), Size)
	}
	var decoded BootParams
	if err := binary.Read(bytes.NewReader(data[:Size]), binary.LittleEndian, &decoded); err != nil {
		return err
	}
	if n := int(decoded.E820Entries); n > MaxE820Entries {
		return fmt.Errorf("%w: e820_entries is %d, capacity is %d", ErrTableFull, n, MaxE820Entries)
	}
	*bp = decoded
	return nil
}

// WriteTo writes the Size byte encoding of bp to w.
func (bp *BootParams) WriteTo(w io.Writer) (int64, error) {
	b, err := bp.MarshalBinary()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(b)
	return int64(n), err
}
