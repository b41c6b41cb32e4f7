// Package setupheader reads the real-mode kernel header (struct setup_header)
// which the Linux/x86 boot protocol embeds in the first sectors of a kernel
// image, see https://docs.kernel.org/arch/x86/boot.html.
package setupheader

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// Offset is the byte offset of the header within a kernel image (and within
// the zero page).
const Offset = 0x1f1

// Size is the packed size of Header in bytes. Header follows boot protocol
// 2.15 and ends with kernel_info_offset, so it is 0x7b bytes rather than the
// 0x77 of a layout that stops at handover_offset.
const Size = 0x7b

const (
	// BootFlag is the required value of Header.BootFlag.
	BootFlag = 0xaa55

	// Signature is the required value of Header.Header ("HdrS").
	Signature = 0x53726448

	// MinVersion is the oldest boot protocol version we accept.
	MinVersion = 0x0200

	// LoaderUndefined is the type_of_loader value for boot loaders without an
	// assigned id.
	LoaderUndefined = 0xff
)

// loadflags bits.
const (
	LoadedHigh   = 0x01
	QuietFlag    = 0x20
	KeepSegments = 0x40
	CanUseHeap   = 0x80
)

// xloadflags bits.
const (
	XLFKernel64           = 0x01
	XLFCanBeLoadedAbove4G = 0x02
	XLFEFIHandover32      = 0x04
	XLFEFIHandover64      = 0x08
	XLFEFIKexec           = 0x10
)

// versionEnd is the end of the Version field relative to Offset. Every
// protocol 2.00+ image carries at least this much of the header.
const versionEnd = 0x17

var (
	// ErrBufferTooSmall is returned when the input ends before the fields
	// that must be present.
	ErrBufferTooSmall = errors.New("buffer too small for setup header")
	// ErrInvalidBootFlag is returned when BootFlag is not 0xaa55.
	ErrInvalidBootFlag = errors.New("invalid boot flag")
	// ErrInvalidSignature is returned when Header is not "HdrS".
	ErrInvalidSignature = errors.New("invalid setup header signature")
	// ErrUnsupportedVersion is returned for boot protocols older than 2.00.
	ErrUnsupportedVersion = errors.New("unsupported boot protocol version")
)

// Header is struct setup_header. Its binary.LittleEndian encoding is the
// packed C layout; the comments give the offset relative to Offset.
type Header struct {
	SetupSects          uint8  // 0x00
	RootFlags           uint16 // 0x01
	Syssize             uint32 // 0x03
	RAMSize             uint16 // 0x07
	VidMode             uint16 // 0x09
	RootDev             uint16 // 0x0b
	BootFlag            uint16 // 0x0d
	Jump                uint16 // 0x0f
	Header              uint32 // 0x11
	Version             uint16 // 0x15
	RealmodeSwtch       uint32 // 0x17
	StartSysSeg         uint16 // 0x1b
	KernelVersion       uint16 // 0x1d
	TypeOfLoader        uint8  // 0x1f
	Loadflags           uint8  // 0x20
	SetupMoveSize       uint16 // 0x21
	Code32Start         uint32 // 0x23
	RamdiskImage        uint32 // 0x27
	RamdiskSize         uint32 // 0x2b
	BootsectKludge      uint32 // 0x2f
	HeapEndPtr          uint16 // 0x33
	ExtLoaderVer        uint8  // 0x35
	ExtLoaderType       uint8  // 0x36
	CmdLinePtr          uint32 // 0x37
	InitrdAddrMax       uint32 // 0x3b
	KernelAlignment     uint32 // 0x3f
	RelocatableKernel   uint8  // 0x43
	MinAlignment        uint8  // 0x44
	Xloadflags          uint16 // 0x45
	CmdlineSize         uint32 // 0x47
	HardwareSubarch     uint32 // 0x4b
	HardwareSubarchData uint64 // 0x4f
	PayloadOffset       uint32 // 0x57
	PayloadLength       uint32 // 0x5b
	SetupData           uint64 // 0x5f
	PrefAddress         uint64 // 0x67
	InitSize            uint32 // 0x6f
	HandoverOffset      uint32 // 0x73
	KernelInfoOffset    uint32 // 0x77
}

// Extract decodes the header found at Offset in image. It does not check
// whether the header is genuine, use Validate (or Parse) for that.
//
// image must reach at least up to the end of the Version field. Header bytes
// past the end of a shorter image read as zero.
func Extract(image []byte) (Header, error) {
	if need := Offset + versionEnd; len(image) < need {
		return Header{}, fmt.Errorf("%w: got %d bytes, need at least %d", ErrBufferTooSmall, len(image), need)
	}
	var raw [Size]byte
	copy(raw[:], image[Offset:])
	var h Header
	if err := binary.Read(bytes.NewReader(raw[:]), binary.LittleEndian, &h); err != nil {
		return Header{}, err
	}
	return h, nil
}

// Validate returns an error unless h carries the boot flag, the HdrS
// signature and a protocol version of at least MinVersion, checked in that
// order.
func (h Header) Validate() error {
	if h.BootFlag != BootFlag {
		return fmt.Errorf("%w: %#x != %#x", ErrInvalidBootFlag, h.BootFlag, BootFlag)
	}
	if h.Header != Signature {
		return fmt.Errorf("%w: %#x != %#x", ErrInvalidSignature, h.Header, Signature)
	}
	if h.Version < MinVersion {
		return fmt.Errorf("%w: %#04x < %#04x", ErrUnsupportedVersion, h.Version, MinVersion)
	}
	return nil
}

// Parse extracts the header from image and validates it.
func Parse(image []byte) (Header, error) {
	h, err := Extract(image)
	if err != nil {
		return Header{}, err
	}
	if err := h.Validate(); err != nil {
		return Header{}, err
	}
	return h, nil
}

// MarshalBinary returns the packed Size byte encoding of h.
func (h Header) MarshalBinary() ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, Size))
	// buf.Write never fails
	binary.Write(buf, binary.LittleEndian, &h)
	return buf.Bytes(), nil
}

// UnmarshalBinary decodes the first Size bytes of data into h.
func (h *Header) UnmarshalBinary(data []byte) error {
	if len(data) < Size {
		return fmt.Errorf("%w: got %d bytes, need %d", ErrBufferTooSmall, len(data), Size)
	}
	return binary.Read(bytes.NewReader(data[:Size]), binary.LittleEndian, h)
}
