package main

import (
	"bytes"
	"encoding/binary"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"

	"github.com/gokrazy/zeropage/e820"
	"github.com/gokrazy/zeropage/setupheader"
	"github.com/gokrazy/zeropage/zeropage"
)

const board = `
acpi_rsdp_addr: 0xe0000
memory_map:
  - {addr: 0, size: 639K, type: ram}
  - {addr: 0xf0000, size: 64K, type: reserved}
  - {addr: 1M, size: 255M, type: ram}
`

func kernelImage(bootFlag uint16) []byte {
	image := make([]byte, 5*512)
	image[setupheader.Offset] = 4 // setup_sects
	binary.LittleEndian.PutUint16(image[0x1fe:], bootFlag)
	binary.LittleEndian.PutUint32(image[0x202:], setupheader.Signature)
	binary.LittleEndian.PutUint16(image[0x206:], 0x020f)
	image[0x211] = setupheader.LoadedHigh
	return image
}

func testFs(t *testing.T, image []byte) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/boot/vmlinuz", image, 0644); err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(fs, "/etc/board.yaml", []byte(board), 0644); err != nil {
		t.Fatal(err)
	}
	if err := fs.MkdirAll("/out", 0755); err != nil {
		t.Fatal(err)
	}
	return fs
}

func TestRun(t *testing.T) {
	fs := testFs(t, kernelImage(setupheader.BootFlag))
	opts := options{
		kernel: "/boot/vmlinuz",
		board:  "/etc/board.yaml",
		output: "/out/zeropage.bin",
	}
	if err := run(fs, nil, opts); err != nil {
		t.Fatal(err)
	}
	b, err := afero.ReadFile(fs, "/out/zeropage.bin")
	if err != nil {
		t.Fatal(err)
	}
	if got, want := len(b), zeropage.Size; got != want {
		t.Fatalf("zero page is %d bytes, want %d", got, want)
	}
	var bp zeropage.BootParams
	if err := bp.UnmarshalBinary(b); err != nil {
		t.Fatal(err)
	}
	want := []e820.Entry{
		{Addr: 0, Size: 0x9fc00, Type: e820.RAM},
		{Addr: 0xf0000, Size: 0x10000, Type: e820.Reserved},
		{Addr: 0x100000, Size: 0xff00000, Type: e820.RAM},
	}
	if diff := cmp.Diff(want, bp.E820()); diff != "" {
		t.Errorf("unexpected e820 table: diff (-want +got):\n%s", diff)
	}
	if got, want := bp.ACPIRSDPAddr, uint64(0xe0000); got != want {
		t.Errorf("ACPIRSDPAddr = %#x, want %#x", got, want)
	}
	if got, want := bp.Hdr.TypeOfLoader, uint8(setupheader.LoaderUndefined); got != want {
		t.Errorf("TypeOfLoader = %#x, want %#x", got, want)
	}
	if got, want := bp.Hdr.Version, uint16(0x020f); got != want {
		t.Errorf("Version = %#x, want %#x", got, want)
	}
}

func TestRunDump(t *testing.T) {
	fs := testFs(t, kernelImage(setupheader.BootFlag))
	var stdout bytes.Buffer
	opts := options{
		kernel: "/boot/vmlinuz",
		board:  "/etc/board.yaml",
		output: "/out/zeropage.bin",
		dump:   true,
	}
	if err := run(fs, &stdout, opts); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"boot protocol 2.15",
		"loadflags:        0x01 (loaded high: true)",
		"xloadflags:       0x0000 (64-bit entry: false)",
		"e820: [mem 0x0000000000000000-0x000000000009fbff] usable",
		"e820: 3 entries, 255.6 MiB usable",
	} {
		if !strings.Contains(stdout.String(), want) {
			t.Errorf("dump output does not contain %q:\n%s", want, stdout.String())
		}
	}
	if _, err := fs.Stat("/out/zeropage.bin"); err == nil {
		t.Errorf("--dump unexpectedly wrote the zero page")
	}
}

func TestRunInvalidKernel(t *testing.T) {
	fs := testFs(t, kernelImage(0))
	opts := options{
		kernel: "/boot/vmlinuz",
		board:  "/etc/board.yaml",
		output: "/out/zeropage.bin",
	}
	err := run(fs, nil, opts)
	if !errors.Is(err, setupheader.ErrInvalidBootFlag) {
		t.Fatalf("run() = %v, want %v", err, setupheader.ErrInvalidBootFlag)
	}
}

func TestRunTruncatedKernel(t *testing.T) {
	fs := testFs(t, make([]byte, 100))
	opts := options{
		kernel: "/boot/vmlinuz",
		board:  "/etc/board.yaml",
		output: "/out/zeropage.bin",
	}
	err := run(fs, nil, opts)
	if !errors.Is(err, setupheader.ErrBufferTooSmall) {
		t.Fatalf("run() = %v, want %v", err, setupheader.ErrBufferTooSmall)
	}
}

func TestRunBuiltinBoard(t *testing.T) {
	fs := testFs(t, kernelImage(setupheader.BootFlag))
	opts := options{
		kernel: "/boot/vmlinuz",
		board:  "qemu-1g",
		output: "/out/zeropage.bin",
	}
	if err := run(fs, nil, opts); err != nil {
		t.Fatal(err)
	}
	b, err := afero.ReadFile(fs, "/out/zeropage.bin")
	if err != nil {
		t.Fatal(err)
	}
	var bp zeropage.BootParams
	if err := bp.UnmarshalBinary(b); err != nil {
		t.Fatal(err)
	}
	if got, want := int(bp.E820Entries), 6; got != want {
		t.Errorf("E820Entries = %d, want %d", got, want)
	}
}

func TestRunRequiresKernel(t *testing.T) {
	if err := run(afero.NewMemMapFs(), nil, options{board: "qemu-1g"}); err == nil {
		t.Fatalf("run() without --kernel unexpectedly succeeded")
	}
}
