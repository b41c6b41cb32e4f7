// gokr-zeropage builds the Linux/x86 zero page (struct boot_params) for a
// kernel image and a board description, as a firmware would right before
// handing control to the kernel.
//
// Example:
//
//	gokr-zeropage --kernel=vmlinuz --board=qemu.yaml --output=zeropage.bin
package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"

	"github.com/gokrazy/zeropage/bootflag"
	"github.com/gokrazy/zeropage/config"
	"github.com/gokrazy/zeropage/deviceconfig"
	"github.com/gokrazy/zeropage/e820"
	"github.com/gokrazy/zeropage/humanize"
	"github.com/gokrazy/zeropage/setupheader"
	"github.com/gokrazy/zeropage/zeropage"
)

type options struct {
	kernel string
	board  string
	output string
	dump   bool
}

// readBoard returns the built-in board named name, or else reads the board
// description file name.
func readBoard(fs afero.Fs, name string) (*config.Board, error) {
	if cfg, ok := deviceconfig.GetDeviceConfigBySlug(name); ok {
		return &cfg.Board, nil
	}
	return config.ReadBoard(fs, name)
}

// build reads the kernel image and board description from fs and returns the
// populated zero page.
func build(fs afero.Fs, opts options) (*zeropage.BootParams, error) {
	image, err := afero.ReadFile(fs, opts.kernel)
	if err != nil {
		return nil, err
	}
	hdr, err := setupheader.Parse(image)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opts.kernel, err)
	}

	board, err := readBoard(fs, opts.board)
	if err != nil {
		return nil, err
	}
	entries, err := board.E820()
	if err != nil {
		return nil, err
	}

	// This is the loader's part of the protocol: we have no assigned
	// loader id.
	hdr.TypeOfLoader = setupheader.LoaderUndefined

	bp := zeropage.New()
	bp.EmbedSetupHeader(hdr)
	bp.SetACPIRSDPAddr(uint64(board.ACPIRSDPAddr))
	bp.SetUnacceptedMemory(uint64(board.UnacceptedMemory))
	if err := bp.SetE820Table(entries); err != nil {
		return nil, err
	}
	return bp, nil
}

func dumpZeroPage(w io.Writer, bp *zeropage.BootParams) {
	hdr := bp.Hdr
	fmt.Fprintf(w, "boot protocol %s\n", hdr.ProtocolString())
	fmt.Fprintf(w, "  setup sectors:    %d (%s)\n", hdr.SetupSectors(), humanize.Bytes(uint64(hdr.SetupSize())))
	fmt.Fprintf(w, "  loadflags:        0x%02x (loaded high: %v)\n", hdr.Loadflags, hdr.LoadedHigh())
	fmt.Fprintf(w, "  xloadflags:       0x%04x (64-bit entry: %v)\n", hdr.Xloadflags, hdr.Is64Bit())
	fmt.Fprintf(w, "  relocatable:      %v\n", hdr.Relocatable())
	fmt.Fprintf(w, "  kernel alignment: %s\n", humanize.Bytes(uint64(hdr.KernelAlignment)))
	fmt.Fprintf(w, "  pref address:     %#x\n", hdr.PrefAddress)
	fmt.Fprintf(w, "  init size:        %s\n", humanize.Bytes(uint64(hdr.InitSize)))
	fmt.Fprintf(w, "  cmdline size:     %d\n", hdr.CmdlineSize)
	fmt.Fprintf(w, "acpi rsdp:          %#x\n", bp.ACPIRSDPAddr)
	fmt.Fprintf(w, "unaccepted memory:  %#x\n", bp.UnacceptedMemory)
	var usable uint64
	for _, e := range bp.E820() {
		fmt.Fprintf(w, "e820: %v\n", e)
		if e.Type == e820.RAM {
			usable += e.Size
		}
	}
	fmt.Fprintf(w, "e820: %d entries, %s usable\n", bp.E820Entries, humanize.Bytes(usable))
}

func writeZeroPage(fs afero.Fs, path string, bp *zeropage.BootParams) error {
	f, err := fs.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := bp.WriteTo(f); err != nil {
		return err
	}
	return f.Close()
}

func run(fs afero.Fs, stdout io.Writer, opts options) error {
	if opts.kernel == "" {
		return fmt.Errorf("--kernel is required")
	}
	bp, err := build(fs, opts)
	if err != nil {
		return err
	}
	if opts.dump {
		dumpZeroPage(stdout, bp)
		return nil
	}
	if err := writeZeroPage(fs, opts.output, bp); err != nil {
		return err
	}
	log.Printf("wrote %s: boot protocol %s, %d e820 entries", opts.output, bp.Hdr.ProtocolString(), bp.E820Entries)
	return nil
}

func main() {
	bootflag.RegisterPflags(pflag.CommandLine)
	pflag.Parse()
	opts := options{
		kernel: bootflag.Kernel(),
		board:  bootflag.Board(),
		output: bootflag.Output(),
		dump:   bootflag.Dump(),
	}
	if err := run(afero.NewOsFs(), os.Stdout, opts); err != nil {
		log.Fatal(err)
	}
}
