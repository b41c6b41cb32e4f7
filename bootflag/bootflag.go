// Package bootflag holds the command line flags shared by the zero page
// tools. Defaults come from the environment so that scripts can set them
// once.
package bootflag

import (
	"os"

	"github.com/spf13/pflag"
)

var (
	kernel = os.Getenv("ZEROPAGE_KERNEL")

	board = func() string {
		def := os.Getenv("ZEROPAGE_BOARD")
		if def == "" {
			def = "board.yaml"
		}
		return def
	}()

	output = func() string {
		def := os.Getenv("ZEROPAGE_OUTPUT")
		if def == "" {
			def = "zeropage.bin"
		}
		return def
	}()

	dump bool
)

func RegisterPflags(fs *pflag.FlagSet) {
	fs.StringVarP(&kernel,
		"kernel",
		"k",
		kernel,
		`path to the Linux kernel image (bzImage)`)

	fs.StringVarP(&board,
		"board",
		"b",
		board,
		`board description (YAML): ACPI RSDP address and memory map. Relative paths are also looked up in ~/.config/gokrazy/zeropage`)

	fs.StringVarP(&output,
		"output",
		"o",
		output,
		`path to write the 4096 byte zero page to`)

	fs.BoolVar(&dump,
		"dump",
		dump,
		`print the parsed setup header and memory map instead of writing the zero page`)
}

func SetKernel(k string) {
	kernel = k
}

func SetBoard(b string) {
	board = b
}

func SetOutput(o string) {
	output = o
}

func SetDump(d bool) {
	dump = d
}

func Kernel() string {
	return kernel
}

func Board() string {
	return board
}

func Output() string {
	return output
}

func Dump() bool {
	return dump
}
