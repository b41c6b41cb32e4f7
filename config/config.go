// Package config reads board descriptions: the firmware-discovered values and
// the memory map which gokr-zeropage places into the zero page.
//
// A board description is a YAML file such as:
//
//	acpi_rsdp_addr: 0xe0000
//	memory_map:
//	  - {addr: 0, size: 639K, type: ram}
//	  - {addr: 0xf0000, size: 64K, type: reserved}
//	  - {addr: 1M, size: 255M, type: ram}
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/gokrazy/zeropage/e820"
	"github.com/gokrazy/zeropage/humanize"
	"github.com/gokrazy/zeropage/zeropage"
)

func userConfigDir() string {
	userConfigDir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return userConfigDir
}

// Typically ~/.config/gokrazy/zeropage on Linux
// Typically ~/Library/Application\ Support/gokrazy/zeropage on macOS/Darwin
func zeropageConfigDir() string {
	dir := userConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "gokrazy", "zeropage")
}

// Dir returns the directory searched for board files given as relative
// paths, or "" if the user config directory is unknown.
func Dir() string { return zeropageConfigDir() }

// Size is an address or length. In YAML it can be written as a plain
// integer or as a string understood by humanize.ParseBytes.
type Size uint64

func (s *Size) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a size, got %s", value.Line, value.Tag)
	}
	n, err := humanize.ParseBytes(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %v", value.Line, err)
	}
	*s = Size(n)
	return nil
}

// Region is one memory map entry. Type is any name e820.ParseType accepts.
type Region struct {
	Addr Size   `yaml:"addr"`
	Size Size   `yaml:"size"`
	Type string `yaml:"type"`
}

type Board struct {
	ACPIRSDPAddr     Size     `yaml:"acpi_rsdp_addr"`
	UnacceptedMemory Size     `yaml:"unaccepted_memory"`
	MemoryMap        []Region `yaml:"memory_map"`
}

// E820 converts the memory map into e820 entries.
func (b *Board) E820() ([]e820.Entry, error) {
	entries := make([]e820.Entry, 0, len(b.MemoryMap))
	for idx, r := range b.MemoryMap {
		typ, err := e820.ParseType(r.Type)
		if err != nil {
			return nil, fmt.Errorf("memory_map[%d]: %v", idx, err)
		}
		entries = append(entries, e820.Entry{
			Addr: uint64(r.Addr),
			Size: uint64(r.Size),
			Type: typ,
		})
	}
	return entries, nil
}

// Validate checks that the memory map fits into the zero page and that no
// region is empty or wraps around the address space.
func (b *Board) Validate() error {
	if len(b.MemoryMap) == 0 {
		return fmt.Errorf("memory_map is empty")
	}
	if got, limit := len(b.MemoryMap), zeropage.MaxE820Entries; got > limit {
		return fmt.Errorf("memory_map has %d regions, the zero page holds at most %d: %w", got, limit, zeropage.ErrTableFull)
	}
	for idx, r := range b.MemoryMap {
		if r.Size == 0 {
			return fmt.Errorf("memory_map[%d]: size is zero", idx)
		}
		if uint64(r.Addr)+uint64(r.Size) < uint64(r.Addr) {
			return fmt.Errorf("memory_map[%d]: region %#x+%#x wraps around", idx, r.Addr, r.Size)
		}
	}
	_, err := b.E820()
	return err
}

// ParseBoard decodes and validates a board description.
func ParseBoard(b []byte) (*Board, error) {
	var board Board
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&board); err != nil {
		return nil, err
	}
	if err := board.Validate(); err != nil {
		return nil, err
	}
	return &board, nil
}

// ReadBoard reads the board description at path from fs. A relative path
// which does not exist is then looked up in Dir().
func ReadBoard(fs afero.Fs, path string) (*Board, error) {
	b, err := afero.ReadFile(fs, path)
	if err != nil {
		if !os.IsNotExist(err) || filepath.IsAbs(path) || Dir() == "" {
			return nil, err
		}
		// fall back to global path
		b, err = afero.ReadFile(fs, filepath.Join(Dir(), path))
		if err != nil {
			return nil, err
		}
		path = filepath.Join(Dir(), path)
	}
	board, err := ParseBoard(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return board, nil
}
