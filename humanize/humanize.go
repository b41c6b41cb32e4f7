// Package humanize formats and parses memory sizes the way they appear in
// board descriptions and log output.
package humanize

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	kib = 1024
	mib = 1024 * kib
	gib = 1024 * mib
)

func Bytes(bytes uint64) string {
	switch {
	case bytes >= gib && bytes%gib == 0:
		return fmt.Sprintf("%d GiB", bytes/gib)
	case bytes > gib:
		return fmt.Sprintf("%.1f GiB", float64(bytes)/gib)
	case bytes >= mib && bytes%mib == 0:
		return fmt.Sprintf("%d MiB", bytes/mib)
	case bytes > mib:
		return fmt.Sprintf("%.1f MiB", float64(bytes)/mib)
	case bytes >= kib && bytes%kib == 0:
		return fmt.Sprintf("%d KiB", bytes/kib)
	case bytes > kib:
		return fmt.Sprintf("%.1f KiB", float64(bytes)/kib)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

var suffixes = []struct {
	suffix string
	factor uint64
}{
	// longest first, so that "KiB" is not taken for "B"
	{"kib", kib},
	{"mib", mib},
	{"gib", gib},
	{"kb", kib},
	{"mb", mib},
	{"gb", gib},
	{"k", kib},
	{"m", mib},
	{"g", gib},
	{"b", 1},
}

// ParseBytes parses a size or address such as "4096", "0x100000", "640K" or
// "2 GiB". Suffixes are binary (K = 1024) and case-insensitive. Numbers are
// either plain decimal or 0x-prefixed hex; decimals with a leading zero are
// rejected rather than read as octal.
func ParseBytes(s string) (uint64, error) {
	str := strings.ToLower(strings.TrimSpace(s))
	factor := uint64(1)
	base := 10
	if strings.HasPrefix(str, "0x") {
		str = str[len("0x"):]
		base = 16
	} else {
		for _, sf := range suffixes {
			if strings.HasSuffix(str, sf.suffix) {
				str = strings.TrimSpace(strings.TrimSuffix(str, sf.suffix))
				factor = sf.factor
				break
			}
		}
		if len(str) > 1 && str[0] == '0' {
			return 0, fmt.Errorf("invalid size %q: leading zero", s)
		}
	}
	n, err := strconv.ParseUint(str, base, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	if n != 0 && n*factor/factor != n {
		return 0, fmt.Errorf("size %q overflows 64 bits", s)
	}
	return n * factor, nil
}
