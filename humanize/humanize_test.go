package humanize

import "testing"

func TestBytes(t *testing.T) {
	for _, tt := range []struct {
		in   uint64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1 KiB"},
		{0x9fc00, "639 KiB"},
		{1536, "1.5 KiB"},
		{256 << 20, "256 MiB"},
		{4 << 30, "4 GiB"},
		{3<<30 + 512<<20, "3.5 GiB"},
	} {
		if got := Bytes(tt.in); got != tt.want {
			t.Errorf("Bytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseBytes(t *testing.T) {
	for _, tt := range []struct {
		in   string
		want uint64
	}{
		{"0", 0},
		{"4096", 4096},
		{"0x100000", 0x100000},
		{"0XE0000", 0xe0000},
		{"0x000ff", 0xff},
		{"0K", 0},
		{"10M", 10 << 20},
		{"640K", 640 << 10},
		{"640k", 640 << 10},
		{"256M", 256 << 20},
		{"256MiB", 256 << 20},
		{"2 GiB", 2 << 30},
		{"4G", 4 << 30},
		{"16b", 16},
	} {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseBytes(tt.in)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("ParseBytes(%q) = %#x, want %#x", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseBytesInvalid(t *testing.T) {
	for _, in := range []string{
		"", "M", "lots", "-1", "0x", "99999999999999999999G",
		"0640K", "010M", "00", "1_0M", "0x1_0", "0b101", "0o17", "+5", "0x+5",
	} {
		if got, err := ParseBytes(in); err == nil {
			t.Errorf("ParseBytes(%q) = %d, want error", in, got)
		}
	}
}
