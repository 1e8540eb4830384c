package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// ByteSize is a byte count that parses human readable sizes such as "64MiB"
// from flags and YAML.
type ByteSize uint64

var sizeUnits = []struct {
	suffix string
	bytes  uint64
}{
	{"TiB", humanize.TiByte},
	{"GiB", humanize.GiByte},
	{"MiB", humanize.MiByte},
	{"KiB", humanize.KiByte},
}

// String implements pflag.Value. The result parses back to the same value.
func (b ByteSize) String() string {
	n := uint64(b)
	for _, u := range sizeUnits {
		if n != 0 && n%u.bytes == 0 {
			return fmt.Sprintf("%d%s", n/u.bytes, u.suffix)
		}
	}
	return fmt.Sprintf("%d", n)
}

// Human formats b rounded to the largest fitting unit.
func (b ByteSize) Human() string {
	return humanize.IBytes(uint64(b))
}

// Set implements pflag.Value.
func (b *ByteSize) Set(s string) error {
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return fmt.Errorf("invalid size %q: %w", s, err)
	}
	*b = ByteSize(n)
	return nil
}

// Type implements pflag.Value.
func (b *ByteSize) Type() string {
	return "size"
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (b *ByteSize) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	return b.Set(s)
}

// MarshalYAML implements yaml.Marshaler.
func (b ByteSize) MarshalYAML() (any, error) {
	return b.String(), nil
}
