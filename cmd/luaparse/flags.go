// Copyright 2025 The zb Authors
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"math"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/go-json-experiment/json/jsontext"
	"zb.256lights.llc/luaparse/internal/transcode"
)

// byteSize is a number of bytes
// that can be written with a unit suffix (e.g. "64MiB").
// The zero value means no limit.
type byteSize int64

func (b *byteSize) Type() string { return "size" }

func (b byteSize) String() string {
	if b == 0 {
		return "0"
	}
	return humanize.IBytes(uint64(b))
}

func (b *byteSize) Set(s string) error {
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return err
	}
	if n > math.MaxInt64 {
		return fmt.Errorf("%s is too large", s)
	}
	*b = byteSize(n)
	return nil
}

// UnmarshalJSONFrom accepts either a number of bytes
// or a string accepted by [byteSize.Set].
func (b *byteSize) UnmarshalJSONFrom(in *jsontext.Decoder) error {
	tok, err := in.ReadToken()
	if err != nil {
		return err
	}
	switch tok.Kind() {
	case '"':
		return b.Set(tok.String())
	case '0':
		n, err := strconv.ParseInt(tok.String(), 10, 64)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid size %s", tok.String())
		}
		*b = byteSize(n)
		return nil
	default:
		return fmt.Errorf("size must be a string or a number (got %v)", tok.Kind())
	}
}

// optionalInt is an integer flag that records whether it was set.
type optionalInt struct {
	n     int
	valid bool
}

func (o *optionalInt) Type() string { return "int" }

func (o optionalInt) String() string {
	if !o.valid {
		return ""
	}
	return strconv.Itoa(o.n)
}

func (o *optionalInt) Set(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*o = optionalInt{n: n, valid: true}
	return nil
}

// colorMode controls whether diagnostics are colored.
type colorMode int

const (
	colorAuto colorMode = iota
	colorAlways
	colorNever
)

func (c *colorMode) Type() string { return "when" }

func (c colorMode) String() string {
	switch c {
	case colorAuto:
		return "auto"
	case colorAlways:
		return "always"
	case colorNever:
		return "never"
	default:
		return "colorMode(" + strconv.Itoa(int(c)) + ")"
	}
}

func (c *colorMode) Set(s string) error {
	switch s {
	case "auto":
		*c = colorAuto
	case "always":
		*c = colorAlways
	case "never":
		*c = colorNever
	default:
		return fmt.Errorf("unknown color mode %q (must be one of auto, always, never)", s)
	}
	return nil
}

// formatFlag adapts [transcode.Format] to [pflag.Value].
//
// [pflag.Value]: https://pkg.go.dev/github.com/spf13/pflag#Value
type formatFlag transcode.Format

func (f *formatFlag) Type() string  { return "format" }
func (f formatFlag) String() string { return transcode.Format(f).String() }
func (f formatFlag) Get() any       { return transcode.Format(f) }

func (f *formatFlag) Set(s string) error {
	format, err := transcode.ParseFormat(s)
	if err != nil {
		return err
	}
	*f = formatFlag(format)
	return nil
}
