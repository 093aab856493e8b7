// Copyright 2024 The zb Authors
// SPDX-License-Identifier: MIT

package lualex

import (
	"errors"
	"math"
	"strconv"
	"testing"
)

func TestParseInt(t *testing.T) {
	tests := []struct {
		s    string
		want int64
		err  error
	}{
		{s: "0", want: 0},
		{s: "1", want: 1},
		{s: "-1", want: -1},
		{s: "+7", want: 7},
		{s: " 42\n", want: 42},
		{s: "345", want: 345},
		{s: "1000000", want: 1000000},
		{s: "0xff", want: 0xff},
		{s: "0XBEBADA", want: 0xBEBADA},
		{s: "-0x1", want: -1},
		{s: "0x7fffffffffffffff", want: math.MaxInt64},
		{s: "0x8000000000000000", want: math.MinInt64},
		{s: "0xffffffffffffffff", want: -1},
		{s: "0x10000000000000001", want: 1},
		{s: "9223372036854775807", want: math.MaxInt64},
		{s: "-9223372036854775808", want: math.MinInt64},
		{s: "9223372036854775808", want: math.MaxInt64, err: strconv.ErrRange},
		{s: "", err: strconv.ErrSyntax},
		{s: "0x", err: strconv.ErrSyntax},
		{s: "1_000_000", err: strconv.ErrSyntax},
		{s: "3.0", err: strconv.ErrSyntax},
		{s: "1e3", err: strconv.ErrSyntax},
		{s: "0x1p4", err: strconv.ErrSyntax},
		{s: "abc", err: strconv.ErrSyntax},
	}
	for _, test := range tests {
		got, err := ParseInt(test.s)
		if got != test.want || !errors.Is(err, test.err) || (err == nil) != (test.err == nil) {
			t.Errorf("ParseInt(%q) = %d, %v; want %d, %v", test.s, got, err, test.want, test.err)
		}
		if err != nil {
			if numErr := new(strconv.NumError); !errors.As(err, &numErr) || numErr.Num != test.s {
				t.Errorf("ParseInt(%q) error = %#v; want *strconv.NumError with Num=%q", test.s, err, test.s)
			}
		}
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		s    string
		want float64
		err  bool
	}{
		{s: "0", want: 0},
		{s: "-1", want: -1},
		{s: "3", want: 3},
		{s: "3.0", want: 3},
		{s: "3.", want: 3},
		{s: ".5", want: 0.5},
		{s: "-1.0", want: -1},
		{s: "3.1416", want: 3.1416},
		{s: "314.16e-2", want: 314.16e-2},
		{s: "0.31416E1", want: 0.31416e1},
		{s: "34e1", want: 34e1},
		{s: "1e+2", want: 100},
		{s: "0xff", want: 255},
		{s: "0x0.1E", want: 0x0.1Ep0},
		{s: "0x.8", want: 0.5},
		{s: "0xA23p-4", want: 0xa23p-4},
		{s: "0X1.921FB54442D18P+1", want: 0x1.921FB54442D18p+1},
		{s: "0x1.fp10", want: 1984},
		{s: "0x7fffffffffffffff", want: math.MaxInt64},
		{s: "0xffffffffffffffff", want: -1},
		{s: "9223372036854775808", want: 9223372036854775808},
		{s: "1e400", want: math.Inf(1)},
		{s: "", err: true},
		{s: ".", err: true},
		{s: "1e", err: true},
		{s: "1e+", err: true},
		{s: "1e++2", err: true},
		{s: "1..2", err: true},
		{s: "0x", err: true},
		{s: "0x1p", err: true},
		{s: "3x", err: true},
		{s: "1_000_000", err: true},
		{s: "inf", err: true},
		{s: "-INFINITY", err: true},
		{s: "nan", err: true},
		{s: "NaN", err: true},
	}
	for _, test := range tests {
		got, err := ParseNumber(test.s)
		if got != test.want || (err != nil) != test.err {
			wantError := "<nil>"
			if test.err {
				wantError = "<error>"
			}
			t.Errorf("ParseNumber(%q) = %g, %v; want %g, %s", test.s, got, err, test.want, wantError)
		}
	}
}

func TestIsFloatNumeral(t *testing.T) {
	tests := []struct {
		s    string
		want bool
	}{
		{"3", false},
		{"345", false},
		{"0xff", false},
		{"0xBEBADA", false},
		{"0xffffffffffffffffff", false},
		{"3.0", true},
		{"3.", true},
		{".5", true},
		{"314.16e-2", true},
		{"34e1", true},
		{"0x0.1E", true},
		{"0xA23p-4", true},
		{"9223372036854775807", false},
		{"9223372036854775808", true},
		{"3x", false},
	}
	for _, test := range tests {
		if got := IsFloatNumeral(test.s); got != test.want {
			t.Errorf("IsFloatNumeral(%q) = %t; want %t", test.s, got, test.want)
		}
	}
}
