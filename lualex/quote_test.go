// Copyright 2024 The zb Authors
// SPDX-License-Identifier: MIT

package lualex

import "testing"

func TestUnquote(t *testing.T) {
	tests := []struct {
		s    string
		want string
		err  bool
	}{
		{s: `""`, want: ""},
		{s: `''`, want: ""},
		{s: `"abc"`, want: "abc"},
		{s: `'it\'s'`, want: "it's"},
		{s: `"\a\b\f\n\r\t\v\\\"\'"`, want: "\a\b\f\n\r\t\v\\\"'"},
		{s: "'a\\\nb'", want: "a\nb"},
		{s: "'a\\\r\nb'", want: "a\nb"},
		{s: "'a\\z  \n\t  b'", want: "ab"},
		{s: `"\x41\x6a"`, want: "Aj"},
		{s: `"\65\066\0067"`, want: "AB\x067"},
		{s: `"\u{48}\u{7FF}\u{FFFF}"`, want: "H\u07ff\uffff"},
		{s: `"\u{7FFFFFFF}"`, want: "\xfd\xbf\xbf\xbf\xbf\xbf"},
		{s: `"\u{D800}"`, want: "\xed\xa0\x80"},
		{s: "[[abc]]", want: "abc"},
		{s: "[[\nabc]]", want: "abc"},
		{s: "[[\r\nabc]]", want: "abc"},
		{s: "[[\n\nabc]]", want: "\nabc"},
		{s: "[==[a]]b]==]", want: "a]]b"},
		{s: "[[a\r\nb\n\rc\rd]]", want: "a\nb\nc\nd"},
		{s: "", err: true},
		{s: `"`, err: true},
		{s: `"abc`, err: true},
		{s: `"abc'`, err: true},
		{s: `"\q"`, err: true},
		{s: `"\x4"`, err: true},
		{s: `"\256"`, err: true},
		{s: `"\u{}"`, err: true},
		{s: `"\u48"`, err: true},
		{s: `"\u{80000000}"`, err: true},
		{s: "\"a\nb\"", err: true},
		{s: "[=[abc]]", err: true},
		{s: "[[a]]b]]", err: true},
		{s: "abc", err: true},
	}
	for _, test := range tests {
		got, err := Unquote(test.s)
		if got != test.want || (err != nil) != test.err {
			wantError := "<nil>"
			if test.err {
				wantError = "<error>"
			}
			t.Errorf("Unquote(%q) = %q, %v; want %q, %s", test.s, got, err, test.want, wantError)
		}
	}
}

func TestQuote(t *testing.T) {
	tests := []struct {
		s    string
		want string
	}{
		{"", `""`},
		{"abc", `"abc"`},
		{"a\"b\\c", `"a\"b\\c"`},
		{"\a\b\f\n\r\t\v", `"\a\b\f\n\r\t\v"`},
		{"\x00", `"\u{0}"`},
		{"\xff", `"\xff"`},
		{"é", `"\u{e9}"`},
	}
	for _, test := range tests {
		got := Quote(test.s)
		if got != test.want {
			t.Errorf("Quote(%q) = %s; want %s", test.s, got, test.want)
		}
		if s, err := Unquote(got); s != test.s || err != nil {
			t.Errorf("Unquote(Quote(%q)) = %q, %v; want %q, <nil>", test.s, s, err, test.s)
		}
	}
}
