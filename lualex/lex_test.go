// Copyright 2024 The zb Authors
// SPDX-License-Identifier: MIT

package lualex

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// lexeme is a token stripped down to its kind and text.
type lexeme struct {
	Kind TokenKind
	Text string
}

func lexemes(tokens []Token) []lexeme {
	result := make([]lexeme, 0, len(tokens))
	for _, tok := range tokens {
		result = append(result, lexeme{tok.Kind, tok.Text})
	}
	return result
}

func TestScanner(t *testing.T) {
	tests := []struct {
		s    string
		want []lexeme
	}{
		{s: "", want: []lexeme{}},
		{s: "foo", want: []lexeme{{NameToken, "foo"}}},
		{s: "  foo  ", want: []lexeme{{NameToken, "foo"}}},
		{s: "_x9", want: []lexeme{{NameToken, "_x9"}}},
		{s: "3", want: []lexeme{{NumeralToken, "3"}}},
		{s: "345", want: []lexeme{{NumeralToken, "345"}}},
		{s: "0xff", want: []lexeme{{NumeralToken, "0xff"}}},
		{s: "0xBEBADA", want: []lexeme{{NumeralToken, "0xBEBADA"}}},
		{s: "3.0", want: []lexeme{{NumeralToken, "3.0"}}},
		{s: "3.1416", want: []lexeme{{NumeralToken, "3.1416"}}},
		{s: "314.16e-2", want: []lexeme{{NumeralToken, "314.16e-2"}}},
		{s: "0.31416E1", want: []lexeme{{NumeralToken, "0.31416E1"}}},
		{s: "34e1", want: []lexeme{{NumeralToken, "34e1"}}},
		{s: "0x0.1E", want: []lexeme{{NumeralToken, "0x0.1E"}}},
		{s: "0xA23p-4", want: []lexeme{{NumeralToken, "0xA23p-4"}}},
		{s: "0X1.921FB54442D18P+1", want: []lexeme{{NumeralToken, "0X1.921FB54442D18P+1"}}},
		{s: ".5", want: []lexeme{{NumeralToken, ".5"}}},
		{s: `"abc"`, want: []lexeme{{StringToken, `"abc"`}}},
		{s: `'it\'s'`, want: []lexeme{{StringToken, `'it\'s'`}}},
		{s: "'a\\\nb'", want: []lexeme{{StringToken, "'a\\\nb'"}}},
		{s: "'a\\z  \n  b'", want: []lexeme{{StringToken, "'a\\z  \n  b'"}}},
		{s: "[[abc]]", want: []lexeme{{StringToken, "[[abc]]"}}},
		{s: "[==[a]]b]=]c]==]", want: []lexeme{{StringToken, "[==[a]]b]=]c]==]"}}},
		{s: "[=", want: []lexeme{{LBracketToken, "["}, {AssignToken, "="}}},
		{s: "a[b]", want: []lexeme{
			{NameToken, "a"},
			{LBracketToken, "["},
			{NameToken, "b"},
			{RBracketToken, "]"},
		}},
		{s: "and break do else elseif end false for function goto if in local nil not or repeat return then true until while", want: []lexeme{
			{AndToken, "and"},
			{BreakToken, "break"},
			{DoToken, "do"},
			{ElseToken, "else"},
			{ElseifToken, "elseif"},
			{EndToken, "end"},
			{FalseToken, "false"},
			{ForToken, "for"},
			{FunctionToken, "function"},
			{GotoToken, "goto"},
			{IfToken, "if"},
			{InToken, "in"},
			{LocalToken, "local"},
			{NilToken, "nil"},
			{NotToken, "not"},
			{OrToken, "or"},
			{RepeatToken, "repeat"},
			{ReturnToken, "return"},
			{ThenToken, "then"},
			{TrueToken, "true"},
			{UntilToken, "until"},
			{WhileToken, "while"},
		}},
		{s: "+ - * / % ^ # & ~ | << >> // == ~= <= >= < > = ( ) { } [ ] :: ; : , . .. ...", want: []lexeme{
			{AddToken, "+"},
			{SubToken, "-"},
			{MulToken, "*"},
			{DivToken, "/"},
			{ModToken, "%"},
			{PowToken, "^"},
			{LenToken, "#"},
			{BitAndToken, "&"},
			{BitXorToken, "~"},
			{BitOrToken, "|"},
			{LShiftToken, "<<"},
			{RShiftToken, ">>"},
			{IntDivToken, "//"},
			{EqualToken, "=="},
			{NotEqualToken, "~="},
			{LessEqualToken, "<="},
			{GreaterEqualToken, ">="},
			{LessToken, "<"},
			{GreaterToken, ">"},
			{AssignToken, "="},
			{LParenToken, "("},
			{RParenToken, ")"},
			{LBraceToken, "{"},
			{RBraceToken, "}"},
			{LBracketToken, "["},
			{RBracketToken, "]"},
			{LabelToken, "::"},
			{SemiToken, ";"},
			{ColonToken, ":"},
			{CommaToken, ","},
			{DotToken, "."},
			{ConcatToken, ".."},
			{VarargToken, "..."},
		}},
		{s: "a...b....c", want: []lexeme{
			{NameToken, "a"},
			{VarargToken, "..."},
			{NameToken, "b"},
			{VarargToken, "..."},
			{DotToken, "."},
			{NameToken, "c"},
		}},
		{s: "x===y", want: []lexeme{
			{NameToken, "x"},
			{EqualToken, "=="},
			{AssignToken, "="},
			{NameToken, "y"},
		}},
		{s: "a--comment\nb", want: []lexeme{{NameToken, "a"}, {NameToken, "b"}}},
		{s: "a--[[long\ncomment]]b", want: []lexeme{{NameToken, "a"}, {NameToken, "b"}}},
		{s: "a--[==[\n]]\n]==]b", want: []lexeme{{NameToken, "a"}, {NameToken, "b"}}},
		{s: "#!/usr/bin/env lua\nprint(1)", want: []lexeme{
			{NameToken, "print"},
			{LParenToken, "("},
			{NumeralToken, "1"},
			{RParenToken, ")"},
		}},
		{s: "a-b", want: []lexeme{{NameToken, "a"}, {SubToken, "-"}, {NameToken, "b"}}},
		{s: "x.y:z", want: []lexeme{
			{NameToken, "x"},
			{DotToken, "."},
			{NameToken, "y"},
			{ColonToken, ":"},
			{NameToken, "z"},
		}},
	}

	for _, test := range tests {
		tokens, errs := Tokenize(test.s)
		if len(errs) > 0 {
			t.Errorf("Tokenize(%q) errors: %v", test.s, errs)
		}
		if len(tokens) == 0 || tokens[len(tokens)-1].Kind != EOFToken {
			t.Errorf("Tokenize(%q) does not end in EOF", test.s)
			continue
		}
		got := lexemes(tokens[:len(tokens)-1])
		if diff := cmp.Diff(test.want, got, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("Tokenize(%q) (-want +got):\n%s", test.s, diff)
		}
	}
}

func TestScannerPositions(t *testing.T) {
	tests := []struct {
		s    string
		want []Span
	}{
		{
			s: "local x = 1",
			want: []Span{
				{Pos(0, 1, 1), Pos(5, 1, 6)},
				{Pos(6, 1, 7), Pos(7, 1, 8)},
				{Pos(8, 1, 9), Pos(9, 1, 10)},
				{Pos(10, 1, 11), Pos(11, 1, 12)},
				{Pos(11, 1, 12), Pos(11, 1, 12)},
			},
		},
		{
			s: "a\nb\r\nc\n\rd\re",
			want: []Span{
				{Pos(0, 1, 1), Pos(1, 1, 2)},
				{Pos(2, 2, 1), Pos(3, 2, 2)},
				{Pos(5, 3, 1), Pos(6, 3, 2)},
				{Pos(8, 4, 1), Pos(9, 4, 2)},
				{Pos(10, 5, 1), Pos(11, 5, 2)},
				{Pos(11, 5, 2), Pos(11, 5, 2)},
			},
		},
		{
			s: "a\n\nb",
			want: []Span{
				{Pos(0, 1, 1), Pos(1, 1, 2)},
				{Pos(3, 3, 1), Pos(4, 3, 2)},
				{Pos(4, 3, 2), Pos(4, 3, 2)},
			},
		},
		{
			s: "[[\nx]] y",
			want: []Span{
				{Pos(0, 1, 1), Pos(6, 2, 4)},
				{Pos(7, 2, 5), Pos(8, 2, 6)},
				{Pos(8, 2, 6), Pos(8, 2, 6)},
			},
		},
		{
			s: "\tx",
			want: []Span{
				{Pos(1, 1, 2), Pos(2, 1, 3)},
				{Pos(2, 1, 3), Pos(2, 1, 3)},
			},
		},
	}

	for _, test := range tests {
		tokens, _ := Tokenize(test.s)
		got := make([]Span, 0, len(tokens))
		for _, tok := range tokens {
			got = append(got, tok.Span)
		}
		if diff := cmp.Diff(test.want, got); diff != "" {
			t.Errorf("spans for %q (-want +got):\n%s", test.s, diff)
		}
	}
}

func TestScannerTrivia(t *testing.T) {
	tokens, errs := Tokenize("#!lua\n  -- hi\nx --[[ a ]] \n")
	if len(errs) > 0 {
		t.Fatal(errs)
	}
	want := []Token{
		{
			Kind: NameToken,
			Text: "x",
			Span: Span{Pos(14, 3, 1), Pos(15, 3, 2)},
			LeadingTrivia: []Trivia{
				{Kind: ShebangTrivia, Text: "#!lua", Span: Span{Pos(0, 1, 1), Pos(5, 1, 6)}},
				{Kind: WhitespaceTrivia, Text: "\n  ", Span: Span{Pos(5, 1, 6), Pos(8, 2, 3)}},
				{Kind: CommentTrivia, Text: "-- hi", Span: Span{Pos(8, 2, 3), Pos(13, 2, 8)}},
				{Kind: WhitespaceTrivia, Text: "\n", Span: Span{Pos(13, 2, 8), Pos(14, 3, 1)}},
			},
		},
		{
			Kind: EOFToken,
			Span: Span{Pos(27, 4, 1), Pos(27, 4, 1)},
			LeadingTrivia: []Trivia{
				{Kind: WhitespaceTrivia, Text: " ", Span: Span{Pos(15, 3, 2), Pos(16, 3, 3)}},
				{Kind: CommentTrivia, Text: "--[[ a ]]", Span: Span{Pos(16, 3, 3), Pos(25, 3, 12)}},
				{Kind: WhitespaceTrivia, Text: " \n", Span: Span{Pos(25, 3, 12), Pos(27, 4, 1)}},
			},
		},
	}
	if diff := cmp.Diff(want, tokens); diff != "" {
		t.Errorf("tokens (-want +got):\n%s", diff)
	}
}

func TestScannerErrors(t *testing.T) {
	tests := []struct {
		s          string
		want       []lexeme
		wantErrors []*Error
	}{
		{
			s:    "local s = 'abc",
			want: []lexeme{{LocalToken, "local"}, {NameToken, "s"}, {AssignToken, "="}, {StringToken, "'abc"}},
			wantErrors: []*Error{{
				Kind: UnterminatedString,
				Span: Span{Pos(10, 1, 11), Pos(14, 1, 15)},
			}},
		},
		{
			s:    "x = \"abc\ny",
			want: []lexeme{{NameToken, "x"}, {AssignToken, "="}, {StringToken, "\"abc"}, {NameToken, "y"}},
			wantErrors: []*Error{{
				Kind: UnterminatedString,
				Span: Span{Pos(4, 1, 5), Pos(8, 1, 9)},
			}},
		},
		{
			s:    "x = [==[abc]]",
			want: []lexeme{{NameToken, "x"}, {AssignToken, "="}, {StringToken, "[==[abc]]"}},
			wantErrors: []*Error{{
				Kind: UnterminatedLongString,
				Span: Span{Pos(4, 1, 5), Pos(13, 1, 14)},
			}},
		},
		{
			s:    "x --[[ abc",
			want: []lexeme{{NameToken, "x"}},
			wantErrors: []*Error{{
				Kind: UnterminatedLongString,
				Span: Span{Pos(2, 1, 3), Pos(10, 1, 11)},
			}},
		},
		{
			s:    "3x + 1",
			want: []lexeme{{NumeralToken, "3x"}, {AddToken, "+"}, {NumeralToken, "1"}},
			wantErrors: []*Error{{
				Kind: MalformedNumber,
				Span: Span{Pos(0, 1, 1), Pos(2, 1, 3)},
			}},
		},
		{
			s:    "1..2",
			want: []lexeme{{NumeralToken, "1..2"}},
			wantErrors: []*Error{{
				Kind: MalformedNumber,
				Span: Span{Pos(0, 1, 1), Pos(4, 1, 5)},
			}},
		},
		{
			s:    "a @ b",
			want: []lexeme{{NameToken, "a"}, {ErrorToken, "@"}, {NameToken, "b"}},
			wantErrors: []*Error{{
				Kind: UnexpectedSymbol,
				Span: Span{Pos(2, 1, 3), Pos(3, 1, 4)},
			}},
		},
		{
			s:    "a ☃ b",
			want: []lexeme{{NameToken, "a"}, {ErrorToken, "☃"}, {NameToken, "b"}},
			wantErrors: []*Error{{
				Kind: UnexpectedSymbol,
				Span: Span{Pos(2, 1, 3), Pos(5, 1, 6)},
			}},
		},
		{
			s:    `x = 'a\qb'`,
			want: []lexeme{{NameToken, "x"}, {AssignToken, "="}, {StringToken, `'a\qb'`}},
			wantErrors: []*Error{{
				Kind: InvalidEscape,
				Span: Span{Pos(6, 1, 7), Pos(8, 1, 9)},
			}},
		},
		{
			s:    `'\300'`,
			want: []lexeme{{StringToken, `'\300'`}},
			wantErrors: []*Error{{
				Kind: InvalidEscape,
				Span: Span{Pos(1, 1, 2), Pos(5, 1, 6)},
			}},
		},
	}

	for _, test := range tests {
		tokens, errs := Tokenize(test.s)
		got := lexemes(tokens[:len(tokens)-1])
		if diff := cmp.Diff(test.want, got, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("Tokenize(%q) tokens (-want +got):\n%s", test.s, diff)
		}
		if diff := cmp.Diff(test.wantErrors, errs, cmpopts.IgnoreFields(Error{}, "Msg")); diff != "" {
			t.Errorf("Tokenize(%q) errors (-want +got):\n%s", test.s, diff)
		}
		if got := reassemble(tokens); got != test.s {
			t.Errorf("Tokenize(%q) reassembles to %q", test.s, got)
		}
	}
}

func TestTokenizeRoundTrip(t *testing.T) {
	inputs := []string{
		"",
		" ",
		"\n\r\n\r",
		"#!/bin/lua",
		"#!/bin/lua\n",
		"local x <const> = 1 -- trailing",
		"local s = [[\nmulti\r\nline]] .. 'q\\\r\nw'",
		"if a then b() elseif c then d = e else return end",
		"--[==[ unterminated",
		"'unterminated",
		"\"x\\",
		"@@@",
		"0x",
		"f{a=1;[2]=3,}",
	}
	for _, s := range inputs {
		tokens, _ := Tokenize(s)
		if got := reassemble(tokens); got != s {
			t.Errorf("Tokenize(%q) reassembles to %q", s, got)
		}
		if n := countKind(tokens, EOFToken); n != 1 {
			t.Errorf("Tokenize(%q) has %d EOF tokens; want 1", s, n)
		}
	}
}

func TestScanAfterEOF(t *testing.T) {
	s := NewScanner("x ")
	if tok := s.Scan(); tok.Kind != NameToken {
		t.Fatalf("first Scan() = %v; want <name>", tok.Kind)
	}
	first := s.Scan()
	if first.Kind != EOFToken || len(first.LeadingTrivia) != 1 {
		t.Fatalf("second Scan() = %+v; want EOF with trailing whitespace", first)
	}
	again := s.Scan()
	want := Token{Kind: EOFToken, Span: Span{Pos(2, 1, 3), Pos(2, 1, 3)}}
	if diff := cmp.Diff(want, again, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("third Scan() (-want +got):\n%s", diff)
	}
}

func TestTokenKindString(t *testing.T) {
	tests := []struct {
		kind TokenKind
		want string
		name string
	}{
		{EOFToken, "<eof>", "Eof"},
		{NameToken, "<name>", "Identifier"},
		{EndToken, "end", "End"},
		{EqualToken, "==", "TwoEqual"},
		{VarargToken, "...", "Ellipsis"},
		{TokenKind(-1), "TokenKind(-1)", "TokenKind(-1)"},
	}
	for _, test := range tests {
		if got := test.kind.String(); got != test.want {
			t.Errorf("TokenKind(%d).String() = %q; want %q", int(test.kind), got, test.want)
		}
		if got := test.kind.Name(); got != test.name {
			t.Errorf("TokenKind(%d).Name() = %q; want %q", int(test.kind), got, test.name)
		}
		if test.kind.IsValid() {
			if got, ok := ParseTokenKindName(test.name); !ok || got != test.kind {
				t.Errorf("ParseTokenKindName(%q) = %v, %t; want %v, true", test.name, got, ok, test.kind)
			}
		}
	}
}

func reassemble(tokens []Token) string {
	sb := new(strings.Builder)
	for _, tok := range tokens {
		for _, tr := range tok.LeadingTrivia {
			sb.WriteString(tr.Text)
		}
		sb.WriteString(tok.Text)
	}
	return sb.String()
}

func countKind(tokens []Token, kind TokenKind) int {
	n := 0
	for _, tok := range tokens {
		if tok.Kind == kind {
			n++
		}
	}
	return n
}
