// Copyright 2024 The zb Authors
// SPDX-License-Identifier: MIT

package luaast_test

import (
	"bytes"
	"strings"
	"testing"

	jsonv2 "github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/google/go-cmp/cmp"
	"zb.256lights.llc/luaparse"
	"zb.256lights.llc/luaparse/luaast"
	"zb.256lights.llc/luaparse/lualex"
)

func parse(tb testing.TB, source string) *luaast.Chunk {
	tb.Helper()
	o := luaparse.Parse(source)
	if o.Kind != luaparse.Complete {
		tb.Fatalf("Parse(%q): %v", source, o.Errors)
	}
	return o.Chunk
}

func TestPrint(t *testing.T) {
	sources := []string{
		"",
		"   ",
		"-- comment only",
		"local x = 1",
		"local   x\t=\t1 -- trailing\n",
		"#!/bin/lua\r\nprint 'hi'\r\n",
		"f { a = 1, [2] = 3; 4 }",
		"local function f(a, b, ...) return a + b end",
		"x = [==[\nlong]]\n]==] .. \"short\\n\"",
		"for i = 10, 1, -1 do if i % 2 == 0 then goto skip end ::skip:: end",
	}
	for _, source := range sources {
		chunk := parse(t, source)
		buf := new(bytes.Buffer)
		if err := luaast.Print(buf, chunk); err != nil {
			t.Errorf("Print(Parse(%q)): %v", source, err)
			continue
		}
		if got := buf.String(); got != source {
			t.Errorf("Print(Parse(%q)) = %q", source, got)
		}
		if got := luaast.String(chunk); got != source {
			t.Errorf("String(Parse(%q)) = %q", source, got)
		}
	}
}

func TestTokens(t *testing.T) {
	chunk := parse(t, "local x = 1 -- done")
	var got []lualex.TokenKind
	for tok := range luaast.Tokens(chunk) {
		got = append(got, tok.Kind)
	}
	want := []lualex.TokenKind{
		lualex.LocalToken,
		lualex.NameToken,
		lualex.AssignToken,
		lualex.NumeralToken,
		lualex.EOFToken,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Tokens (-want +got):\n%s", diff)
	}

	n := 0
	for range luaast.Tokens(chunk) {
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Errorf("stopped after %d tokens; want 2", n)
	}
}

func TestSpan(t *testing.T) {
	chunk := parse(t, "  local x = f(1)\nreturn x")
	tests := []struct {
		node luaast.Node
		want lualex.Span
	}{
		{
			node: chunk.Block.Stmts[0],
			want: lualex.Span{Start: lualex.Pos(2, 1, 3), End: lualex.Pos(16, 1, 17)},
		},
		{
			node: chunk.Block.Stmts[0].(*luaast.LocalAssignment).Values.Items[0],
			want: lualex.Span{Start: lualex.Pos(12, 1, 13), End: lualex.Pos(16, 1, 17)},
		},
		{
			node: chunk.Block.Return,
			want: lualex.Span{Start: lualex.Pos(17, 2, 1), End: lualex.Pos(25, 2, 9)},
		},
		{
			node: chunk.Block,
			want: lualex.Span{Start: lualex.Pos(2, 1, 3), End: lualex.Pos(25, 2, 9)},
		},
		{
			node: chunk,
			want: lualex.Span{Start: lualex.Pos(0, 1, 1), End: lualex.Pos(25, 2, 9)},
		},
	}
	for _, test := range tests {
		if got := test.node.Span(); got != test.want {
			t.Errorf("%s.Span() = %v; want %v", luaast.TypeName(test.node), got, test.want)
		}
	}

	empty := parse(t, "do end").Block.Stmts[0].(*luaast.DoStmt).Body
	if got, want := empty.Span(), (lualex.Span{Start: lualex.Pos(3, 1, 4), End: lualex.Pos(3, 1, 4)}); got != want {
		t.Errorf("empty block span = %v; want %v", got, want)
	}
}

func TestInspect(t *testing.T) {
	chunk := parse(t, "x = f(1) + -y")
	var got []string
	luaast.Inspect(chunk, func(n luaast.Node) bool {
		if n != nil {
			got = append(got, luaast.TypeName(n))
		}
		return true
	})
	want := []string{
		"Chunk",
		"Block",
		"Assignment",
		"NameExpr",
		"BinaryExpr",
		"CallExpr",
		"NameExpr",
		"ParenArgs",
		"NumberExpr",
		"UnaryExpr",
		"NameExpr",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("visited nodes (-want +got):\n%s", diff)
	}
}

func TestInspectPrune(t *testing.T) {
	chunk := parse(t, "function f() local a = 1 end\nlocal b = 2")
	var got []string
	luaast.Inspect(chunk, func(n luaast.Node) bool {
		if n == nil {
			return false
		}
		got = append(got, luaast.TypeName(n))
		_, isFunc := n.(*luaast.FunctionStmt)
		return !isFunc
	})
	want := []string{
		"Chunk",
		"Block",
		"FunctionStmt",
		"LocalAssignment",
		"AttribName",
		"NumberExpr",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("visited nodes (-want +got):\n%s", diff)
	}
}

func TestEncode(t *testing.T) {
	chunk := parse(t, `local a, b = 1.5, 'x\n'`)
	data, err := jsonv2.Marshal(chunk)
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := jsonv2.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}

	if got["type"] != "Chunk" {
		t.Errorf("type = %v; want Chunk", got["type"])
	}
	block := got["block"].(map[string]any)
	if block["last_stmt"] != nil {
		t.Errorf("block.last_stmt = %v; want null", block["last_stmt"])
	}
	stmt := block["stmts"].([]any)[0].(map[string]any)
	if stmt["type"] != "LocalAssignment" {
		t.Errorf("stmt.type = %v; want LocalAssignment", stmt["type"])
	}
	names := stmt["names"].(map[string]any)
	if n := len(names["items"].([]any)); n != 2 {
		t.Errorf("len(names.items) = %d; want 2", n)
	}
	if n := len(names["separators"].([]any)); n != 1 {
		t.Errorf("len(names.separators) = %d; want 1", n)
	}
	values := stmt["expr_list"].(map[string]any)["items"].([]any)
	num := values[0].(map[string]any)
	if num["type"] != "NumberExpr" || num["float"] != true {
		t.Errorf("values[0] = %v, float=%v; want float NumberExpr", num["type"], num["float"])
	}
	str := values[1].(map[string]any)
	if str["value"] != "x\n" {
		t.Errorf("string value = %q; want %q", str["value"], "x\n")
	}
	tok := str["token"].(map[string]any)
	wantToken := map[string]any{
		"token_type": map[string]any{"type": "StringLiteral", "quote_type": "Single"},
		"text":       `'x\n'`,
		"start_position": map[string]any{
			"bytes":     18.0,
			"line":      1.0,
			"character": 19.0,
		},
		"end_position": map[string]any{
			"bytes":     23.0,
			"line":      1.0,
			"character": 24.0,
		},
		"leading_trivia": []any{
			map[string]any{
				"type": "Whitespace",
				"text": " ",
				"start_position": map[string]any{
					"bytes":     17.0,
					"line":      1.0,
					"character": 18.0,
				},
				"end_position": map[string]any{
					"bytes":     18.0,
					"line":      1.0,
					"character": 19.0,
				},
			},
		},
	}
	if diff := cmp.Diff(wantToken, tok); diff != "" {
		t.Errorf("string token (-want +got):\n%s", diff)
	}
}

func TestEncodeBadNodes(t *testing.T) {
	o := luaparse.Parse("x = \n@")
	if o.Chunk == nil {
		t.Fatalf("Parse: %v", o.Errors)
	}
	buf := new(bytes.Buffer)
	enc := jsontext.NewEncoder(buf)
	if err := luaast.Encode(enc, o.Chunk); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"type":"BadExpr"`, `"type":"BadStmt"`} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("JSON does not contain %s", want)
		}
	}
}
