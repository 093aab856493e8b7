// Copyright 2025 The zb Authors
// SPDX-License-Identifier: MIT

package main

import (
	"testing"

	jsonv2 "github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/google/go-cmp/cmp"
	"zb.256lights.llc/luaparse/internal/jsonrpc"
	"zb.256lights.llc/luaparse/internal/testcontext"
)

func TestRPCHandler(t *testing.T) {
	tests := []struct {
		method string
		params string
		check  func(t *testing.T, result map[string]any)
	}{
		{
			method: parseMethod,
			params: `{"code": "local x = 1"}`,
			check: func(t *testing.T, result map[string]any) {
				if result["type"] != "Ok" {
					t.Errorf("type = %v; want \"Ok\"", result["type"])
				}
			},
		},
		{
			method: parseMethod,
			params: `{"code": "1 +", "expression": true}`,
			check: func(t *testing.T, result map[string]any) {
				if result["type"] != "Err" {
					t.Errorf("type = %v; want \"Err\"", result["type"])
				}
			},
		},
		{
			method: tokensMethod,
			params: `{"code": "return nil"}`,
			check: func(t *testing.T, result map[string]any) {
				tokens, _ := result["tokens"].([]any)
				if len(tokens) != 3 {
					t.Errorf("len(tokens) = %d; want 3", len(tokens))
				}
				if diff := cmp.Diff([]any{}, result["errors"]); diff != "" {
					t.Errorf("errors (-want +got):\n%s", diff)
				}
			},
		},
		{
			method: checkMethod,
			params: `{"code": "if true then"}`,
			check: func(t *testing.T, result map[string]any) {
				if result["ok"] != false || result["outcome"] != "Recovered" {
					t.Errorf("ok, outcome = %v, %v; want false, \"Recovered\"", result["ok"], result["outcome"])
				}
				if errs, _ := result["errors"].([]any); len(errs) != 1 {
					t.Errorf("len(errors) = %d; want 1", len(errs))
				}
				if result["display"] == nil {
					t.Error("display missing")
				}
			},
		},
		{
			method: checkMethod,
			params: `{"code": "return"}`,
			check: func(t *testing.T, result map[string]any) {
				want := map[string]any{
					"ok":      true,
					"outcome": "Complete",
					"errors":  []any{},
				}
				if diff := cmp.Diff(want, result); diff != "" {
					t.Errorf("result (-want +got):\n%s", diff)
				}
			},
		},
	}

	handler := newRPCHandler()
	for _, test := range tests {
		t.Run(test.method, func(t *testing.T) {
			ctx, cancel := testcontext.New(t)
			defer cancel()
			resp, err := handler.JSONRPC(ctx, &jsonrpc.Request{
				Method: test.method,
				Params: jsontext.Value(test.params),
			})
			if err != nil {
				t.Fatal(err)
			}
			var result map[string]any
			if err := jsonv2.Unmarshal(resp.Result, &result); err != nil {
				t.Fatal(err)
			}
			test.check(t, result)
		})
	}
}

func TestRPCHandlerErrors(t *testing.T) {
	tests := []struct {
		name   string
		method string
		params string
		want   jsonrpc.ErrorCode
	}{
		{name: "UnknownMethod", method: "lua/format", params: `{}`, want: jsonrpc.MethodNotFound},
		{name: "BadParams", method: parseMethod, params: `{"code": 42}`, want: jsonrpc.InvalidParams},
		{name: "NotAnObject", method: tokensMethod, params: `["x"]`, want: jsonrpc.InvalidParams},
	}

	handler := newRPCHandler()
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ctx, cancel := testcontext.New(t)
			defer cancel()
			_, err := handler.JSONRPC(ctx, &jsonrpc.Request{
				Method: test.method,
				Params: jsontext.Value(test.params),
			})
			if err == nil {
				t.Fatal("JSONRPC did not return an error")
			}
			if got, ok := jsonrpc.CodeFromError(err); !ok || got != test.want {
				t.Errorf("CodeFromError(%v) = %v, %t; want %v, true", err, got, ok, test.want)
			}
		})
	}
}
