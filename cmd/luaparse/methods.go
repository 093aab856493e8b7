// Copyright 2025 The zb Authors
// SPDX-License-Identifier: MIT

package main

import (
	"context"

	jsonv2 "github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"zb.256lights.llc/luaparse"
	"zb.256lights.llc/luaparse/internal/jsonrpc"
	"zb.256lights.llc/luaparse/lualex"
	"zombiezen.com/go/log"
)

// JSON-RPC method names.
const (
	parseMethod  = "lua/parse"
	tokensMethod = "lua/tokens"
	checkMethod  = "lua/check"
)

// sourceParams is the parameter object shared by all methods.
type sourceParams struct {
	Code string `json:"code"`
	// Expression parses Code as a single expression instead of a chunk.
	Expression bool `json:"expression,omitempty"`
}

func (params *sourceParams) parse() *luaparse.Outcome {
	if params.Expression {
		return luaparse.ParseExpression(params.Code)
	}
	return luaparse.Parse(params.Code)
}

func newRPCHandler() jsonrpc.Handler {
	return jsonrpc.ServeMux{
		parseMethod: jsonrpc.Method(func(ctx context.Context, params *sourceParams) (*luaparse.Result, error) {
			o := params.parse()
			id, _ := jsonrpc.RequestIDFromContext(ctx)
			log.Debugf(ctx, "Parsed %d bytes: %v (request %v)", len(params.Code), o.Kind, id)
			return luaparse.NewResult(o), nil
		}),
		tokensMethod: jsonrpc.Method(func(ctx context.Context, params *sourceParams) (*tokenList, error) {
			return newTokenList(params.Code), nil
		}),
		checkMethod: jsonrpc.Method(func(ctx context.Context, params *sourceParams) (*checkResult, error) {
			return newCheckResult(params.parse()), nil
		}),
	}
}

// tokenList is the result of tokenizing a source file.
type tokenList struct {
	Tokens []lualex.Token
	Errors luaparse.ErrorList
}

func newTokenList(code string) *tokenList {
	tokens, errs := luaparse.Tokenize(code)
	return &tokenList{Tokens: tokens, Errors: errs}
}

// MarshalJSONTo writes the list as
// {"tokens": [...], "errors": [...]}.
func (list *tokenList) MarshalJSONTo(enc *jsontext.Encoder) error {
	if err := enc.WriteToken(jsontext.BeginObject); err != nil {
		return err
	}
	if err := enc.WriteToken(jsontext.String("tokens")); err != nil {
		return err
	}
	if err := enc.WriteToken(jsontext.BeginArray); err != nil {
		return err
	}
	for i := range list.Tokens {
		if err := list.Tokens[i].MarshalJSONTo(enc); err != nil {
			return err
		}
	}
	if err := enc.WriteToken(jsontext.EndArray); err != nil {
		return err
	}
	if err := enc.WriteToken(jsontext.String("errors")); err != nil {
		return err
	}
	if err := jsonv2.MarshalEncode(enc, list.Errors); err != nil {
		return err
	}
	return enc.WriteToken(jsontext.EndObject)
}

// checkResult is the result of a syntax check:
// the errors of a parse without the syntax tree.
type checkResult struct {
	OK      bool               `json:"ok"`
	Outcome string             `json:"outcome"`
	Errors  luaparse.ErrorList `json:"errors"`
	Display string             `json:"display,omitempty"`
}

func newCheckResult(o *luaparse.Outcome) *checkResult {
	r := &checkResult{
		OK:      o.Kind == luaparse.Complete,
		Outcome: o.Kind.String(),
		Errors:  o.Errors,
	}
	if !r.OK {
		r.Display = luaparse.Display(o.Source, o.Errors)
	}
	return r
}
