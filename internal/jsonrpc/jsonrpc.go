// Copyright 2024 The zb Authors
// SPDX-License-Identifier: MIT

// Package jsonrpc provides a stream-based implementation of the JSON-RPC 2.0 specification,
// framed with the Language Server Protocol (LSP) base protocol.
package jsonrpc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"

	jsonv2 "github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// Request represents a parsed [JSON-RPC request].
//
// [JSON-RPC request]: https://www.jsonrpc.org/specification#request_object
type Request struct {
	// Method is the name of the method to be invoked.
	Method string
	// Params is the raw JSON of the parameters.
	// If len(Params) == 0, then the parameters were omitted on the wire.
	Params jsontext.Value
	// Notification is true if the client does not care about a response.
	Notification bool
	// Extra holds a map of additional top-level fields on the request object.
	Extra map[string]jsontext.Value
}

// Response represents a [JSON-RPC response].
//
// [JSON-RPC response]: https://www.jsonrpc.org/specification#response_object
type Response struct {
	// Result is the result of invoking the method.
	// This may be any JSON.
	Result jsontext.Value
	// Extra holds a map of additional top-level fields on the response object.
	Extra map[string]jsontext.Value
}

// ErrorCode is a number that indicates the type of error
// that occurred during a JSON-RPC.
type ErrorCode int

// Error codes defined in JSON-RPC 2.0.
const (
	ParseError     ErrorCode = -32700
	InvalidRequest ErrorCode = -32600
	MethodNotFound ErrorCode = -32601
	InvalidParams  ErrorCode = -32602
	InternalError  ErrorCode = -32603
)

// Language Server Protocol error codes.
const (
	UnknownErrorCode ErrorCode = -32001
	RequestCancelled ErrorCode = -32800
)

// CodeFromError returns the error's [ErrorCode],
// if one has been assigned using [Error].
//
// As a special case, if there is a [context.Canceled] or [context.DeadlineExceeded] error
// in the error's Unwrap() chain,
// then CodeFromError returns [RequestCancelled].
func CodeFromError(err error) (_ ErrorCode, ok bool) {
	if err == nil {
		return 0, false
	}
	if e := (*codeError)(nil); errors.As(err, &e) {
		return e.code, true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return RequestCancelled, true
	}
	return 0, false
}

type codeError struct {
	code ErrorCode
	err  error
}

// Error returns a new error that wraps the given error
// and will return the given code from [CodeFromError].
// Error panics if it is given a nil error.
func Error(code ErrorCode, err error) error {
	if err == nil {
		panic("jsonrpc.Error called with nil error")
	}
	return &codeError{code, err}
}

func (e *codeError) Error() string { return e.err.Error() }
func (e *codeError) Unwrap() error { return e.err }

// RequestID is an opaque JSON-RPC request ID.
// IDs can be integers, strings, or null
// (although nulls are discouraged).
// The zero value is null.
type RequestID struct {
	n   int64
	s   string
	typ int8
}

// IntegerRequestID returns a [RequestID] for the given integer.
func IntegerRequestID(n int64) RequestID {
	return RequestID{n: n, typ: 1}
}

// StringRequestID returns a [RequestID] for the given string.
func StringRequestID(s string) RequestID {
	return RequestID{s: s, typ: 2}
}

// String returns the ID's JSON representation for strings and integers,
// or "null".
func (id RequestID) String() string {
	switch id.typ {
	case 0:
		return "null"
	case 1:
		return strconv.FormatInt(id.n, 10)
	case 2:
		return strconv.Quote(id.s)
	default:
		return "<invalid request id>"
	}
}

// MarshalJSONTo implements [jsonv2.MarshalerTo].
func (id RequestID) MarshalJSONTo(enc *jsontext.Encoder) error {
	switch id.typ {
	case 0:
		return enc.WriteToken(jsontext.Null)
	case 1:
		return enc.WriteToken(jsontext.Int(id.n))
	case 2:
		return enc.WriteToken(jsontext.String(id.s))
	default:
		return fmt.Errorf("invalid request id type %d (internal error)", id.typ)
	}
}

// UnmarshalJSONFrom implements [jsonv2.UnmarshalerFrom].
func (id *RequestID) UnmarshalJSONFrom(dec *jsontext.Decoder) error {
	tok, err := dec.ReadToken()
	if err != nil {
		return err
	}
	switch tok.Kind() {
	case 'n':
		*id = RequestID{}
		return nil
	case '"':
		*id = StringRequestID(tok.String())
		return nil
	case '0':
		n, err := strconv.ParseInt(tok.String(), 10, 64)
		if err != nil {
			return fmt.Errorf("request id: %v", err)
		}
		*id = IntegerRequestID(n)
		return nil
	default:
		return fmt.Errorf("request id must be a string, integer, or null (got %v)", tok.Kind())
	}
}

// cancelMethod is the LSP method name for cancelling an in-flight request.
const cancelMethod = "$/cancelRequest"

type cancelParams struct {
	ID RequestID `json:"id"`
}

func isReservedResponseField(key string) bool {
	return key == "jsonrpc" || key == "id" || key == "result" || key == "error"
}

// jsonValueFromBuffer returns the buffer's bytes without the trailing newline
// that [jsontext.Encoder] writes after each top-level value.
func jsonValueFromBuffer(buf *bytes.Buffer) jsontext.Value {
	return jsontext.Value(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
}

// Method returns a [Handler] that unmarshals the request's parameters into a P,
// calls f, then marshals f's result as the response.
// Parameters that fail to unmarshal produce an [InvalidParams] error.
// Invalid UTF-8 in the result is replaced with the Unicode replacement character.
func Method[P, R any](f func(ctx context.Context, params *P) (R, error)) Handler {
	return HandlerFunc(func(ctx context.Context, req *Request) (*Response, error) {
		params := new(P)
		if len(req.Params) > 0 {
			if err := jsonv2.Unmarshal(req.Params, params); err != nil {
				return nil, Error(InvalidParams, err)
			}
		}
		result, err := f(ctx, params)
		if err != nil {
			return nil, err
		}
		data, err := jsonv2.Marshal(result, jsontext.AllowInvalidUTF8(true))
		if err != nil {
			return nil, Error(InternalError, err)
		}
		return &Response{Result: data}, nil
	})
}
