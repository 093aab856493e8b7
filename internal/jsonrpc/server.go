// Copyright 2024 The zb Authors
// SPDX-License-Identifier: MIT

package jsonrpc

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	jsonv2 "github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"zombiezen.com/go/log"
)

// ServerCodec represents a single connection from a server to a client.
// ReadRequest and WriteResponse must be safe to call concurrently with each other,
// but [Serve] guarantees that it will never make multiple concurrent ReadRequest calls
// nor multiple concurrent WriteResponse calls.
//
// WriteResponse must not retain response after it returns.
type ServerCodec interface {
	ReadRequest() (jsontext.Value, error)
	WriteResponse(response jsontext.Value) error
}

// A type that implements Handler responds to JSON-RPC requests.
// Implementations of JSONRPC must be safe to call from multiple goroutines concurrently.
//
// The jsonrpc package provides [ServeMux], [HandlerFunc], and [Method]
// as ways of building a Handler.
type Handler interface {
	JSONRPC(ctx context.Context, req *Request) (*Response, error)
}

// HandlerFunc is a function that implements [Handler].
type HandlerFunc func(ctx context.Context, req *Request) (*Response, error)

// JSONRPC calls f.
func (f HandlerFunc) JSONRPC(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// MethodNotFoundHandler implements [Handler]
// by returning a [MethodNotFound] error for all requests.
type MethodNotFoundHandler struct{}

// JSONRPC returns an error for which [ErrorCode] returns [MethodNotFound].
func (MethodNotFoundHandler) JSONRPC(ctx context.Context, req *Request) (*Response, error) {
	return nil, Error(MethodNotFound, fmt.Errorf("method %q not found", req.Method))
}

// ServeMux is a mapping of method names to JSON-RPC handlers.
type ServeMux map[string]Handler

// JSONRPC calls the handler that corresponds to the request's method
// or returns a [MethodNotFound] error if no such handler is present.
func (mux ServeMux) JSONRPC(ctx context.Context, req *Request) (*Response, error) {
	h := mux[req.Method]
	if h == nil {
		return nil, Error(MethodNotFound, fmt.Errorf("method %s not found", req.Method))
	}
	return h.JSONRPC(ctx, req)
}

// ServeOptions is the set of optional parameters to [Serve].
type ServeOptions struct {
	// MaxConcurrency is the maximum number of requests
	// that will be passed to the handler at once.
	// Zero or negative means no limit.
	// Cancellation requests do not count against the limit.
	MaxConcurrency int
}

type server struct {
	codec   ServerCodec
	handler Handler
	slots   chan struct{}

	writeMu sync.Mutex

	mu       sync.Mutex
	inFlight map[RequestID]context.CancelFunc
}

// Serve serves JSON-RPC requests for a connection.
// Serve will read requests from the codec until ReadRequest returns an error,
// which Serve will return once all requests have completed.
// Each request is handled in its own goroutine.
// A batch (a JSON array of requests) is answered with a single array
// of responses in request order, omitting notifications.
// opts may be nil, which is treated the same as the zero value.
func Serve(ctx context.Context, codec ServerCodec, handler Handler, opts *ServeOptions) error {
	srv := &server{
		codec:    codec,
		handler:  handler,
		inFlight: make(map[RequestID]context.CancelFunc),
	}
	if opts != nil && opts.MaxConcurrency > 0 {
		srv.slots = make(chan struct{}, opts.MaxConcurrency)
	}
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		content, err := codec.ReadRequest()
		if err != nil {
			return err
		}
		elems, isBatch, err := splitBatch(content)
		if err != nil {
			log.Debugf(ctx, "Malformed JSON-RPC message: %v", err)
			srv.send(ctx, encodeResponse(RequestID{}, nil, err))
			continue
		}

		calls := make([]*call, len(elems))
		for i, elem := range elems {
			calls[i] = srv.start(ctx, elem)
		}
		if !isBatch {
			wg.Go(func() {
				if resp := srv.finish(calls[0]); resp != nil {
					srv.send(ctx, resp)
				}
			})
			continue
		}
		wg.Go(func() {
			srv.batch(ctx, calls)
		})
	}
}

// call is a single request that has been read from the codec.
type call struct {
	ctx    context.Context
	cancel context.CancelFunc
	id     RequestID
	req    *Request
	// err is non-nil if the request could not be parsed.
	err error
}

// start parses a single request
// and registers it so that it can be cancelled.
// start must be called from the goroutine reading from the codec
// so that a cancellation that follows a request always finds it.
func (srv *server) start(ctx context.Context, content jsontext.Value) *call {
	c := new(call)
	c.req, c.id, c.err = parseRequest(content)
	if c.err != nil {
		log.Debugf(ctx, "Malformed JSON-RPC request: %v", c.err)
		return c
	}
	log.Debugf(ctx, "JSON-RPC %s (id=%v)", c.req.Method, c.id)
	c.ctx, c.cancel = context.WithCancel(ctx)
	if !c.req.Notification {
		c.ctx = withRequestID(c.ctx, c.id)
		srv.mu.Lock()
		srv.inFlight[c.id] = c.cancel
		srv.mu.Unlock()
	}
	return c
}

// finish runs the call's handler and returns the encoded response,
// or nil if the call was a notification.
func (srv *server) finish(c *call) jsontext.Value {
	if c.err != nil {
		return encodeResponse(RequestID{}, nil, c.err)
	}
	defer c.cancel()

	var resp *Response
	var err error
	if c.req.Method == cancelMethod {
		resp, err = srv.cancelRequest(c.req)
	} else {
		resp, err = srv.invoke(c.ctx, c.req)
	}
	if c.req.Notification {
		return nil
	}
	srv.mu.Lock()
	delete(srv.inFlight, c.id)
	srv.mu.Unlock()
	return encodeResponse(c.id, resp, err)
}

// invoke calls the handler once a concurrency slot is available.
func (srv *server) invoke(ctx context.Context, req *Request) (*Response, error) {
	if srv.slots != nil {
		select {
		case srv.slots <- struct{}{}:
			defer func() { <-srv.slots }()
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return srv.handler.JSONRPC(ctx, req)
}

func (srv *server) batch(ctx context.Context, calls []*call) {
	responses := make([]jsontext.Value, len(calls))
	var wg sync.WaitGroup
	for i, c := range calls {
		wg.Go(func() {
			responses[i] = srv.finish(c)
		})
	}
	wg.Wait()

	buf := new(bytes.Buffer)
	buf.WriteString("[")
	n := 0
	for _, resp := range responses {
		if resp == nil {
			continue
		}
		if n > 0 {
			buf.WriteString(",")
		}
		buf.Write(resp)
		n++
	}
	buf.WriteString("]")
	if n > 0 {
		srv.send(ctx, jsontext.Value(buf.Bytes()))
	}
}

func (srv *server) send(ctx context.Context, resp jsontext.Value) {
	srv.writeMu.Lock()
	defer srv.writeMu.Unlock()
	if err := srv.codec.WriteResponse(resp); err != nil {
		log.Warnf(ctx, "Writing JSON-RPC response: %v", err)
	}
}

// cancelRequest handles a [cancelMethod] request.
func (srv *server) cancelRequest(req *Request) (*Response, error) {
	var args cancelParams
	if err := jsonv2.Unmarshal(req.Params, &args); err != nil {
		return nil, Error(InvalidParams, err)
	}

	srv.mu.Lock()
	defer srv.mu.Unlock()
	if cancel := srv.inFlight[args.ID]; cancel != nil {
		cancel()
	}
	delete(srv.inFlight, args.ID)
	return nil, nil
}

// splitBatch returns the elements of a batch
// or a single-element slice if content is not a batch.
func splitBatch(content jsontext.Value) (elems []jsontext.Value, isBatch bool, err error) {
	if !content.IsValid() {
		return nil, false, Error(ParseError, fmt.Errorf("invalid JSON"))
	}
	if content.Kind() != '[' {
		return []jsontext.Value{content}, false, nil
	}
	if err := jsonv2.Unmarshal(content, &elems); err != nil {
		return nil, true, Error(ParseError, err)
	}
	if len(elems) == 0 {
		return nil, true, Error(InvalidRequest, fmt.Errorf("empty batch"))
	}
	return elems, true, nil
}

// wireRequest is the JSON shape of a request object.
// Fields are kept raw so that type errors are reported
// as [InvalidRequest] rather than [ParseError].
type wireRequest struct {
	Version jsontext.Value            `json:"jsonrpc"`
	Method  jsontext.Value            `json:"method"`
	Params  jsontext.Value            `json:"params"`
	ID      jsontext.Value            `json:"id"`
	Extra   map[string]jsontext.Value `json:",unknown"`
}

// parseRequest parses a single well-formed JSON value as a request.
func parseRequest(content jsontext.Value) (*Request, RequestID, error) {
	var w wireRequest
	if err := jsonv2.Unmarshal(content, &w); err != nil {
		return nil, RequestID{}, Error(InvalidRequest, fmt.Errorf("jsonrpc request: %v", err))
	}

	if len(w.Version) == 0 {
		return nil, RequestID{}, Error(InvalidRequest, fmt.Errorf("jsonrpc version missing in request"))
	}
	var version string
	if err := jsonv2.Unmarshal(w.Version, &version); err != nil {
		return nil, RequestID{}, Error(InvalidRequest, fmt.Errorf("jsonrpc version: %v", err))
	}
	if version != "2.0" {
		return nil, RequestID{}, Error(InvalidRequest, fmt.Errorf("jsonrpc version %q not supported", version))
	}

	if len(w.Method) == 0 {
		return nil, RequestID{}, Error(InvalidRequest, fmt.Errorf("jsonrpc method missing in request"))
	}
	req := &Request{
		Params:       w.Params,
		Notification: len(w.ID) == 0,
		Extra:        w.Extra,
	}
	if err := jsonv2.Unmarshal(w.Method, &req.Method); err != nil {
		return nil, RequestID{}, Error(InvalidRequest, fmt.Errorf("jsonrpc method: %v", err))
	}

	var id RequestID
	if !req.Notification {
		if err := jsonv2.Unmarshal(w.ID, &id); err != nil {
			return nil, RequestID{}, Error(InvalidRequest, fmt.Errorf("jsonrpc id: %v", err))
		}
	}
	return req, id, nil
}

// encodeResponse returns the response object for a request.
// If handlerError is not nil, it is sent as the response's error.
// If the response itself cannot be encoded,
// encodeResponse returns an [InternalError] response instead.
func encodeResponse(id RequestID, resp *Response, handlerError error) jsontext.Value {
	v, err := tryEncodeResponse(id, resp, handlerError)
	if err != nil {
		v, err = tryEncodeResponse(id, nil, Error(InternalError, err))
		if err != nil {
			panic(err)
		}
	}
	return v
}

func tryEncodeResponse(id RequestID, resp *Response, handlerError error) (jsontext.Value, error) {
	if handlerError == nil && resp != nil {
		for k := range resp.Extra {
			if isReservedResponseField(k) {
				return nil, fmt.Errorf("marshal json-rpc response: extra field %q not permitted", k)
			}
		}
	}

	buf := new(bytes.Buffer)
	e := &encoder{enc: jsontext.NewEncoder(buf, jsontext.AllowInvalidUTF8(true))}
	e.token(jsontext.BeginObject)
	e.token(jsontext.String("jsonrpc"))
	e.token(jsontext.String("2.0"))
	e.token(jsontext.String("id"))
	if e.err == nil {
		e.err = id.MarshalJSONTo(e.enc)
	}

	if handlerError != nil {
		code, ok := CodeFromError(handlerError)
		if !ok {
			code = UnknownErrorCode
		}
		e.token(jsontext.String("error"))
		e.token(jsontext.BeginObject)
		e.token(jsontext.String("code"))
		e.token(jsontext.Int(int64(code)))
		e.token(jsontext.String("message"))
		e.token(jsontext.String(handlerError.Error()))
		e.token(jsontext.EndObject)
	} else {
		e.token(jsontext.String("result"))
		if resp == nil || len(resp.Result) == 0 {
			e.token(jsontext.Null)
		} else {
			e.value(resp.Result)
		}
		if resp != nil {
			for _, k := range slices.Sorted(maps.Keys(resp.Extra)) {
				e.token(jsontext.String(k))
				e.value(resp.Extra[k])
			}
		}
	}
	e.token(jsontext.EndObject)
	if e.err != nil {
		return nil, fmt.Errorf("marshal json-rpc response: %v", e.err)
	}
	return jsonValueFromBuffer(buf), nil
}

// encoder wraps a [jsontext.Encoder] and holds on to the first error.
type encoder struct {
	enc *jsontext.Encoder
	err error
}

func (e *encoder) token(tok jsontext.Token) {
	if e.err == nil {
		e.err = e.enc.WriteToken(tok)
	}
}

func (e *encoder) value(v jsontext.Value) {
	if e.err == nil {
		e.err = e.enc.WriteValue(v)
	}
}

type requestIDContextKey struct{}

func withRequestID(parent context.Context, id RequestID) context.Context {
	return context.WithValue(parent, requestIDContextKey{}, id)
}

// RequestIDFromContext returns the request ID from the context.
// This is only set on contexts that come from [Serve].
func RequestIDFromContext(ctx context.Context) (id RequestID, ok bool) {
	id, ok = ctx.Value(requestIDContextKey{}).(RequestID)
	return
}
