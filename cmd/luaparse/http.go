// Copyright 2025 The zb Authors
// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dsnet/compress/brotli"
	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"zb.256lights.llc/luaparse"
	"zb.256lights.llc/luaparse/internal/transcode"
	"zombiezen.com/go/log"
)

const defaultMaxRequestSize = 4 << 20 // 4 MiB

// requestIDHeader is the response header that carries the request's ID.
const requestIDHeader = "X-Request-Id"

// httpServer serves parse results over HTTP.
type httpServer struct {
	maxRequestSize int64
	allowedOrigins []string
}

func (srv *httpServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/parse", handlers.MethodHandler{
		http.MethodPost: http.HandlerFunc(srv.parse),
	})
	mux.Handle("/healthz", handlers.MethodHandler{
		http.MethodGet:  http.HandlerFunc(srv.healthz),
		http.MethodHead: http.HandlerFunc(srv.healthz),
	})

	var h http.Handler = mux
	h = handlers.CompressHandler(h)
	h = handlers.CORS(
		handlers.AllowedOrigins(srv.allowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodHead, http.MethodPost}),
		handlers.AllowedHeaders([]string{"Content-Type", "Content-Encoding"}),
		handlers.ExposedHeaders([]string{requestIDHeader}),
	)(h)
	h = handlers.CustomLoggingHandler(io.Discard, h, logRequest)
	return withRequestID(h)
}

// parse handles POST /parse.
// The request body is Lua source.
// The response is a [luaparse.Result]
// in the format named by the "format" query parameter (JSON by default).
func (srv *httpServer) parse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()
	format := transcode.JSON
	if f := query.Get("format"); f != "" {
		var err error
		format, err = transcode.ParseFormat(f)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	body, err := decodeBody(http.MaxBytesReader(w, r.Body, srv.maxRequestSize), r.Header.Get("Content-Encoding"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnsupportedMediaType)
		return
	}
	defer body.Close()
	source, err := io.ReadAll(io.LimitReader(body, srv.maxRequestSize+1))
	if int64(len(source)) > srv.maxRequestSize || errors.As(err, new(*http.MaxBytesError)) {
		http.Error(w, "request too large", http.StatusRequestEntityTooLarge)
		return
	}
	if err != nil {
		log.Debugf(ctx, "Reading request body: %v", err)
		http.Error(w, "could not read request body", http.StatusBadRequest)
		return
	}

	var o *luaparse.Outcome
	if query.Get("expression") != "" {
		o = luaparse.ParseExpression(string(source))
	} else {
		o = luaparse.Parse(string(source))
	}
	log.Debugf(ctx, "Parsed %d bytes: %v", len(source), o.Kind)
	data, err := luaparse.NewResult(o).MarshalJSON()
	if err != nil {
		log.Errorf(ctx, "Marshal result: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	buf := new(bytes.Buffer)
	if err := transcode.Transcode(buf, format, data); err != nil {
		log.Errorf(ctx, "Convert result to %v: %v", format, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType(format))
	w.Write(buf.Bytes())
}

func (srv *httpServer) healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, "ok\n")
}

func contentType(format transcode.Format) string {
	switch format {
	case transcode.MessagePack:
		return "application/msgpack"
	case transcode.YAML:
		return "application/yaml"
	default:
		return "application/json"
	}
}

// decodeBody returns a reader that undoes the given Content-Encoding.
func decodeBody(r io.Reader, contentEncoding string) (io.ReadCloser, error) {
	switch strings.ToLower(strings.TrimSpace(contentEncoding)) {
	case "", "identity":
		return io.NopCloser(r), nil
	case "br":
		return brotli.NewReader(r, nil)
	case "gzip", "x-gzip":
		return gzip.NewReader(r)
	case "deflate":
		return flate.NewReader(r), nil
	default:
		return nil, fmt.Errorf("unsupported Content-Encoding %s", contentEncoding)
	}
}

type requestIDKey struct{}

// withRequestID assigns each request a random ID,
// which is sent back in the response headers and appears in the logs.
func withRequestID(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.New()
		w.Header().Set(requestIDHeader, id.String())
		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		h.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(requestIDKey{}).(uuid.UUID)
	return id, ok
}

// logRequest is a [handlers.LogFormatter] that sends access logs
// to the process's logger instead of the writer.
func logRequest(_ io.Writer, params handlers.LogFormatterParams) {
	ctx := params.Request.Context()
	id, _ := requestIDFromContext(ctx)
	log.Infof(ctx, "%s %s %d %d bytes (request %v)",
		params.Request.Method, params.URL.RequestURI(), params.StatusCode, params.Size, id)
}
