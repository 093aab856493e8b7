// Copyright 2025 The zb Authors
// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	jsonv2 "github.com/go-json-experiment/json"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
	"zb.256lights.llc/luaparse/internal/testcontext"
)

func newTestHTTPServer(t *testing.T) *httptest.Server {
	ctx, cancel := testcontext.New(t)
	t.Cleanup(cancel)
	srv := &httpServer{
		maxRequestSize: 1024,
		allowedOrigins: []string{"*"},
	}
	hsrv := httptest.NewUnstartedServer(srv.handler())
	hsrv.Config.BaseContext = func(_ net.Listener) context.Context { return ctx }
	hsrv.Start()
	t.Cleanup(hsrv.Close)
	return hsrv
}

func TestHTTPParse(t *testing.T) {
	hsrv := newTestHTTPServer(t)

	tests := []struct {
		name     string
		body     string
		wantType string
	}{
		{name: "Ok", body: "local x = 1", wantType: "Ok"},
		{name: "Recovered", body: "if true then", wantType: "Err"},
		{name: "Fatal", body: "local s = 'abc", wantType: "Err"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			resp, err := http.Post(hsrv.URL+"/parse", "text/x-lua", strings.NewReader(test.body))
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d; want %d", resp.StatusCode, http.StatusOK)
			}
			if got, want := resp.Header.Get("Content-Type"), "application/json"; got != want {
				t.Errorf("Content-Type = %q; want %q", got, want)
			}
			if _, err := uuid.Parse(resp.Header.Get(requestIDHeader)); err != nil {
				t.Errorf("%s = %q: %v", requestIDHeader, resp.Header.Get(requestIDHeader), err)
			}
			var got map[string]any
			if err := jsonv2.UnmarshalRead(resp.Body, &got); err != nil {
				t.Fatal(err)
			}
			if got["type"] != test.wantType {
				t.Errorf("type = %v; want %q", got["type"], test.wantType)
			}
		})
	}
}

func TestHTTPParseGzip(t *testing.T) {
	hsrv := newTestHTTPServer(t)

	buf := new(bytes.Buffer)
	zw := gzip.NewWriter(buf)
	io.WriteString(zw, "return 1 + 2")
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	req, err := http.NewRequest(http.MethodPost, hsrv.URL+"/parse", buf)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Encoding", "gzip")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var got map[string]any
	if err := jsonv2.UnmarshalRead(resp.Body, &got); err != nil {
		t.Fatal(err)
	}
	if got["type"] != "Ok" {
		t.Errorf("type = %v; want \"Ok\"", got["type"])
	}
}

func TestHTTPParseYAML(t *testing.T) {
	hsrv := newTestHTTPServer(t)

	resp, err := http.Post(hsrv.URL+"/parse?format=yaml", "text/x-lua", strings.NewReader("x = 1"))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if got, want := resp.Header.Get("Content-Type"), "application/yaml"; got != want {
		t.Errorf("Content-Type = %q; want %q", got, want)
	}
	var got map[string]any
	if err := yaml.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got["type"] != "Ok" {
		t.Errorf("type = %v; want \"Ok\"", got["type"])
	}
}

func TestHTTPErrors(t *testing.T) {
	hsrv := newTestHTTPServer(t)

	tests := []struct {
		name            string
		method          string
		path            string
		contentEncoding string
		body            string
		want            int
	}{
		{name: "GetParse", method: http.MethodGet, path: "/parse", want: http.StatusMethodNotAllowed},
		{name: "UnknownEncoding", method: http.MethodPost, path: "/parse", contentEncoding: "zstd", body: "x = 1", want: http.StatusUnsupportedMediaType},
		{name: "TooLarge", method: http.MethodPost, path: "/parse", body: strings.Repeat("x = 1\n", 200), want: http.StatusRequestEntityTooLarge},
		{name: "BadFormat", method: http.MethodPost, path: "/parse?format=xml", body: "x = 1", want: http.StatusBadRequest},
		{name: "NotFound", method: http.MethodGet, path: "/nope", want: http.StatusNotFound},
		{name: "Healthz", method: http.MethodGet, path: "/healthz", want: http.StatusOK},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			req, err := http.NewRequest(test.method, hsrv.URL+test.path, strings.NewReader(test.body))
			if err != nil {
				t.Fatal(err)
			}
			if test.contentEncoding != "" {
				req.Header.Set("Content-Encoding", test.contentEncoding)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatal(err)
			}
			resp.Body.Close()
			if resp.StatusCode != test.want {
				t.Errorf("%s %s status = %d; want %d", test.method, test.path, resp.StatusCode, test.want)
			}
		})
	}
}
