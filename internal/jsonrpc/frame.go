// Copyright 2024 The zb Authors
// SPDX-License-Identifier: MIT

package jsonrpc

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/textproto"
	"slices"
	"strconv"
	"strings"
)

// Header represents a message's header.
type Header = textproto.MIMEHeader

// A Reader reads framed messages from an underlying [io.Reader].
// Reader introduces its own buffering,
// so it may consume more bytes than needed to read a message.
type Reader struct {
	br            *bufio.Reader
	err           error
	bodyRemaining int64
}

// NewReader returns a new [Reader] that reads from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReader(r)}
}

// NextMessage reads the next message header from the underlying reader.
// If the previous message's body was not fully read,
// the rest of it is discarded.
//
// The message's Content-Length is returned as bodySize.
// Messages without a valid Content-Length are an error,
// since the end of their body cannot be found.
func (r *Reader) NextMessage() (header Header, bodySize int64, err error) {
	if r.err != nil {
		return nil, -1, fmt.Errorf("read rpc message: %w", r.err)
	}
	if r.bodyRemaining > 0 {
		if _, err := io.CopyN(io.Discard, r.br, r.bodyRemaining); err != nil {
			r.err = err
			return nil, -1, fmt.Errorf("read rpc message: %w", err)
		}
		r.bodyRemaining = 0
	}

	header, err = textproto.NewReader(r.br).ReadMIMEHeader()
	if err != nil {
		if errors.Is(err, io.EOF) && len(header) > 0 {
			err = io.ErrUnexpectedEOF
		}
		r.err = err
		return nil, -1, fmt.Errorf("read rpc message: %w", err)
	}
	r.bodyRemaining, err = contentLength(header)
	if err != nil {
		r.err = err
		return header, -1, fmt.Errorf("read rpc message: %w", err)
	}
	return header, r.bodyRemaining, nil
}

// Read reads bytes from the body of the current message.
// Read returns [io.EOF] once the body's end has been reached.
func (r *Reader) Read(p []byte) (n int, err error) {
	if r.bodyRemaining == 0 {
		return 0, io.EOF
	}
	if r.err != nil {
		return 0, r.err
	}
	if len(p) == 0 {
		return 0, nil
	}

	if int64(len(p)) > r.bodyRemaining {
		p = p[:r.bodyRemaining]
	}
	n, r.err = r.br.Read(p)
	r.bodyRemaining -= int64(n)
	if r.err == io.EOF && r.bodyRemaining > 0 {
		r.err = io.ErrUnexpectedEOF
	}
	err = r.err
	if r.bodyRemaining == 0 {
		err = io.EOF
	}
	return n, err
}

// A Writer writes framed messages to an underlying [io.Writer].
type Writer struct {
	w   io.Writer
	buf bytes.Buffer
	err error
}

// NewWriter returns a new [Writer] that writes to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteMessage writes a message with the given header and body.
// The Content-Length header is set from len(body),
// overriding any value in header.
// Once a write fails, all subsequent writes fail,
// since the stream can no longer be framed.
func (w *Writer) WriteMessage(header Header, body []byte) error {
	if w.err != nil {
		return w.err
	}
	h := maps.Clone(header)
	if h == nil {
		h = make(Header)
	}
	h.Set("Content-Length", strconv.Itoa(len(body)))

	w.buf.Reset()
	if err := writeHeader(&w.buf, h); err != nil {
		return fmt.Errorf("write rpc message: %v", err)
	}
	w.buf.Write(body)
	if _, err := w.w.Write(w.buf.Bytes()); err != nil {
		w.err = fmt.Errorf("write rpc message: aborted due to previous error: %v", err)
		return fmt.Errorf("write rpc message: %v", err)
	}
	return nil
}

// writeHeader writes h to w in sorted key order,
// followed by the blank line that ends the header.
func writeHeader(w *bytes.Buffer, h Header) error {
	for k, v := range h {
		for _, vv := range v {
			if strings.ContainsAny(vv, "\r\n") {
				return fmt.Errorf("write header: %s value contains newline", k)
			}
		}
	}
	for _, k := range slices.Sorted(maps.Keys(h)) {
		for _, v := range h[k] {
			w.WriteString(k)
			w.WriteString(": ")
			w.WriteString(v)
			w.WriteString("\r\n")
		}
	}
	w.WriteString("\r\n")
	return nil
}

func contentLength(header Header) (int64, error) {
	s := header.Get("Content-Length")
	if s == "" {
		return -1, errNoContentLength
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return -1, fmt.Errorf("invalid Content-Length %q", s)
	}
	return n, nil
}

var errNoContentLength = errors.New("Content-Length not provided")
