// Copyright 2024 The zb Authors
// SPDX-License-Identifier: MIT

package jsonrpc

import (
	"fmt"
	"io"
	"sync"

	"github.com/go-json-experiment/json/jsontext"
)

// DefaultMaxMessageSize is the largest message body
// that a [Codec] accepts when no other limit is set.
const DefaultMaxMessageSize = 16 << 20 // 16 MiB

// Codec implements [ServerCodec] on an [io.ReadWriteCloser]
// using the Language Server Protocol "base protocol" for framing.
type Codec struct {
	r *Reader
	c io.Closer

	// MaxMessageSize is the largest body ReadRequest will accept.
	// Zero means [DefaultMaxMessageSize].
	MaxMessageSize int64

	writeMu sync.Mutex
	w       *Writer
}

// NewCodec returns a new [Codec] that uses the given connection.
func NewCodec(rwc io.ReadWriteCloser) *Codec {
	return &Codec{
		r: NewReader(rwc),
		w: NewWriter(rwc),
		c: rwc,
	}
}

// ReadRequest implements [ServerCodec].
func (c *Codec) ReadRequest() (jsontext.Value, error) {
	limit := c.MaxMessageSize
	if limit <= 0 {
		limit = DefaultMaxMessageSize
	}
	for {
		header, bodySize, err := c.r.NextMessage()
		if err != nil {
			return nil, err
		}
		if ct := header.Get("Content-Type"); !isJSONContentType(ct) {
			// Skip it. NextMessage discards the unread body.
			continue
		}
		if bodySize > limit {
			return nil, fmt.Errorf("read rpc message: message too large (%d bytes)", bodySize)
		}
		body := make([]byte, bodySize)
		if _, err := io.ReadFull(c.r, body); err != nil {
			return nil, fmt.Errorf("read rpc message: %w", err)
		}
		return body, nil
	}
}

// WriteResponse implements [ServerCodec].
func (c *Codec) WriteResponse(response jsontext.Value) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.w.WriteMessage(Header{"Content-Type": {contentType}}, response)
}

// Close closes the underlying connection.
func (c *Codec) Close() error {
	return c.c.Close()
}

// contentType is the default LSP content type.
const contentType = "application/vscode-jsonrpc; charset=utf-8"

func isJSONContentType(ct string) bool {
	switch ct {
	case "", contentType, "application/vscode-jsonrpc; charset=utf8", "application/json":
		return true
	default:
		return false
	}
}
