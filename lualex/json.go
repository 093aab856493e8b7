// Copyright 2024 The zb Authors
// SPDX-License-Identifier: MIT

package lualex

import (
	"fmt"
	"strings"

	"github.com/go-json-experiment/json/jsontext"
)

// MarshalJSONTo writes the position as a JSON object
// of the form {"bytes": 0, "line": 1, "character": 1}.
func (pos Position) MarshalJSONTo(enc *jsontext.Encoder) error {
	w := jsonWriter{enc: enc}
	w.beginObject()
	w.key("bytes")
	w.int(pos.Offset)
	w.key("line")
	w.int(pos.Line)
	w.key("character")
	w.int(pos.Column)
	w.endObject()
	if w.err != nil {
		return fmt.Errorf("marshal position: %w", w.err)
	}
	return nil
}

// UnmarshalJSONFrom reads a position written by [Position.MarshalJSONTo].
func (pos *Position) UnmarshalJSONFrom(dec *jsontext.Decoder) error {
	if tok, err := dec.ReadToken(); err != nil {
		return fmt.Errorf("unmarshal position: %w", err)
	} else if got := tok.Kind(); got != '{' {
		return fmt.Errorf("unmarshal position: unexpected %v token (want object)", got)
	}
	*pos = Position{}
	for {
		keyToken, err := dec.ReadToken()
		if err != nil {
			return fmt.Errorf("unmarshal position: %w", err)
		}
		if keyToken.Kind() == '}' {
			break
		}
		key := keyToken.String()
		valueToken, err := dec.ReadToken()
		if err != nil {
			return fmt.Errorf("unmarshal position: %s: %w", key, err)
		}
		if valueToken.Kind() != '0' {
			return fmt.Errorf("unmarshal position: %s: unexpected %v token (want number)", key, valueToken.Kind())
		}
		switch key {
		case "bytes":
			pos.Offset = int(valueToken.Int())
		case "line":
			pos.Line = int(valueToken.Int())
		case "character":
			pos.Column = int(valueToken.Int())
		}
	}
	return nil
}

// MarshalJSONTo writes the token as a JSON object.
// Absent fields are omitted:
// "leading_trivia" is omitted when the token has no trivia
// and "synthetic" is only written for synthetic tokens.
func (tok *Token) MarshalJSONTo(enc *jsontext.Encoder) error {
	if tok == nil {
		return enc.WriteToken(jsontext.Null)
	}
	w := jsonWriter{enc: enc}
	w.beginObject()
	w.key("token_type")
	w.beginObject()
	w.key("type")
	w.string(tok.Kind.Name())
	switch {
	case tok.Kind.IsKeyword() || tok.Kind.IsOperator():
		w.key("symbol")
		w.string(tok.Kind.String())
	case tok.Kind == StringToken && len(tok.Text) > 0 && tok.Text[0] == '[':
		w.key("quote_type")
		w.string("Brackets")
	case tok.Kind == StringToken && len(tok.Text) > 0 && tok.Text[0] == '\'':
		w.key("quote_type")
		w.string("Single")
	case tok.Kind == StringToken:
		w.key("quote_type")
		w.string("Double")
	}
	w.endObject()
	w.key("text")
	w.string(tok.Text)
	w.span(tok.Span)
	if len(tok.LeadingTrivia) > 0 {
		w.key("leading_trivia")
		w.beginArray()
		for _, tr := range tok.LeadingTrivia {
			w.trivia(tr)
		}
		w.endArray()
	}
	if tok.Synthetic {
		w.key("synthetic")
		w.write(jsontext.True)
	}
	w.endObject()
	if w.err != nil {
		return fmt.Errorf("marshal %v token: %w", tok.Kind, w.err)
	}
	return nil
}

// MarshalJSONTo writes the trivia as a JSON object.
func (tr Trivia) MarshalJSONTo(enc *jsontext.Encoder) error {
	w := jsonWriter{enc: enc}
	w.trivia(tr)
	if w.err != nil {
		return fmt.Errorf("marshal trivia: %w", w.err)
	}
	return nil
}

// MarshalJSONTo writes the set as a JSON array of [TokenKind.Name] strings.
func (s TokenSet) MarshalJSONTo(enc *jsontext.Encoder) error {
	w := jsonWriter{enc: enc}
	w.beginArray()
	for k := range s.All() {
		w.string(k.Name())
	}
	w.endArray()
	return w.err
}

// UnmarshalJSONFrom reads a set written by [TokenSet.MarshalJSONTo].
func (s *TokenSet) UnmarshalJSONFrom(dec *jsontext.Decoder) error {
	if tok, err := dec.ReadToken(); err != nil {
		return fmt.Errorf("unmarshal token set: %w", err)
	} else if got := tok.Kind(); got != '[' {
		return fmt.Errorf("unmarshal token set: unexpected %v token (want array)", got)
	}
	*s = TokenSet{}
	for {
		tok, err := dec.ReadToken()
		if err != nil {
			return fmt.Errorf("unmarshal token set: %w", err)
		}
		if tok.Kind() == ']' {
			return nil
		}
		k, ok := ParseTokenKindName(tok.String())
		if !ok {
			return fmt.Errorf("unmarshal token set: unknown token type %q", tok.String())
		}
		*s = s.With(k)
	}
}

// jsonWriter wraps a [jsontext.Encoder] and holds on to the first error
// encountered so that callers can write a whole object before checking.
type jsonWriter struct {
	enc *jsontext.Encoder
	err error
}

func (w *jsonWriter) write(tok jsontext.Token) {
	if w.err == nil {
		w.err = w.enc.WriteToken(tok)
	}
}

func (w *jsonWriter) beginObject()    { w.write(jsontext.BeginObject) }
func (w *jsonWriter) endObject()      { w.write(jsontext.EndObject) }
func (w *jsonWriter) beginArray()     { w.write(jsontext.BeginArray) }
func (w *jsonWriter) endArray()       { w.write(jsontext.EndArray) }
func (w *jsonWriter) key(k string)    { w.write(jsontext.String(k)) }
func (w *jsonWriter) string(s string) { w.write(jsontext.String(strings.ToValidUTF8(s, "\uFFFD"))) }
func (w *jsonWriter) int(i int)       { w.write(jsontext.Int(int64(i))) }

func (w *jsonWriter) position(pos Position) {
	if w.err == nil {
		w.err = pos.MarshalJSONTo(w.enc)
	}
}

func (w *jsonWriter) span(span Span) {
	w.key("start_position")
	w.position(span.Start)
	w.key("end_position")
	w.position(span.End)
}

func (w *jsonWriter) trivia(tr Trivia) {
	w.beginObject()
	w.key("type")
	w.string(tr.Kind.String())
	w.key("text")
	w.string(tr.Text)
	w.span(tr.Span)
	w.endObject()
}
