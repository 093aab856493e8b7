// Copyright 2024 The zb Authors
// SPDX-License-Identifier: MIT

package luaparse

import (
	"fmt"
	"strings"

	jsonv2 "github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"zb.256lights.llc/luaparse/luaast"
)

// Result is the serializable form of an [Outcome].
// Its JSON form is either
//
//	{"type": "Ok", "ast": <chunk>}
//
// or
//
//	{"type": "Err", "error": {"outcome": "Recovered", "errors": [...]}, "display": "...", "ast": <chunk>}
//
// where "ast" is only present for a [Recovered] outcome.
type Result struct {
	Outcome *Outcome
	// Display is a human-readable rendering of the errors.
	// Its format is not stable.
	Display string
}

// NewResult returns the [Result] for an [Outcome].
func NewResult(o *Outcome) *Result {
	r := &Result{Outcome: o}
	if o.Kind != Complete {
		r.Display = Display(o.Source, o.Errors)
	}
	return r
}

// ParseResult parses a Lua source file and returns its [Result].
func ParseResult(code string) *Result {
	return NewResult(Parse(code))
}

// IsOk reports whether the source parsed without errors.
func (r *Result) IsOk() bool {
	return r.Outcome.Kind == Complete
}

// MarshalJSON returns the result as JSON.
func (r *Result) MarshalJSON() ([]byte, error) {
	return jsonv2.Marshal(r, jsontext.AllowInvalidUTF8(true))
}

// MarshalJSONTo writes the result as a JSON object.
// Invalid UTF-8 in source text or string values
// is replaced with the Unicode replacement character,
// so no encoder options are needed.
func (r *Result) MarshalJSONTo(enc *jsontext.Encoder) error {
	w := jsonWriter{enc: enc}
	w.beginObject()
	w.key("type")
	if r.IsOk() {
		w.string("Ok")
		w.key("ast")
		w.node(r.Outcome.Chunk)
		w.endObject()
		if w.err != nil {
			return fmt.Errorf("marshal result: %w", w.err)
		}
		return nil
	}

	w.string("Err")
	w.key("error")
	w.beginObject()
	w.key("outcome")
	w.string(r.Outcome.Kind.String())
	w.key("errors")
	w.beginArray()
	for _, err := range r.Outcome.Errors {
		w.error(err)
	}
	w.endArray()
	w.endObject()
	w.key("display")
	w.string(r.Display)
	if r.Outcome.Chunk != nil {
		w.key("ast")
		w.node(r.Outcome.Chunk)
	}
	w.endObject()
	if w.err != nil {
		return fmt.Errorf("marshal result: %w", w.err)
	}
	return nil
}

// MarshalJSONTo writes the error as a JSON object.
func (e *ParseError) MarshalJSONTo(enc *jsontext.Encoder) error {
	w := jsonWriter{enc: enc}
	w.error(e)
	if w.err != nil {
		return fmt.Errorf("marshal parse error: %w", w.err)
	}
	return nil
}

// jsonWriter wraps a [jsontext.Encoder] and holds on to the first error.
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

func (w *jsonWriter) value(v any) {
	if w.err == nil {
		w.err = jsonv2.MarshalEncode(w.enc, v)
	}
}

func (w *jsonWriter) node(n luaast.Node) {
	if w.err == nil {
		w.err = luaast.Encode(w.enc, n)
	}
}

func (w *jsonWriter) error(e *ParseError) {
	w.beginObject()
	w.key("type")
	w.string(e.Kind.String())
	w.key("category")
	w.string(e.Kind.Category().String())
	w.key("message")
	w.string(e.Message)
	w.key("start_position")
	w.value(e.Span.Start)
	w.key("end_position")
	w.value(e.Span.End)
	w.key("expected")
	w.value(e.Expected)
	w.key("found")
	w.value(e.Found)
	w.endObject()
}
