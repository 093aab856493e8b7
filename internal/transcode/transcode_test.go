// Copyright 2024 The zb Authors
// SPDX-License-Identifier: MIT

package transcode

import (
	"bytes"
	"testing"

	"github.com/go-json-experiment/json/jsontext"
	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

func TestToMessagePack(t *testing.T) {
	tests := []struct {
		name string
		json string
		want []byte
	}{
		{
			name: "Scalars",
			json: `[null, true, false, 1, -1, "x"]`,
			want: []byte{0x96, 0xc0, 0xc3, 0xc2, 0x01, 0xff, 0xa1, 'x'},
		},
		{
			name: "Float",
			json: `1.5`,
			want: []byte{0xcb, 0x3f, 0xf8, 0, 0, 0, 0, 0, 0},
		},
		{
			name: "ObjectOrder",
			json: `{"b": 1, "a": [true, null]}`,
			want: []byte{
				0x82,
				0xa1, 'b', 0x01,
				0xa1, 'a', 0x92, 0xc3, 0xc0,
			},
		},
		{
			name: "Empty",
			json: `{"x": {}, "y": []}`,
			want: []byte{0x82, 0xa1, 'x', 0x80, 0xa1, 'y', 0x90},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			buf := new(bytes.Buffer)
			if err := ToMessagePack(buf, jsontext.Value(test.json)); err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(test.want, buf.Bytes()); diff != "" {
				t.Errorf("ToMessagePack(%s) (-want +got):\n%s", test.json, diff)
			}
		})
	}
}

func TestToYAML(t *testing.T) {
	const input = `{"type":"Ok","count":2,"ratio":0.5,"items":[1,null,true],` +
		`"nested":{"z":"b","a":"true"},"quoted":"null","text":"line1\nline2"}`
	buf := new(bytes.Buffer)
	if err := ToYAML(buf, jsontext.Value(input)); err != nil {
		t.Fatal(err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("output is not valid YAML: %v\n%s", err, buf)
	}
	var keys []string
	for i := 0; i < len(doc.Content[0].Content); i += 2 {
		keys = append(keys, doc.Content[0].Content[i].Value)
	}
	wantKeys := []string{"type", "count", "ratio", "items", "nested", "quoted", "text"}
	if diff := cmp.Diff(wantKeys, keys); diff != "" {
		t.Errorf("top-level keys (-want +got):\n%s", diff)
	}

	var got map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	want := map[string]any{
		"type":   "Ok",
		"count":  2,
		"ratio":  0.5,
		"items":  []any{1, nil, true},
		"nested": map[string]any{"z": "b", "a": "true"},
		"quoted": "null",
		"text":   "line1\nline2",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("decoded YAML (-want +got):\n%s", diff)
	}
}

func TestTranscodeJSON(t *testing.T) {
	buf := new(bytes.Buffer)
	if err := Transcode(buf, JSON, jsontext.Value(`{"a":1}`)); err != nil {
		t.Fatal(err)
	}
	if got, want := buf.String(), "{\"a\":1}\n"; got != want {
		t.Errorf("Transcode(JSON) = %q; want %q", got, want)
	}
}

func TestInvalidJSON(t *testing.T) {
	for _, input := range []string{``, `{`, `[1,`, `{"a":1} 2`} {
		if err := ToMessagePack(new(bytes.Buffer), jsontext.Value(input)); err == nil {
			t.Errorf("ToMessagePack(%q) did not return an error", input)
		}
		if err := ToYAML(new(bytes.Buffer), jsontext.Value(input)); err == nil {
			t.Errorf("ToYAML(%q) did not return an error", input)
		}
	}
}

func TestParseFormat(t *testing.T) {
	for _, f := range []Format{JSON, MessagePack, YAML} {
		got, err := ParseFormat(f.String())
		if err != nil || got != f {
			t.Errorf("ParseFormat(%q) = %v, %v; want %v, <nil>", f.String(), got, err, f)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("ParseFormat(\"xml\") did not return an error")
	}
}
