// Copyright 2024 The zb Authors
// SPDX-License-Identifier: MIT

// Package transcode converts JSON documents to other serialization formats
// while preserving object member order.
package transcode

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-json-experiment/json/jsontext"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// Format is an output serialization format.
type Format int

// Supported formats.
const (
	JSON Format = iota
	MessagePack
	YAML
)

// ParseFormat returns the format with the given name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return JSON, nil
	case "msgpack", "messagepack":
		return MessagePack, nil
	case "yaml", "yml":
		return YAML, nil
	default:
		return 0, fmt.Errorf("unknown format %q (must be one of json, msgpack, yaml)", s)
	}
}

// String returns the format's canonical name.
func (f Format) String() string {
	switch f {
	case JSON:
		return "json"
	case MessagePack:
		return "msgpack"
	case YAML:
		return "yaml"
	default:
		return "Format(" + strconv.Itoa(int(f)) + ")"
	}
}

// Transcode writes the JSON document in data to w in the given format.
// JSON output is the input value followed by a newline.
func Transcode(w io.Writer, format Format, data jsontext.Value) error {
	switch format {
	case JSON:
		if _, err := w.Write(data); err != nil {
			return err
		}
		_, err := io.WriteString(w, "\n")
		return err
	case MessagePack:
		return ToMessagePack(w, data)
	case YAML:
		return ToYAML(w, data)
	default:
		return fmt.Errorf("transcode: unknown %v", format)
	}
}

// ToMessagePack writes the JSON document in data to w as MessagePack.
// Integers use the most compact encoding; other numbers are float64.
func ToMessagePack(w io.Writer, data jsontext.Value) error {
	v, err := decode(data)
	if err != nil {
		return fmt.Errorf("convert to msgpack: %v", err)
	}
	enc := msgpack.NewEncoder(w)
	if err := encodeMessagePack(enc, v); err != nil {
		return fmt.Errorf("convert to msgpack: %v", err)
	}
	return nil
}

func encodeMessagePack(enc *msgpack.Encoder, v any) error {
	switch v := v.(type) {
	case nil:
		return enc.EncodeNil()
	case bool:
		return enc.EncodeBool(v)
	case string:
		return enc.EncodeString(v)
	case number:
		if n, err := strconv.ParseInt(string(v), 10, 64); err == nil {
			return enc.EncodeInt(n)
		}
		f, err := strconv.ParseFloat(string(v), 64)
		if err != nil {
			return err
		}
		return enc.EncodeFloat64(f)
	case []any:
		if err := enc.EncodeArrayLen(len(v)); err != nil {
			return err
		}
		for _, elem := range v {
			if err := encodeMessagePack(enc, elem); err != nil {
				return err
			}
		}
		return nil
	case object:
		if err := enc.EncodeMapLen(len(v)); err != nil {
			return err
		}
		for _, m := range v {
			if err := enc.EncodeString(m.key); err != nil {
				return err
			}
			if err := encodeMessagePack(enc, m.value); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unhandled %T", v)
	}
}

// ToYAML writes the JSON document in data to w as a YAML document.
func ToYAML(w io.Writer, data jsontext.Value) error {
	v, err := decode(data)
	if err != nil {
		return fmt.Errorf("convert to yaml: %v", err)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(yamlNode(v)); err != nil {
		return fmt.Errorf("convert to yaml: %v", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("convert to yaml: %v", err)
	}
	return nil
}

func yamlNode(v any) *yaml.Node {
	switch v := v.(type) {
	case nil:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	case bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(v)}
	case string:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
	case number:
		tag := "!!float"
		if _, err := strconv.ParseInt(string(v), 10, 64); err == nil {
			tag = "!!int"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: string(v)}
	case []any:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, elem := range v {
			n.Content = append(n.Content, yamlNode(elem))
		}
		return n
	case object:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, m := range v {
			n.Content = append(n.Content, yamlNode(m.key), yamlNode(m.value))
		}
		return n
	default:
		panic(fmt.Sprintf("unhandled %T", v))
	}
}

// number is the literal text of a JSON number.
type number string

// object is a JSON object with its members in document order.
type object []member

type member struct {
	key   string
	value any
}

// decode parses a single JSON value.
// Objects are returned as [object] and numbers as [number].
func decode(data jsontext.Value) (any, error) {
	dec := jsontext.NewDecoder(bytes.NewReader(data))
	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.ReadToken(); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("trailing data after json value")
		}
		return nil, err
	}
	return v, nil
}

func decodeValue(dec *jsontext.Decoder) (any, error) {
	tok, err := dec.ReadToken()
	if err != nil {
		return nil, err
	}
	switch tok.Kind() {
	case 'n':
		return nil, nil
	case 't', 'f':
		return tok.Bool(), nil
	case '"':
		return tok.String(), nil
	case '0':
		return number(tok.String()), nil
	case '[':
		list := []any{}
		for dec.PeekKind() != ']' {
			elem, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			list = append(list, elem)
		}
		if _, err := dec.ReadToken(); err != nil {
			return nil, err
		}
		return list, nil
	case '{':
		obj := object{}
		for dec.PeekKind() != '}' {
			keyToken, err := dec.ReadToken()
			if err != nil {
				return nil, err
			}
			value, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			obj = append(obj, member{keyToken.String(), value})
		}
		if _, err := dec.ReadToken(); err != nil {
			return nil, err
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unexpected %v", tok.Kind())
	}
}
