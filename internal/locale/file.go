package locale

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// Kind tells which shape a locale value has.
type Kind int

const (
	KindString Kind = iota
	KindList
	// KindRaw is any other JSON value; it is carried through untouched.
	KindRaw
)

// Value is one entry of a locale file.
type Value struct {
	Kind Kind
	Text string
	List []string
	Raw  json.RawMessage
}

// String builds a string value.
func String(s string) Value {
	return Value{Kind: KindString, Text: s}
}

// List builds a string-list value.
func List(items []string) Value {
	return Value{Kind: KindList, List: items}
}

func (v Value) encode() ([]byte, error) {
	switch v.Kind {
	case KindString:
		return marshalVerbatim(v.Text)
	case KindList:
		items := v.List
		if items == nil {
			items = []string{}
		}
		return marshalVerbatim(items)
	default:
		if len(v.Raw) == 0 {
			return []byte("null"), nil
		}
		return v.Raw, nil
	}
}

func classify(raw json.RawMessage) Value {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 {
		switch trimmed[0] {
		case '"':
			var s string
			if err := json.Unmarshal(trimmed, &s); err == nil {
				return String(s)
			}
		case '[':
			var items []string
			if err := json.Unmarshal(trimmed, &items); err == nil {
				return List(items)
			}
		}
	}
	return Value{Kind: KindRaw, Raw: append(json.RawMessage(nil), trimmed...)}
}

// File is a flat locale mapping that remembers key order.
type File struct {
	keys   []string
	values map[string]Value
}

// NewFile returns an empty locale file.
func NewFile() *File {
	return &File{values: make(map[string]Value)}
}

// Keys returns the keys in file order.
func (f *File) Keys() []string {
	return append([]string(nil), f.keys...)
}

// Len returns the number of keys.
func (f *File) Len() int {
	return len(f.keys)
}

// Get returns the value stored under key.
func (f *File) Get(key string) (Value, bool) {
	v, ok := f.values[key]
	return v, ok
}

// Set stores v under key; a new key is appended at the end.
func (f *File) Set(key string, v Value) {
	if _, ok := f.values[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.values[key] = v
}

// Text returns the string stored under key.
func (f *File) Text(key string) (string, bool) {
	v, ok := f.values[key]
	if !ok || v.Kind != KindString {
		return "", false
	}
	return v.Text, true
}

// Code returns the language_simple value.
func (f *File) Code() string {
	s, _ := f.Text(KeyCode)
	return s
}

// Name returns the language_name value.
func (f *File) Name() string {
	s, _ := f.Text(KeyName)
	return s
}

// Decode reads a locale file from r, keeping key order.
func Decode(r io.Reader) (*File, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read locale: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.New("locale file must be a JSON object")
	}

	f := NewFile()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("read locale key: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("read value of %q: %w", key, err)
		}
		f.Set(key, classify(raw))
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("read locale end: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("trailing data after locale object")
	}
	return f, nil
}

// ReadFile decodes the locale file at path.
func ReadFile(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	return Decode(fh)
}

// Encode writes f as an indented JSON object (4 spaces) in key order.
// Non-ASCII text is written verbatim.
func Encode(w io.Writer, f *File) error {
	var compact bytes.Buffer
	compact.WriteByte('{')
	for i, k := range f.keys {
		if i > 0 {
			compact.WriteByte(',')
		}
		kb, err := marshalVerbatim(k)
		if err != nil {
			return err
		}
		vb, err := f.values[k].encode()
		if err != nil {
			return fmt.Errorf("encode %q: %w", k, err)
		}
		compact.Write(kb)
		compact.WriteByte(':')
		compact.Write(vb)
	}
	compact.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", "    "); err != nil {
		return fmt.Errorf("indent locale: %w", err)
	}
	out.WriteByte('\n')
	_, err := w.Write(out.Bytes())
	return err
}

// WriteFile encodes f to path.
func WriteFile(path string, f *File) error {
	var buf bytes.Buffer
	if err := Encode(&buf, f); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func marshalVerbatim(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
