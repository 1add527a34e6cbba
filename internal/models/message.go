package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

var errNotObject = errors.New("not a JSON object")

// Field is one key/value pair of a Record, with the value kept as raw JSON.
type Field struct {
	Key   string
	Value json.RawMessage
}

// Record is a JSON object that keeps its fields in document order. Identifier
// lookup depends on that order, which a Go map would lose.
type Record []Field

// ParseRecord decodes a JSON object into a Record.
func ParseRecord(data []byte) (Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errNotObject
	}

	rec := Record{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected key token %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("field %q: %w", key, err)
		}
		rec = append(rec, Field{Key: key, Value: value})
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing data after JSON object")
	}
	return rec, nil
}

// Get returns the raw value of the first field named key.
func (r Record) Get(key string) (json.RawMessage, bool) {
	for _, f := range r {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// MarshalJSON encodes the record as a JSON object, keeping field order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if len(f.Value) == 0 {
			buf.WriteString("null")
			continue
		}
		buf.Write(f.Value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// String returns the value of key when it is a JSON string.
func (r Record) String(key string) (string, bool) {
	raw, ok := r.Get(key)
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// MessageKind tags the RawMessage variant.
type MessageKind int

const (
	KindRaw MessageKind = iota
	KindStructured
)

// RawMessage is one entry of the list-messages response. It is either a
// structured record or, when the upstream sent something that is not an
// object, the raw text of that entry.
type RawMessage struct {
	kind   MessageKind
	record Record
	text   string
}

func Structured(rec Record) RawMessage {
	return RawMessage{kind: KindStructured, record: rec}
}

func Raw(text string) RawMessage {
	return RawMessage{kind: KindRaw, text: text}
}

// NormalizeMessage turns one raw JSON list element into a RawMessage.
// Objects become Structured; strings holding a JSON object are parsed into
// Structured; other strings stay Raw; any other value keeps its JSON text as
// Raw. null becomes an empty Raw.
func NormalizeMessage(elem json.RawMessage) RawMessage {
	trimmed := bytes.TrimSpace(elem)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Raw("")
	}

	switch trimmed[0] {
	case '{':
		if rec, err := ParseRecord(trimmed); err == nil {
			return Structured(rec)
		}
		return Raw(string(trimmed))
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return Raw(string(trimmed))
		}
		if strings.HasPrefix(strings.TrimSpace(s), "{") {
			if rec, err := ParseRecord([]byte(s)); err == nil {
				return Structured(rec)
			}
		}
		return Raw(s)
	default:
		return Raw(string(trimmed))
	}
}

func (m RawMessage) Kind() MessageKind { return m.kind }

// Record returns the fields of a Structured message.
func (m RawMessage) Record() (Record, bool) {
	return m.record, m.kind == KindStructured
}

// Text returns the content of a Raw message.
func (m RawMessage) Text() (string, bool) {
	return m.text, m.kind == KindRaw
}

// IsEmpty reports messages that carry nothing: an empty record or blank text.
func (m RawMessage) IsEmpty() bool {
	if m.kind == KindStructured {
		return len(m.record) == 0
	}
	return strings.TrimSpace(m.text) == ""
}

// Field returns a string field of a Structured message.
func (m RawMessage) Field(key string) string {
	if m.kind != KindStructured {
		return ""
	}
	s, _ := m.record.String(key)
	return s
}

// MessageType classifies a message by its "tip" field.
type MessageType string

const (
	MessageReceived     MessageType = "FACTURA PRIMITA"
	MessageSent         MessageType = "FACTURA TRIMISA"
	MessageUnclassified MessageType = ""
)

// ParseMessageType maps the upstream "tip" value; anything unknown is
// unclassified (errors, buyer replies).
func ParseMessageType(tip string) MessageType {
	switch MessageType(strings.ToUpper(strings.TrimSpace(tip))) {
	case MessageReceived:
		return MessageReceived
	case MessageSent:
		return MessageSent
	default:
		return MessageUnclassified
	}
}

// Folder is the directory name used for the type in the download layout.
func (t MessageType) Folder() string {
	switch t {
	case MessageReceived:
		return "Primite"
	case MessageSent:
		return "Trimise"
	default:
		return "Erori"
	}
}
