package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRecord_KeepsDocumentOrder(t *testing.T) {
	rec, err := ParseRecord([]byte(`{"zeta":1,"id":"7","alpha":{"x":[1,2]}}`))
	require.NoError(t, err)

	keys := make([]string, 0, len(rec))
	for _, f := range rec {
		keys = append(keys, f.Key)
	}
	assert.Equal(t, []string{"zeta", "id", "alpha"}, keys)
	assert.JSONEq(t, `{"x":[1,2]}`, string(rec[2].Value))
}

func TestRecord_MarshalJSON_KeepsOrder(t *testing.T) {
	rec, err := ParseRecord([]byte(`{"zeta":1, "id":"7", "alpha":{"x":[1,2]}}`))
	require.NoError(t, err)
	rec = append(rec, Field{Key: "empty"})

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Equal(t, `{"zeta":1,"id":"7","alpha":{"x":[1,2]},"empty":null}`, string(data))
}

func TestParseRecord_Rejects(t *testing.T) {
	for _, in := range []string{`[1,2]`, `"str"`, `{"a":1} {"b":2}`, `{"a":`, ``} {
		_, err := ParseRecord([]byte(in))
		assert.Error(t, err, "input %q", in)
	}
}

func TestRecord_GetAndString(t *testing.T) {
	rec, err := ParseRecord([]byte(`{"tip":"FACTURA PRIMITA","n":5}`))
	require.NoError(t, err)

	s, ok := rec.String("tip")
	require.True(t, ok)
	assert.Equal(t, "FACTURA PRIMITA", s)

	_, ok = rec.String("n")
	assert.False(t, ok, "numbers are not strings")

	_, ok = rec.Get("missing")
	assert.False(t, ok)
}

func TestNormalizeMessage(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		kind     MessageKind
		text     string
		empty    bool
		firstKey string
	}{
		{name: "object", in: `{"id":"1"}`, kind: KindStructured, firstKey: "id"},
		{name: "string with embedded object", in: `"{\"id_solicitare\":\"9\"}"`, kind: KindStructured, firstKey: "id_solicitare"},
		{name: "plain string", in: `"id=42 ok"`, kind: KindRaw, text: "id=42 ok"},
		{name: "blank string", in: `"   "`, kind: KindRaw, text: "   ", empty: true},
		{name: "null", in: `null`, kind: KindRaw, empty: true},
		{name: "number", in: `123`, kind: KindRaw, text: "123"},
		{name: "empty object", in: `{}`, kind: KindStructured, empty: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NormalizeMessage(json.RawMessage(tt.in))
			assert.Equal(t, tt.kind, m.Kind())
			assert.Equal(t, tt.empty, m.IsEmpty())
			if tt.kind == KindRaw {
				text, ok := m.Text()
				require.True(t, ok)
				if !tt.empty {
					assert.Equal(t, tt.text, text)
				}
			}
			if tt.firstKey != "" {
				rec, ok := m.Record()
				require.True(t, ok)
				assert.Equal(t, tt.firstKey, rec[0].Key)
			}
		})
	}
}

func TestRawMessage_Field(t *testing.T) {
	m := NormalizeMessage(json.RawMessage(`{"data_creare":"202503021000"}`))
	assert.Equal(t, "202503021000", m.Field("data_creare"))
	assert.Empty(t, Raw("x").Field("data_creare"))
}

func TestMessageType(t *testing.T) {
	assert.Equal(t, "Primite", ParseMessageType("FACTURA PRIMITA").Folder())
	assert.Equal(t, "Trimise", ParseMessageType("factura trimisa ").Folder())
	assert.Equal(t, "Erori", ParseMessageType("ERORI FACTURA").Folder())
	assert.Equal(t, "Erori", ParseMessageType("").Folder())
}
