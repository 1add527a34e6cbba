// Package extract recovers download identifiers from list-messages records
// whose shape the upstream API does not guarantee.
//
// ID applies an ordered chain of pure steps, each one only when the previous
// one found nothing:
//
//  1. the first field (in document order) whose key contains "id",
//     case-insensitively, with a non-empty, non-zero value;
//  2. the same search inside a "detalii" field holding an embedded JSON object;
//  3. a permissive key=value / key: value pattern over the raw text of the
//     message: a Raw message, or for a structured one its "_raw" field and
//     then the record's own JSON text.
//
// ID never panics; it returns ("", false) when nothing matches.
package extract

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/efactura/internal/models"
)

var idPattern = regexp.MustCompile(`(?i)\bid[A-Za-z0-9_]*["']?\s*[:=]\s*["']?([\w-]+)`)

// ID returns the download identifier of m, if any.
func ID(m models.RawMessage) (string, bool) {
	if rec, ok := m.Record(); ok {
		if id, ok := fromRecord(rec); ok {
			return id, true
		}
		if raw, _ := rec.String("_raw"); raw != "" {
			if id, ok := fromText(raw); ok {
				return id, true
			}
		}
		return fromRecordText(rec)
	}

	text, _ := m.Text()
	return fromText(text)
}

func fromRecord(rec models.Record) (string, bool) {
	if id, ok := fromKeys(rec); ok {
		return id, true
	}
	return fromDetails(rec)
}

func fromKeys(rec models.Record) (string, bool) {
	for _, f := range rec {
		if !strings.Contains(strings.ToLower(f.Key), "id") {
			continue
		}
		if v, ok := scalarText(f.Value); ok {
			return v, true
		}
	}
	return "", false
}

// fromDetails recurses into "detalii" when it carries a JSON object as text.
// Every level consumes one layer of string nesting, so recursion terminates.
func fromDetails(rec models.Record) (string, bool) {
	det, ok := rec.String("detalii")
	if !ok || !strings.HasPrefix(strings.TrimSpace(det), "{") {
		return "", false
	}
	nested, err := models.ParseRecord([]byte(det))
	if err != nil {
		return "", false
	}
	return fromRecord(nested)
}

func fromText(text string) (string, bool) {
	if text == "" {
		return "", false
	}
	m := idPattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// fromRecordText scans the serialized record, so ids inside nested objects
// or free-text fields are found. Matches that step 1 would reject as empty
// (null, false, zero) are skipped.
func fromRecordText(rec models.Record) (string, bool) {
	data, err := rec.MarshalJSON()
	if err != nil {
		return "", false
	}
	for _, m := range idPattern.FindAllStringSubmatch(string(data), -1) {
		if v := m[1]; !emptyLiteral(v) {
			return v, true
		}
	}
	return "", false
}

func emptyLiteral(v string) bool {
	if v == "null" || v == "false" {
		return true
	}
	n, err := strconv.ParseFloat(v, 64)
	return err == nil && n == 0
}

// scalarText renders a field value as an identifier. null, blank strings,
// numeric zero, false and empty containers yield nothing.
func scalarText(raw json.RawMessage) (string, bool) {
	v := bytes.TrimSpace(raw)
	if len(v) == 0 {
		return "", false
	}

	switch v[0] {
	case 'n', 'f':
		return "", false
	case 't':
		return "true", true
	case '"':
		var s string
		if err := json.Unmarshal(v, &s); err != nil || strings.TrimSpace(s) == "" {
			return "", false
		}
		return s, true
	case '{', '[':
		var compact bytes.Buffer
		if err := json.Compact(&compact, v); err != nil {
			return "", false
		}
		if s := compact.String(); s == "{}" || s == "[]" {
			return "", false
		}
		return compact.String(), true
	default:
		n, err := strconv.ParseFloat(string(v), 64)
		if err != nil || n == 0 {
			return "", false
		}
		return string(v), true
	}
}
