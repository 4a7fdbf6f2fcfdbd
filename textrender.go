// Au→JSON text rendering for the "cat" output, grounded on
// original_source/src/CatCmd.cpp. Uses goccy/go-json for scalar
// marshaling (string escaping, float formatting) but walks the Object's
// own key order rather than a map, since AuStream objects have a
// meaningful encounter order that a JSON library's map-based marshaler
// would not preserve.
package austream

import (
	"bytes"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
)

// RenderJSON writes v as one line of JSON text (no trailing newline).
func RenderJSON(buf *bytes.Buffer, v Value) error {
	switch t := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		if t {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case int64:
		fmt.Fprintf(buf, "%d", t)
	case uint64:
		fmt.Fprintf(buf, "%d", t)
	case float64:
		b, err := json.Marshal(t)
		if err != nil {
			return err
		}
		buf.Write(b)
	case string:
		b, err := json.Marshal(t)
		if err != nil {
			return err
		}
		buf.Write(b)
	case time.Time:
		b, err := json.Marshal(FormatTimestamp(t))
		if err != nil {
			return err
		}
		buf.Write(b)
	case []Value:
		buf.WriteByte('[')
		for i, e := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := RenderJSON(buf, e); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case *Object:
		buf.WriteByte('{')
		for i, k := range t.Keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			if err := RenderJSON(buf, t.Values[i]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("austream: cannot render %T as JSON", v)
	}
	return nil
}

// ToJSONLine renders v followed by a newline, the format "cat" emits.
func ToJSONLine(v Value) (string, error) {
	var buf bytes.Buffer
	if err := RenderJSON(&buf, v); err != nil {
		return "", err
	}
	buf.WriteByte('\n')
	return buf.String(), nil
}
