// JSON→Au conversion, using goccy/go-json the way folio uses it for its
// own document marshaling (compress.go, record.go). The calling contract
// into the encoder is spec.md's explicit external-collaborator boundary
// (§1): this file only has to turn decoded JSON into Writer calls.
package austream

import (
	"bufio"
	"io"

	json "github.com/goccy/go-json"
)

// ConvertJSONLines reads newline-delimited JSON values from r and encodes
// each as one AuStream record via enc. A JSON string matching the
// canonical timestamp format (spec §6) is encoded as a timestamp value
// rather than a string, mirroring the original json2au tool's implicit
// type promotion for well-formed timestamp fields.
func ConvertJSONLines(r io.Reader, enc *Encoder) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	count := 0
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var raw any
		if err := json.Unmarshal(line, &raw); err != nil {
			return count, err
		}
		v := fromJSONAny(raw)
		if err := enc.Encode(func(w *Writer) { w.Value(v) }); err != nil {
			return count, err
		}
		count++
	}
	return count, scanner.Err()
}

// fromJSONAny converts goccy/go-json's decoded any (map[string]any /
// []any / float64 / string / bool / nil) into this package's ordered
// Value representation, promoting timestamp-shaped strings.
func fromJSONAny(raw any) Value {
	switch t := raw.(type) {
	case nil:
		return nil
	case bool:
		return t
	case float64:
		if t == float64(int64(t)) {
			return int64(t)
		}
		return t
	case string:
		if ts, err := ParseTimestamp(t); err == nil && looksLikeTimestamp(t) {
			return ts
		}
		return t
	case []any:
		out := make([]Value, len(t))
		for i, e := range t {
			out[i] = fromJSONAny(e)
		}
		return out
	case map[string]any:
		obj := &Object{}
		for k, v := range t {
			obj.Keys = append(obj.Keys, k)
			obj.Values = append(obj.Values, fromJSONAny(v))
		}
		return obj
	default:
		return nil
	}
}

// looksLikeTimestamp is a cheap shape check (YYYY-MM-DDT...) before
// trusting ParseTimestamp's lenient truncation rules, so an arbitrary
// short numeric-looking string isn't misclassified.
func looksLikeTimestamp(s string) bool {
	if len(s) < len("2006-01-02") {
		return false
	}
	for i, c := range []byte("0000-00-00") {
		if c == '0' {
			if s[i] < '0' || s[i] > '9' {
				return false
			}
		} else if s[i] != c {
			return false
		}
	}
	return true
}
