package fulfillment

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// canonicalJSON serializes v into a deterministic JSON form: object keys are
// sorted recursively, no insignificant whitespace is emitted, and numbers are
// normalized through float64 so that 1, 1.0 and json.Number("1") encode
// identically. Two logically equal values always produce the same bytes,
// regardless of map iteration order or the order fields were assembled in.
func canonicalJSON(v any) ([]byte, error) {
	// Round-trip through encoding/json first so arbitrary structs, numeric
	// types, and json.RawMessage collapse into the generic representation.
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := writeCanonical(&buf, generic); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// writeCanonical appends the canonical encoding of v to buf.
func writeCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")

	case bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}

	case string:
		enc, err := json.Marshal(val)
		if err != nil {
			return err
		}
		buf.Write(enc)

	case json.Number:
		return writeCanonicalNumber(buf, val)

	case []any:
		buf.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')

	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			enc, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(enc)
			buf.WriteByte(':')
			if err := writeCanonical(buf, val[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')

	default:
		return fmt.Errorf("unsupported canonical JSON value of type %T", v)
	}

	return nil
}

// writeCanonicalNumber normalizes a JSON number. Integral values are written
// without a fractional part so "1.0" and "1" fingerprint identically.
func writeCanonicalNumber(buf *bytes.Buffer, n json.Number) error {
	f, err := n.Float64()
	if err != nil {
		return err
	}

	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		buf.WriteString(strconv.FormatInt(int64(f), 10))
		return nil
	}

	buf.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	return nil
}
