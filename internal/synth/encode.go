package synth

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/iancoleman/orderedmap"
)

// prettyJSON renders v with two-space indentation and without HTML escaping.
func prettyJSON(v any) (string, bool) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")

	if err := enc.Encode(v); err != nil {
		return "", false
	}

	return strings.TrimSuffix(buf.String(), "\n"), true
}

func newObject() *orderedmap.OrderedMap {
	o := orderedmap.New()
	o.SetEscapeHTML(false)
	return o
}

// stringify renders a default value the way a text field shows it.
func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case []any:
		parts := make([]string, len(x))
		for i, item := range x {
			parts[i] = stringify(item)
		}
		return strings.Join(parts, ",")
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// stringifyExample returns strings verbatim and pretty-prints everything else.
func stringifyExample(v any) (string, bool) {
	if s, ok := v.(string); ok {
		return s, true
	}
	return prettyJSON(v)
}

const upperhex = "0123456789ABCDEF"

// EscapeComponent percent-encodes s like ECMAScript encodeURIComponent:
// only A-Z a-z 0-9 and - _ . ! ~ * ' ( ) are left as is.
func EscapeComponent(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}

	return b.String()
}

func unreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}

	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}

	return false
}
