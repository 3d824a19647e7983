package audit

import (
	"bytes"
	"encoding/json"
	"io"
	"math/big"
	"reflect"
	"strings"
	"time"
)

// SemanticEqual reports whether two column values carry the same meaning.
// Denormalised collection columns round-trip as NULL, "[]" or "{}" depending on
// who wrote them last; those variants compare equal, as do JSON documents that
// differ only in formatting or key order.
func SemanticEqual(old, new any) bool {
	if old == nil && new == nil {
		return true
	}

	oldStr, oldIsStr := old.(string)
	newStr, newIsStr := new.(string)
	if oldIsStr || newIsStr {
		if (!oldIsStr && old != nil) || (!newIsStr && new != nil) {
			return false
		}
		if oldStr == newStr {
			return true
		}
		return jsonEqual(oldStr, newStr)
	}

	if old == nil || new == nil {
		return false
	}

	switch o := old.(type) {
	case time.Time:
		n, ok := new.(time.Time)
		return ok && o.Equal(n)
	case []byte:
		n, ok := new.([]byte)
		return ok && bytes.Equal(o, n)
	}
	return reflect.DeepEqual(old, new)
}

func jsonEqual(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if !looksLikeJSON(a) && !looksLikeJSON(b) {
		return false
	}

	if a == "" {
		return isEmptyCollection(b)
	}
	if b == "" {
		return isEmptyCollection(a)
	}

	av, ok := parseJSON(a)
	if !ok {
		return false
	}
	bv, ok := parseJSON(b)
	if !ok {
		return false
	}
	return jsonValueEqual(av, bv)
}

// jsonValueEqual compares decoded documents structurally. Numbers are compared
// exactly, so integers beyond float64 precision stay distinct.
func jsonValueEqual(a, b any) bool {
	switch x := a.(type) {
	case json.Number:
		y, ok := b.(json.Number)
		return ok && numberEqual(x, y)
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !jsonValueEqual(x[i], y[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		y, ok := b.(map[string]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for k, xv := range x {
			yv, ok := y[k]
			if !ok || !jsonValueEqual(xv, yv) {
				return false
			}
		}
		return true
	}
	return a == b
}

func numberEqual(a, b json.Number) bool {
	if a == b {
		return true
	}
	x, ok := new(big.Rat).SetString(a.String())
	if !ok {
		return false
	}
	y, ok := new(big.Rat).SetString(b.String())
	return ok && x.Cmp(y) == 0
}

func looksLikeJSON(s string) bool {
	return strings.HasPrefix(s, "[") || strings.HasPrefix(s, "{")
}

func isEmptyCollection(s string) bool {
	if !looksLikeJSON(s) {
		return false
	}
	v, ok := parseJSON(s)
	if !ok {
		return false
	}
	switch c := v.(type) {
	case []any:
		return len(c) == 0
	case map[string]any:
		return len(c) == 0
	}
	return false
}

func parseJSON(s string) (any, bool) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, false
	}
	return v, true
}
