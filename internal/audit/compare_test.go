package audit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSemanticEqual(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		old  any
		new  any
		want bool
	}{
		{"both nil", nil, nil, true},
		{"same string", "a", "a", true},
		{"different string", "a", "b", false},
		{"nil vs empty string", nil, "", true},
		{"nil vs empty array", nil, "[]", true},
		{"empty array vs nil", "[]", nil, true},
		{"nil vs empty object", nil, "{}", true},
		{"empty string vs empty object", "", "{ }", true},
		{"nil vs non-empty array", nil, `["violin"]`, false},
		{"reordered object keys", `{"a":1,"b":2}`, `{"b":2,"a":1}`, true},
		{"whitespace in array", `[1, 2]`, `[1,2]`, true},
		{"different arrays", `[1,2]`, `[2,1]`, false},
		{"large ints differ", `[9007199254740993]`, `[9007199254740992]`, false},
		{"large ints in objects differ", `{"ticket":9007199254740993}`, `{"ticket":9007199254740992}`, false},
		{"same number different spelling", `{"n":1.0}`, `{"n":1}`, true},
		{"exponent notation", `[1e3]`, `[1000]`, true},
		{"nested reorder", `{"a":{"x":[1,{"y":null}]},"b":true}`, `{"b":true,"a":{"x":[1,{"y":null}]}}`, true},
		{"trailing garbage", `[1]`, `[1] x`, false},
		{"invalid json falls back", `[oops`, `[oops `, false},
		{"plain text not parsed", "abc", "abc ", false},
		{"string vs int", "1", int64(1), false},
		{"ints equal", int64(3), int64(3), true},
		{"ints differ", int64(3), int64(4), false},
		{"nil vs int", nil, int64(0), false},
		{"bool vs nil", true, nil, false},
		{"times same instant", now, now.In(time.FixedZone("CET", 3600)), true},
		{"times differ", now, now.Add(time.Second), false},
		{"bytes equal", []byte{1}, []byte{1}, true},
		{"bytes differ", []byte{1}, []byte{2}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SemanticEqual(tt.old, tt.new))
		})
	}
}

func TestSemanticEqualEmptyCollectionsAreSymmetric(t *testing.T) {
	empties := []any{nil, ""}
	collections := []string{"[]", "{}", " [ ] ", "{\n}"}
	for _, e := range empties {
		for _, c := range collections {
			assert.True(t, SemanticEqual(e, c), "%v vs %q", e, c)
			assert.True(t, SemanticEqual(c, e), "%q vs %v", c, e)
		}
	}
}
