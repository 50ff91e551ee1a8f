package digest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonical(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"sorted keys", map[string]any{"b": 1, "a": true}, `{"a":true,"b":1}`},
		{"no html escape", map[string]any{"s": "<a&b>"}, `{"s":"<a&b>"}`},
		{"nulls dropped", map[string]any{"x": nil, "y": "z"}, `{"y":"z"}`},
		{"nested", map[string]any{"list": []any{"x", 2, map[string]any{"k": false}}}, `{"list":["x",2,{"k":false}]}`},
		{"struct tags", struct {
			Name string `json:"name"`
			Skip string `json:"skip,omitempty"`
		}{Name: "debit"}, `{"name":"debit"}`},
		{"line separator kept literal", "a\u2028b", "\"a\u2028b\""},
		{"escaped backslash untouched", `a\u2028`, `"a\\u2028"`},
		{"control escaped", "a\nb", `"a\nb"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Canonical(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestCanonical_UTF16KeyOrder(t *testing.T) {
	// U+FF61 sorts before U+1F600 in UTF-8 but after it in UTF-16
	got, err := Canonical(map[string]any{"\U0001F600": 1, "\uFF61": 2})
	require.NoError(t, err)
	assert.Equal(t, "{\"\U0001F600\":1,\"\uFF61\":2}", string(got))
}

func TestCanonical_NFC(t *testing.T) {
	decomposed := "e\u0301"
	got, err := Canonical(decomposed)
	require.NoError(t, err)
	assert.Equal(t, "\"\u00e9\"", string(got))
}

func TestCanonical_Rejects(t *testing.T) {
	_, err := Canonical(1.5)
	assert.Error(t, err)

	_, err = Canonical([]any{"a", nil})
	assert.Error(t, err)

	_, err = Canonical(nil)
	assert.Error(t, err)
}
