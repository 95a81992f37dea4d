package compare_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codevet/crucible/internal/compare"
)

func TestEqualScalars(t *testing.T) {
	cases := []struct {
		name string
		a, b any
		want bool
	}{
		{"nil both", nil, nil, true},
		{"nil left", nil, 1, false},
		{"nil right", "x", nil, false},
		{"bool equal", true, true, true},
		{"bool unequal", true, false, false},
		{"bool vs number", true, 1, false},
		{"string equal", "abc", "abc", true},
		{"string unequal", "abc", "abd", false},
		{"string vs number", "3", 3, false},
		{"int equal", 3, 3, true},
		{"int vs float same value", 3, 3.0, true},
		{"float64 vs int64", float64(42), int64(42), true},
		{"number unequal", 3, 4, false},
		{"json number vs int", json.Number("7"), 7, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, compare.Equal(tc.a, tc.b))
		})
	}
}

func TestEqualSequences(t *testing.T) {
	require.True(t, compare.Equal([]any{1, 2, 3}, []any{1, 2, 3}))
	require.True(t, compare.Equal([]any{}, []any{}))

	// length mismatch: unequal, no partial credit
	require.False(t, compare.Equal([]any{1, 2}, []any{1, 2, 3}))
	require.False(t, compare.Equal([]any{1, 2, 3}, []any{1, 2}))

	// element mismatch
	require.False(t, compare.Equal([]any{1, 2, 3}, []any{1, 2, 4}))

	// nested
	require.True(t, compare.Equal(
		[]any{[]any{1.0, 2.0}, "x", nil},
		[]any{[]any{1, 2}, "x", nil},
	))
	require.False(t, compare.Equal(
		[]any{[]any{1, 2}},
		[]any{[]any{2, 1}},
	))
}

func TestEqualMaps(t *testing.T) {
	require.True(t, compare.Equal(
		map[string]any{"a": 1, "b": []any{2, 3}},
		map[string]any{"b": []any{2.0, 3.0}, "a": 1.0},
	))

	// key-set mismatch
	require.False(t, compare.Equal(
		map[string]any{"a": 1},
		map[string]any{"a": 1, "b": 2},
	))
	require.False(t, compare.Equal(
		map[string]any{"a": 1},
		map[string]any{"b": 1},
	))

	// value mismatch
	require.False(t, compare.Equal(
		map[string]any{"a": 1},
		map[string]any{"a": 2},
	))
}

func TestEqualVariantMismatch(t *testing.T) {
	// a sequence never equals a map, whatever the contents
	require.False(t, compare.Equal([]any{}, map[string]any{}))
	require.False(t, compare.Equal(map[string]any{"0": "a"}, []any{"a"}))
	require.False(t, compare.Equal([]any{1}, 1))
	require.False(t, compare.Equal(map[string]any{}, "{}"))
}

// Values round-tripped through encoding/json must compare identically
// to their original Go forms, since test cases arrive both ways.
func TestEqualJSONRoundTrip(t *testing.T) {
	original := map[string]any{
		"nums":   []any{1, 2.5, -3},
		"flag":   true,
		"nested": map[string]any{"s": "v", "n": nil},
	}
	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded any
	require.NoError(t, json.Unmarshal(data, &decoded))

	require.True(t, compare.Equal(original, decoded))
	require.True(t, compare.Equal(decoded, original))
}
