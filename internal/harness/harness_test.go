package harness_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codevet/crucible/internal/harness"
)

func TestDeriveEntryPointPython(t *testing.T) {
	cases := []struct {
		name   string
		source string
		want   string
		found  bool
	}{
		{"plain def", "def add(a, b):\n    return a + b\n", "add", true},
		{"first of several", "def first(x):\n    pass\n\ndef second(y):\n    pass\n", "first", true},
		{"leading comment and import", "# solution\nimport math\n\ndef area(r):\n    return math.pi * r * r\n", "area", true},
		{"indented def ignored", "class Solution:\n    def solve(self):\n        pass\n", "", false},
		{"no function", "x = 42\nprint(x)\n", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := harness.DeriveEntryPoint("python", tc.source)
			require.Equal(t, tc.found, ok)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestDeriveEntryPointJavaScript(t *testing.T) {
	cases := []struct {
		name   string
		source string
		want   string
		found  bool
	}{
		{"function declaration", "function add(a, b) { return a + b; }\n", "add", true},
		{"async function", "async function fetchIt(x) { return x; }\n", "fetchIt", true},
		{"const arrow", "const mul = (a, b) => a * b;\n", "mul", true},
		{"let arrow single param", "let double = x => x * 2;\n", "double", true},
		{"declaration before arrow", "function solve(n) { return n; }\nconst helper = (x) => x;\n", "solve", true},
		{"arrow before declaration", "const solve = (n) => n;\nfunction helper(x) { return x; }\n", "solve", true},
		{"no function", "const answer = 42;\n", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := harness.DeriveEntryPoint("javascript", tc.source)
			require.Equal(t, tc.found, ok)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestDeriveEntryPointUnknownLanguage(t *testing.T) {
	_, ok := harness.DeriveEntryPoint("cobol", "IDENTIFICATION DIVISION.")
	require.False(t, ok)
}

func TestGeneratePython(t *testing.T) {
	src, err := harness.Generate("python", "/workspace/solution.py", "/workspace/tests.json", "add")
	require.NoError(t, err)

	require.Contains(t, src, `SOLUTION_PATH = "/workspace/solution.py"`)
	require.Contains(t, src, `TESTS_PATH = "/workspace/tests.json"`)
	require.Contains(t, src, `ENTRY_POINT = "add"`)
	require.Contains(t, src, "__RESULTS_JSON_START__")
	require.Contains(t, src, "__RESULTS_JSON_END__")
	require.Contains(t, src, "deep_equal")
	// positional, keyword and scalar input shapes are all handled
	require.Contains(t, src, "fn(*arg)")
	require.Contains(t, src, "fn(**arg)")
	require.Contains(t, src, "fn(arg)")
	// tuples compare as sequences, matching their JSON serialization
	require.Contains(t, src, "isinstance(a, (list, tuple))")
}

func TestGeneratePythonWithoutEntryPoint(t *testing.T) {
	src, err := harness.Generate("python", "/workspace/solution.py", "/workspace/tests.json", "")
	require.NoError(t, err)
	require.Contains(t, src, "ENTRY_POINT = None")
	require.Contains(t, src, "NoEntryPointError")
}

func TestGenerateJavaScript(t *testing.T) {
	src, err := harness.Generate("javascript", "/workspace/solution.js", "/workspace/tests.json", "add")
	require.NoError(t, err)

	require.Contains(t, src, `const SOLUTION_PATH = "/workspace/solution.js"`)
	require.Contains(t, src, `const ENTRY_POINT = "add"`)
	require.Contains(t, src, "__RESULTS_JSON_START__")
	require.Contains(t, src, "__RESULTS_JSON_END__")
	require.Contains(t, src, "deepEqual")
	require.Contains(t, src, "fn.apply(null, arg)")
}

func TestGenerateJavaScriptWithoutEntryPoint(t *testing.T) {
	src, err := harness.Generate("javascript", "/workspace/solution.js", "/workspace/tests.json", "")
	require.NoError(t, err)
	require.Contains(t, src, "const ENTRY_POINT = null")
	require.Contains(t, src, "NoEntryPointError")
}

func TestGenerateDropsNonIdentifierEntryPoint(t *testing.T) {
	src, err := harness.Generate("python", "/workspace/solution.py", "/workspace/tests.json", `add"); __import__("os`)
	require.NoError(t, err)
	require.Contains(t, src, "ENTRY_POINT = None")
	require.NotContains(t, src, "__import__")
}

func TestGenerateUnsupportedLanguage(t *testing.T) {
	_, err := harness.Generate("ruby", "/workspace/solution.rb", "/workspace/tests.json", "add")
	require.Error(t, err)
	require.Contains(t, err.Error(), "ruby")
}
