// Package harness generates the per-language runner program that is
// staged next to the candidate source inside an isolated execution
// unit. The generated program loads the candidate code, resolves the
// entry point, drives the test cases one at a time in order, and emits
// a single sentinel-delimited JSON result block on stdout.
package harness

import (
	"bytes"
	"fmt"
	"regexp"
	"text/template"
)

type templateParams struct {
	SolutionPath string
	TestsPath    string
	EntryPoint   string
}

var harnessTemplates = map[string]*template.Template{
	"python":     template.Must(template.New("python").Parse(pythonHarness)),
	"javascript": template.Must(template.New("javascript").Parse(javascriptHarness)),
}

// Generate renders the harness source for langID. solutionPath and
// testsPath are the locations of the staged candidate file and the
// serialized test cases as seen by the harness at run time. An empty
// entryPoint produces a harness that reports a structured
// no-entry-point error instead of crashing, so the orchestrator never
// special-cases harness-internal failures.
func Generate(langID, solutionPath, testsPath, entryPoint string) (string, error) {
	tmpl, ok := harnessTemplates[langID]
	if !ok {
		return "", fmt.Errorf("no harness template for language %q", langID)
	}
	// The entry point is interpolated into generated source; anything
	// that is not a plain identifier is dropped so the harness reports
	// the structured no-entry-point error instead.
	if entryPoint != "" && !identifierRe.MatchString(entryPoint) {
		entryPoint = ""
	}
	var buf bytes.Buffer
	err := tmpl.Execute(&buf, templateParams{
		SolutionPath: solutionPath,
		TestsPath:    testsPath,
		EntryPoint:   entryPoint,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render %s harness: %w", langID, err)
	}
	return buf.String(), nil
}

var (
	identifierRe = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

	pythonDefRe = regexp.MustCompile(`(?m)^def\s+([A-Za-z_][A-Za-z0-9_]*)\s*\(`)
	jsFuncRe    = regexp.MustCompile(`(?m)^(?:export\s+)?(?:async\s+)?function\s+([A-Za-z_$][A-Za-z0-9_$]*)\s*\(`)
	jsArrowRe   = regexp.MustCompile(`(?m)^(?:export\s+)?(?:const|let|var)\s+([A-Za-z_$][A-Za-z0-9_$]*)\s*=\s*(?:async\s*)?(?:\([^)]*\)|[A-Za-z_$][A-Za-z0-9_$]*)\s*=>`)
)

// DeriveEntryPoint statically scans candidate source for the first
// top-level function definition and returns its name. The scan is
// deliberately narrow (plain defs and arrow assignments only); class
// methods and nested definitions are not considered.
func DeriveEntryPoint(langID, source string) (string, bool) {
	switch langID {
	case "python":
		if m := pythonDefRe.FindStringSubmatch(source); m != nil {
			return m[1], true
		}
	case "javascript":
		fn := jsFuncRe.FindStringSubmatchIndex(source)
		arrow := jsArrowRe.FindStringSubmatchIndex(source)
		switch {
		case fn != nil && (arrow == nil || fn[0] <= arrow[0]):
			return source[fn[2]:fn[3]], true
		case arrow != nil:
			return source[arrow[2]:arrow[3]], true
		}
	}
	return "", false
}
