package languages

import (
	"errors"
	"sync"
)

var (
	ErrLanguageNotFound = errors.New("language not found")
)

type Registry struct {
	mu        sync.RWMutex
	languages map[string]Language
	aliases   map[string]string
}

func NewRegistry() *Registry {
	r := &Registry{
		languages: make(map[string]Language),
		aliases:   make(map[string]string),
	}
	r.registerDefaults()
	return r
}

func (r *Registry) Register(lang Language) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.languages[lang.ID] = lang
	r.aliases[lang.ID] = lang.ID
	for _, a := range lang.Aliases {
		r.aliases[a] = lang.ID
	}
}

// Normalize maps an alias ("py", "nodejs") to its canonical language ID.
func (r *Registry) Normalize(id string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	canonical, ok := r.aliases[id]
	return canonical, ok
}

func (r *Registry) Get(id string) (Language, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	canonical, ok := r.aliases[id]
	if !ok {
		return Language{}, ErrLanguageNotFound
	}
	return r.languages[canonical], nil
}

func (r *Registry) List() []Language {
	r.mu.RLock()
	defer r.mu.RUnlock()
	langs := make([]Language, 0, len(r.languages))
	for _, l := range r.languages {
		langs = append(langs, l)
	}
	return langs
}

func (r *Registry) registerDefaults() {
	r.Register(Language{
		ID:      "python",
		Name:    "Python",
		Aliases: []string{"py", "python3"},
		Config: RuntimeConfig{
			Image:       "python:3.11-slim",
			SourceFile:  "solution.py",
			HarnessFile: "harness.py",
			TestsFile:   "tests.json",
			RunCommand:  []string{"python", MountPath + "/harness.py"},
			HostCommand: "python3",
		},
	})

	r.Register(Language{
		ID:      "javascript",
		Name:    "JavaScript",
		Aliases: []string{"js", "node", "nodejs"},
		Config: RuntimeConfig{
			Image:       "node:20-slim",
			SourceFile:  "solution.js",
			HarnessFile: "harness.js",
			TestsFile:   "tests.json",
			RunCommand:  []string{"node", MountPath + "/harness.js"},
			HostCommand: "node",
		},
	})
}
