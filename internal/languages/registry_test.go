package languages_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codevet/crucible/internal/languages"
)

func TestRegistryAliases(t *testing.T) {
	r := languages.NewRegistry()

	for alias, want := range map[string]string{
		"python":     "python",
		"py":         "python",
		"python3":    "python",
		"javascript": "javascript",
		"js":         "javascript",
		"node":       "javascript",
		"nodejs":     "javascript",
	} {
		got, ok := r.Normalize(alias)
		require.True(t, ok, "alias %q", alias)
		require.Equal(t, want, got)
	}

	_, ok := r.Normalize("cobol")
	require.False(t, ok)
}

func TestRegistryGet(t *testing.T) {
	r := languages.NewRegistry()

	lang, err := r.Get("js")
	require.NoError(t, err)
	require.Equal(t, "javascript", lang.ID)
	require.Equal(t, "node:20-slim", lang.Config.Image)
	require.Equal(t, "solution.js", lang.Config.SourceFile)
	require.NotEmpty(t, lang.Config.RunCommand)

	_, err = r.Get("fortran")
	require.ErrorIs(t, err, languages.ErrLanguageNotFound)
}

func TestRegistryList(t *testing.T) {
	r := languages.NewRegistry()
	langs := r.List()
	require.Len(t, langs, 2)

	ids := map[string]bool{}
	for _, l := range langs {
		ids[l.ID] = true
		require.NotEmpty(t, l.Config.HarnessFile)
		require.NotEmpty(t, l.Config.TestsFile)
		require.NotEmpty(t, l.Config.HostCommand)
	}
	require.True(t, ids["python"])
	require.True(t, ids["javascript"])
}

func TestRegistryRegisterCustom(t *testing.T) {
	r := languages.NewRegistry()
	r.Register(languages.Language{
		ID:      "lua",
		Name:    "Lua",
		Aliases: []string{"luajit"},
		Config:  languages.RuntimeConfig{Image: "lua:5.4"},
	})

	got, ok := r.Normalize("luajit")
	require.True(t, ok)
	require.Equal(t, "lua", got)
}
