package sequencer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func typeKeys(t *testing.T, b *Browser, keys ...string) {
	t.Helper()
	for _, k := range keys {
		require.NoError(t, b.HandleKey(k), k)
	}
}

func TestBrowserSaveAndLoad(t *testing.T) {
	lib := newTestLibrary(t, FormatJSON)
	p := sampleProject(t)
	b := NewBrowser(lib, func() *Project { return p })
	assert.Contains(t, b.View(), "no projects yet")

	typeKeys(t, b, "s")
	assert.Equal(t, []string{"demo"}, b.Projects())
	require.Len(t, b.Saves(), 1)

	typeKeys(t, b, "S")
	assert.True(t, b.IsInputMode())
	assert.Contains(t, b.View(), "Save as")
	typeKeys(t, b, "m", "/", "i", "x", "x", "backspace", "enter")
	assert.False(t, b.IsInputMode())
	require.Len(t, b.Saves(), 2)
	assert.Equal(t, "mix", b.Saves()[0].Name, "newest first")

	var loaded *Project
	b.OnLoad = func(p *Project) { loaded = p }
	typeKeys(t, b, "l", "j", "enter")
	require.NotNil(t, loaded)
	assert.Equal(t, 98.0, loaded.BPM)
	assert.Equal(t, p.Tracks[0].Notes(), loaded.Tracks[0].Notes())
	assert.Contains(t, b.View(), "loaded demo")
}

func TestBrowserNewProjectAndDelete(t *testing.T) {
	lib := newTestLibrary(t, FormatYAML)
	p := sampleProject(t)
	b := NewBrowser(lib, func() *Project { return p })
	typeKeys(t, b, "s")

	typeKeys(t, b, "n", "b", "e", "t", "a", "enter")
	assert.Equal(t, []string{"beta", "demo"}, b.Projects())
	assert.Equal(t, "beta", p.Name, "the open project follows the new name")

	typeKeys(t, b, "n", "x", "esc")
	assert.False(t, b.IsInputMode())
	assert.Len(t, b.Projects(), 2)

	// beta is selected; declining keeps it
	typeKeys(t, b, "h", "d")
	assert.Contains(t, b.View(), "Delete project 'beta'")
	typeKeys(t, b, "n")
	assert.Len(t, b.Projects(), 2)

	typeKeys(t, b, "d", "y")
	assert.Equal(t, []string{"demo"}, b.Projects())
}

func TestBrowserRenameSave(t *testing.T) {
	lib := newTestLibrary(t, FormatJSON)
	p := sampleProject(t)
	b := NewBrowser(lib, func() *Project { return p })
	typeKeys(t, b, "s")

	typeKeys(t, b, "l", "r", "f", "i", "n", "a", "l", "enter")
	require.Len(t, b.Saves(), 1)
	assert.Equal(t, "final", b.Saves()[0].Name)
}
