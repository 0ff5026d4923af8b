package theme

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGPL(t *testing.T) {
	p, err := ParseGPL(strings.NewReader(`GIMP Palette
Name: test
Columns: 2
#
  0   0   0	black
255 255 255	white
bad line
`))
	require.NoError(t, err)
	assert.Equal(t, "test", p.Name)
	assert.Equal(t, []RGB{{0, 0, 0}, {255, 255, 255}}, p.Colors)
}

func TestParseGPLEmpty(t *testing.T) {
	_, err := ParseGPL(strings.NewReader("GIMP Palette\nName: empty\n"))
	assert.Error(t, err)
}

func TestLookup(t *testing.T) {
	p := &Palette{Colors: []RGB{{0, 0, 0}, {200, 100, 50}}}
	assert.Equal(t, RGB{0, 0, 0}, p.Lookup(-1))
	assert.Equal(t, RGB{200, 100, 50}, p.Lookup(2))
	assert.Equal(t, RGB{100, 50, 25}, p.Lookup(0.5))
	assert.Equal(t, RGB{200, 100, 50}, p.Index(9))
	assert.Equal(t, RGB{0, 0, 0}, p.Index(-3))
}

func TestDefaultPalette(t *testing.T) {
	p := DefaultPalette()
	assert.Equal(t, "plasma", p.Name)
	assert.Len(t, p.Colors, 11)
	assert.Equal(t, "#0d0887", p.Colors[0].Hex())

	th := New(nil)
	assert.Equal(t, '●', th.Symbols.StepActive)
}
