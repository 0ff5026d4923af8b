package widgets

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStepChar(t *testing.T) {
	SetTheme(nil)
	assert.Equal(t, "·", StepChar(false, false, false))
	assert.Equal(t, "●", StepChar(true, false, false))
	assert.Equal(t, "▶", StepChar(true, false, true))
	assert.Equal(t, "◉", StepChar(true, true, false))
	assert.Equal(t, "○", StepChar(false, true, false))
	assert.Equal(t, "▷", StepChar(false, true, true))
}

func TestRollChar(t *testing.T) {
	SetTheme(nil)
	assert.Equal(t, "·", RollChar(0, false))
	assert.Equal(t, "│", RollChar(0, true))
	assert.Equal(t, "█", RollChar(1, true))
	assert.Equal(t, "▒", RollChar(2, false))
	assert.Equal(t, "-", RollChar(5, false))
}

func TestMeter(t *testing.T) {
	SetTheme(nil)
	assert.Equal(t, "▮▮▮▯▯▯", Meter(0.5, 6))
	assert.Equal(t, "▯▯▯▯", Meter(-1, 4))
	assert.Equal(t, "▮▮▮▮", Meter(3, 4))
}

func TestClipChar(t *testing.T) {
	SetTheme(nil)
	assert.Equal(t, "█", ClipChar(true, false, true))
	assert.Equal(t, "┆", ClipChar(false, false, true))
	assert.Equal(t, "│", ClipChar(true, true, false))
	assert.Equal(t, "·", ClipChar(false, false, false))
}

func TestRenderKeyHelp(t *testing.T) {
	out := RenderKeyHelp([]KeySection{
		{Title: "Grid", Keys: []KeyBinding{{Key: "space", Desc: "toggle"}}},
		{Keys: []KeyBinding{{Key: "x", Desc: "delete"}}},
	})
	assert.Equal(t, "Grid\n  space        toggle\n  x            delete", out)
}
