package midi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubController struct{ id string }

func (s stubController) ID() string                  { return s.id }
func (s stubController) Type() ControllerType        { return ControllerKeyboard }
func (s stubController) NoteEvents() <-chan NoteEvent { return nil }
func (s stubController) Close() error                { return nil }

func TestDiffPorts(t *testing.T) {
	known := map[string]Controller{
		"Keystation": stubController{"Keystation"},
		"Old Synth":  stubController{"Old Synth"},
	}
	added, removed := diffPorts(known, []string{"Keystation", "MPK mini", "Arturia"})
	assert.Equal(t, []string{"Arturia", "MPK mini"}, added)
	assert.Equal(t, []string{"Old Synth"}, removed)

	added, removed = diffPorts(nil, nil)
	assert.Empty(t, added)
	assert.Empty(t, removed)
}

func TestWantsFiltersThroughPorts(t *testing.T) {
	dm := NewDeviceManager("")
	assert.False(t, dm.wants("Midi Through Port-0"))
	assert.True(t, dm.wants("MPK mini"))

	dm = NewDeviceManager("mpk")
	assert.True(t, dm.wants("MPK mini MIDI 1"))
	assert.False(t, dm.wants("Keystation 49"))
}
