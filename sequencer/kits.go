package sequencer

import "sort"

// KitSlot is one drum sound: its display name, the MIDI note it plays on
// and the sample a new sampler row loads.
type KitSlot struct {
	Name   string
	Note   uint8
	Sample string
}

// DrumKit maps 16 drum slots to notes and samples
type DrumKit struct {
	Name  string
	Slots [16]KitSlot
}

// DefaultKit is the default kit name
const DefaultKit = "gm"

// Kits contains all available drum kit mappings
var Kits = map[string]DrumKit{
	"gm": {
		Name: "General MIDI",
		Slots: [16]KitSlot{
			{"Kick", 36, "kick.wav"},
			{"Snare", 38, "snare.wav"},
			{"Closed HH", 42, "hihat-closed.wav"},
			{"Open HH", 46, "hihat-open.wav"},
			{"Low Tom", 41, "tom-low.wav"},
			{"Mid Tom", 43, "tom-mid.wav"},
			{"High Tom", 45, "tom-high.wav"},
			{"Crash", 49, "crash.wav"},
			{"Ride", 51, "ride.wav"},
			{"Clap", 39, "clap.wav"},
			{"Rimshot", 37, "rimshot.wav"},
			{"Cowbell", 56, "cowbell.wav"},
			{"Clave", 75, "clave.wav"},
			{"Maracas", 70, "maracas.wav"},
			{"Low Conga", 64, "conga-low.wav"},
			{"High Conga", 63, "conga-high.wav"},
		},
	},
	"rd8": {
		Name: "Behringer RD-8",
		Slots: [16]KitSlot{
			{"BD", 36, "kick.wav"},
			{"SD", 40, "snare.wav"}, // RD-8 uses 40, not 38
			{"CH", 42, "hihat-closed.wav"},
			{"OH", 46, "hihat-open.wav"},
			{"LT", 45, "tom-low.wav"},
			{"MT", 48, "tom-mid.wav"},
			{"HT", 50, "tom-high.wav"},
			{"CY", 49, "crash.wav"},
			{"RC", 51, "ride.wav"},
			{"CP", 39, "clap.wav"},
			{"RS", 37, "rimshot.wav"},
			{"CB", 56, "cowbell.wav"},
			{"CL", 75, "clave.wav"},
			{"MA", 70, "maracas.wav"},
			{"LC", 64, "conga-low.wav"},
			{"HC", 63, "conga-high.wav"},
		},
	},
	"tr8s": {
		Name: "Roland TR-8S",
		Slots: [16]KitSlot{
			{"Kick", 36, "kick.wav"},
			{"Snare", 38, "snare.wav"},
			{"Closed HH", 42, "hihat-closed.wav"},
			{"Open HH", 46, "hihat-open.wav"},
			{"Low Tom", 41, "tom-low.wav"},
			{"Mid Tom", 43, "tom-mid.wav"},
			{"High Tom", 45, "tom-high.wav"},
			{"Crash", 49, "crash.wav"},
			{"Ride", 51, "ride.wav"},
			{"Clap", 39, "clap.wav"},
			{"Rimshot", 37, "rimshot.wav"},
			{"Cowbell", 56, "cowbell.wav"},
			{"Clave", 75, "clave.wav"},
			{"Maracas", 70, "maracas.wav"},
			{"Low Conga", 62, "conga-low.wav"},
			{"High Conga", 63, "conga-high.wav"},
		},
	},
}

// KitNames returns the available kit names, sorted
func KitNames() []string {
	names := make([]string, 0, len(Kits))
	for name := range Kits {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetKit returns a kit by name, defaulting to GM if not found
func GetKit(name string) DrumKit {
	if kit, ok := Kits[name]; ok {
		return kit
	}
	return Kits[DefaultKit]
}
