package audio

import (
	"fmt"
	"io"
	"time"

	"github.com/ebitengine/oto/v3"
)

// speakerLatency keeps live notes close to the key press
const speakerLatency = 40 * time.Millisecond

// Speaker plays a stream of signed 16 bit little endian stereo frames on
// the default output device until closed.
type Speaker struct {
	player *oto.Player
}

// OpenSpeaker starts playing src at sampleRate. Only one output context
// may exist per process.
func OpenSpeaker(src io.Reader, sampleRate int) (*Speaker, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   speakerLatency,
	})
	if err != nil {
		return nil, fmt.Errorf("audio: open output: %w", err)
	}
	<-ready
	p := ctx.NewPlayer(src)
	p.Play()
	return &Speaker{player: p}, nil
}

// Close stops playback
func (s *Speaker) Close() error {
	return s.player.Close()
}
