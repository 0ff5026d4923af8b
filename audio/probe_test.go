package audio

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTone(t *testing.T, path string, rate, channels, frames int) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{SampleRate: rate, NumChannels: channels},
		Data:           make([]int, frames*channels),
		SourceBitDepth: 16,
	}
	for i := 0; i < frames; i++ {
		v := int(math.Sin(2*math.Pi*440*float64(i)/float64(rate)) * 16000)
		for c := 0; c < channels; c++ {
			buf.Data[i*channels+c] = v
		}
	}
	enc := wav.NewEncoder(f, rate, 16, channels, 1)
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
}

func TestProbeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	writeTone(t, path, 8000, 2, 12000)

	info, err := ProbeFile(path)
	require.NoError(t, err)
	assert.Equal(t, 8000, info.SampleRate)
	assert.Equal(t, 2, info.Channels)
	assert.Equal(t, 16, info.BitDepth)
	assert.Equal(t, int64(12000), info.Frames)
	assert.Equal(t, 1500*time.Millisecond, info.Duration())
	assert.InDelta(t, 1.5, info.Seconds(), 1e-9)
}

func TestProbeRejectsNonWAV(t *testing.T) {
	_, err := Probe(bytes.NewReader([]byte("MThd not audio at all")))
	assert.ErrorIs(t, err, ErrNotWAV)

	_, err = ProbeFile(filepath.Join(t.TempDir(), "missing.wav"))
	assert.Error(t, err)
}

func TestZeroInfo(t *testing.T) {
	assert.Zero(t, Info{}.Duration())
	assert.Zero(t, Info{}.Seconds())
}
