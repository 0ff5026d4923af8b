// Package audio reads the facts the arrangement needs about audio files
// and plays rendered sound on the output device.
package audio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-audio/wav"
)

var ErrNotWAV = errors.New("audio: not a WAV file")

// Info describes a PCM WAV file
type Info struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Frames     int64
}

// Duration is the playing time of the file
func (i Info) Duration() time.Duration {
	if i.SampleRate == 0 {
		return 0
	}
	return time.Duration(i.Frames) * time.Second / time.Duration(i.SampleRate)
}

// Seconds is Duration as float seconds, the unit clips are placed in
func (i Info) Seconds() float64 {
	if i.SampleRate == 0 {
		return 0
	}
	return float64(i.Frames) / float64(i.SampleRate)
}

// Probe reads the format chunk and PCM length of a WAV stream
func Probe(r io.ReadSeeker) (Info, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return Info{}, ErrNotWAV
	}
	if err := d.FwdToPCM(); err != nil {
		return Info{}, fmt.Errorf("audio: seek to pcm: %w", err)
	}
	format := d.Format()
	if format == nil || format.NumChannels == 0 || format.SampleRate == 0 {
		return Info{}, fmt.Errorf("audio: missing format chunk")
	}
	bitDepth := int(d.SampleBitDepth())
	if bitDepth == 0 {
		return Info{}, fmt.Errorf("audio: unknown bit depth")
	}
	bytesPerFrame := int64((bitDepth-1)/8+1) * int64(format.NumChannels)
	return Info{
		SampleRate: format.SampleRate,
		Channels:   format.NumChannels,
		BitDepth:   bitDepth,
		Frames:     d.PCMLen() / bytesPerFrame,
	}, nil
}

// ProbeFile opens and probes a WAV file
func ProbeFile(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, err
	}
	defer f.Close()
	info, err := Probe(f)
	if err != nil {
		return Info{}, fmt.Errorf("%s: %w", path, err)
	}
	return info, nil
}
