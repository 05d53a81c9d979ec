package sound

import (
	"errors"
	"io"
	"math"

	"github.com/go-audio/wav"
)

const (
	DefaultSampleRate = 44100
	DefaultFrequency  = 440
	DefaultAmplitude  = math.MaxInt16 / 4
)

// Tone is a source of 16-bit mono samples
type Tone interface {
	Next() int16
}

// SquareWave is the classic buzzer tone
type SquareWave struct {
	Frequency  int
	SampleRate int
	Amplitude  int16

	phase int
}

func NewSquareWave(frequency, sampleRate int) *SquareWave {
	return &SquareWave{
		Frequency:  frequency,
		SampleRate: sampleRate,
		Amplitude:  DefaultAmplitude,
	}
}

// Next implements Tone.
func (w *SquareWave) Next() int16 {
	period := max(w.SampleRate/max(w.Frequency, 1), 2)

	s := w.Amplitude
	if w.phase >= period/2 {
		s = -w.Amplitude
	}
	w.phase = (w.phase + 1) % period

	return s
}

// Sample is a recorded tone played in a loop
type Sample struct {
	data []int16
	pos  int
}

// Next implements Tone.
func (s *Sample) Next() int16 {
	if len(s.data) == 0 {
		return 0
	}

	v := s.data[s.pos]
	s.pos = (s.pos + 1) % len(s.data)

	return v
}

func (s *Sample) Len() int {
	return len(s.data)
}

// LoadSample decodes a WAV file and resamples its first channel to sampleRate
func LoadSample(r io.ReadSeeker, sampleRate int) (*Sample, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, errors.New("wav: not a valid wav file")
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, err
	}

	chans := max(int(dec.NumChans), 1)
	shift := int(dec.BitDepth) - 16
	frames := len(buf.Data) / chans

	// nearest neighbour is enough for a beep
	ratio := float64(dec.SampleRate) / float64(sampleRate)
	out := make([]int16, int(float64(frames)/ratio))
	for i := range out {
		v := buf.Data[int(float64(i)*ratio)*chans]
		switch {
		case shift > 0:
			v >>= shift
		case shift < 0:
			v <<= -shift
		}
		if dec.BitDepth == 8 {
			// 8-bit WAV data is unsigned
			v -= 128 << 8
		}
		out[i] = int16(v)
	}

	return &Sample{data: out}, nil
}
