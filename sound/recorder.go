package sound

import (
	"io"
	"os"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/spinrut/chip8"
)

const (
	wavBitDepth = 16
	wavPCM      = 1
)

// Recorder captures what the buzzer would play, one frame at a time.
// Register Hook as an after-frame hook of the CPU.
type Recorder struct {
	SampleRate int

	tone    Tone
	samples []int
}

func NewRecorder(tone Tone, sampleRate int) *Recorder {
	return &Recorder{
		SampleRate: sampleRate,
		tone:       tone,
		samples:    make([]int, 0, sampleRate),
	}
}

func NewDefaultRecorder() *Recorder {
	return NewRecorder(NewSquareWave(DefaultFrequency, DefaultSampleRate), DefaultSampleRate)
}

// Hook appends one frame of audio, the tone if the sound timer is active, silence otherwise
func (r *Recorder) Hook(cpu *chip8.Cpu) {
	n := r.SampleRate / int(chip8.FrameRate)
	on := cpu.IsSoundTimerActive()
	for i := 0; i < n; i++ {
		s := 0
		if on {
			s = int(r.tone.Next())
		}
		r.samples = append(r.samples, s)
	}
}

func (r *Recorder) Duration() time.Duration {
	return time.Duration(len(r.samples)) * time.Second / time.Duration(r.SampleRate)
}

// WriteTo encodes the recording as a 16-bit mono WAV stream
func (r *Recorder) WriteTo(w io.WriteSeeker) error {
	enc := wav.NewEncoder(w, r.SampleRate, wavBitDepth, 1, wavPCM)

	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: 1,
			SampleRate:  r.SampleRate,
		},
		Data:           r.samples,
		SourceBitDepth: wavBitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return err
	}

	return enc.Close()
}

// Save writes the recording to a WAV file
func (r *Recorder) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := r.WriteTo(f); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}
