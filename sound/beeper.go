package sound

import (
	"encoding/binary"
	"sync"
	"sync/atomic"

	"github.com/ebitengine/oto/v3"
)

// Beeper plays a tone on the default audio device while the sound timer is active.
// The player streams continuously and outputs silence when the beeper is stopped.
type Beeper struct {
	SampleRate int

	mu   sync.Mutex
	tone Tone
	on   atomic.Bool

	ctx    *oto.Context
	player *oto.Player
}

func NewBeeper(tone Tone, sampleRate int) *Beeper {
	return &Beeper{
		SampleRate: sampleRate,
		tone:       tone,
	}
}

func NewDefaultBeeper() *Beeper {
	return NewBeeper(NewSquareWave(DefaultFrequency, DefaultSampleRate), DefaultSampleRate)
}

// Boot implements chip8.Buzzer.
func (b *Beeper) Boot() error {
	if b.ctx != nil {
		return nil
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   b.SampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return err
	}
	<-ready

	b.ctx = ctx
	b.player = ctx.NewPlayer(b)
	b.player.Play()

	return nil
}

// Play implements chip8.Buzzer.
func (b *Beeper) Play() {
	b.on.Store(true)
}

// Stop implements chip8.Buzzer.
func (b *Beeper) Stop() {
	b.on.Store(false)
}

func (b *Beeper) IsPlaying() bool {
	return b.on.Load()
}

// Read feeds the audio player
func (b *Beeper) Read(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	on := b.on.Load()
	n := len(p) &^ 1
	for i := 0; i < n; i += 2 {
		var s int16
		if on {
			s = b.tone.Next()
		}
		binary.LittleEndian.PutUint16(p[i:], uint16(s))
	}

	return n, nil
}

func (b *Beeper) Close() error {
	if b.player == nil {
		return nil
	}

	err := b.player.Close()
	b.player = nil

	return err
}
