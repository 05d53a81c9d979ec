package chip8

// Buzzer sounds while the sound timer is nonzero.
// Play is called when the timer becomes active and Stop when it reaches zero, both from
// the goroutine running the frames.
type Buzzer interface {
	// Boot initializes the component
	Boot() error
	Play()
	Stop()
}

// DummyBuzzer makes no sound but remembers whether it should
type DummyBuzzer struct {
	IsPlaying bool
	// Beeps counts the calls to Play
	Beeps int
}

func NewDummyBuzzer() *DummyBuzzer {
	return &DummyBuzzer{}
}

// Boot implements Buzzer.
func (b *DummyBuzzer) Boot() error {
	return nil
}

// Play implements Buzzer.
func (b *DummyBuzzer) Play() {
	b.IsPlaying = true
	b.Beeps++
}

// Stop implements Buzzer.
func (b *DummyBuzzer) Stop() {
	b.IsPlaying = false
}
