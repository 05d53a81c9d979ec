package chip8

import "time"

// MaxBacklog bounds how much unexecuted time the pacer keeps after a stall
const MaxBacklog = time.Second

// Pacer converts elapsed wall time into a number of instruction slots.
// Time is accumulated once per Accumulate call and drained one period at a time by Next,
// so a host that stalls catches up with a burst of instructions on the following frame.
type Pacer struct {
	period  time.Duration
	pending time.Duration
	last    time.Time
	synced  bool

	now func() time.Time
}

func NewPacer(rateInHz uint, now func() time.Time) *Pacer {
	if now == nil {
		now = time.Now
	}

	p := &Pacer{now: now}
	p.SetRate(rateInHz)

	return p
}

func (p *Pacer) SetRate(rateInHz uint) {
	p.period = time.Second / time.Duration(max(rateInHz, 1))
}

func (p Pacer) Period() time.Duration {
	return p.period
}

// Pending is the accumulated time not yet consumed by Next
func (p Pacer) Pending() time.Duration {
	return p.pending
}

// Accumulate reads the clock and adds the time elapsed since the previous read.
// The first call after Resync only records the current time.
func (p *Pacer) Accumulate() {
	now := p.now()
	if p.synced {
		p.pending += now.Sub(p.last)
	}
	p.last = now
	p.synced = true

	p.pending = min(p.pending, MaxBacklog)
}

// Next consumes one period from the accumulated time.
// It returns false when less than one period is available.
func (p *Pacer) Next() bool {
	if p.pending < p.period {
		return false
	}

	p.pending -= p.period
	return true
}

// Resync drops the accumulated time and forgets the last clock read
func (p *Pacer) Resync() {
	p.pending = 0
	p.synced = false
}
