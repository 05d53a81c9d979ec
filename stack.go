package chip8

import "errors"

var ErrStackUnderflow = errors.New("stack underflow: try to pop an empty stack")
var ErrStackOverflow = errors.New("stack overflow: try to push to a full stack")

// StackSize is the number of return addresses the call stack can hold
const StackSize = 16

// Stack of return addresses with a fixed capacity
type Stack struct {
	entries [StackSize]uint16
	sp      int
}

// Push appends v on top of the stack.
// It fails with ErrStackOverflow when the stack already holds StackSize entries.
func (s *Stack) Push(v uint16) error {
	if s.sp >= StackSize {
		return ErrStackOverflow
	}

	s.entries[s.sp] = v
	s.sp++

	return nil
}

// Pop removes and returns the value on top of the stack.
// The second value is false when the stack is empty.
func (s *Stack) Pop() (uint16, bool) {
	if s.sp == 0 {
		return 0, false
	}

	s.sp--
	return s.entries[s.sp], true
}

func (s Stack) Len() int {
	return s.sp
}

// Entries returns a copy of the stack from bottom to top
func (s Stack) Entries() []uint16 {
	out := make([]uint16, s.sp)
	copy(out, s.entries[:s.sp])

	return out
}

func (s *Stack) Reset() {
	s.sp = 0
	s.entries = [StackSize]uint16{}
}
