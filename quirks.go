package chip8

import (
	"flag"
	"fmt"
	"sort"
	"strings"
)

// Quirks selects between the behaviours of historical interpreters.
// The zero value is the behaviour most modern programs expect.
type Quirks uint8

const (
	// 8xy6 and 8xyE shift Vx in place instead of copying Vy first
	FlagQuirkShiftIgnoresVy Quirks = 1 << iota
	// Bxnn jumps to xnn + Vx instead of nnn + V0
	FlagQuirkJumpUsesVx
	// Fx1E never sets VF when I leaves the addressable range
	FlagQuirkAddIndexIgnoresOverflow
	// Fx55 and Fx65 leave I incremented by x
	FlagQuirkMemoryMovesIndex
)

// QuirkPresets maps the name of an interpreter to the quirks it exhibits
var QuirkPresets = map[string]Quirks{
	"modern": 0,
	"cosmac": FlagQuirkAddIndexIgnoresOverflow | FlagQuirkMemoryMovesIndex,
	"schip":  FlagQuirkShiftIgnoresVy | FlagQuirkJumpUsesVx | FlagQuirkAddIndexIgnoresOverflow,
}

func (q Quirks) Has(flag Quirks) bool {
	return q&flag > 0
}

func (q Quirks) String() string {
	names := make([]string, 0, 4)
	if q.Has(FlagQuirkShiftIgnoresVy) {
		names = append(names, "bitshift-ignores-vy")
	}
	if q.Has(FlagQuirkJumpUsesVx) {
		names = append(names, "jump-with-offset-uses-vx")
	}
	if q.Has(FlagQuirkAddIndexIgnoresOverflow) {
		names = append(names, "add-to-index-ignores-overflow")
	}
	if q.Has(FlagQuirkMemoryMovesIndex) {
		names = append(names, "store-and-load-increment-index")
	}

	if len(names) == 0 {
		return "none"
	}

	return strings.Join(names, ",")
}

// ParseQuirkPreset returns the quirks of a named preset
func ParseQuirkPreset(name string) (Quirks, error) {
	q, ok := QuirkPresets[strings.ToLower(name)]
	if !ok {
		presets := make([]string, 0, len(QuirkPresets))
		for p := range QuirkPresets {
			presets = append(presets, p)
		}
		sort.Strings(presets)

		return 0, fmt.Errorf("unknown quirk preset '%s' (available: %s)", name, strings.Join(presets, ", "))
	}

	return q, nil
}

// QuirkFlags holds the command line options that select the quirks
type QuirkFlags struct {
	preset                     string
	shiftIgnoresVy             bool
	jumpUsesVx                 bool
	addToIndexIgnoresOverflow  bool
	storeAndLoadIncrementIndex bool
}

// RegisterQuirkFlags adds the quirk options to the flag set.
// Quirks must be called after the flag set has been parsed.
func RegisterQuirkFlags(fs *flag.FlagSet) *QuirkFlags {
	qf := &QuirkFlags{}

	fs.StringVar(&qf.preset, "quirks", "modern", "Quirk preset: modern, cosmac or schip. The individual quirk flags are added on top of it.")
	fs.BoolVar(&qf.shiftIgnoresVy, "bitshift-ignores-vy", false, "Shift instructions use Vx without first setting Vx to Vy.")
	fs.BoolVar(&qf.jumpUsesVx, "jump-with-offset-uses-vx", false, "Jump-with-offset adds Vx instead of V0.")
	fs.BoolVar(&qf.addToIndexIgnoresOverflow, "add-to-index-ignores-overflow", false, "Add to index does not set VF on overflow.")
	fs.BoolVar(&qf.storeAndLoadIncrementIndex, "store-and-load-increment-index", false, "Increment the index register by x after store and load.")

	return qf
}

func (qf *QuirkFlags) Quirks() (Quirks, error) {
	q, err := ParseQuirkPreset(qf.preset)
	if err != nil {
		return 0, err
	}

	if qf.shiftIgnoresVy {
		q |= FlagQuirkShiftIgnoresVy
	}
	if qf.jumpUsesVx {
		q |= FlagQuirkJumpUsesVx
	}
	if qf.addToIndexIgnoresOverflow {
		q |= FlagQuirkAddIndexIgnoresOverflow
	}
	if qf.storeAndLoadIncrementIndex {
		q |= FlagQuirkMemoryMovesIndex
	}

	return q, nil
}
