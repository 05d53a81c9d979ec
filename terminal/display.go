package terminal

import (
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/spinrut/chip8"
)

// Display renders the screen on the standard output
type Display struct {
	*chip8.TerminalDisplay

	settings chip8.ScreenSettings
	out      *os.File
}

func NewDisplay(settings chip8.ScreenSettings) *Display {
	return &Display{
		TerminalDisplay: chip8.NewTerminalDisplayWithOutput(os.Stdout),
		settings:        settings,
		out:             os.Stdout,
	}
}

// Boot implements chip8.Display.
// It warns when the terminal is too small to hold the whole screen.
func (d *Display) Boot() error {
	fd := int(d.out.Fd())
	if term.IsTerminal(fd) {
		cols, rows, err := term.GetSize(fd)
		if err != nil {
			return err
		}

		needCols := d.settings.Width*len(d.OnChar) + 1
		if cols < needCols || rows < d.settings.Height {
			slog.Warn("Terminal too small for the screen",
				slog.Int("columns", cols),
				slog.Int("rows", rows),
				slog.Int("needColumns", needCols),
				slog.Int("needRows", d.settings.Height),
			)
		}
	}

	return d.TerminalDisplay.Boot()
}
