package gui

import (
	"github.com/spinrut/chip8"

	rl "github.com/gen2brain/raylib-go/raylib"
)

var ScreenBgColor = rl.Gold
var ScreenPixelColor = rl.Yellow

// Boot implements chip8.Display and chip8.Keyboard.
func (app *ConsoleApp) Boot() error {
	return nil
}

// Render implements chip8.Display.
func (app *ConsoleApp) Render(screen chip8.Screen, settings chip8.ScreenSettings) error {
	if len(app.screen) != len(screen) {
		app.screen = chip8.NewScreen(settings)
	}
	copy(app.screen, screen)

	return nil
}
