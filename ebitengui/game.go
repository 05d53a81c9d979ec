package ebitengui

import (
	"image/color"
	"log/slog"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/spinrut/chip8"
)

const DefaultScale = 10

var DefaultOnColor = color.RGBA{R: 0xFF, G: 0xD7, B: 0x00, A: 0xFF}
var DefaultOffColor = color.RGBA{R: 0x20, G: 0x18, B: 0x00, A: 0xFF}

type GameConfig struct {
	Scale          int
	KeyboardLayout chip8.KeyboardLayout
	Buzzer         chip8.Buzzer
	CpuConfigs     []chip8.CpuConfigCb
}

type GameConfigCb func(config *GameConfig)

// Game runs the console inside an ebiten window.
// Space pauses, Backspace resets and Escape quits.
type Game struct {
	*chip8.InMemoryKeyboard
	Cpu *chip8.Cpu

	OnColor, OffColor color.RGBA

	scale  int
	keymap map[ebiten.Key]byte
	keys   []ebiten.Key

	pixels []byte
	img    *ebiten.Image
	halted bool
}

func NewGame(configs ...GameConfigCb) *Game {
	config := &GameConfig{
		Scale:          DefaultScale,
		KeyboardLayout: chip8.DefaultKeyboardLayout,
		Buzzer:         chip8.NewDummyBuzzer(),
	}
	for _, cb := range configs {
		cb(config)
	}

	g := &Game{
		InMemoryKeyboard: chip8.NewInMemoryKeyboard(),
		OnColor:          DefaultOnColor,
		OffColor:         DefaultOffColor,
		scale:            config.Scale,
		keymap:           KeyMap(config.KeyboardLayout),
		keys:             make([]ebiten.Key, 0, 8),
	}
	g.Cpu = chip8.NewCpu(chip8.NewMemory(), chip8.SmallScreen, g, g, config.Buzzer, config.CpuConfigs...)
	g.pixels = make([]byte, 4*g.Cpu.ScreenSettings.Pixels())

	return g
}

// Run opens the window and blocks until it is closed
func (g *Game) Run() error {
	if err := g.Cpu.Boot(); err != nil {
		return err
	}

	settings := g.Cpu.ScreenSettings
	ebiten.SetWindowSize(settings.Width*g.scale, settings.Height*g.scale)
	ebiten.SetWindowTitle("chip8")
	ebiten.SetTPS(int(chip8.FrameRate))

	return ebiten.RunGame(g)
}

// Boot implements chip8.Display and chip8.Keyboard.
func (g *Game) Boot() error {
	return nil
}

// Render implements chip8.Display.
func (g *Game) Render(screen chip8.Screen, settings chip8.ScreenSettings) error {
	for i, on := range screen {
		c := g.OffColor
		if on {
			c = g.OnColor
		}
		g.pixels[4*i+0] = c.R
		g.pixels[4*i+1] = c.G
		g.pixels[4*i+2] = c.B
		g.pixels[4*i+3] = c.A
	}

	return nil
}

// Update implements ebiten.Game.
func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		if g.Cpu.IsRunning() {
			g.Cpu.Stop()
		} else {
			g.Cpu.Start()
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) {
		if err := g.Cpu.Reset(); err != nil {
			return err
		}
		g.halted = false
	}

	g.keys = inpututil.AppendPressedKeys(g.keys[:0])
	g.Set(KeyboardStateOf(g.keys, g.keymap))

	if g.halted {
		return nil
	}
	if err := g.Cpu.RunFrame(); err != nil {
		slog.Error("CPU stopped, press Backspace to reset", slog.Any("error", err))
		g.halted = true
	}

	return nil
}

// Draw implements ebiten.Game.
func (g *Game) Draw(screen *ebiten.Image) {
	if g.img == nil {
		g.img = ebiten.NewImage(g.Cpu.ScreenSettings.Width, g.Cpu.ScreenSettings.Height)
	}

	g.img.WritePixels(g.pixels)
	screen.DrawImage(g.img, nil)
}

// Layout implements ebiten.Game.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.Cpu.ScreenSettings.Width, g.Cpu.ScreenSettings.Height
}

// Pixels returns the RGBA buffer of the last rendered screen
func (g *Game) Pixels() []byte {
	return g.pixels
}
