package gui

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/spinrut/chip8"
	"github.com/spinrut/chip8/sound"
)

const (
	ToolbarGap       = 5
	ToolbarBtnWidth  = 80
	ToolbarBtnHeight = 40
	ToolbarHeight    = 50
	ToolbarBtnOffset = ToolbarBtnWidth + ToolbarGap

	ScreenPixelSize = 15
	ScreenPositionX = 0
	ScreenPositionY = ToolbarHeight + 1

	MessageBarGap   = 5
	MessageBarHeigh = 30
)

var MessageBarBgColor = rl.DarkGray
var MessageBarInfoColor = rl.SkyBlue
var MessageBarSuccessColor = rl.Lime
var MessageBarWarningColor = rl.Gold
var MessageBarErrorColor = rl.Red

type MessageType byte

const (
	MessageInfo MessageType = iota
	MessageSuccess
	MessageWarning
	MessageError
)

type AppConfig struct {
	Speed          uint
	Quirks         chip8.Quirks
	KeyboardLayout chip8.KeyboardLayout
	// Buzzer defaults to a beeper on the default audio device
	Buzzer chip8.Buzzer
	// UseDebugger logs every instruction
	UseDebugger bool
}

type AppConfigCb func(config *AppConfig)

type ConsoleApp struct {
	*chip8.InMemoryKeyboard
	// The underlying console
	Cpu *chip8.Cpu
	// Speed in Hz, as edited by the slider
	speed float32
	// Copy of the last rendered screen
	screen chip8.Screen

	keyboardLayout    chip8.KeyboardLayout
	keyboardLookupMap map[ScanCode]byte

	// Window width and height
	winW, winH int

	// Toolbar
	startBtn, stopBtn, stepBtn, restBtn bool

	loadedProgramPath string
	halted            bool

	lastMessage      string
	lastMessageColor rl.Color
}

func NewConsoleApp(configs ...AppConfigCb) *ConsoleApp {
	config := &AppConfig{
		Speed:          chip8.DefaultSpeed,
		KeyboardLayout: chip8.DefaultKeyboardLayout,
	}
	for _, cb := range configs {
		cb(config)
	}
	if config.Buzzer == nil {
		config.Buzzer = sound.NewDefaultBeeper()
	}

	app := &ConsoleApp{
		InMemoryKeyboard:  chip8.NewInMemoryKeyboard(),
		Cpu:               nil,
		keyboardLayout:    config.KeyboardLayout,
		keyboardLookupMap: map[ScanCode]byte{},
	}

	app.Cpu = chip8.NewCpu(
		chip8.NewMemory(),
		chip8.SmallScreen,
		app,
		app,
		config.Buzzer,
		chip8.WithQuirks(config.Quirks),
		chip8.WithSpeed(config.Speed),
	)
	app.speed = float32(app.Cpu.SpeedInHz())
	app.screen = chip8.NewScreen(app.Cpu.ScreenSettings)
	if config.UseDebugger {
		chip8.NewTracer(app.Cpu, slog.Default())
	}

	app.updateKeyboardLookupMap()
	app.updateWindowSize()

	return app
}

// Run opens the window and runs one frame of the console per frame of the UI.
// The console only starts on its own when autostart is set and a program is loaded.
func (app *ConsoleApp) Run(autostart bool) error {
	if err := app.Cpu.Boot(); err != nil {
		return err
	}
	if !autostart || !app.hasProgramLoaded() {
		app.Cpu.Stop()
	}

	rl.InitWindow(int32(app.winW), int32(app.winH), "chip8")
	defer rl.CloseWindow()

	app.loadStyles()
	rl.SetTargetFPS(int32(chip8.FrameRate))
	for !rl.WindowShouldClose() {
		app.handleFileLoad()
		app.handleActions()
		app.handleKeyPress()
		app.updateCpuSpeed()
		app.runFrame()

		rl.BeginDrawing()

		rl.ClearBackground(rl.Black)

		// Sections get rendered from bottom to the top so that the toolbar stays on top
		app.drawMessageBar()
		app.drawScreen()
		app.drawToolbar()

		rl.EndDrawing()
	}

	return nil
}

func (app *ConsoleApp) Load(path string) {
	program, err := os.ReadFile(path)
	if err != nil {
		slog.Error("Error loading program", slog.String("path", path), slog.Any("error", err))
		app.showMessage(err.Error(), MessageError)
		return
	}

	if err = app.Cpu.LoadProgram(program); err != nil {
		slog.Error("Error loading program", slog.String("path", path), slog.Any("error", err))
		app.showMessage(err.Error(), MessageError)
		return
	}

	app.loadedProgramPath = path
	app.halted = false
	slog.Info("Program loaded", slog.String("path", path))
	app.showMessage(fmt.Sprintf("Program '%s' loaded", app.loadedProgramPath), MessageInfo)

	app.Cpu.Start()
}

func (app *ConsoleApp) runFrame() {
	if app.halted {
		return
	}

	if err := app.Cpu.RunFrame(); err != nil {
		app.halt(err)
	}
}

func (app *ConsoleApp) halt(err error) {
	app.halted = true
	app.Cpu.Stop()
	slog.Error("CPU stopped", slog.Any("error", err))
	app.showMessage(err.Error(), MessageError)
}

func (app *ConsoleApp) updateWindowSize() {
	app.winW = app.Cpu.ScreenSettings.Width * ScreenPixelSize
	app.winH = app.Cpu.ScreenSettings.Height*ScreenPixelSize + ToolbarHeight + MessageBarHeigh
	slog.Info("Updating window size", slog.Int("width", app.winW), slog.Int("height", app.winH))
}

func (app *ConsoleApp) updateKeyboardLookupMap() {
	for r, k := range chip8.LookupMap(app.keyboardLayout) {
		if code, ok := runeToKey[r]; ok {
			app.keyboardLookupMap[code] = k
		}
	}
}

func (app *ConsoleApp) loadStyles() {
	slog.Info("Loading styles")
	gui.LoadStyleDefault()
}

func (app *ConsoleApp) handleFileLoad() {
	if rl.IsFileDropped() {
		files := rl.LoadDroppedFiles()
		defer rl.UnloadDroppedFiles()

		slog.Info("Files were dropped", "files", strings.Join(files, ","))

		if len(files) > 0 {
			app.Load(files[0])
		}
	}
}

func (app ConsoleApp) hasProgramLoaded() bool {
	return len(app.loadedProgramPath) > 0
}

func (app *ConsoleApp) handleActions() {
	if app.startBtn {
		switch {
		case !app.hasProgramLoaded():
			app.showMessage("There is no program loaded", MessageError)
		case app.halted:
			app.showMessage("The program stopped on an error, reset it first", MessageWarning)
		default:
			app.Cpu.Start()
			slog.Info("Starting the console")
		}
	}
	if app.stopBtn {
		app.Cpu.Stop()
		slog.Info("Stopping the console")
	}
	if app.restBtn {
		app.Cpu.Stop()
		if err := app.Cpu.Reset(); err != nil {
			app.showMessage(err.Error(), MessageError)
			return
		}
		app.halted = false
		app.showMessage("Program reset", MessageSuccess)
		slog.Info("Resetting the program to the beginning")
	}
	if app.stepBtn && !app.halted {
		app.Cpu.Stop()
		if err := app.Cpu.Step(); err != nil {
			app.halt(err)
			return
		}
		slog.Info("Running a single instruction", slog.String("pc", fmt.Sprintf("%03X", app.Cpu.Pc)))
	}
}

func (app *ConsoleApp) handleKeyPress() {
	for scanCode, key := range app.keyboardLookupMap {
		if rl.IsKeyDown(scanCode) {
			app.Press(key)
		} else {
			app.Release(key)
		}
	}
}

func (app *ConsoleApp) updateCpuSpeed() {
	if uint(app.speed) != app.Cpu.SpeedInHz() {
		app.Cpu.SetSpeedInHz(uint(app.speed))
	}
}

func (app *ConsoleApp) drawToolbar() {
	rl.DrawRectangle(0, 0, int32(rl.GetScreenWidth()), ToolbarHeight, rl.Gray)

	app.startBtn = gui.Button(
		rl.NewRectangle(ToolbarGap+ToolbarBtnOffset*0, ToolbarGap, ToolbarBtnWidth, ToolbarBtnHeight),
		gui.IconText(gui.ICON_PLAYER_PLAY, "Start"),
	)
	app.stopBtn = gui.Button(
		rl.NewRectangle(ToolbarGap+ToolbarBtnOffset*1, ToolbarGap, ToolbarBtnWidth, ToolbarBtnHeight),
		gui.IconText(gui.ICON_PLAYER_STOP, "Stop"),
	)
	app.stepBtn = gui.Button(
		rl.NewRectangle(ToolbarGap+ToolbarBtnOffset*2, ToolbarGap, ToolbarBtnWidth, ToolbarBtnHeight),
		gui.IconText(gui.ICON_PLAYER_NEXT, "Step"),
	)
	app.restBtn = gui.Button(
		rl.NewRectangle(ToolbarGap+ToolbarBtnOffset*3, ToolbarGap, ToolbarBtnWidth, ToolbarBtnHeight),
		gui.IconText(gui.ICON_ROTATE, "Reset"),
	)

	status := "Stopped"
	if app.Cpu.IsRunning() && !app.halted {
		status = "Running"
	}
	gui.Label(
		rl.NewRectangle(ToolbarGap+ToolbarBtnOffset*4, ToolbarGap, ToolbarBtnWidth, ToolbarBtnHeight),
		status,
	)

	gui.Label(
		rl.NewRectangle(float32(app.winW)-ToolbarGap-150, 26, 50, 20),
		fmt.Sprintf("%d Hz", app.Cpu.SpeedInHz()),
	)

	if gui.Button(
		rl.NewRectangle(float32(app.winW)-ToolbarGap-150+50, 26, 50, 20),
		gui.IconText(gui.ICON_ROTATE, ""),
	) {
		app.speed = float32(chip8.DefaultSpeed)
	}

	app.speed = gui.Slider(
		rl.NewRectangle(float32(app.winW)-ToolbarGap-150, ToolbarGap, 100, 20),
		fmt.Sprintf("%d Hz", chip8.MinSpeed), fmt.Sprintf("%d Hz", chip8.MaxSpeed),
		app.speed,
		float32(chip8.MinSpeed),
		float32(chip8.MaxSpeed),
	)
}

func (app *ConsoleApp) drawScreen() {
	settings := app.Cpu.ScreenSettings
	for y := 0; y < settings.Height; y++ {
		for x := 0; x < settings.Width; x++ {
			color := ScreenBgColor
			if app.screen.At(settings, x, y) {
				color = ScreenPixelColor
			}

			rl.DrawRectangle(
				ScreenPositionX+ScreenPixelSize*int32(x),
				ScreenPositionY+ScreenPixelSize*int32(y),
				ScreenPixelSize,
				ScreenPixelSize,
				color)
		}
	}
}

func (app *ConsoleApp) showMessage(msg string, mType MessageType) {
	app.lastMessage = msg
	switch mType {
	case MessageInfo:
		app.lastMessageColor = MessageBarInfoColor

	case MessageSuccess:
		app.lastMessageColor = MessageBarSuccessColor

	case MessageWarning:
		app.lastMessageColor = MessageBarWarningColor

	case MessageError:
		app.lastMessageColor = MessageBarErrorColor
	}
}

func (app *ConsoleApp) drawMessageBar() {
	rl.DrawRectangle(
		0,
		int32(app.winH)-MessageBarHeigh,
		int32(app.winW),
		MessageBarHeigh,
		MessageBarBgColor,
	)

	rl.DrawText(
		app.lastMessage,
		MessageBarGap,
		int32(app.winH)-MessageBarHeigh+MessageBarGap,
		16,
		app.lastMessageColor,
	)

	rl.DrawText(
		fmt.Sprintf("PC=%03X I=%03X", app.Cpu.Pc, app.Cpu.I),
		int32(app.winW)-140,
		int32(app.winH)-MessageBarHeigh+MessageBarGap,
		16,
		rl.LightGray,
	)
}
