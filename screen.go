package chip8

// Screen representation, one entry per pixel in row-major order
type Screen []bool

// ScreenSettings for the console
// Common display sizes are 64x32 and 128x64.
// Other uncommon sizes are 64x48 and 64x64.
type ScreenSettings struct {
	Width, Height int
}

var SmallScreen = ScreenSettings{
	Width:  64,
	Height: 32,
}

func (s ScreenSettings) Pixels() int {
	return s.Width * s.Height
}

func NewScreen(settings ScreenSettings) Screen {
	return make(Screen, settings.Pixels())
}

func (s Screen) Clear() {
	for i := range s {
		s[i] = false
	}
}

// At reports whether the pixel at column x, row y is on
func (s Screen) At(settings ScreenSettings, x, y int) bool {
	if x < 0 || y < 0 || x >= settings.Width || y >= settings.Height {
		return false
	}

	return s[y*settings.Width+x]
}

// Pack returns the screen with eight pixels per byte, most significant bit first
func (s Screen) Pack() []byte {
	buf := make([]byte, (len(s)+7)/8)
	for i, on := range s {
		if on {
			buf[i/8] |= 0b10000000 >> (i % 8)
		}
	}

	return buf
}

// DrawSprite XORs the sprite rows onto the screen at x0, y0.
// The origin wraps around the screen, the sprite itself is clipped at the right and
// bottom edges. Returns whether any pixel was turned off.
// Nothing is drawn on a screen without pixels.
func (s Screen) DrawSprite(settings ScreenSettings, x0, y0 int, sprite []byte) bool {
	if settings.Width <= 0 || settings.Height <= 0 || len(s) < settings.Pixels() {
		return false
	}

	x0 = x0 % settings.Width
	y0 = y0 % settings.Height

	collision := false
	for r, row := range sprite {
		y := y0 + r
		if y >= settings.Height {
			break
		}

		for bit := 0; bit < 8; bit++ {
			x := x0 + bit
			if x >= settings.Width {
				break
			}

			if row&(0b10000000>>bit) == 0 {
				continue
			}

			t := y*settings.Width + x
			if s[t] {
				collision = true
			}
			s[t] = !s[t]
		}
	}

	return collision
}
