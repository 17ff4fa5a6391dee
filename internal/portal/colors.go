package portal

// Color is an RGB colour on the device's native 0-100 intensity scale.
// Values above 100 are accepted by the firmware but render the same as 100.
type Color struct {
	R uint8
	G uint8
	B uint8
}

// Standard palette matching the device's documented colour set.
// Channel intensities are 0-100, not 0-255.
var (
	ColorOff       = Color{0, 0, 0}
	ColorRed       = Color{100, 0, 0}
	ColorGreen     = Color{0, 100, 0}
	ColorBlue      = Color{0, 0, 100}
	ColorPink      = Color{100, 75, 79}
	ColorOrange    = Color{100, 64, 0}
	ColorYellow    = Color{100, 100, 0}
	ColorPurple    = Color{100, 0, 100}
	ColorLightBlue = Color{100, 100, 100}
	ColorOlive     = Color{50, 50, 0}

	// ColorDim is the low-intensity white used as the idle pad colour.
	ColorDim = Color{20, 20, 20}
)
