package core

// Color represents a foreground color for a screen cell.
// The terminal renderer maps each value to an ANSI color.
type Color uint8

const (
	ColorDefault Color = iota
	ColorRed
	ColorGreen
	ColorYellow
	ColorBlue
	ColorMagenta
	ColorCyan
	ColorBrightRed
	ColorBrightYellow
	ColorBrightCyan
	ColorOrange
	ColorGray
)
