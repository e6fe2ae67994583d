package graphic

import "github.com/nsf/termbox-go"

// Styles are the termbox attributes of the bars, the background and the
// base line.
type Styles struct {
	Foreground termbox.Attribute
	Background termbox.Attribute
	CenterLine termbox.Attribute
}

// DefaultStyles returns the terminal defaults with a magenta base line.
func DefaultStyles() Styles {
	return Styles{
		Foreground: termbox.ColorDefault,
		Background: termbox.ColorDefault,
		CenterLine: termbox.ColorMagenta,
	}
}

// StylesFromUInt16 builds styles from raw termbox attributes.
func StylesFromUInt16(fg, bg, center uint16) Styles {
	return Styles{
		Foreground: termbox.Attribute(fg),
		Background: termbox.Attribute(bg),
		CenterLine: termbox.Attribute(center),
	}
}

// AsUInt16s returns the raw attributes for flag parsing.
func (s Styles) AsUInt16s() (uint16, uint16, uint16) {
	return uint16(s.Foreground), uint16(s.Background), uint16(s.CenterLine)
}
