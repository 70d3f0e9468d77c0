package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Color is a packed 0xRRGGBBAA value.
type Color uint32

// Common colors.
const (
	ColorWhite Color = 0xFFFFFFFF
	ColorBlack Color = 0x000000FF
)

// RGB is an opaque 8-bit color triple, used for outlines and shadows.
type RGB struct {
	R, G, B uint8
}

// Hex returns the color as #rrggbb.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// RGBA unpacks the color into its four bytes.
func (c Color) RGBA() (r, g, b, a uint8) {
	return uint8(c >> 24), uint8(c >> 16), uint8(c >> 8), uint8(c)
}

// AlphaPercent returns the fourth byte scaled to 0-100.
func (c Color) AlphaPercent() float64 {
	_, _, _, a := c.RGBA()
	return float64(a) / 2.55
}

// Fill returns a CSS rgba() expression for the translucent text fill.
func (c Color) Fill() string {
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("rgba(%d, %d, %d, %s%%)", r, g, b,
		strconv.FormatFloat(c.AlphaPercent(), 'f', -1, 64))
}

// Hex returns the color as #rrggbb, dropping alpha.
func (c Color) Hex() string {
	r, g, b, _ := c.RGBA()
	return RGB{R: r, G: g, B: b}.Hex()
}

// Outline picks a contrasting outline: black on bright fills, white otherwise.
func (c Color) Outline() RGB {
	r, g, b, _ := c.RGBA()
	if int(r)+int(g)+int(b) >= 384 {
		return RGB{}
	}
	return RGB{R: 255, G: 255, B: 255}
}

// IsDarkOutline reports whether Outline returns black.
func (c Color) IsDarkOutline() bool {
	return c.Outline() == RGB{}
}

// ParseColor parses "#rrggbb", "#rrggbbaa", "0xrrggbbaa" or a decimal number.
// Six-digit hex forms are treated as fully opaque.
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	var hex string
	switch {
	case strings.HasPrefix(s, "#"):
		hex = s[1:]
	case strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"):
		hex = s[2:]
	default:
		n, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return 0, fmt.Errorf("invalid color %q: %w", s, err)
		}
		return Color(n), nil
	}

	switch len(hex) {
	case 6:
		hex += "ff"
	case 8:
	default:
		return 0, fmt.Errorf("invalid color %q: expected 6 or 8 hex digits", s)
	}

	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return Color(n), nil
}
