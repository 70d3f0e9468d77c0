package model

import (
	"errors"
	"strings"
)

// ErrEmptyText is returned for requests without visible text.
var ErrEmptyText = errors.New("danmaku text is empty")

// Request is a single "new danmaku" call from the surrounding application.
type Request struct {
	Text     string   `json:"text" yaml:"text"`
	Color    Color    `json:"color" yaml:"color"`
	Position Position `json:"position" yaml:"position"`
}

// Validate checks that the request can be displayed.
func (r Request) Validate() error {
	if !r.Position.Valid() {
		return ErrInvalidPosition
	}
	if strings.TrimSpace(r.Text) == "" {
		return ErrEmptyText
	}
	return nil
}

// Font describes the text face used for every comment.
type Font struct {
	Family string
	Size   int // Points
	Bold   bool
}

// Style is the explicit styling handed to a renderer when a surface is created.
type Style struct {
	Font       Font
	Fill       Color
	Outline    RGB
	ShadowBlur int
}

// NewStyle builds the style for a comment of the given color.
func NewStyle(font Font, color Color, shadowBlur int) Style {
	return Style{
		Font:       font,
		Fill:       color,
		Outline:    color.Outline(),
		ShadowBlur: shadowBlur,
	}
}
