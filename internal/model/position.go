// Package model defines the core data structures for danmaq.
package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Position is the display kind of a danmaku comment.
// Values match the integer sent over D-Bus and the CLI.
type Position int32

const (
	PositionVertical     Position = 0 // Stacked list, pushed upward by newer entries
	PositionTopScroll    Position = 1 // Right-to-left, biased to the upper half
	PositionBottomScroll Position = 2 // Right-to-left, biased to the lower half
	PositionTopReverse   Position = 3 // Left-to-right, biased to the upper half
	PositionTopStatic    Position = 4 // Centered, topmost free row
	PositionBottomStatic Position = 5 // Centered, bottommost free row
)

// ErrInvalidPosition is returned for position values outside the known range.
var ErrInvalidPosition = errors.New("invalid danmaku position")

// PositionNames maps positions to their canonical names.
var PositionNames = map[Position]string{
	PositionVertical:     "vertical",
	PositionTopScroll:    "top-scroll",
	PositionBottomScroll: "bottom-scroll",
	PositionTopReverse:   "top-reverse",
	PositionTopStatic:    "top-static",
	PositionBottomStatic: "bottom-static",
}

// ValidPositions returns all positions in wire order.
func ValidPositions() []Position {
	return []Position{
		PositionVertical,
		PositionTopScroll,
		PositionBottomScroll,
		PositionTopReverse,
		PositionTopStatic,
		PositionBottomStatic,
	}
}

// Valid reports whether p is a known position.
func (p Position) Valid() bool {
	return p >= PositionVertical && p <= PositionBottomStatic
}

// String returns the canonical name of the position.
func (p Position) String() string {
	if name, ok := PositionNames[p]; ok {
		return name
	}
	return "unknown(" + strconv.Itoa(int(p)) + ")"
}

// IsScrolling reports whether the position moves horizontally.
func (p Position) IsScrolling() bool {
	switch p {
	case PositionTopScroll, PositionBottomScroll, PositionTopReverse:
		return true
	default:
		return false
	}
}

// IsStatic reports whether the position is a centered, non-moving row.
func (p Position) IsStatic() bool {
	return p == PositionTopStatic || p == PositionBottomStatic
}

// ParsePosition parses a position name ("top-scroll") or its number ("1").
func ParsePosition(s string) (Position, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		p := Position(n)
		if !p.Valid() {
			return 0, fmt.Errorf("%w: %d", ErrInvalidPosition, n)
		}
		return p, nil
	}
	for p, name := range PositionNames {
		if name == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidPosition, s)
}
