package game

import (
	"fmt"
	"strings"
)

type Special uint8

const (
	SpecialNone Special = iota
	SpecialCastling
	SpecialEnPassant
	SpecialPromotion
)

func (s Special) String() string {
	switch s {
	case SpecialCastling:
		return "castling"
	case SpecialEnPassant:
		return "en_passant"
	case SpecialPromotion:
		return "promotion"
	default:
		return ""
	}
}

// Placement is the From value of moves that drop a new piece.
const Placement = -1

// Move goes From -> To. Captures lists every index emptied by the move
// apart from From itself.
type Move struct {
	From     int
	To       int
	Captures []int
	Special  Special
}

// NoMove is returned by search when the side to move has nothing legal.
var NoMove = Move{From: Placement, To: -1}

func (m Move) IsNone() bool { return m.To < 0 }

func (m Move) IsPlacement() bool { return m.From == Placement }

// Same compares by origin and destination only; captures and the special tag
// are derived from the board.
func (m Move) Same(o Move) bool { return m.From == o.From && m.To == o.To }

func (m Move) String() string {
	if m.IsNone() {
		return "none"
	}
	var sb strings.Builder
	if m.IsPlacement() {
		fmt.Fprintf(&sb, "@%d", m.To)
	} else {
		fmt.Fprintf(&sb, "%d-%d", m.From, m.To)
	}
	if len(m.Captures) > 0 {
		fmt.Fprintf(&sb, "x%v", m.Captures)
	}
	if m.Special != SpecialNone {
		sb.WriteString("(" + m.Special.String() + ")")
	}
	return sb.String()
}

// FindMove returns the generated move matching want by origin and destination.
func FindMove(moves []Move, want Move) (Move, bool) {
	for _, m := range moves {
		if m.Same(want) {
			return m, true
		}
	}
	return Move{}, false
}
