package tui

import "github.com/park285/pixelcv-arcade/internal/game"

// picker turns cursor presses into moves. Placement games take one press;
// the others take an origin press and a destination press.
type picker struct {
	from int
}

func newPicker() *picker { return &picker{from: -1} }

func (p *picker) Selected() (int, bool) { return p.from, p.from >= 0 }

func (p *picker) Clear() { p.from = -1 }

// Press handles a press on idx. It returns the move to submit once one is
// complete, and reports whether the press was understood at all.
func (p *picker) Press(idx int, legal []game.Move) (game.Move, bool, bool) {
	if m, ok := game.FindMove(legal, game.Move{From: game.Placement, To: idx}); ok {
		p.Clear()
		return m, true, true
	}
	if p.from >= 0 {
		if m, ok := game.FindMove(legal, game.Move{From: p.from, To: idx}); ok {
			p.Clear()
			return m, true, true
		}
	}
	// new origin, or a re-pick of another own piece
	for _, m := range legal {
		if m.From == idx {
			p.from = idx
			return game.Move{}, false, true
		}
	}
	if p.from == idx {
		p.Clear()
		return game.Move{}, false, true
	}
	return game.Move{}, false, false
}

// Targets lists the destinations reachable from the selected origin.
func (p *picker) Targets(legal []game.Move) map[int]bool {
	out := map[int]bool{}
	if p.from < 0 {
		return out
	}
	for _, m := range legal {
		if m.From == p.from {
			out[m.To] = true
		}
	}
	return out
}
