// Package tictactoe implements 3x3 noughts and crosses. The human plays X
// and moves first; the engine plays O.
package tictactoe

import (
	"strconv"

	"github.com/park285/pixelcv-arcade/internal/game"
)

const (
	ID   = "tictactoe"
	Size = 3

	X game.Cell = 'X'
	O game.Cell = 'O'

	centerWeight = 10
	cornerWeight = 3
)

// Lines lists every winning combination, rows first.
var Lines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

var corners = [4]int{0, 2, 6, 8}

type Variant struct{}

func init() {
	game.Register(Variant{}, "ttt", "tic-tac-toe", "tic_tac_toe")
}

func (Variant) ID() string   { return ID }
func (Variant) Name() string { return "Tic-Tac-Toe" }

func (Variant) NewBoard() game.Board { return game.NewBoard(Size, Size) }

func (Variant) CollectsTraining() bool { return false }

func (Variant) Owner(c game.Cell) (game.Side, bool) {
	switch c {
	case X:
		return game.Player, true
	case O:
		return game.AI, true
	}
	return 0, false
}

func Mark(s game.Side) game.Cell {
	if s == game.Player {
		return X
	}
	return O
}

// GenerateMoves lists every empty cell as a placement. Nothing is legal once
// a line is complete.
func (v Variant) GenerateMoves(b game.Board, side game.Side) []game.Move {
	if Winner(b) != game.Empty {
		return nil
	}
	moves := make([]game.Move, 0, len(b.Cells))
	for i, c := range b.Cells {
		if c == game.Empty {
			moves = append(moves, game.Move{From: game.Placement, To: i})
		}
	}
	return moves
}

func (Variant) ApplyMove(b game.Board, side game.Side, m game.Move) game.Board {
	next := b.Clone()
	next.Cells[m.To] = Mark(side)
	return next
}

// Winner returns the mark holding a complete line, or Empty.
func Winner(b game.Board) game.Cell {
	for _, line := range Lines {
		c := b.Cells[line[0]]
		if c != game.Empty && c == b.Cells[line[1]] && c == b.Cells[line[2]] {
			return c
		}
	}
	return game.Empty
}

func (v Variant) Status(b game.Board, _ game.Side) game.Status {
	if w := Winner(b); w != game.Empty {
		side, _ := v.Owner(w)
		return game.WinFor(side)
	}
	if b.Full() {
		return game.DrawStatus()
	}
	return game.Ongoing
}

func (v Variant) Evaluate(b game.Board, side game.Side, depthRemaining int) int {
	if st := v.Status(b, side); st.Terminal() {
		return game.TerminalScore(st, side, depthRemaining)
	}
	score := weight(v, b.Cells[4]) * centerWeight
	for _, i := range corners {
		score += weight(v, b.Cells[i]) * cornerWeight
	}
	return score * side.Sign()
}

func weight(v Variant, c game.Cell) int {
	if s, ok := v.Owner(c); ok {
		return s.Sign()
	}
	return 0
}

func (Variant) Notation(_ game.Board, m game.Move) string {
	if m.IsNone() {
		return ""
	}
	row, col := m.To/Size, m.To%Size
	return string(rune('a'+col)) + strconv.Itoa(row+1)
}
