// Package checkers implements the arcade's Chinese Checkers: an 8x8 grid
// where pieces step or jump orthogonally. Jumping over an enemy piece
// captures it, and a piece that can jump must jump.
package checkers

import (
	"github.com/park285/pixelcv-arcade/internal/game"
)

const (
	ID   = "chinese_checkers"
	Size = 8

	Red  game.Cell = 'R'
	Blue game.Cell = 'B'

	pieceWeight = 10
)

var dirs = [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}

type Variant struct{}

func init() {
	game.Register(Variant{}, "checkers", "damas", "chinese-checkers")
}

func (Variant) ID() string             { return ID }
func (Variant) Name() string           { return "Chinese Checkers" }
func (Variant) CollectsTraining() bool { return true }

// NewBoard places Red (the human) on row 1 and Blue on row 6.
func (Variant) NewBoard() game.Board {
	b := game.NewBoard(Size, Size)
	for col := 0; col < Size; col++ {
		b.Cells[b.Index(1, col)] = Red
		b.Cells[b.Index(6, col)] = Blue
	}
	return b
}

func (Variant) Owner(c game.Cell) (game.Side, bool) {
	switch c {
	case Red:
		return game.Player, true
	case Blue:
		return game.AI, true
	}
	return 0, false
}

func Piece(s game.Side) game.Cell {
	if s == game.Player {
		return Red
	}
	return Blue
}

// GoalRow is the row side must reach: the edge behind its own starting row,
// one step away. Red wins on row 0 and Blue on row 7.
func GoalRow(s game.Side) int {
	if s == game.Player {
		return 0
	}
	return Size - 1
}

// advance is positive once a piece stands closer to the goal row than the
// starting row and negative when it has moved away from it.
func advance(s game.Side, row int) int {
	if s == game.Player {
		return 1 - row
	}
	return row - 6
}

// GenerateMoves walks the board in index order. For each piece, jumps are
// returned if it has any; otherwise its single steps.
func (v Variant) GenerateMoves(b game.Board, side game.Side) []game.Move {
	if _, done := goalStatus(b); done {
		return nil
	}
	own := Piece(side)
	moves := make([]game.Move, 0, 32)
	for from, c := range b.Cells {
		if c != own {
			continue
		}
		if j := jumpsFrom(b, side, from); len(j) > 0 {
			moves = append(moves, j...)
			continue
		}
		moves = append(moves, stepsFrom(b, from)...)
	}
	return moves
}

func jumpsFrom(b game.Board, side game.Side, from int) []game.Move {
	row, col := b.RowCol(from)
	enemy := Piece(side.Opponent())
	var out []game.Move
	for _, d := range dirs {
		endR, endC := row+2*d[0], col+2*d[1]
		if !b.InBounds(endR, endC) {
			continue
		}
		mid := b.Index(row+d[0], col+d[1])
		end := b.Index(endR, endC)
		if b.Cells[mid] == enemy && b.Cells[end] == game.Empty {
			out = append(out, game.Move{From: from, To: end, Captures: []int{mid}})
		}
	}
	return out
}

func stepsFrom(b game.Board, from int) []game.Move {
	row, col := b.RowCol(from)
	var out []game.Move
	for _, d := range dirs {
		r, c := row+d[0], col+d[1]
		if !b.InBounds(r, c) {
			continue
		}
		if to := b.Index(r, c); b.Cells[to] == game.Empty {
			out = append(out, game.Move{From: from, To: to})
		}
	}
	return out
}

func (Variant) ApplyMove(b game.Board, side game.Side, m game.Move) game.Board {
	next := b.Clone()
	for _, idx := range m.Captures {
		next.Cells[idx] = game.Empty
	}
	next.Cells[m.From] = game.Empty
	next.Cells[m.To] = Piece(side)
	return next
}

// goalStatus reports a win when a piece reached its goal row or a side has
// no pieces left.
func goalStatus(b game.Board) (game.Status, bool) {
	red, blue := 0, 0
	for i, c := range b.Cells {
		row := i / b.Width
		switch c {
		case Red:
			if row == GoalRow(game.Player) {
				return game.WinFor(game.Player), true
			}
			red++
		case Blue:
			if row == GoalRow(game.AI) {
				return game.WinFor(game.AI), true
			}
			blue++
		}
	}
	switch {
	case red == 0:
		return game.WinFor(game.AI), true
	case blue == 0:
		return game.WinFor(game.Player), true
	}
	return game.Ongoing, false
}

// Status also treats a side with no legal move as beaten.
func (v Variant) Status(b game.Board, toMove game.Side) game.Status {
	if st, done := goalStatus(b); done {
		return st
	}
	if len(v.GenerateMoves(b, toMove)) == 0 {
		return game.WinFor(toMove.Opponent())
	}
	return game.Ongoing
}

// Evaluate rewards material and progress toward the goal row.
func (Variant) Evaluate(b game.Board, side game.Side, depthRemaining int) int {
	if st, done := goalStatus(b); done {
		return game.TerminalScore(st, side, depthRemaining)
	}
	score := 0
	for i, c := range b.Cells {
		row := i / b.Width
		switch c {
		case Red:
			score += pieceWeight + advance(game.Player, row)
		case Blue:
			score -= pieceWeight + advance(game.AI, row)
		}
	}
	return score * side.Sign()
}

func (Variant) Notation(b game.Board, m game.Move) string {
	if m.IsNone() {
		return ""
	}
	sep := "-"
	if len(m.Captures) > 0 {
		sep = "x"
	}
	return square(b, m.From) + sep + square(b, m.To)
}

func square(b game.Board, idx int) string {
	row, col := b.RowCol(idx)
	return string(rune('a'+col)) + string(rune('1'+row))
}
