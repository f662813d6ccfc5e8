// Package chess implements the arcade's simplified chess. The human plays
// White (uppercase FEN letters, rows 6-7) and moves first; the engine plays
// Black (lowercase, rows 0-1). Check is only detected for pawn attacks and a
// game ends when a king is captured.
package chess

import (
	"github.com/park285/pixelcv-arcade/internal/game"
)

const (
	ID   = "chess"
	Size = 8
)

const backRank = "rnbqkbnr"

var pieceValues = map[game.Cell]int{
	'p': 1, 'n': 3, 'b': 3, 'r': 5, 'q': 9, 'k': 100,
}

type Variant struct{}

func init() {
	game.Register(Variant{}, "ajedrez")
}

func (Variant) ID() string             { return ID }
func (Variant) Name() string           { return "Chess" }
func (Variant) CollectsTraining() bool { return true }

func (Variant) NewBoard() game.Board {
	b := game.NewBoard(Size, Size)
	for col := 0; col < Size; col++ {
		piece := game.Cell(backRank[col])
		b.Cells[b.Index(0, col)] = piece
		b.Cells[b.Index(1, col)] = 'p'
		b.Cells[b.Index(6, col)] = 'P'
		b.Cells[b.Index(7, col)] = upper(piece)
	}
	b.Castling = game.CastleAll
	b.EnPassant = -1
	return b
}

func (Variant) Owner(c game.Cell) (game.Side, bool) { return owner(c) }

func owner(c game.Cell) (game.Side, bool) {
	switch {
	case c >= 'A' && c <= 'Z':
		return game.Player, true
	case c >= 'a' && c <= 'z':
		return game.AI, true
	}
	return 0, false
}

func upper(c game.Cell) game.Cell {
	if c >= 'a' && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}

func lower(c game.Cell) game.Cell {
	if c >= 'A' && c <= 'Z' {
		return c - 'A' + 'a'
	}
	return c
}

// kind returns the lowercase piece letter.
func kind(c game.Cell) game.Cell { return lower(c) }

func pieceFor(side game.Side, k game.Cell) game.Cell {
	if side == game.Player {
		return upper(k)
	}
	return lower(k)
}

func forward(side game.Side) int {
	if side == game.Player {
		return -1
	}
	return 1
}

func startRow(side game.Side) int {
	if side == game.Player {
		return 6
	}
	return 1
}

func homeRow(side game.Side) int {
	if side == game.Player {
		return 7
	}
	return 0
}

func lastRow(side game.Side) int { return homeRow(side.Opponent()) }

func kingSquare(b game.Board, side game.Side) int {
	k := pieceFor(side, 'k')
	for i, c := range b.Cells {
		if c == k {
			return i
		}
	}
	return -1
}

// InCheck reports whether side's king is attacked by an enemy pawn. Other
// attackers are deliberately ignored.
func InCheck(b game.Board, side game.Side) bool {
	king := kingSquare(b, side)
	if king < 0 {
		return false
	}
	row, col := b.RowCol(king)
	r := row + forward(side)
	enemyPawn := pieceFor(side.Opponent(), 'p')
	for _, dc := range [2]int{-1, 1} {
		c := col + dc
		if b.InBounds(r, c) && b.Cells[b.Index(r, c)] == enemyPawn {
			return true
		}
	}
	return false
}

func (v Variant) Status(b game.Board, toMove game.Side) game.Status {
	if st, done := kingStatus(b); done {
		return st
	}
	if len(v.GenerateMoves(b, toMove)) > 0 {
		return game.Ongoing
	}
	if InCheck(b, toMove) {
		return game.WinFor(toMove.Opponent())
	}
	return game.DrawStatus()
}

func kingStatus(b game.Board) (game.Status, bool) {
	white, black := false, false
	for _, c := range b.Cells {
		switch c {
		case 'K':
			white = true
		case 'k':
			black = true
		}
	}
	switch {
	case !white:
		return game.WinFor(game.AI), true
	case !black:
		return game.WinFor(game.Player), true
	}
	return game.Ongoing, false
}

// Evaluate sums material, or scores a captured king as decisive.
func (Variant) Evaluate(b game.Board, side game.Side, depthRemaining int) int {
	if st, done := kingStatus(b); done {
		return game.TerminalScore(st, side, depthRemaining)
	}
	score := 0
	for _, c := range b.Cells {
		s, ok := owner(c)
		if !ok {
			continue
		}
		score += s.Sign() * pieceValues[kind(c)]
	}
	return score * side.Sign()
}

// Material returns the material balance from White's point of view.
func Material(b game.Board) int {
	return Variant{}.Evaluate(b, game.Player, 0)
}
