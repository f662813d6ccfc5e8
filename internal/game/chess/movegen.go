package chess

import "github.com/park285/pixelcv-arcade/internal/game"

var (
	rookDirs   = [][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}
	bishopDirs = [][2]int{{-1, -1}, {-1, 1}, {1, -1}, {1, 1}}
	queenDirs  = append(append([][2]int{}, rookDirs...), bishopDirs...)

	knightJumps = [][2]int{
		{-2, -1}, {-2, 1}, {-1, -2}, {-1, 2},
		{1, -2}, {1, 2}, {2, -1}, {2, 1},
	}
)

// GenerateMoves enumerates moves square by square from a8 to h1. Moves that
// leave the mover's king attacked by a pawn are dropped.
func (v Variant) GenerateMoves(b game.Board, side game.Side) []game.Move {
	if _, done := kingStatus(b); done {
		return nil
	}
	pseudo := pseudoMoves(b, side)
	legal := pseudo[:0]
	for _, m := range pseudo {
		if InCheck(v.ApplyMove(b, side, m), side) {
			continue
		}
		legal = append(legal, m)
	}
	return legal
}

func pseudoMoves(b game.Board, side game.Side) []game.Move {
	moves := make([]game.Move, 0, 48)
	for from, c := range b.Cells {
		s, ok := owner(c)
		if !ok || s != side {
			continue
		}
		switch kind(c) {
		case 'p':
			moves = pawnMoves(b, side, from, moves)
		case 'r':
			moves = slide(b, side, from, rookDirs, moves)
		case 'b':
			moves = slide(b, side, from, bishopDirs, moves)
		case 'q':
			moves = slide(b, side, from, queenDirs, moves)
		case 'n':
			moves = jumps(b, side, from, knightJumps, moves)
		case 'k':
			moves = jumps(b, side, from, queenDirs, moves)
			moves = castles(b, side, from, moves)
		}
	}
	return moves
}

// target reports whether side may land on idx and whether that is a capture.
func target(b game.Board, side game.Side, idx int) (ok, capture bool) {
	c := b.Cells[idx]
	if c == game.Empty {
		return true, false
	}
	s, _ := owner(c)
	return s != side, s != side
}

func step(from, to int, capture bool) game.Move {
	m := game.Move{From: from, To: to}
	if capture {
		m.Captures = []int{to}
	}
	return m
}

func pawnMoves(b game.Board, side game.Side, from int, moves []game.Move) []game.Move {
	row, col := b.RowCol(from)
	dir := forward(side)
	r := row + dir
	if !b.InBounds(r, col) {
		return moves
	}
	promote := r == lastRow(side)
	one := b.Index(r, col)
	if b.Cells[one] == game.Empty {
		moves = append(moves, pawnStep(from, one, false, promote))
		if row == startRow(side) {
			two := b.Index(row+2*dir, col)
			if b.Cells[two] == game.Empty {
				moves = append(moves, game.Move{From: from, To: two})
			}
		}
	}
	for _, dc := range [2]int{-1, 1} {
		c := col + dc
		if !b.InBounds(r, c) {
			continue
		}
		idx := b.Index(r, c)
		if s, ok := owner(b.Cells[idx]); ok && s != side {
			moves = append(moves, pawnStep(from, idx, true, promote))
			continue
		}
		if idx == b.EnPassant && b.Cells[idx] == game.Empty {
			victim := b.Index(row, c)
			if b.Cells[victim] == pieceFor(side.Opponent(), 'p') {
				moves = append(moves, game.Move{
					From:     from,
					To:       idx,
					Captures: []int{victim},
					Special:  game.SpecialEnPassant,
				})
			}
		}
	}
	return moves
}

func pawnStep(from, to int, capture, promote bool) game.Move {
	m := step(from, to, capture)
	if promote {
		m.Special = game.SpecialPromotion
	}
	return m
}

func slide(b game.Board, side game.Side, from int, dirs [][2]int, moves []game.Move) []game.Move {
	row, col := b.RowCol(from)
	for _, d := range dirs {
		for i := 1; i < Size; i++ {
			r, c := row+d[0]*i, col+d[1]*i
			if !b.InBounds(r, c) {
				break
			}
			idx := b.Index(r, c)
			ok, capture := target(b, side, idx)
			if ok {
				moves = append(moves, step(from, idx, capture))
			}
			if b.Cells[idx] != game.Empty {
				break
			}
		}
	}
	return moves
}

func jumps(b game.Board, side game.Side, from int, offsets [][2]int, moves []game.Move) []game.Move {
	row, col := b.RowCol(from)
	for _, d := range offsets {
		r, c := row+d[0], col+d[1]
		if !b.InBounds(r, c) {
			continue
		}
		idx := b.Index(r, c)
		if ok, capture := target(b, side, idx); ok {
			moves = append(moves, step(from, idx, capture))
		}
	}
	return moves
}

type castleRule struct {
	flag    game.Castling
	rookCol int
	kingTo  int
	empty   []int
}

func castleRules(side game.Side) []castleRule {
	if side == game.Player {
		return []castleRule{
			{flag: game.CastleWhiteKing, rookCol: 7, kingTo: 6, empty: []int{5, 6}},
			{flag: game.CastleWhiteQueen, rookCol: 0, kingTo: 2, empty: []int{1, 2, 3}},
		}
	}
	return []castleRule{
		{flag: game.CastleBlackKing, rookCol: 7, kingTo: 6, empty: []int{5, 6}},
		{flag: game.CastleBlackQueen, rookCol: 0, kingTo: 2, empty: []int{1, 2, 3}},
	}
}

// castles only requires the flag, the rook on its home square and empty
// squares in between. Castling out of pawn check is refused.
func castles(b game.Board, side game.Side, from int, moves []game.Move) []game.Move {
	home := homeRow(side)
	if from != b.Index(home, 4) || InCheck(b, side) {
		return moves
	}
	rook := pieceFor(side, 'r')
	for _, rule := range castleRules(side) {
		if b.Castling&rule.flag == 0 || b.Cells[b.Index(home, rule.rookCol)] != rook {
			continue
		}
		open := true
		for _, col := range rule.empty {
			if b.Cells[b.Index(home, col)] != game.Empty {
				open = false
				break
			}
		}
		if open {
			moves = append(moves, game.Move{From: from, To: b.Index(home, rule.kingTo), Special: game.SpecialCastling})
		}
	}
	return moves
}

// ApplyMove plays m on a copy of b, moving the rook when castling, removing
// the en-passant victim and promoting pawns to queens.
func (Variant) ApplyMove(b game.Board, side game.Side, m game.Move) game.Board {
	next := b.Clone()
	piece := next.Cells[m.From]
	for _, idx := range m.Captures {
		next.Cells[idx] = game.Empty
	}
	next.Cells[m.From] = game.Empty
	next.Cells[m.To] = piece
	next.EnPassant = -1

	fromRow, fromCol := b.RowCol(m.From)
	toRow, toCol := b.RowCol(m.To)

	switch kind(piece) {
	case 'p':
		if toRow-fromRow == 2*forward(side) {
			next.EnPassant = b.Index(fromRow+forward(side), fromCol)
		}
		if toRow == lastRow(side) {
			next.Cells[m.To] = pieceFor(side, 'q')
		}
	case 'k':
		if m.Special == game.SpecialCastling || (fromCol == 4 && abs(toCol-fromCol) == 2) {
			home := homeRow(side)
			rookFrom, rookTo := b.Index(home, 7), b.Index(home, 5)
			if toCol == 2 {
				rookFrom, rookTo = b.Index(home, 0), b.Index(home, 3)
			}
			next.Cells[rookTo] = next.Cells[rookFrom]
			next.Cells[rookFrom] = game.Empty
		}
		if side == game.Player {
			next.Castling &^= game.CastleWhiteKing | game.CastleWhiteQueen
		} else {
			next.Castling &^= game.CastleBlackKing | game.CastleBlackQueen
		}
	}
	next.Castling &^= rookRights(b, m.From) | rookRights(b, m.To)
	return next
}

// rookRights returns the castling flag tied to a rook's home square.
func rookRights(b game.Board, idx int) game.Castling {
	switch idx {
	case b.Index(7, 7):
		return game.CastleWhiteKing
	case b.Index(7, 0):
		return game.CastleWhiteQueen
	case b.Index(0, 7):
		return game.CastleBlackKing
	case b.Index(0, 0):
		return game.CastleBlackQueen
	}
	return 0
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
