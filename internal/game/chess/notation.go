package chess

import (
	"fmt"
	"strconv"
	"strings"

	nchess "github.com/corentings/chess/v2"

	"github.com/park285/pixelcv-arcade/internal/game"
)

// Square returns the algebraic name of idx; index 0 is a8.
func Square(idx int) string {
	if idx < 0 || idx >= Size*Size {
		return ""
	}
	row, col := idx/Size, idx%Size
	return string(rune('a'+col)) + strconv.Itoa(Size-row)
}

// ParseSquare is the inverse of Square.
func ParseSquare(s string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return -1, fmt.Errorf("invalid square %q", s)
	}
	col := int(s[0] - 'a')
	row := Size - int(s[1]-'0')
	return row*Size + col, nil
}

// Notation renders m in coordinate form, e.g. "e2e4", "e7e8q" or "e1g1".
func (Variant) Notation(b game.Board, m game.Move) string {
	if m.IsNone() || !b.Valid(m.From) {
		return ""
	}
	out := Square(m.From) + Square(m.To)
	if m.Special == game.SpecialPromotion {
		out += "q"
	}
	return out
}

// FEN exports the position with toMove on turn. The string is checked by
// parsing it back with corentings/chess.
func (Variant) FEN(b game.Board, toMove game.Side) (string, error) {
	fen := buildFEN(b, toMove)
	if _, err := nchess.FEN(fen); err != nil {
		return "", fmt.Errorf("chess: invalid fen %q: %w", fen, err)
	}
	return fen, nil
}

func buildFEN(b game.Board, toMove game.Side) string {
	var sb strings.Builder
	for row := 0; row < Size; row++ {
		if row > 0 {
			sb.WriteByte('/')
		}
		empty := 0
		for col := 0; col < Size; col++ {
			c := b.Cells[b.Index(row, col)]
			if c == game.Empty {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			sb.WriteByte(byte(c))
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
	}
	if toMove == game.AI {
		sb.WriteString(" b ")
	} else {
		sb.WriteString(" w ")
	}
	sb.WriteString(castlingField(b))
	sb.WriteByte(' ')
	if b.EnPassant >= 0 {
		sb.WriteString(Square(b.EnPassant))
	} else {
		sb.WriteByte('-')
	}
	sb.WriteString(" 0 1")
	return sb.String()
}

// castlingField only lists rights whose king and rook are still home, since
// FEN parsers reject anything else.
func castlingField(b game.Board) string {
	type right struct {
		flag       game.Castling
		letter     byte
		king, rook int
		kingPiece  game.Cell
		rookPiece  game.Cell
	}
	rights := []right{
		{game.CastleWhiteKing, 'K', b.Index(7, 4), b.Index(7, 7), 'K', 'R'},
		{game.CastleWhiteQueen, 'Q', b.Index(7, 4), b.Index(7, 0), 'K', 'R'},
		{game.CastleBlackKing, 'k', b.Index(0, 4), b.Index(0, 7), 'k', 'r'},
		{game.CastleBlackQueen, 'q', b.Index(0, 4), b.Index(0, 0), 'k', 'r'},
	}
	var out []byte
	for _, r := range rights {
		if b.Castling&r.flag == 0 || b.Cells[r.king] != r.kingPiece || b.Cells[r.rook] != r.rookPiece {
			continue
		}
		out = append(out, r.letter)
	}
	if len(out) == 0 {
		return "-"
	}
	return string(out)
}

// FromFEN loads the piece placement, castling rights and en-passant square
// of a FEN string. The side to move is returned separately.
func FromFEN(fen string) (game.Board, game.Side, error) {
	if _, err := nchess.FEN(fen); err != nil {
		return game.Board{}, 0, fmt.Errorf("chess: parse fen: %w", err)
	}
	fields := strings.Fields(fen)
	b := game.NewBoard(Size, Size)
	rows := strings.Split(fields[0], "/")
	if len(rows) != Size {
		return game.Board{}, 0, fmt.Errorf("chess: fen has %d ranks", len(rows))
	}
	for row, rank := range rows {
		col := 0
		for _, ch := range rank {
			if ch >= '1' && ch <= '8' {
				col += int(ch - '0')
				continue
			}
			if col >= Size {
				return game.Board{}, 0, fmt.Errorf("chess: rank %d overflows", row)
			}
			b.Cells[b.Index(row, col)] = game.Cell(ch)
			col++
		}
	}
	toMove := game.Player
	if len(fields) > 1 && fields[1] == "b" {
		toMove = game.AI
	}
	if len(fields) > 2 {
		for _, ch := range fields[2] {
			switch ch {
			case 'K':
				b.Castling |= game.CastleWhiteKing
			case 'Q':
				b.Castling |= game.CastleWhiteQueen
			case 'k':
				b.Castling |= game.CastleBlackKing
			case 'q':
				b.Castling |= game.CastleBlackQueen
			}
		}
	}
	if len(fields) > 3 && fields[3] != "-" {
		idx, err := ParseSquare(fields[3])
		if err != nil {
			return game.Board{}, 0, fmt.Errorf("chess: en passant: %w", err)
		}
		b.EnPassant = idx
	}
	return b, toMove, nil
}
