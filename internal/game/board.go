package game

import (
	"encoding/json"
	"fmt"
	"math"
)

// Cell holds one square of a board. Empty is the zero value.
type Cell byte

const Empty Cell = 0

func (c Cell) String() string {
	if c == Empty {
		return "."
	}
	return string(rune(c))
}

// Castling availability flags. Only the chess variant sets them.
type Castling uint8

const (
	CastleWhiteKing Castling = 1 << iota
	CastleWhiteQueen
	CastleBlackKing
	CastleBlackQueen

	CastleAll = CastleWhiteKing | CastleWhiteQueen | CastleBlackKing | CastleBlackQueen
)

// Board is a fixed-size grid stored row-major. Variants treat it as a value:
// ApplyMove always works on a Clone.
type Board struct {
	Width     int
	Height    int
	Cells     []Cell
	Castling  Castling
	EnPassant int
}

func NewBoard(width, height int) Board {
	return Board{
		Width:     width,
		Height:    height,
		Cells:     make([]Cell, width*height),
		EnPassant: -1,
	}
}

func (b Board) Len() int { return len(b.Cells) }

func (b Board) Index(row, col int) int { return row*b.Width + col }

func (b Board) RowCol(i int) (int, int) { return i / b.Width, i % b.Width }

func (b Board) InBounds(row, col int) bool {
	return row >= 0 && row < b.Height && col >= 0 && col < b.Width
}

func (b Board) Valid(i int) bool { return i >= 0 && i < len(b.Cells) }

func (b Board) At(i int) Cell {
	if !b.Valid(i) {
		return Empty
	}
	return b.Cells[i]
}

func (b Board) Clone() Board {
	out := b
	out.Cells = make([]Cell, len(b.Cells))
	copy(out.Cells, b.Cells)
	return out
}

func (b Board) Equal(o Board) bool {
	if b.Width != o.Width || b.Height != o.Height || b.Castling != o.Castling || b.EnPassant != o.EnPassant {
		return false
	}
	if len(b.Cells) != len(o.Cells) {
		return false
	}
	for i := range b.Cells {
		if b.Cells[i] != o.Cells[i] {
			return false
		}
	}
	return true
}

// Count returns how many cells hold c.
func (b Board) Count(c Cell) int {
	n := 0
	for _, v := range b.Cells {
		if v == c {
			n++
		}
	}
	return n
}

func (b Board) Full() bool {
	for _, v := range b.Cells {
		if v == Empty {
			return false
		}
	}
	return true
}

func (b Board) String() string {
	buf := make([]byte, 0, len(b.Cells)+b.Height)
	for i, c := range b.Cells {
		if i > 0 && i%b.Width == 0 {
			buf = append(buf, '\n')
		}
		if c == Empty {
			buf = append(buf, '.')
		} else {
			buf = append(buf, byte(c))
		}
	}
	return string(buf)
}

// Strings returns the board as a flat slice where empty cells are nil,
// the same shape the scoring backend stores in board_state.
func (b Board) Strings() []*string {
	out := make([]*string, len(b.Cells))
	for i, c := range b.Cells {
		if c == Empty {
			continue
		}
		s := string(rune(c))
		out[i] = &s
	}
	return out
}

func (b Board) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.Strings())
}

// UnmarshalJSON accepts the flat array form. Square boards get their width
// back; anything else decodes as a single row.
func (b *Board) UnmarshalJSON(data []byte) error {
	var values []*string
	if err := json.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("decode board: %w", err)
	}
	cells, err := ParseCells(values)
	if err != nil {
		return fmt.Errorf("decode board: %w", err)
	}
	n := len(cells)
	width := int(math.Sqrt(float64(n)))
	if width*width != n {
		width = n
	}
	height := 0
	if width > 0 {
		height = n / width
	}
	*b = Board{Width: width, Height: height, Cells: cells, EnPassant: -1}
	return nil
}

// ParseCells builds cells from a flat string slice; "" or nil entries are empty.
func ParseCells(values []*string) ([]Cell, error) {
	cells := make([]Cell, len(values))
	for i, v := range values {
		if v == nil || *v == "" {
			continue
		}
		if len(*v) != 1 {
			return nil, fmt.Errorf("cell %d: invalid value %q", i, *v)
		}
		cells[i] = Cell((*v)[0])
	}
	return cells, nil
}

// boardState is the full persisted form, used by session snapshots.
type boardState struct {
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Cells     []*string `json:"cells"`
	Castling  uint8     `json:"castling,omitempty"`
	EnPassant int       `json:"en_passant"`
}

// EncodeState serialises every field of the board, not only the cells.
func (b Board) EncodeState() ([]byte, error) {
	return json.Marshal(boardState{
		Width:     b.Width,
		Height:    b.Height,
		Cells:     b.Strings(),
		Castling:  uint8(b.Castling),
		EnPassant: b.EnPassant,
	})
}

func DecodeState(data []byte) (Board, error) {
	var st boardState
	if err := json.Unmarshal(data, &st); err != nil {
		return Board{}, fmt.Errorf("decode board: %w", err)
	}
	if st.Width <= 0 || st.Height <= 0 || len(st.Cells) != st.Width*st.Height {
		return Board{}, fmt.Errorf("decode board: bad dimensions %dx%d with %d cells", st.Width, st.Height, len(st.Cells))
	}
	cells, err := ParseCells(st.Cells)
	if err != nil {
		return Board{}, fmt.Errorf("decode board: %w", err)
	}
	return Board{
		Width:     st.Width,
		Height:    st.Height,
		Cells:     cells,
		Castling:  Castling(st.Castling),
		EnPassant: st.EnPassant,
	}, nil
}
