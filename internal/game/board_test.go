package game

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBoardIndexRoundTrip(t *testing.T) {
	b := NewBoard(8, 8)
	for i := 0; i < b.Len(); i++ {
		r, c := b.RowCol(i)
		require.Equal(t, i, b.Index(r, c))
		require.True(t, b.InBounds(r, c))
	}
	require.False(t, b.InBounds(8, 0))
	require.False(t, b.InBounds(0, -1))
}

func TestBoardCloneIsIndependent(t *testing.T) {
	b := NewBoard(3, 3)
	b.Cells[4] = 'X'
	c := b.Clone()
	c.Cells[4] = 'O'
	require.Equal(t, Cell('X'), b.Cells[4])
	require.False(t, b.Equal(c))
}

func TestBoardJSONUsesNullForEmpty(t *testing.T) {
	b := NewBoard(3, 1)
	b.Cells[1] = 'X'
	raw, err := json.Marshal(b)
	require.NoError(t, err)
	require.JSONEq(t, `[null,"X",null]`, string(raw))
}

func TestBoardJSONArrayDecodes(t *testing.T) {
	var b Board
	require.NoError(t, json.Unmarshal([]byte(`["X",null,null,null,"O",null,null,null,null]`), &b))
	require.Equal(t, 3, b.Width)
	require.Equal(t, 3, b.Height)
	require.Equal(t, Cell('O'), b.Cells[4])
	require.Equal(t, -1, b.EnPassant)
	require.Error(t, json.Unmarshal([]byte(`["XX"]`), &b))
}

func TestBoardStateRoundTrip(t *testing.T) {
	b := NewBoard(8, 8)
	b.Cells[0] = 'r'
	b.Cells[63] = 'K'
	b.Castling = CastleWhiteKing | CastleBlackQueen
	b.EnPassant = 20
	raw, err := b.EncodeState()
	require.NoError(t, err)
	got, err := DecodeState(raw)
	require.NoError(t, err)
	require.True(t, b.Equal(got))

	_, err = DecodeState([]byte(`{"width":3,"height":3,"cells":[null]}`))
	require.Error(t, err)
}

func TestTerminalScore(t *testing.T) {
	st := WinFor(AI)
	require.Equal(t, WinScore+3, TerminalScore(st, AI, 3))
	require.Equal(t, -(WinScore + 3), TerminalScore(st, Player, 3))
	require.Greater(t, TerminalScore(st, AI, 4), TerminalScore(st, AI, 1))
	require.Zero(t, TerminalScore(DrawStatus(), Player, 5))
	require.True(t, Decisive(TerminalScore(st, Player, 0)))
}

func TestFindMoveMatchesByEndpoints(t *testing.T) {
	moves := []Move{{From: 1, To: 2}, {From: 3, To: 5, Captures: []int{4}}}
	got, ok := FindMove(moves, Move{From: 3, To: 5})
	require.True(t, ok)
	require.Equal(t, []int{4}, got.Captures)
	_, ok = FindMove(moves, Move{From: 2, To: 1})
	require.False(t, ok)
	require.True(t, NoMove.IsNone())
}
