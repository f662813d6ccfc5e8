package render

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/park285/pixelcv-arcade/internal/game"
	_ "github.com/park285/pixelcv-arcade/internal/game/checkers"
	_ "github.com/park285/pixelcv-arcade/internal/game/chess"
	_ "github.com/park285/pixelcv-arcade/internal/game/tictactoe"
)

func decode(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

func rgba(c color.Color) color.RGBA {
	r, g, b, a := c.RGBA()
	return color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), uint8(a >> 8)}
}

func TestRenderEveryVariant(t *testing.T) {
	r := NewBoardRenderer()
	for _, v := range game.Variants() {
		t.Run(v.ID(), func(t *testing.T) {
			b := v.NewBoard()
			data, err := r.RenderPNG(context.Background(), v.ID(), b, Options{Title: v.Name(), Status: "Your move", SquareSize: 40})
			require.NoError(t, err)
			img := decode(t, data)
			require.Equal(t, 40*b.Width+56, img.Bounds().Dx())
			require.Equal(t, 40*b.Height+92, img.Bounds().Dy())
		})
	}
}

func TestRenderSquaresAndHighlight(t *testing.T) {
	r := NewBoardRenderer()
	v, err := game.Lookup("chess")
	require.NoError(t, err)
	b := v.NewBoard()

	img := decode(t, mustRender(t, r, "chess", b, Options{SquareSize: 32}))
	// Corners of a8 and b8 sit outside the glyph inset.
	require.Equal(t, lightSquare, rgba(img.At(28+1, 64+1)))
	require.Equal(t, darkSquare, rgba(img.At(28+32+1, 64+1)))

	ttt, err := game.Lookup("tictactoe")
	require.NoError(t, err)
	tb := ttt.NewBoard()
	move := game.Move{From: game.Placement, To: 4}
	plain := decode(t, mustRender(t, r, "tictactoe", tb, Options{SquareSize: 32}))
	lit := decode(t, mustRender(t, r, "tictactoe", tb, Options{SquareSize: 32, LastMove: &move}))
	center := image.Pt(28+32+4, 64+32+4)
	require.Equal(t, gridBackground, rgba(plain.At(center.X, center.Y)))
	require.NotEqual(t, rgba(plain.At(center.X, center.Y)), rgba(lit.At(center.X, center.Y)))
}

func TestGlyphsParseForEveryPiece(t *testing.T) {
	cases := map[string]string{
		"chess":            "PNBRQKpnbrqk",
		"tictactoe":        "XO",
		"chinese_checkers": "RB",
	}
	for gameID, cells := range cases {
		for _, c := range []byte(cells) {
			doc, ok := glyphSVG(gameID, game.Cell(c))
			require.True(t, ok, "%s %c", gameID, c)
			require.True(t, strings.HasPrefix(doc, "<svg"))
			img, err := renderGlyph(gameID, game.Cell(c), 24)
			require.NoError(t, err)
			require.Equal(t, 24, img.Bounds().Dx())
		}
	}
	_, ok := glyphSVG("tictactoe", 'R')
	require.False(t, ok)

	// The same letter reads differently per game.
	rook, _ := glyphSVG("chess", 'R')
	disc, _ := glyphSVG("chinese_checkers", 'R')
	require.NotEqual(t, rook, disc)
}

func TestRenderErrors(t *testing.T) {
	r := NewBoardRenderer()
	_, err := r.RenderPNG(context.Background(), "chess", game.Board{Width: 8, Height: 8}, Options{})
	require.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	v, _ := game.Lookup("tictactoe")
	_, err = r.RenderPNG(ctx, "tictactoe", v.NewBoard(), Options{})
	require.ErrorIs(t, err, context.Canceled)
}

func mustRender(t *testing.T, r BoardRenderer, gameID string, b game.Board, opts Options) []byte {
	t.Helper()
	data, err := r.RenderPNG(context.Background(), gameID, b, opts)
	require.NoError(t, err)
	return data
}
