package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"
	"strconv"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"github.com/park285/pixelcv-arcade/internal/game"
)

const DefaultSquareSize = 64

// Options decorate a rendered board.
type Options struct {
	Title      string
	Status     string
	LastMove   *game.Move
	SquareSize int
}

// BoardRenderer draws a board as PNG.
type BoardRenderer interface {
	RenderPNG(ctx context.Context, gameID string, b game.Board, opts Options) ([]byte, error)
}

type pngRenderer struct {
	face font.Face
}

func NewBoardRenderer() BoardRenderer {
	return &pngRenderer{face: basicfont.Face7x13}
}

var (
	lightSquare         = color.RGBA{233, 207, 163, 255}
	darkSquare          = color.RGBA{187, 136, 96, 255}
	gridBackground      = color.RGBA{244, 241, 232, 255}
	gridLineColor       = color.RGBA{60, 62, 74, 255}
	backgroundColor     = color.RGBA{18, 20, 30, 255}
	lastMoveFill        = color.NRGBA{R: 255, G: 228, B: 120, A: 130}
	hudPanelColor       = color.NRGBA{R: 28, G: 31, B: 46, A: 250}
	hudStatusPanelColor = color.NRGBA{R: 32, G: 35, B: 52, A: 245}
	hudShadowColor      = color.NRGBA{0, 0, 0, 50}
	hudTextPrimary      = color.NRGBA{R: 236, G: 239, B: 255, A: 255}
	hudStatusTextColor  = color.NRGBA{R: 204, G: 210, B: 236, A: 255}
	coordinateTextColor = color.NRGBA{R: 8, G: 214, B: 120, A: 255}
)

// descendingRanks lists games whose first row is the highest rank.
var descendingRanks = map[string]bool{"chess": true}

func (r *pngRenderer) RenderPNG(ctx context.Context, gameID string, b game.Board, opts Options) ([]byte, error) {
	if b.Width <= 0 || b.Height <= 0 || len(b.Cells) != b.Width*b.Height {
		return nil, fmt.Errorf("invalid board %dx%d", b.Width, b.Height)
	}
	squareSize := opts.SquareSize
	if squareSize <= 0 {
		squareSize = DefaultSquareSize
	}

	const (
		sideMargin    = 28
		topMargin     = 64
		bottomMargin  = 28
		panelHeight   = 28
		panelRadius   = 10
		panelPadding  = 16
		gapToBoard    = 14
		shadowOffsetY = 4
	)

	boardW := squareSize * b.Width
	boardH := squareSize * b.Height
	origin := image.Pt(sideMargin, topMargin)
	boardRect := image.Rect(origin.X, origin.Y, origin.X+boardW, origin.Y+boardH)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	img := image.NewRGBA(image.Rect(0, 0, boardW+sideMargin*2, boardH+topMargin+bottomMargin))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(backgroundColor), image.Point{}, imagedraw.Src)

	r.drawHUD(img, opts, boardRect, panelHeight, panelRadius, panelPadding, gapToBoard, shadowOffsetY)
	drawSquares(img, gameID, b, squareSize, origin)
	drawLastMove(img, b, opts.LastMove, squareSize, origin)
	if err := drawPieces(img, gameID, b, squareSize, origin); err != nil {
		return nil, err
	}
	r.drawCoordinates(img, gameID, b, squareSize, origin, sideMargin)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func cellRect(b game.Board, idx, squareSize int, origin image.Point) image.Rectangle {
	row, col := b.RowCol(idx)
	x := origin.X + col*squareSize
	y := origin.Y + row*squareSize
	return image.Rect(x, y, x+squareSize, y+squareSize)
}

// drawSquares paints a checkered board, or a lined grid for tictactoe.
func drawSquares(dst *image.RGBA, gameID string, b game.Board, squareSize int, origin image.Point) {
	if gameID == "tictactoe" {
		rect := image.Rect(origin.X, origin.Y, origin.X+b.Width*squareSize, origin.Y+b.Height*squareSize)
		imagedraw.Draw(dst, rect, image.NewUniform(gridBackground), image.Point{}, imagedraw.Src)
		line := max(squareSize/20, 2)
		for i := 1; i < b.Width; i++ {
			x := origin.X + i*squareSize - line/2
			imagedraw.Draw(dst, image.Rect(x, rect.Min.Y, x+line, rect.Max.Y), image.NewUniform(gridLineColor), image.Point{}, imagedraw.Src)
		}
		for i := 1; i < b.Height; i++ {
			y := origin.Y + i*squareSize - line/2
			imagedraw.Draw(dst, image.Rect(rect.Min.X, y, rect.Max.X, y+line), image.NewUniform(gridLineColor), image.Point{}, imagedraw.Src)
		}
		return
	}
	for i := range b.Cells {
		row, col := b.RowCol(i)
		clr := lightSquare
		if (row+col)%2 == 1 {
			clr = darkSquare
		}
		imagedraw.Draw(dst, cellRect(b, i, squareSize, origin), image.NewUniform(clr), image.Point{}, imagedraw.Src)
	}
}

func drawLastMove(dst *image.RGBA, b game.Board, m *game.Move, squareSize int, origin image.Point) {
	if m == nil || m.IsNone() {
		return
	}
	for _, idx := range []int{m.From, m.To} {
		if !b.Valid(idx) {
			continue
		}
		imagedraw.Draw(dst, cellRect(b, idx, squareSize, origin), image.NewUniform(lastMoveFill), image.Point{}, imagedraw.Over)
	}
}

func drawPieces(dst *image.RGBA, gameID string, b game.Board, squareSize int, origin image.Point) error {
	inset := squareSize / 16
	size := squareSize - inset*2
	for i, c := range b.Cells {
		if c == game.Empty {
			continue
		}
		glyph, err := renderGlyph(gameID, c, size)
		if err != nil {
			return err
		}
		rect := cellRect(b, i, squareSize, origin).Inset(inset)
		imagedraw.Draw(dst, rect, glyph, image.Point{}, imagedraw.Over)
	}
	return nil
}

func (r *pngRenderer) drawHUD(img *image.RGBA, opts Options, boardRect image.Rectangle, height, radius, padding, gap, shadow int) {
	drawer := &font.Drawer{Dst: img, Face: r.face}

	title := strings.TrimSpace(opts.Title)
	status := strings.TrimSpace(opts.Status)
	bottom := boardRect.Min.Y - gap
	top := bottom - height

	statusWidth := 0
	if status != "" {
		statusWidth = min(drawer.MeasureString(status).Round()+padding*2, boardRect.Dx()/2)
	}
	titleWidth := boardRect.Dx() - statusWidth
	if statusWidth > 0 {
		titleWidth -= gap
	}

	if title != "" {
		rect := image.Rect(boardRect.Min.X, top, boardRect.Min.X+titleWidth, bottom)
		drawRoundedPanel(img, rect.Add(image.Pt(0, shadow)), radius, hudShadowColor)
		drawRoundedPanel(img, rect, radius, hudPanelColor)
		drawCenteredString(drawer, rect, truncateWithEllipsis(r.face, title, rect.Dx()-padding*2), hudTextPrimary)
	}
	if status != "" {
		rect := image.Rect(boardRect.Max.X-statusWidth, top, boardRect.Max.X, bottom)
		drawRoundedPanel(img, rect.Add(image.Pt(0, shadow)), radius, hudShadowColor)
		drawRoundedPanel(img, rect, radius, hudStatusPanelColor)
		drawCenteredString(drawer, rect, truncateWithEllipsis(r.face, status, rect.Dx()-padding*2), hudStatusTextColor)
	}
}

func (r *pngRenderer) drawCoordinates(img *image.RGBA, gameID string, b game.Board, squareSize int, origin image.Point, margin int) {
	drawer := &font.Drawer{Dst: img, Face: r.face, Src: image.NewUniform(coordinateTextColor)}
	ascent := r.face.Metrics().Ascent.Ceil()
	boardBottom := origin.Y + b.Height*squareSize

	for row := 0; row < b.Height; row++ {
		rank := row + 1
		if descendingRanks[gameID] {
			rank = b.Height - row
		}
		centerY := origin.Y + row*squareSize + squareSize/2
		drawCenteredText(drawer, strconv.Itoa(rank), origin.X-margin/2, centerY+ascent/2)
	}
	for col := 0; col < b.Width; col++ {
		centerX := origin.X + col*squareSize + squareSize/2
		drawCenteredText(drawer, string(rune('a'+col)), centerX, boardBottom+ascent+2)
	}
}
