package arcadepresenter

import (
	"context"

	"github.com/park285/pixelcv-arcade/internal/arcade"
	"github.com/park285/pixelcv-arcade/internal/game"
	"github.com/park285/pixelcv-arcade/internal/render"
)

// Presenter turns session views into board images.
type Presenter struct {
	renderer  render.BoardRenderer
	formatter *Formatter
}

func NewPresenter(renderer render.BoardRenderer, formatter *Formatter) *Presenter {
	if renderer == nil {
		renderer = render.NewBoardRenderer()
	}
	return &Presenter{renderer: renderer, formatter: formatter}
}

func (p *Presenter) Formatter() *Formatter { return p.formatter }

// BoardPNG draws the current position with the caption, status line and
// the last move highlighted.
func (p *Presenter) BoardPNG(ctx context.Context, v arcade.View, squareSize int) ([]byte, error) {
	opts := render.Options{
		Title:      p.formatter.Caption(v.GameID, v.Difficulty),
		Status:     p.formatter.Status(v),
		SquareSize: squareSize,
	}
	if n := len(v.Moves); n > 0 {
		last := v.Moves[n-1]
		opts.LastMove = &game.Move{From: last.From, To: last.To}
	}
	return p.renderer.RenderPNG(ctx, v.GameID, v.Board, opts)
}
