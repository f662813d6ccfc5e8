// Package tui plays one local game against the engine in the terminal.
package tui

import (
	"fmt"
	"strconv"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	"github.com/park285/pixelcv-arcade/internal/game"
	"github.com/park285/pixelcv-arcade/internal/msgcat"
	"github.com/park285/pixelcv-arcade/internal/search"
	"github.com/park285/pixelcv-arcade/internal/session"
)

const cellWidth = 3

var chessRunes = map[game.Cell]rune{
	'K': '♚', 'Q': '♛', 'R': '♜', 'B': '♝', 'N': '♞', 'P': '♟',
	'k': '♚', 'q': '♛', 'r': '♜', 'b': '♝', 'n': '♞', 'p': '♟',
}

// BoardUI draws the session's board in a tview Box and turns key presses
// into moves.
type BoardUI struct {
	Box     *tview.Box
	app     *tview.Application
	hint    *tview.TextView
	cfg     *Config
	cat     *msgcat.Catalog
	sess    *session.Session
	variant game.Variant
	pick    *picker
	cursor  int
	flash   string
	styles  []tcell.Color
}

// NewGame builds the board widget and its engine-backed session.
func NewGame(app *tview.Application, cfg *Config, cat *msgcat.Catalog, hint *tview.TextView, logger *zap.Logger) (*BoardUI, error) {
	v, err := game.Lookup(cfg.Game)
	if err != nil {
		return nil, err
	}
	preset, err := search.GetPreset(v.ID(), cfg.Difficulty)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ui := &BoardUI{
		Box:     tview.NewBox(),
		app:     app,
		hint:    hint,
		cfg:     cfg,
		cat:     cat,
		variant: v,
		pick:    newPicker(),
	}
	ui.setStyles(cfg.Colors)
	delay := preset.AIDelay
	if delay == 0 {
		delay = -1
	}
	sess, err := session.New(session.Config{
		Variant: v,
		Chooser: search.New(search.WithPreset(preset), search.WithLogger(logger)),
		AIDelay: delay,
		OnChange: func(session.Event) {
			if ui.app != nil {
				go ui.app.QueueUpdateDraw(ui.refreshHint)
			}
		},
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}
	ui.sess = sess
	b := sess.Board()
	ui.cursor = b.Index(b.Height/2, b.Width/2)
	ui.Box.SetDrawFunc(ui.draw)
	return ui, nil
}

func (g *BoardUI) Start() {
	g.sess.Start()
	g.refreshHint()
}

func (g *BoardUI) Close() { g.sess.Close() }

func (g *BoardUI) Session() *session.Session { return g.sess }

func (g *BoardUI) setStyles(c Colors) {
	g.styles = []tcell.Color{
		tcell.PaletteColor(c.Light),    // 0
		tcell.PaletteColor(c.Dark),     // 1
		tcell.PaletteColor(c.Player),   // 2
		tcell.PaletteColor(c.AI),       // 3
		tcell.PaletteColor(c.Cursor),   // 4
		tcell.PaletteColor(c.Selected), // 5
		tcell.PaletteColor(c.LastMove), // 6
	}
}

// MoveCursor shifts the cursor, clamped to the board.
func (g *BoardUI) MoveCursor(dRow, dCol int) {
	b := g.sess.Board()
	row, col := b.RowCol(g.cursor)
	if b.InBounds(row+dRow, col+dCol) {
		g.cursor = b.Index(row+dRow, col+dCol)
	}
}

// Press selects the cursor square or completes a move there.
func (g *BoardUI) Press() {
	g.flash = ""
	if g.sess.State() != session.PlayerTurn {
		return
	}
	m, ready, ok := g.pick.Press(g.cursor, g.sess.LegalMoves())
	switch {
	case !ok:
		g.flash = g.text("tui.rejected", nil, "That move is not legal")
	case ready:
		if !g.sess.SubmitMove(m) {
			g.flash = g.text("tui.rejected", nil, "That move is not legal")
		}
	}
	g.refreshHint()
}

func (g *BoardUI) Reset() {
	g.pick.Clear()
	g.flash = ""
	g.sess.Reset()
	g.refreshHint()
}

// HandleKey implements the board key map. q is left to the caller.
func (g *BoardUI) HandleKey(ev *tcell.EventKey) *tcell.EventKey {
	switch ev.Key() {
	case tcell.KeyUp:
		g.MoveCursor(-1, 0)
	case tcell.KeyDown:
		g.MoveCursor(1, 0)
	case tcell.KeyLeft:
		g.MoveCursor(0, -1)
	case tcell.KeyRight:
		g.MoveCursor(0, 1)
	case tcell.KeyEnter:
		g.Press()
	case tcell.KeyEscape:
		g.pick.Clear()
		g.refreshHint()
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'k':
			g.MoveCursor(-1, 0)
		case 'j':
			g.MoveCursor(1, 0)
		case 'h':
			g.MoveCursor(0, -1)
		case 'l':
			g.MoveCursor(0, 1)
		case ' ':
			g.Press()
		case 'r':
			g.Reset()
		default:
			return ev
		}
	default:
		return ev
	}
	return nil
}

func (g *BoardUI) draw(screen tcell.Screen, x, y, width, height int) (int, int, int, int) {
	b := g.sess.Board()
	moves := g.sess.Moves()
	last := -1
	if n := len(moves); n > 0 {
		last = moves[n-1].To
	}
	targets := g.pick.Targets(g.sess.LegalMoves())
	selected, _ := g.pick.Selected()
	left := x + 3

	for row := 0; row < b.Height; row++ {
		label := g.rankLabel(b, row)
		tview.Print(screen, label, x, y+row, 2, tview.AlignRight, tcell.ColorGray)
		for col := 0; col < b.Width; col++ {
			idx := b.Index(row, col)
			bg := g.styles[(row+col)%2]
			switch {
			case idx == g.cursor:
				bg = g.styles[4]
			case idx == selected || targets[idx]:
				bg = g.styles[5]
			case idx == last:
				bg = g.styles[6]
			}
			r, fg := g.glyph(b.At(idx))
			style := tcell.StyleDefault.Background(bg).Foreground(fg)
			cx := left + col*cellWidth
			screen.SetContent(cx, y+row, ' ', nil, style)
			screen.SetContent(cx+1, y+row, r, nil, style)
			screen.SetContent(cx+2, y+row, ' ', nil, style)
		}
	}
	for col := 0; col < b.Width; col++ {
		screen.SetContent(left+col*cellWidth+1, y+b.Height, rune('a'+col), nil, tcell.StyleDefault.Foreground(tcell.ColorGray))
	}
	return x, y, b.Width*cellWidth + 3, b.Height + 1
}

func (g *BoardUI) glyph(c game.Cell) (rune, tcell.Color) {
	if c == game.Empty {
		return ' ', g.styles[2]
	}
	fg := g.styles[3]
	if side, ok := g.variant.Owner(c); ok && side == game.Player {
		fg = g.styles[2]
	}
	switch g.variant.ID() {
	case "chess":
		if r, ok := chessRunes[c]; ok {
			return r, fg
		}
	case "chinese_checkers":
		return '●', fg
	}
	return rune(c), fg
}

func (g *BoardUI) rankLabel(b game.Board, row int) string {
	if g.variant.ID() == "chess" {
		return strconv.Itoa(b.Height - row)
	}
	return strconv.Itoa(row + 1)
}

func (g *BoardUI) squareName(idx int) string {
	b := g.sess.Board()
	row, col := b.RowCol(idx)
	return string(rune('a'+col)) + g.rankLabel(b, row)
}

func (g *BoardUI) text(key string, data any, fallback string) string {
	return g.cat.Text(key, data, fallback)
}

// StatusLine is the hint's first line for the current state.
func (g *BoardUI) StatusLine() string {
	switch g.sess.State() {
	case session.PlayerTurn:
		if from, ok := g.pick.Selected(); ok {
			return g.text("tui.selected", map[string]any{"Square": g.squareName(from)}, "From "+g.squareName(from))
		}
		return g.text("status.player_turn", nil, "Your move")
	case session.AITurn:
		return g.text("status.ai_turn", nil, "Thinking...")
	case session.Terminal:
		res, _ := g.sess.Result()
		outcome := g.text("status."+res.Outcome, nil, res.Outcome)
		return g.text("result.summary", map[string]any{
			"Outcome": outcome, "Moves": res.Moves, "Seconds": res.TimeSeconds,
		}, outcome)
	}
	return g.text("status.idle", nil, "Press start")
}

func (g *BoardUI) refreshHint() {
	if g.hint == nil {
		return
	}
	title := g.text("game.title."+g.variant.ID(), nil, g.variant.ID())
	caption := g.text("game.caption", map[string]any{"Title": title, "Difficulty": g.cfg.Difficulty}, title)
	text := fmt.Sprintf("%s\n\n%s\n", caption, g.StatusLine())
	if g.flash != "" {
		text += g.flash + "\n"
	}
	text += "\n" + g.text("tui.help", nil, "arrows move · enter select · r reset · q quit")
	g.hint.SetText(text)
}
