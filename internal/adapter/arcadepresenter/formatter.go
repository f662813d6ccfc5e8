package arcadepresenter

import (
	"strconv"
	"strings"

	"github.com/park285/pixelcv-arcade/internal/arcade"
	"github.com/park285/pixelcv-arcade/internal/msgcat"
	"github.com/park285/pixelcv-arcade/internal/session"
)

// Formatter renders user-facing strings from the message catalog. A nil
// catalog falls back to the built-in English text.
type Formatter struct {
	cat *msgcat.Catalog
}

func NewFormatter(cat *msgcat.Catalog) *Formatter {
	return &Formatter{cat: cat}
}

func (f *Formatter) Title(gameID string) string {
	return f.catalog().Text("game.title."+gameID, nil, gameID)
}

func (f *Formatter) Caption(gameID, difficulty string) string {
	title := f.Title(gameID)
	return f.catalog().Text("game.caption", map[string]any{
		"Title":      title,
		"Difficulty": difficulty,
	}, title+" · "+difficulty)
}

// Status is the one-line state shown above the board.
func (f *Formatter) Status(v arcade.View) string {
	key, fallback := "status.idle", "Press start"
	switch v.State {
	case session.PlayerTurn:
		key, fallback = "status.player_turn", "Your move"
	case session.AITurn:
		key, fallback = "status.ai_turn", "Thinking..."
	case session.Terminal:
		outcome := "draw"
		if v.Result != nil {
			outcome = v.Result.Outcome
		}
		key, fallback = "status."+outcome, outcome
	}
	text := f.catalog().Text(key, nil, fallback)
	if v.State == session.Terminal && v.PointsEarned > 0 {
		text += "  " + f.Points(v.PointsEarned)
	}
	return text
}

func (f *Formatter) Points(n int) string {
	return f.catalog().Text("result.points", map[string]any{"Points": n}, "+"+strconv.Itoa(n)+" points")
}

func (f *Formatter) Summary(res *session.Result) string {
	if res == nil {
		return ""
	}
	outcome := f.catalog().Text("status."+res.Outcome, nil, res.Outcome)
	return strings.TrimSpace(f.catalog().Text("result.summary", map[string]any{
		"Outcome": outcome,
		"Moves":   res.Moves,
		"Seconds": res.TimeSeconds,
	}, outcome))
}

func (f *Formatter) catalog() *msgcat.Catalog {
	if f == nil {
		return nil
	}
	return f.cat
}
