package arcadepresenter

import (
	"github.com/park285/pixelcv-arcade/internal/arcade"
	"github.com/park285/pixelcv-arcade/internal/domain"
	"github.com/park285/pixelcv-arcade/internal/game"
	"github.com/park285/pixelcv-arcade/internal/search"
	"github.com/park285/pixelcv-arcade/pkg/arcadedto"
)

func (f *Formatter) ToDTOSession(v arcade.View, withAccepted bool) *arcadedto.SessionState {
	out := &arcadedto.SessionState{
		SessionID:  v.SessionID,
		UserID:     v.UserID,
		GameID:     v.GameID,
		Title:      f.Title(v.GameID),
		Difficulty: v.Difficulty,
		State:      v.State.String(),
		Outcome:    v.Status.Outcome.String(),
		StatusText: f.Status(v),
		ToMove:     v.ToMove.String(),
		Board:      toDTOBoard(v.Board),
		LegalMoves: make([]arcadedto.Move, 0, len(v.LegalMoves)),
		History:    make([]arcadedto.MoveRecord, 0, len(v.Moves)),
	}
	if withAccepted {
		accepted := v.Accepted
		out.Accepted = &accepted
	}
	variant, err := game.Lookup(v.GameID)
	for _, m := range v.LegalMoves {
		dm := arcadedto.Move{From: m.From, To: m.To, Captures: append([]int(nil), m.Captures...)}
		if m.Special != game.SpecialNone {
			dm.Special = m.Special.String()
		}
		if err == nil {
			dm.Notation = variant.Notation(v.Board, m)
		}
		out.LegalMoves = append(out.LegalMoves, dm)
	}
	for _, r := range v.Moves {
		out.History = append(out.History, arcadedto.MoveRecord{
			Ply:       r.Ply,
			Side:      r.Side,
			Notation:  r.Notation,
			Piece:     r.Piece,
			Random:    r.Random,
			Timestamp: r.Timestamp,
		})
	}
	if v.Result != nil {
		out.Outcome = v.Result.Outcome
		out.Result = &arcadedto.Result{
			Outcome:      v.Result.Outcome,
			Won:          v.Result.Won,
			Moves:        v.Result.Moves,
			TimeSeconds:  v.Result.TimeSeconds,
			PointsEarned: v.PointsEarned,
			Message:      v.Message,
			Summary:      f.Summary(v.Result),
			Achievements: append([]string(nil), v.Achievements...),
		}
	}
	return out
}

func toDTOBoard(b game.Board) arcadedto.Board {
	return arcadedto.Board{Width: b.Width, Height: b.Height, Cells: b.Strings()}
}

func ToDTOGame(g *domain.GameRecord) *arcadedto.GameRecord {
	if g == nil {
		return nil
	}
	return &arcadedto.GameRecord{
		ID:           g.ID,
		SessionID:    g.SessionID,
		GameID:       g.GameID,
		Difficulty:   g.Difficulty,
		Outcome:      g.Outcome,
		Won:          g.Won,
		Moves:        g.Moves,
		MovesLog:     append([]string{}, g.MovesLog...),
		FEN:          g.FEN,
		PointsEarned: g.PointsEarned,
		StartedAt:    g.StartedAt,
		EndedAt:      g.EndedAt,
		DurationMS:   g.Duration.Milliseconds(),
	}
}

func ToDTOGames(list []*domain.GameRecord) []*arcadedto.GameRecord {
	out := make([]*arcadedto.GameRecord, 0, len(list))
	for _, g := range list {
		if g != nil {
			out = append(out, ToDTOGame(g))
		}
	}
	return out
}

func ToDTOProfile(p *domain.PlayerProfile) *arcadedto.PlayerProfile {
	if p == nil {
		return nil
	}
	out := &arcadedto.PlayerProfile{
		UserID:         p.UserID,
		GamesPlayed:    p.GamesPlayed,
		Wins:           p.Wins,
		Losses:         p.Losses,
		Draws:          p.Draws,
		Streak:         p.Streak,
		StreakType:     p.StreakType,
		BestStreak:     p.BestStreak,
		Points:         p.Points,
		Level:          p.Level,
		Rank:           p.Rank,
		LastGame:       p.LastGame,
		LastDifficulty: p.LastDifficulty,
	}
	if !p.LastPlayedAt.IsZero() {
		t := p.LastPlayedAt
		out.LastPlayedAt = &t
	}
	return out
}

// GameInfos lists the registered variants with their difficulty ladder.
func (f *Formatter) GameInfos() []arcadedto.GameInfo {
	variants := game.Variants()
	out := make([]arcadedto.GameInfo, 0, len(variants))
	for _, v := range variants {
		b := v.NewBoard()
		levels := make([]string, 0, len(search.Difficulties))
		for _, p := range search.ListPresets(v.ID()) {
			levels = append(levels, p.Name)
		}
		out = append(out, arcadedto.GameInfo{
			ID:           v.ID(),
			Name:         v.Name(),
			Title:        f.Title(v.ID()),
			Width:        b.Width,
			Height:       b.Height,
			Difficulties: levels,
		})
	}
	return out
}
