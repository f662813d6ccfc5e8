package session

import (
	"github.com/park285/pixelcv-arcade/internal/game"
)

// Result is passed to OnGameEnd. Its JSON form is the body the scoring
// backend expects from a finished game.
type Result struct {
	SessionID   string      `json:"session_id"`
	GameID      string      `json:"game_id"`
	Score       int         `json:"score"`
	Won         bool        `json:"won"`
	Moves       int         `json:"moves"`
	TimeSeconds int         `json:"time_seconds"`
	Outcome     string      `json:"outcome"`
	Status      game.Status `json:"-"`
	GameData    GameData    `json:"game_data"`
}

type GameData struct {
	TrainingData *TrainingData `json:"training_data,omitempty"`
}

type TrainingData struct {
	GameID          string       `json:"game_id"`
	MovesSequence   []MoveRecord `json:"moves_sequence"`
	FinalBoardState FinalBoard   `json:"final_board_state"`
	PlayerWon       bool         `json:"player_won"`
}

type FinalBoard struct {
	Board game.Board `json:"board"`
	FEN   string     `json:"fen,omitempty"`
}

// Outcome names the result from the human's point of view.
func outcomeName(st game.Status) string {
	switch {
	case st.Outcome == game.Draw:
		return "draw"
	case st.Outcome == game.Win && st.Winner == game.Player:
		return "win"
	case st.Outcome == game.Win:
		return "loss"
	}
	return "in_progress"
}

func (s *Session) buildResultLocked() Result {
	won := s.status.Outcome == game.Win && s.status.Winner == game.Player
	r := Result{
		SessionID:   s.id,
		GameID:      s.cfg.Variant.ID(),
		Score:       0,
		Won:         won,
		Moves:       s.moves,
		TimeSeconds: int(s.endedAt.Sub(s.startedAt).Seconds()),
		Outcome:     outcomeName(s.status),
		Status:      s.status,
	}
	if r.TimeSeconds < 0 {
		r.TimeSeconds = 0
	}
	if !s.cfg.Variant.CollectsTraining() {
		return r
	}
	final := FinalBoard{Board: s.board.Clone()}
	if f, ok := s.cfg.Variant.(game.FENer); ok {
		fen, err := f.FEN(s.board, s.toMove)
		if err != nil {
			s.logger.Debug("final_fen_unavailable")
		} else {
			final.FEN = fen
		}
	}
	r.GameData.TrainingData = &TrainingData{
		GameID:          s.cfg.Variant.ID(),
		MovesSequence:   s.recorder.Records(),
		FinalBoardState: final,
		PlayerWon:       won,
	}
	return r
}
