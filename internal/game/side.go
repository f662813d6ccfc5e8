package game

// Side is one of the two players. Player is the human and moves first.
type Side int8

const (
	Player Side = 1
	AI     Side = -1
)

func (s Side) Opponent() Side { return -s }

// Sign is +1 for Player and -1 for AI.
func (s Side) Sign() int { return int(s) }

func (s Side) Valid() bool { return s == Player || s == AI }

func (s Side) String() string {
	switch s {
	case Player:
		return "player"
	case AI:
		return "ai"
	default:
		return "none"
	}
}

type Outcome uint8

const (
	InProgress Outcome = iota
	Win
	Draw
)

func (o Outcome) String() string {
	switch o {
	case Win:
		return "win"
	case Draw:
		return "draw"
	default:
		return "in_progress"
	}
}

// Status is the game result. Winner is only meaningful when Outcome is Win.
type Status struct {
	Outcome Outcome
	Winner  Side
}

var Ongoing = Status{Outcome: InProgress}

func WinFor(s Side) Status { return Status{Outcome: Win, Winner: s} }

func DrawStatus() Status { return Status{Outcome: Draw} }

func (s Status) Terminal() bool { return s.Outcome != InProgress }

func (s Status) String() string {
	if s.Outcome == Win {
		return "win:" + s.Winner.String()
	}
	return s.Outcome.String()
}
