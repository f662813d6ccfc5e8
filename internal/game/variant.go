package game

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// WinScore is the decisive threshold. Any score whose magnitude reaches it
// comes from a finished game.
const WinScore = 1000

// Variant describes the rules of one board game. Implementations are pure:
// no method mutates its Board argument.
type Variant interface {
	ID() string
	Name() string
	NewBoard() Board
	GenerateMoves(b Board, side Side) []Move
	ApplyMove(b Board, side Side, m Move) Board
	// Status reports the result with toMove about to play.
	Status(b Board, toMove Side) Status
	// Evaluate scores b from side's point of view. It is zero-sum:
	// Evaluate(b, s, d) == -Evaluate(b, s.Opponent(), d).
	Evaluate(b Board, side Side, depthRemaining int) int
	// Owner reports which side a cell belongs to, or false for empty cells.
	Owner(c Cell) (Side, bool)
	// CollectsTraining reports whether finished games carry a move log for
	// the scoring backend.
	CollectsTraining() bool
	Notation(b Board, m Move) string
}

// FENer is implemented by variants with a standard position notation.
type FENer interface {
	FEN(b Board, toMove Side) (string, error)
}

// TerminalScore scores a finished position for side. Wins found with more
// depth remaining, i.e. sooner, score higher.
func TerminalScore(st Status, side Side, depthRemaining int) int {
	if st.Outcome != Win {
		return 0
	}
	if depthRemaining < 0 {
		depthRemaining = 0
	}
	score := WinScore + depthRemaining
	if st.Winner != side {
		return -score
	}
	return score
}

// Score evaluates b with toMove on turn, from side's point of view. Unlike
// Evaluate it knows who moves, so a side left without legal moves gets the
// decisive score its variant's Status assigns.
func Score(v Variant, b Board, toMove, side Side, depthRemaining int) int {
	if st := v.Status(b, toMove); st.Terminal() {
		return TerminalScore(st, side, depthRemaining)
	}
	return v.Evaluate(b, side, depthRemaining)
}

// Decisive reports whether score came from a finished game.
func Decisive(score int) bool {
	return score >= WinScore || score <= -WinScore
}

var ErrUnknownVariant = errors.New("unknown game variant")

var (
	registryMu sync.RWMutex
	registry   = map[string]Variant{}
	aliases    = map[string]string{}
)

// Register adds v under its ID and the given aliases. It panics on
// duplicates since registration happens from init.
func Register(v Variant, alias ...string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	id := strings.ToLower(v.ID())
	if _, dup := registry[id]; dup {
		panic(fmt.Sprintf("game: variant %q registered twice", id))
	}
	registry[id] = v
	for _, a := range alias {
		aliases[strings.ToLower(a)] = id
	}
}

func Lookup(id string) (Variant, error) {
	key := strings.ToLower(strings.TrimSpace(id))
	registryMu.RLock()
	defer registryMu.RUnlock()
	if target, ok := aliases[key]; ok {
		key = target
	}
	v, ok := registry[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVariant, id)
	}
	return v, nil
}

// Variants returns every registered variant ordered by ID.
func Variants() []Variant {
	registryMu.RLock()
	out := make([]Variant, 0, len(registry))
	for _, v := range registry {
		out = append(out, v)
	}
	registryMu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}
