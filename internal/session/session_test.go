package session

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/park285/pixelcv-arcade/internal/game"
	"github.com/park285/pixelcv-arcade/internal/game/checkers"
	"github.com/park285/pixelcv-arcade/internal/game/tictactoe"
	"github.com/park285/pixelcv-arcade/internal/search"
)

// firstMove always plays the first legal move.
type firstMove struct{}

func (firstMove) Search(_ context.Context, v game.Variant, b game.Board, side game.Side) (search.Result, error) {
	moves := v.GenerateMoves(b, side)
	if len(moves) == 0 {
		return search.Result{Move: game.NoMove}, nil
	}
	return search.Result{Move: moves[0]}, nil
}

type noMove struct{}

func (noMove) Search(context.Context, game.Variant, game.Board, game.Side) (search.Result, error) {
	return search.Result{Move: game.NoMove}, nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Add(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type harness struct {
	s      *Session
	sched  *ManualScheduler
	clock  *fakeClock
	events []Event
	ended  []Result
}

func newHarness(t *testing.T, v game.Variant, chooser Chooser) *harness {
	t.Helper()
	h := &harness{sched: NewManualScheduler(), clock: newFakeClock()}
	s, err := New(Config{
		Variant:   v,
		Chooser:   chooser,
		Scheduler: h.sched,
		Now:       h.clock.Now,
		OnChange:  func(ev Event) { h.events = append(h.events, ev) },
		OnGameEnd: func(r Result) { h.ended = append(h.ended, r) },
	})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	h.s = s
	return h
}

func place(i int) game.Move { return game.Move{From: game.Placement, To: i} }

func TestNewValidates(t *testing.T) {
	_, err := New(Config{Chooser: firstMove{}})
	require.ErrorIs(t, err, ErrNilVariant)
	_, err = New(Config{Variant: tictactoe.Variant{}})
	require.ErrorIs(t, err, ErrNilChooser)
}

func TestIdleUntilStarted(t *testing.T) {
	h := newHarness(t, tictactoe.Variant{}, firstMove{})
	require.Equal(t, Idle, h.s.State())
	require.False(t, h.s.SubmitMove(place(4)))
	h.s.Start()
	require.Equal(t, PlayerTurn, h.s.State())
	require.Len(t, h.s.LegalMoves(), 9)
}

func TestIllegalMoveIsIgnored(t *testing.T) {
	h := newHarness(t, tictactoe.Variant{}, firstMove{})
	h.s.Start()
	require.True(t, h.s.SubmitMove(place(4)))
	h.sched.RunAll()
	before := h.s.Board()

	require.False(t, h.s.SubmitMove(place(4)), "occupied cell")
	require.False(t, h.s.SubmitMove(place(42)), "off the board")
	require.False(t, h.s.SubmitMove(game.Move{From: 0, To: 1}), "not a placement")
	require.Equal(t, PlayerTurn, h.s.State())
	require.True(t, before.Equal(h.s.Board()))
	require.Zero(t, h.sched.Pending())
}

func TestEngineRepliesAfterDelay(t *testing.T) {
	h := newHarness(t, tictactoe.Variant{}, firstMove{})
	h.s.Start()
	require.True(t, h.s.SubmitMove(place(4)))
	require.Equal(t, AITurn, h.s.State())
	require.Nil(t, h.s.LegalMoves())
	require.False(t, h.s.SubmitMove(place(0)), "not the human's turn")

	require.Zero(t, h.sched.Advance(DefaultAIDelay-time.Millisecond))
	require.Equal(t, AITurn, h.s.State())
	require.Equal(t, 1, h.sched.Advance(time.Millisecond))

	require.Equal(t, PlayerTurn, h.s.State())
	b := h.s.Board()
	require.Equal(t, tictactoe.O, b.Cells[0])
	require.Equal(t, 2, h.s.MoveCount())
}

func TestResetMidSession(t *testing.T) {
	h := newHarness(t, tictactoe.Variant{}, firstMove{})
	h.s.Start()
	require.True(t, h.s.SubmitMove(place(4)))
	h.sched.RunAll()
	require.True(t, h.s.SubmitMove(place(8)))
	require.Equal(t, AITurn, h.s.State())

	h.s.Reset()
	require.Equal(t, PlayerTurn, h.s.State())
	require.True(t, h.s.Board().Equal(tictactoe.Variant{}.NewBoard()))
	require.Empty(t, h.s.Moves())
	require.Zero(t, h.s.MoveCount())

	require.Zero(t, h.sched.RunAll(), "stale engine turn must not run")
	require.True(t, h.s.Board().Equal(tictactoe.Variant{}.NewBoard()))
	require.Equal(t, EventReset, h.events[len(h.events)-1].Kind)
}

func TestStaleCallbackAfterResetIsDropped(t *testing.T) {
	h := newHarness(t, tictactoe.Variant{}, firstMove{})
	h.s.Start()
	require.True(t, h.s.SubmitMove(place(4)))
	h.s.mu.Lock()
	gen := h.s.gen
	h.s.mu.Unlock()

	h.s.Reset()
	require.True(t, h.s.SubmitMove(place(0)))
	h.s.aiTurn(gen)
	require.Equal(t, AITurn, h.s.State())
	require.Equal(t, 1, h.s.MoveCount())
}

func TestCloseDiscardsPendingTurn(t *testing.T) {
	h := newHarness(t, tictactoe.Variant{}, firstMove{})
	h.s.Start()
	require.True(t, h.s.SubmitMove(place(4)))
	h.s.Close()
	h.sched.RunAll()
	require.Equal(t, 1, h.s.MoveCount())
	require.True(t, h.s.Closed())
	h.s.Reset()
	require.Equal(t, AITurn, h.s.State(), "closed sessions ignore resets")
}

func TestPlayerWinReportsResult(t *testing.T) {
	h := newHarness(t, tictactoe.Variant{}, firstMove{})
	h.s.Start()
	for i, cell := range []int{0, 3, 6} {
		h.clock.Add(2 * time.Second)
		require.True(t, h.s.SubmitMove(place(cell)), "move %d", i)
		h.sched.RunAll()
	}
	require.Equal(t, Terminal, h.s.State())
	require.Equal(t, game.WinFor(game.Player), h.s.Status())
	require.False(t, h.s.SubmitMove(place(8)))

	require.Len(t, h.ended, 1)
	res := h.ended[0]
	require.True(t, res.Won)
	require.Equal(t, 5, res.Moves)
	require.Equal(t, 6, res.TimeSeconds)
	require.Zero(t, res.Score)
	require.Equal(t, "win", res.Outcome)
	require.Nil(t, res.GameData.TrainingData)

	raw, err := json.Marshal(res.GameData)
	require.NoError(t, err)
	require.JSONEq(t, `{}`, string(raw))

	got, ok := h.s.Result()
	require.True(t, ok)
	require.Equal(t, res.Moves, got.Moves)

	kinds := make([]EventKind, 0, len(h.events))
	for _, ev := range h.events {
		kinds = append(kinds, ev.Kind)
	}
	require.Equal(t, EventStarted, kinds[0])
	require.Equal(t, EventEnded, kinds[len(kinds)-1])
	require.Equal(t, "terminal", h.events[len(h.events)-1].State)
}

func TestStuckEngineLosesWithTrainingData(t *testing.T) {
	v := checkers.Variant{}
	h := newHarness(t, v, noMove{})
	h.s.Start()
	require.True(t, h.s.SubmitMove(game.Move{From: 8, To: 16}))
	h.sched.RunAll()

	require.Equal(t, Terminal, h.s.State())
	require.Len(t, h.ended, 1)
	td := h.ended[0].GameData.TrainingData
	require.NotNil(t, td)
	require.Equal(t, checkers.ID, td.GameID)
	require.True(t, td.PlayerWon)
	require.Len(t, td.MovesSequence, 1)
	rec := td.MovesSequence[0]
	require.Equal(t, "R", rec.Piece)
	require.Equal(t, "player", rec.Side)
	require.True(t, rec.BoardState.Equal(v.NewBoard()))
	require.Equal(t, checkers.Red, td.FinalBoardState.Board.Cells[16])
}

func TestNoMovesForEngineEndsGame(t *testing.T) {
	v := checkers.Variant{}
	h := newHarness(t, v, firstMove{})
	b := game.NewBoard(checkers.Size, checkers.Size)
	b.Cells[b.Index(3, 7)] = checkers.Blue
	for _, rc := range [][2]int{{1, 7}, {2, 7}, {4, 7}, {5, 7}, {3, 6}, {3, 5}, {5, 0}} {
		b.Cells[b.Index(rc[0], rc[1])] = checkers.Red
	}
	raw, err := b.EncodeState()
	require.NoError(t, err)
	require.NoError(t, h.s.Restore(Snapshot{
		ID:        h.s.ID(),
		GameID:    v.ID(),
		State:     PlayerTurn.String(),
		Board:     raw,
		ToMove:    game.Player,
		StartedAt: h.clock.Now(),
	}))

	require.True(t, h.s.SubmitMove(game.Move{From: b.Index(5, 0), To: b.Index(5, 1)}))
	require.Equal(t, Terminal, h.s.State())
	require.Equal(t, game.WinFor(game.Player), h.s.Status())
	require.Zero(t, h.sched.Pending())
}

func TestTimestampsNeverDecrease(t *testing.T) {
	h := newHarness(t, tictactoe.Variant{}, firstMove{})
	h.s.Start()
	h.clock.Add(3 * time.Second)
	require.True(t, h.s.SubmitMove(place(4)))
	h.clock.Add(-2 * time.Second)
	h.sched.RunAll()

	moves := h.s.Moves()
	require.Len(t, moves, 2)
	require.Equal(t, int64(3000), moves[0].Timestamp)
	require.Equal(t, int64(3000), moves[1].Timestamp)
	require.Equal(t, "ai", moves[1].Side)
	require.Equal(t, "O", moves[1].Piece)
}

func TestSnapshotRestore(t *testing.T) {
	v := tictactoe.Variant{}
	h := newHarness(t, v, firstMove{})
	h.s.Start()
	require.True(t, h.s.SubmitMove(place(4)))
	snap, err := h.s.Snapshot()
	require.NoError(t, err)
	require.Equal(t, "ai_turn", snap.State)

	raw, err := json.Marshal(snap)
	require.NoError(t, err)
	var decoded Snapshot
	require.NoError(t, json.Unmarshal(raw, &decoded))

	other := newHarness(t, v, firstMove{})
	require.NoError(t, other.s.Restore(decoded))
	require.Equal(t, AITurn, other.s.State())
	require.True(t, h.s.Board().Equal(other.s.Board()))
	require.Len(t, other.s.Moves(), 1)
	require.True(t, other.s.Moves()[0].BoardState.Equal(v.NewBoard()))

	require.Equal(t, 1, other.sched.RunAll())
	require.Equal(t, PlayerTurn, other.s.State())
	require.Equal(t, 2, other.s.MoveCount())
	require.Equal(t, uint64(2), decoded.Seq)
	require.Equal(t, uint64(3), other.events[len(other.events)-1].Seq, "event numbers continue after restore")

	decoded.GameID = checkers.ID
	require.ErrorIs(t, other.s.Restore(decoded), ErrGameMismatch)
}

func TestRealSearcherPlaysLegalMoves(t *testing.T) {
	v := tictactoe.Variant{}
	chooser := search.New(search.WithMaxDepth(9), search.WithRandomMoveChance(0), search.WithRandSeed(1))
	h := newHarness(t, v, chooser)
	h.s.Start()
	for h.s.State() == PlayerTurn {
		moves := h.s.LegalMoves()
		require.NotEmpty(t, moves)
		require.True(t, h.s.SubmitMove(moves[len(moves)-1]))
		h.sched.RunAll()
	}
	require.Equal(t, Terminal, h.s.State())
	require.NotEqual(t, game.WinFor(game.Player), h.s.Status())
}

// TestEventsArriveInOrderWithoutDelay lets the engine reply on its own timer
// goroutine while the human's move is still being delivered.
func TestEventsArriveInOrderWithoutDelay(t *testing.T) {
	for run := 0; run < 20; run++ {
		var (
			mu         sync.Mutex
			plies      []int
			seqs       []uint64
			inFlight   atomic.Int32
			overlapped atomic.Bool
		)
		done := make(chan struct{})
		s, err := New(Config{
			Variant:   tictactoe.Variant{},
			Chooser:   firstMove{},
			AIDelay:   -1,
			Scheduler: TimerScheduler{},
			OnChange: func(ev Event) {
				if inFlight.Add(1) > 1 {
					overlapped.Store(true)
				}
				// stands in for a snapshot save
				time.Sleep(2 * time.Millisecond)
				mu.Lock()
				seqs = append(seqs, ev.Seq)
				if ev.Move != nil {
					plies = append(plies, ev.Move.Ply)
				}
				n := len(plies)
				mu.Unlock()
				inFlight.Add(-1)
				if ev.Move != nil && n == 2 {
					close(done)
				}
			},
		})
		require.NoError(t, err)
		s.Start()
		require.True(t, s.SubmitMove(place(4)))
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatalf("run %d: engine reply never delivered", run)
		}
		s.Close()

		mu.Lock()
		require.Equal(t, []int{1, 2}, plies, "run %d", run)
		require.Equal(t, []uint64{1, 2, 3}, seqs, "run %d", run)
		mu.Unlock()
		require.False(t, overlapped.Load(), "OnChange calls overlapped in run %d", run)
	}
}

func TestCallbacksMayReenterSession(t *testing.T) {
	sched := NewManualScheduler()
	var (
		s     *Session
		kinds []EventKind
		ended int
	)
	s, err := New(Config{
		Variant:   tictactoe.Variant{},
		Chooser:   firstMove{},
		Scheduler: sched,
		OnChange: func(ev Event) {
			kinds = append(kinds, ev.Kind)
			_, err := s.Snapshot()
			require.NoError(t, err)
		},
		OnGameEnd: func(Result) {
			ended++
			s.Reset()
		},
	})
	require.NoError(t, err)
	t.Cleanup(s.Close)

	s.Start()
	// the engine answers 0 then 1; X completes the 2-4-6 diagonal
	for _, i := range []int{4, 2, 6} {
		require.True(t, s.SubmitMove(place(i)))
		sched.RunAll()
	}

	require.Equal(t, 1, ended)
	require.Equal(t, []EventKind{
		EventStarted,
		EventMove, EventMove,
		EventMove, EventMove,
		EventMove, EventEnded,
		EventReset,
	}, kinds)
	require.Equal(t, PlayerTurn, s.State())
	require.Zero(t, s.MoveCount())
}
