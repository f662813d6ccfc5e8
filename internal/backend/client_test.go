package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"github.com/park285/pixelcv-arcade/internal/search"
	"github.com/park285/pixelcv-arcade/internal/session"
)

func newTestClient(t *testing.T, handler fasthttp.RequestHandler, opts ...Option) *Client {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	srv := &fasthttp.Server{Handler: handler}
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() {
		_ = srv.Shutdown()
		_ = ln.Close()
	})
	base := []Option{
		WithDial(func(string) (net.Conn, error) { return ln.Dial() }),
		withBackoff(func(int) time.Duration { return time.Millisecond }),
	}
	return NewClient("http://backend.test", append(base, opts...)...)
}

func TestSubmitResult(t *testing.T) {
	var got GameSubmitRequest
	var auth, user, path string
	c := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		path = string(ctx.Path())
		auth = string(ctx.Request.Header.Peek("Authorization"))
		user = string(ctx.Request.Header.Peek(userHeader))
		if err := json.Unmarshal(ctx.PostBody(), &got); err != nil {
			ctx.SetStatusCode(fasthttp.StatusBadRequest)
			return
		}
		ctx.SetContentType("application/json")
		ctx.SetBodyString(`{"success":true,"points_earned":25,"session_id":7,"message":"ok","achievements":["first_win"]}`)
	})

	resp, err := c.SubmitResult(context.Background(), "tok", GameSubmitRequest{
		GameID: "tictactoe", Won: true, Moves: 5, TimeSeconds: 6, GameData: json.RawMessage(`{}`), UserID: "u1",
	})
	if err != nil {
		t.Fatalf("SubmitResult: %v", err)
	}
	if path != "/games/submit" || auth != "Bearer tok" || user != "u1" {
		t.Fatalf("path=%s auth=%q user=%q", path, auth, user)
	}
	if got.GameID != "tictactoe" || !got.Won || got.Moves != 5 || got.TimeSeconds != 6 {
		t.Fatalf("unexpected body: %+v", got)
	}
	if resp.PointsEarned != 25 || resp.SessionID != 7 || len(resp.Achievements) != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		if calls.Add(1) < 3 {
			ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
			return
		}
		ctx.SetBodyString(`{"game_id":"chess","difficulty":"hard","parameters":{"error_chance":0.05,"max_depth":4}}`)
	})

	resp, err := c.AIParameters(context.Background(), "chess", "hard")
	if err != nil {
		t.Fatalf("AIParameters: %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("calls = %d, want 3", calls.Load())
	}
	chance, ok := resp.Parameters.Chance()
	if !ok || chance != 0.05 || *resp.Parameters.MaxDepth != 4 {
		t.Fatalf("unexpected parameters: %+v", resp.Parameters)
	}
}

func TestDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		calls.Add(1)
		ctx.SetStatusCode(fasthttp.StatusBadRequest)
		ctx.SetBodyString(`{"detail":"Juego inválido: go"}`)
	})

	_, err := c.SubmitResult(context.Background(), "", GameSubmitRequest{GameID: "go"})
	var se *StatusError
	if !errors.As(err, &se) || se.Status != fasthttp.StatusBadRequest || se.Detail != "Juego inválido: go" {
		t.Fatalf("err = %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1", calls.Load())
	}
}

func TestRetryGivesUpAfterMax(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		calls.Add(1)
		ctx.SetStatusCode(fasthttp.StatusTooManyRequests)
	}, WithRetry(2))

	_, err := c.AIParameters(context.Background(), "chess", "easy")
	var se *StatusError
	if !errors.As(err, &se) || se.Status != fasthttp.StatusTooManyRequests {
		t.Fatalf("err = %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("calls = %d, want 2", calls.Load())
	}
}

func TestReporterAndTuner(t *testing.T) {
	c := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		switch string(ctx.Path()) {
		case "/games/submit":
			var body map[string]any
			_ = json.Unmarshal(ctx.PostBody(), &body)
			if _, ok := body["game_data"].(map[string]any)["training_data"]; !ok {
				ctx.SetBodyString(`{"success":false,"message":"missing training data"}`)
				return
			}
			ctx.SetBodyString(`{"success":true,"points_earned":40,"message":"¡Juego registrado!"}`)
		case "/games/ai/parameters/chinese_checkers/expert":
			ctx.SetBodyString(`{"parameters":{"random_move_chance":0.1,"max_depth":3,"ai_delay_ms":250}}`)
		default:
			ctx.SetStatusCode(fasthttp.StatusNotFound)
		}
	})

	rep := NewReporter(c, "svc")
	res := session.Result{GameID: "chess", Won: true, Moves: 9, GameData: session.GameData{TrainingData: &session.TrainingData{GameID: "chess", PlayerWon: true}}}
	got, err := rep.Report(context.Background(), "u1", res)
	if err != nil || got.PointsEarned != 40 {
		t.Fatalf("Report: %+v %v", got, err)
	}
	if _, err := rep.Report(context.Background(), "u1", session.Result{GameID: "tictactoe"}); err == nil {
		t.Fatalf("expected rejection without training data")
	}

	p, err := NewTuner(c).Tune(context.Background(), search.Preset{Game: "chinese_checkers", Name: "expert", MaxDepth: 5})
	if err != nil {
		t.Fatalf("Tune: %v", err)
	}
	if p.MaxDepth != 3 || p.RandomMoveChance != 0.1 || p.AIDelay != 250*time.Millisecond {
		t.Fatalf("unexpected tuned preset: %+v", p)
	}
}
