package arcadebuilder

import (
	"context"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/park285/pixelcv-arcade/internal/config"
)

func TestNewInMemory(t *testing.T) {
	deps, err := New(context.Background(), &config.AppConfig{DefaultDifficulty: "easy", MaxSessionsPerUser: 2}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = deps.Close(context.Background()) })

	if deps.Feed != nil {
		t.Fatalf("feed should be disabled")
	}
	v, err := deps.Service.StartSession(context.Background(), "u1", "tictactoe", "")
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if v.Difficulty != "easy" {
		t.Fatalf("default difficulty not applied: %s", v.Difficulty)
	}
	if got := deps.Presenter.Formatter().Title("chess"); got != "Chess" {
		t.Fatalf("catalog not wired: %q", got)
	}
}

func TestNewWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &config.AppConfig{
		RedisURL:          fmt.Sprintf("redis://%s/0", mr.Addr()),
		SessionTTL:        time.Hour,
		DefaultDifficulty: "medium",
		AIDelay:           time.Hour,
	}
	deps, err := New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	v, err := deps.Service.StartSession(context.Background(), "u1", "chess", "hard")
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if !mr.Exists("arcade:session:" + v.SessionID) {
		t.Fatalf("snapshot not written to redis")
	}
	if err := deps.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestNewRejectsBadRedisURL(t *testing.T) {
	_, err := New(context.Background(), &config.AppConfig{RedisURL: "redis://127.0.0.1:1/notadb", DefaultDifficulty: "medium"}, nil)
	if err == nil {
		t.Fatalf("expected error")
	}
	if _, err := New(context.Background(), nil, nil); err == nil {
		t.Fatalf("nil config accepted")
	}
}
