package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/muesli/termenv"

	"github.com/park285/pixelcv-arcade/internal/game"
	_ "github.com/park285/pixelcv-arcade/internal/game/checkers"
	_ "github.com/park285/pixelcv-arcade/internal/game/chess"
	_ "github.com/park285/pixelcv-arcade/internal/game/tictactoe"
	"github.com/park285/pixelcv-arcade/internal/msgcat"
	"github.com/park285/pixelcv-arcade/internal/obslog"
	"github.com/park285/pixelcv-arcade/internal/search"
	"github.com/park285/pixelcv-arcade/internal/selfplay"
)

func main() {
	gameID := flag.String("game", "tictactoe", "game id: tictactoe, chess or chinese_checkers")
	levelA := flag.String("a", "hard", "difficulty of engine A")
	levelB := flag.String("b", "easy", "difficulty of engine B")
	games := flag.Int("n", 10, "number of games")
	seed := flag.Int64("seed", 1, "random seed")
	plyCap := flag.Int("plies", selfplay.DefaultPlyCap, "adjudicate a draw after this many plies")
	messages := flag.String("messages", os.Getenv("ARCADE_MESSAGES_DIR"), "message catalog override directory")
	flag.Parse()

	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer obslog.Sync()

	v, err := game.Lookup(*gameID)
	if err != nil {
		log.Fatalf("%v", err)
	}
	a, err := search.GetPreset(v.ID(), *levelA)
	if err != nil {
		log.Fatalf("engine A: %v", err)
	}
	b, err := search.GetPreset(v.ID(), *levelB)
	if err != nil {
		log.Fatalf("engine B: %v", err)
	}
	cat, err := msgcat.New(*messages)
	if err != nil {
		log.Fatalf("messages: %v", err)
	}

	out := termenv.NewOutput(os.Stdout)
	win := out.Color("2")
	loss := out.Color("1")
	draw := out.Color("3")
	title := cat.Text("game.title."+v.ID(), nil, v.ID())

	header := cat.Text("selfplay.header", map[string]any{"Game": title, "A": a.Name, "B": b.Name, "Games": *games},
		fmt.Sprintf("%s: %s vs %s, %d games", title, a.Name, b.Name, *games))
	fmt.Fprintln(out, out.String(header).Bold())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sum, err := selfplay.Run(ctx, selfplay.Config{
		Variant: v, A: a, B: b, Games: *games, Seed: *seed, PlyCap: *plyCap, Logger: obslog.L(),
	}, func(r selfplay.GameResult) {
		result := out.String("draw").Foreground(draw)
		switch r.Winner {
		case "a":
			result = out.String("A (" + a.Name + ") wins").Foreground(win)
		case "b":
			result = out.String("B (" + b.Name + ") wins").Foreground(loss)
		}
		if r.Capped {
			result = out.String("draw (ply cap)").Foreground(draw)
		}
		line := cat.Text("selfplay.line", map[string]any{"N": r.N, "Result": result.String(), "Plies": r.Plies},
			fmt.Sprintf("game %d: %s after %d plies", r.N, result, r.Plies))
		fmt.Fprintln(out, line)
	})
	if err != nil {
		log.Fatalf("selfplay: %v", err)
	}

	summary := cat.Text("selfplay.summary", map[string]any{
		"A": a.Name, "WinsA": sum.WinsA, "B": b.Name, "WinsB": sum.WinsB, "Draws": sum.Draws,
	}, fmt.Sprintf("%s %d · %s %d · draws %d", a.Name, sum.WinsA, b.Name, sum.WinsB, sum.Draws))
	fmt.Fprintln(out, out.String(summary).Bold())
}
