// arcade-tui plays one game against the engine in the terminal.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	_ "github.com/park285/pixelcv-arcade/internal/game/checkers"
	_ "github.com/park285/pixelcv-arcade/internal/game/chess"
	_ "github.com/park285/pixelcv-arcade/internal/game/tictactoe"
	"github.com/park285/pixelcv-arcade/internal/msgcat"
	"github.com/park285/pixelcv-arcade/internal/obslog"
	"github.com/park285/pixelcv-arcade/internal/tui"
)

var (
	flagGame       = flag.String("game", "", "game id (default from config)")
	flagDifficulty = flag.String("difficulty", "", "easy, medium, hard or expert (default from config)")
	flagSave       = flag.Bool("save", false, "store -game and -difficulty as the new defaults")
)

func main() {
	flag.Parse()

	cfg, err := tui.LoadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}
	if *flagGame != "" {
		cfg.Game = *flagGame
	}
	if *flagDifficulty != "" {
		cfg.Difficulty = *flagDifficulty
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("%v", err)
	}
	if *flagSave {
		path, err := cfg.Save()
		if err != nil {
			log.Fatalf("save config: %v", err)
		}
		fmt.Fprintf(os.Stderr, "saved %s\n", path)
	}

	// the terminal owns stdout, so logs only go to a file when asked
	opts := obslog.OptionsFromEnv()
	opts.Console = false
	logger, err := obslog.New(opts)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	cat, err := msgcat.New(os.Getenv("ARCADE_MESSAGES_DIR"))
	if err != nil {
		log.Fatalf("messages: %v", err)
	}

	app := tview.NewApplication()
	hint := tview.NewTextView()
	hint.SetBorder(true)
	hint.SetBorderPadding(0, 0, 1, 1)
	hint.SetTitle(" Status ")
	hint.SetTitleAlign(tview.AlignLeft)

	board, err := tui.NewGame(app, cfg, cat, hint, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer board.Close()

	board.Box.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		if ev.Key() == tcell.KeyRune && ev.Rune() == 'q' || ev.Key() == tcell.KeyCtrlC {
			app.Stop()
			return nil
		}
		return board.HandleKey(ev)
	})

	layout := tview.NewFlex().
		AddItem(board.Box, 0, 2, true).
		AddItem(hint, 40, 0, false)
	layout.SetBorder(true).SetTitle(" pixelcv arcade ")

	board.Start()
	if err := app.SetRoot(layout, true).Run(); err != nil {
		log.Fatalf("%v", err)
	}
}
