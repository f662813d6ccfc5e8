package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/park285/pixelcv-arcade/internal/backend"
	"github.com/park285/pixelcv-arcade/internal/feed"
)

// arcade-check checks the scoring backend and the live feed with the
// same clients the server uses.
func main() {
	baseURL := os.Getenv("BACKEND_BASE_URL")
	wsURL := os.Getenv("FEED_WS_URL")
	token := os.Getenv("FEED_TOKEN")

	if baseURL == "" {
		log.Fatal("BACKEND_BASE_URL is required")
	}

	client := backend.NewClient(baseURL, backend.WithTimeout(8*time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, g := range []string{"tictactoe", "chess", "chinese_checkers"} {
		resp, err := client.AIParameters(ctx, g, "medium")
		if err != nil {
			log.Printf("ai parameters %s error: %v", g, err)
			continue
		}
		chance, _ := resp.Parameters.Chance()
		depth := 0
		if resp.Parameters.MaxDepth != nil {
			depth = *resp.Parameters.MaxDepth
		}
		log.Printf("ai parameters %s ok: chance=%.2f depth=%d", g, chance, depth)
	}

	if wsURL == "" {
		log.Println("FEED_WS_URL not set; skipping feed check")
		return
	}

	ws := feed.NewWebSocket(wsURL, 5, time.Second)
	if token != "" {
		ws.SetHeaderProvider(func() map[string]string { return map[string]string{"Authorization": "Bearer " + token} })
	}
	ws.OnStateChange(func(state feed.State) {
		log.Printf("feed state: %s", state)
	})
	ws.OnMessage(func(msg *feed.Message) {
		fmt.Printf("feed msg type=%s session=%s bytes=%d\n", msg.Type, msg.SessionID, len(msg.Data))
	})

	cctx, ccancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer ccancel()
	if err := ws.Connect(cctx); err != nil {
		log.Printf("feed connect error: %v", err)
		return
	}

	t := time.NewTimer(10 * time.Second)
	<-t.C

	_ = ws.Close(context.Background())
}
