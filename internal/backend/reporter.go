package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/park285/pixelcv-arcade/internal/arcade"
	"github.com/park285/pixelcv-arcade/internal/search"
	"github.com/park285/pixelcv-arcade/internal/session"
)

// Reporter submits finished sessions with a service token.
type Reporter struct {
	client *Client
	token  string
}

func NewReporter(c *Client, token string) *Reporter {
	return &Reporter{client: c, token: token}
}

func (r *Reporter) Report(ctx context.Context, userID string, res session.Result) (arcade.Report, error) {
	data, err := json.Marshal(res.GameData)
	if err != nil {
		return arcade.Report{}, fmt.Errorf("marshal game_data: %w", err)
	}
	resp, err := r.client.SubmitResult(ctx, r.token, GameSubmitRequest{
		GameID:      res.GameID,
		Score:       res.Score,
		Won:         res.Won,
		Moves:       res.Moves,
		TimeSeconds: res.TimeSeconds,
		GameData:    data,
		UserID:      userID,
	})
	if err != nil {
		return arcade.Report{}, err
	}
	if !resp.Success {
		return arcade.Report{}, fmt.Errorf("backend rejected result: %s", resp.Message)
	}
	return arcade.Report{
		PointsEarned: resp.PointsEarned,
		Message:      resp.Message,
		Achievements: resp.Achievements,
	}, nil
}

// Tuner overlays the backend's active AI parameters on a local preset.
type Tuner struct {
	client *Client
}

func NewTuner(c *Client) *Tuner { return &Tuner{client: c} }

func (t *Tuner) Tune(ctx context.Context, p search.Preset) (search.Preset, error) {
	resp, err := t.client.AIParameters(ctx, p.Game, p.Name)
	if err != nil {
		return p, err
	}
	params := resp.Parameters
	if chance, ok := params.Chance(); ok {
		p.RandomMoveChance = chance
	}
	if params.MaxDepth != nil {
		p.MaxDepth = *params.MaxDepth
	}
	if params.AIDelayMillis != nil {
		p.AIDelay = time.Duration(*params.AIDelayMillis) * time.Millisecond
	}
	return p, nil
}
