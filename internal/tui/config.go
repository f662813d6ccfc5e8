package tui

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/adrg/xdg"

	"github.com/park285/pixelcv-arcade/internal/game"
	"github.com/park285/pixelcv-arcade/internal/search"
)

const cfgFile = "pixelcv-arcade/config.json"

type InvalidConfig struct {
	err string
}

func (e *InvalidConfig) Error() string {
	return fmt.Sprintf("config error: %s", e.err)
}

// Colors are tcell palette indices.
type Colors struct {
	Light    int `json:"light"`
	Dark     int `json:"dark"`
	Player   int `json:"player"`
	AI       int `json:"ai"`
	Cursor   int `json:"cursor_bg"`
	Selected int `json:"selected_bg"`
	LastMove int `json:"last_move_bg"`
}

type Config struct {
	Game       string `json:"game"`
	Difficulty string `json:"difficulty"`
	Colors     Colors `json:"colors"`
}

var DefaultConfig = Config{
	Game:       "tictactoe",
	Difficulty: "medium",
	Colors: Colors{
		Light:    180,
		Dark:     137,
		Player:   231,
		AI:       232,
		Cursor:   33,
		Selected: 70,
		LastMove: 186,
	},
}

// LoadConfig reads the config from the xdg config dirs, falling back to
// DefaultConfig for a missing file or missing fields.
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig
	path, err := xdg.SearchConfigFile(cfgFile)
	if err == nil {
		if err := readCfgFile(path, &cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if _, err := game.Lookup(c.Game); err != nil {
		return &InvalidConfig{fmt.Sprintf("unknown game %q", c.Game)}
	}
	if _, err := search.GetPreset(c.Game, c.Difficulty); err != nil {
		return &InvalidConfig{fmt.Sprintf("unknown difficulty %q", c.Difficulty)}
	}
	for _, v := range []int{c.Colors.Light, c.Colors.Dark, c.Colors.Player, c.Colors.AI, c.Colors.Cursor, c.Colors.Selected, c.Colors.LastMove} {
		if v < 0 || v > 255 {
			return &InvalidConfig{"colors must be palette indices 0-255"}
		}
	}
	return nil
}

// Save writes the config to the user's xdg config home.
func (c *Config) Save() (string, error) {
	path, err := xdg.ConfigFile(cfgFile)
	if err != nil {
		return "", err
	}
	return path, saveCfgFile(path, c, 0o644)
}

func saveCfgFile(path string, v any, perm fs.FileMode) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, perm)
}

func readCfgFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &InvalidConfig{fmt.Sprintf("%s: %v", path, err)}
	}
	return nil
}
