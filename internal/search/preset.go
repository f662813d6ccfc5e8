package search

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed presets.yaml
var defaultPresetsYAML []byte

var (
	ErrUnknownGame       = errors.New("no presets for game")
	ErrUnknownDifficulty = errors.New("unknown difficulty")
)

// Difficulties lists the preset names from weakest to strongest.
var Difficulties = []string{"easy", "medium", "hard", "expert"}

type Preset struct {
	Game             string        `json:"game_id"`
	Name             string        `json:"difficulty"`
	RandomMoveChance float64       `json:"random_move_chance"`
	MaxDepth         int           `json:"max_depth"`
	AIDelay          time.Duration `json:"-"`
}

type presetEntry struct {
	RandomMoveChance *float64 `yaml:"random_move_chance"`
	MaxDepth         int      `yaml:"max_depth"`
	AIDelayMillis    int      `yaml:"ai_delay_ms"`
}

type presetFile struct {
	Defaults struct {
		AIDelayMillis int `yaml:"ai_delay_ms"`
	} `yaml:"defaults"`
	Games map[string]map[string]presetEntry `yaml:"games"`
}

var (
	presetMu sync.RWMutex
	presets  = map[string]map[string]Preset{}
)

func init() {
	table, err := parsePresets(defaultPresetsYAML)
	if err != nil {
		panic(fmt.Sprintf("search: embedded presets: %v", err))
	}
	presets = table
}

// LoadPresets replaces the preset table with the YAML document in data.
func LoadPresets(data []byte) error {
	table, err := parsePresets(data)
	if err != nil {
		return err
	}
	presetMu.Lock()
	presets = table
	presetMu.Unlock()
	return nil
}

func parsePresets(data []byte) (map[string]map[string]Preset, error) {
	var f presetFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse presets: %w", err)
	}
	if len(f.Games) == 0 {
		return nil, errors.New("parse presets: no games defined")
	}
	delay := f.Defaults.AIDelayMillis
	table := make(map[string]map[string]Preset, len(f.Games))
	for gameID, levels := range f.Games {
		gameID = strings.ToLower(strings.TrimSpace(gameID))
		byName := make(map[string]Preset, len(levels))
		for name, e := range levels {
			name = strings.ToLower(strings.TrimSpace(name))
			if e.RandomMoveChance == nil {
				return nil, fmt.Errorf("preset %s/%s: random_move_chance is required", gameID, name)
			}
			ms := e.AIDelayMillis
			if ms == 0 {
				ms = delay
			}
			p := Preset{
				Game:             gameID,
				Name:             name,
				RandomMoveChance: *e.RandomMoveChance,
				MaxDepth:         e.MaxDepth,
				AIDelay:          time.Duration(ms) * time.Millisecond,
			}
			if err := ValidatePreset(p); err != nil {
				return nil, fmt.Errorf("preset %s/%s: %w", gameID, name, err)
			}
			byName[name] = p
		}
		table[gameID] = byName
	}
	return table, nil
}

func normalizeDifficulty(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "", "normal", "default", "intermediate":
		return "medium"
	case "beginner", "facil", "fácil":
		return "easy"
	case "advanced", "dificil", "difícil":
		return "hard"
	case "master", "experto":
		return "expert"
	}
	return name
}

func GetPreset(gameID, difficulty string) (Preset, error) {
	gameID = strings.ToLower(strings.TrimSpace(gameID))
	name := normalizeDifficulty(difficulty)
	presetMu.RLock()
	defer presetMu.RUnlock()
	levels, ok := presets[gameID]
	if !ok {
		return Preset{}, fmt.Errorf("%w: %s", ErrUnknownGame, gameID)
	}
	p, ok := levels[name]
	if !ok {
		return Preset{}, fmt.Errorf("%w: %s", ErrUnknownDifficulty, difficulty)
	}
	return p, nil
}

// SetPreset overrides one entry, e.g. with parameters served by the scoring
// backend.
func SetPreset(p Preset) error {
	if err := ValidatePreset(p); err != nil {
		return err
	}
	p.Game = strings.ToLower(strings.TrimSpace(p.Game))
	p.Name = normalizeDifficulty(p.Name)
	presetMu.Lock()
	defer presetMu.Unlock()
	levels, ok := presets[p.Game]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownGame, p.Game)
	}
	if p.AIDelay == 0 {
		p.AIDelay = levels[p.Name].AIDelay
	}
	levels[p.Name] = p
	return nil
}

// ListPresets returns the presets of gameID ordered by Difficulties.
func ListPresets(gameID string) []Preset {
	gameID = strings.ToLower(strings.TrimSpace(gameID))
	presetMu.RLock()
	levels := presets[gameID]
	out := make([]Preset, 0, len(levels))
	for _, p := range levels {
		out = append(out, p)
	}
	presetMu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return rank(out[i].Name) < rank(out[j].Name) })
	return out
}

func rank(name string) int {
	for i, d := range Difficulties {
		if d == name {
			return i
		}
	}
	return len(Difficulties)
}

func ValidatePreset(p Preset) error {
	switch {
	case strings.TrimSpace(p.Game) == "":
		return errors.New("game id is required")
	case strings.TrimSpace(p.Name) == "":
		return errors.New("difficulty name is required")
	case p.RandomMoveChance < 0 || p.RandomMoveChance > 1:
		return fmt.Errorf("random move chance %f out of range 0-1", p.RandomMoveChance)
	case p.MaxDepth <= 0:
		return fmt.Errorf("max depth must be > 0: %d", p.MaxDepth)
	case p.MaxDepth > 12:
		return fmt.Errorf("max depth %d exceeds 12", p.MaxDepth)
	case p.AIDelay < 0:
		return fmt.Errorf("ai delay must be >= 0: %s", p.AIDelay)
	}
	return nil
}
