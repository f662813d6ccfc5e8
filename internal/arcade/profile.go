package arcade

import (
	"github.com/park285/pixelcv-arcade/internal/domain"
	"github.com/park285/pixelcv-arcade/internal/search"
)

const pointsPerLevel = 100

var rankTitles = []struct {
	minLevel int
	title    string
}{
	{21, "Leyenda"},
	{11, "Experto"},
	{6, "Maestro"},
	{3, "Aprendiz"},
	{1, "Novato"},
}

// LevelFor maps accumulated points to a level starting at 1.
func LevelFor(points int) int {
	if points < 0 {
		points = 0
	}
	return points/pointsPerLevel + 1
}

// RankTitle names the rank for a level.
func RankTitle(level int) string {
	for _, r := range rankTitles {
		if level >= r.minLevel {
			return r.title
		}
	}
	return rankTitles[len(rankTitles)-1].title
}

var winPoints = map[string]int{
	"easy":   10,
	"medium": 20,
	"hard":   35,
	"expert": 50,
}

// LocalPoints is used when the scoring backend is not configured or did not
// answer. A draw earns a quarter of a win; a loss earns nothing.
func LocalPoints(difficulty, outcome string) int {
	win := winPoints[difficulty]
	if win == 0 {
		win = winPoints[search.Difficulties[1]]
	}
	switch outcome {
	case "win":
		return win
	case "draw":
		return win / 4
	default:
		return 0
	}
}

// ApplyGame folds a finished game into the profile. A nil profile starts
// from zero.
func ApplyGame(p *domain.PlayerProfile, rec *domain.GameRecord) *domain.PlayerProfile {
	var out domain.PlayerProfile
	if p != nil {
		out = *p
	}
	out.UserID = rec.UserID
	out.GamesPlayed++
	switch rec.Outcome {
	case "win":
		out.Wins++
	case "draw":
		out.Draws++
	default:
		out.Losses++
	}
	if out.StreakType == rec.Outcome {
		out.Streak++
	} else {
		out.StreakType = rec.Outcome
		out.Streak = 1
	}
	if out.StreakType == "win" && out.Streak > out.BestStreak {
		out.BestStreak = out.Streak
	}
	out.Points += rec.PointsEarned
	out.Level = LevelFor(out.Points)
	out.Rank = RankTitle(out.Level)
	out.LastGame = rec.GameID
	out.LastDifficulty = rec.Difficulty
	out.LastPlayedAt = rec.EndedAt
	return &out
}
