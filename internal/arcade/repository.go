package arcade

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/park285/pixelcv-arcade/internal/domain"
)

var ErrDuplicateGame = errors.New("arcade game already recorded")

// Repository stores finished games and player profiles.
type Repository interface {
	InsertGame(ctx context.Context, rec *domain.GameRecord) (int64, error)
	GetRecentGames(ctx context.Context, userID string, limit int) ([]*domain.GameRecord, error)
	GetGameBySession(ctx context.Context, sessionID string, userID string) (*domain.GameRecord, error)
	GetProfile(ctx context.Context, userID string) (*domain.PlayerProfile, error)
	UpsertProfile(ctx context.Context, profile *domain.PlayerProfile) error
	Close() error
}

const schema = `
CREATE TABLE IF NOT EXISTS arcade_games (
	id            BIGSERIAL PRIMARY KEY,
	session_id    TEXT NOT NULL UNIQUE,
	user_id       TEXT NOT NULL,
	game_id       TEXT NOT NULL,
	difficulty    TEXT NOT NULL,
	outcome       TEXT NOT NULL,
	won           BOOLEAN NOT NULL,
	score         INTEGER NOT NULL DEFAULT 0,
	moves         INTEGER NOT NULL,
	moves_log     JSONB NOT NULL,
	final_board   JSONB NOT NULL,
	fen           TEXT NOT NULL DEFAULT '',
	points_earned INTEGER NOT NULL DEFAULT 0,
	started_at    TIMESTAMPTZ NOT NULL,
	ended_at      TIMESTAMPTZ NOT NULL,
	duration_ms   BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS arcade_games_user_ended ON arcade_games (user_id, ended_at DESC);

CREATE TABLE IF NOT EXISTS arcade_profiles (
	user_id         TEXT PRIMARY KEY,
	games_played    INTEGER NOT NULL,
	wins            INTEGER NOT NULL,
	losses          INTEGER NOT NULL,
	draws           INTEGER NOT NULL,
	streak          INTEGER NOT NULL,
	streak_type     TEXT NOT NULL,
	best_streak     INTEGER NOT NULL,
	points          INTEGER NOT NULL,
	level           INTEGER NOT NULL,
	rank            TEXT NOT NULL,
	last_game       TEXT NOT NULL,
	last_difficulty TEXT NOT NULL,
	last_played_at  TIMESTAMPTZ,
	updated_at      TIMESTAMPTZ NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL
);`

type postgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository connects with lib/pq and creates the tables if they
// are missing.
func NewPostgresRepository(databaseURL string) (Repository, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create arcade schema: %w", err)
	}
	return NewRepository(db), nil
}

// NewRepository wraps an open database handle.
func NewRepository(db *sql.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *postgresRepository) InsertGame(ctx context.Context, rec *domain.GameRecord) (int64, error) {
	if rec == nil {
		return 0, fmt.Errorf("nil arcade game payload")
	}
	movesLog, err := json.Marshal(nonNil(rec.MovesLog))
	if err != nil {
		return 0, fmt.Errorf("marshal moves_log: %w", err)
	}
	finalBoard, err := json.Marshal(nonNil(rec.FinalBoard))
	if err != nil {
		return 0, fmt.Errorf("marshal final_board: %w", err)
	}

	const query = `
		INSERT INTO arcade_games (
			session_id,
			user_id,
			game_id,
			difficulty,
			outcome,
			won,
			score,
			moves,
			moves_log,
			final_board,
			fen,
			points_earned,
			started_at,
			ended_at,
			duration_ms
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::jsonb, $10::jsonb, $11, $12, $13, $14, $15)
		ON CONFLICT (session_id) DO NOTHING
		RETURNING id`

	var id sql.NullInt64
	err = r.db.QueryRowContext(
		ctx,
		query,
		rec.SessionID,
		rec.UserID,
		rec.GameID,
		rec.Difficulty,
		rec.Outcome,
		rec.Won,
		rec.Score,
		rec.Moves,
		movesLog,
		finalBoard,
		rec.FEN,
		rec.PointsEarned,
		rec.StartedAt,
		rec.EndedAt,
		rec.Duration.Milliseconds(),
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !id.Valid) {
		return 0, ErrDuplicateGame
	}
	if err != nil {
		return 0, fmt.Errorf("insert arcade game: %w", err)
	}
	return id.Int64, nil
}

const gameColumns = `
			id,
			session_id,
			user_id,
			game_id,
			difficulty,
			outcome,
			won,
			score,
			moves,
			moves_log,
			final_board,
			fen,
			points_earned,
			started_at,
			ended_at,
			duration_ms`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGame(row rowScanner) (*domain.GameRecord, error) {
	var (
		rec          domain.GameRecord
		movesLogJSON []byte
		boardJSON    []byte
		durationMS   sql.NullInt64
	)
	if err := row.Scan(
		&rec.ID,
		&rec.SessionID,
		&rec.UserID,
		&rec.GameID,
		&rec.Difficulty,
		&rec.Outcome,
		&rec.Won,
		&rec.Score,
		&rec.Moves,
		&movesLogJSON,
		&boardJSON,
		&rec.FEN,
		&rec.PointsEarned,
		&rec.StartedAt,
		&rec.EndedAt,
		&durationMS,
	); err != nil {
		return nil, err
	}
	if durationMS.Valid {
		rec.Duration = time.Duration(durationMS.Int64) * time.Millisecond
	}
	if err := json.Unmarshal(movesLogJSON, &rec.MovesLog); err != nil {
		return nil, fmt.Errorf("unmarshal moves_log: %w", err)
	}
	if err := json.Unmarshal(boardJSON, &rec.FinalBoard); err != nil {
		return nil, fmt.Errorf("unmarshal final_board: %w", err)
	}
	return &rec, nil
}

func (r *postgresRepository) GetRecentGames(ctx context.Context, userID string, limit int) ([]*domain.GameRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `SELECT` + gameColumns + `
		FROM arcade_games
		WHERE user_id = $1
		ORDER BY ended_at DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("select arcade games: %w", err)
	}
	defer rows.Close()

	games := make([]*domain.GameRecord, 0, limit)
	for rows.Next() {
		rec, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("scan arcade game: %w", err)
		}
		games = append(games, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate arcade games: %w", err)
	}
	return games, nil
}

func (r *postgresRepository) GetGameBySession(ctx context.Context, sessionID string, userID string) (*domain.GameRecord, error) {
	query := `SELECT` + gameColumns + `
		FROM arcade_games
		WHERE session_id = $1 AND user_id = $2
		LIMIT 1`

	rec, err := scanGame(r.db.QueryRowContext(ctx, query, sessionID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select arcade game by session: %w", err)
	}
	return rec, nil
}

func (r *postgresRepository) GetProfile(ctx context.Context, userID string) (*domain.PlayerProfile, error) {
	const query = `
		SELECT
			user_id,
			games_played,
			wins,
			losses,
			draws,
			streak,
			streak_type,
			best_streak,
			points,
			level,
			rank,
			last_game,
			last_difficulty,
			last_played_at,
			updated_at,
			created_at
		FROM arcade_profiles
		WHERE user_id = $1
		LIMIT 1`

	var (
		p          domain.PlayerProfile
		lastPlayed sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&p.UserID,
		&p.GamesPlayed,
		&p.Wins,
		&p.Losses,
		&p.Draws,
		&p.Streak,
		&p.StreakType,
		&p.BestStreak,
		&p.Points,
		&p.Level,
		&p.Rank,
		&p.LastGame,
		&p.LastDifficulty,
		&lastPlayed,
		&p.UpdatedAt,
		&p.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select arcade profile: %w", err)
	}
	if lastPlayed.Valid {
		p.LastPlayedAt = lastPlayed.Time
	}
	return &p, nil
}

func (r *postgresRepository) UpsertProfile(ctx context.Context, p *domain.PlayerProfile) error {
	if p == nil {
		return fmt.Errorf("nil arcade profile payload")
	}
	const query = `
		INSERT INTO arcade_profiles (
			user_id,
			games_played,
			wins,
			losses,
			draws,
			streak,
			streak_type,
			best_streak,
			points,
			level,
			rank,
			last_game,
			last_difficulty,
			last_played_at,
			updated_at,
			created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW())
		ON CONFLICT (user_id)
		DO UPDATE SET
			games_played = EXCLUDED.games_played,
			wins = EXCLUDED.wins,
			losses = EXCLUDED.losses,
			draws = EXCLUDED.draws,
			streak = EXCLUDED.streak,
			streak_type = EXCLUDED.streak_type,
			best_streak = EXCLUDED.best_streak,
			points = EXCLUDED.points,
			level = EXCLUDED.level,
			rank = EXCLUDED.rank,
			last_game = EXCLUDED.last_game,
			last_difficulty = EXCLUDED.last_difficulty,
			last_played_at = EXCLUDED.last_played_at,
			updated_at = NOW()`

	_, err := r.db.ExecContext(
		ctx,
		query,
		p.UserID,
		p.GamesPlayed,
		p.Wins,
		p.Losses,
		p.Draws,
		p.Streak,
		p.StreakType,
		p.BestStreak,
		p.Points,
		p.Level,
		p.Rank,
		p.LastGame,
		p.LastDifficulty,
		nullTime(p.LastPlayedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert arcade profile: %w", err)
	}
	return nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
