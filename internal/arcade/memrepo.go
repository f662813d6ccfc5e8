package arcade

import (
    "context"
    "sort"
    "strings"
    "sync"
    "time"

    "github.com/park285/pixelcv-arcade/internal/domain"
)

// memrepo keeps finished games in memory when no DATABASE_URL is configured.
type memrepo struct {
    mu sync.RWMutex

    nextID int64

    gamesByUser    map[string][]*domain.GameRecord // userID -> games, latest last
    gamesBySession map[string]*domain.GameRecord   // sessionID -> game

    profiles map[string]*domain.PlayerProfile
    now      func() time.Time
}

func NewMemoryRepository() Repository {
    return &memrepo{
        gamesByUser:    make(map[string][]*domain.GameRecord),
        gamesBySession: make(map[string]*domain.GameRecord),
        profiles:       make(map[string]*domain.PlayerProfile),
        now:            time.Now,
    }
}

func (m *memrepo) InsertGame(ctx context.Context, rec *domain.GameRecord) (int64, error) {
    if rec == nil {
        return 0, ErrDuplicateGame
    }
    key := strings.TrimSpace(rec.SessionID)

    m.mu.Lock()
    defer m.mu.Unlock()

    if _, exists := m.gamesBySession[key]; exists {
        return 0, ErrDuplicateGame
    }

    m.nextID++
    stored := cloneRecord(rec)
    stored.ID = m.nextID

    m.gamesBySession[key] = stored
    m.gamesByUser[rec.UserID] = append(m.gamesByUser[rec.UserID], stored)
    return stored.ID, nil
}

func (m *memrepo) GetRecentGames(ctx context.Context, userID string, limit int) ([]*domain.GameRecord, error) {
    if limit <= 0 {
        limit = 10
    }
    m.mu.RLock()
    defer m.mu.RUnlock()
    list := m.gamesByUser[userID]
    items := make([]*domain.GameRecord, 0, len(list))
    for _, g := range list {
        items = append(items, cloneRecord(g))
    }
    sort.Slice(items, func(i, j int) bool {
        if !items[i].EndedAt.Equal(items[j].EndedAt) {
            return items[i].EndedAt.After(items[j].EndedAt)
        }
        return items[i].ID > items[j].ID
    })
    if len(items) > limit {
        items = items[:limit]
    }
    return items, nil
}

func (m *memrepo) GetGameBySession(ctx context.Context, sessionID string, userID string) (*domain.GameRecord, error) {
    m.mu.RLock()
    defer m.mu.RUnlock()
    g, ok := m.gamesBySession[strings.TrimSpace(sessionID)]
    if !ok || g.UserID != userID {
        return nil, nil
    }
    return cloneRecord(g), nil
}

func (m *memrepo) GetProfile(ctx context.Context, userID string) (*domain.PlayerProfile, error) {
    m.mu.RLock()
    defer m.mu.RUnlock()
    if p, ok := m.profiles[strings.TrimSpace(userID)]; ok && p != nil {
        copy := *p
        return &copy, nil
    }
    return nil, nil
}

func (m *memrepo) UpsertProfile(ctx context.Context, profile *domain.PlayerProfile) error {
    if profile == nil {
        return nil
    }
    copy := *profile
    now := m.now()
    key := strings.TrimSpace(profile.UserID)

    m.mu.Lock()
    defer m.mu.Unlock()
    if prev, ok := m.profiles[key]; ok && !prev.CreatedAt.IsZero() {
        copy.CreatedAt = prev.CreatedAt
    } else {
        copy.CreatedAt = now
    }
    copy.UpdatedAt = now
    m.profiles[key] = &copy
    return nil
}

func (m *memrepo) Close() error { return nil }

func cloneRecord(rec *domain.GameRecord) *domain.GameRecord {
    copy := *rec
    copy.MovesLog = append([]string(nil), rec.MovesLog...)
    copy.FinalBoard = append([]string(nil), rec.FinalBoard...)
    return &copy
}
