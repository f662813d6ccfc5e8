package arcade

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "net/url"
    "sort"
    "strconv"
    "strings"
    "sync"
    "time"

    "github.com/redis/go-redis/v9"

    "github.com/park285/pixelcv-arcade/internal/session"
)

const DefaultSessionTTL = 24 * time.Hour

// ErrStaleSnapshot is returned when a newer version of the session is already stored.
var ErrStaleSnapshot = errors.New("stale session snapshot")

// StoredSession is the persisted form of a live session.
type StoredSession struct {
    UserID     string           `json:"user_id"`
    Difficulty string           `json:"difficulty"`
    Version    int64            `json:"version"`
    Snapshot   session.Snapshot `json:"snapshot"`
    UpdatedAt  time.Time        `json:"updated_at"`
}

// SessionStore persists live sessions so they survive a restart.
type SessionStore interface {
    Save(ctx context.Context, rec *StoredSession) error
    Load(ctx context.Context, id string) (*StoredSession, error)
    Delete(ctx context.Context, id, userID string) error
    ListByUser(ctx context.Context, userID string) ([]string, error)
    Close() error
}

type RedisStore struct {
    rdb *redis.Client
    ttl time.Duration
}

func NewRedisStore(redisURL string, ttl time.Duration) (*RedisStore, error) {
    if strings.TrimSpace(redisURL) == "" {
        return nil, fmt.Errorf("REDIS_URL required for session store")
    }
    opts, err := parseRedisURL(redisURL)
    if err != nil { return nil, err }
    rdb := redis.NewClient(opts)
    ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()
    if err := rdb.Ping(ctx).Err(); err != nil {
        _ = rdb.Close()
        return nil, fmt.Errorf("redis ping: %w", err)
    }
    if ttl <= 0 { ttl = DefaultSessionTTL }
    return &RedisStore{rdb: rdb, ttl: ttl}, nil
}

func (s *RedisStore) Close() error {
    if s == nil || s.rdb == nil { return nil }
    return s.rdb.Close()
}

// Save writes the snapshot unless a newer version is already stored.
// 동시에 두 고루틴이 저장할 경우 WATCH로 버전 역전을 막는다.
func (s *RedisStore) Save(ctx context.Context, rec *StoredSession) error {
    if rec == nil || rec.Snapshot.ID == "" { return fmt.Errorf("invalid session snapshot") }
    key := sessionKey(rec.Snapshot.ID)
    raw, err := json.Marshal(rec)
    if err != nil { return err }

    err = s.rdb.Watch(ctx, func(tx *redis.Tx) error {
        cur, err := tx.Get(ctx, key).Bytes()
        if err != nil && err != redis.Nil { return err }
        if err == nil {
            var prev StoredSession
            if jerr := json.Unmarshal(cur, &prev); jerr == nil && prev.Version >= rec.Version {
                return ErrStaleSnapshot
            }
        }
        _, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
            p.Set(ctx, key, raw, s.ttl)
            if strings.TrimSpace(rec.UserID) != "" {
                idx := idxUserKey(rec.UserID)
                p.SAdd(ctx, idx, rec.Snapshot.ID)
                // 인덱스 키 TTL도 세션과 함께 갱신
                p.Expire(ctx, idx, s.ttl)
            }
            return nil
        })
        return err
    }, key)
    if errors.Is(err, redis.TxFailedErr) {
        return ErrStaleSnapshot
    }
    return err
}

func (s *RedisStore) Load(ctx context.Context, id string) (*StoredSession, error) {
    raw, err := s.rdb.Get(ctx, sessionKey(id)).Bytes()
    if err == redis.Nil { return nil, nil }
    if err != nil { return nil, err }
    var rec StoredSession
    if err := json.Unmarshal(raw, &rec); err != nil { return nil, err }
    return &rec, nil
}

func (s *RedisStore) Delete(ctx context.Context, id, userID string) error {
    _, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
        p.Del(ctx, sessionKey(id))
        if strings.TrimSpace(userID) != "" {
            p.SRem(ctx, idxUserKey(userID), id)
        }
        return nil
    })
    return err
}

// ListByUser returns the user's stored session ids, dropping index entries whose session expired.
func (s *RedisStore) ListByUser(ctx context.Context, userID string) ([]string, error) {
    if strings.TrimSpace(userID) == "" { return nil, nil }
    idx := idxUserKey(userID)
    ids, err := s.rdb.SMembers(ctx, idx).Result()
    if err != nil { return nil, err }
    live := make([]string, 0, len(ids))
    for _, id := range ids {
        n, err := s.rdb.Exists(ctx, sessionKey(id)).Result()
        if err != nil { return nil, err }
        if n == 0 {
            _ = s.rdb.SRem(ctx, idx, id).Err()
            continue
        }
        live = append(live, id)
    }
    sort.Strings(live)
    return live, nil
}

func sessionKey(id string) string    { return "arcade:session:" + strings.TrimSpace(id) }
func idxUserKey(userID string) string { return "arcade:index:user:" + strings.TrimSpace(userID) }

func parseRedisURL(raw string) (*redis.Options, error) {
    u, err := url.Parse(raw)
    if err != nil { return nil, err }
    if u.Scheme != "redis" && u.Scheme != "rediss" { return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme) }
    db := 0
    if p := strings.TrimPrefix(u.Path, "/"); p != "" {
        n, err := strconv.Atoi(p)
        if err != nil { return nil, fmt.Errorf("invalid redis db %q", p) }
        db = n
    }
    pass, _ := u.User.Password()
    return &redis.Options{Addr: u.Host, Password: pass, DB: db}, nil
}

// memoryStore keeps snapshots in process when REDIS_URL is not configured.
type memoryStore struct {
    mu   sync.Mutex
    recs map[string]StoredSession
}

func NewMemoryStore() SessionStore {
    return &memoryStore{recs: make(map[string]StoredSession)}
}

func (m *memoryStore) Save(ctx context.Context, rec *StoredSession) error {
    if rec == nil || rec.Snapshot.ID == "" { return fmt.Errorf("invalid session snapshot") }
    m.mu.Lock()
    defer m.mu.Unlock()
    if prev, ok := m.recs[rec.Snapshot.ID]; ok && prev.Version >= rec.Version {
        return ErrStaleSnapshot
    }
    m.recs[rec.Snapshot.ID] = *rec
    return nil
}

func (m *memoryStore) Load(ctx context.Context, id string) (*StoredSession, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    rec, ok := m.recs[id]
    if !ok { return nil, nil }
    return &rec, nil
}

func (m *memoryStore) Delete(ctx context.Context, id, userID string) error {
    m.mu.Lock()
    delete(m.recs, id)
    m.mu.Unlock()
    return nil
}

func (m *memoryStore) ListByUser(ctx context.Context, userID string) ([]string, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    var ids []string
    for id, rec := range m.recs {
        if rec.UserID == userID { ids = append(ids, id) }
    }
    sort.Strings(ids)
    return ids, nil
}

func (m *memoryStore) Close() error { return nil }
