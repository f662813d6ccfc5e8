package arcade

import (
    "context"
    "errors"
    "fmt"
    "testing"
    "time"

    miniredis "github.com/alicebob/miniredis/v2"

    "github.com/park285/pixelcv-arcade/internal/session"
)

func newTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
    t.Helper()
    mr, err := miniredis.Run()
    if err != nil { t.Fatalf("miniredis: %v", err) }
    t.Cleanup(func() { mr.Close() })
    st, err := NewRedisStore(fmt.Sprintf("redis://%s/0", mr.Addr()), time.Hour)
    if err != nil { t.Fatalf("NewRedisStore: %v", err) }
    t.Cleanup(func() { _ = st.Close() })
    return st, mr
}

func storedSession(id, user string, version int64) *StoredSession {
    return &StoredSession{
        UserID:     user,
        Difficulty: "medium",
        Version:    version,
        Snapshot:   session.Snapshot{ID: id, GameID: "tictactoe", State: "player_turn", MoveCount: int(version)},
    }
}

func TestRedisStore_SaveLoadDelete(t *testing.T) {
    st, mr := newTestStore(t)
    ctx := context.Background()

    if err := st.Save(ctx, storedSession("s1", "u1", 1)); err != nil { t.Fatalf("Save: %v", err) }
    got, err := st.Load(ctx, "s1")
    if err != nil || got == nil { t.Fatalf("Load: %v %v", got, err) }
    if got.UserID != "u1" || got.Version != 1 || got.Snapshot.GameID != "tictactoe" {
        t.Fatalf("unexpected stored session: %+v", got)
    }
    if ttl := mr.TTL(sessionKey("s1")); ttl != time.Hour {
        t.Fatalf("session ttl = %v, want 1h", ttl)
    }
    if ok, _ := mr.SIsMember(idxUserKey("u1"), "s1"); !ok {
        t.Fatalf("session missing from user index")
    }

    if err := st.Delete(ctx, "s1", "u1"); err != nil { t.Fatalf("Delete: %v", err) }
    got, err = st.Load(ctx, "s1")
    if err != nil || got != nil { t.Fatalf("Load after delete: %v %v", got, err) }
    ids, err := st.ListByUser(ctx, "u1")
    if err != nil || len(ids) != 0 { t.Fatalf("ListByUser after delete: %v %v", ids, err) }
}

func TestRedisStore_RejectsStaleVersion(t *testing.T) {
    st, _ := newTestStore(t)
    ctx := context.Background()

    if err := st.Save(ctx, storedSession("s1", "u1", 3)); err != nil { t.Fatalf("Save v3: %v", err) }
    err := st.Save(ctx, storedSession("s1", "u1", 2))
    if !errors.Is(err, ErrStaleSnapshot) { t.Fatalf("Save v2 err = %v, want ErrStaleSnapshot", err) }
    err = st.Save(ctx, storedSession("s1", "u1", 3))
    if !errors.Is(err, ErrStaleSnapshot) { t.Fatalf("Save same version err = %v, want ErrStaleSnapshot", err) }
    if err := st.Save(ctx, storedSession("s1", "u1", 4)); err != nil { t.Fatalf("Save v4: %v", err) }

    got, _ := st.Load(ctx, "s1")
    if got.Version != 4 || got.Snapshot.MoveCount != 4 { t.Fatalf("stored version = %d", got.Version) }
}

func TestRedisStore_ListByUserDropsExpired(t *testing.T) {
    st, mr := newTestStore(t)
    ctx := context.Background()

    if err := st.Save(ctx, storedSession("s1", "u1", 1)); err != nil { t.Fatalf("Save: %v", err) }
    if err := st.Save(ctx, storedSession("s2", "u1", 1)); err != nil { t.Fatalf("Save: %v", err) }
    mr.Del(sessionKey("s1"))

    ids, err := st.ListByUser(ctx, "u1")
    if err != nil { t.Fatalf("ListByUser: %v", err) }
    if len(ids) != 1 || ids[0] != "s2" { t.Fatalf("ids = %v, want [s2]", ids) }
    if ok, _ := mr.SIsMember(idxUserKey("u1"), "s1"); ok {
        t.Fatalf("expired session still indexed")
    }

    mr.FastForward(2 * time.Hour)
    ids, err = st.ListByUser(ctx, "u1")
    if err != nil || len(ids) != 0 { t.Fatalf("after ttl: %v %v", ids, err) }
}

func TestParseRedisURL(t *testing.T) {
    opts, err := parseRedisURL("redis://:secret@localhost:6380/2")
    if err != nil { t.Fatalf("parseRedisURL: %v", err) }
    if opts.Addr != "localhost:6380" || opts.Password != "secret" || opts.DB != 2 {
        t.Fatalf("unexpected options: %+v", opts)
    }
    if _, err := parseRedisURL("http://localhost:6379"); err == nil {
        t.Fatalf("expected scheme error")
    }
    if _, err := parseRedisURL("redis://localhost:6379/x"); err == nil {
        t.Fatalf("expected db error")
    }
    if _, err := NewRedisStore(" ", time.Hour); err == nil {
        t.Fatalf("expected error for empty url")
    }
}

func TestMemoryStore_Versions(t *testing.T) {
    st := NewMemoryStore()
    ctx := context.Background()
    if err := st.Save(ctx, storedSession("s1", "u1", 2)); err != nil { t.Fatalf("Save: %v", err) }
    if err := st.Save(ctx, storedSession("s1", "u1", 1)); !errors.Is(err, ErrStaleSnapshot) {
        t.Fatalf("err = %v, want ErrStaleSnapshot", err)
    }
    ids, _ := st.ListByUser(ctx, "u1")
    if len(ids) != 1 { t.Fatalf("ids = %v", ids) }
}
