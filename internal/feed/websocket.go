package feed

import (
    "context"
    "errors"
    "net/http"
    "strings"
    "sync"
    "time"

    "nhooyr.io/websocket"
    "nhooyr.io/websocket/wsjson"
)

type State int

const (
    StateDisconnected State = iota
    StateConnecting
    StateConnected
    StateReconnecting
    StateFailed
)

func (s State) String() string {
    switch s {
    case StateConnecting:
        return "connecting"
    case StateConnected:
        return "connected"
    case StateReconnecting:
        return "reconnecting"
    case StateFailed:
        return "failed"
    default:
        return "disconnected"
    }
}

var ErrNotConnected = errors.New("feed websocket not connected")

// Message is an inbound frame from the feed server.
type Message struct {
    Type      string `json:"type"`
    SessionID string `json:"session_id,omitempty"`
    Data      string `json:"data,omitempty"`
}

type MessageCallback func(msg *Message)

type StateCallback func(state State)

// HeaderProvider allows injecting handshake headers (e.g. Authorization).
type HeaderProvider func() map[string]string

type callbackEntry struct {
    id       int
    callback MessageCallback
}

type stateCallbackEntry struct {
    id       int
    callback StateCallback
}

// WebSocket is a reconnecting client connection to the feed server.
type WebSocket struct {
    wsURL string

    conn   *websocket.Conn
    state  State
    stateM sync.RWMutex
    writeM sync.Mutex

    msgCbs   []callbackEntry
    stateCbs []stateCallbackEntry
    nextCbID int
    cbM      sync.RWMutex

    maxReconnectAttempts int
    reconnectDelay       time.Duration
    pingInterval         time.Duration

    stopCh   chan struct{}
    stopOnce sync.Once
    wg       sync.WaitGroup

    rootCtx    context.Context
    rootCancel context.CancelFunc

    headerProvider HeaderProvider
}

func NewWebSocket(wsURL string, maxReconnectAttempts int, reconnectDelay time.Duration) *WebSocket {
    if reconnectDelay <= 0 {
        reconnectDelay = 100 * time.Millisecond
    }
    rootCtx, rootCancel := context.WithCancel(context.Background())
    return &WebSocket{
        wsURL:                wsURL,
        state:                StateDisconnected,
        maxReconnectAttempts: maxReconnectAttempts,
        reconnectDelay:       reconnectDelay,
        pingInterval:         30 * time.Second,
        stopCh:               make(chan struct{}),
        rootCtx:              rootCtx,
        rootCancel:           rootCancel,
    }
}

func (ws *WebSocket) Connect(ctx context.Context) error {
    st := ws.State()
    if st == StateConnected || st == StateConnecting {
        return nil
    }
    ws.setState(StateConnecting)

    conn, err := ws.dial(ctx)
    if err != nil {
        ws.setState(StateFailed)
        ws.scheduleReconnect()
        return err
    }
    ws.attach(conn)
    return nil
}

func (ws *WebSocket) dial(ctx context.Context) (*websocket.Conn, error) {
    dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
    defer cancel()
    conn, _, err := websocket.Dial(dialCtx, ws.wsURL, &websocket.DialOptions{
        CompressionMode: websocket.CompressionNoContextTakeover,
        HTTPHeader:      ws.buildHeaders(),
    })
    return conn, err
}

func (ws *WebSocket) attach(conn *websocket.Conn) {
    ws.stateM.Lock()
    ws.conn = conn
    ws.stateM.Unlock()
    ws.setState(StateConnected)

    ws.wg.Add(2)
    go ws.listen(conn)
    go ws.pingLoop(conn)
}

func (ws *WebSocket) listen(conn *websocket.Conn) {
    defer ws.wg.Done()
    for {
        var msg Message
        if err := wsjson.Read(ws.rootCtx, conn, &msg); err != nil {
            if ws.isStopping() {
                return
            }
            ws.dropConn(conn, websocket.StatusGoingAway, "reconnect")
            return
        }

        ws.cbM.RLock()
        callbacks := make([]callbackEntry, len(ws.msgCbs))
        copy(callbacks, ws.msgCbs)
        ws.cbM.RUnlock()
        for _, entry := range callbacks {
            if entry.callback != nil {
                entry.callback(&msg)
            }
        }
    }
}

func (ws *WebSocket) pingLoop(conn *websocket.Conn) {
    defer ws.wg.Done()
    t := time.NewTicker(ws.pingInterval)
    defer t.Stop()
    failures := 0
    for {
        select {
        case <-ws.stopCh:
            return
        case <-t.C:
            if ws.current() != conn {
                return
            }
            ctx, cancel := context.WithTimeout(ws.rootCtx, 3*time.Second)
            err := conn.Ping(ctx)
            cancel()
            if err == nil {
                failures = 0
                continue
            }
            failures++
            if failures >= 2 {
                if !ws.isStopping() {
                    ws.dropConn(conn, websocket.StatusGoingAway, "ping failure")
                }
                return
            }
        }
    }
}

// dropConn closes conn if it is still the active one and starts reconnecting.
func (ws *WebSocket) dropConn(conn *websocket.Conn, code websocket.StatusCode, reason string) {
    ws.stateM.Lock()
    if ws.conn != conn {
        ws.stateM.Unlock()
        return
    }
    ws.conn = nil
    ws.stateM.Unlock()
    _ = conn.Close(code, reason)
    ws.setState(StateDisconnected)
    ws.scheduleReconnect()
}

func (ws *WebSocket) scheduleReconnect() {
    if ws.maxReconnectAttempts <= 0 || ws.isStopping() {
        return
    }
    ws.setState(StateReconnecting)

    go func() {
        for attempt := 1; attempt <= ws.maxReconnectAttempts; attempt++ {
            select {
            case <-ws.stopCh:
                return
            case <-time.After(ws.backoff(attempt)):
            }
            conn, err := ws.dial(ws.rootCtx)
            if err != nil {
                continue
            }
            if ws.isStopping() {
                _ = conn.Close(websocket.StatusNormalClosure, "close")
                return
            }
            ws.attach(conn)
            return
        }
        ws.setState(StateFailed)
    }()
}

func (ws *WebSocket) backoff(attempt int) time.Duration {
    if attempt > 6 {
        attempt = 6
    }
    return time.Duration(1<<uint(attempt-1)) * ws.reconnectDelay
}

// WriteJSON sends v as one text frame. Writes are serialised.
func (ws *WebSocket) WriteJSON(ctx context.Context, v any) error {
    conn := ws.current()
    if conn == nil || ws.State() != StateConnected {
        return ErrNotConnected
    }
    if _, ok := ctx.Deadline(); !ok {
        var cancel context.CancelFunc
        ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
        defer cancel()
    }
    ws.writeM.Lock()
    defer ws.writeM.Unlock()
    return wsjson.Write(ctx, conn, v)
}

func (ws *WebSocket) OnMessage(cb MessageCallback) int {
    ws.cbM.Lock()
    defer ws.cbM.Unlock()
    ws.nextCbID++
    ws.msgCbs = append(ws.msgCbs, callbackEntry{id: ws.nextCbID, callback: cb})
    return ws.nextCbID
}

func (ws *WebSocket) RemoveMessageCallback(id int) {
    ws.cbM.Lock()
    defer ws.cbM.Unlock()
    for i, cb := range ws.msgCbs {
        if cb.id == id {
            ws.msgCbs = append(ws.msgCbs[:i], ws.msgCbs[i+1:]...)
            break
        }
    }
}

func (ws *WebSocket) OnStateChange(cb StateCallback) int {
    ws.cbM.Lock()
    defer ws.cbM.Unlock()
    ws.nextCbID++
    ws.stateCbs = append(ws.stateCbs, stateCallbackEntry{id: ws.nextCbID, callback: cb})
    return ws.nextCbID
}

func (ws *WebSocket) State() State {
    ws.stateM.RLock()
    defer ws.stateM.RUnlock()
    return ws.state
}

func (ws *WebSocket) current() *websocket.Conn {
    ws.stateM.RLock()
    defer ws.stateM.RUnlock()
    return ws.conn
}

func (ws *WebSocket) setState(state State) {
    ws.stateM.Lock()
    ws.state = state
    ws.stateM.Unlock()

    ws.cbM.RLock()
    callbacks := make([]stateCallbackEntry, len(ws.stateCbs))
    copy(callbacks, ws.stateCbs)
    ws.cbM.RUnlock()
    for _, entry := range callbacks {
        if entry.callback != nil {
            entry.callback(state)
        }
    }
}

func (ws *WebSocket) Close(ctx context.Context) error {
    ws.stopOnce.Do(func() { close(ws.stopCh) })
    ws.stateM.Lock()
    conn := ws.conn
    ws.conn = nil
    ws.stateM.Unlock()
    if conn != nil {
        _ = conn.Close(websocket.StatusNormalClosure, "close")
    }
    ws.rootCancel()

    done := make(chan struct{})
    go func() {
        ws.wg.Wait()
        close(done)
    }()

    select {
    case <-ctx.Done():
        return ctx.Err()
    case <-done:
        ws.setState(StateDisconnected)
        return nil
    }
}

func (ws *WebSocket) isStopping() bool {
    select {
    case <-ws.stopCh:
        return true
    default:
        return false
    }
}

// SetHeaderProvider allows injecting headers into the WS handshake.
func (ws *WebSocket) SetHeaderProvider(h HeaderProvider) {
    ws.headerProvider = h
}

func (ws *WebSocket) buildHeaders() http.Header {
    hdr := http.Header{}
    if ws.headerProvider == nil {
        return hdr
    }
    for k, v := range ws.headerProvider() {
        if strings.TrimSpace(k) == "" || strings.TrimSpace(v) == "" {
            continue
        }
        hdr.Set(k, v)
    }
    return hdr
}
