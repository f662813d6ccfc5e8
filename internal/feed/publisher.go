package feed

import (
    "context"
    "errors"

    "go.uber.org/zap"

    "github.com/park285/pixelcv-arcade/internal/session"
)

// Frame is the outbound envelope written for each session event.
type Frame struct {
    Type   string        `json:"type"`
    UserID string        `json:"user_id"`
    Event  session.Event `json:"event"`
}

const frameSessionEvent = "session_event"

// Publisher writes session events to the feed websocket.
type Publisher struct {
    ws     *WebSocket
    dryrun bool
    logger *zap.Logger
    msgCb  int
}

func NewPublisher(ws *WebSocket, dryrun bool, logger *zap.Logger) *Publisher {
    if logger == nil {
        logger = zap.NewNop()
    }
    p := &Publisher{ws: ws, dryrun: dryrun, logger: logger}
    if ws != nil {
        p.msgCb = ws.OnMessage(p.handle)
        ws.OnStateChange(func(st State) {
            logger.Info("feed_state", zap.String("state", st.String()))
        })
    }
    return p
}

func (p *Publisher) Publish(ctx context.Context, userID string, ev session.Event) error {
    if p == nil || p.ws == nil {
        return errors.New("feed publisher not available")
    }
    if p.dryrun {
        p.logger.Info("feed_publish_dryrun",
            zap.String("session_id", ev.SessionID),
            zap.String("kind", string(ev.Kind)),
            zap.Uint64("seq", ev.Seq),
        )
        return nil
    }
    return p.ws.WriteJSON(ctx, Frame{Type: frameSessionEvent, UserID: userID, Event: ev})
}

// handle logs acknowledgements and errors sent back by the feed server.
func (p *Publisher) handle(msg *Message) {
    switch msg.Type {
    case "error":
        p.logger.Warn("feed_error", zap.String("session_id", msg.SessionID), zap.String("data", msg.Data))
    default:
        p.logger.Debug("feed_message", zap.String("type", msg.Type), zap.String("session_id", msg.SessionID))
    }
}

func (p *Publisher) Close(ctx context.Context) error {
    if p == nil || p.ws == nil {
        return nil
    }
    p.ws.RemoveMessageCallback(p.msgCb)
    return p.ws.Close(ctx)
}
