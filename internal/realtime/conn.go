package realtime

import (
	"context"
	"time"

	"github.com/gorilla/websocket"

	"label-cabinet/backstage/internal/logging"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxFrameSize   = 4096
	controlBacklog = 16
)

// ClientFrame is a message sent by a WebSocket client.
type ClientFrame struct {
	Action string    `json:"action"`
	Table  string    `json:"table,omitempty"`
	Event  EventType `json:"event,omitempty"`
	Filter string    `json:"filter,omitempty"`
	ID     string    `json:"id,omitempty"`
	Ref    string    `json:"ref,omitempty"`
}

// ControlFrame acknowledges or rejects a client frame.
type ControlFrame struct {
	Type    string `json:"type"`
	ID      string `json:"id,omitempty"`
	Ref     string `json:"ref,omitempty"`
	Message string `json:"message,omitempty"`
}

// Serve runs a WebSocket session for one principal until the client
// disconnects or ctx is cancelled. It owns and closes conn.
func Serve(ctx context.Context, conn *websocket.Conn, hub *Hub, userID string, staff bool) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sub := hub.Register(userID, staff)
	defer hub.Unregister(sub)

	control := make(chan ControlFrame, controlBacklog)
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		writeLoop(ctx, conn, sub, control)
		// Unblocks the reader.
		conn.Close()
	}()

	readLoop(ctx, conn, hub, sub, control)
	cancel()
	<-writerDone
}

func readLoop(ctx context.Context, conn *websocket.Conn, hub *Hub, sub *Subscriber, control chan<- ControlFrame) {
	conn.SetReadLimit(maxFrameSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var frame ClientFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Debug("Realtime read failed", "user_id", sub.UserID, "error", err)
			}
			return
		}

		reply := handleFrame(hub, sub, frame)
		select {
		case control <- reply:
		case <-ctx.Done():
			return
		}
	}
}

func handleFrame(hub *Hub, sub *Subscriber, frame ClientFrame) ControlFrame {
	switch frame.Action {
	case "subscribe":
		id, err := hub.Subscribe(sub, frame.Table, frame.Event, frame.Filter)
		if err != nil {
			return ControlFrame{Type: "error", Ref: frame.Ref, Message: err.Error()}
		}
		return ControlFrame{Type: "ack", ID: id, Ref: frame.Ref}
	case "unsubscribe":
		if !hub.Unsubscribe(sub, frame.ID) {
			return ControlFrame{Type: "error", ID: frame.ID, Ref: frame.Ref, Message: "unknown subscription"}
		}
		return ControlFrame{Type: "ack", ID: frame.ID, Ref: frame.Ref}
	case "ping":
		return ControlFrame{Type: "pong", Ref: frame.Ref}
	default:
		return ControlFrame{Type: "error", Ref: frame.Ref, Message: "unknown action"}
	}
}

func writeLoop(ctx context.Context, conn *websocket.Conn, sub *Subscriber, control <-chan ControlFrame) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			if err := writeJSON(conn, ev); err != nil {
				return
			}
		case frame := <-control:
			if err := writeJSON(conn, frame); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func writeJSON(conn *websocket.Conn, v any) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}
