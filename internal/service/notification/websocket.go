package notification

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// Hub 按用户维护 websocket 连接, 同时充当实时推送渠道.
// 升级入口由外部 HTTP 层挂载.
type Hub struct {
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[string][]*websocket.Conn
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		conns: make(map[string][]*websocket.Conn),
	}
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userId := r.URL.Query().Get("user_id")
	if userId == "" {
		userId = "anonymous"
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "user_id", userId, "error", err)
		return
	}

	h.add(userId, conn)
	slog.Info("websocket connected", "user_id", userId, "total", h.ConnectionCount())

	// Read loop only to observe the close; clients never send payloads.
	go func() {
		defer func() {
			h.remove(userId, conn)
			_ = conn.Close()
			slog.Info("websocket disconnected", "user_id", userId, "total", h.ConnectionCount())
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) Name() string {
	return "websocket"
}

func (h *Hub) Send(ctx context.Context, payload Payload) error {
	data, err := json.Marshal(map[string]any{
		"type": "alert_notification",
		"data": payload,
	})
	if err != nil {
		return err
	}

	h.mu.Lock()
	conns := append([]*websocket.Conn(nil), h.conns[payload.UserId]...)
	h.mu.Unlock()

	// 没有在线连接不算失败
	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.remove(payload.UserId, conn)
			_ = conn.Close()
		}
	}
	return nil
}

func (h *Hub) ConnectionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	total := 0
	for _, conns := range h.conns {
		total += len(conns)
	}
	return total
}

func (h *Hub) add(userId string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[userId] = append(h.conns[userId], conn)
}

func (h *Hub) remove(userId string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns := h.conns[userId]
	for i, c := range conns {
		if c == conn {
			h.conns[userId] = append(conns[:i], conns[i+1:]...)
			break
		}
	}
	if len(h.conns[userId]) == 0 {
		delete(h.conns, userId)
	}
}
