package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"lawconnect/internal/models"
)

// WebSocketConfig 控制每條連線的緩衝與逾時
type WebSocketConfig struct {
	SendBuffer     int
	MaxMessageSize int64
	PongWait       time.Duration
	WriteWait      time.Duration
}

func DefaultWebSocketConfig() WebSocketConfig {
	return WebSocketConfig{
		SendBuffer:     256,
		MaxMessageSize: 16 * 1024,
		PongWait:       60 * time.Second,
		WriteWait:      10 * time.Second,
	}
}

// pingPeriod 必須小於 PongWait
func (c WebSocketConfig) pingPeriod() time.Duration {
	return c.PongWait * 9 / 10
}

// UserRoom 是使用者的私人房間，不論從哪條連線都能點對點送達
func UserRoom(userID string) string {
	return "user:" + userID
}

// ChatRoom 是聊天室在即時層的房間鍵
func ChatRoom(chatRoomID string) string {
	return "chat:" + chatRoomID
}

// EventHandler 處理單一連線送來的一個事件
type EventHandler func(ctx context.Context, client *Client, data json.RawMessage) error

// Client 代表一個 WebSocket 客戶端連接
type Client struct {
	ID       string          // 連線 ID
	Identity models.Identity // 通過驗證後附加的身分
	conn     *websocket.Conn
	send     chan []byte         // 消息發送通道，由 writePump 消化
	rooms    map[string]struct{} // 受 WebSocketManager.mu 保護
}

// WebSocketManager 管理所有連線、房間成員與事件分派
type WebSocketManager struct {
	mu       sync.RWMutex
	clients  map[string]*Client
	rooms    map[string]map[*Client]struct{}
	handlers map[string]EventHandler
	closed   bool

	// presenceMu 讓「變更在線名單 + 廣播快照」成為不可分割的一步，客戶端最後收到的一定是最新名單
	presenceMu sync.Mutex
	presence   *PresenceRegistry

	wg     sync.WaitGroup
	cfg    WebSocketConfig
	logger *slog.Logger
}

// NewWebSocketManager 創建並初始化 WebSocket 管理器
func NewWebSocketManager(presence *PresenceRegistry, cfg WebSocketConfig, logger *slog.Logger) *WebSocketManager {
	return &WebSocketManager{
		clients:  make(map[string]*Client),
		rooms:    make(map[string]map[*Client]struct{}),
		handlers: make(map[string]EventHandler),
		presence: presence,
		cfg:      cfg,
		logger:   logger,
	}
}

// On 註冊事件處理器，需在開始接受連線前完成
func (m *WebSocketManager) On(event string, handler EventHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[event] = handler
}

func (m *WebSocketManager) Presence() *PresenceRegistry {
	return m.presence
}

// HandleConnection 接手一條已通過驗證的連線，直到連線結束才返回
func (m *WebSocketManager) HandleConnection(ctx context.Context, conn *websocket.Conn, identity models.Identity) {
	client := &Client{
		ID:       uuid.NewString(),
		Identity: identity,
		conn:     conn,
		send:     make(chan []byte, m.cfg.SendBuffer),
		rooms:    make(map[string]struct{}),
	}

	if !m.register(client) {
		conn.Close()
		return
	}
	defer m.wg.Done()

	m.logger.Info("client connected", "conn_id", client.ID, "user_id", identity.ID)

	writeDone := make(chan struct{})
	go func() {
		defer close(writeDone)
		m.writePump(client)
	}()

	m.updatePresence(func(p *PresenceRegistry) {
		p.Add(models.OnlineUser{Identity: identity, ConnectionID: client.ID})
	})

	m.readPump(ctx, client)

	m.unregister(client)
	m.updatePresence(func(p *PresenceRegistry) {
		p.Remove(client.ID)
	})
	<-writeDone

	m.logger.Info("client disconnected", "conn_id", client.ID, "user_id", identity.ID)
}

// register 加入連線並自動加入私人房間；管理器關閉後回傳 false
func (m *WebSocketManager) register(client *Client) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return false
	}
	m.wg.Add(1)
	m.clients[client.ID] = client
	m.joinLocked(client, UserRoom(client.Identity.ID))
	return true
}

// unregister 移除連線與其所有房間成員資格，並關閉發送通道
func (m *WebSocketManager) unregister(client *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.clients[client.ID]; !ok {
		return
	}
	delete(m.clients, client.ID)
	for room := range client.rooms {
		m.leaveLocked(client, room)
	}
	close(client.send)
}

func (m *WebSocketManager) updatePresence(mutate func(p *PresenceRegistry)) {
	m.presenceMu.Lock()
	defer m.presenceMu.Unlock()

	mutate(m.presence)
	m.Broadcast(EventOnlineUsers, ToOnlineUsersPayload(m.presence.List()))
}

// Join 讓連線加入房間
func (m *WebSocketManager) Join(client *Client, room string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.clients[client.ID]; !ok {
		return
	}
	m.joinLocked(client, room)
}

// Leave 讓連線離開房間
func (m *WebSocketManager) Leave(client *Client, room string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leaveLocked(client, room)
}

func (m *WebSocketManager) joinLocked(client *Client, room string) {
	if m.rooms[room] == nil {
		m.rooms[room] = make(map[*Client]struct{})
	}
	m.rooms[room][client] = struct{}{}
	client.rooms[room] = struct{}{}
}

func (m *WebSocketManager) leaveLocked(client *Client, room string) {
	delete(client.rooms, room)
	if members, ok := m.rooms[room]; ok {
		delete(members, client)
		// 房間空了就刪除
		if len(members) == 0 {
			delete(m.rooms, room)
		}
	}
}

// RoomSize 回傳房間內的連線數
func (m *WebSocketManager) RoomSize(room string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms[room])
}

// ConnectionCount 回傳目前的連線數
func (m *WebSocketManager) ConnectionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// EmitToUser 送到使用者的私人房間
func (m *WebSocketManager) EmitToUser(userID, event string, payload any) {
	m.EmitToRoom(UserRoom(userID), event, payload, "")
}

// EmitToRoom 送給房間內所有連線，exceptConnID 非空時略過該連線
func (m *WebSocketManager) EmitToRoom(room, event string, payload any, exceptConnID string) {
	data, ok := m.encode(event, payload)
	if !ok {
		return
	}

	m.mu.RLock()
	var slow []*Client
	for client := range m.rooms[room] {
		if client.ID == exceptConnID {
			continue
		}
		if !m.enqueue(client, data) {
			slow = append(slow, client)
		}
	}
	m.mu.RUnlock()

	m.dropSlow(slow)
}

// Broadcast 送給所有連線
func (m *WebSocketManager) Broadcast(event string, payload any) {
	data, ok := m.encode(event, payload)
	if !ok {
		return
	}

	m.mu.RLock()
	var slow []*Client
	for _, client := range m.clients {
		if !m.enqueue(client, data) {
			slow = append(slow, client)
		}
	}
	m.mu.RUnlock()

	m.dropSlow(slow)
}

// Send 只送給單一連線
func (m *WebSocketManager) Send(client *Client, event string, payload any) {
	data, ok := m.encode(event, payload)
	if !ok {
		return
	}

	m.mu.RLock()
	_, alive := m.clients[client.ID]
	delivered := !alive || m.enqueue(client, data)
	m.mu.RUnlock()

	if !delivered {
		m.dropSlow([]*Client{client})
	}
}

func (m *WebSocketManager) encode(event string, payload any) ([]byte, bool) {
	raw, err := json.Marshal(payload)
	if err != nil {
		m.logger.Error("message encoding error", "event", event, "error", err)
		return nil, false
	}
	data, err := json.Marshal(Envelope{Event: event, Data: raw})
	if err != nil {
		m.logger.Error("message encoding error", "event", event, "error", err)
		return nil, false
	}
	return data, true
}

// enqueue 呼叫端須持有 m.mu 讀鎖，保證 send 尚未被關閉
func (m *WebSocketManager) enqueue(client *Client, data []byte) bool {
	select {
	case client.send <- data:
		return true
	default:
		return false
	}
}

// dropSlow 客戶端消息隊列已滿，關閉連接；readPump 隨即結束並清理
func (m *WebSocketManager) dropSlow(clients []*Client) {
	for _, client := range clients {
		m.logger.Warn("send queue full, dropping client", "conn_id", client.ID, "user_id", client.Identity.ID)
		client.conn.Close()
	}
}

// readPump 持續監聽並依序分派從客戶端接收的事件
func (m *WebSocketManager) readPump(ctx context.Context, client *Client) {
	if m.cfg.MaxMessageSize > 0 {
		client.conn.SetReadLimit(m.cfg.MaxMessageSize)
	}
	client.conn.SetReadDeadline(time.Now().Add(m.cfg.PongWait))
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(m.cfg.PongWait))
		return nil
	})

	for {
		_, message, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				m.logger.Debug("websocket unexpected close error", "conn_id", client.ID, "error", err)
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(message, &env); err != nil || env.Event == "" {
			m.Send(client, EventError, ErrorPayload{Message: "malformed frame"})
			continue
		}

		m.dispatch(ctx, client, env)
	}
}

func (m *WebSocketManager) dispatch(ctx context.Context, client *Client, env Envelope) {
	m.mu.RLock()
	handler, ok := m.handlers[env.Event]
	m.mu.RUnlock()

	if !ok {
		m.Send(client, EventError, ErrorPayload{Event: env.Event, Message: "unknown event"})
		return
	}

	err := handler(ctx, client, env.Data)
	switch {
	case err == nil:
	case errors.Is(err, ErrInvalidPayload):
		m.logger.Debug("rejected event", "event", env.Event, "conn_id", client.ID, "error", err)
		m.Send(client, EventError, ErrorPayload{Event: env.Event, Message: err.Error()})
	default:
		// 其餘失敗只記錄，不通知發送者
		m.logger.Error("event handler failed", "event", env.Event, "conn_id", client.ID, "user_id", client.Identity.ID, "error", err)
	}
}

// writePump 處理向客戶端發送消息與心跳
func (m *WebSocketManager) writePump(client *Client) {
	ticker := time.NewTicker(m.cfg.pingPeriod())
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(m.cfg.WriteWait))
			if !ok {
				client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(m.cfg.WriteWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Close 關閉所有連線並等待每條連線清理完畢
func (m *WebSocketManager) Close(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	clients := make([]*Client, 0, len(m.clients))
	for _, client := range m.clients {
		clients = append(clients, client)
	}
	m.mu.Unlock()

	for _, client := range clients {
		client.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		client.conn.Close()
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
