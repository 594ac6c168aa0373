package handlers

import (
	"assetmap/models"
	"context"
	"log/slog"
	"sync"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

type Client struct {
	Conn *websocket.Conn
	ID   string
}

// 클라이언트 관리자
type ClientManager struct {
	clients    map[*websocket.Conn]*Client
	broadcast  chan models.WebSocketMessage
	register   chan *Client
	unregister chan *websocket.Conn
	done       chan struct{}
	mutex      sync.RWMutex
	logger     *slog.Logger
}

func NewClientManager(logger *slog.Logger) *ClientManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &ClientManager{
		clients:    make(map[*websocket.Conn]*Client),
		broadcast:  make(chan models.WebSocketMessage, 256),
		register:   make(chan *Client),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// 클라이언트 관리 시작
func (manager *ClientManager) Start(ctx context.Context) {
	defer close(manager.done)
	for {
		select {
		case <-ctx.Done():
			manager.closeAll()
			return

		case client := <-manager.register:
			manager.mutex.Lock()
			manager.clients[client.Conn] = client
			manager.mutex.Unlock()
			manager.logger.Info("클라이언트 등록", "client_id", client.ID, "remote", client.Conn.RemoteAddr().String())

		case conn := <-manager.unregister:
			manager.remove(conn)

		case message := <-manager.broadcast:
			manager.handleBroadcast(message)
		}
	}
}

func (manager *ClientManager) handleBroadcast(message models.WebSocketMessage) {
	var failed []*websocket.Conn

	manager.mutex.RLock()
	for conn, client := range manager.clients {
		if err := conn.WriteJSON(message); err != nil {
			manager.logger.Warn("전송 실패", "client_id", client.ID, "error", err)
			failed = append(failed, conn)
		}
	}
	manager.mutex.RUnlock()

	for _, conn := range failed {
		manager.remove(conn)
	}
}

func (manager *ClientManager) remove(conn *websocket.Conn) {
	manager.mutex.Lock()
	defer manager.mutex.Unlock()

	if client, ok := manager.clients[conn]; ok {
		delete(manager.clients, conn)
		_ = conn.Close()
		manager.logger.Info("클라이언트 해제", "client_id", client.ID)
	}
}

func (manager *ClientManager) closeAll() {
	manager.mutex.Lock()
	defer manager.mutex.Unlock()

	for conn := range manager.clients {
		_ = conn.Close()
	}
	clear(manager.clients)
}

// BroadcastMessage queues msg for every client. It never blocks; when the
// queue is full the message is dropped.
func (manager *ClientManager) BroadcastMessage(msg models.WebSocketMessage) {
	select {
	case manager.broadcast <- msg:
	default:
		manager.logger.Warn("브로드캐스트 큐 가득 참, 메시지 버림", "type", msg.Type)
	}
}

func (manager *ClientManager) GetClientCount() int {
	manager.mutex.RLock()
	defer manager.mutex.RUnlock()
	return len(manager.clients)
}

// Register hands conn to the hub. After this only the hub writes to conn.
// It reports false when the hub has stopped.
func (manager *ClientManager) Register(conn *websocket.Conn) (*Client, bool) {
	client := &Client{Conn: conn, ID: uuid.New().String()}
	select {
	case manager.register <- client:
		return client, true
	case <-manager.done:
		return nil, false
	}
}

func (manager *ClientManager) Unregister(conn *websocket.Conn) {
	select {
	case manager.unregister <- conn:
	case <-manager.done:
	}
}
