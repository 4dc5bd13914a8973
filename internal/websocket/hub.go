package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// MessageType определяет типы событий
type MessageType string

const (
	// Системные типы
	TypePing  MessageType = "ping"
	TypePong  MessageType = "pong"
	TypeError MessageType = "error"

	// События профиля
	TypeUserUpdated MessageType = "user_updated"
	TypeAgeVerified MessageType = "age_verified"
)

type Message struct {
	Type      MessageType     `json:"type"`
	Address   string          `json:"address,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

type Client struct {
	ID      uuid.UUID
	Address string
	Conn    *websocket.Conn
	Send    chan []byte
	Hub     *Hub
}

type Hub struct {
	clients map[uuid.UUID]*Client

	// Соединения по адресу (один пользователь может открыть несколько вкладок)
	userClients map[string]map[uuid.UUID]*Client

	register   chan *Client
	unregister chan *Client

	mu  sync.RWMutex
	log *zap.Logger

	// Контекст для graceful shutdown
	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub создает новый Hub
func NewHub(log *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:     make(map[uuid.UUID]*Client),
		userClients: make(map[string]map[uuid.UUID]*Client),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		log:         log,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Run запускает hub
func (h *Hub) Run() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case <-ticker.C:
			h.ping()
		}
	}
}

// Stop останавливает hub
func (h *Hub) Stop() {
	h.cancel()

	h.mu.Lock()
	defer h.mu.Unlock()

	for id, client := range h.clients {
		close(client.Send)
		if client.Conn != nil {
			client.Conn.Close()
		}
		delete(h.clients, id)
	}
	h.userClients = make(map[string]map[uuid.UUID]*Client)
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.ctx.Done():
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client

	if _, ok := h.userClients[client.Address]; !ok {
		h.userClients[client.Address] = make(map[uuid.UUID]*Client)
	}
	h.userClients[client.Address][client.ID] = client

	h.log.Debug("client registered", zap.String("client_id", client.ID.String()), zap.String("address", client.Address))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}

	if userClients, ok := h.userClients[client.Address]; ok {
		delete(userClients, client.ID)
		if len(userClients) == 0 {
			delete(h.userClients, client.Address)
		}
	}

	delete(h.clients, client.ID)
	close(client.Send)

	h.log.Debug("client unregistered", zap.String("client_id", client.ID.String()), zap.String("address", client.Address))
}

// SendToUser отправляет сообщение во все соединения адреса
func (h *Hub) SendToUser(address string, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.userClients[address] {
		select {
		case client.Send <- message:
		default:
			// клиент не успевает читать, отключаем его
			h.log.Warn("dropping slow client", zap.String("client_id", client.ID.String()), zap.Error(ErrClientQueueFull))
			go h.Unregister(client)
		}
	}
}

// NotifyUser сериализует событие и рассылает его владельцу адреса
func (h *Hub) NotifyUser(address string, event string, payload interface{}) {
	msg := Message{
		Type:      MessageType(event),
		Address:   address,
		Timestamp: time.Now(),
	}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			h.log.Error("failed to marshal notification", zap.String("event", event), zap.Error(err))
			return
		}
		msg.Data = data
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	h.SendToUser(address, data)
}

// IsOnline есть ли у адреса хотя бы одно соединение
func (h *Hub) IsOnline(address string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.userClients[address]) > 0
}

func (h *Hub) ping() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	msg := Message{
		Type:      TypePing,
		Timestamp: time.Now(),
	}

	if data, err := json.Marshal(msg); err == nil {
		for _, client := range h.clients {
			select {
			case client.Send <- data:
			default:
			}
		}
	}
}
