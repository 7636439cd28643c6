package kds

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/yeremiapane/pizzeria-app/models"
	"github.com/yeremiapane/pizzeria-app/utils"
)

// Event types
const (
	EventOrderUpdate   = "order_update"
	EventStockUpdate   = "stock_update"
	EventLowStock      = "low_stock"
	EventDashboardStat = "dashboard_update"
)

const writeWait = 5 * time.Second

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub menampung semua client KDS (chef, staff, admin)
type Hub struct {
	clients map[*websocket.Conn]string // conn -> role
	mutex   sync.Mutex
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]string)}
}

// Register -> menambahkan connection dengan role
func (h *Hub) Register(conn *websocket.Conn, role string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.clients[conn] = role
	utils.InfoLogger.WithField("role", role).Debug("kds client connected")
}

// Unregister -> melepaskan connection
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		conn.Close()
	}
}

func (h *Hub) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

// OrderUpdated -> order baru atau perubahan status
func (h *Hub) OrderUpdated(order models.Order) {
	h.Broadcast(Message{Event: EventOrderUpdate, Data: order})
}

// LowStock -> bahan yang hampir habis
func (h *Hub) LowStock(items []models.Ingredient) {
	h.Broadcast(Message{Event: EventLowStock, Data: items})
}

// StockUpdated -> restock atau perubahan data bahan
func (h *Hub) StockUpdated(item models.Ingredient) {
	h.Broadcast(Message{Event: EventStockUpdate, Data: item})
}

// DashboardUpdate -> statistik order terbaru untuk dashboard admin
func (h *Hub) DashboardUpdate(data interface{}) {
	h.Broadcast(Message{Event: EventDashboardStat, Data: data})
}

// Broadcast sends msg to every client. Clients that fail to receive are dropped.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		utils.ErrorLogger.WithError(err).Error("kds: marshal message")
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	for conn, role := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			utils.InfoLogger.WithError(err).WithField("role", role).Warn("kds: dropping client")
			delete(h.clients, conn)
			conn.Close()
		}
	}
	utils.InfoLogger.WithField("event", msg.Event).Debugf("broadcast to %d clients", len(h.clients))
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
}
