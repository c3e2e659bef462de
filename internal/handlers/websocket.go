package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/JAGANADITHYA/walk1/internal/metrics"
	"github.com/JAGANADITHYA/walk1/internal/middleware"
	"github.com/JAGANADITHYA/walk1/internal/models"
)

const (
	writeWait    = 10 * time.Second
	sendCapacity = 16
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type LedgerSubscriber interface {
	SubscribeLedgerEvents(ctx context.Context, userID string) (<-chan *models.LedgerEvent, error)
}

type UserGetter interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
}

type WebSocketHandler struct {
	users  UserGetter
	events LedgerSubscriber
	log    *logrus.Entry
}

type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// client owns one connection. Only writePump writes to conn.
type client struct {
	userID string
	conn   *websocket.Conn
	send   chan Message
	ctx    context.Context
	cancel context.CancelFunc
}

func NewWebSocketHandler(users UserGetter, events LedgerSubscriber, log *logrus.Entry) *WebSocketHandler {
	return &WebSocketHandler{
		users:  users,
		events: events,
		log:    log.WithField("component", "websocket"),
	}
}

func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserID)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithError(err).Warn("failed to upgrade to websocket")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	cl := &client{
		userID: userID,
		conn:   conn,
		send:   make(chan Message, sendCapacity),
		ctx:    ctx,
		cancel: cancel,
	}

	metrics.WebsocketConnections.Inc()
	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
		conn.Close()
		metrics.WebsocketConnections.Dec()
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		h.writePump(cl)
	}()

	h.sendBalance(cl)

	if events, err := h.events.SubscribeLedgerEvents(ctx, userID); err != nil {
		h.log.WithError(err).WithField("user_id", userID).Warn("ledger events unavailable")
	} else {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case event, ok := <-events:
					if !ok {
						return
					}
					cl.push(Message{Type: event.Type, Data: event})
				}
			}
		}()
	}

	h.readPump(cl)
}

func (h *WebSocketHandler) readPump(cl *client) {
	for {
		var msg Message
		if err := cl.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.WithError(err).WithField("user_id", cl.userID).Debug("websocket closed")
			}
			return
		}

		switch msg.Type {
		case "PING":
			cl.push(Message{Type: "PONG", Data: gin.H{"timestamp": time.Now().Unix()}})
		case "BALANCE":
			h.sendBalance(cl)
		}
	}
}

func (h *WebSocketHandler) writePump(cl *client) {
	for {
		select {
		case <-cl.ctx.Done():
			cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			cl.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case msg := <-cl.send:
			cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteJSON(msg); err != nil {
				h.log.WithError(err).WithField("user_id", cl.userID).Debug("websocket write failed")
				cl.cancel()
				return
			}
		}
	}
}

func (h *WebSocketHandler) sendBalance(cl *client) {
	user, err := h.users.GetUser(cl.ctx, cl.userID)
	if err != nil {
		h.log.WithError(err).WithField("user_id", cl.userID).Warn("failed to load balance for websocket")
		return
	}

	cl.push(Message{
		Type: models.EventBalanceUpdate,
		Data: models.LedgerEvent{
			Type:    models.EventBalanceUpdate,
			UserID:  user.ID,
			Balance: user.Balance,
			At:      time.Now(),
		},
	})
}

func (cl *client) push(msg Message) {
	select {
	case cl.send <- msg:
	case <-cl.ctx.Done():
	}
}
