package server

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/diamondlocks/internal/blackjack"
	"github.com/lox/diamondlocks/internal/casino"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096
)

var ErrConnectionClosed = errors.New("connection closed")

// Connection represents a WebSocket connection to one player
type Connection struct {
	conn   *websocket.Conn
	send   chan *Message
	casino *casino.Service
	logger *log.Logger
	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.RWMutex
	user        string
	table       *blackjack.Table
	unsubscribe func()
	closeOnce   sync.Once
}

// NewConnection creates a new connection wrapper
func NewConnection(conn *websocket.Conn, svc *casino.Service, logger *log.Logger) *Connection {
	ctx, cancel := context.WithCancel(context.Background())

	return &Connection{
		conn:   conn,
		send:   make(chan *Message, 256),
		casino: svc,
		logger: logger.WithPrefix("conn"),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins handling the connection
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Done is closed once the connection has shut down
func (c *Connection) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Close closes the connection and stops table updates
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		c.mu.Lock()
		unsubscribe := c.unsubscribe
		c.unsubscribe = nil
		c.mu.Unlock()
		if unsubscribe != nil {
			unsubscribe()
		}
		err = c.conn.Close()
	})
	return err
}

// SendMessage queues a message for the client, closing the connection if the
// client has stopped reading
func (c *Connection) SendMessage(msg *Message) error {
	select {
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
	}

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
		c.logger.Warn("Connection send buffer full, closing connection", "user", c.User())
		_ = c.Close()
		return ErrConnectionClosed
	}
}

// User returns the authenticated username, empty before auth
func (c *Connection) User() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user
}

func (c *Connection) getTable() *blackjack.Table {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.table
}

// readPump handles incoming messages from the client
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("WebSocket read failed", "user", c.User(), "error", err)
			}
			return
		}
		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the client
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Close()
	}()

	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Debug("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}

// handleMessage processes incoming messages from the client
func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug("Received message", "type", msg.Type, "user", c.User())

	switch msg.Type {
	case MessageTypeAuth:
		var data AuthData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError(msg, ErrorCodeInvalidMessage, "Failed to parse auth data")
			return
		}
		c.handleAuth(msg, data)

	case MessageTypeAddChip:
		var data AddChipData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError(msg, ErrorCodeInvalidMessage, "Failed to parse add chip data")
			return
		}
		c.handleAction(msg, func(ctx context.Context, tbl *blackjack.Table) (blackjack.Snapshot, bool, error) {
			return tbl.AddChip(ctx, data.Value)
		})

	case MessageTypeClearBet:
		c.handleAction(msg, accepted((*blackjack.Table).ClearBet))
	case MessageTypeStartGame:
		c.handleAction(msg, accepted((*blackjack.Table).StartGame))
	case MessageTypeHit:
		c.handleAction(msg, accepted((*blackjack.Table).Hit))
	case MessageTypeStand:
		c.handleAction(msg, accepted((*blackjack.Table).Stand))
	case MessageTypeReset:
		c.handleAction(msg, accepted((*blackjack.Table).Reset))

	case MessageTypeCoinFlip:
		var data CoinFlipData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError(msg, ErrorCodeInvalidMessage, "Failed to parse coin flip data")
			return
		}
		c.handleCoinFlip(msg, data)

	case MessageTypeFaucet:
		c.handleFaucet(msg)

	default:
		c.sendError(msg, ErrorCodeUnknownType, "Unknown message type: "+msg.Type.String())
	}
}

type actionFunc func(context.Context, *blackjack.Table) (blackjack.Snapshot, bool, error)

// accepted adapts a table action that has no ignored outcome.
func accepted(fn func(*blackjack.Table, context.Context) (blackjack.Snapshot, error)) actionFunc {
	return func(ctx context.Context, tbl *blackjack.Table) (blackjack.Snapshot, bool, error) {
		snap, err := fn(tbl, ctx)
		return snap, err == nil, err
	}
}

func (c *Connection) reply(req *Message, msgType MessageType, data any) {
	msg, err := NewMessage(msgType, data)
	if err != nil {
		c.logger.Error("Failed to create message", "type", msgType, "error", err)
		return
	}
	if req != nil {
		msg.RequestID = req.RequestID
	}
	_ = c.SendMessage(msg)
}

// sendError sends an error message to the client
func (c *Connection) sendError(req *Message, code, message string) {
	c.reply(req, MessageTypeError, ErrorData{Code: code, Message: message})
}

func (c *Connection) sendState(snap blackjack.Snapshot) {
	c.reply(nil, MessageTypeState, snap)
}

func (c *Connection) handleAuth(req *Message, data AuthData) {
	if current := c.User(); current != "" {
		if current == data.User {
			c.reply(req, MessageTypeAuthResponse, AuthResponseData{Success: true, User: current})
			return
		}
		c.reply(req, MessageTypeAuthResponse, AuthResponseData{Error: "already authenticated as " + current})
		return
	}

	tbl, err := c.casino.Table(c.ctx, data.User)
	if err != nil {
		c.reply(req, MessageTypeAuthResponse, AuthResponseData{Error: err.Error()})
		return
	}
	unsubscribe := tbl.Subscribe(c.sendState)

	c.mu.Lock()
	c.user = data.User
	c.table = tbl
	c.unsubscribe = unsubscribe
	c.mu.Unlock()

	// Close may have run before the subscription was recorded
	if c.ctx.Err() != nil {
		unsubscribe()
		return
	}

	c.logger.Info("Player authenticated", "user", data.User)
	c.reply(req, MessageTypeAuthResponse, AuthResponseData{Success: true, User: data.User})

	snap, err := tbl.Snapshot(c.ctx)
	if err != nil {
		c.sendError(nil, ErrorCodeInternal, err.Error())
		return
	}
	c.sendState(snap)
}

func (c *Connection) handleAction(req *Message, fn actionFunc) {
	tbl := c.getTable()
	if tbl == nil {
		c.sendError(req, ErrorCodeNotAuthenticated, "Authenticate before playing")
		return
	}
	snap, ok, err := fn(c.ctx, tbl)
	result := ActionResultData{Action: req.Type.String(), OK: ok, State: snap}
	if err != nil {
		result.Error = errorData(err)
		c.logger.Debug("Action rejected", "user", c.User(), "action", req.Type, "error", err)
	}
	c.reply(req, MessageTypeActionResult, result)
}

func (c *Connection) handleFaucet(req *Message) {
	user := c.User()
	if user == "" {
		c.sendError(req, ErrorCodeNotAuthenticated, "Authenticate before using the faucet")
		return
	}
	balance, err := c.casino.Faucet(c.ctx, user)
	if err != nil {
		e := errorData(err)
		c.sendError(req, e.Code, e.Message)
		return
	}
	c.reply(req, MessageTypeBalance, BalanceData{User: user, Balance: balance})
}

// handleCoinFlip plays the flip off the read loop; the coin takes seconds to
// land and the player may keep using the blackjack table meanwhile.
func (c *Connection) handleCoinFlip(req *Message, data CoinFlipData) {
	user := c.User()
	if user == "" {
		c.sendError(req, ErrorCodeNotAuthenticated, "Authenticate before flipping")
		return
	}
	go func() {
		res, err := c.casino.CoinFlip(c.ctx, user, data.Bet, data.Choice)
		if err != nil {
			if c.ctx.Err() != nil {
				return
			}
			e := errorData(err)
			c.sendError(req, e.Code, e.Message)
			return
		}
		c.reply(req, MessageTypeCoinFlipResult, res)
	}()
}
