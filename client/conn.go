package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"icebattle/protocol"
)

var (
	ErrIncompleteIdentity = errors.New("player id and match id are required")
	ErrNotConnected       = errors.New("channel is not open")
	ErrReconnectExhausted = errors.New("reconnection attempts exhausted")
	ErrClosed             = errors.New("connection manager closed")

	errSuperseded = errors.New("superseded by a newer connection")
)

const (
	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxFrameSize   = 1 << 20 // 1MB
	dialTimeout    = 10 * time.Second
	gamePathPrefix = "/ws/game/"
)

// Identity names the seat a channel is opened for.
type Identity struct {
	PlayerID string
	MatchID  string
}

func (id Identity) complete() bool { return id.PlayerID != "" && id.MatchID != "" }

// Conn is the subset of *websocket.Conn the manager uses.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

// DialFunc opens a channel to url.
type DialFunc func(ctx context.Context, url string) (Conn, error)

// GorillaDial adapts a gorilla dialer. A nil dialer means websocket.DefaultDialer.
func GorillaDial(d *websocket.Dialer) DialFunc {
	if d == nil {
		d = websocket.DefaultDialer
	}
	return func(ctx context.Context, u string) (Conn, error) {
		ws, resp, err := d.DialContext(ctx, u, nil)
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		if err != nil {
			if resp != nil {
				return nil, fmt.Errorf("dial %s: %w (status %d)", u, err, resp.StatusCode)
			}
			return nil, fmt.Errorf("dial %s: %w", u, err)
		}
		return ws, nil
	}
}

type ConnStatus int

const (
	StatusIdle ConnStatus = iota
	StatusConnecting
	StatusOpen
	StatusReconnecting
	StatusFailed
	StatusClosed
)

func (s ConnStatus) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusConnecting:
		return "connecting"
	case StatusOpen:
		return "open"
	case StatusReconnecting:
		return "reconnecting"
	case StatusFailed:
		return "failed"
	case StatusClosed:
		return "closed"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// ConnOptions configures a ConnectionManager. Zero values take defaults.
type ConnOptions struct {
	BaseURL           string
	ReconnectAttempts int
	ReconnectDelay    time.Duration
	Dial              DialFunc
	Clock             Clock
	Logger            *zap.SugaredLogger
	Metrics           *Metrics

	// OnMessage receives every inbound frame, in arrival order, on the
	// channel's reader goroutine.
	OnMessage func(data []byte)
	// OnLost runs once per unclean close, before the first retry is armed.
	OnLost func(err error)
	// OnReconnected runs after a retry reopened the channel and asked for a resync.
	OnReconnected func()
	// OnExhausted runs once when the last retry failed.
	OnExhausted func()
}

// ConnectionManager owns the match channel: at most one open socket, a
// bounded reconnection loop after unclean closes, and the write path.
type ConnectionManager struct {
	opts    ConnOptions
	log     *zap.SugaredLogger
	metrics *Metrics

	mu        sync.Mutex
	status    ConnStatus
	conn      Conn
	connID    string
	gen       uint64
	identity  Identity
	attempts  int
	retry     Timer
	ping      Timer
	closed    bool
	exhausted bool

	writeMu sync.Mutex
}

func NewConnectionManager(opts ConnOptions) *ConnectionManager {
	def := DefaultConfig()
	if opts.BaseURL == "" {
		opts.BaseURL = def.WSBaseURL
	}
	if opts.ReconnectAttempts <= 0 {
		opts.ReconnectAttempts = def.ReconnectAttempts
	}
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = def.ReconnectDelay
	}
	if opts.Dial == nil {
		opts.Dial = GorillaDial(nil)
	}
	if opts.Clock == nil {
		opts.Clock = RealClock()
	}
	if opts.Metrics == nil {
		opts.Metrics = &Metrics{}
	}
	return &ConnectionManager{
		opts:    opts,
		log:     named(opts.Logger, "conn"),
		metrics: opts.Metrics,
	}
}

// GameURL is the channel endpoint for id under base.
func GameURL(base string, id Identity) string {
	return strings.TrimRight(base, "/") + gamePathPrefix +
		url.PathEscape(id.PlayerID) + "/" + url.PathEscape(id.MatchID)
}

// Connect closes any open channel and dials a new one for id. It also
// cancels a pending retry and resets the attempt budget.
func (m *ConnectionManager) Connect(ctx context.Context, id Identity) error {
	if !id.complete() {
		m.log.Warnw("cannot connect without a complete identity",
			"player_id", id.PlayerID, "match_id", id.MatchID)
		return ErrIncompleteIdentity
	}
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	stopTimer(&m.retry)
	m.attempts = 0
	m.exhausted = false
	m.mu.Unlock()

	return m.connect(ctx, id, false)
}

func (m *ConnectionManager) connect(ctx context.Context, id Identity, retrying bool) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	old := m.conn
	m.conn = nil
	m.gen++
	gen := m.gen
	m.identity = id
	stopTimer(&m.ping)
	if !retrying {
		m.status = StatusConnecting
	}
	m.mu.Unlock()

	if old != nil {
		m.closeGracefully(old)
	}

	u := GameURL(m.opts.BaseURL, id)
	conn, err := m.opts.Dial(ctx, u)

	m.mu.Lock()
	if m.closed || gen != m.gen {
		closed := m.closed
		m.mu.Unlock()
		if conn != nil {
			_ = conn.Close()
		}
		if closed {
			return ErrClosed
		}
		return errSuperseded
	}
	if err != nil {
		if !retrying {
			m.status = StatusIdle
		}
		m.mu.Unlock()
		return err
	}
	m.conn = conn
	m.connID = uuid.NewString()
	m.status = StatusOpen
	connID := m.connID
	m.ping = m.opts.Clock.AfterFunc(pingPeriod, func() { m.keepalive(gen) })
	m.mu.Unlock()

	m.log.Infow("channel open", "conn_id", connID, "url", u, "retry", retrying)
	go m.readLoop(conn, gen, connID)
	return nil
}

func (m *ConnectionManager) readLoop(conn Conn, gen uint64, connID string) {
	conn.SetReadLimit(maxFrameSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error { return conn.SetReadDeadline(time.Now().Add(pongWait)) })

	first := true
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			m.handleReadEnd(gen, connID, err)
			return
		}
		if !m.current(gen) {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		if first {
			first = false
			m.mu.Lock()
			if gen == m.gen {
				m.attempts = 0
			}
			m.mu.Unlock()
		}
		m.metrics.IncFramesReceived()
		if m.opts.OnMessage != nil {
			m.opts.OnMessage(data)
		}
	}
}

func (m *ConnectionManager) current(gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return gen == m.gen && !m.closed
}

// handleReadEnd decides what the end of a read loop means. Close frames
// other than 1006 are a deliberate hang-up; anything else is a lost channel.
func (m *ConnectionManager) handleReadEnd(gen uint64, connID string, err error) {
	m.mu.Lock()
	if gen != m.gen || m.closed {
		m.mu.Unlock()
		return
	}
	conn := m.conn
	m.conn = nil
	stopTimer(&m.ping)
	if !isUnclean(err) {
		m.status = StatusIdle
		m.mu.Unlock()
		if conn != nil {
			_ = conn.Close()
		}
		m.log.Infow("channel closed by peer", "conn_id", connID, "err", err)
		return
	}
	m.status = StatusReconnecting
	m.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}

	m.log.Warnw("channel lost", "conn_id", connID, "err", err)
	if m.opts.OnLost != nil {
		m.opts.OnLost(err)
	}
	m.scheduleRetry()
}

func isUnclean(err error) bool {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		return ce.Code == websocket.CloseAbnormalClosure
	}
	return true
}

func (m *ConnectionManager) scheduleRetry() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	if m.attempts >= m.opts.ReconnectAttempts {
		m.status = StatusFailed
		fire := !m.exhausted
		m.exhausted = true
		attempts := m.attempts
		m.mu.Unlock()
		if fire {
			m.log.Errorw("giving up on reconnection", "attempt", attempts)
			if m.opts.OnExhausted != nil {
				m.opts.OnExhausted()
			}
		}
		return
	}
	gen := m.gen
	m.retry = m.opts.Clock.AfterFunc(m.opts.ReconnectDelay, func() { m.reconnect(gen) })
	m.mu.Unlock()
}

func (m *ConnectionManager) reconnect(gen uint64) {
	m.mu.Lock()
	if m.closed || gen != m.gen {
		m.mu.Unlock()
		return
	}
	m.retry = nil
	m.attempts++
	attempt := m.attempts
	id := m.identity
	m.mu.Unlock()

	m.metrics.IncReconnectAttempts()
	m.log.Infow("reconnecting", "attempt", attempt, "max", m.opts.ReconnectAttempts)

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	err := m.connect(ctx, id, true)
	cancel()
	if errors.Is(err, ErrClosed) || errors.Is(err, errSuperseded) {
		return
	}
	if err != nil {
		m.log.Warnw("reconnect failed", "attempt", attempt, "err", err)
		m.scheduleRetry()
		return
	}

	m.metrics.IncReconnects()
	if err := m.Send(protocol.RequestUpdateAll()); err != nil {
		m.log.Warnw("resync request failed", "attempt", attempt, "err", err)
	}
	if m.opts.OnReconnected != nil {
		m.opts.OnReconnected()
	}
}

func (m *ConnectionManager) keepalive(gen uint64) {
	m.mu.Lock()
	if gen != m.gen || m.conn == nil {
		m.mu.Unlock()
		return
	}
	conn := m.conn
	m.ping = m.opts.Clock.AfterFunc(pingPeriod, func() { m.keepalive(gen) })
	m.mu.Unlock()

	if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
		m.log.Debugw("ping failed", "err", err)
	}
}

// Send writes msg if the channel is open. Nothing is queued: a frame sent
// while disconnected is dropped and ErrNotConnected returned.
func (m *ConnectionManager) Send(msg protocol.Outbound) error {
	data, err := msg.Marshal()
	if err != nil {
		return fmt.Errorf("encode %s: %w", msg.Type, err)
	}

	m.mu.Lock()
	conn, status, connID := m.conn, m.status, m.connID
	m.mu.Unlock()
	if conn == nil || status != StatusOpen {
		m.metrics.IncSendsDropped()
		m.log.Warnw("dropping outbound frame", "type", msg.Type, "status", status.String())
		return ErrNotConnected
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		m.metrics.IncSendsDropped()
		m.log.Warnw("write failed", "conn_id", connID, "type", msg.Type, "err", err)
		return fmt.Errorf("send %s: %w", msg.Type, err)
	}
	m.metrics.IncFramesSent()
	return nil
}

// Close tears the manager down: the pending retry is cancelled, the socket
// is closed with a normal close frame and no further reconnection happens.
func (m *ConnectionManager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.gen++
	conn := m.conn
	m.conn = nil
	stopTimer(&m.retry)
	stopTimer(&m.ping)
	m.status = StatusClosed
	m.mu.Unlock()

	if conn != nil {
		m.closeGracefully(conn)
	}
	return nil
}

func (m *ConnectionManager) closeGracefully(conn Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait)); err != nil {
		m.log.Debugw("close frame not sent", "err", err)
	}
	_ = conn.Close()
}

func (m *ConnectionManager) Status() ConnStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Attempts is the number of retries fired since the last healthy channel.
func (m *ConnectionManager) Attempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts
}

func (m *ConnectionManager) ConnID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connID
}

func stopTimer(t *Timer) {
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}
