package client

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"icebattle/game"
	"icebattle/protocol"
)

// Session is one match as seen by this client: the stores and every
// component that feeds them, wired together.
type Session struct {
	cfg Config
	log *zap.SugaredLogger

	Stores   game.Stores
	Metrics  *Metrics
	Conn     *ConnectionManager
	Router   *Router
	Animator *Animator
	Input    *InputController

	unbind func()

	done     chan struct{}
	doneOnce sync.Once
	errMu    sync.Mutex
	err      error
}

type sessionOptions struct {
	clock  Clock
	dial   DialFunc
	logger *zap.SugaredLogger
}

type Option func(*sessionOptions)

func WithClock(c Clock) Option { return func(o *sessionOptions) { o.clock = c } }

func WithDial(d DialFunc) Option { return func(o *sessionOptions) { o.dial = d } }

func WithLogger(l *zap.SugaredLogger) Option { return func(o *sessionOptions) { o.logger = l } }

// NewSession builds the match runtime. Nothing touches the network until Start.
func NewSession(cfg Config, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := sessionOptions{clock: RealClock(), dial: GorillaDial(nil), logger: Log}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Session{
		cfg:     cfg,
		log:     named(o.logger, "session"),
		Stores:  game.NewStores(),
		Metrics: &Metrics{},
		done:    make(chan struct{}),
	}
	s.seedSeats()

	s.Animator = NewAnimator(s.Stores.Board, o.clock, cfg.AnimationTick, s.Metrics, o.logger)
	s.Router = NewRouter(s.Stores, s.Animator, s.Metrics, o.logger)
	s.Conn = NewConnectionManager(ConnOptions{
		BaseURL:           cfg.WSBaseURL,
		ReconnectAttempts: cfg.ReconnectAttempts,
		ReconnectDelay:    cfg.ReconnectDelay,
		Dial:              o.dial,
		Clock:             o.clock,
		Logger:            o.logger,
		Metrics:           s.Metrics,
		OnMessage:         s.Router.Route,
		OnLost:            s.onLost,
		OnReconnected:     s.onReconnected,
		OnExhausted:       s.onExhausted,
	})
	s.Input = NewInputController(s.Conn, o.clock, cfg.MoveCooldown, s.Metrics, o.logger)
	s.unbind = s.Input.Bind(s.Stores.Users)
	return s, nil
}

func (s *Session) seedSeats() {
	users := s.Stores.Users
	if s.cfg.PlayerID != "" {
		u := users.State().MainUser
		u.ID = s.cfg.PlayerID
		users.Dispatch(game.SetMainUser{User: u})
	}
	if s.cfg.OpponentID != "" {
		u := users.State().SecondaryUser
		u.ID = s.cfg.OpponentID
		users.Dispatch(game.SetSecondaryUser{User: u})
	}
	if s.cfg.MatchID != "" {
		users.Dispatch(game.SetMatchID{MatchID: s.cfg.MatchID})
	}
}

// Start opens the channel and asks for a full snapshot. Losing the channel
// later is handled internally; only the first dial is reported here.
func (s *Session) Start(ctx context.Context) error {
	if err := s.Conn.Connect(ctx, s.cfg.Identity()); err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	if err := s.Conn.Send(protocol.RequestUpdateAll()); err != nil {
		s.log.Warnw("initial resync request failed", "err", err)
	}
	s.log.Infow("session started", "player_id", s.cfg.PlayerID, "match_id", s.cfg.MatchID)
	return nil
}

// Send forwards a command to the server.
func (s *Session) Send(msg protocol.Outbound) error { return s.Conn.Send(msg) }

func (s *Session) onLost(err error) {
	s.Stores.Users.Dispatch(game.SetGameState{State: game.GameLostConnection})
}

func (s *Session) onReconnected() {
	s.log.Infow("channel restored, waiting for resync")
}

func (s *Session) onExhausted() {
	s.finish(ErrReconnectExhausted)
}

func (s *Session) finish(err error) {
	s.doneOnce.Do(func() {
		s.errMu.Lock()
		s.err = err
		s.errMu.Unlock()
		close(s.done)
	})
}

// Done is closed when the session ends, by Close or by giving up on the channel.
func (s *Session) Done() <-chan struct{} { return s.done }

// Err is nil after Close and ErrReconnectExhausted when the channel could not be restored.
func (s *Session) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

// Close stops input, animation and connection timers and closes the channel.
func (s *Session) Close() error {
	if s.unbind != nil {
		s.unbind()
	}
	s.Input.Stop()
	s.Animator.Stop()
	err := s.Conn.Close()
	s.finish(nil)
	return err
}

// Snapshot is the read-only view served by the debug surface.
type Snapshot struct {
	Conn     string             `json:"conn"`
	ConnID   string             `json:"connId,omitempty"`
	Users    game.UsersState    `json:"users"`
	Header   game.HeaderState   `json:"header"`
	FruitBar game.FruitBarState `json:"fruitBar"`
	Board    game.BoardState    `json:"board"`
}

func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		Conn:     s.Conn.Status().String(),
		ConnID:   s.Conn.ConnID(),
		Users:    s.Stores.Users.State(),
		Header:   s.Stores.Header.State(),
		FruitBar: s.Stores.FruitBar.State(),
		Board:    s.Stores.Board.State(),
	}
}

// StatusLine is the one-line summary drawn by the terminal front end.
func (s *Session) StatusLine() string {
	h := s.Stores.Header.State()
	u := s.Stores.Users.State()
	b := s.Stores.Board.State()
	return fmt.Sprintf("%s | %02d:%02d | score %d | %s (%d,%d) %s | fruits %d ice %d | %s",
		u.GameState, h.Minutes, h.Seconds, h.Score,
		u.MainUser.Name, u.MainUser.Position.X, u.MainUser.Position.Y, u.MainUser.Direction,
		len(b.Fruits), len(b.IceBlocks), s.Conn.Status())
}
