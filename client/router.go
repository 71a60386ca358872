package client

import (
	"errors"

	"go.uber.org/zap"

	"icebattle/game"
	"icebattle/protocol"
)

// freezeQueue is the part of Animator the router drives.
type freezeQueue interface {
	Enqueue(cells []game.BoardCell, fruitType string)
	Reset()
}

// Router applies inbound frames to the match stores.
type Router struct {
	stores  game.Stores
	anim    freezeQueue
	log     *zap.SugaredLogger
	metrics *Metrics
}

var _ protocol.Handler = (*Router)(nil)

func NewRouter(stores game.Stores, anim freezeQueue, metrics *Metrics, logger *zap.SugaredLogger) *Router {
	if metrics == nil {
		metrics = &Metrics{}
	}
	return &Router{
		stores:  stores,
		anim:    anim,
		log:     named(logger, "router"),
		metrics: metrics,
	}
}

// Route decodes one frame and applies it. Frames that fail to decode are
// logged and dropped; a panic while applying one is recovered.
func (r *Router) Route(data []byte) {
	msg, err := protocol.Decode(data)
	if err != nil {
		if errors.Is(err, protocol.ErrUnknownType) {
			r.metrics.IncUnknownTypes()
		} else {
			r.metrics.IncDecodeErrors()
		}
		r.log.Warnw("dropping inbound frame", "err", err, "bytes", len(data))
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.metrics.IncHandlerPanics()
			r.log.Errorw("handler panicked", "type", msg.Type(), "panic", rec)
		}
	}()
	r.log.Debugw("inbound", "type", msg.Type())
	msg.Dispatch(r)
}

func (r *Router) HandleUpdateTime(m protocol.UpdateTime) {
	r.stores.Header.Dispatch(game.SetTime{Minutes: m.MinutesLeft, Seconds: m.SecondsLeft})
}

func (r *Router) HandleUpdateMove(m protocol.UpdateMove) {
	r.stores.Users.Dispatch(game.MoveUser{Move: game.PlayerMove{
		PlayerID:    m.ID,
		Coordinates: m.Coordinates,
		Direction:   m.Direction,
		State:       m.State,
	}})
	if m.IDItemConsumed != "" {
		r.stores.Header.Dispatch(game.IncrementScore{})
		r.stores.Board.Dispatch(game.DeleteFruit{ID: m.IDItemConsumed})
	}
}

func (r *Router) HandleUpdateEnemy(m protocol.UpdateEnemy) {
	r.stores.Board.Dispatch(game.MoveEnemy{Move: game.EnemyMove{
		EnemyID:     m.EnemyID,
		Coordinates: m.Coordinates,
		Direction:   m.Direction,
		EnemyState:  m.EnemyState,
	}})
}

func (r *Router) HandleUpdateFruits(m protocol.UpdateFruits) {
	r.stores.Board.Dispatch(game.SetFruits{Cells: m.Cells})
	r.stores.FruitBar.Dispatch(game.SetActualFruit{Fruit: m.FruitType})
}

func (r *Router) HandleUpdateFrozenCells(m protocol.UpdateFrozenCells) {
	r.anim.Enqueue(m.Cells, r.stores.FruitBar.State().ActualFruit)
}

func (r *Router) HandleUpdateSpecialFruit(m protocol.UpdateSpecialFruit) {
	r.stores.Board.Dispatch(game.SetEspecialFruit{Cell: m.Cell})
}

func (r *Router) HandleEnd(m protocol.End) {
	state, err := game.ParseResult(m.Result)
	if err != nil {
		r.log.Warnw("ignoring end frame", "err", err)
		return
	}
	r.log.Infow("match over", "result", state)
	r.stores.Users.Dispatch(game.SetGameState{State: state})
}

func (r *Router) HandlePaused(m protocol.Paused) {
	state := game.GamePlaying
	if m.Paused {
		state = game.GamePaused
	}
	r.stores.Users.Dispatch(game.SetGameState{State: state})
	r.stores.Header.Dispatch(game.SetIsRunning{Running: !m.Paused})
}

// HandleUpdateAll resynchronizes every store from a full snapshot.
func (r *Router) HandleUpdateAll(m protocol.UpdateAll) {
	r.anim.Reset()

	r.stores.Header.Dispatch(game.SetTime{Minutes: m.MinutesLeft, Seconds: m.SecondsLeft})
	if m.Score != nil {
		r.stores.Header.Dispatch(game.SetScore{Score: *m.Score})
	}

	r.adoptOpponent(m.Host, m.Guest)
	r.stores.Users.Dispatch(game.UpdateUser{Patch: m.Host})
	r.stores.Users.Dispatch(game.UpdateUser{Patch: m.Guest})

	r.stores.Board.Dispatch(game.SetBoard{Cells: m.Cells})

	if m.Fruits != nil {
		r.stores.FruitBar.Dispatch(game.SetFruitBar{Fruits: m.Fruits})
	}
	if m.FruitType != "" {
		r.stores.FruitBar.Dispatch(game.SetActualFruit{Fruit: m.FruitType})
	}

	r.stores.Users.Dispatch(game.SetGameState{State: game.GamePlaying})
}

// adoptOpponent fills an unknown secondary seat id from the snapshot: the
// seat that is not ours belongs to the opponent.
func (r *Router) adoptOpponent(patches ...game.UserPatch) {
	users := r.stores.Users.State()
	if users.SecondaryUser.ID != "" {
		return
	}
	for _, p := range patches {
		if p.ID == "" || p.ID == users.MainUser.ID {
			continue
		}
		u := users.SecondaryUser
		u.ID = p.ID
		r.stores.Users.Dispatch(game.SetSecondaryUser{User: u})
		r.log.Infow("opponent seat learned", "player_id", p.ID)
		return
	}
}
