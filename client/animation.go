package client

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"icebattle/game"
)

// Animator drains the board's pending queue one cell per tick, so a freeze
// or thaw wave reads as a sweep instead of a jump.
type Animator struct {
	board   *game.BoardStore
	clock   Clock
	tick    time.Duration
	metrics *Metrics
	log     *zap.SugaredLogger

	mu      sync.Mutex
	timer   Timer
	gen     uint64
	stopped bool
}

func NewAnimator(board *game.BoardStore, clock Clock, tick time.Duration, metrics *Metrics, logger *zap.SugaredLogger) *Animator {
	if clock == nil {
		clock = RealClock()
	}
	if tick <= 0 {
		tick = DefaultConfig().AnimationTick
	}
	if metrics == nil {
		metrics = &Metrics{}
	}
	return &Animator{
		board:   board,
		clock:   clock,
		tick:    tick,
		metrics: metrics,
		log:     named(logger, "anim"),
	}
}

// Enqueue appends a batch behind whatever is still pending and starts the
// tick if it is not running. fruitType is the fruit active when the batch
// arrived; frozen fruits are drawn with it.
func (a *Animator) Enqueue(cells []game.BoardCell, fruitType string) {
	if len(cells) == 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}
	a.board.Dispatch(game.EnqueueFrozenCells{Cells: cells, FruitType: fruitType})
	if a.timer == nil {
		a.schedule()
	}
	a.log.Debugw("batch queued", "cells", len(cells), "fruit_type", fruitType)
}

func (a *Animator) schedule() {
	gen := a.gen
	a.timer = a.clock.AfterFunc(a.tick, func() { a.step(gen) })
}

func (a *Animator) step(gen uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if gen != a.gen || a.stopped {
		return
	}
	a.timer = nil
	a.board.Dispatch(game.ApplyNextPending{})
	a.metrics.IncAnimationTicks()
	if len(a.board.State().Pending) > 0 {
		a.schedule()
	}
}

// Reset cancels an in-flight drain. The queue itself is left to the board:
// a resync replaces it wholesale.
func (a *Animator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cancel()
}

// Stop cancels the drain for good; later Enqueue calls are ignored.
func (a *Animator) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cancel()
	a.stopped = true
}

func (a *Animator) cancel() {
	a.gen++
	stopTimer(&a.timer)
}

// Running reports whether a tick is scheduled.
func (a *Animator) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.timer != nil
}
