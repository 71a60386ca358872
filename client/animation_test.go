package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"icebattle/game"
)

func frozen(id string, x int) game.BoardCell {
	return game.BoardCell{Coordinates: game.Coordinates{X: x}, Item: &game.Item{ID: id, Type: game.ItemIceBlock}, Frozen: true}
}

func newTestAnimator() (*Animator, *game.BoardStore, *manualClock) {
	board := game.NewBoardStore()
	clock := newManualClock()
	return NewAnimator(board, clock, 100*time.Millisecond, nil, nil), board, clock
}

func TestAnimator_AppliesOneCellPerTick(t *testing.T) {
	a, board, clock := newTestAnimator()

	a.Enqueue([]game.BoardCell{frozen("b1", 0), frozen("b2", 1), frozen("b3", 2)}, "")
	require.True(t, a.Running())

	for want := 1; want <= 3; want++ {
		clock.Advance(100 * time.Millisecond)
		assert.Len(t, board.State().IceBlocks, want)
	}

	assert.False(t, a.Running())
	assert.Zero(t, clock.Pending(), "the tick stops once the queue is drained")
	assert.EqualValues(t, 3, a.metrics.Snapshot()["animation_ticks"])
}

func TestAnimator_NothingBeforeFirstTick(t *testing.T) {
	a, board, clock := newTestAnimator()
	a.Enqueue([]game.BoardCell{frozen("b1", 0)}, "")

	clock.Advance(99 * time.Millisecond)
	assert.Empty(t, board.State().IceBlocks)

	clock.Advance(time.Millisecond)
	assert.Len(t, board.State().IceBlocks, 1)
}

func TestAnimator_FIFOAcrossBatches(t *testing.T) {
	a, board, clock := newTestAnimator()

	a.Enqueue([]game.BoardCell{frozen("b1", 0), frozen("b2", 1)}, "")
	clock.Advance(100 * time.Millisecond)
	a.Enqueue([]game.BoardCell{frozen("b3", 2)}, "")
	assert.Equal(t, 1, clock.Pending(), "a running drain is not restarted")

	clock.Advance(time.Second)

	assert.Equal(t, []string{"b1", "b2", "b3"}, ids(board.State().IceBlocks))
	assert.Zero(t, clock.Pending())
}

func TestAnimator_ThawRemovesBlocks(t *testing.T) {
	a, board, clock := newTestAnimator()
	board.Dispatch(game.SetBoard{Cells: []game.BoardCell{frozen("b1", 0), frozen("b2", 1)}})

	thawed := frozen("b1", 0)
	thawed.Frozen = false
	a.Enqueue([]game.BoardCell{thawed}, "")
	clock.Advance(100 * time.Millisecond)

	assert.Equal(t, []string{"b2"}, ids(board.State().IceBlocks))
}

func TestAnimator_ResetCancelsDrain(t *testing.T) {
	a, board, clock := newTestAnimator()
	a.Enqueue([]game.BoardCell{frozen("b1", 0), frozen("b2", 1)}, "")

	a.Reset()
	clock.Advance(time.Second)

	assert.Empty(t, board.State().IceBlocks)
	assert.False(t, a.Running())

	a.Enqueue([]game.BoardCell{frozen("b3", 2)}, "")
	assert.True(t, a.Running(), "a reset animator accepts new batches")
}

func TestAnimator_StopIsFinal(t *testing.T) {
	a, board, clock := newTestAnimator()
	a.Enqueue([]game.BoardCell{frozen("b1", 0)}, "")

	a.Stop()
	a.Enqueue([]game.BoardCell{frozen("b2", 1)}, "")
	clock.Advance(time.Second)

	assert.Empty(t, board.State().IceBlocks)
	assert.Len(t, board.State().Pending, 1)
	assert.Zero(t, clock.Pending())
}

func TestAnimator_EmptyBatchDoesNotStartTick(t *testing.T) {
	a, _, clock := newTestAnimator()
	a.Enqueue(nil, "kiwi")
	assert.False(t, a.Running())
	assert.Zero(t, clock.Pending())
}
