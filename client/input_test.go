package client

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"icebattle/game"
	"icebattle/protocol"
)

const cooldown = 500 * time.Millisecond

func newTestInput() (*InputController, *recordingSender, *manualClock) {
	sender := &recordingSender{}
	clock := newManualClock()
	return NewInputController(sender, clock, cooldown, nil, nil), sender, clock
}

func movements(msgs []protocol.Outbound) []game.Direction {
	var out []game.Direction
	for _, m := range msgs {
		if m.Type == protocol.TypeMovement {
			out = append(out, m.Payload.(game.Direction))
		}
	}
	return out
}

func TestInput_Cooldown(t *testing.T) {
	cases := []struct {
		name string
		gap  time.Duration
		want int
	}{
		{"within cooldown", cooldown - time.Millisecond, 1},
		{"at cooldown", cooldown, 2},
		{"after cooldown", cooldown + 100*time.Millisecond, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in, sender, clock := newTestInput()

			in.KeyDown("ArrowUp")
			in.KeyUp("ArrowUp")
			clock.Advance(tc.gap)
			in.KeyDown("ArrowUp")
			in.KeyUp("ArrowUp")

			assert.Len(t, movements(sender.sent()), tc.want)
		})
	}
}

func TestInput_HoldRepeats(t *testing.T) {
	in, sender, clock := newTestInput()

	in.KeyDown("d")
	assert.Equal(t, game.DirRight, in.Held())
	clock.Advance(cooldown)
	clock.Advance(cooldown)

	assert.Equal(t, []game.Direction{game.DirRight, game.DirRight, game.DirRight}, movements(sender.sent()))

	in.KeyUp("D")
	assert.Equal(t, game.Direction(""), in.Held())
	assert.Zero(t, clock.Pending())
	clock.Advance(5 * cooldown)
	assert.Len(t, sender.sent(), 3)
}

func TestInput_RepeatedKeyDownIsIgnored(t *testing.T) {
	in, sender, clock := newTestInput()

	in.KeyDown("ArrowLeft")
	clock.Advance(cooldown / 2)
	in.KeyDown("ArrowLeft")
	in.KeyDown("a")

	assert.Len(t, sender.sent(), 1)
	assert.Equal(t, 1, clock.Pending(), "the original repeat timer keeps running")
}

func TestInput_KeyUpOfOtherDirectionIsIgnored(t *testing.T) {
	in, sender, clock := newTestInput()

	in.KeyDown("ArrowDown")
	in.KeyUp("ArrowUp")
	assert.Equal(t, game.DirDown, in.Held())

	clock.Advance(cooldown)
	assert.Equal(t, []game.Direction{game.DirDown, game.DirDown}, movements(sender.sent()))
}

func TestInput_SwitchDirectionRespectsCooldown(t *testing.T) {
	in, sender, clock := newTestInput()

	in.KeyDown("ArrowDown")
	clock.Advance(100 * time.Millisecond)
	in.KeyDown("ArrowRight")
	assert.Equal(t, []game.Direction{game.DirDown}, movements(sender.sent()))

	clock.Advance(cooldown)
	assert.Equal(t, []game.Direction{game.DirDown, game.DirRight}, movements(sender.sent()))
	assert.EqualValues(t, 1, in.metrics.Snapshot()["moves_throttled"])
}

func TestInput_PowerBypassesCooldown(t *testing.T) {
	in, sender, _ := newTestInput()

	in.KeyDown("w")
	in.KeyDown(" ")
	in.KeyDown("Space")

	sent := sender.sent()
	require.Len(t, sent, 3)
	assert.Equal(t, protocol.ExecPower(), sent[1])
	assert.Equal(t, protocol.ExecPower(), sent[2])
}

func TestInput_Face(t *testing.T) {
	in, sender, _ := newTestInput()
	in.Face(game.DirLeft)
	in.Face("sideways")
	assert.Equal(t, []protocol.Outbound{protocol.Rotate(game.DirLeft)}, sender.sent())
}

func TestInput_UnmappedKey(t *testing.T) {
	in, sender, clock := newTestInput()
	in.KeyDown("q")
	in.KeyUp("q")
	assert.Empty(t, sender.sent())
	assert.Zero(t, clock.Pending())
}

func TestInput_GatedByUsersStore(t *testing.T) {
	in, sender, clock := newTestInput()
	users := game.NewUsersStore()
	unbind := in.Bind(users)
	defer unbind()

	in.KeyDown("ArrowUp")
	require.Len(t, sender.sent(), 1)

	users.Dispatch(game.SetGameState{State: game.GamePaused})
	assert.False(t, in.Enabled())
	assert.Equal(t, game.Direction(""), in.Held(), "disabling drops the held key")
	assert.Zero(t, clock.Pending())

	clock.Advance(time.Second)
	in.KeyDown("ArrowDown")
	in.KeyDown(" ")
	assert.Len(t, sender.sent(), 1)

	users.Dispatch(game.SetGameState{State: game.GamePlaying})
	in.KeyDown("ArrowDown")
	assert.Len(t, sender.sent(), 2)
	in.KeyUp("ArrowDown")

	users.Dispatch(game.SetMainUser{User: game.UserInformation{ID: "me", State: game.PlayerAlive}})
	assert.True(t, in.Enabled())
	users.Dispatch(game.MoveUser{Move: game.PlayerMove{PlayerID: "me", State: game.PlayerDead}})
	assert.False(t, in.Enabled(), "a dead player cannot move")
}

func TestInput_StopIsFinal(t *testing.T) {
	in, sender, clock := newTestInput()
	users := game.NewUsersStore()
	in.Bind(users)

	in.KeyDown("ArrowUp")
	in.Stop()
	assert.Zero(t, clock.Pending())

	users.Dispatch(game.SetGameState{State: game.GamePlaying})
	clock.Advance(time.Second)
	in.KeyDown("ArrowDown")
	assert.Len(t, sender.sent(), 1)
}

func TestInput_SendFailureIsSwallowed(t *testing.T) {
	in, sender, _ := newTestInput()
	sender.err = errors.New("offline")
	assert.NotPanics(t, func() { in.KeyDown("ArrowUp") })
}

func TestDirectionForKey(t *testing.T) {
	cases := map[string]game.Direction{
		"ArrowUp": game.DirUp, "w": game.DirUp, "W": game.DirUp,
		"ArrowDown": game.DirDown, "s": game.DirDown, "S": game.DirDown,
		"ArrowLeft": game.DirLeft, "a": game.DirLeft, "A": game.DirLeft,
		"ArrowRight": game.DirRight, "d": game.DirRight, "D": game.DirRight,
	}
	for key, want := range cases {
		got, ok := DirectionForKey(key)
		assert.True(t, ok, key)
		assert.Equal(t, want, got, key)
	}
	_, ok := DirectionForKey("x")
	assert.False(t, ok)
}
