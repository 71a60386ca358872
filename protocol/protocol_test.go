package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"icebattle/game"
)

type recorder struct{ got []Inbound }

func (r *recorder) HandleUpdateTime(m UpdateTime)                 { r.got = append(r.got, m) }
func (r *recorder) HandleUpdateMove(m UpdateMove)                 { r.got = append(r.got, m) }
func (r *recorder) HandleUpdateEnemy(m UpdateEnemy)               { r.got = append(r.got, m) }
func (r *recorder) HandleUpdateFruits(m UpdateFruits)             { r.got = append(r.got, m) }
func (r *recorder) HandleUpdateFrozenCells(m UpdateFrozenCells)   { r.got = append(r.got, m) }
func (r *recorder) HandleUpdateSpecialFruit(m UpdateSpecialFruit) { r.got = append(r.got, m) }
func (r *recorder) HandleEnd(m End)                               { r.got = append(r.got, m) }
func (r *recorder) HandlePaused(m Paused)                         { r.got = append(r.got, m) }
func (r *recorder) HandleUpdateAll(m UpdateAll)                   { r.got = append(r.got, m) }

func TestDecode(t *testing.T) {
	cases := []struct {
		name  string
		frame string
		want  Inbound
	}{
		{
			name:  "update-time",
			frame: `{"type":"update-time","payload":{"minutesLeft":2,"secondsLeft":30}}`,
			want:  UpdateTime{MinutesLeft: 2, SecondsLeft: 30},
		},
		{
			name:  "update-move with consumed fruit",
			frame: `{"type":"update-move","payload":{"id":"u1","coordinates":{"x":3,"y":4},"direction":"up","state":"alive","idItemConsumed":"f1"}}`,
			want: UpdateMove{ID: "u1", Coordinates: game.Coordinates{X: 3, Y: 4}, Direction: game.DirUp,
				State: game.PlayerAlive, IDItemConsumed: "f1"},
		},
		{
			name:  "update-enemy",
			frame: `{"type":"update-enemy","payload":{"enemyId":"e1","coordinates":{"x":1,"y":2},"direction":"left","enemyState":"roaming"}}`,
			want:  UpdateEnemy{EnemyID: "e1", Coordinates: game.Coordinates{X: 1, Y: 2}, Direction: game.DirLeft, EnemyState: "roaming"},
		},
		{
			name:  "special fruit removed",
			frame: `{"type":"update-special-fruit","payload":null}`,
			want:  UpdateSpecialFruit{},
		},
		{
			name:  "paused",
			frame: `{"type":"paused","payload":true}`,
			want:  Paused{Paused: true},
		},
		{
			name:  "end",
			frame: `{"type":"end","payload":{"result":"won"}}`,
			want:  End{Result: "won"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			msg, err := Decode([]byte(tc.frame))
			require.NoError(t, err)
			assert.Equal(t, tc.want, msg)

			var r recorder
			msg.Dispatch(&r)
			require.Len(t, r.got, 1)
			assert.Equal(t, tc.want.Type(), r.got[0].Type())
		})
	}
}

func TestDecode_UpdateAllPatchesAreSparse(t *testing.T) {
	frame := `{"type":"update-all","payload":{"minutesLeft":1,"secondsLeft":5,
		"host":{"id":"u1","state":"dead"},
		"guest":{"id":"u2","flavour":"chocolate","coordinates":{"x":2,"y":2}},
		"cells":[{"coordinates":{"x":0,"y":0},"item":{"id":"f1","type":"fruit"},"character":null,"frozen":false}]}}`

	msg, err := Decode([]byte(frame))
	require.NoError(t, err)
	all, ok := msg.(UpdateAll)
	require.True(t, ok)

	require.NotNil(t, all.Host.State)
	assert.Equal(t, game.PlayerDead, *all.Host.State)
	assert.Nil(t, all.Host.Position)
	assert.Nil(t, all.Host.Direction)
	require.NotNil(t, all.Guest.Flavour)
	assert.Equal(t, "chocolate", *all.Guest.Flavour)
	assert.Nil(t, all.Score)
	assert.Len(t, all.Cells, 1)
}

func TestDecode_Errors(t *testing.T) {
	cases := []struct {
		name  string
		frame string
		want  error
	}{
		{name: "not json", frame: `{"type":`, want: ErrMalformed},
		{name: "unknown type", frame: `{"type":"teleport","payload":{}}`, want: ErrUnknownType},
		{name: "missing payload", frame: `{"type":"paused"}`, want: ErrMalformed},
		{name: "wrong payload shape", frame: `{"type":"update-time","payload":"soon"}`, want: ErrMalformed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode([]byte(tc.frame))
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestOutbound_WireShape(t *testing.T) {
	cases := []struct {
		msg  Outbound
		want string
	}{
		{Movement(game.DirLeft), `{"type":"movement","payload":"left"}`},
		{Rotate(game.DirUp), `{"type":"rotate","payload":"up"}`},
		{SetColor("strawberry"), `{"type":"set-color","payload":"strawberry"}`},
		{SetName("alice"), `{"type":"set-name","payload":"alice"}`},
		{SetState(StateReady), `{"type":"set-state","payload":"READY"}`},
		{ExecPower(), `{"type":"exec-power","payload":"power"}`},
		{Pause(), `{"type":"pause","payload":""}`},
		{Resume(), `{"type":"resume","payload":""}`},
		{RequestUpdateAll(), `{"type":"update-all","payload":null}`},
	}

	for _, tc := range cases {
		t.Run(tc.msg.Type, func(t *testing.T) {
			data, err := tc.msg.Marshal()
			require.NoError(t, err)
			assert.JSONEq(t, tc.want, string(data))
		})
	}
}

func TestSchema_CoversEveryInboundType(t *testing.T) {
	s := Schema()

	for _, typ := range InboundTypes() {
		assert.Contains(t, s.Definitions, "in."+typ)
	}
	assert.Contains(t, s.Definitions, "out."+TypeMovement)

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(data), "minutesLeft")
}
