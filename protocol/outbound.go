package protocol

import (
	"encoding/json"

	"icebattle/game"
)

// Outbound message types.
const (
	TypeMovement  = "movement"
	TypeRotate    = "rotate"
	TypeSetColor  = "set-color"
	TypeSetName   = "set-name"
	TypeSetState  = "set-state"
	TypeExecPower = "exec-power"
	TypePause     = "pause"
	TypeResume    = "resume"
)

// ReadyState is the lobby readiness flag sent with set-state.
type ReadyState string

const (
	StateReady   ReadyState = "READY"
	StateWaiting ReadyState = "WAITING"
)

// ExecPowerMarker is the fixed payload of exec-power.
const ExecPowerMarker = "power"

// Outbound is a client command. Build it with the constructors below so the
// payload always has the shape its type requires.
type Outbound struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Marshal encodes the frame.
func (o Outbound) Marshal() ([]byte, error) { return json.Marshal(o) }

func Movement(d game.Direction) Outbound { return Outbound{Type: TypeMovement, Payload: d} }

func Rotate(d game.Direction) Outbound { return Outbound{Type: TypeRotate, Payload: d} }

func SetColor(flavour string) Outbound { return Outbound{Type: TypeSetColor, Payload: flavour} }

func SetName(name string) Outbound { return Outbound{Type: TypeSetName, Payload: name} }

func SetState(s ReadyState) Outbound { return Outbound{Type: TypeSetState, Payload: s} }

func ExecPower() Outbound { return Outbound{Type: TypeExecPower, Payload: ExecPowerMarker} }

func Pause() Outbound { return Outbound{Type: TypePause, Payload: ""} }

func Resume() Outbound { return Outbound{Type: TypeResume, Payload: ""} }

// RequestUpdateAll asks the server for a full resync; its payload is null.
func RequestUpdateAll() Outbound { return Outbound{Type: TypeUpdateAll, Payload: nil} }
