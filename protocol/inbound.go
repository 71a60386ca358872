// Package protocol defines the JSON frames exchanged with the match server.
//
// Every frame is an object {"type": ..., "payload": ...}. Inbound frames
// decode into one of the message types below; each of them dispatches to
// exactly one method of Handler, so supporting a new message type means
// growing Handler and every implementation with it.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"icebattle/game"
)

var (
	ErrMalformed   = errors.New("malformed frame")
	ErrUnknownType = errors.New("unknown message type")
)

// Inbound message types.
const (
	TypeUpdateTime         = "update-time"
	TypeUpdateMove         = "update-move"
	TypeUpdateEnemy        = "update-enemy"
	TypeUpdateFruits       = "update-fruits"
	TypeUpdateFrozenCells  = "update-frozen-cells"
	TypeUpdateSpecialFruit = "update-special-fruit"
	TypeEnd                = "end"
	TypePaused             = "paused"
	TypeUpdateAll          = "update-all"
)

// Envelope is the undecoded shape of every frame.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Inbound is a decoded server message.
type Inbound interface {
	Type() string
	Dispatch(h Handler)
}

// Handler receives decoded server messages, one method per type.
type Handler interface {
	HandleUpdateTime(UpdateTime)
	HandleUpdateMove(UpdateMove)
	HandleUpdateEnemy(UpdateEnemy)
	HandleUpdateFruits(UpdateFruits)
	HandleUpdateFrozenCells(UpdateFrozenCells)
	HandleUpdateSpecialFruit(UpdateSpecialFruit)
	HandleEnd(End)
	HandlePaused(Paused)
	HandleUpdateAll(UpdateAll)
}

type UpdateTime struct {
	MinutesLeft int `json:"minutesLeft"`
	SecondsLeft int `json:"secondsLeft"`
}

// UpdateMove is a confirmed player step. IDItemConsumed names the fruit the
// player picked up on arrival, if any.
type UpdateMove struct {
	ID             string            `json:"id"`
	Coordinates    game.Coordinates  `json:"coordinates"`
	Direction      game.Direction    `json:"direction"`
	State          game.PlayerStatus `json:"state"`
	IDItemConsumed string            `json:"idItemConsumed,omitempty"`
}

type UpdateEnemy struct {
	EnemyID     string           `json:"enemyId"`
	Coordinates game.Coordinates `json:"coordinates"`
	Direction   game.Direction   `json:"direction"`
	EnemyState  string           `json:"enemyState,omitempty"`
}

type UpdateFruits struct {
	Cells     []game.BoardCell `json:"cells"`
	FruitType string           `json:"fruitType"`
}

type UpdateFrozenCells struct {
	Cells []game.BoardCell `json:"cells"`
}

// UpdateSpecialFruit carries the special fruit cell; nil removes it.
type UpdateSpecialFruit struct {
	Cell *game.BoardCell
}

type End struct {
	Result string `json:"result"`
}

// Paused carries the bare boolean payload: true when the match is paused.
type Paused struct {
	Paused bool
}

// UpdateAll is a full resynchronization. Host and Guest are coalescing
// patches: fields absent from the frame keep their local value.
type UpdateAll struct {
	MinutesLeft int              `json:"minutesLeft"`
	SecondsLeft int              `json:"secondsLeft"`
	Score       *int             `json:"score,omitempty"`
	Host        game.UserPatch   `json:"host"`
	Guest       game.UserPatch   `json:"guest"`
	Cells       []game.BoardCell `json:"cells"`
	FruitType   string           `json:"fruitType,omitempty"`
	Fruits      []string         `json:"fruits,omitempty"`
}

func (UpdateTime) Type() string         { return TypeUpdateTime }
func (UpdateMove) Type() string         { return TypeUpdateMove }
func (UpdateEnemy) Type() string        { return TypeUpdateEnemy }
func (UpdateFruits) Type() string       { return TypeUpdateFruits }
func (UpdateFrozenCells) Type() string  { return TypeUpdateFrozenCells }
func (UpdateSpecialFruit) Type() string { return TypeUpdateSpecialFruit }
func (End) Type() string                { return TypeEnd }
func (Paused) Type() string             { return TypePaused }
func (UpdateAll) Type() string          { return TypeUpdateAll }

func (m UpdateTime) Dispatch(h Handler)         { h.HandleUpdateTime(m) }
func (m UpdateMove) Dispatch(h Handler)         { h.HandleUpdateMove(m) }
func (m UpdateEnemy) Dispatch(h Handler)        { h.HandleUpdateEnemy(m) }
func (m UpdateFruits) Dispatch(h Handler)       { h.HandleUpdateFruits(m) }
func (m UpdateFrozenCells) Dispatch(h Handler)  { h.HandleUpdateFrozenCells(m) }
func (m UpdateSpecialFruit) Dispatch(h Handler) { h.HandleUpdateSpecialFruit(m) }
func (m End) Dispatch(h Handler)                { h.HandleEnd(m) }
func (m Paused) Dispatch(h Handler)             { h.HandlePaused(m) }
func (m UpdateAll) Dispatch(h Handler)          { h.HandleUpdateAll(m) }

var decoders = map[string]func(json.RawMessage) (Inbound, error){
	TypeUpdateTime:        decodeAs[UpdateTime],
	TypeUpdateMove:        decodeAs[UpdateMove],
	TypeUpdateEnemy:       decodeAs[UpdateEnemy],
	TypeUpdateFruits:      decodeAs[UpdateFruits],
	TypeUpdateFrozenCells: decodeAs[UpdateFrozenCells],
	TypeUpdateSpecialFruit: func(raw json.RawMessage) (Inbound, error) {
		var cell *game.BoardCell
		if err := unmarshalPayload(raw, &cell); err != nil {
			return nil, err
		}
		return UpdateSpecialFruit{Cell: cell}, nil
	},
	TypeEnd: decodeAs[End],
	TypePaused: func(raw json.RawMessage) (Inbound, error) {
		var paused bool
		if err := unmarshalPayload(raw, &paused); err != nil {
			return nil, err
		}
		return Paused{Paused: paused}, nil
	},
	TypeUpdateAll: decodeAs[UpdateAll],
}

// InboundTypes lists every message type Decode accepts.
func InboundTypes() []string {
	return []string{
		TypeUpdateTime, TypeUpdateMove, TypeUpdateEnemy, TypeUpdateFruits,
		TypeUpdateFrozenCells, TypeUpdateSpecialFruit, TypeEnd, TypePaused, TypeUpdateAll,
	}
}

// Decode parses one frame. Errors wrap ErrMalformed or ErrUnknownType.
func Decode(data []byte) (Inbound, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	decode, ok := decoders[env.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
	msg, err := decode(env.Payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %s payload: %v", ErrMalformed, env.Type, err)
	}
	return msg, nil
}

func decodeAs[T Inbound](raw json.RawMessage) (Inbound, error) {
	var msg T
	if err := unmarshalPayload(raw, &msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func unmarshalPayload(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return errors.New("missing payload")
	}
	return json.Unmarshal(raw, v)
}
