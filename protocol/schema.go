package protocol

import (
	"github.com/invopop/jsonschema"

	"icebattle/game"
)

// Schema describes every payload of the protocol, keyed "in.<type>" for
// server frames and "out.<type>" for client frames.
func Schema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		DoNotReference:            true,
		AllowAdditionalProperties: true,
	}

	payloads := map[string]any{
		"in." + TypeUpdateTime:         UpdateTime{},
		"in." + TypeUpdateMove:         UpdateMove{},
		"in." + TypeUpdateEnemy:        UpdateEnemy{},
		"in." + TypeUpdateFruits:       UpdateFruits{},
		"in." + TypeUpdateFrozenCells:  UpdateFrozenCells{},
		"in." + TypeUpdateSpecialFruit: &game.BoardCell{},
		"in." + TypeEnd:                End{},
		"in." + TypePaused:             true,
		"in." + TypeUpdateAll:          UpdateAll{},

		"out." + TypeMovement:  game.DirUp,
		"out." + TypeRotate:    game.DirUp,
		"out." + TypeSetColor:  "",
		"out." + TypeSetName:   "",
		"out." + TypeSetState:  StateReady,
		"out." + TypeExecPower: ExecPowerMarker,
		"out." + TypePause:     "",
		"out." + TypeResume:    "",
	}

	defs := make(jsonschema.Definitions, len(payloads)+1)
	for name, sample := range payloads {
		s := reflector.Reflect(sample)
		s.Version = ""
		s.Title = name
		defs[name] = s
	}
	defs["out."+TypeUpdateAll] = &jsonschema.Schema{Title: "out." + TypeUpdateAll, Type: "null"}

	return &jsonschema.Schema{
		Version:     jsonschema.Version,
		Title:       "icebattle match protocol",
		Description: "Payloads of the {type, payload} frames exchanged over /ws/game/{playerId}/{matchId}.",
		Type:        "object",
		Definitions: defs,
	}
}
