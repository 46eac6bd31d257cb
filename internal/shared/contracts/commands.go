package contracts

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/davicafu/latamtradex/internal/shared/infra/codec"
)

var (
	ErrUnknownCommand   = errors.New("unknown command")
	ErrMalformedCommand = errors.New("malformed command")
)

// CommandEnvelope es el sobre de todos los comandos: {"command": ..., "data": ...}.
type CommandEnvelope struct {
	Command string          `json:"command"`
	Data    json.RawMessage `json:"data"`
}

// UnknownCommand es la variante explícita para un discriminador que ningún conjunto
// de comandos reconoce. Cada router está obligado a decidir qué hacer con ella.
type UnknownCommand struct {
	Topic string
	Name  string
	Data  json.RawMessage
}

// NewCommand construye un sobre serializando data.
func NewCommand(name string, data interface{}) (CommandEnvelope, error) {
	raw, err := codec.Marshal(data)
	if err != nil {
		return CommandEnvelope{}, fmt.Errorf("failed to marshal %s data: %w", name, err)
	}
	return CommandEnvelope{Command: name, Data: raw}, nil
}

// ParseEnvelope decodifica el valor crudo de un mensaje de un topic de comandos.
func ParseEnvelope(raw []byte) (CommandEnvelope, error) {
	var env CommandEnvelope
	if err := codec.Unmarshal(raw, &env); err != nil {
		return env, fmt.Errorf("%w: %w", ErrMalformedCommand, err)
	}
	if env.Command == "" {
		return env, fmt.Errorf("%w: missing command discriminator", ErrMalformedCommand)
	}
	return env, nil
}

func decodeData[T any](env CommandEnvelope) (T, error) {
	var v T
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return v, fmt.Errorf("%w: %s has no data", ErrMalformedCommand, env.Command)
	}
	if err := codec.Unmarshal(env.Data, &v); err != nil {
		return v, fmt.Errorf("%w: %s: %w", ErrMalformedCommand, env.Command, err)
	}
	return v, nil
}
