package events

import (
	"context"
	"errors"
	"time"
)

// Outcome clasifica lo que pasó al invocar un handler.
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeRetryable Outcome = "retryable"
	OutcomeTerminal  Outcome = "terminal"
)

// Result es el resultado de un handler sobre un mensaje. El mensaje se confirma sea cual sea
// el resultado; qué hacer con los fallos lo decide el ResultSink.
type Result struct {
	Topic    string
	Handler  string
	Message  Message
	Outcome  Outcome
	Err      error
	Duration time.Duration
}

// ResultSink recibe un Result por cada invocación de handler.
type ResultSink interface {
	Report(ctx context.Context, r Result)
}

type terminalError struct {
	err error
}

func (e *terminalError) Error() string { return e.err.Error() }
func (e *terminalError) Unwrap() error { return e.err }

// Terminal marca err como fallo que no se arregla reintentando (error de dominio, mensaje
// ilegible, comando desconocido). Terminal(nil) es nil.
func Terminal(err error) error {
	if err == nil {
		return nil
	}
	if IsTerminal(err) {
		return err
	}
	return &terminalError{err: err}
}

func IsTerminal(err error) bool {
	var t *terminalError
	return errors.As(err, &t)
}

func classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeSuccess
	case IsTerminal(err):
		return OutcomeTerminal
	default:
		return OutcomeRetryable
	}
}
