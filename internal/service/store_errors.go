package service

import (
	"errors"
	"fmt"
)

var (
	ErrCompanionServiceNotConfigured = errors.New("companion service not configured")
	ErrCompanionNotFound             = errors.New("companion not found")
	ErrUnauthenticated               = errors.New("unauthenticated")
	ErrInvalidInput                  = errors.New("invalid input")
)

// WriteError indica que el store fallo al insertar, borrar o consultar.
type WriteError struct {
	Op  string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("store write failed (%s): %v", e.Op, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// ReadError lo usa GetCompanion para distinguir un fallo de consulta de un companion inexistente.
type ReadError struct {
	Op  string
	Err error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("store read failed (%s): %v", e.Op, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

func writeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &WriteError{Op: op, Err: err}
}

// IsStoreError reporta si err proviene del store, sea lectura o escritura.
func IsStoreError(err error) bool {
	var we *WriteError
	var re *ReadError
	return errors.As(err, &we) || errors.As(err, &re)
}
