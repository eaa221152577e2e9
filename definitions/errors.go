package definitions

import (
	"errors"
	"strings"
)

var (
	ErrIO       = errors.New("io error")
	ErrNetwork  = errors.New("network error")
	ErrProtocol = errors.New("protocol error")
)

// Error carries the failure kind (one of ErrIO, ErrNetwork, ErrProtocol) and
// whatever context is known: the file name, the endpoint, the cause.
type Error struct {
	Kind     error
	Op       string
	Name     string
	Endpoint string
	Err      error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Op != "" {
		b.WriteString(": ")
		b.WriteString(e.Op)
	}
	if e.Name != "" {
		b.WriteString(" ")
		b.WriteString(e.Name)
	}
	if e.Endpoint != "" {
		b.WriteString(" (")
		b.WriteString(e.Endpoint)
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func IOError(op, name string, err error) error {
	return &Error{Kind: ErrIO, Op: op, Name: name, Err: err}
}

func NetworkError(op, endpoint string, err error) error {
	return &Error{Kind: ErrNetwork, Op: op, Endpoint: endpoint, Err: err}
}

func ProtocolError(op, endpoint string, err error) error {
	return &Error{Kind: ErrProtocol, Op: op, Endpoint: endpoint, Err: err}
}
