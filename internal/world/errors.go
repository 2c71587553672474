package world

import (
	"errors"
	"fmt"
)

// Code classifies world and resolution failures. Codes are stable strings so
// they can be written to tick logs and compared after replay.
type Code string

const (
	UnknownLocation               Code = "UNKNOWN_LOCATION"
	UnknownObject                 Code = "UNKNOWN_OBJECT"
	UnknownAgent                  Code = "UNKNOWN_AGENT"
	InvalidMove                   Code = "INVALID_MOVE"
	ActionRejected                Code = "ACTION_REJECTED"
	MalformedCollaboratorResponse Code = "MALFORMED_COLLABORATOR_RESPONSE"
	PreconditionFailed            Code = "PRECONDITION_FAILED"

	// Detail codes.
	AgentLocked             Code = "AGENT_LOCKED"
	NotReachable            Code = "NOT_REACHABLE"
	InvalidValue            Code = "INVALID_VALUE"
	DuplicateObject         Code = "DUPLICATE_OBJECT"
	CollaboratorUnavailable Code = "COLLABORATOR_UNAVAILABLE"
	LockClamped             Code = "LOCK_CLAMPED" // warning, the command still applies
	InvalidScenario         Code = "INVALID_SCENARIO"
)

var knownCodes = map[Code]struct{}{
	UnknownLocation:               {},
	UnknownObject:                 {},
	UnknownAgent:                  {},
	InvalidMove:                   {},
	ActionRejected:                {},
	MalformedCollaboratorResponse: {},
	PreconditionFailed:            {},
	AgentLocked:                   {},
	NotReachable:                  {},
	InvalidValue:                  {},
	DuplicateObject:               {},
	CollaboratorUnavailable:       {},
	LockClamped:                   {},
	InvalidScenario:               {},
}

func IsKnownCode(c Code) bool {
	_, ok := knownCodes[c]
	return ok
}

// Error is a coded world error.
type Error struct {
	Code Code
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return string(e.Code)
	}
	return string(e.Code) + ": " + e.Msg
}

// Is matches any *Error with the same code, so errors.Is(err, &Error{Code: InvalidMove}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func errorf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// CodeOf returns the code carried by err, or "" when err is nil or uncoded.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var we *Error
	if errors.As(err, &we) {
		return we.Code
	}
	return ""
}
