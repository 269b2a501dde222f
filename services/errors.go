package services

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrMapNotFound         = errors.New("map not found")
	ErrTrackNotFound       = errors.New("track not found")
	ErrZoneNotSupported    = errors.New("individual level runs are not supported")
	ErrActiveSessionExists = errors.New("an active run session already exists")
	ErrSessionNotFound     = errors.New("run session not found")
	ErrNotSessionOwner     = errors.New("run session belongs to another user")
	ErrNoActiveSession     = errors.New("no active run session")
	ErrInvalidCheckpoint   = errors.New("invalid checkpoint")
)

// RunValidationCode is the stable code a game client branches on when a
// submitted run is rejected.
type RunValidationCode string

const (
	BadReplayFile RunValidationCode = "BAD_REPLAY_FILE"
	BadTimestamps RunValidationCode = "BAD_TIMESTAMPS"
	BadMeta       RunValidationCode = "BAD_META"
	OutOfSync     RunValidationCode = "OUT_OF_SYNC"
)

type RunValidationError struct {
	Code   RunValidationCode
	Reason string
}

func (e *RunValidationError) Error() string {
	return fmt.Sprintf("run rejected (%s): %s", e.Code, e.Reason)
}

func reject(code RunValidationCode, format string, args ...any) error {
	return &RunValidationError{Code: code, Reason: fmt.Sprintf(format, args...)}
}
