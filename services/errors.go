package services

import (
	"errors"
	"fmt"
	"time"
)

// Domain errors surfaced to callers as 4xx responses. Everything else
// bubbling out of the services is treated as transient infrastructure
// trouble and retried at the queue level.
var (
	ErrSparkNotFound    = errors.New("spark not found")
	ErrNotParticipant   = errors.New("user is not a participant in this spark")
	ErrAlreadyResolved  = errors.New("spark is already resolved")
	ErrQueueUnavailable = errors.New("ingest queue unavailable")
	ErrBlocked          = errors.New("one of the users has blocked the other")
)

// CooldownError reports that a pair is still inside its cooldown window.
// It is an expected outcome on the matching path and only an error for
// explicit (manual) spark creation.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("pair on cooldown for another %s", e.Remaining)
}
