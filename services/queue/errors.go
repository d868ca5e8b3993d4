package queue

import "fmt"

// QueueError is a domain error with a stable code callers can branch on.
type QueueError struct {
	Code    string
	Message string
}

func (e *QueueError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Domain errors surfaced to callers. All other operations recover
// locally (no-op) instead of failing, matching the engine's leniency.
var (
	ErrQueueNotFound   = &QueueError{Code: "queueNotFound", Message: "queue not found"}
	ErrPatientNotFound = &QueueError{Code: "patientNotFound", Message: "no visitor with that serial"}
	ErrQueueEnded      = &QueueError{Code: "queueEnded", Message: "queue has ended, no new serials"}
	ErrLimitReached    = &QueueError{Code: "limitReached", Message: "serial limit reached for today"}
	ErrBadSecretCode   = &QueueError{Code: "badSecretCode", Message: "secret code does not match"}
)
