package dispatch

import "errors"

var (
	ErrTransport      = errors.New("mail transport failed")
	ErrJobNotFound    = errors.New("scheduled job not found")
	ErrShuttingDown   = errors.New("scheduler is shutting down")
	ErrInvalidRequest = errors.New("invalid dispatch request")
	ErrDuplicateJob   = errors.New("could not allocate a unique job id")
)
