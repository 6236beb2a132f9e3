package override

import "errors"

// Local, synchronous rejections. None of them touch the network.
var (
	ErrInvalidDuration   = errors.New("invalid duration: must be between 1 and 60 minutes")
	ErrRequestInProgress = errors.New("request already in progress for zone")
	ErrInvalidTransition = errors.New("invalid transition for current override state")
)

// ErrStaleResponse marks an async result that belongs to a superseded request.
var ErrStaleResponse = errors.New("stale response for superseded request")
