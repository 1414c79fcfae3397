package discovery

import "errors"

var (
	// ErrClosed is returned when an operation is attempted on a closed
	// Advertiser.
	ErrClosed = errors.New("discovery: closed")

	// ErrAlreadyStarted is returned by Start when advertising is
	// already active.
	ErrAlreadyStarted = errors.New("discovery: already started")

	// ErrNotStarted is returned by Stop when nothing is being
	// advertised.
	ErrNotStarted = errors.New("discovery: not started")
)
