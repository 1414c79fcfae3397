package context

import "errors"

// Context package errors.
var (
	// ErrInvalidKeySize is returned when a key or IV buffer has the
	// wrong length for the fixed AEAD profile this layer uses.
	ErrInvalidKeySize = errors.New("context: invalid key or IV size")

	// ErrStoreFull is returned when New is called while the store is
	// already at capacity.
	ErrStoreFull = errors.New("context: store full")

	// ErrNotFound is returned when a handle or context id does not
	// resolve to a live context.
	ErrNotFound = errors.New("context: not found")

	// ErrStaleHandle is returned when a Handle's generation does not
	// match the slot's current occupant — the context it once
	// addressed has since been freed and the slot reused.
	ErrStaleHandle = errors.New("context: stale handle")

	// ErrDuplicateContextID is returned when New is called with a
	// context id already held by a live context.
	ErrDuplicateContextID = errors.New("context: duplicate context id")

	// ErrSequenceExhausted is returned by NextSenderSeq once the
	// sender sequence number has entered its retirement margin. The
	// caller must retire the context (Store.Free) rather than send
	// any more protected messages under it.
	ErrSequenceExhausted = errors.New("context: sender sequence number exhausted")

	// ErrReplay is returned by CheckReceiverSeq when the supplied
	// sequence number is not strictly greater than the highest one
	// already accepted.
	ErrReplay = errors.New("context: replayed or reordered sequence number")
)
