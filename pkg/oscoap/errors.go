// Package oscoap implements the protect/unprotect pipelines that turn
// a plain CoAP-family request or response into an object-secured one
// and back, wiring together pkg/coap, pkg/cose, pkg/crypto, and
// pkg/context.
package oscoap

import (
	"errors"

	"github.com/go-oscoap/oscoap/pkg/context"
)

// Pipeline errors. Protect/Unprotect callers should treat these as the
// stable error taxonomy of this package. Underlying pkg/context,
// pkg/cose, and pkg/coap errors are reported wrapped so errors.Is still
// finds them; an AEAD failure from pkg/crypto is reported only as
// ErrAuthFail, and a malformed inner message only as ErrInnerParseError.
// Code outside this package should match against these.
var (
	// ErrNoContext is returned when a message has no SecurityContext
	// attached (Protect) or its context id does not resolve to a
	// live context in the store (Unprotect).
	ErrNoContext = errors.New("oscoap: no matching security context")

	// ErrNoEnvelope is returned by Unprotect when the message carries
	// no Object-Security option to decode.
	ErrNoEnvelope = errors.New("oscoap: message has no object-security envelope")

	// ErrAuthFail is returned by Unprotect when AEAD verification
	// fails. The message must be dropped; no partial state from it
	// should be trusted.
	ErrAuthFail = errors.New("oscoap: message authentication failed")

	// ErrInnerParseError is returned by Unprotect when the decrypted
	// inner plaintext is malformed (truncated token, option header, or
	// option value).
	ErrInnerParseError = errors.New("oscoap: malformed inner message")
)

// Context-layer sentinels the pipelines surface unchanged, aliased
// here so callers can match the whole error taxonomy against one
// package.
var (
	// ErrReplay is wrapped into Unprotect's error when the envelope's
	// partial IV is not strictly greater than the highest sequence
	// number already accepted on the context.
	ErrReplay = context.ErrReplay

	// ErrSequenceExhausted is wrapped into Protect's error when the
	// context's sender counter has entered its retirement margin; the
	// context must be freed rather than reused.
	ErrSequenceExhausted = context.ErrSequenceExhausted
)
