package oscoap

import (
	"fmt"

	"github.com/go-oscoap/oscoap/pkg/coap"
	"github.com/go-oscoap/oscoap/pkg/codec"
	"github.com/go-oscoap/oscoap/pkg/context"
	"github.com/go-oscoap/oscoap/pkg/cose"
	"github.com/go-oscoap/oscoap/pkg/crypto"
)

// Unprotect decrypts and authenticates an object-secured message.
// outer carries the message's version, code, token, and options as
// received on the wire, including its Object-Security option; store
// resolves the envelope's kid to a live context.
//
// Authentication is checked before the sequence number is recorded
// against replay, so a forged envelope can never influence the
// context's replay state: an attacker who does not hold the key gets
// ErrAuthFail and nothing else changes.
//
// On success, the returned Message carries the token, options, and
// payload recovered from the inner plaintext (falling back to outer's
// token when the inner message carried none), plus the resolved
// SecurityContext. If the inner message used a critical option this
// package does not recognize, Unprotect still returns the decoded
// message and a non-nil *coap.ErrUnsupportedCriticalOption error so
// the caller can decide whether to reject it.
func Unprotect(outer *coap.Message, store *context.Store) (*coap.Message, error) {
	if !outer.Options.Has(coap.OptObjectSecurity) {
		return nil, ErrNoEnvelope
	}
	// An empty Object-Security option is a marker: the envelope
	// travels in the payload instead.
	envelopeBytes := outer.Options.Get(coap.OptObjectSecurity)
	if len(envelopeBytes) == 0 {
		envelopeBytes = outer.Payload
	}
	if len(envelopeBytes) == 0 {
		return nil, ErrNoEnvelope
	}

	env, err := cose.Decode(envelopeBytes)
	if err != nil {
		return nil, fmt.Errorf("oscoap: %w", err)
	}

	ctx, _, ok := store.FindByCID(env.Kid)
	if !ok {
		return nil, ErrNoContext
	}

	role := roleFor(outer)
	externalAAD := cose.BuildExternalAAD(role, outer.Code, ctx.Algorithm(), env.Kid, env.PartialIV)
	aad := cose.BuildAAD(ctx.Algorithm(), externalAAD)

	nonce, err := cose.BuildNonce(ctx.ReceiverIV(), env.PartialIV)
	if err != nil {
		return nil, fmt.Errorf("oscoap: %w", err)
	}

	plaintext, err := crypto.Decrypt(ctx.ReceiverKey(), nonce, env.Ciphertext, aad)
	if err != nil {
		return nil, ErrAuthFail
	}

	seq := codec.FromBytes(env.PartialIV)
	if err := ctx.CheckReceiverSeq(seq); err != nil {
		return nil, fmt.Errorf("oscoap: %w", err)
	}

	// An empty (0.00) message protects the fixed placeholder instead of
	// a real inner serialization; there is nothing to parse.
	if outer.Code == coap.CodeEmpty {
		if !coap.IsEmptyMessagePlaceholder(plaintext) {
			return nil, fmt.Errorf("%w: unexpected plaintext for empty message", ErrInnerParseError)
		}
		return &coap.Message{
			Version: outer.Version,
			Code:    outer.Code,
			Token:   outer.Token,
			Options: coap.OptionSet{},
			Context: ctx,
		}, nil
	}

	token, opts, payload, perr := coap.ParseInner(plaintext)
	if perr != nil {
		if _, recoverable := perr.(*coap.ErrUnsupportedCriticalOption); !recoverable {
			return nil, fmt.Errorf("%w: %v", ErrInnerParseError, perr)
		}
	}
	if len(token) == 0 {
		token = outer.Token
	}

	result := &coap.Message{
		Version: outer.Version,
		Code:    outer.Code,
		Token:   token,
		Options: opts,
		Payload: payload,
		Context: ctx,
	}

	return result, perr
}
