package oscoap

import (
	"fmt"

	"github.com/go-oscoap/oscoap/pkg/coap"
	"github.com/go-oscoap/oscoap/pkg/codec"
	"github.com/go-oscoap/oscoap/pkg/cose"
	"github.com/go-oscoap/oscoap/pkg/crypto"
)

// Protect turns msg into an object-secured message in place: it
// serializes and encrypts the inner-confidential options, token, and
// payload under msg.Context, clears those options from msg so they no
// longer travel in the clear, and installs the resulting envelope: as
// msg's Object-Security option when msg has no payload, or as msg's
// payload (with an empty Object-Security option as a marker) when it
// has one. It returns the same envelope bytes for callers that want to
// transmit them directly.
//
// msg.Context must already be set to the SecurityContext to protect
// under; Protect does not consult a Store to find one, since on send
// the caller always knows which peer it is talking to.
func Protect(msg *coap.Message) ([]byte, error) {
	ctx := msg.Context
	if ctx == nil {
		return nil, ErrNoContext
	}

	// Serialize first: an oversized inner message must not consume a
	// sequence number.
	plaintext, err := coap.SerializeInner(msg)
	if err != nil {
		return nil, fmt.Errorf("oscoap: %w", err)
	}

	seq, err := ctx.NextSenderSeq()
	if err != nil {
		return nil, fmt.Errorf("oscoap: %w", err)
	}
	partialIV := codec.ToBytes(seq)
	kid := ctx.ContextID()

	role := roleFor(msg)
	externalAAD := cose.BuildExternalAAD(role, msg.Code, ctx.Algorithm(), kid, partialIV)
	aad := cose.BuildAAD(ctx.Algorithm(), externalAAD)

	nonce, err := cose.BuildNonce(ctx.SenderIV(), partialIV)
	if err != nil {
		return nil, fmt.Errorf("oscoap: %w", err)
	}

	ciphertext, err := crypto.Encrypt(ctx.SenderKey(), nonce, plaintext, aad)
	if err != nil {
		return nil, fmt.Errorf("oscoap: %w", err)
	}

	env := &cose.Envelope{Kid: kid, PartialIV: partialIV, Ciphertext: ciphertext}
	wire := env.Encode()

	msg.Options.ClearInner()
	msg.Options.Clear(coap.OptObjectSecurity)
	if len(msg.Payload) > 0 {
		// The envelope replaces the payload; Object-Security carries
		// only the empty marker.
		msg.Options.Add(coap.OptObjectSecurity, nil)
		msg.Payload = wire
	} else {
		msg.Options.Add(coap.OptObjectSecurity, wire)
	}

	return wire, nil
}

func roleFor(msg *coap.Message) cose.Role {
	if msg.IsRequest() {
		return cose.RoleRequest
	}
	return cose.RoleResponse
}
