package oscoap

import (
	"testing"

	"github.com/go-oscoap/oscoap/pkg/coap"
	"github.com/go-oscoap/oscoap/pkg/context"
	"github.com/go-oscoap/oscoap/pkg/cose"
)

func protectedOuter(t *testing.T, ctx *context.SecurityContext, code byte, token []byte, opts coap.OptionSet, payload []byte) *coap.Message {
	t.Helper()
	msg := &coap.Message{Code: code, Token: token, Options: opts, Payload: payload, Context: ctx}
	if _, err := Protect(msg); err != nil {
		t.Fatalf("Protect() error: %v", err)
	}
	return msg
}

func TestUnprotectRoundtripRequest(t *testing.T) {
	_, serverStore, client, _ := newPair(t, 0x02)

	opts := coap.OptionSet{}
	opts.SetString(coap.OptURIPath, "temp")
	outer := protectedOuter(t, client, coap.CodeGET, []byte{0x01}, opts, nil)

	result, err := Unprotect(outer, serverStore)
	if err != nil {
		t.Fatalf("Unprotect() error: %v", err)
	}
	if got := result.Options.GetString(coap.OptURIPath); got != "temp" {
		t.Fatalf("URI-Path = %q, want temp", got)
	}
	if result.Context == nil {
		t.Fatal("Unprotect() did not populate the resolved context")
	}
}

func TestUnprotectNoEnvelope(t *testing.T) {
	store := context.NewStore(4)
	outer := &coap.Message{Code: coap.CodeGET, Options: coap.OptionSet{}}
	if _, err := Unprotect(outer, store); err != ErrNoEnvelope {
		t.Fatalf("Unprotect() error = %v, want ErrNoEnvelope", err)
	}
}

func TestUnprotectUnknownContext(t *testing.T) {
	_, _, client, _ := newPair(t, 0x02)
	outer := protectedOuter(t, client, coap.CodeGET, nil, coap.OptionSet{}, nil)

	emptyStore := context.NewStore(4)
	if _, err := Unprotect(outer, emptyStore); err != ErrNoContext {
		t.Fatalf("Unprotect() error = %v, want ErrNoContext", err)
	}
}

func TestUnprotectTamperedCiphertextFails(t *testing.T) {
	_, serverStore, client, _ := newPair(t, 0x02)

	outer := protectedOuter(t, client, coap.CodeGET, nil, coap.OptionSet{}, []byte("hello"))

	// Non-empty payload means Protect placed the envelope in the
	// payload and left Object-Security as the empty marker.
	env, _ := cose.Decode(outer.Payload)
	env.Ciphertext[0] ^= 0xFF
	outer.Payload = env.Encode()

	if _, err := Unprotect(outer, serverStore); err != ErrAuthFail {
		t.Fatalf("Unprotect(tampered) error = %v, want ErrAuthFail", err)
	}
}

func TestUnprotectReplayRejected(t *testing.T) {
	_, serverStore, client, _ := newPair(t, 0x02)

	first := protectedOuter(t, client, coap.CodeGET, nil, coap.OptionSet{}, nil)
	if _, err := Unprotect(first, serverStore); err != nil {
		t.Fatalf("Unprotect(first) error: %v", err)
	}

	// Replay the exact same wire message.
	replay := &coap.Message{Code: first.Code, Token: first.Token, Options: coap.OptionSet{}}
	replay.Options.Add(coap.OptObjectSecurity, first.Options.Get(coap.OptObjectSecurity))

	if _, err := Unprotect(replay, serverStore); err == nil {
		t.Fatal("Unprotect(replay) succeeded, want an error")
	}
}
