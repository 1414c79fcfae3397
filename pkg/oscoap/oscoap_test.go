package oscoap

import (
	"bytes"
	"errors"
	"testing"

	"github.com/go-oscoap/oscoap/pkg/coap"
	"github.com/go-oscoap/oscoap/pkg/cose"
)

// TestRequestResponseRoundtrip exercises a full GET request from
// client to server, and the corresponding 2.05 response from server
// back to client, each independently protected and unprotected under
// the two directions of the same context pair.
func TestRequestResponseRoundtrip(t *testing.T) {
	clientStore, serverStore, client, server := newPair(t, 0x02)
	_ = clientStore

	reqOpts := coap.OptionSet{}
	reqOpts.SetString(coap.OptURIPath, "temp")
	request := &coap.Message{Code: coap.CodeGET, Token: []byte{0x7B}, Options: reqOpts, Context: client}

	if _, err := Protect(request); err != nil {
		t.Fatalf("Protect(request) error: %v", err)
	}

	gotRequest, err := Unprotect(request, serverStore)
	if err != nil {
		t.Fatalf("Unprotect(request) error: %v", err)
	}
	if got := gotRequest.Options.GetString(coap.OptURIPath); got != "temp" {
		t.Fatalf("request URI-Path = %q, want temp", got)
	}

	respOpts := coap.OptionSet{}
	respOpts.SetUint(coap.OptContentFormat, 50)
	response := &coap.Message{Code: coap.Code205, Token: request.Token, Options: respOpts, Payload: []byte(`{"t":23}`), Context: server}

	if _, err := Protect(response); err != nil {
		t.Fatalf("Protect(response) error: %v", err)
	}

	gotResponse, err := Unprotect(response, clientStore)
	if err != nil {
		t.Fatalf("Unprotect(response) error: %v", err)
	}
	if !bytes.Equal(gotResponse.Payload, []byte(`{"t":23}`)) {
		t.Fatalf("response payload = %q, want {\"t\":23}", gotResponse.Payload)
	}
	if got := gotResponse.Options.GetUint(coap.OptContentFormat); got != 50 {
		t.Fatalf("response Content-Format = %d, want 50", got)
	}
}

// TestEmptyMessageRoundtrip protects and unprotects an empty (0.00)
// message: the plaintext is the fixed 4-byte placeholder, and the
// result carries no options or payload.
func TestEmptyMessageRoundtrip(t *testing.T) {
	_, serverStore, client, _ := newPair(t, 0x02)

	msg := &coap.Message{Code: coap.CodeEmpty, Options: coap.OptionSet{}, Context: client}
	if _, err := Protect(msg); err != nil {
		t.Fatalf("Protect(empty) error: %v", err)
	}

	got, err := Unprotect(msg, serverStore)
	if err != nil {
		t.Fatalf("Unprotect(empty) error: %v", err)
	}
	if len(got.Options) != 0 || got.Payload != nil {
		t.Fatalf("empty message came back with options %v payload %x", got.Options, got.Payload)
	}
}

// TestReplayErrorMatchesSentinel confirms a replayed message's error
// matches this package's re-exported ErrReplay via errors.Is, so
// callers never need to import pkg/context for taxonomy matching.
func TestReplayErrorMatchesSentinel(t *testing.T) {
	_, serverStore, client, _ := newPair(t, 0x02)

	msg := &coap.Message{Code: coap.CodeGET, Options: coap.OptionSet{}, Context: client}
	if _, err := Protect(msg); err != nil {
		t.Fatalf("Protect() error: %v", err)
	}
	if _, err := Unprotect(msg, serverStore); err != nil {
		t.Fatalf("Unprotect(first) error: %v", err)
	}

	replay := &coap.Message{Code: msg.Code, Options: coap.OptionSet{}}
	replay.Options.Add(coap.OptObjectSecurity, msg.Options.Get(coap.OptObjectSecurity))

	_, err := Unprotect(replay, serverStore)
	if !errors.Is(err, ErrReplay) {
		t.Fatalf("Unprotect(replay) error = %v, want errors.Is ErrReplay", err)
	}
}

// TestSerializationOverflowSurfaces confirms an oversized inner
// message fails Protect without consuming a sequence number.
func TestSerializationOverflowSurfaces(t *testing.T) {
	_, _, client, _ := newPair(t, 0x02)

	big := &coap.Message{
		Code:    coap.CodePOST,
		Options: coap.OptionSet{},
		Payload: make([]byte, coap.MaxInnerSize+1),
		Context: client,
	}
	if _, err := Protect(big); !errors.Is(err, coap.ErrSerializationOverflow) {
		t.Fatalf("Protect(oversized) error = %v, want ErrSerializationOverflow", err)
	}

	// The failed Protect must not have burned a sequence number.
	ok := &coap.Message{Code: coap.CodeGET, Options: coap.OptionSet{}, Context: client}
	wire, err := Protect(ok)
	if err != nil {
		t.Fatalf("Protect() error: %v", err)
	}
	env, err := cose.Decode(wire)
	if err != nil {
		t.Fatalf("cose.Decode() error: %v", err)
	}
	if len(env.PartialIV) != 1 || env.PartialIV[0] != 1 {
		t.Fatalf("partial IV after failed Protect = %x, want 01", env.PartialIV)
	}
}

// TestSenderSequenceNumbersAreIndependentPerDirection confirms the
// client's request sequence counter and the server's response
// sequence counter advance independently: each direction has its own
// NextSenderSeq state.
func TestSenderSequenceNumbersAreIndependentPerDirection(t *testing.T) {
	clientStore, serverStore, client, server := newPair(t, 0x02)
	_ = clientStore
	_ = serverStore

	for i := 0; i < 3; i++ {
		req := &coap.Message{Code: coap.CodeGET, Options: coap.OptionSet{}, Context: client}
		if _, err := Protect(req); err != nil {
			t.Fatalf("Protect(request %d) error: %v", i, err)
		}
	}

	resp := &coap.Message{Code: coap.Code205, Options: coap.OptionSet{}, Context: server}
	wire, err := Protect(resp)
	if err != nil {
		t.Fatalf("Protect(response) error: %v", err)
	}
	// The server has sent nothing yet, so its first protected message
	// must carry sequence number 1 regardless of how far the client's
	// counter has advanced.
	env, err := cose.Decode(wire)
	if err != nil {
		t.Fatalf("cose.Decode() error: %v", err)
	}
	if len(env.PartialIV) != 1 || env.PartialIV[0] != 1 {
		t.Fatalf("response partial IV = %x, want 01", env.PartialIV)
	}
}
