package coap

import (
	"bytes"
	"errors"
)

// ErrSerializationOverflow is returned when the serialized inner
// message would exceed MaxInnerSize.
var ErrSerializationOverflow = errors.New("coap: inner message too large")

// MaxChunkSize caps the payload carried in the inner plaintext. A
// decrypted payload longer than this is truncated by ParseInner rather
// than handed to the application whole.
const MaxChunkSize = 1024

// MaxInnerSize bounds the full serialized inner message: token,
// options, payload marker, and payload. Kept under the transport
// datagram bound with room for the envelope overhead.
const MaxInnerSize = MaxChunkSize + 128

// emptyMessagePlaceholder is what an empty (0.00) message serializes
// to: a version-1 header byte, zero code, zero message id. Empty
// messages carry no token, options, or payload, so this fixed stand-in
// is their entire inner plaintext.
var emptyMessagePlaceholder = []byte{0x40, 0x00, 0x00, 0x00}

// EmptyMessagePlaceholder returns the 4-byte serialization of an empty
// message.
func EmptyMessagePlaceholder() []byte {
	return append([]byte(nil), emptyMessagePlaceholder...)
}

// IsEmptyMessagePlaceholder reports whether b is exactly the 4-byte
// empty-message placeholder.
func IsEmptyMessagePlaceholder(b []byte) bool {
	return bytes.Equal(b, emptyMessagePlaceholder)
}

// innerEntry is one option occurrence in the order it is written to
// the inner byte string.
type innerEntry struct {
	number OptionNumber
	value  []byte
}

// innerEntries collects every inner-confidential option occurrence
// from a message's OptionSet, in ascending (number, occurrence) order
// — the order the delta encoding requires.
func innerEntries(opts OptionSet) []innerEntry {
	var entries []innerEntry
	for _, n := range innerOptions {
		for _, v := range opts[n] {
			entries = append(entries, innerEntry{n, v})
		}
	}
	return entries
}

// SerializeInner produces the confidential plaintext for m: a one-byte
// token length, the token itself, the inner-confidential options in
// ascending order (each delta-encoded against the previous option
// number), and, only when there is a payload to carry, a 0xFF payload
// marker followed by the payload. The token-length prefix makes the
// inner byte string self-describing instead of relying on the token
// length carried separately by the (cleartext) outer message.
//
// An empty-code message (0.00) carries no token, options, or payload
// and serializes to the fixed 4-byte empty-message placeholder; no
// option work is done.
//
// Returns ErrSerializationOverflow if the result would exceed
// MaxInnerSize.
func SerializeInner(m *Message) ([]byte, error) {
	if m.Code == CodeEmpty {
		return EmptyMessagePlaceholder(), nil
	}

	entries := innerEntries(m.Options)

	buf := make([]byte, 0, 32+len(m.Token)+len(m.Payload))
	buf = append(buf, byte(len(m.Token)))
	buf = append(buf, m.Token...)

	prev := OptionNumber(0)
	for _, e := range entries {
		delta := int(e.number) - int(prev)
		prev = e.number

		deltaNibble, deltaExt := optionNibble(delta)
		lenNibble, lenExt := optionNibble(len(e.value))

		buf = append(buf, deltaNibble<<4|lenNibble)
		buf = append(buf, deltaExt...)
		buf = append(buf, lenExt...)
		buf = append(buf, e.value...)
	}

	if len(m.Payload) > 0 {
		buf = append(buf, 0xFF)
		buf = append(buf, m.Payload...)
	}

	if len(buf) > MaxInnerSize {
		return nil, ErrSerializationOverflow
	}
	return buf, nil
}
