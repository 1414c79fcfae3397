// Package coap implements just enough of the outer CoAP message model
// to drive the protect/unprotect pipelines end to end: option numbers,
// a typed option set, and the inner-message serializer/parser. Framing
// of the full outer message (RFC 7252 wire format) is left to an
// external base codec; this package implements only the header,
// options, and payload layout the security layer itself needs to
// produce and consume.
package coap

import "github.com/go-oscoap/oscoap/pkg/context"

// OptionNumber identifies a CoAP option by its registered number.
type OptionNumber uint16

// Option numbers this family of messages uses (Object-Security is
// option 21 here, rather than RFC 8613's later-assigned 9).
const (
	OptIfMatch        OptionNumber = 1
	OptURIHost        OptionNumber = 3
	OptETag           OptionNumber = 4
	OptIfNoneMatch    OptionNumber = 5
	OptObserve        OptionNumber = 6
	OptURIPort        OptionNumber = 7
	OptLocationPath   OptionNumber = 8
	OptURIPath        OptionNumber = 11
	OptContentFormat  OptionNumber = 12
	OptMaxAge         OptionNumber = 14
	OptURIQuery       OptionNumber = 15
	OptAccept         OptionNumber = 17
	OptLocationQuery  OptionNumber = 20
	OptObjectSecurity OptionNumber = 21
	OptBlock2         OptionNumber = 23
	OptBlock1         OptionNumber = 27
	OptSize2          OptionNumber = 28
	OptProxyURI       OptionNumber = 35
	OptProxyScheme    OptionNumber = 39
	OptSize1          OptionNumber = 60
)

// CoAP method/response codes used by the test scenarios below.
const (
	CodeEmpty   byte = 0x00
	CodeGET     byte = 0x01
	CodePOST    byte = 0x02
	CodePUT     byte = 0x03
	CodeDELETE  byte = 0x04
	Code205     byte = 0x45 // 2.05 Content
)

// innerOptions lists, in ascending option-number order, every option
// that must be included in the inner (confidential) plaintext when
// present.
var innerOptions = []OptionNumber{
	OptIfMatch,
	OptURIHost,
	OptETag,
	OptIfNoneMatch,
	OptObserve,
	OptURIPort,
	OptLocationPath,
	OptURIPath,
	OptContentFormat,
	OptURIQuery,
	OptAccept,
	OptLocationQuery,
	OptBlock2,
	OptBlock1,
	OptSize2,
	OptSize1,
}

// outerOnlyOptions lists options that must be excluded from the inner
// plaintext and always remain in (or are only meaningful on) the
// outer message.
var outerOnlyOptions = []OptionNumber{
	OptMaxAge,
	OptProxyURI,
	OptProxyScheme,
	OptObjectSecurity,
}

// IsInnerOption reports whether n is one of the options the inner
// serializer/parser handle.
func IsInnerOption(n OptionNumber) bool {
	for _, o := range innerOptions {
		if o == n {
			return true
		}
	}
	return false
}

// IsCritical reports whether option n is critical per CoAP's
// odd-numbered-is-critical convention.
func IsCritical(n OptionNumber) bool {
	return n%2 == 1
}

// OptionSet holds a message's options. Values are stored as raw,
// already-encoded option bytes; repeatable options (If-Match, ETag,
// Location-Path, URI-Path, URI-Query, Location-Query) may have more
// than one value, in wire order.
type OptionSet map[OptionNumber][][]byte

// Has reports whether option n is present.
func (o OptionSet) Has(n OptionNumber) bool {
	return len(o[n]) > 0
}

// Add appends a value for option n.
func (o OptionSet) Add(n OptionNumber, value []byte) {
	o[n] = append(o[n], value)
}

// Get returns the first value for option n, or nil if absent.
func (o OptionSet) Get(n OptionNumber) []byte {
	if len(o[n]) == 0 {
		return nil
	}
	return o[n][0]
}

// Clear removes every value for option n.
func (o OptionSet) Clear(n OptionNumber) {
	delete(o, n)
}

// ClearInner removes every inner-confidential option, so that none of
// them leak in the outer message once the inner plaintext has taken
// over their role.
func (o OptionSet) ClearInner() {
	for _, n := range innerOptions {
		o.Clear(n)
	}
}

// Bitmap returns a presence bitmask: bit i is set iff option number i
// has at least one value. Every option number this package names is
// below 64, so a uint64 always suffices.
func (o OptionSet) Bitmap() uint64 {
	var bm uint64
	for n := range o {
		if len(o[n]) > 0 {
			bm |= 1 << uint(n)
		}
	}
	return bm
}

// Message is the outer (or, after SerializeInner, the about-to-be
// confidential) CoAP-family message: version, code, token, options,
// and payload, plus the SecurityContext this layer attaches on send
// (caller-supplied) or populates on receive.
type Message struct {
	Version byte
	Code    byte
	Token   []byte
	Options OptionSet
	Payload []byte

	// Context is set by the caller before Protect on send, and
	// populated by Unprotect on receive.
	Context *context.SecurityContext
}

// NewMessage returns an empty Message with an initialized OptionSet.
func NewMessage() *Message {
	return &Message{Options: OptionSet{}}
}

// IsRequest reports whether the message code is a request method
// (0.01-0.04).
func (m *Message) IsRequest() bool {
	return m.Code >= CodeGET && m.Code <= CodeDELETE
}
