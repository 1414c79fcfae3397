package coap

import "errors"

// ErrTruncatedInner is returned when the inner byte string ends in
// the middle of a token, option header, extension bytes, or option
// value.
var ErrTruncatedInner = errors.New("coap: truncated inner message")

// ErrUnsupportedCriticalOption is returned when the inner message
// contains an option this package does not recognize, and that
// option's number is critical (odd). Per CoAP's critical-option rule
// this is a recoverable, caller-visible condition — not a reason to
// abort parsing the rest of the message — so the offending option
// number is reported and parsing continues.
type ErrUnsupportedCriticalOption struct {
	Option OptionNumber
}

func (e *ErrUnsupportedCriticalOption) Error() string {
	return "coap: unsupported critical option"
}

// ParseInner parses a byte string produced by SerializeInner back into
// a token, option set, and payload. It does not set Version or Code;
// the caller fills those in from the outer message / AAD context. An
// empty input parses to an empty token, no options, and no payload.
// A payload longer than MaxChunkSize is truncated to that length.
//
// If the message contains an option number this package's option
// table does not list, and that option number is critical (odd),
// parsing still succeeds for every other option and the payload, but
// the returned error is an *ErrUnsupportedCriticalOption naming the
// first such option, so the caller can decide whether to reject the
// message.
func ParseInner(data []byte) (token []byte, opts OptionSet, payload []byte, err error) {
	opts = OptionSet{}
	if len(data) == 0 {
		return nil, opts, nil, nil
	}

	tokenLen := int(data[0])
	if len(data) < 1+tokenLen {
		return nil, nil, nil, ErrTruncatedInner
	}
	token = append([]byte(nil), data[1:1+tokenLen]...)
	rest := data[1+tokenLen:]

	var unsupported *ErrUnsupportedCriticalOption
	current := OptionNumber(0)

	for len(rest) > 0 {
		if rest[0]&0xF0 == 0xF0 {
			body := rest[1:]
			if len(body) > MaxChunkSize {
				body = body[:MaxChunkSize]
			}
			payload = append([]byte(nil), body...)
			rest = nil
			break
		}

		deltaNibble := rest[0] >> 4
		lenNibble := rest[0] & 0x0F
		rest = rest[1:]

		delta, n, ok := extendNibble(deltaNibble, rest)
		if !ok {
			return nil, nil, nil, ErrTruncatedInner
		}
		rest = rest[n:]

		length, n, ok := extendNibble(lenNibble, rest)
		if !ok {
			return nil, nil, nil, ErrTruncatedInner
		}
		rest = rest[n:]

		if len(rest) < length {
			return nil, nil, nil, ErrTruncatedInner
		}
		value := append([]byte(nil), rest[:length]...)
		rest = rest[length:]

		current += OptionNumber(delta)
		if _, known := optionKinds[current]; !known && unsupported == nil && IsCritical(current) {
			unsupported = &ErrUnsupportedCriticalOption{Option: current}
		}
		opts.Add(current, value)
	}

	if unsupported != nil {
		return token, opts, payload, unsupported
	}
	return token, opts, payload, nil
}
