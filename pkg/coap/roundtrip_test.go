package coap

import (
	"bytes"
	"testing"
)

func TestSerializeParseInnerRoundtrip(t *testing.T) {
	tests := []struct {
		name string
		msg  *Message
	}{
		{"get no options", &Message{Code: CodeGET, Token: []byte{0x01}, Options: OptionSet{}}},
		{"put with uri path and payload", func() *Message {
			opts := OptionSet{}
			opts.SetString(OptURIPath, "temp")
			return &Message{Code: CodePUT, Token: []byte{0x7B}, Options: opts, Payload: []byte{0x17}}
		}()},
		{"multiple uri path segments", func() *Message {
			opts := OptionSet{}
			opts.Add(OptURIPath, []byte("a"))
			opts.Add(OptURIPath, []byte("b"))
			opts.Add(OptURIPath, []byte("c"))
			return &Message{Code: CodeGET, Options: opts}
		}()},
		{"content format and accept", func() *Message {
			opts := OptionSet{}
			opts.SetUint(OptContentFormat, 50)
			opts.SetUint(OptAccept, 50)
			return &Message{Code: Code205, Token: []byte{0x01, 0x02}, Options: opts, Payload: []byte("{}")}
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wire, err := SerializeInner(tt.msg)
			if err != nil {
				t.Fatalf("SerializeInner() error: %v", err)
			}
			token, opts, payload, err := ParseInner(wire)
			if err != nil {
				t.Fatalf("ParseInner() error: %v", err)
			}
			if !bytes.Equal(token, tt.msg.Token) {
				t.Fatalf("token = %x, want %x", token, tt.msg.Token)
			}
			if !bytes.Equal(payload, tt.msg.Payload) {
				t.Fatalf("payload = %x, want %x", payload, tt.msg.Payload)
			}
			for n, values := range tt.msg.Options {
				if len(opts[n]) != len(values) {
					t.Fatalf("option %d: got %d values, want %d", n, len(opts[n]), len(values))
				}
				for i := range values {
					if !bytes.Equal(opts[n][i], values[i]) {
						t.Fatalf("option %d[%d] = %x, want %x", n, i, opts[n][i], values[i])
					}
				}
			}
		})
	}
}
