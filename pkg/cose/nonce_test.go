package cose

import (
	"bytes"
	"testing"
)

var staticIV = []byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06}

func TestBuildNonceXOR(t *testing.T) {
	tests := []struct {
		name      string
		partialIV []byte
		want      []byte
	}{
		{"empty partial iv", nil, []byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06}},
		{"one byte", []byte{0x01}, []byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x07}},
		{"two bytes", []byte{0xFF, 0x01}, []byte{0x00, 0x01, 0x02, 0x03, 0x04, 0xFA, 0x07}},
		{"full length", []byte{0, 0, 0, 0, 0, 0, 1}, []byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x07}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildNonce(staticIV, tt.partialIV)
			if err != nil {
				t.Fatalf("BuildNonce() error: %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Fatalf("BuildNonce() = %x, want %x", got, tt.want)
			}
		})
	}
}

func TestBuildNonceDeterministic(t *testing.T) {
	a, err := BuildNonce(staticIV, []byte{0x2A})
	if err != nil {
		t.Fatalf("BuildNonce() error: %v", err)
	}
	b, err := BuildNonce(staticIV, []byte{0x2A})
	if err != nil {
		t.Fatalf("BuildNonce() error: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("BuildNonce is not a pure function: %x != %x", a, b)
	}
}

func TestBuildNoncePartialIVTooLong(t *testing.T) {
	if _, err := BuildNonce(staticIV, make([]byte, IVLen+1)); err != ErrPartialIVTooLong {
		t.Fatalf("BuildNonce(long partial iv) error = %v, want ErrPartialIVTooLong", err)
	}
}

func TestBuildNonceBadStaticIVLength(t *testing.T) {
	if _, err := BuildNonce(make([]byte, 3), nil); err == nil {
		t.Fatal("BuildNonce(short static iv) error = nil, want error")
	}
}
