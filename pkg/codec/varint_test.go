package codec

import "testing"

func TestToBytesZero(t *testing.T) {
	got := ToBytes(0)
	if len(got) != 1 || got[0] != 0x00 {
		t.Fatalf("ToBytes(0) = %x, want [0x00]", got)
	}
}

func TestToBytesRoundtrip(t *testing.T) {
	tests := []struct {
		name string
		in   uint32
		want []byte
	}{
		{"one byte low", 1, []byte{0x01}},
		{"one byte high", 255, []byte{0xFF}},
		{"two bytes low", 256, []byte{0x01, 0x00}},
		{"two bytes high", 0xFFFF, []byte{0xFF, 0xFF}},
		{"three bytes", 0x010000, []byte{0x01, 0x00, 0x00}},
		{"four bytes", 0xFFFFFFFF, []byte{0xFF, 0xFF, 0xFF, 0xFF}},
		{"sender seq 1", 1, []byte{0x01}},
		{"sender seq 8", 8, []byte{0x08}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToBytes(tt.in)
			if string(got) != string(tt.want) {
				t.Fatalf("ToBytes(%d) = %x, want %x", tt.in, got, tt.want)
			}
			if back := FromBytes(got); back != tt.in {
				t.Fatalf("FromBytes(ToBytes(%d)) = %d, want %d", tt.in, back, tt.in)
			}
		})
	}
}

func TestToBytesHighByteNonzero(t *testing.T) {
	for n := uint32(1); n < 1<<20; n = n*3 + 1 {
		b := ToBytes(n)
		if b[0] == 0x00 {
			t.Fatalf("ToBytes(%d) = %x has a leading zero byte", n, b)
		}
	}
}

func TestFromBytesEmpty(t *testing.T) {
	if got := FromBytes(nil); got != 0 {
		t.Fatalf("FromBytes(nil) = %d, want 0", got)
	}
}
