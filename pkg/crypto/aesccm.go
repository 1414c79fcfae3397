// Package crypto provides the AEAD primitive this security layer
// treats as a black box over (key, nonce, aad, plaintext): AES-CCM as
// profiled by COSE_Algorithm_AES_CCM_64_64_128 (RFC 8152 §10.2) —
// 128-bit key, 64-bit (8-byte) tag, 56-bit (7-byte) nonce.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/subtle"
	"encoding/binary"
	"errors"
)

// AES-CCM-64-64-128 constants.
const (
	// KeySize is the AES-128 key size in bytes.
	KeySize = 16

	// TagSize is the authentication tag size in bytes for the
	// "64" MIC-size profile (AES-CCM-64-64-128, cose.AESCCM6464128).
	TagSize = 8

	// NonceSize is the nonce size in bytes (the common IV length
	// this profile always uses).
	NonceSize = 7

	aesBlockSize = 16
)

// Errors.
var (
	ErrInvalidKeySize       = errors.New("crypto: invalid key size, must be 16 bytes")
	ErrInvalidNonceSize     = errors.New("crypto: invalid nonce size, must be 7 bytes")
	ErrPlaintextTooLong     = errors.New("crypto: plaintext too long")
	ErrCiphertextTooShort   = errors.New("crypto: ciphertext too short")
	ErrAuthFailed           = errors.New("crypto: message authentication failed")
)

// AESCCM6464128 implements the AES-CCM-64-64-128 AEAD profile: a
// 128-bit key, 7-byte nonce, and 8-byte (truncated) authentication
// tag. The construction (CBC-MAC for the tag, CTR mode for the
// ciphertext) follows NIST 800-38C / RFC 3610.
type AESCCM6464128 struct {
	block   cipher.Block
	lenSize int // L: length field size, 15 - NonceSize
}

// New creates an AES-CCM-64-64-128 cipher. The key must be exactly
// KeySize (16) bytes.
func New(key []byte) (*AESCCM6464128, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKeySize
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	return &AESCCM6464128{
		block:   block,
		lenSize: 15 - NonceSize,
	}, nil
}

// Seal encrypts and authenticates plaintext with associated data,
// using nonce (must be NonceSize bytes). Returns ciphertext || tag.
func (c *AESCCM6464128) Seal(nonce, plaintext, aad []byte) ([]byte, error) {
	if len(nonce) != NonceSize {
		return nil, ErrInvalidNonceSize
	}

	// With an 8-byte length field every int length fits; only shorter
	// length fields impose a bound (1<<64 would overflow int).
	if c.lenSize < 8 {
		maxPlaintextLen := (1 << (8 * c.lenSize)) - 1
		if len(plaintext) > maxPlaintextLen {
			return nil, ErrPlaintextTooLong
		}
	}

	tag := c.computeTag(nonce, plaintext, aad)

	ciphertext := make([]byte, len(plaintext)+TagSize)

	s0 := c.generateS0(nonce)
	for i := 0; i < TagSize; i++ {
		ciphertext[len(plaintext)+i] = tag[i] ^ s0[i]
	}

	c.ctrEncrypt(nonce, ciphertext[:len(plaintext)], plaintext)

	return ciphertext, nil
}

// Open decrypts and verifies ciphertext (which must be at least
// TagSize bytes, the trailing TagSize bytes being the tag) with
// associated data. Returns ErrAuthFailed on tag mismatch; the caller
// must drop the message and must not let the reason for the failure
// leak through timing or a distinguishable error path.
func (c *AESCCM6464128) Open(nonce, ciphertext, aad []byte) ([]byte, error) {
	if len(nonce) != NonceSize {
		return nil, ErrInvalidNonceSize
	}
	if len(ciphertext) < TagSize {
		return nil, ErrCiphertextTooShort
	}

	encryptedData := ciphertext[:len(ciphertext)-TagSize]
	encryptedTag := ciphertext[len(ciphertext)-TagSize:]

	s0 := c.generateS0(nonce)
	receivedTag := make([]byte, TagSize)
	for i := 0; i < TagSize; i++ {
		receivedTag[i] = encryptedTag[i] ^ s0[i]
	}

	plaintext := make([]byte, len(encryptedData))
	c.ctrEncrypt(nonce, plaintext, encryptedData)

	expectedTag := c.computeTag(nonce, plaintext, aad)

	if subtle.ConstantTimeCompare(receivedTag, expectedTag[:TagSize]) != 1 {
		return nil, ErrAuthFailed
	}

	return plaintext, nil
}

// computeTag computes the CBC-MAC authentication tag (RFC 3610 §2.2).
func (c *AESCCM6464128) computeTag(nonce, plaintext, aad []byte) []byte {
	var b0 [aesBlockSize]byte
	flags := byte(0)
	if len(aad) > 0 {
		flags |= 1 << 6
	}
	flags |= byte((TagSize-2)/2) << 3
	flags |= byte(c.lenSize - 1)

	b0[0] = flags
	copy(b0[1:1+NonceSize], nonce)
	c.putLength(b0[1+NonceSize:], len(plaintext))

	mac := make([]byte, aesBlockSize)
	c.block.Encrypt(mac, b0[:])

	if len(aad) > 0 {
		var aadBlock [aesBlockSize]byte
		aadLen := len(aad)
		var headerLen int

		if aadLen < (1<<16)-(1<<8) {
			binary.BigEndian.PutUint16(aadBlock[0:2], uint16(aadLen))
			headerLen = 2
		} else if aadLen < (1 << 32) {
			aadBlock[0] = 0xFF
			aadBlock[1] = 0xFE
			binary.BigEndian.PutUint32(aadBlock[2:6], uint32(aadLen))
			headerLen = 6
		} else {
			aadBlock[0] = 0xFF
			aadBlock[1] = 0xFF
			binary.BigEndian.PutUint64(aadBlock[2:10], uint64(aadLen))
			headerLen = 10
		}

		firstBlockAAD := aesBlockSize - headerLen
		if firstBlockAAD > len(aad) {
			firstBlockAAD = len(aad)
		}
		copy(aadBlock[headerLen:], aad[:firstBlockAAD])

		for i := 0; i < aesBlockSize; i++ {
			mac[i] ^= aadBlock[i]
		}
		c.block.Encrypt(mac, mac)

		remaining := aad[firstBlockAAD:]
		for len(remaining) > 0 {
			var block [aesBlockSize]byte
			n := copy(block[:], remaining)
			remaining = remaining[n:]

			for i := 0; i < aesBlockSize; i++ {
				mac[i] ^= block[i]
			}
			c.block.Encrypt(mac, mac)
		}
	}

	remaining := plaintext
	for len(remaining) > 0 {
		var block [aesBlockSize]byte
		n := copy(block[:], remaining)
		remaining = remaining[n:]

		for i := 0; i < aesBlockSize; i++ {
			mac[i] ^= block[i]
		}
		c.block.Encrypt(mac, mac)
	}

	return mac[:TagSize]
}

// generateS0 generates the S_0 keystream block used to mask the tag.
func (c *AESCCM6464128) generateS0(nonce []byte) []byte {
	var a0 [aesBlockSize]byte
	a0[0] = byte(c.lenSize - 1)
	copy(a0[1:1+NonceSize], nonce)

	s0 := make([]byte, aesBlockSize)
	c.block.Encrypt(s0, a0[:])
	return s0
}

// ctrEncrypt encrypts/decrypts data using CTR mode starting at counter 1.
func (c *AESCCM6464128) ctrEncrypt(nonce []byte, dst, src []byte) {
	var ctr [aesBlockSize]byte
	ctr[0] = byte(c.lenSize - 1)
	copy(ctr[1:1+NonceSize], nonce)
	ctr[aesBlockSize-1] = 1

	var keystream [aesBlockSize]byte
	for i := 0; i < len(src); i += aesBlockSize {
		c.block.Encrypt(keystream[:], ctr[:])

		end := i + aesBlockSize
		if end > len(src) {
			end = len(src)
		}
		for j := i; j < end; j++ {
			dst[j] = src[j] ^ keystream[j-i]
		}

		incrementCounter(ctr[aesBlockSize-c.lenSize:])
	}
}

func (c *AESCCM6464128) putLength(dst []byte, length int) {
	for i := c.lenSize - 1; i >= 0; i-- {
		dst[i] = byte(length)
		length >>= 8
	}
}

func incrementCounter(ctr []byte) {
	for i := len(ctr) - 1; i >= 0; i-- {
		ctr[i]++
		if ctr[i] != 0 {
			break
		}
	}
}

// Encrypt is a convenience wrapper around New(key).Seal(nonce, plaintext, aad).
func Encrypt(key, nonce, plaintext, aad []byte) ([]byte, error) {
	c, err := New(key)
	if err != nil {
		return nil, err
	}
	return c.Seal(nonce, plaintext, aad)
}

// Decrypt is a convenience wrapper around New(key).Open(nonce, ciphertext, aad).
func Decrypt(key, nonce, ciphertext, aad []byte) ([]byte, error) {
	c, err := New(key)
	if err != nil {
		return nil, err
	}
	return c.Open(nonce, ciphertext, aad)
}
