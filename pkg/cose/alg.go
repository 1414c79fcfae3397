// Package cose implements the AAD/nonce construction rules and the
// COSE_Encrypt0-shaped envelope this security layer wraps ciphertext
// in.
package cose

// AlgorithmID identifies the AEAD algorithm carried in the envelope's
// (implicit, fixed) protected header.
type AlgorithmID uint8

// AESCCM6464128 is COSE_Algorithm_AES_CCM_64_64_128, the single
// algorithm id this profile ever uses on the wire.
const AESCCM6464128 AlgorithmID = 0x0A

// IVLen is the common/static IV length in bytes.
const IVLen = 7
