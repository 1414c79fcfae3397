package context

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/go-oscoap/oscoap/pkg/cose"
	"github.com/go-oscoap/oscoap/pkg/crypto"
)

// DeriveContext derives a full set of sender/receiver keys and IVs
// from a single shared secret via HKDF-SHA256, and installs the
// resulting context into store under cid. A single shared secret plus
// per-direction info strings is a common way deployments provision
// matching context pairs at both ends, so it is offered alongside
// Store.New's already-split key/IV signature rather than in place of
// it.
func DeriveContext(store *Store, cid []byte, alg cose.AlgorithmID, secret, senderInfo, receiverInfo []byte) (Handle, error) {
	senderKey, senderIV, err := deriveKeyIV(secret, senderInfo)
	if err != nil {
		return Handle{}, err
	}
	receiverKey, receiverIV, err := deriveKeyIV(secret, receiverInfo)
	if err != nil {
		return Handle{}, err
	}
	return store.New(cid, alg, senderKey, senderIV, receiverKey, receiverIV)
}

func deriveKeyIV(secret, info []byte) (key, iv []byte, err error) {
	r := hkdf.New(sha256.New, secret, nil, info)

	key = make([]byte, crypto.KeySize)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, nil, err
	}
	iv = make([]byte, cose.IVLen)
	if _, err := io.ReadFull(r, iv); err != nil {
		return nil, nil, err
	}
	return key, iv, nil
}
