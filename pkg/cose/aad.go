package cose

// Role distinguishes which external-AAD construction rule applies:
// requests carry just the header block; responses additionally bind
// the context id and the partial IV.
type Role int

const (
	// RoleRequest is used for CoAP request codes (0.01-0.04).
	RoleRequest Role = iota
	// RoleResponse is used for CoAP response codes (2.xx-5.xx).
	RoleResponse
)

// headerBlockSize is the fixed 3-byte [versionByte, code, alg] prefix
// present in every external AAD.
const headerBlockSize = 3

// coapVersion1 is CoAP version 1, encoded in the top two bits of the
// version byte.
const coapVersion1 = 1

// ExternalAADOption configures optional, non-default behavior of
// BuildExternalAAD.
type ExternalAADOption func(*externalAADConfig)

type externalAADConfig struct {
	uriPath string
}

// WithURIPath includes the request URI-path in the request external
// AAD, aligning with the canonical OSCORE construction (RFC 8613)
// instead of this package's default, which omits it for
// bit-compatibility with deployments that never bound URI-path into
// the AAD. Has no effect for RoleResponse.
func WithURIPath(uriPath string) ExternalAADOption {
	return func(c *externalAADConfig) {
		c.uriPath = uriPath
	}
}

// writeHeaderBlock writes the 3-byte header block: version in the top
// two bits of byte 0, the CoAP code, then the algorithm id.
func writeHeaderBlock(buf []byte, code byte, alg AlgorithmID) {
	buf[0] = (coapVersion1 & 0x03) << 6
	buf[1] = code
	buf[2] = byte(alg)
}

// BuildExternalAAD builds the external_aad byte string.
//
// For RoleRequest: just the header block (unless WithURIPath is
// supplied).
// For RoleResponse: header block || contextID || partialIV. contextID
// and partialIV are the already-minimally-encoded byte strings (see
// pkg/codec.ToBytes). The AAD is always built from whichever partial
// IV the caller passes in — on send, the sender's own; on receive,
// whatever was carried in the envelope — never implicitly recomputed
// from the receiver's own counter.
func BuildExternalAAD(role Role, code byte, alg AlgorithmID, contextID, partialIV []byte, opts ...ExternalAADOption) []byte {
	cfg := externalAADConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	switch role {
	case RoleRequest:
		buf := make([]byte, headerBlockSize, headerBlockSize+len(cfg.uriPath))
		writeHeaderBlock(buf, code, alg)
		if cfg.uriPath != "" {
			buf = append(buf, cfg.uriPath...)
		}
		return buf
	default:
		buf := make([]byte, headerBlockSize+len(contextID)+len(partialIV))
		writeHeaderBlock(buf, code, alg)
		offset := headerBlockSize
		offset += copy(buf[offset:], contextID)
		copy(buf[offset:], partialIV)
		return buf
	}
}

// aadContextLabel is a fixed marker byte standing in for the COSE
// Enc_structure's "Encrypt0" context string (RFC 8152 §5.3); this
// profile encodes the Enc0 AAD structure as a flat, deterministic byte
// string rather than full CBOR, since a CBOR codec has no other
// consumer in this layer.
const aadContextLabel = 0x00

// AADLength returns the length BuildAAD(alg, externalAAD) will
// produce, so callers can size buffers up front.
func AADLength(externalAAD []byte) int {
	return 1 + 1 + len(externalAAD)
}

// BuildAAD assembles the canonical AAD string fed to the AEAD from the
// algorithm id and external AAD, per the COSE Enc0 construction:
// [context label, protected header (alg), external_aad].
func BuildAAD(alg AlgorithmID, externalAAD []byte) []byte {
	buf := make([]byte, AADLength(externalAAD))
	buf[0] = aadContextLabel
	buf[1] = byte(alg)
	copy(buf[2:], externalAAD)
	return buf
}
