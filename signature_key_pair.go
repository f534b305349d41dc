package go_i2cp

import "fmt"

// SignatureKeyPair dispatches across the six signing algorithms a
// destination's certificate may select: DSA-SHA1, the three NIST-curve
// ECDSA variants, Ed25519, and RedDSA. At most one of the embedded key
// pairs is non-nil; algorithmType says which.
type SignatureKeyPair struct {
	algorithmType  uint32
	dsaKeyPair     *DSAKeyPair
	ecdsaKeyPair   *ECDSAKeyPair
	ed25519KeyPair *Ed25519KeyPair
	redDSAKeyPair  *RedDSAKeyPair
}

// NewSignatureKeyPair generates a fresh key pair for the given algorithm type.
func NewSignatureKeyPair(algorithmType uint32) (SignatureKeyPair, error) {
	switch algorithmType {
	case DSA_SHA1:
		kp, err := NewDSAKeyPair()
		if err != nil {
			return SignatureKeyPair{}, fmt.Errorf("failed to generate DSA key pair: %w", err)
		}
		return SignatureKeyPair{algorithmType: algorithmType, dsaKeyPair: kp}, nil
	case ECDSA_SHA256_P256, ECDSA_SHA384_P384, ECDSA_SHA512_P521:
		kp, err := NewECDSAKeyPair(algorithmType)
		if err != nil {
			return SignatureKeyPair{}, fmt.Errorf("failed to generate ECDSA key pair: %w", err)
		}
		return SignatureKeyPair{algorithmType: algorithmType, ecdsaKeyPair: kp}, nil
	case ED25519_SHA256:
		kp, err := NewEd25519KeyPair()
		if err != nil {
			return SignatureKeyPair{}, fmt.Errorf("failed to generate Ed25519 key pair: %w", err)
		}
		return SignatureKeyPair{algorithmType: algorithmType, ed25519KeyPair: kp}, nil
	case REDDSA_SHA512_ED25519:
		kp, err := NewRedDSAKeyPair()
		if err != nil {
			return SignatureKeyPair{}, fmt.Errorf("failed to generate RedDSA key pair: %w", err)
		}
		return SignatureKeyPair{algorithmType: algorithmType, redDSAKeyPair: kp}, nil
	default:
		return SignatureKeyPair{}, fmt.Errorf("unsupported signature algorithm type: %d", algorithmType)
	}
}

// SignatureKeyPairFromPublicBytes builds a verify-only key pair from the raw
// public key bytes stored in a destination (ECDSA points are unprefixed).
func SignatureKeyPairFromPublicBytes(algorithmType uint32, pubBytes []byte) (SignatureKeyPair, error) {
	switch algorithmType {
	case DSA_SHA1:
		kp, err := DSAKeyPairFromPublicBytes(pubBytes)
		if err != nil {
			return SignatureKeyPair{}, err
		}
		return SignatureKeyPair{algorithmType: algorithmType, dsaKeyPair: kp}, nil
	case ECDSA_SHA256_P256, ECDSA_SHA384_P384, ECDSA_SHA512_P521:
		kp, err := ECDSAKeyPairFromBytes(algorithmType, pubBytes, nil)
		if err != nil {
			return SignatureKeyPair{}, err
		}
		return SignatureKeyPair{algorithmType: algorithmType, ecdsaKeyPair: kp}, nil
	case ED25519_SHA256:
		pubKey, err := ed25519PublicKeyFromBytes(pubBytes)
		if err != nil {
			return SignatureKeyPair{}, err
		}
		return SignatureKeyPair{algorithmType: algorithmType, ed25519KeyPair: &Ed25519KeyPair{
			algorithmType: algorithmType,
			publicKey:     pubKey,
		}}, nil
	case REDDSA_SHA512_ED25519:
		kp, err := RedDSAPublicKeyFromBytes(pubBytes)
		if err != nil {
			return SignatureKeyPair{}, err
		}
		return SignatureKeyPair{algorithmType: algorithmType, redDSAKeyPair: kp}, nil
	default:
		return SignatureKeyPair{}, fmt.Errorf("unsupported signature algorithm type: %d", algorithmType)
	}
}

// AlgorithmType returns the I2CP signing algorithm constant.
func (sgk *SignatureKeyPair) AlgorithmType() uint32 {
	return sgk.algorithmType
}

// Sign dispatches to the embedded key pair's Sign method.
func (sgk *SignatureKeyPair) Sign(message []byte) ([]byte, error) {
	switch sgk.algorithmType {
	case DSA_SHA1:
		if sgk.dsaKeyPair == nil {
			return nil, fmt.Errorf("no DSA key pair available")
		}
		return sgk.dsaKeyPair.Sign(message)
	case ECDSA_SHA256_P256, ECDSA_SHA384_P384, ECDSA_SHA512_P521:
		if sgk.ecdsaKeyPair == nil {
			return nil, fmt.Errorf("no ECDSA key pair available")
		}
		return sgk.ecdsaKeyPair.Sign(message)
	case ED25519_SHA256:
		if sgk.ed25519KeyPair == nil {
			return nil, fmt.Errorf("no Ed25519 key pair available")
		}
		return sgk.ed25519KeyPair.Sign(message)
	case REDDSA_SHA512_ED25519:
		if sgk.redDSAKeyPair == nil {
			return nil, fmt.Errorf("no RedDSA key pair available")
		}
		return sgk.redDSAKeyPair.Sign(message)
	default:
		return nil, fmt.Errorf("unsupported signature algorithm type: %d", sgk.algorithmType)
	}
}

// Verify dispatches to the embedded key pair's Verify method.
func (sgk *SignatureKeyPair) Verify(message, signature []byte) bool {
	switch sgk.algorithmType {
	case DSA_SHA1:
		return sgk.dsaKeyPair != nil && sgk.dsaKeyPair.Verify(message, signature)
	case ECDSA_SHA256_P256, ECDSA_SHA384_P384, ECDSA_SHA512_P521:
		return sgk.ecdsaKeyPair != nil && sgk.ecdsaKeyPair.Verify(message, signature)
	case ED25519_SHA256:
		return sgk.ed25519KeyPair != nil && sgk.ed25519KeyPair.Verify(message, signature)
	case REDDSA_SHA512_ED25519:
		return sgk.redDSAKeyPair != nil && sgk.redDSAKeyPair.Verify(message, signature)
	default:
		return false
	}
}

// PublicKeyBytes returns the raw, algorithm-specific public key encoding
// used on the wire (unprefixed ECDSA points, compressed Ed25519/RedDSA points).
func (sgk *SignatureKeyPair) PublicKeyBytes() []byte {
	switch sgk.algorithmType {
	case DSA_SHA1:
		if sgk.dsaKeyPair == nil {
			return nil
		}
		return sgk.dsaKeyPair.PublicKey()
	case ECDSA_SHA256_P256, ECDSA_SHA384_P384, ECDSA_SHA512_P521:
		if sgk.ecdsaKeyPair == nil {
			return nil
		}
		return sgk.ecdsaKeyPair.PublicKeyBytes()
	case ED25519_SHA256:
		if sgk.ed25519KeyPair == nil {
			return nil
		}
		pub := sgk.ed25519KeyPair.PublicKey()
		return pub[:]
	case REDDSA_SHA512_ED25519:
		if sgk.redDSAKeyPair == nil {
			return nil
		}
		return sgk.redDSAKeyPair.PublicKeyBytes()
	default:
		return nil
	}
}

// PrivateKeyBytes returns the raw, algorithm-specific private key encoding.
func (sgk *SignatureKeyPair) PrivateKeyBytes() []byte {
	switch sgk.algorithmType {
	case DSA_SHA1:
		if sgk.dsaKeyPair == nil {
			return nil
		}
		return sgk.dsaKeyPair.PrivateKey()
	case ECDSA_SHA256_P256, ECDSA_SHA384_P384, ECDSA_SHA512_P521:
		if sgk.ecdsaKeyPair == nil {
			return nil
		}
		return sgk.ecdsaKeyPair.PrivateKeyBytes()
	case ED25519_SHA256:
		if sgk.ed25519KeyPair == nil {
			return nil
		}
		priv := sgk.ed25519KeyPair.PrivateKey()
		return priv[:]
	case REDDSA_SHA512_ED25519:
		if sgk.redDSAKeyPair == nil {
			return nil
		}
		return sgk.redDSAKeyPair.PrivateKeyBytes()
	default:
		return nil
	}
}

// PublicKey is an alias for PublicKeyBytes, matching the per-algorithm key
// pair types' naming (DSAKeyPair.PublicKey, Ed25519KeyPair.PublicKey, ...).
func (sgk *SignatureKeyPair) PublicKey() []byte { return sgk.PublicKeyBytes() }

// PrivateKey is an alias for PrivateKeyBytes.
func (sgk *SignatureKeyPair) PrivateKey() []byte { return sgk.PrivateKeyBytes() }

// PublicKeySize returns the encoded public key length for algorithmType,
// per the sizes fixed by the destination wire format (spec §4.D/§4.C).
func PublicKeySize(algorithmType uint32) int {
	switch algorithmType {
	case DSA_SHA1:
		return 128
	case ECDSA_SHA256_P256:
		return 64
	case ECDSA_SHA384_P384:
		return 96
	case ECDSA_SHA512_P521:
		return 132
	case ED25519_SHA256, REDDSA_SHA512_ED25519:
		return 32
	default:
		return 0
	}
}

// PrivateKeySize returns the encoded private key length for algorithmType.
func PrivateKeySize(algorithmType uint32) int {
	switch algorithmType {
	case DSA_SHA1:
		return 20
	case ECDSA_SHA256_P256:
		return 32
	case ECDSA_SHA384_P384:
		return 48
	case ECDSA_SHA512_P521:
		return 66
	case ED25519_SHA256, REDDSA_SHA512_ED25519:
		return 32
	default:
		return 0
	}
}

// SignatureSize returns the encoded signature length for algorithmType.
func SignatureSize(algorithmType uint32) int {
	switch algorithmType {
	case DSA_SHA1:
		return 40
	case ECDSA_SHA256_P256:
		return 64
	case ECDSA_SHA384_P384:
		return 96
	case ECDSA_SHA512_P521:
		return 132
	case ED25519_SHA256, REDDSA_SHA512_ED25519:
		return 64
	default:
		return 0
	}
}

// IsKeyCertSigType reports whether algorithmType requires a KEY certificate.
// DSA_SHA1 is the sole signing type still carried in a NULL certificate.
func IsKeyCertSigType(algorithmType uint32) bool {
	return algorithmType != DSA_SHA1
}
