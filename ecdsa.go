package go_i2cp

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"math/big"
)

// ECDSAKeyPair implements the three NIST-curve signing types the destination
// codec can select (ECDSA-P256/P384/P521). The public key is stored without
// the uncompressed-point 0x04 prefix per the destination wire format; Sign
// and Verify restore it when handing the point to crypto/ecdsa.
type ECDSAKeyPair struct {
	algorithmType uint32
	curve         elliptic.Curve
	priv          *ecdsa.PrivateKey
	pub           *ecdsa.PublicKey
}

func ecdsaCurveFor(algorithmType uint32) (elliptic.Curve, error) {
	switch algorithmType {
	case ECDSA_SHA256_P256:
		return elliptic.P256(), nil
	case ECDSA_SHA384_P384:
		return elliptic.P384(), nil
	case ECDSA_SHA512_P521:
		return elliptic.P521(), nil
	default:
		return nil, fmt.Errorf("not an ECDSA algorithm type: %d", algorithmType)
	}
}

func ecdsaKeySizes(algorithmType uint32) (pub, priv, sig int) {
	switch algorithmType {
	case ECDSA_SHA256_P256:
		return 64, 32, 64
	case ECDSA_SHA384_P384:
		return 96, 48, 96
	case ECDSA_SHA512_P521:
		return 132, 66, 132
	}
	return 0, 0, 0
}

// NewECDSAKeyPair generates a fresh ECDSA key pair for the given signing type.
func NewECDSAKeyPair(algorithmType uint32) (*ECDSAKeyPair, error) {
	curve, err := ecdsaCurveFor(algorithmType)
	if err != nil {
		return nil, err
	}
	priv, err := ecdsa.GenerateKey(curve, rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ECDSA key pair: %w", err)
	}
	return &ECDSAKeyPair{algorithmType: algorithmType, curve: curve, priv: priv, pub: &priv.PublicKey}, nil
}

// ECDSAKeyPairFromBytes reconstructs a key pair from raw (unprefixed) point
// bytes and/or a private scalar. priv may be nil for a public-only key.
func ECDSAKeyPairFromBytes(algorithmType uint32, pubBytes, privBytes []byte) (*ECDSAKeyPair, error) {
	curve, err := ecdsaCurveFor(algorithmType)
	if err != nil {
		return nil, err
	}
	_, _, sigLen := ecdsaKeySizes(algorithmType)
	coordLen := sigLen / 2

	kp := &ECDSAKeyPair{algorithmType: algorithmType, curve: curve}

	if len(pubBytes) > 0 {
		if len(pubBytes) != coordLen*2 {
			return nil, fmt.Errorf("invalid ECDSA public key length: got %d, expected %d", len(pubBytes), coordLen*2)
		}
		x := new(big.Int).SetBytes(pubBytes[:coordLen])
		y := new(big.Int).SetBytes(pubBytes[coordLen:])
		kp.pub = &ecdsa.PublicKey{Curve: curve, X: x, Y: y}
	}

	if len(privBytes) > 0 {
		d := new(big.Int).SetBytes(privBytes)
		kp.priv = &ecdsa.PrivateKey{D: d}
		if kp.pub != nil {
			kp.priv.PublicKey = *kp.pub
		} else {
			x, y := curve.ScalarBaseMult(privBytes)
			kp.priv.PublicKey = ecdsa.PublicKey{Curve: curve, X: x, Y: y}
			kp.pub = &kp.priv.PublicKey
		}
	}

	return kp, nil
}

func (kp *ECDSAKeyPair) hashFor(data []byte) []byte {
	switch kp.algorithmType {
	case ECDSA_SHA256_P256:
		h := sha256.Sum256(data)
		return h[:]
	case ECDSA_SHA384_P384:
		h := sha512.Sum384(data)
		return h[:]
	default: // ECDSA_SHA512_P521
		h := sha512.Sum512(data)
		return h[:]
	}
}

// Sign signs data, returning a fixed-width r||s signature (no DER wrapping).
func (kp *ECDSAKeyPair) Sign(data []byte) ([]byte, error) {
	if kp.priv == nil {
		return nil, fmt.Errorf("ECDSA private key not available")
	}
	r, s, err := ecdsa.Sign(rand.Reader, kp.priv, kp.hashFor(data))
	if err != nil {
		return nil, fmt.Errorf("ECDSA sign failed: %w", err)
	}
	_, _, sigLen := ecdsaKeySizes(kp.algorithmType)
	coordLen := sigLen / 2
	out := make([]byte, sigLen)
	r.FillBytes(out[:coordLen])
	s.FillBytes(out[coordLen:])
	return out, nil
}

// Verify checks a fixed-width r||s signature.
func (kp *ECDSAKeyPair) Verify(data, signature []byte) bool {
	if kp.pub == nil {
		return false
	}
	_, _, sigLen := ecdsaKeySizes(kp.algorithmType)
	coordLen := sigLen / 2
	if len(signature) != sigLen {
		return false
	}
	r := new(big.Int).SetBytes(signature[:coordLen])
	s := new(big.Int).SetBytes(signature[coordLen:])
	return ecdsa.Verify(kp.pub, kp.hashFor(data), r, s)
}

// PublicKeyBytes returns the unprefixed point (x||y), as stored on the wire.
func (kp *ECDSAKeyPair) PublicKeyBytes() []byte {
	if kp.pub == nil {
		return nil
	}
	_, _, sigLen := ecdsaKeySizes(kp.algorithmType)
	coordLen := sigLen / 2
	out := make([]byte, coordLen*2)
	kp.pub.X.FillBytes(out[:coordLen])
	kp.pub.Y.FillBytes(out[coordLen:])
	return out
}

// PrivateKeyBytes returns the raw scalar, left-padded to the fixed width.
func (kp *ECDSAKeyPair) PrivateKeyBytes() []byte {
	if kp.priv == nil {
		return nil
	}
	_, privLen, _ := ecdsaKeySizes(kp.algorithmType)
	out := make([]byte, privLen)
	kp.priv.D.FillBytes(out)
	return out
}

func (kp *ECDSAKeyPair) AlgorithmType() uint32 { return kp.algorithmType }
