package go_i2cp

import (
	"crypto/rand"
	"crypto/sha512"
	"fmt"

	"filippo.io/edwards25519"
)

// RedDSA over Ed25519 — the one signature algorithm in the destination
// codec that is not delegated to an existing library. Curve, subgroup
// order L and cofactor 8 are Ed25519's; filippo.io/edwards25519 supplies
// the scalar/point field arithmetic, everything above that (seed
// clamping, the H* hash-to-scalar function, the sign/verify equations)
// is written out here per the RedDSA construction.
const redDSADomainSeparator = "I2P_Red25519H(x)"

// RedDSAKeyPair holds a clamped Ed25519-curve scalar and its public point.
type RedDSAKeyPair struct {
	seed  [32]byte // original random seed, kept for re-derivation/export
	sk    *edwards25519.Scalar
	vk    *edwards25519.Point
	vkRaw [32]byte
}

// NewRedDSAKeyPair generates a fresh RedDSA key pair.
func NewRedDSAKeyPair() (*RedDSAKeyPair, error) {
	var seed [32]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return nil, fmt.Errorf("failed to generate RedDSA seed: %w", err)
	}
	return redDSAKeyPairFromSeed(seed)
}

// RedDSAKeyPairFromSeed derives a key pair from an existing 32-byte seed.
func RedDSAKeyPairFromSeed(seed []byte) (*RedDSAKeyPair, error) {
	if len(seed) != 32 {
		return nil, fmt.Errorf("RedDSA seed must be 32 bytes, got %d", len(seed))
	}
	var s [32]byte
	copy(s[:], seed)
	return redDSAKeyPairFromSeed(s)
}

func redDSAKeyPairFromSeed(seed [32]byte) (*RedDSAKeyPair, error) {
	sk, err := redDSAClampedScalar(seed[:])
	if err != nil {
		return nil, fmt.Errorf("failed to derive RedDSA scalar: %w", err)
	}
	vk := edwards25519.NewIdentityPoint().ScalarBaseMult(sk)
	kp := &RedDSAKeyPair{seed: seed, sk: sk, vk: vk}
	copy(kp.vkRaw[:], vk.Bytes())
	return kp, nil
}

// RedDSAPublicKeyFromBytes builds a verify-only key pair from a 32-byte
// compressed point.
func RedDSAPublicKeyFromBytes(vkBytes []byte) (*RedDSAKeyPair, error) {
	if len(vkBytes) != 32 {
		return nil, fmt.Errorf("RedDSA public key must be 32 bytes, got %d", len(vkBytes))
	}
	vk, err := edwards25519.NewIdentityPoint().SetBytes(vkBytes)
	if err != nil {
		return nil, fmt.Errorf("invalid RedDSA public key point: %w", err)
	}
	kp := &RedDSAKeyPair{vk: vk}
	copy(kp.vkRaw[:], vkBytes)
	return kp, nil
}

// redDSAClampedScalar implements: SHA-512(seed), take first 32 bytes, apply
// the Ed25519 clamp, then reduce mod L via a zero-padded wide reduction
// (the clamped value itself may exceed L, as is standard for Ed25519).
func redDSAClampedScalar(seed []byte) (*edwards25519.Scalar, error) {
	h := sha512.Sum512(seed)
	clamped := make([]byte, 32)
	copy(clamped, h[:32])
	clamped[0] &= 248
	clamped[31] &= 63
	clamped[31] |= 64

	wide := make([]byte, 64)
	copy(wide, clamped)
	return edwards25519.NewScalar().SetUniformBytes(wide)
}

// redDSAHStar computes H*(prefix1, prefix2, msg) mod L.
func redDSAHStar(prefix1, prefix2, msg []byte) (*edwards25519.Scalar, error) {
	h := sha512.New()
	h.Write([]byte(redDSADomainSeparator))
	h.Write(prefix1)
	h.Write(prefix2)
	n := len(msg)
	h.Write([]byte{byte(n), byte(n >> 8)})
	h.Write(msg)
	return edwards25519.NewScalar().SetUniformBytes(h.Sum(nil))
}

// Sign implements: T := 80 random bytes; r := H*(T, vk, msg); R := r·B;
// c := H*(R, vk, msg); S := (r + c·sk) mod L; output R || S (S little-endian).
func (kp *RedDSAKeyPair) Sign(msg []byte) ([]byte, error) {
	if kp.sk == nil {
		return nil, fmt.Errorf("RedDSA private key not available")
	}

	var t [80]byte
	if _, err := rand.Read(t[:]); err != nil {
		return nil, fmt.Errorf("failed to sample RedDSA nonce material: %w", err)
	}

	r, err := redDSAHStar(t[:], kp.vkRaw[:], msg)
	if err != nil {
		return nil, err
	}
	R := edwards25519.NewIdentityPoint().ScalarBaseMult(r)
	Rbytes := R.Bytes()

	c, err := redDSAHStar(Rbytes, kp.vkRaw[:], msg)
	if err != nil {
		return nil, err
	}

	S := edwards25519.NewScalar().Add(r, edwards25519.NewScalar().Multiply(c, kp.sk))

	sig := make([]byte, 64)
	copy(sig[:32], Rbytes)
	copy(sig[32:], S.Bytes())
	return sig, nil
}

// Verify implements: decode R, S (reject S >= L); recompute c; accept iff
// cofactor · (-S·B + R + c·vk) = identity.
func (kp *RedDSAKeyPair) Verify(msg, sig []byte) bool {
	if kp.vk == nil || len(sig) != 64 {
		return false
	}

	R, err := edwards25519.NewIdentityPoint().SetBytes(sig[:32])
	if err != nil {
		return false
	}
	S, err := edwards25519.NewScalar().SetCanonicalBytes(sig[32:])
	if err != nil {
		return false
	}

	c, err := redDSAHStar(sig[:32], kp.vkRaw[:], msg)
	if err != nil {
		return false
	}

	negS := edwards25519.NewScalar().Negate(S)
	acc := edwards25519.NewIdentityPoint().ScalarBaseMult(negS)
	acc = acc.Add(acc, R)
	cvk := edwards25519.NewIdentityPoint().ScalarMult(c, kp.vk)
	acc = acc.Add(acc, cvk)
	acc = edwards25519.NewIdentityPoint().MultByCofactor(acc)

	return acc.Equal(edwards25519.NewIdentityPoint()) == 1
}

// PublicKeyBytes returns the 32-byte compressed verify key.
func (kp *RedDSAKeyPair) PublicKeyBytes() []byte {
	out := make([]byte, 32)
	copy(out, kp.vkRaw[:])
	return out
}

// PrivateKeyBytes returns the original 32-byte seed (not the derived scalar).
func (kp *RedDSAKeyPair) PrivateKeyBytes() []byte {
	out := make([]byte, 32)
	copy(out, kp.seed[:])
	return out
}

func (kp *RedDSAKeyPair) AlgorithmType() uint32 { return REDDSA_SHA512_ED25519 }
