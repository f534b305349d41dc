package go_i2cp

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-i2p/common/base32"
	"github.com/go-i2p/common/base64"
	"github.com/go-i2p/common/certificate"
)

// Destination is a cryptographic identity: a signing key pair (one of the
// six algorithms in signature_key_pair.go), an encryption public key, and
// the certificate that advertises which algorithms are in use.
//
// Wire layout (spec §4.D): a fixed 384-byte area holds the encryption
// public key left-aligned (first min(256,len) bytes) followed by zero
// padding and the signing public key right-aligned (last min(128,len)
// bytes), then the certificate. A NULL certificate implies DSA-SHA1 +
// ElGamal-2048 (the legacy pairing); any other signing type requires a
// KEY certificate whose payload carries the signing/crypto type codes
// and, for keys too large for the 384-byte area (ECDSA-P521's 132-byte
// public key), the overflow bytes.
type Destination struct {
	cert         *Certificate
	sgk          SignatureKeyPair
	cryptoType   uint16
	cryptoPubKey []byte
	digest       [DIGEST_SIZE]byte
	b32          string
	b64          string
	crypto       *Crypto
}

// cryptoKeySize returns the full encryption public key length for cryptoType.
func cryptoKeySize(cryptoType uint16) int {
	switch cryptoType {
	case CRYPTO_ELGAMAL_2048:
		return 256
	case CRYPTO_ECIES_X25519:
		return 32
	default:
		return 0
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// destinationMainArea lays out the fixed 384-byte crypto-key/padding/signing-key
// region and returns any bytes that overflowed it, per spec §4.D.
func destinationMainArea(signingPubKey, cryptoPubKey []byte) (main [384]byte, signingRemainder, cryptoRemainder []byte) {
	mainCryptoLen := minInt(256, len(cryptoPubKey))
	mainSigningLen := minInt(128, len(signingPubKey))

	copy(main[0:mainCryptoLen], cryptoPubKey[:mainCryptoLen])
	copy(main[384-mainSigningLen:384], signingPubKey[:mainSigningLen])

	return main, signingPubKey[mainSigningLen:], cryptoPubKey[mainCryptoLen:]
}

// destinationCertificate builds the certificate for a destination: NULL iff
// sigAlgType is DSA_SHA1, otherwise a KEY certificate carrying the signing
// and crypto type codes plus any overflow key bytes.
func destinationCertificate(sigAlgType uint32, cryptoType uint16, signingRemainder, cryptoRemainder []byte) (*Certificate, error) {
	if !IsKeyCertSigType(sigAlgType) {
		return certificate.NewCertificateWithType(CERTIFICATE_NULL, nil)
	}

	payload := make([]byte, 4+len(signingRemainder)+len(cryptoRemainder))
	putUint16BE(payload[0:2], uint16(sigAlgType))
	putUint16BE(payload[2:4], cryptoType)
	copy(payload[4:4+len(signingRemainder)], signingRemainder)
	copy(payload[4+len(signingRemainder):], cryptoRemainder)

	return certificate.NewCertificateWithType(CERTIFICATE_KEY, payload)
}

// NewDestination generates a destination using the modern default pairing:
// Ed25519 signing with X25519 (ECIES) encryption.
func NewDestination(crypto *Crypto) (*Destination, error) {
	return NewDestinationWithAlgorithm(crypto, ED25519_SHA256, CRYPTO_ECIES_X25519)
}

// NewDestinationWithAlgorithm generates a destination for any of the six
// signing algorithms, paired with either encryption key type.
func NewDestinationWithAlgorithm(crypto *Crypto, sigAlgType uint32, cryptoType uint16) (*Destination, error) {
	dest := &Destination{crypto: crypto, cryptoType: cryptoType}

	sgk, err := crypto.SignatureKeygen(sigAlgType)
	if err != nil {
		return nil, fmt.Errorf("failed to generate signature keypair: %w", err)
	}
	dest.sgk = sgk

	switch cryptoType {
	case CRYPTO_ECIES_X25519:
		x25519Kp, err := crypto.X25519KeyExchangeKeygen()
		if err != nil {
			return nil, fmt.Errorf("failed to generate X25519 encryption keypair: %w", err)
		}
		pub := x25519Kp.PublicKey()
		dest.cryptoPubKey = append([]byte(nil), pub[:]...)
	case CRYPTO_ELGAMAL_2048:
		// ElGamal is legacy and not implemented; the key material is never
		// used for actual encryption, only carried for wire compatibility.
		randomKey := make([]byte, 256)
		if _, err := rand.Read(randomKey); err != nil {
			return nil, fmt.Errorf("failed to generate ElGamal placeholder key: %w", err)
		}
		dest.cryptoPubKey = randomKey
	default:
		return nil, fmt.Errorf("unsupported crypto type: %d", cryptoType)
	}

	cert, err := destinationCertificate(sigAlgType, cryptoType, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build destination certificate: %w", err)
	}
	dest.cert = cert

	dest.generateB32()
	dest.generateB64()
	return dest, nil
}

// NewDestinationFromMessage reads a destination from an I2CP message stream.
func NewDestinationFromMessage(stream *Stream, crypto *Crypto) (*Destination, error) {
	dest := &Destination{crypto: crypto}

	var main [384]byte
	if _, err := stream.Read(main[:]); err != nil {
		return nil, fmt.Errorf("failed to read destination key area: %w", err)
	}

	cert, err := NewCertificateFromMessage(stream)
	if err != nil {
		return nil, fmt.Errorf("failed to read certificate: %w", err)
	}
	dest.cert = cert

	if err := dest.populateFromCertAndMainArea(cert, main); err != nil {
		return nil, err
	}

	dest.generateB32()
	dest.generateB64()
	return dest, nil
}

// populateFromCertAndMainArea reconstructs the signing/crypto key pairs from
// the certificate (signing/crypto type + overflow bytes) and the fixed main area.
func (dest *Destination) populateFromCertAndMainArea(cert *Certificate, main [384]byte) error {
	certType := CertType(cert)

	var sigAlgType uint32
	var cryptoType uint16
	var signingRemainder, cryptoRemainder []byte

	switch certType {
	case CERTIFICATE_NULL:
		sigAlgType = DSA_SHA1
		cryptoType = CRYPTO_ELGAMAL_2048
	case CERTIFICATE_KEY:
		payload := CertData(cert)
		if len(payload) < 4 {
			return fmt.Errorf("invalid KEY certificate payload length: %d", len(payload))
		}
		sigAlgType = uint32(uint16(payload[0])<<8 | uint16(payload[1]))
		cryptoType = uint16(payload[2])<<8 | uint16(payload[3])

		fullSigningLen := PublicKeySize(sigAlgType)
		signingRemainderLen := fullSigningLen - minInt(128, fullSigningLen)
		fullCryptoLen := cryptoKeySize(cryptoType)
		cryptoRemainderLen := fullCryptoLen - minInt(256, fullCryptoLen)

		overflow := payload[4:]
		if len(overflow) < signingRemainderLen+cryptoRemainderLen {
			return fmt.Errorf("KEY certificate payload too short for declared key sizes")
		}
		signingRemainder = overflow[:signingRemainderLen]
		cryptoRemainder = overflow[signingRemainderLen : signingRemainderLen+cryptoRemainderLen]
	default:
		return fmt.Errorf("unsupported destination certificate type: %d", certType)
	}

	mainSigningLen := minInt(128, PublicKeySize(sigAlgType))
	mainCryptoLen := minInt(256, cryptoKeySize(cryptoType))

	signingPubKey := append(append([]byte(nil), main[384-mainSigningLen:384]...), signingRemainder...)
	cryptoPubKey := append(append([]byte(nil), main[0:mainCryptoLen]...), cryptoRemainder...)

	sgk, err := SignatureKeyPairFromPublicBytes(sigAlgType, signingPubKey)
	if err != nil {
		return fmt.Errorf("failed to reconstruct signature public key: %w", err)
	}

	dest.sgk = sgk
	dest.cryptoType = cryptoType
	dest.cryptoPubKey = cryptoPubKey
	return nil
}

// NewDestinationFromStream reads a destination from a configuration stream.
// This format includes the full keypair (private and public), not just
// the public halves carried by NewDestinationFromMessage.
func NewDestinationFromStream(stream *Stream, crypto *Crypto) (*Destination, error) {
	dest := &Destination{crypto: crypto}

	cert, err := NewCertificateFromStream(stream)
	if err != nil {
		return nil, fmt.Errorf("failed to read certificate: %w", err)
	}
	dest.cert = cert

	sigAlgType, err := stream.ReadUint32()
	if err != nil {
		return nil, fmt.Errorf("failed to read algorithm type: %w", err)
	}

	sgk, err := signatureKeyPairFromStream(stream, sigAlgType)
	if err != nil {
		return nil, err
	}
	dest.sgk = sgk

	cryptoTypeU32, err := stream.ReadUint32()
	if err != nil {
		return nil, fmt.Errorf("failed to read crypto type: %w", err)
	}
	dest.cryptoType = uint16(cryptoTypeU32)

	pubKeyLen, err := stream.ReadUint16()
	if err != nil {
		return nil, fmt.Errorf("failed to read public key length: %w", err)
	}
	cryptoPubKey := make([]byte, pubKeyLen)
	if _, err := stream.Read(cryptoPubKey); err != nil {
		return nil, fmt.Errorf("failed to read public key: %w", err)
	}
	dest.cryptoPubKey = cryptoPubKey

	dest.generateB32()
	dest.generateB64()
	return dest, nil
}

// signatureKeyPairFromStream reads a private+public signing key pair of the
// given algorithm type from a configuration stream.
func signatureKeyPairFromStream(stream *Stream, sigAlgType uint32) (SignatureKeyPair, error) {
	privLen := PrivateKeySize(sigAlgType)
	pubLen := PublicKeySize(sigAlgType)
	if privLen == 0 || pubLen == 0 {
		return SignatureKeyPair{}, fmt.Errorf("unsupported signature algorithm: %d", sigAlgType)
	}

	privBytes := make([]byte, privLen)
	if _, err := stream.Read(privBytes); err != nil {
		return SignatureKeyPair{}, fmt.Errorf("failed to read private key: %w", err)
	}
	pubBytes := make([]byte, pubLen)
	if _, err := stream.Read(pubBytes); err != nil {
		return SignatureKeyPair{}, fmt.Errorf("failed to read public key: %w", err)
	}

	switch sigAlgType {
	case DSA_SHA1:
		stream2 := NewStream(append(privBytes, pubBytes...))
		kp, err := DSAKeyPairFromStream(stream2)
		if err != nil {
			return SignatureKeyPair{}, err
		}
		return SignatureKeyPair{algorithmType: sigAlgType, dsaKeyPair: kp}, nil
	case ECDSA_SHA256_P256, ECDSA_SHA384_P384, ECDSA_SHA512_P521:
		kp, err := ECDSAKeyPairFromBytes(sigAlgType, pubBytes, privBytes)
		if err != nil {
			return SignatureKeyPair{}, err
		}
		return SignatureKeyPair{algorithmType: sigAlgType, ecdsaKeyPair: kp}, nil
	case ED25519_SHA256:
		privKey, pubKey, err := createEd25519KeyPairFromBytes(privBytes, pubBytes)
		if err != nil {
			return SignatureKeyPair{}, err
		}
		return SignatureKeyPair{algorithmType: sigAlgType, ed25519KeyPair: &Ed25519KeyPair{
			algorithmType: sigAlgType,
			privateKey:    privKey,
			publicKey:     pubKey,
		}}, nil
	case REDDSA_SHA512_ED25519:
		kp, err := RedDSAKeyPairFromSeed(privBytes)
		if err != nil {
			return SignatureKeyPair{}, err
		}
		return SignatureKeyPair{algorithmType: sigAlgType, redDSAKeyPair: kp}, nil
	default:
		return SignatureKeyPair{}, fmt.Errorf("unsupported signature algorithm: %d", sigAlgType)
	}
}

func NewDestinationFromBase64(base64Str string, crypto *Crypto) (*Destination, error) {
	if len(base64Str) == 0 {
		return nil, errors.New("empty string")
	}
	decoded, err := base64.DecodeString(base64Str)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 destination: %w", err)
	}
	stream := NewStream(decoded)
	return NewDestinationFromMessage(stream, crypto)
}

func NewDestinationFromFile(file *os.File, crypto *Crypto) (*Destination, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read destination file: %w", err)
	}
	stream := NewStream(data)
	return NewDestinationFromStream(stream, crypto)
}

func (dest *Destination) Copy() Destination {
	newDest := Destination{
		cert:       dest.cert,
		sgk:        dest.sgk,
		cryptoType: dest.cryptoType,
		b32:        dest.b32,
		b64:        dest.b64,
		digest:     dest.digest,
		crypto:     dest.crypto,
	}
	newDest.cryptoPubKey = append([]byte(nil), dest.cryptoPubKey...)
	return newDest
}

func (dest *Destination) WriteToFile(filename string) (err error) {
	stream := NewStream(make([]byte, 0, DEST_SIZE))
	if err = dest.WriteToStream(stream); err != nil {
		return fmt.Errorf("failed to write destination to stream: %w", err)
	}
	var file *os.File
	file, err = os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close destination file: %w", closeErr)
		}
	}()

	if _, err = stream.WriteTo(file); err != nil {
		return fmt.Errorf("failed to write stream to file: %w", err)
	}
	return nil
}

// WriteToMessage writes the public portion of the destination: the fixed
// 384-byte crypto/signing key area followed by the certificate.
func (dest *Destination) WriteToMessage(stream *Stream) error {
	signingPubKey := dest.sgk.PublicKeyBytes()
	main, signingRemainder, cryptoRemainder := destinationMainArea(signingPubKey, dest.cryptoPubKey)

	if _, err := stream.Write(main[:]); err != nil {
		return fmt.Errorf("failed to write destination key area: %w", err)
	}

	cert, err := destinationCertificate(dest.sgk.AlgorithmType(), dest.cryptoType, signingRemainder, cryptoRemainder)
	if err != nil {
		return fmt.Errorf("failed to build destination certificate: %w", err)
	}
	dest.cert = cert

	if err := WriteCertificateToMessage(cert, stream); err != nil {
		return fmt.Errorf("failed to write certificate: %w", err)
	}
	return nil
}

// WriteToStream writes the full destination, private keys included, for
// local persistence (keys.dat-style configuration files).
func (dest *Destination) WriteToStream(stream *Stream) error {
	if err := dest.cert.WriteToStream(stream); err != nil {
		return fmt.Errorf("failed to write certificate to stream: %w", err)
	}

	sigAlgType := dest.sgk.AlgorithmType()
	if err := stream.WriteUint32(sigAlgType); err != nil {
		return fmt.Errorf("failed to write algorithm type: %w", err)
	}

	privKey := dest.sgk.PrivateKeyBytes()
	pubKey := dest.sgk.PublicKeyBytes()
	if privKey == nil {
		return fmt.Errorf("no private signing key available")
	}
	if _, err := stream.Write(privKey); err != nil {
		return fmt.Errorf("failed to write private key: %w", err)
	}
	if _, err := stream.Write(pubKey); err != nil {
		return fmt.Errorf("failed to write public key: %w", err)
	}

	if err := stream.WriteUint32(uint32(dest.cryptoType)); err != nil {
		return fmt.Errorf("failed to write crypto type: %w", err)
	}
	if err := stream.WriteUint16(uint16(len(dest.cryptoPubKey))); err != nil {
		return fmt.Errorf("failed to write public key size: %w", err)
	}
	if _, err := stream.Write(dest.cryptoPubKey); err != nil {
		return fmt.Errorf("failed to write public key: %w", err)
	}
	return nil
}

func (dest *Destination) generateB32() {
	stream := NewStream(make([]byte, 0, DEST_SIZE))
	if err := dest.WriteToMessage(stream); err != nil {
		Error("Failed to generate b32 address: %v", err)
		return
	}
	hash := sha256.Sum256(stream.Bytes())
	dest.digest = hash
	b32Encoded := base32.EncodeToString(hash[:])
	dest.b32 = b32Encoded + ".b32.i2p"
	Debug("New destination %s", dest.b32)
}

func (dest *Destination) generateB64() {
	stream := NewStream(make([]byte, 0, DEST_SIZE))
	if err := dest.WriteToMessage(stream); err != nil {
		Error("Failed to generate b64 address: %v", err)
		return
	}
	dest.b64 = base64.EncodeToString(stream.Bytes())
}

// Base32 returns the Base32 address of the destination (e.g., "abc123....xyz.b32.i2p")
func (dest *Destination) Base32() string {
	return dest.b32
}

// Base64 returns the Base64 address of the destination
func (dest *Destination) Base64() string {
	return dest.b64
}

// AlgorithmType returns the destination's signing algorithm type.
func (dest *Destination) AlgorithmType() uint32 {
	return dest.sgk.AlgorithmType()
}

// Hash returns the SHA-256 digest of the destination's canonical wire form,
// the same value used to derive its .b32.i2p short name.
func (dest *Destination) Hash() [DIGEST_SIZE]byte {
	if dest.digest == [DIGEST_SIZE]byte{} {
		dest.generateB32()
	}
	return dest.digest
}

// WriteForSignature writes the destination in the unpadded form used when
// computing/verifying signatures made over a destination's identity: the
// same 256-byte crypto key area as WriteToMessage, but the signing public
// key written at its true length instead of padded to 128 bytes.
func (dest *Destination) WriteForSignature(stream *Stream) error {
	signingPubKey := dest.sgk.PublicKeyBytes()
	mainCryptoLen := minInt(256, len(dest.cryptoPubKey))

	var cryptoArea [256]byte
	copy(cryptoArea[:mainCryptoLen], dest.cryptoPubKey[:mainCryptoLen])
	if _, err := stream.Write(cryptoArea[:]); err != nil {
		return fmt.Errorf("failed to write destination crypto key area: %w", err)
	}
	if _, err := stream.Write(signingPubKey); err != nil {
		return fmt.Errorf("failed to write signing public key: %w", err)
	}

	cert, err := destinationCertificate(dest.sgk.AlgorithmType(), dest.cryptoType, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to build destination certificate: %w", err)
	}
	return WriteCertificateToMessage(cert, stream)
}

// SigningPublicKey returns a public-key-only copy of the destination's
// signing key pair, suitable for handing to a remote peer for verification
// without exposing any private key material.
func (dest *Destination) SigningPublicKey() *SignatureKeyPair {
	sgk, err := SignatureKeyPairFromPublicBytes(dest.sgk.AlgorithmType(), dest.sgk.PublicKeyBytes())
	if err != nil {
		return nil
	}
	return &sgk
}

// SigningKeyPair returns the destination's full signing key pair, private
// key included. Returns an error if the destination was constructed from a
// public-only form (e.g. NewDestinationFromMessage) and has no private key.
func (dest *Destination) SigningKeyPair() (*SignatureKeyPair, error) {
	if dest.sgk.PrivateKeyBytes() == nil {
		return nil, fmt.Errorf("destination has no private signing key")
	}
	return &dest.sgk, nil
}

// VerifySignature verifies a signature against a raw message using the
// destination's own signing public key. Use SignPayload/VerifyPayload
// instead when the message is a datagram payload (spec §4.E), which
// DSA-SHA1 signs over a SHA-256 pre-hash rather than the raw bytes.
func (dest *Destination) VerifySignature(message, signature []byte) bool {
	return dest.sgk.Verify(message, signature)
}

// payloadDigest returns the bytes a datagram envelope's signature is
// computed over: DSA-SHA1 signs SHA-256(payload) rather than the raw
// payload, since DSA-SHA1 predates support for messages longer than a
// single SHA-1 block; every other algorithm signs payload directly.
func payloadDigest(algorithmType uint32, payload []byte) []byte {
	if algorithmType == DSA_SHA1 {
		digest := sha256.Sum256(payload)
		return digest[:]
	}
	return payload
}

// SignPayload signs a repliable-datagram payload (spec §4.E) using kp,
// pre-hashing with SHA-256 first when kp is DSA-SHA1.
func SignPayload(kp *SignatureKeyPair, payload []byte) ([]byte, error) {
	sig, err := kp.Sign(payloadDigest(kp.AlgorithmType(), payload))
	if err != nil {
		return nil, fmt.Errorf("failed to sign datagram payload: %w", err)
	}
	return sig, nil
}

// VerifyPayload verifies a repliable-datagram payload's signature against
// dest's signing public key, applying the same DSA-SHA1 pre-hash rule as
// SignPayload.
func (dest *Destination) VerifyPayload(payload, signature []byte) bool {
	return dest.sgk.Verify(payloadDigest(dest.sgk.AlgorithmType(), payload), signature)
}

// SignatureKeyPair returns the destination's signing key pair.
func (dest *Destination) SignatureKeyPair() *SignatureKeyPair {
	return &dest.sgk
}
