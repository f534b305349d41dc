package go_i2cp

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
)

// gzipHeaderSize is the fixed portion of a gzip header this client
// substitutes port/protocol bytes into: magic(2) + CM(1) + FLG(1) +
// MTIME(4) + XFL(1) + OS(1).
const gzipHeaderSize = 10

var gzipMagic = [3]byte{0x1f, 0x8b, 0x08}

// FramePayload gzip-compresses payload and overwrites the otherwise-unused
// MTIME and OS header fields with srcPort, destPort, and protocol (spec
// §4.E/§4.I): offsets 4-5 become srcPort, 6-7 become destPort, and offset 9
// becomes the protocol id. These fields don't affect decompressibility, so
// the substitution is transparent to gzip readers.
func FramePayload(protocol uint8, srcPort, destPort uint16, payload []byte) ([]byte, error) {
	out := &bytes.Buffer{}
	compress := gzip.NewWriter(out)
	if _, err := compress.Write(payload); err != nil {
		compress.Close()
		return nil, fmt.Errorf("failed to gzip-compress payload: %w", err)
	}
	if err := compress.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish gzip compression: %w", err)
	}

	framed := out.Bytes()
	if len(framed) < gzipHeaderSize {
		return nil, fmt.Errorf("i2cp: gzip output shorter than header size")
	}
	header := framed[:gzipHeaderSize]
	putUint16BE(header[4:6], srcPort)
	putUint16BE(header[6:8], destPort)
	header[9] = protocol
	return framed, nil
}

// UnframePayload validates and decompresses a gzip-framed payload, reading
// back the srcPort/destPort/protocol substituted into its header by
// FramePayload.
func UnframePayload(framed []byte) (protocol uint8, srcPort, destPort uint16, payload []byte, err error) {
	if len(framed) < gzipHeaderSize {
		return 0, 0, 0, nil, fmt.Errorf("i2cp: framed payload shorter than gzip header")
	}
	var magic [3]byte
	copy(magic[:], framed[:3])
	if magic != gzipMagic {
		return 0, 0, 0, nil, fmt.Errorf("i2cp: payload does not start with a gzip header")
	}

	decompress, err := gzip.NewReader(bytes.NewReader(framed))
	if err != nil {
		return 0, 0, 0, nil, fmt.Errorf("failed to create gzip reader for payload: %w", err)
	}
	buf := &bytes.Buffer{}
	if _, err := io.Copy(buf, decompress); err != nil {
		decompress.Close()
		return 0, 0, 0, nil, fmt.Errorf("failed to decompress payload: %w", err)
	}
	if err := decompress.Close(); err != nil {
		return 0, 0, 0, nil, fmt.Errorf("failed to close payload decompressor: %w", err)
	}

	header := framed[:gzipHeaderSize]
	srcPort = uint16(header[4])<<8 | uint16(header[5])
	destPort = uint16(header[6])<<8 | uint16(header[7])
	protocol = header[9]
	return protocol, srcPort, destPort, buf.Bytes(), nil
}

// BuildRepliableDatagram assembles a signed repliable-datagram envelope
// (spec §4.E): the sender's destination, a signature over payload (DSA-SHA1
// pre-hashed with SHA-256, every other algorithm signed raw), then payload
// itself.
func BuildRepliableDatagram(source *Destination, signer *SignatureKeyPair, payload []byte) ([]byte, error) {
	sig, err := SignPayload(signer, payload)
	if err != nil {
		return nil, err
	}

	stream := NewStream(make([]byte, 0, DEST_SIZE+len(sig)+len(payload)))
	if err := source.WriteToMessage(stream); err != nil {
		return nil, fmt.Errorf("failed to write source destination into datagram envelope: %w", err)
	}
	if _, err := stream.Write(sig); err != nil {
		return nil, fmt.Errorf("failed to write signature into datagram envelope: %w", err)
	}
	if _, err := stream.Write(payload); err != nil {
		return nil, fmt.Errorf("failed to write payload into datagram envelope: %w", err)
	}
	return stream.Bytes(), nil
}

// ParseRepliableDatagram parses and verifies a repliable-datagram envelope,
// returning the sender's destination and the payload once its signature has
// been checked against payloadDigest's DSA-SHA1 pre-hash rule.
func ParseRepliableDatagram(data []byte, crypto *Crypto) (source *Destination, payload []byte, err error) {
	stream := NewStream(append([]byte(nil), data...))
	source, err = NewDestinationFromMessage(stream, crypto)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse source destination from datagram envelope: %w", err)
	}

	sigLen := SignatureSize(source.AlgorithmType())
	if sigLen == 0 {
		return nil, nil, ErrUnsupportedSigningType
	}
	if stream.Len() < sigLen {
		return nil, nil, fmt.Errorf("i2cp: datagram envelope shorter than expected signature")
	}
	sig := make([]byte, sigLen)
	if _, err := stream.Read(sig); err != nil {
		return nil, nil, fmt.Errorf("failed to read signature from datagram envelope: %w", err)
	}

	payload = make([]byte, stream.Len())
	if len(payload) > 0 {
		if _, err := stream.Read(payload); err != nil {
			return nil, nil, fmt.Errorf("failed to read payload from datagram envelope: %w", err)
		}
	}

	if !source.VerifyPayload(payload, sig) {
		return nil, nil, ErrPacketVerificationFailed
	}
	return source, payload, nil
}

// BuildRawDatagram returns payload unchanged: raw datagrams (protocol 18)
// carry no destination or signature, only the application payload.
func BuildRawDatagram(payload []byte) []byte {
	return payload
}
