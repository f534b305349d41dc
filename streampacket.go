package go_i2cp

import (
	"crypto/sha256"
	"fmt"
)

// Packet is a stream-layer protocol packet (component F): the unit exchanged
// between two streaming connections layered atop the router's datagram
// transport. Wire layout and option ordering follow the classic I2P
// streaming protocol.
type Packet struct {
	SendStreamId    uint32
	ReceiveStreamId uint32
	SequenceNum     uint32
	AckThrough      uint32
	Nacks           []uint32
	ResendDelay     uint8
	Flags           uint16

	Delay         uint16       // present iff DELAY_REQUESTED
	From          *Destination // present iff FROM_INCLUDED
	MaxPacketSize uint16       // present iff MAX_PACKET_SIZE_INCLUDED
	Signature     []byte       // present iff SIGNATURE_INCLUDED

	Payload []byte

	// sigOffset is the absolute byte offset of Signature within the wire
	// form this Packet was built from or decoded from; -1 if unsigned.
	sigOffset int
}

// signatureRequiredFlags is the set of flags whose presence mandates a
// signature covering the whole packet, per spec §4.F.
const signatureRequiredFlags = PACKET_FLAG_SYNC | PACKET_FLAG_CLOSE | PACKET_FLAG_RESET | PACKET_FLAG_ECHO

// RequiresSignature reports whether p's flags mandate a signed packet.
func (p *Packet) RequiresSignature() bool {
	return p.Flags&signatureRequiredFlags != 0
}

// IsAckable reports whether p carries sequence data that must be
// acknowledged, per spec §4.G: pure acks use sequence 0 and are not ackable.
func (p *Packet) IsAckable() bool {
	return p.SequenceNum != 0 || flagIsSet(p.Flags, PACKET_FLAG_SYNC)
}

// EncodePacket assembles p's wire form. If p's flags include
// SIGNATURE_INCLUDED, signer must be non-nil: the signature region is
// reserved zero-filled, the whole buffer is signed, and the signature bytes
// are back-patched into place.
func EncodePacket(p *Packet, signer *SignatureKeyPair) ([]byte, error) {
	if flagIsSet(p.Flags, PACKET_FLAG_OFFLINE_SIGNATURE) {
		return nil, fmt.Errorf("i2cp: offline signatures are not supported")
	}

	buf := NewStream(make([]byte, 0, 128+len(p.Payload)))
	if err := buf.WriteUint32(p.SendStreamId); err != nil {
		return nil, fmt.Errorf("failed to write sendStreamId: %w", err)
	}
	if err := buf.WriteUint32(p.ReceiveStreamId); err != nil {
		return nil, fmt.Errorf("failed to write receiveStreamId: %w", err)
	}
	if err := buf.WriteUint32(p.SequenceNum); err != nil {
		return nil, fmt.Errorf("failed to write sequenceNum: %w", err)
	}
	if err := buf.WriteUint32(p.AckThrough); err != nil {
		return nil, fmt.Errorf("failed to write ackThrough: %w", err)
	}

	if len(p.Nacks) > 255 {
		return nil, fmt.Errorf("i2cp: too many nacks: %d", len(p.Nacks))
	}
	if err := buf.WriteByte(uint8(len(p.Nacks))); err != nil {
		return nil, fmt.Errorf("failed to write nack count: %w", err)
	}
	for i, n := range p.Nacks {
		if err := buf.WriteUint32(n); err != nil {
			return nil, fmt.Errorf("failed to write nack %d: %w", i, err)
		}
	}

	resendDelay := p.ResendDelay
	if resendDelay == 0 {
		resendDelay = streamPacketDefaultResendDelay
	}
	if err := buf.WriteByte(resendDelay); err != nil {
		return nil, fmt.Errorf("failed to write resend delay: %w", err)
	}
	if err := buf.WriteUint16(p.Flags); err != nil {
		return nil, fmt.Errorf("failed to write flags: %w", err)
	}

	options := NewStream(make([]byte, 0, 64))
	if flagIsSet(p.Flags, PACKET_FLAG_DELAY_REQUESTED) {
		if err := options.WriteUint16(p.Delay); err != nil {
			return nil, fmt.Errorf("failed to write delay option: %w", err)
		}
	}
	if flagIsSet(p.Flags, PACKET_FLAG_FROM_INCLUDED) {
		if p.From == nil {
			return nil, fmt.Errorf("i2cp: FROM_INCLUDED set but From destination is nil")
		}
		if err := p.From.WriteToMessage(options); err != nil {
			return nil, fmt.Errorf("failed to write from-destination option: %w", err)
		}
	}
	if flagIsSet(p.Flags, PACKET_FLAG_MAX_PACKET_SIZE_INCLUDED) {
		if err := options.WriteUint16(p.MaxPacketSize); err != nil {
			return nil, fmt.Errorf("failed to write max-packet-size option: %w", err)
		}
	}

	sigLen := 0
	sigOffsetInOptions := -1
	if flagIsSet(p.Flags, PACKET_FLAG_SIGNATURE_INCLUDED) {
		if signer == nil {
			return nil, fmt.Errorf("i2cp: SIGNATURE_INCLUDED set but no signer provided")
		}
		sigLen = SignatureSize(signer.AlgorithmType())
		if sigLen == 0 {
			return nil, ErrUnsupportedSigningType
		}
		sigOffsetInOptions = options.Len()
		if _, err := options.Write(make([]byte, sigLen)); err != nil {
			return nil, fmt.Errorf("failed to reserve signature option: %w", err)
		}
	}

	if err := buf.WriteUint16(uint16(options.Len())); err != nil {
		return nil, fmt.Errorf("failed to write options length: %w", err)
	}
	optionsStart := buf.Len()
	if _, err := buf.Write(options.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to write options: %w", err)
	}
	if _, err := buf.Write(p.Payload); err != nil {
		return nil, fmt.Errorf("failed to write payload: %w", err)
	}

	out := buf.Bytes()
	p.sigOffset = -1

	if sigOffsetInOptions >= 0 {
		absOffset := optionsStart + sigOffsetInOptions
		sig, err := signer.Sign(out)
		if err != nil {
			return nil, fmt.Errorf("failed to sign stream packet: %w", err)
		}
		if len(sig) != sigLen {
			return nil, fmt.Errorf("i2cp: unexpected signature length: got %d want %d", len(sig), sigLen)
		}
		copy(out[absOffset:absOffset+sigLen], sig)
		p.Signature = sig
		p.sigOffset = absOffset
	}

	return out, nil
}

// DecodePacket parses a packet's wire form, unpacking options in fixed
// order (delay, from, max-packet-size, offline-signature, signature) keyed
// by the flag bits.
func DecodePacket(data []byte) (*Packet, error) {
	total := len(data)
	buf := NewStream(append([]byte(nil), data...))
	p := &Packet{sigOffset: -1}

	var err error
	if p.SendStreamId, err = buf.ReadUint32(); err != nil {
		return nil, fmt.Errorf("failed to read sendStreamId: %w", err)
	}
	if p.ReceiveStreamId, err = buf.ReadUint32(); err != nil {
		return nil, fmt.Errorf("failed to read receiveStreamId: %w", err)
	}
	if p.SequenceNum, err = buf.ReadUint32(); err != nil {
		return nil, fmt.Errorf("failed to read sequenceNum: %w", err)
	}
	if p.AckThrough, err = buf.ReadUint32(); err != nil {
		return nil, fmt.Errorf("failed to read ackThrough: %w", err)
	}

	nackCount, err := buf.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("failed to read nack count: %w", err)
	}
	p.Nacks = make([]uint32, nackCount)
	for i := range p.Nacks {
		if p.Nacks[i], err = buf.ReadUint32(); err != nil {
			return nil, fmt.Errorf("failed to read nack %d: %w", i, err)
		}
	}

	if p.ResendDelay, err = buf.ReadByte(); err != nil {
		return nil, fmt.Errorf("failed to read resend delay: %w", err)
	}
	if p.Flags, err = buf.ReadUint16(); err != nil {
		return nil, fmt.Errorf("failed to read flags: %w", err)
	}

	optionsLen, err := buf.ReadUint16()
	if err != nil {
		return nil, fmt.Errorf("failed to read options length: %w", err)
	}
	optionsStart := total - buf.Len()
	optionsBytes := make([]byte, optionsLen)
	if optionsLen > 0 {
		if _, err := buf.Read(optionsBytes); err != nil {
			return nil, fmt.Errorf("failed to read options: %w", err)
		}
	}

	options := NewStream(optionsBytes)
	if flagIsSet(p.Flags, PACKET_FLAG_DELAY_REQUESTED) {
		if p.Delay, err = options.ReadUint16(); err != nil {
			return nil, fmt.Errorf("failed to read delay option: %w", err)
		}
	}
	if flagIsSet(p.Flags, PACKET_FLAG_FROM_INCLUDED) {
		from, err := NewDestinationFromMessage(options, NewCrypto())
		if err != nil {
			return nil, fmt.Errorf("failed to read from-destination option: %w", err)
		}
		p.From = from
	}
	if flagIsSet(p.Flags, PACKET_FLAG_MAX_PACKET_SIZE_INCLUDED) {
		if p.MaxPacketSize, err = options.ReadUint16(); err != nil {
			return nil, fmt.Errorf("failed to read max-packet-size option: %w", err)
		}
	}
	if flagIsSet(p.Flags, PACKET_FLAG_OFFLINE_SIGNATURE) {
		return nil, fmt.Errorf("i2cp: offline signatures are not supported")
	}
	if flagIsSet(p.Flags, PACKET_FLAG_SIGNATURE_INCLUDED) {
		sigLen := options.Len()
		if sigLen == 0 {
			return nil, fmt.Errorf("i2cp: SIGNATURE_INCLUDED set but no signature bytes present")
		}
		sig := make([]byte, sigLen)
		if _, err := options.Read(sig); err != nil {
			return nil, fmt.Errorf("failed to read signature option: %w", err)
		}
		p.Signature = sig
		p.sigOffset = optionsStart + (int(optionsLen) - options.Len() - sigLen)
	}

	remaining := buf.Len()
	p.Payload = make([]byte, remaining)
	if remaining > 0 {
		if _, err := buf.Read(p.Payload); err != nil {
			return nil, fmt.Errorf("failed to read payload: %w", err)
		}
	}

	return p, nil
}

// Verify checks p's signature (if any) against remoteDestination, and, for
// a SYNC packet carrying the 8-word anti-replay proof-of-intent, checks
// that proof against myDestination. raw must be the exact wire bytes p was
// built from or decoded from (EncodePacket's return value, or DecodePacket's
// input). Returns nil if verification is not required or succeeds.
func (p *Packet) Verify(raw []byte, remoteDestination *Destination, myDestination *Destination) error {
	if !flagIsSet(p.Flags, PACKET_FLAG_SIGNATURE_INCLUDED) {
		return nil
	}
	if remoteDestination == nil {
		return fmt.Errorf("i2cp: cannot verify signed packet without remote destination")
	}
	if p.sigOffset < 0 || len(p.Signature) == 0 || p.sigOffset+len(p.Signature) > len(raw) {
		return ErrPacketVerificationFailed
	}

	zeroed := append([]byte(nil), raw...)
	for i := range p.Signature {
		zeroed[p.sigOffset+i] = 0
	}
	if !remoteDestination.VerifySignature(zeroed, p.Signature) {
		return ErrPacketVerificationFailed
	}

	if flagIsSet(p.Flags, PACKET_FLAG_SYNC) && len(p.Nacks) == 8 {
		if myDestination == nil {
			return fmt.Errorf("i2cp: cannot check replay guard without local destination")
		}
		destStream := NewStream(make([]byte, 0, DEST_SIZE))
		if err := myDestination.WriteToMessage(destStream); err != nil {
			return fmt.Errorf("failed to serialize local destination for replay check: %w", err)
		}
		digest := sha256.Sum256(destStream.Bytes())
		for i := 0; i < 8; i++ {
			want := uint32(digest[i*4])<<24 | uint32(digest[i*4+1])<<16 | uint32(digest[i*4+2])<<8 | uint32(digest[i*4+3])
			if p.Nacks[i] != want {
				return ErrReplayGuardFailed
			}
		}
	}

	return nil
}

// ReplayGuardWords returns the 8 big-endian 32-bit words of
// SHA-256(destination bytes), used as the nacks field of an initiating SYNC
// packet per spec §4.G's anti-replay proof-of-intent.
func ReplayGuardWords(dest *Destination) ([]uint32, error) {
	stream := NewStream(make([]byte, 0, DEST_SIZE))
	if err := dest.WriteToMessage(stream); err != nil {
		return nil, fmt.Errorf("failed to serialize destination for replay guard: %w", err)
	}
	digest := sha256.Sum256(stream.Bytes())
	words := make([]uint32, 8)
	for i := range words {
		words[i] = uint32(digest[i*4])<<24 | uint32(digest[i*4+1])<<16 | uint32(digest[i*4+2])<<8 | uint32(digest[i*4+3])
	}
	return words, nil
}
