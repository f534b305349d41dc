package go_i2cp

import (
	"fmt"
	"sync"
	"time"
)

// StreamState is a StreamConn's position in the streaming-protocol state
// machine (spec §4.G): INIT -> SYN_SENT -> ESTABLISHED -> CLOSING -> CLOSED
// for an initiator, INIT -> ESTABLISHED -> CLOSING -> CLOSED for a
// responder, with RESET collapsing any state straight to CLOSED.
type StreamState int

const (
	StreamStateInit StreamState = iota
	StreamStateSynSent
	StreamStateEstablished
	StreamStateClosing
	StreamStateClosed
)

func (s StreamState) String() string {
	switch s {
	case StreamStateInit:
		return "INIT"
	case StreamStateSynSent:
		return "SYN_SENT"
	case StreamStateEstablished:
		return "ESTABLISHED"
	case StreamStateClosing:
		return "CLOSING"
	case StreamStateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// sentPacketRecord tracks an unacknowledged outbound packet awaiting
// retransmission or retirement.
type sentPacketRecord struct {
	packet *Packet
	raw    []byte
	sentAt time.Time
	timer  *time.Timer
	acked  bool
}

// StreamManager owns every StreamConn bound to one Session, keyed by the
// local streamId each packet's receiveStreamId addresses.
type StreamManager struct {
	mu      sync.Mutex
	session *Session
	streams map[uint32]*StreamConn
}

func newStreamManager(session *Session) *StreamManager {
	return &StreamManager{
		session: session,
		streams: make(map[uint32]*StreamConn),
	}
}

// Streams returns the session's stream manager, creating it on first use.
func (session *Session) Streams() *StreamManager {
	session.mu.Lock()
	if session.streamManager == nil {
		session.streamManager = newStreamManager(session)
	}
	mgr := session.streamManager
	session.mu.Unlock()
	return mgr
}

// randomStreamId draws a nonzero stream id in [1, 4_000_000_000] using the
// same Random32 source the teacher's client uses for message nonces.
func randomStreamId(crypto *Crypto) uint32 {
	for {
		if id := crypto.Random32() % 4_000_000_000; id != 0 {
			return id
		}
	}
}

// Dial establishes an outbound stream to remote by sending a SYNC packet
// and waiting (up to the retry ceiling) for the stream to become
// established. firstChunk is carried on the SYNC packet itself, matching
// spec §4.G's "first write is the SYNC".
func (mgr *StreamManager) Dial(remote *Destination, srcPort, destPort uint16, firstChunk []byte) (*StreamConn, error) {
	session := mgr.session
	local := session.Destination()
	if local == nil {
		return nil, fmt.Errorf("i2cp: session has no destination to stream from")
	}
	signer, err := session.SigningKeyPair()
	if err != nil {
		return nil, fmt.Errorf("failed to obtain signing key pair for stream: %w", err)
	}

	streamId := randomStreamId(session.client.crypto)

	conn := &StreamConn{
		manager:         mgr,
		remote:          remote,
		local:           local,
		signer:          signer,
		streamId:        streamId,
		initiator:       true,
		state:           StreamStateInit,
		srcPort:         srcPort,
		destPort:        destPort,
		missingPackets:  make(map[uint32]bool),
		receivedPackets: make(map[uint32][]byte),
		sentPackets:     make(map[uint32]*sentPacketRecord),
		established:     make(chan struct{}),
		readable:        make(chan struct{}, 1),
		closed:          make(chan struct{}),
	}

	mgr.mu.Lock()
	mgr.streams[streamId] = conn
	mgr.mu.Unlock()

	if err := conn.sendSyn(firstChunk); err != nil {
		mgr.remove(streamId)
		return nil, err
	}

	select {
	case <-conn.established:
		return conn, nil
	case <-conn.closed:
		return nil, conn.closeErr
	}
}

func (mgr *StreamManager) remove(streamId uint32) {
	mgr.mu.Lock()
	delete(mgr.streams, streamId)
	mgr.mu.Unlock()
}

// handleIncoming decodes a streaming-protocol payload and routes it to the
// StreamConn it addresses, accepting a new responder connection when the
// packet is an unbound SYNC.
func (mgr *StreamManager) handleIncoming(remoteDest *Destination, srcPort, destPort uint16, raw []byte) {
	packet, err := DecodePacket(raw)
	if err != nil {
		Warning("Dropping malformed stream packet: %v", err)
		return
	}

	mgr.mu.Lock()
	conn, ok := mgr.streams[packet.ReceiveStreamId]
	mgr.mu.Unlock()

	if ok {
		conn.handlePacket(raw, packet)
		return
	}

	if !flagIsSet(packet.Flags, PACKET_FLAG_SYNC) || packet.SendStreamId != 0 {
		Debug("Dropping stream packet for unknown stream %d", packet.ReceiveStreamId)
		return
	}

	mgr.acceptIncoming(remoteDest, srcPort, destPort, raw, packet)
}

func (mgr *StreamManager) acceptIncoming(remoteDest *Destination, srcPort, destPort uint16, raw []byte, packet *Packet) {
	session := mgr.session
	local := session.Destination()
	if local == nil {
		Warning("Rejecting incoming stream: session has no destination")
		return
	}
	signer, err := session.SigningKeyPair()
	if err != nil {
		Warning("Rejecting incoming stream: %v", err)
		return
	}

	streamId := randomStreamId(session.client.crypto)

	conn := &StreamConn{
		manager:         mgr,
		remote:          remoteDest,
		local:           local,
		signer:          signer,
		streamId:        streamId,
		remoteStreamId:  packet.ReceiveStreamId,
		initiator:       false,
		state:           StreamStateInit,
		srcPort:         destPort,
		destPort:        srcPort,
		missingPackets:  make(map[uint32]bool),
		receivedPackets: make(map[uint32][]byte),
		sentPackets:     make(map[uint32]*sentPacketRecord),
		established:     make(chan struct{}),
		readable:        make(chan struct{}, 1),
		closed:          make(chan struct{}),
	}

	mgr.mu.Lock()
	mgr.streams[streamId] = conn
	mgr.mu.Unlock()

	conn.handlePacket(raw, packet)

	if session.callbacks != nil && session.callbacks.OnStream != nil {
		session.callbacks.OnStream(session, conn)
	}
}

// StreamConn is a single streaming-protocol connection (component G):
// reliable, ordered delivery layered on the stream-packet codec, with
// per-packet retransmission and a close handshake.
type StreamConn struct {
	manager *StreamManager
	remote  *Destination
	local   *Destination
	signer  *SignatureKeyPair

	srcPort, destPort uint16

	mu sync.Mutex

	streamId       uint32
	remoteStreamId uint32
	initiator      bool
	state          StreamState

	ourSequenceNum  uint32
	ackThrough      uint32
	haveAckThrough  bool
	missingPackets  map[uint32]bool
	receivedPackets map[uint32][]byte
	sentPackets     map[uint32]*sentPacketRecord

	closeSent            bool
	remoteRequestedClose bool

	established chan struct{}
	establishedOnce sync.Once
	readable    chan struct{}
	readQueue   [][]byte
	closed      chan struct{}
	closeOnce   sync.Once
	closeErr    error
}

// State returns the connection's current state.
func (sc *StreamConn) State() StreamState {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.state
}

// StreamId returns this side's local stream id.
func (sc *StreamConn) StreamId() uint32 {
	return sc.streamId
}

// Remote returns the peer's destination.
func (sc *StreamConn) Remote() *Destination {
	return sc.remote
}

func (sc *StreamConn) markEstablished() {
	sc.establishedOnce.Do(func() {
		close(sc.established)
	})
}

// sendSyn transmits the initiator's opening SYNC packet, carrying the
// anti-replay proof-of-intent nacks and the first chunk of application
// data, and schedules its retransmission.
func (sc *StreamConn) sendSyn(firstChunk []byte) error {
	nacks, err := ReplayGuardWords(sc.remote)
	if err != nil {
		return err
	}

	packet := &Packet{
		SendStreamId:    0,
		ReceiveStreamId: sc.streamId,
		SequenceNum:     0,
		AckThrough:      0,
		Nacks:           nacks,
		Flags: flagSet(flagSet(flagSet(flagSet(0,
			PACKET_FLAG_SYNC),
			PACKET_FLAG_NO_ACK),
			PACKET_FLAG_SIGNATURE_INCLUDED),
			PACKET_FLAG_FROM_INCLUDED),
		From:    sc.local,
		Payload: firstChunk,
	}

	sc.mu.Lock()
	sc.state = StreamStateSynSent
	sc.mu.Unlock()

	return sc.transmit(packet, 0)
}

// transmit encodes and sends packet, registering it for retransmission if
// it demands acknowledgement (anything but a pure ack).
func (sc *StreamConn) transmit(packet *Packet, seq uint32) error {
	raw, err := EncodePacket(packet, sc.signer)
	if err != nil {
		return fmt.Errorf("failed to encode stream packet: %w", err)
	}

	if err := sc.send(raw); err != nil {
		return err
	}

	if m := sc.metrics(); m != nil {
		m.IncrementStreamPacketSent()
	}

	if !packet.IsAckable() {
		return nil
	}

	sc.mu.Lock()
	rec := &sentPacketRecord{packet: packet, raw: raw, sentAt: time.Now()}
	sc.sentPackets[seq] = rec
	sc.mu.Unlock()

	sc.scheduleResend(seq)
	return nil
}

// metrics returns the owning session's metrics collector, or nil if metrics
// collection is disabled.
func (sc *StreamConn) metrics() MetricsCollector {
	return sc.manager.session.client.metrics
}

func (sc *StreamConn) send(raw []byte) error {
	session := sc.manager.session
	nonce := session.client.crypto.Random32()
	return session.SendMessage(sc.remote, PROTOCOL_STREAMING, sc.srcPort, sc.destPort, NewStream(raw), nonce)
}

// scheduleResend arms rec's retransmission timer. It fires every
// resend_delay seconds until the packet is retired or the 300s ceiling
// (spec §4.G) elapses, at which point the stream fails with
// ErrRetryExhausted.
func (sc *StreamConn) scheduleResend(seq uint32) {
	sc.mu.Lock()
	rec, ok := sc.sentPackets[seq]
	if !ok || rec.acked {
		sc.mu.Unlock()
		return
	}
	delay := rec.packet.ResendDelay
	if delay == 0 {
		delay = streamPacketDefaultResendDelay
	}
	rec.timer = time.AfterFunc(time.Duration(delay)*time.Second, func() {
		sc.onResendTimer(seq)
	})
	sc.mu.Unlock()
}

func (sc *StreamConn) onResendTimer(seq uint32) {
	sc.mu.Lock()
	rec, ok := sc.sentPackets[seq]
	if !ok || rec.acked {
		sc.mu.Unlock()
		return
	}
	if time.Since(rec.sentAt) >= streamRetryCeiling*time.Second {
		sc.mu.Unlock()
		Error("Stream %d packet %d exhausted retry ceiling", sc.streamId, seq)
		sc.destroy(ErrRetryExhausted)
		return
	}
	raw := rec.raw
	sc.mu.Unlock()

	if err := sc.send(raw); err != nil {
		Error("Stream %d failed to resend packet %d: %v", sc.streamId, seq, err)
	} else if m := sc.metrics(); m != nil {
		m.IncrementStreamPacketRetransmitted()
	}
	sc.scheduleResend(seq)
}

// handlePacket processes one inbound wire-form packet addressed to this
// stream: signature/replay verification, out-of-order reassembly,
// send-side retirement, and close-handshake transitions.
func (sc *StreamConn) handlePacket(raw []byte, packet *Packet) {
	if err := packet.Verify(raw, sc.remote, sc.local); err != nil {
		Warning("Dropping stream packet for stream %d: %v", sc.streamId, err)
		return
	}
	if packet.SendStreamId != 0 && packet.SendStreamId != sc.streamId {
		Warning("Dropping stream packet with mismatched sendStreamId for stream %d", sc.streamId)
		return
	}

	sc.mu.Lock()

	if sc.remoteStreamId == 0 && packet.ReceiveStreamId != 0 {
		sc.remoteStreamId = packet.ReceiveStreamId
	}
	if sc.state == StreamStateSynSent || sc.state == StreamStateInit {
		sc.state = StreamStateEstablished
	}

	sc.retireAcked(packet.AckThrough, packet.Nacks)

	if flagIsSet(packet.Flags, PACKET_FLAG_RESET) {
		sc.mu.Unlock()
		sc.destroy(ErrStreamClosed)
		return
	}

	var deliverable [][]byte
	if packet.IsAckable() {
		deliverable = sc.reassemble(packet)
	}

	remoteClose := flagIsSet(packet.Flags, PACKET_FLAG_CLOSE)
	if remoteClose {
		sc.remoteRequestedClose = true
		if sc.state != StreamStateClosed {
			sc.state = StreamStateClosing
		}
	}
	sc.mu.Unlock()

	for _, chunk := range deliverable {
		if len(chunk) > 0 {
			sc.deliver(chunk)
		}
	}

	sc.markEstablished()

	if packet.IsAckable() {
		if err := sc.sendAck(remoteClose); err != nil {
			Error("Stream %d failed to send ack: %v", sc.streamId, err)
		}
	}

	if remoteClose {
		sc.maybeFinishClose()
	}
}

// retireAcked drops every sent packet whose sequence is covered by
// ackThrough and not named in nacks. Caller must hold sc.mu.
func (sc *StreamConn) retireAcked(ackThrough uint32, nacks []uint32) {
	nacked := make(map[uint32]bool, len(nacks))
	for _, n := range nacks {
		nacked[n] = true
	}
	m := sc.metrics()
	for seq, rec := range sc.sentPackets {
		if seq <= ackThrough && !nacked[seq] {
			if rec.timer != nil {
				rec.timer.Stop()
			}
			rec.acked = true
			delete(sc.sentPackets, seq)
			if m != nil {
				m.IncrementStreamPacketAcked()
			}
		}
	}
}

// reassemble applies spec §4.G's ordering rule for one incoming data
// packet and returns any now-contiguous payloads ready for delivery to the
// application, in order. Caller must hold sc.mu.
func (sc *StreamConn) reassemble(packet *Packet) [][]byte {
	n := packet.SequenceNum
	delete(sc.missingPackets, n)

	if !sc.haveAckThrough {
		sc.ackThrough = n
		sc.haveAckThrough = true
		return [][]byte{packet.Payload}
	}

	if n <= sc.ackThrough {
		return nil
	}

	if n == sc.ackThrough+1 {
		out := [][]byte{packet.Payload}
		sc.ackThrough = n
		for {
			next, ok := sc.receivedPackets[sc.ackThrough+1]
			if !ok {
				break
			}
			delete(sc.receivedPackets, sc.ackThrough+1)
			delete(sc.missingPackets, sc.ackThrough+1)
			sc.ackThrough++
			out = append(out, next)
		}
		return out
	}

	for m := sc.ackThrough + 1; m < n; m++ {
		if _, buffered := sc.receivedPackets[m]; !buffered {
			sc.missingPackets[m] = true
		}
	}
	sc.receivedPackets[n] = packet.Payload
	return nil
}

func (sc *StreamConn) deliver(chunk []byte) {
	sc.mu.Lock()
	sc.readQueue = append(sc.readQueue, chunk)
	sc.mu.Unlock()
	select {
	case sc.readable <- struct{}{}:
	default:
	}
}

// sendAck transmits a pure acknowledgement for the current ackThrough and
// missingPackets state. Pure acks use sequence 0 and carry no payload.
func (sc *StreamConn) sendAck(closing bool) error {
	sc.mu.Lock()
	ackThrough := sc.ackThrough
	nacks := make([]uint32, 0, len(sc.missingPackets))
	for m := range sc.missingPackets {
		nacks = append(nacks, m)
	}
	remoteStreamId := sc.remoteStreamId
	sc.mu.Unlock()

	flags := uint16(0)
	if closing {
		flags = flagSet(flags, PACKET_FLAG_CLOSE)
	}
	packet := &Packet{
		SendStreamId:    remoteStreamId,
		ReceiveStreamId: sc.streamId,
		SequenceNum:     0,
		AckThrough:      ackThrough,
		Nacks:           nacks,
		Flags:           flags,
	}
	raw, err := EncodePacket(packet, sc.signer)
	if err != nil {
		return fmt.Errorf("failed to encode ack packet: %w", err)
	}
	return sc.send(raw)
}

// Read returns the next in-order chunk of application data, blocking until
// one is available or the stream is closed.
func (sc *StreamConn) Read() ([]byte, error) {
	for {
		sc.mu.Lock()
		if len(sc.readQueue) > 0 {
			chunk := sc.readQueue[0]
			sc.readQueue = sc.readQueue[1:]
			sc.mu.Unlock()
			return chunk, nil
		}
		sc.mu.Unlock()

		select {
		case <-sc.readable:
			continue
		case <-sc.closed:
			sc.mu.Lock()
			remaining := len(sc.readQueue)
			sc.mu.Unlock()
			if remaining > 0 {
				continue
			}
			if sc.closeErr != nil {
				return nil, sc.closeErr
			}
			return nil, ErrStreamClosed
		}
	}
}

// Write sends payload as the next sequenced data packet.
func (sc *StreamConn) Write(payload []byte) (int, error) {
	sc.mu.Lock()
	if sc.state == StreamStateClosed {
		sc.mu.Unlock()
		return 0, ErrStreamClosed
	}
	sc.ourSequenceNum++
	seq := sc.ourSequenceNum
	remoteStreamId := sc.remoteStreamId
	sc.mu.Unlock()

	packet := &Packet{
		SendStreamId:    remoteStreamId,
		ReceiveStreamId: sc.streamId,
		SequenceNum:     seq,
		Payload:         payload,
	}
	if err := sc.transmit(packet, seq); err != nil {
		return 0, err
	}
	return len(payload), nil
}

// Close sends a signed CLOSE packet and waits for the close handshake to
// complete: every outstanding sent packet retired and the peer's own
// CLOSE observed (or already observed).
func (sc *StreamConn) Close() error {
	sc.mu.Lock()
	if sc.state == StreamStateClosed {
		sc.mu.Unlock()
		return nil
	}
	if sc.closeSent {
		sc.mu.Unlock()
		return nil
	}
	sc.closeSent = true
	sc.ourSequenceNum++
	seq := sc.ourSequenceNum
	remoteStreamId := sc.remoteStreamId
	sc.state = StreamStateClosing
	sc.mu.Unlock()

	packet := &Packet{
		SendStreamId:    remoteStreamId,
		ReceiveStreamId: sc.streamId,
		SequenceNum:     seq,
		Flags:           flagSet(PACKET_FLAG_CLOSE, PACKET_FLAG_SIGNATURE_INCLUDED),
	}
	if err := sc.transmit(packet, seq); err != nil {
		return err
	}

	sc.maybeFinishClose()
	return nil
}

// maybeFinishClose transitions the stream to CLOSED once both sides have
// sent CLOSE (or the peer has, for a passively-closing stream) and every
// outstanding sent packet has been retired.
func (sc *StreamConn) maybeFinishClose() {
	sc.mu.Lock()
	if sc.state == StreamStateClosed {
		sc.mu.Unlock()
		return
	}
	if !sc.closeSent || !sc.remoteRequestedClose {
		sc.mu.Unlock()
		return
	}
	if len(sc.sentPackets) > 0 {
		sc.mu.Unlock()
		return
	}
	sc.state = StreamStateClosed
	sc.mu.Unlock()

	sc.destroy(nil)
}

// destroy stops every pending retransmission timer and tears the stream
// down, unblocking any callers waiting in Dial, Read, or Close.
func (sc *StreamConn) destroy(err error) {
	sc.mu.Lock()
	for seq, rec := range sc.sentPackets {
		if rec.timer != nil {
			rec.timer.Stop()
		}
		delete(sc.sentPackets, seq)
	}
	sc.state = StreamStateClosed
	sc.mu.Unlock()

	sc.manager.remove(sc.streamId)
	sc.markEstablished()
	sc.closeOnce.Do(func() {
		sc.closeErr = err
		close(sc.closed)
	})
}
