// SessionCallbacks struct definition
// Moved from: session.go
package go_i2cp

// SessionCallbacks provides callback functions for session events.
type SessionCallbacks struct {
	OnMessage       func(session *Session, srcDest *Destination, protocol uint8, srcPort, destPort uint16, payload *Stream)
	OnStatus        func(session *Session, status SessionStatus)
	OnDestination   func(session *Session, requestId uint32, address string, dest *Destination)
	OnMessageStatus func(session *Session, messageId uint32, status SessionMessageStatus, size, nonce uint32)
	OnLeaseSet2     func(session *Session, leaseSet *LeaseSet2)
	OnBlindingInfo  func(session *Session, blindingScheme, blindingFlags uint16, blindingParams []byte)

	// OnStream is invoked when a new incoming stream is accepted (spec
	// §4.G): a remote peer's SYNC packet with no existing local binding.
	OnStream func(session *Session, stream *StreamConn)
}
