// Session struct definition
// Moved from: session.go
package go_i2cp

import (
	"context"
	"sync"
	"time"
)

// Session represents an I2CP session with modern concurrency and lifecycle management
// per I2CP specification - supports primary/subsession relationships and proper resource cleanup
type Session struct {
	// Core session data
	id        uint16
	config    *SessionConfig
	client    *Client
	callbacks *SessionCallbacks

	// Multi-session support (I2CP 0.9.21+)
	isPrimary      bool
	primarySession *Session

	// Lifecycle management
	created  time.Time
	closed   bool
	closedAt time.Time

	// Context and cancellation support
	ctx    context.Context
	cancel context.CancelFunc

	// Thread safety
	mu sync.RWMutex

	// Callback behavior control (for testing)
	syncCallbacks bool

	// streamManager owns this session's streaming-protocol connections
	// (component G), created lazily by Streams().
	streamManager *StreamManager

	// Closed when the router reports SessionStatus(Destroyed) for this session
	destroyConfirmed chan struct{}

	// Blinding parameters from BlindingInfoMessage (I2CP 0.9.43+)
	blindingScheme uint16
	blindingFlags  uint16
	blindingParams []byte

	// Outbound messages awaiting MessageStatus, keyed by nonce
	messageMu       sync.RWMutex
	pendingMessages map[uint32]*PendingMessage
}

// PendingMessage records an outbound message from TrackMessage until
// CompleteMessage receives its MessageStatus.
type PendingMessage struct {
	Nonce       uint32
	Destination *Destination
	Protocol    uint8
	SrcPort     uint16
	DestPort    uint16
	PayloadSize uint32
	SentAt      time.Time
	CompletedAt time.Time            // zero until completed
	Status      SessionMessageStatus // 0 while pending
	Flags       uint16
	Expiration  uint64
}
