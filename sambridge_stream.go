package go_i2cp

import (
	"bufio"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// StreamSubsession is a STREAM-style subsession: every accepted inbound
// stream requires its own TCP connection to the session bridge doing
// STREAM ACCEPT, and every outbound stream its own STREAM CONNECT. The
// subsession tracks outstanding accept sockets for diagnostics and shutdown.
type StreamSubsession struct {
	bridge  *SAMBridge
	address string
	id      string

	shutdown *shutdownCoordinator

	acceptMu      sync.Mutex
	acceptSockets map[string]net.Conn
}

// StreamConnResult is the outcome of a successful STREAM ACCEPT: the
// bidirectional byte stream plus the header line's sender/port metadata.
type StreamConnResult struct {
	Conn              net.Conn
	RemoteDestination string
	FromPort          uint16
	ToPort            uint16
}

// AddStreamSubsession adds a STREAM subsession to the primary session and
// returns a handle for issuing STREAM ACCEPT/CONNECT against it.
func (b *SAMBridge) AddStreamSubsession(id string, opts SubsessionOptions) (*StreamSubsession, error) {
	if err := b.AddSubsession(SAMStyleStream, id, opts); err != nil {
		return nil, err
	}
	return &StreamSubsession{
		bridge:        b,
		address:       b.address,
		id:            id,
		shutdown:      b.shutdown,
		acceptSockets: make(map[string]net.Conn),
	}, nil
}

// parseStreamHeader parses the "<base64_dest> FROM_PORT=.. TO_PORT=.."
// line that precedes both an accepted inbound stream's payload and every
// datagram subsession packet's payload.
func parseStreamHeader(line string) (dest string, fromPort, toPort uint16, err error) {
	fields := splitFields(line)
	if len(fields) == 0 {
		return "", 0, 0, oops.Errorf("empty stream header line")
	}
	dest = fields[0]
	for _, f := range fields[1:] {
		kv := strings.SplitN(f, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "FROM_PORT":
			if p, err := strconv.Atoi(kv[1]); err == nil {
				fromPort = uint16(p)
			}
		case "TO_PORT":
			if p, err := strconv.Atoi(kv[1]); err == nil {
				toPort = uint16(p)
			}
		}
	}
	return dest, fromPort, toPort, nil
}

// Accept opens a fresh accept socket, issues STREAM ACCEPT, and blocks until
// an inbound stream arrives. Applications listening on a fixed port must
// filter the result on ToPort themselves.
func (ss *StreamSubsession) Accept() (*StreamConnResult, error) {
	conn, err := net.Dial("tcp", ss.address)
	if err != nil {
		return nil, fmt.Errorf("i2cp: failed to dial accept socket: %w", err)
	}

	corrID := ulid.Make().String()
	ss.acceptMu.Lock()
	ss.acceptSockets[corrID] = conn
	ss.acceptMu.Unlock()
	ss.shutdown.register(conn)
	Debug("Opened stream accept socket %s for subsession %s", corrID, ss.id)

	release := func() {
		ss.acceptMu.Lock()
		delete(ss.acceptSockets, corrID)
		ss.acceptMu.Unlock()
	}
	fail := func(err error) (*StreamConnResult, error) {
		release()
		ss.shutdown.unregister(conn)
		conn.Close()
		return nil, err
	}

	if err := sendLine(conn, fmt.Sprintf("STREAM ACCEPT ID=%s", ss.id)); err != nil {
		return fail(fmt.Errorf("i2cp: failed to send STREAM ACCEPT: %w", err))
	}

	br := bufio.NewReader(conn)
	statusLine, err := readTextLine(br)
	if err != nil {
		return fail(fmt.Errorf("i2cp: failed to read STREAM STATUS: %w", err))
	}
	reply := parseReply(statusLine)
	if reply.Type != "STREAM STATUS" || reply.Args["RESULT"] != "OK" {
		return fail(oops.Errorf("STREAM ACCEPT failed: %s", reply.Args["RESULT"]))
	}

	headerLine, err := readTextLine(br)
	if err != nil {
		return fail(fmt.Errorf("i2cp: failed to read stream peer header: %w", err))
	}
	dest, fromPort, toPort, err := parseStreamHeader(headerLine)
	if err != nil {
		return fail(err)
	}

	release()
	return &StreamConnResult{
		Conn:              &bufferedConn{Conn: conn, r: br},
		RemoteDestination: dest,
		FromPort:          fromPort,
		ToPort:            toPort,
	}, nil
}

// Connect opens a new TCP connection to destination via STREAM CONNECT,
// returning the resulting bidirectional byte stream on success.
func (ss *StreamSubsession) Connect(destination string, fromPort, toPort uint16) (net.Conn, error) {
	conn, err := net.Dial("tcp", ss.address)
	if err != nil {
		return nil, fmt.Errorf("i2cp: failed to dial connect socket: %w", err)
	}
	ss.shutdown.register(conn)

	fail := func(err error) (net.Conn, error) {
		ss.shutdown.unregister(conn)
		conn.Close()
		return nil, err
	}

	line := fmt.Sprintf("STREAM CONNECT ID=%s DESTINATION=%s FROM_PORT=%d TO_PORT=%d",
		ss.id, destination, fromPort, toPort)
	if err := sendLine(conn, line); err != nil {
		return fail(fmt.Errorf("i2cp: failed to send STREAM CONNECT: %w", err))
	}

	br := bufio.NewReader(conn)
	statusLine, err := readTextLine(br)
	if err != nil {
		return fail(fmt.Errorf("i2cp: failed to read STREAM STATUS: %w", err))
	}
	reply := parseReply(statusLine)
	if reply.Type != "STREAM STATUS" || reply.Args["RESULT"] != "OK" {
		return fail(oops.Errorf("STREAM CONNECT to %s failed: %s", destination, reply.Args["RESULT"]))
	}

	return &bufferedConn{Conn: conn, r: br}, nil
}

// Close closes every outstanding accept socket tracked by this subsession.
func (ss *StreamSubsession) Close() error {
	ss.acceptMu.Lock()
	conns := make([]net.Conn, 0, len(ss.acceptSockets))
	for _, c := range ss.acceptSockets {
		conns = append(conns, c)
	}
	ss.acceptSockets = make(map[string]net.Conn)
	ss.acceptMu.Unlock()

	for _, c := range conns {
		ss.shutdown.unregister(c)
		c.Close()
	}
	return nil
}
