package go_i2cp

import (
	"bytes"
	"fmt"
	"net"
)

// samUDPProtocolVersion is the version prefix on every outgoing UDP
// datagram sent to the session bridge, per the session-bridge text protocol.
const samUDPProtocolVersion = "3.0"

// DatagramSubsession is a DATAGRAM (repliable) or RAW subsession: a local
// UDP socket that the session bridge delivers inbound datagrams to, and
// that outbound datagrams are sent from toward the bridge's UDP port.
type DatagramSubsession struct {
	id         string
	style      string
	listenPort uint16
	udpConn    *net.UDPConn
	samUDPAddr *net.UDPAddr
}

// DatagramResult is one inbound datagram: its sender and payload.
type DatagramResult struct {
	RemoteDestination string
	FromPort          uint16
	ToPort            uint16
	Payload           []byte
}

// AddDatagramSubsession adds a DATAGRAM or RAW subsession to the primary
// session, binds a local UDP socket on localUDPPort to receive inbound
// datagrams, and resolves the bridge's UDP port for outbound ones.
func (b *SAMBridge) AddDatagramSubsession(style, id string, localUDPPort uint16, samUDPHost string, samUDPPort uint16, opts SubsessionOptions) (*DatagramSubsession, error) {
	if style != SAMStyleDatagram && style != SAMStyleRaw {
		return nil, fmt.Errorf("i2cp: unsupported datagram subsession style %q", style)
	}

	opts.UDPPort = localUDPPort
	if err := b.AddSubsession(style, id, opts); err != nil {
		return nil, err
	}

	localAddr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("127.0.0.1:%d", localUDPPort))
	if err != nil {
		return nil, fmt.Errorf("i2cp: failed to resolve local datagram address: %w", err)
	}
	conn, err := net.ListenUDP("udp", localAddr)
	if err != nil {
		return nil, fmt.Errorf("i2cp: failed to bind datagram socket on port %d: %w", localUDPPort, err)
	}

	samAddr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", samUDPHost, samUDPPort))
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("i2cp: failed to resolve session bridge UDP address: %w", err)
	}

	return &DatagramSubsession{
		id:         id,
		style:      style,
		listenPort: opts.ListenPort,
		udpConn:    conn,
		samUDPAddr: samAddr,
	}, nil
}

// Receive blocks for the next inbound datagram. Repliable (DATAGRAM)
// subsessions drop any datagram whose TO_PORT doesn't match the configured
// listen port; RAW subsessions apply no filter.
func (ds *DatagramSubsession) Receive(buf []byte) (*DatagramResult, error) {
	for {
		n, _, err := ds.udpConn.ReadFromUDP(buf)
		if err != nil {
			return nil, fmt.Errorf("i2cp: failed to read datagram: %w", err)
		}
		data := buf[:n]

		idx := bytes.IndexByte(data, '\n')
		if idx < 0 {
			Warning("Dropping malformed datagram on subsession %s: no header line", ds.id)
			continue
		}
		header := string(data[:idx])
		payload := data[idx+1:]

		dest, fromPort, toPort, err := parseStreamHeader(header)
		if err != nil {
			Warning("Dropping malformed datagram header on subsession %s: %v", ds.id, err)
			continue
		}

		if ds.style == SAMStyleDatagram && ds.listenPort != 0 && toPort != ds.listenPort {
			continue
		}

		out := make([]byte, len(payload))
		copy(out, payload)
		return &DatagramResult{
			RemoteDestination: dest,
			FromPort:          fromPort,
			ToPort:            toPort,
			Payload:           out,
		}, nil
	}
}

// Send transmits payload to destination over this subsession's UDP socket.
func (ds *DatagramSubsession) Send(destination string, fromPort, toPort uint16, payload []byte) error {
	header := fmt.Sprintf("%s %s %s FROM_PORT=%d TO_PORT=%d\n",
		samUDPProtocolVersion, ds.id, destination, fromPort, toPort)
	out := append([]byte(header), payload...)
	if _, err := ds.udpConn.WriteToUDP(out, ds.samUDPAddr); err != nil {
		return fmt.Errorf("i2cp: failed to send datagram on subsession %s: %w", ds.id, err)
	}
	return nil
}

// Close releases the subsession's local UDP socket.
func (ds *DatagramSubsession) Close() error {
	return ds.udpConn.Close()
}
