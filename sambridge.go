package go_i2cp

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/samber/oops"
	"golang.org/x/text/cases"
)

// SAM session styles, per the session-bridge text protocol (component H).
const (
	SAMStyleStream   = "STREAM"
	SAMStyleDatagram = "DATAGRAM"
	SAMStyleRaw      = "RAW"
	SAMStylePrimary  = "PRIMARY"
)

const (
	samProtocolMin = "3.0"
	samProtocolMax = "3.3"
)

// defaultSAMLeaseSetEncType mirrors the router-control client's own leaseset2
// encryption key set (ElGamal for compatibility, X25519 for actual use).
const defaultSAMLeaseSetEncType = "4,0"

// Reply is a parsed line of the session-bridge's text protocol: a sequence of
// bare words (the "type", e.g. "HELLO REPLY" or "SESSION STATUS") followed by
// key=value pairs. Modeled as a tagged sum rather than per-message structs
// because the wire format's shape genuinely varies message to message.
type Reply struct {
	Type string
	Args map[string]string
}

// splitFields tokenizes line on spaces, treating double-quoted regions as
// atomic so a value like MESSAGE="Unknown STYLE" survives as one field.
func splitFields(line string) []string {
	var fields []string
	var cur strings.Builder
	inQuotes := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"':
			inQuotes = !inQuotes
			cur.WriteByte(c)
		case c == ' ' && !inQuotes:
			if cur.Len() > 0 {
				fields = append(fields, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteByte(c)
		}
	}
	if cur.Len() > 0 {
		fields = append(fields, cur.String())
	}
	return fields
}

// parseReply parses one line of session-bridge response text. Leading
// whitespace-delimited words with no '=' form the Type; every field after
// that is split on its first '=' only, since values may themselves contain
// '=' (e.g. a Base64 destination blob).
func parseReply(line string) *Reply {
	fields := splitFields(line)
	r := &Reply{Args: make(map[string]string)}

	var typeWords []string
	i := 0
	for ; i < len(fields); i++ {
		if strings.Contains(fields[i], "=") {
			break
		}
		typeWords = append(typeWords, fields[i])
	}
	r.Type = strings.Join(typeWords, " ")

	for ; i < len(fields); i++ {
		kv := strings.SplitN(fields[i], "=", 2)
		if len(kv) != 2 {
			continue
		}
		r.Args[kv[0]] = strings.Trim(kv[1], `"`)
	}
	return r
}

var lookupFold = cases.Fold()

// normalizeLookupName folds name for use as a NAMING LOOKUP cache key, so
// mixed-case host lookups (e.g. "Foo.b32.i2p" vs "foo.b32.i2p") hit the cache.
func normalizeLookupName(name string) string {
	return lookupFold.String(name)
}

// shutdownCoordinator tracks every control socket a SAMBridge and its
// subsessions have opened, so process shutdown can issue QUIT to each one
// instead of relying on a package-global signal handler.
type shutdownCoordinator struct {
	mu    sync.Mutex
	conns map[net.Conn]struct{}
}

func newShutdownCoordinator() *shutdownCoordinator {
	return &shutdownCoordinator{conns: make(map[net.Conn]struct{})}
}

func (s *shutdownCoordinator) register(c net.Conn) {
	s.mu.Lock()
	s.conns[c] = struct{}{}
	s.mu.Unlock()
}

func (s *shutdownCoordinator) unregister(c net.Conn) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
}

// Shutdown issues QUIT to every registered control socket and closes it.
func (s *shutdownCoordinator) Shutdown() {
	s.mu.Lock()
	conns := make([]net.Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.conns = make(map[net.Conn]struct{})
	s.mu.Unlock()

	for _, c := range conns {
		if _, err := c.Write([]byte("QUIT\n")); err != nil {
			Debug("Failed to send QUIT during shutdown: %v", err)
		}
		c.Close()
	}
}

// bufferedConn wraps a net.Conn whose first bytes were consumed through a
// bufio.Reader (to read session-bridge text-protocol header lines) so that
// any bytes the reader buffered past those lines are not lost once the
// connection becomes a raw bidirectional stream.
type bufferedConn struct {
	net.Conn
	r *bufio.Reader
}

func (bc *bufferedConn) Read(p []byte) (int, error) {
	return bc.r.Read(p)
}

func sendLine(conn net.Conn, line string) error {
	_, err := conn.Write([]byte(line + "\n"))
	return err
}

func readTextLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// SAMBridge is a client for the I2P session-bridge text protocol (component
// H): a line-delimited ASCII command/response control socket, layered with
// STREAM and DATAGRAM/RAW subsessions under one PRIMARY session.
type SAMBridge struct {
	address string

	mu sync.Mutex
	r  *bufio.Reader
	c  net.Conn

	version string

	shutdown *shutdownCoordinator

	lookupMu    sync.Mutex
	lookupCache map[string]string

	tracer  trace.Tracer
	metrics MetricsCollector // nil = metrics disabled
}

// SetMetrics enables session-bridge command latency tracking via metrics.
// Pass nil to disable.
func (b *SAMBridge) SetMetrics(metrics MetricsCollector) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.metrics = metrics
}

// DialSAMBridge connects to a session-bridge at address and completes the
// HELLO handshake.
func DialSAMBridge(address string) (*SAMBridge, error) {
	return DialSAMBridgeWithContext(context.Background(), address)
}

// DialSAMBridgeWithContext is DialSAMBridge with a context governing the
// handshake round-trip.
func DialSAMBridgeWithContext(ctx context.Context, address string) (*SAMBridge, error) {
	conn, err := net.Dial("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("i2cp: failed to dial session bridge at %s: %w", address, err)
	}

	b := &SAMBridge{
		address:     address,
		r:           bufio.NewReader(conn),
		c:           conn,
		shutdown:    newShutdownCoordinator(),
		lookupCache: make(map[string]string),
		tracer:      otel.Tracer("github.com/go-i2p/i2p-client/sambridge"),
	}
	b.shutdown.register(conn)

	if err := b.hello(ctx); err != nil {
		b.shutdown.unregister(conn)
		conn.Close()
		return nil, err
	}
	return b, nil
}

func (b *SAMBridge) hello(ctx context.Context) error {
	_, span := b.tracer.Start(ctx, "sambridge.hello")
	defer span.End()

	line := fmt.Sprintf("HELLO VERSION MIN=%s MAX=%s", samProtocolMin, samProtocolMax)
	if err := sendLine(b.c, line); err != nil {
		span.RecordError(err)
		return fmt.Errorf("i2cp: failed to send HELLO: %w", err)
	}
	reply, err := b.readReply()
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("i2cp: failed to read HELLO reply: %w", err)
	}
	if reply.Type != "HELLO REPLY" || reply.Args["RESULT"] != "OK" {
		err := oops.Errorf("session bridge handshake failed: %s %v", reply.Type, reply.Args)
		span.RecordError(err)
		return err
	}
	b.version = reply.Args["VERSION"]
	span.SetAttributes(attribute.String("sambridge.version", b.version))
	Debug("Session bridge handshake complete, version=%s", b.version)
	return nil
}

// readReply reads the next protocol line, transparently answering any PING
// the router interleaves onto the control socket with PONG.
func (b *SAMBridge) readReply() (*Reply, error) {
	for {
		line, err := readTextLine(b.r)
		if err != nil {
			return nil, err
		}
		if strings.HasPrefix(line, "PING") {
			remainder := strings.TrimPrefix(strings.TrimPrefix(line, "PING"), " ")
			if err := sendLine(b.c, "PONG "+remainder); err != nil {
				return nil, fmt.Errorf("i2cp: failed to reply to PING: %w", err)
			}
			continue
		}
		return parseReply(line), nil
	}
}

// sendCommand serializes one command/response round-trip on the control
// socket, tracing it as spanName.
func (b *SAMBridge) sendCommand(ctx context.Context, spanName, line string) (*Reply, error) {
	_, span := b.tracer.Start(ctx, spanName)
	defer span.End()

	b.mu.Lock()
	defer b.mu.Unlock()

	start := time.Now()
	if err := sendLine(b.c, line); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("i2cp: failed to send %s: %w", spanName, err)
	}
	reply, err := b.readReply()
	if b.metrics != nil {
		b.metrics.RecordBridgeCommandLatency(spanName, time.Since(start))
	}
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("i2cp: failed to read reply to %s: %w", spanName, err)
	}
	span.SetAttributes(
		attribute.String("sambridge.reply_type", reply.Type),
		attribute.String("sambridge.result", reply.Args["RESULT"]),
	)
	return reply, nil
}

// CreateSession establishes the umbrella PRIMARY session that every stream
// and datagram/raw subsession is added to, using destinationBlob (a private
// key blob, or "TRANSIENT") as the DESTINATION.
func (b *SAMBridge) CreateSession(id, destinationBlob string) error {
	return b.CreateSessionWithContext(context.Background(), id, destinationBlob)
}

func (b *SAMBridge) CreateSessionWithContext(ctx context.Context, id, destinationBlob string) error {
	line := fmt.Sprintf("SESSION CREATE STYLE=%s ID=%s DESTINATION=%s i2cp.leaseSetEncType=%s",
		SAMStylePrimary, id, destinationBlob, defaultSAMLeaseSetEncType)
	reply, err := b.sendCommand(ctx, "sambridge.session.create", line)
	if err != nil {
		return err
	}
	if reply.Type != "SESSION STATUS" || reply.Args["RESULT"] != "OK" {
		return oops.Errorf("SESSION CREATE failed: %s %s", reply.Args["RESULT"], reply.Args["MESSAGE"])
	}
	return nil
}

// SubsessionOptions configures a SESSION ADD subsession.
type SubsessionOptions struct {
	FromPort   uint16
	ToPort     uint16
	ListenPort uint16
	UDPPort    uint16 // local UDP port, datagram/raw subsessions only
}

// AddSubsession adds a STREAM/DATAGRAM/RAW subsession named id to the
// primary session.
func (b *SAMBridge) AddSubsession(style, id string, opts SubsessionOptions) error {
	return b.AddSubsessionWithContext(context.Background(), style, id, opts)
}

func (b *SAMBridge) AddSubsessionWithContext(ctx context.Context, style, id string, opts SubsessionOptions) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "SESSION ADD STYLE=%s ID=%s", style, id)
	if opts.FromPort != 0 {
		fmt.Fprintf(&sb, " FROM_PORT=%d", opts.FromPort)
	}
	if opts.ToPort != 0 {
		fmt.Fprintf(&sb, " TO_PORT=%d", opts.ToPort)
	}
	if opts.ListenPort != 0 {
		fmt.Fprintf(&sb, " LISTEN_PORT=%d", opts.ListenPort)
	}
	if opts.UDPPort != 0 {
		fmt.Fprintf(&sb, " PORT=%d", opts.UDPPort)
	}

	reply, err := b.sendCommand(ctx, "sambridge.session.add", sb.String())
	if err != nil {
		return err
	}
	if reply.Type != "SESSION STATUS" || reply.Args["RESULT"] != "OK" {
		return oops.Errorf("SESSION ADD failed for %s: %s %s", id, reply.Args["RESULT"], reply.Args["MESSAGE"])
	}
	return nil
}

// Lookup resolves name to a Base64 destination, consulting and populating an
// in-memory cache. Inputs already longer than 387 characters are treated as
// a literal destination and returned as-is (padded).
func (b *SAMBridge) Lookup(name string) (string, error) {
	return b.LookupWithContext(context.Background(), name)
}

func (b *SAMBridge) LookupWithContext(ctx context.Context, name string) (string, error) {
	if len(name) > 387 {
		return padBase64(name), nil
	}

	key := normalizeLookupName(name)
	b.lookupMu.Lock()
	if v, ok := b.lookupCache[key]; ok {
		b.lookupMu.Unlock()
		return v, nil
	}
	b.lookupMu.Unlock()

	reply, err := b.sendCommand(ctx, "sambridge.naming.lookup", "NAMING LOOKUP NAME="+name)
	if err != nil {
		return "", err
	}
	if reply.Type != "NAMING REPLY" || reply.Args["RESULT"] != "OK" {
		return "", oops.Errorf("NAMING LOOKUP failed for %q: %s", name, reply.Args["RESULT"])
	}

	value := padBase64(reply.Args["VALUE"])
	b.lookupMu.Lock()
	b.lookupCache[key] = value
	b.lookupMu.Unlock()
	return value, nil
}

// Close issues QUIT to the control socket and every subsession socket
// registered with this bridge's shutdown coordinator, then disconnects.
func (b *SAMBridge) Close() error {
	b.shutdown.Shutdown()
	return nil
}
