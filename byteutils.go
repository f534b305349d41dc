package go_i2cp

// Flag bit helpers for the 16-bit stream packet flag word (component A).
// These sit alongside the Stream read/write primitive in stream.go so every
// codec (destination, datagram, stream-packet, leaseset2) shares one
// big-endian packing convention instead of re-deriving it.

// flagSet returns flags with bit set.
func flagSet(flags uint16, bit uint16) uint16 {
	return flags | bit
}

// flagClear returns flags with bit cleared.
func flagClear(flags uint16, bit uint16) uint16 {
	return flags &^ bit
}

// flagIsSet reports whether bit is set in flags.
func flagIsSet(flags uint16, bit uint16) bool {
	return flags&bit != 0
}

// putUint32BE writes the big-endian encoding of v into dst[0:4].
func putUint32BE(dst []byte, v uint32) {
	dst[0] = byte(v >> 24)
	dst[1] = byte(v >> 16)
	dst[2] = byte(v >> 8)
	dst[3] = byte(v)
}

// putUint16BE writes the big-endian encoding of v into dst[0:2].
func putUint16BE(dst []byte, v uint16) {
	dst[0] = byte(v >> 8)
	dst[1] = byte(v)
}
