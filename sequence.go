package x11

// maxInFlight is how far the next sequence number may run ahead of the oldest
// pending request before a round trip is forced. Beyond half the 16-bit space
// the order of two sequence numbers can no longer be told apart.
const maxInFlight = 1<<15 - 1

// seqBefore reports whether sequence a was issued before b, accounting for
// wraparound of the 16-bit counter.
func seqBefore(a, b uint16) bool {
	return int16(a-b) < 0
}

// seqDistance is the number of requests issued from a up to b.
func seqDistance(a, b uint16) int {
	return int(uint16(b - a))
}
