package monitor

import "runtime"

// CurrentThreadID returns the ID of the calling goroutine.
//
// The runtime does not expose goroutine IDs, so this parses the first line
// of the goroutine's own stack trace, which has the stable format
// "goroutine 123 [running]:". The cost (~1-2us) is paid once per engine
// call on the acquisition path, not per memory access, so the portable
// path is fast enough here and avoids unsafe runtime offsets.
func CurrentThreadID() ThreadID {
	// Only the first line is needed. 64 bytes always covers
	// "goroutine <id> [running]:".
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	return parseGID(buf[:n])
}

// parseGID extracts the goroutine ID from stack trace bytes.
//
// Expected format: "goroutine 123 [running]:...". Returns 0 if the buffer
// does not match, which callers treat as an anonymous goroutine. Direct
// byte parsing, no regex, no allocations.
func parseGID(buf []byte) ThreadID {
	const prefix = "goroutine "

	if len(buf) < len(prefix) || string(buf[:len(prefix)]) != prefix {
		return 0
	}

	var gid int64
	for i := len(prefix); i < len(buf); i++ {
		c := buf[i]
		if c < '0' || c > '9' {
			// Non-digit terminates the ID (space before "[running]").
			break
		}
		gid = gid*10 + int64(c-'0')
	}

	return ThreadID(gid)
}
