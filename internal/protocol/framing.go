package protocol

import "bytes"

// ExtractLines splits a receive buffer at every LF. complete holds the
// finished frames in arrival order (empty frames included; callers skip
// them); rest is the trailing remainder that has not seen its terminator
// yet. Both return values alias buf, so callers must consume complete before
// reusing the buffer.
func ExtractLines(buf []byte) (complete [][]byte, rest []byte) {
	pos := bytes.LastIndexByte(buf, '\n')
	if pos < 0 {
		return nil, buf
	}
	return bytes.Split(buf[:pos], []byte{'\n'}), buf[pos+1:]
}
