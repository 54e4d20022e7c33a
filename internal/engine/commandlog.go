package engine

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/atomicswap/atomengine/pkg/logging"
)

// LogFileName is the command log file name in the data directory.
const LogFileName = "info.dat"

// maxLineSize bounds a single logged command line during replay.
const maxLineSize = 1024 * 1024

// CommandLog is the append-only durability log: one compact JSON line per
// accepted mutation command, in acceptance order. It is the sole persistence
// mechanism; the store is rebuilt from it at startup.
type CommandLog struct {
	path string
	log  *logging.Logger
}

// NewCommandLog creates a command log bound to <dataDir>/info.dat. The file
// is created lazily on the first append.
func NewCommandLog(dataDir string) *CommandLog {
	return &CommandLog{
		path: filepath.Join(dataDir, LogFileName),
		log:  logging.GetDefault().Component("wal"),
	}
}

// Path returns the log file path.
func (l *CommandLog) Path() string {
	return l.path
}

// Append writes the compact encoding of one accepted command followed by LF.
// The file is opened and closed per call. A failure is logged and swallowed:
// the in-memory mutation has already happened and the client still gets its
// reply (best-effort durability, matching the original engine).
func (l *CommandLog) Append(command []byte) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, command); err != nil {
		l.log.Warn("failed to save command", "error", err, "command", string(command))
		return
	}
	buf.WriteByte('\n')

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		l.log.Warn("failed to save command", "error", err, "command", buf.String())
		return
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		l.log.Warn("failed to save command", "error", err, "command", buf.String())
	}
	if err := f.Close(); err != nil {
		l.log.Warn("failed to close command log", "error", err)
	}
}

// Replay streams every non-empty line of the log to fn in file order. It
// returns an error when the file cannot be opened; a missing file means a
// fresh start and is the caller's decision to tolerate.
func (l *CommandLog) Replay(fn func(line []byte)) error {
	f, err := os.Open(l.path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		fn(line)
	}
	return scanner.Err()
}
