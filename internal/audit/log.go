package audit

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// GenesisHash is the prev_hash of the first decision in a log.
const GenesisHash = "sha256:0000000000000000000000000000000000000000000000000000000000000000"

// TimestampFormat is the layout used in entry timestamps.
const TimestampFormat = "2006-01-02T15:04:05.000Z"

// maxLineSize bounds one entry; a denied shell command is the longest resource.
const maxLineSize = 1 << 20

// Recorder accepts gateway decisions. *Log implements it.
type Recorder interface {
	Record(Entry) error
}

// Log is the gateway's decision log. Every decision is one JSON line whose
// prev_hash is the SHA-256 of the line before it, so an edited or removed
// decision breaks the chain at the next entry.
type Log struct {
	mu   sync.Mutex
	file *os.File
	tail string
}

// Open opens or creates the decision log at path and continues the chain
// from its last line.
func Open(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("audit: create directory: %w", err)
	}
	tail, err := chainTail(path)
	if err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("audit: open file: %w", err)
	}
	return &Log{file: file, tail: tail}, nil
}

func chainTail(path string) (string, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return GenesisHash, nil
	}
	if err != nil {
		return "", fmt.Errorf("audit: read existing log: %w", err)
	}
	defer f.Close()

	var last []byte
	err = eachLine(f, func(_ int, line []byte) error {
		last = line
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("audit: scan existing log: %w", err)
	}
	if last == nil {
		return GenesisHash, nil
	}
	return HashLine(last), nil
}

// Record appends one decision. Lockouts without a kind are filed under
// KindAccess; EventID and Timestamp are filled when empty.
func (l *Log) Record(entry Entry) error {
	if !KnownDecision(entry.Decision) {
		return fmt.Errorf("audit: unknown decision %q", entry.Decision)
	}
	if entry.Kind == "" && entry.Decision == DecisionLockout {
		entry.Kind = KindAccess
	}
	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format(TimestampFormat)
	}
	if entry.EventID == "" {
		entry.EventID = uuid.NewString()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	entry.PrevHash = l.tail
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("audit: marshal entry: %w", err)
	}
	if _, err := l.file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("audit: write entry: %w", err)
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("audit: sync: %w", err)
	}
	l.tail = HashLine(line)
	return nil
}

// Close closes the underlying file.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

// HashLine returns "sha256:<hex>" of the given bytes.
func HashLine(line []byte) string {
	h := sha256.Sum256(line)
	return "sha256:" + hex.EncodeToString(h[:])
}

// eachLine calls fn with every line of r, numbered from 1. fn owns the
// slice it receives. A non-nil error from fn stops the walk and is returned.
func eachLine(r io.Reader, fn func(n int, line []byte) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	n := 0
	for sc.Scan() {
		n++
		line := make([]byte, len(sc.Bytes()))
		copy(line, sc.Bytes())
		if err := fn(n, line); err != nil {
			return err
		}
	}
	return sc.Err()
}
