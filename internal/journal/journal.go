// Package journal implements the per-stream append-only message log
// described in SPEC_FULL.md §4.5/§6: every inbound and outbound message
// a session sees is durably recorded for resend material and operator
// inspection. Grounded on the teacher's events.EventLog (mutex-guarded
// sequence counter, bufio.Writer, optional per-write fsync, recover-on-
// open) but the on-disk record format is the spec's own fixed binary
// layout rather than gob, since a resend path must be able to read a
// specific byte range without decoding Go-specific framing.
package journal

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/marketsim/exchange-sim/internal/model"
)

// Entry is one journal record: a single inbound or outbound message
// plus the bookkeeping needed to replay or resend it.
type Entry struct {
	Timestamp int64 // unix nanos
	SeqNum    uint32
	Direction model.Direction
	Metadata  []byte
	Raw       []byte
}

// Journal is an append-only log for a single stream (one per session).
// Safe for concurrent Append calls; Replay opens an independent file
// handle so it never contends with a live writer.
type Journal struct {
	mu       sync.Mutex
	file     *os.File
	writer   *bufio.Writer
	path     string
	syncMode bool
}

// Config controls a Journal's durability/performance tradeoff.
type Config struct {
	Path     string
	SyncMode bool // fsync after every Append when true
}

// Open creates or appends to the journal file at cfg.Path.
func Open(cfg Config) (*Journal, error) {
	file, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", cfg.Path, err)
	}
	return &Journal{
		file:     file,
		writer:   bufio.NewWriter(file),
		path:     cfg.Path,
		syncMode: cfg.SyncMode,
	}, nil
}

// Append writes e to the log per §6's layout:
// [len:4][timestamp:8][seqNum:4][direction:1][metadataLen:2][metadata:var][rawLen:4][raw:var].
// len covers every field after itself.
func (j *Journal) Append(e Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	body := make([]byte, 0, 8+4+1+2+len(e.Metadata)+4+len(e.Raw))
	body = binary.BigEndian.AppendUint64(body, uint64(e.Timestamp))
	body = binary.BigEndian.AppendUint32(body, e.SeqNum)
	body = append(body, byte(e.Direction))
	body = binary.BigEndian.AppendUint16(body, uint16(len(e.Metadata)))
	body = append(body, e.Metadata...)
	body = binary.BigEndian.AppendUint32(body, uint32(len(e.Raw)))
	body = append(body, e.Raw...)

	var lenField [4]byte
	binary.BigEndian.PutUint32(lenField[:], uint32(len(body)))

	if _, err := j.writer.Write(lenField[:]); err != nil {
		return fmt.Errorf("journal: write length: %w", err)
	}
	if _, err := j.writer.Write(body); err != nil {
		return fmt.Errorf("journal: write body: %w", err)
	}
	if err := j.writer.Flush(); err != nil {
		return fmt.Errorf("journal: flush: %w", err)
	}
	if j.syncMode {
		if err := j.file.Sync(); err != nil {
			return fmt.Errorf("journal: fsync: %w", err)
		}
	}
	return nil
}

// Close flushes and closes the underlying file.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.writer.Flush(); err != nil {
		return err
	}
	return j.file.Close()
}

// Replay reads every entry in file order from the start, calling fn for
// each. It opens a second handle onto the same path so it never
// contends with a live writer's append position.
func Replay(path string, fn func(Entry) error) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("journal: open for replay: %w", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	for {
		e, err := readEntry(r)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(e); err != nil {
			return err
		}
	}
}

// ReplayFrom replays only entries whose SeqNum is >= fromSeq, the shape
// the session runtime's resend handling needs.
func ReplayFrom(path string, fromSeq uint32, fn func(Entry) error) error {
	return Replay(path, func(e Entry) error {
		if e.SeqNum < fromSeq {
			return nil
		}
		return fn(e)
	})
}

// ReplayRange replays entries whose SeqNum falls in [fromSeq, toSeq]
// inclusive; toSeq of 0 means "through the end of the log".
func ReplayRange(path string, fromSeq, toSeq uint32, fn func(Entry) error) error {
	return Replay(path, func(e Entry) error {
		if e.SeqNum < fromSeq {
			return nil
		}
		if toSeq != 0 && e.SeqNum > toSeq {
			return nil
		}
		return fn(e)
	})
}

func readEntry(r *bufio.Reader) (Entry, error) {
	var lenField [4]byte
	if _, err := io.ReadFull(r, lenField[:]); err != nil {
		return Entry{}, err
	}
	bodyLen := binary.BigEndian.Uint32(lenField[:])
	body := make([]byte, bodyLen)
	if _, err := io.ReadFull(r, body); err != nil {
		return Entry{}, fmt.Errorf("journal: truncated entry: %w", err)
	}

	var e Entry
	off := 0
	e.Timestamp = int64(binary.BigEndian.Uint64(body[off:]))
	off += 8
	e.SeqNum = binary.BigEndian.Uint32(body[off:])
	off += 4
	e.Direction = model.Direction(body[off])
	off++
	metaLen := int(binary.BigEndian.Uint16(body[off:]))
	off += 2
	e.Metadata = body[off : off+metaLen]
	off += metaLen
	rawLen := int(binary.BigEndian.Uint32(body[off:]))
	off += 4
	e.Raw = body[off : off+rawLen]
	return e, nil
}

// EntryCount returns the number of entries currently on disk at path,
// for operator inspection (cmd/journalctl).
func EntryCount(path string) (int, error) {
	n := 0
	err := Replay(path, func(Entry) error {
		n++
		return nil
	})
	return n, err
}

// Latest returns the last n entries in the log (n<=0 returns all of
// them), optionally restricted to one direction (nil means either), for
// cmd/journalctl's tail view. Matches spec §4.5's getLatest(stream,
// direction) operation.
func Latest(path string, n int, direction *model.Direction) ([]Entry, error) {
	var all []Entry
	err := Replay(path, func(e Entry) error {
		if direction != nil && e.Direction != *direction {
			return nil
		}
		all = append(all, e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if n <= 0 || n >= len(all) {
		return all, nil
	}
	return all[len(all)-n:], nil
}

// ReplayByTime replays entries whose Timestamp falls in [fromTs, toTs]
// inclusive (toTs of 0 means "through the end of the log"), optionally
// restricted to one direction (nil means either). Matches spec §4.5's
// replayByTime(stream, direction?, fromTs, toTs, callback) operation,
// the time-indexed counterpart to ReplayRange's sequence-indexed one.
func ReplayByTime(path string, direction *model.Direction, fromTs, toTs int64, fn func(Entry) error) error {
	return Replay(path, func(e Entry) error {
		if direction != nil && e.Direction != *direction {
			return nil
		}
		if e.Timestamp < fromTs {
			return nil
		}
		if toTs != 0 && e.Timestamp > toTs {
			return nil
		}
		return fn(e)
	})
}

// journalSuffix is the file extension cmd/gateway's sessionJournalPath
// gives every journal file it creates.
const journalSuffix = ".journal"

// StreamNames lists the stream identifiers (journal file base names,
// suffix stripped) present in dir, per spec §4.5's getStreamNames
// operation. A journal in this implementation is one file per stream,
// so enumerating streams means enumerating a directory's journal files.
func StreamNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("journal: reading stream directory %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if len(name) <= len(journalSuffix) || name[len(name)-len(journalSuffix):] != journalSuffix {
			continue
		}
		names = append(names, name[:len(name)-len(journalSuffix)])
	}
	return names, nil
}
