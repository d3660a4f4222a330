package journal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/marketsim/exchange-sim/internal/model"
)

func writeFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0644)
}

func TestAppendAndReplayPreservesOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stream.jrnl")
	j, err := Open(Config{Path: path})
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	entries := []Entry{
		{Timestamp: 1, SeqNum: 1, Direction: model.DirectionInbound, Metadata: []byte("fix"), Raw: []byte("logon")},
		{Timestamp: 2, SeqNum: 1, Direction: model.DirectionOutbound, Metadata: []byte("fix"), Raw: []byte("logon-ack")},
		{Timestamp: 3, SeqNum: 2, Direction: model.DirectionInbound, Metadata: nil, Raw: []byte("neworder")},
	}
	for _, e := range entries {
		if err := j.Append(e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if err := j.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	var replayed []Entry
	if err := Replay(path, func(e Entry) error {
		replayed = append(replayed, e)
		return nil
	}); err != nil {
		t.Fatalf("replay: %v", err)
	}
	if len(replayed) != len(entries) {
		t.Fatalf("replayed %d entries, want %d", len(replayed), len(entries))
	}
	for i, e := range replayed {
		if string(e.Raw) != string(entries[i].Raw) {
			t.Errorf("entry %d raw = %q, want %q", i, e.Raw, entries[i].Raw)
		}
		if e.SeqNum != entries[i].SeqNum {
			t.Errorf("entry %d seqnum = %d, want %d", i, e.SeqNum, entries[i].SeqNum)
		}
	}
}

func TestReplayFromSkipsEarlierSequences(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stream.jrnl")
	j, _ := Open(Config{Path: path})
	for i := uint32(1); i <= 5; i++ {
		j.Append(Entry{Timestamp: int64(i), SeqNum: i, Direction: model.DirectionOutbound, Raw: []byte{byte(i)}})
	}
	j.Close()

	var got []uint32
	if err := ReplayFrom(path, 3, func(e Entry) error {
		got = append(got, e.SeqNum)
		return nil
	}); err != nil {
		t.Fatalf("replayfrom: %v", err)
	}
	if len(got) != 3 || got[0] != 3 || got[2] != 5 {
		t.Fatalf("got = %v, want [3 4 5]", got)
	}
}

func TestReplayOnMissingFileIsNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.jrnl")
	called := false
	if err := Replay(path, func(Entry) error {
		called = true
		return nil
	}); err != nil {
		t.Fatalf("replay on missing file: %v", err)
	}
	if called {
		t.Fatal("handler should not be called for a missing journal")
	}
}

func TestLatestReturnsTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stream.jrnl")
	j, _ := Open(Config{Path: path})
	for i := uint32(1); i <= 10; i++ {
		j.Append(Entry{SeqNum: i, Direction: model.DirectionOutbound, Raw: []byte{byte(i)}})
	}
	j.Close()

	latest, err := Latest(path, 3, nil)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if len(latest) != 3 || latest[0].SeqNum != 8 || latest[2].SeqNum != 10 {
		t.Fatalf("latest = %+v", latest)
	}
}

func TestLatestFiltersByDirection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stream.jrnl")
	j, _ := Open(Config{Path: path})
	for i := uint32(1); i <= 6; i++ {
		dir := model.DirectionInbound
		if i%2 == 0 {
			dir = model.DirectionOutbound
		}
		j.Append(Entry{SeqNum: i, Direction: dir, Raw: []byte{byte(i)}})
	}
	j.Close()

	out := model.DirectionOutbound
	latest, err := Latest(path, 0, &out)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if len(latest) != 3 {
		t.Fatalf("got %d outbound entries, want 3", len(latest))
	}
	for _, e := range latest {
		if e.Direction != model.DirectionOutbound {
			t.Fatalf("entry %+v is not outbound", e)
		}
	}
}

func TestReplayByTimeFiltersByRangeAndDirection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stream.jrnl")
	j, _ := Open(Config{Path: path})
	entries := []Entry{
		{Timestamp: 10, SeqNum: 1, Direction: model.DirectionInbound, Raw: []byte("a")},
		{Timestamp: 20, SeqNum: 2, Direction: model.DirectionOutbound, Raw: []byte("b")},
		{Timestamp: 30, SeqNum: 3, Direction: model.DirectionInbound, Raw: []byte("c")},
		{Timestamp: 40, SeqNum: 4, Direction: model.DirectionOutbound, Raw: []byte("d")},
	}
	for _, e := range entries {
		j.Append(e)
	}
	j.Close()

	var got []uint32
	if err := ReplayByTime(path, nil, 15, 35, func(e Entry) error {
		got = append(got, e.SeqNum)
		return nil
	}); err != nil {
		t.Fatalf("replaybytime: %v", err)
	}
	if len(got) != 2 || got[0] != 2 || got[1] != 3 {
		t.Fatalf("got = %v, want [2 3]", got)
	}

	in := model.DirectionInbound
	got = nil
	if err := ReplayByTime(path, &in, 0, 0, func(e Entry) error {
		got = append(got, e.SeqNum)
		return nil
	}); err != nil {
		t.Fatalf("replaybytime inbound: %v", err)
	}
	if len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Fatalf("got = %v, want [1 3]", got)
	}
}

func TestStreamNamesListsJournalFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"fix-127.0.0.1_1234.journal", "ouch42-127.0.0.1_5678.journal"} {
		j, err := Open(Config{Path: filepath.Join(dir, name)})
		if err != nil {
			t.Fatalf("open %s: %v", name, err)
		}
		j.Append(Entry{SeqNum: 1, Direction: model.DirectionInbound, Raw: []byte("x")})
		j.Close()
	}
	// A non-journal file in the same directory must not show up as a stream.
	if err := writeFile(filepath.Join(dir, "notes.txt"), []byte("hi")); err != nil {
		t.Fatalf("writing sentinel file: %v", err)
	}

	names, err := StreamNames(dir)
	if err != nil {
		t.Fatalf("streamnames: %v", err)
	}
	if len(names) != 2 {
		t.Fatalf("got %v, want 2 stream names", names)
	}
	seen := map[string]bool{}
	for _, n := range names {
		seen[n] = true
	}
	if !seen["fix-127.0.0.1_1234"] || !seen["ouch42-127.0.0.1_5678"] {
		t.Fatalf("unexpected stream names %v", names)
	}
}

func TestStreamNamesOnMissingDirIsNoop(t *testing.T) {
	names, err := StreamNames(filepath.Join(t.TempDir(), "does-not-exist"))
	if err != nil {
		t.Fatalf("streamnames on missing dir: %v", err)
	}
	if len(names) != 0 {
		t.Fatalf("got %v, want none", names)
	}
}
