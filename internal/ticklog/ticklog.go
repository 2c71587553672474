// Package ticklog persists tick records as zstd-compressed JSON lines.
package ticklog

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/samber/oops"

	"github.com/tatianab/agentia/internal/sim"
)

// Ext is the file extension of tick logs.
const Ext = ".jsonl.zst"

// Path is where the log of a run is written.
func Path(dir, runID string) string {
	return filepath.Join(dir, runID+Ext)
}

// Writer appends one JSON line per tick. It implements sim.RecordSink.
type Writer struct {
	path string

	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

// Create opens a new tick log for runID under dir.
func Create(dir, runID string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, oops.Wrapf(err, "create log dir %s", dir)
	}
	path := Path(dir, runID)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return nil, oops.Wrapf(err, "create tick log")
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, oops.Wrapf(err, "create zstd encoder")
	}
	return &Writer{path: path, f: f, enc: enc, w: bufio.NewWriterSize(enc, 64*1024)}, nil
}

func (w *Writer) Path() string { return w.path }

// WriteTick appends rec and flushes it to the file, so a crashed run keeps
// every completed tick.
func (w *Writer) WriteTick(rec sim.TickRecord) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.w == nil {
		return oops.Errorf("tick log %s is closed", w.path)
	}

	b, err := json.Marshal(rec)
	if err != nil {
		return oops.Wrapf(err, "encode tick %d", rec.Tick)
	}
	if _, err := w.w.Write(b); err != nil {
		return oops.Wrapf(err, "write tick %d", rec.Tick)
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return oops.Wrapf(err, "write tick %d", rec.Tick)
	}
	if err := w.w.Flush(); err != nil {
		return oops.Wrapf(err, "flush tick %d", rec.Tick)
	}
	return w.enc.Flush()
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.w == nil {
		return nil
	}
	_ = w.w.Flush()
	err := w.enc.Close()
	if cerr := w.f.Close(); err == nil {
		err = cerr
	}
	w.w, w.enc, w.f = nil, nil, nil
	if err != nil {
		return oops.Wrapf(err, "close tick log %s", w.path)
	}
	return nil
}

// ReadAll loads every record of a tick log, in order.
func ReadAll(path string) ([]sim.TickRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, oops.Wrapf(err, "open tick log")
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, oops.Wrapf(err, "open zstd stream %s", path)
	}
	defer dec.Close()

	var records []sim.TickRecord
	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for line := 1; sc.Scan(); line++ {
		if len(sc.Bytes()) == 0 {
			continue
		}
		var rec sim.TickRecord
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			return nil, oops.Wrapf(err, "%s line %d", path, line)
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, oops.Wrapf(err, "read tick log %s", path)
	}
	return records, nil
}

// List returns the tick logs in dir, oldest first.
func List(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*"+Ext))
	if err != nil {
		return nil, oops.Wrapf(err, "list tick logs")
	}
	type entry struct {
		path string
		mod  int64
	}
	entries := make([]entry, 0, len(matches))
	for _, m := range matches {
		st, err := os.Stat(m)
		if err != nil {
			continue
		}
		entries = append(entries, entry{m, st.ModTime().UnixNano()})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].mod < entries[j].mod })
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.path
	}
	return out, nil
}
