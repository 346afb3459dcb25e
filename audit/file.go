package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DefaultFilePrefix is the file name prefix of daily audit logs.
const DefaultFilePrefix = "tool-summary"

// DefaultDir returns the default audit directory, $TMPDIR/agentctx.
func DefaultDir() string {
	return filepath.Join(os.TempDir(), "agentctx")
}

// FileRecorder appends events as JSON lines to a file named by local date:
// <dir>/<prefix>-YYYY-MM-DD.log. Directory and file creation are best-effort;
// any failure drops the event silently.
type FileRecorder struct {
	mu     sync.Mutex
	dir    func() string
	prefix string
	now    func() time.Time
}

// FileOption configures a FileRecorder.
type FileOption func(*FileRecorder)

// WithFilePrefix overrides DefaultFilePrefix.
func WithFilePrefix(prefix string) FileOption {
	return func(r *FileRecorder) {
		if prefix != "" {
			r.prefix = prefix
		}
	}
}

// WithDirResolver resolves the directory on every write instead of using a
// fixed path.
func WithDirResolver(resolve func() string) FileOption {
	return func(r *FileRecorder) {
		if resolve != nil {
			r.dir = resolve
		}
	}
}

// WithFileClock overrides the clock used to pick the file name.
func WithFileClock(now func() time.Time) FileOption {
	return func(r *FileRecorder) {
		if now != nil {
			r.now = now
		}
	}
}

// NewFileRecorder creates a FileRecorder writing under dir. An empty dir
// means DefaultDir().
func NewFileRecorder(dir string, opts ...FileOption) *FileRecorder {
	if dir == "" {
		dir = DefaultDir()
	}
	r := &FileRecorder{
		dir:    func() string { return dir },
		prefix: DefaultFilePrefix,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Path returns the file an event written at t goes to.
func (r *FileRecorder) Path(t time.Time) string {
	return filepath.Join(r.dir(), fmt.Sprintf("%s-%s.log", r.prefix, t.Local().Format("2006-01-02")))
}

// Record appends event to today's file.
func (r *FileRecorder) Record(_ context.Context, event Event) {
	_ = r.write(event)
}

func (r *FileRecorder) write(event Event) error {
	line, err := json.Marshal(event)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	path := r.Path(r.now())
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(append(line, '\n'))
	return err
}

// ReadFile decodes every event in a JSON-lines audit file. Lines that do not
// decode are skipped.
func ReadFile(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var event Event
		if err := json.Unmarshal(line, &event); err != nil {
			continue
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return events, fmt.Errorf("failed to read audit file: %w", err)
	}
	return events, nil
}
