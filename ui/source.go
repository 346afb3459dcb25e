package ui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/youssefsiam38/agentctx/audit"
	"github.com/youssefsiam38/agentctx/compaction"
	"github.com/youssefsiam38/agentctx/storage"
)

// EventSource lists and fetches audit events. storage.Store satisfies it.
type EventSource interface {
	GetAuditEvent(ctx context.Context, id string) (*audit.Event, error)
	ListAuditEvents(ctx context.Context, filter storage.AuditFilter) ([]*audit.Event, error)
}

// StateSource exposes live compaction progress. *compaction.Compactor
// satisfies it.
type StateSource interface {
	Config() compaction.Config
	State() compaction.State
}

// FileSource reads events from the daily JSON-lines files written by
// audit.FileRecorder. Files are re-read on every call.
//
// File events carry no stored ID; FileSource assigns "<file>.<n>", where n is
// the event's position among the decodable lines of that file.
type FileSource struct {
	dir    string
	prefix string
}

var _ EventSource = (*FileSource)(nil)

// NewFileSource creates a FileSource over dir. An empty prefix means
// audit.DefaultFilePrefix.
func NewFileSource(dir, prefix string) *FileSource {
	if prefix == "" {
		prefix = audit.DefaultFilePrefix
	}
	return &FileSource{dir: dir, prefix: prefix}
}

func (s *FileSource) files() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, s.prefix+"-*.log"))
	if err != nil {
		return nil, fmt.Errorf("failed to list audit files: %w", err)
	}
	sort.Strings(matches)
	return matches, nil
}

func (s *FileSource) readFile(path string) ([]*audit.Event, error) {
	events, err := audit.ReadFile(path)
	if err != nil && len(events) == 0 {
		return nil, err
	}
	base := strings.TrimSuffix(filepath.Base(path), ".log")
	out := make([]*audit.Event, len(events))
	for i := range events {
		events[i].ID = fmt.Sprintf("%s.%d", base, i)
		out[i] = &events[i]
	}
	return out, nil
}

// GetAuditEvent returns the event with the given file-assigned ID.
func (s *FileSource) GetAuditEvent(_ context.Context, id string) (*audit.Event, error) {
	dot := strings.LastIndexByte(id, '.')
	if dot <= 0 || strings.ContainsAny(id[:dot], `/\`) {
		return nil, fmt.Errorf("%w: %s", storage.ErrEventNotFound, id)
	}

	events, err := s.readFile(filepath.Join(s.dir, id[:dot]+".log"))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", storage.ErrEventNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	for _, event := range events {
		if event.ID == id {
			return event, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", storage.ErrEventNotFound, id)
}

// ListAuditEvents returns matching events newest first.
func (s *FileSource) ListAuditEvents(_ context.Context, filter storage.AuditFilter) ([]*audit.Event, error) {
	files, err := s.files()
	if err != nil {
		return nil, err
	}

	var matched []*audit.Event
	for _, path := range files {
		events, err := s.readFile(path)
		if err != nil {
			return nil, err
		}
		for _, event := range events {
			if matchesFilter(event, filter) {
				matched = append(matched, event)
			}
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})

	limit := filter.Limit
	if limit <= 0 {
		limit = storage.DefaultListLimit
	}
	if filter.Offset >= len(matched) {
		return nil, nil
	}
	matched = matched[max(filter.Offset, 0):]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func matchesFilter(event *audit.Event, filter storage.AuditFilter) bool {
	if len(filter.Types) > 0 && !slices.Contains(filter.Types, event.Type) {
		return false
	}
	if filter.RunID != "" && event.Tags.RunID != filter.RunID {
		return false
	}
	if filter.SessionID != "" && event.Tags.SessionID != filter.SessionID {
		return false
	}
	if !filter.Since.IsZero() && event.Timestamp.Before(filter.Since) {
		return false
	}
	if !filter.Until.IsZero() && !event.Timestamp.Before(filter.Until) {
		return false
	}
	return true
}
