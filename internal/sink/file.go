package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/timmy/kbsync/internal/domain"
	"github.com/timmy/kbsync/internal/extract"
)

// FileSink writes the report as indented JSON.
type FileSink struct {
	path string
}

// NewFileSink creates a sink writing to path, replacing any existing file.
func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

func (s *FileSink) Name() string {
	return "file"
}

func (s *FileSink) Deliver(ctx context.Context, report *domain.BatchReport) error {
	return writeJSON(s.path, report)
}

// AgentIDsWriter writes the agent and alias IDs found during discovery so
// downstream tooling can address the agents that were just synced.
type AgentIDsWriter struct {
	path string
	refs []extract.AgentRef
}

// NewAgentIDsWriter creates a writer for refs.
func NewAgentIDsWriter(path string, refs []extract.AgentRef) *AgentIDsWriter {
	return &AgentIDsWriter{path: path, refs: refs}
}

func (w *AgentIDsWriter) Name() string {
	return "agent_ids"
}

// Deliver writes the refs; the report itself is not used.
func (w *AgentIDsWriter) Deliver(ctx context.Context, _ *domain.BatchReport) error {
	refs := w.refs
	if refs == nil {
		refs = []extract.AgentRef{}
	}
	return writeJSON(w.path, refs)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
