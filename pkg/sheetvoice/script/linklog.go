package script

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sheetvoice/sheetvoice/pkg/sheetvoice/store"
)

// LinkLog is the append-only, human-readable audit trail of generated
// script links. Appends are best-effort; callers decide whether a failure
// matters.
type LinkLog struct {
	path string
	mu   sync.Mutex
}

// NewLinkLog creates a log writing to path.
func NewLinkLog(path string) *LinkLog {
	return &LinkLog{path: path}
}

// Append writes one line for a successful upload.
func (l *LinkLog) Append(rec store.Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("creating link log directory: %w", err)
		}
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("opening link log: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("client=%s script=%s file=%s url=%s\n",
		rec.ClientName, rec.ScriptID, rec.FileName, rec.RedirectURL)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("appending link log: %w", err)
	}
	return nil
}

// Remove strips every line mentioning scriptID and rewrites the log.
// A missing log file is not an error.
func (l *LinkLog) Remove(scriptID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading link log: %w", err)
	}

	var kept []string
	for _, line := range strings.Split(string(data), "\n") {
		if line == "" || strings.Contains(line, scriptID) {
			continue
		}
		kept = append(kept, line)
	}

	out := ""
	if len(kept) > 0 {
		out = strings.Join(kept, "\n") + "\n"
	}
	if err := os.WriteFile(l.path, []byte(out), 0o600); err != nil {
		return fmt.Errorf("rewriting link log: %w", err)
	}
	return nil
}

// Contains reports whether any line mentions scriptID.
func (l *LinkLog) Contains(scriptID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := os.ReadFile(l.path)
	if err != nil {
		return false
	}
	return strings.Contains(string(data), scriptID)
}
