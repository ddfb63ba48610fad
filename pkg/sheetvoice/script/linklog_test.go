package script

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sheetvoice/sheetvoice/pkg/sheetvoice/store"
)

func TestLinkLog_AppendAndRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "links.log")
	log := NewLinkLog(path)

	recs := []store.Record{
		{ClientName: "Acme", ScriptID: "id-one", FileName: "a.xlsx", RedirectURL: "http://x/ask/id-one"},
		{ClientName: "Globex", ScriptID: "id-two", FileName: "b.xlsx", RedirectURL: "http://x/ask/id-two"},
	}
	for _, rec := range recs {
		if err := log.Append(rec); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("log has %d lines, want 2", len(lines))
	}
	if !strings.Contains(lines[0], "client=Acme") || !strings.Contains(lines[0], "script=id-one") {
		t.Errorf("first line = %q", lines[0])
	}

	if err := log.Remove("id-one"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if log.Contains("id-one") {
		t.Error("log still contains removed script")
	}
	if !log.Contains("id-two") {
		t.Error("Remove() dropped an unrelated line")
	}
}

func TestLinkLog_RemoveMissingFile(t *testing.T) {
	log := NewLinkLog(filepath.Join(t.TempDir(), "absent.log"))
	if err := log.Remove("anything"); err != nil {
		t.Errorf("Remove() on missing log error = %v, want nil", err)
	}
}
