package store

import (
	"os"
	"path/filepath"
	"testing"
)

// openBackends builds one store of each backend rooted in a temp dir so the
// contract tests run against both implementations.
func openBackends(t *testing.T) map[string]RecordStore {
	t.Helper()
	dir := t.TempDir()

	jsonStore, err := Open(Options{Backend: BackendJSON, Path: filepath.Join(dir, "scripts.json")}, nil)
	if err != nil {
		t.Fatalf("open json store: %v", err)
	}
	sqliteStore, err := Open(Options{Backend: BackendSQLite, Path: filepath.Join(dir, "scripts.db")}, nil)
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	t.Cleanup(func() {
		jsonStore.Close()
		sqliteStore.Close()
	})
	return map[string]RecordStore{BackendJSON: jsonStore, BackendSQLite: sqliteStore}
}

func TestRecordStore_UpsertAndFind(t *testing.T) {
	for name, rs := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			rec := Record{
				FileName:    "acme.xlsx",
				ScriptID:    "abc123",
				RedirectURL: "http://localhost:8080/ask/abc123",
				ClientName:  "Acme",
			}
			if err := rs.Upsert(rec); err != nil {
				t.Fatalf("Upsert() error = %v", err)
			}

			got, err := rs.FindByScriptID("abc123")
			if err != nil {
				t.Fatalf("FindByScriptID() error = %v", err)
			}
			if got == nil || *got != rec {
				t.Errorf("FindByScriptID() = %v, want %v", got, rec)
			}

			got, err = rs.FindByClientName("Acme")
			if err != nil {
				t.Fatalf("FindByClientName() error = %v", err)
			}
			if got == nil || got.FileName != "acme.xlsx" {
				t.Errorf("FindByClientName() = %v", got)
			}

			if got, _ := rs.FindByScriptID("missing"); got != nil {
				t.Errorf("FindByScriptID(missing) = %v, want nil", got)
			}
		})
	}
}

func TestRecordStore_UpsertReplacesByFileName(t *testing.T) {
	for name, rs := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			if err := rs.Upsert(Record{FileName: "f.xlsx", ScriptID: "one", ClientName: "A", RedirectURL: "u1"}); err != nil {
				t.Fatalf("Upsert() error = %v", err)
			}
			if err := rs.Upsert(Record{FileName: "f.xlsx", ScriptID: "two", ClientName: "B", RedirectURL: "u2"}); err != nil {
				t.Fatalf("Upsert() error = %v", err)
			}

			all, err := rs.All()
			if err != nil {
				t.Fatalf("All() error = %v", err)
			}
			if len(all) != 1 {
				t.Fatalf("All() returned %d records, want 1", len(all))
			}
			if all[0].ScriptID != "two" {
				t.Errorf("replacement kept ScriptID %q, want two", all[0].ScriptID)
			}
			if got, _ := rs.FindByScriptID("one"); got != nil {
				t.Errorf("old script id still resolves: %v", got)
			}
		})
	}
}

func TestRecordStore_Remove(t *testing.T) {
	for name, rs := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			if err := rs.Upsert(Record{FileName: "gone.xlsx", ScriptID: "id", ClientName: "C"}); err != nil {
				t.Fatalf("Upsert() error = %v", err)
			}
			if err := rs.Remove("gone.xlsx"); err != nil {
				t.Fatalf("Remove() error = %v", err)
			}
			if got, _ := rs.FindByScriptID("id"); got != nil {
				t.Errorf("record survived Remove(): %v", got)
			}
			// Removing again is a no-op.
			if err := rs.Remove("gone.xlsx"); err != nil {
				t.Errorf("Remove() of absent record error = %v", err)
			}
		})
	}
}

func TestRecordStore_AllOrdered(t *testing.T) {
	for name, rs := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			for _, fn := range []string{"zeta.xlsx", "alpha.xlsx", "mid.xlsx"} {
				if err := rs.Upsert(Record{FileName: fn, ScriptID: "id-" + fn, ClientName: "c-" + fn}); err != nil {
					t.Fatalf("Upsert() error = %v", err)
				}
			}
			all, err := rs.All()
			if err != nil {
				t.Fatalf("All() error = %v", err)
			}
			want := []string{"alpha.xlsx", "mid.xlsx", "zeta.xlsx"}
			if len(all) != len(want) {
				t.Fatalf("All() returned %d records, want %d", len(all), len(want))
			}
			for i := range want {
				if all[i].FileName != want[i] {
					t.Errorf("All()[%d] = %q, want %q", i, all[i].FileName, want[i])
				}
			}
		})
	}
}

func TestJSONStore_LoadMissingFileStartsEmpty(t *testing.T) {
	rs := NewJSONStore(filepath.Join(t.TempDir(), "absent.json"), nil)
	if err := rs.Load(); err != nil {
		t.Fatalf("Load() on missing file error = %v, want nil", err)
	}
	all, _ := rs.All()
	if len(all) != 0 {
		t.Errorf("fresh store has %d records", len(all))
	}
}

func TestJSONStore_PersistsAcrossReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scripts.json")

	first := NewJSONStore(path, nil)
	if err := first.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	rec := Record{FileName: "persist.xlsx", ScriptID: "p1", RedirectURL: "u", ClientName: "P"}
	if err := first.Upsert(rec); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	second := NewJSONStore(path, nil)
	if err := second.Load(); err != nil {
		t.Fatalf("reload error = %v", err)
	}
	got, err := second.FindByScriptID("p1")
	if err != nil {
		t.Fatalf("FindByScriptID() error = %v", err)
	}
	if got == nil || *got != rec {
		t.Errorf("reloaded record = %v, want %v", got, rec)
	}
}

func TestJSONStore_LoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("setup: %v", err)
	}
	rs := NewJSONStore(path, nil)
	if err := rs.Load(); err == nil {
		t.Error("Load() of corrupt file should fail")
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	if _, err := Open(Options{Backend: "redis", Path: "x"}, nil); err == nil {
		t.Error("Open() with unknown backend should fail")
	}
	if _, err := Open(Options{Backend: BackendJSON}, nil); err == nil {
		t.Error("Open() without a path should fail")
	}
}
