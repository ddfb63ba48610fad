// Package script orchestrates the lifecycle of uploaded question sheets:
// upload, read, update, delete, and fuzzy question answering. All mutable
// state (record store handle, per-script index table) lives on the Service
// and is guarded by one lock; there are no package globals.
package script

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sheetvoice/sheetvoice/pkg/sheetvoice/match"
	"github.com/sheetvoice/sheetvoice/pkg/sheetvoice/sheet"
	"github.com/sheetvoice/sheetvoice/pkg/sheetvoice/store"
)

// Config holds service settings.
type Config struct {
	// UploadsDir is where spreadsheet files are kept under their original
	// uploaded names.
	UploadsDir string

	// BaseURL is the public prefix redirect URLs are derived from.
	BaseURL string

	// Threshold is the fuzzy-match distance cutoff (see match package).
	Threshold float64

	// FallbackAnswer is returned when no stored question clears the
	// threshold.
	FallbackAnswer string

	// NoDataAnswer is returned when no index exists for a script ID.
	NoDataAnswer string

	// LinkLogPath is the audit log of generated links.
	LinkLogPath string
}

// DefaultFallbackAnswer and DefaultNoDataAnswer fill in blank config.
const (
	DefaultFallbackAnswer = "Sorry, I don't have an answer for that question."
	DefaultNoDataAnswer   = "No question data is available for this script."
)

// UploadResult is returned from a successful upload.
type UploadResult struct {
	ScriptID    string `json:"scriptId"`
	FileName    string `json:"fileName"`
	ClientName  string `json:"clientName"`
	RedirectURL string `json:"redirectUrl"`
}

// Link is one entry of the script link listing.
type Link struct {
	Client   string `json:"client"`
	ScriptID string `json:"scriptId"`
	FileName string `json:"fileName"`
	URL      string `json:"url"`
}

// Service owns the record store, upload files, and in-memory indexes.
type Service struct {
	cfg     Config
	logger  *slog.Logger
	records store.RecordStore
	linkLog *LinkLog

	mu      sync.RWMutex
	indexes map[string]*match.Index // keyed by script ID
	lastID  int64
}

// New creates a Service over an opened record store.
func New(cfg Config, records store.RecordStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.FallbackAnswer == "" {
		cfg.FallbackAnswer = DefaultFallbackAnswer
	}
	if cfg.NoDataAnswer == "" {
		cfg.NoDataAnswer = DefaultNoDataAnswer
	}
	return &Service{
		cfg:     cfg,
		logger:  logger.With("component", "script"),
		records: records,
		linkLog: NewLinkLog(cfg.LinkLogPath),
		indexes: make(map[string]*match.Index),
	}
}

// Upload stores the spreadsheet bytes under the original file name,
// validates the sheet, persists the record, and builds the question index.
// A rejected upload leaves no record and no saved file behind.
func (s *Service) Upload(ctx context.Context, fileName string, data []byte, clientName string) (*UploadResult, error) {
	fileName = filepath.Base(strings.TrimSpace(fileName))
	clientName = strings.TrimSpace(clientName)
	if fileName == "" || fileName == "." || len(data) == 0 {
		return nil, validationErr("a spreadsheet file is required")
	}
	if clientName == "" {
		return nil, validationErr("clientName is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.records.FindByClientName(clientName)
	if err != nil {
		return nil, ioErr(err, "checking client name")
	}
	if existing != nil {
		return nil, conflictErr("client name %q is already in use", clientName)
	}

	if err := os.MkdirAll(s.cfg.UploadsDir, 0o700); err != nil {
		return nil, ioErr(err, "creating upload directory")
	}
	path := filepath.Join(s.cfg.UploadsDir, fileName)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return nil, ioErr(err, "saving upload %s", fileName)
	}

	rows, verr := s.validateSheet(path)
	if verr != nil {
		os.Remove(path)
		return nil, verr
	}

	id := s.nextScriptID()
	rec := store.Record{
		FileName:    fileName,
		ScriptID:    id,
		RedirectURL: s.redirectURL(id),
		ClientName:  clientName,
	}
	if err := s.records.Upsert(rec); err != nil {
		os.Remove(path)
		return nil, ioErr(err, "persisting record for %s", fileName)
	}

	s.indexes[id] = match.Build(rows, s.cfg.Threshold)

	// Best-effort: a failed audit line never fails the upload.
	if err := s.linkLog.Append(rec); err != nil {
		s.logger.Warn("link log append failed", "script_id", id, "error", err)
	}

	s.logger.Info("sheet uploaded",
		"script_id", id,
		"file", fileName,
		"client", clientName,
		"rows", len(rows),
	)
	return &UploadResult{
		ScriptID:    id,
		FileName:    fileName,
		ClientName:  clientName,
		RedirectURL: rec.RedirectURL,
	}, nil
}

// Sheet returns the rows of the script's backing file, decoded fresh from
// disk rather than from the in-memory index.
func (s *Service) Sheet(ctx context.Context, scriptID string) ([]sheet.Row, error) {
	s.mu.RLock()
	rec, err := s.records.FindByScriptID(scriptID)
	s.mu.RUnlock()
	if err != nil {
		return nil, ioErr(err, "looking up script %s", scriptID)
	}
	if rec == nil {
		return nil, notFoundErr("no sheet found for script %s", scriptID)
	}

	rows, _, err := sheet.Decode(filepath.Join(s.cfg.UploadsDir, rec.FileName))
	if err != nil {
		return nil, ioErr(err, "reading sheet %s", rec.FileName)
	}
	return rows, nil
}

// UpdateSheet overwrites the backing file with rows, re-decodes it to
// confirm the write, and rebuilds the index under the same script ID.
func (s *Service) UpdateSheet(ctx context.Context, scriptID string, rows []sheet.Row) error {
	if len(rows) == 0 {
		return validationErr("sheet must contain at least one row")
	}
	if !sheet.HasRequiredColumns(rows) {
		return validationErr("sheet rows must contain %s and %s columns", sheet.ColQuestion, sheet.ColAnswer)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.records.FindByScriptID(scriptID)
	if err != nil {
		return ioErr(err, "looking up script %s", scriptID)
	}
	if rec == nil {
		return notFoundErr("no sheet found for script %s", scriptID)
	}

	path := filepath.Join(s.cfg.UploadsDir, rec.FileName)
	if err := sheet.Encode(rows, path); err != nil {
		return ioErr(err, "writing sheet %s", rec.FileName)
	}
	decoded, _, err := sheet.Decode(path)
	if err != nil {
		return ioErr(err, "re-reading sheet %s after update", rec.FileName)
	}

	s.indexes[scriptID] = match.Build(decoded, s.cfg.Threshold)
	s.logger.Info("sheet updated", "script_id", scriptID, "rows", len(decoded))
	return nil
}

// Delete removes the backing file, the record, the index, and any link-log
// lines for the script.
func (s *Service) Delete(ctx context.Context, scriptID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.records.FindByScriptID(scriptID)
	if err != nil {
		return ioErr(err, "looking up script %s", scriptID)
	}
	if rec == nil {
		return notFoundErr("no sheet found for script %s", scriptID)
	}

	path := filepath.Join(s.cfg.UploadsDir, rec.FileName)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return ioErr(err, "deleting sheet file %s", rec.FileName)
	}
	if err := s.records.Remove(rec.FileName); err != nil {
		return ioErr(err, "removing record for %s", rec.FileName)
	}
	delete(s.indexes, scriptID)

	if err := s.linkLog.Remove(scriptID); err != nil {
		s.logger.Warn("link log cleanup failed", "script_id", scriptID, "error", err)
	}

	s.logger.Info("sheet deleted", "script_id", scriptID, "file", rec.FileName)
	return nil
}

// Ask answers a free-text question against the script's index. The bool
// reports whether an index existed; callers use it to distinguish the
// degraded "no data" payload from a normal answer or fallback.
func (s *Service) Ask(ctx context.Context, scriptID, question string) (string, bool) {
	s.mu.RLock()
	ix := s.indexes[scriptID]
	s.mu.RUnlock()

	if ix == nil {
		return s.cfg.NoDataAnswer, false
	}
	row, ok := ix.Query(question)
	if !ok {
		return s.cfg.FallbackAnswer, true
	}
	return row[sheet.ColAnswer], true
}

// Links lists every live record for the script-links endpoint.
func (s *Service) Links(ctx context.Context) ([]Link, error) {
	s.mu.RLock()
	recs, err := s.records.All()
	s.mu.RUnlock()
	if err != nil {
		return nil, ioErr(err, "listing records")
	}

	links := make([]Link, 0, len(recs))
	for _, rec := range recs {
		links = append(links, Link{
			Client:   rec.ClientName,
			ScriptID: rec.ScriptID,
			FileName: rec.FileName,
			URL:      rec.RedirectURL,
		})
	}
	return links, nil
}

// RebuildIndexes rebuilds every live record's index from its backing file.
// Best-effort per sheet: a file that fails to decode stays un-indexed and
// Ask answers with the no-data payload for it.
func (s *Service) RebuildIndexes(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.records.All()
	if err != nil {
		s.logger.Warn("index rebuild skipped", "error", err)
		return
	}

	rebuilt := 0
	for _, rec := range recs {
		rows, _, err := sheet.Decode(filepath.Join(s.cfg.UploadsDir, rec.FileName))
		if err != nil {
			s.logger.Warn("sheet not indexed", "script_id", rec.ScriptID, "file", rec.FileName, "error", err)
			continue
		}
		s.indexes[rec.ScriptID] = match.Build(rows, s.cfg.Threshold)
		rebuilt++
	}
	s.logger.Info("indexes rebuilt", "indexed", rebuilt, "records", len(recs))
}

// validateSheet decodes a freshly saved upload and applies the caller-side
// validation policy: at least one data row, required columns present.
func (s *Service) validateSheet(path string) ([]sheet.Row, *Error) {
	rows, _, err := sheet.Decode(path)
	if err != nil {
		if errors.Is(err, sheet.ErrNoData) {
			return nil, validationErr("sheet has no data rows")
		}
		return nil, ioErr(err, "decoding uploaded sheet")
	}
	if !sheet.HasRequiredColumns(rows) {
		return nil, validationErr("sheet is missing required %s and %s columns", sheet.ColQuestion, sheet.ColAnswer)
	}
	return rows, nil
}

// nextScriptID returns a time-derived token, strictly increasing within
// the process so repeated uploads can never collide. Caller must hold mu.
func (s *Service) nextScriptID() string {
	now := time.Now().UnixNano()
	if now <= s.lastID {
		now = s.lastID + 1
	}
	s.lastID = now
	return strconv.FormatInt(now, 36)
}

func (s *Service) redirectURL(scriptID string) string {
	base := strings.TrimRight(s.cfg.BaseURL, "/")
	return base + "/ask/" + scriptID
}
