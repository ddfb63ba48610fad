package webui

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sheetvoice/sheetvoice/pkg/sheetvoice/sheet"
)

// handleUpload handles POST /upload (multipart: file, clientName).
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": fmt.Sprintf("failed to parse form: %v", err),
		})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "no file provided (use 'file' field)",
		})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": fmt.Sprintf("reading upload: %v", err),
		})
		return
	}

	res, err := s.svc.Upload(r.Context(), header.Filename, data, r.FormValue("clientName"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleScriptLinks handles GET /script-links.
func (s *Server) handleScriptLinks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	links, err := s.svc.Links(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"scripts": links})
}

// handleProcessSpeech handles POST /process-speech/{id} with body
// {"question": "..."}. When no index exists for the id, the response is a
// 404 carrying a "no data" answer payload rather than an error body.
func (s *Server) handleProcessSpeech(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	id := pathParam(r, "/process-speech/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "script id required"})
		return
	}

	var body struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	answer, ok := s.svc.Ask(r.Context(), id, body.Question)
	status := http.StatusOK
	if !ok {
		status = http.StatusNotFound
	}
	writeJSON(w, status, map[string]string{"answer": answer})
}

// handleGetExcel handles GET /get-excel/{id}.
func (s *Server) handleGetExcel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	id := pathParam(r, "/get-excel/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "script id required"})
		return
	}

	rows, err := s.svc.Sheet(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sheet": rows})
}

// handleUpdateExcel handles PUT /update-excel with body
// {"scriptId": "...", "sheet": [Row]}.
func (s *Server) handleUpdateExcel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var body struct {
		ScriptID string           `json:"scriptId"`
		Sheet    []map[string]any `json:"sheet"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	if body.ScriptID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "scriptId is required"})
		return
	}

	if err := s.svc.UpdateSheet(r.Context(), body.ScriptID, coerceRows(body.Sheet)); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "sheet updated"})
}

// handleDelete handles DELETE /delete/{scriptId}.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	id := pathParam(r, "/delete/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "script id required"})
		return
	}

	if err := s.svc.Delete(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "script deleted"})
}

// pathParam extracts the first path segment after prefix.
func pathParam(r *http.Request, prefix string) string {
	rest := strings.TrimPrefix(r.URL.Path, prefix)
	return strings.Split(rest, "/")[0]
}

// coerceRows flattens decoded JSON rows into the codec's string-valued
// form. Numbers and booleans arrive as float64/bool from encoding/json.
func coerceRows(in []map[string]any) []sheet.Row {
	rows := make([]sheet.Row, 0, len(in))
	for _, m := range in {
		row := make(sheet.Row, len(m))
		for k, v := range m {
			switch val := v.(type) {
			case string:
				row[k] = val
			case float64:
				row[k] = trimFloat(val)
			case bool:
				row[k] = fmt.Sprintf("%t", val)
			case nil:
				row[k] = ""
			default:
				row[k] = fmt.Sprint(val)
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func trimFloat(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}
