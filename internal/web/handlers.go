package web

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/xlport/internal/core"
	"github.com/JonMunkholm/xlport/internal/logging"
	"github.com/JonMunkholm/xlport/internal/sheet"
	"github.com/JonMunkholm/xlport/internal/web/templates"
)

// previewLimit caps how many imported records an import response echoes.
const previewLimit = 50

// TypeResponse describes one registered record type.
type TypeResponse struct {
	Key      string   `json:"key"`
	Group    string   `json:"group"`
	Label    string   `json:"label"`
	Columns  []string `json:"columns"`
	CanApply bool     `json:"can_apply"`
}

// ImportResponse reports the outcome of an import.
type ImportResponse struct {
	Type    string `json:"type"`
	Records int    `json:"records"`
	Applied bool   `json:"applied"`
	Changed int    `json:"changed"`
	Preview []any  `json:"preview"`
}

// handleIndex renders the landing page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	defs := s.registry.All()
	links := make([]templates.TypeLink, len(defs))
	for i, def := range defs {
		links[i] = templates.TypeLink{
			Key:      def.Info.Key,
			Group:    def.Info.Group,
			Label:    def.Info.Label,
			CanApply: def.CanApply(),
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Index(links).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render index", "error", err)
	}
}

// handleListTypes returns every registered type with its export columns.
func (s *Server) handleListTypes(w http.ResponseWriter, r *http.Request) {
	defs := s.registry.All()
	types := make([]TypeResponse, 0, len(defs))
	for _, def := range defs {
		columns, err := s.converter.Header(def.Type)
		if err != nil {
			s.respondError(w, r, fmt.Errorf("columns of %s: %w", def.Info.Key, err))
			return
		}
		types = append(types, TypeResponse{
			Key:      def.Info.Key,
			Group:    def.Info.Group,
			Label:    def.Info.Label,
			Columns:  columns,
			CanApply: def.CanApply(),
		})
	}
	writeJSON(w, r, http.StatusOK, types)
}

// handleExport writes the records of a type as a download. Query parameters
// other than format are passed to the type's List func as filters. The
// document is built in memory first so a failed export never sends a
// partial file.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := chi.URLParam(r, "typeKey")

	def, err := s.registry.Get(key)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	query := r.URL.Query()
	opts, codec, err := s.exportOptions(query.Get("format"))
	if err != nil {
		s.respondErrorStatus(w, r, err, http.StatusBadRequest)
		return
	}

	records, err := def.List(ctx, listParams(query))
	if err != nil {
		s.respondError(w, r, fmt.Errorf("list %s: %w", key, err))
		return
	}

	var buf bytes.Buffer
	if err := s.converter.Export(ctx, def.Type, records, &buf, opts...); err != nil {
		s.respondError(w, r, err)
		return
	}

	filename := downloadName(query.Get("fileName"), key, codec)
	w.Header().Set("Content-Type", codec.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := buf.WriteTo(w); err != nil {
		logging.FromContext(ctx).Error("write export", "type", key, "error", err)
	}
}

// listParams keeps the first value of every query parameter except format.
func listParams(query url.Values) core.ListParams {
	params := make(core.ListParams, len(query))
	for k, v := range query {
		if k == "format" || len(v) == 0 {
			continue
		}
		params[k] = v[0]
	}
	return params
}

// downloadName returns the requested file name with the codec's extension,
// or key_timestamp when none was requested.
func downloadName(requested, key string, codec sheet.Codec) string {
	base := strings.TrimSuffix(filepath.Base(requested), filepath.Ext(requested))
	if requested == "" || base == "" || base == "." || strings.ContainsAny(base, `"\/`) {
		base = fmt.Sprintf("%s_%s", key, time.Now().Format("20060102_150405"))
	}
	return base + codec.Extension()
}

// exportOptions picks the codec for an export request. An empty format
// uses the converter's default.
func (s *Server) exportOptions(format string) ([]core.CallOption, sheet.Codec, error) {
	if format == "" {
		format = s.cfg.Export.Format
	}
	codec, err := sheet.ForFormat(format)
	if err != nil {
		return nil, nil, err
	}
	return []core.CallOption{core.UseCodec(codec)}, codec, nil
}

// handleImport reads an uploaded document into records of a type. With
// apply=true the records are persisted through the type's Apply func;
// otherwise the response is a preview only.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := chi.URLParam(r, "typeKey")

	def, err := s.registry.Get(key)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	release, err := s.limiter.Acquire(ctx)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer release()

	maxSize := s.cfg.Import.MaxFileSize
	if r.ContentLength > maxSize {
		s.respondErrorStatus(w, r, fmt.Errorf("file too large: %d bytes", r.ContentLength), http.StatusRequestEntityTooLarge)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)
	if err := r.ParseMultipartForm(maxSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			s.respondErrorStatus(w, r, fmt.Errorf("file too large: %w", err), http.StatusRequestEntityTooLarge)
			return
		}
		s.respondErrorStatus(w, r, fmt.Errorf("invalid form: %w", err), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondErrorStatus(w, r, errors.New("no file provided"), http.StatusBadRequest)
		return
	}
	defer file.Close()

	if header.Size == 0 {
		s.respondErrorStatus(w, r, errors.New("empty file"), http.StatusBadRequest)
		return
	}

	apply := r.FormValue("apply") == "true"
	if apply && !def.CanApply() {
		s.respondErrorStatus(w, r, fmt.Errorf("type %s is read only", key), http.StatusBadRequest)
		return
	}

	opts, err := importOptions(r.FormValue("format"), header.Filename)
	if err != nil {
		s.respondErrorStatus(w, r, err, http.StatusBadRequest)
		return
	}

	logger := logging.FromContext(ctx).With("type", key, "file", header.Filename)

	records, err := s.converter.Import(ctx, def.Type, file, opts...)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	resp := ImportResponse{
		Type:    key,
		Records: len(records),
		Preview: records[:min(len(records), previewLimit)],
	}
	if apply {
		changed, err := def.Apply(ctx, records)
		if err != nil {
			s.respondErrorStatus(w, r, err, http.StatusUnprocessableEntity)
			return
		}
		resp.Applied = true
		resp.Changed = changed
		logger.Info("import applied", "records", len(records), "changed", changed)
	}

	writeJSON(w, r, http.StatusOK, resp)
}

// importOptions picks the codec from an explicit format, then the file
// extension. With neither, the converter detects the format from content.
func importOptions(format, filename string) ([]core.CallOption, error) {
	if format == "" {
		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
		if ext != string(sheet.FormatXLSX) && ext != string(sheet.FormatCSV) {
			return nil, nil
		}
		format = ext
	}
	codec, err := sheet.ForFormat(format)
	if err != nil {
		return nil, err
	}
	return []core.CallOption{core.UseCodec(codec)}, nil
}

// handleImportStatus reports import concurrency.
func (s *Server) handleImportStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.limiter.Status())
}

