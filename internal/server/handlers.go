package server

import (
	"encoding/json"
	"errors"
	"math"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hyperjump/gazo/internal/imagefile"
	"github.com/hyperjump/gazo/internal/models"
	"github.com/hyperjump/gazo/internal/search"
	"github.com/hyperjump/gazo/internal/storage"
	"go.uber.org/zap"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := models.StatusResponse{
		Images:         s.engine.Size(),
		IndexType:      s.engine.IndexType(),
		EmbeddingModel: s.engine.Model(),
		Roots:          s.engine.Roots(),
		LastBuild:      s.engine.Report(),
	}
	if s.store != nil {
		n, err := s.store.Count(r.Context())
		if err != nil {
			s.logger.Error("status: count embeddings failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		resp.CachedEmbeddings = &n
	}
	if path := s.config.Storage.EmbeddingCachePath; path != "" {
		if diskBytes, err := storage.DiskUsageBytes(path, path+"-wal", path+"-shm"); err == nil {
			resp.DiskUsageBytes = &diskBytes
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDirectories(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"directories": s.engine.Roots()})
}

func (s *Server) handleReindex(w http.ResponseWriter, r *http.Request) {
	s.logger.Debug("reindex request")
	report, err := s.engine.Rebuild(r.Context())
	if err != nil {
		s.logger.Error("reindex failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, report)
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	key, ok := s.parseKey(w, r)
	if !ok {
		return
	}
	path, ok := s.engine.ResolvePath(key)
	if !ok {
		s.respondError(w, http.StatusNotFound, "image not found")
		return
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.respondError(w, http.StatusNotFound, "image not found")
			return
		}
		s.logger.Error("open image failed", zap.String("path", path), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to open image")
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to stat image")
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=86400, immutable")
	http.ServeContent(w, r, filepath.Base(path), info.ModTime(), f)
}

// handleSearch accepts a JSON SearchRequest, or a form with a "query" field.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest
	if isForm(r) {
		if err := r.ParseForm(); err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid form")
			return
		}
		req.Query = r.FormValue("query")
		var err error
		if req.Count, err = parseCount(r.FormValue("count")); err != nil {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.Threshold, err = parseThreshold(r.FormValue("threshold")); err != nil {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	threshold := s.config.Search.TextThreshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	s.logger.Debug("search request", zap.String("query", req.Query), zap.Int("count", req.Count))
	start := time.Now()
	results, err := s.engine.SearchByText(r.Context(), req.Query, req.Count, threshold)
	if err != nil {
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondResults(w, req.Query, results, start)
}

func (s *Server) handleSearchByKey(w http.ResponseWriter, r *http.Request) {
	key, ok := s.parseKey(w, r)
	if !ok {
		return
	}
	count, threshold, ok := s.imageParams(w, r.URL.Query().Get("count"), r.URL.Query().Get("threshold"))
	if !ok {
		return
	}
	start := time.Now()
	results, err := s.engine.SearchByKey(r.Context(), key, count, threshold)
	if errors.Is(err, search.ErrImageNotFound) {
		s.respondError(w, http.StatusNotFound, "image not found")
		return
	}
	if err != nil {
		s.logger.Error("image search failed", zap.Uint64("key", key), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondResults(w, "", results, start)
}

func (s *Server) handleSearchByUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, imagefile.MaxUploadBytes+1<<20)
	file, _, err := r.FormFile("image")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "multipart field \"image\" is required")
		return
	}
	defer file.Close()
	img, _, err := imagefile.Decode(file)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "could not decode image")
		return
	}
	count, threshold, ok := s.imageParams(w, r.FormValue("count"), r.FormValue("threshold"))
	if !ok {
		return
	}
	start := time.Now()
	results, err := s.engine.SearchByImage(r.Context(), img, count, threshold)
	if err != nil {
		s.logger.Error("upload search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondResults(w, "", results, start)
}

func (s *Server) handleSearchByFilename(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	count, err := parseCount(q.Get("count"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	fuzzy, _ := strconv.ParseBool(q.Get("fuzzy"))
	start := time.Now()
	results, err := s.engine.SearchByFilename(r.Context(), q.Get("q"), count, fuzzy)
	if err != nil {
		s.logger.Error("filename search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondResults(w, q.Get("q"), results, start)
}

// imageParams parses count and threshold for image searches, defaulting the
// threshold to the image similarity threshold.
func (s *Server) imageParams(w http.ResponseWriter, rawCount, rawThreshold string) (int, float64, bool) {
	count, err := parseCount(rawCount)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return 0, 0, false
	}
	t, err := parseThreshold(rawThreshold)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return 0, 0, false
	}
	threshold := s.config.Search.ImageThreshold
	if t != nil {
		threshold = *t
	}
	return count, threshold, true
}

func (s *Server) parseKey(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	key, err := strconv.ParseUint(chi.URLParam(r, "key"), 10, 64)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid image key")
		return 0, false
	}
	return key, true
}

func parseCount(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.New("count must be a non-negative integer")
	}
	return n, nil
}

func parseThreshold(v string) (*float64, error) {
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, errors.New("threshold must be a finite number")
	}
	return &f, nil
}

func isForm(r *http.Request) bool {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mt == "application/x-www-form-urlencoded" || strings.HasPrefix(mt, "multipart/")
}

func (s *Server) respondResults(w http.ResponseWriter, query string, results []*models.SearchResult, start time.Time) {
	s.respondJSON(w, http.StatusOK, &models.SearchResponse{
		Results:   results,
		Total:     len(results),
		QueryTime: time.Since(start).Milliseconds(),
		Query:     query,
	})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
