package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const indexFile = "index.html"

// contentTypes maps lowercased extensions; anything else is octet-stream
var contentTypes = map[string]string{
	".css":  "text/css",
	".js":   "application/javascript",
	".html": "text/html",
	".jpg":  "image/*",
	".jpeg": "image/*",
	".png":  "image/*",
	".gif":  "image/*",
	".webp": "image/*",
}

// ContentTypeFor returns the Content-Type served for name
func ContentTypeFor(name string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// StaticHandler serves files below root
type StaticHandler struct {
	root   string
	logger *zap.Logger
}

// NewStaticHandler creates a handler rooted at dir
func NewStaticHandler(root string, logger *zap.Logger) *StaticHandler {
	return &StaticHandler{root: root, logger: logger}
}

// ServeHTTP answers 404 for paths containing "..", directories and missing
// files. The check is a plain substring match; paths are not canonicalised.
func (s *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := chi.URLParam(r, "*")
	if path == "" {
		path = strings.TrimPrefix(r.URL.Path, "/")
	}

	if strings.Contains(path, "..") {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if path == "" {
		path = indexFile
	}

	full := filepath.Join(s.root, filepath.FromSlash(path))
	f, err := os.Open(full)
	if err != nil {
		s.logger.Debug("static file not found", zap.String("path", path))
		w.WriteHeader(http.StatusNotFound)
		return
	}
	defer func() {
		_ = f.Close()
	}()

	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", ContentTypeFor(path))
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}
