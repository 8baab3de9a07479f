package http

import (
	"context"
	"crypto/subtle"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

const (
	maxUploadBytes = 32 << 20
	presignExpiry  = time.Hour
)

// Uploader stores an uploaded source file and reports where it lives.
type Uploader interface {
	Upload(ctx context.Context, name string, body []byte, contentType, originalName string, uploadedAt time.Time) (string, error)
	PublicURL(key string) string
}

// Presigner issues a URL the client can PUT a file to directly.
type Presigner interface {
	PresignUpload(ctx context.Context, name, contentType string, expires time.Duration) (url, key string, err error)
}

var uploadContentTypes = map[string]string{
	".csv":  "text/csv",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

type uploadResponse struct {
	Message    string `json:"message"`
	Filename   string `json:"filename"`
	PublicURL  string `json:"publicUrl"`
	Size       int    `json:"size"`
	UploadedAt string `json:"uploadedAt"`
}

type presignResponse struct {
	UploadURL string `json:"uploadUrl"`
	Filename  string `json:"filename"`
	ExpiresIn int    `json:"expiresIn"`
}

func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.opts.AdminToken != "" {
			want := "Bearer " + s.opts.AdminToken
			got := r.Header.Get("Authorization")
			if subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
				sharedobs.WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
				return
			}
		}
		next(w, r)
	}
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		sharedobs.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "No file provided"})
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	contentType, ok := uploadContentTypes[ext]
	if !ok {
		sharedobs.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "Only CSV or XLSX files are allowed"})
		return
	}

	body, err := io.ReadAll(file)
	if err != nil {
		sharedobs.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "Upload failed", "details": err.Error()})
		return
	}

	now := s.clock.Now()
	name := fmt.Sprintf("metadata-%d%s", now.UnixMilli(), ext)
	key, err := s.deps.Uploader.Upload(r.Context(), name, body, contentType, header.Filename, now)
	if err != nil {
		s.logger.Error("upload failed", "file", header.Filename, "error", err)
		sharedobs.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "Upload failed", "details": err.Error()})
		return
	}

	s.logger.Info("source file uploaded", "key", key, "original", header.Filename, "bytes", len(body))
	sharedobs.WriteJSON(w, http.StatusOK, uploadResponse{
		Message:    "CSV uploaded successfully",
		Filename:   key,
		PublicURL:  s.deps.Uploader.PublicURL(key),
		Size:       len(body),
		UploadedAt: formatTimestamp(now),
	})
}

func (s *Server) handlePresign(w http.ResponseWriter, r *http.Request) {
	name := fmt.Sprintf("metadata-%d.csv", s.clock.Now().UnixMilli())
	url, key, err := s.deps.Presigner.PresignUpload(r.Context(), name, "text/csv", presignExpiry)
	if err != nil {
		s.logger.Error("presign failed", "error", err)
		sharedobs.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to generate upload URL", "details": err.Error()})
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, presignResponse{
		UploadURL: url,
		Filename:  key,
		ExpiresIn: int(presignExpiry / time.Second),
	})
}
