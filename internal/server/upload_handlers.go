package server

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"vitrine/internal/storage"
	"vitrine/pkg/models"
)

// handleAdminUpload receives a media file and applies it to the live
// profile immediately, independent of any staged text edits. The upload
// kind comes from the path suffix: avatar, song or background.
func (s *Server) handleAdminUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	kind := strings.TrimPrefix(r.URL.Path, "/api/admin/upload/")
	kind = strings.Trim(kind, "/")

	maxBytes := s.config.Storage.MaxUploadSizeMB << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		s.respondWithError(w, r, http.StatusBadRequest,
			fmt.Sprintf("Upload exceeds the %dMB limit", s.config.Storage.MaxUploadSizeMB), err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondWithError(w, r, http.StatusBadRequest, "No file provided", err)
		return
	}
	defer file.Close()

	switch kind {
	case "avatar", "background":
		s.uploadImage(w, r, kind, header.Filename, file)
	case "song":
		s.uploadSong(w, r, header.Filename, file)
	default:
		s.respondWithError(w, r, http.StatusNotFound, "Unknown upload kind", nil)
	}
}

func (s *Server) uploadImage(w http.ResponseWriter, r *http.Request, kind, filename string, file io.Reader) {
	if !isImageFile(filename) {
		s.respondWithError(w, r, http.StatusBadRequest, "File must be a PNG, JPEG, GIF or WebP image", nil)
		return
	}

	category := storage.CategoryAvatars
	if kind == "background" {
		category = storage.CategoryBackgrounds
	}

	url, err := s.storage.Save(r.Context(), storage.ObjectName(category, filename), file)
	if err != nil {
		s.respondWithError(w, r, http.StatusInternalServerError, "Failed to store file", err)
		return
	}

	var patch models.ProfilePatch
	if kind == "avatar" {
		patch.AvatarURL = &url
	} else {
		patch.BackgroundURL = &url
	}

	profile, err := s.repo.Merge(r.Context(), patch)
	if err != nil {
		s.respondWithError(w, r, http.StatusBadGateway, "File stored but profile update failed", err)
		return
	}

	s.logger.WithFields(logrus.Fields{
		"kind": kind,
		"url":  url,
	}).Info("Media upload applied")

	s.respondJSON(w, map[string]interface{}{
		"success": true,
		"url":     url,
		"profile": profile,
	})
}

// uploadSong spools the file to disk first so the tag reader and the
// duration scanners can seek, then forwards it to blob storage.
func (s *Server) uploadSong(w http.ResponseWriter, r *http.Request, filename string, file io.Reader) {
	if !s.extractor.IsAudioFile(filename) {
		s.respondWithError(w, r, http.StatusBadRequest, "Unsupported audio format", nil)
		return
	}

	// Spool under the original base name so the extractor's filename
	// fallback sees the real title, not a temp name
	tmpDir, err := os.MkdirTemp("", "vitrine-upload-")
	if err != nil {
		s.respondWithError(w, r, http.StatusInternalServerError, "Failed to buffer upload", err)
		return
	}
	defer os.RemoveAll(tmpDir)

	tmpPath := filepath.Join(tmpDir, filepath.Base(storage.ObjectName(".", filename)))
	tmp, err := os.Create(tmpPath)
	if err != nil {
		s.respondWithError(w, r, http.StatusInternalServerError, "Failed to buffer upload", err)
		return
	}
	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		s.respondWithError(w, r, http.StatusInternalServerError, "Failed to buffer upload", err)
		return
	}
	tmp.Close()

	info, err := s.extractor.ExtractFromFile(tmpPath)
	if err != nil {
		// Metadata is a prefill convenience; the upload still proceeds
		s.logger.WithError(err).WithField("file", filename).Warn("Failed to read audio metadata")
	}

	spooled, err := os.Open(tmpPath)
	if err != nil {
		s.respondWithError(w, r, http.StatusInternalServerError, "Failed to buffer upload", err)
		return
	}
	defer spooled.Close()

	url, err := s.storage.Save(r.Context(), storage.ObjectName(storage.CategorySongs, filename), spooled)
	if err != nil {
		s.respondWithError(w, r, http.StatusInternalServerError, "Failed to store file", err)
		return
	}

	patch := models.ProfilePatch{SongURL: &url}
	if info.Title != "" {
		patch.SongTitle = &info.Title
	}
	if info.Artist != "" {
		patch.SongArtist = &info.Artist
	}

	profile, err := s.repo.Merge(r.Context(), patch)
	if err != nil {
		s.respondWithError(w, r, http.StatusBadGateway, "File stored but profile update failed", err)
		return
	}

	s.logger.WithFields(logrus.Fields{
		"url":      url,
		"title":    info.Title,
		"artist":   info.Artist,
		"duration": info.Duration,
	}).Info("Song upload applied")

	s.respondJSON(w, map[string]interface{}{
		"success":  true,
		"url":      url,
		"title":    info.Title,
		"artist":   info.Artist,
		"duration": info.Duration,
		"profile":  profile,
	})
}

func isImageFile(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp":
		return true
	}
	return false
}
