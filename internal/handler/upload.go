package handler

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/quickshareqr/server-go/internal/archive"
	"github.com/quickshareqr/server-go/internal/config"
	apperrors "github.com/quickshareqr/server-go/internal/errors"
	"github.com/quickshareqr/server-go/internal/util"
)

// UploadHandler serves the PC-side upload endpoints: a single file, or a
// folder that is zipped into one container before storage.
type UploadHandler struct {
	store        ObjectStore
	uploadDir    string
	maxFileBytes int64
}

func NewUploadHandler(store ObjectStore, uploadDir string, maxFileBytes int64) *UploadHandler {
	return &UploadHandler{
		store:        store,
		uploadDir:    uploadDir,
		maxFileBytes: maxFileBytes,
	}
}

// POST /api/upload
func (h *UploadHandler) Direct(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(config.MultipartMemoryLimit); err != nil {
		writeError(w, apperrors.ValidationError("No file uploaded").WithCause(err))
		return
	}
	defer cleanupForm(r)

	file, fh, err := r.FormFile("file")
	if err != nil {
		writeError(w, apperrors.MissingRequired("file"))
		return
	}
	file.Close()

	if fh.Size > h.maxFileBytes {
		writeError(w, apperrors.InvalidInput("file", "exceeds maximum allowed size"))
		return
	}

	tmpPath, err := spoolUpload(fh, h.uploadDir)
	if err != nil {
		log.Error().Err(err).Str("file", fh.Filename).Msg("failed to spool upload")
		writeError(w, apperrors.Internal("Error uploading file"))
		return
	}
	defer archive.Cleanup(tmpPath)

	key := fmt.Sprintf("uploads/%s-%s", uuid.NewString(), util.SanitizeFilename(fh.Filename))
	contentType := contentTypeFor(fh)

	url, size, err := uploadFromFile(r.Context(), h.store, key, tmpPath, contentType)
	if err != nil {
		log.Error().Err(err).Str("file", fh.Filename).Msg("object store upload failed")
		writeError(w, apperrors.Storage("Error uploading file", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"fileUrl":  url,
		"fileName": fh.Filename,
		"fileSize": size,
		"fileType": contentType,
	})
}

// POST /api/upload-folder
//
// Each part in the files field may carry a relative-path hint in a path_<name>
// form value. The directory tree is rebuilt in scratch space, zipped, and the
// zip is what reaches the object store. Every scratch artifact is removed on
// success and on failure alike.
func (h *UploadHandler) Folder(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(config.MultipartMemoryLimit); err != nil {
		writeError(w, apperrors.ValidationError("No files uploaded").WithCause(err))
		return
	}
	defer cleanupForm(r)

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeError(w, apperrors.ValidationError("No files uploaded"))
		return
	}

	now := time.Now().UnixMilli()
	folderName := r.FormValue("folderName")
	if folderName == "" {
		folderName = fmt.Sprintf("folder_%d", now)
	}

	scratchDir := filepath.Join(h.uploadDir, fmt.Sprintf("%s-%d", util.SanitizeFilename(folderName), now))
	zipPath := filepath.Join(h.uploadDir, fmt.Sprintf("folder_%d.zip", now))
	defer archive.Cleanup(scratchDir, zipPath)

	for _, fh := range files {
		if fh.Size > h.maxFileBytes {
			writeError(w, apperrors.InvalidInput("file", fmt.Sprintf("%s exceeds maximum allowed size", fh.Filename)))
			return
		}
		if err := h.placeInTree(scratchDir, fh, r.FormValue("path_"+fh.Filename)); err != nil {
			log.Error().Err(err).Str("file", fh.Filename).Msg("failed to stage folder entry")
			writeError(w, apperrors.Internal("Error uploading folder"))
			return
		}
	}

	if err := archive.Zip(scratchDir, zipPath); err != nil {
		log.Error().Err(err).Str("folder", folderName).Msg("failed to build archive")
		writeError(w, apperrors.Internal("Error uploading folder"))
		return
	}

	key := fmt.Sprintf("folders/folder_%d.zip", now)
	url, size, err := uploadFromFile(r.Context(), h.store, key, zipPath, "application/zip")
	if err != nil {
		log.Error().Err(err).Str("folder", folderName).Msg("object store upload failed")
		writeError(w, apperrors.Storage("Error uploading folder", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"fileUrl":    url,
		"fileName":   filepath.Base(zipPath),
		"fileSize":   size,
		"fileType":   "application/zip",
		"isFolder":   true,
		"folderName": folderName,
	})
}

// placeInTree copies one part into the scratch tree under its relative-path
// hint, refusing hints that would escape the scratch directory.
func (h *UploadHandler) placeInTree(scratchDir string, fh *multipart.FileHeader, relPath string) error {
	destDir := scratchDir
	if relPath != "" {
		cleaned := filepath.Clean(filepath.FromSlash(relPath))
		if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(os.PathSeparator)) {
			return fmt.Errorf("path hint %q escapes scratch directory", relPath)
		}
		destDir = filepath.Join(scratchDir, cleaned)
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("create scratch dir: %w", err)
	}

	src, err := fh.Open()
	if err != nil {
		return fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(destDir, util.SanitizeFilename(fh.Filename)))
	if err != nil {
		return fmt.Errorf("create scratch file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("write scratch file: %w", err)
	}
	return dst.Close()
}

func cleanupForm(r *http.Request) {
	if r.MultipartForm != nil {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			log.Warn().Err(err).Msg("failed to remove multipart temp files")
		}
	}
}
