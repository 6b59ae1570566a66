package handlers

import (
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

const maxImageSize = 5 << 20

var (
	ErrImageTooLarge = errors.New("image file too large (max 5MB)")
	ErrImageType     = errors.New("only image files are allowed")
)

var allowedImageTypes = map[string][]string{
	".jpg":  {"image/jpeg"},
	".jpeg": {"image/jpeg"},
	".png":  {"image/png"},
	".gif":  {"image/gif"},
}

// UploadStore writes profile images under a single directory served at
// /uploads. Stored names are bare file names, never paths.
type UploadStore struct {
	dir string
	now func() time.Time
}

func NewUploadStore(dir string) (*UploadStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir %s: %w", dir, err)
	}
	return &UploadStore{dir: dir, now: time.Now}, nil
}

// checkImage validates size, extension and sniffed content type without
// touching the upload directory.
func checkImage(file *multipart.FileHeader) (string, error) {
	if file.Size > maxImageSize {
		return "", ErrImageTooLarge
	}
	extension := strings.ToLower(filepath.Ext(file.Filename))
	allowed, ok := allowedImageTypes[extension]
	if !ok {
		return "", ErrImageType
	}

	in, err := file.Open()
	if err != nil {
		return "", err
	}
	defer in.Close()

	detected, err := mimetype.DetectReader(in)
	if err != nil {
		return "", err
	}
	for _, mime := range allowed {
		if detected.Is(mime) {
			return extension, nil
		}
	}
	log.Printf("[UPLOAD] rejected %s: sniffed %s", extension, detected.String())
	return "", ErrImageType
}

// SaveProfileImage stores an already validated image and returns its name.
func (s *UploadStore) SaveProfileImage(userID string, file *multipart.FileHeader, extension string) (string, error) {
	filename := fmt.Sprintf("profile_%s_%d-%d%s", sanitizeName(userID), s.now().UnixMilli(), rand.IntN(1e9), extension)
	fullPath := filepath.Join(s.dir, filename)

	in, err := file.Open()
	if err != nil {
		return "", err
	}
	defer in.Close()

	out, err := os.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		log.Printf("[UPLOAD] failed to create file %s: %v", fullPath, err)
		return "", err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(fullPath)
		log.Printf("[UPLOAD] failed to save file %s: %v", fullPath, err)
		return "", err
	}
	if err := out.Close(); err != nil {
		os.Remove(fullPath)
		return "", err
	}

	log.Printf("[UPLOAD] stored %s", filename)
	return filename, nil
}

// Delete removes a stored image. Names that would escape the upload
// directory are refused; a missing file is not an error.
func (s *UploadStore) Delete(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil
	}
	if filepath.Base(trimmed) != trimmed || trimmed == "." || trimmed == ".." {
		return fmt.Errorf("refusing to delete non-upload path: %s", name)
	}

	err := os.Remove(filepath.Join(s.dir, trimmed))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func sanitizeName(value string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		}
		return '_'
	}, value)
}
