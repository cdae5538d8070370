package storage

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// BlobStore define el contrato de almacenamiento durable de recibos. El
// locator devuelto por Upload es opaco para los llamadores y solo tiene
// sentido para el mismo store.
type BlobStore interface {
	Upload(ctx context.Context, r io.Reader, filename, owner string) (string, error)
	Delete(ctx context.Context, locator string) error
	URL(locator string) string
}

const (
	cloudFolder   = "cloud_simulator"
	receiptPrefix = "receipts"
)

// LocalStore simula un bucket de nube sobre el disco local, debajo del
// directorio de uploads del servicio.
type LocalStore struct {
	baseDir    string
	publicPath string
	logger     *zap.Logger
}

func NewLocalStore(baseDir, publicPath string, logger *zap.Logger) *LocalStore {
	return &LocalStore{
		baseDir:    baseDir,
		publicPath: strings.TrimRight(publicPath, "/"),
		logger:     logger,
	}
}

func (s *LocalStore) Upload(ctx context.Context, r io.Reader, filename, owner string) (string, error) {
	name := SanitizeFilename(filename)
	if name == "" {
		return "", errors.New("invalid filename")
	}

	locator := path.Join(cloudFolder, receiptPrefix, owner, name)
	full := filepath.Join(s.baseDir, filepath.FromSlash(locator))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}

	f, err := os.Create(full)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(full)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(full)
		return "", err
	}
	return locator, nil
}

func (s *LocalStore) Delete(ctx context.Context, locator string) error {
	if locator == "" {
		return nil
	}
	full := filepath.Join(s.baseDir, filepath.FromSlash(locator))
	err := os.Remove(full)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("blob not found for delete", zap.String("locator", locator))
		return nil
	}
	return err
}

// URL deriva la URL publica servida estaticamente para un locator.
func (s *LocalStore) URL(locator string) string {
	if locator == "" {
		return ""
	}
	return s.publicPath + "/" + locator
}
