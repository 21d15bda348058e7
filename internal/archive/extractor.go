// Package archive extracts the compressed archives some releases ship in.
//
// Zip archives are unpacked in-process; everything else (rar) is handed to
// the unar CLI. Extraction is one level deep: archives found inside an
// extracted archive are left as they are.
package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"

	"seedkeeper/internal/config"
	"seedkeeper/internal/logging"
	"seedkeeper/internal/services"
)

// Option configures the extractor.
type Option func(*Extractor)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec services.Executor) Option {
	return func(e *Extractor) {
		if exec != nil {
			e.exec = exec
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// Extractor unpacks archives into a destination directory.
type Extractor struct {
	unar       string
	extensions map[string]struct{}
	exec       services.Executor
	logger     *slog.Logger
}

// New constructs an extractor recognising the given extensions (".zip", ".rar").
func New(unarBinary string, extensions []string, opts ...Option) *Extractor {
	if strings.TrimSpace(unarBinary) == "" {
		unarBinary = "unar"
	}
	if len(extensions) == 0 {
		extensions = []string{".zip", ".rar"}
	}
	e := &Extractor{
		unar:       unarBinary,
		extensions: make(map[string]struct{}, len(extensions)),
		exec:       services.CommandExecutor{},
	}
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		e.extensions[ext] = struct{}{}
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = logging.NewComponentLogger(e.logger, "archive")
	return e
}

// NewFromConfig builds an extractor from the archive section of cfg.
func NewFromConfig(cfg *config.Config, logger *slog.Logger, opts ...Option) *Extractor {
	return New(cfg.Archive.UnarBinary, cfg.Archive.Extensions, append([]Option{WithLogger(logger)}, opts...)...)
}

// IsArchive reports whether path has a recognised archive extension.
func (e *Extractor) IsArchive(path string) bool {
	_, ok := e.extensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Extract unpacks archivePath into destDir, overwriting existing files.
func (e *Extractor) Extract(ctx context.Context, archivePath, destDir string) error {
	logging.WithContext(ctx, e.logger).Info("extracting archive", logging.String("archive", filepath.Base(archivePath)))
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("create extraction dir: %w", err)
	}
	if strings.EqualFold(filepath.Ext(archivePath), ".zip") {
		if err := extractZip(ctx, archivePath, destDir); err != nil {
			return services.Wrap(services.ErrExternalTool, "upload", "extract zip", filepath.Base(archivePath), err)
		}
		return nil
	}
	logger := logging.WithContext(ctx, e.logger)
	err := e.exec.Run(ctx, e.unar, []string{"-f", "-o", destDir, archivePath}, func(line string) {
		logger.Debug(line)
	})
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "upload", "unar", filepath.Base(archivePath), err)
	}
	return nil
}

func extractZip(ctx context.Context, archivePath, destDir string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer reader.Close()

	root, err := filepath.Abs(destDir)
	if err != nil {
		return err
	}
	for _, file := range reader.File {
		if err := ctx.Err(); err != nil {
			return err
		}
		target, err := safeJoin(root, file.Name)
		if err != nil {
			return err
		}
		info := file.FileInfo()
		if info.IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}
		if err := writeZipEntry(file, target); err != nil {
			return fmt.Errorf("%s: %w", file.Name, err)
		}
	}
	return nil
}

func writeZipEntry(file *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	mode := file.Mode().Perm()
	if mode == 0 {
		mode = 0o644
	}
	dst, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}

var errUnsafePath = errors.New("entry escapes extraction directory")

// safeJoin resolves an archive entry name under root, rejecting names that
// would land outside it.
func safeJoin(root, name string) (string, error) {
	cleaned := filepath.Clean(filepath.Join(root, filepath.FromSlash(name)))
	rel, err := filepath.Rel(root, cleaned)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(name) {
		return "", fmt.Errorf("%w: %s", errUnsafePath, name)
	}
	return cleaned, nil
}
