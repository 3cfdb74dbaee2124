// Package extract converts PDF and DOCX files into plain text plus
// page/paragraph layout metadata.
//
// Supported formats:
//   - .pdf   — pdfcpu cross-reference parsing + content stream decoding
//   - .docx  — Microsoft Word (archive/zip → word/document.xml)
//
// Both parsers are pure Go, CGO_ENABLED=0 compatible.
//
// Usage:
//
//	ex := extract.New(extract.Config{})
//	res, err := ex.Extract(ctx, "/path/to/file.pdf", extract.TypePDF)
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupportedType is returned for file types the extractor cannot parse.
var ErrUnsupportedType = errors.New("extract: unsupported file type")

// Config configures the extractor.
type Config struct {
	// MaxFileSize is the maximum file size to process (default: 50 MB).
	MaxFileSize int64 `json:"max_file_size" yaml:"max_file_size"`

	// Logger for debug/error messages.
	Logger *slog.Logger `json:"-" yaml:"-"`
}

func (c *Config) defaults() {
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = 50 * 1024 * 1024
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Extractor is the document extraction engine.
type Extractor struct {
	cfg    Config
	logger *slog.Logger
}

// New creates an Extractor with the given configuration.
func New(cfg Config) *Extractor {
	cfg.defaults()
	return &Extractor{cfg: cfg, logger: cfg.Logger}
}

// Detect returns the document type based on file extension.
func Detect(path string) (FileType, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".pdf":
		return TypePDF, nil
	case ".docx":
		return TypeDocx, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}
}

// Extract parses a document and returns full text, layout metadata, and
// page count. For DOCX the page count is an estimate (characters / 2000),
// since the format has no native page concept.
func (e *Extractor) Extract(ctx context.Context, path string, fileType FileType) (*Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() > e.cfg.MaxFileSize {
		return nil, fmt.Errorf("file too large: %d bytes (max %d)", info.Size(), e.cfg.MaxFileSize)
	}

	e.logger.Debug("extracting document", "path", path, "type", fileType)

	var res *Result
	switch fileType {
	case TypePDF:
		res, err = extractPDF(ctx, path)
	case TypeDocx:
		res, err = extractDocx(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, fileType)
	}

	if err != nil {
		return nil, fmt.Errorf("extract %s (%s): %w", path, fileType, err)
	}
	return res, nil
}

// SupportedTypes returns all supported file type extensions.
func SupportedTypes() []string {
	return []string{"pdf", "docx"}
}
