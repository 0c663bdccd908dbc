// Package artifact turns filesystem paths into artifacts for analysis.
package artifact

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"certcheck/internal/certcheck"
	"certcheck/internal/config"
)

// ErrTooLarge is returned when a file exceeds the configured size limit.
var ErrTooLarge = errors.New("file exceeds maximum artifact size")

// Loader reads files as artifacts, applying ignore patterns and a size cap.
type Loader struct {
	ignore  *IgnoreMatcher
	maxSize int64
}

// NewLoader creates a Loader from configuration. A MaxSize of zero disables
// the size cap.
func NewLoader(cfg config.ArtifactsConfig) *Loader {
	return &Loader{
		ignore:  NewIgnoreMatcher(cfg.Ignore),
		maxSize: cfg.MaxSize,
	}
}

// MaxSize returns the size cap in bytes, or zero when uncapped.
func (l *Loader) MaxSize() int64 { return l.maxSize }

// resolve validates a raw path. Only regular files and directories are
// accepted.
func resolve(rawPath string) (string, fs.FileInfo, error) {
	absPath, err := filepath.Abs(rawPath)
	if err != nil {
		return "", nil, fmt.Errorf("resolving absolute path: %w", err)
	}

	info, err := os.Lstat(absPath)
	if err != nil {
		return "", nil, fmt.Errorf("stat path: %w", err)
	}

	mode := info.Mode()
	switch {
	case mode&os.ModeSymlink != 0:
		return "", nil, fmt.Errorf("symlinks not supported: %s", absPath)
	case mode&os.ModeDevice != 0:
		return "", nil, fmt.Errorf("device files not supported: %s", absPath)
	case mode&os.ModeNamedPipe != 0:
		return "", nil, fmt.Errorf("named pipes not supported: %s", absPath)
	case mode&os.ModeSocket != 0:
		return "", nil, fmt.Errorf("sockets not supported: %s", absPath)
	}
	return absPath, info, nil
}

// Collect expands paths into the regular files to analyze, in the order
// given. Directories are listed (walked when recursive) with ignore patterns
// applied; explicitly named files are never ignored.
func (l *Loader) Collect(paths []string, recursive bool) ([]string, error) {
	var files []string
	for _, raw := range paths {
		absPath, info, err := resolve(raw)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, absPath)
			continue
		}
		found, err := l.findFiles(absPath, recursive)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	return files, nil
}

func (l *Loader) findFiles(root string, recursive bool) ([]string, error) {
	extra, err := ParseIgnoreFile(filepath.Join(root, IgnoreFileName))
	if err != nil {
		return nil, err
	}
	matcher := l.ignore.With(extra)

	var files []string
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == root {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		if d.IsDir() {
			if !recursive || matcher.Match(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || matcher.Match(rel) {
			return nil
		}
		files = append(files, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}
	return files, nil
}

// Load reads the file at path as an artifact named by its basename.
func (l *Loader) Load(path string) (certcheck.Artifact, error) {
	f, err := os.Open(path)
	if err != nil {
		return certcheck.Artifact{}, fmt.Errorf("opening artifact: %w", err)
	}
	defer f.Close()

	return l.Read(filepath.Base(path), "", f)
}

// Read reads an artifact from r. mediaType is used when non-empty;
// otherwise it is detected from the name and content.
func (l *Loader) Read(name, mediaType string, r io.Reader) (certcheck.Artifact, error) {
	if l.maxSize > 0 {
		r = io.LimitReader(r, l.maxSize+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return certcheck.Artifact{}, fmt.Errorf("reading artifact: %w", err)
	}
	if l.maxSize > 0 && int64(len(data)) > l.maxSize {
		return certcheck.Artifact{}, fmt.Errorf("%s: %w (%d bytes)", name, ErrTooLarge, l.maxSize)
	}
	if mediaType == "" {
		mediaType = DetectMediaType(name, data)
	}
	return certcheck.Artifact{Name: name, MediaType: mediaType, Data: data}, nil
}

// DetectMediaType guesses a media type from the file extension, then from
// the content. Empty content with an unknown extension yields "", which the
// engine reports as missing metadata.
func DetectMediaType(name string, data []byte) string {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); t != "" {
		mt, _, err := mime.ParseMediaType(t)
		if err == nil {
			return mt
		}
		return t
	}
	if len(data) == 0 {
		return ""
	}
	mt, _, _ := mime.ParseMediaType(http.DetectContentType(data))
	return mt
}
