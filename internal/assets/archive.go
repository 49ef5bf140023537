package assets

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// CollectArchives returns the asset archives under dir in load order:
// pak0-9.zip first (numerically), then other zips alphabetically. Later
// archives override earlier ones.
func CollectArchives(dir string) ([]string, error) {
	var pakFiles []string
	var otherFiles []string

	err := filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".zip") {
			return nil
		}

		lowerName := strings.ToLower(d.Name())
		isRootLevel := filepath.Dir(p) == filepath.Clean(dir)
		if isRootLevel && IsNumberedPak(lowerName) {
			pakFiles = append(pakFiles, p)
			return nil
		}
		otherFiles = append(otherFiles, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("collect archives in %s: %w", dir, err)
	}

	sort.Strings(pakFiles)
	sort.Strings(otherFiles)
	return append(pakFiles, otherFiles...), nil
}

// IsNumberedPak reports whether filename matches pak[0-9].zip.
func IsNumberedPak(filename string) bool {
	lower := strings.ToLower(filepath.Base(filename))
	return len(lower) == 8 && strings.HasPrefix(lower, "pak") && lower[3] >= '0' && lower[3] <= '9' && lower[4:] == ".zip"
}

// ArchiveFetcher serves assets out of one or more zip archives, for offline
// use and tests. Lookups are case-insensitive.
type ArchiveFetcher struct {
	index   map[string]*zip.File
	closers []io.Closer
}

// OpenArchives indexes the given zip files. Entries in later archives
// replace same-named entries in earlier ones.
func OpenArchives(paths ...string) (*ArchiveFetcher, error) {
	a := &ArchiveFetcher{index: make(map[string]*zip.File)}
	for _, p := range paths {
		r, err := zip.OpenReader(p)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("open archive %s: %w", p, err)
		}
		a.closers = append(a.closers, r)
		a.addFiles(r.File)
	}
	return a, nil
}

// NewArchiveFetcher indexes an in-memory zip.
func NewArchiveFetcher(r io.ReaderAt, size int64) (*ArchiveFetcher, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("read archive: %w", err)
	}
	a := &ArchiveFetcher{index: make(map[string]*zip.File)}
	a.addFiles(zr.File)
	return a, nil
}

func (a *ArchiveFetcher) addFiles(files []*zip.File) {
	for _, f := range files {
		if f.FileInfo().IsDir() {
			continue
		}
		a.index[NormalizePath(f.Name)] = f
	}
}

// Fetch reads one entry. Missing entries and HTML bodies are ErrNotFound.
func (a *ArchiveFetcher) Fetch(ctx context.Context, p string) (*Asset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := NormalizePath(p)
	f, ok := a.index[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s not in archive", ErrNotFound, p)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s in archive: %w", p, err)
	}
	defer rc.Close()
	body, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s in archive: %w", p, err)
	}

	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = http.DetectContentType(body)
	}
	if IsHTMLErrorPage(contentType, body) {
		return nil, fmt.Errorf("%w: %s: html page in archive", ErrNotFound, p)
	}
	return &Asset{Path: p, ContentType: contentType, Body: body}, nil
}

// Paths lists indexed entries, sorted.
func (a *ArchiveFetcher) Paths() []string {
	out := make([]string, 0, len(a.index))
	for p := range a.index {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Close releases the underlying archive files.
func (a *ArchiveFetcher) Close() error {
	var first error
	for _, c := range a.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
