package assets

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func zipBytes(t *testing.T, files map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		fw, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip entry %s: %v", name, err)
		}
		if _, err := fw.Write(body); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func writeZip(t *testing.T, path string, files map[string][]byte) {
	t.Helper()
	if err := os.WriteFile(path, zipBytes(t, files), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestArchiveFetcherOverrideOrder(t *testing.T) {
	dir := t.TempDir()
	writeZip(t, filepath.Join(dir, "pak0.zip"), map[string][]byte{
		"Materials/Skins/so_red.vmat":     []byte(`Layer0 { TextureColor "old.png" }`),
		"textures/skins/so_red_color.png": pngBytes(t, 2, 2),
	})
	writeZip(t, filepath.Join(dir, "zz_patch.zip"), map[string][]byte{
		"materials/skins/so_red.vmat": []byte(`Layer0 { TextureColor "new.png" }`),
		"textures/skins/broken.png":   []byte("<html><body>oops</body></html>"),
	})
	writeZip(t, filepath.Join(dir, "pak1.zip"), map[string][]byte{
		"textures/skins/so_red_normal.png": pngBytes(t, 2, 2),
	})

	paths, err := CollectArchives(dir)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(paths) != 3 || filepath.Base(paths[0]) != "pak0.zip" || filepath.Base(paths[1]) != "pak1.zip" {
		t.Fatalf("unexpected load order %v", paths)
	}

	a, err := OpenArchives(paths...)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer a.Close()

	ctx := context.Background()
	got, err := a.Fetch(ctx, "materials/skins/SO_RED.vmat")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !bytes.Contains(got.Body, []byte("new.png")) {
		t.Fatalf("later archive should override, got %q", got.Body)
	}
	if _, err := a.Fetch(ctx, "textures/skins/broken.png"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("html entry should be ErrNotFound, got %v", err)
	}
	if _, err := a.Fetch(ctx, "nope.png"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing entry should be ErrNotFound, got %v", err)
	}
	if n := len(a.Paths()); n != 4 {
		t.Fatalf("expected 4 indexed paths, got %d", n)
	}
}

func TestArchiveFetcherInMemory(t *testing.T) {
	data := zipBytes(t, map[string][]byte{
		"Textures/Skins/CU_AK47_COBRA_COLOR.png": pngBytes(t, 4, 4),
		"materials/skins/":                       nil,
	})
	a, err := NewArchiveFetcher(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("new fetcher: %v", err)
	}
	defer a.Close()

	got, err := a.Fetch(context.Background(), "textures/skins/cu_ak47_cobra_color.png")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got.ContentType != "image/png" {
		t.Errorf("content type %q", got.ContentType)
	}
	if paths := a.Paths(); len(paths) != 1 {
		t.Errorf("directories must not be indexed, got %v", paths)
	}

	if _, err := NewArchiveFetcher(bytes.NewReader([]byte("not a zip")), 9); err == nil {
		t.Fatal("expected an error for non-zip data")
	}
}

func TestIsNumberedPak(t *testing.T) {
	for name, want := range map[string]bool{
		"pak0.zip":  true,
		"PAK9.ZIP":  true,
		"pak10.zip": false,
		"pakx.zip":  false,
		"pak0.pk3":  false,
	} {
		if got := IsNumberedPak(name); got != want {
			t.Errorf("IsNumberedPak(%q)=%v want=%v", name, got, want)
		}
	}
}
