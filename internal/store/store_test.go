package store

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ernie/skin-inspect/internal/assets"
)

type countingFetcher struct {
	mu    sync.Mutex
	files map[string]string
	calls int
}

func (f *countingFetcher) Fetch(ctx context.Context, p string) (*assets.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	body, ok := f.files[p]
	if !ok {
		return nil, assets.ErrNotFound
	}
	return &assets.Asset{Path: p, ContentType: "text/plain", Body: []byte(body)}, nil
}

func openTestStore(t *testing.T, inner assets.Fetcher) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "assets.db"), inner)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreServesRepeatFetchesLocally(t *testing.T) {
	inner := &countingFetcher{files: map[string]string{
		"materials/skins/cu_ak47_cobra.vmat": `Layer0 { TextureColor "a.png" }`,
	}}
	s := openTestStore(t, inner)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		a, err := s.Fetch(ctx, "materials/skins/cu_ak47_cobra.vmat")
		if err != nil {
			t.Fatalf("fetch %d: %v", i, err)
		}
		if !bytes.Contains(a.Body, []byte("TextureColor")) {
			t.Fatalf("unexpected body %q", a.Body)
		}
		if a.ContentType != "text/plain" {
			t.Fatalf("content type not kept: %q", a.ContentType)
		}
	}
	if inner.calls != 1 {
		t.Fatalf("expected one upstream fetch, got %d", inner.calls)
	}
}

func TestStoreDoesNotRememberMisses(t *testing.T) {
	inner := &countingFetcher{files: map[string]string{}}
	s := openTestStore(t, inner)
	ctx := context.Background()

	if _, err := s.Fetch(ctx, "textures/skins/missing.png"); !errors.Is(err, assets.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	inner.mu.Lock()
	inner.files["textures/skins/missing.png"] = "now here"
	inner.mu.Unlock()

	a, err := s.Fetch(ctx, "textures/skins/missing.png")
	if err != nil {
		t.Fatalf("asset published later should be found: %v", err)
	}
	if string(a.Body) != "now here" {
		t.Fatalf("unexpected body %q", a.Body)
	}
	if n, _ := s.Count(ctx); n != 1 {
		t.Fatalf("expected one stored asset, got %d", n)
	}
}

func TestStorePersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assets.db")
	inner := &countingFetcher{files: map[string]string{"a/b.vmt": "x"}}

	s, err := Open(path, inner)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Fetch(context.Background(), "A\\B.vmt"); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = Open(path, &countingFetcher{files: map[string]string{}})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	a, err := s.Get(context.Background(), "a/b.vmt")
	if err != nil {
		t.Fatalf("stored asset lost: %v", err)
	}
	if string(a.Body) != "x" {
		t.Fatalf("unexpected body %q", a.Body)
	}
}
