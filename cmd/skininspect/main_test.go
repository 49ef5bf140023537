package main

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ernie/skin-inspect/internal/assets"
)

func writeTestArchive(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		img.Set(x, x, color.RGBA{R: 255, A: 255})
	}
	var pngBuf bytes.Buffer
	if err := png.Encode(&pngBuf, img); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "pak0.zip")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	zw := zip.NewWriter(f)
	for name, body := range map[string][]byte{
		"materials/skins/cu_ak47_cobra.vmat":     []byte(`Layer0 { TextureColor "textures/skins/cu_ak47_cobra_color.png" g_flPaintRoughness "0.2" }`),
		"textures/skins/cu_ak47_cobra_color.png": pngBuf.Bytes(),
	} {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write(body); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--json", "--config", filepath.Join(t.TempDir(), "none.yaml")))
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("%v: %v\n%s", args, err, out.String())
	}
	return out.String()
}

func TestResolveCommandFromArchive(t *testing.T) {
	archive := writeTestArchive(t)
	out := execute(t, "resolve", "StatTrak™ AK-47 | Redline (Minimal Wear)",
		"--archive", archive, "--paint", "282", "--wear", "0.1")

	var got struct {
		Pattern struct {
			Pattern string `json:"pattern"`
		} `json:"pattern"`
		Textures    map[string]*assets.TextureHandle `json:"textures"`
		Roughness   float64                          `json:"roughness"`
		Neutral     bool                             `json:"neutral"`
		Fingerprint string                           `json:"fingerprint"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if got.Pattern.Pattern != "cu_ak47_cobra" || got.Neutral {
		t.Fatalf("unexpected result:\n%s", out)
	}
	if got.Textures["map"] == nil || got.Textures["map"].Width != 8 {
		t.Fatalf("color texture missing:\n%s", out)
	}
	if got.Fingerprint == "" {
		t.Fatal("fingerprint missing")
	}
}

func TestNormalizeCommand(t *testing.T) {
	out := execute(t, "normalize", "★ Karambit | Doppler Phase 2 (Factory New)")
	if !strings.Contains(out, `"skinKey": "doppler"`) || !strings.Contains(out, `"variant": "phase2"`) {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestCandidatesCommandNeedsNoAssetSource(t *testing.T) {
	out := execute(t, "candidates", "AWP | Dragon Lore (Factory New)", "--paint", "344")
	if !strings.Contains(out, "materials/skins/legacy/cu_medieval_dragon_awp.vmt") {
		t.Fatalf("expected the catalog's definition hint:\n%s", out)
	}
}

func TestWatchAppliesLastLineRead(t *testing.T) {
	archive := writeTestArchive(t)
	const lines = 40

	var in strings.Builder
	for seed := 0; seed < lines; seed++ {
		fmt.Fprintf(&in, `{"market_hash_name":"AK-47 | Redline (Field-Tested)","paintindex":282,"paintseed":%d,"floatvalue":0.2}`+"\n", seed)
	}

	for round := 0; round < 10; round++ {
		rootCmd.SetIn(strings.NewReader(in.String()))
		out := execute(t, "watch", "--archive", archive)
		rootCmd.SetIn(nil)

		dec := json.NewDecoder(strings.NewReader(out))
		last := -1
		for dec.More() {
			var m struct {
				PaintSeed int `json:"paintSeed"`
			}
			if err := dec.Decode(&m); err != nil {
				t.Fatalf("decode output: %v\n%s", err, out)
			}
			last = m.PaintSeed
		}
		if last != lines-1 {
			t.Fatalf("round %d: last applied seed=%d, want %d", round, last, lines-1)
		}
	}
}
