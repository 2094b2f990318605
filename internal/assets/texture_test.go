package assets

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zaptest"
	"golang.org/x/image/bmp"

	"github.com/qurb/engine/internal/rhi/headless"
)

// twoRows is 2x2 with a red top row and a blue bottom row.
func twoRows() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for x := 0; x < 2; x++ {
		img.Set(x, 0, color.RGBA{R: 255, A: 255})
		img.Set(x, 1, color.RGBA{B: 255, A: 255})
	}
	return img
}

func writeImage(t *testing.T, dir, name string, encode func(*os.File) error) {
	t.Helper()
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := encode(f); err != nil {
		t.Fatal(err)
	}
}

func newManager(t *testing.T, dir string) (*TextureManager, *headless.Device) {
	t.Helper()
	d := headless.NewDevice(zaptest.NewLogger(t))
	m, err := NewTextureManager(d, dir, zaptest.NewLogger(t))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		m.Close()
		if live := d.LiveObjects(); len(live) != 0 {
			t.Errorf("leaked textures: %v", live)
		}
		d.Release()
	})
	return m, d
}

func TestDefaultTextureChecker(t *testing.T) {
	m, _ := newManager(t, t.TempDir())
	ref := m.Default()
	defer ref.Release()

	tex := ref.Get().(*headless.Texture)
	if tex.Width() != 1024 || tex.Height() != 1024 {
		t.Fatalf("unexpected size %dx%d", tex.Width(), tex.Height())
	}
	magenta := []byte{255, 0, 255, 255}
	white := []byte{255, 255, 255, 255}
	for _, c := range []struct {
		x, y uint32
		want []byte
	}{
		{0, 0, magenta}, {511, 511, magenta}, {512, 0, white}, {0, 512, white}, {1023, 1023, magenta},
	} {
		if got := tex.Pixel(c.x, c.y); string(got) != string(c.want) {
			t.Errorf("pixel (%d,%d) = %v, want %v", c.x, c.y, got, c.want)
		}
	}
}

func TestLoadPNGFlipsRows(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, dir, "rows.png", func(f *os.File) error { return png.Encode(f, twoRows()) })
	m, _ := newManager(t, dir)

	ref, err := m.Texture("rows.png")
	if err != nil {
		t.Fatalf("Texture: %v", err)
	}
	defer ref.Release()
	tex := ref.Get().(*headless.Texture)
	if px := tex.Pixel(0, 0); px[2] != 255 || px[0] != 0 {
		t.Errorf("first stored row should be the image bottom (blue), got %v", px)
	}
	if px := tex.Pixel(1, 1); px[0] != 255 {
		t.Errorf("last stored row should be the image top (red), got %v", px)
	}
}

func TestLoadBMPAndCache(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, dir, "rows.bmp", func(f *os.File) error { return bmp.Encode(f, twoRows()) })
	m, d := newManager(t, dir)

	a, err := m.Texture("rows.bmp")
	if err != nil {
		t.Fatalf("Texture: %v", err)
	}
	before := len(d.LiveObjects())
	b, err := m.Texture("rows.bmp")
	if err != nil {
		t.Fatal(err)
	}
	if a.Get() != b.Get() || len(d.LiveObjects()) != before {
		t.Error("second lookup should hit the cache")
	}
	if a.RetainCount() != 3 {
		t.Errorf("expected manager + two callers, got %d", a.RetainCount())
	}
	a.Release()
	b.Release()
	if got := m.Names(); len(got) != 2 || got[0] != DefaultTextureName || got[1] != "rows.bmp" {
		t.Errorf("unexpected names %v", got)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "junk.png"), []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	m, _ := newManager(t, dir)

	if _, err := m.Texture("absent.png"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
	if _, err := m.Texture("junk.png"); !errors.Is(err, image.ErrFormat) {
		t.Errorf("expected image.ErrFormat, got %v", err)
	}
	if len(m.Names()) != 1 {
		t.Error("failed loads must not be cached")
	}
}

func TestCloseKeepsOutstandingReferences(t *testing.T) {
	m, d := newManager(t, t.TempDir())
	ref := m.Default()
	m.Close()

	if ref.Get().(*headless.Texture).Destroyed() {
		t.Fatal("outstanding reference must keep the texture alive")
	}
	if _, err := m.Texture(DefaultTextureName); !errors.Is(err, ErrManagerClosed) {
		t.Errorf("expected ErrManagerClosed, got %v", err)
	}
	ref.Release()
	if len(d.LiveObjects()) != 0 {
		t.Error("last release should destroy the texture")
	}
}

func TestCheckerPixelsSmall(t *testing.T) {
	pix := CheckerPixels(4, 2, 2)
	// Row 0: M M W W
	if pix[0] != 255 || pix[1] != 0 || pix[2*4+1] != 255 {
		t.Errorf("unexpected checker row %v", pix[:16])
	}
}
