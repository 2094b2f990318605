// Package assets loads GPU resources from disk and keeps them cached by name.
package assets

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/gogpu/gputypes"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/colornames"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/qurb/engine/internal/rhi"
)

const (
	// DefaultTextureName is always present in a TextureManager.
	DefaultTextureName = "default"

	defaultTextureSize = 1024
	defaultCellSize    = 512
)

var ErrManagerClosed = errors.New("assets: texture manager closed")

// TextureManager caches textures by name. Files are resolved against the
// texture directory unless the name is an absolute path.
type TextureManager struct {
	device   rhi.Device
	dir      string
	textures map[string]rhi.Ref[rhi.Texture]
	log      *zap.Logger
	closed   bool
}

// NewTextureManager creates the manager and its magenta and white checker
// default texture.
func NewTextureManager(device rhi.Device, dir string, log *zap.Logger) (*TextureManager, error) {
	m := &TextureManager{
		device:   device,
		dir:      dir,
		textures: make(map[string]rhi.Ref[rhi.Texture]),
		log:      log,
	}
	tex, err := rhi.Adopt(device.CreateTexture(rhi.TextureDescriptor{
		Label:  DefaultTextureName,
		Width:  defaultTextureSize,
		Height: defaultTextureSize,
		Format: gputypes.TextureFormatRGBA8UnormSrgb,
		Data:   CheckerPixels(defaultTextureSize, defaultTextureSize, defaultCellSize),
	}))
	if err != nil {
		return nil, fmt.Errorf("create default texture: %w", err)
	}
	m.textures[DefaultTextureName] = tex
	log.Debug("default texture created")
	return m, nil
}

// Texture returns the named texture, loading it on first use. The caller
// owns the returned reference and must release it.
func (m *TextureManager) Texture(name string) (rhi.Ref[rhi.Texture], error) {
	if m.closed {
		return rhi.Ref[rhi.Texture]{}, ErrManagerClosed
	}
	if tex, ok := m.textures[name]; ok {
		return tex.Clone(), nil
	}
	tex, err := m.load(name)
	if err != nil {
		return rhi.Ref[rhi.Texture]{}, err
	}
	m.textures[name] = tex
	return tex.Clone(), nil
}

// Default returns a new reference to the checker texture.
func (m *TextureManager) Default() rhi.Ref[rhi.Texture] {
	return m.textures[DefaultTextureName].Clone()
}

// Names lists cached textures in sorted order.
func (m *TextureManager) Names() []string {
	names := make([]string, 0, len(m.textures))
	for name := range m.textures {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close drops the manager's references. Textures still referenced elsewhere
// stay alive until their last owner releases them.
func (m *TextureManager) Close() {
	for name, tex := range m.textures {
		tex.Release()
		delete(m.textures, name)
	}
	m.closed = true
}

func (m *TextureManager) load(name string) (rhi.Ref[rhi.Texture], error) {
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(m.dir, name)
	}
	f, err := os.Open(path)
	if err != nil {
		return rhi.Ref[rhi.Texture]{}, fmt.Errorf("load texture %s: %w", name, err)
	}
	defer f.Close()

	img, format, err := DecodeRGBA(f)
	if err != nil {
		return rhi.Ref[rhi.Texture]{}, fmt.Errorf("load texture %s: %w", name, err)
	}
	size := img.Rect.Size()
	m.log.Debug("loading texture",
		zap.String("name", name),
		zap.String("format", format),
		zap.Int("width", size.X),
		zap.Int("height", size.Y),
	)

	tex, err := rhi.Adopt(m.device.CreateTexture(rhi.TextureDescriptor{
		Label:  name,
		Width:  uint32(size.X),
		Height: uint32(size.Y),
		Format: gputypes.TextureFormatRGBA8UnormSrgb,
		Data:   img.Pix,
	}))
	if err != nil {
		return rhi.Ref[rhi.Texture]{}, fmt.Errorf("create texture %s: %w", name, err)
	}
	return tex, nil
}

// DecodeRGBA decodes any registered image format into tightly packed RGBA
// with the first row at the bottom, as texture coordinates expect.
func DecodeRGBA(r io.Reader) (*image.RGBA, string, error) {
	src, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("decode: %w", err)
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Rect, src, b.Min, draw.Src)
	flipRows(dst)
	return dst, format, nil
}

func flipRows(img *image.RGBA) {
	h := img.Rect.Dy()
	row := make([]byte, img.Stride)
	for y := 0; y < h/2; y++ {
		top := img.Pix[y*img.Stride : (y+1)*img.Stride]
		bottom := img.Pix[(h-1-y)*img.Stride : (h-y)*img.Stride]
		copy(row, top)
		copy(top, bottom)
		copy(bottom, row)
	}
}

// CheckerPixels returns RGBA pixels alternating magenta and white cells,
// magenta first.
func CheckerPixels(width, height, cell int) []byte {
	pix := make([]byte, width*height*4)
	for y := 0; y < height; y++ {
		cy := y / cell
		for x := 0; x < width; x++ {
			var c color.RGBA = colornames.Magenta
			if (x/cell+cy)%2 != 0 {
				c = colornames.White
			}
			i := (y*width + x) * 4
			pix[i], pix[i+1], pix[i+2], pix[i+3] = c.R, c.G, c.B, c.A
		}
	}
	return pix
}
