// Package raster holds decoded, uncompressed pixel buffers.
//
// An Image owns its pixel bytes in row-major order with no padding between
// rows, so len(Pix) is always Width*Height*Mode.BytesPerPixel().
package raster

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

type Mode int

const (
	Gray Mode = iota + 1
	RGB
	RGBA
	Indexed
)

func (m Mode) BytesPerPixel() int {
	switch m {
	case Gray, Indexed:
		return 1
	case RGB:
		return 3
	case RGBA:
		return 4
	default:
		return 0
	}
}

func (m Mode) String() string {
	switch m {
	case Gray:
		return "L"
	case RGB:
		return "RGB"
	case RGBA:
		return "RGBA"
	case Indexed:
		return "P"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Image is a decoded raster. RGBA pixels are stored non-premultiplied.
// Palette is only set for Indexed images.
type Image struct {
	Mode    Mode
	Width   int
	Height  int
	Pix     []byte
	Palette color.Palette
}

var ErrEmpty = errors.New("raster: empty image")

func (img *Image) Validate() error {
	if img == nil {
		return ErrEmpty
	}
	bpp := img.Mode.BytesPerPixel()
	if bpp == 0 {
		return fmt.Errorf("raster: unknown mode %v", img.Mode)
	}
	if img.Width <= 0 || img.Height <= 0 {
		return fmt.Errorf("raster: invalid dimensions %dx%d", img.Width, img.Height)
	}
	if want := img.Width * img.Height * bpp; len(img.Pix) != want {
		return fmt.Errorf("raster: %v %dx%d needs %d bytes, have %d",
			img.Mode, img.Width, img.Height, want, len(img.Pix))
	}
	if img.Mode == Indexed && (len(img.Palette) == 0 || len(img.Palette) > 256) {
		return fmt.Errorf("raster: indexed image has %d palette entries", len(img.Palette))
	}
	return nil
}

func (img *Image) Bounds() image.Rectangle {
	return image.Rect(0, 0, img.Width, img.Height)
}

// FromImage copies src into a new raster. Gray and paletted sources keep
// their mode; everything else becomes RGB when fully opaque and RGBA
// otherwise.
func FromImage(src image.Image) (*Image, error) {
	if src == nil {
		return nil, ErrEmpty
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil, ErrEmpty
	}

	switch s := src.(type) {
	case *image.Gray:
		out := &Image{Mode: Gray, Width: w, Height: h, Pix: make([]byte, w*h)}
		for y := 0; y < h; y++ {
			off := s.PixOffset(b.Min.X, b.Min.Y+y)
			copy(out.Pix[y*w:(y+1)*w], s.Pix[off:off+w])
		}
		return out, nil
	case *image.Paletted:
		if len(s.Palette) == 0 {
			return nil, errors.New("raster: paletted image without palette")
		}
		out := &Image{
			Mode:    Indexed,
			Width:   w,
			Height:  h,
			Pix:     make([]byte, w*h),
			Palette: append(color.Palette(nil), s.Palette...),
		}
		for y := 0; y < h; y++ {
			off := s.PixOffset(b.Min.X, b.Min.Y+y)
			copy(out.Pix[y*w:(y+1)*w], s.Pix[off:off+w])
		}
		return out, nil
	case *image.NRGBA:
		// Copied directly: a round trip through premultiplied color loses
		// precision at low alpha.
		rowLen := w * 4
		pix := make([]byte, rowLen*h)
		for y := 0; y < h; y++ {
			off := s.PixOffset(b.Min.X, b.Min.Y+y)
			copy(pix[y*rowLen:(y+1)*rowLen], s.Pix[off:off+rowLen])
		}
		if s.Opaque() {
			return &Image{Mode: RGB, Width: w, Height: h, Pix: dropAlpha(pix)}, nil
		}
		return &Image{Mode: RGBA, Width: w, Height: h, Pix: pix}, nil
	}

	if o, ok := src.(interface{ Opaque() bool }); ok && o.Opaque() {
		// Premultiplied and straight alpha agree when every pixel is opaque,
		// so the fast RGBA path is safe here.
		rgba := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.Draw(rgba, rgba.Bounds(), src, b.Min, draw.Src)
		return &Image{Mode: RGB, Width: w, Height: h, Pix: dropAlpha(rgba.Pix)}, nil
	}

	// Opaque may be conservative or missing, so the alpha channel decides.
	nrgba := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(nrgba, nrgba.Bounds(), src, b.Min, draw.Src)
	if opaquePix(nrgba.Pix) {
		return &Image{Mode: RGB, Width: w, Height: h, Pix: dropAlpha(nrgba.Pix)}, nil
	}
	return &Image{Mode: RGBA, Width: w, Height: h, Pix: nrgba.Pix}, nil
}

// Image returns a standard library view of the raster. Gray, RGBA and
// Indexed rasters share Pix with the returned image; RGB is expanded into
// an opaque NRGBA copy.
func (img *Image) Image() image.Image {
	r := img.Bounds()
	switch img.Mode {
	case Gray:
		return &image.Gray{Pix: img.Pix, Stride: img.Width, Rect: r}
	case RGBA:
		return &image.NRGBA{Pix: img.Pix, Stride: img.Width * 4, Rect: r}
	case Indexed:
		return &image.Paletted{Pix: img.Pix, Stride: img.Width, Rect: r, Palette: img.Palette}
	default:
		out := image.NewNRGBA(r)
		for i, j := 0, 0; i+2 < len(img.Pix); i, j = i+3, j+4 {
			out.Pix[j] = img.Pix[i]
			out.Pix[j+1] = img.Pix[i+1]
			out.Pix[j+2] = img.Pix[i+2]
			out.Pix[j+3] = 0xff
		}
		return out
	}
}

// opaquePix reports whether every alpha byte of NRGBA pixels is 0xff.
func opaquePix(pix []byte) bool {
	for i := 3; i < len(pix); i += 4 {
		if pix[i] != 0xff {
			return false
		}
	}
	return true
}

func dropAlpha(pix []byte) []byte {
	out := make([]byte, len(pix)/4*3)
	for i, j := 0, 0; i+3 < len(pix); i, j = i+4, j+3 {
		out[j] = pix[i]
		out[j+1] = pix[i+1]
		out[j+2] = pix[i+2]
	}
	return out
}
