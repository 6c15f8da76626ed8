package encoder

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"golang.org/x/image/draw"

	"livpconv/format"
	"livpconv/raster"
)

const DefaultQuality = 75

type EncodeError struct {
	Path string
	Err  error
}

func (e *EncodeError) Error() string {
	return "encode " + filepath.Base(e.Path) + ": " + e.Err.Error()
}

func (e *EncodeError) Unwrap() error { return e.Err }

type Encoder struct {
	// Quality is the JPEG quality, 1-100. Zero means DefaultQuality.
	Quality int
}

type Result struct {
	Path string
	Size int64
	// Mode is the color mode actually written.
	Mode raster.Mode
	// ExifErr is set when EXIF was supplied but could not be embedded.
	// The image itself was still written.
	ExifErr error
}

// TargetMode is the fixed color mode mapping applied before encoding.
// PNG stores every raster mode natively; JPEG has no alpha and no palette,
// so RGBA loses its alpha channel and Indexed is expanded through its
// palette.
func TargetMode(m raster.Mode, out format.Output) (raster.Mode, error) {
	if m.BytesPerPixel() == 0 {
		return 0, errors.Errorf("unsupported color mode %v", m)
	}
	if out == format.PNG {
		return m, nil
	}
	switch m {
	case raster.Gray:
		return raster.Gray, nil
	case raster.RGB, raster.RGBA, raster.Indexed:
		return raster.RGB, nil
	}
	return 0, errors.Errorf("no %v mapping for mode %v", out, m)
}

func (e Encoder) quality() int {
	if e.Quality <= 0 || e.Quality > 100 {
		return DefaultQuality
	}
	return e.Quality
}

// Encode serializes img in the requested format.
func (e Encoder) Encode(img *raster.Image, out format.Output) ([]byte, raster.Mode, error) {
	if err := img.Validate(); err != nil {
		return nil, 0, err
	}
	mode, err := TargetMode(img.Mode, out)
	if err != nil {
		return nil, 0, err
	}

	var buf bytes.Buffer
	switch out {
	case format.PNG:
		enc := png.Encoder{CompressionLevel: png.DefaultCompression}
		err = enc.Encode(&buf, img.Image())
	default:
		err = jpeg.Encode(&buf, jpegSource(img), &jpeg.Options{Quality: e.quality()})
	}
	if err != nil {
		return nil, 0, errors.Wrapf(err, "%v encoder", out)
	}
	return buf.Bytes(), mode, nil
}

// WriteFile encodes img and writes it to path. The bytes go to a temporary
// file in the same directory which is renamed over path only once it is
// complete, so path never holds a partial image. EXIF, when given, is
// embedded on a best-effort basis.
func (e Encoder) WriteFile(path string, img *raster.Image, out format.Output, exif []byte) (Result, error) {
	data, mode, err := e.Encode(img, out)
	if err != nil {
		return Result{}, &EncodeError{Path: path, Err: err}
	}

	res := Result{Path: path, Mode: mode}
	if len(exif) > 0 {
		withExif, err := embedExif(data, out, exif)
		if err != nil {
			res.ExifErr = err
		} else {
			data = withExif
		}
	}

	if err := writeAtomic(path, data); err != nil {
		return Result{}, &EncodeError{Path: path, Err: err}
	}
	res.Size = int64(len(data))
	return res, nil
}

func writeAtomic(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return errors.Wrap(err, "create temporary file")
	}
	tmpPath := tmp.Name()

	tmpClosed := false
	defer func() {
		if !tmpClosed {
			tmp.Close()
		}
		if err != nil {
			os.Remove(tmpPath)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return errors.Wrap(err, "write temporary file")
	}
	if err = tmp.Sync(); err != nil {
		return errors.Wrap(err, "sync temporary file")
	}
	tmpClosed = true
	if err = tmp.Close(); err != nil {
		return errors.Wrap(err, "close temporary file")
	}
	if err = os.Chmod(tmpPath, 0o644); err != nil {
		return errors.Wrap(err, "chmod temporary file")
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return errors.Wrap(err, "rename temporary file")
	}
	return nil
}

// jpegSource applies the JPEG column of TargetMode.
func jpegSource(img *raster.Image) image.Image {
	r := img.Bounds()
	switch img.Mode {
	case raster.Gray:
		return img.Image()
	case raster.Indexed:
		opaque := make(color.Palette, len(img.Palette))
		for i, c := range img.Palette {
			n := color.NRGBAModel.Convert(c).(color.NRGBA)
			n.A = 0xff
			opaque[i] = n
		}
		src := &image.Paletted{Pix: img.Pix, Stride: img.Width, Rect: r, Palette: opaque}
		dst := image.NewRGBA(r)
		draw.Draw(dst, r, src, image.Point{}, draw.Src)
		return dst
	}

	// RGB and RGBA: keep the stored color channels, force full opacity.
	bpp := img.Mode.BytesPerPixel()
	dst := image.NewRGBA(r)
	for i, j := 0, 0; i+bpp <= len(img.Pix); i, j = i+bpp, j+4 {
		dst.Pix[j] = img.Pix[i]
		dst.Pix[j+1] = img.Pix[i+1]
		dst.Pix[j+2] = img.Pix[i+2]
		dst.Pix[j+3] = 0xff
	}
	return dst
}
