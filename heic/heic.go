// Package heic decodes HEIF still images into rasters.
//
// HEVC coded files go through goheif. Files branded as AVIF (AV1 inside the
// same HEIF container) go through the AVIF decoder instead.
package heic

import (
	"fmt"
	"image"
	"io"

	"github.com/gen2brain/avif"
	"github.com/jdeng/goheif"
	"github.com/pkg/errors"

	"livpconv/raster"
)

// Source is a seekable, randomly addressable image payload: an open file or
// an in-memory container member.
type Source interface {
	io.Reader
	io.ReaderAt
	io.Seeker
}

type Picture struct {
	Image *raster.Image
	// Exif is the raw EXIF block stored next to the image, if any.
	Exif  []byte
	Brand string
}

type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return "decode: " + e.Err.Error() }

func (e *DecodeError) Unwrap() error { return e.Err }

type Decoder struct {
	KeepExif bool
}

// Decode parses one HEIF payload. It never returns a partial picture:
// either the full raster is produced or a *DecodeError is returned.
func (d Decoder) Decode(src Source) (pic *Picture, err error) {
	defer func() {
		if r := recover(); r != nil {
			pic = nil
			err = &DecodeError{Err: fmt.Errorf("decoder panic: %v", r)}
		}
	}()

	ft, err := ReadFileType(src)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	if !ft.Supported() {
		return nil, &DecodeError{Err: errors.Errorf("unsupported brand %q", ft.Major)}
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, &DecodeError{Err: errors.Wrap(err, "rewind payload")}
	}

	var img image.Image
	if ft.IsAVIF() {
		img, err = avif.Decode(src)
	} else {
		img, err = goheif.Decode(src)
	}
	if err != nil {
		return nil, &DecodeError{Err: errors.Wrapf(err, "decode %s payload", ft.Major)}
	}

	r, err := raster.FromImage(img)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	if err := r.Validate(); err != nil {
		return nil, &DecodeError{Err: err}
	}

	pic = &Picture{Image: r, Brand: ft.Major}
	if d.KeepExif && !ft.IsAVIF() {
		pic.Exif = extractExif(src)
	}
	return pic, nil
}

// extractExif returns nil when the payload carries no usable EXIF block.
func extractExif(src io.ReaderAt) (exif []byte) {
	defer func() {
		if recover() != nil {
			exif = nil
		}
	}()
	exif, err := goheif.ExtractExif(src)
	if err != nil || len(exif) == 0 {
		return nil
	}
	return exif
}
