package encoder

import (
	"bytes"
	"fmt"

	exif "github.com/dsoprea/go-exif/v3"
	exifcommon "github.com/dsoprea/go-exif/v3/common"
	jpegstructure "github.com/dsoprea/go-jpeg-image-structure/v2"
	pngstructure "github.com/dsoprea/go-png-image-structure/v2"
	"github.com/pkg/errors"

	"livpconv/format"
)

// embedExif copies the EXIF block found in raw into an encoded JPEG or PNG.
// raw may carry a container prefix ahead of the TIFF header, as the HEIF
// Exif item does.
func embedExif(data []byte, out format.Output, raw []byte) (result []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("exif: %v", r)
		}
	}()

	ib, err := exifBuilder(raw)
	if err != nil {
		return nil, err
	}

	var b bytes.Buffer
	switch out {
	case format.PNG:
		intfc, err := pngstructure.NewPngMediaParser().ParseBytes(data)
		if err != nil {
			return nil, errors.Wrap(err, "parse png")
		}
		cs, ok := intfc.(*pngstructure.ChunkSlice)
		if !ok {
			return nil, errors.New("unexpected png structure")
		}
		if err := cs.SetExif(ib); err != nil {
			return nil, errors.Wrap(err, "set png exif")
		}
		if err := cs.WriteTo(&b); err != nil {
			return nil, errors.Wrap(err, "write png")
		}
	default:
		intfc, err := jpegstructure.NewJpegMediaParser().ParseBytes(data)
		if err != nil {
			return nil, errors.Wrap(err, "parse jpeg")
		}
		sl, ok := intfc.(*jpegstructure.SegmentList)
		if !ok {
			return nil, errors.New("unexpected jpeg structure")
		}
		if err := sl.SetExif(ib); err != nil {
			return nil, errors.Wrap(err, "set jpeg exif")
		}
		if err := sl.Write(&b); err != nil {
			return nil, errors.Wrap(err, "write jpeg")
		}
	}
	return b.Bytes(), nil
}

func exifBuilder(raw []byte) (*exif.IfdBuilder, error) {
	rawExif, err := exif.SearchAndExtractExif(raw)
	if err != nil {
		return nil, errors.Wrap(err, "locate exif")
	}
	im, err := exifcommon.NewIfdMappingWithStandard()
	if err != nil {
		return nil, errors.Wrap(err, "ifd mapping")
	}
	ti := exif.NewTagIndex()
	_, index, err := exif.Collect(im, ti, rawExif)
	if err != nil {
		return nil, errors.Wrap(err, "parse exif")
	}
	return exif.NewIfdBuilderFromExistingChain(index.RootIfd), nil
}
