package heic

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// maxFtypSize bounds how much of a malformed header we are willing to read.
const maxFtypSize = 4096

// FileType is the content of the leading ISO-BMFF ftyp box.
type FileType struct {
	Major      string
	Minor      uint32
	Compatible []string
}

var hevcBrands = map[string]bool{
	"heic": true,
	"heix": true,
	"heim": true,
	"heis": true,
	"hevc": true,
	"hevx": true,
}

var avifBrands = map[string]bool{
	"avif": true,
	"avis": true,
}

var structuralBrands = map[string]bool{
	"mif1": true,
	"msf1": true,
}

// ReadFileType parses the ftyp box at the start of r.
func ReadFileType(r io.ReaderAt) (FileType, error) {
	var head [16]byte
	if n, err := r.ReadAt(head[:], 0); n < len(head) {
		if err == nil || err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return FileType{}, errors.Wrap(err, "read ftyp box")
	}
	if string(head[4:8]) != "ftyp" {
		return FileType{}, errors.New("missing ftyp box")
	}
	size := binary.BigEndian.Uint32(head[0:4])
	if size < 16 || size > maxFtypSize || size%4 != 0 {
		return FileType{}, errors.Errorf("invalid ftyp box size %d", size)
	}

	box := make([]byte, size)
	if n, err := r.ReadAt(box, 0); n < len(box) {
		if err == nil || err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return FileType{}, errors.Wrap(err, "read ftyp box")
	}

	ft := FileType{
		Major: string(box[8:12]),
		Minor: binary.BigEndian.Uint32(box[12:16]),
	}
	for i := 16; i+4 <= len(box); i += 4 {
		ft.Compatible = append(ft.Compatible, string(box[i:i+4]))
	}
	return ft, nil
}

func (ft FileType) has(brands map[string]bool) bool {
	if brands[ft.Major] {
		return true
	}
	for _, b := range ft.Compatible {
		if brands[b] {
			return true
		}
	}
	return false
}

// IsAVIF reports an AV1 coded HEIF file. A file that also lists an HEVC
// brand is treated as HEVC.
func (ft FileType) IsAVIF() bool {
	if avifBrands[ft.Major] {
		return true
	}
	return ft.has(avifBrands) && !ft.has(hevcBrands)
}

func (ft FileType) Supported() bool {
	return ft.has(hevcBrands) || ft.has(avifBrands) || structuralBrands[ft.Major]
}
