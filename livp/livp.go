// Package livp opens live-photo containers.
//
// A .livp file is a zip archive that wraps the still image (.heic) and the
// motion clip (.mov) of a live photo. Only the first embedded .heic member
// is ever used.
package livp

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/pkg/errors"
	filetype "gopkg.in/h2non/filetype.v1"
	"gopkg.in/h2non/filetype.v1/matchers"

	"livpconv/format"
)

const DefaultSpillThreshold = 64 << 20

// sniffLen covers every magic number filetype knows about.
const sniffLen = 262

var ErrContainerEmpty = errors.New("no embedded .heic image in container")

// ArchiveError reports a container that is not a readable zip archive.
type ArchiveError struct {
	Path string
	Err  error
}

func (e *ArchiveError) Error() string {
	return "archive " + filepath.Base(e.Path) + ": " + e.Err.Error()
}

func (e *ArchiveError) Unwrap() error { return e.Err }

type Options struct {
	// SpillThreshold is the largest member kept in memory. Larger members
	// are extracted to a scratch file. Zero means DefaultSpillThreshold.
	SpillThreshold int64
	// ScratchDir receives spilled members. Empty means os.TempDir().
	ScratchDir string
}

func (o Options) threshold() int64 {
	if o.SpillThreshold <= 0 {
		return DefaultSpillThreshold
	}
	return o.SpillThreshold
}

type source interface {
	io.Reader
	io.ReaderAt
	io.Seeker
}

// Member is the extracted payload of one archive entry. It is readable
// until Close, which releases the buffer or removes the scratch file.
type Member struct {
	source
	Name string
	Size int64

	file    *os.File
	scratch string
}

// Spilled reports whether the member lives in a scratch file.
func (m *Member) Spilled() bool { return m.scratch != "" }

func (m *Member) ScratchPath() string { return m.scratch }

func (m *Member) Close() error {
	m.source = bytes.NewReader(nil)
	if m.file == nil {
		return nil
	}
	err := m.file.Close()
	if rmErr := os.Remove(m.scratch); rmErr != nil && !os.IsNotExist(rmErr) && err == nil {
		err = rmErr
	}
	m.file = nil
	return err
}

// Open reads the container at p and extracts its first .heic member.
// Filesystem failures are returned as they are; anything wrong with the
// archive itself is an *ArchiveError, and an archive without a .heic
// member yields ErrContainerEmpty.
func Open(p string, opts Options) (*Member, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, errors.Wrap(err, "open container")
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, errors.Wrap(err, "stat container")
	}

	if err := sniff(f); err != nil {
		return nil, &ArchiveError{Path: p, Err: err}
	}

	zr, err := zip.NewReader(f, fi.Size())
	if err != nil {
		return nil, &ArchiveError{Path: p, Err: err}
	}

	zf := Find(zr)
	if zf == nil {
		return nil, errors.Wrap(ErrContainerEmpty, filepath.Base(p))
	}

	return extract(p, zf, opts)
}

// Find returns the first non-directory entry, in central directory order,
// whose name carries the .heic suffix.
func Find(zr *zip.Reader) *zip.File {
	for _, zf := range zr.File {
		if zf.FileInfo().IsDir() {
			continue
		}
		if format.IsDirect(path.Base(zf.Name)) {
			return zf
		}
	}
	return nil
}

func sniff(f *os.File) error {
	head := make([]byte, sniffLen)
	n, err := f.ReadAt(head, 0)
	if err != nil && err != io.EOF {
		return errors.Wrap(err, "read header")
	}
	kind, err := filetype.Match(head[:n])
	if err != nil {
		return errors.Wrap(err, "detect file type")
	}
	if kind != matchers.TypeZip {
		if kind == filetype.Unknown {
			return errors.New("not a zip archive")
		}
		return errors.Errorf("not a zip archive (looks like %s)", kind.Extension)
	}
	return nil
}

func extract(p string, zf *zip.File, opts Options) (*Member, error) {
	rc, err := zf.Open()
	if err != nil {
		return nil, &ArchiveError{Path: p, Err: errors.Wrapf(err, "open member %s", zf.Name)}
	}
	defer rc.Close()

	limit := opts.threshold()
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, &ArchiveError{Path: p, Err: errors.Wrapf(err, "read member %s", zf.Name)}
	}
	if n <= limit {
		return &Member{source: bytes.NewReader(buf.Bytes()), Name: zf.Name, Size: n}, nil
	}

	tmp, err := os.CreateTemp(opts.ScratchDir, ".livp-*.heic")
	if err != nil {
		return nil, errors.Wrap(err, "create scratch file")
	}
	tmpPath := tmp.Name()
	defer func() {
		if tmp != nil {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		return nil, errors.Wrap(err, "write scratch file")
	}
	rest, err := io.Copy(tmp, rc)
	if err != nil {
		if isWriteErr(err) {
			return nil, errors.Wrap(err, "write scratch file")
		}
		return nil, &ArchiveError{Path: p, Err: errors.Wrapf(err, "read member %s", zf.Name)}
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return nil, errors.Wrap(err, "rewind scratch file")
	}

	m := &Member{source: tmp, Name: zf.Name, Size: n + rest, file: tmp, scratch: tmpPath}
	tmp = nil
	return m, nil
}

func isWriteErr(err error) bool {
	var pe *os.PathError
	return errors.As(err, &pe) && pe.Op == "write"
}
