package convert

import (
	"errors"
	"io/fs"

	"livpconv/encoder"
	"livpconv/heic"
	"livpconv/livp"
)

// ErrorKind classifies why a task failed.
type ErrorKind string

const (
	ArchiveError   ErrorKind = "ArchiveError"
	ContainerEmpty ErrorKind = "ContainerEmpty"
	DecodeError    ErrorKind = "DecodeError"
	EncodeError    ErrorKind = "EncodeError"
	IOError        ErrorKind = "IOError"
)

// Classify maps a task error to its kind. Typed errors from the codec
// packages win; otherwise filesystem errors are IOError and the rest fall
// back to the stage the task was in when it failed.
func Classify(err error, stage State) ErrorKind {
	var (
		ae *livp.ArchiveError
		de *heic.DecodeError
		ee *encoder.EncodeError
		pe *fs.PathError
	)
	switch {
	case errors.As(err, &ae):
		return ArchiveError
	case errors.Is(err, livp.ErrContainerEmpty):
		return ContainerEmpty
	case errors.As(err, &de):
		return DecodeError
	case errors.As(err, &ee):
		return EncodeError
	case errors.As(err, &pe):
		return IOError
	}

	switch stage {
	case Extracting:
		return ArchiveError
	case Decoding:
		return DecodeError
	case Encoding:
		return EncodeError
	default:
		return IOError
	}
}
