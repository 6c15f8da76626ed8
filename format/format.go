package format

import (
	"fmt"
	"path/filepath"
	"strings"
)

type Kind int

const (
	Unsupported Kind = iota
	Container
	Direct
)

const (
	ContainerExt = ".livp"
	DirectExt    = ".heic"
)

func (k Kind) String() string {
	switch k {
	case Container:
		return "container"
	case Direct:
		return "direct"
	default:
		return "unsupported"
	}
}

// Classify decides the input kind from the file name suffix alone.
// Matching is case-insensitive and no I/O is performed.
func Classify(name string) Kind {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ContainerExt):
		return Container
	case strings.HasSuffix(lower, DirectExt):
		return Direct
	default:
		return Unsupported
	}
}

func IsDirect(name string) bool {
	return Classify(name) == Direct
}

type Output int

const (
	JPEG Output = iota
	PNG
)

var outputNames = map[string]Output{
	"jpg":  JPEG,
	"jpeg": JPEG,
	"png":  PNG,
}

func ParseOutput(s string) (Output, error) {
	out, ok := outputNames[strings.ToLower(strings.TrimPrefix(s, "."))]
	if !ok {
		return 0, fmt.Errorf("unsupported output format %q (want jpg or png)", s)
	}
	return out, nil
}

// Ext returns the lowercase extension used for output file names, without the dot.
func (o Output) Ext() string {
	if o == PNG {
		return "png"
	}
	return "jpg"
}

func (o Output) String() string {
	if o == PNG {
		return "PNG"
	}
	return "JPEG"
}

// OutputName maps an input path to the output file name: the base name
// without its extension, a dot, then the lowercase output extension.
func OutputName(input string, o Output) string {
	base := filepath.Base(input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return stem + "." + o.Ext()
}
