package convert

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"livpconv/format"
)

const DefaultOutputDirName = "converted"

// Input is either a directory to enumerate or an explicit list of files.
type Input struct {
	Dir       string
	Files     []string
	Recursive bool
}

// Batch is the result of Scan: the tasks to run, in enumeration order, and
// the inputs that were skipped as unsupported.
type Batch struct {
	Location  string
	OutputDir string
	Tasks     []Task
	Skipped   []string
}

// Scan validates the input, resolves the output directory and classifies
// every candidate. Errors returned here are configuration errors and no
// task has run.
func (c *Converter) Scan(in Input) (*Batch, error) {
	if in.Dir == "" && len(in.Files) == 0 {
		return nil, fmt.Errorf("no input specified")
	}

	var (
		b   Batch
		err error
	)
	if in.Dir != "" {
		err = c.scanDir(&b, in)
	} else {
		err = c.scanFiles(&b, in.Files)
	}
	if err != nil {
		return nil, err
	}

	seen := make(map[string]string, len(b.Tasks))
	for i := range b.Tasks {
		t := &b.Tasks[i]
		if prev, ok := seen[t.Output]; ok {
			t.Overwrites = prev
		}
		seen[t.Output] = t.Source
	}
	return &b, nil
}

func (c *Converter) scanDir(b *Batch, in Input) error {
	fi, err := os.Stat(in.Dir)
	if err != nil {
		return fmt.Errorf("input directory: %w", err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("input %s is not a directory", in.Dir)
	}

	b.Location = in.Dir
	b.OutputDir = c.Options.OutputDir
	if b.OutputDir == "" {
		b.OutputDir = filepath.Join(in.Dir, DefaultOutputDirName)
	}

	if !in.Recursive {
		entries, err := os.ReadDir(in.Dir)
		if err != nil {
			return fmt.Errorf("read input directory: %w", err)
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			c.add(b, filepath.Join(in.Dir, e.Name()), "")
		}
		return nil
	}

	outAbs, _ := filepath.Abs(b.OutputDir)
	return filepath.WalkDir(in.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if abs, _ := filepath.Abs(path); abs == outAbs && path != in.Dir {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(in.Dir, filepath.Dir(path))
		if err != nil {
			return err
		}
		c.add(b, path, rel)
		return nil
	})
}

func (c *Converter) scanFiles(b *Batch, files []string) error {
	for _, f := range files {
		fi, err := os.Stat(f)
		if err != nil {
			return fmt.Errorf("input file: %w", err)
		}
		if fi.IsDir() {
			return fmt.Errorf("input %s is a directory; pass directories on their own", f)
		}
	}

	b.Location = filepath.Dir(files[0])
	b.OutputDir = c.Options.OutputDir
	if b.OutputDir == "" {
		b.OutputDir = filepath.Join(b.Location, DefaultOutputDirName)
	}
	for _, f := range files {
		c.add(b, f, "")
	}
	return nil
}

func (c *Converter) add(b *Batch, path, relDir string) {
	kind := format.Classify(filepath.Base(path))
	if kind == format.Unsupported {
		b.Skipped = append(b.Skipped, path)
		return
	}
	if relDir == "." {
		relDir = ""
	}
	b.Tasks = append(b.Tasks, Task{
		Source: path,
		Kind:   kind,
		Output: filepath.Join(b.OutputDir, relDir, format.OutputName(path, c.Options.Format)),
		Format: c.Options.Format,
	})
}

func baseName(path string) string {
	return filepath.Base(path)
}
